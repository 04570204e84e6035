package identity

import (
	"time"

	"github.com/google/uuid"

	identitydom "github.com/fulfillment/backend/internal/domain/identity"
)

// CreateMembershipRequest registers a stakeholder at a merchant
type CreateMembershipRequest struct {
	MerchantID uuid.UUID                 `json:"merchant_id" binding:"required"`
	CustomerID uuid.UUID                 `json:"customer_id" binding:"required"`
	Level      identitydom.PrivilegeLevel `json:"level" binding:"required"`
	LocationID *uuid.UUID                `json:"location_id,omitempty"`
	ServiceID  *uuid.UUID                `json:"service_id,omitempty"`
	Secret     string                    `json:"secret" binding:"required,min=8"`
}

// MerchantResponse is the API shape of a merchant tenant
type MerchantResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// MembershipResponse is the API shape of a membership
type MembershipResponse struct {
	ID         uuid.UUID  `json:"id"`
	MerchantID uuid.UUID  `json:"merchant_id"`
	CustomerID uuid.UUID  `json:"customer_id"`
	Level      int        `json:"level"`
	LocationID *uuid.UUID `json:"location_id,omitempty"`
	ServiceID  *uuid.UUID `json:"service_id,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

// ToMerchantResponse converts a merchant aggregate to its API shape
func ToMerchantResponse(m *identitydom.Merchant) MerchantResponse {
	return MerchantResponse{
		ID:        m.ID,
		Name:      m.Name,
		Status:    string(m.Status),
		CreatedAt: m.CreatedAt,
	}
}

// ToMembershipResponse converts a membership to its API shape
func ToMembershipResponse(m *identitydom.StakeholderMembership) MembershipResponse {
	return MembershipResponse{
		ID:         m.ID,
		MerchantID: m.MerchantID,
		CustomerID: m.CustomerID,
		Level:      int(m.Level),
		LocationID: m.LocationID,
		ServiceID:  m.ServiceID,
		CreatedAt:  m.CreatedAt,
	}
}
