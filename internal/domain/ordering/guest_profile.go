package ordering

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fulfillment/backend/internal/domain/shared"
)

// GuestProfile holds contact data for a participant without a customer
// account. It is created alongside its participant; after creation only
// minor contact edits are allowed.
type GuestProfile struct {
	shared.TenantAggregateRoot
	Name    string `gorm:"size:200;not null"`
	Phone   string `gorm:"size:40"`
	Address string `gorm:"size:400"`

	DeletedAt gorm.DeletedAt `gorm:"index"`
}

// NewGuestProfile creates a guest profile
func NewGuestProfile(tenantID uuid.UUID, name, phone, address string) (*GuestProfile, error) {
	if tenantID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_TENANT", "Tenant ID cannot be empty")
	}
	if name == "" {
		return nil, shared.NewDomainError("INVALID_GUEST", "Guest name cannot be empty")
	}
	return &GuestProfile{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Name:                name,
		Phone:               phone,
		Address:             address,
	}, nil
}

// UpdateContact edits the mutable contact fields
func (g *GuestProfile) UpdateContact(phone, address string) {
	if phone != "" {
		g.Phone = phone
	}
	if address != "" {
		g.Address = address
	}
	g.UpdatedAt = time.Now()
}
