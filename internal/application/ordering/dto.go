package ordering

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fulfillment/backend/internal/domain/ordering"
)

// CreateOrderRequest carries the fields supplied on order placement
type CreateOrderRequest struct {
	LocationID *uuid.UUID
	DeviceID   *uuid.UUID
	ChargeMode ordering.ChargeMode
	Subtotal   decimal.Decimal
	Discount   decimal.Decimal
	Fee        decimal.Decimal
	Tax        decimal.Decimal
	Tip        decimal.Decimal
	Total      decimal.Decimal
	Notes      string
}

// GuestInput carries contact fields for a guest participant
type GuestInput struct {
	Name    string
	Phone   string
	Address string
}

// AddParticipantRequest attaches one payer to an order. Exactly one of
// CustomerID or Guest must be set.
type AddParticipantRequest struct {
	CustomerID        *uuid.UUID
	Guest             *GuestInput
	PaymentMethod     ordering.PaymentMethod
	PaymentProviderID *uuid.UUID
}

// ParticipantResponse is the API view of an order participant
type ParticipantResponse struct {
	ID                string     `json:"id"`
	OrderID           string     `json:"order_id"`
	CustomerID        *string    `json:"customer_id,omitempty"`
	GuestProfileID    *string    `json:"guest_profile_id,omitempty"`
	Status            string     `json:"status"`
	StatusCode        int        `json:"status_code"`
	PaymentMethod     string     `json:"payment_method"`
	PaymentProviderID *string    `json:"payment_provider_id,omitempty"`
	PaymentReference  string     `json:"payment_reference,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// OrderResponse is the API view of an order
type OrderResponse struct {
	ID           string                `json:"id"`
	TenantID     string                `json:"tenant_id"`
	Status       string                `json:"status"`
	StatusCode   int                   `json:"status_code"`
	LocationID   *string               `json:"location_id,omitempty"`
	DeviceID     *string               `json:"device_id,omitempty"`
	ChargeMode   string                `json:"charge_mode"`
	Subtotal     string                `json:"subtotal"`
	Discount     string                `json:"discount"`
	Fee          string                `json:"fee"`
	Tax          string                `json:"tax"`
	Tip          string                `json:"tip"`
	Total        string                `json:"total"`
	Notes        string                `json:"notes,omitempty"`
	Participants []ParticipantResponse `json:"participants"`
	CreatedAt    time.Time             `json:"created_at"`
	UpdatedAt    time.Time             `json:"updated_at"`
	Version      int                   `json:"version"`
}

// AuditEntryResponse is the API view of one audit trail line
type AuditEntryResponse struct {
	ID        string    `json:"id"`
	SubjectID string    `json:"subject_id"`
	Code      int       `json:"code"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

func uuidPtrToString(id *uuid.UUID) *string {
	if id == nil {
		return nil
	}
	s := id.String()
	return &s
}

// ToParticipantResponse converts a participant to its API view
func ToParticipantResponse(p *ordering.OrderParticipant) ParticipantResponse {
	return ParticipantResponse{
		ID:                p.ID.String(),
		OrderID:           p.OrderID.String(),
		CustomerID:        uuidPtrToString(p.CustomerID),
		GuestProfileID:    uuidPtrToString(p.GuestProfileID),
		Status:            p.Status.String(),
		StatusCode:        int(p.Status),
		PaymentMethod:     string(p.PaymentMethod),
		PaymentProviderID: uuidPtrToString(p.PaymentProviderID),
		PaymentReference:  p.PaymentReference,
		CreatedAt:         p.CreatedAt,
		UpdatedAt:         p.UpdatedAt,
	}
}

// ToOrderResponse converts an order to its API view
func ToOrderResponse(o *ordering.Order) OrderResponse {
	participants := make([]ParticipantResponse, 0, len(o.Participants))
	for i := range o.Participants {
		participants = append(participants, ToParticipantResponse(&o.Participants[i]))
	}
	return OrderResponse{
		ID:           o.ID.String(),
		TenantID:     o.TenantID.String(),
		Status:       o.Status.String(),
		StatusCode:   int(o.Status),
		LocationID:   uuidPtrToString(o.LocationID),
		DeviceID:     uuidPtrToString(o.DeviceID),
		ChargeMode:   string(o.ChargeMode),
		Subtotal:     o.Subtotal.StringFixed(2),
		Discount:     o.Discount.StringFixed(2),
		Fee:          o.Fee.StringFixed(2),
		Tax:          o.Tax.StringFixed(2),
		Tip:          o.Tip.StringFixed(2),
		Total:        o.Total.StringFixed(2),
		Notes:        o.Notes,
		Participants: participants,
		CreatedAt:    o.CreatedAt,
		UpdatedAt:    o.UpdatedAt,
		Version:      o.Version,
	}
}

// ToAuditEntryResponses converts audit entries to their API view
func ToAuditEntryResponses(entries []ordering.AuditEntry) []AuditEntryResponse {
	out := make([]AuditEntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, AuditEntryResponse{
			ID:        e.ID.String(),
			SubjectID: e.SubjectID.String(),
			Code:      e.Code,
			Message:   e.Message,
			CreatedAt: e.CreatedAt,
		})
	}
	return out
}
