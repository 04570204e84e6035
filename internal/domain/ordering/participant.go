package ordering

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fulfillment/backend/internal/domain/shared"
)

// PaymentMethod tags how a participant intends to settle their share
type PaymentMethod string

const (
	PaymentMethodAccount PaymentMethod = "ACCOUNT"
	PaymentMethodCard    PaymentMethod = "CARD"
	PaymentMethodCash    PaymentMethod = "CASH"
)

// ParticipantAllocation links a participant to one of the order's line
// items. The OPEN stage requires that none exist yet.
type ParticipantAllocation struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey"`
	ParticipantID uuid.UUID `gorm:"type:uuid;not null;index"`
	LineItemID    uuid.UUID `gorm:"type:uuid;not null"`
	CreatedAt     time.Time
}

// OrderParticipant is one payer/recipient attached to an order. It
// references either a customer account or a guest profile, never both.
// Up to three provider-linkage slots (payment, loyalty, communications)
// carry an optional provider id plus reference number.
type OrderParticipant struct {
	shared.TenantAggregateRoot
	OrderID        uuid.UUID  `gorm:"type:uuid;not null;index"`
	CustomerID     *uuid.UUID `gorm:"type:uuid;index"`
	GuestProfileID *uuid.UUID `gorm:"type:uuid;index"`

	Status        ParticipantStatus `gorm:"not null;default:0;index"`
	PaymentMethod PaymentMethod     `gorm:"size:20"`

	PaymentProviderID *uuid.UUID `gorm:"type:uuid"`
	PaymentReference  string     `gorm:"size:100"`
	LoyaltyProviderID *uuid.UUID `gorm:"type:uuid"`
	LoyaltyReference  string     `gorm:"size:100"`
	CommsProviderID   *uuid.UUID `gorm:"type:uuid"`
	CommsReference    string     `gorm:"size:100"`

	Allocations []ParticipantAllocation `gorm:"foreignKey:ParticipantID"`

	DeletedAt gorm.DeletedAt `gorm:"index"`
}

// NewAccountParticipant creates a participant backed by a customer account
func NewAccountParticipant(tenantID, customerID uuid.UUID, method PaymentMethod) (*OrderParticipant, error) {
	if customerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CUSTOMER", "Customer ID cannot be empty")
	}
	return newParticipant(tenantID, &customerID, nil, method)
}

// NewGuestParticipant creates a participant backed by a guest profile
func NewGuestParticipant(tenantID, guestProfileID uuid.UUID, method PaymentMethod) (*OrderParticipant, error) {
	if guestProfileID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_GUEST", "Guest profile ID cannot be empty")
	}
	return newParticipant(tenantID, nil, &guestProfileID, method)
}

func newParticipant(tenantID uuid.UUID, customerID, guestProfileID *uuid.UUID, method PaymentMethod) (*OrderParticipant, error) {
	if tenantID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_TENANT", "Tenant ID cannot be empty")
	}
	if (customerID == nil) == (guestProfileID == nil) {
		return nil, shared.NewDomainError("INVALID_PARTICIPANT", "Exactly one of customer or guest profile must be set")
	}
	return &OrderParticipant{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		CustomerID:          customerID,
		GuestProfileID:      guestProfileID,
		Status:              ParticipantStatusOpen,
		PaymentMethod:       method,
		Allocations:         make([]ParticipantAllocation, 0),
	}, nil
}

// IsGuest reports whether the participant references a guest profile
func (p *OrderParticipant) IsGuest() bool {
	return p.GuestProfileID != nil
}

// SenderID returns the id identifying the payer: the customer id for
// account participants, the guest profile id otherwise.
func (p *OrderParticipant) SenderID() uuid.UUID {
	if p.CustomerID != nil {
		return *p.CustomerID
	}
	if p.GuestProfileID != nil {
		return *p.GuestProfileID
	}
	return uuid.Nil
}

// SetStatus moves the participant to the given status
func (p *OrderParticipant) SetStatus(status ParticipantStatus) error {
	if !status.IsValid() {
		return shared.NewDomainError("INVALID_STATE", "unknown participant status")
	}
	p.Status = status
	p.UpdatedAt = time.Now()
	return nil
}

// RecordPaymentReference stores the provider reference returned by a
// payment send. The payment linkage is write-once: after a reference
// number is recorded both the provider id and the reference are
// immutable.
func (p *OrderParticipant) RecordPaymentReference(providerID *uuid.UUID, reference string) error {
	if reference == "" {
		return shared.NewDomainError("INVALID_REFERENCE", "Payment reference cannot be empty")
	}
	if p.PaymentReference != "" {
		return NewPipelineError(ErrnoParticipantRefImmutable, "payment reference already recorded")
	}
	p.PaymentProviderID = providerID
	p.PaymentReference = reference
	p.UpdatedAt = time.Now()
	return nil
}

// SetLoyaltyLinkage records the loyalty provider linkage slot
func (p *OrderParticipant) SetLoyaltyLinkage(providerID *uuid.UUID, reference string) {
	p.LoyaltyProviderID = providerID
	p.LoyaltyReference = reference
	p.UpdatedAt = time.Now()
}

// SetCommsLinkage records the communications provider linkage slot
func (p *OrderParticipant) SetCommsLinkage(providerID *uuid.UUID, reference string) {
	p.CommsProviderID = providerID
	p.CommsReference = reference
	p.UpdatedAt = time.Now()
}

// ValidateForOpen checks the participant OPEN stage rules
func (p *OrderParticipant) ValidateForOpen() *PipelineError {
	if len(p.Allocations) > 0 {
		return NewPipelineError(ErrnoParticipantItemsAttached, "participant has pre-attached line item allocations")
	}
	return nil
}
