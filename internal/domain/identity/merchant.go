package identity

import (
	"time"

	"gorm.io/gorm"

	"github.com/fulfillment/backend/internal/domain/shared"
)

// MerchantStatus represents the lifecycle state of a merchant tenant
type MerchantStatus string

const (
	MerchantStatusActive    MerchantStatus = "ACTIVE"
	MerchantStatusSuspended MerchantStatus = "SUSPENDED"
)

// Merchant is a tenant: an isolated business whose orders, participants
// and audit data live in dedicated stores provisioned at onboarding.
type Merchant struct {
	shared.BaseAggregateRoot
	Name   string         `gorm:"size:200;not null;uniqueIndex"`
	Status MerchantStatus `gorm:"size:20;not null;default:'ACTIVE'"`

	DeletedAt gorm.DeletedAt `gorm:"index"`
}

// NewMerchant creates a merchant tenant record
func NewMerchant(name string) (*Merchant, error) {
	if name == "" {
		return nil, shared.NewDomainError("INVALID_MERCHANT", "Merchant name cannot be empty")
	}
	if len(name) > 200 {
		return nil, shared.NewDomainError("INVALID_MERCHANT", "Merchant name cannot exceed 200 characters")
	}
	return &Merchant{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              name,
		Status:            MerchantStatusActive,
	}, nil
}

// Suspend marks the merchant as suspended
func (m *Merchant) Suspend() {
	m.Status = MerchantStatusSuspended
	m.UpdatedAt = time.Now()
}

// IsActive reports whether the merchant can serve requests
func (m *Merchant) IsActive() bool {
	return m.Status == MerchantStatusActive
}
