package identity

import (
	"context"

	"github.com/google/uuid"
)

// MerchantRepository persists merchant tenant records (control plane,
// shared store)
type MerchantRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Merchant, error)
	FindByName(ctx context.Context, name string) (*Merchant, error)
	Save(ctx context.Context, merchant *Merchant) error
}

// MembershipRepository persists stakeholder memberships (control
// plane, shared store)
type MembershipRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*StakeholderMembership, error)
	FindByCustomerAndMerchant(ctx context.Context, customerID, merchantID uuid.UUID) (*StakeholderMembership, error)
	Save(ctx context.Context, membership *StakeholderMembership) error
	Delete(ctx context.Context, id uuid.UUID) error
}
