package ordering

import (
	"context"

	"github.com/google/uuid"

	"github.com/fulfillment/backend/internal/domain/shared"
)

// OrderRepository persists orders within one tenant store
type OrderRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Order, error)
	FindAll(ctx context.Context, filter shared.Filter) ([]Order, error)
	Save(ctx context.Context, order *Order) error
	// SaveWithLock saves with an optimistic version check. The pipeline
	// processors deliberately use Save; SaveWithLock is the
	// persistence-layer guard available to callers that need mutual
	// exclusion across concurrent requests.
	SaveWithLock(ctx context.Context, order *Order) error
	SoftDelete(ctx context.Context, id uuid.UUID) error
}

// ParticipantRepository persists order participants within one tenant store
type ParticipantRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*OrderParticipant, error)
	FindByOrder(ctx context.Context, orderID uuid.UUID) ([]OrderParticipant, error)
	Save(ctx context.Context, participant *OrderParticipant) error
	SaveWithLock(ctx context.Context, participant *OrderParticipant) error
}

// GuestProfileRepository persists guest profiles within one tenant store
type GuestProfileRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*GuestProfile, error)
	Save(ctx context.Context, profile *GuestProfile) error
}

// PaymentTransactionRepository appends immutable ledger records
type PaymentTransactionRepository interface {
	Append(ctx context.Context, txn *PaymentTransaction) error
	FindByParticipant(ctx context.Context, participantID uuid.UUID) ([]PaymentTransaction, error)
}

// Stores bundles the repositories of one tenant's isolated store set.
// InTransaction runs fn against a store set whose repositories share a
// single database transaction -- except Audit, which always writes
// through the root connection so entries survive a rollback.
type Stores interface {
	Orders() OrderRepository
	Participants() ParticipantRepository
	Guests() GuestProfileRepository
	Transactions() PaymentTransactionRepository
	Audit() AuditLedger
	InTransaction(ctx context.Context, fn func(tx Stores) error) error
}

// TenantStoreRepository resolves the isolated store set of a tenant.
// Stores are provisioned when a tenant is onboarded and looked up by
// tenant id on every pipeline invocation.
type TenantStoreRepository interface {
	Provision(ctx context.Context, tenantID uuid.UUID) (Stores, error)
	Stores(ctx context.Context, tenantID uuid.UUID) (Stores, error)
}
