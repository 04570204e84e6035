package persistence

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fulfillment/backend/internal/domain/ordering"
)

// GormPaymentTransactionRepository implements
// ordering.PaymentTransactionRepository using GORM. The ledger is
// append-only: there is no update or delete path.
type GormPaymentTransactionRepository struct {
	db *gorm.DB
}

// NewGormPaymentTransactionRepository creates a new
// GormPaymentTransactionRepository
func NewGormPaymentTransactionRepository(db *gorm.DB) *GormPaymentTransactionRepository {
	return &GormPaymentTransactionRepository{db: db}
}

// Append inserts a new ledger record
func (r *GormPaymentTransactionRepository) Append(ctx context.Context, txn *ordering.PaymentTransaction) error {
	return r.db.WithContext(ctx).Create(txn).Error
}

// FindByParticipant returns the ledger records of one participant in
// insertion order
func (r *GormPaymentTransactionRepository) FindByParticipant(ctx context.Context, participantID uuid.UUID) ([]ordering.PaymentTransaction, error) {
	var txns []ordering.PaymentTransaction
	if err := r.db.WithContext(ctx).
		Where("participant_id = ?", participantID).
		Order("created_at asc").
		Find(&txns).Error; err != nil {
		return nil, err
	}
	return txns, nil
}
