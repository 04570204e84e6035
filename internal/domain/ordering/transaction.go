package ordering

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fulfillment/backend/internal/domain/shared"
)

// PaymentTransaction is the immutable ledger record of one charge. It
// is appended after a successful provider send and never updated.
type PaymentTransaction struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey"`
	TenantID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	ParticipantID uuid.UUID       `gorm:"type:uuid;not null;index"`
	SenderID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	Amount        decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	Reference     string          `gorm:"size:100;not null"`
	CreatedAt     time.Time
}

// NewPaymentTransaction creates a ledger record for a completed charge
func NewPaymentTransaction(tenantID, participantID, senderID uuid.UUID, amount decimal.Decimal, reference string) (*PaymentTransaction, error) {
	if tenantID == uuid.Nil || participantID == uuid.Nil || senderID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "Transaction ids cannot be empty")
	}
	if !amount.IsPositive() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Transaction amount must be positive")
	}
	if reference == "" {
		return nil, shared.NewDomainError("INVALID_REFERENCE", "Transaction reference cannot be empty")
	}
	return &PaymentTransaction{
		ID:            uuid.New(),
		TenantID:      tenantID,
		ParticipantID: participantID,
		SenderID:      senderID,
		Amount:        amount,
		Reference:     reference,
		CreatedAt:     time.Now(),
	}, nil
}
