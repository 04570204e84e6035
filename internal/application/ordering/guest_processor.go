package ordering

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fulfillment/backend/internal/domain/ordering"
)

// GuestReferencePrefix marks placeholder references written for guest
// participants, keeping them distinguishable from provider references.
const GuestReferencePrefix = "GUEST-"

// guestTransitions is the three-state guest pipeline
var guestTransitions = map[ordering.ParticipantStatus]ordering.ParticipantStatus{
	ordering.ParticipantStatusOpen:           ordering.ParticipantStatusReadyToProcess,
	ordering.ParticipantStatusReadyToProcess: ordering.ParticipantStatusProcessPayment,
	ordering.ParticipantStatusProcessPayment: ordering.ParticipantStatusComplete,
}

// GuestProcessor drives a guest participant through the simplified
// pipeline. Guests have no provider linkage: the payment stage writes
// a placeholder reference without any adapter call. Settling guests
// against a real gateway needs tokenized card data this system does
// not hold.
type GuestProcessor struct {
	handlers map[ordering.ParticipantStatus]participantHandler
	logger   *zap.Logger
}

// NewGuestProcessor builds the processor and validates its handler
// table at construction.
func NewGuestProcessor(logger *zap.Logger) (*GuestProcessor, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &GuestProcessor{logger: logger}
	p.handlers = map[ordering.ParticipantStatus]participantHandler{
		ordering.ParticipantStatusOpen:           p.handleOpen,
		ordering.ParticipantStatusReadyToProcess: p.handleReadyToProcess,
		ordering.ParticipantStatusProcessPayment: p.handleProcessPayment,
	}
	if err := validateParticipantTable(p.handlers, guestTransitions); err != nil {
		return nil, err
	}
	return p, nil
}

// Verify runs exactly one stage of the guest pipeline
func (p *GuestProcessor) Verify(ctx context.Context, stores ordering.Stores, order *ordering.Order, participant *ordering.OrderParticipant) error {
	return runParticipantPipeline(ctx, stores, order, participant, p.handlers, p.logger, true)
}

// Process runs the guest pipeline until a terminal state or an error
func (p *GuestProcessor) Process(ctx context.Context, stores ordering.Stores, order *ordering.Order, participant *ordering.OrderParticipant) error {
	return runParticipantPipeline(ctx, stores, order, participant, p.handlers, p.logger, false)
}

func (p *GuestProcessor) handleOpen(_ context.Context, _ ordering.Stores, _ *ordering.Order, participant *ordering.OrderParticipant) (ordering.ParticipantStatus, error) {
	if err := participant.ValidateForOpen(); err != nil {
		return participant.Status, err
	}
	return guestTransitions[ordering.ParticipantStatusOpen], nil
}

func (p *GuestProcessor) handleReadyToProcess(_ context.Context, _ ordering.Stores, _ *ordering.Order, _ *ordering.OrderParticipant) (ordering.ParticipantStatus, error) {
	return guestTransitions[ordering.ParticipantStatusReadyToProcess], nil
}

// handleProcessPayment records a placeholder reference and the ledger
// record without contacting any provider.
func (p *GuestProcessor) handleProcessPayment(ctx context.Context, stores ordering.Stores, order *ordering.Order, participant *ordering.OrderParticipant) (ordering.ParticipantStatus, error) {
	reference := GuestReferencePrefix + uuid.NewString()

	err := stores.InTransaction(ctx, func(tx ordering.Stores) error {
		if rerr := participant.RecordPaymentReference(nil, reference); rerr != nil {
			return rerr
		}
		return tx.Participants().Save(ctx, participant)
	})
	if err != nil {
		return participant.Status, err
	}

	txn, err := ordering.NewPaymentTransaction(participant.TenantID, participant.ID, participant.SenderID(), order.Total, reference)
	if err != nil {
		return participant.Status, ordering.NewPipelineError(ordering.ErrnoParticipantLedgerAppend, err.Error())
	}
	err = stores.InTransaction(ctx, func(tx ordering.Stores) error {
		return tx.Transactions().Append(ctx, txn)
	})
	if err != nil {
		return participant.Status, ordering.NewPipelineError(ordering.ErrnoParticipantLedgerAppend,
			fmt.Sprintf("ledger append failed: %v", err))
	}

	return guestTransitions[ordering.ParticipantStatusProcessPayment], nil
}
