package ordering

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/fulfillment/backend/internal/domain/ordering"
	"github.com/fulfillment/backend/internal/domain/shared"
)

// participantHandler runs one stage of a participant sub-pipeline
type participantHandler func(ctx context.Context, stores ordering.Stores, order *ordering.Order, participant *ordering.OrderParticipant) (ordering.ParticipantStatus, error)

// participantTransitions is the declared transition table for
// account-backed participants. Loyalty and check-in stages are
// intentionally absent: the graph is collapsed to
// PROCESS_PAYMENT -> COMPLETE until those stages ship.
var participantTransitions = map[ordering.ParticipantStatus]ordering.ParticipantStatus{
	ordering.ParticipantStatusOpen:           ordering.ParticipantStatusReadyToProcess,
	ordering.ParticipantStatusReadyToProcess: ordering.ParticipantStatusProcessPayment,
	ordering.ParticipantStatusProcessPayment: ordering.ParticipantStatusComplete,
}

func validateParticipantTable(handlers map[ordering.ParticipantStatus]participantHandler, transitions map[ordering.ParticipantStatus]ordering.ParticipantStatus) error {
	for from, to := range transitions {
		if _, ok := handlers[from]; !ok {
			return fmt.Errorf("participant transition table declares %s but no handler is registered", from)
		}
		if _, ok := handlers[to]; !ok && !to.IsTerminal() {
			return fmt.Errorf("participant status %s is reachable from %s but has no handler", to, from)
		}
	}
	for status := range handlers {
		if _, ok := transitions[status]; !ok {
			return fmt.Errorf("participant handler for %s has no declared transition", status)
		}
	}
	return nil
}

// runParticipantPipeline is the driving loop shared by the account and
// guest processors. It mirrors the order loop: an unconditional audit
// start/finish pair around the run, one status-change entry per
// transition, stage errnos recorded in the trail and replaced by the
// opaque generic error for the caller.
func runParticipantPipeline(
	ctx context.Context,
	stores ordering.Stores,
	order *ordering.Order,
	participant *ordering.OrderParticipant,
	handlers map[ordering.ParticipantStatus]participantHandler,
	logger *zap.Logger,
	once bool,
) error {
	ledger := stores.Audit()
	if err := ledger.Record(ctx, participant.ID, ordering.CodeParticipantProcessorStart, "participant processor started"); err != nil {
		return err
	}
	defer func() {
		if err := ledger.Record(ctx, participant.ID, ordering.CodeParticipantProcessorFinish, "participant processor finished"); err != nil {
			logger.Warn("failed to write processor finish audit entry",
				zap.String("participant_id", participant.ID.String()), zap.Error(err))
		}
	}()

	for {
		if participant.Status.IsTerminal() {
			return shared.NewDomainError("INVALID_STATE",
				fmt.Sprintf("participant is %s and cannot be processed further", participant.Status))
		}
		handle, ok := handlers[participant.Status]
		if !ok {
			return shared.NewDomainError("INVALID_STATE",
				fmt.Sprintf("no handler registered for participant status %s", participant.Status))
		}

		next, err := handle(ctx, stores, order, participant)
		if err != nil {
			errno := ordering.CodeUnknownFailure
			var perr *ordering.PipelineError
			if errors.As(err, &perr) {
				errno = perr.Errno
			}
			if rerr := ledger.Record(ctx, participant.ID, errno, err.Error()); rerr != nil {
				logger.Warn("failed to write stage failure audit entry",
					zap.String("participant_id", participant.ID.String()), zap.Error(rerr))
			}
			logger.Info("participant pipeline stage failed",
				zap.String("participant_id", participant.ID.String()),
				zap.String("status", participant.Status.String()),
				zap.Int("errno", errno))
			return ordering.NewGenericPipelineError()
		}

		prev := participant.Status
		if err := participant.SetStatus(next); err != nil {
			return err
		}
		if err := stores.Participants().Save(ctx, participant); err != nil {
			return err
		}
		if err := ledger.Record(ctx, participant.ID, ordering.CodeParticipantStatusChanged,
			fmt.Sprintf("status %s -> %s", prev, next)); err != nil {
			return err
		}

		if once || participant.Status.IsTerminal() {
			return nil
		}
	}
}

// ParticipantProcessor drives an account-backed participant through its
// payment sub-pipeline against the linked payment provider.
type ParticipantProcessor struct {
	handlers map[ordering.ParticipantStatus]participantHandler
	gateway  ordering.ProviderGateway
	logger   *zap.Logger
}

// NewParticipantProcessor builds the processor and validates its
// handler table at construction.
func NewParticipantProcessor(gateway ordering.ProviderGateway, logger *zap.Logger) (*ParticipantProcessor, error) {
	if gateway == nil {
		return nil, errors.New("participant processor requires a provider gateway")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &ParticipantProcessor{gateway: gateway, logger: logger}
	p.handlers = map[ordering.ParticipantStatus]participantHandler{
		ordering.ParticipantStatusOpen:           p.handleOpen,
		ordering.ParticipantStatusReadyToProcess: p.handleReadyToProcess,
		ordering.ParticipantStatusProcessPayment: p.handleProcessPayment,
	}
	if err := validateParticipantTable(p.handlers, participantTransitions); err != nil {
		return nil, err
	}
	return p, nil
}

// Verify runs exactly one stage of the participant pipeline
func (p *ParticipantProcessor) Verify(ctx context.Context, stores ordering.Stores, order *ordering.Order, participant *ordering.OrderParticipant) error {
	return runParticipantPipeline(ctx, stores, order, participant, p.handlers, p.logger, true)
}

// Process runs the participant pipeline until a terminal state or an error
func (p *ParticipantProcessor) Process(ctx context.Context, stores ordering.Stores, order *ordering.Order, participant *ordering.OrderParticipant) error {
	return runParticipantPipeline(ctx, stores, order, participant, p.handlers, p.logger, false)
}

// handleOpen refreshes the provider credentials for both sides of the
// linkage concurrently, then checks the customer account can cover the
// order total.
func (p *ParticipantProcessor) handleOpen(ctx context.Context, _ ordering.Stores, order *ordering.Order, participant *ordering.OrderParticipant) (ordering.ParticipantStatus, error) {
	if err := participant.ValidateForOpen(); err != nil {
		return participant.Status, err
	}

	adapter, err := p.gateway.AdapterFor(ctx, participant.TenantID, participant)
	if err != nil {
		return participant.Status, ordering.NewPipelineError(ordering.ErrnoParticipantCredentialSync,
			fmt.Sprintf("provider adapter unavailable: %v", err))
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return adapter.RefreshCredentials(gctx, ordering.CredentialSideCustomer)
	})
	g.Go(func() error {
		return adapter.RefreshCredentials(gctx, ordering.CredentialSideMerchant)
	})
	if err := g.Wait(); err != nil {
		return participant.Status, ordering.NewPipelineError(ordering.ErrnoParticipantCredentialSync,
			fmt.Sprintf("credential refresh failed: %v", err))
	}

	status, err := adapter.AccountStatus(ctx)
	if err != nil {
		return participant.Status, ordering.NewPipelineError(ordering.ErrnoParticipantAccountStatus,
			fmt.Sprintf("account status unavailable: %v", err))
	}
	if !status.Active {
		return participant.Status, ordering.NewPipelineError(ordering.ErrnoParticipantAccountInactive,
			"provider account is not active")
	}
	if status.Balance.LessThan(order.Total) {
		return participant.Status, ordering.NewPipelineError(ordering.ErrnoParticipantBalanceTooLow,
			fmt.Sprintf("account balance %s cannot cover order total %s", status.Balance, order.Total))
	}

	return participantTransitions[ordering.ParticipantStatusOpen], nil
}

func (p *ParticipantProcessor) handleReadyToProcess(_ context.Context, _ ordering.Stores, _ *ordering.Order, _ *ordering.OrderParticipant) (ordering.ParticipantStatus, error) {
	return participantTransitions[ordering.ParticipantStatusReadyToProcess], nil
}

// handleProcessPayment sends the charge inside a transaction, records
// the returned reference on the participant (write-once), then appends
// the immutable ledger record in a second transaction.
func (p *ParticipantProcessor) handleProcessPayment(ctx context.Context, stores ordering.Stores, order *ordering.Order, participant *ordering.OrderParticipant) (ordering.ParticipantStatus, error) {
	adapter, err := p.gateway.AdapterFor(ctx, participant.TenantID, participant)
	if err != nil {
		return participant.Status, ordering.NewPipelineError(ordering.ErrnoParticipantCredentialSync,
			fmt.Sprintf("provider adapter unavailable: %v", err))
	}

	var reference string
	err = stores.InTransaction(ctx, func(tx ordering.Stores) error {
		ref, serr := adapter.Send(ctx, order.Total)
		if serr != nil {
			return ordering.NewPipelineError(ordering.ErrnoParticipantSendFailed,
				fmt.Sprintf("provider send failed: %v", serr))
		}
		reference = ref
		if rerr := participant.RecordPaymentReference(participant.PaymentProviderID, ref); rerr != nil {
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

	return participantTransitions[ordering.ParticipantStatusProcessPayment], nil
}
