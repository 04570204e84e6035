package ordering

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/fulfillment/backend/internal/domain/ordering"
	"github.com/fulfillment/backend/internal/domain/shared"
)

// orderHandler runs one stage against the order and returns the status
// to move to. A returned error aborts the loop without advancing state.
type orderHandler func(ctx context.Context, stores ordering.Stores, order *ordering.Order) (ordering.OrderStatus, error)

// orderTransitions is the declared transition table. Delivery stages
// (READY_TO_DELIVER, DELIVERING, DELIVERED) are intentionally absent:
// the graph is collapsed to PROCESSING -> COMPLETE until delivery
// handling ships.
var orderTransitions = map[ordering.OrderStatus]ordering.OrderStatus{
	ordering.OrderStatusOpen:           ordering.OrderStatusReadyToProcess,
	ordering.OrderStatusReadyToProcess: ordering.OrderStatusProcessing,
	ordering.OrderStatusProcessing:     ordering.OrderStatusComplete,
}

// OrderProcessor drives an order through its lifecycle state machine.
// Participants are settled separately through their own sub-pipeline;
// the PROCESSING stage only checks they all reached a terminal state.
type OrderProcessor struct {
	handlers map[ordering.OrderStatus]orderHandler
	logger   *zap.Logger
}

// NewOrderProcessor builds the processor and validates the handler
// table: every transition target must either have its own handler or
// be terminal, so a dangling state surfaces here instead of mid-run.
func NewOrderProcessor(logger *zap.Logger) (*OrderProcessor, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &OrderProcessor{logger: logger}
	p.handlers = map[ordering.OrderStatus]orderHandler{
		ordering.OrderStatusOpen:           p.handleOpen,
		ordering.OrderStatusReadyToProcess: p.handleReadyToProcess,
		ordering.OrderStatusProcessing:     p.handleProcessing,
	}
	if err := validateOrderTable(p.handlers); err != nil {
		return nil, err
	}
	return p, nil
}

func validateOrderTable(handlers map[ordering.OrderStatus]orderHandler) error {
	for from, to := range orderTransitions {
		if _, ok := handlers[from]; !ok {
			return fmt.Errorf("order transition table declares %s but no handler is registered", from)
		}
		if _, ok := handlers[to]; !ok && !to.IsTerminal() {
			return fmt.Errorf("order status %s is reachable from %s but has no handler", to, from)
		}
	}
	for status := range handlers {
		if _, ok := orderTransitions[status]; !ok {
			return fmt.Errorf("order handler for %s has no declared transition", status)
		}
	}
	return nil
}

// Verify runs exactly one stage of the order pipeline
func (p *OrderProcessor) Verify(ctx context.Context, stores ordering.Stores, order *ordering.Order) error {
	return p.run(ctx, stores, order, true)
}

// Process runs the order pipeline until a terminal state or an error
func (p *OrderProcessor) Process(ctx context.Context, stores ordering.Stores, order *ordering.Order) error {
	return p.run(ctx, stores, order, false)
}

// run is the driving loop. It writes a processor start entry before
// the loop and a finish entry after it, unconditionally, so every
// invocation leaves a start/finish audit pair. Stage errors are
// recorded in the audit trail under their specific errno and replaced
// by the opaque generic pipeline error for the caller.
func (p *OrderProcessor) run(ctx context.Context, stores ordering.Stores, order *ordering.Order, once bool) error {
	ledger := stores.Audit()
	if err := ledger.Record(ctx, order.ID, ordering.CodeOrderProcessorStart, "order processor started"); err != nil {
		return err
	}
	defer func() {
		if err := ledger.Record(ctx, order.ID, ordering.CodeOrderProcessorFinished, "order processor finished"); err != nil {
			p.logger.Warn("failed to write processor finish audit entry",
				zap.String("order_id", order.ID.String()), zap.Error(err))
		}
	}()

	for {
		if order.Status.IsTerminal() {
			return shared.NewDomainError("INVALID_STATE",
				fmt.Sprintf("order is %s and cannot be processed further", order.Status))
		}
		handle, ok := p.handlers[order.Status]
		if !ok {
			return shared.NewDomainError("INVALID_STATE",
				fmt.Sprintf("no handler registered for order status %s", order.Status))
		}

		next, err := handle(ctx, stores, order)
		if err != nil {
			errno := ordering.CodeUnknownFailure
			var perr *ordering.PipelineError
			if errors.As(err, &perr) {
				errno = perr.Errno
			}
			if rerr := ledger.Record(ctx, order.ID, errno, err.Error()); rerr != nil {
				p.logger.Warn("failed to write stage failure audit entry",
					zap.String("order_id", order.ID.String()), zap.Error(rerr))
			}
			p.logger.Info("order pipeline stage failed",
				zap.String("order_id", order.ID.String()),
				zap.String("status", order.Status.String()),
				zap.Int("errno", errno))
			return ordering.NewGenericPipelineError()
		}

		prev := order.Status
		if err := order.SetStatus(next); err != nil {
			return err
		}
		if err := stores.Orders().Save(ctx, order); err != nil {
			return err
		}
		if err := ledger.Record(ctx, order.ID, ordering.CodeOrderStatusChanged,
			fmt.Sprintf("status %s -> %s", prev, next)); err != nil {
			return err
		}

		if once || order.Status.IsTerminal() {
			return nil
		}
	}
}

// handleOpen validates the placement fields. Each violated rule aborts
// with its own errno so the audit trail names the exact failure.
func (p *OrderProcessor) handleOpen(_ context.Context, _ ordering.Stores, order *ordering.Order) (ordering.OrderStatus, error) {
	if err := order.ValidateForOpen(); err != nil {
		return order.Status, err
	}
	return orderTransitions[ordering.OrderStatusOpen], nil
}

func (p *OrderProcessor) handleReadyToProcess(_ context.Context, _ ordering.Stores, _ *ordering.Order) (ordering.OrderStatus, error) {
	return orderTransitions[ordering.OrderStatusReadyToProcess], nil
}

// handleProcessing completes the order once every participant has
// reached a terminal state.
func (p *OrderProcessor) handleProcessing(ctx context.Context, stores ordering.Stores, order *ordering.Order) (ordering.OrderStatus, error) {
	participants, err := stores.Participants().FindByOrder(ctx, order.ID)
	if err != nil {
		return order.Status, err
	}
	order.Participants = participants
	if !order.AllParticipantsSettled() {
		return order.Status, ordering.NewPipelineError(ordering.ErrnoOrderParticipantsUnsettled,
			"order has participants that have not reached a terminal state")
	}
	return orderTransitions[ordering.OrderStatusProcessing], nil
}
