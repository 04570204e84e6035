package ordering

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fulfillment/backend/internal/domain/ordering"
	"github.com/fulfillment/backend/internal/domain/shared"
)

func newTestOrder(t *testing.T, tenantID uuid.UUID) *ordering.Order {
	t.Helper()
	locationID := uuid.New()
	deviceID := uuid.New()
	order, err := ordering.NewOrder(tenantID, &locationID, &deviceID, ordering.ChargeModeSingle, ordering.OrderTotals{
		Subtotal: decimal.RequireFromString("25.50"),
		Total:    decimal.RequireFromString("25.50"),
	}, "table 4")
	require.NoError(t, err)
	return order
}

func newOrderProcessor(t *testing.T) *OrderProcessor {
	t.Helper()
	proc, err := NewOrderProcessor(zap.NewNop())
	require.NoError(t, err)
	return proc
}

func TestOrderProcessor_Verify_AdvancesOneStage(t *testing.T) {
	stores := newMemStores()
	proc := newOrderProcessor(t)
	order := newTestOrder(t, uuid.New())
	require.NoError(t, stores.Orders().Save(context.Background(), order))

	err := proc.Verify(context.Background(), stores, order)
	require.NoError(t, err)

	assert.Equal(t, ordering.OrderStatusReadyToProcess, order.Status)
	assert.Equal(t, []int{
		ordering.CodeOrderProcessorStart,
		ordering.CodeOrderStatusChanged,
		ordering.CodeOrderProcessorFinished,
	}, stores.auditCodes())
}

func TestOrderProcessor_Process_RunsToComplete(t *testing.T) {
	stores := newMemStores()
	proc := newOrderProcessor(t)
	order := newTestOrder(t, uuid.New())
	require.NoError(t, stores.Orders().Save(context.Background(), order))

	err := proc.Process(context.Background(), stores, order)
	require.NoError(t, err)

	assert.Equal(t, ordering.OrderStatusComplete, order.Status)
	// start, three status changes, finish
	assert.Equal(t, []int{
		ordering.CodeOrderProcessorStart,
		ordering.CodeOrderStatusChanged,
		ordering.CodeOrderStatusChanged,
		ordering.CodeOrderStatusChanged,
		ordering.CodeOrderProcessorFinished,
	}, stores.auditCodes())
}

func TestOrderProcessor_OpenStageErrnos(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(o *ordering.Order)
		errno  int
	}{
		{"missing location", func(o *ordering.Order) { o.LocationID = nil }, ordering.ErrnoOrderMissingLocation},
		{"missing device", func(o *ordering.Order) { o.DeviceID = nil }, ordering.ErrnoOrderMissingDevice},
		{"missing charge mode", func(o *ordering.Order) { o.ChargeMode = "" }, ordering.ErrnoOrderMissingChargeMode},
		{"zero total", func(o *ordering.Order) { o.Total = decimal.Zero }, ordering.ErrnoOrderInvalidTotal},
		{"negative total", func(o *ordering.Order) { o.Total = decimal.RequireFromString("-1.00") }, ordering.ErrnoOrderInvalidTotal},
		{"sub-cent total", func(o *ordering.Order) { o.Total = decimal.RequireFromString("10.005") }, ordering.ErrnoOrderInvalidTotal},
		{"pre-attached items", func(o *ordering.Order) {
			o.LineItems = append(o.LineItems, ordering.OrderLineItem{ID: uuid.New()})
		}, ordering.ErrnoOrderItemsAttached},
		{"pre-attached participants", func(o *ordering.Order) {
			o.Participants = append(o.Participants, ordering.OrderParticipant{})
		}, ordering.ErrnoOrderParticipantsAttached},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stores := newMemStores()
			proc := newOrderProcessor(t)
			order := newTestOrder(t, uuid.New())
			tt.mutate(order)
			require.NoError(t, stores.Orders().Save(context.Background(), order))

			err := proc.Verify(context.Background(), stores, order)
			require.Error(t, err)

			// the caller only ever sees the opaque errno
			var pipeErr *ordering.PipelineError
			require.True(t, errors.As(err, &pipeErr))
			assert.Equal(t, ordering.ErrnoGeneric, pipeErr.Errno)

			// the specific errno lands in the audit trail
			assert.Equal(t, []int{
				ordering.CodeOrderProcessorStart,
				tt.errno,
				ordering.CodeOrderProcessorFinished,
			}, stores.auditCodes())

			// and the order did not move
			assert.Equal(t, ordering.OrderStatusOpen, order.Status)
		})
	}
}

func TestOrderProcessor_TerminalOrderRejected(t *testing.T) {
	for _, status := range []ordering.OrderStatus{ordering.OrderStatusComplete, ordering.OrderStatusCancelled} {
		t.Run(status.String(), func(t *testing.T) {
			stores := newMemStores()
			proc := newOrderProcessor(t)
			order := newTestOrder(t, uuid.New())
			require.NoError(t, order.SetStatus(status))

			err := proc.Verify(context.Background(), stores, order)
			require.Error(t, err)

			var domainErr *shared.DomainError
			require.True(t, errors.As(err, &domainErr))
			assert.Equal(t, "INVALID_STATE", domainErr.Code)

			// the start/finish pair is written even for a rejected run
			assert.Equal(t, []int{
				ordering.CodeOrderProcessorStart,
				ordering.CodeOrderProcessorFinished,
			}, stores.auditCodes())
		})
	}
}

func TestOrderProcessor_ProcessingBlockedByUnsettledParticipant(t *testing.T) {
	stores := newMemStores()
	proc := newOrderProcessor(t)
	tenantID := uuid.New()
	order := newTestOrder(t, tenantID)
	require.NoError(t, order.SetStatus(ordering.OrderStatusProcessing))
	require.NoError(t, stores.Orders().Save(context.Background(), order))

	participant, err := ordering.NewAccountParticipant(tenantID, uuid.New(), ordering.PaymentMethodAccount)
	require.NoError(t, err)
	participant.OrderID = order.ID
	require.NoError(t, stores.Participants().Save(context.Background(), participant))

	err = proc.Verify(context.Background(), stores, order)
	require.Error(t, err)

	assert.Equal(t, ordering.OrderStatusProcessing, order.Status)
	assert.Equal(t, []int{
		ordering.CodeOrderProcessorStart,
		ordering.ErrnoOrderParticipantsUnsettled,
		ordering.CodeOrderProcessorFinished,
	}, stores.auditCodes())
}

func TestOrderProcessor_ProcessingCompletesOnceParticipantsSettle(t *testing.T) {
	stores := newMemStores()
	proc := newOrderProcessor(t)
	tenantID := uuid.New()
	order := newTestOrder(t, tenantID)
	require.NoError(t, order.SetStatus(ordering.OrderStatusProcessing))
	require.NoError(t, stores.Orders().Save(context.Background(), order))

	participant, err := ordering.NewAccountParticipant(tenantID, uuid.New(), ordering.PaymentMethodAccount)
	require.NoError(t, err)
	participant.OrderID = order.ID
	require.NoError(t, participant.SetStatus(ordering.ParticipantStatusComplete))
	require.NoError(t, stores.Participants().Save(context.Background(), participant))

	require.NoError(t, proc.Verify(context.Background(), stores, order))
	assert.Equal(t, ordering.OrderStatusComplete, order.Status)
}

func TestOrderProcessor_CancelledParticipantCountsAsSettled(t *testing.T) {
	stores := newMemStores()
	proc := newOrderProcessor(t)
	tenantID := uuid.New()
	order := newTestOrder(t, tenantID)
	require.NoError(t, order.SetStatus(ordering.OrderStatusProcessing))
	require.NoError(t, stores.Orders().Save(context.Background(), order))

	participant, err := ordering.NewAccountParticipant(tenantID, uuid.New(), ordering.PaymentMethodAccount)
	require.NoError(t, err)
	participant.OrderID = order.ID
	require.NoError(t, participant.SetStatus(ordering.ParticipantStatusCancelled))
	require.NoError(t, stores.Participants().Save(context.Background(), participant))

	require.NoError(t, proc.Verify(context.Background(), stores, order))
	assert.Equal(t, ordering.OrderStatusComplete, order.Status)
}

func TestOrderProcessor_SavesOrderOnEachTransition(t *testing.T) {
	stores := newMemStores()
	proc := newOrderProcessor(t)
	order := newTestOrder(t, uuid.New())

	require.NoError(t, proc.Verify(context.Background(), stores, order))

	saved, err := stores.Orders().FindByID(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, ordering.OrderStatusReadyToProcess, saved.Status)
}

// Two requests that each loaded the same PROCESSING order can run the
// pipeline at the same time: nothing in the processor excludes them,
// and both runs complete and save. Callers that need mutual exclusion
// have to go through the repository's SaveWithLock instead.
func TestOrderProcessor_ConcurrentProcessIsUnguarded(t *testing.T) {
	stores := newMemStores()
	proc := newOrderProcessor(t)

	order := newTestOrder(t, uuid.New())
	require.NoError(t, order.SetStatus(ordering.OrderStatusProcessing))
	require.NoError(t, stores.Orders().Save(context.Background(), order))

	// each request works on its own copy of the row
	first := *order
	second := *order

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, o := range []*ordering.Order{&first, &second} {
		wg.Add(1)
		go func(i int, o *ordering.Order) {
			defer wg.Done()
			errs[i] = proc.Process(context.Background(), stores, o)
		}(i, o)
	}
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])
	assert.Equal(t, ordering.OrderStatusComplete, first.Status)
	assert.Equal(t, ordering.OrderStatusComplete, second.Status)

	// both runs wrote their full audit lifecycle, interleaved
	assert.ElementsMatch(t, []int{
		ordering.CodeOrderProcessorStart, ordering.CodeOrderProcessorStart,
		ordering.CodeOrderStatusChanged, ordering.CodeOrderStatusChanged,
		ordering.CodeOrderProcessorFinished, ordering.CodeOrderProcessorFinished,
	}, stores.auditCodes())
}
