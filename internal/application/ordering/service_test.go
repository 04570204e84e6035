package ordering

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fulfillment/backend/internal/domain/ordering"
	"github.com/fulfillment/backend/internal/domain/shared"
)

func newServiceFixture(t *testing.T, adapter *fakeAdapter) (*OrderService, *memTenants, uuid.UUID) {
	t.Helper()
	tenantID := uuid.New()
	tenants := &memTenants{}
	_, err := tenants.Provision(context.Background(), tenantID)
	require.NoError(t, err)

	svc, err := NewOrderService(tenants, &fakeGateway{adapter: adapter}, zap.NewNop())
	require.NoError(t, err)
	return svc, tenants, tenantID
}

func validCreateRequest() CreateOrderRequest {
	locationID := uuid.New()
	deviceID := uuid.New()
	return CreateOrderRequest{
		LocationID: &locationID,
		DeviceID:   &deviceID,
		ChargeMode: ordering.ChargeModeSingle,
		Subtotal:   decimal.RequireFromString("25.50"),
		Total:      decimal.RequireFromString("25.50"),
	}
}

func TestOrderService_CreateOrder(t *testing.T) {
	svc, _, tenantID := newServiceFixture(t, &fakeAdapter{})

	resp, err := svc.CreateOrder(context.Background(), tenantID, validCreateRequest())
	require.NoError(t, err)

	assert.Equal(t, "OPEN", resp.Status)
	assert.Equal(t, "25.50", resp.Total)
	assert.Equal(t, tenantID.String(), resp.TenantID)
}

func TestOrderService_UnprovisionedTenant(t *testing.T) {
	svc, _, _ := newServiceFixture(t, &fakeAdapter{})

	_, err := svc.CreateOrder(context.Background(), uuid.New(), validCreateRequest())
	require.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrNotFound))
}

func TestOrderService_GetOrder_NotFound(t *testing.T) {
	svc, _, tenantID := newServiceFixture(t, &fakeAdapter{})

	_, err := svc.GetOrder(context.Background(), tenantID, uuid.New())
	assert.True(t, errors.Is(err, shared.ErrNotFound))
}

func TestOrderService_AddParticipant_RejectedWhileOpen(t *testing.T) {
	svc, _, tenantID := newServiceFixture(t, &fakeAdapter{})

	created, err := svc.CreateOrder(context.Background(), tenantID, validCreateRequest())
	require.NoError(t, err)
	orderID := uuid.MustParse(created.ID)

	customerID := uuid.New()
	_, err = svc.AddParticipant(context.Background(), tenantID, orderID, AddParticipantRequest{
		CustomerID:    &customerID,
		PaymentMethod: ordering.PaymentMethodAccount,
	})
	require.Error(t, err)

	var domainErr *shared.DomainError
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, "INVALID_STATE", domainErr.Code)
}

func TestOrderService_AddParticipant_AfterVerify(t *testing.T) {
	svc, _, tenantID := newServiceFixture(t, &fakeAdapter{})

	created, err := svc.CreateOrder(context.Background(), tenantID, validCreateRequest())
	require.NoError(t, err)
	orderID := uuid.MustParse(created.ID)

	verified, err := svc.VerifyOrder(context.Background(), tenantID, orderID)
	require.NoError(t, err)
	assert.Equal(t, "READY_TO_PROCESS", verified.Status)

	customerID := uuid.New()
	resp, err := svc.AddParticipant(context.Background(), tenantID, orderID, AddParticipantRequest{
		CustomerID:    &customerID,
		PaymentMethod: ordering.PaymentMethodAccount,
	})
	require.NoError(t, err)
	assert.Equal(t, created.ID, resp.OrderID)
	assert.Equal(t, "OPEN", resp.Status)
}

func TestOrderService_AddParticipant_ExactlyOneIdentity(t *testing.T) {
	svc, _, tenantID := newServiceFixture(t, &fakeAdapter{})

	created, err := svc.CreateOrder(context.Background(), tenantID, validCreateRequest())
	require.NoError(t, err)
	orderID := uuid.MustParse(created.ID)
	_, err = svc.VerifyOrder(context.Background(), tenantID, orderID)
	require.NoError(t, err)

	customerID := uuid.New()
	tests := []struct {
		name string
		req  AddParticipantRequest
	}{
		{"neither", AddParticipantRequest{PaymentMethod: ordering.PaymentMethodCash}},
		{"both", AddParticipantRequest{
			CustomerID:    &customerID,
			Guest:         &GuestInput{Name: "Walk-in"},
			PaymentMethod: ordering.PaymentMethodCash,
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.AddParticipant(context.Background(), tenantID, orderID, tt.req)
			require.Error(t, err)
			var domainErr *shared.DomainError
			require.True(t, errors.As(err, &domainErr))
			assert.Equal(t, "INVALID_PARTICIPANT", domainErr.Code)
		})
	}
}

func TestOrderService_AddParticipant_GuestCreatesProfile(t *testing.T) {
	svc, tenants, tenantID := newServiceFixture(t, &fakeAdapter{})

	created, err := svc.CreateOrder(context.Background(), tenantID, validCreateRequest())
	require.NoError(t, err)
	orderID := uuid.MustParse(created.ID)
	_, err = svc.VerifyOrder(context.Background(), tenantID, orderID)
	require.NoError(t, err)

	resp, err := svc.AddParticipant(context.Background(), tenantID, orderID, AddParticipantRequest{
		Guest:         &GuestInput{Name: "Walk-in", Phone: "555-0101"},
		PaymentMethod: ordering.PaymentMethodCash,
	})
	require.NoError(t, err)
	require.NotNil(t, resp.GuestProfileID)

	profile, err := tenants.stores.Guests().FindByID(context.Background(), uuid.MustParse(*resp.GuestProfileID))
	require.NoError(t, err)
	assert.Equal(t, "Walk-in", profile.Name)
	assert.Equal(t, "555-0101", profile.Phone)
}

func TestOrderService_ParticipantOrderMismatch(t *testing.T) {
	adapter := &fakeAdapter{balance: decimal.RequireFromString("100.00"), active: true}
	svc, _, tenantID := newServiceFixture(t, adapter)

	first, err := svc.CreateOrder(context.Background(), tenantID, validCreateRequest())
	require.NoError(t, err)
	firstID := uuid.MustParse(first.ID)
	_, err = svc.VerifyOrder(context.Background(), tenantID, firstID)
	require.NoError(t, err)

	customerID := uuid.New()
	participant, err := svc.AddParticipant(context.Background(), tenantID, firstID, AddParticipantRequest{
		CustomerID:    &customerID,
		PaymentMethod: ordering.PaymentMethodAccount,
	})
	require.NoError(t, err)

	second, err := svc.CreateOrder(context.Background(), tenantID, validCreateRequest())
	require.NoError(t, err)

	_, err = svc.VerifyParticipant(context.Background(), tenantID, uuid.MustParse(second.ID), uuid.MustParse(participant.ID))
	assert.True(t, errors.Is(err, shared.ErrNotFound))
}

func TestOrderService_EndToEndSettlement(t *testing.T) {
	adapter := &fakeAdapter{
		balance: decimal.RequireFromString("100.00"),
		active:  true,
		sendRef: "REF-001",
	}
	svc, _, tenantID := newServiceFixture(t, adapter)
	ctx := context.Background()

	created, err := svc.CreateOrder(ctx, tenantID, validCreateRequest())
	require.NoError(t, err)
	orderID := uuid.MustParse(created.ID)

	_, err = svc.VerifyOrder(ctx, tenantID, orderID)
	require.NoError(t, err)

	customerID := uuid.New()
	participant, err := svc.AddParticipant(ctx, tenantID, orderID, AddParticipantRequest{
		CustomerID:    &customerID,
		PaymentMethod: ordering.PaymentMethodAccount,
	})
	require.NoError(t, err)
	participantID := uuid.MustParse(participant.ID)

	settled, err := svc.ProcessParticipant(ctx, tenantID, orderID, participantID)
	require.NoError(t, err)
	assert.Equal(t, "COMPLETE", settled.Status)
	assert.Equal(t, "REF-001", settled.PaymentReference)

	final, err := svc.ProcessOrder(ctx, tenantID, orderID)
	require.NoError(t, err)
	assert.Equal(t, "COMPLETE", final.Status)

	trail, err := svc.AuditTrail(ctx, tenantID, orderID)
	require.NoError(t, err)
	assert.NotEmpty(t, trail)
}

func TestOrderService_GuestSettlementUsesNoGateway(t *testing.T) {
	// a nil-adapter gateway would panic if the guest path touched it
	svc, _, tenantID := newServiceFixture(t, nil)
	ctx := context.Background()

	created, err := svc.CreateOrder(ctx, tenantID, validCreateRequest())
	require.NoError(t, err)
	orderID := uuid.MustParse(created.ID)
	_, err = svc.VerifyOrder(ctx, tenantID, orderID)
	require.NoError(t, err)

	participant, err := svc.AddParticipant(ctx, tenantID, orderID, AddParticipantRequest{
		Guest:         &GuestInput{Name: "Walk-in"},
		PaymentMethod: ordering.PaymentMethodCash,
	})
	require.NoError(t, err)

	settled, err := svc.ProcessParticipant(ctx, tenantID, orderID, uuid.MustParse(participant.ID))
	require.NoError(t, err)
	assert.Equal(t, "COMPLETE", settled.Status)
}
