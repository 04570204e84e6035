package ordering

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fulfillment/backend/internal/domain/ordering"
	"github.com/fulfillment/backend/internal/domain/shared"
)

// OrderService is the order-facing application service. It resolves
// the tenant's isolated store set on every call, loads the record
// graph, and hands it to the right processor. Participants referencing
// a guest profile are dispatched to the guest processor, everyone else
// to the account-backed one.
type OrderService struct {
	tenants         ordering.TenantStoreRepository
	orderProc       *OrderProcessor
	participantProc *ParticipantProcessor
	guestProc       *GuestProcessor
	logger          *zap.Logger
}

// NewOrderService wires the processors against the tenant store
// repository and the provider gateway.
func NewOrderService(tenants ordering.TenantStoreRepository, gateway ordering.ProviderGateway, logger *zap.Logger) (*OrderService, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	orderProc, err := NewOrderProcessor(logger.Named("order_processor"))
	if err != nil {
		return nil, err
	}
	participantProc, err := NewParticipantProcessor(gateway, logger.Named("participant_processor"))
	if err != nil {
		return nil, err
	}
	guestProc, err := NewGuestProcessor(logger.Named("guest_processor"))
	if err != nil {
		return nil, err
	}
	return &OrderService{
		tenants:         tenants,
		orderProc:       orderProc,
		participantProc: participantProc,
		guestProc:       guestProc,
		logger:          logger,
	}, nil
}

// CreateOrder places a new order in the tenant's store
func (s *OrderService) CreateOrder(ctx context.Context, tenantID uuid.UUID, req CreateOrderRequest) (*OrderResponse, error) {
	stores, err := s.tenants.Stores(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	order, err := ordering.NewOrder(tenantID, req.LocationID, req.DeviceID, req.ChargeMode, ordering.OrderTotals{
		Subtotal: req.Subtotal,
		Discount: req.Discount,
		Fee:      req.Fee,
		Tax:      req.Tax,
		Tip:      req.Tip,
		Total:    req.Total,
	}, req.Notes)
	if err != nil {
		return nil, err
	}

	if err := stores.Orders().Save(ctx, order); err != nil {
		return nil, err
	}

	resp := ToOrderResponse(order)
	return &resp, nil
}

// GetOrder loads an order with its participants
func (s *OrderService) GetOrder(ctx context.Context, tenantID, orderID uuid.UUID) (*OrderResponse, error) {
	stores, err := s.tenants.Stores(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	order, err := stores.Orders().FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	resp := ToOrderResponse(order)
	return &resp, nil
}

// AddParticipant attaches a payer to a verified order. For guests a
// profile is created alongside the participant.
func (s *OrderService) AddParticipant(ctx context.Context, tenantID, orderID uuid.UUID, req AddParticipantRequest) (*ParticipantResponse, error) {
	stores, err := s.tenants.Stores(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	order, err := stores.Orders().FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	var participant *ordering.OrderParticipant
	switch {
	case req.CustomerID != nil && req.Guest == nil:
		participant, err = ordering.NewAccountParticipant(tenantID, *req.CustomerID, req.PaymentMethod)
	case req.Guest != nil && req.CustomerID == nil:
		var profile *ordering.GuestProfile
		profile, err = ordering.NewGuestProfile(tenantID, req.Guest.Name, req.Guest.Phone, req.Guest.Address)
		if err != nil {
			return nil, err
		}
		if err = stores.Guests().Save(ctx, profile); err != nil {
			return nil, err
		}
		participant, err = ordering.NewGuestParticipant(tenantID, profile.ID, req.PaymentMethod)
	default:
		return nil, shared.NewDomainError("INVALID_PARTICIPANT", "Exactly one of customer or guest must be provided")
	}
	if err != nil {
		return nil, err
	}
	participant.PaymentProviderID = req.PaymentProviderID

	if err := order.AttachParticipant(participant); err != nil {
		return nil, err
	}
	if err := stores.Participants().Save(ctx, participant); err != nil {
		return nil, err
	}

	resp := ToParticipantResponse(participant)
	return &resp, nil
}

// VerifyOrder runs one stage of the order pipeline
func (s *OrderService) VerifyOrder(ctx context.Context, tenantID, orderID uuid.UUID) (*OrderResponse, error) {
	return s.runOrder(ctx, tenantID, orderID, true)
}

// ProcessOrder runs the order pipeline to a terminal state
func (s *OrderService) ProcessOrder(ctx context.Context, tenantID, orderID uuid.UUID) (*OrderResponse, error) {
	return s.runOrder(ctx, tenantID, orderID, false)
}

func (s *OrderService) runOrder(ctx context.Context, tenantID, orderID uuid.UUID, once bool) (*OrderResponse, error) {
	stores, err := s.tenants.Stores(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	order, err := stores.Orders().FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if once {
		err = s.orderProc.Verify(ctx, stores, order)
	} else {
		err = s.orderProc.Process(ctx, stores, order)
	}
	if err != nil {
		return nil, err
	}

	resp := ToOrderResponse(order)
	return &resp, nil
}

// VerifyParticipant runs one stage of the participant pipeline
func (s *OrderService) VerifyParticipant(ctx context.Context, tenantID, orderID, participantID uuid.UUID) (*ParticipantResponse, error) {
	return s.runParticipant(ctx, tenantID, orderID, participantID, true)
}

// ProcessParticipant runs the participant pipeline to a terminal state
func (s *OrderService) ProcessParticipant(ctx context.Context, tenantID, orderID, participantID uuid.UUID) (*ParticipantResponse, error) {
	return s.runParticipant(ctx, tenantID, orderID, participantID, false)
}

func (s *OrderService) runParticipant(ctx context.Context, tenantID, orderID, participantID uuid.UUID, once bool) (*ParticipantResponse, error) {
	stores, err := s.tenants.Stores(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	order, err := stores.Orders().FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	participant, err := stores.Participants().FindByID(ctx, participantID)
	if err != nil {
		return nil, err
	}
	if participant.OrderID != order.ID {
		return nil, shared.ErrNotFound
	}

	if participant.IsGuest() {
		if once {
			err = s.guestProc.Verify(ctx, stores, order, participant)
		} else {
			err = s.guestProc.Process(ctx, stores, order, participant)
		}
	} else {
		if once {
			err = s.participantProc.Verify(ctx, stores, order, participant)
		} else {
			err = s.participantProc.Process(ctx, stores, order, participant)
		}
	}
	if err != nil {
		return nil, err
	}

	resp := ToParticipantResponse(participant)
	return &resp, nil
}

// AuditTrail returns the audit entries recorded for an order or
// participant id
func (s *OrderService) AuditTrail(ctx context.Context, tenantID, subjectID uuid.UUID) ([]AuditEntryResponse, error) {
	stores, err := s.tenants.Stores(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	entries, err := stores.Audit().FindBySubject(ctx, subjectID)
	if err != nil {
		return nil, err
	}
	return ToAuditEntryResponses(entries), nil
}
