package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	orderapp "github.com/fulfillment/backend/internal/application/ordering"
	"github.com/fulfillment/backend/internal/domain/ordering"
	"github.com/fulfillment/backend/internal/interfaces/http/middleware"
)

// OrderHandler handles order-related API endpoints
type OrderHandler struct {
	BaseHandler
	orderService *orderapp.OrderService
}

// NewOrderHandler creates a new OrderHandler
func NewOrderHandler(orderService *orderapp.OrderService) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
	}
}

// CreateOrderRequest represents a request to place a new order
// @Description Request body for placing a new order
type CreateOrderRequest struct {
	LocationID *string `json:"location_id" example:"550e8400-e29b-41d4-a716-446655440001"`
	DeviceID   *string `json:"device_id" example:"550e8400-e29b-41d4-a716-446655440002"`
	ChargeMode string  `json:"charge_mode" binding:"required,oneof=SINGLE SPLIT_EVEN ITEMIZED" example:"SINGLE"`
	Subtotal   string  `json:"subtotal" binding:"amount" example:"25.50"`
	Discount   string  `json:"discount" binding:"amount" example:"0.00"`
	Fee        string  `json:"fee" binding:"amount" example:"0.00"`
	Tax        string  `json:"tax" binding:"amount" example:"0.00"`
	Tip        string  `json:"tip" binding:"amount" example:"0.00"`
	Total      string  `json:"total" binding:"required,amount" example:"25.50"`
	Notes      string  `json:"notes" binding:"max=500" example:"leave at the door"`
}

// GuestInput represents guest contact details on a participant
// @Description Guest contact details
type GuestInput struct {
	Name    string `json:"name" binding:"max=200" example:"Walk-in"`
	Phone   string `json:"phone" binding:"max=50" example:"+1-555-0100"`
	Address string `json:"address" binding:"max=500" example:"12 Main St"`
}

// AddParticipantRequest represents a request to attach a payer to an order
// @Description Request body for attaching a participant. Exactly one of
// customer_id or guest must be supplied.
type AddParticipantRequest struct {
	CustomerID        *string     `json:"customer_id" example:"550e8400-e29b-41d4-a716-446655440003"`
	Guest             *GuestInput `json:"guest"`
	PaymentMethod     string      `json:"payment_method" binding:"required,oneof=ACCOUNT CARD CASH" example:"ACCOUNT"`
	PaymentProviderID *string     `json:"payment_provider_id" example:"550e8400-e29b-41d4-a716-446655440004"`
}

// parseAmount converts an optional decimal string, empty meaning zero
func parseAmount(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}

// parseOptionalUUID converts an optional uuid string, nil or empty meaning absent
func parseOptionalUUID(s *string) (*uuid.UUID, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	id, err := uuid.Parse(*s)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

// merchantID reads the already-gated merchant route param
func (h *OrderHandler) merchantID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(middleware.MerchantIDParam))
	if err != nil {
		h.BadRequest(c, "Invalid merchant ID format")
		return uuid.Nil, false
	}
	return id, true
}

// orderID reads the order route param
func (h *OrderHandler) orderID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid order ID format")
		return uuid.Nil, false
	}
	return id, true
}

// Create godoc
// @Summary      Place a new order
// @Description  Place a new order in the merchant's store
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        merchantId path string true "Merchant ID" format(uuid)
// @Param        request body CreateOrderRequest true "Order placement request"
// @Success      201 {object} dto.Response{data=orderapp.OrderResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /merchants/{merchantId}/orders [post]
func (h *OrderHandler) Create(c *gin.Context) {
	merchantID, ok := h.merchantID(c)
	if !ok {
		return
	}

	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	locationID, err := parseOptionalUUID(req.LocationID)
	if err != nil {
		h.BadRequest(c, "Invalid location ID format")
		return
	}
	deviceID, err := parseOptionalUUID(req.DeviceID)
	if err != nil {
		h.BadRequest(c, "Invalid device ID format")
		return
	}

	appReq := orderapp.CreateOrderRequest{
		LocationID: locationID,
		DeviceID:   deviceID,
		ChargeMode: ordering.ChargeMode(req.ChargeMode),
		Notes:      req.Notes,
	}

	amounts := []struct {
		raw  string
		dst  *decimal.Decimal
		name string
	}{
		{req.Subtotal, &appReq.Subtotal, "subtotal"},
		{req.Discount, &appReq.Discount, "discount"},
		{req.Fee, &appReq.Fee, "fee"},
		{req.Tax, &appReq.Tax, "tax"},
		{req.Tip, &appReq.Tip, "tip"},
		{req.Total, &appReq.Total, "total"},
	}
	for _, a := range amounts {
		v, err := parseAmount(a.raw)
		if err != nil {
			h.BadRequest(c, "Invalid "+a.name+" amount")
			return
		}
		*a.dst = v
	}

	order, err := h.orderService.CreateOrder(c.Request.Context(), merchantID, appReq)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, order)
}

// GetByID godoc
// @Summary      Get order by ID
// @Description  Retrieve an order with its participants
// @Tags         orders
// @Produce      json
// @Param        merchantId path string true "Merchant ID" format(uuid)
// @Param        id path string true "Order ID" format(uuid)
// @Success      200 {object} dto.Response{data=orderapp.OrderResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /merchants/{merchantId}/orders/{id} [get]
func (h *OrderHandler) GetByID(c *gin.Context) {
	merchantID, ok := h.merchantID(c)
	if !ok {
		return
	}
	orderID, ok := h.orderID(c)
	if !ok {
		return
	}

	order, err := h.orderService.GetOrder(c.Request.Context(), merchantID, orderID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, order)
}

// AddParticipant godoc
// @Summary      Attach a participant to an order
// @Description  Attach one payer, either a known customer or a guest
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        merchantId path string true "Merchant ID" format(uuid)
// @Param        id path string true "Order ID" format(uuid)
// @Param        request body AddParticipantRequest true "Participant request"
// @Success      201 {object} dto.Response{data=orderapp.ParticipantResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /merchants/{merchantId}/orders/{id}/participants [post]
func (h *OrderHandler) AddParticipant(c *gin.Context) {
	merchantID, ok := h.merchantID(c)
	if !ok {
		return
	}
	orderID, ok := h.orderID(c)
	if !ok {
		return
	}

	var req AddParticipantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	customerID, err := parseOptionalUUID(req.CustomerID)
	if err != nil {
		h.BadRequest(c, "Invalid customer ID format")
		return
	}
	providerID, err := parseOptionalUUID(req.PaymentProviderID)
	if err != nil {
		h.BadRequest(c, "Invalid payment provider ID format")
		return
	}

	appReq := orderapp.AddParticipantRequest{
		CustomerID:        customerID,
		PaymentMethod:     ordering.PaymentMethod(req.PaymentMethod),
		PaymentProviderID: providerID,
	}
	if req.Guest != nil {
		appReq.Guest = &orderapp.GuestInput{
			Name:    req.Guest.Name,
			Phone:   req.Guest.Phone,
			Address: req.Guest.Address,
		}
	}

	participant, err := h.orderService.AddParticipant(c.Request.Context(), merchantID, orderID, appReq)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, participant)
}

// Verify godoc
// @Summary      Verify an order
// @Description  Advance the order pipeline by exactly one stage
// @Tags         orders
// @Produce      json
// @Param        merchantId path string true "Merchant ID" format(uuid)
// @Param        id path string true "Order ID" format(uuid)
// @Success      200 {object} dto.Response{data=orderapp.OrderResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      418 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /merchants/{merchantId}/orders/{id}/verify [post]
func (h *OrderHandler) Verify(c *gin.Context) {
	merchantID, ok := h.merchantID(c)
	if !ok {
		return
	}
	orderID, ok := h.orderID(c)
	if !ok {
		return
	}

	order, err := h.orderService.VerifyOrder(c.Request.Context(), merchantID, orderID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, order)
}

// Process godoc
// @Summary      Process an order
// @Description  Drive the order pipeline until complete or blocked
// @Tags         orders
// @Produce      json
// @Param        merchantId path string true "Merchant ID" format(uuid)
// @Param        id path string true "Order ID" format(uuid)
// @Success      200 {object} dto.Response{data=orderapp.OrderResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      418 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /merchants/{merchantId}/orders/{id}/process [post]
func (h *OrderHandler) Process(c *gin.Context) {
	merchantID, ok := h.merchantID(c)
	if !ok {
		return
	}
	orderID, ok := h.orderID(c)
	if !ok {
		return
	}

	order, err := h.orderService.ProcessOrder(c.Request.Context(), merchantID, orderID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, order)
}

// VerifyParticipant godoc
// @Summary      Verify a participant
// @Description  Advance one participant's pipeline by exactly one stage
// @Tags         orders
// @Produce      json
// @Param        merchantId path string true "Merchant ID" format(uuid)
// @Param        id path string true "Order ID" format(uuid)
// @Param        participantId path string true "Participant ID" format(uuid)
// @Success      200 {object} dto.Response{data=orderapp.ParticipantResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      418 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /merchants/{merchantId}/orders/{id}/participants/{participantId}/verify [post]
func (h *OrderHandler) VerifyParticipant(c *gin.Context) {
	merchantID, ok := h.merchantID(c)
	if !ok {
		return
	}
	orderID, ok := h.orderID(c)
	if !ok {
		return
	}
	participantID, err := uuid.Parse(c.Param("participantId"))
	if err != nil {
		h.BadRequest(c, "Invalid participant ID format")
		return
	}

	participant, err := h.orderService.VerifyParticipant(c.Request.Context(), merchantID, orderID, participantID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, participant)
}

// ProcessParticipant godoc
// @Summary      Process a participant
// @Description  Drive one participant's pipeline until settled or blocked
// @Tags         orders
// @Produce      json
// @Param        merchantId path string true "Merchant ID" format(uuid)
// @Param        id path string true "Order ID" format(uuid)
// @Param        participantId path string true "Participant ID" format(uuid)
// @Success      200 {object} dto.Response{data=orderapp.ParticipantResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      418 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /merchants/{merchantId}/orders/{id}/participants/{participantId}/process [post]
func (h *OrderHandler) ProcessParticipant(c *gin.Context) {
	merchantID, ok := h.merchantID(c)
	if !ok {
		return
	}
	orderID, ok := h.orderID(c)
	if !ok {
		return
	}
	participantID, err := uuid.Parse(c.Param("participantId"))
	if err != nil {
		h.BadRequest(c, "Invalid participant ID format")
		return
	}

	participant, err := h.orderService.ProcessParticipant(c.Request.Context(), merchantID, orderID, participantID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, participant)
}

// AuditTrail godoc
// @Summary      Read an audit trail
// @Description  Return every audit entry recorded for the subject, oldest first
// @Tags         orders
// @Produce      json
// @Param        merchantId path string true "Merchant ID" format(uuid)
// @Param        id path string true "Subject ID (order or participant)" format(uuid)
// @Success      200 {object} dto.Response{data=[]orderapp.AuditEntryResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /merchants/{merchantId}/orders/{id}/audit [get]
func (h *OrderHandler) AuditTrail(c *gin.Context) {
	merchantID, ok := h.merchantID(c)
	if !ok {
		return
	}
	subjectID, ok := h.orderID(c)
	if !ok {
		return
	}

	entries, err := h.orderService.AuditTrail(c.Request.Context(), merchantID, subjectID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, entries)
}
