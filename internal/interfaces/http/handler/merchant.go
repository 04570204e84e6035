package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	identityapp "github.com/fulfillment/backend/internal/application/identity"
	identitydom "github.com/fulfillment/backend/internal/domain/identity"
	"github.com/fulfillment/backend/internal/interfaces/http/middleware"
)

// MerchantHandler handles merchant onboarding and membership endpoints
type MerchantHandler struct {
	BaseHandler
	merchantService   *identityapp.MerchantService
	membershipService *identityapp.MembershipService
}

// NewMerchantHandler creates a new MerchantHandler
func NewMerchantHandler(merchantService *identityapp.MerchantService, membershipService *identityapp.MembershipService) *MerchantHandler {
	return &MerchantHandler{
		merchantService:   merchantService,
		membershipService: membershipService,
	}
}

// OnboardMerchantRequest represents a request to onboard a new merchant
// @Description Request body for onboarding a merchant
type OnboardMerchantRequest struct {
	Name string `json:"name" binding:"required,min=1,max=200" example:"Blue Bottle"`
}

// CreateMembershipRequest represents a request to register a stakeholder
// @Description Request body for creating a membership
type CreateMembershipRequest struct {
	CustomerID string  `json:"customer_id" binding:"required,uuid" example:"550e8400-e29b-41d4-a716-446655440003"`
	Level      int     `json:"level" binding:"required,min=1,max=3" example:"2"`
	LocationID *string `json:"location_id" example:"550e8400-e29b-41d4-a716-446655440001"`
	ServiceID  *string `json:"service_id" example:"550e8400-e29b-41d4-a716-446655440005"`
	Secret     string  `json:"secret" binding:"required,min=8"`
}

// UpdateMembershipLevelRequest represents a privilege level change
// @Description Request body for changing a membership's privilege level
type UpdateMembershipLevelRequest struct {
	Level int `json:"level" binding:"required,min=1,max=3" example:"3"`
}

// Onboard godoc
// @Summary      Onboard a merchant
// @Description  Register a merchant and provision its physically separate store
// @Tags         merchants
// @Accept       json
// @Produce      json
// @Param        request body OnboardMerchantRequest true "Merchant onboarding request"
// @Success      201 {object} dto.Response{data=identityapp.MerchantResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /merchants [post]
func (h *MerchantHandler) Onboard(c *gin.Context) {
	var req OnboardMerchantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	merchant, err := h.merchantService.Onboard(c.Request.Context(), req.Name)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, merchant)
}

// GetByID godoc
// @Summary      Get merchant by ID
// @Tags         merchants
// @Produce      json
// @Param        merchantId path string true "Merchant ID" format(uuid)
// @Success      200 {object} dto.Response{data=identityapp.MerchantResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /merchants/{merchantId} [get]
func (h *MerchantHandler) GetByID(c *gin.Context) {
	merchantID, err := uuid.Parse(c.Param(middleware.MerchantIDParam))
	if err != nil {
		h.BadRequest(c, "Invalid merchant ID format")
		return
	}

	merchant, err := h.merchantService.Get(c.Request.Context(), merchantID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, merchant)
}

// CreateMembership godoc
// @Summary      Register a stakeholder membership
// @Description  Grant a customer a privilege level at this merchant
// @Tags         merchants
// @Accept       json
// @Produce      json
// @Param        merchantId path string true "Merchant ID" format(uuid)
// @Param        request body CreateMembershipRequest true "Membership request"
// @Success      201 {object} dto.Response{data=identityapp.MembershipResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /merchants/{merchantId}/memberships [post]
func (h *MerchantHandler) CreateMembership(c *gin.Context) {
	merchantID, err := uuid.Parse(c.Param(middleware.MerchantIDParam))
	if err != nil {
		h.BadRequest(c, "Invalid merchant ID format")
		return
	}

	var req CreateMembershipRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	customerID, err := uuid.Parse(req.CustomerID)
	if err != nil {
		h.BadRequest(c, "Invalid customer ID format")
		return
	}
	locationID, err := parseOptionalUUID(req.LocationID)
	if err != nil {
		h.BadRequest(c, "Invalid location ID format")
		return
	}
	serviceID, err := parseOptionalUUID(req.ServiceID)
	if err != nil {
		h.BadRequest(c, "Invalid service ID format")
		return
	}

	membership, err := h.membershipService.Create(c.Request.Context(), identityapp.CreateMembershipRequest{
		MerchantID: merchantID,
		CustomerID: customerID,
		Level:      identitydom.PrivilegeLevel(req.Level),
		LocationID: locationID,
		ServiceID:  serviceID,
		Secret:     req.Secret,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, membership)
}

// UpdateMembershipLevel godoc
// @Summary      Change a membership's privilege level
// @Tags         merchants
// @Accept       json
// @Produce      json
// @Param        merchantId path string true "Merchant ID" format(uuid)
// @Param        membershipId path string true "Membership ID" format(uuid)
// @Param        request body UpdateMembershipLevelRequest true "Level change request"
// @Success      200 {object} dto.Response{data=identityapp.MembershipResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /merchants/{merchantId}/memberships/{membershipId} [put]
func (h *MerchantHandler) UpdateMembershipLevel(c *gin.Context) {
	membershipID, err := uuid.Parse(c.Param("membershipId"))
	if err != nil {
		h.BadRequest(c, "Invalid membership ID format")
		return
	}

	var req UpdateMembershipLevelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	membership, err := h.membershipService.UpdateLevel(c.Request.Context(), membershipID, identitydom.PrivilegeLevel(req.Level))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, membership)
}

// RevokeMembership godoc
// @Summary      Revoke a membership
// @Tags         merchants
// @Produce      json
// @Param        merchantId path string true "Merchant ID" format(uuid)
// @Param        membershipId path string true "Membership ID" format(uuid)
// @Success      204
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /merchants/{merchantId}/memberships/{membershipId} [delete]
func (h *MerchantHandler) RevokeMembership(c *gin.Context) {
	membershipID, err := uuid.Parse(c.Param("membershipId"))
	if err != nil {
		h.BadRequest(c, "Invalid membership ID format")
		return
	}

	if err := h.membershipService.Revoke(c.Request.Context(), membershipID); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}
