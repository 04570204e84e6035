package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	identityapp "github.com/fulfillment/backend/internal/application/identity"
	"github.com/fulfillment/backend/internal/infrastructure/auth"
)

// AuthHandler issues access tokens carrying the caller's identity packet
type AuthHandler struct {
	BaseHandler
	membershipService *identityapp.MembershipService
	jwtService        *auth.JWTService
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(membershipService *identityapp.MembershipService, jwtService *auth.JWTService) *AuthHandler {
	return &AuthHandler{
		membershipService: membershipService,
		jwtService:        jwtService,
	}
}

// TokenRequest represents a request for an access token
// @Description Request body for issuing an access token
type TokenRequest struct {
	CustomerID string `json:"customer_id" binding:"required,uuid" example:"550e8400-e29b-41d4-a716-446655440003"`
	MerchantID string `json:"merchant_id" binding:"required,uuid" example:"550e8400-e29b-41d4-a716-446655440000"`
	Secret     string `json:"secret,omitempty"`
}

// TokenResponse carries an issued access token
// @Description Access token response
type TokenResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type" example:"Bearer"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// Token godoc
// @Summary      Issue an access token
// @Description  Resolve the caller's membership at the merchant and embed
// @Description  the identity packet in a signed token. Stakeholders must
// @Description  present their membership secret
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body TokenRequest true "Token request"
// @Success      200 {object} dto.Response{data=TokenResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /auth/token [post]
func (h *AuthHandler) Token(c *gin.Context) {
	var req TokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	customerID, err := uuid.Parse(req.CustomerID)
	if err != nil {
		h.BadRequest(c, "Invalid customer ID format")
		return
	}
	merchantID, err := uuid.Parse(req.MerchantID)
	if err != nil {
		h.BadRequest(c, "Invalid merchant ID format")
		return
	}

	ident, err := h.membershipService.Authenticate(c.Request.Context(), customerID, merchantID, req.Secret)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	token, expiresAt, err := h.jwtService.GenerateToken(ident)
	if err != nil {
		h.InternalError(c, "Failed to issue token")
		return
	}

	h.Success(c, TokenResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresAt:   expiresAt,
	})
}
