package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/fulfillment/backend/internal/domain/identity"
	"github.com/fulfillment/backend/internal/infrastructure/config"
)

// Common errors
var (
	ErrInvalidToken     = errors.New("invalid token")
	ErrExpiredToken     = errors.New("token has expired")
	ErrInvalidClaims    = errors.New("invalid token claims")
	ErrTokenNotYetValid = errors.New("token is not yet valid")
	ErrMissingCustomer  = errors.New("missing customer_id in claims")
)

// MembershipClaim is the membership record embedded in the token. The
// token carries the caller's full identity packet so access resolution
// does not need a database round trip per request.
type MembershipClaim struct {
	ID         string `json:"id"`
	MerchantID string `json:"merchant_id"`
	Level      int    `json:"level"`
	LocationID string `json:"location_id,omitempty"`
	ServiceID  string `json:"service_id,omitempty"`
}

// Claims represents custom JWT claims
type Claims struct {
	jwt.RegisteredClaims
	CustomerID string           `json:"customer_id"`
	Membership *MembershipClaim `json:"membership,omitempty"`
}

// JWTService handles JWT token operations
type JWTService struct {
	secret     []byte
	expiration time.Duration
	issuer     string
}

// NewJWTService creates a new JWT service
func NewJWTService(cfg config.JWTConfig) *JWTService {
	return &JWTService{
		secret:     []byte(cfg.Secret),
		expiration: cfg.AccessTokenExpiration,
		issuer:     cfg.Issuer,
	}
}

// GenerateToken signs an access token carrying the given identity packet
func (s *JWTService) GenerateToken(ident identity.Identity) (string, time.Time, error) {
	if ident.CustomerID == uuid.Nil {
		return "", time.Time{}, ErrMissingCustomer
	}

	now := time.Now()
	expiresAt := now.Add(s.expiration)

	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Issuer:    s.issuer,
			Subject:   ident.CustomerID.String(),
			Audience:  jwt.ClaimStrings{s.issuer},
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			NotBefore: jwt.NewNumericDate(now),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		CustomerID: ident.CustomerID.String(),
	}

	if ident.Membership != nil {
		mc := &MembershipClaim{
			ID:         ident.Membership.ID.String(),
			MerchantID: ident.Membership.MerchantID.String(),
			Level:      int(ident.Membership.Level),
		}
		if ident.Membership.LocationID != nil {
			mc.LocationID = ident.Membership.LocationID.String()
		}
		if ident.Membership.ServiceID != nil {
			mc.ServiceID = ident.Membership.ServiceID.String()
		}
		claims.Membership = mc
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// ValidateToken validates an access token and returns its claims
func (s *JWTService) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.secret, nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		if errors.Is(err, jwt.ErrTokenNotValidYet) {
			return nil, ErrTokenNotYetValid
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidClaims
	}

	if claims.CustomerID == "" {
		return nil, ErrMissingCustomer
	}

	return claims, nil
}

// Identity reconstructs the domain identity packet from the claims.
// Malformed UUIDs yield ErrInvalidClaims rather than a partial packet.
func (c *Claims) Identity() (identity.Identity, error) {
	customerID, err := uuid.Parse(c.CustomerID)
	if err != nil {
		return identity.Identity{}, ErrInvalidClaims
	}

	ident := identity.Identity{CustomerID: customerID}
	if c.Membership == nil {
		return ident, nil
	}

	id, err := uuid.Parse(c.Membership.ID)
	if err != nil {
		return identity.Identity{}, ErrInvalidClaims
	}
	merchantID, err := uuid.Parse(c.Membership.MerchantID)
	if err != nil {
		return identity.Identity{}, ErrInvalidClaims
	}

	membership := &identity.StakeholderMembership{
		MerchantID: merchantID,
		CustomerID: customerID,
		Level:      identity.PrivilegeLevel(c.Membership.Level),
	}
	membership.ID = id

	if c.Membership.LocationID != "" {
		locationID, err := uuid.Parse(c.Membership.LocationID)
		if err != nil {
			return identity.Identity{}, ErrInvalidClaims
		}
		membership.LocationID = &locationID
	}
	if c.Membership.ServiceID != "" {
		serviceID, err := uuid.Parse(c.Membership.ServiceID)
		if err != nil {
			return identity.Identity{}, ErrInvalidClaims
		}
		membership.ServiceID = &serviceID
	}

	ident.Membership = membership
	return ident, nil
}

// GetExpiration returns the access token expiration duration
func (s *JWTService) GetExpiration() time.Duration {
	return s.expiration
}
