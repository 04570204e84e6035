package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fulfillment/backend/internal/domain/identity"
	"github.com/fulfillment/backend/internal/infrastructure/auth"
	"github.com/fulfillment/backend/internal/infrastructure/config"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// gateRouter mounts the access gate behind a route that records the
// resolved grant
func gateRouter(cfg AccessGateConfig, ident *identity.Identity) (*gin.Engine, *identity.AccessGrant) {
	var grant identity.AccessGrant
	engine := gin.New()
	engine.GET("/merchants/:merchantId/orders", func(c *gin.Context) {
		if ident != nil {
			c.Set(JWTIdentityKey, *ident)
		}
		c.Next()
	}, AccessGate(cfg), func(c *gin.Context) {
		grant = GetAccessGrant(c)
		c.Status(http.StatusOK)
	})
	return engine, &grant
}

func performGet(engine *gin.Engine, path string) *httptest.ResponseRecorder {
	recorder := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	engine.ServeHTTP(recorder, req)
	return recorder
}

func TestAccessGate_NoIdentity(t *testing.T) {
	engine, _ := gateRouter(AccessGateConfig{RequiredLevel: identity.PrivilegeStaff}, nil)

	recorder := performGet(engine, "/merchants/"+uuid.NewString()+"/orders")
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
}

func TestAccessGate_MalformedMerchantID(t *testing.T) {
	ident := identity.Identity{CustomerID: uuid.New()}
	engine, _ := gateRouter(AccessGateConfig{RequiredLevel: identity.PrivilegeStaff}, &ident)

	recorder := performGet(engine, "/merchants/not-a-uuid/orders")
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestAccessGate_MembershipMatrix(t *testing.T) {
	merchantID := uuid.New()
	customerID := uuid.New()

	newIdent := func(level identity.PrivilegeLevel) identity.Identity {
		membership, err := identity.NewStakeholderMembership(merchantID, customerID, level, nil, nil)
		if err != nil {
			panic(err)
		}
		return identity.Identity{CustomerID: customerID, Membership: membership}
	}

	tests := []struct {
		name       string
		ident      identity.Identity
		required   identity.PrivilegeLevel
		wantStatus int
		wantGrant  identity.AccessGrant
	}{
		{"manager passes staff gate", newIdent(identity.PrivilegeManager), identity.PrivilegeStaff, http.StatusOK, identity.OwnerAccess},
		{"manager passes manager gate", newIdent(identity.PrivilegeManager), identity.PrivilegeManager, http.StatusOK, identity.OwnerAccess},
		{"manager denied admin gate", newIdent(identity.PrivilegeManager), identity.PrivilegeAdmin, http.StatusForbidden, identity.Denied},
		{"staff denied manager gate", newIdent(identity.PrivilegeStaff), identity.PrivilegeManager, http.StatusForbidden, identity.Denied},
		{"no membership denied", identity.Identity{CustomerID: customerID}, identity.PrivilegeStaff, http.StatusForbidden, identity.Denied},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine, grant := gateRouter(AccessGateConfig{RequiredLevel: tt.required}, &tt.ident)

			recorder := performGet(engine, "/merchants/"+merchantID.String()+"/orders")
			assert.Equal(t, tt.wantStatus, recorder.Code)
			if tt.wantStatus == http.StatusOK {
				assert.Equal(t, tt.wantGrant, *grant)
			}
		})
	}
}

func TestAccessGate_LocationScopeFromQuery(t *testing.T) {
	merchantID := uuid.New()
	customerID := uuid.New()
	locationID := uuid.New()

	membership, err := identity.NewStakeholderMembership(merchantID, customerID, identity.PrivilegeManager, &locationID, nil)
	require.NoError(t, err)
	ident := identity.Identity{CustomerID: customerID, Membership: membership}

	engine, grant := gateRouter(AccessGateConfig{RequiredLevel: identity.PrivilegeStaff}, &ident)

	// matching location grants location access
	recorder := performGet(engine, "/merchants/"+merchantID.String()+"/orders?location_id="+locationID.String())
	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, identity.LocationAccess, *grant)

	// another location is forbidden
	recorder = performGet(engine, "/merchants/"+merchantID.String()+"/orders?location_id="+uuid.NewString())
	assert.Equal(t, http.StatusForbidden, recorder.Code)

	// a malformed location id is rejected outright
	recorder = performGet(engine, "/merchants/"+merchantID.String()+"/orders?location_id=nope")
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestJWTAuthMiddleware(t *testing.T) {
	jwtService := auth.NewJWTService(config.JWTConfig{
		Secret:                "test-secret-key-for-unit-tests-only",
		AccessTokenExpiration: time.Hour,
		Issuer:                "fulfillment-test",
	})

	engine := gin.New()
	engine.Use(JWTAuthMiddlewareWithConfig(JWTMiddlewareConfig{
		JWTService: jwtService,
		SkipPaths:  []string{"/health"},
	}))
	engine.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	engine.GET("/protected", func(c *gin.Context) {
		ident, ok := GetIdentity(c)
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.JSON(http.StatusOK, gin.H{"customer_id": ident.CustomerID.String()})
	})

	t.Run("skip path needs no token", func(t *testing.T) {
		recorder := performGet(engine, "/health")
		assert.Equal(t, http.StatusOK, recorder.Code)
	})

	t.Run("missing header", func(t *testing.T) {
		recorder := performGet(engine, "/protected")
		assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	})

	t.Run("malformed header", func(t *testing.T) {
		recorder := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set(AuthHeaderKey, "Token abc")
		engine.ServeHTTP(recorder, req)
		assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	})

	t.Run("valid token", func(t *testing.T) {
		customerID := uuid.New()
		token, _, err := jwtService.GenerateToken(identity.Identity{CustomerID: customerID})
		require.NoError(t, err)

		recorder := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set(AuthHeaderKey, BearerPrefix+token)
		engine.ServeHTTP(recorder, req)

		assert.Equal(t, http.StatusOK, recorder.Code)
		assert.Contains(t, recorder.Body.String(), customerID.String())
	})

	t.Run("garbage token", func(t *testing.T) {
		recorder := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set(AuthHeaderKey, BearerPrefix+"garbage")
		engine.ServeHTTP(recorder, req)
		assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	})
}
