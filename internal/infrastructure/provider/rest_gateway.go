package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/fulfillment/backend/internal/domain/ordering"
	"github.com/fulfillment/backend/internal/infrastructure/config"
)

const (
	credentialRefreshPath = "/v1/credentials/refresh"
	accountStatusPath     = "/v1/accounts/%s/status"
	transferPath          = "/v1/transfers"
)

// Common gateway errors
var (
	ErrGatewayUnavailable   = errors.New("provider gateway unavailable")
	ErrGatewayRequestFailed = errors.New("provider gateway request failed")
	ErrNoPaymentLinkage     = errors.New("participant has no payment provider linkage")
)

// RESTProviderGateway implements ordering.ProviderGateway against the
// provider's REST API. Session credentials are cached in Redis so the
// refresh round trip is skipped while a cached session is still live.
type RESTProviderGateway struct {
	cfg        config.ProviderConfig
	httpClient *http.Client
	redis      *redis.Client
	logger     *zap.Logger
}

// NewRESTProviderGateway creates a new RESTProviderGateway. The redis
// client is optional; without it every call refreshes credentials.
func NewRESTProviderGateway(cfg config.ProviderConfig, redisClient *redis.Client, logger *zap.Logger) *RESTProviderGateway {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RESTProviderGateway{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: cfg.RequestTimeout,
		},
		redis:  redisClient,
		logger: logger,
	}
}

// AdapterFor resolves the adapter bound to a participant's payment
// linkage
func (g *RESTProviderGateway) AdapterFor(ctx context.Context, tenantID uuid.UUID, participant *ordering.OrderParticipant) (ordering.ProviderAdapter, error) {
	if participant.PaymentProviderID == nil {
		return nil, ErrNoPaymentLinkage
	}
	return &restAdapter{
		gateway:    g,
		tenantID:   tenantID,
		providerID: *participant.PaymentProviderID,
		senderID:   participant.SenderID(),
	}, nil
}

// restAdapter is a per-participant view onto the gateway
type restAdapter struct {
	gateway    *RESTProviderGateway
	tenantID   uuid.UUID
	providerID uuid.UUID
	senderID   uuid.UUID
}

type credentialRefreshRequest struct {
	ProviderID string `json:"provider_id"`
	Side       string `json:"side"`
	SubjectID  string `json:"subject_id"`
}

type credentialRefreshResponse struct {
	Token     string `json:"token"`
	ExpiresIn int    `json:"expires_in"`
}

type accountStatusResponse struct {
	AccountID string          `json:"account_id"`
	Balance   decimal.Decimal `json:"balance"`
	Active    bool            `json:"active"`
}

type transferRequest struct {
	ProviderID string          `json:"provider_id"`
	TenantID   string          `json:"tenant_id"`
	SenderID   string          `json:"sender_id"`
	Amount     decimal.Decimal `json:"amount"`
	Currency   string          `json:"currency"`
}

type transferResponse struct {
	Reference string `json:"reference"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// RefreshCredentials renews the session credentials for one side of the
// linkage, reusing a cached session when one is still live
func (a *restAdapter) RefreshCredentials(ctx context.Context, side ordering.CredentialSide) error {
	cacheKey := a.credentialKey(side)

	if a.gateway.redis != nil {
		if _, err := a.gateway.redis.Get(ctx, cacheKey).Result(); err == nil {
			return nil
		} else if !errors.Is(err, redis.Nil) {
			a.gateway.logger.Warn("credential cache read failed, refreshing",
				zap.String("key", cacheKey), zap.Error(err))
		}
	}

	subjectID := a.senderID
	if side == ordering.CredentialSideMerchant {
		subjectID = a.tenantID
	}

	body := credentialRefreshRequest{
		ProviderID: a.providerID.String(),
		Side:       string(side),
		SubjectID:  subjectID.String(),
	}

	respBody, err := a.gateway.doRequest(ctx, http.MethodPost, credentialRefreshPath, body)
	if err != nil {
		return err
	}

	var resp credentialRefreshResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return fmt.Errorf("provider: failed to parse credential response: %w", err)
	}
	if resp.Token == "" {
		return fmt.Errorf("%w: credential refresh returned no token", ErrGatewayRequestFailed)
	}

	if a.gateway.redis != nil {
		ttl := a.gateway.cfg.CredentialTTL
		if resp.ExpiresIn > 0 {
			ttl = time.Duration(resp.ExpiresIn) * time.Second
		}
		if err := a.gateway.redis.Set(ctx, cacheKey, resp.Token, ttl).Err(); err != nil {
			a.gateway.logger.Warn("credential cache write failed",
				zap.String("key", cacheKey), zap.Error(err))
		}
	}

	return nil
}

// AccountStatus fetches the payer account standing
func (a *restAdapter) AccountStatus(ctx context.Context) (*ordering.ProviderAccountStatus, error) {
	path := fmt.Sprintf(accountStatusPath, a.senderID) + "?provider_id=" + a.providerID.String()

	respBody, err := a.gateway.doRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}

	var resp accountStatusResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("provider: failed to parse account status: %w", err)
	}

	return &ordering.ProviderAccountStatus{
		AccountID: resp.AccountID,
		Balance:   resp.Balance,
		Active:    resp.Active,
	}, nil
}

// Send charges the given amount and returns the provider reference
func (a *restAdapter) Send(ctx context.Context, amount decimal.Decimal) (string, error) {
	body := transferRequest{
		ProviderID: a.providerID.String(),
		TenantID:   a.tenantID.String(),
		SenderID:   a.senderID.String(),
		Amount:     amount,
		Currency:   "USD",
	}

	respBody, err := a.gateway.doRequest(ctx, http.MethodPost, transferPath, body)
	if err != nil {
		return "", err
	}

	var resp transferResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return "", fmt.Errorf("provider: failed to parse transfer response: %w", err)
	}
	if resp.Reference == "" {
		return "", fmt.Errorf("%w: transfer returned no reference", ErrGatewayRequestFailed)
	}

	return resp.Reference, nil
}

func (a *restAdapter) credentialKey(side ordering.CredentialSide) string {
	return fmt.Sprintf("provider:cred:%s:%s:%s", a.providerID, side, a.senderID)
}

// doRequest performs an HTTP request to the provider API
func (g *RESTProviderGateway) doRequest(ctx context.Context, method, path string, body any) ([]byte, error) {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("provider: failed to marshal request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, g.cfg.BaseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("provider: failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.cfg.APIKey)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("provider: failed to read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var errResp errorResponse
		if err := json.Unmarshal(respBody, &errResp); err == nil && errResp.Code != "" {
			return nil, fmt.Errorf("%w: %s - %s", ErrGatewayRequestFailed, errResp.Code, errResp.Message)
		}
		return nil, fmt.Errorf("%w: HTTP %d", ErrGatewayRequestFailed, resp.StatusCode)
	}

	return respBody, nil
}

// Ensure RESTProviderGateway implements the domain gateway port
var _ ordering.ProviderGateway = (*RESTProviderGateway)(nil)
