package identity

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	identitydom "github.com/fulfillment/backend/internal/domain/identity"
	"github.com/fulfillment/backend/internal/domain/ordering"
	"github.com/fulfillment/backend/internal/domain/shared"
)

// MerchantService handles tenant onboarding. Onboarding saves the
// merchant record in the shared control-plane store and eagerly
// provisions the tenant's isolated order stores.
type MerchantService struct {
	merchants identitydom.MerchantRepository
	tenants   ordering.TenantStoreRepository
	logger    *zap.Logger
}

// NewMerchantService creates a MerchantService
func NewMerchantService(merchants identitydom.MerchantRepository, tenants ordering.TenantStoreRepository, logger *zap.Logger) *MerchantService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MerchantService{merchants: merchants, tenants: tenants, logger: logger}
}

// Onboard creates a merchant and provisions its store set
func (s *MerchantService) Onboard(ctx context.Context, name string) (*MerchantResponse, error) {
	if existing, err := s.merchants.FindByName(ctx, name); err == nil && existing != nil {
		return nil, shared.ErrAlreadyExists
	}

	merchant, err := identitydom.NewMerchant(name)
	if err != nil {
		return nil, err
	}
	if err := s.merchants.Save(ctx, merchant); err != nil {
		return nil, err
	}
	if _, err := s.tenants.Provision(ctx, merchant.ID); err != nil {
		return nil, err
	}

	s.logger.Info("merchant onboarded",
		zap.String("merchant_id", merchant.ID.String()),
		zap.String("name", merchant.Name))

	resp := ToMerchantResponse(merchant)
	return &resp, nil
}

// Get loads a merchant by id
func (s *MerchantService) Get(ctx context.Context, id uuid.UUID) (*MerchantResponse, error) {
	merchant, err := s.merchants.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToMerchantResponse(merchant)
	return &resp, nil
}

// MembershipService manages stakeholder memberships
type MembershipService struct {
	memberships identitydom.MembershipRepository
	logger      *zap.Logger
}

// NewMembershipService creates a MembershipService
func NewMembershipService(memberships identitydom.MembershipRepository, logger *zap.Logger) *MembershipService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MembershipService{memberships: memberships, logger: logger}
}

// Create registers a membership for a customer at a merchant
func (s *MembershipService) Create(ctx context.Context, req CreateMembershipRequest) (*MembershipResponse, error) {
	membership, err := identitydom.NewStakeholderMembership(
		req.MerchantID, req.CustomerID, req.Level, req.LocationID, req.ServiceID)
	if err != nil {
		return nil, err
	}
	if err := membership.SetSecret(req.Secret); err != nil {
		return nil, err
	}
	if err := s.memberships.Save(ctx, membership); err != nil {
		return nil, err
	}
	resp := ToMembershipResponse(membership)
	return &resp, nil
}

// UpdateLevel changes a membership's privilege level
func (s *MembershipService) UpdateLevel(ctx context.Context, id uuid.UUID, level identitydom.PrivilegeLevel) (*MembershipResponse, error) {
	membership, err := s.memberships.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := membership.UpdateLevel(level); err != nil {
		return nil, err
	}
	if err := s.memberships.Save(ctx, membership); err != nil {
		return nil, err
	}
	resp := ToMembershipResponse(membership)
	return &resp, nil
}

// Revoke deletes a membership
func (s *MembershipService) Revoke(ctx context.Context, id uuid.UUID) error {
	return s.memberships.Delete(ctx, id)
}

// IdentityPacket resolves the caller's identity packet for a merchant:
// their customer id plus membership there, if any.
func (s *MembershipService) IdentityPacket(ctx context.Context, customerID, merchantID uuid.UUID) (identitydom.Identity, error) {
	membership, err := s.memberships.FindByCustomerAndMerchant(ctx, customerID, merchantID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return identitydom.Identity{CustomerID: customerID}, nil
		}
		return identitydom.Identity{}, err
	}
	return identitydom.Identity{CustomerID: customerID, Membership: membership}, nil
}

// Authenticate resolves the caller's identity packet for token
// issuance. Stakeholders must present their membership secret; callers
// without a membership get a plain customer identity.
func (s *MembershipService) Authenticate(ctx context.Context, customerID, merchantID uuid.UUID, secret string) (identitydom.Identity, error) {
	ident, err := s.IdentityPacket(ctx, customerID, merchantID)
	if err != nil {
		return identitydom.Identity{}, err
	}
	if ident.Membership != nil && !ident.Membership.VerifySecret(secret) {
		return identitydom.Identity{}, shared.NewDomainError("UNAUTHORIZED", "Invalid stakeholder secret")
	}
	return ident, nil
}
