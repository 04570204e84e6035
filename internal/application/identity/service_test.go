package identity

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	identitydom "github.com/fulfillment/backend/internal/domain/identity"
	"github.com/fulfillment/backend/internal/domain/ordering"
	"github.com/fulfillment/backend/internal/domain/shared"
)

// MockMerchantRepository mocks identitydom.MerchantRepository
type MockMerchantRepository struct {
	mock.Mock
}

func (m *MockMerchantRepository) FindByID(ctx context.Context, id uuid.UUID) (*identitydom.Merchant, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identitydom.Merchant), args.Error(1)
}

func (m *MockMerchantRepository) FindByName(ctx context.Context, name string) (*identitydom.Merchant, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identitydom.Merchant), args.Error(1)
}

func (m *MockMerchantRepository) Save(ctx context.Context, merchant *identitydom.Merchant) error {
	args := m.Called(ctx, merchant)
	return args.Error(0)
}

// MockMembershipRepository mocks identitydom.MembershipRepository
type MockMembershipRepository struct {
	mock.Mock
}

func (m *MockMembershipRepository) FindByID(ctx context.Context, id uuid.UUID) (*identitydom.StakeholderMembership, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identitydom.StakeholderMembership), args.Error(1)
}

func (m *MockMembershipRepository) FindByCustomerAndMerchant(ctx context.Context, customerID, merchantID uuid.UUID) (*identitydom.StakeholderMembership, error) {
	args := m.Called(ctx, customerID, merchantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identitydom.StakeholderMembership), args.Error(1)
}

func (m *MockMembershipRepository) Save(ctx context.Context, membership *identitydom.StakeholderMembership) error {
	args := m.Called(ctx, membership)
	return args.Error(0)
}

func (m *MockMembershipRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockTenantStores mocks ordering.TenantStoreRepository
type MockTenantStores struct {
	mock.Mock
}

func (m *MockTenantStores) Provision(ctx context.Context, tenantID uuid.UUID) (ordering.Stores, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(ordering.Stores), args.Error(1)
}

func (m *MockTenantStores) Stores(ctx context.Context, tenantID uuid.UUID) (ordering.Stores, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(ordering.Stores), args.Error(1)
}

func TestMerchantService_Onboard(t *testing.T) {
	merchants := new(MockMerchantRepository)
	tenants := new(MockTenantStores)
	svc := NewMerchantService(merchants, tenants, zap.NewNop())

	merchants.On("FindByName", mock.Anything, "Corner Cafe").Return(nil, shared.ErrNotFound)
	merchants.On("Save", mock.Anything, mock.AnythingOfType("*identity.Merchant")).Return(nil)
	tenants.On("Provision", mock.Anything, mock.AnythingOfType("uuid.UUID")).Return(nil, nil)

	resp, err := svc.Onboard(context.Background(), "Corner Cafe")
	require.NoError(t, err)
	assert.Equal(t, "Corner Cafe", resp.Name)
	assert.Equal(t, string(identitydom.MerchantStatusActive), resp.Status)

	merchants.AssertExpectations(t)
	tenants.AssertExpectations(t)
}

func TestMerchantService_Onboard_DuplicateName(t *testing.T) {
	merchants := new(MockMerchantRepository)
	tenants := new(MockTenantStores)
	svc := NewMerchantService(merchants, tenants, zap.NewNop())

	existing, err := identitydom.NewMerchant("Corner Cafe")
	require.NoError(t, err)
	merchants.On("FindByName", mock.Anything, "Corner Cafe").Return(existing, nil)

	_, err = svc.Onboard(context.Background(), "Corner Cafe")
	assert.True(t, errors.Is(err, shared.ErrAlreadyExists))
	merchants.AssertNotCalled(t, "Save")
	tenants.AssertNotCalled(t, "Provision")
}

func TestMerchantService_Onboard_EmptyName(t *testing.T) {
	merchants := new(MockMerchantRepository)
	tenants := new(MockTenantStores)
	svc := NewMerchantService(merchants, tenants, zap.NewNop())

	merchants.On("FindByName", mock.Anything, "").Return(nil, shared.ErrNotFound)

	_, err := svc.Onboard(context.Background(), "")
	assert.Error(t, err)
}

func TestMerchantService_Get(t *testing.T) {
	merchants := new(MockMerchantRepository)
	tenants := new(MockTenantStores)
	svc := NewMerchantService(merchants, tenants, zap.NewNop())

	merchant, err := identitydom.NewMerchant("Corner Cafe")
	require.NoError(t, err)
	merchants.On("FindByID", mock.Anything, merchant.ID).Return(merchant, nil)

	resp, err := svc.Get(context.Background(), merchant.ID)
	require.NoError(t, err)
	assert.Equal(t, merchant.ID, resp.ID)
}

func TestMembershipService_Create(t *testing.T) {
	memberships := new(MockMembershipRepository)
	svc := NewMembershipService(memberships, zap.NewNop())

	var saved *identitydom.StakeholderMembership
	memberships.On("Save", mock.Anything, mock.AnythingOfType("*identity.StakeholderMembership")).
		Run(func(args mock.Arguments) {
			saved = args.Get(1).(*identitydom.StakeholderMembership)
		}).Return(nil)

	resp, err := svc.Create(context.Background(), CreateMembershipRequest{
		MerchantID: uuid.New(),
		CustomerID: uuid.New(),
		Level:      identitydom.PrivilegeManager,
		Secret:     "staff-secret-1",
	})
	require.NoError(t, err)
	assert.Equal(t, int(identitydom.PrivilegeManager), resp.Level)

	// the secret is stored hashed, never plaintext
	require.NotNil(t, saved)
	assert.NotContains(t, saved.SecretHash, "staff-secret-1")
	assert.True(t, saved.VerifySecret("staff-secret-1"))
	memberships.AssertExpectations(t)
}

func TestMembershipService_Create_ShortSecret(t *testing.T) {
	memberships := new(MockMembershipRepository)
	svc := NewMembershipService(memberships, zap.NewNop())

	_, err := svc.Create(context.Background(), CreateMembershipRequest{
		MerchantID: uuid.New(),
		CustomerID: uuid.New(),
		Level:      identitydom.PrivilegeStaff,
		Secret:     "short",
	})
	assert.Error(t, err)
	memberships.AssertNotCalled(t, "Save")
}

func TestMembershipService_Create_InvalidLevel(t *testing.T) {
	memberships := new(MockMembershipRepository)
	svc := NewMembershipService(memberships, zap.NewNop())

	_, err := svc.Create(context.Background(), CreateMembershipRequest{
		MerchantID: uuid.New(),
		CustomerID: uuid.New(),
		Level:      0,
	})
	assert.Error(t, err)
	memberships.AssertNotCalled(t, "Save")
}

func TestMembershipService_UpdateLevel(t *testing.T) {
	memberships := new(MockMembershipRepository)
	svc := NewMembershipService(memberships, zap.NewNop())

	membership, err := identitydom.NewStakeholderMembership(uuid.New(), uuid.New(), identitydom.PrivilegeStaff, nil, nil)
	require.NoError(t, err)
	memberships.On("FindByID", mock.Anything, membership.ID).Return(membership, nil)
	memberships.On("Save", mock.Anything, membership).Return(nil)

	resp, err := svc.UpdateLevel(context.Background(), membership.ID, identitydom.PrivilegeAdmin)
	require.NoError(t, err)
	assert.Equal(t, int(identitydom.PrivilegeAdmin), resp.Level)
}

func TestMembershipService_IdentityPacket(t *testing.T) {
	memberships := new(MockMembershipRepository)
	svc := NewMembershipService(memberships, zap.NewNop())
	customerID := uuid.New()
	merchantID := uuid.New()

	t.Run("with membership", func(t *testing.T) {
		membership, err := identitydom.NewStakeholderMembership(merchantID, customerID, identitydom.PrivilegeStaff, nil, nil)
		require.NoError(t, err)
		memberships.On("FindByCustomerAndMerchant", mock.Anything, customerID, merchantID).Return(membership, nil).Once()

		ident, err := svc.IdentityPacket(context.Background(), customerID, merchantID)
		require.NoError(t, err)
		assert.Equal(t, customerID, ident.CustomerID)
		require.NotNil(t, ident.Membership)
		assert.Equal(t, merchantID, ident.Membership.MerchantID)
	})

	t.Run("without membership", func(t *testing.T) {
		memberships.On("FindByCustomerAndMerchant", mock.Anything, customerID, merchantID).Return(nil, shared.ErrNotFound).Once()

		ident, err := svc.IdentityPacket(context.Background(), customerID, merchantID)
		require.NoError(t, err)
		assert.Equal(t, customerID, ident.CustomerID)
		assert.Nil(t, ident.Membership)
	})

	t.Run("repository failure", func(t *testing.T) {
		memberships.On("FindByCustomerAndMerchant", mock.Anything, customerID, merchantID).Return(nil, errors.New("db down")).Once()

		_, err := svc.IdentityPacket(context.Background(), customerID, merchantID)
		assert.Error(t, err)
	})
}

func TestMembershipService_Authenticate(t *testing.T) {
	memberships := new(MockMembershipRepository)
	svc := NewMembershipService(memberships, zap.NewNop())
	customerID := uuid.New()
	merchantID := uuid.New()

	membership, err := identitydom.NewStakeholderMembership(merchantID, customerID, identitydom.PrivilegeStaff, nil, nil)
	require.NoError(t, err)
	require.NoError(t, membership.SetSecret("staff-secret-1"))

	t.Run("valid secret", func(t *testing.T) {
		memberships.On("FindByCustomerAndMerchant", mock.Anything, customerID, merchantID).Return(membership, nil).Once()

		ident, err := svc.Authenticate(context.Background(), customerID, merchantID, "staff-secret-1")
		require.NoError(t, err)
		require.NotNil(t, ident.Membership)
		assert.Equal(t, customerID, ident.CustomerID)
	})

	t.Run("wrong secret", func(t *testing.T) {
		memberships.On("FindByCustomerAndMerchant", mock.Anything, customerID, merchantID).Return(membership, nil).Once()

		_, err := svc.Authenticate(context.Background(), customerID, merchantID, "wrong-secret")
		require.Error(t, err)
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "UNAUTHORIZED", domainErr.Code)
	})

	t.Run("no membership skips verification", func(t *testing.T) {
		memberships.On("FindByCustomerAndMerchant", mock.Anything, customerID, merchantID).Return(nil, shared.ErrNotFound).Once()

		ident, err := svc.Authenticate(context.Background(), customerID, merchantID, "")
		require.NoError(t, err)
		assert.Nil(t, ident.Membership)
	})
}
