package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fulfillment/backend/internal/domain/identity"
	"github.com/fulfillment/backend/internal/domain/shared"
)

// GormMembershipRepository implements identity.MembershipRepository
// using GORM on the control-plane database
type GormMembershipRepository struct {
	db *gorm.DB
}

// NewGormMembershipRepository creates a new GormMembershipRepository
func NewGormMembershipRepository(db *gorm.DB) *GormMembershipRepository {
	return &GormMembershipRepository{db: db}
}

// FindByID finds a membership by its ID
func (r *GormMembershipRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.StakeholderMembership, error) {
	var membership identity.StakeholderMembership
	if err := r.db.WithContext(ctx).First(&membership, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &membership, nil
}

// FindByCustomerAndMerchant finds the membership a customer holds at a
// merchant
func (r *GormMembershipRepository) FindByCustomerAndMerchant(ctx context.Context, customerID, merchantID uuid.UUID) (*identity.StakeholderMembership, error) {
	var membership identity.StakeholderMembership
	if err := r.db.WithContext(ctx).
		Where("customer_id = ? AND merchant_id = ?", customerID, merchantID).
		First(&membership).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &membership, nil
}

// Save creates or updates a membership
func (r *GormMembershipRepository) Save(ctx context.Context, membership *identity.StakeholderMembership) error {
	return r.db.WithContext(ctx).Save(membership).Error
}

// Delete removes a membership
func (r *GormMembershipRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&identity.StakeholderMembership{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}
