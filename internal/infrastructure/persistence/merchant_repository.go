package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fulfillment/backend/internal/domain/identity"
	"github.com/fulfillment/backend/internal/domain/shared"
)

// GormMerchantRepository implements identity.MerchantRepository using
// GORM on the control-plane database
type GormMerchantRepository struct {
	db *gorm.DB
}

// NewGormMerchantRepository creates a new GormMerchantRepository
func NewGormMerchantRepository(db *gorm.DB) *GormMerchantRepository {
	return &GormMerchantRepository{db: db}
}

// FindByID finds a merchant by its ID
func (r *GormMerchantRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.Merchant, error) {
	var merchant identity.Merchant
	if err := r.db.WithContext(ctx).First(&merchant, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &merchant, nil
}

// FindByName finds a merchant by its unique name
func (r *GormMerchantRepository) FindByName(ctx context.Context, name string) (*identity.Merchant, error) {
	var merchant identity.Merchant
	if err := r.db.WithContext(ctx).First(&merchant, "name = ?", name).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &merchant, nil
}

// Save creates or updates a merchant
func (r *GormMerchantRepository) Save(ctx context.Context, merchant *identity.Merchant) error {
	return r.db.WithContext(ctx).Save(merchant).Error
}
