package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fulfillment/backend/internal/domain/ordering"
	"github.com/fulfillment/backend/internal/domain/shared"
)

// GormGuestProfileRepository implements ordering.GuestProfileRepository
// using GORM
type GormGuestProfileRepository struct {
	db *gorm.DB
}

// NewGormGuestProfileRepository creates a new GormGuestProfileRepository
func NewGormGuestProfileRepository(db *gorm.DB) *GormGuestProfileRepository {
	return &GormGuestProfileRepository{db: db}
}

// FindByID finds a guest profile by its ID
func (r *GormGuestProfileRepository) FindByID(ctx context.Context, id uuid.UUID) (*ordering.GuestProfile, error) {
	var profile ordering.GuestProfile
	if err := r.db.WithContext(ctx).First(&profile, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &profile, nil
}

// Save creates or updates a guest profile
func (r *GormGuestProfileRepository) Save(ctx context.Context, profile *ordering.GuestProfile) error {
	return r.db.WithContext(ctx).Save(profile).Error
}
