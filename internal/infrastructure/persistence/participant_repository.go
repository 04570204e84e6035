package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fulfillment/backend/internal/domain/ordering"
	"github.com/fulfillment/backend/internal/domain/shared"
)

// GormParticipantRepository implements ordering.ParticipantRepository
// using GORM
type GormParticipantRepository struct {
	db *gorm.DB
}

// NewGormParticipantRepository creates a new GormParticipantRepository
func NewGormParticipantRepository(db *gorm.DB) *GormParticipantRepository {
	return &GormParticipantRepository{db: db}
}

// FindByID finds a participant by its ID with allocations
func (r *GormParticipantRepository) FindByID(ctx context.Context, id uuid.UUID) (*ordering.OrderParticipant, error) {
	var participant ordering.OrderParticipant
	if err := r.db.WithContext(ctx).
		Preload("Allocations").
		First(&participant, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &participant, nil
}

// FindByOrder finds all participants attached to an order
func (r *GormParticipantRepository) FindByOrder(ctx context.Context, orderID uuid.UUID) ([]ordering.OrderParticipant, error) {
	var participants []ordering.OrderParticipant
	if err := r.db.WithContext(ctx).
		Preload("Allocations").
		Where("order_id = ?", orderID).
		Order("created_at asc").
		Find(&participants).Error; err != nil {
		return nil, err
	}
	return participants, nil
}

// Save creates or updates a participant together with its allocations
func (r *GormParticipantRepository) Save(ctx context.Context, participant *ordering.OrderParticipant) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Allocations").Save(participant).Error; err != nil {
			return err
		}
		for i := range participant.Allocations {
			participant.Allocations[i].ParticipantID = participant.ID
			if err := tx.Save(&participant.Allocations[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// SaveWithLock saves with optimistic locking (version check)
func (r *GormParticipantRepository) SaveWithLock(ctx context.Context, participant *ordering.OrderParticipant) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		currentVersion := participant.Version
		participant.Version++
		participant.UpdatedAt = time.Now()

		result := tx.Model(&ordering.OrderParticipant{}).
			Where("id = ? AND version = ?", participant.ID, currentVersion).
			Updates(map[string]interface{}{
				"status":              participant.Status,
				"payment_method":      participant.PaymentMethod,
				"payment_provider_id": participant.PaymentProviderID,
				"payment_reference":   participant.PaymentReference,
				"loyalty_provider_id": participant.LoyaltyProviderID,
				"loyalty_reference":   participant.LoyaltyReference,
				"comms_provider_id":   participant.CommsProviderID,
				"comms_reference":     participant.CommsReference,
				"version":             participant.Version,
				"updated_at":          participant.UpdatedAt,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			participant.Version = currentVersion
			return shared.ErrConcurrencyConflict
		}
		return nil
	})
}
