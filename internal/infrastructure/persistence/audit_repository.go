package persistence

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fulfillment/backend/internal/domain/ordering"
)

// GormAuditLedger implements ordering.AuditLedger using GORM. The
// handle it is constructed with must be the tenant store's root
// connection, never a transaction: processors record lifecycle entries
// around persistence failures and those entries have to survive the
// rollback of the surrounding unit of work.
type GormAuditLedger struct {
	db       *gorm.DB
	tenantID uuid.UUID
}

// NewGormAuditLedger creates a new GormAuditLedger bound to a tenant
func NewGormAuditLedger(db *gorm.DB, tenantID uuid.UUID) *GormAuditLedger {
	return &GormAuditLedger{db: db, tenantID: tenantID}
}

// Record appends one lifecycle entry for the given subject
func (r *GormAuditLedger) Record(ctx context.Context, subjectID uuid.UUID, code int, message string) error {
	entry := ordering.NewAuditEntry(r.tenantID, subjectID, code, message)
	return r.db.WithContext(ctx).Create(entry).Error
}

// FindBySubject returns the entries of one subject in insertion order
func (r *GormAuditLedger) FindBySubject(ctx context.Context, subjectID uuid.UUID) ([]ordering.AuditEntry, error) {
	var entries []ordering.AuditEntry
	if err := r.db.WithContext(ctx).
		Where("subject_id = ?", subjectID).
		Order("created_at asc").
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}
