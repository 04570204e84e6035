package ordering

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Audit lifecycle codes. Codes below 200 mark pipeline lifecycle
// events; the 2xx/3xx ranges are the stage errnos from pipeline.go;
// CodeUnknownFailure tags errors that carry no errno of their own.
const (
	CodeOrderProcessorStart        = 100
	CodeOrderProcessorFinished     = 101
	CodeOrderStatusChanged         = 102
	CodeParticipantProcessorStart  = 110
	CodeParticipantProcessorFinish = 111
	CodeParticipantStatusChanged   = 112

	CodeUnknownFailure = 999
)

// AuditEntry is an immutable, numbered lifecycle log line. The subject
// id is a loose association to an order or participant and is not
// FK-enforced, so entries survive the records they describe.
type AuditEntry struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	TenantID  uuid.UUID `gorm:"type:uuid;not null;index"`
	SubjectID uuid.UUID `gorm:"type:uuid;index"`
	Code      int       `gorm:"not null;index"`
	Message   string    `gorm:"type:text"`
	CreatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

// NewAuditEntry creates an audit entry for the given subject
func NewAuditEntry(tenantID, subjectID uuid.UUID, code int, message string) *AuditEntry {
	return &AuditEntry{
		ID:        uuid.New(),
		TenantID:  tenantID,
		SubjectID: subjectID,
		Code:      code,
		Message:   message,
		CreatedAt: time.Now(),
	}
}

// AuditLedger appends immutable lifecycle entries. Implementations must
// write through a connection that is never attached to the caller's
// transaction: an entry has to persist even when the surrounding unit
// of work rolls back.
type AuditLedger interface {
	Record(ctx context.Context, subjectID uuid.UUID, code int, message string) error
	FindBySubject(ctx context.Context, subjectID uuid.UUID) ([]AuditEntry, error)
}
