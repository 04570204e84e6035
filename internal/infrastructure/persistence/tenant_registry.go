package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
	"gorm.io/gorm/schema"

	"github.com/fulfillment/backend/internal/domain/ordering"
	"github.com/fulfillment/backend/internal/domain/shared"
	"github.com/fulfillment/backend/internal/infrastructure/config"
)

// TenantStoreRecord is the control-plane row tracking one provisioned
// tenant store set
type TenantStoreRecord struct {
	TenantID   uuid.UUID `gorm:"type:uuid;primaryKey"`
	SchemaName string    `gorm:"size:100;not null;uniqueIndex"`
	CreatedAt  time.Time
}

// TableName overrides the table name
func (TenantStoreRecord) TableName() string {
	return "tenant_stores"
}

// TenantOpener opens a database handle bound to one tenant's isolated
// namespace. The production opener maps the namespace to a dedicated
// PostgreSQL schema; tests map it to a table prefix on a shared SQLite
// database.
type TenantOpener func(schemaName string) (*gorm.DB, error)

// NewPostgresTenantOpener returns an opener that binds each tenant to
// its own PostgreSQL schema via a table prefix on the naming strategy
func NewPostgresTenantOpener(cfg *config.DatabaseConfig, gormLogger gormlogger.Interface) TenantOpener {
	return func(schemaName string) (*gorm.DB, error) {
		db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
			Logger:                 gormLogger,
			SkipDefaultTransaction: true,
			NamingStrategy: schema.NamingStrategy{
				TablePrefix: schemaName + ".",
			},
		})
		if err != nil {
			return nil, fmt.Errorf("failed to open tenant store %s: %w", schemaName, err)
		}
		if err := db.Exec(fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %q", schemaName)).Error; err != nil {
			return nil, fmt.Errorf("failed to create tenant schema %s: %w", schemaName, err)
		}
		return db, nil
	}
}

// TenantSchemaName derives the namespace name for a tenant
func TenantSchemaName(tenantID uuid.UUID) string {
	return "tenant_" + strings.ReplaceAll(tenantID.String(), "-", "")
}

// TenantRegistry implements ordering.TenantStoreRepository. Each tenant
// gets a physically separate store set, provisioned at onboarding and
// resolved by tenant id on every request. An unprovisioned tenant is
// not opened lazily; Stores returns not-found for it.
type TenantRegistry struct {
	control *gorm.DB
	open    TenantOpener

	mu    sync.RWMutex
	cache map[uuid.UUID]*tenantStores
}

// NewTenantRegistry creates a registry backed by the control-plane
// database and a tenant opener
func NewTenantRegistry(control *gorm.DB, open TenantOpener) (*TenantRegistry, error) {
	if err := control.AutoMigrate(&TenantStoreRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate tenant store records: %w", err)
	}
	return &TenantRegistry{
		control: control,
		open:    open,
		cache:   make(map[uuid.UUID]*tenantStores),
	}, nil
}

// Provision creates the isolated store set for a tenant. Provisioning
// is idempotent: re-provisioning an existing tenant re-runs the schema
// migration and returns the same store set.
func (r *TenantRegistry) Provision(ctx context.Context, tenantID uuid.UUID) (ordering.Stores, error) {
	if tenantID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_TENANT", "Tenant ID cannot be empty")
	}

	schemaName := TenantSchemaName(tenantID)
	record := TenantStoreRecord{TenantID: tenantID, SchemaName: schemaName}
	if err := r.control.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		FirstOrCreate(&record).Error; err != nil {
		return nil, err
	}

	db, err := r.open(schemaName)
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(
		&ordering.Order{},
		&ordering.OrderLineItem{},
		&ordering.OrderParticipant{},
		&ordering.ParticipantAllocation{},
		&ordering.GuestProfile{},
		&ordering.PaymentTransaction{},
		&ordering.AuditEntry{},
	); err != nil {
		return nil, fmt.Errorf("failed to migrate tenant store %s: %w", schemaName, err)
	}

	stores := newTenantStores(tenantID, db)

	r.mu.Lock()
	r.cache[tenantID] = stores
	r.mu.Unlock()

	return stores, nil
}

// Stores resolves the store set of a provisioned tenant
func (r *TenantRegistry) Stores(ctx context.Context, tenantID uuid.UUID) (ordering.Stores, error) {
	r.mu.RLock()
	stores, ok := r.cache[tenantID]
	r.mu.RUnlock()
	if ok {
		return stores, nil
	}

	var record TenantStoreRecord
	if err := r.control.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}

	db, err := r.open(record.SchemaName)
	if err != nil {
		return nil, err
	}

	stores = newTenantStores(tenantID, db)

	r.mu.Lock()
	r.cache[tenantID] = stores
	r.mu.Unlock()

	return stores, nil
}

// tenantStores bundles one tenant's repositories. db is the handle the
// mutating repositories run on; rootDB never leaves the non-transaction
// connection so the audit ledger writes outside any unit of work.
type tenantStores struct {
	tenantID uuid.UUID
	db       *gorm.DB
	rootDB   *gorm.DB
}

func newTenantStores(tenantID uuid.UUID, db *gorm.DB) *tenantStores {
	return &tenantStores{tenantID: tenantID, db: db, rootDB: db}
}

func (s *tenantStores) Orders() ordering.OrderRepository {
	return NewGormOrderRepository(s.db)
}

func (s *tenantStores) Participants() ordering.ParticipantRepository {
	return NewGormParticipantRepository(s.db)
}

func (s *tenantStores) Guests() ordering.GuestProfileRepository {
	return NewGormGuestProfileRepository(s.db)
}

func (s *tenantStores) Transactions() ordering.PaymentTransactionRepository {
	return NewGormPaymentTransactionRepository(s.db)
}

// Audit always writes through the root connection. Entries recorded
// inside InTransaction persist even when the transaction rolls back.
func (s *tenantStores) Audit() ordering.AuditLedger {
	return NewGormAuditLedger(s.rootDB, s.tenantID)
}

// InTransaction runs fn against a store set whose repositories share a
// single database transaction
func (s *tenantStores) InTransaction(ctx context.Context, fn func(tx ordering.Stores) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&tenantStores{tenantID: s.tenantID, db: tx, rootDB: s.rootDB})
	})
}
