package identity

import (
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/fulfillment/backend/internal/domain/shared"
)

// Secret cost for bcrypt
const bcryptCost = 12

const minSecretLength = 8

// PrivilegeLevel is the numeric seniority of a stakeholder. Lower
// values are more senior: Admin outranks Manager outranks Staff.
type PrivilegeLevel int

const (
	PrivilegeAdmin   PrivilegeLevel = 1
	PrivilegeManager PrivilegeLevel = 2
	PrivilegeStaff   PrivilegeLevel = 3
)

// IsValid checks the level is a declared privilege
func (l PrivilegeLevel) IsValid() bool {
	return l >= PrivilegeAdmin && l <= PrivilegeStaff
}

// AtLeast reports whether the level satisfies the required seniority.
// Because lower numbers denote seniority, "at least as privileged as
// required" is required >= l.
func (l PrivilegeLevel) AtLeast(required PrivilegeLevel) bool {
	return required >= l
}

// StakeholderMembership is a tenant-scoped role record. A nil
// LocationID means the membership is tenant-wide; a non-nil ServiceID
// scopes the membership to a third-party service integration.
type StakeholderMembership struct {
	shared.BaseAggregateRoot
	MerchantID uuid.UUID      `gorm:"type:uuid;not null;index"`
	CustomerID uuid.UUID      `gorm:"type:uuid;not null;index"`
	Level      PrivilegeLevel `gorm:"not null"`
	LocationID *uuid.UUID     `gorm:"type:uuid"`
	ServiceID  *uuid.UUID     `gorm:"type:uuid"`
	SecretHash string         `gorm:"not null" json:"-"`
}

// NewStakeholderMembership creates a membership record
func NewStakeholderMembership(merchantID, customerID uuid.UUID, level PrivilegeLevel, locationID, serviceID *uuid.UUID) (*StakeholderMembership, error) {
	if merchantID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_MERCHANT", "Merchant ID cannot be empty")
	}
	if customerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CUSTOMER", "Customer ID cannot be empty")
	}
	if !level.IsValid() {
		return nil, shared.NewDomainError("INVALID_PRIVILEGE", "Privilege level must be Admin, Manager or Staff")
	}
	return &StakeholderMembership{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		MerchantID:        merchantID,
		CustomerID:        customerID,
		Level:             level,
		LocationID:        locationID,
		ServiceID:         serviceID,
	}, nil
}

// SetSecret hashes and stores the stakeholder secret presented at
// token issuance
func (m *StakeholderMembership) SetSecret(secret string) error {
	if len(secret) < minSecretLength {
		return shared.NewDomainError("INVALID_SECRET", "Secret must be at least 8 characters")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcryptCost)
	if err != nil {
		return err
	}
	m.SecretHash = string(hash)
	m.UpdatedAt = time.Now()
	return nil
}

// VerifySecret verifies if the provided secret matches
func (m *StakeholderMembership) VerifySecret(secret string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(m.SecretHash), []byte(secret))
	return err == nil
}

// IsTenantWide reports whether the membership has no location scope
func (m *StakeholderMembership) IsTenantWide() bool {
	return m.LocationID == nil
}

// IsServiceScoped reports whether the membership is bound to a
// third-party service
func (m *StakeholderMembership) IsServiceScoped() bool {
	return m.ServiceID != nil
}

// UpdateLevel changes the privilege level
func (m *StakeholderMembership) UpdateLevel(level PrivilegeLevel) error {
	if !level.IsValid() {
		return shared.NewDomainError("INVALID_PRIVILEGE", "Privilege level must be Admin, Manager or Staff")
	}
	m.Level = level
	m.UpdatedAt = time.Now()
	return nil
}
