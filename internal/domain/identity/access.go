package identity

import (
	"github.com/google/uuid"
)

// AccessGrant is the computed authorization classification for one
// request. It is a value, never persisted.
type AccessGrant int

const (
	Denied AccessGrant = iota
	OwnerAccess
	CustomerAccess
	MerchantAccess
	LocationAccess
	ServiceAccess
)

// String returns the symbolic name of the grant
func (g AccessGrant) String() string {
	switch g {
	case Denied:
		return "DENIED"
	case OwnerAccess:
		return "OWNER_ACCESS"
	case CustomerAccess:
		return "CUSTOMER_ACCESS"
	case MerchantAccess:
		return "MERCHANT_ACCESS"
	case LocationAccess:
		return "LOCATION_ACCESS"
	case ServiceAccess:
		return "SERVICE_ACCESS"
	}
	return "DENIED"
}

// Granted reports whether the grant allows the request
func (g AccessGrant) Granted() bool {
	return g != Denied
}

// Identity is the caller's identity packet: their own customer id plus
// an optional stakeholder membership for some merchant.
type Identity struct {
	CustomerID uuid.UUID
	Membership *StakeholderMembership
}

// Scope is the target resource scope of a request. RequiredLevel is
// the minimum seniority the operation demands (lower = more senior).
// OwnerCustomerID, when set, is the customer owning the resource.
// CustomerOnly marks endpoints any authenticated customer may call.
type Scope struct {
	MerchantID      uuid.UUID
	LocationID      *uuid.UUID
	ServiceID       *uuid.UUID
	OwnerCustomerID *uuid.UUID
	RequiredLevel   PrivilegeLevel
	CustomerOnly    bool
}

// Resolve computes the access grant for an identity packet against a
// target scope. This is the single resolver contract: identity first,
// scope second, with all scope parameters carried in the Scope struct.
//
// Rules, in order:
//  1. Malformed input (nil merchant, out-of-range required level,
//     anonymous caller) is Denied.
//  2. The resource owner gets OwnerAccess.
//  3. A membership for the target merchant grants by the location
//     matrix: tenant-wide membership on a tenant-wide resource is
//     OwnerAccess, tenant-wide membership on a location resource is
//     MerchantAccess, location-scoped membership on its matching
//     location is LocationAccess, any location mismatch is Denied.
//     The membership must satisfy RequiredLevel (required >= level,
//     lower means more senior).
//  4. A service-scoped membership can only grant ServiceAccess on a
//     matching service scope, and its effective privilege is capped at
//     Staff regardless of the stored level.
//  5. With no usable membership, CustomerOnly scopes grant
//     CustomerAccess to any authenticated customer.
func Resolve(identity Identity, scope Scope) AccessGrant {
	if scope.MerchantID == uuid.Nil || !scope.RequiredLevel.IsValid() {
		return Denied
	}
	if identity.CustomerID == uuid.Nil {
		return Denied
	}

	if scope.OwnerCustomerID != nil && *scope.OwnerCustomerID == identity.CustomerID {
		return OwnerAccess
	}

	m := identity.Membership
	if m == nil || m.MerchantID != scope.MerchantID {
		if scope.CustomerOnly {
			return CustomerAccess
		}
		return Denied
	}

	if m.IsServiceScoped() {
		return resolveServiceScope(m, scope)
	}

	if !m.Level.AtLeast(scope.RequiredLevel) {
		return Denied
	}

	switch {
	case m.IsTenantWide() && scope.LocationID == nil:
		return OwnerAccess
	case m.IsTenantWide():
		return MerchantAccess
	case scope.LocationID != nil && *m.LocationID == *scope.LocationID:
		return LocationAccess
	}
	return Denied
}

// resolveServiceScope applies the hard rule for service-scoped
// memberships: whatever privilege the record stores, it acts as Staff.
// A stored Manager level therefore never passes a Manager-level check.
func resolveServiceScope(m *StakeholderMembership, scope Scope) AccessGrant {
	if scope.ServiceID == nil || *scope.ServiceID != *m.ServiceID {
		return Denied
	}
	effective := m.Level
	if effective < PrivilegeStaff {
		effective = PrivilegeStaff
	}
	if !effective.AtLeast(scope.RequiredLevel) {
		return Denied
	}
	return ServiceAccess
}
