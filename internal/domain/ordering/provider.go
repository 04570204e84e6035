package ordering

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CredentialSide identifies which party's provider credentials are
// being refreshed before a payment stage runs.
type CredentialSide string

const (
	CredentialSideCustomer CredentialSide = "customer"
	CredentialSideMerchant CredentialSide = "merchant"
)

// ProviderAccountStatus is the provider's view of a payer account
type ProviderAccountStatus struct {
	AccountID string
	Balance   decimal.Decimal
	Active    bool
}

// ProviderAdapter is the external payment-provider capability used by
// the participant pipeline. The concrete protocol is opaque to the
// domain; only these three operations matter here.
type ProviderAdapter interface {
	// RefreshCredentials renews the session credentials for one side
	// of the linkage. Both sides are refreshed before the account
	// status is consulted.
	RefreshCredentials(ctx context.Context, side CredentialSide) error

	// AccountStatus fetches the customer-side account standing,
	// including the balance available to cover a charge.
	AccountStatus(ctx context.Context) (*ProviderAccountStatus, error)

	// Send charges the given amount and returns the provider's
	// reference number for the transfer.
	Send(ctx context.Context, amount decimal.Decimal) (string, error)
}

// ProviderGateway resolves the adapter bound to a participant's
// payment linkage.
type ProviderGateway interface {
	AdapterFor(ctx context.Context, tenantID uuid.UUID, participant *OrderParticipant) (ProviderAdapter, error)
}
