package ordering

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fulfillment/backend/internal/domain/ordering"
	"github.com/fulfillment/backend/internal/domain/shared"
)

// memStores is an in-memory Stores implementation used by the pipeline
// tests. The audit ledger is a plain slice so tests can assert entry
// ordering; InTransaction runs fn against the same store set since the
// fake has no rollback semantics. A single mutex guards all state so
// the concurrent-pipeline test can share one store set.
type memStores struct {
	mu           sync.Mutex
	orders       map[uuid.UUID]*ordering.Order
	participants map[uuid.UUID]*ordering.OrderParticipant
	guests       map[uuid.UUID]*ordering.GuestProfile
	txns         []ordering.PaymentTransaction
	entries      []ordering.AuditEntry

	orderSaveErr       error
	participantSaveErr error
	txnAppendErr       error
}

func newMemStores() *memStores {
	return &memStores{
		orders:       make(map[uuid.UUID]*ordering.Order),
		participants: make(map[uuid.UUID]*ordering.OrderParticipant),
		guests:       make(map[uuid.UUID]*ordering.GuestProfile),
	}
}

func (s *memStores) Orders() ordering.OrderRepository               { return &memOrderRepo{s} }
func (s *memStores) Participants() ordering.ParticipantRepository   { return &memParticipantRepo{s} }
func (s *memStores) Guests() ordering.GuestProfileRepository        { return &memGuestRepo{s} }
func (s *memStores) Transactions() ordering.PaymentTransactionRepository {
	return &memTransactionRepo{s}
}
func (s *memStores) Audit() ordering.AuditLedger { return &memAuditLedger{s} }

func (s *memStores) InTransaction(_ context.Context, fn func(tx ordering.Stores) error) error {
	return fn(s)
}

// auditCodes returns the recorded audit codes in insertion order
func (s *memStores) auditCodes() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	codes := make([]int, 0, len(s.entries))
	for _, e := range s.entries {
		codes = append(codes, e.Code)
	}
	return codes
}

type memOrderRepo struct{ s *memStores }

func (r *memOrderRepo) FindByID(_ context.Context, id uuid.UUID) (*ordering.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	order, ok := r.s.orders[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return order, nil
}

func (r *memOrderRepo) FindAll(_ context.Context, _ shared.Filter) ([]ordering.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]ordering.Order, 0, len(r.s.orders))
	for _, o := range r.s.orders {
		out = append(out, *o)
	}
	return out, nil
}

func (r *memOrderRepo) Save(_ context.Context, order *ordering.Order) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.orderSaveErr != nil {
		return r.s.orderSaveErr
	}
	r.s.orders[order.ID] = order
	return nil
}

func (r *memOrderRepo) SaveWithLock(ctx context.Context, order *ordering.Order) error {
	return r.Save(ctx, order)
}

func (r *memOrderRepo) SoftDelete(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.orders, id)
	return nil
}

type memParticipantRepo struct{ s *memStores }

func (r *memParticipantRepo) FindByID(_ context.Context, id uuid.UUID) (*ordering.OrderParticipant, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.participants[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return p, nil
}

func (r *memParticipantRepo) FindByOrder(_ context.Context, orderID uuid.UUID) ([]ordering.OrderParticipant, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]ordering.OrderParticipant, 0)
	for _, p := range r.s.participants {
		if p.OrderID == orderID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (r *memParticipantRepo) Save(_ context.Context, p *ordering.OrderParticipant) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.participantSaveErr != nil {
		return r.s.participantSaveErr
	}
	r.s.participants[p.ID] = p
	return nil
}

func (r *memParticipantRepo) SaveWithLock(ctx context.Context, p *ordering.OrderParticipant) error {
	return r.Save(ctx, p)
}

type memGuestRepo struct{ s *memStores }

func (r *memGuestRepo) FindByID(_ context.Context, id uuid.UUID) (*ordering.GuestProfile, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	g, ok := r.s.guests[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return g, nil
}

func (r *memGuestRepo) Save(_ context.Context, g *ordering.GuestProfile) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.guests[g.ID] = g
	return nil
}

type memTransactionRepo struct{ s *memStores }

func (r *memTransactionRepo) Append(_ context.Context, txn *ordering.PaymentTransaction) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.txnAppendErr != nil {
		return r.s.txnAppendErr
	}
	r.s.txns = append(r.s.txns, *txn)
	return nil
}

func (r *memTransactionRepo) FindByParticipant(_ context.Context, participantID uuid.UUID) ([]ordering.PaymentTransaction, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]ordering.PaymentTransaction, 0)
	for _, txn := range r.s.txns {
		if txn.ParticipantID == participantID {
			out = append(out, txn)
		}
	}
	return out, nil
}

type memAuditLedger struct{ s *memStores }

func (l *memAuditLedger) Record(_ context.Context, subjectID uuid.UUID, code int, message string) error {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	l.s.entries = append(l.s.entries, *ordering.NewAuditEntry(uuid.Nil, subjectID, code, message))
	return nil
}

func (l *memAuditLedger) FindBySubject(_ context.Context, subjectID uuid.UUID) ([]ordering.AuditEntry, error) {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	out := make([]ordering.AuditEntry, 0)
	for _, e := range l.s.entries {
		if e.SubjectID == subjectID {
			out = append(out, e)
		}
	}
	return out, nil
}

// memTenants is a one-tenant TenantStoreRepository
type memTenants struct {
	tenantID uuid.UUID
	stores   *memStores
}

func (t *memTenants) Provision(_ context.Context, tenantID uuid.UUID) (ordering.Stores, error) {
	t.tenantID = tenantID
	if t.stores == nil {
		t.stores = newMemStores()
	}
	return t.stores, nil
}

func (t *memTenants) Stores(_ context.Context, tenantID uuid.UUID) (ordering.Stores, error) {
	if t.stores == nil || tenantID != t.tenantID {
		return nil, shared.ErrNotFound
	}
	return t.stores, nil
}

// fakeAdapter is a scriptable provider adapter. Credential refreshes
// run concurrently, so the recorded sides are mutex-guarded.
type fakeAdapter struct {
	balance    decimal.Decimal
	active     bool
	sendRef    string
	refreshErr error
	statusErr  error
	sendErr    error

	mu             sync.Mutex
	refreshedSides []ordering.CredentialSide
	sentAmounts    []decimal.Decimal
}

func (a *fakeAdapter) RefreshCredentials(_ context.Context, side ordering.CredentialSide) error {
	a.mu.Lock()
	a.refreshedSides = append(a.refreshedSides, side)
	a.mu.Unlock()
	return a.refreshErr
}

func (a *fakeAdapter) AccountStatus(_ context.Context) (*ordering.ProviderAccountStatus, error) {
	if a.statusErr != nil {
		return nil, a.statusErr
	}
	return &ordering.ProviderAccountStatus{AccountID: "acct-1", Balance: a.balance, Active: a.active}, nil
}

func (a *fakeAdapter) Send(_ context.Context, amount decimal.Decimal) (string, error) {
	if a.sendErr != nil {
		return "", a.sendErr
	}
	a.sentAmounts = append(a.sentAmounts, amount)
	return a.sendRef, nil
}

// fakeGateway resolves every participant to the same adapter
type fakeGateway struct {
	adapter *fakeAdapter
	err     error
}

func (g *fakeGateway) AdapterFor(_ context.Context, _ uuid.UUID, _ *ordering.OrderParticipant) (ordering.ProviderAdapter, error) {
	if g.err != nil {
		return nil, g.err
	}
	return g.adapter, nil
}
