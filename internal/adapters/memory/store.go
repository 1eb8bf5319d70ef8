// Package memory provides an in-process implementation of ports.Store.
//
// Every WithTx call holds the store's write lock and works on a snapshot that is only
// published on success, which gives serializable, all-or-nothing units of work. It backs
// the service tests and STORE_DRIVER=memory for local development.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/kevin07696/settlement-service/internal/domain"
	"github.com/kevin07696/settlement-service/internal/domain/ports"
)

type cursorKey struct {
	vendorID string
	date     string
}

type state struct {
	payments    map[string]*domain.Payment
	idempotency map[string]string
	requests    map[string]*domain.SettlementRequest
	cursors     map[cursorKey]int64
}

func newState() *state {
	return &state{
		payments:    make(map[string]*domain.Payment),
		idempotency: make(map[string]string),
		requests:    make(map[string]*domain.SettlementRequest),
		cursors:     make(map[cursorKey]int64),
	}
}

func (s *state) clone() *state {
	cp := newState()
	for id, p := range s.payments {
		cp.payments[id] = p.Clone()
	}
	for k, v := range s.idempotency {
		cp.idempotency[k] = v
	}
	for id, r := range s.requests {
		cp.requests[id] = r.Clone()
	}
	for k, v := range s.cursors {
		cp.cursors[k] = v
	}
	return cp
}

// Store is a mutex-guarded ports.Store
type Store struct {
	mu    sync.RWMutex
	state *state
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{state: newState()}
}

var _ ports.Store = (*Store)(nil)

// Queries returns a Querier where every call is individually atomic
func (s *Store) Queries() ports.Querier {
	return &querier{store: s}
}

// WithTx runs fn against a private snapshot and publishes it only if fn succeeds
func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context, q ports.Querier) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.state.clone()
	if err := fn(ctx, &querier{store: s, tx: snapshot}); err != nil {
		return err
	}
	s.state = snapshot
	return nil
}

type querier struct {
	store *Store
	tx    *state
}

func (q *querier) read(fn func(st *state) error) error {
	if q.tx != nil {
		return fn(q.tx)
	}
	q.store.mu.RLock()
	defer q.store.mu.RUnlock()
	return fn(q.store.state)
}

func (q *querier) write(fn func(st *state) error) error {
	if q.tx != nil {
		return fn(q.tx)
	}
	q.store.mu.Lock()
	defer q.store.mu.Unlock()
	return fn(q.store.state)
}

func (q *querier) InsertPayment(ctx context.Context, p *domain.Payment) error {
	return q.write(func(st *state) error {
		if _, exists := st.payments[p.ID]; exists {
			return domain.NewDomainError(domain.ErrorCodeIdempotencyConflict, "payment already exists").
				WithDetail("payment_id", p.ID)
		}
		if p.IdempotencyKey != "" {
			if _, taken := st.idempotency[p.IdempotencyKey]; taken {
				return domain.NewDomainError(domain.ErrorCodeIdempotencyConflict, "idempotency key already used").
					WithDetail("idempotency_key", p.IdempotencyKey)
			}
			st.idempotency[p.IdempotencyKey] = p.ID
		}
		st.payments[p.ID] = p.Clone()
		return nil
	})
}

func (q *querier) GetPayment(ctx context.Context, id string) (*domain.Payment, error) {
	var out *domain.Payment
	err := q.read(func(st *state) error {
		p, ok := st.payments[id]
		if !ok {
			return paymentNotFound(id)
		}
		out = p.Clone()
		return nil
	})
	return out, err
}

// GetPaymentForUpdate needs no row lock: a transaction already owns the whole store
func (q *querier) GetPaymentForUpdate(ctx context.Context, id string) (*domain.Payment, error) {
	return q.GetPayment(ctx, id)
}

func (q *querier) GetPaymentByIdempotencyKey(ctx context.Context, key string) (*domain.Payment, error) {
	var out *domain.Payment
	err := q.read(func(st *state) error {
		id, ok := st.idempotency[key]
		if !ok {
			return domain.NewDomainError(domain.ErrorCodePaymentNotFound, "payment not found").
				WithDetail("idempotency_key", key)
		}
		out = st.payments[id].Clone()
		return nil
	})
	return out, err
}

func (q *querier) UpdatePayment(ctx context.Context, p *domain.Payment) error {
	return q.write(func(st *state) error {
		stored, ok := st.payments[p.ID]
		if !ok {
			return paymentNotFound(p.ID)
		}
		if stored.Version != p.Version {
			return domain.NewDomainError(domain.ErrorCodeConcurrentUpdate, "payment was modified concurrently").
				WithDetail("payment_id", p.ID)
		}
		p.Version++
		updated := p.Clone()
		// The settlement tag is owned by the claim operations, not by ledger writes
		updated.Settlement = stored.Settlement
		st.payments[p.ID] = updated
		return nil
	})
}

func (q *querier) ListCompletedPayments(ctx context.Context, vendorID string, from, to time.Time) ([]*domain.Payment, error) {
	var out []*domain.Payment
	err := q.read(func(st *state) error {
		for _, p := range st.payments {
			if p.VendorID == vendorID && p.CompletedOn(from, to) {
				out = append(out, p.Clone())
			}
		}
		return nil
	})
	sortByCompletion(out)
	return out, err
}

func (q *querier) ScanPayments(ctx context.Context, filter ports.PaymentFilter, fn func(*domain.Payment) error) error {
	var matched []*domain.Payment
	err := q.read(func(st *state) error {
		for _, p := range st.payments {
			if matches(p, filter) {
				matched = append(matched, p.Clone())
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	sortByCompletion(matched)
	for _, p := range matched {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(p); err != nil {
			return err
		}
	}
	return nil
}

func (q *querier) ListVendorsWithCompletedPayments(ctx context.Context, from, to time.Time) ([]string, error) {
	seen := make(map[string]struct{})
	err := q.read(func(st *state) error {
		for _, p := range st.payments {
			if p.CompletedOn(from, to) {
				seen[p.VendorID] = struct{}{}
			}
		}
		return nil
	})
	vendors := make([]string, 0, len(seen))
	for v := range seen {
		vendors = append(vendors, v)
	}
	sort.Strings(vendors)
	return vendors, err
}

func (q *querier) ClaimPayments(ctx context.Context, requestID string, paymentIDs []string) (int64, error) {
	var claimed int64
	err := q.write(func(st *state) error {
		for _, id := range paymentIDs {
			p, ok := st.payments[id]
			if !ok || !claimable(st, p) {
				continue
			}
			p.Settlement = domain.ClaimedTag(requestID)
			claimed++
		}
		return nil
	})
	return claimed, err
}

// claimable matches untagged payments and payments still tagged by a failed request
func claimable(st *state, p *domain.Payment) bool {
	if p.Settlement.IsNone() {
		return true
	}
	if p.Settlement.State != domain.SettlementTagClaimed {
		return false
	}
	r, ok := st.requests[p.Settlement.RequestID]
	return ok && r.Status == domain.SettlementStatusFailed
}

func (q *querier) ReleasePayments(ctx context.Context, requestID string) (int64, error) {
	return q.retag(requestID, domain.SettlementTagClaimed, domain.UnclaimedTag())
}

func (q *querier) MarkPaymentsSettled(ctx context.Context, requestID string) (int64, error) {
	return q.retag(requestID, domain.SettlementTagClaimed, domain.SettledTag(requestID))
}

func (q *querier) retag(requestID string, from domain.SettlementTagState, to domain.SettlementTag) (int64, error) {
	var n int64
	err := q.write(func(st *state) error {
		for _, p := range st.payments {
			if p.Settlement.State == from && p.Settlement.RequestID == requestID {
				p.Settlement = to
				n++
			}
		}
		return nil
	})
	return n, err
}

func (q *querier) InsertSettlementRequest(ctx context.Context, r *domain.SettlementRequest) error {
	return q.write(func(st *state) error {
		if _, exists := st.requests[r.ID]; exists {
			return domain.NewDomainError(domain.ErrorCodeIdempotencyConflict, "settlement request already exists").
				WithDetail("request_id", r.ID)
		}
		st.requests[r.ID] = r.Clone()
		return nil
	})
}

func (q *querier) GetSettlementRequest(ctx context.Context, id string) (*domain.SettlementRequest, error) {
	var out *domain.SettlementRequest
	err := q.read(func(st *state) error {
		r, ok := st.requests[id]
		if !ok {
			return domain.NewDomainError(domain.ErrorCodeSettlementNotFound, "settlement request not found").
				WithDetail("request_id", id)
		}
		out = r.Clone()
		return nil
	})
	return out, err
}

func (q *querier) GetSettlementRequestForUpdate(ctx context.Context, id string) (*domain.SettlementRequest, error) {
	return q.GetSettlementRequest(ctx, id)
}

func (q *querier) UpdateSettlementRequest(ctx context.Context, r *domain.SettlementRequest) error {
	return q.write(func(st *state) error {
		if _, ok := st.requests[r.ID]; !ok {
			return domain.NewDomainError(domain.ErrorCodeSettlementNotFound, "settlement request not found").
				WithDetail("request_id", r.ID)
		}
		st.requests[r.ID] = r.Clone()
		return nil
	})
}

func (q *querier) ListSettlementRequests(ctx context.Context, vendorID string, date time.Time) ([]*domain.SettlementRequest, error) {
	var out []*domain.SettlementRequest
	err := q.read(func(st *state) error {
		for _, r := range st.requests {
			if r.VendorID == vendorID && r.TransactionDate.Equal(date) {
				out = append(out, r.Clone())
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].RequestedAt.Equal(out[j].RequestedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].RequestedAt.Before(out[j].RequestedAt)
	})
	return out, err
}

func (q *querier) ReadSettlementCursor(ctx context.Context, vendorID string, date time.Time) (int64, error) {
	var version int64
	err := q.read(func(st *state) error {
		version = st.cursors[cursorKey{vendorID: vendorID, date: date.Format("2006-01-02")}]
		return nil
	})
	return version, err
}

func (q *querier) AdvanceSettlementCursor(ctx context.Context, vendorID string, date time.Time, expected int64) error {
	return q.write(func(st *state) error {
		key := cursorKey{vendorID: vendorID, date: date.Format("2006-01-02")}
		if st.cursors[key] != expected {
			return domain.NewDomainError(domain.ErrorCodeConcurrentClaim, "settlement cursor moved").
				WithDetail("vendor_id", vendorID).
				WithDetail("expected_version", expected)
		}
		st.cursors[key] = expected + 1
		return nil
	})
}

func paymentNotFound(id string) error {
	return domain.NewDomainError(domain.ErrorCodePaymentNotFound, "payment not found").
		WithDetail("payment_id", id)
}

func matches(p *domain.Payment, f ports.PaymentFilter) bool {
	if f.VendorID != "" && p.VendorID != f.VendorID {
		return false
	}
	if len(f.Statuses) > 0 {
		found := false
		for _, s := range f.Statuses {
			if p.Status == s {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	var ts *time.Time
	switch f.Basis {
	case ports.TimeBasisInitiated:
		initiated := p.Timestamps.Initiated
		ts = &initiated
	default:
		ts = p.Timestamps.Completed
	}
	if f.From.IsZero() && f.To.IsZero() {
		return true
	}
	if ts == nil {
		return false
	}
	if !f.From.IsZero() && ts.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && !ts.Before(f.To) {
		return false
	}
	return true
}

func sortByCompletion(ps []*domain.Payment) {
	sort.Slice(ps, func(i, j int) bool {
		a, b := ps[i].Timestamps.Completed, ps[j].Timestamps.Completed
		switch {
		case a != nil && b != nil && !a.Equal(*b):
			return a.Before(*b)
		case a == nil && b != nil:
			return false
		case a != nil && b == nil:
			return true
		}
		return ps[i].ID < ps[j].ID
	})
}
