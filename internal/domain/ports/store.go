package ports

import (
	"context"
	"time"

	"github.com/kevin07696/settlement-service/internal/domain"
)

// PaymentRepository persists the payment aggregate including its embedded refunds
type PaymentRepository interface {
	// InsertPayment stores a new payment. Returns ErrIdempotencyConflict when the
	// idempotency key is already taken.
	InsertPayment(ctx context.Context, p *domain.Payment) error

	// GetPayment returns ErrPaymentNotFound for unknown ids
	GetPayment(ctx context.Context, id string) (*domain.Payment, error)

	// GetPaymentForUpdate loads a payment and locks it until the enclosing transaction ends
	GetPaymentForUpdate(ctx context.Context, id string) (*domain.Payment, error)

	// GetPaymentByIdempotencyKey returns ErrPaymentNotFound when no payment carries the key
	GetPaymentByIdempotencyKey(ctx context.Context, key string) (*domain.Payment, error)

	// UpdatePayment saves status, timestamps, refunds and balances. The write only
	// succeeds if the stored version equals p.Version; p.Version is incremented on success.
	UpdatePayment(ctx context.Context, p *domain.Payment) error

	// ListCompletedPayments range-scans a vendor's payments completed within [from, to)
	ListCompletedPayments(ctx context.Context, vendorID string, from, to time.Time) ([]*domain.Payment, error)

	// ScanPayments streams payments matching the filter to fn, stopping at the first error
	ScanPayments(ctx context.Context, filter PaymentFilter, fn func(*domain.Payment) error) error

	// ListVendorsWithCompletedPayments returns vendors having payments completed within [from, to)
	ListVendorsWithCompletedPayments(ctx context.Context, from, to time.Time) ([]string, error)

	// ClaimPayments tags every listed payment claimed:<requestID> provided it is currently
	// unclaimed or claimed by a failed request. It returns the number of payments tagged.
	ClaimPayments(ctx context.Context, requestID string, paymentIDs []string) (int64, error)

	// ReleasePayments clears the tag of payments claimed by requestID
	ReleasePayments(ctx context.Context, requestID string) (int64, error)

	// MarkPaymentsSettled flips payments claimed by requestID to settled:<requestID>
	MarkPaymentsSettled(ctx context.Context, requestID string) (int64, error)
}

// TimeBasis selects which payment timestamp a range filter applies to
type TimeBasis string

const (
	TimeBasisCompleted TimeBasis = "completed"
	TimeBasisInitiated TimeBasis = "initiated"
)

// PaymentFilter narrows a payment scan. Zero values mean "no constraint".
type PaymentFilter struct {
	From     time.Time
	To       time.Time
	Basis    TimeBasis
	Statuses []domain.PaymentStatus
	VendorID string
}

// SettlementRepository persists settlement requests and per-day claim cursors
type SettlementRepository interface {
	InsertSettlementRequest(ctx context.Context, r *domain.SettlementRequest) error

	// GetSettlementRequest returns ErrSettlementNotFound for unknown ids
	GetSettlementRequest(ctx context.Context, id string) (*domain.SettlementRequest, error)

	// GetSettlementRequestForUpdate locks the request until the enclosing transaction ends
	GetSettlementRequestForUpdate(ctx context.Context, id string) (*domain.SettlementRequest, error)

	// UpdateSettlementRequest saves status, processed time and failure reason
	UpdateSettlementRequest(ctx context.Context, r *domain.SettlementRequest) error

	// ListSettlementRequests returns all requests (any status) for a vendor's transaction date
	ListSettlementRequests(ctx context.Context, vendorID string, date time.Time) ([]*domain.SettlementRequest, error)

	// ReadSettlementCursor returns the claim version for (vendorID, date), creating it at 0
	ReadSettlementCursor(ctx context.Context, vendorID string, date time.Time) (int64, error)

	// AdvanceSettlementCursor bumps the version iff it still equals expected.
	// Returns ErrConcurrentClaim otherwise.
	AdvanceSettlementCursor(ctx context.Context, vendorID string, date time.Time, expected int64) error
}

// Querier is the full set of repository operations bound to one connection or transaction
type Querier interface {
	PaymentRepository
	SettlementRepository
}

// Store provides queries and atomic units of work.
// Implementations: postgres (production) and memory (tests, local development).
type Store interface {
	// Queries returns a Querier that runs outside any transaction
	Queries() Querier

	// WithTx runs fn atomically. Either every write made through q is committed or none is.
	// Postgres implementations run at SERIALIZABLE isolation.
	WithTx(ctx context.Context, fn func(ctx context.Context, q Querier) error) error
}

// ReportSource is a read-only view used by the Aggregation Reporter; it may be a replica
type ReportSource interface {
	ScanPayments(ctx context.Context, filter PaymentFilter, fn func(*domain.Payment) error) error
}
