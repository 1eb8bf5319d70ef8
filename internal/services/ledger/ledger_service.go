package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kevin07696/settlement-service/internal/domain"
	"github.com/kevin07696/settlement-service/internal/domain/ports"
	serviceports "github.com/kevin07696/settlement-service/internal/services/ports"
	"github.com/kevin07696/settlement-service/pkg/observability"
	"github.com/kevin07696/settlement-service/pkg/resilience"
	"github.com/kevin07696/settlement-service/pkg/timeutil"
)

// Service implements serviceports.LedgerService
type Service struct {
	store      ports.Store
	clock      timeutil.Clock
	backoff    resilience.BackoffStrategy
	maxRetries int
	logger     ports.Logger
}

var _ serviceports.LedgerService = (*Service)(nil)

// Option configures a Service
type Option func(*Service)

// WithClock replaces the wall clock used for created/refund timestamps
func WithClock(c timeutil.Clock) Option {
	return func(s *Service) { s.clock = c }
}

// WithRetry configures optimistic concurrency retries on payment writes
func WithRetry(backoff resilience.BackoffStrategy, maxRetries int) Option {
	return func(s *Service) {
		s.backoff = backoff
		s.maxRetries = maxRetries
	}
}

// NewService creates a new ledger service
func NewService(store ports.Store, logger ports.Logger, opts ...Option) *Service {
	s := &Service{
		store:      store,
		clock:      timeutil.SystemClock{},
		backoff:    resilience.DefaultExponentialBackoff(),
		maxRetries: 5,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreatePayment records a new pending payment
func (s *Service) CreatePayment(ctx context.Context, req *serviceports.CreatePaymentRequest) (*domain.Payment, error) {
	if err := validateCreateRequest(req); err != nil {
		return nil, err
	}

	if req.IdempotencyKey != "" {
		existing, err := s.store.Queries().GetPaymentByIdempotencyKey(ctx, req.IdempotencyKey)
		if err == nil {
			s.logger.Info("returning existing payment for idempotency key",
				ports.String("idempotency_key", req.IdempotencyKey),
				ports.String("payment_id", existing.ID))
			return existing, nil
		}
		if !domain.IsNotFoundError(err) {
			return nil, fmt.Errorf("lookup idempotency key: %w", err)
		}
	}

	amount, err := domain.NewAmount(req.BaseAmount, req.TaxAmount, req.DiscountAmount, req.Currency)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	payment := &domain.Payment{
		ID:                 uuid.New().String(),
		BookingID:          req.BookingID,
		UserID:             req.UserID,
		VendorID:           req.VendorID,
		StationID:          req.StationID,
		Amount:             amount,
		Method:             req.Method,
		TransactionDetails: copyDetails(req.TransactionDetails),
		Status:             domain.PaymentStatusPending,
		Timestamps:         domain.PaymentTimestamps{Initiated: now},
		Refunds:            []domain.Refund{},
		NetAmount:          amount.FinalAmount,
		Settlement:         domain.UnclaimedTag(),
		IdempotencyKey:     req.IdempotencyKey,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	if err := s.store.Queries().InsertPayment(ctx, payment); err != nil {
		// Lost a race with a concurrent retry carrying the same key
		if domain.IsDomainError(err, domain.ErrorCodeIdempotencyConflict) && req.IdempotencyKey != "" {
			existing, getErr := s.store.Queries().GetPaymentByIdempotencyKey(ctx, req.IdempotencyKey)
			if getErr == nil {
				return existing, nil
			}
		}
		s.logger.Error("create payment failed",
			ports.String("booking_id", req.BookingID),
			ports.Err(err))
		return nil, err
	}

	observability.RecordPaymentCreated(string(req.Method.Kind), req.Currency)
	s.logger.Info("payment created",
		ports.String("payment_id", payment.ID),
		ports.String("vendor_id", payment.VendorID),
		ports.String("final_amount", amount.FinalAmount.String()))

	return payment, nil
}

// GetPayment returns a payment with its refunds
func (s *Service) GetPayment(ctx context.Context, paymentID string) (*domain.Payment, error) {
	if paymentID == "" {
		return nil, domain.NewDomainError(domain.ErrorCodeValidationMissingField, "payment_id is required")
	}
	return s.store.Queries().GetPayment(ctx, paymentID)
}

// RecordTransition moves a payment along the status table
func (s *Service) RecordTransition(ctx context.Context, paymentID string, status domain.PaymentStatus, at time.Time) (*domain.Payment, error) {
	if !status.Valid() {
		return nil, domain.NewDomainError(domain.ErrorCodeValidationFailed, "unknown payment status").
			WithDetail("status", string(status))
	}
	if at.IsZero() {
		at = s.clock.Now()
	}

	var applied bool
	payment, err := s.mutate(ctx, "record_transition", paymentID, func(p *domain.Payment) (bool, error) {
		var err error
		applied, err = p.Transition(status, at)
		return applied, err
	})
	if err != nil {
		if domain.IsStateError(err) {
			observability.RecordPaymentTransition(string(status), "rejected")
			s.logger.Warn("payment transition rejected",
				ports.String("payment_id", paymentID),
				ports.String("to", string(status)),
				ports.Err(err))
		}
		return nil, err
	}

	if !applied {
		observability.RecordPaymentTransition(string(status), "duplicate")
		s.logger.Debug("payment transition already recorded",
			ports.String("payment_id", paymentID),
			ports.String("status", string(status)))
		return payment, nil
	}

	observability.RecordPaymentTransition(string(status), "applied")
	s.logger.Info("payment transitioned",
		ports.String("payment_id", paymentID),
		ports.String("status", string(status)),
		ports.Time("at", at))
	return payment, nil
}

// ApplyRefund appends a pending refund to a completed or partially refunded payment
func (s *Service) ApplyRefund(ctx context.Context, req *serviceports.ApplyRefundRequest) (*domain.Refund, error) {
	if req.PaymentID == "" {
		return nil, domain.NewDomainError(domain.ErrorCodeValidationMissingField, "payment_id is required")
	}

	var refund domain.Refund
	_, err := s.mutate(ctx, "apply_refund", req.PaymentID, func(p *domain.Payment) (bool, error) {
		if existing, ok := p.FindRefundByIdempotencyKey(req.IdempotencyKey); ok {
			if !existing.Amount.Equal(req.Amount) {
				return false, domain.NewDomainError(domain.ErrorCodeIdempotencyConflict, "idempotency key reused with a different amount").
					WithDetail("idempotency_key", req.IdempotencyKey)
			}
			refund = *existing
			return false, nil
		}

		refund = domain.Refund{
			ID:             uuid.New().String(),
			Amount:         req.Amount,
			Reason:         req.Reason,
			Status:         domain.RefundStatusPending,
			IdempotencyKey: req.IdempotencyKey,
			CreatedAt:      s.clock.Now(),
		}
		if err := p.AppendRefund(refund); err != nil {
			return false, err
		}
		return true, nil
	})
	if err != nil {
		observability.RecordRefund("rejected", "", 0)
		s.logger.Warn("refund rejected",
			ports.String("payment_id", req.PaymentID),
			ports.String("amount", req.Amount.String()),
			ports.Err(err))
		return nil, err
	}

	observability.RecordRefund("requested", "", 0)
	s.logger.Info("refund requested",
		ports.String("payment_id", req.PaymentID),
		ports.String("refund_id", refund.ID),
		ports.String("amount", refund.Amount.String()))
	return &refund, nil
}

// MarkRefundProcessed settles a pending refund and recomputes the net amount
func (s *Service) MarkRefundProcessed(ctx context.Context, paymentID, refundID, reference string, at time.Time) (*domain.Payment, error) {
	if at.IsZero() {
		at = s.clock.Now()
	}

	var applied bool
	payment, err := s.mutate(ctx, "mark_refund_processed", paymentID, func(p *domain.Payment) (bool, error) {
		var err error
		applied, err = p.ApplyProcessedRefund(refundID, reference, at)
		return applied, err
	})
	if err != nil {
		s.logger.Error("mark refund processed failed",
			ports.String("payment_id", paymentID),
			ports.String("refund_id", refundID),
			ports.Err(err))
		return nil, err
	}

	if applied {
		refund, _ := payment.FindRefund(refundID)
		observability.RecordRefund("processed", payment.Amount.Currency, refund.Amount.InexactFloat64())
		s.logger.Info("refund processed",
			ports.String("payment_id", paymentID),
			ports.String("refund_id", refundID),
			ports.String("net_amount", payment.NetAmount.String()),
			ports.String("status", string(payment.Status)))
	}
	return payment, nil
}

// MarkRefundFailed records a gateway rejection of a pending refund
func (s *Service) MarkRefundFailed(ctx context.Context, paymentID, refundID string, at time.Time) (*domain.Payment, error) {
	if at.IsZero() {
		at = s.clock.Now()
	}

	var applied bool
	payment, err := s.mutate(ctx, "mark_refund_failed", paymentID, func(p *domain.Payment) (bool, error) {
		var err error
		applied, err = p.MarkRefundFailed(refundID, at)
		return applied, err
	})
	if err != nil {
		return nil, err
	}

	if applied {
		observability.RecordRefund("failed", payment.Amount.Currency, 0)
		s.logger.Warn("refund failed at gateway",
			ports.String("payment_id", paymentID),
			ports.String("refund_id", refundID))
	}
	return payment, nil
}

// CanBeRefunded reports whether a further refund may be requested
func (s *Service) CanBeRefunded(ctx context.Context, paymentID string) (bool, error) {
	p, err := s.GetPayment(ctx, paymentID)
	if err != nil {
		return false, err
	}
	return p.CanBeRefunded(), nil
}

// mutate loads a payment under lock, applies fn and persists the result when fn reports a
// change. Lost optimistic updates are retried with backoff.
func (s *Service) mutate(ctx context.Context, op, paymentID string, fn func(p *domain.Payment) (bool, error)) (*domain.Payment, error) {
	if paymentID == "" {
		return nil, domain.NewDomainError(domain.ErrorCodeValidationMissingField, "payment_id is required")
	}

	for attempt := 0; ; attempt++ {
		var result *domain.Payment
		err := s.store.WithTx(ctx, func(ctx context.Context, q ports.Querier) error {
			p, err := q.GetPaymentForUpdate(ctx, paymentID)
			if err != nil {
				return err
			}
			changed, err := fn(p)
			if err != nil {
				return err
			}
			if changed {
				if err := q.UpdatePayment(ctx, p); err != nil {
					return err
				}
			}
			result = p
			return nil
		})
		if err == nil {
			return result, nil
		}
		if !domain.IsDomainError(err, domain.ErrorCodeConcurrentUpdate) || attempt >= s.maxRetries {
			return nil, err
		}

		delay := s.backoff.NextDelay(attempt)
		observability.RecordLedgerRetry(op)
		s.logger.Debug("retrying payment write after concurrent update",
			ports.String("operation", op),
			ports.String("payment_id", paymentID),
			ports.Int("attempt", attempt+1),
			ports.Duration("backoff_delay", delay))

		if err := resilience.Sleep(ctx, delay); err != nil {
			return nil, fmt.Errorf("retry cancelled: %w", err)
		}
	}
}

func validateCreateRequest(req *serviceports.CreatePaymentRequest) error {
	switch {
	case req.BookingID == "":
		return domain.NewDomainError(domain.ErrorCodeValidationMissingField, "booking_id is required")
	case req.UserID == "":
		return domain.NewDomainError(domain.ErrorCodeValidationMissingField, "user_id is required")
	case req.VendorID == "":
		return domain.NewDomainError(domain.ErrorCodeValidationMissingField, "vendor_id is required")
	}
	return req.Method.Validate()
}

func copyDetails(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
