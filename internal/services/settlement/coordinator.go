package settlement

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kevin07696/settlement-service/internal/domain"
	"github.com/kevin07696/settlement-service/internal/domain/ports"
	serviceports "github.com/kevin07696/settlement-service/internal/services/ports"
	"github.com/kevin07696/settlement-service/pkg/observability"
	"github.com/kevin07696/settlement-service/pkg/timeutil"
)

// Coordinator is the only writer of settlement requests. Claims for one (vendor, date)
// are serialized through the store transaction and the settlement cursor.
type Coordinator struct {
	store  ports.Store
	calc   *Calculator
	clock  timeutil.Clock
	logger ports.Logger
}

var _ serviceports.SettlementService = (*Coordinator)(nil)

// NewCoordinator creates a new settlement coordinator
func NewCoordinator(store ports.Store, calc *Calculator, clock timeutil.Clock, logger ports.Logger) *Coordinator {
	if clock == nil {
		clock = timeutil.SystemClock{}
	}
	return &Coordinator{
		store:  store,
		calc:   calc,
		clock:  clock,
		logger: logger,
	}
}

// ComputeBucket partitions a vendor's completed payments of one calendar date
func (c *Coordinator) ComputeBucket(ctx context.Context, vendorID string, date time.Time) (*domain.DailySettlementBucket, error) {
	if vendorID == "" {
		return nil, domain.NewDomainError(domain.ErrorCodeValidationMissingField, "vendor_id is required")
	}
	return c.calc.Compute(ctx, c.store.Queries(), vendorID, date)
}

// RequestUrgentSettlement claims the pending slice of (vendor, date) for an immediate payout
func (c *Coordinator) RequestUrgentSettlement(ctx context.Context, vendorID string, date time.Time, requestedAmount decimal.Decimal) (*domain.SettlementRequest, error) {
	return c.RequestSettlement(ctx, vendorID, date, requestedAmount, domain.SettlementRequestUrgent)
}

// RequestSettlement recomputes the bucket, checks the caller's figure against the pending
// amount and claims exactly the pending payments, all inside one transaction
func (c *Coordinator) RequestSettlement(ctx context.Context, vendorID string, date time.Time, requestedAmount decimal.Decimal, requestType domain.SettlementRequestType) (*domain.SettlementRequest, error) {
	if vendorID == "" {
		return nil, domain.NewDomainError(domain.ErrorCodeValidationMissingField, "vendor_id is required")
	}
	if requestedAmount.IsNegative() {
		return nil, domain.NewDomainError(domain.ErrorCodeValidationAmountInvalid, "requested amount must not be negative")
	}
	if requestType != domain.SettlementRequestNormal && requestType != domain.SettlementRequestUrgent {
		return nil, domain.NewDomainError(domain.ErrorCodeValidationFailed, "unknown settlement request type").
			WithDetail("request_type", string(requestType))
	}

	key := timeutil.DateKey(date)
	began := time.Now()

	var request *domain.SettlementRequest
	err := c.store.WithTx(ctx, func(ctx context.Context, q ports.Querier) error {
		version, err := q.ReadSettlementCursor(ctx, vendorID, key)
		if err != nil {
			return err
		}

		bucket, err := c.calc.Compute(ctx, q, vendorID, date)
		if err != nil {
			return err
		}

		if !bucket.PendingSettlement.IsPositive() {
			return domain.NewDomainError(domain.ErrorCodeNothingToSettle, "nothing to settle for this date").
				WithDetail("vendor_id", vendorID).
				WithDetail("date", bucket.Date)
		}
		if !requestedAmount.Equal(bucket.PendingSettlement) {
			return domain.NewDomainError(domain.ErrorCodeAmountMismatch, "requested amount does not match pending settlement").
				WithDetail("requested", requestedAmount.String()).
				WithDetail("pending", bucket.PendingSettlement.String())
		}

		claimed, err := claimableNet(ctx, q, bucket.PendingPaymentIDs)
		if err != nil {
			return err
		}

		now := c.clock.Now()
		request = &domain.SettlementRequest{
			ID:                uuid.New().String(),
			VendorID:          vendorID,
			TransactionDate:   key,
			RequestedAt:       now,
			Type:              requestType,
			ClaimedPaymentIDs: bucket.PendingPaymentIDs,
			ClaimedAmount:     claimed,
			Currency:          bucket.Currency,
			Status:            domain.SettlementStatusPending,
			UpdatedAt:         now,
		}

		n, err := q.ClaimPayments(ctx, request.ID, request.ClaimedPaymentIDs)
		if err != nil {
			return err
		}
		if n != int64(len(request.ClaimedPaymentIDs)) {
			return domain.NewDomainError(domain.ErrorCodeConcurrentClaim, "payments were claimed by another request").
				WithDetail("expected", len(request.ClaimedPaymentIDs)).
				WithDetail("claimed", n)
		}

		if err := q.InsertSettlementRequest(ctx, request); err != nil {
			return err
		}
		return q.AdvanceSettlementCursor(ctx, vendorID, key, version)
	})

	elapsed := time.Since(began).Seconds()
	if err != nil {
		// A serialization failure inside the claim is a lost race for the same payments
		if domain.IsDomainError(err, domain.ErrorCodeConcurrentUpdate) {
			err = domain.WrapError(domain.ErrorCodeConcurrentClaim, "settlement claim lost a concurrent race, retry", err)
		}
		observability.RecordSettlementRequest(string(requestType), outcomeOf(err), "", 0, elapsed)
		c.logSettlementRejection(vendorID, key, requestedAmount, err)
		return nil, err
	}

	observability.RecordSettlementRequest(string(requestType), "created", request.Currency, request.ClaimedAmount.InexactFloat64(), elapsed)
	c.logger.Info("settlement request created",
		ports.String("request_id", request.ID),
		ports.String("vendor_id", vendorID),
		ports.String("transaction_date", key.Format(timeutil.DateLayout)),
		ports.String("request_type", string(requestType)),
		ports.Int("payment_count", len(request.ClaimedPaymentIDs)),
		ports.String("claimed_amount", request.ClaimedAmount.String()))

	return request, nil
}

// StartSettlementProcessing moves a pending request to processing. Repeating the call on a
// processing request is a no-op.
func (c *Coordinator) StartSettlementProcessing(ctx context.Context, requestID string) (*domain.SettlementRequest, error) {
	return c.advance(ctx, requestID, domain.SettlementStatusProcessing, func(ctx context.Context, q ports.Querier, r *domain.SettlementRequest) (bool, error) {
		switch r.Status {
		case domain.SettlementStatusProcessing:
			return false, nil
		case domain.SettlementStatusPending:
			r.Status = domain.SettlementStatusProcessing
			return true, nil
		}
		return false, invalidRequestState(r, "only pending requests can start processing")
	})
}

// CompleteSettlement settles a processing request and flips its payments to settled
func (c *Coordinator) CompleteSettlement(ctx context.Context, requestID string) (*domain.SettlementRequest, error) {
	return c.advance(ctx, requestID, domain.SettlementStatusSettled, func(ctx context.Context, q ports.Querier, r *domain.SettlementRequest) (bool, error) {
		if r.Status != domain.SettlementStatusProcessing {
			return false, invalidRequestState(r, "only processing requests can be completed")
		}

		n, err := q.MarkPaymentsSettled(ctx, r.ID)
		if err != nil {
			return false, err
		}
		if n != int64(len(r.ClaimedPaymentIDs)) {
			c.logger.Warn("settled payment count differs from claim",
				ports.String("request_id", r.ID),
				ports.Int("claimed", len(r.ClaimedPaymentIDs)),
				ports.Int64("settled", n))
		}

		now := c.clock.Now()
		r.Status = domain.SettlementStatusSettled
		r.ProcessedAt = &now
		return true, nil
	})
}

// FailSettlement releases every payment the request claimed and marks it failed. Requests
// already settled or failed are returned unchanged.
func (c *Coordinator) FailSettlement(ctx context.Context, requestID, reason string) (*domain.SettlementRequest, error) {
	return c.advance(ctx, requestID, domain.SettlementStatusFailed, func(ctx context.Context, q ports.Querier, r *domain.SettlementRequest) (bool, error) {
		if r.Status.IsFinal() {
			c.logger.Info("fail settlement ignored for final request",
				ports.String("request_id", r.ID),
				ports.String("status", string(r.Status)))
			return false, nil
		}

		version, err := q.ReadSettlementCursor(ctx, r.VendorID, r.TransactionDate)
		if err != nil {
			return false, err
		}
		if _, err := q.ReleasePayments(ctx, r.ID); err != nil {
			return false, err
		}
		// Released payments change the pending slice of the date
		if err := q.AdvanceSettlementCursor(ctx, r.VendorID, r.TransactionDate, version); err != nil {
			return false, err
		}

		now := c.clock.Now()
		r.Status = domain.SettlementStatusFailed
		r.ProcessedAt = &now
		r.FailureReason = reason
		return true, nil
	})
}

// GetSettlementRequest returns a request by id
func (c *Coordinator) GetSettlementRequest(ctx context.Context, requestID string) (*domain.SettlementRequest, error) {
	if requestID == "" {
		return nil, domain.NewDomainError(domain.ErrorCodeValidationMissingField, "request_id is required")
	}
	return c.store.Queries().GetSettlementRequest(ctx, requestID)
}

// ListSettlementRequests returns every request for a vendor's transaction date, any status
func (c *Coordinator) ListSettlementRequests(ctx context.Context, vendorID string, date time.Time) ([]*domain.SettlementRequest, error) {
	if vendorID == "" {
		return nil, domain.NewDomainError(domain.ErrorCodeValidationMissingField, "vendor_id is required")
	}
	requests, err := c.store.Queries().ListSettlementRequests(ctx, vendorID, timeutil.DateKey(date))
	if err != nil {
		return nil, err
	}
	if requests == nil {
		requests = []*domain.SettlementRequest{}
	}
	return requests, nil
}

// SettleDay creates a normal settlement request for every vendor with a pending balance on
// date. A vendor that fails does not stop the run.
func (c *Coordinator) SettleDay(ctx context.Context, date time.Time) (*serviceports.SettleDayResult, error) {
	from, to := timeutil.DateBounds(date, c.calc.Location())
	vendors, err := c.store.Queries().ListVendorsWithCompletedPayments(ctx, from, to)
	if err != nil {
		return nil, err
	}

	result := &serviceports.SettleDayResult{
		Date:     timeutil.DateKey(date).Format(timeutil.DateLayout),
		Created:  []*domain.SettlementRequest{},
		Failures: make(map[string]string),
	}

	for _, vendorID := range vendors {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		bucket, err := c.ComputeBucket(ctx, vendorID, date)
		if err != nil {
			result.Failures[vendorID] = err.Error()
			continue
		}
		if !bucket.PendingSettlement.IsPositive() {
			result.Skipped++
			continue
		}

		request, err := c.RequestSettlement(ctx, vendorID, date, bucket.PendingSettlement, domain.SettlementRequestNormal)
		switch {
		case err == nil:
			result.Created = append(result.Created, request)
		case domain.IsDomainError(err, domain.ErrorCodeNothingToSettle):
			// An urgent request got there first
			result.Skipped++
		default:
			result.Failures[vendorID] = err.Error()
		}
	}

	c.logger.Info("daily settlement run finished",
		ports.String("date", result.Date),
		ports.Int("vendors", len(vendors)),
		ports.Int("created", len(result.Created)),
		ports.Int("skipped", result.Skipped),
		ports.Int("failed", len(result.Failures)))

	return result, nil
}

// advance loads a request under lock and applies an operator transition
func (c *Coordinator) advance(
	ctx context.Context,
	requestID string,
	target domain.SettlementStatus,
	fn func(ctx context.Context, q ports.Querier, r *domain.SettlementRequest) (bool, error),
) (*domain.SettlementRequest, error) {
	if requestID == "" {
		return nil, domain.NewDomainError(domain.ErrorCodeValidationMissingField, "request_id is required")
	}

	var (
		request *domain.SettlementRequest
		changed bool
	)
	err := c.store.WithTx(ctx, func(ctx context.Context, q ports.Querier) error {
		r, err := q.GetSettlementRequestForUpdate(ctx, requestID)
		if err != nil {
			return err
		}
		changed, err = fn(ctx, q, r)
		if err != nil {
			return err
		}
		if changed {
			r.UpdatedAt = c.clock.Now()
			if err := q.UpdateSettlementRequest(ctx, r); err != nil {
				return err
			}
		}
		request = r
		return nil
	})
	if err != nil {
		c.logger.Warn("settlement status change rejected",
			ports.String("request_id", requestID),
			ports.String("target", string(target)),
			ports.Err(err))
		return nil, err
	}

	if changed {
		observability.RecordSettlementStatusChange(string(target))
		c.logger.Info("settlement request status changed",
			ports.String("request_id", requestID),
			ports.String("status", string(request.Status)))
	}
	return request, nil
}

// claimableNet sums the net amount of the payments about to be claimed. Payments with a
// refund waiting on the gateway are rejected; the refund would drop them below the claim.
func claimableNet(ctx context.Context, q ports.Querier, paymentIDs []string) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, id := range paymentIDs {
		p, err := q.GetPayment(ctx, id)
		if err != nil {
			return decimal.Zero, err
		}
		if p.HasPendingRefund() {
			return decimal.Zero, domain.NewDomainError(domain.ErrorCodeInvalidState, "payment has a refund in progress").
				WithDetail("payment_id", id)
		}
		total = total.Add(p.NetAmount)
	}
	return total, nil
}

func invalidRequestState(r *domain.SettlementRequest, msg string) error {
	return domain.NewDomainError(domain.ErrorCodeInvalidState, msg).
		WithDetail("request_id", r.ID).
		WithDetail("status", string(r.Status))
}

func outcomeOf(err error) string {
	switch domain.GetErrorCode(err) {
	case domain.ErrorCodeNothingToSettle:
		return "nothing_to_settle"
	case domain.ErrorCodeAmountMismatch:
		return "amount_mismatch"
	case domain.ErrorCodeConcurrentClaim:
		return "concurrent_claim"
	}
	return "error"
}

func (c *Coordinator) logSettlementRejection(vendorID string, date time.Time, requested decimal.Decimal, err error) {
	fields := []ports.Field{
		ports.String("vendor_id", vendorID),
		ports.String("transaction_date", date.Format(timeutil.DateLayout)),
		ports.String("requested_amount", requested.String()),
		ports.Err(err),
	}
	if domain.IsBusinessRuleError(err) || domain.IsRetryableError(err) || domain.IsValidationError(err) {
		c.logger.Info("settlement request rejected", fields...)
		return
	}
	c.logger.Error("settlement request failed", fields...)
}
