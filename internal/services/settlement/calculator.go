package settlement

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kevin07696/settlement-service/internal/domain"
	"github.com/kevin07696/settlement-service/internal/domain/ports"
	"github.com/kevin07696/settlement-service/pkg/timeutil"
)

// Calculator projects a vendor's completed payments of one calendar date into settled,
// in-process and pending slices. It never writes.
type Calculator struct {
	loc *time.Location
}

// NewCalculator creates a calculator whose calendar days are cut in loc (UTC when nil)
func NewCalculator(loc *time.Location) *Calculator {
	if loc == nil {
		loc = time.UTC
	}
	return &Calculator{loc: loc}
}

// Location returns the zone calendar days are cut in
func (c *Calculator) Location() *time.Location {
	return c.loc
}

// Compute builds the bucket for (vendorID, date) from q. The bucket key is the date the
// payments completed on, never the date of later settlement activity.
func (c *Calculator) Compute(ctx context.Context, q ports.Querier, vendorID string, date time.Time) (*domain.DailySettlementBucket, error) {
	from, to := timeutil.DateBounds(date, c.loc)

	payments, err := q.ListCompletedPayments(ctx, vendorID, from, to)
	if err != nil {
		return nil, err
	}

	bucket := &domain.DailySettlementBucket{
		VendorID:            vendorID,
		Date:                timeutil.DateKey(date).Format(timeutil.DateLayout),
		TotalToBeReceived:   decimal.Zero,
		PaymentSettled:      decimal.Zero,
		InSettlementProcess: decimal.Zero,
		PendingSettlement:   decimal.Zero,
		PendingPaymentIDs:   []string{},
	}

	requests := make(map[string]domain.SettlementStatus)
	for _, p := range payments {
		if bucket.Currency == "" {
			bucket.Currency = p.Amount.Currency
		}
		bucket.PaymentCount++
		bucket.TotalToBeReceived = bucket.TotalToBeReceived.Add(p.NetAmount)

		switch p.Settlement.State {
		case domain.SettlementTagSettled:
			bucket.PaymentSettled = bucket.PaymentSettled.Add(p.NetAmount)

		case domain.SettlementTagClaimed:
			status, err := c.requestStatus(ctx, q, requests, p.Settlement.RequestID)
			if err != nil {
				return nil, err
			}
			switch {
			case status == domain.SettlementStatusSettled:
				bucket.PaymentSettled = bucket.PaymentSettled.Add(p.NetAmount)
			case status == domain.SettlementStatusFailed:
				// FailSettlement releases its claims, so this tag only survives a manual
				// repair. The payment is claimable again.
				bucket.PendingSettlement = bucket.PendingSettlement.Add(p.NetAmount)
				if p.NetAmount.IsPositive() {
					bucket.PendingPaymentIDs = append(bucket.PendingPaymentIDs, p.ID)
				}
			default:
				bucket.InSettlementProcess = bucket.InSettlementProcess.Add(p.NetAmount)
			}

		default:
			bucket.PendingSettlement = bucket.PendingSettlement.Add(p.NetAmount)
			if p.NetAmount.IsPositive() {
				bucket.PendingPaymentIDs = append(bucket.PendingPaymentIDs, p.ID)
			}
		}
	}

	return bucket, nil
}

// requestStatus resolves a claim's request status once per request. A claim pointing at a
// request that cannot be found is treated as in flight so it is never claimed twice.
func (c *Calculator) requestStatus(ctx context.Context, q ports.Querier, cache map[string]domain.SettlementStatus, requestID string) (domain.SettlementStatus, error) {
	if status, ok := cache[requestID]; ok {
		return status, nil
	}
	r, err := q.GetSettlementRequest(ctx, requestID)
	switch {
	case err == nil:
		cache[requestID] = r.Status
	case domain.IsNotFoundError(err):
		cache[requestID] = domain.SettlementStatusPending
	default:
		return "", err
	}
	return cache[requestID], nil
}
