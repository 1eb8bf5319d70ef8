package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kevin07696/settlement-service/internal/domain"
	"github.com/kevin07696/settlement-service/internal/domain/ports"
)

var day = time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)

func completedPayment(id, vendor string, amount int64, completedAt time.Time) *domain.Payment {
	a, _ := domain.NewAmount(decimal.NewFromInt(amount), decimal.Zero, decimal.Zero, "INR")
	c := completedAt
	return &domain.Payment{
		ID:         id,
		VendorID:   vendor,
		Amount:     a,
		NetAmount:  a.FinalAmount,
		Status:     domain.PaymentStatusCompleted,
		Timestamps: domain.PaymentTimestamps{Initiated: completedAt.Add(-time.Minute), Completed: &c},
		Settlement: domain.UnclaimedTag(),
	}
}

func TestStore_InsertAndGet(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	q := s.Queries()

	p := completedPayment("p1", "v1", 100, day.Add(time.Hour))
	p.IdempotencyKey = "idem-1"
	require.NoError(t, q.InsertPayment(ctx, p))

	got, err := q.GetPayment(ctx, "p1")
	require.NoError(t, err)
	assert.True(t, got.NetAmount.Equal(decimal.NewFromInt(100)))

	got.Status = domain.PaymentStatusRefunded
	again, err := q.GetPayment(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusCompleted, again.Status, "callers must not alias stored state")

	byKey, err := q.GetPaymentByIdempotencyKey(ctx, "idem-1")
	require.NoError(t, err)
	assert.Equal(t, "p1", byKey.ID)

	dup := completedPayment("p2", "v1", 50, day)
	dup.IdempotencyKey = "idem-1"
	assert.ErrorIs(t, q.InsertPayment(ctx, dup), domain.ErrIdempotencyConflict)

	_, err = q.GetPayment(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrPaymentNotFound)
}

func TestStore_UpdatePayment_VersionCheck(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	q := s.Queries()
	require.NoError(t, q.InsertPayment(ctx, completedPayment("p1", "v1", 100, day)))

	first, _ := q.GetPayment(ctx, "p1")
	second, _ := q.GetPayment(ctx, "p1")

	first.TransactionDetails = map[string]string{"gateway_txn_id": "a"}
	require.NoError(t, q.UpdatePayment(ctx, first))
	assert.Equal(t, int64(1), first.Version)

	second.TransactionDetails = map[string]string{"gateway_txn_id": "b"}
	assert.ErrorIs(t, q.UpdatePayment(ctx, second), domain.ErrConcurrentUpdate)
}

func TestStore_UpdatePayment_PreservesSettlementTag(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	q := s.Queries()
	require.NoError(t, q.InsertPayment(ctx, completedPayment("p1", "v1", 100, day)))

	stale, _ := q.GetPayment(ctx, "p1")
	n, err := q.ClaimPayments(ctx, "req-1", []string{"p1"})
	require.NoError(t, err)
	require.Equal(t, int64(1), n)

	require.NoError(t, q.UpdatePayment(ctx, stale))
	got, _ := q.GetPayment(ctx, "p1")
	assert.Equal(t, domain.ClaimedTag("req-1"), got.Settlement)
}

func TestStore_WithTx_RollsBackOnError(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	require.NoError(t, s.Queries().InsertPayment(ctx, completedPayment("p1", "v1", 100, day)))

	boom := errors.New("boom")
	err := s.WithTx(ctx, func(ctx context.Context, q ports.Querier) error {
		if _, err := q.ClaimPayments(ctx, "req-1", []string{"p1"}); err != nil {
			return err
		}
		if err := q.InsertSettlementRequest(ctx, &domain.SettlementRequest{ID: "req-1"}); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, _ := s.Queries().GetPayment(ctx, "p1")
	assert.True(t, got.Settlement.IsNone())
	_, err = s.Queries().GetSettlementRequest(ctx, "req-1")
	assert.ErrorIs(t, err, domain.ErrSettlementNotFound)
}

func TestStore_ClaimReleaseSettle(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	q := s.Queries()
	for _, p := range []*domain.Payment{
		completedPayment("p1", "v1", 100, day),
		completedPayment("p2", "v1", 200, day),
	} {
		require.NoError(t, q.InsertPayment(ctx, p))
	}

	n, err := q.ClaimPayments(ctx, "req-1", []string{"p1", "p2"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	n, err = q.ClaimPayments(ctx, "req-2", []string{"p1", "p2"})
	require.NoError(t, err)
	assert.Equal(t, int64(0), n, "claimed payments cannot be claimed again")

	n, err = q.ReleasePayments(ctx, "req-1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	n, err = q.ClaimPayments(ctx, "req-2", []string{"p1"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = q.MarkPaymentsSettled(ctx, "req-2")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	got, _ := q.GetPayment(ctx, "p1")
	assert.Equal(t, domain.SettledTag("req-2"), got.Settlement)
}

func TestStore_ClaimPayments_FailedRequestTagIsClaimable(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	q := s.Queries()
	require.NoError(t, q.InsertPayment(ctx, completedPayment("p1", "v1", 100, day)))
	require.NoError(t, q.InsertPayment(ctx, completedPayment("p2", "v1", 200, day)))

	for _, r := range []*domain.SettlementRequest{
		{ID: "req-failed", VendorID: "v1", TransactionDate: day, Status: domain.SettlementStatusPending},
		{ID: "req-live", VendorID: "v1", TransactionDate: day, Status: domain.SettlementStatusPending},
	} {
		require.NoError(t, q.InsertSettlementRequest(ctx, r))
	}
	_, err := q.ClaimPayments(ctx, "req-failed", []string{"p1"})
	require.NoError(t, err)
	_, err = q.ClaimPayments(ctx, "req-live", []string{"p2"})
	require.NoError(t, err)

	// failed without releasing its claim
	failed, err := q.GetSettlementRequest(ctx, "req-failed")
	require.NoError(t, err)
	failed.Status = domain.SettlementStatusFailed
	require.NoError(t, q.UpdateSettlementRequest(ctx, failed))

	n, err := q.ClaimPayments(ctx, "req-new", []string{"p1", "p2"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n, "only the payment held by the failed request moves")

	p1, _ := q.GetPayment(ctx, "p1")
	assert.Equal(t, domain.ClaimedTag("req-new"), p1.Settlement)
	p2, _ := q.GetPayment(ctx, "p2")
	assert.Equal(t, domain.ClaimedTag("req-live"), p2.Settlement)
}

func TestStore_SettlementCursor(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	q := s.Queries()

	v, err := q.ReadSettlementCursor(ctx, "v1", day)
	require.NoError(t, err)
	assert.Equal(t, int64(0), v)

	require.NoError(t, q.AdvanceSettlementCursor(ctx, "v1", day, 0))
	assert.ErrorIs(t, q.AdvanceSettlementCursor(ctx, "v1", day, 0), domain.ErrConcurrentClaim)

	other, err := q.ReadSettlementCursor(ctx, "v1", day.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Equal(t, int64(0), other)
}

func TestStore_ListCompletedPayments(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	q := s.Queries()
	require.NoError(t, q.InsertPayment(ctx, completedPayment("late", "v1", 100, day.Add(23*time.Hour))))
	require.NoError(t, q.InsertPayment(ctx, completedPayment("early", "v1", 100, day.Add(time.Hour))))
	require.NoError(t, q.InsertPayment(ctx, completedPayment("next-day", "v1", 100, day.AddDate(0, 0, 1))))
	require.NoError(t, q.InsertPayment(ctx, completedPayment("other-vendor", "v2", 100, day.Add(time.Hour))))

	got, err := q.ListCompletedPayments(ctx, "v1", day, day.AddDate(0, 0, 1))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "early", got[0].ID)
	assert.Equal(t, "late", got[1].ID)

	vendors, err := q.ListVendorsWithCompletedPayments(ctx, day, day.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Equal(t, []string{"v1", "v2"}, vendors)
}

func TestStore_ScanPayments_Filter(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	q := s.Queries()
	require.NoError(t, q.InsertPayment(ctx, completedPayment("p1", "v1", 100, day.Add(time.Hour))))
	pending := &domain.Payment{
		ID:         "p2",
		VendorID:   "v1",
		Status:     domain.PaymentStatusPending,
		Timestamps: domain.PaymentTimestamps{Initiated: day.Add(2 * time.Hour)},
	}
	require.NoError(t, q.InsertPayment(ctx, pending))

	var ids []string
	collect := func(p *domain.Payment) error {
		ids = append(ids, p.ID)
		return nil
	}

	require.NoError(t, q.ScanPayments(ctx, ports.PaymentFilter{From: day, To: day.AddDate(0, 0, 1)}, collect))
	assert.Equal(t, []string{"p1"}, ids, "completed basis skips payments that never completed")

	ids = nil
	require.NoError(t, q.ScanPayments(ctx, ports.PaymentFilter{
		From:  day,
		To:    day.AddDate(0, 0, 1),
		Basis: ports.TimeBasisInitiated,
	}, collect))
	assert.ElementsMatch(t, []string{"p1", "p2"}, ids)

	ids = nil
	require.NoError(t, q.ScanPayments(ctx, ports.PaymentFilter{
		Statuses: []domain.PaymentStatus{domain.PaymentStatusPending},
	}, collect))
	assert.Equal(t, []string{"p2"}, ids)
}

func TestStore_ConcurrentTransactionsSerialize(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.WithTx(ctx, func(ctx context.Context, q ports.Querier) error {
				v, err := q.ReadSettlementCursor(ctx, "v1", day)
				if err != nil {
					return err
				}
				return q.AdvanceSettlementCursor(ctx, "v1", day, v)
			})
		}()
	}
	wg.Wait()

	v, err := s.Queries().ReadSettlementCursor(ctx, "v1", day)
	require.NoError(t, err)
	assert.Equal(t, int64(50), v)
}
