package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/kevin07696/settlement-service/internal/domain"
)

const settlementColumns = `id, vendor_id, transaction_date, requested_at, request_type,
	claimed_payment_ids, claimed_amount, currency, status, processed_at, failure_reason, updated_at`

func settlementNotFound(id string) *domain.DomainError {
	return domain.NewDomainError(domain.ErrorCodeSettlementNotFound, "settlement request not found").
		WithDetail("request_id", id)
}

func scanSettlementRequest(row pgx.Row) (*domain.SettlementRequest, error) {
	var (
		r             domain.SettlementRequest
		requestType   string
		status        string
		amount        pgtype.Numeric
		failureReason pgtype.Text
		date          pgtype.Date
	)
	err := row.Scan(
		&r.ID, &r.VendorID, &date, &r.RequestedAt, &requestType,
		&r.ClaimedPaymentIDs, &amount, &r.Currency, &status, &r.ProcessedAt, &failureReason, &r.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if r.ClaimedAmount, err = pgNumericToDecimal(amount); err != nil {
		return nil, err
	}
	r.TransactionDate = time.Date(date.Time.Year(), date.Time.Month(), date.Time.Day(), 0, 0, 0, 0, time.UTC)
	r.Type = domain.SettlementRequestType(requestType)
	r.Status = domain.SettlementStatus(status)
	r.FailureReason = failureReason.String
	return &r, nil
}

func dateParam(t time.Time) pgtype.Date {
	return pgtype.Date{Time: time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), Valid: true}
}

func (q *Queries) InsertSettlementRequest(ctx context.Context, r *domain.SettlementRequest) error {
	ids := r.ClaimedPaymentIDs
	if ids == nil {
		ids = []string{}
	}
	_, err := q.db.Exec(ctx, `
		INSERT INTO settlement_requests (`+settlementColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		r.ID, r.VendorID, dateParam(r.TransactionDate), r.RequestedAt, string(r.Type),
		ids, toNumeric(r.ClaimedAmount), r.Currency, string(r.Status), r.ProcessedAt,
		nullText(r.FailureReason), r.UpdatedAt,
	)
	return mapError(err)
}

func (q *Queries) GetSettlementRequest(ctx context.Context, id string) (*domain.SettlementRequest, error) {
	r, err := scanSettlementRequest(q.db.QueryRow(ctx,
		`SELECT `+settlementColumns+` FROM settlement_requests WHERE id = $1`, id))
	if err != nil {
		return nil, mapError(err, settlementNotFound(id))
	}
	return r, nil
}

func (q *Queries) GetSettlementRequestForUpdate(ctx context.Context, id string) (*domain.SettlementRequest, error) {
	r, err := scanSettlementRequest(q.db.QueryRow(ctx,
		`SELECT `+settlementColumns+` FROM settlement_requests WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return nil, mapError(err, settlementNotFound(id))
	}
	return r, nil
}

func (q *Queries) UpdateSettlementRequest(ctx context.Context, r *domain.SettlementRequest) error {
	tag, err := q.db.Exec(ctx, `
		UPDATE settlement_requests
		SET status = $2, processed_at = $3, failure_reason = $4, updated_at = $5
		WHERE id = $1`,
		r.ID, string(r.Status), r.ProcessedAt, nullText(r.FailureReason), r.UpdatedAt,
	)
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return settlementNotFound(r.ID)
	}
	return nil
}

func (q *Queries) ListSettlementRequests(ctx context.Context, vendorID string, date time.Time) ([]*domain.SettlementRequest, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+settlementColumns+` FROM settlement_requests
		WHERE vendor_id = $1 AND transaction_date = $2
		ORDER BY requested_at, id`,
		vendorID, dateParam(date))
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var out []*domain.SettlementRequest
	for rows.Next() {
		r, err := scanSettlementRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, mapError(rows.Err())
}

// ReadSettlementCursor upserts the cursor row so the read takes part in serializable
// conflict detection even for a bucket that has never been claimed
func (q *Queries) ReadSettlementCursor(ctx context.Context, vendorID string, date time.Time) (int64, error) {
	var version int64
	err := q.db.QueryRow(ctx, `
		INSERT INTO settlement_cursors (vendor_id, transaction_date)
		VALUES ($1, $2)
		ON CONFLICT (vendor_id, transaction_date) DO UPDATE SET version = settlement_cursors.version
		RETURNING version`,
		vendorID, dateParam(date)).Scan(&version)
	if err != nil {
		return 0, mapError(err)
	}
	return version, nil
}

func (q *Queries) AdvanceSettlementCursor(ctx context.Context, vendorID string, date time.Time, expected int64) error {
	tag, err := q.db.Exec(ctx, `
		UPDATE settlement_cursors
		SET version = version + 1, updated_at = NOW()
		WHERE vendor_id = $1 AND transaction_date = $2 AND version = $3`,
		vendorID, dateParam(date), expected)
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NewDomainError(domain.ErrorCodeConcurrentClaim, "settlement cursor moved").
			WithDetail("vendor_id", vendorID).
			WithDetail("expected_version", expected)
	}
	return nil
}
