package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/kevin07696/settlement-service/internal/adapters/database"
	"github.com/kevin07696/settlement-service/internal/domain"
	"github.com/kevin07696/settlement-service/internal/domain/ports"
)

// Queries implements ports.Querier against a pool or a transaction
type Queries struct {
	db database.DBTX
}

var _ ports.Querier = (*Queries)(nil)

const paymentColumns = `id, booking_id, user_id, vendor_id, station_id,
	base_amount, tax_amount, discount_amount, final_amount, currency,
	payment_method, transaction_details, status,
	initiated_at, processed_at, completed_at, failed_at, cancelled_at,
	refunds, total_refunded, net_amount,
	settlement_state, settlement_request_id, idempotency_key,
	version, created_at, updated_at`

func paymentNotFound(id string) *domain.DomainError {
	return domain.NewDomainError(domain.ErrorCodePaymentNotFound, "payment not found").
		WithDetail("payment_id", id)
}

func scanPayment(row pgx.Row) (*domain.Payment, error) {
	var (
		p                                         domain.Payment
		base, tax, discount, final, refunded, net pgtype.Numeric
		method, details, refunds                  []byte
		status, state                             string
		requestID, idempotencyKey                 pgtype.Text
	)
	err := row.Scan(
		&p.ID, &p.BookingID, &p.UserID, &p.VendorID, &p.StationID,
		&base, &tax, &discount, &final, &p.Amount.Currency,
		&method, &details, &status,
		&p.Timestamps.Initiated, &p.Timestamps.Processed, &p.Timestamps.Completed,
		&p.Timestamps.Failed, &p.Timestamps.Cancelled,
		&refunds, &refunded, &net,
		&state, &requestID, &idempotencyKey,
		&p.Version, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := numericsToDecimals(
		[]*decimal.Decimal{&p.Amount.BaseAmount, &p.Amount.TaxAmount, &p.Amount.DiscountAmount, &p.Amount.FinalAmount, &p.TotalRefunded, &p.NetAmount},
		[]pgtype.Numeric{base, tax, discount, final, refunded, net},
	); err != nil {
		return nil, fmt.Errorf("payment %s: %w", p.ID, err)
	}
	if err := json.Unmarshal(method, &p.Method); err != nil {
		return nil, fmt.Errorf("payment %s: decode payment_method: %w", p.ID, err)
	}
	if err := json.Unmarshal(details, &p.TransactionDetails); err != nil {
		return nil, fmt.Errorf("payment %s: decode transaction_details: %w", p.ID, err)
	}
	if err := json.Unmarshal(refunds, &p.Refunds); err != nil {
		return nil, fmt.Errorf("payment %s: decode refunds: %w", p.ID, err)
	}

	p.Status = domain.PaymentStatus(status)
	p.Settlement = domain.SettlementTag{State: domain.SettlementTagState(state), RequestID: requestID.String}
	p.IdempotencyKey = idempotencyKey.String
	return &p, nil
}

func collectPayments(rows pgx.Rows) ([]*domain.Payment, error) {
	defer rows.Close()
	var out []*domain.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, mapError(rows.Err())
}

func (q *Queries) InsertPayment(ctx context.Context, p *domain.Payment) error {
	method, err := jsonb(p.Method)
	if err != nil {
		return err
	}
	details := p.TransactionDetails
	if details == nil {
		details = map[string]string{}
	}
	detailsJSON, err := jsonb(details)
	if err != nil {
		return err
	}
	refunds := p.Refunds
	if refunds == nil {
		refunds = []domain.Refund{}
	}
	refundsJSON, err := jsonb(refunds)
	if err != nil {
		return err
	}
	state := p.Settlement.State
	if p.Settlement.IsNone() {
		state = domain.SettlementTagNone
	}

	_, err = q.db.Exec(ctx, `
		INSERT INTO payments (`+paymentColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18,
			$19, $20, $21, $22, $23, $24, $25, $26, $27)`,
		p.ID, p.BookingID, p.UserID, p.VendorID, p.StationID,
		toNumeric(p.Amount.BaseAmount), toNumeric(p.Amount.TaxAmount), toNumeric(p.Amount.DiscountAmount),
		toNumeric(p.Amount.FinalAmount), p.Amount.Currency,
		method, detailsJSON, string(p.Status),
		p.Timestamps.Initiated, p.Timestamps.Processed, p.Timestamps.Completed,
		p.Timestamps.Failed, p.Timestamps.Cancelled,
		refundsJSON, toNumeric(p.TotalRefunded), toNumeric(p.NetAmount),
		string(state), nullText(p.Settlement.RequestID), nullText(p.IdempotencyKey),
		p.Version, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return mapError(err)
	}
	return nil
}

func (q *Queries) GetPayment(ctx context.Context, id string) (*domain.Payment, error) {
	p, err := scanPayment(q.db.QueryRow(ctx, `SELECT `+paymentColumns+` FROM payments WHERE id = $1`, id))
	if err != nil {
		return nil, mapError(err, paymentNotFound(id))
	}
	return p, nil
}

func (q *Queries) GetPaymentForUpdate(ctx context.Context, id string) (*domain.Payment, error) {
	p, err := scanPayment(q.db.QueryRow(ctx, `SELECT `+paymentColumns+` FROM payments WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return nil, mapError(err, paymentNotFound(id))
	}
	return p, nil
}

func (q *Queries) GetPaymentByIdempotencyKey(ctx context.Context, key string) (*domain.Payment, error) {
	p, err := scanPayment(q.db.QueryRow(ctx, `SELECT `+paymentColumns+` FROM payments WHERE idempotency_key = $1`, key))
	if err != nil {
		return nil, mapError(err, domain.NewDomainError(domain.ErrorCodePaymentNotFound, "payment not found").
			WithDetail("idempotency_key", key))
	}
	return p, nil
}

// UpdatePayment never touches the settlement columns; those move only through
// the claim, release and settle statements.
func (q *Queries) UpdatePayment(ctx context.Context, p *domain.Payment) error {
	details := p.TransactionDetails
	if details == nil {
		details = map[string]string{}
	}
	detailsJSON, err := jsonb(details)
	if err != nil {
		return err
	}
	refunds := p.Refunds
	if refunds == nil {
		refunds = []domain.Refund{}
	}
	refundsJSON, err := jsonb(refunds)
	if err != nil {
		return err
	}

	tag, err := q.db.Exec(ctx, `
		UPDATE payments SET
			status = $3,
			processed_at = $4,
			completed_at = $5,
			failed_at = $6,
			cancelled_at = $7,
			transaction_details = $8,
			refunds = $9,
			total_refunded = $10,
			net_amount = $11,
			updated_at = $12,
			version = version + 1
		WHERE id = $1 AND version = $2`,
		p.ID, p.Version, string(p.Status),
		p.Timestamps.Processed, p.Timestamps.Completed, p.Timestamps.Failed, p.Timestamps.Cancelled,
		detailsJSON, refundsJSON, toNumeric(p.TotalRefunded), toNumeric(p.NetAmount), p.UpdatedAt,
	)
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NewDomainError(domain.ErrorCodeConcurrentUpdate, "payment was modified concurrently").
			WithDetail("payment_id", p.ID).
			WithDetail("expected_version", p.Version)
	}
	p.Version++
	return nil
}

func (q *Queries) ListCompletedPayments(ctx context.Context, vendorID string, from, to time.Time) ([]*domain.Payment, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+paymentColumns+` FROM payments
		WHERE vendor_id = $1 AND completed_at >= $2 AND completed_at < $3
		ORDER BY completed_at, id`,
		vendorID, from, to)
	if err != nil {
		return nil, mapError(err)
	}
	return collectPayments(rows)
}

func (q *Queries) ScanPayments(ctx context.Context, filter ports.PaymentFilter, fn func(*domain.Payment) error) error {
	query, args := buildScanQuery(filter)
	rows, err := q.db.Query(ctx, query, args...)
	if err != nil {
		return mapError(err)
	}
	defer rows.Close()

	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return err
		}
		if err := fn(p); err != nil {
			return err
		}
	}
	return mapError(rows.Err())
}

// buildScanQuery renders the filter into a parameterised SELECT
func buildScanQuery(filter ports.PaymentFilter) (string, []any) {
	column := "completed_at"
	if filter.Basis == ports.TimeBasisInitiated {
		column = "initiated_at"
	}

	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.VendorID != "" {
		where = append(where, "vendor_id = "+arg(filter.VendorID))
	}
	if len(filter.Statuses) > 0 {
		statuses := make([]string, len(filter.Statuses))
		for i, s := range filter.Statuses {
			statuses[i] = string(s)
		}
		where = append(where, "status = ANY("+arg(statuses)+")")
	}
	if !filter.From.IsZero() {
		where = append(where, column+" >= "+arg(filter.From))
	}
	if !filter.To.IsZero() {
		where = append(where, column+" < "+arg(filter.To))
	}

	query := `SELECT ` + paymentColumns + ` FROM payments`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY " + column + " NULLS LAST, id"
	return query, args
}

func (q *Queries) ListVendorsWithCompletedPayments(ctx context.Context, from, to time.Time) ([]string, error) {
	rows, err := q.db.Query(ctx, `
		SELECT DISTINCT vendor_id FROM payments
		WHERE completed_at >= $1 AND completed_at < $2
		ORDER BY vendor_id`,
		from, to)
	if err != nil {
		return nil, mapError(err)
	}
	vendors, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, mapError(err)
	}
	return vendors, nil
}

func (q *Queries) ClaimPayments(ctx context.Context, requestID string, paymentIDs []string) (int64, error) {
	if len(paymentIDs) == 0 {
		return 0, nil
	}
	tag, err := q.db.Exec(ctx, `
		UPDATE payments
		SET settlement_state = 'claimed', settlement_request_id = $1, updated_at = NOW()
		WHERE id = ANY($2)
		  AND (settlement_state = 'none'
		       OR (settlement_state = 'claimed' AND EXISTS (
		           SELECT 1 FROM settlement_requests r
		           WHERE r.id = payments.settlement_request_id AND r.status = 'failed')))`,
		requestID, paymentIDs)
	if err != nil {
		return 0, mapError(err)
	}
	return tag.RowsAffected(), nil
}

func (q *Queries) ReleasePayments(ctx context.Context, requestID string) (int64, error) {
	tag, err := q.db.Exec(ctx, `
		UPDATE payments
		SET settlement_state = 'none', settlement_request_id = NULL, updated_at = NOW()
		WHERE settlement_request_id = $1 AND settlement_state = 'claimed'`,
		requestID)
	if err != nil {
		return 0, mapError(err)
	}
	return tag.RowsAffected(), nil
}

func (q *Queries) MarkPaymentsSettled(ctx context.Context, requestID string) (int64, error) {
	tag, err := q.db.Exec(ctx, `
		UPDATE payments
		SET settlement_state = 'settled', updated_at = NOW()
		WHERE settlement_request_id = $1 AND settlement_state = 'claimed'`,
		requestID)
	if err != nil {
		return 0, mapError(err)
	}
	return tag.RowsAffected(), nil
}
