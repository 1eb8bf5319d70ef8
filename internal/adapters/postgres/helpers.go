package postgres

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/kevin07696/settlement-service/internal/domain"
)

// SQLSTATE codes the store reacts to
const (
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
	codeUniqueViolation      = "23505"
	codeCheckViolation       = "23514"
)

// nullText creates a pgtype.Text with empty string handling
func nullText(s string) pgtype.Text {
	if s == "" {
		return pgtype.Text{Valid: false}
	}
	return pgtype.Text{String: s, Valid: true}
}

// toNumeric converts decimal.Decimal to pgtype.Numeric without loss
func toNumeric(d decimal.Decimal) pgtype.Numeric {
	return pgtype.Numeric{Int: d.Coefficient(), Exp: d.Exponent(), Valid: true}
}

// pgNumericToDecimal converts pgtype.Numeric to decimal.Decimal
func pgNumericToDecimal(n pgtype.Numeric) (decimal.Decimal, error) {
	if !n.Valid || n.Int == nil {
		return decimal.Zero, nil
	}
	if n.NaN || n.InfinityModifier != pgtype.Finite {
		return decimal.Zero, fmt.Errorf("numeric is not a finite number")
	}
	return decimal.NewFromBigInt(n.Int, n.Exp), nil
}

// numericsToDecimals converts src[i] into *dst[i]
func numericsToDecimals(dst []*decimal.Decimal, src []pgtype.Numeric) error {
	for i := range src {
		d, err := pgNumericToDecimal(src[i])
		if err != nil {
			return err
		}
		*dst[i] = d
	}
	return nil
}

// jsonb marshals v for a JSONB parameter
func jsonb(v any) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal jsonb: %w", err)
	}
	return b, nil
}

// mapError translates pgx and PostgreSQL errors into domain errors. notFound is
// returned for pgx.ErrNoRows; nil leaves ErrNoRows as a database error.
func mapError(err error, notFound ...*domain.DomainError) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) && len(notFound) > 0 {
		return notFound[0]
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeSerializationFailure, codeDeadlockDetected:
			return domain.WrapError(domain.ErrorCodeConcurrentUpdate, "transaction conflicted with a concurrent write", err)
		case codeUniqueViolation:
			return domain.WrapError(domain.ErrorCodeIdempotencyConflict, "record already exists", err).
				WithDetail("constraint", pgErr.ConstraintName)
		case codeCheckViolation:
			return domain.WrapError(domain.ErrorCodeInvalidState, "write violates a ledger constraint", err).
				WithDetail("constraint", pgErr.ConstraintName)
		}
	}

	var domainErr *domain.DomainError
	if errors.As(err, &domainErr) {
		return err
	}
	return domain.WrapError(domain.ErrorCodeDatabaseError, "database error", err)
}
