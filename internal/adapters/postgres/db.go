// Package postgres implements ports.Store on PostgreSQL with pgx.
//
// Units of work run at SERIALIZABLE isolation. Serialization failures and deadlocks
// surface as domain.ErrConcurrentUpdate so callers can retry the whole unit.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/kevin07696/settlement-service/internal/domain"
	"github.com/kevin07696/settlement-service/internal/domain/ports"
)

// Store implements ports.Store over a pgx pool
type Store struct {
	pool          *pgxpool.Pool
	logger        *zap.Logger
	reportContext func(context.Context) (context.Context, context.CancelFunc)
}

var _ ports.Store = (*Store)(nil)

// StoreOption configures a Store
type StoreOption func(*Store)

// WithReportContext bounds every report scan with the context fn derives, typically
// (*database.PostgreSQLAdapter).ReportQueryContext
func WithReportContext(fn func(context.Context) (context.Context, context.CancelFunc)) StoreOption {
	return func(s *Store) {
		s.reportContext = fn
	}
}

// NewStore creates a PostgreSQL store
func NewStore(pool *pgxpool.Pool, logger *zap.Logger, opts ...StoreOption) *Store {
	s := &Store{pool: pool, logger: logger}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Queries returns a Querier that autocommits each statement
func (s *Store) Queries() ports.Querier {
	return &Queries{db: s.pool}
}

// WithTx executes fn within a SERIALIZABLE transaction.
// Transaction is explicitly passed to the callback through the Querier.
func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context, q ports.Querier) error) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return mapError(fmt.Errorf("begin transaction: %w", err))
	}

	// Ensure rollback on panic or error
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		}
	}()

	if err := fn(ctx, &Queries{db: tx}); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			s.logger.Error("Failed to rollback transaction",
				zap.Error(rbErr),
				zap.NamedError("original_error", err))
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return mapError(fmt.Errorf("commit transaction: %w", err))
	}
	return nil
}

// ReportSource returns a ports.ReportSource whose scans read one consistent snapshot
func (s *Store) ReportSource() ports.ReportSource {
	return readOnlySource{store: s}
}

// WithReadOnlyTransaction executes fn within a REPEATABLE READ, read-only transaction.
// Provides consistent reads across multiple queries.
func (s *Store) WithReadOnlyTransaction(ctx context.Context, fn func(ctx context.Context, q ports.Querier) error) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{
		IsoLevel:   pgx.RepeatableRead,
		AccessMode: pgx.ReadOnly,
	})
	if err != nil {
		return mapError(fmt.Errorf("begin read-only transaction: %w", err))
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		}
	}()

	if err := fn(ctx, &Queries{db: tx}); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}

	// Commit read-only transaction (releases snapshot)
	if err := tx.Commit(ctx); err != nil {
		return mapError(fmt.Errorf("commit read-only transaction: %w", err))
	}
	return nil
}

type readOnlySource struct {
	store *Store
}

func (r readOnlySource) ScanPayments(ctx context.Context, filter ports.PaymentFilter, fn func(*domain.Payment) error) error {
	if r.store.reportContext != nil {
		var cancel context.CancelFunc
		ctx, cancel = r.store.reportContext(ctx)
		defer cancel()
	}
	return r.store.WithReadOnlyTransaction(ctx, func(ctx context.Context, q ports.Querier) error {
		return q.ScanPayments(ctx, filter, fn)
	})
}
