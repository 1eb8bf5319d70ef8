// Package database owns the primary Postgres pool the ledger and settlement coordinator
// write through.
package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

var (
	poolConnections = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "settlement_db_pool_connections",
			Help: "Primary database pool connections by state",
		},
		[]string{"state"},
	)

	poolAcquireWaits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "settlement_db_pool_empty_acquires_total",
			Help: "Acquires that had to wait for a connection to free up",
		},
	)
)

// PoolConfig sizes the primary pool and bounds the two query classes run against it
type PoolConfig struct {
	URL             string
	ApplicationName string

	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration

	// LookupTimeout bounds health checks and single payment or request reads
	LookupTimeout time.Duration
	// ReportTimeout bounds the reporter's payment scans
	ReportTimeout time.Duration
}

// DefaultPoolConfig returns the production pool settings for url
func DefaultPoolConfig(url string) PoolConfig {
	return PoolConfig{
		URL:             url,
		ApplicationName: "settlement-service",
		MaxConns:        25,
		MinConns:        5,
		MaxConnLifetime: time.Hour,
		MaxConnIdleTime: 30 * time.Minute,
		LookupTimeout:   2 * time.Second,
		ReportTimeout:   15 * time.Second,
	}
}

func (c PoolConfig) parse() (*pgxpool.Config, error) {
	pc, err := pgxpool.ParseConfig(c.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}
	if c.MaxConns > 0 {
		pc.MaxConns = c.MaxConns
	}
	if c.MinConns > 0 {
		pc.MinConns = c.MinConns
	}
	if c.MinConns > 0 && c.MaxConns > 0 && c.MinConns > c.MaxConns {
		return nil, fmt.Errorf("min conns %d exceeds max conns %d", c.MinConns, c.MaxConns)
	}
	if c.MaxConnLifetime > 0 {
		pc.MaxConnLifetime = c.MaxConnLifetime
	}
	if c.MaxConnIdleTime > 0 {
		pc.MaxConnIdleTime = c.MaxConnIdleTime
	}
	if c.ApplicationName != "" {
		pc.ConnConfig.RuntimeParams["application_name"] = c.ApplicationName
	}
	return pc, nil
}

// Primary is the pool shared by the ledger, the coordinator and, without a replica, the reporter
type Primary struct {
	pool   *pgxpool.Pool
	cfg    PoolConfig
	logger *zap.Logger
}

// Open connects the primary pool and verifies it with a ping
func Open(ctx context.Context, cfg PoolConfig, logger *zap.Logger) (*Primary, error) {
	pc, err := cfg.parse()
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, pc)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("Primary database connected",
		zap.String("database", pc.ConnConfig.Database),
		zap.String("host", pc.ConnConfig.Host),
		zap.Int32("max_conns", pc.MaxConns),
		zap.Duration("report_timeout", cfg.ReportTimeout),
	)

	return &Primary{pool: pool, cfg: cfg, logger: logger}, nil
}

// Pool returns the pgx pool the postgres store runs on
func (p *Primary) Pool() *pgxpool.Pool {
	return p.pool
}

// Close releases every pooled connection
func (p *Primary) Close() {
	p.logger.Info("Closing primary database pool")
	p.pool.Close()
}

// Ping checks the primary within the lookup timeout
func (p *Primary) Ping(ctx context.Context) error {
	ctx, cancel := p.LookupContext(ctx)
	defer cancel()
	return p.pool.Ping(ctx)
}

// LookupContext bounds a single row read
func (p *Primary) LookupContext(parent context.Context) (context.Context, context.CancelFunc) {
	return withOptionalTimeout(parent, p.cfg.LookupTimeout)
}

// ReportContext bounds a reporting scan
func (p *Primary) ReportContext(parent context.Context) (context.Context, context.CancelFunc) {
	return withOptionalTimeout(parent, p.cfg.ReportTimeout)
}

func withOptionalTimeout(parent context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, d)
}

// Monitor publishes pool gauges every interval until ctx is done and warns when
// settlement claims are about to queue for connections
func (p *Primary) Monitor(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		var lastEmpty int64
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				stat := p.pool.Stat()
				poolConnections.WithLabelValues("acquired").Set(float64(stat.AcquiredConns()))
				poolConnections.WithLabelValues("idle").Set(float64(stat.IdleConns()))
				poolConnections.WithLabelValues("max").Set(float64(stat.MaxConns()))

				empty := stat.EmptyAcquireCount()
				if empty > lastEmpty {
					poolAcquireWaits.Add(float64(empty - lastEmpty))
				}
				lastEmpty = empty

				if pct := utilization(stat.AcquiredConns(), stat.MaxConns()); pct >= saturationWarn {
					p.logger.Warn("Primary database pool near saturation",
						zap.Float64("utilization_percent", pct),
						zap.Int32("acquired", stat.AcquiredConns()),
						zap.Int32("max", stat.MaxConns()),
					)
				}
			}
		}
	}()
}

const saturationWarn = 80.0

func utilization(acquired, limit int32) float64 {
	if limit <= 0 {
		return 0
	}
	return float64(acquired) / float64(limit) * 100
}
