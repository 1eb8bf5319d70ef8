// Package replica serves the Aggregation Reporter from a read replica through gorm.
// Production reads a MySQL reporting copy of the payments table; tests use sqlite.
package replica

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/kevin07696/settlement-service/internal/domain"
	"github.com/kevin07696/settlement-service/internal/domain/ports"
)

// Supported drivers
const (
	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite"
)

// PaymentRecord is the replicated reporting row of a payment
type PaymentRecord struct {
	ID            string          `gorm:"primaryKey;size:64"`
	VendorID      string          `gorm:"size:64;index:idx_payment_records_vendor_completed,priority:1"`
	Status        string          `gorm:"size:32;index"`
	Currency      string          `gorm:"size:3"`
	FinalAmount   decimal.Decimal `gorm:"type:decimal(19,4)"`
	TotalRefunded decimal.Decimal `gorm:"type:decimal(19,4)"`
	NetAmount     decimal.Decimal `gorm:"type:decimal(19,4)"`
	InitiatedAt   time.Time       `gorm:"index"`
	CompletedAt   *time.Time      `gorm:"index:idx_payment_records_vendor_completed,priority:2"`
	UpdatedAt     time.Time
}

// TableName pins the replicated table name
func (PaymentRecord) TableName() string {
	return "payment_records"
}

func (r *PaymentRecord) toDomain() *domain.Payment {
	return &domain.Payment{
		ID:       r.ID,
		VendorID: r.VendorID,
		Status:   domain.PaymentStatus(r.Status),
		Amount: domain.Amount{
			BaseAmount:     r.FinalAmount,
			TaxAmount:      decimal.Zero,
			DiscountAmount: decimal.Zero,
			FinalAmount:    r.FinalAmount,
			Currency:       r.Currency,
		},
		TotalRefunded: r.TotalRefunded,
		NetAmount:     r.NetAmount,
		Timestamps:    domain.PaymentTimestamps{Initiated: r.InitiatedAt, Completed: r.CompletedAt},
		UpdatedAt:     r.UpdatedAt,
	}
}

// RecordFromPayment flattens a ledger payment into its replicated row
func RecordFromPayment(p *domain.Payment) *PaymentRecord {
	rec := &PaymentRecord{
		ID:            p.ID,
		VendorID:      p.VendorID,
		Status:        string(p.Status),
		Currency:      p.Amount.Currency,
		FinalAmount:   p.Amount.FinalAmount,
		TotalRefunded: p.TotalRefunded,
		NetAmount:     p.NetAmount,
		InitiatedAt:   p.Timestamps.Initiated.UTC(),
		UpdatedAt:     p.UpdatedAt.UTC(),
	}
	if p.Timestamps.Completed != nil {
		completed := p.Timestamps.Completed.UTC()
		rec.CompletedAt = &completed
	}
	return rec
}

// Source implements ports.ReportSource on gorm
type Source struct {
	db *gorm.DB
}

var _ ports.ReportSource = (*Source)(nil)

// Open connects to the replica. driver is mysql or sqlite.
func Open(driver, dsn string) (*Source, error) {
	var dialector gorm.Dialector
	switch driver {
	case DriverMySQL:
		dialector = mysql.Open(dsn)
	case DriverSQLite:
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported replica driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:  logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open replica: %w", err)
	}
	return NewSource(db), nil
}

// NewSource wraps an open gorm handle
func NewSource(db *gorm.DB) *Source {
	return &Source{db: db}
}

// DB exposes the gorm handle
func (s *Source) DB() *gorm.DB {
	return s.db
}

// Migrate creates or updates the replicated table
func (s *Source) Migrate(ctx context.Context) error {
	return s.db.WithContext(ctx).AutoMigrate(&PaymentRecord{})
}

// Ping checks the replica connection
func (s *Source) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close releases the underlying connection pool
func (s *Source) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// ScanPayments streams matching replicated rows in time order
func (s *Source) ScanPayments(ctx context.Context, filter ports.PaymentFilter, fn func(*domain.Payment) error) error {
	column := "completed_at"
	if filter.Basis == ports.TimeBasisInitiated {
		column = "initiated_at"
	}

	tx := s.db.WithContext(ctx).Model(&PaymentRecord{})
	if filter.VendorID != "" {
		tx = tx.Where("vendor_id = ?", filter.VendorID)
	}
	if len(filter.Statuses) > 0 {
		statuses := make([]string, len(filter.Statuses))
		for i, st := range filter.Statuses {
			statuses[i] = string(st)
		}
		tx = tx.Where("status IN ?", statuses)
	}
	if !filter.From.IsZero() {
		tx = tx.Where(column+" >= ?", filter.From.UTC())
	}
	if !filter.To.IsZero() {
		tx = tx.Where(column+" < ?", filter.To.UTC())
	}

	rows, err := tx.Order(column).Order("id").Rows()
	if err != nil {
		return domain.WrapError(domain.ErrorCodeDatabaseError, "replica scan failed", err)
	}
	defer rows.Close()

	for rows.Next() {
		var rec PaymentRecord
		if err := s.db.ScanRows(rows, &rec); err != nil {
			return domain.WrapError(domain.ErrorCodeDatabaseError, "replica row decode failed", err)
		}
		if err := fn(rec.toDomain()); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return domain.WrapError(domain.ErrorCodeDatabaseError, "replica scan failed", err)
	}
	return nil
}
