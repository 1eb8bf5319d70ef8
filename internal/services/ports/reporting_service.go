package ports

//go:generate mockgen -destination=mocks/mock_reporting_service.go -package=mocks -source=reporting_service.go

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kevin07696/settlement-service/internal/domain"
	domainports "github.com/kevin07696/settlement-service/internal/domain/ports"
)

// StatsQuery selects the payments a dashboard rollup covers
type StatsQuery struct {
	From     time.Time
	To       time.Time
	Statuses []domain.PaymentStatus
	VendorID string
	Basis    domainports.TimeBasis
}

// Stats is a rollup over final amounts and processed refunds
type Stats struct {
	Count         int64           `json:"count"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	TotalRefunded decimal.Decimal `json:"total_refunded"`
	AvgAmount     decimal.Decimal `json:"avg_amount"`
}

// ReportingService defines the port for read-only dashboard aggregates
type ReportingService interface {
	Stats(ctx context.Context, q StatsQuery) (*Stats, error)
	StatsByStatus(ctx context.Context, q StatsQuery) (map[domain.PaymentStatus]*Stats, error)
}
