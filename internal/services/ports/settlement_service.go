package ports

//go:generate mockgen -destination=mocks/mock_settlement_service.go -package=mocks -source=settlement_service.go

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kevin07696/settlement-service/internal/domain"
)

// SettleDayResult summarizes a scheduled settlement run
type SettleDayResult struct {
	Date     string
	Created  []*domain.SettlementRequest
	Skipped  int
	Failures map[string]string // vendor id -> error
}

// SettlementService defines the port for settlement bucket and request operations
type SettlementService interface {
	// ComputeBucket partitions a vendor's completed payments of one calendar date
	ComputeBucket(ctx context.Context, vendorID string, date time.Time) (*domain.DailySettlementBucket, error)

	// RequestUrgentSettlement claims the pending slice of (vendor, date). requestedAmount must
	// equal the current pending amount.
	RequestUrgentSettlement(ctx context.Context, vendorID string, date time.Time, requestedAmount decimal.Decimal) (*domain.SettlementRequest, error)

	// RequestSettlement claims the pending slice with an explicit request type
	RequestSettlement(ctx context.Context, vendorID string, date time.Time, requestedAmount decimal.Decimal, requestType domain.SettlementRequestType) (*domain.SettlementRequest, error)

	// StartSettlementProcessing moves a pending request to processing
	StartSettlementProcessing(ctx context.Context, requestID string) (*domain.SettlementRequest, error)

	// CompleteSettlement settles a processing request and its claimed payments
	CompleteSettlement(ctx context.Context, requestID string) (*domain.SettlementRequest, error)

	// FailSettlement releases the claimed payments. No-op on settled or failed requests.
	FailSettlement(ctx context.Context, requestID, reason string) (*domain.SettlementRequest, error)

	GetSettlementRequest(ctx context.Context, requestID string) (*domain.SettlementRequest, error)

	// ListSettlementRequests returns every request for a vendor's transaction date, any status
	ListSettlementRequests(ctx context.Context, vendorID string, date time.Time) ([]*domain.SettlementRequest, error)

	// SettleDay creates normal settlement requests for every vendor with a pending balance on date
	SettleDay(ctx context.Context, date time.Time) (*SettleDayResult, error)
}
