package ports

//go:generate mockgen -destination=mocks/mock_ledger_service.go -package=mocks -source=ledger_service.go

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kevin07696/settlement-service/internal/domain"
)

// CreatePaymentRequest contains the booking service's charge attempt
type CreatePaymentRequest struct {
	BookingID          string
	UserID             string
	VendorID           string
	StationID          string
	BaseAmount         decimal.Decimal
	TaxAmount          decimal.Decimal
	DiscountAmount     decimal.Decimal
	Currency           string
	Method             domain.PaymentMethod
	TransactionDetails map[string]string
	IdempotencyKey     string
}

// ApplyRefundRequest contains parameters for requesting a refund
type ApplyRefundRequest struct {
	PaymentID      string
	Amount         decimal.Decimal
	Reason         string
	IdempotencyKey string
}

// GatewayEventType is the kind of confirmation delivered by the payment gateway
type GatewayEventType string

const (
	GatewayEventAuthorized      GatewayEventType = "authorized"
	GatewayEventCaptured        GatewayEventType = "captured"
	GatewayEventFailed          GatewayEventType = "failed"
	GatewayEventCancelled       GatewayEventType = "cancelled"
	GatewayEventRefundProcessed GatewayEventType = "refund_processed"
	GatewayEventRefundFailed    GatewayEventType = "refund_failed"
)

// GatewayEvent is one webhook delivery. The same event may arrive more than once.
type GatewayEvent struct {
	PaymentID       string
	Event           GatewayEventType
	GatewayIDs      map[string]string
	RefundID        string
	RefundReference string
	Amount          *decimal.Decimal // Optional: cross-checked against the ledger when present
	At              time.Time
}

// LedgerService defines the port for payment ledger operations
type LedgerService interface {
	// CreatePayment records a new pending payment. Retrying with the same idempotency key
	// returns the original payment.
	CreatePayment(ctx context.Context, req *CreatePaymentRequest) (*domain.Payment, error)

	// GetPayment returns a payment with its refunds
	GetPayment(ctx context.Context, paymentID string) (*domain.Payment, error)

	// RecordTransition moves a payment along the status table. Re-recording a transition
	// that already happened is a no-op.
	RecordTransition(ctx context.Context, paymentID string, status domain.PaymentStatus, at time.Time) (*domain.Payment, error)

	// ApplyRefund appends a pending refund; the payment status changes once it is processed
	ApplyRefund(ctx context.Context, req *ApplyRefundRequest) (*domain.Refund, error)

	// MarkRefundProcessed settles a pending refund and recomputes the net amount. Idempotent.
	MarkRefundProcessed(ctx context.Context, paymentID, refundID, reference string, at time.Time) (*domain.Payment, error)

	// MarkRefundFailed records a gateway rejection of a pending refund. Idempotent.
	MarkRefundFailed(ctx context.Context, paymentID, refundID string, at time.Time) (*domain.Payment, error)

	// CanBeRefunded reports whether a further refund may be requested
	CanBeRefunded(ctx context.Context, paymentID string) (bool, error)

	// OnGatewayEvent applies a gateway confirmation. Safe to deliver more than once.
	OnGatewayEvent(ctx context.Context, event *GatewayEvent) (*domain.Payment, error)
}
