package payment

import (
	"fmt"
	"net/http"
	"time"

	"github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/kevin07696/settlement-service/internal/domain"
	"github.com/kevin07696/settlement-service/internal/handlers"
	"github.com/kevin07696/settlement-service/internal/services/ports"
)

// IdempotencyHeader may carry the idempotency key instead of the body
const IdempotencyHeader = "Idempotency-Key"

// Handler exposes the payment ledger to the booking service and operators
type Handler struct {
	ledger ports.LedgerService
	logger *zap.Logger
	now    func() time.Time
}

// NewHandler creates a new payment handler
func NewHandler(ledger ports.LedgerService, logger *zap.Logger) *Handler {
	return &Handler{
		ledger: ledger,
		logger: logger,
		now:    time.Now,
	}
}

// Register mounts the payment routes on mux
func (h *Handler) Register(mux *runtime.ServeMux) error {
	routes := []struct {
		method  string
		pattern string
		handler runtime.HandlerFunc
	}{
		{http.MethodPost, "/api/v1/payments", h.CreatePayment},
		{http.MethodGet, "/api/v1/payments/{id}", h.GetPayment},
		{http.MethodPost, "/api/v1/payments/{id}/transitions", h.RecordTransition},
		{http.MethodPost, "/api/v1/payments/{id}/refunds", h.ApplyRefund},
		{http.MethodGet, "/api/v1/payments/{id}/refundable", h.CanBeRefunded},
	}
	for _, r := range routes {
		if err := mux.HandlePath(r.method, r.pattern, r.handler); err != nil {
			return fmt.Errorf("register %s %s: %w", r.method, r.pattern, err)
		}
	}
	return nil
}

// CreatePaymentBody is the booking service's charge attempt
type CreatePaymentBody struct {
	BookingID          string               `json:"booking_id"`
	UserID             string               `json:"user_id"`
	VendorID           string               `json:"vendor_id"`
	StationID          string               `json:"station_id"`
	BaseAmount         decimal.Decimal      `json:"base_amount"`
	TaxAmount          decimal.Decimal      `json:"tax_amount"`
	DiscountAmount     decimal.Decimal      `json:"discount_amount"`
	Currency           string               `json:"currency"`
	PaymentMethod      domain.PaymentMethod `json:"payment_method"`
	TransactionDetails map[string]string    `json:"transaction_details,omitempty"`
	IdempotencyKey     string               `json:"idempotency_key,omitempty"`
}

// CreatePayment handles POST /api/v1/payments
func (h *Handler) CreatePayment(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	var body CreatePaymentBody
	if err := handlers.DecodeJSON(r, &body); err != nil {
		handlers.WriteBadRequest(w, h.logger, err.Error())
		return
	}
	if body.IdempotencyKey == "" {
		body.IdempotencyKey = r.Header.Get(IdempotencyHeader)
	}

	p, err := h.ledger.CreatePayment(r.Context(), &ports.CreatePaymentRequest{
		BookingID:          body.BookingID,
		UserID:             body.UserID,
		VendorID:           body.VendorID,
		StationID:          body.StationID,
		BaseAmount:         body.BaseAmount,
		TaxAmount:          body.TaxAmount,
		DiscountAmount:     body.DiscountAmount,
		Currency:           body.Currency,
		Method:             body.PaymentMethod,
		TransactionDetails: body.TransactionDetails,
		IdempotencyKey:     body.IdempotencyKey,
	})
	if err != nil {
		handlers.WriteError(w, h.logger, err)
		return
	}
	handlers.WriteJSON(w, h.logger, http.StatusCreated, p)
}

// GetPayment handles GET /api/v1/payments/{id}
func (h *Handler) GetPayment(w http.ResponseWriter, r *http.Request, params map[string]string) {
	p, err := h.ledger.GetPayment(r.Context(), params["id"])
	if err != nil {
		handlers.WriteError(w, h.logger, err)
		return
	}
	handlers.WriteJSON(w, h.logger, http.StatusOK, p)
}

// TransitionBody records a status change observed outside the gateway webhook
type TransitionBody struct {
	Status domain.PaymentStatus `json:"status"`
	At     *time.Time           `json:"at,omitempty"` // Optional: defaults to now
}

// RecordTransition handles POST /api/v1/payments/{id}/transitions
func (h *Handler) RecordTransition(w http.ResponseWriter, r *http.Request, params map[string]string) {
	var body TransitionBody
	if err := handlers.DecodeJSON(r, &body); err != nil {
		handlers.WriteBadRequest(w, h.logger, err.Error())
		return
	}
	at := h.now()
	if body.At != nil {
		at = *body.At
	}

	p, err := h.ledger.RecordTransition(r.Context(), params["id"], body.Status, at)
	if err != nil {
		handlers.WriteError(w, h.logger, err)
		return
	}
	handlers.WriteJSON(w, h.logger, http.StatusOK, p)
}

// RefundBody requests a refund against a completed payment
type RefundBody struct {
	Amount         decimal.Decimal `json:"amount"`
	Reason         string          `json:"reason,omitempty"`
	IdempotencyKey string          `json:"idempotency_key,omitempty"`
}

// ApplyRefund handles POST /api/v1/payments/{id}/refunds. The refund stays pending until
// the gateway confirms it.
func (h *Handler) ApplyRefund(w http.ResponseWriter, r *http.Request, params map[string]string) {
	var body RefundBody
	if err := handlers.DecodeJSON(r, &body); err != nil {
		handlers.WriteBadRequest(w, h.logger, err.Error())
		return
	}
	if body.IdempotencyKey == "" {
		body.IdempotencyKey = r.Header.Get(IdempotencyHeader)
	}

	refund, err := h.ledger.ApplyRefund(r.Context(), &ports.ApplyRefundRequest{
		PaymentID:      params["id"],
		Amount:         body.Amount,
		Reason:         body.Reason,
		IdempotencyKey: body.IdempotencyKey,
	})
	if err != nil {
		handlers.WriteError(w, h.logger, err)
		return
	}
	handlers.WriteJSON(w, h.logger, http.StatusAccepted, refund)
}

// RefundableResponse answers whether a further refund may be requested
type RefundableResponse struct {
	PaymentID     string `json:"payment_id"`
	CanBeRefunded bool   `json:"can_be_refunded"`
}

// CanBeRefunded handles GET /api/v1/payments/{id}/refundable
func (h *Handler) CanBeRefunded(w http.ResponseWriter, r *http.Request, params map[string]string) {
	ok, err := h.ledger.CanBeRefunded(r.Context(), params["id"])
	if err != nil {
		handlers.WriteError(w, h.logger, err)
		return
	}
	handlers.WriteJSON(w, h.logger, http.StatusOK, RefundableResponse{PaymentID: params["id"], CanBeRefunded: ok})
}
