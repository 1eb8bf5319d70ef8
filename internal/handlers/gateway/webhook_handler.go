package gateway

import (
	"net/http"
	"time"

	"github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/kevin07696/settlement-service/internal/domain"
	"github.com/kevin07696/settlement-service/internal/handlers"
	"github.com/kevin07696/settlement-service/internal/services/ports"
)

// WebhookPath is where the payment gateway delivers confirmations
const WebhookPath = "/webhooks/gateway"

// WebhookHandler turns gateway confirmations into ledger writes
type WebhookHandler struct {
	ledger ports.LedgerService
	logger *zap.Logger
	now    func() time.Time
}

// NewWebhookHandler creates a new gateway webhook handler
func NewWebhookHandler(ledger ports.LedgerService, logger *zap.Logger) *WebhookHandler {
	return &WebhookHandler{
		ledger: ledger,
		logger: logger,
		now:    time.Now,
	}
}

// Register mounts the webhook on mux behind auth, which verifies the signature
func (h *WebhookHandler) Register(mux *runtime.ServeMux, auth func(runtime.HandlerFunc) runtime.HandlerFunc) error {
	return mux.HandlePath(http.MethodPost, WebhookPath, auth(h.HandleEvent))
}

// EventPayload is the webhook body
type EventPayload struct {
	PaymentID       string            `json:"payment_id"`
	Event           string            `json:"event"`
	GatewayIDs      map[string]string `json:"gateway_ids,omitempty"`
	RefundID        string            `json:"refund_id,omitempty"`
	RefundReference string            `json:"refund_reference,omitempty"`
	Amount          *decimal.Decimal  `json:"amount,omitempty"`
	OccurredAt      *time.Time        `json:"occurred_at,omitempty"`
}

// EventResponse acknowledges a delivery with the resulting payment state
type EventResponse struct {
	PaymentID string               `json:"payment_id"`
	Status    domain.PaymentStatus `json:"status"`
	NetAmount decimal.Decimal      `json:"net_amount"`
	Version   int64                `json:"version"`
}

// HandleEvent handles POST /webhooks/gateway. Redelivery of an applied event answers 200
// with the unchanged payment.
func (h *WebhookHandler) HandleEvent(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	var payload EventPayload
	if err := handlers.DecodeJSON(r, &payload); err != nil {
		handlers.WriteBadRequest(w, h.logger, err.Error())
		return
	}

	at := h.now()
	if payload.OccurredAt != nil {
		at = *payload.OccurredAt
	}

	p, err := h.ledger.OnGatewayEvent(r.Context(), &ports.GatewayEvent{
		PaymentID:       payload.PaymentID,
		Event:           ports.GatewayEventType(payload.Event),
		GatewayIDs:      payload.GatewayIDs,
		RefundID:        payload.RefundID,
		RefundReference: payload.RefundReference,
		Amount:          payload.Amount,
		At:              at,
	})
	if err != nil {
		h.logger.Warn("Gateway event rejected",
			zap.String("payment_id", payload.PaymentID),
			zap.String("event", payload.Event),
			zap.String("code", string(domain.GetErrorCode(err))),
		)
		handlers.WriteError(w, h.logger, err)
		return
	}

	handlers.WriteJSON(w, h.logger, http.StatusOK, EventResponse{
		PaymentID: p.ID,
		Status:    p.Status,
		NetAmount: p.NetAmount,
		Version:   p.Version,
	})
}
