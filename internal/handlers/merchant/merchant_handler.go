package merchant

import (
	"fmt"
	"net/http"

	"github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/kevin07696/settlement-service/internal/domain"
	"github.com/kevin07696/settlement-service/internal/handlers"
	"github.com/kevin07696/settlement-service/internal/services/ports"
)

// Handler serves the merchant dashboard: daily buckets and settlement requests
type Handler struct {
	settlement ports.SettlementService
	logger     *zap.Logger
}

// NewHandler creates a new merchant handler
func NewHandler(settlement ports.SettlementService, logger *zap.Logger) *Handler {
	return &Handler{
		settlement: settlement,
		logger:     logger,
	}
}

// Register mounts the merchant routes on mux
func (h *Handler) Register(mux *runtime.ServeMux) error {
	routes := []struct {
		method  string
		pattern string
		handler runtime.HandlerFunc
	}{
		{http.MethodGet, "/api/v1/vendors/{vendor_id}/settlements/{date}/bucket", h.GetBucket},
		{http.MethodPost, "/api/v1/vendors/{vendor_id}/settlements/{date}/requests", h.RequestSettlement},
		{http.MethodGet, "/api/v1/vendors/{vendor_id}/settlements/{date}/requests", h.ListSettlementRequests},
		{http.MethodGet, "/api/v1/settlement-requests/{id}", h.GetSettlementRequest},
	}
	for _, r := range routes {
		if err := mux.HandlePath(r.method, r.pattern, r.handler); err != nil {
			return fmt.Errorf("register %s %s: %w", r.method, r.pattern, err)
		}
	}
	return nil
}

// GetBucket handles GET /api/v1/vendors/{vendor_id}/settlements/{date}/bucket
func (h *Handler) GetBucket(w http.ResponseWriter, r *http.Request, params map[string]string) {
	date, err := handlers.ParseDate(params["date"])
	if err != nil {
		handlers.WriteBadRequest(w, h.logger, err.Error())
		return
	}

	bucket, err := h.settlement.ComputeBucket(r.Context(), params["vendor_id"], date)
	if err != nil {
		handlers.WriteError(w, h.logger, err)
		return
	}
	handlers.WriteJSON(w, h.logger, http.StatusOK, bucket)
}

// SettlementRequestBody is the body of a settlement request. RequestedAmount must equal the
// pending amount shown on the bucket.
type SettlementRequestBody struct {
	RequestedAmount decimal.Decimal              `json:"requested_amount"`
	RequestType     domain.SettlementRequestType `json:"request_type,omitempty"` // Optional: defaults to urgent
}

// RequestSettlement handles POST /api/v1/vendors/{vendor_id}/settlements/{date}/requests
func (h *Handler) RequestSettlement(w http.ResponseWriter, r *http.Request, params map[string]string) {
	date, err := handlers.ParseDate(params["date"])
	if err != nil {
		handlers.WriteBadRequest(w, h.logger, err.Error())
		return
	}

	var body SettlementRequestBody
	if err := handlers.DecodeJSON(r, &body); err != nil {
		handlers.WriteBadRequest(w, h.logger, err.Error())
		return
	}
	if body.RequestType == "" {
		body.RequestType = domain.SettlementRequestUrgent
	}

	req, err := h.settlement.RequestSettlement(r.Context(), params["vendor_id"], date, body.RequestedAmount, body.RequestType)
	if err != nil {
		h.logger.Info("Settlement request rejected",
			zap.String("vendor_id", params["vendor_id"]),
			zap.String("date", params["date"]),
			zap.String("code", string(domain.GetErrorCode(err))),
		)
		handlers.WriteError(w, h.logger, err)
		return
	}
	handlers.WriteJSON(w, h.logger, http.StatusCreated, req)
}

// ListSettlementRequestsResponse lists every request of a vendor's transaction date
type ListSettlementRequestsResponse struct {
	Requests []*domain.SettlementRequest `json:"requests"`
}

// ListSettlementRequests handles GET /api/v1/vendors/{vendor_id}/settlements/{date}/requests
func (h *Handler) ListSettlementRequests(w http.ResponseWriter, r *http.Request, params map[string]string) {
	date, err := handlers.ParseDate(params["date"])
	if err != nil {
		handlers.WriteBadRequest(w, h.logger, err.Error())
		return
	}

	requests, err := h.settlement.ListSettlementRequests(r.Context(), params["vendor_id"], date)
	if err != nil {
		handlers.WriteError(w, h.logger, err)
		return
	}
	if requests == nil {
		requests = []*domain.SettlementRequest{}
	}
	handlers.WriteJSON(w, h.logger, http.StatusOK, ListSettlementRequestsResponse{Requests: requests})
}

// GetSettlementRequest handles GET /api/v1/settlement-requests/{id}
func (h *Handler) GetSettlementRequest(w http.ResponseWriter, r *http.Request, params map[string]string) {
	req, err := h.settlement.GetSettlementRequest(r.Context(), params["id"])
	if err != nil {
		handlers.WriteError(w, h.logger, err)
		return
	}
	handlers.WriteJSON(w, h.logger, http.StatusOK, req)
}
