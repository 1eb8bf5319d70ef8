package admin

import (
	"fmt"
	"net/http"

	"github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
	"go.uber.org/zap"

	"github.com/kevin07696/settlement-service/internal/handlers"
	"github.com/kevin07696/settlement-service/internal/services/ports"
)

// SecretHeader carries the operator token
const SecretHeader = "X-Admin-Secret"

// SettlementHandler lets operators and the payout worker advance settlement requests
type SettlementHandler struct {
	settlement ports.SettlementService
	logger     *zap.Logger
}

// NewSettlementHandler creates a new operator settlement handler
func NewSettlementHandler(settlement ports.SettlementService, logger *zap.Logger) *SettlementHandler {
	return &SettlementHandler{
		settlement: settlement,
		logger:     logger,
	}
}

// Register mounts the operator routes on mux behind auth
func (h *SettlementHandler) Register(mux *runtime.ServeMux, auth func(runtime.HandlerFunc) runtime.HandlerFunc) error {
	routes := map[string]runtime.HandlerFunc{
		"/admin/settlements/{id}/start":    h.Start,
		"/admin/settlements/{id}/complete": h.Complete,
		"/admin/settlements/{id}/fail":     h.Fail,
	}
	for pattern, fn := range routes {
		if err := mux.HandlePath(http.MethodPost, pattern, auth(fn)); err != nil {
			return fmt.Errorf("register %s: %w", pattern, err)
		}
	}
	return nil
}

// Start handles POST /admin/settlements/{id}/start
func (h *SettlementHandler) Start(w http.ResponseWriter, r *http.Request, params map[string]string) {
	req, err := h.settlement.StartSettlementProcessing(r.Context(), params["id"])
	if err != nil {
		handlers.WriteError(w, h.logger, err)
		return
	}
	h.logger.Info("Settlement processing started", zap.String("request_id", req.ID))
	handlers.WriteJSON(w, h.logger, http.StatusOK, req)
}

// Complete handles POST /admin/settlements/{id}/complete
func (h *SettlementHandler) Complete(w http.ResponseWriter, r *http.Request, params map[string]string) {
	req, err := h.settlement.CompleteSettlement(r.Context(), params["id"])
	if err != nil {
		handlers.WriteError(w, h.logger, err)
		return
	}
	h.logger.Info("Settlement completed",
		zap.String("request_id", req.ID),
		zap.String("vendor_id", req.VendorID),
		zap.String("amount", req.ClaimedAmount.String()),
	)
	handlers.WriteJSON(w, h.logger, http.StatusOK, req)
}

// FailBody explains why the payout did not go through
type FailBody struct {
	Reason string `json:"reason"`
}

// Fail handles POST /admin/settlements/{id}/fail. Claimed payments return to pending.
func (h *SettlementHandler) Fail(w http.ResponseWriter, r *http.Request, params map[string]string) {
	var body FailBody
	if err := handlers.DecodeJSON(r, &body); err != nil {
		handlers.WriteBadRequest(w, h.logger, err.Error())
		return
	}
	if body.Reason == "" {
		handlers.WriteBadRequest(w, h.logger, "reason is required")
		return
	}

	req, err := h.settlement.FailSettlement(r.Context(), params["id"], body.Reason)
	if err != nil {
		handlers.WriteError(w, h.logger, err)
		return
	}
	h.logger.Warn("Settlement failed",
		zap.String("request_id", req.ID),
		zap.String("reason", body.Reason),
	)
	handlers.WriteJSON(w, h.logger, http.StatusOK, req)
}
