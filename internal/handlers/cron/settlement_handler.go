package cron

import (
	"net/http"
	"time"

	"github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
	"go.uber.org/zap"

	"github.com/kevin07696/settlement-service/internal/domain"
	"github.com/kevin07696/settlement-service/internal/handlers"
	"github.com/kevin07696/settlement-service/internal/services/ports"
	"github.com/kevin07696/settlement-service/pkg/timeutil"
)

// SecretHeader carries the scheduler token
const SecretHeader = "X-Cron-Secret"

// SettleDailyPath is called by the scheduler once per day
const SettleDailyPath = "/cron/settle-daily"

// SettlementHandler handles cron job endpoints for scheduled settlement
type SettlementHandler struct {
	settlement ports.SettlementService
	logger     *zap.Logger
	clock      timeutil.Clock
	loc        *time.Location
	delayDays  int
}

// NewSettlementHandler creates a new settlement cron handler. Without an explicit date the
// run settles the calendar day delayDays before today in loc.
func NewSettlementHandler(
	settlement ports.SettlementService,
	logger *zap.Logger,
	clock timeutil.Clock,
	loc *time.Location,
	delayDays int,
) *SettlementHandler {
	return &SettlementHandler{
		settlement: settlement,
		logger:     logger,
		clock:      clock,
		loc:        loc,
		delayDays:  delayDays,
	}
}

// Register mounts the cron route on mux behind auth
func (h *SettlementHandler) Register(mux *runtime.ServeMux, auth func(runtime.HandlerFunc) runtime.HandlerFunc) error {
	return mux.HandlePath(http.MethodPost, SettleDailyPath, auth(h.SettleDaily))
}

// SettleDailyRequest represents the optional request body
type SettleDailyRequest struct {
	Date *string `json:"date"` // Optional: YYYY-MM-DD, defaults to today minus the settlement delay
}

// CreatedRequest summarizes one settlement request created by the run
type CreatedRequest struct {
	ID            string `json:"id"`
	VendorID      string `json:"vendor_id"`
	ClaimedAmount string `json:"claimed_amount"`
	PaymentCount  int    `json:"payment_count"`
}

// SettleDailyResponse represents the response from a settlement run
type SettleDailyResponse struct {
	Success      bool              `json:"success"`
	Date         string            `json:"date"`
	Created      []CreatedRequest  `json:"created"`
	SkippedCount int               `json:"skipped_count"`
	Failures     map[string]string `json:"failures,omitempty"`
	ProcessedAt  string            `json:"processed_at"`
}

// SettleDaily handles POST /cron/settle-daily
func (h *SettlementHandler) SettleDaily(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	var req SettleDailyRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		handlers.WriteBadRequest(w, h.logger, err.Error())
		return
	}

	date := timeutil.CalendarDate(h.clock.Now(), h.loc).AddDate(0, 0, -h.delayDays)
	if req.Date != nil {
		parsed, err := handlers.ParseDate(*req.Date)
		if err != nil {
			handlers.WriteBadRequest(w, h.logger, err.Error())
			return
		}
		date = parsed
	}

	h.logger.Info("Settlement cron job triggered",
		zap.String("date", date.Format(timeutil.DateLayout)),
		zap.String("remote_addr", r.RemoteAddr),
	)

	result, err := h.settlement.SettleDay(r.Context(), date)
	if err != nil {
		handlers.WriteError(w, h.logger, err)
		return
	}

	resp := SettleDailyResponse{
		Success:      len(result.Failures) == 0,
		Date:         result.Date,
		Created:      summarize(result.Created),
		SkippedCount: result.Skipped,
		Failures:     result.Failures,
		ProcessedAt:  h.clock.Now().Format(time.RFC3339),
	}

	h.logger.Info("Settlement run completed",
		zap.String("date", result.Date),
		zap.Int("created", len(resp.Created)),
		zap.Int("skipped", result.Skipped),
		zap.Int("failed", len(result.Failures)),
	)

	status := http.StatusOK
	if !resp.Success {
		status = http.StatusPartialContent
	}
	handlers.WriteJSON(w, h.logger, status, resp)
}

func summarize(requests []*domain.SettlementRequest) []CreatedRequest {
	out := make([]CreatedRequest, 0, len(requests))
	for _, r := range requests {
		out = append(out, CreatedRequest{
			ID:            r.ID,
			VendorID:      r.VendorID,
			ClaimedAmount: r.ClaimedAmount.String(),
			PaymentCount:  len(r.ClaimedPaymentIDs),
		})
	}
	return out
}
