package reporting

import (
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
	"go.uber.org/zap"

	"github.com/kevin07696/settlement-service/internal/domain"
	domainports "github.com/kevin07696/settlement-service/internal/domain/ports"
	"github.com/kevin07696/settlement-service/internal/handlers"
	"github.com/kevin07696/settlement-service/internal/services/ports"
)

// StatsPath serves dashboard aggregates
const StatsPath = "/api/v1/stats"

// StatsHandler serves read-only dashboard aggregates
type StatsHandler struct {
	reporting ports.ReportingService
	logger    *zap.Logger
}

// NewStatsHandler creates a new stats handler
func NewStatsHandler(reporting ports.ReportingService, logger *zap.Logger) *StatsHandler {
	return &StatsHandler{
		reporting: reporting,
		logger:    logger,
	}
}

// Register mounts the stats route on mux
func (h *StatsHandler) Register(mux *runtime.ServeMux) error {
	return mux.HandlePath(http.MethodGet, StatsPath, h.GetStats)
}

// StatsByStatusResponse groups stats per payment status
type StatsByStatusResponse struct {
	ByStatus map[domain.PaymentStatus]*ports.Stats `json:"by_status"`
}

// GetStats handles GET /api/v1/stats.
//
// Query parameters: from, to (RFC 3339 or YYYY-MM-DD, half-open), status (repeatable),
// vendor_id, basis (completed or initiated) and group_by=status.
func (h *StatsHandler) GetStats(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	q, err := parseQuery(r.URL.Query())
	if err != nil {
		handlers.WriteBadRequest(w, h.logger, err.Error())
		return
	}

	if r.URL.Query().Get("group_by") == "status" {
		byStatus, err := h.reporting.StatsByStatus(r.Context(), q)
		if err != nil {
			handlers.WriteError(w, h.logger, err)
			return
		}
		handlers.WriteJSON(w, h.logger, http.StatusOK, StatsByStatusResponse{ByStatus: byStatus})
		return
	}

	stats, err := h.reporting.Stats(r.Context(), q)
	if err != nil {
		handlers.WriteError(w, h.logger, err)
		return
	}
	handlers.WriteJSON(w, h.logger, http.StatusOK, stats)
}

func parseQuery(values url.Values) (ports.StatsQuery, error) {
	q := ports.StatsQuery{
		VendorID: values.Get("vendor_id"),
		Basis:    domainports.TimeBasis(values.Get("basis")),
	}

	var err error
	if q.From, err = parseBound(values.Get("from")); err != nil {
		return q, fmt.Errorf("from: %w", err)
	}
	if q.To, err = parseBound(values.Get("to")); err != nil {
		return q, fmt.Errorf("to: %w", err)
	}
	for _, s := range values["status"] {
		q.Statuses = append(q.Statuses, domain.PaymentStatus(s))
	}
	return q, nil
}

func parseBound(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return handlers.ParseDate(s)
}
