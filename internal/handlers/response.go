// Package handlers holds the JSON helpers and error table shared by the HTTP handlers.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/kevin07696/settlement-service/internal/domain"
	"github.com/kevin07696/settlement-service/pkg/timeutil"
)

// maxBodyBytes caps request bodies read by DecodeJSON
const maxBodyBytes = 1 << 20

// ErrorResponse is the body of every non-2xx response
type ErrorResponse struct {
	Success bool                   `json:"success"`
	Code    string                 `json:"code"`
	Error   string                 `json:"error"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// StatusForError maps a service error to its HTTP status
func StatusForError(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case domain.IsNotFoundError(err):
		return http.StatusNotFound
	case domain.IsValidationError(err):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrRefundExceedsBalance):
		return http.StatusUnprocessableEntity
	case domain.IsBusinessRuleError(err),
		domain.IsStateError(err),
		domain.IsRetryableError(err),
		errors.Is(err, domain.ErrIdempotencyConflict):
		return http.StatusConflict
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// WriteError writes err as an ErrorResponse. Internal errors are logged and their details
// are not exposed.
func WriteError(w http.ResponseWriter, logger *zap.Logger, err error) {
	status := StatusForError(err)
	resp := ErrorResponse{Code: string(domain.ErrorCodeInternalError), Error: "internal server error"}

	var de *domain.DomainError
	if status < http.StatusInternalServerError && errors.As(err, &de) {
		resp.Code = string(de.Code)
		resp.Error = de.Message
		if len(de.Details) > 0 {
			resp.Details = de.Details
		}
	}
	if status >= http.StatusInternalServerError {
		logger.Error("Request failed", zap.Error(err), zap.Int("status", status))
	}
	WriteJSON(w, logger, status, resp)
}

// WriteBadRequest writes a 400 for malformed input that never reached a service
func WriteBadRequest(w http.ResponseWriter, logger *zap.Logger, message string) {
	WriteJSON(w, logger, http.StatusBadRequest, ErrorResponse{
		Code:  string(domain.ErrorCodeValidationFailed),
		Error: message,
	})
}

// WriteUnauthorized writes a 401
func WriteUnauthorized(w http.ResponseWriter, logger *zap.Logger) {
	WriteJSON(w, logger, http.StatusUnauthorized, ErrorResponse{Code: "UNAUTHORIZED", Error: "unauthorized"})
}

// WriteJSON encodes v with the given status
func WriteJSON(w http.ResponseWriter, logger *zap.Logger, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Failed to encode response", zap.Error(err))
	}
}

// DecodeJSON decodes the request body into v. An empty body leaves v untouched.
func DecodeJSON(r *http.Request, v interface{}) error {
	if r.Body == nil {
		return nil
	}
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

// ParseDate parses a YYYY-MM-DD path or query value into its date key
func ParseDate(s string) (time.Time, error) {
	d, err := time.Parse(timeutil.DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", s)
	}
	return d, nil
}
