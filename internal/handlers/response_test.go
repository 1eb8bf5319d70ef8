package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/kevin07696/settlement-service/internal/domain"
)

func TestStatusForError(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{nil, http.StatusOK},
		{domain.ErrPaymentNotFound, http.StatusNotFound},
		{domain.ErrSettlementNotFound, http.StatusNotFound},
		{domain.ErrValidationMissingField, http.StatusBadRequest},
		{domain.ErrRefundExceedsBalance, http.StatusUnprocessableEntity},
		{domain.ErrAmountMismatch, http.StatusConflict},
		{domain.ErrNothingToSettle, http.StatusConflict},
		{domain.ErrConcurrentClaim, http.StatusConflict},
		{domain.ErrConcurrentUpdate, http.StatusConflict},
		{domain.ErrInvalidTransition, http.StatusConflict},
		{domain.ErrIdempotencyConflict, http.StatusConflict},
		{fmt.Errorf("wrapped: %w", domain.ErrInvalidState), http.StatusConflict},
		{context.DeadlineExceeded, http.StatusGatewayTimeout},
		{domain.ErrDatabaseError, http.StatusInternalServerError},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		name := "nil"
		if tt.err != nil {
			name = tt.err.Error()
		}
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tt.want, StatusForError(tt.err))
		})
	}
}

func TestDecodeJSON(t *testing.T) {
	var v struct {
		Name string `json:"name"`
	}

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(""))
	require.NoError(t, DecodeJSON(req, &v), "empty body keeps defaults")

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"x"}`))
	require.NoError(t, DecodeJSON(req, &v))
	assert.Equal(t, "x", v.Name)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"other":1}`))
	assert.Error(t, DecodeJSON(req, &v))
}

func TestWriteError_HidesInternalDetails(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, zaptest.NewLogger(t), domain.WrapError(domain.ErrorCodeDatabaseError, "insert failed", errors.New("password authentication failed")))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "password")
	assert.Contains(t, rec.Body.String(), "INTERNAL_ERROR")
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2025-01-10")
	require.NoError(t, err)
	assert.Equal(t, "2025-01-10", d.Format("2006-01-02"))

	_, err = ParseDate("2025/01/10")
	assert.Error(t, err)
}
