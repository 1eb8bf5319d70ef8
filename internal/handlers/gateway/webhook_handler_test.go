package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/kevin07696/settlement-service/internal/domain"
	"github.com/kevin07696/settlement-service/internal/middleware"
	"github.com/kevin07696/settlement-service/internal/services/ports"
	"github.com/kevin07696/settlement-service/internal/services/ports/mocks"
)

const secret = "whsec_test"

var now = time.Date(2025, 1, 10, 9, 30, 0, 0, time.UTC)

func setup(t *testing.T) (*runtime.ServeMux, *mocks.MockLedgerService) {
	ctrl := gomock.NewController(t)
	ledger := mocks.NewMockLedgerService(ctrl)
	logger := zaptest.NewLogger(t)

	h := NewWebhookHandler(ledger, logger)
	h.now = func() time.Time { return now }

	mux := runtime.NewServeMux()
	require.NoError(t, h.Register(mux, middleware.NewSignatureAuth(secret, logger).Wrap))
	return mux, ledger
}

func deliver(mux http.Handler, body, signature string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, WebhookPath, strings.NewReader(body))
	req.Header.Set(middleware.SignatureHeader, signature)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestHandleEvent_Captured(t *testing.T) {
	mux, ledger := setup(t)
	body := `{"payment_id":"p1","event":"captured","gateway_ids":{"gateway_payment_id":"pay_1"},"amount":"500.00","occurred_at":"2025-01-10T09:29:00Z"}`

	ledger.EXPECT().OnGatewayEvent(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, e *ports.GatewayEvent) (*domain.Payment, error) {
			assert.Equal(t, "p1", e.PaymentID)
			assert.Equal(t, ports.GatewayEventCaptured, e.Event)
			assert.Equal(t, "pay_1", e.GatewayIDs["gateway_payment_id"])
			require.NotNil(t, e.Amount)
			assert.True(t, e.Amount.Equal(decimal.NewFromInt(500)))
			assert.Equal(t, now.Add(-time.Minute), e.At)
			return &domain.Payment{ID: "p1", Status: domain.PaymentStatusCompleted, NetAmount: decimal.NewFromInt(500), Version: 3}, nil
		})

	rec := deliver(mux, body, middleware.Sign(secret, []byte(body)))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp EventResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, domain.PaymentStatusCompleted, resp.Status)
	assert.Equal(t, int64(3), resp.Version)
}

func TestHandleEvent_DefaultsOccurredAtToNow(t *testing.T) {
	mux, ledger := setup(t)
	body := `{"payment_id":"p1","event":"authorized"}`

	ledger.EXPECT().OnGatewayEvent(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, e *ports.GatewayEvent) (*domain.Payment, error) {
			assert.Equal(t, now, e.At)
			assert.Nil(t, e.Amount)
			return &domain.Payment{ID: "p1", Status: domain.PaymentStatusProcessing}, nil
		})

	rec := deliver(mux, body, middleware.Sign(secret, []byte(body)))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHandleEvent_BadSignatureNeverReachesLedger(t *testing.T) {
	mux, _ := setup(t)
	body := `{"payment_id":"p1","event":"captured"}`

	rec := deliver(mux, body, middleware.Sign("wrong", []byte(body)))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHandleEvent_LedgerErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"unknown_payment", domain.ErrPaymentNotFound, http.StatusNotFound},
		{"invalid_transition", domain.ErrInvalidTransition, http.StatusConflict},
		{"amount_mismatch", domain.ErrValidationAmountInvalid, http.StatusBadRequest},
		{"version_conflict", domain.ErrConcurrentUpdate, http.StatusConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mux, ledger := setup(t)
			body := `{"payment_id":"p1","event":"captured"}`
			ledger.EXPECT().OnGatewayEvent(gomock.Any(), gomock.Any()).Return(nil, tt.err)

			rec := deliver(mux, body, middleware.Sign(secret, []byte(body)))
			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestHandleEvent_MalformedJSON(t *testing.T) {
	mux, _ := setup(t)
	body := `{"payment_id":`

	rec := deliver(mux, body, middleware.Sign(secret, []byte(body)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
