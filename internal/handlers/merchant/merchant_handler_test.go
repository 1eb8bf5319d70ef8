package merchant_test

import (
	"encoding/json"
	"fmt"
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
	"github.com/kevin07696/settlement-service/internal/handlers/merchant"
	"github.com/kevin07696/settlement-service/internal/services/ports/mocks"
)

var day = time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)

// decimalEq matches decimals by value, not by representation
type decimalEq struct{ want decimal.Decimal }

func (m decimalEq) Matches(x interface{}) bool {
	d, ok := x.(decimal.Decimal)
	return ok && d.Equal(m.want)
}

func (m decimalEq) String() string { return fmt.Sprintf("equals %s", m.want) }

func setup(t *testing.T) (*runtime.ServeMux, *mocks.MockSettlementService) {
	ctrl := gomock.NewController(t)
	svc := mocks.NewMockSettlementService(ctrl)

	mux := runtime.NewServeMux()
	require.NoError(t, merchant.NewHandler(svc, zaptest.NewLogger(t)).Register(mux))
	return mux, svc
}

func do(mux http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestGetBucket(t *testing.T) {
	mux, svc := setup(t)

	svc.EXPECT().ComputeBucket(gomock.Any(), "V1", day).Return(&domain.DailySettlementBucket{
		VendorID:            "V1",
		Date:                "2025-01-10",
		TotalToBeReceived:   decimal.NewFromInt(600),
		PaymentSettled:      decimal.Zero,
		InSettlementProcess: decimal.NewFromInt(100),
		PendingSettlement:   decimal.NewFromInt(500),
		PaymentCount:        3,
	}, nil)

	rec := do(mux, http.MethodGet, "/api/v1/vendors/V1/settlements/2025-01-10/bucket", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "600", body["total_to_be_received"])
	assert.Equal(t, "500", body["pending_settlement"])
	assert.Equal(t, float64(3), body["payment_count"])
	assert.NotContains(t, body, "PendingPaymentIDs")
}

func TestGetBucket_BadDate(t *testing.T) {
	mux, _ := setup(t)

	rec := do(mux, http.MethodGet, "/api/v1/vendors/V1/settlements/10-01-2025/bucket", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRequestSettlement(t *testing.T) {
	mux, svc := setup(t)

	created := &domain.SettlementRequest{
		ID:                "req_1",
		VendorID:          "V1",
		TransactionDate:   day,
		Type:              domain.SettlementRequestUrgent,
		ClaimedPaymentIDs: []string{"p1", "p2"},
		ClaimedAmount:     decimal.NewFromInt(600),
		Status:            domain.SettlementStatusPending,
	}
	svc.EXPECT().
		RequestSettlement(gomock.Any(), "V1", day, decimalEq{decimal.NewFromInt(600)}, domain.SettlementRequestUrgent).
		Return(created, nil)

	rec := do(mux, http.MethodPost, "/api/v1/vendors/V1/settlements/2025-01-10/requests", `{"requested_amount":"600.00"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var got domain.SettlementRequest
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "req_1", got.ID)
	assert.Equal(t, []string{"p1", "p2"}, got.ClaimedPaymentIDs)
}

func TestRequestSettlement_Rejections(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"amount_mismatch", domain.NewDomainError(domain.ErrorCodeAmountMismatch, "requested amount does not match pending settlement").WithDetail("pending", "300"), http.StatusConflict, "AMOUNT_MISMATCH"},
		{"nothing_to_settle", domain.ErrNothingToSettle, http.StatusConflict, "NOTHING_TO_SETTLE"},
		{"concurrent_claim", domain.ErrConcurrentClaim, http.StatusConflict, "CONCURRENT_CLAIM"},
		{"invalid_amount", domain.ErrValidationAmountInvalid, http.StatusBadRequest, "VALIDATION_AMOUNT_INVALID"},
		{"storage_failure", domain.WrapError(domain.ErrorCodeDatabaseError, "insert failed", fmt.Errorf("connection reset")), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mux, svc := setup(t)
			svc.EXPECT().
				RequestSettlement(gomock.Any(), "V1", day, gomock.Any(), domain.SettlementRequestUrgent).
				Return(nil, tt.err)

			rec := do(mux, http.MethodPost, "/api/v1/vendors/V1/settlements/2025-01-10/requests", `{"requested_amount":250}`)
			assert.Equal(t, tt.wantStatus, rec.Code)

			var body map[string]interface{}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.wantCode, body["code"])
			assert.Equal(t, false, body["success"])
			if tt.name == "amount_mismatch" {
				assert.Equal(t, map[string]interface{}{"pending": "300"}, body["details"])
			}
			if tt.wantStatus == http.StatusInternalServerError {
				assert.NotContains(t, rec.Body.String(), "connection reset")
			}
		})
	}
}

func TestRequestSettlement_ExplicitType(t *testing.T) {
	mux, svc := setup(t)
	svc.EXPECT().
		RequestSettlement(gomock.Any(), "V1", day, decimalEq{decimal.NewFromInt(10)}, domain.SettlementRequestNormal).
		Return(&domain.SettlementRequest{ID: "req_2"}, nil)

	rec := do(mux, http.MethodPost, "/api/v1/vendors/V1/settlements/2025-01-10/requests", `{"requested_amount":"10","request_type":"normal"}`)
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestRequestSettlement_MalformedBody(t *testing.T) {
	mux, _ := setup(t)

	rec := do(mux, http.MethodPost, "/api/v1/vendors/V1/settlements/2025-01-10/requests", `{"requested_amount":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(mux, http.MethodPost, "/api/v1/vendors/V1/settlements/2025-01-10/requests", `{"amount":"10"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code, "unknown fields are rejected")
}

func TestListSettlementRequests(t *testing.T) {
	mux, svc := setup(t)
	svc.EXPECT().ListSettlementRequests(gomock.Any(), "V1", day).Return(nil, nil)

	rec := do(mux, http.MethodGet, "/api/v1/vendors/V1/settlements/2025-01-10/requests", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"requests":[]}`, rec.Body.String())
}

func TestGetSettlementRequest_NotFound(t *testing.T) {
	mux, svc := setup(t)
	svc.EXPECT().GetSettlementRequest(gomock.Any(), "missing").Return(nil, domain.ErrSettlementNotFound)

	rec := do(mux, http.MethodGet, "/api/v1/settlement-requests/missing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
