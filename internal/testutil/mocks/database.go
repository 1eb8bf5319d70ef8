// Package mocks provides shared mock implementations for testing.
package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/kevin07696/settlement-service/internal/domain"
	"github.com/kevin07696/settlement-service/internal/domain/ports"
)

// MockQuerier is a testify mock of ports.Querier. Use it to inject storage failures that
// the in-memory store never produces.
type MockQuerier struct {
	mock.Mock
}

var _ ports.Querier = (*MockQuerier)(nil)

func (m *MockQuerier) InsertPayment(ctx context.Context, p *domain.Payment) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockQuerier) GetPayment(ctx context.Context, id string) (*domain.Payment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Payment), args.Error(1)
}

func (m *MockQuerier) GetPaymentForUpdate(ctx context.Context, id string) (*domain.Payment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Payment), args.Error(1)
}

func (m *MockQuerier) GetPaymentByIdempotencyKey(ctx context.Context, key string) (*domain.Payment, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Payment), args.Error(1)
}

func (m *MockQuerier) UpdatePayment(ctx context.Context, p *domain.Payment) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockQuerier) ListCompletedPayments(ctx context.Context, vendorID string, from, to time.Time) ([]*domain.Payment, error) {
	args := m.Called(ctx, vendorID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Payment), args.Error(1)
}

func (m *MockQuerier) ScanPayments(ctx context.Context, filter ports.PaymentFilter, fn func(*domain.Payment) error) error {
	args := m.Called(ctx, filter, fn)
	return args.Error(0)
}

func (m *MockQuerier) ListVendorsWithCompletedPayments(ctx context.Context, from, to time.Time) ([]string, error) {
	args := m.Called(ctx, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockQuerier) ClaimPayments(ctx context.Context, requestID string, paymentIDs []string) (int64, error) {
	args := m.Called(ctx, requestID, paymentIDs)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockQuerier) ReleasePayments(ctx context.Context, requestID string) (int64, error) {
	args := m.Called(ctx, requestID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockQuerier) MarkPaymentsSettled(ctx context.Context, requestID string) (int64, error) {
	args := m.Called(ctx, requestID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockQuerier) InsertSettlementRequest(ctx context.Context, r *domain.SettlementRequest) error {
	args := m.Called(ctx, r)
	return args.Error(0)
}

func (m *MockQuerier) GetSettlementRequest(ctx context.Context, id string) (*domain.SettlementRequest, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SettlementRequest), args.Error(1)
}

func (m *MockQuerier) GetSettlementRequestForUpdate(ctx context.Context, id string) (*domain.SettlementRequest, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SettlementRequest), args.Error(1)
}

func (m *MockQuerier) UpdateSettlementRequest(ctx context.Context, r *domain.SettlementRequest) error {
	args := m.Called(ctx, r)
	return args.Error(0)
}

func (m *MockQuerier) ListSettlementRequests(ctx context.Context, vendorID string, date time.Time) ([]*domain.SettlementRequest, error) {
	args := m.Called(ctx, vendorID, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.SettlementRequest), args.Error(1)
}

func (m *MockQuerier) ReadSettlementCursor(ctx context.Context, vendorID string, date time.Time) (int64, error) {
	args := m.Called(ctx, vendorID, date)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockQuerier) AdvanceSettlementCursor(ctx context.Context, vendorID string, date time.Time, expected int64) error {
	args := m.Called(ctx, vendorID, date, expected)
	return args.Error(0)
}

// MockStore runs WithTx directly against Querier, like a store whose commit always succeeds
type MockStore struct {
	Querier *MockQuerier
}

var _ ports.Store = (*MockStore)(nil)

// NewMockStore creates a store backed by a fresh MockQuerier
func NewMockStore() *MockStore {
	return &MockStore{Querier: new(MockQuerier)}
}

func (s *MockStore) Queries() ports.Querier {
	return s.Querier
}

func (s *MockStore) WithTx(ctx context.Context, fn func(ctx context.Context, q ports.Querier) error) error {
	return fn(ctx, s.Querier)
}
