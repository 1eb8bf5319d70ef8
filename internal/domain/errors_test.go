package domain

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

// TestDomainErrors_Messages tests that every sentinel carries a readable message
func TestDomainErrors_Messages(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		contains string
	}{
		{"payment_not_found", ErrPaymentNotFound, "payment not found"},
		{"refund_not_found", ErrRefundNotFound, "refund not found"},
		{"settlement_not_found", ErrSettlementNotFound, "settlement request not found"},
		{"invalid_transition", ErrInvalidTransition, "invalid status transition"},
		{"refund_exceeds_balance", ErrRefundExceedsBalance, "exceeds remaining balance"},
		{"amount_mismatch", ErrAmountMismatch, "does not match"},
		{"nothing_to_settle", ErrNothingToSettle, "nothing to settle"},
		{"concurrent_claim", ErrConcurrentClaim, "retry"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !strings.Contains(strings.ToLower(tt.err.Error()), tt.contains) {
				t.Errorf("error message %q does not contain %q", tt.err.Error(), tt.contains)
			}
		})
	}
}

// TestDomainError_Is tests that errors.Is matches on code, not identity
func TestDomainError_Is(t *testing.T) {
	err := NewDomainError(ErrorCodeNothingToSettle, "pending is zero").WithDetail("vendor_id", "v1")
	wrapped := fmt.Errorf("coordinator: %w", err)

	if !errors.Is(wrapped, ErrNothingToSettle) {
		t.Errorf("expected wrapped error to match ErrNothingToSettle")
	}
	if errors.Is(wrapped, ErrAmountMismatch) {
		t.Errorf("did not expect match with ErrAmountMismatch")
	}
	if GetErrorCode(wrapped) != ErrorCodeNothingToSettle {
		t.Errorf("GetErrorCode = %q", GetErrorCode(wrapped))
	}
}

// TestDomainError_Unwrap tests that the cause survives wrapping
func TestDomainError_Unwrap(t *testing.T) {
	cause := errors.New("connection reset")
	err := WrapError(ErrorCodeDatabaseError, "failed to claim payments", cause)

	if !errors.Is(err, cause) {
		t.Errorf("expected cause to be reachable")
	}
	if !strings.Contains(err.Error(), "connection reset") {
		t.Errorf("error message %q does not include cause", err.Error())
	}
}

// TestErrorCategories tests the category helpers used by handlers
func TestErrorCategories(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		notFound   bool
		validation bool
		business   bool
		state      bool
		retryable  bool
	}{
		{name: "payment_not_found", err: ErrPaymentNotFound, notFound: true},
		{name: "settlement_not_found", err: ErrSettlementNotFound, notFound: true},
		{name: "validation", err: ErrValidationMissingField, validation: true},
		{name: "amount_mismatch", err: ErrAmountMismatch, business: true},
		{name: "nothing_to_settle", err: ErrNothingToSettle, business: true},
		{name: "invalid_state", err: ErrInvalidState, state: true},
		{name: "invalid_transition", err: ErrInvalidTransition, state: true},
		{name: "concurrent_claim", err: ErrConcurrentClaim, retryable: true},
		{name: "concurrent_update", err: ErrConcurrentUpdate, retryable: true},
		{name: "plain_error", err: errors.New("boom")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsNotFoundError(tt.err); got != tt.notFound {
				t.Errorf("IsNotFoundError = %v, want %v", got, tt.notFound)
			}
			if got := IsValidationError(tt.err); got != tt.validation {
				t.Errorf("IsValidationError = %v, want %v", got, tt.validation)
			}
			if got := IsBusinessRuleError(tt.err); got != tt.business {
				t.Errorf("IsBusinessRuleError = %v, want %v", got, tt.business)
			}
			if got := IsStateError(tt.err); got != tt.state {
				t.Errorf("IsStateError = %v, want %v", got, tt.state)
			}
			if got := IsRetryableError(tt.err); got != tt.retryable {
				t.Errorf("IsRetryableError = %v, want %v", got, tt.retryable)
			}
		})
	}
}
