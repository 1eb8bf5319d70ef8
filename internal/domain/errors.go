package domain

import (
	"errors"
	"fmt"
)

// ErrorCode represents a machine-readable error code
type ErrorCode string

const (
	// Lookup Errors (*_NOT_FOUND)
	ErrorCodePaymentNotFound    ErrorCode = "PAYMENT_NOT_FOUND"
	ErrorCodeRefundNotFound     ErrorCode = "REFUND_NOT_FOUND"
	ErrorCodeSettlementNotFound ErrorCode = "SETTLEMENT_NOT_FOUND"

	// State machine Errors
	ErrorCodeInvalidTransition ErrorCode = "INVALID_TRANSITION"
	ErrorCodeInvalidState      ErrorCode = "INVALID_STATE"

	// Business rule rejections
	ErrorCodeRefundExceedsBalance ErrorCode = "REFUND_EXCEEDS_BALANCE"
	ErrorCodeAmountMismatch       ErrorCode = "AMOUNT_MISMATCH"
	ErrorCodeNothingToSettle      ErrorCode = "NOTHING_TO_SETTLE"

	// Concurrency Errors (transient, retry)
	ErrorCodeConcurrentClaim  ErrorCode = "CONCURRENT_CLAIM"
	ErrorCodeConcurrentUpdate ErrorCode = "CONCURRENT_UPDATE"

	// Validation Errors (VALIDATION_*)
	ErrorCodeValidationFailed        ErrorCode = "VALIDATION_FAILED"
	ErrorCodeValidationAmountInvalid ErrorCode = "VALIDATION_AMOUNT_INVALID"
	ErrorCodeValidationMissingField  ErrorCode = "VALIDATION_MISSING_FIELD"

	// Idempotency Errors (IDEMPOTENCY_*)
	ErrorCodeIdempotencyConflict ErrorCode = "IDEMPOTENCY_CONFLICT"

	// Internal Errors (INTERNAL_*)
	ErrorCodeInternalError ErrorCode = "INTERNAL_ERROR"
	ErrorCodeDatabaseError ErrorCode = "INTERNAL_DATABASE_ERROR"
)

// DomainError represents a structured domain error with error code and context
type DomainError struct {
	Err     error
	Details map[string]interface{}
	Code    ErrorCode
	Message string
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is matches any DomainError carrying the same code, so sentinel values work with errors.Is
func (e *DomainError) Is(target error) bool {
	var t *DomainError
	if errors.As(target, &t) {
		return t.Code == e.Code
	}
	return false
}

// WithDetail adds a detail field to the error
func (e *DomainError) WithDetail(key string, value interface{}) *DomainError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// NewDomainError creates a new domain error
func NewDomainError(code ErrorCode, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
	}
}

// WrapError wraps an existing error with a domain error code
func WrapError(code ErrorCode, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
		Err:     err,
	}
}

// IsDomainError checks if an error is a DomainError with the given code
func IsDomainError(err error, code ErrorCode) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code == code
	}
	return false
}

// GetErrorCode extracts the error code from an error, returns empty string if not a DomainError
func GetErrorCode(err error) ErrorCode {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code
	}
	return ""
}

// IsNotFoundError checks if an error represents a "not found" condition
func IsNotFoundError(err error) bool {
	code := GetErrorCode(err)
	return code == ErrorCodePaymentNotFound ||
		code == ErrorCodeRefundNotFound ||
		code == ErrorCodeSettlementNotFound
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	code := GetErrorCode(err)
	return code == ErrorCodeValidationFailed ||
		code == ErrorCodeValidationAmountInvalid ||
		code == ErrorCodeValidationMissingField
}

// IsBusinessRuleError checks if an error is an expected rejection the caller should show as-is
func IsBusinessRuleError(err error) bool {
	code := GetErrorCode(err)
	return code == ErrorCodeRefundExceedsBalance ||
		code == ErrorCodeAmountMismatch ||
		code == ErrorCodeNothingToSettle
}

// IsStateError checks if an error came from the payment or settlement state machines
func IsStateError(err error) bool {
	code := GetErrorCode(err)
	return code == ErrorCodeInvalidTransition || code == ErrorCodeInvalidState
}

// IsRetryableError checks if the caller may retry the same request
func IsRetryableError(err error) bool {
	code := GetErrorCode(err)
	return code == ErrorCodeConcurrentClaim || code == ErrorCodeConcurrentUpdate
}

// Structured error instances, usable with errors.Is
var (
	ErrPaymentNotFound    = NewDomainError(ErrorCodePaymentNotFound, "payment not found")
	ErrRefundNotFound     = NewDomainError(ErrorCodeRefundNotFound, "refund not found")
	ErrSettlementNotFound = NewDomainError(ErrorCodeSettlementNotFound, "settlement request not found")

	ErrInvalidTransition = NewDomainError(ErrorCodeInvalidTransition, "invalid status transition")
	ErrInvalidState      = NewDomainError(ErrorCodeInvalidState, "invalid state for this operation")

	ErrRefundExceedsBalance = NewDomainError(ErrorCodeRefundExceedsBalance, "refund amount exceeds remaining balance")
	ErrAmountMismatch       = NewDomainError(ErrorCodeAmountMismatch, "requested amount does not match pending settlement")
	ErrNothingToSettle      = NewDomainError(ErrorCodeNothingToSettle, "nothing to settle for this date")

	ErrConcurrentClaim  = NewDomainError(ErrorCodeConcurrentClaim, "another settlement claimed these payments, retry")
	ErrConcurrentUpdate = NewDomainError(ErrorCodeConcurrentUpdate, "record was modified concurrently")

	ErrValidationFailed        = NewDomainError(ErrorCodeValidationFailed, "validation failed")
	ErrValidationAmountInvalid = NewDomainError(ErrorCodeValidationAmountInvalid, "invalid amount")
	ErrValidationMissingField  = NewDomainError(ErrorCodeValidationMissingField, "required field missing")

	ErrIdempotencyConflict = NewDomainError(ErrorCodeIdempotencyConflict, "idempotency key conflict")

	ErrInternalError = NewDomainError(ErrorCodeInternalError, "internal server error")
	ErrDatabaseError = NewDomainError(ErrorCodeDatabaseError, "database error")
)
