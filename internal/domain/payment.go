package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentStatus represents the lifecycle state of a payment
type PaymentStatus string

const (
	PaymentStatusPending           PaymentStatus = "pending"
	PaymentStatusProcessing        PaymentStatus = "processing"
	PaymentStatusCompleted         PaymentStatus = "completed"
	PaymentStatusFailed            PaymentStatus = "failed"
	PaymentStatusCancelled         PaymentStatus = "cancelled"
	PaymentStatusRefunded          PaymentStatus = "refunded"
	PaymentStatusPartiallyRefunded PaymentStatus = "partially_refunded"
)

// paymentTransitions lists the edges reachable through RecordTransition.
// Refund-driven edges live in refundTransitions and are only taken by ApplyProcessedRefund.
var paymentTransitions = map[PaymentStatus][]PaymentStatus{
	PaymentStatusPending:    {PaymentStatusProcessing, PaymentStatusFailed, PaymentStatusCancelled},
	PaymentStatusProcessing: {PaymentStatusCompleted, PaymentStatusFailed, PaymentStatusCancelled},
}

var refundTransitions = map[PaymentStatus][]PaymentStatus{
	PaymentStatusCompleted:         {PaymentStatusRefunded, PaymentStatusPartiallyRefunded},
	PaymentStatusPartiallyRefunded: {PaymentStatusRefunded, PaymentStatusPartiallyRefunded},
}

// Valid reports whether s is a known payment status
func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusProcessing, PaymentStatusCompleted,
		PaymentStatusFailed, PaymentStatusCancelled, PaymentStatusRefunded,
		PaymentStatusPartiallyRefunded:
		return true
	}
	return false
}

// IsTerminal reports whether no further transition can leave s
func (s PaymentStatus) IsTerminal() bool {
	return s == PaymentStatusCancelled || s == PaymentStatusRefunded || s == PaymentStatusFailed
}

// CanTransitionTo reports whether next is reachable from s via a gateway or operator event
func (s PaymentStatus) CanTransitionTo(next PaymentStatus) bool {
	return contains(paymentTransitions[s], next)
}

// CanRefundTransitionTo reports whether next is reachable from s by processing a refund
func (s PaymentStatus) CanRefundTransitionTo(next PaymentStatus) bool {
	return contains(refundTransitions[s], next)
}

// IsRevenue reports whether a payment in this status counts toward a vendor's receivables
func (s PaymentStatus) IsRevenue() bool {
	return s == PaymentStatusCompleted || s == PaymentStatusPartiallyRefunded || s == PaymentStatusRefunded
}

func contains(list []PaymentStatus, s PaymentStatus) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// PaymentMethodKind is the tag of the payment method variant
type PaymentMethodKind string

const (
	PaymentMethodCard       PaymentMethodKind = "card"
	PaymentMethodUPI        PaymentMethodKind = "upi"
	PaymentMethodNetbanking PaymentMethodKind = "netbanking"
	PaymentMethodWallet     PaymentMethodKind = "wallet"
	PaymentMethodCash       PaymentMethodKind = "cash"
)

// Valid reports whether k is a supported payment method
func (k PaymentMethodKind) Valid() bool {
	switch k {
	case PaymentMethodCard, PaymentMethodUPI, PaymentMethodNetbanking, PaymentMethodWallet, PaymentMethodCash:
		return true
	}
	return false
}

// CardDetails is only present on card payments
type CardDetails struct {
	CardType string `json:"card_type"`
	BankName string `json:"bank_name"`
	Last4    string `json:"last4"`
}

// PaymentMethod is a tagged variant over the supported methods
type PaymentMethod struct {
	Kind    PaymentMethodKind `json:"kind"`
	Gateway string            `json:"gateway"`
	Card    *CardDetails      `json:"card,omitempty"`
}

// Validate checks the variant is consistent with its tag
func (m PaymentMethod) Validate() error {
	if !m.Kind.Valid() {
		return NewDomainError(ErrorCodeValidationFailed, "unsupported payment method").
			WithDetail("kind", string(m.Kind))
	}
	if m.Kind == PaymentMethodCard && m.Card == nil {
		return NewDomainError(ErrorCodeValidationMissingField, "card details required for card payments")
	}
	if m.Kind != PaymentMethodCard && m.Card != nil {
		return NewDomainError(ErrorCodeValidationFailed, "card details only allowed for card payments").
			WithDetail("kind", string(m.Kind))
	}
	if m.Card != nil && len(m.Card.Last4) != 4 {
		return NewDomainError(ErrorCodeValidationFailed, "card last4 must be 4 digits")
	}
	return nil
}

// Amount holds the pre-computed charge breakdown. FinalAmount is always
// BaseAmount + TaxAmount - DiscountAmount.
type Amount struct {
	BaseAmount     decimal.Decimal `json:"base_amount"`
	TaxAmount      decimal.Decimal `json:"tax_amount"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	FinalAmount    decimal.Decimal `json:"final_amount"`
	Currency       string          `json:"currency"`
}

// NewAmount computes FinalAmount from its parts and validates the result
func NewAmount(base, tax, discount decimal.Decimal, currency string) (Amount, error) {
	a := Amount{
		BaseAmount:     base,
		TaxAmount:      tax,
		DiscountAmount: discount,
		FinalAmount:    base.Add(tax).Sub(discount),
		Currency:       currency,
	}
	if err := a.Validate(); err != nil {
		return Amount{}, err
	}
	return a, nil
}

// Validate checks the amount invariants
func (a Amount) Validate() error {
	if a.Currency == "" {
		return NewDomainError(ErrorCodeValidationMissingField, "currency is required")
	}
	if a.BaseAmount.IsNegative() || a.TaxAmount.IsNegative() || a.DiscountAmount.IsNegative() {
		return NewDomainError(ErrorCodeValidationAmountInvalid, "amount components must not be negative")
	}
	if !a.FinalAmount.Equal(a.BaseAmount.Add(a.TaxAmount).Sub(a.DiscountAmount)) {
		return NewDomainError(ErrorCodeValidationAmountInvalid, "final amount must equal base + tax - discount").
			WithDetail("final_amount", a.FinalAmount.String())
	}
	if a.FinalAmount.IsNegative() {
		return NewDomainError(ErrorCodeValidationAmountInvalid, "final amount must not be negative").
			WithDetail("final_amount", a.FinalAmount.String())
	}
	return nil
}

// PaymentTimestamps are each set at most once
type PaymentTimestamps struct {
	Initiated time.Time  `json:"initiated"`
	Processed *time.Time `json:"processed,omitempty"`
	Completed *time.Time `json:"completed,omitempty"`
	Failed    *time.Time `json:"failed,omitempty"`
	Cancelled *time.Time `json:"cancelled,omitempty"`
}

// latest returns the most recent timestamp that has been set
func (t PaymentTimestamps) latest() time.Time {
	latest := t.Initiated
	for _, ts := range []*time.Time{t.Processed, t.Completed, t.Failed, t.Cancelled} {
		if ts != nil && ts.After(latest) {
			latest = *ts
		}
	}
	return latest
}

// slot returns the timestamp field that a transition into status sets
func (t *PaymentTimestamps) slot(status PaymentStatus) **time.Time {
	switch status {
	case PaymentStatusProcessing:
		return &t.Processed
	case PaymentStatusCompleted:
		return &t.Completed
	case PaymentStatusFailed:
		return &t.Failed
	case PaymentStatusCancelled:
		return &t.Cancelled
	}
	return nil
}

// Payment is the ledger aggregate: one per charge attempt
type Payment struct {
	ID                 string            `json:"id"`
	BookingID          string            `json:"booking_id"`
	UserID             string            `json:"user_id"`
	VendorID           string            `json:"vendor_id"`
	StationID          string            `json:"station_id"`
	Amount             Amount            `json:"amount"`
	Method             PaymentMethod     `json:"payment_method"`
	TransactionDetails map[string]string `json:"transaction_details"`
	Status             PaymentStatus     `json:"status"`
	Timestamps         PaymentTimestamps `json:"timestamps"`
	Refunds            []Refund          `json:"refunds"`
	TotalRefunded      decimal.Decimal   `json:"total_refunded"`
	NetAmount          decimal.Decimal   `json:"net_amount"`
	Settlement         SettlementTag     `json:"settlement"`
	IdempotencyKey     string            `json:"idempotency_key,omitempty"`
	Version            int64             `json:"version"`
	CreatedAt          time.Time         `json:"created_at"`
	UpdatedAt          time.Time         `json:"updated_at"`
}

// Transition moves the payment to next and stamps the matching timestamp.
// It returns applied=false when the transition was already recorded.
func (p *Payment) Transition(next PaymentStatus, at time.Time) (applied bool, err error) {
	slot := p.Timestamps.slot(next)
	if slot == nil {
		return false, NewDomainError(ErrorCodeInvalidTransition, "status is not reachable through a transition").
			WithDetail("from", string(p.Status)).
			WithDetail("to", string(next))
	}

	// At-least-once delivery: the timestamp already being set means we have seen this event
	if p.Status == next || *slot != nil {
		return false, nil
	}

	if !p.Status.CanTransitionTo(next) {
		return false, NewDomainError(ErrorCodeInvalidTransition, "invalid payment status transition").
			WithDetail("from", string(p.Status)).
			WithDetail("to", string(next))
	}

	if at.Before(p.Timestamps.latest()) {
		return false, NewDomainError(ErrorCodeInvalidTransition, "transition timestamp precedes payment history").
			WithDetail("at", at.Format(time.RFC3339Nano))
	}

	ts := at
	*slot = &ts
	p.Status = next
	p.UpdatedAt = at
	return true, nil
}

// RemainingRefundable is the net amount minus refunds still in flight
func (p *Payment) RemainingRefundable() decimal.Decimal {
	remaining := p.NetAmount
	for _, r := range p.Refunds {
		if r.Status == RefundStatusPending {
			remaining = remaining.Sub(r.Amount)
		}
	}
	return remaining
}

// CanBeRefunded treats partially refunded payments with a balance as refundable. A payment
// held by a settlement request is not refundable until the request fails.
func (p *Payment) CanBeRefunded() bool {
	return (p.Status == PaymentStatusCompleted || p.Status == PaymentStatusPartiallyRefunded) &&
		p.NetAmount.IsPositive() && p.Settlement.IsNone()
}

// HasPendingRefund reports whether a refund is waiting on the gateway
func (p *Payment) HasPendingRefund() bool {
	for _, r := range p.Refunds {
		if r.Status == RefundStatusPending {
			return true
		}
	}
	return false
}

// FindRefund returns the refund with the given id
func (p *Payment) FindRefund(refundID string) (*Refund, bool) {
	for i := range p.Refunds {
		if p.Refunds[i].ID == refundID {
			return &p.Refunds[i], true
		}
	}
	return nil, false
}

// FindRefundByIdempotencyKey returns a refund previously created with key
func (p *Payment) FindRefundByIdempotencyKey(key string) (*Refund, bool) {
	if key == "" {
		return nil, false
	}
	for i := range p.Refunds {
		if p.Refunds[i].IdempotencyKey == key {
			return &p.Refunds[i], true
		}
	}
	return nil, false
}

// AppendRefund validates and appends a pending refund
func (p *Payment) AppendRefund(r Refund) error {
	if p.Status != PaymentStatusCompleted && p.Status != PaymentStatusPartiallyRefunded {
		return NewDomainError(ErrorCodeInvalidState, "payment is not in a refundable state").
			WithDetail("status", string(p.Status))
	}
	// The claimed amount of a request is fixed, so its payments cannot shrink
	if !p.Settlement.IsNone() {
		return NewDomainError(ErrorCodeInvalidState, "payment is held by a settlement request").
			WithDetail("settlement", p.Settlement.String())
	}
	if !r.Amount.IsPositive() {
		return NewDomainError(ErrorCodeValidationAmountInvalid, "refund amount must be positive")
	}
	if r.Amount.GreaterThan(p.RemainingRefundable()) {
		return NewDomainError(ErrorCodeRefundExceedsBalance, "refund amount exceeds remaining balance").
			WithDetail("requested", r.Amount.String()).
			WithDetail("remaining", p.RemainingRefundable().String())
	}
	r.Status = RefundStatusPending
	p.Refunds = append(p.Refunds, r)
	p.UpdatedAt = r.CreatedAt
	return nil
}

// ApplyProcessedRefund marks a refund processed and recomputes the balance.
// It returns applied=false when the refund had already been processed.
func (p *Payment) ApplyProcessedRefund(refundID, reference string, at time.Time) (applied bool, err error) {
	refund, ok := p.FindRefund(refundID)
	if !ok {
		return false, NewDomainError(ErrorCodeRefundNotFound, "refund not found").
			WithDetail("refund_id", refundID)
	}
	switch refund.Status {
	case RefundStatusProcessed:
		return false, nil
	case RefundStatusFailed:
		return false, NewDomainError(ErrorCodeInvalidState, "refund already failed").
			WithDetail("refund_id", refundID)
	}

	ts := at
	refund.Status = RefundStatusProcessed
	refund.ProcessedAt = &ts
	if reference != "" {
		refund.Reference = reference
	}
	p.recomputeBalance()

	next := PaymentStatusPartiallyRefunded
	if p.NetAmount.IsZero() {
		next = PaymentStatusRefunded
	}
	if !p.Status.CanRefundTransitionTo(next) {
		return false, NewDomainError(ErrorCodeInvalidTransition, "invalid refund status transition").
			WithDetail("from", string(p.Status)).
			WithDetail("to", string(next))
	}
	p.Status = next
	p.UpdatedAt = at
	return true, nil
}

// MarkRefundFailed records a gateway rejection of a pending refund
func (p *Payment) MarkRefundFailed(refundID string, at time.Time) (applied bool, err error) {
	refund, ok := p.FindRefund(refundID)
	if !ok {
		return false, NewDomainError(ErrorCodeRefundNotFound, "refund not found").
			WithDetail("refund_id", refundID)
	}
	switch refund.Status {
	case RefundStatusFailed:
		return false, nil
	case RefundStatusProcessed:
		return false, NewDomainError(ErrorCodeInvalidState, "refund already processed").
			WithDetail("refund_id", refundID)
	}
	ts := at
	refund.Status = RefundStatusFailed
	refund.ProcessedAt = &ts
	p.UpdatedAt = at
	return true, nil
}

func (p *Payment) recomputeBalance() {
	total := decimal.Zero
	for _, r := range p.Refunds {
		if r.Status == RefundStatusProcessed {
			total = total.Add(r.Amount)
		}
	}
	p.TotalRefunded = total
	p.NetAmount = p.Amount.FinalAmount.Sub(total)
}

// CompletedOn reports whether the payment completed within [start, end)
func (p *Payment) CompletedOn(start, end time.Time) bool {
	c := p.Timestamps.Completed
	return c != nil && !c.Before(start) && c.Before(end)
}

// Clone returns a deep copy so stores never share mutable state with callers
func (p *Payment) Clone() *Payment {
	cp := *p
	if p.Method.Card != nil {
		card := *p.Method.Card
		cp.Method.Card = &card
	}
	if p.TransactionDetails != nil {
		cp.TransactionDetails = make(map[string]string, len(p.TransactionDetails))
		for k, v := range p.TransactionDetails {
			cp.TransactionDetails[k] = v
		}
	}
	cp.Refunds = make([]Refund, len(p.Refunds))
	for i, r := range p.Refunds {
		cp.Refunds[i] = r.clone()
	}
	cp.Timestamps.Processed = cloneTime(p.Timestamps.Processed)
	cp.Timestamps.Completed = cloneTime(p.Timestamps.Completed)
	cp.Timestamps.Failed = cloneTime(p.Timestamps.Failed)
	cp.Timestamps.Cancelled = cloneTime(p.Timestamps.Cancelled)
	return &cp
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

// RefundStatus is the async lifecycle of a refund
type RefundStatus string

const (
	RefundStatusPending   RefundStatus = "pending"
	RefundStatusProcessed RefundStatus = "processed"
	RefundStatusFailed    RefundStatus = "failed"
)

// Refund is owned by its Payment and never deleted
type Refund struct {
	ID             string          `json:"id"`
	Amount         decimal.Decimal `json:"amount"`
	Reason         string          `json:"reason"`
	Status         RefundStatus    `json:"status"`
	ProcessedAt    *time.Time      `json:"processed_at,omitempty"`
	Reference      string          `json:"refund_reference,omitempty"`
	IdempotencyKey string          `json:"idempotency_key,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}

func (r Refund) clone() Refund {
	r.ProcessedAt = cloneTime(r.ProcessedAt)
	return r
}
