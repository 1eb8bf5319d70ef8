package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// SettlementRequestType distinguishes scheduled payouts from merchant-triggered ones
type SettlementRequestType string

const (
	SettlementRequestNormal SettlementRequestType = "normal"
	SettlementRequestUrgent SettlementRequestType = "urgent"
)

// SettlementStatus advances forward only: pending -> processing -> settled, or -> failed
type SettlementStatus string

const (
	SettlementStatusPending    SettlementStatus = "pending"
	SettlementStatusProcessing SettlementStatus = "processing"
	SettlementStatusSettled    SettlementStatus = "settled"
	SettlementStatusFailed     SettlementStatus = "failed"
)

// IsOpen reports whether the request still holds claims that are not yet paid out
func (s SettlementStatus) IsOpen() bool {
	return s == SettlementStatusPending || s == SettlementStatusProcessing
}

// IsFinal reports whether the request can no longer change
func (s SettlementStatus) IsFinal() bool {
	return s == SettlementStatusSettled || s == SettlementStatusFailed
}

// SettlementRequest is a batch payout claim over one vendor's transactions of one day
type SettlementRequest struct {
	ID                string                `json:"id"`
	VendorID          string                `json:"vendor_id"`
	TransactionDate   time.Time             `json:"transaction_date"`
	RequestedAt       time.Time             `json:"requested_at"`
	Type              SettlementRequestType `json:"request_type"`
	ClaimedPaymentIDs []string              `json:"claimed_payment_ids"`
	ClaimedAmount     decimal.Decimal       `json:"claimed_amount"`
	Currency          string                `json:"currency"`
	Status            SettlementStatus      `json:"status"`
	ProcessedAt       *time.Time            `json:"processed_at,omitempty"`
	FailureReason     string                `json:"failure_reason,omitempty"`
	UpdatedAt         time.Time             `json:"updated_at"`
}

// Clone returns a deep copy
func (r *SettlementRequest) Clone() *SettlementRequest {
	cp := *r
	cp.ClaimedPaymentIDs = append([]string(nil), r.ClaimedPaymentIDs...)
	cp.ProcessedAt = cloneTime(r.ProcessedAt)
	return &cp
}

// SettlementTagState is the claim state stored on a payment
type SettlementTagState string

const (
	SettlementTagNone    SettlementTagState = "none"
	SettlementTagClaimed SettlementTagState = "claimed"
	SettlementTagSettled SettlementTagState = "settled"
)

// SettlementTag records which request, if any, currently claims a payment
type SettlementTag struct {
	State     SettlementTagState `json:"state"`
	RequestID string             `json:"request_id,omitempty"`
}

// UnclaimedTag is the tag of a payment no request holds
func UnclaimedTag() SettlementTag {
	return SettlementTag{State: SettlementTagNone}
}

// ClaimedTag marks a payment as held by an in-flight request
func ClaimedTag(requestID string) SettlementTag {
	return SettlementTag{State: SettlementTagClaimed, RequestID: requestID}
}

// SettledTag marks a payment as paid out by requestID
func SettledTag(requestID string) SettlementTag {
	return SettlementTag{State: SettlementTagSettled, RequestID: requestID}
}

// IsNone reports whether no request holds the payment
func (t SettlementTag) IsNone() bool {
	return t.State == "" || t.State == SettlementTagNone
}

// String renders the tag as none, claimed:<id> or settled:<id>
func (t SettlementTag) String() string {
	if t.IsNone() {
		return string(SettlementTagNone)
	}
	return fmt.Sprintf("%s:%s", t.State, t.RequestID)
}

// ParseSettlementTag is the inverse of SettlementTag.String
func ParseSettlementTag(s string) (SettlementTag, error) {
	if s == "" || s == string(SettlementTagNone) {
		return UnclaimedTag(), nil
	}
	state, id, ok := strings.Cut(s, ":")
	if !ok || id == "" {
		return SettlementTag{}, fmt.Errorf("malformed settlement tag %q", s)
	}
	switch SettlementTagState(state) {
	case SettlementTagClaimed, SettlementTagSettled:
		return SettlementTag{State: SettlementTagState(state), RequestID: id}, nil
	}
	return SettlementTag{}, fmt.Errorf("unknown settlement tag state %q", state)
}

// DailySettlementBucket partitions a vendor's receivables for one transaction date.
// PaymentSettled + InSettlementProcess + PendingSettlement == TotalToBeReceived.
type DailySettlementBucket struct {
	VendorID            string          `json:"vendor_id"`
	Date                string          `json:"date"`
	Currency            string          `json:"currency,omitempty"`
	TotalToBeReceived   decimal.Decimal `json:"total_to_be_received"`
	PaymentSettled      decimal.Decimal `json:"payment_settled"`
	InSettlementProcess decimal.Decimal `json:"in_settlement_process"`
	PendingSettlement   decimal.Decimal `json:"pending_settlement"`
	PaymentCount        int             `json:"payment_count"`
	PendingPaymentIDs   []string        `json:"-"`
}

// Balanced checks the partition invariant
func (b DailySettlementBucket) Balanced() bool {
	sum := b.PaymentSettled.Add(b.InSettlementProcess).Add(b.PendingSettlement)
	return sum.Equal(b.TotalToBeReceived) &&
		!b.PaymentSettled.IsNegative() &&
		!b.InSettlementProcess.IsNegative() &&
		!b.PendingSettlement.IsNegative()
}
