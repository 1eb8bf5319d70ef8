package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettlementTag_RoundTrip(t *testing.T) {
	tests := []struct {
		name string
		tag  SettlementTag
		str  string
	}{
		{"none", UnclaimedTag(), "none"},
		{"claimed", ClaimedTag("req-1"), "claimed:req-1"},
		{"settled", SettledTag("req-2"), "settled:req-2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.str, tt.tag.String())
			parsed, err := ParseSettlementTag(tt.str)
			require.NoError(t, err)
			assert.Equal(t, tt.tag, parsed)
		})
	}
}

func TestParseSettlementTag_Invalid(t *testing.T) {
	for _, in := range []string{"claimed", "claimed:", "paid:req-1", "settled"} {
		t.Run(in, func(t *testing.T) {
			_, err := ParseSettlementTag(in)
			assert.Error(t, err)
		})
	}

	tag, err := ParseSettlementTag("")
	require.NoError(t, err)
	assert.True(t, tag.IsNone())
}

func TestSettlementStatus(t *testing.T) {
	assert.True(t, SettlementStatusPending.IsOpen())
	assert.True(t, SettlementStatusProcessing.IsOpen())
	assert.False(t, SettlementStatusSettled.IsOpen())
	assert.True(t, SettlementStatusSettled.IsFinal())
	assert.True(t, SettlementStatusFailed.IsFinal())
	assert.False(t, SettlementStatusFailed.IsOpen())
}

func TestDailySettlementBucket_Balanced(t *testing.T) {
	b := DailySettlementBucket{
		TotalToBeReceived:   decimal.NewFromInt(600),
		PaymentSettled:      decimal.NewFromInt(100),
		InSettlementProcess: decimal.NewFromInt(200),
		PendingSettlement:   decimal.NewFromInt(300),
	}
	assert.True(t, b.Balanced())

	b.PendingSettlement = decimal.NewFromInt(250)
	assert.False(t, b.Balanced())

	negative := DailySettlementBucket{
		TotalToBeReceived:   decimal.NewFromInt(100),
		PaymentSettled:      decimal.NewFromInt(150),
		InSettlementProcess: decimal.Zero,
		PendingSettlement:   decimal.NewFromInt(-50),
	}
	assert.False(t, negative.Balanced())
}

func TestSettlementRequest_Clone(t *testing.T) {
	r := &SettlementRequest{ID: "req-1", ClaimedPaymentIDs: []string{"a", "b"}}
	cp := r.Clone()
	cp.ClaimedPaymentIDs[0] = "z"
	assert.Equal(t, "a", r.ClaimedPaymentIDs[0])
}
