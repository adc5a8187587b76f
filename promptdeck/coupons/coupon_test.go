package coupons

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func intPtr(n int) *int {
	return &n
}

func timePtr(t time.Time) *time.Time {
	return &t
}

func TestStatus(t *testing.T) {
	now := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		coupon Coupon
		want   Status
	}{
		{"unlimited no expiry", Coupon{}, StatusActive},
		{"uses left", Coupon{MaxUses: intPtr(10), UsedCount: 9}, StatusActive},
		{"exhausted", Coupon{MaxUses: intPtr(10), UsedCount: 10}, StatusExhausted},
		{"expires later", Coupon{ExpiresAt: timePtr(now.Add(time.Hour))}, StatusActive},
		{"expired", Coupon{ExpiresAt: timePtr(now.Add(-time.Hour))}, StatusExpired},
		{"expires exactly now", Coupon{ExpiresAt: timePtr(now)}, StatusExpired},
		{"expired and exhausted", Coupon{ExpiresAt: timePtr(now.Add(-time.Hour)), MaxUses: intPtr(1), UsedCount: 1}, StatusExpired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.coupon.Status(now))
		})
	}
}

func TestDiscount(t *testing.T) {
	d := decimal.RequireFromString

	tests := []struct {
		name   string
		coupon Coupon
		amount string
		want   string
	}{
		{"percentage", Coupon{Type: TypePercentage, Value: d("25")}, "40", "10"},
		{"percentage rounds to cents", Coupon{Type: TypePercentage, Value: d("15")}, "9.99", "1.5"},
		{"percentage above 100 is clamped", Coupon{Type: TypePercentage, Value: d("150")}, "20", "20"},
		{"fixed", Coupon{Type: TypeFixed, Value: d("5")}, "19", "5"},
		{"fixed larger than amount", Coupon{Type: TypeFixed, Value: d("50")}, "19", "19"},
		{"zero amount", Coupon{Type: TypeFixed, Value: d("5")}, "0", "0"},
		{"unknown type", Coupon{Type: "bogus", Value: d("5")}, "19", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.coupon.Discount(d(tt.amount))
			assert.True(t, d(tt.want).Equal(got), "got %s want %s", got, tt.want)
		})
	}
}

func TestAppliesTo(t *testing.T) {
	assert.True(t, (&Coupon{Scope: ScopeAll}).AppliesTo(ScopeTokens))
	assert.True(t, (&Coupon{Scope: ScopePlans}).AppliesTo(ScopePlans))
	assert.False(t, (&Coupon{Scope: ScopePlans}).AppliesTo(ScopeTokens))
}

func TestNormalizeCode(t *testing.T) {
	assert.Equal(t, "SPRING25", NormalizeCode("  spring25 "))
}
