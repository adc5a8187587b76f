package coupons

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// expiry wins over exhaustion when both apply
func (c *Coupon) Status(now time.Time) Status {
	if c.ExpiresAt != nil && !now.Before(*c.ExpiresAt) {
		return StatusExpired
	}

	if c.MaxUses != nil && c.UsedCount >= *c.MaxUses {
		return StatusExhausted
	}

	return StatusActive
}

func (c *Coupon) View(now time.Time) View {
	return View{Coupon: *c, Status: c.Status(now)}
}

// reports whether the coupon can be used on a purchase of the given scope
func (c *Coupon) AppliesTo(scope string) bool {
	return c.Scope == ScopeAll || c.Scope == scope
}

// discount on amount, never more than amount itself
func (c *Coupon) Discount(amount decimal.Decimal) decimal.Decimal {
	if !amount.IsPositive() || !c.Value.IsPositive() {
		return decimal.Zero
	}

	var d decimal.Decimal

	switch c.Type {
	case TypePercentage:
		d = amount.Mul(decimal.Min(c.Value, hundred)).Div(hundred).Round(2)
	case TypeFixed:
		d = c.Value
	default:
		return decimal.Zero
	}

	return decimal.Min(d, amount)
}

// codes are matched case-insensitively and stored upper-case
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
