package billing

import (
	"codeberg.org/promptdeck/server/promptdeck/coupons"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// applies the promotion (token packages only) and then the coupon to the remaining amount
func BuildQuote(item, scope, currency string, price decimal.Decimal, promo *Promotion, coupon *coupons.Coupon) Quote {
	q := Quote{
		Item:              item,
		Scope:             scope,
		Subtotal:          price,
		PromotionDiscount: decimal.Zero,
		CouponDiscount:    decimal.Zero,
		Currency:          currency,
	}

	remaining := price

	if promo != nil && scope == coupons.ScopeTokens && promo.DiscountPercent.IsPositive() {
		pct := decimal.Min(promo.DiscountPercent, hundred)
		q.PromotionDiscount = remaining.Mul(pct).Div(hundred).Round(2)
		q.Promotion = promo.Name
		remaining = remaining.Sub(q.PromotionDiscount)
	}

	if coupon != nil && coupon.AppliesTo(scope) {
		q.CouponDiscount = coupon.Discount(remaining)
		q.Coupon = coupon.Code
		remaining = remaining.Sub(q.CouponDiscount)
	}

	if remaining.IsNegative() {
		remaining = decimal.Zero
	}

	q.Total = remaining

	return q
}
