package billing

import (
	"codeberg.org/promptdeck/server/promptdeck/billing"
	"codeberg.org/promptdeck/server/promptdeck/coupons"
)

// purchasable item kinds
const (
	ItemPlan    = "plan"
	ItemPackage = "package"
)

type PlansResponse struct {
	Plans []billing.Plan `json:"plans"`
}

type OrganizationPlansResponse struct {
	Plans []billing.OrganizationPlan `json:"plans"`
}

type PackagesResponse struct {
	Packages []billing.TokenPackage `json:"packages"`
}

type PromotionResponse struct {
	Promotion *billing.Promotion `json:"promotion"`
}

type ValidateCouponRequest struct {
	Code  string `json:"code" binding:"required"`
	Scope string `json:"scope" binding:"omitempty,oneof=plans tokens"`
}

type ValidateCouponResponse struct {
	Valid  bool          `json:"valid"`
	Reason string        `json:"reason,omitempty"`
	Coupon *coupons.View `json:"coupon,omitempty"`
}

type QuoteRequest struct {
	ItemType   string `json:"item_type" binding:"required,oneof=plan package"`
	ItemID     string `json:"item_id" binding:"required"`
	CouponCode string `json:"coupon_code"`
}
