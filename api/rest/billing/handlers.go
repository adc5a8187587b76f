package billing

import (
	stderrors "errors"
	"net/http"
	"time"

	"codeberg.org/promptdeck/server/internal/errors"
	"codeberg.org/promptdeck/server/promptdeck/billing"
	"codeberg.org/promptdeck/server/promptdeck/coupons"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// ListPlans godoc
// @Summary List active plans
// @Tags billing
// @Produce json
// @Success 200 {object} PlansResponse
// @Router /api/v1/billing/plans [get]
func ListPlans(catalog Catalog) gin.HandlerFunc {
	return func(c *gin.Context) {
		plans, err := catalog.ListPlans(c.Request.Context(), true)
		if err != nil {
			errors.InternalError(c, "failed to list plans", err)
			return
		}

		c.JSON(http.StatusOK, PlansResponse{Plans: plans})
	}
}

func ListOrganizationPlans(catalog Catalog) gin.HandlerFunc {
	return func(c *gin.Context) {
		plans, err := catalog.ListOrganizationPlans(c.Request.Context())
		if err != nil {
			errors.InternalError(c, "failed to list organization plans", err)
			return
		}

		c.JSON(http.StatusOK, OrganizationPlansResponse{Plans: plans})
	}
}

func ListPackages(catalog Catalog) gin.HandlerFunc {
	return func(c *gin.Context) {
		packages, err := catalog.ListPackages(c.Request.Context())
		if err != nil {
			errors.InternalError(c, "failed to list token packages", err)
			return
		}

		c.JSON(http.StatusOK, PackagesResponse{Packages: packages})
	}
}

func GetActivePromotion(catalog Catalog, now func() time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		promo, err := catalog.ActivePromotion(c.Request.Context(), now())
		if err != nil {
			errors.InternalError(c, "failed to load promotion", err)
			return
		}

		c.JSON(http.StatusOK, PromotionResponse{Promotion: promo})
	}
}

// ValidateCoupon godoc
// @Summary Validate a coupon code
// @Description Reports whether a code exists, is active and applies to the given scope
// @Tags billing
// @Accept json
// @Produce json
// @Param request body ValidateCouponRequest true "Coupon code"
// @Success 200 {object} ValidateCouponResponse
// @Failure 400 {object} errors.ErrorResponse
// @Router /api/v1/billing/coupons/validate [post]
// @Security BearerAuth
func ValidateCoupon(repo CouponLookup, now func() time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ValidateCouponRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			errors.ValidationError(c, err)
			return
		}

		coupon, err := repo.GetByCode(c.Request.Context(), req.Code)
		if stderrors.Is(err, coupons.ErrCouponNotFound) {
			c.JSON(http.StatusOK, ValidateCouponResponse{Valid: false, Reason: "not_found"})
			return
		}

		if err != nil {
			errors.InternalError(c, "failed to look up coupon", err)
			return
		}

		view := coupon.View(now())
		resp := ValidateCouponResponse{Valid: true, Coupon: &view}

		switch {
		case view.Status != coupons.StatusActive:
			resp.Valid = false
			resp.Reason = string(view.Status)
		case req.Scope != "" && !coupon.AppliesTo(req.Scope):
			resp.Valid = false
			resp.Reason = "wrong_scope"
		}

		c.JSON(http.StatusOK, resp)
	}
}

// QuotePurchase godoc
// @Summary Price a plan or token package
// @Description Applies the active token promotion and an optional coupon; nothing is redeemed
// @Tags billing
// @Accept json
// @Produce json
// @Param request body QuoteRequest true "Item to price"
// @Success 200 {object} billing.Quote
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /api/v1/billing/quote [post]
// @Security BearerAuth
func QuotePurchase(catalog Catalog, repo CouponLookup, now func() time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req QuoteRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			errors.ValidationError(c, err)
			return
		}

		ctx := c.Request.Context()
		at := now()

		var (
			scope, currency string
			price           decimal.Decimal
			tokens          int64
			promo           *billing.Promotion
		)

		switch req.ItemType {
		case ItemPlan:
			plan, err := catalog.GetPlan(ctx, req.ItemID)
			if stderrors.Is(err, billing.ErrPlanNotFound) || (err == nil && !plan.Active) {
				errors.NotFound(c, "plan")
				return
			}

			if err != nil {
				errors.InternalError(c, "failed to load plan", err)
				return
			}

			scope, currency, price, tokens = coupons.ScopePlans, plan.Currency, plan.Price, plan.TokensIncluded
		default:
			pkg, err := catalog.GetPackage(ctx, req.ItemID)
			if stderrors.Is(err, billing.ErrPackageNotFound) || (err == nil && !pkg.Active) {
				errors.NotFound(c, "token package")
				return
			}

			if err != nil {
				errors.InternalError(c, "failed to load token package", err)
				return
			}

			scope, currency, price, tokens = coupons.ScopeTokens, pkg.Currency, pkg.Price, pkg.Tokens

			promo, err = catalog.ActivePromotion(ctx, at)
			if err != nil {
				errors.InternalError(c, "failed to load promotion", err)
				return
			}
		}

		var coupon *coupons.Coupon

		if req.CouponCode != "" {
			found, err := repo.GetByCode(ctx, req.CouponCode)
			if stderrors.Is(err, coupons.ErrCouponNotFound) {
				errors.BadRequest(c, "coupon not found", nil)
				return
			}

			if err != nil {
				errors.InternalError(c, "failed to look up coupon", err)
				return
			}

			if found.Status(at) != coupons.StatusActive || !found.AppliesTo(scope) {
				errors.BadRequest(c, "coupon cannot be applied to this purchase", nil)
				return
			}

			coupon = found
		}

		quote := billing.BuildQuote(req.ItemID, scope, currency, price, promo, coupon)
		quote.Tokens = tokens

		c.JSON(http.StatusOK, quote)
	}
}
