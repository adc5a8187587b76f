package admin

import (
	stderrors "errors"
	"net/http"

	"codeberg.org/promptdeck/server/internal/errors"
	"codeberg.org/promptdeck/server/promptdeck/billing"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

func ListPlans(store PlanStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		plans, err := store.ListPlans(c.Request.Context(), false)
		if err != nil {
			errors.InternalError(c, "failed to list plans", err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"plans": plans})
	}
}

func CreatePlan(store PlanStore, log AuditLog) gin.HandlerFunc {
	return func(c *gin.Context) {
		req, ok := bindPlan(c)
		if !ok {
			return
		}

		plan, err := store.CreatePlan(c.Request.Context(), req)
		if err != nil {
			errors.InternalError(c, "failed to create plan", err)
			return
		}

		recordAudit(c, log, "plan.create", "plan", plan.ID, planDetails(req))

		c.JSON(http.StatusCreated, plan)
	}
}

func UpdatePlan(store PlanStore, log AuditLog) gin.HandlerFunc {
	return func(c *gin.Context) {
		planID, ok := errors.ValidatePathUUID(c, "id")
		if !ok {
			return
		}

		req, ok := bindPlan(c)
		if !ok {
			return
		}

		plan, err := store.UpdatePlan(c.Request.Context(), planID, req)
		if stderrors.Is(err, billing.ErrPlanNotFound) {
			errors.NotFound(c, "plan")
			return
		}

		if err != nil {
			errors.InternalError(c, "failed to update plan", err)
			return
		}

		recordAudit(c, log, "plan.update", "plan", plan.ID, planDetails(req))

		c.JSON(http.StatusOK, plan)
	}
}

func bindPlan(c *gin.Context) (billing.UpsertPlanRequest, bool) {
	var req billing.UpsertPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errors.ValidationError(c, err)
		return req, false
	}

	if req.Price.IsNegative() || req.OveragePrice.IsNegative() {
		errors.BadRequest(c, "prices must not be negative", nil)
		return req, false
	}

	return req, true
}

func planDetails(req billing.UpsertPlanRequest) map[string]any {
	return map[string]any{
		"name":            req.Name,
		"price":           req.Price.String(),
		"currency":        req.Currency,
		"tokens_included": req.TokensIncluded,
		"active":          req.Active,
	}
}

func ListPromotions(store PlanStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		promotions, err := store.ListPromotions(c.Request.Context())
		if err != nil {
			errors.InternalError(c, "failed to list promotions", err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"promotions": promotions})
	}
}

// CreatePromotion godoc
// @Summary Start a token package promotion
// @Description Discount applies to token packages between starts_at and ends_at
// @Tags admin
// @Accept json
// @Produce json
// @Param request body billing.CreatePromotionRequest true "Promotion"
// @Success 201 {object} billing.Promotion
// @Failure 400 {object} errors.ErrorResponse
// @Router /api/v1/admin/promotions [post]
// @Security BearerAuth
func CreatePromotion(store PlanStore, log AuditLog) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req billing.CreatePromotionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			errors.ValidationError(c, err)
			return
		}

		if !req.DiscountPercent.IsPositive() || req.DiscountPercent.GreaterThan(hundred) {
			errors.BadRequest(c, "discount_percent must be in (0, 100]", nil)
			return
		}

		promotion, err := store.CreatePromotion(c.Request.Context(), req)
		if err != nil {
			errors.InternalError(c, "failed to create promotion", err)
			return
		}

		recordAudit(c, log, "promotion.create", "promotion", promotion.ID, map[string]any{
			"name":             req.Name,
			"discount_percent": req.DiscountPercent.String(),
			"starts_at":        req.StartsAt,
			"ends_at":          req.EndsAt,
		})

		c.JSON(http.StatusCreated, promotion)
	}
}

func DeactivatePromotion(store PlanStore, log AuditLog) gin.HandlerFunc {
	return func(c *gin.Context) {
		promotionID, ok := errors.ValidatePathUUID(c, "id")
		if !ok {
			return
		}

		err := store.DeactivatePromotion(c.Request.Context(), promotionID)
		if stderrors.Is(err, billing.ErrPromotionNotFound) {
			errors.NotFound(c, "promotion")
			return
		}

		if err != nil {
			errors.InternalError(c, "failed to deactivate promotion", err)
			return
		}

		recordAudit(c, log, "promotion.deactivate", "promotion", promotionID, nil)

		c.JSON(http.StatusOK, MessageResponse{Message: "promotion deactivated"})
	}
}
