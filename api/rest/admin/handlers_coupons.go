package admin

import (
	stderrors "errors"
	"net/http"
	"time"

	"codeberg.org/promptdeck/server/internal/errors"
	"codeberg.org/promptdeck/server/promptdeck/coupons"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

func ListCoupons(store CouponStore, now func() time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		list, err := store.List(c.Request.Context())
		if err != nil {
			errors.InternalError(c, "failed to list coupons", err)
			return
		}

		at := now()
		views := make([]coupons.View, 0, len(list))
		for i := range list {
			views = append(views, list[i].View(at))
		}

		c.JSON(http.StatusOK, gin.H{"coupons": views})
	}
}

func CreateCoupon(store CouponStore, log AuditLog, now func() time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req coupons.CreateCouponRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			errors.ValidationError(c, err)
			return
		}

		if msg := checkCouponValue(req.Type, req.Value); msg != "" {
			errors.BadRequest(c, msg, nil)
			return
		}

		coupon, err := store.Create(c.Request.Context(), req)
		if stderrors.Is(err, coupons.ErrCouponExists) {
			errors.Conflict(c, "a coupon with this code already exists")
			return
		}

		if err != nil {
			errors.InternalError(c, "failed to create coupon", err)
			return
		}

		recordAudit(c, log, "coupon.create", "coupon", coupon.ID, map[string]any{
			"code":  coupon.Code,
			"type":  coupon.Type,
			"value": coupon.Value.String(),
			"scope": coupon.Scope,
		})

		c.JSON(http.StatusCreated, coupon.View(now()))
	}
}

func UpdateCoupon(store CouponStore, log AuditLog, now func() time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		couponID, ok := errors.ValidatePathUUID(c, "id")
		if !ok {
			return
		}

		var req coupons.UpdateCouponRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			errors.ValidationError(c, err)
			return
		}

		if req.Value != nil && !req.Value.IsPositive() {
			errors.BadRequest(c, "value must be positive", nil)
			return
		}

		coupon, err := store.Update(c.Request.Context(), couponID, req)
		if stderrors.Is(err, coupons.ErrCouponNotFound) {
			errors.NotFound(c, "coupon")
			return
		}

		if err != nil {
			errors.InternalError(c, "failed to update coupon", err)
			return
		}

		recordAudit(c, log, "coupon.update", "coupon", coupon.ID, map[string]any{
			"code":  coupon.Code,
			"value": coupon.Value.String(),
			"scope": coupon.Scope,
		})

		c.JSON(http.StatusOK, coupon.View(now()))
	}
}

func DeleteCoupon(store CouponStore, log AuditLog) gin.HandlerFunc {
	return func(c *gin.Context) {
		couponID, ok := errors.ValidatePathUUID(c, "id")
		if !ok {
			return
		}

		err := store.Delete(c.Request.Context(), couponID)
		if stderrors.Is(err, coupons.ErrCouponNotFound) {
			errors.NotFound(c, "coupon")
			return
		}

		if err != nil {
			errors.InternalError(c, "failed to delete coupon", err)
			return
		}

		recordAudit(c, log, "coupon.delete", "coupon", couponID, nil)

		c.JSON(http.StatusOK, MessageResponse{Message: "coupon deleted"})
	}
}

// returns a reason the value is unusable for the coupon type, or ""
func checkCouponValue(kind string, value decimal.Decimal) string {
	if !value.IsPositive() {
		return "value must be positive"
	}

	if kind == coupons.TypePercentage && value.GreaterThan(hundred) {
		return "percentage coupons cannot exceed 100"
	}

	return ""
}
