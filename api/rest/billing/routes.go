package billing

import (
	"context"
	"time"

	"codeberg.org/promptdeck/server/promptdeck/billing"
	"codeberg.org/promptdeck/server/promptdeck/coupons"
	"github.com/gin-gonic/gin"
)

type Catalog interface {
	ListPlans(ctx context.Context, activeOnly bool) ([]billing.Plan, error)
	GetPlan(ctx context.Context, id string) (*billing.Plan, error)
	ListOrganizationPlans(ctx context.Context) ([]billing.OrganizationPlan, error)
	ListPackages(ctx context.Context) ([]billing.TokenPackage, error)
	GetPackage(ctx context.Context, id string) (*billing.TokenPackage, error)
	ActivePromotion(ctx context.Context, now time.Time) (*billing.Promotion, error)
}

type CouponLookup interface {
	GetByCode(ctx context.Context, code string) (*coupons.Coupon, error)
}

// prices are public; coupon checks and quotes require auth
func RegisterRoutes(public, authed *gin.RouterGroup, catalog Catalog, couponRepo CouponLookup) {
	b := public.Group("/billing")
	{
		b.GET("/plans", ListPlans(catalog))
		b.GET("/organization-plans", ListOrganizationPlans(catalog))
		b.GET("/packages", ListPackages(catalog))
		b.GET("/promotion", GetActivePromotion(catalog, time.Now))
	}

	a := authed.Group("/billing")
	{
		a.POST("/coupons/validate", ValidateCoupon(couponRepo, time.Now))
		a.POST("/quote", QuotePurchase(catalog, couponRepo, time.Now))
	}
}
