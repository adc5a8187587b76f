package admin

import (
	"context"
	"time"

	"codeberg.org/promptdeck/server/promptdeck/affiliates"
	"codeberg.org/promptdeck/server/promptdeck/audit"
	"codeberg.org/promptdeck/server/promptdeck/billing"
	"codeberg.org/promptdeck/server/promptdeck/catalog"
	"codeberg.org/promptdeck/server/promptdeck/coupons"
	"codeberg.org/promptdeck/server/promptdeck/emails"
	"codeberg.org/promptdeck/server/promptdeck/executions"
	"codeberg.org/promptdeck/server/promptdeck/settings"
	"codeberg.org/promptdeck/server/promptdeck/users"
	"github.com/gin-gonic/gin"
)

type CatalogStore interface {
	ListProviders(ctx context.Context) ([]catalog.Provider, error)
	ListModels(ctx context.Context, enabledOnly bool) ([]catalog.Model, error)
	UpdateModel(ctx context.Context, modelID string, req catalog.UpdateModelRequest) (*catalog.Model, error)
	ListTokenPrices(ctx context.Context) ([]catalog.TokenPrice, error)
	UpsertTokenPrice(ctx context.Context, req catalog.UpsertTokenPriceRequest) (*catalog.TokenPrice, error)
	DeleteTokenPrice(ctx context.Context, model string) error
}

type PlanStore interface {
	ListPlans(ctx context.Context, activeOnly bool) ([]billing.Plan, error)
	CreatePlan(ctx context.Context, req billing.UpsertPlanRequest) (*billing.Plan, error)
	UpdatePlan(ctx context.Context, id string, req billing.UpsertPlanRequest) (*billing.Plan, error)
	ListPromotions(ctx context.Context) ([]billing.Promotion, error)
	CreatePromotion(ctx context.Context, req billing.CreatePromotionRequest) (*billing.Promotion, error)
	DeactivatePromotion(ctx context.Context, id string) error
}

type UserAdmin interface {
	List(ctx context.Context, search string, limit, offset int) ([]users.User, int, error)
	GrantTokens(ctx context.Context, userID string, tokens int64) (*users.User, error)
}

type CouponStore interface {
	List(ctx context.Context) ([]coupons.Coupon, error)
	Create(ctx context.Context, req coupons.CreateCouponRequest) (*coupons.Coupon, error)
	Update(ctx context.Context, id string, req coupons.UpdateCouponRequest) (*coupons.Coupon, error)
	Delete(ctx context.Context, id string) error
}

type TemplateStore interface {
	ListTemplates(ctx context.Context) ([]emails.Template, error)
	CreateTemplate(ctx context.Context, req emails.UpsertTemplateRequest) (*emails.Template, error)
	UpdateTemplate(ctx context.Context, id string, req emails.UpsertTemplateRequest) (*emails.Template, error)
	DeleteTemplate(ctx context.Context, id string) error
	ListLogs(ctx context.Context, limit, offset int) ([]emails.Log, int, error)
}

type Mailer interface {
	Send(ctx context.Context, to, templateID string, vars map[string]string) (string, error)
}

type SettingsStore interface {
	General(ctx context.Context) (settings.General, error)
	Referral(ctx context.Context) (settings.Referral, error)
	SMTP(ctx context.Context) (settings.SMTP, bool, error)
	SaveGeneral(ctx context.Context, s settings.General, actorID string) error
	SaveReferral(ctx context.Context, s settings.Referral, actorID string) error
	SaveSMTP(ctx context.Context, s settings.SMTP, actorID string) error
}

type AuditLog interface {
	Append(ctx context.Context, e audit.Entry) error
	List(ctx context.Context, f audit.ListFilter, limit, offset int) ([]audit.Entry, int, error)
}

type AffiliateStore interface {
	List(ctx context.Context, limit, offset int) ([]affiliates.Affiliate, int, error)
	Create(ctx context.Context, req affiliates.CreateAffiliateRequest) (*affiliates.Affiliate, error)
	Update(ctx context.Context, id string, req affiliates.UpdateAffiliateRequest) (*affiliates.Affiliate, error)
}

type DeadLetterReader interface {
	ListDeadLetters(ctx context.Context, limit int) ([]executions.DeadLetter, error)
}

// everything the back-office reads or writes
type Deps struct {
	Catalog     CatalogStore
	Plans       PlanStore
	Users       UserAdmin
	Coupons     CouponStore
	Templates   TemplateStore
	Mailer      Mailer
	Settings    SettingsStore
	Audit       AuditLog
	Affiliates  AffiliateStore
	DeadLetters DeadLetterReader
	Now         func() time.Time
}

// rg is expected to carry auth and the admin check
func RegisterRoutes(rg *gin.RouterGroup, d Deps) {
	if d.Now == nil {
		d.Now = time.Now
	}

	admin := rg.Group("/admin")

	admin.GET("/providers", ListProviders(d.Catalog))
	admin.GET("/models", ListModels(d.Catalog))
	admin.PUT("/models/:id", UpdateModel(d.Catalog, d.Audit))
	admin.GET("/token-prices", ListTokenPrices(d.Catalog))
	admin.PUT("/token-prices", UpsertTokenPrice(d.Catalog, d.Audit))
	admin.DELETE("/token-prices/:model", DeleteTokenPrice(d.Catalog, d.Audit))

	admin.GET("/plans", ListPlans(d.Plans))
	admin.POST("/plans", CreatePlan(d.Plans, d.Audit))
	admin.PUT("/plans/:id", UpdatePlan(d.Plans, d.Audit))
	admin.GET("/promotions", ListPromotions(d.Plans))
	admin.POST("/promotions", CreatePromotion(d.Plans, d.Audit))
	admin.DELETE("/promotions/:id", DeactivatePromotion(d.Plans, d.Audit))

	admin.GET("/users", ListUsers(d.Users))
	admin.POST("/users/:id/tokens", GrantTokens(d.Users, d.Audit))

	admin.GET("/coupons", ListCoupons(d.Coupons, d.Now))
	admin.POST("/coupons", CreateCoupon(d.Coupons, d.Audit, d.Now))
	admin.PUT("/coupons/:id", UpdateCoupon(d.Coupons, d.Audit, d.Now))
	admin.DELETE("/coupons/:id", DeleteCoupon(d.Coupons, d.Audit))

	admin.GET("/emails/templates", ListTemplates(d.Templates))
	admin.POST("/emails/templates", CreateTemplate(d.Templates, d.Audit))
	admin.PUT("/emails/templates/:id", UpdateTemplate(d.Templates, d.Audit))
	admin.DELETE("/emails/templates/:id", DeleteTemplate(d.Templates, d.Audit))
	admin.GET("/emails/logs", ListEmailLogs(d.Templates))
	admin.POST("/emails/send", SendEmail(d.Mailer, d.Audit))

	admin.GET("/settings/general", GetGeneralSettings(d.Settings))
	admin.PUT("/settings/general", SaveGeneralSettings(d.Settings, d.Audit))
	admin.GET("/settings/referral", GetReferralSettings(d.Settings))
	admin.PUT("/settings/referral", SaveReferralSettings(d.Settings, d.Audit))
	admin.GET("/settings/smtp", GetSMTPSettings(d.Settings))
	admin.PUT("/settings/smtp", SaveSMTPSettings(d.Settings, d.Audit))

	admin.GET("/audit-logs", ListAuditLogs(d.Audit))

	admin.GET("/affiliates", ListAffiliates(d.Affiliates))
	admin.POST("/affiliates", CreateAffiliate(d.Affiliates, d.Audit))
	admin.PUT("/affiliates/:id", UpdateAffiliate(d.Affiliates, d.Audit))

	admin.GET("/executions/dead-letters", ListDeadLetters(d.DeadLetters))
}
