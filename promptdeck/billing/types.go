package billing

import (
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// plans, token packages and promotions
type Repository struct {
	db *pgxpool.Pool
}

type Plan struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Price          decimal.Decimal `json:"price"`
	Currency       string          `json:"currency"`
	TokensIncluded int64           `json:"tokens_included"`
	OveragePrice   decimal.Decimal `json:"overage_price"`
	Active         bool            `json:"active"`
}

type OrganizationPlan struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	PricePerUser  decimal.Decimal `json:"price_per_user"`
	TokensPerUser int64           `json:"tokens_per_user"`
	MinTeamSize   int             `json:"min_team_size"`
}

// a one-off token purchase
type TokenPackage struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Tokens   int64           `json:"tokens"`
	Price    decimal.Decimal `json:"price"`
	Currency string          `json:"currency"`
	Active   bool            `json:"active"`
}

// time-boxed discount on token packages
type Promotion struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	StartsAt        time.Time       `json:"starts_at"`
	EndsAt          time.Time       `json:"ends_at"`
	Active          bool            `json:"active"`
}

type UpsertPlanRequest struct {
	Name           string          `json:"name" binding:"required,max=80"`
	Price          decimal.Decimal `json:"price"`
	Currency       string          `json:"currency" binding:"required,len=3"`
	TokensIncluded int64           `json:"tokens_included" binding:"min=0"`
	OveragePrice   decimal.Decimal `json:"overage_price"`
	Active         bool            `json:"active"`
}

type CreatePromotionRequest struct {
	Name            string          `json:"name" binding:"required,max=80"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	StartsAt        time.Time       `json:"starts_at" binding:"required"`
	EndsAt          time.Time       `json:"ends_at" binding:"required,gtfield=StartsAt"`
}

// priced purchase before checkout
type Quote struct {
	Item              string          `json:"item"` // plan or token package id
	Scope             string          `json:"scope"`
	Subtotal          decimal.Decimal `json:"subtotal"`
	PromotionDiscount decimal.Decimal `json:"promotion_discount"`
	CouponDiscount    decimal.Decimal `json:"coupon_discount"`
	Total             decimal.Decimal `json:"total"`
	Currency          string          `json:"currency"`
	Tokens            int64           `json:"tokens,omitempty"`
	Promotion         string          `json:"promotion,omitempty"`
	Coupon            string          `json:"coupon,omitempty"`
}
