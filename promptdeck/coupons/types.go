package coupons

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type Repository struct {
	db *pgxpool.Pool
}

// satisfied by both *pgxpool.Pool and pgx.Tx
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const (
	TypePercentage = "percentage"
	TypeFixed      = "fixed"
)

// what a coupon can be applied to
const (
	ScopeAll    = "all"
	ScopePlans  = "plans"
	ScopeTokens = "tokens"
)

type Status string

// derived, never stored
const (
	StatusActive    Status = "active"
	StatusExpired   Status = "expired"
	StatusExhausted Status = "exhausted"
)

type Coupon struct {
	ID        string          `json:"id"`
	Code      string          `json:"code"`
	Type      string          `json:"type"`
	Value     decimal.Decimal `json:"value"`
	MaxUses   *int            `json:"max_uses,omitempty"` // nil means unlimited
	UsedCount int             `json:"used_count"`
	ExpiresAt *time.Time      `json:"expires_at,omitempty"`
	Scope     string          `json:"scope"`
	CreatedAt time.Time       `json:"created_at"`
}

// coupon plus its derived status, as returned by the API
type View struct {
	Coupon
	Status Status `json:"status"`
}

type CreateCouponRequest struct {
	Code      string          `json:"code" binding:"required,min=3,max=40"`
	Type      string          `json:"type" binding:"required,oneof=percentage fixed"`
	Value     decimal.Decimal `json:"value" binding:"required"`
	MaxUses   *int            `json:"max_uses" binding:"omitempty,min=1"`
	ExpiresAt *time.Time      `json:"expires_at"`
	Scope     string          `json:"scope" binding:"required,oneof=all plans tokens"`
}

type UpdateCouponRequest struct {
	Value     *decimal.Decimal `json:"value"`
	MaxUses   *int             `json:"max_uses" binding:"omitempty,min=1"`
	ExpiresAt *time.Time       `json:"expires_at"`
	Scope     *string          `json:"scope" binding:"omitempty,oneof=all plans tokens"`
}
