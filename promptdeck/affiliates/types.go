package affiliates

import (
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type Repository struct {
	db *pgxpool.Pool
}

type Affiliate struct {
	ID                string          `json:"id"`
	UserID            string          `json:"user_id"`
	Email             string          `json:"email"`
	CommissionPercent decimal.Decimal `json:"commission_percent"` // zero uses the program default
	TotalReferrals    int64           `json:"total_referrals"`
	TotalEarnings     decimal.Decimal `json:"total_earnings"`
	Active            bool            `json:"active"`
	CreatedAt         time.Time       `json:"created_at"`
}

type CreateAffiliateRequest struct {
	UserID            string          `json:"user_id" binding:"required,uuid"`
	CommissionPercent decimal.Decimal `json:"commission_percent"`
}

type UpdateAffiliateRequest struct {
	CommissionPercent *decimal.Decimal `json:"commission_percent"`
	Active            *bool            `json:"active"`
}
