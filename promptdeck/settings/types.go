package settings

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// settings domains, one system_settings row each
const (
	KeyGeneral  = "general"
	KeyReferral = "referral"
	KeySMTP     = "smtp"
)

type Repository struct {
	db *pgxpool.Pool
}

type General struct {
	SiteName        string `json:"site_name" binding:"required,max=120"`
	SupportEmail    string `json:"support_email" binding:"omitempty,email"`
	DefaultLanguage string `json:"default_language" binding:"required,oneof=es en"`
	SignupTokens    int64  `json:"signup_tokens" binding:"min=0"`
	MaintenanceMode bool   `json:"maintenance_mode"`
}

// program-wide affiliate terms
type Referral struct {
	Enabled                  bool            `json:"enabled"`
	DefaultCommissionPercent decimal.Decimal `json:"default_commission_percent"`
	MaxEarningsPerReferrer   decimal.Decimal `json:"max_earnings_per_referrer"` // zero means uncapped
}

// relay overrides editable from the back-office; the password stays in the environment
type SMTP struct {
	Host      string `json:"host" binding:"required"`
	Port      int    `json:"port" binding:"required,min=1,max=65535"`
	Username  string `json:"username"`
	FromName  string `json:"from_name" binding:"required"`
	FromEmail string `json:"from_email" binding:"required,email"`
}

func DefaultGeneral() General {
	return General{
		SiteName:        "Promptdeck",
		DefaultLanguage: "es",
	}
}

func DefaultReferral() Referral {
	return Referral{
		Enabled:                  true,
		DefaultCommissionPercent: decimal.NewFromInt(20),
		MaxEarningsPerReferrer:   decimal.NewFromInt(500),
	}
}
