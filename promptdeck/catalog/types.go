package catalog

import (
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// handles provider, model and token pricing reads/writes
type Repository struct {
	db *pgxpool.Pool
}

// an LLM vendor we can dispatch to
type Provider struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	BaseURL   string    `json:"base_url,omitempty"`
	Enabled   bool      `json:"enabled"`
	CreatedAt time.Time `json:"created_at"`
}

// a model offered by a provider; costs are per million tokens in the provider's currency
type Model struct {
	ID                  string          `json:"id"`
	Provider            string          `json:"provider"`
	Model               string          `json:"model"`
	DisplayName         string          `json:"display_name"`
	InputCost           decimal.Decimal `json:"input_cost"`
	OutputCost          decimal.Decimal `json:"output_cost"`
	SupportsTemperature bool            `json:"supports_temperature"`
	SupportsTopP        bool            `json:"supports_top_p"`
	MaxTokens           int             `json:"max_tokens"`
	Enabled             bool            `json:"enabled"`
	UpdatedAt           time.Time       `json:"updated_at"`
}

// authoritative cost inputs for a model; overrides the raw model cost fields
type TokenPrice struct {
	ID                  string          `json:"id"`
	Model               string          `json:"model"`
	InputCostBase       decimal.Decimal `json:"input_cost_base"`
	OutputCostBase      decimal.Decimal `json:"output_cost_base"`
	InputMarginPercent  decimal.Decimal `json:"input_margin_percent"`
	OutputMarginPercent decimal.Decimal `json:"output_margin_percent"`
	FXRate              decimal.Decimal `json:"fx_rate"`
	Currency            string          `json:"currency"`
	UpdatedAt           time.Time       `json:"updated_at"`
}

type UpsertTokenPriceRequest struct {
	Model               string          `json:"model" binding:"required"`
	InputCostBase       decimal.Decimal `json:"input_cost_base"`
	OutputCostBase      decimal.Decimal `json:"output_cost_base"`
	InputMarginPercent  decimal.Decimal `json:"input_margin_percent"`
	OutputMarginPercent decimal.Decimal `json:"output_margin_percent"`
	FXRate              decimal.Decimal `json:"fx_rate"`
	Currency            string          `json:"currency" binding:"required,len=3"`
}

type UpdateModelRequest struct {
	DisplayName         *string          `json:"display_name"`
	InputCost           *decimal.Decimal `json:"input_cost"`
	OutputCost          *decimal.Decimal `json:"output_cost"`
	SupportsTemperature *bool            `json:"supports_temperature"`
	SupportsTopP        *bool            `json:"supports_top_p"`
	MaxTokens           *int             `json:"max_tokens" binding:"omitempty,min=1"`
	Enabled             *bool            `json:"enabled"`
}
