// Package pricing turns token counts into money.
//
// Cost is the provider's base per-million price scaled by an admin margin and converted to
// the billing currency with a stored FX rate:
//
//	input  = in/1e6  * input_cost_base  * (1 + input_margin_percent/100)
//	output = out/1e6 * output_cost_base * (1 + output_margin_percent/100)
//	total  = (input + output) * fx_rate
//
// Missing pricing fails open: the execution costs zero and is still recorded. A zero
// fx_rate is read as 1.
package pricing

import (
	"context"
	"errors"
	"fmt"

	"codeberg.org/promptdeck/server/internal/logger"
	"codeberg.org/promptdeck/server/promptdeck/catalog"
	"github.com/shopspring/decimal"
)

// currency used when a model has no pricing row
const DefaultCurrency = "USD"

var (
	million = decimal.NewFromInt(1_000_000)
	hundred = decimal.NewFromInt(100)
)

type PriceLookup interface {
	GetTokenPrice(ctx context.Context, model string) (*catalog.TokenPrice, error)
}

// priced breakdown of one execution
type Quote struct {
	InputCost  decimal.Decimal `json:"input_cost"`
	OutputCost decimal.Decimal `json:"output_cost"`
	Total      decimal.Decimal `json:"total"`
	Currency   string          `json:"currency"`
	Priced     bool            `json:"priced"` // false when no pricing row existed
}

// computes the total cost of an execution; nil price costs zero
func Cost(inputTokens, outputTokens int, price *catalog.TokenPrice) decimal.Decimal {
	return Breakdown(inputTokens, outputTokens, price).Total
}

// computes per-direction and total cost; nil price yields a zero, unpriced quote
func Breakdown(inputTokens, outputTokens int, price *catalog.TokenPrice) Quote {
	if price == nil {
		return Quote{
			InputCost:  decimal.Zero,
			OutputCost: decimal.Zero,
			Total:      decimal.Zero,
			Currency:   DefaultCurrency,
		}
	}

	// the admin API rejects a non-positive rate, so zero means a row written elsewhere
	// without one; bill in the base currency rather than for free
	fx := price.FXRate
	if fx.IsZero() {
		logger.Warn("token price has no fx rate, using 1", "model", price.Model)
		fx = decimal.NewFromInt(1)
	}

	input := directionCost(inputTokens, price.InputCostBase, price.InputMarginPercent)
	output := directionCost(outputTokens, price.OutputCostBase, price.OutputMarginPercent)

	currency := price.Currency
	if currency == "" {
		currency = DefaultCurrency
	}

	return Quote{
		InputCost:  input.Mul(fx),
		OutputCost: output.Mul(fx),
		Total:      input.Add(output).Mul(fx),
		Currency:   currency,
		Priced:     true,
	}
}

// margins above 100% are allowed and not clamped
func directionCost(tokenCount int, base, marginPercent decimal.Decimal) decimal.Decimal {
	if tokenCount <= 0 {
		return decimal.Zero
	}

	multiplier := decimal.NewFromInt(1).Add(marginPercent.Div(hundred))

	return decimal.NewFromInt(int64(tokenCount)).
		Div(million).
		Mul(base).
		Mul(multiplier)
}

type Engine struct {
	prices PriceLookup
}

func NewEngine(prices PriceLookup) *Engine {
	return &Engine{prices: prices}
}

// looks up the model's pricing and prices the usage; a missing row is not an error
func (e *Engine) Quote(ctx context.Context, model string, inputTokens, outputTokens int) (Quote, error) {
	price, err := e.prices.GetTokenPrice(ctx, model)
	if errors.Is(err, catalog.ErrTokenPriceNotFound) {
		logger.Warn("no token price configured, execution will be unbilled", "model", model)
		return Breakdown(inputTokens, outputTokens, nil), nil
	}

	if err != nil {
		return Quote{}, fmt.Errorf("failed to load token price for %s: %w", model, err)
	}

	return Breakdown(inputTokens, outputTokens, price), nil
}
