package pricing

import (
	"context"
	"errors"
	"testing"

	"codeberg.org/promptdeck/server/promptdeck/catalog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, dec(want).Equal(got), "want %s, got %s", want, got.String())
}

func TestCost_InputOnlyWithMarginAndFX(t *testing.T) {
	price := &catalog.TokenPrice{
		InputCostBase:      dec("5"),
		InputMarginPercent: dec("50"),
		FXRate:             dec("0.85"),
	}

	assertDecimal(t, "6.375", Cost(1_000_000, 0, price))
}

func TestBreakdown(t *testing.T) {
	tests := []struct {
		name       string
		in, out    int
		price      *catalog.TokenPrice
		wantInput  string
		wantOutput string
		wantTotal  string
	}{
		{
			name: "no margin, fx 1",
			in:   500_000, out: 250_000,
			price: &catalog.TokenPrice{
				InputCostBase: dec("2"), OutputCostBase: dec("8"), FXRate: dec("1"),
			},
			wantInput: "1", wantOutput: "2", wantTotal: "3",
		},
		{
			name: "separate margins per direction",
			in:   1_000_000, out: 1_000_000,
			price: &catalog.TokenPrice{
				InputCostBase: dec("1"), OutputCostBase: dec("2"),
				InputMarginPercent: dec("10"), OutputMarginPercent: dec("25"),
				FXRate: dec("1"),
			},
			wantInput: "1.1", wantOutput: "2.5", wantTotal: "3.6",
		},
		{
			name: "margin above 100 is not clamped",
			in:   1_000_000, out: 0,
			price: &catalog.TokenPrice{
				InputCostBase: dec("4"), InputMarginPercent: dec("250"), FXRate: dec("1"),
			},
			wantInput: "14", wantOutput: "0", wantTotal: "14",
		},
		{
			name: "fx applied after summing",
			in:   2_000_000, out: 1_000_000,
			price: &catalog.TokenPrice{
				InputCostBase: dec("3"), OutputCostBase: dec("15"), FXRate: dec("0.5"),
			},
			wantInput: "3", wantOutput: "7.5", wantTotal: "10.5",
		},
		{
			name: "zero fx treated as identity",
			in:   1_000_000, out: 0,
			price: &catalog.TokenPrice{InputCostBase: dec("3")},
			wantInput: "3", wantOutput: "0", wantTotal: "3",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := Breakdown(tt.in, tt.out, tt.price)

			assertDecimal(t, tt.wantInput, q.InputCost)
			assertDecimal(t, tt.wantOutput, q.OutputCost)
			assertDecimal(t, tt.wantTotal, q.Total)
			assert.True(t, q.Priced)
		})
	}
}

func TestCost_NilPriceIsZero(t *testing.T) {
	q := Breakdown(1_000_000, 1_000_000, nil)

	assert.True(t, q.Total.IsZero())
	assert.False(t, q.Priced)
	assert.Equal(t, DefaultCurrency, q.Currency)
}

type fakePrices struct {
	price *catalog.TokenPrice
	err   error
}

func (f fakePrices) GetTokenPrice(_ context.Context, _ string) (*catalog.TokenPrice, error) {
	return f.price, f.err
}

func TestEngine_Quote_MissingPriceFailsOpen(t *testing.T) {
	engine := NewEngine(fakePrices{err: catalog.ErrTokenPriceNotFound})

	q, err := engine.Quote(context.Background(), "gpt-4o", 1000, 1000)

	require.NoError(t, err)
	assert.True(t, q.Total.IsZero())
	assert.False(t, q.Priced)
}

func TestEngine_Quote_LookupErrorPropagates(t *testing.T) {
	engine := NewEngine(fakePrices{err: errors.New("connection reset")})

	_, err := engine.Quote(context.Background(), "gpt-4o", 1000, 1000)

	assert.Error(t, err)
}

func TestEngine_Quote_UsesCurrency(t *testing.T) {
	engine := NewEngine(fakePrices{price: &catalog.TokenPrice{
		InputCostBase: dec("5"), InputMarginPercent: dec("50"), FXRate: dec("0.85"), Currency: "EUR",
	}})

	q, err := engine.Quote(context.Background(), "gpt-4o", 1_000_000, 0)

	require.NoError(t, err)
	assertDecimal(t, "6.375", q.Total)
	assert.Equal(t, "EUR", q.Currency)
}
