package billing

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"codeberg.org/promptdeck/server/promptdeck/billing"
	"codeberg.org/promptdeck/server/promptdeck/coupons"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

type fakeCatalog struct {
	promo *billing.Promotion
}

func (fakeCatalog) ListPlans(context.Context, bool) ([]billing.Plan, error) {
	return []billing.Plan{{ID: "pro", Price: dec("20"), Active: true}}, nil
}

func (fakeCatalog) GetPlan(_ context.Context, id string) (*billing.Plan, error) {
	switch id {
	case "pro":
		return &billing.Plan{ID: "pro", Price: dec("20"), Currency: "USD", TokensIncluded: 2_000_000, Active: true}, nil
	case "legacy":
		return &billing.Plan{ID: "legacy", Price: dec("5"), Currency: "USD"}, nil
	}

	return nil, billing.ErrPlanNotFound
}

func (fakeCatalog) ListOrganizationPlans(context.Context) ([]billing.OrganizationPlan, error) {
	return nil, nil
}

func (fakeCatalog) ListPackages(context.Context) ([]billing.TokenPackage, error) {
	return nil, nil
}

func (fakeCatalog) GetPackage(_ context.Context, id string) (*billing.TokenPackage, error) {
	if id == "tokens-1m" {
		return &billing.TokenPackage{ID: id, Tokens: 1_000_000, Price: dec("10"), Currency: "USD", Active: true}, nil
	}

	return nil, billing.ErrPackageNotFound
}

func (f fakeCatalog) ActivePromotion(context.Context, time.Time) (*billing.Promotion, error) {
	return f.promo, nil
}

type fakeCoupons map[string]*coupons.Coupon

func (f fakeCoupons) GetByCode(_ context.Context, code string) (*coupons.Coupon, error) {
	c, ok := f[coupons.NormalizeCode(code)]
	if !ok {
		return nil, coupons.ErrCouponNotFound
	}

	return c, nil
}

func newRouter(cat Catalog) *gin.Engine {
	gin.SetMode(gin.TestMode)

	used := 5
	expired := now.Add(-time.Hour)

	repo := fakeCoupons{
		"SAVE10":  {Code: "SAVE10", Type: coupons.TypePercentage, Value: dec("10"), Scope: coupons.ScopeAll},
		"PLANS5":  {Code: "PLANS5", Type: coupons.TypeFixed, Value: dec("5"), Scope: coupons.ScopePlans},
		"OLD":     {Code: "OLD", Type: coupons.TypeFixed, Value: dec("1"), Scope: coupons.ScopeAll, ExpiresAt: &expired},
		"USEDUP":  {Code: "USEDUP", Type: coupons.TypeFixed, Value: dec("1"), Scope: coupons.ScopeAll, MaxUses: &used, UsedCount: 5},
		"TOKENS2": {Code: "TOKENS2", Type: coupons.TypeFixed, Value: dec("2"), Scope: coupons.ScopeTokens},
	}

	router := gin.New()
	v1 := router.Group("/api/v1")
	clock := func() time.Time { return now }

	v1.GET("/billing/plans", ListPlans(cat))
	v1.POST("/billing/coupons/validate", ValidateCoupon(repo, clock))
	v1.POST("/billing/quote", QuotePurchase(cat, repo, clock))

	return router
}

func post(router *gin.Engine, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	return w
}

func TestValidateCoupon(t *testing.T) {
	router := newRouter(fakeCatalog{})

	tests := []struct {
		body   string
		valid  bool
		reason string
	}{
		{`{"code":"save10"}`, true, ""},
		{`{"code":"nope"}`, false, "not_found"},
		{`{"code":"OLD"}`, false, "expired"},
		{`{"code":"USEDUP"}`, false, "exhausted"},
		{`{"code":"PLANS5","scope":"tokens"}`, false, "wrong_scope"},
		{`{"code":"PLANS5","scope":"plans"}`, true, ""},
	}

	for _, tt := range tests {
		t.Run(tt.body, func(t *testing.T) {
			w := post(router, "/api/v1/billing/coupons/validate", tt.body)
			require.Equal(t, http.StatusOK, w.Code)

			var resp ValidateCouponResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.valid, resp.Valid)
			assert.Equal(t, tt.reason, resp.Reason)
		})
	}
}

func TestQuotePurchase(t *testing.T) {
	promo := &billing.Promotion{Name: "spring", DiscountPercent: dec("20")}

	tests := []struct {
		name   string
		promo  *billing.Promotion
		body   string
		status int
		total  string
	}{
		{"plan", nil, `{"item_type":"plan","item_id":"pro"}`, http.StatusOK, "20"},
		{"plan with coupon", nil, `{"item_type":"plan","item_id":"pro","coupon_code":"plans5"}`, http.StatusOK, "15"},
		{"promotion skips plans", promo, `{"item_type":"plan","item_id":"pro"}`, http.StatusOK, "20"},
		{"package with promotion", promo, `{"item_type":"package","item_id":"tokens-1m"}`, http.StatusOK, "8"},
		{"promotion then coupon", promo, `{"item_type":"package","item_id":"tokens-1m","coupon_code":"SAVE10"}`, http.StatusOK, "7.2"},
		{"inactive plan", nil, `{"item_type":"plan","item_id":"legacy"}`, http.StatusNotFound, ""},
		{"unknown package", nil, `{"item_type":"package","item_id":"x"}`, http.StatusNotFound, ""},
		{"coupon wrong scope", nil, `{"item_type":"package","item_id":"tokens-1m","coupon_code":"PLANS5"}`, http.StatusBadRequest, ""},
		{"expired coupon", nil, `{"item_type":"plan","item_id":"pro","coupon_code":"OLD"}`, http.StatusBadRequest, ""},
		{"bad item type", nil, `{"item_type":"seat","item_id":"pro"}`, http.StatusBadRequest, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := post(newRouter(fakeCatalog{promo: tt.promo}), "/api/v1/billing/quote", tt.body)
			require.Equal(t, tt.status, w.Code, w.Body.String())

			if tt.total == "" {
				return
			}

			var q billing.Quote
			require.NoError(t, json.NewDecoder(bytes.NewReader(w.Body.Bytes())).Decode(&q))
			assert.True(t, dec(tt.total).Equal(q.Total), "total %s", q.Total)
		})
	}
}
