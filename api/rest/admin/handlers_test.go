package admin

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"codeberg.org/promptdeck/server/internal/email"
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
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	adminID  = "a0000000-0000-0000-0000-000000000001"
	userID   = "b0000000-0000-0000-0000-000000000002"
	couponID = "c0000000-0000-0000-0000-000000000003"
)

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type fakeAudit struct {
	entries []audit.Entry
	fail    bool
}

func (f *fakeAudit) Append(_ context.Context, e audit.Entry) error {
	if f.fail {
		return errors.New("audit table unavailable")
	}

	f.entries = append(f.entries, e)
	return nil
}

func (f *fakeAudit) List(_ context.Context, filter audit.ListFilter, _, _ int) ([]audit.Entry, int, error) {
	var out []audit.Entry
	for _, e := range f.entries {
		if filter.Action != "" && e.Action != filter.Action {
			continue
		}
		out = append(out, e)
	}

	return out, len(out), nil
}

type fakeUsers struct {
	users map[string]*users.User
}

func (f *fakeUsers) List(context.Context, string, int, int) ([]users.User, int, error) {
	return nil, 0, nil
}

func (f *fakeUsers) GrantTokens(_ context.Context, id string, tokens int64) (*users.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, users.ErrUserNotFound
	}

	u.TokensLimit += tokens
	return u, nil
}

type fakeCoupons struct {
	codes map[string]bool
}

func (f *fakeCoupons) List(context.Context) ([]coupons.Coupon, error) {
	expired := now.Add(-time.Hour)

	return []coupons.Coupon{
		{ID: couponID, Code: "SAVE10", Type: coupons.TypePercentage, Value: decimal.NewFromInt(10), Scope: coupons.ScopeAll},
		{ID: "old", Code: "OLD", Type: coupons.TypeFixed, Value: decimal.NewFromInt(1), Scope: coupons.ScopeAll, ExpiresAt: &expired},
	}, nil
}

func (f *fakeCoupons) Create(_ context.Context, req coupons.CreateCouponRequest) (*coupons.Coupon, error) {
	code := coupons.NormalizeCode(req.Code)
	if f.codes[code] {
		return nil, coupons.ErrCouponExists
	}

	f.codes[code] = true
	return &coupons.Coupon{ID: couponID, Code: code, Type: req.Type, Value: req.Value, Scope: req.Scope}, nil
}

func (f *fakeCoupons) Update(context.Context, string, coupons.UpdateCouponRequest) (*coupons.Coupon, error) {
	return nil, coupons.ErrCouponNotFound
}

func (f *fakeCoupons) Delete(context.Context, string) error {
	return coupons.ErrCouponNotFound
}

type fakeMailer struct {
	err error
}

func (f fakeMailer) Send(context.Context, string, string, map[string]string) (string, error) {
	if f.err != nil {
		return "", f.err
	}

	return "msg-1@promptdeck.local", nil
}

type fakeSettings struct {
	referral settings.Referral
}

func (f *fakeSettings) General(context.Context) (settings.General, error) {
	return settings.DefaultGeneral(), nil
}

func (f *fakeSettings) Referral(context.Context) (settings.Referral, error) {
	return f.referral, nil
}

func (f *fakeSettings) SMTP(context.Context) (settings.SMTP, bool, error) {
	return settings.SMTP{}, false, nil
}

func (f *fakeSettings) SaveGeneral(context.Context, settings.General, string) error { return nil }

func (f *fakeSettings) SaveReferral(_ context.Context, s settings.Referral, _ string) error {
	if s.DefaultCommissionPercent.IsNegative() || s.MaxEarningsPerReferrer.IsNegative() {
		return settings.ErrInvalidReferral
	}

	f.referral = s
	return nil
}

func (f *fakeSettings) SaveSMTP(context.Context, settings.SMTP, string) error { return nil }

type fakeDeadLetters []executions.DeadLetter

func (f fakeDeadLetters) ListDeadLetters(_ context.Context, limit int) ([]executions.DeadLetter, error) {
	if limit < len(f) {
		return f[:limit], nil
	}

	return f, nil
}

type fakePlans struct{}

func (fakePlans) ListPlans(context.Context, bool) ([]billing.Plan, error) { return nil, nil }

func (fakePlans) CreatePlan(_ context.Context, req billing.UpsertPlanRequest) (*billing.Plan, error) {
	return &billing.Plan{ID: "plan-1", Name: req.Name, Price: req.Price, Currency: req.Currency}, nil
}

func (fakePlans) UpdatePlan(context.Context, string, billing.UpsertPlanRequest) (*billing.Plan, error) {
	return nil, billing.ErrPlanNotFound
}

func (fakePlans) ListPromotions(context.Context) ([]billing.Promotion, error) { return nil, nil }

func (fakePlans) CreatePromotion(_ context.Context, req billing.CreatePromotionRequest) (*billing.Promotion, error) {
	return &billing.Promotion{ID: "promo-1", Name: req.Name, DiscountPercent: req.DiscountPercent}, nil
}

func (fakePlans) DeactivatePromotion(context.Context, string) error { return nil }

type fakeCatalog struct{}

func (fakeCatalog) ListProviders(context.Context) ([]catalog.Provider, error) { return nil, nil }

func (fakeCatalog) ListModels(context.Context, bool) ([]catalog.Model, error) { return nil, nil }

func (fakeCatalog) UpdateModel(context.Context, string, catalog.UpdateModelRequest) (*catalog.Model, error) {
	return nil, catalog.ErrModelNotFound
}

func (fakeCatalog) ListTokenPrices(context.Context) ([]catalog.TokenPrice, error) { return nil, nil }

func (fakeCatalog) UpsertTokenPrice(_ context.Context, req catalog.UpsertTokenPriceRequest) (*catalog.TokenPrice, error) {
	return &catalog.TokenPrice{Model: req.Model, FXRate: req.FXRate, Currency: req.Currency}, nil
}

func (fakeCatalog) DeleteTokenPrice(context.Context, string) error {
	return catalog.ErrTokenPriceNotFound
}

type fakeTemplates struct{}

func (fakeTemplates) ListTemplates(context.Context) ([]emails.Template, error) { return nil, nil }

func (fakeTemplates) CreateTemplate(_ context.Context, req emails.UpsertTemplateRequest) (*emails.Template, error) {
	return &emails.Template{ID: "tmpl-1", Name: req.Name, Subject: req.Subject}, nil
}

func (fakeTemplates) UpdateTemplate(context.Context, string, emails.UpsertTemplateRequest) (*emails.Template, error) {
	return nil, emails.ErrTemplateNotFound
}

func (fakeTemplates) DeleteTemplate(context.Context, string) error { return nil }

func (fakeTemplates) ListLogs(context.Context, int, int) ([]emails.Log, int, error) {
	return nil, 0, nil
}

type fakeAffiliates struct{}

func (fakeAffiliates) List(context.Context, int, int) ([]affiliates.Affiliate, int, error) {
	return nil, 0, nil
}

func (fakeAffiliates) Create(context.Context, affiliates.CreateAffiliateRequest) (*affiliates.Affiliate, error) {
	return nil, affiliates.ErrAlreadyAffiliate
}

func (fakeAffiliates) Update(context.Context, string, affiliates.UpdateAffiliateRequest) (*affiliates.Affiliate, error) {
	return nil, affiliates.ErrAffiliateNotFound
}

type fixture struct {
	router   *gin.Engine
	audit    *fakeAudit
	users    *fakeUsers
	settings *fakeSettings
}

func newFixture(mailer Mailer) *fixture {
	gin.SetMode(gin.TestMode)

	f := &fixture{
		audit:    &fakeAudit{},
		users:    &fakeUsers{users: map[string]*users.User{userID: {ID: userID, TokensLimit: 1000}}},
		settings: &fakeSettings{},
	}

	letters := make(fakeDeadLetters, 3)
	for i := range letters {
		letters[i] = executions.DeadLetter{ExecutionID: string(rune('a' + i)), Reason: "connection refused"}
	}

	router := gin.New()
	v1 := router.Group("/api/v1")
	v1.Use(func(c *gin.Context) {
		c.Set("user_id", adminID)
		c.Next()
	})

	RegisterRoutes(v1, Deps{
		Catalog:     fakeCatalog{},
		Plans:       fakePlans{},
		Users:       f.users,
		Coupons:     &fakeCoupons{codes: map[string]bool{"SAVE10": true}},
		Templates:   fakeTemplates{},
		Mailer:      mailer,
		Settings:    f.settings,
		Audit:       f.audit,
		Affiliates:  fakeAffiliates{},
		DeadLetters: letters,
		Now:         func() time.Time { return now },
	})

	f.router = router
	return f
}

func (f *fixture) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	return w
}

func TestGrantTokens(t *testing.T) {
	f := newFixture(fakeMailer{})

	w := f.do(t, http.MethodPost, "/api/v1/admin/users/"+userID+"/tokens", gin.H{"tokens": 5000, "reason": "support goodwill"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var got users.User
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, int64(6000), got.TokensLimit)

	require.Len(t, f.audit.entries, 1)
	entry := f.audit.entries[0]
	assert.Equal(t, adminID, entry.ActorID)
	assert.Equal(t, "user.grant_tokens", entry.Action)
	assert.Equal(t, userID, entry.ResourceID)
	assert.Equal(t, "support goodwill", entry.Details["reason"])
}

func TestGrantTokensRejections(t *testing.T) {
	tests := []struct {
		name string
		path string
		body any
		want int
	}{
		{"zero tokens", "/api/v1/admin/users/" + userID + "/tokens", gin.H{"tokens": 0, "reason": "x"}, http.StatusBadRequest},
		{"missing reason", "/api/v1/admin/users/" + userID + "/tokens", gin.H{"tokens": 10}, http.StatusBadRequest},
		{"malformed id", "/api/v1/admin/users/nope/tokens", gin.H{"tokens": 10, "reason": "x"}, http.StatusNotFound},
		{"unknown user", "/api/v1/admin/users/" + adminID + "/tokens", gin.H{"tokens": 10, "reason": "x"}, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(fakeMailer{})

			w := f.do(t, http.MethodPost, tt.path, tt.body)
			assert.Equal(t, tt.want, w.Code, w.Body.String())
			assert.Empty(t, f.audit.entries)
		})
	}
}

func TestAuditFailureKeepsChange(t *testing.T) {
	f := newFixture(fakeMailer{})
	f.audit.fail = true

	w := f.do(t, http.MethodPost, "/api/v1/admin/users/"+userID+"/tokens", gin.H{"tokens": 1, "reason": "test"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(1001), f.users.users[userID].TokensLimit)
}

func TestSendEmail(t *testing.T) {
	tests := []struct {
		name   string
		mailer fakeMailer
		body   any
		want   int
	}{
		{"sent", fakeMailer{}, gin.H{"to": "ana@example.com", "template_id": "welcome"}, http.StatusOK},
		{"bad address", fakeMailer{}, gin.H{"to": "not-an-email", "template_id": "welcome"}, http.StatusBadRequest},
		{"rejected recipient", fakeMailer{err: email.ErrInvalidRecipient}, gin.H{"to": "ana@example.com", "template_id": "welcome"}, http.StatusBadRequest},
		{"unknown template", fakeMailer{err: emails.ErrTemplateNotFound}, gin.H{"to": "ana@example.com", "template_id": "nope"}, http.StatusNotFound},
		{"relay down", fakeMailer{err: errors.New("dial tcp: connection refused")}, gin.H{"to": "ana@example.com", "template_id": "welcome"}, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(tt.mailer)

			w := f.do(t, http.MethodPost, "/api/v1/admin/emails/send", tt.body)
			assert.Equal(t, tt.want, w.Code, w.Body.String())

			if tt.want == http.StatusOK {
				var resp SendEmailResponse
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
				assert.Equal(t, "msg-1@promptdeck.local", resp.MessageID)
				require.Len(t, f.audit.entries, 1)
				assert.Equal(t, "email.send", f.audit.entries[0].Action)
			}
		})
	}
}

func TestSaveReferralSettings(t *testing.T) {
	f := newFixture(fakeMailer{})

	w := f.do(t, http.MethodPut, "/api/v1/admin/settings/referral", gin.H{
		"enabled":                    true,
		"default_commission_percent": "-5",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, f.audit.entries)

	w = f.do(t, http.MethodPut, "/api/v1/admin/settings/referral", gin.H{
		"enabled":                    true,
		"default_commission_percent": "12.5",
		"max_earnings_per_referrer":  "500",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.True(t, f.settings.referral.DefaultCommissionPercent.Equal(decimal.RequireFromString("12.5")))
	require.Len(t, f.audit.entries, 1)
	assert.Equal(t, settings.KeyReferral, f.audit.entries[0].ResourceID)
}

func TestGetSMTPSettingsUnconfigured(t *testing.T) {
	f := newFixture(fakeMailer{})

	w := f.do(t, http.MethodGet, "/api/v1/admin/settings/smtp", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"configured":false}`, w.Body.String())
}

func TestCoupons(t *testing.T) {
	f := newFixture(fakeMailer{})

	t.Run("duplicate code conflicts", func(t *testing.T) {
		w := f.do(t, http.MethodPost, "/api/v1/admin/coupons", gin.H{"code": "save10", "type": "percentage", "value": "10", "scope": "all"})
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("percentage over 100", func(t *testing.T) {
		w := f.do(t, http.MethodPost, "/api/v1/admin/coupons", gin.H{"code": "HUGE", "type": "percentage", "value": "150", "scope": "all"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("created", func(t *testing.T) {
		w := f.do(t, http.MethodPost, "/api/v1/admin/coupons", gin.H{"code": "spring", "type": "fixed", "value": "5", "scope": "tokens"})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		var view coupons.View
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
		assert.Equal(t, "SPRING", view.Code)
		assert.Equal(t, coupons.StatusActive, view.Status)
	})

	t.Run("list carries status", func(t *testing.T) {
		w := f.do(t, http.MethodGet, "/api/v1/admin/coupons", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Coupons []coupons.View `json:"coupons"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.Len(t, resp.Coupons, 2)
		assert.Equal(t, coupons.StatusActive, resp.Coupons[0].Status)
		assert.Equal(t, coupons.StatusExpired, resp.Coupons[1].Status)
	})

	t.Run("delete unknown", func(t *testing.T) {
		w := f.do(t, http.MethodDelete, "/api/v1/admin/coupons/"+couponID, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestCatalogErrors(t *testing.T) {
	f := newFixture(fakeMailer{})

	w := f.do(t, http.MethodPut, "/api/v1/admin/models/"+couponID, gin.H{"enabled": false})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = f.do(t, http.MethodPut, "/api/v1/admin/token-prices", gin.H{
		"model":    "gpt-4o",
		"fx_rate":  "0",
		"currency": "USD",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(t, http.MethodDelete, "/api/v1/admin/token-prices/gpt-4o", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreatePromotionDiscountBounds(t *testing.T) {
	f := newFixture(fakeMailer{})
	starts := now
	ends := now.Add(24 * time.Hour)

	w := f.do(t, http.MethodPost, "/api/v1/admin/promotions", gin.H{"name": "spring", "discount_percent": "0", "starts_at": starts, "ends_at": ends})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(t, http.MethodPost, "/api/v1/admin/promotions", gin.H{"name": "spring", "discount_percent": "20", "starts_at": starts, "ends_at": ends})
	assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = f.do(t, http.MethodPost, "/api/v1/admin/promotions", gin.H{"name": "backwards", "discount_percent": "20", "starts_at": ends, "ends_at": starts})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAffiliateConflict(t *testing.T) {
	f := newFixture(fakeMailer{})

	w := f.do(t, http.MethodPost, "/api/v1/admin/affiliates", gin.H{"user_id": userID, "commission_percent": "10"})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestListDeadLettersHonorsLimit(t *testing.T) {
	f := newFixture(fakeMailer{})

	w := f.do(t, http.MethodGet, "/api/v1/admin/executions/dead-letters?limit=2", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		DeadLetters []executions.DeadLetter `json:"dead_letters"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.DeadLetters, 2)
}

func TestListAuditLogsFilters(t *testing.T) {
	f := newFixture(fakeMailer{})
	f.audit.entries = []audit.Entry{
		{ActorID: adminID, Action: "coupon.create"},
		{ActorID: adminID, Action: "plan.update"},
	}

	w := f.do(t, http.MethodGet, "/api/v1/admin/audit-logs?action=coupon.create", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp AuditLogsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Entries, 1)
	assert.Equal(t, 1, resp.Pagination.Total)

	w = f.do(t, http.MethodGet, "/api/v1/admin/audit-logs?actor_id=bob", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
