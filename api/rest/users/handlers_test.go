package users

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"codeberg.org/promptdeck/server/internal/quota"
	"codeberg.org/promptdeck/server/promptdeck/executions"
	"codeberg.org/promptdeck/server/promptdeck/users"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUsers struct {
	usage map[string]quota.Usage
}

func (f *fakeUsers) FindByID(_ context.Context, userID string) (*users.User, error) {
	u, ok := f.usage[userID]
	if !ok {
		return nil, users.ErrUserNotFound
	}

	return &users.User{ID: userID, TokensUsed: u.TokensUsed, TokensLimit: u.TokensLimit}, nil
}

func (f *fakeUsers) GetUsage(_ context.Context, userID string) (quota.Usage, error) {
	u, ok := f.usage[userID]
	if !ok {
		return quota.Usage{}, users.ErrUserNotFound
	}

	return u, nil
}

func (f *fakeUsers) UpdateProfile(_ context.Context, userID, name string) (*users.User, error) {
	return &users.User{ID: userID, Name: name}, nil
}

type fakeHistory struct{}

func (fakeHistory) ListByUser(_ context.Context, userID string, limit, offset int) ([]executions.Execution, int, error) {
	return []executions.Execution{{ID: "e1", UserID: userID, TotalTokens: 30}}, 41, nil
}

func (fakeHistory) SummaryByUser(_ context.Context, _ string) (*executions.UsageSummary, error) {
	return &executions.UsageSummary{Executions: 41, TotalTokens: 1230, TotalCost: decimal.RequireFromString("0.5")}, nil
}

func newRouter(userID string) *gin.Engine {
	gin.SetMode(gin.TestMode)

	store := &fakeUsers{usage: map[string]quota.Usage{
		"user-1": {TokensUsed: 900, TokensLimit: 1000},
	}}

	router := gin.New()
	group := router.Group("/api/v1", func(c *gin.Context) {
		if userID != "" {
			c.Set("user_id", userID)
		}
		c.Next()
	})

	RegisterRoutes(group, store, fakeHistory{}, quota.NewGuard(store))

	return router
}

func request(router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	raw, _ := json.Marshal(body) //nolint:errcheck // test input

	req := httptest.NewRequest(method, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	return w
}

func TestGetQuota(t *testing.T) {
	w := request(newRouter("user-1"), http.MethodGet, "/api/v1/users/me/quota", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp QuotaResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, QuotaResponse{TokensUsed: 900, TokensLimit: 1000, Remaining: 100}, resp)
}

func TestGetMe(t *testing.T) {
	assert.Equal(t, http.StatusOK, request(newRouter("user-1"), http.MethodGet, "/api/v1/users/me", nil).Code)
	assert.Equal(t, http.StatusNotFound, request(newRouter("ghost"), http.MethodGet, "/api/v1/users/me", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, request(newRouter(""), http.MethodGet, "/api/v1/users/me", nil).Code)
}

func TestCheckQuota(t *testing.T) {
	router := newRouter("user-1")

	// 400 chars estimate to 100 tokens: 900 + 100 is exactly the limit
	w := request(router, http.MethodPost, "/api/v1/users/me/quota/check", map[string]string{"content": string(bytes.Repeat([]byte("a"), 400))})
	require.Equal(t, http.StatusOK, w.Code)

	var resp QuotaCheckResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 100, resp.EstimatedTokens)
	assert.True(t, resp.Allowed)

	w = request(router, http.MethodPost, "/api/v1/users/me/quota/check", map[string]string{"content": string(bytes.Repeat([]byte("a"), 401))})
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 101, resp.EstimatedTokens)
	assert.False(t, resp.Allowed)
}

func TestListExecutions(t *testing.T) {
	w := request(newRouter("user-1"), http.MethodGet, "/api/v1/users/me/executions?limit=20&offset=20", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp ExecutionsListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Executions, 1)
	assert.True(t, resp.Pagination.HasMore)
}

func TestUpdateProfile_Validation(t *testing.T) {
	router := newRouter("user-1")

	assert.Equal(t, http.StatusBadRequest, request(router, http.MethodPut, "/api/v1/users/me", map[string]string{"name": ""}).Code)
	assert.Equal(t, http.StatusOK, request(router, http.MethodPut, "/api/v1/users/me", map[string]string{"name": "Ana"}).Code)
}
