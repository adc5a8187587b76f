package main

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"codeberg.org/promptdeck/server/internal/logger"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestLogger(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var scoped *slog.Logger

	router := gin.New()
	router.Use(RequestLogger())
	router.GET("/ping", func(c *gin.Context) {
		scoped = logger.FromContext(c.Request.Context())
		c.Status(http.StatusNoContent)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))

	assert.Len(t, w.Header().Get(requestIDHeader), 36)
	require.NotNil(t, scoped)
	assert.NotSame(t, logger.FromContext(context.Background()), scoped)

	// a caller supplied id is echoed back
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(requestIDHeader, "trace-123")

	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, "trace-123", w.Header().Get(requestIDHeader))
}
