package pagination

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestDefaultParams(t *testing.T) {
	assert.Equal(t, Params{Limit: 20, Offset: 0}, DefaultParams(0, -5, 20, 100))
	assert.Equal(t, Params{Limit: 100, Offset: 40}, DefaultParams(500, 40, 20, 100))
	assert.Equal(t, Params{Limit: 10, Offset: 0}, DefaultParams(10, 0, 20, 100))
}

func TestNewMeta(t *testing.T) {
	assert.True(t, NewMeta(Params{Limit: 10, Offset: 0}, 11).HasMore)
	assert.False(t, NewMeta(Params{Limit: 10, Offset: 10}, 20).HasMore)
}

func TestFromQuery(t *testing.T) {
	gin.SetMode(gin.TestMode)

	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", "/?limit=abc&offset=30", nil)

	assert.Equal(t, Params{Limit: DefaultLimit, Offset: 30}, FromQuery(c))
}
