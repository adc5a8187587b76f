package health

import (
	"context"
	"net/http"
	"time"

	"codeberg.org/promptdeck/server/internal/logger"
	"github.com/gin-gonic/gin"
)

const Version = "1.0.0"

type Pinger interface {
	Ping(ctx context.Context) error
}

// returns the server health status; 503 when the database does not answer
func Handler(db Pinger) gin.HandlerFunc {
	return func(c *gin.Context) {
		resp := Response{
			Status:   "healthy",
			Service:  "promptdeck",
			Version:  Version,
			Database: "ok",
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := db.Ping(ctx); err != nil {
			logger.ErrorErr(err, "health check failed to reach database")

			resp.Status = "degraded"
			resp.Database = "unreachable"
			c.JSON(http.StatusServiceUnavailable, resp)

			return
		}

		c.JSON(http.StatusOK, resp)
	}
}

// responds with pong for testing
func PingHandler(c *gin.Context) {
	c.JSON(http.StatusOK, PingResponse{Message: "pong"})
}
