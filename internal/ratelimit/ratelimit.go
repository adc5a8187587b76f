// Package ratelimit throttles expensive endpoints per authenticated user.
package ratelimit

import (
	"fmt"
	"time"

	apierrors "codeberg.org/promptdeck/server/internal/errors"
	"codeberg.org/promptdeck/server/internal/logger"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	mgin "github.com/ulule/limiter/v3/drivers/middleware/gin"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	sredis "github.com/ulule/limiter/v3/drivers/store/redis"
)

const storePrefix = "promptdeck:ratelimit"

// builds a limiter for a formatted rate such as "30-M"; counters live in redis when a
// client is given so every instance shares them
func New(formatted string, client redis.UniversalClient) (*limiter.Limiter, error) {
	rate, err := limiter.NewRateFromFormatted(formatted)
	if err != nil {
		return nil, fmt.Errorf("invalid rate %q: %w", formatted, err)
	}

	var store limiter.Store

	if client != nil {
		store, err = sredis.NewStoreWithOptions(client, limiter.StoreOptions{
			Prefix: storePrefix,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create redis limiter store: %w", err)
		}
	} else {
		store = memory.NewStoreWithOptions(limiter.StoreOptions{
			Prefix:          storePrefix,
			CleanUpInterval: 5 * time.Minute,
		})
	}

	return limiter.New(store, rate), nil
}

// keys on the authenticated user, falling back to the client IP
func Middleware(l *limiter.Limiter) gin.HandlerFunc {
	return mgin.NewMiddleware(l,
		mgin.WithKeyGetter(keyFor),
		mgin.WithLimitReachedHandler(func(c *gin.Context) {
			apierrors.TooManyRequests(c, "rate limit exceeded")
		}),
		mgin.WithErrorHandler(func(c *gin.Context, err error) {
			// a broken limiter store should not take executions down with it
			logger.ErrorErr(err, "rate limiter failed, allowing request", "path", c.Request.URL.Path)
			c.Next()
		}),
	)
}

func keyFor(c *gin.Context) string {
	if userID := c.GetString("user_id"); userID != "" {
		return "user:" + userID
	}

	return "ip:" + c.ClientIP()
}
