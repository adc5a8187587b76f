package webhooks

import (
	"context"
	"time"

	"codeberg.org/promptdeck/server/internal/reconciler"
	"github.com/gin-gonic/gin"
)

type EventHandler interface {
	Handle(ctx context.Context, ev *reconciler.Event) (*reconciler.Outcome, error)
}

type Config struct {
	Secret    string
	Tolerance time.Duration
}

// unauthenticated; requests are authenticated by signature
func RegisterRoutes(rg *gin.RouterGroup, handler EventHandler, cfg Config) {
	rg.POST("/webhooks/payments", PaymentWebhook(handler, cfg, time.Now))
}
