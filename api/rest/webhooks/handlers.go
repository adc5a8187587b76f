package webhooks

import (
	"io"
	"net/http"
	"time"

	"codeberg.org/promptdeck/server/internal/errors"
	"codeberg.org/promptdeck/server/internal/logger"
	"codeberg.org/promptdeck/server/internal/metrics"
	"codeberg.org/promptdeck/server/internal/reconciler"
	"github.com/gin-gonic/gin"
)

// payment processors send small JSON bodies
const maxBodyBytes = 1 << 20

// PaymentWebhook godoc
// @Summary Payment processor webhook
// @Description Verifies the Payment-Signature header, then applies the event exactly once
// @Tags webhooks
// @Accept json
// @Produce json
// @Success 200 {object} reconciler.Outcome
// @Failure 400 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /api/v1/webhooks/payments [post]
func PaymentWebhook(handler EventHandler, cfg Config, now func() time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes))
		if err != nil {
			errors.BadRequest(c, "failed to read request body", err)
			return
		}

		// the signature covers the exact bytes received, so nothing is parsed before this
		if err := reconciler.VerifySignature(body, c.GetHeader(reconciler.SignatureHeader), cfg.Secret, cfg.Tolerance, now()); err != nil {
			metrics.WebhookEventsTotal.WithLabelValues("unverified", "invalid_signature").Inc()
			errors.InvalidSignature(c, err)
			return
		}

		ev, err := reconciler.ParseEvent(body)
		if err != nil {
			metrics.WebhookEventsTotal.WithLabelValues("unverified", "invalid_payload").Inc()
			errors.BadRequest(c, "invalid event payload", err)
			return
		}

		outcome, err := handler.Handle(c.Request.Context(), ev)
		if err != nil {
			// a 5xx makes the processor redeliver; the event id keeps redelivery idempotent
			errors.InternalError(c, "failed to process payment event", err)
			return
		}

		if outcome.Duplicate {
			logger.Info("duplicate payment event acknowledged", "event_id", ev.ID, "type", ev.RawType)
		}

		c.JSON(http.StatusOK, outcome)
	}
}
