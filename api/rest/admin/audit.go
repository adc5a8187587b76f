package admin

import (
	"codeberg.org/promptdeck/server/internal/logger"
	"codeberg.org/promptdeck/server/promptdeck/audit"
	"github.com/gin-gonic/gin"
)

// records an admin mutation; a failed audit write is logged, the change stands
func recordAudit(c *gin.Context, log AuditLog, action, resource, resourceID string, details map[string]any) {
	actorID := c.GetString("user_id")

	err := log.Append(c.Request.Context(), audit.Entry{
		ActorID:    actorID,
		Action:     action,
		Resource:   resource,
		ResourceID: resourceID,
		Details:    details,
	})
	if err != nil {
		logger.ErrorErr(err, "failed to write audit entry",
			"action", action,
			"resource", resource,
			"resource_id", resourceID,
			"actor_id", actorID,
		)
	}
}
