package admin

import (
	stderrors "errors"
	"net/http"

	"codeberg.org/promptdeck/server/api/rest/pagination"
	"codeberg.org/promptdeck/server/internal/errors"
	"codeberg.org/promptdeck/server/promptdeck/affiliates"
	"codeberg.org/promptdeck/server/promptdeck/audit"
	"codeberg.org/promptdeck/server/promptdeck/executions"
	"github.com/gin-gonic/gin"
)

// ListAuditLogs godoc
// @Summary List admin audit entries
// @Description Newest first; filter by actor_id, action or resource
// @Tags admin
// @Produce json
// @Param actor_id query string false "Actor user ID"
// @Param action query string false "Action, e.g. coupon.create"
// @Param resource query string false "Resource type"
// @Param limit query int false "Page size (max 100)"
// @Param offset query int false "Offset"
// @Success 200 {object} AuditLogsResponse
// @Router /api/v1/admin/audit-logs [get]
// @Security BearerAuth
func ListAuditLogs(log AuditLog) gin.HandlerFunc {
	return func(c *gin.Context) {
		params := pagination.FromQuery(c)

		filter := audit.ListFilter{
			ActorID:  c.Query("actor_id"),
			Action:   c.Query("action"),
			Resource: c.Query("resource"),
		}

		if filter.ActorID != "" && !errors.IsValidUUID(filter.ActorID) {
			errors.BadRequest(c, "actor_id must be a uuid", nil)
			return
		}

		entries, total, err := log.List(c.Request.Context(), filter, params.Limit, params.Offset)
		if err != nil {
			errors.InternalError(c, "failed to list audit logs", err)
			return
		}

		if entries == nil {
			entries = []audit.Entry{}
		}

		c.JSON(http.StatusOK, AuditLogsResponse{
			Entries:    entries,
			Pagination: pagination.NewMeta(params, total),
		})
	}
}

func ListAffiliates(store AffiliateStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		params := pagination.FromQuery(c)

		list, total, err := store.List(c.Request.Context(), params.Limit, params.Offset)
		if err != nil {
			errors.InternalError(c, "failed to list affiliates", err)
			return
		}

		if list == nil {
			list = []affiliates.Affiliate{}
		}

		c.JSON(http.StatusOK, AffiliatesResponse{
			Affiliates: list,
			Pagination: pagination.NewMeta(params, total),
		})
	}
}

func CreateAffiliate(store AffiliateStore, log AuditLog) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req affiliates.CreateAffiliateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			errors.ValidationError(c, err)
			return
		}

		if req.CommissionPercent.IsNegative() || req.CommissionPercent.GreaterThan(hundred) {
			errors.BadRequest(c, "commission_percent must be between 0 and 100", nil)
			return
		}

		affiliate, err := store.Create(c.Request.Context(), req)
		if stderrors.Is(err, affiliates.ErrAlreadyAffiliate) {
			errors.Conflict(c, "user is already an affiliate")
			return
		}

		if err != nil {
			errors.InternalError(c, "failed to create affiliate", err)
			return
		}

		recordAudit(c, log, "affiliate.create", "affiliate", affiliate.ID, map[string]any{
			"user_id":            req.UserID,
			"commission_percent": req.CommissionPercent.String(),
		})

		c.JSON(http.StatusCreated, affiliate)
	}
}

func UpdateAffiliate(store AffiliateStore, log AuditLog) gin.HandlerFunc {
	return func(c *gin.Context) {
		affiliateID, ok := errors.ValidatePathUUID(c, "id")
		if !ok {
			return
		}

		var req affiliates.UpdateAffiliateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			errors.ValidationError(c, err)
			return
		}

		if p := req.CommissionPercent; p != nil && (p.IsNegative() || p.GreaterThan(hundred)) {
			errors.BadRequest(c, "commission_percent must be between 0 and 100", nil)
			return
		}

		affiliate, err := store.Update(c.Request.Context(), affiliateID, req)
		if stderrors.Is(err, affiliates.ErrAffiliateNotFound) {
			errors.NotFound(c, "affiliate")
			return
		}

		if err != nil {
			errors.InternalError(c, "failed to update affiliate", err)
			return
		}

		recordAudit(c, log, "affiliate.update", "affiliate", affiliate.ID, map[string]any{
			"commission_percent": affiliate.CommissionPercent.String(),
			"active":             affiliate.Active,
		})

		c.JSON(http.StatusOK, affiliate)
	}
}

// recordings that failed to persist, oldest first
func ListDeadLetters(reader DeadLetterReader) gin.HandlerFunc {
	return func(c *gin.Context) {
		params := pagination.FromQuery(c)

		letters, err := reader.ListDeadLetters(c.Request.Context(), params.Limit)
		if err != nil {
			errors.InternalError(c, "failed to list dead letters", err)
			return
		}

		if letters == nil {
			letters = []executions.DeadLetter{}
		}

		c.JSON(http.StatusOK, gin.H{"dead_letters": letters})
	}
}
