package admin

import (
	stderrors "errors"
	"net/http"

	"codeberg.org/promptdeck/server/api/rest/pagination"
	"codeberg.org/promptdeck/server/internal/email"
	"codeberg.org/promptdeck/server/internal/errors"
	"codeberg.org/promptdeck/server/promptdeck/emails"
	"github.com/gin-gonic/gin"
)

func ListTemplates(store TemplateStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		templates, err := store.ListTemplates(c.Request.Context())
		if err != nil {
			errors.InternalError(c, "failed to list email templates", err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"templates": templates})
	}
}

func CreateTemplate(store TemplateStore, log AuditLog) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req emails.UpsertTemplateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			errors.ValidationError(c, err)
			return
		}

		tmpl, err := store.CreateTemplate(c.Request.Context(), req)
		if err != nil {
			errors.InternalError(c, "failed to create email template", err)
			return
		}

		recordAudit(c, log, "email_template.create", "email_template", tmpl.ID, map[string]any{
			"name":         tmpl.Name,
			"placeholders": templatePlaceholders(req),
		})

		c.JSON(http.StatusCreated, tmpl)
	}
}

func UpdateTemplate(store TemplateStore, log AuditLog) gin.HandlerFunc {
	return func(c *gin.Context) {
		templateID, ok := errors.ValidatePathUUID(c, "id")
		if !ok {
			return
		}

		var req emails.UpsertTemplateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			errors.ValidationError(c, err)
			return
		}

		tmpl, err := store.UpdateTemplate(c.Request.Context(), templateID, req)
		if stderrors.Is(err, emails.ErrTemplateNotFound) {
			errors.NotFound(c, "email template")
			return
		}

		if err != nil {
			errors.InternalError(c, "failed to update email template", err)
			return
		}

		recordAudit(c, log, "email_template.update", "email_template", tmpl.ID, map[string]any{
			"name":         tmpl.Name,
			"placeholders": templatePlaceholders(req),
		})

		c.JSON(http.StatusOK, tmpl)
	}
}

func DeleteTemplate(store TemplateStore, log AuditLog) gin.HandlerFunc {
	return func(c *gin.Context) {
		templateID, ok := errors.ValidatePathUUID(c, "id")
		if !ok {
			return
		}

		err := store.DeleteTemplate(c.Request.Context(), templateID)
		if stderrors.Is(err, emails.ErrTemplateNotFound) {
			errors.NotFound(c, "email template")
			return
		}

		if err != nil {
			errors.InternalError(c, "failed to delete email template", err)
			return
		}

		recordAudit(c, log, "email_template.delete", "email_template", templateID, nil)

		c.JSON(http.StatusOK, MessageResponse{Message: "email template deleted"})
	}
}

// placeholders used anywhere in the template, subject first
func templatePlaceholders(req emails.UpsertTemplateRequest) []string {
	seen := make(map[string]bool)
	var out []string

	for _, part := range []string{req.Subject, req.HTMLBody, req.TextBody} {
		for _, name := range email.Placeholders(part) {
			if !seen[name] {
				seen[name] = true
				out = append(out, name)
			}
		}
	}

	return out
}

func ListEmailLogs(store TemplateStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		params := pagination.FromQuery(c)

		logs, total, err := store.ListLogs(c.Request.Context(), params.Limit, params.Offset)
		if err != nil {
			errors.InternalError(c, "failed to list email logs", err)
			return
		}

		if logs == nil {
			logs = []emails.Log{}
		}

		c.JSON(http.StatusOK, EmailLogsResponse{
			Logs:       logs,
			Pagination: pagination.NewMeta(params, total),
		})
	}
}

// SendEmail godoc
// @Summary Send a templated email
// @Description Renders the template with the given variables and delivers it; every attempt is logged
// @Tags admin
// @Accept json
// @Produce json
// @Param request body SendEmailRequest true "Recipient, template and variables"
// @Success 200 {object} SendEmailResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /api/v1/admin/emails/send [post]
// @Security BearerAuth
func SendEmail(mailer Mailer, log AuditLog) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req SendEmailRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			errors.ValidationError(c, err)
			return
		}

		messageID, err := mailer.Send(c.Request.Context(), req.To, req.TemplateID, req.Vars)

		switch {
		case stderrors.Is(err, email.ErrInvalidRecipient):
			errors.BadRequest(c, "invalid recipient address", err)
			return
		case stderrors.Is(err, emails.ErrTemplateNotFound):
			errors.NotFound(c, "email template")
			return
		case err != nil:
			errors.InternalError(c, "failed to send email", err)
			return
		}

		recordAudit(c, log, "email.send", "email_template", req.TemplateID, map[string]any{
			"to":         req.To,
			"message_id": messageID,
		})

		c.JSON(http.StatusOK, SendEmailResponse{MessageID: messageID})
	}
}
