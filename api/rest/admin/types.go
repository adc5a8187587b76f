package admin

import (
	"codeberg.org/promptdeck/server/api/rest/pagination"
	"codeberg.org/promptdeck/server/promptdeck/affiliates"
	"codeberg.org/promptdeck/server/promptdeck/audit"
	"codeberg.org/promptdeck/server/promptdeck/emails"
	"codeberg.org/promptdeck/server/promptdeck/users"
)

type UsersListResponse struct {
	Users      []users.User    `json:"users"`
	Pagination pagination.Meta `json:"pagination"`
}

type AuditLogsResponse struct {
	Entries    []audit.Entry   `json:"entries"`
	Pagination pagination.Meta `json:"pagination"`
}

type AffiliatesResponse struct {
	Affiliates []affiliates.Affiliate `json:"affiliates"`
	Pagination pagination.Meta        `json:"pagination"`
}

type EmailLogsResponse struct {
	Logs       []emails.Log    `json:"logs"`
	Pagination pagination.Meta `json:"pagination"`
}

type SendEmailRequest struct {
	To         string            `json:"to" binding:"required,email"`
	TemplateID string            `json:"template_id" binding:"required"`
	Vars       map[string]string `json:"vars"`
}

type SendEmailResponse struct {
	MessageID string `json:"message_id"`
}

// the SMTP settings response; configured is false while the environment is in use
type SMTPSettingsResponse struct {
	Configured bool   `json:"configured"`
	Host       string `json:"host,omitempty"`
	Port       int    `json:"port,omitempty"`
	Username   string `json:"username,omitempty"`
	FromName   string `json:"from_name,omitempty"`
	FromEmail  string `json:"from_email,omitempty"`
}

type MessageResponse struct {
	Message string `json:"message"`
}
