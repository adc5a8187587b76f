package emails

import (
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository struct {
	db *pgxpool.Pool
}

// subject and bodies may contain {{var}} placeholders
type Template struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Subject   string    `json:"subject"`
	HTMLBody  string    `json:"html_body"`
	TextBody  string    `json:"text_body"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type UpsertTemplateRequest struct {
	Name     string `json:"name" binding:"required,max=120"`
	Subject  string `json:"subject" binding:"required,max=255"`
	HTMLBody string `json:"html_body" binding:"required_without=TextBody"`
	TextBody string `json:"text_body"`
}

// delivery statuses
const (
	StatusSent   = "sent"
	StatusFailed = "failed"
)

type Log struct {
	ID         string    `json:"id"`
	TemplateID string    `json:"template_id"`
	To         string    `json:"to"`
	Subject    string    `json:"subject"`
	Status     string    `json:"status"`
	MessageID  string    `json:"message_id,omitempty"`
	Error      string    `json:"error,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}
