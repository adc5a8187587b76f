package prompts

import (
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository struct {
	db *pgxpool.Pool
}

// supported prompt languages
const (
	LanguageSpanish = "es"
	LanguageEnglish = "en"
)

// kinds of AI-driven change that create a version
const (
	ChangeImprovement = "improvement"
	ChangeTranslation = "translation"
)

// engagement counters that can be bumped from the catalog UI
type Stat string

const (
	StatVisit Stat = "visits"
	StatCopy  Stat = "copies"
)

type Prompt struct {
	ID          string    `json:"id"`
	UserID      *string   `json:"user_id,omitempty"` // nil for system prompts
	IsSystem    bool      `json:"is_system"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Content     string    `json:"content"`
	Language    string    `json:"language"`
	Category    string    `json:"category,omitempty"`
	Version     int       `json:"version"`
	IsFavorite  bool      `json:"is_favorite"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// reports whether userID owns the prompt
func (p *Prompt) OwnedBy(userID string) bool {
	return p.UserID != nil && *p.UserID == userID
}

// system prompts are public; user prompts are private to their owner
func (p *Prompt) VisibleTo(userID string) bool {
	return p.IsSystem || p.OwnedBy(userID)
}

// derived aggregate; incremented per event, never recomputed from executions
type Stats struct {
	PromptID     string    `json:"prompt_id"`
	Visits       int64     `json:"visits"`
	Copies       int64     `json:"copies"`
	Executions   int64     `json:"executions"`
	Improvements int64     `json:"improvements"`
	Translations int64     `json:"translations"`
	CTR          float64   `json:"ctr"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// append-only history row
type Version struct {
	ID         string    `json:"id"`
	PromptID   string    `json:"prompt_id"`
	Version    int       `json:"version"`
	Content    string    `json:"content"`
	Language   string    `json:"language"`
	ChangeType string    `json:"change_type"`
	CreatedBy  string    `json:"created_by"`
	CreatedAt  time.Time `json:"created_at"`
}

// a new version to append; the prompt's current content follows it
type NewVersion struct {
	PromptID   string
	Content    string
	Language   string
	ChangeType string
	CreatedBy  string
}

type CreatePromptRequest struct {
	Title       string `json:"title" binding:"required,max=200"`
	Description string `json:"description" binding:"max=1000"`
	Content     string `json:"content" binding:"required"`
	Language    string `json:"language" binding:"required,oneof=es en"`
	Category    string `json:"category" binding:"max=80"`
}
