package executions

import (
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

var ErrUserNotFound = errors.New("user not found")

type Repository struct {
	db *pgxpool.Pool
}

// one provider call plus its accounting; immutable once stored
type Execution struct {
	ID           string          `json:"id"`
	PromptID     string          `json:"prompt_id"`
	UserID       string          `json:"user_id"`
	Provider     string          `json:"provider"`
	Model        string          `json:"model"`
	InputTokens  int             `json:"input_tokens"`
	OutputTokens int             `json:"output_tokens"`
	TotalTokens  int             `json:"total_tokens"`
	Cost         decimal.Decimal `json:"cost"`
	Currency     string          `json:"currency"`
	LatencyMS    int64           `json:"latency_ms"`
	Result       string          `json:"result"`
	Parameters   map[string]any  `json:"parameters,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}

// an execution whose recording transaction failed; replayed by the ledger CLI
type DeadLetter struct {
	ExecutionID string     `json:"execution_id"`
	Payload     Execution  `json:"payload"`
	Reason      string     `json:"reason"`
	Attempts    int        `json:"attempts"`
	CreatedAt   time.Time  `json:"created_at"`
	LastTriedAt *time.Time `json:"last_tried_at,omitempty"`
}

// per-user usage rollup
type UsageSummary struct {
	Executions  int64           `json:"executions"`
	TotalTokens int64           `json:"total_tokens"`
	TotalCost   decimal.Decimal `json:"total_cost"`
}
