package audit

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// actor recorded for changes made by the payment webhook
const ActorPayments = "system:payments"

type Repository struct {
	db *pgxpool.Pool
}

// satisfied by both *pgxpool.Pool and pgx.Tx
type Execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// append-only record of an admin or system action
type Entry struct {
	ID         string         `json:"id"`
	ActorID    string         `json:"actor_id"`
	Action     string         `json:"action"`
	Resource   string         `json:"resource"`
	ResourceID string         `json:"resource_id,omitempty"`
	Details    map[string]any `json:"details,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}

type ListFilter struct {
	ActorID  string
	Action   string
	Resource string
}
