package users

import (
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// handles user database operations
type Repository struct {
	db *pgxpool.Pool
}

// an account holder; token counters drive quota enforcement
type User struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	Name        string    `json:"name"`
	PlanID      *string   `json:"plan_id,omitempty"`
	TokensUsed  int64     `json:"tokens_used"`
	TokensLimit int64     `json:"tokens_limit"`
	IsAdmin     bool      `json:"-"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type UpdateProfileRequest struct {
	Name string `json:"name" binding:"required,min=1,max=80"`
}

// admin adjustment of a user's allowance
type GrantTokensRequest struct {
	Tokens int64  `json:"tokens" binding:"required,min=1"`
	Reason string `json:"reason" binding:"required,max=200"`
}
