package users

import (
	"context"
	"errors"
	"fmt"

	"codeberg.org/promptdeck/server/internal/quota"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrUserNotFound = errors.New("user not found")

// creates a new user repository
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// finds a user by their ID
func (r *Repository) FindByID(ctx context.Context, userID string) (*User, error) {
	user, err := scanUser(r.db.QueryRow(ctx, queryFindByID, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUserNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	return user, nil
}

// reads the token counters the quota guard compares
func (r *Repository) GetUsage(ctx context.Context, userID string) (quota.Usage, error) {
	var usage quota.Usage

	err := r.db.QueryRow(ctx, queryGetUsage, userID).Scan(&usage.TokensUsed, &usage.TokensLimit)
	if errors.Is(err, pgx.ErrNoRows) {
		return usage, ErrUserNotFound
	}

	if err != nil {
		return usage, fmt.Errorf("failed to get usage: %w", err)
	}

	return usage, nil
}

// reports the current admin flag; admin routes check it per request instead of trusting the token
func (r *Repository) IsAdmin(ctx context.Context, userID string) (bool, error) {
	var isAdmin bool

	err := r.db.QueryRow(ctx, queryIsAdmin, userID).Scan(&isAdmin)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, ErrUserNotFound
	}

	if err != nil {
		return false, fmt.Errorf("failed to check admin flag: %w", err)
	}

	return isAdmin, nil
}

func (r *Repository) UpdateProfile(ctx context.Context, userID, name string) (*User, error) {
	user, err := scanUser(r.db.QueryRow(ctx, queryUpdateProfile, name, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUserNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}

	return user, nil
}

// raises the user's token limit; tokens_used is never lowered
func (r *Repository) GrantTokens(ctx context.Context, userID string, tokens int64) (*User, error) {
	user, err := scanUser(r.db.QueryRow(ctx, queryGrantTokens, tokens, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUserNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to grant tokens: %w", err)
	}

	return user, nil
}

// lists users for the admin console, optionally filtered by email/name
func (r *Repository) List(ctx context.Context, search string, limit, offset int) ([]User, int, error) {
	var total int
	if err := r.db.QueryRow(ctx, queryCount, search).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}

	rows, err := r.db.Query(ctx, queryList, search, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}

	defer rows.Close()

	users := []User{}

	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}

		users = append(users, *u)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return users, total, nil
}

func scanUser(row pgx.Row) (*User, error) {
	var user User

	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.Name,
		&user.PlanID,
		&user.TokensUsed,
		&user.TokensLimit,
		&user.IsAdmin,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &user, nil
}
