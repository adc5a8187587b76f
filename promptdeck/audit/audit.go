package audit

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// appends an entry outside any caller transaction
func (r *Repository) Append(ctx context.Context, e Entry) error {
	return Insert(ctx, r.db, e)
}

// appends an entry through db, which may be a transaction
func Insert(ctx context.Context, db Execer, e Entry) error {
	details := e.Details
	if details == nil {
		details = map[string]any{}
	}

	if _, err := db.Exec(ctx, queryInsertEntry, e.ActorID, e.Action, e.Resource, e.ResourceID, details); err != nil {
		return fmt.Errorf("failed to append audit entry: %w", err)
	}

	return nil
}

func (r *Repository) List(ctx context.Context, f ListFilter, limit, offset int) ([]Entry, int, error) {
	var total int
	if err := r.db.QueryRow(ctx, queryCountEntries, f.ActorID, f.Action, f.Resource).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count audit entries: %w", err)
	}

	rows, err := r.db.Query(ctx, queryListEntries, f.ActorID, f.Action, f.Resource, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list audit entries: %w", err)
	}

	defer rows.Close()

	entries := []Entry{}

	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.ActorID, &e.Action, &e.Resource, &e.ResourceID, &e.Details, &e.CreatedAt); err != nil {
			return nil, 0, err
		}

		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return entries, total, nil
}
