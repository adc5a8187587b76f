package executions

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// inserts the execution and debits the user and prompt counters in one transaction;
// returns false when the id was already recorded
func (r *Repository) Record(ctx context.Context, e *Execution) (bool, error) {
	var inserted bool

	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		var err error
		inserted, err = recordTx(ctx, tx, e)
		return err
	})
	if err != nil {
		return false, fmt.Errorf("failed to record execution: %w", err)
	}

	return inserted, nil
}

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func recordTx(ctx context.Context, tx execer, e *Execution) (bool, error) {
	tag, err := tx.Exec(
		ctx,
		queryInsertExecution,
		e.ID,
		e.PromptID,
		e.UserID,
		e.Provider,
		e.Model,
		e.InputTokens,
		e.OutputTokens,
		e.TotalTokens,
		e.Cost,
		e.Currency,
		e.LatencyMS,
		e.Result,
		e.Parameters,
		e.CreatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("insert execution: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return false, nil
	}

	// an execution nobody is debited for must not commit
	tag, err = tx.Exec(ctx, queryIncrementTokensUsed, e.TotalTokens, e.UserID)
	if err != nil {
		return false, fmt.Errorf("increment tokens used: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return false, fmt.Errorf("%w: %s", ErrUserNotFound, e.UserID)
	}

	if _, err := tx.Exec(ctx, queryIncrementPromptUsage, e.PromptID); err != nil {
		return false, fmt.Errorf("increment prompt usage: %w", err)
	}

	return true, nil
}

func (r *Repository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]Execution, int, error) {
	var total int
	if err := r.db.QueryRow(ctx, queryCountByUser, userID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count executions: %w", err)
	}

	rows, err := r.db.Query(ctx, queryListByUser, userID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list executions: %w", err)
	}

	defer rows.Close()

	list := []Execution{}

	for rows.Next() {
		var e Execution
		if err := rows.Scan(
			&e.ID,
			&e.PromptID,
			&e.UserID,
			&e.Provider,
			&e.Model,
			&e.InputTokens,
			&e.OutputTokens,
			&e.TotalTokens,
			&e.Cost,
			&e.Currency,
			&e.LatencyMS,
			&e.Result,
			&e.Parameters,
			&e.CreatedAt,
		); err != nil {
			return nil, 0, err
		}

		list = append(list, e)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return list, total, nil
}

func (r *Repository) SummaryByUser(ctx context.Context, userID string) (*UsageSummary, error) {
	var s UsageSummary

	err := r.db.QueryRow(ctx, querySummaryByUser, userID).Scan(&s.Executions, &s.TotalTokens, &s.TotalCost)
	if err != nil {
		return nil, fmt.Errorf("failed to summarize executions: %w", err)
	}

	return &s, nil
}

func (r *Repository) SaveDeadLetter(ctx context.Context, e *Execution, reason string) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to marshal dead letter: %w", err)
	}

	if _, err := r.db.Exec(ctx, querySaveDeadLetter, e.ID, payload, reason); err != nil {
		return fmt.Errorf("failed to save dead letter: %w", err)
	}

	return nil
}

func (r *Repository) ListDeadLetters(ctx context.Context, limit int) ([]DeadLetter, error) {
	rows, err := r.db.Query(ctx, queryListDeadLetters, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list dead letters: %w", err)
	}

	defer rows.Close()

	letters := []DeadLetter{}

	for rows.Next() {
		var (
			dl      DeadLetter
			payload []byte
		)

		if err := rows.Scan(&dl.ExecutionID, &payload, &dl.Reason, &dl.Attempts, &dl.CreatedAt, &dl.LastTriedAt); err != nil {
			return nil, err
		}

		if err := json.Unmarshal(payload, &dl.Payload); err != nil {
			return nil, fmt.Errorf("corrupt dead letter %s: %w", dl.ExecutionID, err)
		}

		letters = append(letters, dl)
	}

	return letters, rows.Err()
}

func (r *Repository) DeleteDeadLetter(ctx context.Context, executionID string) error {
	if _, err := r.db.Exec(ctx, queryDeleteDeadLetter, executionID); err != nil {
		return fmt.Errorf("failed to delete dead letter: %w", err)
	}

	return nil
}

func (r *Repository) MarkDeadLetterAttempt(ctx context.Context, executionID, reason string) error {
	if _, err := r.db.Exec(ctx, queryMarkDeadLetterAttempt, reason, executionID); err != nil {
		return fmt.Errorf("failed to mark dead letter attempt: %w", err)
	}

	return nil
}
