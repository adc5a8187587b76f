package recorder

import (
	"context"
	"fmt"
	"time"

	"codeberg.org/promptdeck/server/internal/logger"
	"codeberg.org/promptdeck/server/promptdeck/executions"
	"github.com/avast/retry-go/v4"
)

type DeadLetterStore interface {
	Record(ctx context.Context, e *executions.Execution) (bool, error)
	ListDeadLetters(ctx context.Context, limit int) ([]executions.DeadLetter, error)
	DeleteDeadLetter(ctx context.Context, executionID string) error
	MarkDeadLetterAttempt(ctx context.Context, executionID, reason string) error
}

type ReplayOptions struct {
	Limit    int
	Attempts uint
	Delay    time.Duration
	DryRun   bool
}

type ReplayReport struct {
	Replayed  int `json:"replayed"`
	Duplicate int `json:"duplicate"`
	Failed    int `json:"failed"`
}

// re-records parked executions; an id that already exists is dropped from the queue
// without touching counters again
func Replay(ctx context.Context, store DeadLetterStore, opts ReplayOptions) (*ReplayReport, error) {
	if opts.Limit <= 0 {
		opts.Limit = 100
	}

	if opts.Attempts == 0 {
		opts.Attempts = 3
	}

	letters, err := store.ListDeadLetters(ctx, opts.Limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load dead letters: %w", err)
	}

	report := &ReplayReport{}

	for _, dl := range letters {
		if opts.DryRun {
			logger.Info("dead letter pending",
				"execution_id", dl.ExecutionID,
				"user_id", dl.Payload.UserID,
				"total_tokens", dl.Payload.TotalTokens,
				"attempts", dl.Attempts,
			)

			continue
		}

		exec := dl.Payload
		exec.ID = dl.ExecutionID

		var inserted bool

		err := retry.Do(
			func() error {
				var recErr error
				inserted, recErr = store.Record(ctx, &exec)
				return recErr
			},
			retry.Context(ctx),
			retry.Attempts(opts.Attempts),
			retry.Delay(opts.Delay),
			retry.LastErrorOnly(true),
		)
		if err != nil {
			report.Failed++

			if markErr := store.MarkDeadLetterAttempt(ctx, dl.ExecutionID, err.Error()); markErr != nil {
				logger.ErrorErr(markErr, "failed to mark dead letter attempt", "execution_id", dl.ExecutionID)
			}

			continue
		}

		if inserted {
			report.Replayed++
		} else {
			report.Duplicate++
		}

		if err := store.DeleteDeadLetter(ctx, dl.ExecutionID); err != nil {
			return report, fmt.Errorf("failed to delete dead letter %s: %w", dl.ExecutionID, err)
		}
	}

	return report, nil
}
