// Package recorder persists a finished execution and debits the user's usage.
//
// The execution insert, the tokens_used increment and the prompt stats increment commit
// together or not at all. A failed commit is parked in the dead-letter table under the same
// execution id so it can be replayed later without double counting.
package recorder

import (
	"context"
	"errors"
	"fmt"
	"time"

	"codeberg.org/promptdeck/server/internal/logger"
	"codeberg.org/promptdeck/server/internal/metrics"
	"codeberg.org/promptdeck/server/promptdeck/executions"
	"github.com/google/uuid"
)

const defaultTimeout = 10 * time.Second

// returned when the transaction failed but the execution was parked for replay
var ErrDeadLettered = errors.New("execution recording failed; stored for replay")

type Store interface {
	Record(ctx context.Context, e *executions.Execution) (bool, error)
	SaveDeadLetter(ctx context.Context, e *executions.Execution, reason string) error
}

type Recorder struct {
	store   Store
	timeout time.Duration
	now     func() time.Time
}

func New(store Store) *Recorder {
	return &Recorder{
		store:   store,
		timeout: defaultTimeout,
		now:     time.Now,
	}
}

// overrides the per-record timeout
func (r *Recorder) WithTimeout(d time.Duration) *Recorder {
	if d > 0 {
		r.timeout = d
	}

	return r
}

// assigns an id and persists the execution. The write is detached from the caller's
// cancellation: once a provider has answered, the usage must land even if the client left.
func (r *Recorder) Record(ctx context.Context, e executions.Execution) (*executions.Execution, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}

	if e.CreatedAt.IsZero() {
		e.CreatedAt = r.now().UTC()
	}

	e.TotalTokens = e.InputTokens + e.OutputTokens

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.timeout)
	defer cancel()

	inserted, err := r.store.Record(ctx, &e)
	if err == nil {
		if !inserted {
			logger.Debug("execution already recorded", "execution_id", e.ID)
			return &e, nil
		}

		metrics.ExecutionTokens.WithLabelValues(e.Provider).Observe(float64(e.TotalTokens))
		metrics.ExecutionCostTotal.WithLabelValues(e.Currency).Add(e.Cost.InexactFloat64())

		return &e, nil
	}

	metrics.DeadLettersTotal.Inc()

	// the record may have failed on its own deadline; the letter gets a fresh one
	dlCtx, dlCancel := context.WithTimeout(context.WithoutCancel(ctx), r.timeout)
	defer dlCancel()

	if dlErr := r.store.SaveDeadLetter(dlCtx, &e, err.Error()); dlErr != nil {
		logger.ErrorErr(dlErr, "failed to store execution dead letter",
			"execution_id", e.ID,
			"user_id", e.UserID,
			"total_tokens", e.TotalTokens,
			"record_error", err.Error(),
		)

		return &e, fmt.Errorf("record execution %s: %w", e.ID, errors.Join(err, dlErr))
	}

	logger.ErrorErr(err, "execution stored as dead letter",
		"execution_id", e.ID,
		"user_id", e.UserID,
		"total_tokens", e.TotalTokens,
	)

	return &e, fmt.Errorf("%w: %w", ErrDeadLettered, err)
}
