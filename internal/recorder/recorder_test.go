package recorder

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"codeberg.org/promptdeck/server/promptdeck/executions"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// in-memory ledger mirroring the transactional repository
type memStore struct {
	mu          sync.Mutex
	executions  map[string]executions.Execution
	tokensUsed  map[string]int64
	promptRuns  map[string]int64
	deadLetters map[string]executions.DeadLetter
	failRecord  error
	failDL      error
	blockRecord bool
	sawCanceled bool
}

func newMemStore() *memStore {
	return &memStore{
		executions:  map[string]executions.Execution{},
		tokensUsed:  map[string]int64{},
		promptRuns:  map[string]int64{},
		deadLetters: map[string]executions.DeadLetter{},
	}
}

func (m *memStore) Record(ctx context.Context, e *executions.Execution) (bool, error) {
	if m.blockRecord {
		<-ctx.Done()
		return false, ctx.Err()
	}

	if ctx.Err() != nil {
		m.sawCanceled = true
		return false, ctx.Err()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failRecord != nil {
		return false, m.failRecord
	}

	if _, ok := m.executions[e.ID]; ok {
		return false, nil
	}

	m.executions[e.ID] = *e
	m.tokensUsed[e.UserID] += int64(e.TotalTokens)
	m.promptRuns[e.PromptID]++

	return true, nil
}

func (m *memStore) SaveDeadLetter(ctx context.Context, e *executions.Execution, reason string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failDL != nil {
		return m.failDL
	}

	m.deadLetters[e.ID] = executions.DeadLetter{ExecutionID: e.ID, Payload: *e, Reason: reason}

	return nil
}

func (m *memStore) ListDeadLetters(_ context.Context, limit int) ([]executions.DeadLetter, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []executions.DeadLetter
	for _, dl := range m.deadLetters {
		if len(out) == limit {
			break
		}

		out = append(out, dl)
	}

	return out, nil
}

func (m *memStore) DeleteDeadLetter(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.deadLetters, id)

	return nil
}

func (m *memStore) MarkDeadLetterAttempt(_ context.Context, id, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	dl := m.deadLetters[id]
	dl.Attempts++
	dl.Reason = reason
	m.deadLetters[id] = dl

	return nil
}

func sampleExecution(user string, in, out int) executions.Execution {
	return executions.Execution{
		PromptID:     "prompt-1",
		UserID:       user,
		Provider:     "openai",
		Model:        "gpt-4o",
		InputTokens:  in,
		OutputTokens: out,
		Cost:         decimal.RequireFromString("0.01"),
		Currency:     "USD",
	}
}

func TestRecord_AssignsIDAndTotals(t *testing.T) {
	store := newMemStore()
	r := New(store)

	got, err := r.Record(context.Background(), sampleExecution("u1", 100, 50))
	require.NoError(t, err)

	assert.NotEmpty(t, got.ID)
	assert.Equal(t, 150, got.TotalTokens)
	assert.False(t, got.CreatedAt.IsZero())
	assert.Equal(t, int64(150), store.tokensUsed["u1"])
	assert.Equal(t, int64(1), store.promptRuns["prompt-1"])
}

func TestRecord_TokensUsedEqualsSumOfExecutions(t *testing.T) {
	store := newMemStore()
	r := New(store)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)

		go func(i int) {
			defer wg.Done()
			_, err := r.Record(context.Background(), sampleExecution("u1", 10+i, i))
			assert.NoError(t, err)
		}(i)
	}

	wg.Wait()

	var sum int64
	for _, e := range store.executions {
		sum += int64(e.TotalTokens)
	}

	assert.Len(t, store.executions, 50)
	assert.Equal(t, sum, store.tokensUsed["u1"])
	assert.Equal(t, int64(50), store.promptRuns["prompt-1"])
}

func TestRecord_SurvivesCallerCancellation(t *testing.T) {
	store := newMemStore()
	r := New(store)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Record(ctx, sampleExecution("u1", 10, 10))
	require.NoError(t, err)

	assert.False(t, store.sawCanceled)
	assert.Equal(t, int64(20), store.tokensUsed["u1"])
}

func TestRecord_FailureGoesToDeadLetter(t *testing.T) {
	store := newMemStore()
	store.failRecord = errors.New("connection reset")
	r := New(store)

	got, err := r.Record(context.Background(), sampleExecution("u1", 10, 10))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDeadLettered)
	require.NotNil(t, got)

	dl, ok := store.deadLetters[got.ID]
	require.True(t, ok)
	assert.Equal(t, 20, dl.Payload.TotalTokens)
	assert.Contains(t, dl.Reason, "connection reset")
	assert.Zero(t, store.tokensUsed["u1"])
}

func TestRecord_TimeoutStillStoresDeadLetter(t *testing.T) {
	store := newMemStore()
	store.blockRecord = true
	r := New(store).WithTimeout(20 * time.Millisecond)

	got, err := r.Record(context.Background(), sampleExecution("u1", 30, 12))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDeadLettered)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	dl, ok := store.deadLetters[got.ID]
	require.True(t, ok)
	assert.Equal(t, 42, dl.Payload.TotalTokens)
}

func TestRecord_DeadLetterFailure(t *testing.T) {
	store := newMemStore()
	store.failRecord = errors.New("tx aborted")
	store.failDL = errors.New("disk full")
	r := New(store)

	_, err := r.Record(context.Background(), sampleExecution("u1", 1, 1))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrDeadLettered)
	assert.Contains(t, err.Error(), "tx aborted")
	assert.Contains(t, err.Error(), "disk full")
}

func TestReplay_IsIdempotent(t *testing.T) {
	store := newMemStore()
	store.failRecord = errors.New("tx aborted")
	r := New(store)

	first, _ := r.Record(context.Background(), sampleExecution("u1", 30, 20))
	second, _ := r.Record(context.Background(), sampleExecution("u1", 5, 5))
	require.Len(t, store.deadLetters, 2)

	store.failRecord = nil

	// the first one landed through another path before the replay
	_, err := store.Record(context.Background(), first)
	require.NoError(t, err)

	report, err := Replay(context.Background(), store, ReplayOptions{Delay: time.Millisecond})
	require.NoError(t, err)

	assert.Equal(t, 1, report.Replayed)
	assert.Equal(t, 1, report.Duplicate)
	assert.Zero(t, report.Failed)
	assert.Empty(t, store.deadLetters)
	assert.Equal(t, int64(first.TotalTokens+second.TotalTokens), store.tokensUsed["u1"])

	// a second replay has nothing to do
	report, err = Replay(context.Background(), store, ReplayOptions{})
	require.NoError(t, err)
	assert.Equal(t, ReplayReport{}, *report)
}

func TestReplay_FailureKeepsLetter(t *testing.T) {
	store := newMemStore()
	store.failRecord = errors.New("still down")
	r := New(store)

	got, _ := r.Record(context.Background(), sampleExecution("u1", 1, 1))

	report, err := Replay(context.Background(), store, ReplayOptions{Attempts: 2, Delay: time.Millisecond})
	require.NoError(t, err)

	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, 1, store.deadLetters[got.ID].Attempts)
}

func TestReplay_DryRun(t *testing.T) {
	store := newMemStore()
	store.failRecord = errors.New("down")
	r := New(store)

	_, _ = r.Record(context.Background(), sampleExecution("u1", 1, 1))
	store.failRecord = nil

	report, err := Replay(context.Background(), store, ReplayOptions{DryRun: true})
	require.NoError(t, err)

	assert.Equal(t, ReplayReport{}, *report)
	assert.Len(t, store.deadLetters, 1)
}
