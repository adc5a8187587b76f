// Package quota checks a user's cumulative token usage against their plan limit before an
// execution is dispatched.
//
// The check is optimistic: it reads usage, compares, and returns without holding any lock.
// Two executions racing for the same user can both pass and overshoot the limit by at most
// one execution's worth. The debit happens later, in the execution recorder, once real
// usage is known.
package quota

import (
	"context"
	"errors"
	"fmt"

	"codeberg.org/promptdeck/server/internal/tokens"
)

var ErrQuotaExceeded = errors.New("token quota exceeded")

// current counters for one user
type Usage struct {
	TokensUsed  int64
	TokensLimit int64
}

// remaining allowance, never negative
func (u Usage) Remaining() int64 {
	if r := u.TokensLimit - u.TokensUsed; r > 0 {
		return r
	}

	return 0
}

type UsageReader interface {
	GetUsage(ctx context.Context, userID string) (Usage, error)
}

// outcome of a quota check
type Decision struct {
	EstimatedTokens int
	Usage           Usage
}

type Guard struct {
	usage UsageReader
}

func NewGuard(usage UsageReader) *Guard {
	return &Guard{usage: usage}
}

// estimates content and rejects with ErrQuotaExceeded when used+estimate > limit
func (g *Guard) Check(ctx context.Context, userID, content string) (*Decision, error) {
	return g.CheckTokens(ctx, userID, tokens.Estimate(content))
}

// like Check but for an already estimated token count
func (g *Guard) CheckTokens(ctx context.Context, userID string, estimated int) (*Decision, error) {
	usage, err := g.usage.GetUsage(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to read token usage: %w", err)
	}

	decision := &Decision{EstimatedTokens: estimated, Usage: usage}

	if Exceeds(usage, estimated) {
		return decision, ErrQuotaExceeded
	}

	return decision, nil
}

// reports whether spending estimated tokens would cross the limit
func Exceeds(usage Usage, estimated int) bool {
	return usage.TokensUsed+int64(estimated) > usage.TokensLimit
}
