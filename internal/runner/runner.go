// Package runner executes a prompt against a provider and accounts for it:
// quota check, dispatch, pricing, then recording.
package runner

import (
	"context"
	"errors"
	"fmt"

	"codeberg.org/promptdeck/server/internal/llm"
	"codeberg.org/promptdeck/server/internal/logger"
	"codeberg.org/promptdeck/server/internal/metrics"
	"codeberg.org/promptdeck/server/internal/pricing"
	"codeberg.org/promptdeck/server/internal/quota"
	"codeberg.org/promptdeck/server/internal/recorder"
	"codeberg.org/promptdeck/server/promptdeck/catalog"
	"codeberg.org/promptdeck/server/promptdeck/executions"
	"codeberg.org/promptdeck/server/promptdeck/prompts"
	"github.com/shopspring/decimal"
)

type PromptReader interface {
	Get(ctx context.Context, promptID, viewerID string) (*prompts.Prompt, error)
}

type ModelCatalog interface {
	GetProvider(ctx context.Context, providerID string) (*catalog.Provider, error)
	GetModel(ctx context.Context, provider, model string) (*catalog.Model, error)
}

type QuotaChecker interface {
	Check(ctx context.Context, userID, content string) (*quota.Decision, error)
}

type Pricer interface {
	Quote(ctx context.Context, model string, inputTokens, outputTokens int) (pricing.Quote, error)
}

type Recorder interface {
	Record(ctx context.Context, e executions.Execution) (*executions.Execution, error)
}

type Clients interface {
	Get(provider string) (llm.Client, error)
}

type Runner struct {
	prompts  PromptReader
	catalog  ModelCatalog
	quota    QuotaChecker
	clients  Clients
	pricer   Pricer
	recorder Recorder
}

func New(p PromptReader, c ModelCatalog, q QuotaChecker, clients Clients, pricer Pricer, rec Recorder) *Runner {
	return &Runner{
		prompts:  p,
		catalog:  c,
		quota:    q,
		clients:  clients,
		pricer:   pricer,
		recorder: rec,
	}
}

// executes a prompt for a user. The quota check is optimistic; usage is debited by the
// recorder once the provider reports real counts.
func (r *Runner) Execute(ctx context.Context, req ExecuteRequest) (*Result, error) {
	prompt, err := r.prompts.Get(ctx, req.PromptID, req.UserID)
	if err == nil && !prompt.VisibleTo(req.UserID) {
		err = prompts.ErrPromptNotFound
	}

	if err != nil {
		r.count(req.Provider, "not_found", err)
		return nil, err
	}

	content := req.Content
	if content == "" {
		content = prompt.Content
	}

	model, err := r.resolveModel(ctx, req.Provider, req.Model)
	if err != nil {
		r.count(req.Provider, "not_found", err)
		return nil, err
	}

	client, err := r.clients.Get(req.Provider)
	if err != nil {
		r.count(req.Provider, "not_found", err)
		return nil, err
	}

	if _, err := r.quota.Check(ctx, req.UserID, content); err != nil {
		if errors.Is(err, quota.ErrQuotaExceeded) {
			metrics.QuotaRejectionsTotal.Inc()
			r.count(req.Provider, "quota_exceeded", nil)
		}

		return nil, err
	}

	// past the guard the provider spends tokens; finish the call and its recording even
	// if the client goes away. The provider clients bound the call with their own timeout.
	ctx = context.WithoutCancel(ctx)

	resp, err := client.Complete(ctx, llm.CompletionRequest{
		Model:      model.Model,
		Messages:   []llm.Message{{Role: "user", Content: content}},
		Parameters: fitParameters(req.Parameters, model),
	})
	if err != nil {
		r.count(req.Provider, "provider_error", nil)
		return nil, err
	}

	metrics.ProviderLatencySeconds.WithLabelValues(req.Provider).Observe(resp.Latency.Seconds())

	quote, err := r.pricer.Quote(ctx, model.Model, resp.Usage.InputTokens, resp.Usage.OutputTokens)
	if err != nil {
		// the answer already exists; bill zero rather than lose it
		logger.FromContext(ctx).Error("pricing lookup failed, recording at zero cost",
			"error", err,
			"model", model.Model,
			"user_id", req.UserID,
		)

		quote = pricing.Quote{Total: decimal.Zero, Currency: pricing.DefaultCurrency}
	}

	exec, err := r.recorder.Record(ctx, executions.Execution{
		PromptID:     prompt.ID,
		UserID:       req.UserID,
		Provider:     req.Provider,
		Model:        model.Model,
		InputTokens:  resp.Usage.InputTokens,
		OutputTokens: resp.Usage.OutputTokens,
		Cost:         quote.Total,
		Currency:     quote.Currency,
		LatencyMS:    resp.Latency.Milliseconds(),
		Result:       resp.Text,
		Parameters:   req.Parameters.AsMap(),
	})
	if err != nil {
		// the recorder already logged and parked it; the user still gets the result
		logger.FromContext(ctx).Warn("execution returned without a committed record",
			"prompt_id", prompt.ID,
			"user_id", req.UserID,
			"dead_lettered", errors.Is(err, recorder.ErrDeadLettered),
		)
	}

	r.count(req.Provider, "ok", nil)

	result := &Result{
		Result: resp.Text,
		Usage: UsageReport{
			InputTokens:  resp.Usage.InputTokens,
			OutputTokens: resp.Usage.OutputTokens,
			TotalTokens:  resp.Usage.Total(),
			Cost:         quote.Total,
			Currency:     quote.Currency,
			LatencyMS:    resp.Latency.Milliseconds(),
			Estimated:    resp.Estimated,
		},
	}

	if exec != nil {
		result.ExecutionID = exec.ID
	}

	return result, nil
}

// a model is usable only when it and its provider exist and are enabled
func (r *Runner) resolveModel(ctx context.Context, provider, model string) (*catalog.Model, error) {
	p, err := r.catalog.GetProvider(ctx, provider)
	if err != nil {
		return nil, err
	}

	if !p.Enabled {
		return nil, fmt.Errorf("%w: %s is disabled", catalog.ErrProviderNotFound, provider)
	}

	m, err := r.catalog.GetModel(ctx, provider, model)
	if err != nil {
		return nil, err
	}

	if !m.Enabled {
		return nil, fmt.Errorf("%w: %s is disabled", catalog.ErrModelNotFound, model)
	}

	return m, nil
}

func (r *Runner) count(provider, outcome string, err error) {
	if err != nil && !IsNotFound(err) {
		outcome = "error"
	}

	metrics.ExecutionsTotal.WithLabelValues(provider, outcome).Inc()
}

// drops parameters the model does not accept and caps max tokens
func fitParameters(p Parameters, model *catalog.Model) llm.Parameters {
	out := llm.Parameters{MaxTokens: p.MaxTokens}

	if model.SupportsTemperature {
		out.Temperature = p.Temperature
	}

	if model.SupportsTopP {
		out.TopP = p.TopP
	}

	if model.MaxTokens > 0 && (out.MaxTokens == 0 || out.MaxTokens > model.MaxTokens) {
		out.MaxTokens = model.MaxTokens
	}

	return out
}

// reports whether err means the prompt, model or provider does not exist
func IsNotFound(err error) bool {
	return errors.Is(err, prompts.ErrPromptNotFound) ||
		errors.Is(err, catalog.ErrModelNotFound) ||
		errors.Is(err, catalog.ErrProviderNotFound) ||
		errors.Is(err, llm.ErrProviderUnavailable)
}
