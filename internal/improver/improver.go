// Package improver rewrites prompt content with an LLM and stores each rewrite as a new
// prompt version.
package improver

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"codeberg.org/promptdeck/server/internal/llm"
	"codeberg.org/promptdeck/server/internal/metrics"
	"codeberg.org/promptdeck/server/internal/quota"
	"codeberg.org/promptdeck/server/internal/tokens"
	"codeberg.org/promptdeck/server/promptdeck/prompts"
)

var (
	ErrNotAllowed          = errors.New("only the prompt owner can change this prompt")
	ErrUnsupportedLanguage = errors.New("unsupported language")
	ErrSameLanguage        = errors.New("prompt is already in that language")
	ErrEmptyRewrite        = errors.New("model returned empty content")
)

type PromptStore interface {
	Get(ctx context.Context, promptID, viewerID string) (*prompts.Prompt, error)
	SaveVersion(ctx context.Context, nv prompts.NewVersion) (*prompts.Version, error)
}

type Clients interface {
	Get(provider string) (llm.Client, error)
}

type QuotaChecker interface {
	CheckTokens(ctx context.Context, userID string, estimated int) (*quota.Decision, error)
}

type Improver struct {
	prompts  PromptStore
	clients  Clients
	quota    QuotaChecker
	provider string
	model    string
}

func New(store PromptStore, clients Clients, guard QuotaChecker, provider, model string) *Improver {
	return &Improver{
		prompts:  store,
		clients:  clients,
		quota:    guard,
		provider: provider,
		model:    model,
	}
}

// outcome of an improve or translate call
type Rewrite struct {
	Content string           `json:"content"`
	Version *prompts.Version `json:"version"`
	Usage   llm.Usage        `json:"usage"`
}

// rewrites the prompt for clarity; language defaults to the prompt's own
func (i *Improver) Improve(ctx context.Context, promptID, userID, language string) (*Rewrite, error) {
	prompt, err := i.load(ctx, promptID, userID)
	if err != nil {
		return nil, err
	}

	if language == "" {
		language = prompt.Language
	}

	if !validLanguage(language) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedLanguage, language)
	}

	return i.rewrite(ctx, prompt, userID, language, prompts.ChangeImprovement, improveSystemPrompt(language))
}

// translates the prompt into the other supported language
func (i *Improver) Translate(ctx context.Context, promptID, userID, language string) (*Rewrite, error) {
	if !validLanguage(language) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedLanguage, language)
	}

	prompt, err := i.load(ctx, promptID, userID)
	if err != nil {
		return nil, err
	}

	if prompt.Language == language {
		return nil, ErrSameLanguage
	}

	return i.rewrite(ctx, prompt, userID, language, prompts.ChangeTranslation, translateSystemPrompt(language))
}

// owners may change their prompts; anyone may change system prompts
func (i *Improver) load(ctx context.Context, promptID, userID string) (*prompts.Prompt, error) {
	prompt, err := i.prompts.Get(ctx, promptID, userID)
	if err != nil {
		return nil, err
	}

	if !prompt.IsSystem && !prompt.OwnedBy(userID) {
		return nil, ErrNotAllowed
	}

	return prompt, nil
}

func (i *Improver) rewrite(ctx context.Context, prompt *prompts.Prompt, userID, language, change, system string) (*Rewrite, error) {
	client, err := i.clients.Get(i.provider)
	if err != nil {
		return nil, err
	}

	// rewrites spend provider tokens too; they are checked but not debited, so tokens_used
	// stays the sum of recorded executions
	if _, err := i.quota.CheckTokens(ctx, userID, tokens.EstimateAll(system, prompt.Content)); err != nil {
		if errors.Is(err, quota.ErrQuotaExceeded) {
			metrics.QuotaRejectionsTotal.Inc()
		}

		return nil, err
	}

	resp, err := client.Complete(ctx, llm.CompletionRequest{
		Model:        i.model,
		SystemPrompt: system,
		Messages:     []llm.Message{{Role: "user", Content: prompt.Content}},
	})
	if err != nil {
		return nil, err
	}

	content := stripFences(resp.Text)
	if content == "" {
		return nil, ErrEmptyRewrite
	}

	version, err := i.prompts.SaveVersion(ctx, prompts.NewVersion{
		PromptID:   prompt.ID,
		Content:    content,
		Language:   language,
		ChangeType: change,
		CreatedBy:  userID,
	})
	if err != nil {
		return nil, err
	}

	return &Rewrite{Content: content, Version: version, Usage: resp.Usage}, nil
}

func validLanguage(lang string) bool {
	return lang == prompts.LanguageSpanish || lang == prompts.LanguageEnglish
}

// models sometimes wrap the answer in a markdown fence
func stripFences(text string) string {
	text = strings.TrimSpace(text)

	if !strings.HasPrefix(text, "```") {
		return text
	}

	text = strings.TrimPrefix(text, "```")
	if nl := strings.IndexByte(text, '\n'); nl >= 0 {
		text = text[nl+1:]
	}

	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(text), "```"))
}
