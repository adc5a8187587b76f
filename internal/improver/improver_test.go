package improver

import (
	"context"
	"testing"

	"codeberg.org/promptdeck/server/internal/config"
	"codeberg.org/promptdeck/server/internal/llm"
	"codeberg.org/promptdeck/server/internal/quota"
	"codeberg.org/promptdeck/server/promptdeck/prompts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memPrompts struct {
	prompts  map[string]*prompts.Prompt
	versions []prompts.NewVersion
}

func (m *memPrompts) Get(_ context.Context, id, _ string) (*prompts.Prompt, error) {
	p, ok := m.prompts[id]
	if !ok {
		return nil, prompts.ErrPromptNotFound
	}

	return p, nil
}

func (m *memPrompts) SaveVersion(_ context.Context, nv prompts.NewVersion) (*prompts.Version, error) {
	p := m.prompts[nv.PromptID]
	p.Version++
	p.Content = nv.Content
	p.Language = nv.Language

	m.versions = append(m.versions, nv)

	return &prompts.Version{
		PromptID:   nv.PromptID,
		Version:    p.Version,
		Content:    nv.Content,
		Language:   nv.Language,
		ChangeType: nv.ChangeType,
		CreatedBy:  nv.CreatedBy,
	}, nil
}

type fixedUsage struct {
	usage quota.Usage
}

func (f *fixedUsage) GetUsage(_ context.Context, _ string) (quota.Usage, error) {
	return f.usage, nil
}

type echoClient struct {
	reply   string
	calls   int
	lastReq llm.CompletionRequest
}

func (e *echoClient) Complete(_ context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	e.calls++
	e.lastReq = req
	return &llm.CompletionResponse{Text: e.reply, Usage: llm.Usage{InputTokens: 10, OutputTokens: 12}}, nil
}

func strPtr(s string) *string {
	return &s
}

func setup(reply string) (*Improver, *memPrompts, *echoClient) {
	return setupWithUsage(reply, quota.Usage{TokensLimit: 100_000})
}

func setupWithUsage(reply string, usage quota.Usage) (*Improver, *memPrompts, *echoClient) {
	store := &memPrompts{prompts: map[string]*prompts.Prompt{
		"own":    {ID: "own", UserID: strPtr("owner"), Content: "escribe un poema", Language: "es", Version: 1},
		"system": {ID: "system", IsSystem: true, Content: "write a haiku", Language: "en", Version: 3},
	}}

	client := &echoClient{reply: reply}

	registry := llm.NewRegistry(config.ProviderKeys{}, 0)
	registry.Register("openai", client)

	guard := quota.NewGuard(&fixedUsage{usage: usage})

	return New(store, registry, guard, "openai", "gpt-4o-mini"), store, client
}

func TestImprove_OwnerCreatesVersion(t *testing.T) {
	imp, store, client := setup("Actúa como poeta. Escribe un poema sobre [TEMA].")

	res, err := imp.Improve(context.Background(), "own", "owner", "")
	require.NoError(t, err)

	assert.Equal(t, "Actúa como poeta. Escribe un poema sobre [TEMA].", res.Content)
	assert.Equal(t, 2, res.Version.Version)
	assert.Equal(t, prompts.ChangeImprovement, res.Version.ChangeType)
	assert.Equal(t, "es", res.Version.Language)
	assert.Equal(t, 22, res.Usage.Total())

	require.Len(t, store.versions, 1)
	assert.Equal(t, "gpt-4o-mini", client.lastReq.Model)
	assert.Contains(t, client.lastReq.SystemPrompt, "Spanish")
}

func TestImprove_ForbiddenForNonOwner(t *testing.T) {
	imp, store, _ := setup("x")

	_, err := imp.Improve(context.Background(), "own", "stranger", "")
	assert.ErrorIs(t, err, ErrNotAllowed)
	assert.Empty(t, store.versions)
}

func TestImprove_SystemPromptOpenToAll(t *testing.T) {
	imp, _, _ := setup("Write a haiku about autumn.")

	res, err := imp.Improve(context.Background(), "system", "anyone", "")
	require.NoError(t, err)
	assert.Equal(t, 4, res.Version.Version)
}

func TestImprove_NotFound(t *testing.T) {
	imp, _, _ := setup("x")

	_, err := imp.Improve(context.Background(), "missing", "owner", "")
	assert.ErrorIs(t, err, prompts.ErrPromptNotFound)
}

func TestTranslate(t *testing.T) {
	imp, store, client := setup("```\nwrite a poem\n```")

	res, err := imp.Translate(context.Background(), "own", "owner", "en")
	require.NoError(t, err)

	assert.Equal(t, "write a poem", res.Content)
	assert.Equal(t, prompts.ChangeTranslation, res.Version.ChangeType)
	assert.Equal(t, "en", store.prompts["own"].Language)
	assert.Contains(t, client.lastReq.SystemPrompt, "English")
}

func TestTranslate_Validation(t *testing.T) {
	imp, _, _ := setup("x")

	_, err := imp.Translate(context.Background(), "own", "owner", "fr")
	assert.ErrorIs(t, err, ErrUnsupportedLanguage)

	_, err = imp.Translate(context.Background(), "own", "owner", "es")
	assert.ErrorIs(t, err, ErrSameLanguage)
}

func TestRewrite_EmptyReply(t *testing.T) {
	imp, store, _ := setup("   ")

	_, err := imp.Improve(context.Background(), "own", "owner", "")
	assert.ErrorIs(t, err, ErrEmptyRewrite)
	assert.Empty(t, store.versions)
}

func TestStripFences(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"plain", "plain"},
		{"```\nfenced\n```", "fenced"},
		{"```text\nwith lang\n```", "with lang"},
		{"  padded  ", "padded"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, stripFences(tt.in))
	}
}

func TestRewrite_QuotaExceeded(t *testing.T) {
	exhausted := quota.Usage{TokensUsed: 5_000, TokensLimit: 5_000}

	t.Run("improve", func(t *testing.T) {
		imp, store, client := setupWithUsage("x", exhausted)

		_, err := imp.Improve(context.Background(), "own", "owner", "")
		assert.ErrorIs(t, err, quota.ErrQuotaExceeded)
		assert.Zero(t, client.calls)
		assert.Empty(t, store.versions)
	})

	t.Run("translate", func(t *testing.T) {
		imp, store, client := setupWithUsage("x", exhausted)

		_, err := imp.Translate(context.Background(), "own", "owner", "en")
		assert.ErrorIs(t, err, quota.ErrQuotaExceeded)
		assert.Zero(t, client.calls)
		assert.Empty(t, store.versions)
	})
}
