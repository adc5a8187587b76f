package prompts

import (
	"context"

	"codeberg.org/promptdeck/server/internal/improver"
	"codeberg.org/promptdeck/server/promptdeck/prompts"
	"github.com/gin-gonic/gin"
)

type PromptStore interface {
	Get(ctx context.Context, promptID, viewerID string) (*prompts.Prompt, error)
	ListVisible(ctx context.Context, viewerID, language string, limit, offset int) ([]prompts.Prompt, int, error)
	Create(ctx context.Context, userID string, req prompts.CreatePromptRequest) (*prompts.Prompt, error)
	ToggleFavorite(ctx context.Context, promptID, userID string) (bool, error)
	IncrementStat(ctx context.Context, promptID string, stat prompts.Stat) error
	GetStats(ctx context.Context, promptID string) (*prompts.Stats, error)
	ListVersions(ctx context.Context, promptID string) ([]prompts.Version, error)
}

type Rewriter interface {
	Improve(ctx context.Context, promptID, userID, language string) (*improver.Rewrite, error)
	Translate(ctx context.Context, promptID, userID, language string) (*improver.Rewrite, error)
}

// rg is expected to carry auth; limit throttles the AI rewrites
func RegisterRoutes(rg *gin.RouterGroup, store PromptStore, rewriter Rewriter, limit gin.HandlerFunc) {
	p := rg.Group("/prompts")
	{
		p.GET("", ListPrompts(store))
		p.POST("", CreatePrompt(store))
		p.GET("/:id", GetPrompt(store))
		p.GET("/:id/stats", GetStats(store))
		p.GET("/:id/versions", ListVersions(store))
		p.POST("/:id/favorite", ToggleFavorite(store))
		p.POST("/:id/copy", RecordStat(store, prompts.StatCopy))
		p.POST("/:id/visit", RecordStat(store, prompts.StatVisit))
		p.POST("/:id/improve", limit, ImprovePrompt(rewriter))
		p.POST("/:id/translate", limit, TranslatePrompt(rewriter))
	}
}
