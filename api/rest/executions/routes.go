package executions

import (
	"context"

	"codeberg.org/promptdeck/server/internal/runner"
	"github.com/gin-gonic/gin"
)

type Executor interface {
	Execute(ctx context.Context, req runner.ExecuteRequest) (*runner.Result, error)
}

// rg is expected to carry auth; limit throttles per user
func RegisterRoutes(rg *gin.RouterGroup, executor Executor, limit gin.HandlerFunc) {
	rg.POST("/prompts/:id/execute", limit, ExecutePrompt(executor))
	rg.POST("/executions", limit, ExecutePrompt(executor))
}
