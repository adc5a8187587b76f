package users

import (
	"context"

	"codeberg.org/promptdeck/server/internal/quota"
	"codeberg.org/promptdeck/server/promptdeck/executions"
	"codeberg.org/promptdeck/server/promptdeck/users"
	"github.com/gin-gonic/gin"
)

type UserStore interface {
	FindByID(ctx context.Context, userID string) (*users.User, error)
	GetUsage(ctx context.Context, userID string) (quota.Usage, error)
	UpdateProfile(ctx context.Context, userID, name string) (*users.User, error)
}

type ExecutionHistory interface {
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]executions.Execution, int, error)
	SummaryByUser(ctx context.Context, userID string) (*executions.UsageSummary, error)
}

type QuotaChecker interface {
	Check(ctx context.Context, userID, content string) (*quota.Decision, error)
}

// rg is expected to carry auth
func RegisterRoutes(rg *gin.RouterGroup, store UserStore, history ExecutionHistory, guard QuotaChecker) {
	me := rg.Group("/users/me")
	{
		me.GET("", GetMe(store))
		me.PUT("", UpdateProfile(store))
		me.GET("/quota", GetQuota(store))
		me.POST("/quota/check", CheckQuota(guard))
		me.GET("/executions", ListExecutions(history))
		me.GET("/executions/summary", GetExecutionSummary(history))
	}
}
