package main

import (
	"context"

	"codeberg.org/promptdeck/server/internal/auth"
	"codeberg.org/promptdeck/server/internal/config"
	"codeberg.org/promptdeck/server/internal/email"
	"codeberg.org/promptdeck/server/internal/improver"
	"codeberg.org/promptdeck/server/internal/llm"
	"codeberg.org/promptdeck/server/internal/quota"
	"codeberg.org/promptdeck/server/internal/reconciler"
	"codeberg.org/promptdeck/server/internal/runner"
	"codeberg.org/promptdeck/server/promptdeck/affiliates"
	"codeberg.org/promptdeck/server/promptdeck/audit"
	"codeberg.org/promptdeck/server/promptdeck/billing"
	"codeberg.org/promptdeck/server/promptdeck/catalog"
	"codeberg.org/promptdeck/server/promptdeck/coupons"
	"codeberg.org/promptdeck/server/promptdeck/emails"
	"codeberg.org/promptdeck/server/promptdeck/executions"
	"codeberg.org/promptdeck/server/promptdeck/prompts"
	"codeberg.org/promptdeck/server/promptdeck/settings"
	"codeberg.org/promptdeck/server/promptdeck/users"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
)

// holds all dependencies and state for the API server
type Server struct {
	db       *pgxpool.Pool
	redis    *redis.Client // nil when REDIS_URL is unset
	config   *config.Config
	repos    *Repositories
	services *Services
	router   *gin.Engine

	// stops background loops (in-memory revocation cleanup)
	stop context.CancelFunc
}

type Repositories struct {
	Users      *users.Repository
	Prompts    *prompts.Repository
	Catalog    *catalog.Repository
	Executions *executions.Repository
	Plans      *billing.Repository
	Billing    *billing.Store
	Coupons    *coupons.Repository
	Emails     *emails.Repository
	Settings   *settings.Repository
	Audit      *audit.Repository
	Affiliates *affiliates.Repository
}

// holds the domain services built on top of the repositories
type Services struct {
	Auth       *auth.Service
	LLM        *llm.Registry
	Quota      *quota.Guard
	Runner     *runner.Runner
	Improver   *improver.Improver
	Email      *email.Service
	Reconciler *reconciler.Reconciler
	Limiter    *limiter.Limiter
}
