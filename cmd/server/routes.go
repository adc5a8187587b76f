package main

import (
	"time"

	"codeberg.org/promptdeck/server/api/rest/admin"
	authapi "codeberg.org/promptdeck/server/api/rest/auth"
	"codeberg.org/promptdeck/server/api/rest/billing"
	"codeberg.org/promptdeck/server/api/rest/executions"
	"codeberg.org/promptdeck/server/api/rest/health"
	"codeberg.org/promptdeck/server/api/rest/prompts"
	"codeberg.org/promptdeck/server/api/rest/users"
	"codeberg.org/promptdeck/server/api/rest/webhooks"
	"codeberg.org/promptdeck/server/internal/auth"
	"codeberg.org/promptdeck/server/internal/metrics"
	"codeberg.org/promptdeck/server/internal/ratelimit"
	"github.com/gin-gonic/gin"
)

// sets up all API routes and middleware
func RegisterRoutes(router *gin.Engine, server *Server) {
	repos := server.repos
	services := server.services

	router.Use(CORSMiddleware(server.config.AllowedOrigins))
	router.Use(RequestLogger())
	router.Use(metrics.Middleware())

	router.GET("/health", health.Handler(server.db))
	router.GET("/metrics", metrics.Handler())

	v1 := router.Group("/api/v1")
	v1.GET("/ping", health.PingHandler)

	webhooks.RegisterRoutes(v1, services.Reconciler, webhooks.Config{
		Secret:    server.config.Billing.WebhookSecret,
		Tolerance: server.config.Billing.WebhookTolerance,
	})

	authed := v1.Group("")
	authed.Use(auth.AuthMiddleware(services.Auth))

	limit := ratelimit.Middleware(services.Limiter)

	authapi.RegisterRoutes(authed, services.Auth)
	billing.RegisterRoutes(v1, authed, repos.Plans, repos.Coupons)
	prompts.RegisterRoutes(authed, repos.Prompts, services.Improver, limit)
	executions.RegisterRoutes(authed, services.Runner, limit)
	users.RegisterRoutes(authed, repos.Users, repos.Executions, services.Quota)

	adminGroup := authed.Group("")
	adminGroup.Use(auth.AdminAuthMiddleware(repos.Users))

	admin.RegisterRoutes(adminGroup, admin.Deps{
		Catalog:     repos.Catalog,
		Plans:       repos.Plans,
		Users:       repos.Users,
		Coupons:     repos.Coupons,
		Templates:   repos.Emails,
		Mailer:      services.Email,
		Settings:    repos.Settings,
		Audit:       repos.Audit,
		Affiliates:  repos.Affiliates,
		DeadLetters: repos.Executions,
		Now:         time.Now,
	})
}
