package main

import (
	"context"
	"fmt"
	"time"

	"codeberg.org/promptdeck/server/internal/config"
	"codeberg.org/promptdeck/server/internal/logger"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// creates and configures a new server instance with all dependencies
func NewServer(cfg *config.Config) (*Server, error) {
	ctx, stop := context.WithCancel(context.Background())

	db, err := connectDatabase(ctx, cfg.SupabaseConnString)
	if err != nil {
		stop()
		return nil, err
	}

	rdb, err := connectRedis(ctx, cfg.RedisURL)
	if err != nil {
		stop()
		db.Close()
		return nil, err
	}

	repos := InitializeRepositories(db)

	services, err := InitializeServices(ctx, cfg, repos, rdb)
	if err != nil {
		stop()
		closeRedis(rdb)
		db.Close()
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	server := &Server{
		db:       db,
		redis:    rdb,
		config:   cfg,
		repos:    repos,
		services: services,
		router:   gin.Default(),
		stop:     stop,
	}

	RegisterRoutes(server.router, server)

	return server, nil
}

func connectDatabase(ctx context.Context, connString string) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	// supabase free tier has ~10-15 pooler connections, so keep our pool small
	poolConfig.MaxConns = 5
	poolConfig.MinConns = 1
	poolConfig.MaxConnLifetime = 30 * time.Minute
	poolConfig.MaxConnIdleTime = 5 * time.Minute
	poolConfig.HealthCheckPeriod = 1 * time.Minute

	// pgBouncer in transaction mode doesn't support prepared statements
	poolConfig.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol

	db, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create database pool: %w", err)
	}

	if err := db.Ping(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// returns nil without error when no URL is configured
func connectRedis(ctx context.Context, redisURL string) (*redis.Client, error) {
	if redisURL == "" {
		logger.Info("REDIS_URL not set, using in-process rate limits and token revocation")
		return nil, nil
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close() //nolint:errcheck,gosec // best-effort cleanup on init failure
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	logger.Info("connected to redis")

	return client, nil
}

func closeRedis(rdb *redis.Client) {
	if rdb == nil {
		return
	}

	if err := rdb.Close(); err != nil {
		logger.ErrorErr(err, "failed to close redis connection")
	}
}

// releases connections and stops background loops
func (s *Server) Close() {
	s.stop()
	closeRedis(s.redis)
	s.db.Close()
}
