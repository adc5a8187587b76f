package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"codeberg.org/promptdeck/server/internal/logger"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "ledger",
	Short: "Operator tools for executions, tokens and payment webhooks",
	Long: `ledger is the promptdeck operator CLI.

Commands:
  - replay: re-record executions parked in the dead-letter queue
  - token:  mint an access token for a user (local testing)
  - sign:   sign a webhook payload the way the payment processor does

Settings come from flags, then environment variables (a .env file is
loaded when present), then an optional config file.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initConfig()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: ./ledger.yaml if present)",
	)

	rootCmd.AddCommand(replayCmd, tokenCmd, signCmd)
}

func initConfig() error {
	_ = godotenv.Load() //nolint:errcheck // .env is optional

	viper.AutomaticEnv()
	viper.SetDefault("ENVIRONMENT", "development")

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("ledger")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) || cfgFile != "" {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}

	logger.Configure(viper.GetString("ENVIRONMENT"))

	return nil
}

// returns the named setting or an error naming the missing key
func requireSetting(key string) (string, error) {
	v := viper.GetString(key)
	if v == "" {
		return "", fmt.Errorf("%s is required (flag, environment or config file)", key)
	}

	return v, nil
}

func openDatabase(ctx context.Context) (*pgxpool.Pool, error) {
	connString, err := requireSetting("SUPABASE_CONNECTION_STRING")
	if err != nil {
		return nil, err
	}

	poolConfig, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	poolConfig.MaxConns = 2
	poolConfig.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol

	db, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create database pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := db.Ping(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}
