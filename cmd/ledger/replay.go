package main

import (
	"encoding/json"
	"os"
	"time"

	"codeberg.org/promptdeck/server/internal/logger"
	"codeberg.org/promptdeck/server/internal/recorder"
	"codeberg.org/promptdeck/server/promptdeck/executions"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var replayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Re-record executions from the dead-letter queue",
	Long: `Re-records executions whose accounting write failed.

Each parked execution is written with its original id, so one that already
landed is counted as a duplicate and removed without debiting tokens twice.
Failures stay queued with their attempt count bumped.

Examples:
  ledger replay --dry-run
  ledger replay --limit 500 --attempts 5 --delay 2s`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		db, err := openDatabase(ctx)
		if err != nil {
			return err
		}
		defer db.Close()

		opts := recorder.ReplayOptions{
			Limit:    viper.GetInt("replay.limit"),
			Attempts: viper.GetUint("replay.attempts"),
			Delay:    viper.GetDuration("replay.delay"),
			DryRun:   viper.GetBool("replay.dry_run"),
		}

		logger.Info("replaying dead letters",
			"limit", opts.Limit,
			"attempts", opts.Attempts,
			"dry_run", opts.DryRun,
		)

		report, err := recorder.Replay(ctx, executions.NewRepository(db), opts)
		if report != nil {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			if encErr := enc.Encode(report); encErr != nil {
				logger.ErrorErr(encErr, "failed to print replay report")
			}
		}

		return err
	},
}

func init() {
	flags := replayCmd.Flags()
	flags.Int("limit", 100, "maximum dead letters to process")
	flags.Uint("attempts", 3, "write attempts per execution")
	flags.Duration("delay", time.Second, "delay between attempts")
	flags.Bool("dry-run", false, "list pending dead letters without writing")

	_ = viper.BindPFlag("replay.limit", flags.Lookup("limit"))       //nolint:errcheck // flag defined above
	_ = viper.BindPFlag("replay.attempts", flags.Lookup("attempts")) //nolint:errcheck // flag defined above
	_ = viper.BindPFlag("replay.delay", flags.Lookup("delay"))       //nolint:errcheck // flag defined above
	_ = viper.BindPFlag("replay.dry_run", flags.Lookup("dry-run"))   //nolint:errcheck // flag defined above
}
