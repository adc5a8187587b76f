package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"codeberg.org/promptdeck/server/internal/reconciler"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var signCmd = &cobra.Command{
	Use:   "sign [payload-file]",
	Short: "Sign a webhook payload with PAYMENT_WEBHOOK_SECRET",
	Long: `Prints the signature header the payment processor would send for the
payload, read from the file argument or stdin. Useful for replaying events
against a local server with curl.

Examples:
  ledger sign event.json
  curl -H "$(ledger sign event.json)" --data-binary @event.json \
    localhost:8080/api/v1/webhooks/payments`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		secret, err := requireSetting("PAYMENT_WEBHOOK_SECRET")
		if err != nil {
			return err
		}

		var payload []byte
		if len(args) == 1 {
			payload, err = os.ReadFile(args[0])
		} else {
			payload, err = io.ReadAll(cmd.InOrStdin())
		}

		if err != nil {
			return fmt.Errorf("failed to read payload: %w", err)
		}

		at := time.Now()
		if ts := viper.GetInt64("sign.timestamp"); ts > 0 {
			at = time.Unix(ts, 0)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", reconciler.SignatureHeader, reconciler.SignPayload(payload, secret, at))

		return nil
	},
}

func init() {
	signCmd.Flags().Int64("timestamp", 0, "unix timestamp to sign with (default: now)")

	_ = viper.BindPFlag("sign.timestamp", signCmd.Flags().Lookup("timestamp")) //nolint:errcheck // flag defined above
}
