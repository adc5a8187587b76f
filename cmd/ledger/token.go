package main

import (
	"fmt"

	"codeberg.org/promptdeck/server/internal/auth"
	"codeberg.org/promptdeck/server/internal/errors"
	"codeberg.org/promptdeck/server/internal/sessions"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint an access token for a user",
	Long: `Signs an access token with JWT_SECRET for local testing.

The user must exist for the API to serve anything beyond auth checks. The
admin claim is informational only; admin routes re-read the flag from the
database.

Examples:
  ledger token --user-id 6f1c... --email dev@promptdeck.local
  export TEST_TOKEN=$(ledger token --user-id 6f1c... --quiet)`,
	RunE: func(cmd *cobra.Command, args []string) error {
		secret, err := requireSetting("JWT_SECRET")
		if err != nil {
			return err
		}

		userID := viper.GetString("token.user_id")
		if !errors.IsValidUUID(userID) {
			return fmt.Errorf("--user-id must be a uuid, got %q", userID)
		}

		svc := auth.NewService(secret, viper.GetDuration("token.ttl"), sessions.NewMemoryStore(cmd.Context(), 0))

		token, err := svc.GenerateJWT(userID, viper.GetString("token.email"), viper.GetBool("token.admin"))
		if err != nil {
			return fmt.Errorf("failed to generate token: %w", err)
		}

		if viper.GetBool("token.quiet") {
			fmt.Println(token)
			return nil
		}

		fmt.Printf("Access token for %s:\n%s\n\n", userID, token)
		fmt.Printf("export TEST_TOKEN=%q\n", token)

		return nil
	},
}

func init() {
	flags := tokenCmd.Flags()
	flags.String("user-id", "", "user id (uuid)")
	flags.String("email", "", "email claim")
	flags.Bool("admin", false, "set the admin claim")
	flags.Duration("ttl", auth.DefaultTokenTTL, "token lifetime")
	flags.BoolP("quiet", "q", false, "print only the token")

	_ = viper.BindPFlag("token.user_id", flags.Lookup("user-id")) //nolint:errcheck // flag defined above
	_ = viper.BindPFlag("token.email", flags.Lookup("email"))     //nolint:errcheck // flag defined above
	_ = viper.BindPFlag("token.admin", flags.Lookup("admin"))     //nolint:errcheck // flag defined above
	_ = viper.BindPFlag("token.ttl", flags.Lookup("ttl"))         //nolint:errcheck // flag defined above
	_ = viper.BindPFlag("token.quiet", flags.Lookup("quiet"))     //nolint:errcheck // flag defined above
}
