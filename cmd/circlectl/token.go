package main

import (
	"fmt"
	"time"

	"github.com/npezzotti/wakuwork/internal/api"
	"github.com/npezzotti/wakuwork/internal/config"
	"github.com/spf13/cobra"
)

var (
	tokenName string
	tokenTTL  time.Duration
)

// tokenCmd mints a principal token for local testing without an identity
// provider.
var tokenCmd = &cobra.Command{
	Use:   "token <subject>",
	Short: "Issue a signed principal token",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		secret, err := requireString(signingKeyKey)
		if err != nil {
			return err
		}

		key, err := config.DecodeSigningSecret(secret)
		if err != nil {
			return fmt.Errorf("decode signing key: %w", err)
		}

		name := tokenName
		if name == "" {
			name = args[0]
		}

		token, err := api.IssueToken(key, args[0], name, tokenTTL)
		if err != nil {
			return fmt.Errorf("issue token: %w", err)
		}

		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

func init() {
	tokenCmd.Flags().StringVar(&tokenName, "name", "", "display name claim (defaults to the subject)")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 24*time.Hour, "token lifetime")
	rootCmd.AddCommand(tokenCmd)
}
