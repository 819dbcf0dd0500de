package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/aretw0/parley/internal/cli"
	parleyhttp "github.com/aretw0/parley/pkg/adapters/http"
	"github.com/spf13/cobra"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue a bearer token for the HTTP server",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		secret, _ := cmd.Flags().GetString("jwt-secret")
		appID, _ := cmd.Flags().GetString("app-id")
		ttl, _ := cmd.Flags().GetDuration("ttl")
		if appID == "" {
			return errors.New("--app-id is required")
		}

		auth, err := parleyhttp.NewAuthenticator([]byte(secret))
		if err != nil {
			return fmt.Errorf("%w (use --jwt-secret or %s)", err, cli.EnvSecret)
		}
		token, err := auth.IssueToken(appID, ttl)
		if err != nil {
			return err
		}
		fmt.Println(token)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(tokenCmd)

	tokenCmd.Flags().String("jwt-secret", cli.Env(cli.EnvSecret, ""), "HMAC secret shared with the server")
	tokenCmd.Flags().String("app-id", "", "Application id the token is scoped to")
	tokenCmd.Flags().Duration("ttl", 24*time.Hour, "Token lifetime")
}
