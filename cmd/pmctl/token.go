package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/johnassefatheeth/pm-f-d/pkg/auth"
)

// tokenCmd mints a bearer token for local development.
var tokenCmd = &cobra.Command{
	Use:   "token <user-id>",
	Short: "Mint a development JWT signed with jwt.secret",
	Long: `Mint a bearer token for the given user id, signed with the configured
jwt.secret (or JWT_SECRET). Export it as API_TOKEN for later commands.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cfg.JWT.Secret == "" {
			return errors.New("jwt.secret is not configured")
		}
		token, err := auth.GenerateJWT(args[0], cfg.JWT.Secret, cfg.JWT.TTL)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}
