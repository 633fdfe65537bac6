package main

import (
	"errors"
	"time"

	"github.com/spf13/cobra"

	"github.com/rezkam/compass/internal/application/auth"
	"github.com/rezkam/compass/internal/config"
	"github.com/rezkam/compass/internal/domain"
)

func newTokenCmd() *cobra.Command {
	var (
		owner string
		ttl   time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token for an owner, signed with COMPASS_AUTH_SECRET",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadCLIConfig()
			if err != nil {
				return err
			}
			if cfg.AuthSecret == "" {
				return config.ErrSecretRequired
			}
			if owner == "" {
				return errors.New("--owner is required")
			}

			authenticator, err := auth.NewAuthenticator(auth.Config{
				Secret: cfg.AuthSecret,
				Issuer: cfg.AuthIssuer,
			}, domain.SystemClock)
			if err != nil {
				return err
			}
			token, err := authenticator.IssueToken(owner, ttl)
			if err != nil {
				return err
			}
			printf(cmd, "%s\n", token)
			return nil
		},
	}
	cmd.Flags().StringVar(&owner, "owner", "", "owner ID the token is issued for")
	cmd.Flags().DurationVar(&ttl, "ttl", auth.DefaultTokenTTL, "token lifetime")
	return cmd
}
