package main

import (
	"github.com/spf13/cobra"

	"github.com/rezkam/compass/internal/infrastructure/keygen"
)

func newSecretCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "secret",
		Short: "Generate a token signing secret",
		Long: "Generate a random signing secret for COMPASS_AUTH_SECRET and print it with its key ID.\n" +
			"The key ID appears in the kid header of every token signed with the secret.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			secret, err := keygen.GenerateSecret()
			if err != nil {
				return err
			}
			printf(cmd, "COMPASS_AUTH_SECRET=%s\n", secret)
			printf(cmd, "kid: %s\n", keygen.KeyID(secret))
			return nil
		},
	}
}
