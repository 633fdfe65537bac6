package main

import (
	"github.com/spf13/cobra"

	"github.com/rezkam/compass/internal/config"
	"github.com/rezkam/compass/internal/infrastructure/persistence"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadCLIConfig()
			if err != nil {
				return err
			}
			if err := persistence.Migrate(cmd.Context(), cfg.Database); err != nil {
				return err
			}
			printf(cmd, "Migrations applied (%s)\n", cfg.Database.Driver)
			return nil
		},
	}
}
