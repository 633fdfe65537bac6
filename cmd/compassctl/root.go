package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/rezkam/compass/internal/application/planner"
	"github.com/rezkam/compass/internal/config"
	"github.com/rezkam/compass/internal/domain"
	"github.com/rezkam/compass/internal/infrastructure/persistence"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "compassctl",
		Short:         "Operate a compass deployment",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			verbose, err := cmd.Flags().GetBool("verbose")
			if err != nil {
				return err
			}
			level := slog.LevelWarn
			if verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
			return config.LoadDotEnv()
		},
	}
	root.PersistentFlags().BoolP("verbose", "v", false, "log progress to stderr")

	root.AddCommand(
		newMigrateCmd(),
		newTokenCmd(),
		newSecretCmd(),
		newClassifyCmd(),
		newReconcileCmd(),
	)
	return root
}

// openService loads the CLI configuration and opens the configured store.
// The returned close function releases the store.
func openService(ctx context.Context) (*planner.Service, func(), error) {
	cfg, err := config.LoadCLIConfig()
	if err != nil {
		return nil, nil, err
	}
	store, err := persistence.Open(ctx, cfg.Database)
	if err != nil {
		return nil, nil, err
	}
	closeStore := func() {
		if err := store.Close(); err != nil {
			slog.ErrorContext(ctx, "failed to close store", "error", err)
		}
	}

	svc := planner.NewService(store, domain.SystemClock, planner.Config{
		DefaultPageSize: cfg.Planner.DefaultPageSize,
		MaxPageSize:     cfg.Planner.MaxPageSize,
	})
	return svc, closeStore, nil
}

func printf(cmd *cobra.Command, format string, args ...any) {
	fmt.Fprintf(cmd.OutOrStdout(), format, args...)
}
