package main

import (
	"github.com/spf13/cobra"

	"github.com/rezkam/compass/internal/application/worker"
)

func newReconcileCmd() *cobra.Command {
	var batchSize int
	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Recompute every goal's status cache once",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, closeStore, err := openService(cmd.Context())
			if err != nil {
				return err
			}
			defer closeStore()

			reconciler, err := worker.NewReconciler(svc, worker.WithBatchSize(batchSize))
			if err != nil {
				return err
			}
			res, err := reconciler.ReconcileOnce(cmd.Context())
			printf(cmd, "checked: %d\nchanged: %d\nfailed: %d\n", res.Checked, res.Changed, res.Failed)
			return err
		},
	}
	cmd.Flags().IntVar(&batchSize, "batch-size", worker.DefaultBatchSize, "goals loaded per page")
	return cmd
}
