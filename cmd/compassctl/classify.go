package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rezkam/compass/internal/domain"
	"github.com/rezkam/compass/internal/priority"
)

func newClassifyCmd() *cobra.Command {
	var urgency, importance string
	cmd := &cobra.Command{
		Use:   "classify",
		Short: "Show the Eisenhower quadrant and score of an urgency/importance pair",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			u, err := domain.ParseLevel(urgency)
			if err != nil {
				return fmt.Errorf("urgency: %w", err)
			}
			i, err := domain.ParseLevel(importance)
			if err != nil {
				return fmt.Errorf("importance: %w", err)
			}

			c := priority.Classify(u, i)
			printf(cmd, "quadrant: %s (%s)\nscore: %d\n", c.Quadrant, c.Label, c.Score)
			return nil
		},
	}
	cmd.Flags().StringVar(&urgency, "urgency", "", "low, medium, high or critical (default medium)")
	cmd.Flags().StringVar(&importance, "importance", "", "low, medium, high or critical (default medium)")
	return cmd
}
