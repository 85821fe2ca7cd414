package main

import (
	"context"
	"fmt"

	"github.com/riskibarqy/matchday-sync/internal/app"
	"github.com/spf13/cobra"
)

func getRunsCmd(flags *runFlags) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Lists recent sync run records",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if limit <= 0 {
				return fmt.Errorf("--limit must be > 0")
			}
			return withApp(cmd, flags, func(ctx context.Context, a *app.App) error {
				records, err := a.Runs.ListRecent(ctx, limit)
				if err != nil {
					return fmt.Errorf("list sync runs: %w", err)
				}
				printRecords(cmd.OutOrStdout(), records)
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "number of records to show")
	return cmd
}
