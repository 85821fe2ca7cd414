package main

import (
	"context"
	"time"

	"github.com/riskibarqy/matchday-sync/internal/app"
	"github.com/riskibarqy/matchday-sync/internal/usecase"
	"github.com/spf13/cobra"
)

func getAllCmd(flags *runFlags) *cobra.Command {
	var parallelLanes bool
	cmd := &cobra.Command{
		Use:   "all",
		Short: "Runs imports, then broadcasts, then results",
		Long: `Imports every selected competition one after another, then runs the
broadcast lane and after it the result lane. --parallel-lanes runs the two
lanes side by side instead. --from and --to apply to both lanes when given;
otherwise each lane uses its own default window.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, flags, func(ctx context.Context, a *app.App) error {
				codes, err := selectedCompetitions(flags, a)
				if err != nil {
					return err
				}
				now := time.Now()
				broadcastFrom, broadcastTo, err := broadcastWindow(flags, now, a.Config.BroadcastLookahead)
				if err != nil {
					return err
				}
				resultFrom, resultTo, err := resultWindow(flags, now, a.Config.ResultLookback)
				if err != nil {
					return err
				}

				out, err := a.SyncAll.SyncAll(ctx, usecase.SyncAllRequest{
					CompetitionCodes: codes,
					Season:           flags.season,
					BroadcastFrom:    broadcastFrom,
					BroadcastTo:      broadcastTo,
					ResultFrom:       resultFrom,
					ResultTo:         resultTo,
					DryRun:           flags.dryRun,
					ParallelLanes:    parallelLanes,
				})
				printRecords(cmd.OutOrStdout(), out.Records())
				return err
			})
		},
	}
	cmd.Flags().BoolVar(&parallelLanes, "parallel-lanes", false,
		"run the broadcast and result lanes concurrently")
	return cmd
}
