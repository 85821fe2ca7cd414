package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/riskibarqy/matchday-sync/internal/app"
	"github.com/riskibarqy/matchday-sync/internal/domain/syncrun"
	"github.com/riskibarqy/matchday-sync/internal/usecase"
	"github.com/spf13/cobra"
)

func getBroadcastsCmd(flags *runFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "broadcasts",
		Short: "Attaches relevant TV broadcasts to stored fixtures",
		Long: `Fetches station listings for fixtures kicking off between --from and --to
(default: now until BROADCAST_LOOKAHEAD) and keeps the target-market ones.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, flags, func(ctx context.Context, a *app.App) error {
				codes, err := selectedCompetitions(flags, a)
				if err != nil {
					return err
				}
				from, to, err := broadcastWindow(flags, time.Now(), a.Config.BroadcastLookahead)
				if err != nil {
					return err
				}

				var (
					records []syncrun.Record
					errs    []error
				)
				for _, code := range codes {
					out, err := a.Broadcasts.SyncBroadcasts(ctx, usecase.BroadcastSyncRequest{
						CompetitionCode: code,
						From:            from,
						To:              to,
						DryRun:          flags.dryRun,
					})
					records = append(records, out.Run)
					if err != nil {
						errs = append(errs, fmt.Errorf("broadcasts %s: %w", code, err))
					}
				}

				printRecords(cmd.OutOrStdout(), records)
				return errors.Join(errs...)
			})
		},
	}
}
