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

func getResultsCmd(flags *runFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "results",
		Short: "Applies final scores from the results provider",
		Long: `Reconciles finished matches played between --from and --to
(default: the last RESULT_LOOKBACK) against stored fixtures.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, flags, func(ctx context.Context, a *app.App) error {
				codes, err := selectedCompetitions(flags, a)
				if err != nil {
					return err
				}
				from, to, err := resultWindow(flags, time.Now(), a.Config.ResultLookback)
				if err != nil {
					return err
				}

				var (
					records []syncrun.Record
					errs    []error
				)
				for _, code := range codes {
					out, err := a.Results.SyncResults(ctx, usecase.ResultSyncRequest{
						CompetitionCode: code,
						From:            from,
						To:              to,
						DryRun:          flags.dryRun,
					})
					records = append(records, out.Run)
					if err != nil {
						errs = append(errs, fmt.Errorf("results %s: %w", code, err))
						continue
					}
					a.Logger.InfoContext(ctx, "results reconciled",
						"competition", code,
						"matched", out.Matched,
						"updated", out.Updated,
						"unmatched", out.Unmatched,
						"high_confidence", out.HighConfidence,
						"low_confidence", out.LowConfidence,
					)
				}

				printRecords(cmd.OutOrStdout(), records)
				return errors.Join(errs...)
			})
		},
	}
}
