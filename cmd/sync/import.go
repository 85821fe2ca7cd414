package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/riskibarqy/matchday-sync/internal/app"
	"github.com/riskibarqy/matchday-sync/internal/domain/syncrun"
	"github.com/riskibarqy/matchday-sync/internal/usecase"
	"github.com/spf13/cobra"
)

func getImportCmd(flags *runFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "import",
		Short: "Imports competitions, teams and fixtures from the master-data provider",
		Long: `Imports one or more competitions one after another. Each import holds the
competition lock for its whole duration and writes one sync run record.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, flags, func(ctx context.Context, a *app.App) error {
				codes, err := selectedCompetitions(flags, a)
				if err != nil {
					return err
				}

				var (
					records []syncrun.Record
					errs    []error
				)
				for _, code := range codes {
					out, err := a.Imports.ImportCompetition(ctx, usecase.ImportRequest{
						CompetitionCode: code,
						Season:          flags.season,
						DryRun:          flags.dryRun,
					})
					records = append(records, out.Run)
					if err != nil {
						errs = append(errs, fmt.Errorf("import %s: %w", code, err))
					}
				}

				printRecords(cmd.OutOrStdout(), records)
				return errors.Join(errs...)
			})
		},
	}
}
