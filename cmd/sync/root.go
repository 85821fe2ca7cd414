package main

import (
	"context"
	"fmt"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/riskibarqy/matchday-sync/internal/app"
	"github.com/riskibarqy/matchday-sync/internal/config"
	"github.com/riskibarqy/matchday-sync/internal/observability"
	"github.com/riskibarqy/matchday-sync/internal/platform/logging"
	"github.com/spf13/cobra"
)

// runFlags are shared by every subcommand that starts sync runs.
type runFlags struct {
	configFile   string
	dryRun       bool
	competitions []string
	season       string
	from         string
	to           string
}

func getRootCmd() *cobra.Command {
	flags := &runFlags{}

	rootCmd := &cobra.Command{
		Use:   "sync",
		Short: "Synchronizes competitions, fixtures, broadcasts and results",
		Long: `sync pulls football data from three upstream providers and reconciles it
into the canonical store.

  - import:     competition, teams and fixtures from the master-data provider
  - broadcasts: relevant TV stations for stored fixtures
  - results:    final scores for finished fixtures
  - all:        imports, then broadcasts, then results
  - runs:       recent sync run records

Configuration is read from environment variables and, when --config or
SYNC_CONFIG_FILE is set, from a YAML file. Environment variables win.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&flags.configFile, "config", "",
		"config file (default: $SYNC_CONFIG_FILE)")
	rootCmd.PersistentFlags().BoolVar(&flags.dryRun, "dry-run", false,
		"compute outcomes without writing domain rows")
	rootCmd.PersistentFlags().StringSliceVar(&flags.competitions, "competition", nil,
		"competition code, repeatable (default: every catalog entry)")
	rootCmd.PersistentFlags().StringVar(&flags.season, "season", "",
		"season override for imports")
	rootCmd.PersistentFlags().StringVar(&flags.from, "from", "",
		"window start, YYYY-MM-DD or RFC3339")
	rootCmd.PersistentFlags().StringVar(&flags.to, "to", "",
		"window end, YYYY-MM-DD or RFC3339")

	rootCmd.AddCommand(
		getImportCmd(flags),
		getBroadcastsCmd(flags),
		getResultsCmd(flags),
		getAllCmd(flags),
		getRunsCmd(flags),
	)

	return rootCmd
}

// loadConfig reads the config and installs the process logger.
func loadConfig(flags *runFlags) (config.Config, *logging.Logger, error) {
	cfg, err := config.LoadFile(strings.TrimSpace(flags.configFile))
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("load configuration: %w", err)
	}

	logger := logging.New(logging.Options{Level: cfg.LogLevel, Format: cfg.LogFormat})
	logging.SetDefault(logger)
	return cfg, logger, nil
}

// withApp boots observability and the wired pipeline around fn. SIGINT and
// SIGTERM cancel the context so in-flight runs finalize as aborted.
func withApp(cmd *cobra.Command, flags *runFlags, fn func(ctx context.Context, a *app.App) error) error {
	cfg, logger, err := loadConfig(flags)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := observability.InitUptrace(cfg, logger)
	if err != nil {
		return fmt.Errorf("init uptrace: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			logger.Warn("uptrace shutdown failed", "error", err)
		}
	}()

	stopProfiling, err := observability.InitPyroscope(cfg, logger)
	if err != nil {
		return fmt.Errorf("init pyroscope: %w", err)
	}
	defer func() {
		if err := stopProfiling(); err != nil {
			logger.Warn("pyroscope stop failed", "error", err)
		}
	}()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Warn("close database failed", "error", err)
		}
	}()

	return fn(ctx, a)
}

// selectedCompetitions returns the --competition codes or, when none are
// given, every catalog entry in configuration order.
func selectedCompetitions(flags *runFlags, a *app.App) ([]string, error) {
	codes := make([]string, 0, len(flags.competitions))
	for _, code := range flags.competitions {
		if code = strings.TrimSpace(code); code != "" {
			codes = append(codes, code)
		}
	}
	if len(codes) > 0 {
		return codes, nil
	}
	codes = a.Catalog.Codes()
	if len(codes) == 0 {
		return nil, fmt.Errorf("no competitions configured and none given with --competition")
	}
	return codes, nil
}
