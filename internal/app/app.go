package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/riskibarqy/matchday-sync/external/apifootball"
	"github.com/riskibarqy/matchday-sync/external/footballdata"
	"github.com/riskibarqy/matchday-sync/external/sportmonks"
	"github.com/riskibarqy/matchday-sync/internal/config"
	"github.com/riskibarqy/matchday-sync/internal/domain/competition"
	"github.com/riskibarqy/matchday-sync/internal/infrastructure/repository/postgres"
	"github.com/riskibarqy/matchday-sync/internal/platform/logging"
	"github.com/riskibarqy/matchday-sync/internal/platform/resilience"
	"github.com/riskibarqy/matchday-sync/internal/usecase"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"github.com/uptrace/opentelemetry-go-extra/otelsqlx"
	"go.opentelemetry.io/otel/attribute"
)

// App holds the wired sync pipeline for one process.
type App struct {
	Config  config.Config
	Logger  *logging.Logger
	Catalog *usecase.StaticCatalog

	Imports    *usecase.CompetitionImportService
	Broadcasts *usecase.BroadcastSyncService
	Results    *usecase.ResultSyncService
	SyncAll    *usecase.SyncAllService
	Runs       *postgres.SyncRunRepository

	db *sqlx.DB
}

// New opens the database and builds every service. The caller owns Close.
func New(ctx context.Context, cfg config.Config, logger *logging.Logger) (*App, error) {
	if logger == nil {
		logger = logging.Default()
	}

	catalog, err := buildCatalog(cfg)
	if err != nil {
		return nil, err
	}
	policy, ok := usecase.ConflictPolicyByName(cfg.ConflictPolicy)
	if !ok {
		return nil, fmt.Errorf("unknown conflict policy %q", cfg.ConflictPolicy)
	}

	db, err := openDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	competitions := postgres.NewCompetitionRepository(db)
	teams := postgres.NewTeamRepository(db)
	fixtures := postgres.NewFixtureRepository(db)
	broadcasts := postgres.NewBroadcastRepository(db)
	raw := postgres.NewRawDataRepository(db)
	runs := postgres.NewSyncRunRepository(db)

	controller := usecase.NewRunController(
		runs,
		postgres.NewLocker(db),
		usecase.RunControllerConfig{MaxDiagnostics: cfg.MaxDiagnostics},
		logger.Named("run"),
	)

	masterData := apifootball.NewClient(apifootball.ClientConfig{
		BaseURL:        cfg.MasterData.BaseURL,
		Token:          cfg.MasterData.Token,
		Timeout:        cfg.MasterData.Timeout,
		Logger:         logger.Named(apifootball.ProviderName),
		CircuitBreaker: cfg.MasterData.CircuitBreaker,
	})
	stations := sportmonks.NewClient(sportmonks.ClientConfig{
		BaseURL:        cfg.Broadcasts.BaseURL,
		Token:          cfg.Broadcasts.Token,
		Timeout:        cfg.Broadcasts.Timeout,
		Logger:         logger.Named(sportmonks.ProviderName),
		CircuitBreaker: cfg.Broadcasts.CircuitBreaker,
	})
	scores := footballdata.NewClient(footballdata.ClientConfig{
		BaseURL:        cfg.Results.BaseURL,
		Token:          cfg.Results.Token,
		Timeout:        cfg.Results.Timeout,
		Logger:         logger.Named(footballdata.ProviderName),
		CircuitBreaker: cfg.Results.CircuitBreaker,
	})

	imports := usecase.NewCompetitionImportService(
		controller,
		masterData,
		upstreamPolicy(cfg.MasterData),
		catalog,
		competitions,
		teams,
		fixtures,
		raw,
		usecase.ImportConfig{
			TeamBatchSize:    cfg.TeamBatchSize,
			FixtureBatchSize: cfg.FixtureBatchSize,
			Policy:           policy,
			ArchiveRaw:       cfg.ArchiveRawPayloads,
			TeamOverrides:    cfg.TeamOverrides[apifootball.ProviderName],
		},
		logger.Named("import"),
	)
	broadcastSync := usecase.NewBroadcastSyncService(
		controller,
		stations,
		upstreamPolicy(cfg.Broadcasts),
		catalog,
		competitions,
		fixtures,
		broadcasts,
		raw,
		usecase.BroadcastSyncConfig{
			TargetRegions: cfg.BroadcastTargetRegions,
			Keywords: usecase.BroadcastKeywords{
				ForeignDenylist:  cfg.BroadcastForeignDenylist,
				CompanionMarkers: cfg.BroadcastCompanionMarkers,
			},
			NoCoverageWindow: cfg.BroadcastNoCoverageWindow,
			ArchiveRaw:       cfg.ArchiveRawPayloads,
		},
		logger.Named("broadcasts"),
	)
	resultSync := usecase.NewResultSyncService(
		controller,
		scores,
		upstreamPolicy(cfg.Results),
		catalog,
		competitions,
		fixtures,
		raw,
		usecase.ResultSyncConfig{ArchiveRaw: cfg.ArchiveRawPayloads},
		logger.Named("results"),
	)

	return &App{
		Config:     cfg,
		Logger:     logger,
		Catalog:    catalog,
		Imports:    imports,
		Broadcasts: broadcastSync,
		Results:    resultSync,
		SyncAll:    usecase.NewSyncAllService(imports, broadcastSync, resultSync, logger.Named("all")),
		Runs:       runs,
		db:         db,
	}, nil
}

func (a *App) Close() error {
	if a == nil || a.db == nil {
		return nil
	}
	return a.db.Close()
}

func openDB(ctx context.Context, cfg config.Config) (*sqlx.DB, error) {
	if strings.TrimSpace(cfg.DBURL) == "" {
		return nil, fmt.Errorf("DB_URL is required")
	}

	db, err := otelsqlx.Open("postgres", normalizeDBURL(cfg.DBURL, cfg.DBBinaryParameters),
		otelsql.WithAttributes(attribute.String("db.system.name", "postgresql")),
		otelsql.WithDBName(dbNameFromURL(cfg.DBURL)),
		otelsql.WithQueryFormatter(formatDBQueryForTrace),
	)
	if err != nil {
		return nil, crerr.Wrap(err, "open database")
	}
	// One connection is held by the competition lock for a whole import.
	db.SetMaxOpenConns(cfg.DBMaxOpenConns + 1)
	db.SetMaxIdleConns(cfg.DBMaxOpenConns)
	db.SetConnMaxLifetime(cfg.DBConnMaxLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, crerr.Wrap(err, "ping database")
	}
	return db, nil
}

// upstreamPolicy gives each provider its own limiter so parallel lanes
// never pace each other.
func upstreamPolicy(cfg config.ProviderConfig) usecase.UpstreamPolicy {
	return usecase.UpstreamPolicy{
		Limiter:     resilience.NewRateLimiter(cfg.RateLimit),
		Retry:       cfg.Retry,
		CallTimeout: cfg.Timeout,
	}
}

func buildCatalog(cfg config.Config) (*usecase.StaticCatalog, error) {
	specs := make([]usecase.CompetitionSpec, 0, len(cfg.Competitions))
	for _, item := range cfg.Competitions {
		spec, err := competitionSpec(item)
		if err != nil {
			return nil, err
		}
		specs = append(specs, spec)
	}
	return usecase.NewStaticCatalog(specs), nil
}

func competitionSpec(item config.CompetitionConfig) (usecase.CompetitionSpec, error) {
	kind, ok := competition.ParseType(item.Type)
	if !ok {
		return usecase.CompetitionSpec{}, fmt.Errorf("competition %q: unknown type %q", item.Code, item.Type)
	}

	refs := make(map[string]string, 3)
	for provider, ref := range map[string]string{
		apifootball.ProviderName:  item.APIFootballLeague,
		footballdata.ProviderName: item.FootballDataCode,
		sportmonks.ProviderName:   item.SportMonksLeagueID,
	} {
		if ref = strings.TrimSpace(ref); ref != "" {
			refs[provider] = ref
		}
	}

	return usecase.CompetitionSpec{
		Code:         item.Code,
		Name:         item.Name,
		Country:      item.Country,
		Season:       item.Season,
		Type:         kind,
		TotalTeams:   item.TotalTeams,
		TotalRounds:  item.TotalRounds,
		Visible:      item.Visible,
		ProviderRefs: refs,
	}, nil
}
