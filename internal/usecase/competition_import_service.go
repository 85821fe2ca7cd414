package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/riskibarqy/matchday-sync/internal/domain/competition"
	"github.com/riskibarqy/matchday-sync/internal/domain/fixture"
	"github.com/riskibarqy/matchday-sync/internal/domain/rawdata"
	"github.com/riskibarqy/matchday-sync/internal/domain/syncrun"
	"github.com/riskibarqy/matchday-sync/internal/domain/team"
	"github.com/riskibarqy/matchday-sync/internal/naming"
	"github.com/riskibarqy/matchday-sync/internal/platform/logging"
	"go.opentelemetry.io/otel/attribute"
)

type ImportRequest struct {
	CompetitionCode string `validate:"required,max=64"`
	// Season overrides the catalog season when set.
	Season string `validate:"omitempty,max=16"`
	DryRun bool
}

type ImportResult struct {
	Run               syncrun.Record
	TeamsProcessed    int
	FixturesProcessed int
}

type ImportConfig struct {
	TeamBatchSize    int
	FixtureBatchSize int
	Policy           ConflictPolicy
	ArchiveRaw       bool
	// TeamOverrides maps master-data team ids to canonical club names.
	TeamOverrides map[string]string
}

// CompetitionImportService imports one competition season from the
// master-data provider into the canonical store.
type CompetitionImportService struct {
	controller   *RunController
	provider     MasterDataProvider
	upstream     UpstreamPolicy
	catalog      CompetitionCatalog
	competitions competition.Repository
	teams        team.Repository
	fixtures     fixture.Repository
	archive      *payloadArchiver
	cfg          ImportConfig
	logger       *logging.Logger
}

func NewCompetitionImportService(
	controller *RunController,
	provider MasterDataProvider,
	upstream UpstreamPolicy,
	catalog CompetitionCatalog,
	competitions competition.Repository,
	teams team.Repository,
	fixtures fixture.Repository,
	raw rawdata.Repository,
	cfg ImportConfig,
	logger *logging.Logger,
) *CompetitionImportService {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.TeamBatchSize <= 0 {
		cfg.TeamBatchSize = 25
	}
	if cfg.FixtureBatchSize <= 0 {
		cfg.FixtureBatchSize = 50
	}
	if cfg.Policy.Name == "" {
		cfg.Policy = DefaultConflictPolicy
	}
	return &CompetitionImportService{
		controller:   controller,
		provider:     provider,
		upstream:     upstream,
		catalog:      catalog,
		competitions: competitions,
		teams:        teams,
		fixtures:     fixtures,
		archive:      newPayloadArchiver(raw, cfg.ArchiveRaw),
		cfg:          cfg,
		logger:       logger,
	}
}

// importState is owned by a single run.
type importState struct {
	spec          CompetitionSpec
	competition   competition.Competition
	season        string
	ref           string
	resolver      *TeamResolver
	provisionalID int64
	plannedSlugs  map[string]struct{}
}

func (st *importState) nextProvisionalID() int64 {
	st.provisionalID--
	return st.provisionalID
}

// ImportCompetition runs fetch, resolve and upsert for one competition.
// Per-record failures are counted on the run record, never returned.
func (s *CompetitionImportService) ImportCompetition(ctx context.Context, req ImportRequest) (ImportResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.CompetitionImportService.ImportCompetition",
		attribute.String("competition", req.CompetitionCode),
	)
	defer span.End()

	var result ImportResult
	spec := RunSpec{
		Type:            syncrun.TypeCompetitionImport,
		Provider:        s.provider.Name(),
		CompetitionCode: normalizeCode(req.CompetitionCode),
		DryRun:          req.DryRun,
		Upstream:        s.upstream,
		Exclusive:       true,
	}
	record, err := s.controller.Execute(ctx, spec, func(ctx context.Context, run *Run) error {
		state, err := s.prepare(ctx, run, req)
		if err != nil {
			return err
		}

		before := run.Counts().Processed
		s.importTeams(ctx, run, state)
		result.TeamsProcessed = run.Counts().Processed - before

		before = run.Counts().Processed
		s.importFixtures(ctx, run, state)
		result.FixturesProcessed = run.Counts().Processed - before

		run.SetMeta("season", state.season)
		run.SetMeta("competition_type", string(state.competition.Type))
		run.SetMeta("conflict_policy", s.cfg.Policy.Name)
		run.SetMeta("teams_processed", result.TeamsProcessed)
		run.SetMeta("fixtures_processed", result.FixturesProcessed)
		return nil
	})
	result.Run = record
	return result, err
}

func (s *CompetitionImportService) prepare(ctx context.Context, run *Run, req ImportRequest) (*importState, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	spec, ok := s.catalog.Lookup(req.CompetitionCode)
	if !ok {
		return nil, fmt.Errorf("%w: unknown competition %q", ErrConfiguration, req.CompetitionCode)
	}
	season := strings.TrimSpace(req.Season)
	if season == "" {
		season = spec.Season
	}
	if season == "" {
		return nil, fmt.Errorf("%w: no season configured for %s", ErrConfiguration, spec.Code)
	}
	ref := spec.ProviderRef(s.provider.Name())
	if ref == "" {
		return nil, fmt.Errorf("%w: competition %s has no %s reference", ErrConfiguration, spec.Code, s.provider.Name())
	}

	comp := competition.Competition{
		Code:        spec.Code,
		Name:        spec.Name,
		Slug:        naming.TextSlug(spec.Name),
		Country:     spec.Country,
		Season:      season,
		Type:        spec.Type,
		TotalTeams:  spec.TotalTeams,
		TotalRounds: spec.TotalRounds,
		IsVisible:   spec.Visible,
		ExternalIDs: map[string]string{s.provider.Name(): ref},
	}
	stored, err := s.ensureCompetition(ctx, run, comp)
	if err != nil {
		return nil, err
	}

	cached, err := s.teams.ListByCompetition(ctx, stored.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: load teams of %s: %v", ErrDependencyUnavailable, spec.Code, err)
	}
	resolver := NewTeamResolver(s.provider.Name(), s.cfg.TeamOverrides)
	resolver.Load(cached)
	run.Logger().InfoContext(ctx, "team cache loaded", "teams", resolver.Size())

	return &importState{
		spec:         spec,
		competition:  stored,
		season:       season,
		ref:          ref,
		resolver:     resolver,
		plannedSlugs: make(map[string]struct{}),
	}, nil
}

func (s *CompetitionImportService) ensureCompetition(ctx context.Context, run *Run, comp competition.Competition) (competition.Competition, error) {
	if !run.DryRun() {
		stored, err := s.competitions.Upsert(ctx, comp)
		if err != nil {
			return competition.Competition{}, fmt.Errorf("%w: upsert competition %s: %v", ErrDependencyUnavailable, comp.Code, err)
		}
		return stored, nil
	}

	existing, found, err := s.competitions.GetByCode(ctx, comp.Code)
	if err != nil {
		return competition.Competition{}, fmt.Errorf("%w: get competition %s: %v", ErrDependencyUnavailable, comp.Code, err)
	}
	if !found {
		run.Plan(fixture.OutcomeCreated, "competition", comp.Code)
		return comp, nil
	}
	comp.ID = existing.ID
	run.Plan(fixture.OutcomeUpdated, "competition", comp.Code)
	return comp, nil
}

func (s *CompetitionImportService) importTeams(ctx context.Context, run *Run, state *importState) {
	provider := s.provider.Name()
	items := collectPages(ctx, run, "teams",
		func(ctx context.Context, page int) (Page[ExternalTeam], error) {
			return s.provider.FetchTeams(ctx, state.ref, state.season, page)
		},
		func(page Page[ExternalTeam]) {
			s.archive.archive(ctx, run, provider, "teams", fmt.Sprintf("%s:%s:%d", state.ref, state.season, page.Page), page.Raw)
		},
	)

	forEachBatch(items, s.cfg.TeamBatchSize, func(batchNo int, batch []ExternalTeam, done int) {
		for _, ext := range batch {
			ext := ext
			_ = run.Item(ctx, "team "+describeTeam(ext), func(ctx context.Context) error {
				return s.importTeam(ctx, run, state, ext)
			})
		}
		run.Logger().InfoContext(ctx, "team batch done",
			"batch", batchNo,
			"progress", humanize.Comma(int64(done))+"/"+humanize.Comma(int64(len(items))),
		)
	})
}

func (s *CompetitionImportService) importTeam(ctx context.Context, run *Run, state *importState, ext ExternalTeam) error {
	name := strings.TrimSpace(ext.Name)
	if name == "" {
		return fmt.Errorf("%w: team without a name", ErrInvalidInput)
	}

	observed := team.Team{
		Name:           name,
		NormalizedName: naming.CanonicalKey(name, ext.ShortName),
		ShortName:      strings.TrimSpace(ext.ShortName),
		TLA:            strings.ToUpper(strings.TrimSpace(ext.TLA)),
		CrestURL:       strings.TrimSpace(ext.CrestURL),
		Country:        strings.TrimSpace(ext.Country),
		Founded:        ext.Founded,
	}
	if ext.ExternalID != "" {
		observed.ExternalIDs = map[string]string{s.provider.Name(): ext.ExternalID}
	}

	candidate := TeamCandidate{ExternalID: ext.ExternalID, Name: name, ShortName: ext.ShortName}
	existing, _, found := state.resolver.Resolve(candidate)
	if !found {
		var err error
		existing, found, err = s.findStoredTeam(ctx, state, candidate)
		if err != nil {
			return err
		}
	}
	if !found {
		return s.createTeam(ctx, run, state, observed)
	}
	return s.updateTeam(ctx, run, state, existing, observed)
}

// findStoredTeam looks outside the competition's cache, where teams of
// other competitions live. A provider id match is taken as is. A name match
// counts only when the stored team has no id from this provider yet, so a
// same-named club of another competition becomes a team of its own.
func (s *CompetitionImportService) findStoredTeam(ctx context.Context, state *importState, candidate TeamCandidate) (team.Team, bool, error) {
	if candidate.ExternalID != "" {
		item, found, err := s.teams.GetByExternalID(ctx, s.provider.Name(), candidate.ExternalID)
		if err != nil || found {
			return item, found, wrapStoreErr(err, "get team by external id")
		}
	}
	if key := candidate.Key(); key != "" {
		item, found, err := s.teams.GetByNormalizedName(ctx, key)
		if err != nil {
			return team.Team{}, false, wrapStoreErr(err, "get team by name")
		}
		if found && !state.resolver.Conflicts(item, candidate.ExternalID) {
			return item, true, nil
		}
	}
	if key, ok := state.resolver.OverrideKey(candidate.ExternalID); ok {
		item, found, err := s.teams.GetByNormalizedName(ctx, key)
		if err != nil {
			return team.Team{}, false, wrapStoreErr(err, "get team by override")
		}
		if found && !state.resolver.Conflicts(item, candidate.ExternalID) {
			return item, true, nil
		}
	}
	return team.Team{}, false, nil
}

func (s *CompetitionImportService) updateTeam(ctx context.Context, run *Run, state *importState, existing, observed team.Team) error {
	comp := state.competition
	decision := ConflictDecision{MergeFields: true}
	homeElsewhere := existing.PrimaryCompetitionID != nil && *existing.PrimaryCompetitionID != comp.ID
	switch {
	case existing.PrimaryCompetitionID == nil:
		decision.Rehome = true
	case homeElsewhere:
		decision = s.cfg.Policy.Decide(comp.Type)
	}

	updated := existing
	var merged, moved bool
	if decision.MergeFields {
		updated, merged = updated.MergeObserved(observed)
	}
	if decision.Rehome {
		updated, moved = updated.Rehome(comp.ID)
	}
	state.resolver.Add(updated)
	state.resolver.Link(observed.ExternalID(s.provider.Name()), updated)

	if !merged && !moved {
		run.Count(fixture.OutcomeUnchanged)
		return nil
	}
	if run.DryRun() {
		run.Count(fixture.OutcomeUpdated)
		run.Plan(fixture.OutcomeUpdated, "team", updated.Slug)
		return nil
	}
	if err := s.teams.Update(ctx, updated); err != nil {
		return wrapStoreErr(err, "update team "+updated.Slug)
	}
	run.Count(fixture.OutcomeUpdated)
	if moved {
		run.Logger().InfoContext(ctx, "team re-homed",
			"team", updated.Slug,
			"from_competition", derefInt64(existing.PrimaryCompetitionID),
			"to_competition", comp.ID,
			"policy", s.cfg.Policy.Name,
		)
	}
	return nil
}

func (s *CompetitionImportService) createTeam(ctx context.Context, run *Run, state *importState, observed team.Team) error {
	item := observed
	compID := state.competition.ID
	item.PrimaryCompetitionID = &compID
	item.Slug = naming.Slug(item.Name)

	if run.DryRun() {
		item.ID = state.nextProvisionalID()
		taken, err := s.teams.SlugExists(ctx, item.Slug)
		if err != nil {
			return wrapStoreErr(err, "check slug")
		}
		if _, planned := state.plannedSlugs[item.Slug]; planned || taken {
			run.Diagnose("slug %s already taken, team %q would get an id suffix", item.Slug, item.Name)
		}
		state.plannedSlugs[item.Slug] = struct{}{}
		state.resolver.Add(item)
		run.Count(fixture.OutcomeCreated)
		run.Plan(fixture.OutcomeCreated, "team", item.Slug)
		return nil
	}

	created, err := s.teams.Create(ctx, item)
	if err != nil {
		return wrapStoreErr(err, "create team "+item.Slug)
	}
	state.resolver.Add(created)
	run.Count(fixture.OutcomeCreated)
	return nil
}

func (s *CompetitionImportService) importFixtures(ctx context.Context, run *Run, state *importState) {
	provider := s.provider.Name()
	items := collectPages(ctx, run, "fixtures",
		func(ctx context.Context, page int) (Page[ExternalFixture], error) {
			return s.provider.FetchFixtures(ctx, state.ref, state.season, page)
		},
		func(page Page[ExternalFixture]) {
			s.archive.archive(ctx, run, provider, "fixtures", fmt.Sprintf("%s:%s:%d", state.ref, state.season, page.Page), page.Raw)
		},
	)

	forEachBatch(items, s.cfg.FixtureBatchSize, func(batchNo int, batch []ExternalFixture, done int) {
		prepared := make([]fixture.Fixture, 0, len(batch))
		keys := make([]string, 0, len(batch))
		for _, ext := range batch {
			key := "fixture " + describeFixture(ext)
			item, err := s.buildFixture(run, state, ext)
			if err != nil {
				run.Skip(ctx, key, err)
				continue
			}
			prepared = append(prepared, item)
			keys = append(keys, key)
		}
		s.writeFixtures(ctx, run, prepared, keys)
		run.Logger().InfoContext(ctx, "fixture batch done",
			"batch", batchNo,
			"progress", humanize.Comma(int64(done))+"/"+humanize.Comma(int64(len(items))),
		)
	})
}

func (s *CompetitionImportService) buildFixture(run *Run, state *importState, ext ExternalFixture) (fixture.Fixture, error) {
	if ext.KickoffAt.IsZero() {
		return fixture.Fixture{}, fmt.Errorf("%w: missing kickoff", ErrInvalidInput)
	}
	home, _, homeOK := state.resolver.Resolve(TeamCandidate{ExternalID: ext.HomeExternalID, Name: ext.HomeName})
	away, _, awayOK := state.resolver.Resolve(TeamCandidate{ExternalID: ext.AwayExternalID, Name: ext.AwayName})
	if !homeOK || !awayOK {
		return fixture.Fixture{}, fmt.Errorf("%w: home=%q resolved=%t away=%q resolved=%t",
			ErrIdentityUnresolved, ext.HomeName, homeOK, ext.AwayName, awayOK)
	}
	if home.ID == away.ID {
		return fixture.Fixture{}, fmt.Errorf("%w: home and away resolve to the same team %s", ErrIdentityUnresolved, home.Slug)
	}

	status, known := fixture.MapUpstreamStatus(ext.StatusCode)
	if !known {
		run.Diagnose("unknown status code %q on fixture %s, stored as %s", ext.StatusCode, ext.ExternalID, status)
	}

	item := fixture.Fixture{
		CompetitionID: state.competition.ID,
		HomeTeamID:    home.ID,
		AwayTeamID:    away.ID,
		KickoffAt:     ext.KickoffAt,
		Matchday:      ext.Matchday,
		Round:         strings.TrimSpace(ext.Round),
		Stage:         strings.TrimSpace(ext.Stage),
		Venue:         strings.TrimSpace(ext.Venue),
		Status:        status,
		FullTime:      ext.FullTime,
		HalfTime:      ext.HalfTime,
	}
	if ext.ExternalID != "" {
		item.ExternalIDs = map[string]string{s.provider.Name(): ext.ExternalID}
	}
	if fixture.IsFinishedStatus(status) {
		item.Winner = fixture.WinnerFromScore(ext.FullTime)
		item.Duration = fixture.DurationFromStatus(ext.StatusCode)
	}
	return item.Normalize(), nil
}

// writeFixtures upserts a batch in one transaction and falls back to one
// item at a time when the batch fails, so only the bad item is skipped.
func (s *CompetitionImportService) writeFixtures(ctx context.Context, run *Run, items []fixture.Fixture, keys []string) {
	if len(items) == 0 {
		return
	}
	if run.DryRun() {
		for i, item := range items {
			item := item
			_ = run.Item(ctx, keys[i], func(ctx context.Context) error {
				outcome, err := s.planFixture(ctx, item)
				if err != nil {
					return err
				}
				run.Count(outcome)
				if outcome != fixture.OutcomeUnchanged {
					run.Plan(outcome, "fixture", keys[i])
				}
				return nil
			})
		}
		return
	}

	outcomes, err := s.fixtures.UpsertMany(ctx, items)
	if err == nil {
		for _, outcome := range outcomes {
			run.Count(outcome)
		}
		run.Processed(len(items))
		return
	}

	run.Logger().WarnContext(ctx, "fixture batch failed, retrying items one by one", "size", len(items), "error", err)
	for i, item := range items {
		item := item
		_ = run.Item(ctx, keys[i], func(ctx context.Context) error {
			outcomes, err := s.fixtures.UpsertMany(ctx, []fixture.Fixture{item})
			if err != nil {
				return wrapStoreErr(err, "upsert fixture")
			}
			for _, outcome := range outcomes {
				run.Count(outcome)
			}
			return nil
		})
	}
}

// planFixture computes what an upsert would do without writing.
func (s *CompetitionImportService) planFixture(ctx context.Context, item fixture.Fixture) (fixture.Outcome, error) {
	var (
		existing fixture.Fixture
		found    bool
		err      error
	)
	if externalID := item.ExternalID(s.provider.Name()); externalID != "" {
		existing, found, err = s.fixtures.GetByExternalID(ctx, s.provider.Name(), externalID)
		if err != nil {
			return "", wrapStoreErr(err, "get fixture by external id")
		}
	}
	if !found {
		existing, found, err = s.fixtures.GetByNaturalKey(ctx, item.NaturalKey())
		if err != nil {
			return "", wrapStoreErr(err, "get fixture by natural key")
		}
	}
	switch {
	case !found:
		return fixture.OutcomeCreated, nil
	case existing.SameContent(item):
		return fixture.OutcomeUnchanged, nil
	default:
		return fixture.OutcomeUpdated, nil
	}
}

func describeTeam(ext ExternalTeam) string {
	if ext.ExternalID == "" {
		return fmt.Sprintf("%q", ext.Name)
	}
	return fmt.Sprintf("%s (%q)", ext.ExternalID, ext.Name)
}

func describeFixture(ext ExternalFixture) string {
	return fmt.Sprintf("%s %q v %q %s", ext.ExternalID, ext.HomeName, ext.AwayName, ext.KickoffAt.UTC().Format("2006-01-02"))
}

func wrapStoreErr(err error, op string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %s: %v", ErrDependencyUnavailable, op, err)
}

func derefInt64(v *int64) int64 {
	if v == nil {
		return 0
	}
	return *v
}
