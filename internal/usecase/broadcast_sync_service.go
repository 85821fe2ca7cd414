package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/riskibarqy/matchday-sync/internal/domain/broadcast"
	"github.com/riskibarqy/matchday-sync/internal/domain/competition"
	"github.com/riskibarqy/matchday-sync/internal/domain/fixture"
	"github.com/riskibarqy/matchday-sync/internal/domain/rawdata"
	"github.com/riskibarqy/matchday-sync/internal/domain/syncrun"
	"github.com/riskibarqy/matchday-sync/internal/naming"
	"github.com/riskibarqy/matchday-sync/internal/platform/logging"
	"go.opentelemetry.io/otel/attribute"
)

type BroadcastSyncRequest struct {
	CompetitionCode string    `validate:"required,max=64"`
	From            time.Time `validate:"required"`
	To              time.Time `validate:"required,gtfield=From"`
	DryRun          bool
}

type BroadcastSyncResult struct {
	Run               syncrun.Record
	FixturesSeen      int
	FixturesProcessed int
	NoCoverage        int
}

type BroadcastSyncConfig struct {
	TargetRegions    []string
	Keywords         BroadcastKeywords
	NoCoverageWindow time.Duration
	ArchiveRaw       bool
}

// BroadcastSyncService attaches relevant broadcasters to stored fixtures.
type BroadcastSyncService struct {
	controller   *RunController
	provider     BroadcastProvider
	upstream     UpstreamPolicy
	catalog      CompetitionCatalog
	competitions competition.Repository
	fixtures     fixture.Repository
	broadcasts   broadcast.Repository
	archive      *payloadArchiver
	cfg          BroadcastSyncConfig
	logger       *logging.Logger
	now          func() time.Time
}

func NewBroadcastSyncService(
	controller *RunController,
	provider BroadcastProvider,
	upstream UpstreamPolicy,
	catalog CompetitionCatalog,
	competitions competition.Repository,
	fixtures fixture.Repository,
	broadcasts broadcast.Repository,
	raw rawdata.Repository,
	cfg BroadcastSyncConfig,
	logger *logging.Logger,
) *BroadcastSyncService {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.NoCoverageWindow <= 0 {
		cfg.NoCoverageWindow = 48 * time.Hour
	}
	return &BroadcastSyncService{
		controller:   controller,
		provider:     provider,
		upstream:     upstream,
		catalog:      catalog,
		competitions: competitions,
		fixtures:     fixtures,
		broadcasts:   broadcasts,
		archive:      newPayloadArchiver(raw, cfg.ArchiveRaw),
		cfg:          cfg,
		logger:       logger,
		now:          time.Now,
	}
}

// SyncBroadcasts fetches station listings for the competition's fixtures in
// [From, To] and upserts the relevant ones.
func (s *BroadcastSyncService) SyncBroadcasts(ctx context.Context, req BroadcastSyncRequest) (BroadcastSyncResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.BroadcastSyncService.SyncBroadcasts",
		attribute.String("competition", req.CompetitionCode),
	)
	defer span.End()

	var result BroadcastSyncResult
	spec := RunSpec{
		Type:            syncrun.TypeBroadcastSync,
		Provider:        s.provider.Name(),
		CompetitionCode: normalizeCode(req.CompetitionCode),
		DryRun:          req.DryRun,
		Upstream:        s.upstream,
	}
	record, err := s.controller.Execute(ctx, spec, func(ctx context.Context, run *Run) error {
		comp, ref, err := s.prepare(ctx, req)
		if err != nil {
			return err
		}
		from, to := req.From.UTC(), req.To.UTC()

		upstream := collectPages(ctx, run, "fixtures",
			func(ctx context.Context, page int) (Page[ExternalBroadcastFixture], error) {
				return s.provider.FetchFixtures(ctx, ref, from, to, page)
			},
			func(page Page[ExternalBroadcastFixture]) {
				s.archive.archive(ctx, run, s.provider.Name(), "fixtures", fmt.Sprintf("%s:%s:%s:%d", ref, from.Format("2006-01-02"), to.Format("2006-01-02"), page.Page), page.Raw)
			},
		)
		result.FixturesSeen = len(upstream)

		candidates, err := s.fixtures.ListCandidates(ctx, comp.ID, from.Add(-24*time.Hour), to.Add(24*time.Hour))
		if err != nil {
			return fmt.Errorf("%w: list fixtures: %v", ErrDependencyUnavailable, err)
		}
		matcher := newFixtureMatcher(s.provider.Name(), candidates)

		for _, ext := range upstream {
			ext := ext
			key := fmt.Sprintf("fixture %s %q v %q", ext.ExternalID, ext.HomeName, ext.AwayName)
			err := run.Item(ctx, key, func(ctx context.Context) error {
				noCoverage, err := s.syncFixture(ctx, run, matcher, ext)
				if noCoverage {
					result.NoCoverage++
				}
				return err
			})
			if err == nil {
				result.FixturesProcessed++
			}
		}

		run.SetMeta("fixtures_seen", result.FixturesSeen)
		run.SetMeta("no_coverage", result.NoCoverage)
		run.SetMeta("target_regions", strings.Join(s.cfg.TargetRegions, ","))
		return nil
	})
	result.Run = record
	return result, err
}

func (s *BroadcastSyncService) prepare(ctx context.Context, req BroadcastSyncRequest) (competition.Competition, string, error) {
	if err := validateRequest(req); err != nil {
		return competition.Competition{}, "", err
	}
	if len(s.cfg.TargetRegions) == 0 {
		return competition.Competition{}, "", fmt.Errorf("%w: no target regions configured", ErrConfiguration)
	}
	spec, ok := s.catalog.Lookup(req.CompetitionCode)
	if !ok {
		return competition.Competition{}, "", fmt.Errorf("%w: unknown competition %q", ErrConfiguration, req.CompetitionCode)
	}
	ref := spec.ProviderRef(s.provider.Name())
	if ref == "" {
		return competition.Competition{}, "", fmt.Errorf("%w: competition %s has no %s reference", ErrConfiguration, spec.Code, s.provider.Name())
	}
	comp, found, err := s.competitions.GetByCode(ctx, spec.Code)
	if err != nil {
		return competition.Competition{}, "", fmt.Errorf("%w: get competition: %v", ErrDependencyUnavailable, err)
	}
	if !found {
		return competition.Competition{}, "", fmt.Errorf("%w: competition %s has not been imported yet", ErrConfiguration, spec.Code)
	}
	return comp, ref, nil
}

// syncFixture handles one upstream fixture. It reports whether the
// no-coverage sentinel applies.
func (s *BroadcastSyncService) syncFixture(ctx context.Context, run *Run, matcher *fixtureMatcher, ext ExternalBroadcastFixture) (bool, error) {
	candidate, tier, err := matcher.match(matchQuery{
		ExternalID: ext.ExternalID,
		HomeName:   ext.HomeName,
		AwayName:   ext.AwayName,
		KickoffAt:  ext.KickoffAt,
	})
	if err != nil {
		return false, err
	}
	stored := candidate.Fixture
	if tier == TierPartial {
		run.Diagnose("low confidence fixture link %s -> fixture %d (%s v %s)", ext.ExternalID, stored.ID, candidate.HomeName, candidate.AwayName)
	}
	if tier != TierLinked && ext.ExternalID != "" && !run.DryRun() {
		if err := s.fixtures.LinkExternalID(ctx, stored.ID, s.provider.Name(), ext.ExternalID); err != nil {
			return false, wrapStoreErr(err, "link fixture")
		}
	}

	var page Page[BroadcastEntry]
	if err := run.Call(ctx, "broadcasts "+ext.ExternalID, func(ctx context.Context) error {
		var err error
		page, err = s.provider.FetchBroadcasts(ctx, ext.ExternalID)
		return err
	}); err != nil {
		return false, err
	}
	s.archive.archive(ctx, run, s.provider.Name(), "broadcasts", ext.ExternalID, page.Raw)

	relevant := FilterRelevant(page.Items, s.cfg.TargetRegions, s.cfg.Keywords)
	if dropped := len(page.Items) - len(relevant); dropped > 0 {
		run.Logger().DebugContext(ctx, "broadcast entries filtered", "fixture_id", stored.ID, "total", len(page.Items), "dropped", dropped)
	}

	existing, err := s.broadcasts.ListByFixture(ctx, stored.ID)
	if err != nil {
		return false, wrapStoreErr(err, "list broadcasts")
	}

	if len(relevant) == 0 {
		if !s.withinNoCoverageWindow(stored.KickoffAt) {
			return false, nil
		}
		sentinel := broadcast.NoCoverage(stored.ID, s.cfg.TargetRegions[0], s.provider.Name())
		return true, s.write(ctx, run, existing, sentinel)
	}

	for _, entry := range relevant {
		item := broadcast.Broadcast{
			FixtureID:   stored.ID,
			ChannelID:   channelKey(entry),
			ChannelName: strings.TrimSpace(entry.ChannelName),
			RegionCode:  strings.ToUpper(strings.TrimSpace(entry.RegionCode)),
			Medium:      broadcast.NormalizeMedium(strings.ToLower(strings.TrimSpace(entry.Medium))),
			Provider:    s.provider.Name(),
		}
		if err := s.write(ctx, run, existing, item); err != nil {
			return false, err
		}
	}
	return false, nil
}

func (s *BroadcastSyncService) write(ctx context.Context, run *Run, existing []broadcast.Broadcast, item broadcast.Broadcast) error {
	if run.DryRun() {
		outcome := planBroadcast(existing, item)
		run.Count(outcome)
		if outcome != fixture.OutcomeUnchanged {
			run.Plan(outcome, "broadcast", fmt.Sprintf("%d/%s", item.FixtureID, item.ChannelID))
		}
		return nil
	}
	outcome, err := s.broadcasts.Upsert(ctx, item)
	if err != nil {
		return wrapStoreErr(err, "upsert broadcast")
	}
	run.Count(outcome)
	return nil
}

func (s *BroadcastSyncService) withinNoCoverageWindow(kickoff time.Time) bool {
	return kickoff.Sub(s.now()) <= s.cfg.NoCoverageWindow
}

func planBroadcast(existing []broadcast.Broadcast, item broadcast.Broadcast) fixture.Outcome {
	for _, current := range existing {
		if current.ChannelID != item.ChannelID {
			continue
		}
		if current.ChannelName == item.ChannelName && current.RegionCode == item.RegionCode && current.Medium == item.Medium {
			return fixture.OutcomeUnchanged
		}
		return fixture.OutcomeUpdated
	}
	return fixture.OutcomeCreated
}

func channelKey(entry BroadcastEntry) string {
	if id := strings.TrimSpace(entry.ChannelID); id != "" {
		return id
	}
	return naming.TextSlug(entry.ChannelName)
}
