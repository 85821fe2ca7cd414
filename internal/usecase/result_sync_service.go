package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/riskibarqy/matchday-sync/internal/domain/competition"
	"github.com/riskibarqy/matchday-sync/internal/domain/fixture"
	"github.com/riskibarqy/matchday-sync/internal/domain/rawdata"
	"github.com/riskibarqy/matchday-sync/internal/domain/syncrun"
	"github.com/riskibarqy/matchday-sync/internal/platform/logging"
	"go.opentelemetry.io/otel/attribute"
)

type ResultSyncRequest struct {
	CompetitionCode string    `validate:"required,max=64"`
	From            time.Time `validate:"required"`
	To              time.Time `validate:"required,gtfield=From"`
	DryRun          bool
}

type ResultSyncResult struct {
	Run            syncrun.Record
	Matched        int
	Updated        int
	Unmatched      int
	HighConfidence int
	LowConfidence  int
}

type ResultSyncConfig struct {
	ArchiveRaw bool
}

// ResultSyncService applies finished-match results to stored fixtures.
type ResultSyncService struct {
	controller   *RunController
	provider     ResultsProvider
	upstream     UpstreamPolicy
	catalog      CompetitionCatalog
	competitions competition.Repository
	fixtures     fixture.Repository
	archive      *payloadArchiver
	logger       *logging.Logger
}

func NewResultSyncService(
	controller *RunController,
	provider ResultsProvider,
	upstream UpstreamPolicy,
	catalog CompetitionCatalog,
	competitions competition.Repository,
	fixtures fixture.Repository,
	raw rawdata.Repository,
	cfg ResultSyncConfig,
	logger *logging.Logger,
) *ResultSyncService {
	if logger == nil {
		logger = logging.Default()
	}
	return &ResultSyncService{
		controller:   controller,
		provider:     provider,
		upstream:     upstream,
		catalog:      catalog,
		competitions: competitions,
		fixtures:     fixtures,
		archive:      newPayloadArchiver(raw, cfg.ArchiveRaw),
		logger:       logger,
	}
}

func (s *ResultSyncService) SyncResults(ctx context.Context, req ResultSyncRequest) (ResultSyncResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ResultSyncService.SyncResults",
		attribute.String("competition", req.CompetitionCode),
	)
	defer span.End()

	var result ResultSyncResult
	spec := RunSpec{
		Type:            syncrun.TypeResultSync,
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

		var page Page[ExternalResult]
		err = run.Call(ctx, "finished matches", func(ctx context.Context) error {
			var err error
			page, err = s.provider.FetchFinishedMatches(ctx, ref, from, to)
			return err
		})
		if err != nil {
			run.Fail(ctx, "fetch finished matches", err)
			return nil
		}
		s.archive.archive(ctx, run, s.provider.Name(), "results", fmt.Sprintf("%s:%s:%s", ref, from.Format("2006-01-02"), to.Format("2006-01-02")), page.Raw)

		candidates, err := s.fixtures.ListCandidates(ctx, comp.ID, from.Add(-24*time.Hour), to.Add(24*time.Hour))
		if err != nil {
			return fmt.Errorf("%w: list fixtures: %v", ErrDependencyUnavailable, err)
		}

		recon := ReconcileResults(s.provider.Name(), page.Items, candidates)
		result.Matched = len(recon.Matched)
		result.Unmatched = len(recon.Unmatched)

		lowConfidence := make([]string, 0)
		for _, match := range recon.Matched {
			match := match
			if match.Confidence == ConfidenceLow {
				result.LowConfidence++
				lowConfidence = append(lowConfidence, fmt.Sprintf("%s %q v %q -> fixture %d (%s v %s)",
					match.Result.ExternalID, match.Result.HomeName, match.Result.AwayName,
					match.Fixture.Fixture.ID, match.Fixture.HomeName, match.Fixture.AwayName))
			} else {
				result.HighConfidence++
			}

			key := fmt.Sprintf("result %s -> fixture %d [%s]", match.Result.ExternalID, match.Fixture.Fixture.ID, match.Confidence)
			_ = run.Item(ctx, key, func(ctx context.Context) error {
				outcome, err := s.apply(ctx, run, match)
				if err != nil {
					return err
				}
				if outcome == fixture.OutcomeUpdated {
					result.Updated++
				}
				return nil
			})
		}
		for _, miss := range recon.Unmatched {
			run.Skip(ctx, fmt.Sprintf("result %s %q v %q", miss.Result.ExternalID, miss.Result.HomeName, miss.Result.AwayName), miss.Reason)
		}

		run.SetMeta("matched", result.Matched)
		run.SetMeta("unmatched", result.Unmatched)
		run.SetMeta("confidence", map[string]int{
			string(ConfidenceHigh): result.HighConfidence,
			string(ConfidenceLow):  result.LowConfidence,
		})
		if len(lowConfidence) > 0 {
			run.SetMeta("low_confidence_matches", lowConfidence)
		}
		return nil
	})
	result.Run = record
	return result, err
}

func (s *ResultSyncService) prepare(ctx context.Context, req ResultSyncRequest) (competition.Competition, string, error) {
	if err := validateRequest(req); err != nil {
		return competition.Competition{}, "", err
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

func (s *ResultSyncService) apply(ctx context.Context, run *Run, match ResultMatch) (fixture.Outcome, error) {
	if match.Result.FullTime.Home == nil || match.Result.FullTime.Away == nil {
		return "", fmt.Errorf("%w: finished match without full-time score", ErrInvalidInput)
	}
	update := resultUpdate(s.provider.Name(), match)

	if run.DryRun() {
		outcome := resultOutcome(match.Fixture.Fixture, s.provider.Name(), update)
		run.Count(outcome)
		if outcome != fixture.OutcomeUnchanged {
			run.Plan(outcome, "fixture result", fmt.Sprintf("%d", update.FixtureID))
		}
		return outcome, nil
	}

	outcome, err := s.fixtures.ApplyResult(ctx, update)
	if err != nil {
		return "", wrapStoreErr(err, "apply result")
	}
	run.Count(outcome)
	return outcome, nil
}
