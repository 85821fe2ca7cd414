package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/riskibarqy/matchday-sync/internal/domain/syncrun"
	"github.com/riskibarqy/matchday-sync/internal/platform/logging"
)

// parallelLanes is the pool size when ParallelLanes is set. The default
// pool has one worker, so the broadcast lane finishes before the result
// lane starts.
const parallelLanes = 2

type SyncAllRequest struct {
	CompetitionCodes []string
	Season           string
	BroadcastFrom    time.Time
	BroadcastTo      time.Time
	ResultFrom       time.Time
	ResultTo         time.Time
	DryRun           bool
	// ParallelLanes runs the broadcast and result lanes side by side. They
	// talk to different providers with separate limiters.
	ParallelLanes bool
}

type SyncAllResult struct {
	Imports    []syncrun.Record
	Broadcasts []syncrun.Record
	Results    []syncrun.Record
}

// Records returns every run record in execution order.
func (r SyncAllResult) Records() []syncrun.Record {
	out := make([]syncrun.Record, 0, len(r.Imports)+len(r.Broadcasts)+len(r.Results))
	out = append(out, r.Imports...)
	out = append(out, r.Broadcasts...)
	out = append(out, r.Results...)
	return out
}

// SyncAllService runs the full pipeline for a set of competitions: imports
// one after another, then the broadcast lane, then the result lane. Each
// lane walks the competitions sequentially.
type SyncAllService struct {
	imports    *CompetitionImportService
	broadcasts *BroadcastSyncService
	results    *ResultSyncService
	logger     *logging.Logger
}

func NewSyncAllService(imports *CompetitionImportService, broadcasts *BroadcastSyncService, results *ResultSyncService, logger *logging.Logger) *SyncAllService {
	if logger == nil {
		logger = logging.Default()
	}
	return &SyncAllService{
		imports:    imports,
		broadcasts: broadcasts,
		results:    results,
		logger:     logger,
	}
}

// SyncAll never stops at a failed run. The returned error joins the errors
// of every aborted run.
func (s *SyncAllService) SyncAll(ctx context.Context, req SyncAllRequest) (SyncAllResult, error) {
	var (
		result SyncAllResult
		errs   []error
	)
	if len(req.CompetitionCodes) == 0 {
		return result, fmt.Errorf("%w: no competitions selected", ErrConfiguration)
	}

	imported := make([]string, 0, len(req.CompetitionCodes))
	for _, code := range req.CompetitionCodes {
		out, err := s.imports.ImportCompetition(ctx, ImportRequest{
			CompetitionCode: code,
			Season:          req.Season,
			DryRun:          req.DryRun,
		})
		result.Imports = append(result.Imports, out.Run)
		if err != nil {
			errs = append(errs, fmt.Errorf("import %s: %w", code, err))
			continue
		}
		imported = append(imported, code)
	}
	if len(imported) == 0 {
		return result, errors.Join(errs...)
	}

	size := 1
	if req.ParallelLanes {
		size = parallelLanes
	}
	pool, err := ants.NewPool(size)
	if err != nil {
		return result, fmt.Errorf("create lane pool: %w", err)
	}
	defer pool.Release()

	var (
		mu    sync.Mutex
		lanes sync.WaitGroup
	)
	collect := func(err error) {
		if err == nil {
			return
		}
		mu.Lock()
		errs = append(errs, err)
		mu.Unlock()
	}

	lanes.Add(1)
	if err := pool.Submit(func() {
		defer lanes.Done()
		for _, code := range imported {
			out, err := s.broadcasts.SyncBroadcasts(ctx, BroadcastSyncRequest{
				CompetitionCode: code,
				From:            req.BroadcastFrom,
				To:              req.BroadcastTo,
				DryRun:          req.DryRun,
			})
			result.Broadcasts = append(result.Broadcasts, out.Run)
			if err != nil {
				collect(fmt.Errorf("broadcasts %s: %w", code, err))
			}
		}
	}); err != nil {
		lanes.Done()
		return result, fmt.Errorf("submit broadcast lane: %w", err)
	}

	lanes.Add(1)
	if err := pool.Submit(func() {
		defer lanes.Done()
		for _, code := range imported {
			out, err := s.results.SyncResults(ctx, ResultSyncRequest{
				CompetitionCode: code,
				From:            req.ResultFrom,
				To:              req.ResultTo,
				DryRun:          req.DryRun,
			})
			result.Results = append(result.Results, out.Run)
			if err != nil {
				collect(fmt.Errorf("results %s: %w", code, err))
			}
		}
	}); err != nil {
		lanes.Done()
		lanes.Wait()
		return result, fmt.Errorf("submit result lane: %w", err)
	}

	lanes.Wait()
	s.logger.InfoContext(ctx, "sync all finished",
		"competitions", len(req.CompetitionCodes),
		"runs", len(result.Records()),
		"parallel_lanes", req.ParallelLanes,
		"aborted", len(errs),
	)
	return result, errors.Join(errs...)
}
