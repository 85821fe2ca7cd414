package usecase

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/dustin/go-humanize"
	"github.com/riskibarqy/matchday-sync/internal/domain/fixture"
	"github.com/riskibarqy/matchday-sync/internal/domain/syncrun"
	"github.com/riskibarqy/matchday-sync/internal/platform/id"
	"github.com/riskibarqy/matchday-sync/internal/platform/logging"
	"github.com/riskibarqy/matchday-sync/internal/platform/resilience"
	"github.com/sourcegraph/conc/panics"
	"go.opentelemetry.io/otel/attribute"
)

const defaultMaxDiagnostics = 50

// UpstreamPolicy paces and retries calls to one provider. The limiter is
// owned by the provider's wiring, never shared between providers.
type UpstreamPolicy struct {
	Limiter     *resilience.RateLimiter
	Retry       resilience.RetryConfig
	CallTimeout time.Duration
}

// RunSpec describes one invocation.
type RunSpec struct {
	Type            syncrun.Type
	Provider        string
	CompetitionCode string
	DryRun          bool
	Upstream        UpstreamPolicy
	// Exclusive runs hold the competition lock for their whole duration.
	Exclusive bool
}

// CompetitionLocker grants exclusive ownership of a competition for the
// duration of a run.
type CompetitionLocker = syncrun.Locker

type RunControllerConfig struct {
	MaxDiagnostics int
}

// RunController executes sync runs and writes exactly one record per run.
type RunController struct {
	runs   syncrun.Repository
	locker CompetitionLocker
	cfg    RunControllerConfig
	logger *logging.Logger
	now    func() time.Time
	newID  func() string
}

func NewRunController(runs syncrun.Repository, locker CompetitionLocker, cfg RunControllerConfig, logger *logging.Logger) *RunController {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.MaxDiagnostics <= 0 {
		cfg.MaxDiagnostics = defaultMaxDiagnostics
	}
	return &RunController{
		runs:   runs,
		locker: locker,
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
		newID:  id.NewRunID,
	}
}

// Execute runs fn inside a tracked run. The returned record is always the
// finalized one; the error is non-nil only when the run aborted.
func (c *RunController) Execute(ctx context.Context, spec RunSpec, fn func(ctx context.Context, run *Run) error) (syncrun.Record, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.RunController.Execute",
		attribute.String("run.type", string(spec.Type)),
		attribute.String("run.provider", spec.Provider),
		attribute.String("run.competition", spec.CompetitionCode),
		attribute.Bool("run.dry_run", spec.DryRun),
	)

	run := &Run{
		spec:           spec,
		maxDiagnostics: c.cfg.MaxDiagnostics,
		metadata:       make(map[string]any),
		logger: c.logger.With(
			"run_type", string(spec.Type),
			"provider", spec.Provider,
			"competition", spec.CompetitionCode,
			"dry_run", spec.DryRun,
		),
	}
	run.record = syncrun.Record{
		ID:              c.newID(),
		Type:            spec.Type,
		Provider:        spec.Provider,
		CompetitionCode: spec.CompetitionCode,
		DryRun:          spec.DryRun,
		Status:          syncrun.StatusRunning,
		StartedAt:       c.now().UTC(),
	}
	run.logger = run.logger.With("run_id", run.record.ID)

	if err := c.runs.Create(ctx, run.record); err != nil {
		err = fmt.Errorf("%w: create sync run record: %v", ErrDependencyUnavailable, err)
		endSpan(span, err)
		return run.record, err
	}
	run.logger.InfoContext(ctx, "sync run started")

	runErr := c.runLocked(ctx, spec, run, fn)
	record := c.finalize(ctx, run, runErr)
	endSpan(span, runErr)
	return record, runErr
}

func (c *RunController) runLocked(ctx context.Context, spec RunSpec, run *Run, fn func(ctx context.Context, run *Run) error) error {
	if spec.Exclusive && c.locker != nil && spec.CompetitionCode != "" {
		unlock, err := c.locker.Lock(ctx, spec.CompetitionCode)
		if crerr.Is(err, syncrun.ErrCompetitionLocked) {
			return fmt.Errorf("%w: %s", ErrRunInProgress, spec.CompetitionCode)
		}
		if err != nil {
			return fmt.Errorf("%w: lock competition %s: %v", ErrDependencyUnavailable, spec.CompetitionCode, err)
		}
		defer unlock()
	}

	var (
		catcher panics.Catcher
		err     error
	)
	catcher.Try(func() { err = fn(ctx, run) })
	if recovered := catcher.Recovered(); recovered != nil {
		return crerr.Wrap(recovered.AsError(), "sync run panicked")
	}
	return err
}

func (c *RunController) finalize(ctx context.Context, run *Run, runErr error) syncrun.Record {
	run.mu.Lock()
	finishedAt := c.now().UTC()
	record := run.record
	record.FinishedAt = &finishedAt
	record.Counts = run.counts
	record.Diagnostics = append([]string(nil), run.diagnostics...)
	record.DroppedMessages = run.dropped
	record.Metadata = make(map[string]any, len(run.metadata))
	for k, v := range run.metadata {
		record.Metadata[k] = v
	}
	switch {
	case runErr != nil:
		record.Status = syncrun.StatusAborted
		record.Error = runErr.Error()
	case run.counts.Skipped > 0 || run.failures > 0:
		record.Status = syncrun.StatusCompletedWithErrors
	default:
		record.Status = syncrun.StatusCompleted
	}
	run.mu.Unlock()

	// The record is written even when the caller's context is already done.
	writeCtx := context.WithoutCancel(ctx)
	if err := c.runs.Finalize(writeCtx, record); err != nil {
		run.logger.ErrorContext(ctx, "finalize sync run record failed", "error", err)
	}

	args := []any{
		"status", string(record.Status),
		"processed", humanize.Comma(int64(record.Counts.Processed)),
		"created", record.Counts.Created,
		"updated", record.Counts.Updated,
		"unchanged", record.Counts.Unchanged,
		"skipped", record.Counts.Skipped,
		"upstream_calls", record.Counts.UpstreamCalls,
		"duration", finishedAt.Sub(record.StartedAt).Round(time.Millisecond),
	}
	switch record.Status {
	case syncrun.StatusAborted:
		run.logger.ErrorContext(ctx, "sync run aborted", append(args, "error", runErr)...)
	case syncrun.StatusCompletedWithErrors:
		run.logger.WarnContext(ctx, "sync run completed with errors", args...)
	default:
		run.logger.InfoContext(ctx, "sync run completed", args...)
	}
	return record
}

// Run is the handle passed to a run body. Safe for concurrent use.
type Run struct {
	mu             sync.Mutex
	spec           RunSpec
	record         syncrun.Record
	counts         syncrun.Counts
	diagnostics    []string
	dropped        int
	failures       int
	planned        []string
	metadata       map[string]any
	maxDiagnostics int
	logger         *logging.Logger
}

func (r *Run) ID() string {
	return r.record.ID
}

func (r *Run) DryRun() bool {
	return r.spec.DryRun
}

func (r *Run) Logger() *logging.Logger {
	return r.logger
}

// Counts returns a snapshot of the counters.
func (r *Run) Counts() syncrun.Counts {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.counts
}

// Call performs one upstream request under the run's rate limit, timeout
// and retry policy. Every attempt counts as an upstream call.
func (r *Run) Call(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	policy := r.spec.Upstream
	err := resilience.Retry(ctx, policy.Retry, isRetryableUpstream,
		func(ctx context.Context, attempt int) error {
			if err := policy.Limiter.Wait(ctx); err != nil {
				return crerr.Wrap(err, "rate limiter wait")
			}
			r.mu.Lock()
			r.counts.UpstreamCalls++
			r.mu.Unlock()

			callCtx := ctx
			cancel := func() {}
			if policy.CallTimeout > 0 {
				callCtx, cancel = context.WithTimeout(ctx, policy.CallTimeout)
			}
			defer cancel()

			err := fn(callCtx)
			if err != nil && ctx.Err() == nil && crerr.Is(callCtx.Err(), context.DeadlineExceeded) {
				err = crerr.Mark(crerr.Wrapf(err, "%s timed out after %s", op, policy.CallTimeout), ErrUpstreamTransient)
			}
			return err
		},
		func(err error, wait time.Duration) {
			r.logger.WarnContext(ctx, "upstream call failed, retrying", "op", op, "wait", wait, "error", err)
		},
	)
	if err != nil {
		return crerr.Wrapf(err, "upstream %s", op)
	}
	return nil
}

// Item runs fn as one work item. A failure or panic is recorded as a
// skipped item and returned; it never aborts the run.
func (r *Run) Item(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	var (
		catcher panics.Catcher
		err     error
	)
	catcher.Try(func() { err = fn(ctx) })
	if recovered := catcher.Recovered(); recovered != nil {
		err = recovered.AsError()
	}
	if err != nil {
		r.Skip(ctx, key, err)
		return err
	}
	r.mu.Lock()
	r.counts.Processed++
	r.mu.Unlock()
	return nil
}

// Processed marks n items as done outside of Item, for batched writes.
func (r *Run) Processed(n int) {
	if n <= 0 {
		return
	}
	r.mu.Lock()
	r.counts.Processed += n
	r.mu.Unlock()
}

// Skip records a skipped item with its reason.
func (r *Run) Skip(ctx context.Context, key string, reason error) {
	r.mu.Lock()
	r.counts.Skipped++
	r.mu.Unlock()
	r.logger.WarnContext(ctx, "item skipped", "item", key, "error", reason)
	r.Diagnose("skipped %s: %v", key, reason)
}

// Fail records a problem that is not tied to a single item, such as a
// failed page fetch. The run completes with errors.
func (r *Run) Fail(ctx context.Context, what string, err error) {
	r.mu.Lock()
	r.failures++
	r.mu.Unlock()
	r.logger.ErrorContext(ctx, "sync step failed", "step", what, "error", err)
	r.Diagnose("%s failed: %v", what, err)
}

// Count tallies an entity write outcome.
func (r *Run) Count(outcome fixture.Outcome) {
	r.mu.Lock()
	defer r.mu.Unlock()
	switch outcome {
	case fixture.OutcomeCreated:
		r.counts.Created++
	case fixture.OutcomeUpdated:
		r.counts.Updated++
	default:
		r.counts.Unchanged++
	}
}

// Diagnose keeps the first MaxDiagnostics messages verbatim and counts the rest.
func (r *Run) Diagnose(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.diagnostics) < r.maxDiagnostics {
		r.diagnostics = append(r.diagnostics, msg)
		return
	}
	r.dropped++
}

// Plan records a change a dry run would have written.
func (r *Run) Plan(outcome fixture.Outcome, entity, key string) {
	if !r.spec.DryRun {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.planned) < r.maxDiagnostics {
		r.planned = append(r.planned, fmt.Sprintf("%s %s %s", outcome, entity, key))
		r.metadata["planned_changes"] = append([]string(nil), r.planned...)
	}
}

func (r *Run) SetMeta(key string, value any) {
	key = strings.TrimSpace(key)
	if key == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.metadata[key] = value
}

func isRetryableUpstream(err error) bool {
	if err == nil {
		return false
	}
	if crerr.Is(err, context.Canceled) {
		return false
	}
	return crerr.Is(err, ErrUpstreamTransient)
}
