package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/matchday-sync/internal/domain/competition"
	"github.com/riskibarqy/matchday-sync/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/matchday-sync/internal/platform/logging"
	"github.com/riskibarqy/matchday-sync/internal/platform/resilience"
)

const (
	testMasterProvider    = "apifootball"
	testBroadcastProvider = "sportmonks"
	testResultsProvider   = "footballdata"
)

type fakeMasterData struct {
	mu       sync.Mutex
	teams    []ExternalTeam
	fixtures []ExternalFixture
	calls    int
}

func (f *fakeMasterData) Name() string { return testMasterProvider }

func (f *fakeMasterData) FetchTeams(_ context.Context, _, _ string, page int) (Page[ExternalTeam], error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return Page[ExternalTeam]{Items: f.teams, Page: page, TotalPages: 1, Raw: []byte(`{"teams":[]}`)}, nil
}

func (f *fakeMasterData) FetchFixtures(_ context.Context, _, _ string, page int) (Page[ExternalFixture], error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return Page[ExternalFixture]{Items: f.fixtures, Page: page, TotalPages: 1, Raw: []byte(`{"fixtures":[]}`)}, nil
}

func (f *fakeMasterData) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeBroadcasts struct {
	mu       sync.Mutex
	fixtures []ExternalBroadcastFixture
	entries  map[string][]BroadcastEntry
	failures map[string]error
	calls    int
}

func (f *fakeBroadcasts) Name() string { return testBroadcastProvider }

func (f *fakeBroadcasts) FetchFixtures(_ context.Context, _ string, _, _ time.Time, page int) (Page[ExternalBroadcastFixture], error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return Page[ExternalBroadcastFixture]{Items: f.fixtures, Page: page, TotalPages: 1}, nil
}

func (f *fakeBroadcasts) FetchBroadcasts(_ context.Context, fixtureExternalID string) (Page[BroadcastEntry], error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if err := f.failures[fixtureExternalID]; err != nil {
		return Page[BroadcastEntry]{}, err
	}
	return Page[BroadcastEntry]{Items: f.entries[fixtureExternalID], Page: 1, TotalPages: 1}, nil
}

func (f *fakeBroadcasts) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeResults struct {
	mu      sync.Mutex
	results []ExternalResult
	err     error
	calls   int
}

func (f *fakeResults) Name() string { return testResultsProvider }

func (f *fakeResults) FetchFinishedMatches(_ context.Context, _ string, _, _ time.Time) (Page[ExternalResult], error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return Page[ExternalResult]{}, f.err
	}
	return Page[ExternalResult]{Items: f.results, Page: 1, TotalPages: 1}, nil
}

func (f *fakeResults) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func permanentUpstreamError(msg string) error {
	return crerr.Mark(fmt.Errorf("%s", msg), ErrUpstreamPermanent)
}

// testEnv bundles an in-memory store and the services built on it.
type testEnv struct {
	store      *memory.Store
	runs       *memory.SyncRunRepository
	raw        *memory.RawDataRepository
	locker     *memory.Locker
	controller *RunController
	catalog    *StaticCatalog
}

func newTestEnv(store *memory.Store) *testEnv {
	runs := memory.NewSyncRunRepository(store)
	locker := memory.NewLocker()
	return &testEnv{
		store:      store,
		runs:       runs,
		raw:        memory.NewRawDataRepository(store),
		locker:     locker,
		controller: NewRunController(runs, locker, RunControllerConfig{MaxDiagnostics: 20}, logging.NewNop()),
		catalog:    NewStaticCatalog(testCatalog()),
	}
}

func testUpstream() UpstreamPolicy {
	return UpstreamPolicy{
		Limiter: resilience.NewRateLimiter(resilience.RateLimitConfig{}),
		Retry:   resilience.RetryConfig{MaxRetries: 0, InitialBackoff: time.Millisecond},
	}
}

func testCatalog() []CompetitionSpec {
	return []CompetitionSpec{
		{
			Code: "premier-league", Name: "Premier League", Country: "England", Season: "2025",
			Type: competition.TypeLeague, TotalTeams: 20, TotalRounds: 38, Visible: true,
			ProviderRefs: map[string]string{testMasterProvider: "39", testBroadcastProvider: "8", testResultsProvider: "PL"},
		},
		{
			Code: "championship", Name: "Championship", Country: "England", Season: "2025",
			Type: competition.TypeLeague, TotalTeams: 24, TotalRounds: 46,
			ProviderRefs: map[string]string{testMasterProvider: "40", testBroadcastProvider: "9", testResultsProvider: "ELC"},
		},
		{
			Code: "fa-cup", Name: "FA Cup", Country: "England", Season: "2025",
			Type: competition.TypeCup, Visible: true,
			ProviderRefs: map[string]string{testMasterProvider: "45", testBroadcastProvider: "24"},
		},
	}
}

func (e *testEnv) importService(provider MasterDataProvider, cfg ImportConfig) *CompetitionImportService {
	return NewCompetitionImportService(
		e.controller,
		provider,
		testUpstream(),
		e.catalog,
		memory.NewCompetitionRepository(e.store),
		memory.NewTeamRepository(e.store),
		memory.NewFixtureRepository(e.store),
		e.raw,
		cfg,
		logging.NewNop(),
	)
}

func (e *testEnv) broadcastService(provider BroadcastProvider, cfg BroadcastSyncConfig, now time.Time) *BroadcastSyncService {
	svc := NewBroadcastSyncService(
		e.controller,
		provider,
		testUpstream(),
		e.catalog,
		memory.NewCompetitionRepository(e.store),
		memory.NewFixtureRepository(e.store),
		memory.NewBroadcastRepository(e.store),
		e.raw,
		cfg,
		logging.NewNop(),
	)
	svc.now = func() time.Time { return now }
	return svc
}

func (e *testEnv) resultService(provider ResultsProvider) *ResultSyncService {
	return NewResultSyncService(
		e.controller,
		provider,
		testUpstream(),
		e.catalog,
		memory.NewCompetitionRepository(e.store),
		memory.NewFixtureRepository(e.store),
		e.raw,
		ResultSyncConfig{},
		logging.NewNop(),
	)
}

func int64Ptr(v int64) *int64 {
	return &v
}
