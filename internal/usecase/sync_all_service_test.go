package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/riskibarqy/matchday-sync/internal/domain/syncrun"
	"github.com/riskibarqy/matchday-sync/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/matchday-sync/internal/platform/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSyncAll_RunsEveryStagePerCompetition(t *testing.T) {
	t.Parallel()

	env := newTestEnv(memory.NewStore())
	broadcasts := &fakeBroadcasts{
		fixtures: []ExternalBroadcastFixture{{ExternalID: "sm-1", HomeName: "Arsenal", AwayName: "Wolverhampton Wanderers", KickoffAt: importKickoff}},
		entries:  map[string][]BroadcastEntry{"sm-1": {{ChannelID: "60", ChannelName: "Sky Sports Main Event", RegionCode: "GB"}}},
	}
	results := &fakeResults{results: []ExternalResult{
		finishedResult("fd-1", "Arsenal FC", "Wolverhampton Wanderers FC", importKickoff, 2, 0),
	}}
	svc := NewSyncAllService(
		env.importService(premierLeagueFeed(), ImportConfig{}),
		env.broadcastService(broadcasts, testBroadcastConfig(), importKickoff.Add(-24*time.Hour)),
		env.resultService(results),
		logging.NewNop(),
	)

	out, err := svc.SyncAll(context.Background(), SyncAllRequest{
		CompetitionCodes: []string{"premier-league", "serie-z"},
		BroadcastFrom:    importKickoff.Add(-time.Hour),
		BroadcastTo:      importKickoff.Add(7 * 24 * time.Hour),
		ResultFrom:       importKickoff.Add(-72 * time.Hour),
		ResultTo:         importKickoff.Add(time.Hour),
	})
	if !errors.Is(err, ErrConfiguration) {
		t.Fatalf("expected joined configuration error for the unknown competition, got=%v", err)
	}

	require.Len(t, out.Imports, 2)
	assert.Equal(t, syncrun.StatusCompleted, out.Imports[0].Status)
	assert.Equal(t, syncrun.StatusAborted, out.Imports[1].Status)

	require.Len(t, out.Broadcasts, 1)
	assert.Equal(t, syncrun.StatusCompleted, out.Broadcasts[0].Status, out.Broadcasts[0].Diagnostics)
	assert.Equal(t, 1, out.Broadcasts[0].Counts.Created)

	require.Len(t, out.Results, 1)
	assert.Equal(t, syncrun.StatusCompleted, out.Results[0].Status, out.Results[0].Diagnostics)
	assert.Len(t, out.Records(), 4)

	recent, err := env.runs.ListRecent(context.Background(), 10)
	require.NoError(t, err)
	assert.Len(t, recent, 4)
}

func TestSyncAll_RequiresCompetitions(t *testing.T) {
	t.Parallel()

	svc := NewSyncAllService(nil, nil, nil, logging.NewNop())
	_, err := svc.SyncAll(context.Background(), SyncAllRequest{})
	if !errors.Is(err, ErrConfiguration) {
		t.Fatalf("expected configuration error, got=%v", err)
	}
}

// callLog records provider calls across lanes in the order they happen.
type callLog struct {
	mu     sync.Mutex
	events []string
}

func (l *callLog) add(event string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, event)
}

func (l *callLog) snapshot() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.events...)
}

type loggedBroadcasts struct {
	*fakeBroadcasts
	log *callLog
}

func (f loggedBroadcasts) FetchFixtures(ctx context.Context, ref string, from, to time.Time, page int) (Page[ExternalBroadcastFixture], error) {
	f.log.add("broadcasts")
	// widen the window in which a concurrent result lane would interleave
	time.Sleep(20 * time.Millisecond)
	return f.fakeBroadcasts.FetchFixtures(ctx, ref, from, to, page)
}

type loggedResults struct {
	*fakeResults
	log *callLog
}

func (f loggedResults) FetchFinishedMatches(ctx context.Context, ref string, from, to time.Time) (Page[ExternalResult], error) {
	f.log.add("results")
	return f.fakeResults.FetchFinishedMatches(ctx, ref, from, to)
}

func TestSyncAll_RunsLanesOneAfterAnother(t *testing.T) {
	t.Parallel()

	env := newTestEnv(memory.NewStore())
	log := &callLog{}
	feed := premierLeagueFeed()
	svc := NewSyncAllService(
		env.importService(feed, ImportConfig{}),
		env.broadcastService(loggedBroadcasts{fakeBroadcasts: &fakeBroadcasts{}, log: log}, testBroadcastConfig(), importKickoff.Add(-24*time.Hour)),
		env.resultService(loggedResults{fakeResults: &fakeResults{}, log: log}),
		logging.NewNop(),
	)

	out, err := svc.SyncAll(context.Background(), SyncAllRequest{
		CompetitionCodes: []string{"premier-league", "championship"},
		BroadcastFrom:    importKickoff.Add(-time.Hour),
		BroadcastTo:      importKickoff.Add(7 * 24 * time.Hour),
		ResultFrom:       importKickoff.Add(-72 * time.Hour),
		ResultTo:         importKickoff.Add(time.Hour),
	})
	require.NoError(t, err)
	require.Len(t, out.Broadcasts, 2)
	require.Len(t, out.Results, 2)

	want := []string{"broadcasts", "broadcasts", "results", "results"}
	if got := log.snapshot(); !assert.ObjectsAreEqual(want, got) {
		t.Fatalf("expected calls %v, got=%v", want, got)
	}
}
