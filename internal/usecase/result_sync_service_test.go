package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/riskibarqy/matchday-sync/internal/domain/competition"
	"github.com/riskibarqy/matchday-sync/internal/domain/fixture"
	"github.com/riskibarqy/matchday-sync/internal/domain/syncrun"
	"github.com/riskibarqy/matchday-sync/internal/domain/team"
	"github.com/riskibarqy/matchday-sync/internal/infrastructure/repository/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var resultKickoff = time.Date(2025, 9, 20, 14, 0, 0, 0, time.UTC)

func resultStore() *memory.Store {
	return memory.NewSeededStore(memory.Seed{
		Competitions: []competition.Competition{{ID: 1, Code: "premier-league", Name: "Premier League", Type: competition.TypeLeague}},
		Teams: []team.Team{
			{ID: 10, Name: "Wolves", ShortName: "Wolves", NormalizedName: "wolves", Slug: "wolves"},
			{ID: 11, Name: "Nottingham Forest", ShortName: "Forest", NormalizedName: "nottingham forest", Slug: "nottingham-forest"},
			{ID: 12, Name: "Arsenal", ShortName: "Arsenal", NormalizedName: "arsenal", Slug: "arsenal"},
			{ID: 13, Name: "Chelsea", ShortName: "Chelsea", NormalizedName: "chelsea", Slug: "chelsea"},
		},
		Fixtures: []fixture.Fixture{
			{ID: 500, CompetitionID: 1, HomeTeamID: 10, AwayTeamID: 11, KickoffAt: resultKickoff, Status: fixture.StatusScheduled},
			{ID: 501, CompetitionID: 1, HomeTeamID: 12, AwayTeamID: 13, KickoffAt: resultKickoff.Add(150 * time.Minute), Status: fixture.StatusScheduled},
		},
	})
}

func resultWindow() ResultSyncRequest {
	return ResultSyncRequest{
		CompetitionCode: "premier-league",
		From:            resultKickoff.Add(-72 * time.Hour),
		To:              resultKickoff.Add(24 * time.Hour),
	}
}

func finishedResult(externalID, home, away string, kickoff time.Time, homeGoals, awayGoals int) ExternalResult {
	return ExternalResult{
		ExternalID: externalID,
		HomeName:   home,
		AwayName:   away,
		KickoffAt:  kickoff,
		FullTime:   fixture.Score{Home: fixture.IntPtr(homeGoals), Away: fixture.IntPtr(awayGoals)},
		HalfTime:   fixture.Score{Home: fixture.IntPtr(0), Away: fixture.IntPtr(0)},
	}
}

func TestSyncResults_AliasMatchIsLowConfidence(t *testing.T) {
	t.Parallel()

	env := newTestEnv(resultStore())
	feed := &fakeResults{results: []ExternalResult{
		finishedResult("537900", "Wolverhampton Wanderers", "Nottm Forest", resultKickoff, 1, 1),
		finishedResult("537901", "Arsenal FC", "Chelsea FC", resultKickoff.Add(150*time.Minute), 3, 1),
	}}

	result, err := env.resultService(feed).SyncResults(context.Background(), resultWindow())
	require.NoError(t, err)
	require.Equal(t, syncrun.StatusCompleted, result.Run.Status, result.Run.Diagnostics)

	assert.Equal(t, 2, result.Matched)
	assert.Equal(t, 2, result.Updated)
	assert.Equal(t, 1, result.LowConfidence)
	assert.Equal(t, 1, result.HighConfidence)
	lowMatches, ok := result.Run.Metadata["low_confidence_matches"].([]string)
	require.True(t, ok)
	require.Len(t, lowMatches, 1)
	assert.Contains(t, lowMatches[0], "fixture 500")

	fixtures := memory.NewFixtureRepository(env.store)
	draw, found, err := fixtures.GetByExternalID(context.Background(), testResultsProvider, "537900")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, int64(500), draw.ID)
	assert.Equal(t, fixture.StatusFinished, draw.Status)
	assert.Equal(t, fixture.WinnerDraw, draw.Winner)

	win, _, err := fixtures.GetByExternalID(context.Background(), testResultsProvider, "537901")
	require.NoError(t, err)
	assert.Equal(t, fixture.WinnerHome, win.Winner)
	assert.Equal(t, fixture.DurationRegular, win.Duration)
}

func TestSyncResults_RerunIsUnchanged(t *testing.T) {
	t.Parallel()

	env := newTestEnv(resultStore())
	feed := &fakeResults{results: []ExternalResult{
		finishedResult("537901", "Arsenal", "Chelsea", resultKickoff.Add(150*time.Minute), 3, 1),
	}}
	svc := env.resultService(feed)

	_, err := svc.SyncResults(context.Background(), resultWindow())
	require.NoError(t, err)
	writes := env.store.Writes()

	again, err := svc.SyncResults(context.Background(), resultWindow())
	require.NoError(t, err)
	assert.Equal(t, 0, again.Updated)
	assert.Equal(t, 1, again.Run.Counts.Unchanged)
	assert.Equal(t, 1, again.HighConfidence)
	if env.store.Writes() != writes {
		t.Fatalf("expected re-run to write nothing, got=%d", env.store.Writes()-writes)
	}
}

func TestSyncResults_UnmatchedResultsAreReported(t *testing.T) {
	t.Parallel()

	env := newTestEnv(resultStore())
	feed := &fakeResults{results: []ExternalResult{
		finishedResult("1", "Arsenal", "Chelsea", resultKickoff.Add(150*time.Minute), 2, 2),
		finishedResult("2", "Liverpool", "Everton", resultKickoff, 1, 0),
		finishedResult("3", "Arsenal", "Chelsea", resultKickoff.Add(-48*time.Hour), 0, 0),
		{ExternalID: "4", HomeName: "Wolves", AwayName: "Nottingham Forest", KickoffAt: resultKickoff},
	}}

	result, err := env.resultService(feed).SyncResults(context.Background(), resultWindow())
	require.NoError(t, err)

	assert.Equal(t, syncrun.StatusCompletedWithErrors, result.Run.Status)
	assert.Equal(t, 2, result.Unmatched)
	assert.Equal(t, 2, result.Matched)
	assert.Equal(t, 1, result.Updated)
	assert.Equal(t, 3, result.Run.Counts.Skipped, "two unmatched plus one without a score")
	if !containsText(result.Run.Diagnostics, "Liverpool") {
		t.Fatalf("expected unmatched result in diagnostics, got=%v", result.Run.Diagnostics)
	}
}

func TestSyncResults_UpstreamFailureCompletesWithErrors(t *testing.T) {
	t.Parallel()

	env := newTestEnv(resultStore())
	feed := &fakeResults{err: permanentUpstreamError("status 403")}

	result, err := env.resultService(feed).SyncResults(context.Background(), resultWindow())
	require.NoError(t, err)
	assert.Equal(t, syncrun.StatusCompletedWithErrors, result.Run.Status)
	assert.Equal(t, 1, result.Run.Counts.UpstreamCalls)
	assert.Equal(t, 0, env.store.Writes())
}

func TestSyncResults_DryRun(t *testing.T) {
	t.Parallel()

	env := newTestEnv(resultStore())
	feed := &fakeResults{results: []ExternalResult{
		finishedResult("537901", "Arsenal", "Chelsea", resultKickoff.Add(150*time.Minute), 3, 1),
	}}
	req := resultWindow()
	req.DryRun = true

	result, err := env.resultService(feed).SyncResults(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 0, env.store.Writes())
	assert.Equal(t, 1, result.Updated)
	assert.Equal(t, []string{"updated fixture result 501"}, result.Run.Metadata["planned_changes"])
}

func TestSyncResults_InvertedWindowIsConfigurationError(t *testing.T) {
	t.Parallel()

	env := newTestEnv(resultStore())
	feed := &fakeResults{}
	req := resultWindow()
	req.From, req.To = req.To, req.From

	result, err := env.resultService(feed).SyncResults(context.Background(), req)
	if !errors.Is(err, ErrConfiguration) {
		t.Fatalf("expected configuration error, got=%v", err)
	}
	assert.Equal(t, syncrun.StatusAborted, result.Run.Status)
	assert.Equal(t, 0, feed.Calls())
}
