package usecase

import (
	"github.com/riskibarqy/matchday-sync/internal/domain/fixture"
)

// ResultMatch pairs a finished upstream match with a stored fixture.
type ResultMatch struct {
	Result     ExternalResult
	Fixture    fixture.Candidate
	Tier       MatchTier
	Confidence Confidence
}

type UnmatchedResult struct {
	Result ExternalResult
	Reason error
}

type Reconciliation struct {
	Matched   []ResultMatch
	Unmatched []UnmatchedResult
}

// ReconcileResults matches finished matches onto stored fixtures. It never
// creates fixtures and reports every result it could not place.
func ReconcileResults(provider string, results []ExternalResult, fixtures []fixture.Candidate) Reconciliation {
	matcher := newFixtureMatcher(provider, fixtures)
	out := Reconciliation{
		Matched: make([]ResultMatch, 0, len(results)),
	}
	for _, result := range results {
		candidate, tier, err := matcher.match(matchQuery{
			ExternalID:    result.ExternalID,
			HomeName:      result.HomeName,
			HomeShortName: result.HomeShortName,
			AwayName:      result.AwayName,
			AwayShortName: result.AwayShortName,
			KickoffAt:     result.KickoffAt,
		})
		if err != nil {
			out.Unmatched = append(out.Unmatched, UnmatchedResult{Result: result, Reason: err})
			continue
		}
		out.Matched = append(out.Matched, ResultMatch{
			Result:     result,
			Fixture:    candidate,
			Tier:       tier,
			Confidence: tier.Confidence(),
		})
	}
	return out
}

// resultUpdate derives the write for a matched result. Winner falls back to
// the full-time score and duration to regular time.
func resultUpdate(provider string, match ResultMatch) fixture.ResultUpdate {
	winner := match.Result.Winner
	if winner == "" {
		winner = fixture.WinnerFromScore(match.Result.FullTime)
	}
	duration := match.Result.Duration
	if duration == "" {
		duration = fixture.DurationRegular
	}
	return fixture.ResultUpdate{
		FixtureID:  match.Fixture.Fixture.ID,
		FullTime:   match.Result.FullTime,
		HalfTime:   match.Result.HalfTime,
		Winner:     winner,
		Duration:   duration,
		Provider:   provider,
		ExternalID: match.Result.ExternalID,
	}
}

// resultOutcome predicts what applying update to current would do.
func resultOutcome(current fixture.Fixture, provider string, update fixture.ResultUpdate) fixture.Outcome {
	next := current
	next.Status = fixture.StatusFinished
	next.FullTime = update.FullTime
	next.HalfTime = update.HalfTime
	next.Winner = update.Winner
	next.Duration = update.Duration
	if current.SameContent(next) && (update.ExternalID == "" || current.ExternalID(provider) == update.ExternalID) {
		return fixture.OutcomeUnchanged
	}
	return fixture.OutcomeUpdated
}
