package fixture

import (
	"context"
	"time"
)

// Outcome describes what an idempotent write did to the store.
type Outcome string

const (
	OutcomeCreated   Outcome = "created"
	OutcomeUpdated   Outcome = "updated"
	OutcomeUnchanged Outcome = "unchanged"
)

// Candidate is a stored fixture joined with the team names used for
// result reconciliation.
type Candidate struct {
	Fixture       Fixture
	HomeName      string
	HomeShortName string
	AwayName      string
	AwayShortName string
}

// ResultUpdate carries the fields written by the result reconciler.
type ResultUpdate struct {
	FixtureID  int64
	FullTime   Score
	HalfTime   Score
	Winner     string
	Duration   string
	Provider   string
	ExternalID string
}

type Repository interface {
	GetByNaturalKey(ctx context.Context, key NaturalKey) (Fixture, bool, error)
	GetByExternalID(ctx context.Context, provider, externalID string) (Fixture, bool, error)
	// UpsertMany writes all fixtures in one transaction and returns one
	// outcome per input, in order.
	UpsertMany(ctx context.Context, items []Fixture) ([]Outcome, error)
	ListCandidates(ctx context.Context, competitionID int64, from, to time.Time) ([]Candidate, error)
	ApplyResult(ctx context.Context, update ResultUpdate) (Outcome, error)
	LinkExternalID(ctx context.Context, fixtureID int64, provider, externalID string) error
}
