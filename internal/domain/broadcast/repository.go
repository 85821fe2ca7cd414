package broadcast

import (
	"context"

	"github.com/riskibarqy/matchday-sync/internal/domain/fixture"
)

type Repository interface {
	ListByFixture(ctx context.Context, fixtureID int64) ([]Broadcast, error)
	// Upsert is keyed by (FixtureID, ChannelID). Writing a real broadcast
	// removes the fixture's no-coverage sentinel; a sentinel is not written
	// while real broadcasts exist.
	Upsert(ctx context.Context, item Broadcast) (fixture.Outcome, error)
}
