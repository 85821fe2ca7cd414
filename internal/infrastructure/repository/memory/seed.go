package memory

import (
	"github.com/riskibarqy/matchday-sync/internal/domain/broadcast"
	"github.com/riskibarqy/matchday-sync/internal/domain/competition"
	"github.com/riskibarqy/matchday-sync/internal/domain/fixture"
	"github.com/riskibarqy/matchday-sync/internal/domain/team"
)

// Seed holds rows inserted as-is, ids included.
type Seed struct {
	Competitions []competition.Competition
	Teams        []team.Team
	Fixtures     []fixture.Fixture
	Broadcasts   []broadcast.Broadcast
}

// NewSeededStore creates a store holding the seed rows. Later inserts get
// ids above the highest seeded id. Seeding is not counted as writes.
func NewSeededStore(seed Seed) *Store {
	s := NewStore()
	bump := func(id int64) {
		if id > s.nextID {
			s.nextID = id
		}
	}
	for _, item := range seed.Competitions {
		item.ExternalIDs = cloneIDs(item.ExternalIDs)
		s.competitions[item.ID] = item
		bump(item.ID)
	}
	for _, item := range seed.Teams {
		s.teams[item.ID] = copyTeam(item)
		bump(item.ID)
	}
	for _, item := range seed.Fixtures {
		item = item.Normalize()
		s.fixtures[item.ID] = copyFixture(item)
		bump(item.ID)
	}
	for _, item := range seed.Broadcasts {
		s.broadcasts[item.ID] = item
		bump(item.ID)
	}
	return s
}
