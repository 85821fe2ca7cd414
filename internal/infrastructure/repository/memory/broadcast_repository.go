package memory

import (
	"context"
	"sort"

	"github.com/riskibarqy/matchday-sync/internal/domain/broadcast"
	"github.com/riskibarqy/matchday-sync/internal/domain/fixture"
)

type BroadcastRepository struct {
	store *Store
}

func NewBroadcastRepository(store *Store) *BroadcastRepository {
	return &BroadcastRepository{store: store}
}

func (r *BroadcastRepository) ListByFixture(_ context.Context, fixtureID int64) ([]broadcast.Broadcast, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]broadcast.Broadcast, 0)
	for _, item := range s.broadcasts {
		if item.FixtureID == fixtureID {
			out = append(out, item)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ChannelID < out[j].ChannelID })
	return out, nil
}

func (r *BroadcastRepository) Upsert(_ context.Context, item broadcast.Broadcast) (fixture.Outcome, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		existingID int64
		found      bool
		hasReal    bool
	)
	for id, current := range s.broadcasts {
		if current.FixtureID != item.FixtureID {
			continue
		}
		if current.ChannelID == item.ChannelID {
			existingID, found = id, true
		}
		if !current.IsNoCoverage() {
			hasReal = true
		}
	}

	if item.IsNoCoverage() && hasReal {
		return fixture.OutcomeUnchanged, nil
	}
	if !item.IsNoCoverage() {
		for id, current := range s.broadcasts {
			if current.FixtureID == item.FixtureID && current.IsNoCoverage() {
				delete(s.broadcasts, id)
				s.writes++
			}
		}
	}

	if found {
		item.ID = existingID
		if s.broadcasts[existingID] == item {
			return fixture.OutcomeUnchanged, nil
		}
		s.broadcasts[existingID] = item
		s.writes++
		return fixture.OutcomeUpdated, nil
	}
	item.ID = s.newIDLocked()
	s.broadcasts[item.ID] = item
	s.writes++
	return fixture.OutcomeCreated, nil
}
