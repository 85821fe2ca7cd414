package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/riskibarqy/matchday-sync/internal/domain/fixture"
)

type FixtureRepository struct {
	store *Store
	now   func() time.Time
}

func NewFixtureRepository(store *Store) *FixtureRepository {
	return &FixtureRepository{store: store, now: time.Now}
}

func (r *FixtureRepository) GetByNaturalKey(_ context.Context, key fixture.NaturalKey) (fixture.Fixture, bool, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	if id, ok := s.fixtureByNaturalKeyLocked(key); ok {
		return copyFixture(s.fixtures[id]), true, nil
	}
	return fixture.Fixture{}, false, nil
}

func (r *FixtureRepository) GetByExternalID(_ context.Context, provider, externalID string) (fixture.Fixture, bool, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	if id, ok := s.fixtureByExternalIDLocked(provider, externalID); ok {
		return copyFixture(s.fixtures[id]), true, nil
	}
	return fixture.Fixture{}, false, nil
}

// UpsertMany applies all items or none of them.
func (r *FixtureRepository) UpsertMany(_ context.Context, items []fixture.Fixture) ([]fixture.Outcome, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	staged := make(map[int64]fixture.Fixture, len(s.fixtures)+len(items))
	for id, item := range s.fixtures {
		staged[id] = item
	}
	nextID := s.nextID
	writes := 0

	outcomes := make([]fixture.Outcome, 0, len(items))
	for _, item := range items {
		item = item.Normalize()
		if item.CompetitionID == 0 || item.HomeTeamID == 0 || item.AwayTeamID == 0 {
			return nil, fmt.Errorf("fixture requires competition and both teams")
		}

		id, found := findStaged(staged, item)
		if !found {
			for _, other := range staged {
				if other.NaturalKey().Equal(item.NaturalKey()) {
					return nil, fmt.Errorf("duplicate fixture natural key")
				}
			}
			nextID++
			item.ID = nextID
			item.ExternalIDs = cloneIDs(item.ExternalIDs)
			item.UpdatedAt = r.now().UTC()
			staged[item.ID] = item
			writes++
			outcomes = append(outcomes, fixture.OutcomeCreated)
			continue
		}

		existing := staged[id]
		ids, idsChanged := mergeIDs(cloneIDs(existing.ExternalIDs), item.ExternalIDs)
		if existing.SameContent(item) && !idsChanged {
			outcomes = append(outcomes, fixture.OutcomeUnchanged)
			continue
		}
		for otherID, other := range staged {
			if otherID != id && other.NaturalKey().Equal(item.NaturalKey()) {
				return nil, fmt.Errorf("duplicate fixture natural key")
			}
		}
		item.ID = id
		item.ExternalIDs = ids
		item.UpdatedAt = r.now().UTC()
		staged[id] = item
		writes++
		outcomes = append(outcomes, fixture.OutcomeUpdated)
	}

	s.fixtures = staged
	s.nextID = nextID
	s.writes += writes
	return outcomes, nil
}

func (r *FixtureRepository) ListCandidates(_ context.Context, competitionID int64, from, to time.Time) ([]fixture.Candidate, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]fixture.Candidate, 0)
	for _, item := range s.fixtures {
		if item.CompetitionID != competitionID || item.KickoffAt.Before(from) || item.KickoffAt.After(to) {
			continue
		}
		home, away := s.teams[item.HomeTeamID], s.teams[item.AwayTeamID]
		out = append(out, fixture.Candidate{
			Fixture:       copyFixture(item),
			HomeName:      home.Name,
			HomeShortName: home.ShortName,
			AwayName:      away.Name,
			AwayShortName: away.ShortName,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Fixture.KickoffAt.Equal(out[j].Fixture.KickoffAt) {
			return out[i].Fixture.KickoffAt.Before(out[j].Fixture.KickoffAt)
		}
		return out[i].Fixture.ID < out[j].Fixture.ID
	})
	return out, nil
}

func (r *FixtureRepository) ApplyResult(_ context.Context, update fixture.ResultUpdate) (fixture.Outcome, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.fixtures[update.FixtureID]
	if !ok {
		return "", fmt.Errorf("fixture %d not found", update.FixtureID)
	}
	next := copyFixture(existing)
	next.Status = fixture.StatusFinished
	next.FullTime = update.FullTime
	next.HalfTime = update.HalfTime
	next.Winner = update.Winner
	next.Duration = update.Duration
	next = next.Normalize()
	ids, idsChanged := mergeIDs(next.ExternalIDs, map[string]string{update.Provider: update.ExternalID})
	next.ExternalIDs = ids

	if existing.SameContent(next) && !idsChanged {
		return fixture.OutcomeUnchanged, nil
	}
	next.UpdatedAt = r.now().UTC()
	s.fixtures[next.ID] = next
	s.writes++
	return fixture.OutcomeUpdated, nil
}

func (r *FixtureRepository) LinkExternalID(_ context.Context, fixtureID int64, provider, externalID string) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.fixtures[fixtureID]
	if !ok {
		return fmt.Errorf("fixture %d not found", fixtureID)
	}
	ids, changed := mergeIDs(cloneIDs(existing.ExternalIDs), map[string]string{provider: externalID})
	if !changed {
		return nil
	}
	existing.ExternalIDs = ids
	s.fixtures[fixtureID] = existing
	s.writes++
	return nil
}

// findStaged matches by any provider id first, then by natural key.
func findStaged(staged map[int64]fixture.Fixture, item fixture.Fixture) (int64, bool) {
	for provider, externalID := range item.ExternalIDs {
		if externalID == "" {
			continue
		}
		for id, other := range staged {
			if other.CompetitionID == item.CompetitionID && other.ExternalID(provider) == externalID {
				return id, true
			}
		}
	}
	key := item.NaturalKey()
	for id, other := range staged {
		if other.NaturalKey().Equal(key) {
			return id, true
		}
	}
	return 0, false
}

func (s *Store) fixtureByNaturalKeyLocked(key fixture.NaturalKey) (int64, bool) {
	for id, item := range s.fixtures {
		if item.NaturalKey().Equal(key) {
			return id, true
		}
	}
	return 0, false
}

func (s *Store) fixtureByExternalIDLocked(provider, externalID string) (int64, bool) {
	if externalID == "" {
		return 0, false
	}
	for id, item := range s.fixtures {
		if item.ExternalID(provider) == externalID {
			return id, true
		}
	}
	return 0, false
}

func copyFixture(item fixture.Fixture) fixture.Fixture {
	item.ExternalIDs = cloneIDs(item.ExternalIDs)
	return item
}
