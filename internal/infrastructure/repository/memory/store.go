package memory

import (
	"maps"
	"sync"

	"github.com/riskibarqy/matchday-sync/internal/domain/broadcast"
	"github.com/riskibarqy/matchday-sync/internal/domain/competition"
	"github.com/riskibarqy/matchday-sync/internal/domain/fixture"
	"github.com/riskibarqy/matchday-sync/internal/domain/rawdata"
	"github.com/riskibarqy/matchday-sync/internal/domain/syncrun"
	"github.com/riskibarqy/matchday-sync/internal/domain/team"
)

// Store is an in-process canonical store. Repositories created from the
// same Store see each other's rows, the way tables of one database do.
type Store struct {
	mu sync.RWMutex

	nextID       int64
	competitions map[int64]competition.Competition
	teams        map[int64]team.Team
	fixtures     map[int64]fixture.Fixture
	broadcasts   map[int64]broadcast.Broadcast
	runs         map[string]syncrun.Record
	payloads     map[string]rawdata.Payload

	writes int
}

func NewStore() *Store {
	return &Store{
		competitions: make(map[int64]competition.Competition),
		teams:        make(map[int64]team.Team),
		fixtures:     make(map[int64]fixture.Fixture),
		broadcasts:   make(map[int64]broadcast.Broadcast),
		runs:         make(map[string]syncrun.Record),
		payloads:     make(map[string]rawdata.Payload),
	}
}

// Writes returns how many domain rows were inserted, updated or deleted.
// Sync run records and archived payloads are not counted.
func (s *Store) Writes() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.writes
}

func (s *Store) newIDLocked() int64 {
	s.nextID++
	return s.nextID
}

func cloneIDs(in map[string]string) map[string]string {
	if in == nil {
		return nil
	}
	return maps.Clone(in)
}

// mergeIDs adds ids from src that dst does not have yet. It reports whether
// dst changed.
func mergeIDs(dst map[string]string, src map[string]string) (map[string]string, bool) {
	changed := false
	for provider, externalID := range src {
		if externalID == "" || dst[provider] == externalID {
			continue
		}
		if dst == nil {
			dst = make(map[string]string, len(src))
		}
		dst[provider] = externalID
		changed = true
	}
	return dst, changed
}
