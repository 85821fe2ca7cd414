package memory

import (
	"context"
	"reflect"
	"strings"

	"github.com/riskibarqy/matchday-sync/internal/domain/competition"
)

type CompetitionRepository struct {
	store *Store
}

func NewCompetitionRepository(store *Store) *CompetitionRepository {
	return &CompetitionRepository{store: store}
}

func (r *CompetitionRepository) Upsert(_ context.Context, item competition.Competition) (competition.Competition, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	item.Code = strings.ToLower(strings.TrimSpace(item.Code))
	for id, existing := range s.competitions {
		if existing.Code != item.Code {
			continue
		}
		item.ID = id
		item.ExternalIDs, _ = mergeIDs(cloneIDs(existing.ExternalIDs), item.ExternalIDs)
		if !reflect.DeepEqual(existing, item) {
			s.competitions[id] = item
			s.writes++
		}
		return item, nil
	}

	item.ID = s.newIDLocked()
	item.ExternalIDs = cloneIDs(item.ExternalIDs)
	s.competitions[item.ID] = item
	s.writes++
	return item, nil
}

func (r *CompetitionRepository) GetByCode(_ context.Context, code string) (competition.Competition, bool, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	code = strings.ToLower(strings.TrimSpace(code))
	for _, item := range s.competitions {
		if item.Code == code {
			item.ExternalIDs = cloneIDs(item.ExternalIDs)
			return item, true, nil
		}
	}
	return competition.Competition{}, false, nil
}
