package memory

import (
	"context"
	"fmt"
	"reflect"
	"sort"

	"github.com/riskibarqy/matchday-sync/internal/domain/team"
	"github.com/riskibarqy/matchday-sync/internal/naming"
)

type TeamRepository struct {
	store *Store
}

func NewTeamRepository(store *Store) *TeamRepository {
	return &TeamRepository{store: store}
}

// ListByCompetition returns teams whose primary competition is the given
// one, plus teams referenced by its fixtures.
func (r *TeamRepository) ListByCompetition(_ context.Context, competitionID int64) ([]team.Team, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make(map[int64]struct{})
	for id, item := range s.teams {
		if item.PrimaryCompetitionID != nil && *item.PrimaryCompetitionID == competitionID {
			ids[id] = struct{}{}
		}
	}
	for _, item := range s.fixtures {
		if item.CompetitionID == competitionID {
			ids[item.HomeTeamID] = struct{}{}
			ids[item.AwayTeamID] = struct{}{}
		}
	}

	out := make([]team.Team, 0, len(ids))
	for id := range ids {
		if item, ok := s.teams[id]; ok {
			out = append(out, copyTeam(item))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *TeamRepository) GetByID(_ context.Context, id int64) (team.Team, bool, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, ok := s.teams[id]
	if !ok {
		return team.Team{}, false, nil
	}
	return copyTeam(item), true, nil
}

func (r *TeamRepository) GetByExternalID(_ context.Context, provider, externalID string) (team.Team, bool, error) {
	return r.first(func(item team.Team) bool {
		return externalID != "" && item.ExternalID(provider) == externalID
	})
}

func (r *TeamRepository) GetByNormalizedName(_ context.Context, normalizedName string) (team.Team, bool, error) {
	return r.first(func(item team.Team) bool {
		return normalizedName != "" && item.NormalizedName == normalizedName
	})
}

func (r *TeamRepository) SlugExists(_ context.Context, slug string) (bool, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.slugTakenLocked(slug, 0), nil
}

func (r *TeamRepository) Create(_ context.Context, item team.Team) (team.Team, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	item.ID = s.newIDLocked()
	item.Slug = naming.UniqueSlug(item.Slug, item.ID, func(slug string) bool {
		return s.slugTakenLocked(slug, 0)
	})
	if s.slugTakenLocked(item.Slug, 0) {
		return team.Team{}, fmt.Errorf("team slug %s already exists", item.Slug)
	}
	item = copyTeam(item)
	s.teams[item.ID] = item
	s.writes++
	return copyTeam(item), nil
}

func (r *TeamRepository) Update(_ context.Context, item team.Team) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.teams[item.ID]
	if !ok {
		return fmt.Errorf("team %d not found", item.ID)
	}
	if s.slugTakenLocked(item.Slug, item.ID) {
		return fmt.Errorf("team slug %s already exists", item.Slug)
	}
	if reflect.DeepEqual(existing, item) {
		return nil
	}
	s.teams[item.ID] = copyTeam(item)
	s.writes++
	return nil
}

func (r *TeamRepository) first(match func(team.Team) bool) (team.Team, bool, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		found team.Team
		ok    bool
	)
	for _, item := range s.teams {
		if match(item) && (!ok || item.ID < found.ID) {
			found, ok = item, true
		}
	}
	if !ok {
		return team.Team{}, false, nil
	}
	return copyTeam(found), true, nil
}

func (s *Store) slugTakenLocked(slug string, exceptID int64) bool {
	for id, item := range s.teams {
		if id != exceptID && item.Slug == slug {
			return true
		}
	}
	return false
}

func copyTeam(item team.Team) team.Team {
	item.ExternalIDs = cloneIDs(item.ExternalIDs)
	if item.PrimaryCompetitionID != nil {
		v := *item.PrimaryCompetitionID
		item.PrimaryCompetitionID = &v
	}
	if item.Founded != nil {
		v := *item.Founded
		item.Founded = &v
	}
	return item
}
