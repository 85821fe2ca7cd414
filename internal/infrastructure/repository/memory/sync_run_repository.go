package memory

import (
	"context"
	"fmt"
	"maps"
	"sort"

	"github.com/riskibarqy/matchday-sync/internal/domain/syncrun"
)

type SyncRunRepository struct {
	store *Store
}

func NewSyncRunRepository(store *Store) *SyncRunRepository {
	return &SyncRunRepository{store: store}
}

func (r *SyncRunRepository) Create(_ context.Context, record syncrun.Record) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.runs[record.ID]; exists {
		return fmt.Errorf("sync run %s already exists", record.ID)
	}
	s.runs[record.ID] = copyRecord(record)
	return nil
}

func (r *SyncRunRepository) Finalize(_ context.Context, record syncrun.Record) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if current, exists := s.runs[record.ID]; exists && current.IsFinal() {
		return nil
	}
	s.runs[record.ID] = copyRecord(record)
	return nil
}

func (r *SyncRunRepository) Get(_ context.Context, id string) (syncrun.Record, bool, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.runs[id]
	if !ok {
		return syncrun.Record{}, false, nil
	}
	return copyRecord(record), true, nil
}

func (r *SyncRunRepository) ListRecent(_ context.Context, limit int) ([]syncrun.Record, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]syncrun.Record, 0, len(s.runs))
	for _, record := range s.runs {
		out = append(out, copyRecord(record))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartedAt.Equal(out[j].StartedAt) {
			return out[i].StartedAt.After(out[j].StartedAt)
		}
		return out[i].ID > out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func copyRecord(record syncrun.Record) syncrun.Record {
	record.Diagnostics = append([]string(nil), record.Diagnostics...)
	if record.Metadata != nil {
		record.Metadata = maps.Clone(record.Metadata)
	}
	if record.FinishedAt != nil {
		v := *record.FinishedAt
		record.FinishedAt = &v
	}
	return record
}
