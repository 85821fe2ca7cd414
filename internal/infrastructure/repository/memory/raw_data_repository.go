package memory

import (
	"context"
	"strings"

	"github.com/riskibarqy/matchday-sync/internal/domain/rawdata"
)

type RawDataRepository struct {
	store *Store
}

func NewRawDataRepository(store *Store) *RawDataRepository {
	return &RawDataRepository{store: store}
}

func (r *RawDataRepository) UpsertMany(_ context.Context, items []rawdata.Payload) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, item := range items {
		key := strings.Join([]string{item.Provider, item.EntityType, item.EntityKey, item.PayloadHash}, "|")
		if _, exists := s.payloads[key]; exists {
			continue
		}
		item.PayloadJSON = append([]byte(nil), item.PayloadJSON...)
		s.payloads[key] = item
	}
	return nil
}

// Payloads returns the archived payloads of one provider.
func (r *RawDataRepository) Payloads(provider string) []rawdata.Payload {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]rawdata.Payload, 0)
	for _, item := range s.payloads {
		if item.Provider == provider {
			out = append(out, item)
		}
	}
	return out
}
