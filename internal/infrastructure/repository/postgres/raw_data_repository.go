package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/matchday-sync/internal/domain/rawdata"
	qb "github.com/riskibarqy/matchday-sync/internal/platform/querybuilder"
)

type RawDataRepository struct {
	db *sqlx.DB
}

func NewRawDataRepository(db *sqlx.DB) *RawDataRepository {
	return &RawDataRepository{db: db}
}

// UpsertMany skips payloads whose hash is already archived for the entity.
func (r *RawDataRepository) UpsertMany(ctx context.Context, items []rawdata.Payload) error {
	if len(items) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx upsert raw payloads: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		key := item.Provider + "|" + item.EntityType + "|" + item.EntityKey + "|" + item.PayloadHash
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		// Zero run id and fetch time fall back to the column defaults.
		query, args, err := qb.InsertModel("raw_payloads", rawPayloadInsertModel{
			Provider:    item.Provider,
			EntityType:  item.EntityType,
			EntityKey:   item.EntityKey,
			RunID:       item.RunID,
			Payload:     string(item.PayloadJSON),
			PayloadHash: item.PayloadHash,
			FetchedAt:   item.FetchedAt.UTC(),
		}, `ON CONFLICT (provider, entity_type, entity_key, payload_hash) DO NOTHING`)
		if err != nil {
			return fmt.Errorf("build upsert raw payload query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("upsert raw payload entity=%s key=%s: %w", item.EntityType, item.EntityKey, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit upsert raw payloads tx: %w", err)
	}
	return nil
}
