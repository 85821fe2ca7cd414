package rawdata

import "context"

type Repository interface {
	// UpsertMany is keyed by (Provider, EntityType, EntityKey, PayloadHash).
	UpsertMany(ctx context.Context, items []Payload) error
}
