package competition

import "context"

type Repository interface {
	// Upsert is keyed by Code and returns the stored row.
	Upsert(ctx context.Context, item Competition) (Competition, error)
	GetByCode(ctx context.Context, code string) (Competition, bool, error)
}
