package team

import "context"

type Repository interface {
	ListByCompetition(ctx context.Context, competitionID int64) ([]Team, error)
	GetByExternalID(ctx context.Context, provider, externalID string) (Team, bool, error)
	GetByNormalizedName(ctx context.Context, normalizedName string) (Team, bool, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
	// Create inserts the team. When the slug is taken it is suffixed with the
	// new row's id and the stored team is returned.
	Create(ctx context.Context, item Team) (Team, error)
	Update(ctx context.Context, item Team) error
}
