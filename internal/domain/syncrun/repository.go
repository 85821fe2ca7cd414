package syncrun

import (
	"context"
	"errors"
)

type Repository interface {
	Create(ctx context.Context, record Record) error
	// Finalize stores the terminal state. Records that are already final
	// are left untouched.
	Finalize(ctx context.Context, record Record) error
	Get(ctx context.Context, id string) (Record, bool, error)
	ListRecent(ctx context.Context, limit int) ([]Record, error)
}

// ErrCompetitionLocked is returned by a Locker when another run owns the
// competition.
var ErrCompetitionLocked = errors.New("competition is locked by another run")

// Locker grants exclusive ownership of a competition code.
type Locker interface {
	Lock(ctx context.Context, competitionCode string) (unlock func(), err error)
}
