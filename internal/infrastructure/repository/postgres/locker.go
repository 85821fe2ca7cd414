package postgres

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/matchday-sync/internal/domain/syncrun"
)

// Locker holds a session-level advisory lock per competition code. Each
// lock pins one pooled connection until it is released.
type Locker struct {
	db *sqlx.DB
}

func NewLocker(db *sqlx.DB) *Locker {
	return &Locker{db: db}
}

func (l *Locker) Lock(ctx context.Context, competitionCode string) (func(), error) {
	key := "competition:" + strings.ToLower(strings.TrimSpace(competitionCode))

	conn, err := l.db.Connx(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire lock connection: %w", err)
	}

	var acquired bool
	if err := conn.GetContext(ctx, &acquired, `SELECT pg_try_advisory_lock(hashtext($1))`, key); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("try advisory lock %s: %w", key, err)
	}
	if !acquired {
		_ = conn.Close()
		return nil, syncrun.ErrCompetitionLocked
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			// The run context may already be cancelled here.
			_, _ = conn.ExecContext(context.Background(), `SELECT pg_advisory_unlock(hashtext($1))`, key)
			_ = conn.Close()
		})
	}, nil
}
