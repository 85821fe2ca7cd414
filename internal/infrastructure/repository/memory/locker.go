package memory

import (
	"context"
	"strings"
	"sync"

	"github.com/riskibarqy/matchday-sync/internal/domain/syncrun"
)

// Locker is an in-process competition lock. A second Lock on a held code
// fails instead of waiting.
type Locker struct {
	mu   sync.Mutex
	held map[string]struct{}
}

func NewLocker() *Locker {
	return &Locker{held: make(map[string]struct{})}
}

func (l *Locker) Lock(_ context.Context, competitionCode string) (func(), error) {
	code := strings.ToLower(strings.TrimSpace(competitionCode))
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, busy := l.held[code]; busy {
		return nil, syncrun.ErrCompetitionLocked
	}
	l.held[code] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.held, code)
			l.mu.Unlock()
		})
	}, nil
}
