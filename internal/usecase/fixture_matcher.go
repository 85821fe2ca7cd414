package usecase

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/riskibarqy/matchday-sync/internal/domain/fixture"
	"github.com/riskibarqy/matchday-sync/internal/naming"
)

// minPartialKeyLength guards partial matching against short-string collisions.
const minPartialKeyLength = 4

type MatchTier string

const (
	TierLinked  MatchTier = "linked"
	TierExact   MatchTier = "exact"
	TierPartial MatchTier = "partial"
)

type Confidence string

const (
	ConfidenceHigh Confidence = "high"
	ConfidenceLow  Confidence = "low"
)

func (t MatchTier) Confidence() Confidence {
	if t == TierPartial {
		return ConfidenceLow
	}
	return ConfidenceHigh
}

// matchQuery describes an upstream match by team names and kickoff.
type matchQuery struct {
	ExternalID    string
	HomeName      string
	HomeShortName string
	AwayName      string
	AwayShortName string
	KickoffAt     time.Time
}

// fixtureMatcher finds stored fixtures for upstream matches that carry no
// shared identifier. A fixture is claimed by at most one upstream match.
type fixtureMatcher struct {
	provider   string
	candidates []fixture.Candidate
	byExternal map[string]int
	claimed    map[int64]struct{}
}

func newFixtureMatcher(provider string, candidates []fixture.Candidate) *fixtureMatcher {
	sorted := append([]fixture.Candidate(nil), candidates...)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i].Fixture, sorted[j].Fixture
		if !a.KickoffAt.Equal(b.KickoffAt) {
			return a.KickoffAt.Before(b.KickoffAt)
		}
		return a.ID < b.ID
	})

	m := &fixtureMatcher{
		provider:   provider,
		candidates: sorted,
		byExternal: make(map[string]int),
		claimed:    make(map[int64]struct{}),
	}
	for i, item := range sorted {
		if externalID := item.Fixture.ExternalID(provider); externalID != "" {
			m.byExternal[externalID] = i
		}
	}
	return m
}

// match tries the provider link, then exact names on the same calendar
// date, then partial names on the same date.
func (m *fixtureMatcher) match(q matchQuery) (fixture.Candidate, MatchTier, error) {
	if q.ExternalID != "" {
		if idx, ok := m.byExternal[q.ExternalID]; ok && !m.isClaimed(idx) {
			return m.claim(idx), TierLinked, nil
		}
	}

	day := calendarDate(q.KickoffAt)
	sameDay := make([]int, 0, 4)
	for i, item := range m.candidates {
		if m.isClaimed(i) || calendarDate(item.Fixture.KickoffAt) != day {
			continue
		}
		sameDay = append(sameDay, i)
	}
	if len(sameDay) == 0 {
		return fixture.Candidate{}, "", fmt.Errorf("%w: no stored fixture on %s", ErrIdentityUnresolved, day)
	}

	homeKey, awayKey := naming.Normalize(q.HomeName), naming.Normalize(q.AwayName)
	for _, idx := range sameDay {
		item := m.candidates[idx]
		if homeKey != "" && homeKey == naming.Normalize(item.HomeName) && awayKey == naming.Normalize(item.AwayName) {
			return m.claim(idx), TierExact, nil
		}
	}

	homeKeys := naming.NameKeys(q.HomeName, q.HomeShortName)
	awayKeys := naming.NameKeys(q.AwayName, q.AwayShortName)
	partial := make([]int, 0, 1)
	for _, idx := range sameDay {
		item := m.candidates[idx]
		if keysOverlap(homeKeys, naming.NameKeys(item.HomeName, item.HomeShortName)) &&
			keysOverlap(awayKeys, naming.NameKeys(item.AwayName, item.AwayShortName)) {
			partial = append(partial, idx)
		}
	}
	switch len(partial) {
	case 0:
		return fixture.Candidate{}, "", fmt.Errorf("%w: no fixture on %s matches %q v %q", ErrIdentityUnresolved, day, q.HomeName, q.AwayName)
	case 1:
		return m.claim(partial[0]), TierPartial, nil
	default:
		return fixture.Candidate{}, "", fmt.Errorf("%w: %d fixtures on %s partially match %q v %q", ErrIdentityUnresolved, len(partial), day, q.HomeName, q.AwayName)
	}
}

func (m *fixtureMatcher) isClaimed(idx int) bool {
	_, ok := m.claimed[m.candidates[idx].Fixture.ID]
	return ok
}

func (m *fixtureMatcher) claim(idx int) fixture.Candidate {
	item := m.candidates[idx]
	m.claimed[item.Fixture.ID] = struct{}{}
	return item
}

// keysOverlap reports whether any key of a contains or is contained in any
// key of b, ignoring keys shorter than minPartialKeyLength.
func keysOverlap(a, b []string) bool {
	for _, ka := range a {
		if len(ka) < minPartialKeyLength {
			continue
		}
		for _, kb := range b {
			if len(kb) < minPartialKeyLength {
				continue
			}
			if strings.Contains(ka, kb) || strings.Contains(kb, ka) {
				return true
			}
		}
	}
	return false
}

func calendarDate(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}
