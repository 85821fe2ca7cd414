package fixture

import "time"

const (
	StatusScheduled = "SCHEDULED"
	StatusLive      = "LIVE"
	StatusFinished  = "FINISHED"
	StatusCancelled = "CANCELLED"
	StatusPostponed = "POSTPONED"
)

const (
	WinnerHome = "HOME_TEAM"
	WinnerAway = "AWAY_TEAM"
	WinnerDraw = "DRAW"
)

const (
	DurationRegular   = "REGULAR"
	DurationExtraTime = "EXTRA_TIME"
	DurationPenalties = "PENALTY_SHOOTOUT"
)

// Score is a home/away pair. Nil pointers mean the value is unknown.
type Score struct {
	Home *int
	Away *int
}

func (s Score) IsZero() bool {
	return s.Home == nil && s.Away == nil
}

// Fixture is one scheduled match in the canonical store.
type Fixture struct {
	ID            int64
	CompetitionID int64
	HomeTeamID    int64
	AwayTeamID    int64
	KickoffAt     time.Time
	Matchday      *int
	Round         string
	Stage         string
	Venue         string
	Status        string
	FullTime      Score
	HalfTime      Score
	Winner        string
	Duration      string
	ExternalIDs   map[string]string
	UpdatedAt     time.Time
}

// NaturalKey identifies a fixture independently of its surrogate id.
type NaturalKey struct {
	CompetitionID int64
	HomeTeamID    int64
	AwayTeamID    int64
	KickoffAt     time.Time
}

func (k NaturalKey) Equal(other NaturalKey) bool {
	return k.CompetitionID == other.CompetitionID &&
		k.HomeTeamID == other.HomeTeamID &&
		k.AwayTeamID == other.AwayTeamID &&
		k.KickoffAt.Equal(other.KickoffAt)
}

func (f Fixture) NaturalKey() NaturalKey {
	return NaturalKey{
		CompetitionID: f.CompetitionID,
		HomeTeamID:    f.HomeTeamID,
		AwayTeamID:    f.AwayTeamID,
		KickoffAt:     f.KickoffAt.UTC(),
	}
}

// Normalize enforces the score/status invariant: only played fixtures keep
// scores, winner and duration.
func (f Fixture) Normalize() Fixture {
	f.Status = NormalizeStatus(f.Status)
	f.KickoffAt = f.KickoffAt.UTC()
	if !IsPlayedStatus(f.Status) {
		f.FullTime = Score{}
		f.HalfTime = Score{}
		f.Winner = ""
		f.Duration = ""
	}
	return f
}

// SameContent reports whether two fixtures carry identical mutable fields.
func (f Fixture) SameContent(other Fixture) bool {
	a, b := f.Normalize(), other.Normalize()
	return a.CompetitionID == b.CompetitionID &&
		a.HomeTeamID == b.HomeTeamID &&
		a.AwayTeamID == b.AwayTeamID &&
		a.KickoffAt.Equal(b.KickoffAt) &&
		equalIntPtr(a.Matchday, b.Matchday) &&
		a.Round == b.Round &&
		a.Stage == b.Stage &&
		a.Venue == b.Venue &&
		a.Status == b.Status &&
		sameScore(a.FullTime, b.FullTime) &&
		sameScore(a.HalfTime, b.HalfTime) &&
		a.Winner == b.Winner &&
		a.Duration == b.Duration
}

func (f Fixture) ExternalID(provider string) string {
	if f.ExternalIDs == nil {
		return ""
	}
	return f.ExternalIDs[provider]
}

// NormalizeStatus maps any status value, internal or upstream code, onto
// the enumeration. Unknown values are scheduled.
func NormalizeStatus(value string) string {
	status, _ := MapUpstreamStatus(value)
	return status
}

// IsPlayedStatus reports whether scores are meaningful for the status.
func IsPlayedStatus(status string) bool {
	switch NormalizeStatus(status) {
	case StatusLive, StatusFinished:
		return true
	default:
		return false
	}
}

func IsFinishedStatus(status string) bool {
	return NormalizeStatus(status) == StatusFinished
}

func sameScore(a, b Score) bool {
	return equalIntPtr(a.Home, b.Home) && equalIntPtr(a.Away, b.Away)
}

func equalIntPtr(a, b *int) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func IntPtr(v int) *int {
	return &v
}
