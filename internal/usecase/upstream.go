package usecase

import (
	"context"
	"time"

	"github.com/riskibarqy/matchday-sync/internal/domain/fixture"
)

// Page is one upstream response page. Raw keeps the undecoded body for the
// payload archive.
type Page[T any] struct {
	Items      []T
	Page       int
	TotalPages int
	Raw        []byte
}

func (p Page[T]) HasMore() bool {
	return p.TotalPages > 0 && p.Page < p.TotalPages
}

type ExternalTeam struct {
	ExternalID string
	Name       string
	ShortName  string
	TLA        string
	CrestURL   string
	Country    string
	Founded    *int
}

type ExternalFixture struct {
	ExternalID     string
	HomeExternalID string
	HomeName       string
	AwayExternalID string
	AwayName       string
	KickoffAt      time.Time
	StatusCode     string
	Matchday       *int
	Round          string
	Stage          string
	Venue          string
	FullTime       fixture.Score
	HalfTime       fixture.Score
}

// MasterDataProvider lists teams and fixtures of one competition season.
type MasterDataProvider interface {
	Name() string
	FetchTeams(ctx context.Context, competitionRef, season string, page int) (Page[ExternalTeam], error)
	FetchFixtures(ctx context.Context, competitionRef, season string, page int) (Page[ExternalFixture], error)
}

type ExternalBroadcastFixture struct {
	ExternalID string
	HomeName   string
	AwayName   string
	KickoffAt  time.Time
}

// BroadcastEntry is one station listing as tagged by the provider.
type BroadcastEntry struct {
	ChannelID   string
	ChannelName string
	RegionCode  string
	Medium      string
}

// BroadcastProvider lists fixtures in a window and the stations per fixture.
type BroadcastProvider interface {
	Name() string
	FetchFixtures(ctx context.Context, leagueRef string, from, to time.Time, page int) (Page[ExternalBroadcastFixture], error)
	FetchBroadcasts(ctx context.Context, fixtureExternalID string) (Page[BroadcastEntry], error)
}

type ExternalResult struct {
	ExternalID    string
	HomeName      string
	HomeShortName string
	AwayName      string
	AwayShortName string
	KickoffAt     time.Time
	FullTime      fixture.Score
	HalfTime      fixture.Score
	Winner        string
	Duration      string
}

// ResultsProvider lists finished matches of one competition.
type ResultsProvider interface {
	Name() string
	FetchFinishedMatches(ctx context.Context, competitionRef string, from, to time.Time) (Page[ExternalResult], error)
}
