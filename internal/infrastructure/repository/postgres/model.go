package postgres

import (
	"database/sql"
	"time"

	"github.com/riskibarqy/matchday-sync/internal/domain/broadcast"
	"github.com/riskibarqy/matchday-sync/internal/domain/competition"
	"github.com/riskibarqy/matchday-sync/internal/domain/fixture"
	"github.com/riskibarqy/matchday-sync/internal/domain/team"
)

type competitionTableModel struct {
	ID          int64     `db:"id"`
	Code        string    `db:"code"`
	Name        string    `db:"name"`
	Slug        string    `db:"slug"`
	Country     string    `db:"country"`
	Season      string    `db:"season"`
	Type        string    `db:"type"`
	TotalTeams  int       `db:"total_teams"`
	TotalRounds int       `db:"total_rounds"`
	IsVisible   bool      `db:"is_visible"`
	ExternalIDs []byte    `db:"external_ids"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

func (m competitionTableModel) toDomain() competition.Competition {
	kind, _ := competition.ParseType(m.Type)
	return competition.Competition{
		ID:          m.ID,
		Code:        m.Code,
		Name:        m.Name,
		Slug:        m.Slug,
		Country:     m.Country,
		Season:      m.Season,
		Type:        kind,
		TotalTeams:  m.TotalTeams,
		TotalRounds: m.TotalRounds,
		IsVisible:   m.IsVisible,
		ExternalIDs: decodeIDs(m.ExternalIDs),
	}
}

type teamTableModel struct {
	ID                   int64         `db:"id"`
	Name                 string        `db:"name"`
	NormalizedName       string        `db:"normalized_name"`
	Slug                 string        `db:"slug"`
	ShortName            string        `db:"short_name"`
	TLA                  string        `db:"tla"`
	CrestURL             string        `db:"crest_url"`
	Founded              sql.NullInt64 `db:"founded"`
	Country              string        `db:"country"`
	PrimaryCompetitionID sql.NullInt64 `db:"primary_competition_id"`
	ExternalIDs          []byte        `db:"external_ids"`
	CreatedAt            time.Time     `db:"created_at"`
	UpdatedAt            time.Time     `db:"updated_at"`
}

func (m teamTableModel) toDomain() team.Team {
	return team.Team{
		ID:                   m.ID,
		Name:                 m.Name,
		NormalizedName:       m.NormalizedName,
		Slug:                 m.Slug,
		ShortName:            m.ShortName,
		TLA:                  m.TLA,
		CrestURL:             m.CrestURL,
		Founded:              intFromNull(m.Founded),
		Country:              m.Country,
		PrimaryCompetitionID: int64FromNull(m.PrimaryCompetitionID),
		ExternalIDs:          decodeIDs(m.ExternalIDs),
	}
}

type teamInsertModel struct {
	ID                   int64         `db:"id"`
	Name                 string        `db:"name"`
	NormalizedName       string        `db:"normalized_name"`
	Slug                 string        `db:"slug"`
	ShortName            string        `db:"short_name"`
	TLA                  string        `db:"tla"`
	CrestURL             string        `db:"crest_url"`
	Founded              sql.NullInt64 `db:"founded"`
	Country              string        `db:"country"`
	PrimaryCompetitionID sql.NullInt64 `db:"primary_competition_id"`
	ExternalIDs          string        `db:"external_ids"`
}

type fixtureTableModel struct {
	ID            int64         `db:"id"`
	CompetitionID int64         `db:"competition_id"`
	HomeTeamID    int64         `db:"home_team_id"`
	AwayTeamID    int64         `db:"away_team_id"`
	KickoffAt     time.Time     `db:"kickoff_at"`
	Matchday      sql.NullInt64 `db:"matchday"`
	Round         string        `db:"round"`
	Stage         string        `db:"stage"`
	Venue         string        `db:"venue"`
	Status        string        `db:"status"`
	FullTimeHome  sql.NullInt64 `db:"full_time_home"`
	FullTimeAway  sql.NullInt64 `db:"full_time_away"`
	HalfTimeHome  sql.NullInt64 `db:"half_time_home"`
	HalfTimeAway  sql.NullInt64 `db:"half_time_away"`
	Winner        string        `db:"winner"`
	Duration      string        `db:"duration"`
	ExternalIDs   []byte        `db:"external_ids"`
	CreatedAt     time.Time     `db:"created_at"`
	UpdatedAt     time.Time     `db:"updated_at"`
}

func (m fixtureTableModel) toDomain() fixture.Fixture {
	return fixture.Fixture{
		ID:            m.ID,
		CompetitionID: m.CompetitionID,
		HomeTeamID:    m.HomeTeamID,
		AwayTeamID:    m.AwayTeamID,
		KickoffAt:     m.KickoffAt.UTC(),
		Matchday:      intFromNull(m.Matchday),
		Round:         m.Round,
		Stage:         m.Stage,
		Venue:         m.Venue,
		Status:        m.Status,
		FullTime:      fixture.Score{Home: intFromNull(m.FullTimeHome), Away: intFromNull(m.FullTimeAway)},
		HalfTime:      fixture.Score{Home: intFromNull(m.HalfTimeHome), Away: intFromNull(m.HalfTimeAway)},
		Winner:        m.Winner,
		Duration:      m.Duration,
		ExternalIDs:   decodeIDs(m.ExternalIDs),
		UpdatedAt:     m.UpdatedAt,
	}
}

// fixtureWriteModel holds the columns written on insert and update.
type fixtureWriteModel struct {
	CompetitionID int64         `db:"competition_id"`
	HomeTeamID    int64         `db:"home_team_id"`
	AwayTeamID    int64         `db:"away_team_id"`
	KickoffAt     time.Time     `db:"kickoff_at"`
	Matchday      sql.NullInt64 `db:"matchday"`
	Round         string        `db:"round"`
	Stage         string        `db:"stage"`
	Venue         string        `db:"venue"`
	Status        string        `db:"status"`
	FullTimeHome  sql.NullInt64 `db:"full_time_home"`
	FullTimeAway  sql.NullInt64 `db:"full_time_away"`
	HalfTimeHome  sql.NullInt64 `db:"half_time_home"`
	HalfTimeAway  sql.NullInt64 `db:"half_time_away"`
	Winner        string        `db:"winner"`
	Duration      string        `db:"duration"`
	ExternalIDs   string        `db:"external_ids"`
}

func fixtureWriteModelFrom(item fixture.Fixture) (fixtureWriteModel, error) {
	ids, err := encodeIDs(item.ExternalIDs)
	if err != nil {
		return fixtureWriteModel{}, err
	}
	return fixtureWriteModel{
		CompetitionID: item.CompetitionID,
		HomeTeamID:    item.HomeTeamID,
		AwayTeamID:    item.AwayTeamID,
		KickoffAt:     item.KickoffAt.UTC(),
		Matchday:      nullInt(item.Matchday),
		Round:         item.Round,
		Stage:         item.Stage,
		Venue:         item.Venue,
		Status:        item.Status,
		FullTimeHome:  nullInt(item.FullTime.Home),
		FullTimeAway:  nullInt(item.FullTime.Away),
		HalfTimeHome:  nullInt(item.HalfTime.Home),
		HalfTimeAway:  nullInt(item.HalfTime.Away),
		Winner:        item.Winner,
		Duration:      item.Duration,
		ExternalIDs:   ids,
	}, nil
}

type fixtureCandidateRow struct {
	fixtureTableModel
	HomeName      string `db:"home_name"`
	HomeShortName string `db:"home_short_name"`
	AwayName      string `db:"away_name"`
	AwayShortName string `db:"away_short_name"`
}

type broadcastTableModel struct {
	ID          int64     `db:"id"`
	FixtureID   int64     `db:"fixture_id"`
	ChannelID   string    `db:"channel_id"`
	ChannelName string    `db:"channel_name"`
	RegionCode  string    `db:"region_code"`
	Medium      string    `db:"medium"`
	Provider    string    `db:"provider"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

func (m broadcastTableModel) toDomain() broadcast.Broadcast {
	return broadcast.Broadcast{
		ID:          m.ID,
		FixtureID:   m.FixtureID,
		ChannelID:   m.ChannelID,
		ChannelName: m.ChannelName,
		RegionCode:  m.RegionCode,
		Medium:      m.Medium,
		Provider:    m.Provider,
	}
}

type syncRunTableModel struct {
	ID              string         `db:"id"`
	RunType         string         `db:"run_type"`
	Provider        string         `db:"provider"`
	CompetitionCode string         `db:"competition_code"`
	DryRun          bool           `db:"dry_run"`
	Status          string         `db:"status"`
	StartedAt       time.Time      `db:"started_at"`
	FinishedAt      sql.NullTime   `db:"finished_at"`
	Counts          []byte         `db:"counts"`
	Diagnostics     []byte         `db:"diagnostics"`
	DroppedMessages int            `db:"dropped_messages"`
	Metadata        []byte         `db:"metadata"`
	Error           sql.NullString `db:"error"`
}

type rawPayloadInsertModel struct {
	Provider    string    `db:"provider"`
	EntityType  string    `db:"entity_type"`
	EntityKey   string    `db:"entity_key"`
	RunID       string    `db:"run_id,omitempty"`
	Payload     string    `db:"payload"`
	PayloadHash string    `db:"payload_hash"`
	FetchedAt   time.Time `db:"fetched_at,omitempty"`
}
