package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/matchday-sync/internal/domain/competition"
	qb "github.com/riskibarqy/matchday-sync/internal/platform/querybuilder"
)

type CompetitionRepository struct {
	db *sqlx.DB
}

func NewCompetitionRepository(db *sqlx.DB) *CompetitionRepository {
	return &CompetitionRepository{db: db}
}

type competitionInsertModel struct {
	Code        string `db:"code"`
	Name        string `db:"name"`
	Slug        string `db:"slug"`
	Country     string `db:"country"`
	Season      string `db:"season"`
	Type        string `db:"type"`
	TotalTeams  int    `db:"total_teams"`
	TotalRounds int    `db:"total_rounds"`
	IsVisible   bool   `db:"is_visible"`
	ExternalIDs string `db:"external_ids"`
}

// Upsert keeps stored external ids when the incoming row carries a
// different id for the same provider.
func (r *CompetitionRepository) Upsert(ctx context.Context, item competition.Competition) (competition.Competition, error) {
	ids, err := encodeIDs(item.ExternalIDs)
	if err != nil {
		return competition.Competition{}, fmt.Errorf("encode competition external ids: %w", err)
	}
	code := strings.ToLower(strings.TrimSpace(item.Code))
	insertModel := competitionInsertModel{
		Code:        code,
		Name:        item.Name,
		Slug:        item.Slug,
		Country:     item.Country,
		Season:      item.Season,
		Type:        string(item.Type),
		TotalTeams:  item.TotalTeams,
		TotalRounds: item.TotalRounds,
		IsVisible:   item.IsVisible,
		ExternalIDs: ids,
	}

	query, args, err := qb.InsertModel("competitions", insertModel, `ON CONFLICT (code) DO UPDATE SET
    name = EXCLUDED.name,
    slug = EXCLUDED.slug,
    country = EXCLUDED.country,
    season = EXCLUDED.season,
    type = EXCLUDED.type,
    total_teams = EXCLUDED.total_teams,
    total_rounds = EXCLUDED.total_rounds,
    is_visible = EXCLUDED.is_visible,
    external_ids = EXCLUDED.external_ids || competitions.external_ids,
    updated_at = NOW()
WHERE (competitions.name, competitions.slug, competitions.country, competitions.season, competitions.type,
       competitions.total_teams, competitions.total_rounds, competitions.is_visible, competitions.external_ids)
    IS DISTINCT FROM
      (EXCLUDED.name, EXCLUDED.slug, EXCLUDED.country, EXCLUDED.season, EXCLUDED.type,
       EXCLUDED.total_teams, EXCLUDED.total_rounds, EXCLUDED.is_visible, EXCLUDED.external_ids || competitions.external_ids)
RETURNING *`)
	if err != nil {
		return competition.Competition{}, fmt.Errorf("build upsert competition query: %w", err)
	}

	var row competitionTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if !isNotFound(err) {
			return competition.Competition{}, fmt.Errorf("upsert competition code=%s: %w", code, err)
		}
		// Nothing changed, so the conflict update returned no row.
		stored, ok, getErr := r.GetByCode(ctx, code)
		if getErr != nil {
			return competition.Competition{}, getErr
		}
		if !ok {
			return competition.Competition{}, fmt.Errorf("competition code=%s vanished after upsert", code)
		}
		return stored, nil
	}
	return row.toDomain(), nil
}

func (r *CompetitionRepository) GetByCode(ctx context.Context, code string) (competition.Competition, bool, error) {
	query, args, err := qb.Select("*").From("competitions").
		Where(qb.Eq("code", strings.ToLower(strings.TrimSpace(code)))).
		Limit(1).
		ToSQL()
	if err != nil {
		return competition.Competition{}, false, fmt.Errorf("build select competition by code query: %w", err)
	}

	var row competitionTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return competition.Competition{}, false, nil
		}
		return competition.Competition{}, false, fmt.Errorf("select competition by code: %w", err)
	}
	return row.toDomain(), true, nil
}
