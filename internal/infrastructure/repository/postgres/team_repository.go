package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/matchday-sync/internal/domain/team"
	"github.com/riskibarqy/matchday-sync/internal/naming"
	qb "github.com/riskibarqy/matchday-sync/internal/platform/querybuilder"
)

const teamsSlugKey = "teams_slug_key"

type TeamRepository struct {
	db *sqlx.DB
}

func NewTeamRepository(db *sqlx.DB) *TeamRepository {
	return &TeamRepository{db: db}
}

// ListByCompetition returns teams homed in the competition plus teams its
// fixtures reference.
func (r *TeamRepository) ListByCompetition(ctx context.Context, competitionID int64) ([]team.Team, error) {
	query, args, err := qb.Select("*").From("teams").
		Where(qb.Or(
			qb.Eq("primary_competition_id", competitionID),
			qb.Expr(`id IN (
    SELECT home_team_id FROM fixtures WHERE competition_id = ?
    UNION
    SELECT away_team_id FROM fixtures WHERE competition_id = ?
)`, competitionID, competitionID),
		)).
		OrderBy("id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select teams by competition query: %w", err)
	}

	var rows []teamTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select teams by competition: %w", err)
	}

	out := make([]team.Team, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (r *TeamRepository) GetByExternalID(ctx context.Context, provider, externalID string) (team.Team, bool, error) {
	if externalID == "" {
		return team.Team{}, false, nil
	}
	return r.first(ctx, "external id", qb.JSONKeyEq("external_ids", provider, externalID))
}

func (r *TeamRepository) GetByNormalizedName(ctx context.Context, normalizedName string) (team.Team, bool, error) {
	if normalizedName == "" {
		return team.Team{}, false, nil
	}
	return r.first(ctx, "normalized name", qb.Eq("normalized_name", normalizedName))
}

func (r *TeamRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	return slugExists(ctx, r.db, slug)
}

// Create reserves the row id first so a taken slug can be suffixed with it.
func (r *TeamRepository) Create(ctx context.Context, item team.Team) (team.Team, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return team.Team{}, fmt.Errorf("begin tx create team: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var id int64
	if err := tx.GetContext(ctx, &id, `SELECT nextval(pg_get_serial_sequence('teams', 'id'))`); err != nil {
		return team.Team{}, fmt.Errorf("reserve team id: %w", err)
	}

	var slugErr error
	slug := naming.UniqueSlug(item.Slug, id, func(candidate string) bool {
		taken, err := slugExists(ctx, tx, candidate)
		if err != nil {
			slugErr = err
			return false
		}
		return taken
	})
	if slugErr != nil {
		return team.Team{}, slugErr
	}

	ids, err := encodeIDs(item.ExternalIDs)
	if err != nil {
		return team.Team{}, fmt.Errorf("encode team external ids: %w", err)
	}
	insertModel := teamInsertModel{
		ID:                   id,
		Name:                 item.Name,
		NormalizedName:       item.NormalizedName,
		Slug:                 slug,
		ShortName:            item.ShortName,
		TLA:                  item.TLA,
		CrestURL:             item.CrestURL,
		Founded:              nullInt(item.Founded),
		Country:              item.Country,
		PrimaryCompetitionID: nullInt64(item.PrimaryCompetitionID),
		ExternalIDs:          ids,
	}
	query, args, err := qb.InsertModel("teams", insertModel, "RETURNING *")
	if err != nil {
		return team.Team{}, fmt.Errorf("build insert team query: %w", err)
	}

	var row teamTableModel
	if err := tx.GetContext(ctx, &row, query, args...); err != nil {
		if isUniqueViolation(err, teamsSlugKey) {
			return team.Team{}, fmt.Errorf("team slug %s already exists: %w", slug, err)
		}
		return team.Team{}, fmt.Errorf("insert team name=%s: %w", item.Name, err)
	}
	if err := tx.Commit(); err != nil {
		return team.Team{}, fmt.Errorf("commit create team tx: %w", err)
	}
	return row.toDomain(), nil
}

func (r *TeamRepository) Update(ctx context.Context, item team.Team) error {
	ids, err := encodeIDs(item.ExternalIDs)
	if err != nil {
		return fmt.Errorf("encode team external ids: %w", err)
	}
	query, args, err := qb.Update("teams").
		Set("name", item.Name).
		Set("normalized_name", item.NormalizedName).
		Set("slug", item.Slug).
		Set("short_name", item.ShortName).
		Set("tla", item.TLA).
		Set("crest_url", item.CrestURL).
		Set("founded", nullInt(item.Founded)).
		Set("country", item.Country).
		Set("primary_competition_id", nullInt64(item.PrimaryCompetitionID)).
		SetExpr("external_ids", "?::jsonb", ids).
		SetExpr("updated_at", "NOW()").
		Where(qb.Eq("id", item.ID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build update team query: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		if isUniqueViolation(err, teamsSlugKey) {
			return fmt.Errorf("team slug %s already exists: %w", item.Slug, err)
		}
		return fmt.Errorf("update team id=%d: %w", item.ID, err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("team %d not found", item.ID)
	}
	return nil
}

func (r *TeamRepository) first(ctx context.Context, label string, conditions ...qb.Condition) (team.Team, bool, error) {
	query, args, err := qb.Select("*").From("teams").
		Where(conditions...).
		OrderBy("id").
		Limit(1).
		ToSQL()
	if err != nil {
		return team.Team{}, false, fmt.Errorf("build select team by %s query: %w", label, err)
	}

	var row teamTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return team.Team{}, false, nil
		}
		return team.Team{}, false, fmt.Errorf("select team by %s: %w", label, err)
	}
	return row.toDomain(), true, nil
}

func slugExists(ctx context.Context, q sqlx.QueryerContext, slug string) (bool, error) {
	query, args, err := qb.Select("1").From("teams").
		Where(qb.Eq("slug", slug)).
		Limit(1).
		ToSQL()
	if err != nil {
		return false, fmt.Errorf("build select team slug query: %w", err)
	}

	var found int
	if err := sqlx.GetContext(ctx, q, &found, query, args...); err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("select team slug: %w", err)
	}
	return true, nil
}
