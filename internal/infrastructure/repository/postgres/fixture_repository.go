package postgres

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/matchday-sync/internal/domain/fixture"
	qb "github.com/riskibarqy/matchday-sync/internal/platform/querybuilder"
)

type FixtureRepository struct {
	db *sqlx.DB
}

func NewFixtureRepository(db *sqlx.DB) *FixtureRepository {
	return &FixtureRepository{db: db}
}

func (r *FixtureRepository) GetByNaturalKey(ctx context.Context, key fixture.NaturalKey) (fixture.Fixture, bool, error) {
	return getFixture(ctx, r.db, false, naturalKeyConditions(key)...)
}

func (r *FixtureRepository) GetByExternalID(ctx context.Context, provider, externalID string) (fixture.Fixture, bool, error) {
	if externalID == "" {
		return fixture.Fixture{}, false, nil
	}
	return getFixture(ctx, r.db, false, qb.JSONKeyEq("external_ids", provider, externalID))
}

// UpsertMany matches each item by provider id within its competition, then
// by natural key. Any failure rolls the whole batch back.
func (r *FixtureRepository) UpsertMany(ctx context.Context, items []fixture.Fixture) ([]fixture.Outcome, error) {
	if len(items) == 0 {
		return nil, nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx upsert fixtures: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	outcomes := make([]fixture.Outcome, 0, len(items))
	for _, item := range items {
		item = item.Normalize()
		if item.CompetitionID == 0 || item.HomeTeamID == 0 || item.AwayTeamID == 0 {
			return nil, fmt.Errorf("fixture requires competition and both teams")
		}

		existing, found, err := findFixtureForWrite(ctx, tx, item)
		if err != nil {
			return nil, err
		}
		if !found {
			if err := insertFixture(ctx, tx, item); err != nil {
				return nil, err
			}
			outcomes = append(outcomes, fixture.OutcomeCreated)
			continue
		}

		ids, idsChanged := mergeIDs(cloneIDs(existing.ExternalIDs), item.ExternalIDs)
		if existing.SameContent(item) && !idsChanged {
			outcomes = append(outcomes, fixture.OutcomeUnchanged)
			continue
		}
		item.ID = existing.ID
		item.ExternalIDs = ids
		if err := updateFixture(ctx, tx, item); err != nil {
			return nil, err
		}
		outcomes = append(outcomes, fixture.OutcomeUpdated)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit upsert fixtures tx: %w", err)
	}
	return outcomes, nil
}

func (r *FixtureRepository) ListCandidates(ctx context.Context, competitionID int64, from, to time.Time) ([]fixture.Candidate, error) {
	query, args, err := qb.Select(
		"f.*",
		"h.name AS home_name",
		"h.short_name AS home_short_name",
		"a.name AS away_name",
		"a.short_name AS away_short_name",
	).From("fixtures f").
		Join("JOIN teams h ON h.id = f.home_team_id").
		Join("JOIN teams a ON a.id = f.away_team_id").
		Where(
			qb.Eq("f.competition_id", competitionID),
			qb.Between("f.kickoff_at", from.UTC(), to.UTC()),
		).
		OrderBy("f.kickoff_at", "f.id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select fixture candidates query: %w", err)
	}

	var rows []fixtureCandidateRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select fixture candidates: %w", err)
	}

	out := make([]fixture.Candidate, 0, len(rows))
	for _, row := range rows {
		out = append(out, fixture.Candidate{
			Fixture:       row.fixtureTableModel.toDomain(),
			HomeName:      row.HomeName,
			HomeShortName: row.HomeShortName,
			AwayName:      row.AwayName,
			AwayShortName: row.AwayShortName,
		})
	}
	return out, nil
}

func (r *FixtureRepository) ApplyResult(ctx context.Context, update fixture.ResultUpdate) (fixture.Outcome, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin tx apply result: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	existing, ok, err := getFixture(ctx, tx, true, qb.Eq("id", update.FixtureID))
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("fixture %d not found", update.FixtureID)
	}

	next := existing
	next.Status = fixture.StatusFinished
	next.FullTime = update.FullTime
	next.HalfTime = update.HalfTime
	next.Winner = update.Winner
	next.Duration = update.Duration
	next = next.Normalize()
	ids, idsChanged := mergeIDs(cloneIDs(existing.ExternalIDs), map[string]string{update.Provider: update.ExternalID})
	next.ExternalIDs = ids

	if existing.SameContent(next) && !idsChanged {
		return fixture.OutcomeUnchanged, nil
	}
	if err := updateFixture(ctx, tx, next); err != nil {
		return "", err
	}
	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit apply result tx: %w", err)
	}
	return fixture.OutcomeUpdated, nil
}

// LinkExternalID never replaces an id the fixture already has for provider.
func (r *FixtureRepository) LinkExternalID(ctx context.Context, fixtureID int64, provider, externalID string) error {
	if externalID == "" {
		return nil
	}
	query, args, err := qb.Update("fixtures").
		SetExpr("external_ids", "jsonb_build_object(?::text, ?::text) || external_ids", provider, externalID).
		SetExpr("updated_at", "NOW()").
		Where(
			qb.Eq("id", fixtureID),
			qb.Expr("COALESCE(external_ids ->> ?, '') = ''", provider),
		).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build link fixture external id query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("link fixture id=%d provider=%s: %w", fixtureID, provider, err)
	}
	return nil
}

func findFixtureForWrite(ctx context.Context, tx *sqlx.Tx, item fixture.Fixture) (fixture.Fixture, bool, error) {
	providers := make([]string, 0, len(item.ExternalIDs))
	for provider, externalID := range item.ExternalIDs {
		if externalID != "" {
			providers = append(providers, provider)
		}
	}
	sort.Strings(providers)

	for _, provider := range providers {
		existing, ok, err := getFixture(ctx, tx, true,
			qb.Eq("competition_id", item.CompetitionID),
			qb.JSONKeyEq("external_ids", provider, item.ExternalIDs[provider]),
		)
		if err != nil || ok {
			return existing, ok, err
		}
	}
	return getFixture(ctx, tx, true, naturalKeyConditions(item.NaturalKey())...)
}

func getFixture(ctx context.Context, q sqlx.QueryerContext, lock bool, conditions ...qb.Condition) (fixture.Fixture, bool, error) {
	builder := qb.Select("*").From("fixtures").
		Where(conditions...).
		OrderBy("id").
		Limit(1)
	if lock {
		builder = builder.ForUpdate()
	}
	query, args, err := builder.ToSQL()
	if err != nil {
		return fixture.Fixture{}, false, fmt.Errorf("build select fixture query: %w", err)
	}

	var row fixtureTableModel
	if err := sqlx.GetContext(ctx, q, &row, query, args...); err != nil {
		if isNotFound(err) {
			return fixture.Fixture{}, false, nil
		}
		return fixture.Fixture{}, false, fmt.Errorf("select fixture: %w", err)
	}
	return row.toDomain(), true, nil
}

func insertFixture(ctx context.Context, tx *sqlx.Tx, item fixture.Fixture) error {
	model, err := fixtureWriteModelFrom(item)
	if err != nil {
		return fmt.Errorf("encode fixture external ids: %w", err)
	}
	query, args, err := qb.InsertModel("fixtures", model, "")
	if err != nil {
		return fmt.Errorf("build insert fixture query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert fixture competition=%d home=%d away=%d: %w", item.CompetitionID, item.HomeTeamID, item.AwayTeamID, err)
	}
	return nil
}

func updateFixture(ctx context.Context, tx *sqlx.Tx, item fixture.Fixture) error {
	model, err := fixtureWriteModelFrom(item)
	if err != nil {
		return fmt.Errorf("encode fixture external ids: %w", err)
	}
	query, args, err := qb.Update("fixtures").
		Set("competition_id", model.CompetitionID).
		Set("home_team_id", model.HomeTeamID).
		Set("away_team_id", model.AwayTeamID).
		Set("kickoff_at", model.KickoffAt).
		Set("matchday", model.Matchday).
		Set("round", model.Round).
		Set("stage", model.Stage).
		Set("venue", model.Venue).
		Set("status", model.Status).
		Set("full_time_home", model.FullTimeHome).
		Set("full_time_away", model.FullTimeAway).
		Set("half_time_home", model.HalfTimeHome).
		Set("half_time_away", model.HalfTimeAway).
		Set("winner", model.Winner).
		Set("duration", model.Duration).
		SetExpr("external_ids", "?::jsonb", model.ExternalIDs).
		SetExpr("updated_at", "NOW()").
		Where(qb.Eq("id", item.ID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build update fixture query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update fixture id=%d: %w", item.ID, err)
	}
	return nil
}

func naturalKeyConditions(key fixture.NaturalKey) []qb.Condition {
	return []qb.Condition{
		qb.Eq("competition_id", key.CompetitionID),
		qb.Eq("home_team_id", key.HomeTeamID),
		qb.Eq("away_team_id", key.AwayTeamID),
		qb.Eq("kickoff_at", key.KickoffAt.UTC()),
	}
}
