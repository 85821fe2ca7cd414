package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/matchday-sync/internal/domain/broadcast"
	"github.com/riskibarqy/matchday-sync/internal/domain/fixture"
	qb "github.com/riskibarqy/matchday-sync/internal/platform/querybuilder"
)

type BroadcastRepository struct {
	db *sqlx.DB
}

func NewBroadcastRepository(db *sqlx.DB) *BroadcastRepository {
	return &BroadcastRepository{db: db}
}

type broadcastInsertModel struct {
	FixtureID   int64  `db:"fixture_id"`
	ChannelID   string `db:"channel_id"`
	ChannelName string `db:"channel_name"`
	RegionCode  string `db:"region_code"`
	Medium      string `db:"medium"`
	Provider    string `db:"provider"`
}

func (r *BroadcastRepository) ListByFixture(ctx context.Context, fixtureID int64) ([]broadcast.Broadcast, error) {
	return listBroadcasts(ctx, r.db, fixtureID, false)
}

// Upsert serializes writers of one fixture by locking its broadcast rows.
func (r *BroadcastRepository) Upsert(ctx context.Context, item broadcast.Broadcast) (fixture.Outcome, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin tx upsert broadcast: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	current, err := listBroadcasts(ctx, tx, item.FixtureID, true)
	if err != nil {
		return "", err
	}

	var (
		existing broadcast.Broadcast
		found    bool
		hasReal  bool
		sentinel bool
	)
	for _, row := range current {
		if row.ChannelID == item.ChannelID {
			existing, found = row, true
		}
		if row.IsNoCoverage() {
			sentinel = true
		} else {
			hasReal = true
		}
	}

	if item.IsNoCoverage() && hasReal {
		return fixture.OutcomeUnchanged, nil
	}
	if !item.IsNoCoverage() && sentinel {
		query, args, err := qb.DeleteFrom("broadcasts").
			Where(
				qb.Eq("fixture_id", item.FixtureID),
				qb.Eq("channel_id", broadcast.NoCoverageChannelID),
			).
			ToSQL()
		if err != nil {
			return "", fmt.Errorf("build delete no-coverage broadcast query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return "", fmt.Errorf("delete no-coverage broadcast fixture=%d: %w", item.FixtureID, err)
		}
	}

	outcome := fixture.OutcomeUnchanged
	switch {
	case !found:
		query, args, err := qb.InsertModel("broadcasts", broadcastInsertModel{
			FixtureID:   item.FixtureID,
			ChannelID:   item.ChannelID,
			ChannelName: item.ChannelName,
			RegionCode:  item.RegionCode,
			Medium:      item.Medium,
			Provider:    item.Provider,
		}, "")
		if err != nil {
			return "", fmt.Errorf("build insert broadcast query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return "", fmt.Errorf("insert broadcast fixture=%d channel=%s: %w", item.FixtureID, item.ChannelID, err)
		}
		outcome = fixture.OutcomeCreated
	case existing.ChannelName != item.ChannelName ||
		existing.RegionCode != item.RegionCode ||
		existing.Medium != item.Medium ||
		existing.Provider != item.Provider:
		query, args, err := qb.Update("broadcasts").
			Set("channel_name", item.ChannelName).
			Set("region_code", item.RegionCode).
			Set("medium", item.Medium).
			Set("provider", item.Provider).
			SetExpr("updated_at", "NOW()").
			Where(qb.Eq("id", existing.ID)).
			ToSQL()
		if err != nil {
			return "", fmt.Errorf("build update broadcast query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return "", fmt.Errorf("update broadcast id=%d: %w", existing.ID, err)
		}
		outcome = fixture.OutcomeUpdated
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit upsert broadcast tx: %w", err)
	}
	return outcome, nil
}

func listBroadcasts(ctx context.Context, q sqlx.QueryerContext, fixtureID int64, lock bool) ([]broadcast.Broadcast, error) {
	builder := qb.Select("*").From("broadcasts").
		Where(qb.Eq("fixture_id", fixtureID)).
		OrderBy("channel_id")
	if lock {
		builder = builder.ForUpdate()
	}
	query, args, err := builder.ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select broadcasts query: %w", err)
	}

	var rows []broadcastTableModel
	if err := sqlx.SelectContext(ctx, q, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select broadcasts fixture=%d: %w", fixtureID, err)
	}
	out := make([]broadcast.Broadcast, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}
