package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/matchday-sync/internal/domain/syncrun"
	qb "github.com/riskibarqy/matchday-sync/internal/platform/querybuilder"
)

type SyncRunRepository struct {
	db *sqlx.DB
}

func NewSyncRunRepository(db *sqlx.DB) *SyncRunRepository {
	return &SyncRunRepository{db: db}
}

type syncRunInsertModel struct {
	ID              string       `db:"id"`
	RunType         string       `db:"run_type"`
	Provider        string       `db:"provider"`
	CompetitionCode string       `db:"competition_code"`
	DryRun          bool         `db:"dry_run"`
	Status          string       `db:"status"`
	StartedAt       sql.NullTime `db:"started_at"`
	FinishedAt      sql.NullTime `db:"finished_at"`
	Counts          string       `db:"counts"`
	Diagnostics     string       `db:"diagnostics"`
	DroppedMessages int          `db:"dropped_messages"`
	Metadata        string       `db:"metadata"`
	Error           string       `db:"error"`
}

func (r *SyncRunRepository) Create(ctx context.Context, record syncrun.Record) error {
	model, err := syncRunModelFrom(record)
	if err != nil {
		return err
	}
	query, args, err := qb.InsertModel("sync_runs", model, "")
	if err != nil {
		return fmt.Errorf("build insert sync run query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert sync run id=%s: %w", record.ID, err)
	}
	return nil
}

// Finalize only touches rows that are still running.
func (r *SyncRunRepository) Finalize(ctx context.Context, record syncrun.Record) error {
	model, err := syncRunModelFrom(record)
	if err != nil {
		return err
	}
	query, args, err := qb.Update("sync_runs").
		Set("status", model.Status).
		Set("finished_at", model.FinishedAt).
		SetExpr("counts", "?::jsonb", model.Counts).
		SetExpr("diagnostics", "?::jsonb", model.Diagnostics).
		Set("dropped_messages", model.DroppedMessages).
		SetExpr("metadata", "?::jsonb", model.Metadata).
		Set("error", model.Error).
		Where(
			qb.Eq("id", record.ID),
			qb.Eq("status", string(syncrun.StatusRunning)),
		).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build finalize sync run query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("finalize sync run id=%s: %w", record.ID, err)
	}
	return nil
}

func (r *SyncRunRepository) Get(ctx context.Context, id string) (syncrun.Record, bool, error) {
	query, args, err := qb.Select("*").From("sync_runs").
		Where(qb.Eq("id", id)).
		Limit(1).
		ToSQL()
	if err != nil {
		return syncrun.Record{}, false, fmt.Errorf("build select sync run query: %w", err)
	}

	var row syncRunTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return syncrun.Record{}, false, nil
		}
		return syncrun.Record{}, false, fmt.Errorf("select sync run id=%s: %w", id, err)
	}
	return syncRunFromRow(row), true, nil
}

func (r *SyncRunRepository) ListRecent(ctx context.Context, limit int) ([]syncrun.Record, error) {
	query, args, err := qb.Select("*").From("sync_runs").
		OrderBy("started_at DESC", "id DESC").
		Limit(limit).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select recent sync runs query: %w", err)
	}

	var rows []syncRunTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select recent sync runs: %w", err)
	}
	out := make([]syncrun.Record, 0, len(rows))
	for _, row := range rows {
		out = append(out, syncRunFromRow(row))
	}
	return out, nil
}

func syncRunModelFrom(record syncrun.Record) (syncRunInsertModel, error) {
	counts, err := sonic.Marshal(record.Counts)
	if err != nil {
		return syncRunInsertModel{}, fmt.Errorf("encode sync run counts: %w", err)
	}
	diagnostics := record.Diagnostics
	if diagnostics == nil {
		diagnostics = []string{}
	}
	encodedDiagnostics, err := sonic.Marshal(diagnostics)
	if err != nil {
		return syncRunInsertModel{}, fmt.Errorf("encode sync run diagnostics: %w", err)
	}

	model := syncRunInsertModel{
		ID:              record.ID,
		RunType:         string(record.Type),
		Provider:        record.Provider,
		CompetitionCode: record.CompetitionCode,
		DryRun:          record.DryRun,
		Status:          string(record.Status),
		StartedAt:       sql.NullTime{Time: record.StartedAt.UTC(), Valid: !record.StartedAt.IsZero()},
		Counts:          string(counts),
		Diagnostics:     string(encodedDiagnostics),
		DroppedMessages: record.DroppedMessages,
		Metadata:        encodeJSONMap(record.Metadata),
		Error:           record.Error,
	}
	if record.FinishedAt != nil {
		model.FinishedAt = sql.NullTime{Time: record.FinishedAt.UTC(), Valid: true}
	}
	return model, nil
}

func syncRunFromRow(row syncRunTableModel) syncrun.Record {
	record := syncrun.Record{
		ID:              row.ID,
		Type:            syncrun.Type(row.RunType),
		Provider:        row.Provider,
		CompetitionCode: row.CompetitionCode,
		DryRun:          row.DryRun,
		Status:          syncrun.Status(row.Status),
		StartedAt:       row.StartedAt.UTC(),
		DroppedMessages: row.DroppedMessages,
		Metadata:        decodeJSONMap(row.Metadata),
		Error:           row.Error.String,
	}
	if row.FinishedAt.Valid {
		finished := row.FinishedAt.Time.UTC()
		record.FinishedAt = &finished
	}
	_ = sonic.Unmarshal(row.Counts, &record.Counts)
	_ = sonic.Unmarshal(row.Diagnostics, &record.Diagnostics)
	return record
}
