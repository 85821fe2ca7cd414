package postgres

import (
	"database/sql"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/riskibarqy/matchday-sync/internal/domain/syncrun"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsUniqueViolation(t *testing.T) {
	t.Parallel()

	slugErr := &pq.Error{Code: pqUniqueViolation, Constraint: teamsSlugKey}
	if !isUniqueViolation(slugErr, teamsSlugKey) {
		t.Fatalf("expected slug unique violation to match")
	}
	if !isUniqueViolation(slugErr, "") {
		t.Fatalf("expected any-constraint match")
	}
	if isUniqueViolation(slugErr, "fixtures_natural_key") {
		t.Fatalf("expected other constraint not to match")
	}
	if isUniqueViolation(&pq.Error{Code: "23503"}, "") {
		t.Fatalf("expected foreign key violation not to match")
	}
	if isUniqueViolation(fakeErr("duplicate key value"), "") {
		t.Fatalf("expected non-pq error not to match")
	}
}

func TestIsNotFound(t *testing.T) {
	t.Parallel()

	if !isNotFound(sql.ErrNoRows) {
		t.Fatalf("expected sql.ErrNoRows to be not found")
	}
	if isNotFound(fakeErr("pq: relation fixtures does not exist")) {
		t.Fatalf("expected unrelated error not to be not found")
	}
}

func TestExternalIDCodec(t *testing.T) {
	t.Parallel()

	encoded, err := encodeIDs(map[string]string{"apifootball": "39"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"apifootball":"39"}`, encoded)

	empty, err := encodeIDs(nil)
	require.NoError(t, err)
	assert.Equal(t, "{}", empty)

	assert.Equal(t, map[string]string{"apifootball": "39"}, decodeIDs([]byte(encoded)))
	assert.Nil(t, decodeIDs([]byte("{}")))
	assert.Nil(t, decodeIDs(nil))
	assert.Nil(t, decodeIDs([]byte("not json")))
}

func TestMergeIDsKeepsStoredValues(t *testing.T) {
	t.Parallel()

	merged, changed := mergeIDs(map[string]string{"footballdata": "76"}, map[string]string{
		"footballdata": "999",
		"apifootball":  "39",
		"sportmonks":   "",
	})
	if !changed {
		t.Fatalf("expected merge to report a change")
	}
	assert.Equal(t, map[string]string{"footballdata": "76", "apifootball": "39"}, merged)

	if _, changed := mergeIDs(merged, map[string]string{"apifootball": "39"}); changed {
		t.Fatalf("expected merge of known ids to be a no-op")
	}

	fresh, changed := mergeIDs(nil, map[string]string{"sportmonks": "18"})
	if !changed || fresh["sportmonks"] != "18" {
		t.Fatalf("expected merge into nil map, got=%v", fresh)
	}
}

func TestNullableConversions(t *testing.T) {
	t.Parallel()

	three := 3
	if got := intFromNull(nullInt(&three)); got == nil || *got != 3 {
		t.Fatalf("expected 3, got=%v", got)
	}
	if got := intFromNull(nullInt(nil)); got != nil {
		t.Fatalf("expected nil, got=%v", *got)
	}
	id := int64(42)
	if got := int64FromNull(nullInt64(&id)); got == nil || *got != 42 {
		t.Fatalf("expected 42, got=%v", got)
	}
}

func TestSyncRunRowRoundTrip(t *testing.T) {
	t.Parallel()

	model, err := syncRunModelFrom(syncRunFixture())
	require.NoError(t, err)
	assert.Equal(t, "[]", model.Diagnostics)
	assert.False(t, model.FinishedAt.Valid)

	row := syncRunTableModel{
		ID:          model.ID,
		RunType:     model.RunType,
		Status:      model.Status,
		StartedAt:   model.StartedAt.Time,
		Counts:      []byte(model.Counts),
		Diagnostics: []byte(`["fixture 3: upstream timeout"]`),
		Metadata:    []byte(model.Metadata),
	}
	record := syncRunFromRow(row)
	assert.Equal(t, 49, record.Counts.Processed)
	assert.Equal(t, []string{"fixture 3: upstream timeout"}, record.Diagnostics)
	assert.Equal(t, float64(2), record.Metadata["unmatched"])
}

func syncRunFixture() syncrun.Record {
	return syncrun.Record{
		ID:              "run-1",
		Type:            syncrun.TypeResultSync,
		Provider:        "footballdata",
		CompetitionCode: "premier-league",
		Status:          syncrun.StatusRunning,
		StartedAt:       time.Date(2025, 8, 16, 12, 0, 0, 0, time.UTC),
		Counts:          syncrun.Counts{Processed: 49, Skipped: 1},
		Metadata:        map[string]any{"unmatched": 2},
	}
}

type fakeErr string

func (e fakeErr) Error() string { return string(e) }
