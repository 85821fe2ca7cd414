package querybuilder

import "testing"

func TestSelectBuilder(t *testing.T) {
	query, args, err := Select("id", "name").
		From("users").
		Where(Eq("tenant_id", "t1"), IsNull("deleted_at")).
		OrderBy("id").
		Limit(10).
		ToSQL()
	if err != nil {
		t.Fatalf("build select query: %v", err)
	}

	wantQuery := "SELECT id, name FROM users WHERE tenant_id = $1 AND deleted_at IS NULL ORDER BY id LIMIT 10"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 1 || args[0] != "t1" {
		t.Fatalf("unexpected args: %+v", args)
	}
}

func TestInsertBuilder(t *testing.T) {
	query, args, err := InsertInto("users").
		Columns("id", "name").
		Values("u1", "name-1").
		Suffix("RETURNING id").
		ToSQL()
	if err != nil {
		t.Fatalf("build insert query: %v", err)
	}

	wantQuery := "INSERT INTO users (id, name) VALUES ($1, $2) RETURNING id"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 2 || args[0] != "u1" || args[1] != "name-1" {
		t.Fatalf("unexpected args: %+v", args)
	}
}

func TestUpdateBuilder(t *testing.T) {
	query, args, err := Update("users").
		Set("name", "new").
		SetExpr("updated_at", "NOW()").
		Where(Eq("id", "u1")).
		ToSQL()
	if err != nil {
		t.Fatalf("build update query: %v", err)
	}

	wantQuery := "UPDATE users SET name = $1, updated_at = NOW() WHERE id = $2"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 2 || args[0] != "new" || args[1] != "u1" {
		t.Fatalf("unexpected args: %+v", args)
	}
}

func TestSelectBuilderJoinJSONKeyAndLock(t *testing.T) {
	query, args, err := Select("f.id").
		From("fixtures f").
		Join("JOIN teams h ON h.id = f.home_team_id").
		Where(
			Eq("f.competition_id", int64(7)),
			JSONKeyEq("f.external_ids", "footballdata", "501"),
			Between("f.kickoff_at", "a", "b"),
		).
		ForUpdate().
		ToSQL()
	if err != nil {
		t.Fatalf("build select query: %v", err)
	}

	wantQuery := "SELECT f.id FROM fixtures f JOIN teams h ON h.id = f.home_team_id WHERE f.competition_id = $1 AND f.external_ids ->> $2 = $3 AND f.kickoff_at BETWEEN $4 AND $5 FOR UPDATE"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 5 || args[1] != "footballdata" || args[2] != "501" || args[4] != "b" {
		t.Fatalf("unexpected args: %+v", args)
	}
}

func TestOrCondition(t *testing.T) {
	query, args, err := Select("id").
		From("teams").
		Where(Or(Eq("primary_competition_id", 1), In("id", []any{2, 3}))).
		ToSQL()
	if err != nil {
		t.Fatalf("build select query: %v", err)
	}

	wantQuery := "SELECT id FROM teams WHERE (primary_competition_id = $1 OR id IN ($2, $3))"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 3 {
		t.Fatalf("unexpected args: %+v", args)
	}
}

func TestDeleteBuilder(t *testing.T) {
	query, args, err := DeleteFrom("broadcasts").
		Where(Eq("fixture_id", int64(4)), Eq("channel_id", "none")).
		ToSQL()
	if err != nil {
		t.Fatalf("build delete query: %v", err)
	}

	wantQuery := "DELETE FROM broadcasts WHERE fixture_id = $1 AND channel_id = $2"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 2 {
		t.Fatalf("unexpected args: %+v", args)
	}

	if _, _, err := DeleteFrom("broadcasts").ToSQL(); err == nil {
		t.Fatalf("expected error for delete without where")
	}
}

func TestInsertModel(t *testing.T) {
	type row struct {
		Code    string `db:"code"`
		Name    string `db:"name"`
		Ignored string `db:"-"`
		hidden  string
	}
	query, args, err := InsertModel("competitions", row{Code: "pl", Name: "Premier League", hidden: "x"}, "RETURNING id")
	if err != nil {
		t.Fatalf("build insert model query: %v", err)
	}

	wantQuery := "INSERT INTO competitions (code, name) VALUES ($1, $2) RETURNING id"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 2 || args[0] != "pl" {
		t.Fatalf("unexpected args: %+v", args)
	}
}

func TestInsertModel_FlattensEmbeddedAndOmitsEmpty(t *testing.T) {
	type audit struct {
		RunID string `db:"run_id"`
	}
	type row struct {
		audit
		ID       int64  `db:"id,omitempty"`
		Provider string `db:"provider"`
		Note     string `db:"note, omitempty"`
	}

	query, args, err := InsertModel("raw_payloads", row{audit: audit{RunID: "run-1"}, Provider: "sportmonks"}, "")
	if err != nil {
		t.Fatalf("build insert model query: %v", err)
	}

	wantQuery := "INSERT INTO raw_payloads (run_id, provider) VALUES ($1, $2)"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 2 || args[0] != "run-1" || args[1] != "sportmonks" {
		t.Fatalf("unexpected args: %+v", args)
	}

	query, args, err = InsertModel("raw_payloads", &row{ID: 7, Provider: "sportmonks", Note: "replay"}, "")
	if err != nil {
		t.Fatalf("build insert model query: %v", err)
	}
	wantQuery = "INSERT INTO raw_payloads (run_id, id, provider, note) VALUES ($1, $2, $3, $4)"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 4 || args[1] != int64(7) {
		t.Fatalf("unexpected args: %+v", args)
	}
}

func TestInsertModel_RejectsNonStruct(t *testing.T) {
	var nilRow *struct {
		Code string `db:"code"`
	}
	if _, _, err := InsertModel("competitions", nilRow, ""); err == nil {
		t.Fatalf("expected error for nil model")
	}
	if _, _, err := InsertModel("competitions", "code", ""); err == nil {
		t.Fatalf("expected error for non-struct model")
	}
}
