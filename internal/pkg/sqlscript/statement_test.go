package sqlscript

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func texts(stmts []Statement) []string {
	out := make([]string, len(stmts))
	for i, st := range stmts {
		out[i] = st.Text
	}
	return out
}

func TestSplit_Basic(t *testing.T) {
	stmts := Split("SELECT 1;\nSELECT 2;\n\nSELECT 3")

	require.Len(t, stmts, 3)
	assert.Equal(t, []string{"SELECT 1", "SELECT 2", "SELECT 3"}, texts(stmts))
	assert.Equal(t, 1, stmts[0].Line)
	assert.Equal(t, 2, stmts[1].Line)
	assert.Equal(t, 4, stmts[2].Line)
}

func TestSplit_QuotesAndComments(t *testing.T) {
	script := `-- leading; comment
SELECT 'a;b', "odd;name" FROM t; /* block ; /* nested ; */ still */
SELECT E'it\'s;' AS x;
SELECT 'it''s;' AS y;`

	stmts := Split(script)

	require.Len(t, stmts, 3)
	assert.Equal(t, `SELECT 'a;b', "odd;name" FROM t`, stmts[0].Text)
	assert.Equal(t, 2, stmts[0].Line)
	assert.Equal(t, `SELECT E'it\'s;' AS x`, stmts[1].Text)
	assert.Equal(t, `SELECT 'it''s;' AS y`, stmts[2].Text)
}

func TestSplit_DollarQuotedBody(t *testing.T) {
	script := `CREATE FUNCTION log_change() RETURNS trigger AS $$
BEGIN
    INSERT INTO employee_audit (employee_id) VALUES (NEW.employee_id);
    RETURN NEW;
END;
$$ LANGUAGE plpgsql;

DO $body$ BEGIN PERFORM 1; END $body$;
SELECT $1::int;`

	stmts := Split(script)

	require.Len(t, stmts, 3)
	assert.Contains(t, stmts[0].Text, "RETURN NEW;")
	assert.Equal(t, "CREATE", stmts[0].Keyword())
	assert.Equal(t, 8, stmts[1].Line)
	assert.Equal(t, "SELECT $1::int", stmts[2].Text)
}

func TestSplit_OnlyComments(t *testing.T) {
	assert.Empty(t, Split("-- nothing here\n/* or here */\n;;"))
}

func TestStatement_TxControl(t *testing.T) {
	cases := map[string]TxKind{
		"BEGIN":                   TxBegin,
		"begin transaction":       TxBegin,
		"START TRANSACTION":       TxBegin,
		"COMMIT":                  TxCommit,
		"END":                     TxCommit,
		"ROLLBACK":                TxRollback,
		"ABORT":                   TxRollback,
		"ROLLBACK TO SAVEPOINT a": TxNone,
		"SAVEPOINT a":             TxNone,
		"RELEASE SAVEPOINT a":     TxNone,
		"COMMIT PREPARED 'x'":     TxNone,
		"SELECT 1":                TxNone,
		"START something_else":    TxNone,
	}
	for text, want := range cases {
		t.Run(text, func(t *testing.T) {
			st := Parse(text)
			assert.Equal(t, want, st.TxControl())
			assert.Equal(t, want != TxNone, st.IsTransactionControl())
		})
	}
}

func TestStatement_ReadOnly(t *testing.T) {
	cases := map[string]bool{
		"SELECT * FROM employees":              true,
		"(SELECT 1) UNION (SELECT 2)":          true,
		"WITH t AS (SELECT 1) SELECT * FROM t": true,
		"VALUES (1), (2)":                      true,
		"SHOW search_path":                     true,
		"EXPLAIN SELECT 1":                     true,
		"EXPLAIN ANALYZE SELECT 1":             false,
		"SELECT * INTO copy FROM employees":    false,
		"SELECT * FROM accounts FOR UPDATE":    false,
		"WITH gone AS (DELETE FROM error_log RETURNING *) SELECT * FROM gone": false,
		"UPDATE employees SET salary = salary * 1.05":                         false,
		"SELECT 'UPDATE' AS word":                                             true,
	}
	for text, want := range cases {
		t.Run(text, func(t *testing.T) {
			assert.Equal(t, want, Parse(text).ReadOnly())
		})
	}
}

func TestStatement_Ordered(t *testing.T) {
	assert.True(t, Parse("SELECT * FROM employees ORDER BY salary DESC").Ordered())
	assert.False(t, Parse("SELECT RANK() OVER (ORDER BY salary) FROM employees").Ordered())
	assert.False(t, Parse("WITH t AS (SELECT 1 AS n ORDER BY 1) SELECT * FROM t").Ordered())
	assert.False(t, Parse("SELECT STRING_AGG(first_name, ', ' ORDER BY first_name) FROM employees").Ordered())
	assert.True(t, Parse("SELECT x FROM (SELECT 1 AS x) s ORDER BY x").Ordered())
}

func TestStatement_NoTransaction(t *testing.T) {
	cases := map[string]bool{
		"VACUUM ANALYZE employees":                                 true,
		"CREATE INDEX CONCURRENTLY idx ON employees(hire_date)":    true,
		"CREATE UNIQUE INDEX CONCURRENTLY idx ON employees(email)": true,
		"DROP INDEX CONCURRENTLY idx":                              true,
		"CREATE INDEX idx ON employees(hire_date)":                 false,
		"CREATE DATABASE other":                                    true,
		"DROP DATABASE other":                                      true,
		"ALTER SYSTEM SET work_mem = '64MB'":                       true,
		"ALTER TABLE employees ADD COLUMN x int":                   false,
		"REINDEX TABLE CONCURRENTLY employees":                     true,
		"SELECT 1":                                                 false,
	}
	for text, want := range cases {
		t.Run(text, func(t *testing.T) {
			assert.Equal(t, want, Parse(text).NoTransaction())
		})
	}
}

func TestStatement_Calls(t *testing.T) {
	cases := map[string]string{
		"SELECT pg_terminate_backend(pid) FROM pg_stat_activity":      "pg_terminate_backend",
		"SELECT pg_catalog.PG_CANCEL_BACKEND (42)":                    "pg_cancel_backend",
		"DO $body$ BEGIN PERFORM pg_terminate_backend(1); END $body$": "pg_terminate_backend",
		"SELECT 'pg_terminate_backend(1)' AS text":                    "",
		"SELECT 1 -- pg_terminate_backend(1)":                         "",
		"SELECT pg_terminate_backend FROM t":                          "",
		"SELECT COUNT(*) FROM employees":                              "",
	}
	for text, want := range cases {
		t.Run(text, func(t *testing.T) {
			assert.Equal(t, want, Parse(text).Calls("pg_terminate_backend", "pg_cancel_backend"))
		})
	}
}

func TestChecksum(t *testing.T) {
	assert.Equal(t, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", Checksum(""))
	assert.NotEqual(t, Checksum("SELECT 1"), Checksum("SELECT 2"))
}
