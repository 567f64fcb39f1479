package grader

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yigit/sqlguide/content"
	"github.com/yigit/sqlguide/internal/curriculum"
	"github.com/yigit/sqlguide/internal/db"
	"github.com/yigit/sqlguide/internal/db/dbtest"
	"github.com/yigit/sqlguide/internal/pkg/apperrors"
	"github.com/yigit/sqlguide/internal/pkg/dberrors"
	"github.com/yigit/sqlguide/internal/pkg/resultset"
	"github.com/yigit/sqlguide/internal/pkg/sqlscript"
	"github.com/yigit/sqlguide/internal/seed"
)

func TestRewrite(t *testing.T) {
	steps := rewrite(sqlscript.Split(`
COMMIT;
BEGIN;
UPDATE accounts SET balance = 0;
START TRANSACTION;
ROLLBACK;
END;
SELECT 1;
ROLLBACK TO SAVEPOINT x;
`))
	require.Len(t, steps, 8)

	var sent [][]string
	var tags []string
	for _, s := range steps {
		sent = append(sent, s.sql)
		tags = append(tags, s.tag)
	}
	assert.Equal(t, [][]string{
		nil,
		{"SAVEPOINT sqlguide_tx_1"},
		{"UPDATE accounts SET balance = 0"},
		{"SAVEPOINT sqlguide_tx_2"},
		{"ROLLBACK TO SAVEPOINT sqlguide_tx_2", "RELEASE SAVEPOINT sqlguide_tx_2"},
		{"RELEASE SAVEPOINT sqlguide_tx_1"},
		{"SELECT 1"},
		{"ROLLBACK TO SAVEPOINT x"},
	}, sent)
	assert.Equal(t, []string{"COMMIT", "BEGIN", "", "BEGIN", "ROLLBACK", "COMMIT", "", ""}, tags)
}

func TestValidate(t *testing.T) {
	_, err := Validate("  -- only a comment\n")
	assert.ErrorIs(t, err, apperrors.ErrEmptySQL)

	_, err = Validate("SELECT 1; VACUUM employees;")
	assert.ErrorIs(t, err, apperrors.ErrNotSandboxable)

	_, err = Validate("SELECT 1;\nSELECT pg_terminate_backend(pid) FROM pg_stat_activity")
	assert.ErrorIs(t, err, apperrors.ErrNotSandboxable)
	assert.ErrorContains(t, err, "line 2: pg_terminate_backend()")

	_, err = Validate("DO $$ BEGIN PERFORM pg_cancel_backend(1); END $$")
	assert.ErrorIs(t, err, apperrors.ErrNotSandboxable)

	stmts, err := Validate("SELECT 1; SELECT 2")
	require.NoError(t, err)
	assert.Len(t, stmts, 2)
}

func challenge(mode curriculum.GradeMode) *curriculum.Challenge {
	return &curriculum.Challenge{ID: "9.1", Title: "Probe", Mode: mode}
}

func rows(names []string, values ...[]string) *resultset.ResultSet {
	rs := &resultset.ResultSet{Tag: "SELECT"}
	for _, n := range names {
		rs.Columns = append(rs.Columns, resultset.Column{Name: n})
	}
	for _, v := range values {
		rs.Rows = append(rs.Rows, resultset.NewRow(v...))
	}
	return rs
}

func failure(code, message string) *Outcome {
	classified := dberrors.Classified{Kind: dberrors.KindOther, SQLState: code, Message: message}
	if code == dberrors.CodeQueryCanceled {
		classified.Kind = dberrors.KindTimeout
	}
	return &Outcome{Err: &StatementError{Classified: classified, Line: 1}}
}

func TestEvaluate_Table(t *testing.T) {
	exp, err := resultset.Parse(" total_employees\n-----------------\n              37\n(1 row)\n")
	require.NoError(t, err)

	pass := Evaluate(challenge(curriculum.ModeExact), exp, &Outcome{Result: rows([]string{"total_employees"}, []string{"37"})})
	assert.Equal(t, StatusPass, pass.Status)

	fail := Evaluate(challenge(curriculum.ModeExact), exp, &Outcome{Result: rows([]string{"total_employees"}, []string{"36"})})
	assert.Equal(t, StatusFail, fail.Status)
	require.NotNil(t, fail.Diff)
	assert.Equal(t, "1 missing row, 1 unexpected row", fail.Message)

	broken := Evaluate(challenge(curriculum.ModeExact), exp, failure(dberrors.CodeUndefinedTable, `relation "employes" does not exist`))
	assert.Equal(t, StatusError, broken.Status)
	assert.Contains(t, broken.Message, "42P01")

	slow := Evaluate(challenge(curriculum.ModeExact), exp, failure(dberrors.CodeQueryCanceled, "canceling statement due to statement timeout"))
	assert.Equal(t, StatusError, slow.Status)
	assert.Equal(t, "reference solution timed out", slow.Message)
}

func TestEvaluate_Tag(t *testing.T) {
	exp, err := resultset.Parse("UPDATE 5\n")
	require.NoError(t, err)

	ok := Evaluate(challenge(curriculum.ModeTag), exp, &Outcome{Result: &resultset.ResultSet{Tag: "UPDATE 5"}})
	assert.Equal(t, StatusPass, ok.Status)

	wrong := Evaluate(challenge(curriculum.ModeTag), exp, &Outcome{Result: &resultset.ResultSet{Tag: "UPDATE 6"}})
	assert.Equal(t, StatusFail, wrong.Status)
	assert.Equal(t, `expected "UPDATE 5", got "UPDATE 6"`, wrong.Message)
}

func TestEvaluate_Error(t *testing.T) {
	exp, err := resultset.Parse("ERROR:  new row violates check constraint \"c\"\nDETAIL:  Failing row contains (1).\n")
	require.NoError(t, err)

	got := failure(dberrors.CodeCheckViolation, `new row violates check constraint "c"`)
	got.Err.Detail = "Failing row contains (1)."
	assert.Equal(t, StatusPass, Evaluate(challenge(curriculum.ModeError), exp, got).Status)

	got.Err.Detail = "Failing row contains (2)."
	assert.Equal(t, StatusFail, Evaluate(challenge(curriculum.ModeError), exp, got).Status)

	succeeded := Evaluate(challenge(curriculum.ModeError), exp, &Outcome{Result: &resultset.ResultSet{Tag: "COMMIT"}})
	assert.Equal(t, StatusFail, succeeded.Status)
	assert.Contains(t, succeeded.Message, "every statement succeeded")
}

func TestJudge(t *testing.T) {
	ch := challenge(curriculum.ModeExact)
	ref := &Outcome{Result: rows([]string{"name", "n"}, []string{"a", "1"}, []string{"b", "2"}), Ordered: true}

	renamed := Judge(ch, ref, &Outcome{Result: rows([]string{"label", "count"}, []string{"a", "1"}, []string{"b", "2"}), Ordered: true})
	assert.Equal(t, VerdictCorrect, renamed.Verdict)
	assert.Equal(t, "columns are named differently from the reference (name, n)", renamed.Hint)

	unsorted := Judge(ch, ref, &Outcome{Result: rows([]string{"name", "n"}, []string{"b", "2"}, []string{"a", "1"})})
	assert.Equal(t, VerdictIncorrect, unsorted.Verdict)
	assert.Equal(t, "the expected rows are sorted; add an ORDER BY", unsorted.Hint)

	broken := Judge(ch, ref, failure(dberrors.CodeSyntaxError, `syntax error at or near "FORM"`))
	assert.Equal(t, VerdictError, broken.Verdict)
	assert.Equal(t, dberrors.CodeSyntaxError, broken.Error.SQLState)

	slow := Judge(ch, ref, failure(dberrors.CodeQueryCanceled, "canceling statement due to statement timeout"))
	assert.Equal(t, VerdictTimeout, slow.Verdict)

	refErr := failure(dberrors.CodeCheckViolation, "violates check")
	assert.Equal(t, VerdictCorrect, Judge(challenge(curriculum.ModeError), refErr, failure(dberrors.CodeCheckViolation, "violates check")).Verdict)
	assert.Equal(t, VerdictIncorrect, Judge(challenge(curriculum.ModeError), refErr, &Outcome{Result: &resultset.ResultSet{Tag: "UPDATE 1"}}).Verdict)
}

func TestReport(t *testing.T) {
	r := &Report{StartedAt: time.Unix(0, 0), FinishedAt: time.Unix(2, 0)}
	for _, s := range []Status{StatusPass, StatusPass, StatusSkip, StatusFail, StatusError} {
		res := CheckResult{Status: s}
		r.Results = append(r.Results, res)
		r.add(res)
	}
	assert.Equal(t, "2 passed, 1 failed, 1 errored, 1 skipped", r.Summary())
	assert.False(t, r.OK())
	assert.Equal(t, 5, r.Total())
	assert.Equal(t, 2*time.Second, r.Duration())
}

func TestGate_ExclusiveWaitsForShared(t *testing.T) {
	g := NewGate()
	release := g.Shared()

	acquired := make(chan struct{})
	go func() {
		unlock := g.Exclusive()
		close(acquired)
		unlock()
	}()

	select {
	case <-acquired:
		t.Fatal("exclusive hold granted while shared hold is active")
	case <-time.After(50 * time.Millisecond):
	}
	release()
	<-acquired
}

// The guide's reference solutions must reproduce their documented output
// against a freshly seeded company_db.
func TestVerify_Guide(t *testing.T) {
	database := dbtest.Connect(t)
	ctx := context.Background()

	_, err := seed.NewSeeder(database, database.Pool, content.SeedScript, zerolog.Nop()).Apply(ctx)
	require.NoError(t, err)

	cat, err := curriculum.Load(content.Guide())
	require.NoError(t, err)

	g := New(database.Pool, Options{StatementTimeout: 10 * time.Second, Parallelism: 4}, zerolog.Nop())

	calls := 0
	report, err := g.Verify(ctx, cat.Challenges(curriculum.Filter{}), func(done, total int, _ CheckResult) {
		calls++
		assert.Equal(t, curriculum.ExpectedTotal, total)
	})
	require.NoError(t, err)
	assert.Equal(t, curriculum.ExpectedTotal, calls)

	for _, res := range report.Results {
		if res.Status != StatusPass && res.Status != StatusSkip {
			t.Errorf("%s %s: %s", res.ChallengeID, res.Status, res.Message)
		}
	}
	assert.Equal(t, 1, report.Skipped)

	// Sandboxes roll back, so the data is untouched.
	counts, err := seed.Counts(ctx, database.Pool, []string{"employees", "accounts"})
	require.NoError(t, err)
	assert.Equal(t, int64(37), counts["employees"])
	assert.Equal(t, int64(6), counts["accounts"])
}

func TestAttempt_Guide(t *testing.T) {
	database := dbtest.Connect(t)
	ctx := context.Background()

	cat, err := curriculum.Load(content.Guide())
	require.NoError(t, err)
	g := New(database.Pool, Options{StatementTimeout: 5 * time.Second}, zerolog.Nop())

	ch, err := cat.Challenge("1.9")
	require.NoError(t, err)

	res, err := g.Attempt(ctx, ch, "select count(employee_id) from employees")
	require.NoError(t, err)
	assert.Equal(t, VerdictCorrect, res.Verdict)
	assert.NotEmpty(t, res.Hint)

	res, err = g.Attempt(ctx, ch, "SELECT COUNT(*) FROM employes")
	require.NoError(t, err)
	assert.Equal(t, VerdictError, res.Verdict)
	assert.Equal(t, dberrors.CodeUndefinedTable, res.Error.SQLState)

	skip, err := cat.Challenge("6.11")
	require.NoError(t, err)
	_, err = g.Attempt(ctx, skip, "SELECT 1")
	assert.ErrorIs(t, err, apperrors.ErrNotSandboxable)
}

// Session state that outlives a rollback must not reach the next user of
// the pooled connection.
func TestSandbox_ResetsSession(t *testing.T) {
	// One connection, so every run reuses the session of the one before.
	sandboxDB := dbtest.ConnectWith(t, db.PoolOptions{MaxConns: 1})
	ctx := context.Background()
	sb := NewSandbox(sandboxDB.Pool, 5*time.Second)

	out, err := sb.Run(ctx, fmt.Sprintf("SELECT pg_advisory_lock(%d)", seed.LockKey))
	require.NoError(t, err)
	require.False(t, out.Failed(), "%v", out.Err)

	for i := 0; i < 2; i++ {
		out, err = sb.Run(ctx, "PREPARE sandbox_leftover AS SELECT 1")
		require.NoError(t, err)
		require.False(t, out.Failed(), "run %d: %v", i+1, out.Err)
	}

	out, err = sb.Run(ctx, "SELECT count(*) FROM pg_locks WHERE locktype = 'advisory' AND pid = pg_backend_pid()")
	require.NoError(t, err)
	require.False(t, out.Failed(), "%v", out.Err)
	assert.Equal(t, "0", out.Result.Rows[0][0].Value)

	// The seed takes the same key from another session.
	seedDB := dbtest.Connect(t)
	applyCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	_, err = seed.NewSeeder(seedDB, seedDB.Pool, content.SeedScript, zerolog.Nop()).Apply(applyCtx)
	require.NoError(t, err)
}

func TestReport_WriteText(t *testing.T) {
	r := &Report{StartedAt: time.Unix(0, 0), FinishedAt: time.Unix(0, int64(1500*time.Millisecond))}
	for _, res := range []CheckResult{
		{ChallengeID: "1.1", Mode: curriculum.ModeExact, Status: StatusPass, Duration: 3 * time.Millisecond},
		{ChallengeID: "2.4", Mode: curriculum.ModeSample, Status: StatusFail, Message: "1 missing row", Duration: 7 * time.Millisecond},
		{ChallengeID: "6.11", Mode: curriculum.ModeSkip, Status: StatusSkip, Message: "cannot run inside a transaction"},
	} {
		r.Results = append(r.Results, res)
		r.add(res)
	}

	var failing strings.Builder
	require.NoError(t, r.WriteText(&failing, false))
	out := failing.String()
	assert.NotContains(t, out, "1.1 ")
	assert.Contains(t, out, "2.4")
	assert.Contains(t, out, "FAIL")
	assert.Contains(t, out, "1 missing row")
	assert.True(t, strings.HasSuffix(out, "3 challenges: 1 passed, 1 failed, 0 errored, 1 skipped in 1.5s\n"), out)

	var all strings.Builder
	require.NoError(t, r.WriteText(&all, true))
	assert.Contains(t, all.String(), "1.1")

	require.Len(t, r.Failures(), 1)
	assert.Equal(t, "2.4", r.Failures()[0].ChallengeID)
}
