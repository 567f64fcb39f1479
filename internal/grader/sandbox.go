// Package grader runs reference and learner SQL against company_db inside
// throwaway transactions and compares what comes back.
package grader

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yigit/sqlguide/internal/pkg/apperrors"
	"github.com/yigit/sqlguide/internal/pkg/dberrors"
	"github.com/yigit/sqlguide/internal/pkg/resultset"
	"github.com/yigit/sqlguide/internal/pkg/sqlscript"
)

// DefaultStatementTimeout bounds each statement when no timeout is configured.
const DefaultStatementTimeout = 5 * time.Second

// Pool hands out connections; *pgxpool.Pool satisfies it.
type Pool interface {
	Acquire(ctx context.Context) (*pgxpool.Conn, error)
}

// signalFuncs reach sessions outside the sandbox.
var signalFuncs = []string{"pg_terminate_backend", "pg_cancel_backend"}

// Sandbox executes SQL in a transaction that is always rolled back, so
// nothing a challenge does survives it. Session state that ignores the
// rollback is discarded before the connection goes back to the pool.
type Sandbox struct {
	db      Pool
	timeout time.Duration
}

// NewSandbox creates a sandbox with a per-statement timeout.
func NewSandbox(db Pool, timeout time.Duration) *Sandbox {
	if timeout <= 0 {
		timeout = DefaultStatementTimeout
	}
	return &Sandbox{db: db, timeout: timeout}
}

// Outcome is what a piece of SQL produced.
type Outcome struct {
	// Result is the last row-returning statement's result, or the last
	// command tag when nothing returned rows.
	Result *resultset.ResultSet `json:"result,omitempty"`
	// Ordered is set when the statement behind Result sorts at top level.
	Ordered bool `json:"ordered"`
	// Executed counts statements that completed.
	Executed int             `json:"executed"`
	Err      *StatementError `json:"error,omitempty"`
	Duration time.Duration   `json:"duration"`
}

// Failed reports whether a statement raised an error.
func (o *Outcome) Failed() bool {
	return o.Err != nil
}

// TimedOut reports whether the failure was a statement timeout.
func (o *Outcome) TimedOut() bool {
	return o.Err != nil && o.Err.Kind == dberrors.KindTimeout
}

// StatementError is a server error raised by one statement. Execution
// stops at the first one.
type StatementError struct {
	dberrors.Classified
	Line      int    `json:"line"`
	Statement string `json:"statement"`
}

func (e *StatementError) Error() string {
	return fmt.Sprintf("line %d: ERROR: %s (SQLSTATE %s)", e.Line, e.Message, e.SQLState)
}

// step is one statement as sent to the server. Transaction control is
// replaced by savepoint commands and reported under its own tag.
type step struct {
	stmt sqlscript.Statement
	sql  []string
	tag  string
}

const savepointPrefix = "sqlguide_tx_"

// rewrite maps BEGIN, COMMIT and ROLLBACK onto savepoints so they nest in
// the sandbox transaction. COMMIT or ROLLBACK without a matching BEGIN do
// nothing, as in psql where they only warn.
func rewrite(stmts []sqlscript.Statement) []step {
	steps := make([]step, 0, len(stmts))
	depth := 0
	for _, st := range stmts {
		s := step{stmt: st}
		switch st.TxControl() {
		case sqlscript.TxBegin:
			depth++
			s.sql = []string{fmt.Sprintf("SAVEPOINT %s%d", savepointPrefix, depth)}
			s.tag = "BEGIN"
		case sqlscript.TxCommit:
			if depth > 0 {
				s.sql = []string{fmt.Sprintf("RELEASE SAVEPOINT %s%d", savepointPrefix, depth)}
				depth--
			}
			s.tag = "COMMIT"
		case sqlscript.TxRollback:
			if depth > 0 {
				name := fmt.Sprintf("%s%d", savepointPrefix, depth)
				s.sql = []string{"ROLLBACK TO SAVEPOINT " + name, "RELEASE SAVEPOINT " + name}
				depth--
			}
			s.tag = "ROLLBACK"
		default:
			s.sql = []string{st.Text}
		}
		steps = append(steps, s)
	}
	return steps
}

// Validate rejects SQL the sandbox cannot run.
func Validate(sql string) ([]sqlscript.Statement, error) {
	stmts := sqlscript.Split(sql)
	if len(stmts) == 0 {
		return nil, apperrors.ErrEmptySQL
	}
	for _, st := range stmts {
		if st.NoTransaction() {
			return nil, fmt.Errorf("%w: line %d: %s", apperrors.ErrNotSandboxable, st.Line, st.Keyword())
		}
		if name := st.Calls(signalFuncs...); name != "" {
			return nil, fmt.Errorf("%w: line %d: %s()", apperrors.ErrNotSandboxable, st.Line, name)
		}
	}
	return stmts, nil
}

// Run executes sql and rolls everything back. SQL errors are reported in
// the Outcome; the error return is for SQL the sandbox refuses and for
// connection failures.
func (s *Sandbox) Run(ctx context.Context, sql string) (*Outcome, error) {
	stmts, err := Validate(sql)
	if err != nil {
		return nil, err
	}
	steps := rewrite(stmts)

	// statement_timeout covers each statement; the context covers the lot
	// in case the SQL resets the setting.
	ctx, cancel := context.WithTimeout(ctx, s.timeout*time.Duration(len(steps)+1))
	defer cancel()

	start := time.Now()
	conn, err := s.db.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire sandbox connection: %w", err)
	}
	defer release(ctx, conn)

	tx, err := conn.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin sandbox transaction: %w", err)
	}
	defer func() {
		rbCtx, rbCancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer rbCancel()
		_ = tx.Rollback(rbCtx)
	}()

	if _, err := tx.Exec(ctx, fmt.Sprintf("SET LOCAL statement_timeout = %d", s.timeout.Milliseconds())); err != nil {
		return nil, fmt.Errorf("failed to set statement timeout: %w", err)
	}

	out := &Outcome{}
	for _, st := range steps {
		rs, err := execute(ctx, tx, st)
		if err != nil {
			classified, ok := dberrors.Classify(err)
			if !ok {
				return nil, fmt.Errorf("line %d: %w", st.stmt.Line, err)
			}
			out.Err = &StatementError{Classified: classified, Line: st.stmt.Line, Statement: st.stmt.Text}
			break
		}
		out.Executed++
		if rs.HasRows() || out.Result == nil || !out.Result.HasRows() {
			out.Result = rs
			out.Ordered = rs.HasRows() && st.stmt.Ordered()
		}
	}
	out.Duration = time.Since(start)
	return out, nil
}

// release returns conn to the pool without the session state a rollback
// leaves behind, such as advisory locks and prepared statements. A
// connection that cannot be reset is closed instead.
func release(ctx context.Context, conn *pgxpool.Conn) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	c := conn.Conn()
	// DISCARD ALL drops server side prepared statements, so the client's
	// statement cache has to forget them as well.
	_, err := c.Exec(ctx, "DISCARD ALL")
	if err == nil {
		err = c.DeallocateAll(ctx)
	}
	if err != nil {
		_ = c.Close(ctx)
	}
	conn.Release()
}

func execute(ctx context.Context, tx pgx.Tx, st step) (*resultset.ResultSet, error) {
	if st.tag != "" {
		for _, sql := range st.sql {
			if _, err := tx.Exec(ctx, sql); err != nil {
				return nil, err
			}
		}
		return &resultset.ResultSet{Tag: st.tag}, nil
	}

	rows, err := tx.Query(ctx, st.sql[0], pgx.QueryExecModeSimpleProtocol)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	rs := &resultset.ResultSet{}
	for _, fd := range rows.FieldDescriptions() {
		rs.Columns = append(rs.Columns, resultset.Column{Name: fd.Name, Numeric: isNumeric(fd.DataTypeOID)})
	}
	for rows.Next() {
		raw := rows.RawValues()
		row := make([]resultset.Cell, len(raw))
		for i, v := range raw {
			if v == nil {
				row[i] = resultset.Cell{Null: true}
				continue
			}
			row[i] = resultset.Cell{Value: string(v)}
		}
		rs.Rows = append(rs.Rows, row)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	rs.Tag = rows.CommandTag().String()
	return rs, nil
}

func isNumeric(oid uint32) bool {
	switch oid {
	case pgtype.Int2OID, pgtype.Int4OID, pgtype.Int8OID, pgtype.NumericOID,
		pgtype.Float4OID, pgtype.Float8OID, pgtype.OIDOID:
		return true
	}
	return false
}
