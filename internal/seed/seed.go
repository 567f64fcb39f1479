// Package seed loads the company_db script and checks what it leaves behind.
package seed

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/yigit/sqlguide/internal/db"
	"github.com/yigit/sqlguide/internal/pkg/apperrors"
	"github.com/yigit/sqlguide/internal/pkg/sqlscript"
)

// LockKey is the advisory lock serialising seed applications across
// processes.
const LockKey int64 = 0x53514c4755494445

// Store runs a function inside a committed-on-success transaction.
type Store interface {
	WithTransaction(ctx context.Context, fn db.TransactionFn) error
}

// Querier runs single-row queries; *pgxpool.Pool and pgx.Tx satisfy it.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// ApplyReport describes one application of the script.
type ApplyReport struct {
	Checksum   string            `json:"checksum"`
	Statements int               `json:"statements"`
	Duration   time.Duration     `json:"duration"`
	Completion map[string]string `json:"completion"`
}

// IdempotencyReport compares two consecutive applications.
type IdempotencyReport struct {
	First    map[string]int64 `json:"first"`
	Second   map[string]int64 `json:"second"`
	Manifest map[string]int   `json:"manifest"`
	Problems []string         `json:"problems"`
}

// OK reports whether both runs matched each other and the manifest.
func (r *IdempotencyReport) OK() bool {
	return len(r.Problems) == 0
}

// Seeder applies a seed script.
type Seeder struct {
	store  Store
	q      Querier
	script string
	stmts  []sqlscript.Statement
	lgr    zerolog.Logger
}

// NewSeeder prepares script for application through store; q is used for
// counting rows outside the seed transaction.
func NewSeeder(store Store, q Querier, script string, lgr zerolog.Logger) *Seeder {
	return &Seeder{
		store:  store,
		q:      q,
		script: script,
		stmts:  sqlscript.Split(script),
		lgr:    lgr.With().Str("component", "seed").Logger(),
	}
}

// Tables lists the tables the script creates.
func (s *Seeder) Tables() []string {
	return sqlscript.CreatedTables(s.stmts)
}

// Manifest returns the row counts the script inserts per table.
func (s *Seeder) Manifest() map[string]int {
	return Manifest(s.stmts)
}

// Checksum identifies the script version.
func (s *Seeder) Checksum() string {
	return sqlscript.Checksum(s.script)
}

// Apply runs every statement of the script in one transaction holding an
// advisory lock, and captures the completion query's row.
func (s *Seeder) Apply(ctx context.Context) (*ApplyReport, error) {
	if len(s.stmts) == 0 {
		return nil, apperrors.ErrEmptySQL
	}

	start := time.Now()
	report := &ApplyReport{Checksum: s.Checksum(), Statements: len(s.stmts)}

	err := s.store.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock($1)", LockKey); err != nil {
			return fmt.Errorf("acquire seed lock: %w", err)
		}

		last := len(s.stmts) - 1
		for i, st := range s.stmts {
			if i == last && st.ReadOnly() {
				completion, err := completionRow(ctx, tx, st.Text)
				if err != nil {
					return fmt.Errorf("seed statement at line %d: %w", st.Line, err)
				}
				report.Completion = completion
				continue
			}
			if _, err := tx.Exec(ctx, st.Text, pgx.QueryExecModeSimpleProtocol); err != nil {
				return fmt.Errorf("seed statement at line %d: %w", st.Line, err)
			}
		}
		return nil
	})
	if err != nil {
		s.lgr.Error().Err(err).Msg("Seed application failed")
		return nil, err
	}

	report.Duration = time.Since(start)
	s.lgr.Info().
		Str("checksum", report.Checksum[:12]).
		Int("statements", report.Statements).
		Dur("duration", report.Duration).
		Msg("Seed applied")
	return report, nil
}

// completionRow returns the first row of a query as column → text.
func completionRow(ctx context.Context, tx pgx.Tx, sql string) (map[string]string, error) {
	rows, err := tx.Query(ctx, sql, pgx.QueryExecModeSimpleProtocol)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]string)
	if rows.Next() {
		fields := rows.FieldDescriptions()
		for i, raw := range rows.RawValues() {
			if raw != nil {
				out[fields[i].Name] = string(raw)
			}
		}
	}
	return out, rows.Err()
}

// Counts returns COUNT(*) for every table. Failures are collected so one
// missing table does not hide the others.
func Counts(ctx context.Context, q Querier, tables []string) (map[string]int64, error) {
	counts := make(map[string]int64, len(tables))
	var errs []error
	for _, table := range tables {
		query, args, err := squirrel.Select("COUNT(*)").
			From(pgx.Identifier{table}.Sanitize()).
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			errs = append(errs, fmt.Errorf("build count for %s: %w", table, err))
			continue
		}

		var n int64
		if err := q.QueryRow(ctx, query, args...).Scan(&n); err != nil {
			errs = append(errs, fmt.Errorf("count %s: %w", table, err))
			continue
		}
		counts[table] = n
	}
	return counts, errors.Join(errs...)
}

// Manifest returns the "as inserted" row count per table.
func Manifest(stmts []sqlscript.Statement) map[string]int {
	return sqlscript.InsertedRows(stmts)
}

// CheckCompletion compares the completion row's *_count columns with the
// manifest: employee_count must equal the rows inserted into employees.
func CheckCompletion(report *ApplyReport, manifest map[string]int) error {
	if report == nil || len(report.Completion) == 0 {
		return fmt.Errorf("%w: no completion row", apperrors.ErrSeedMismatch)
	}

	var errs []error
	for _, col := range sortedKeys(report.Completion) {
		entity, ok := strings.CutSuffix(col, "_count")
		if !ok {
			continue
		}
		table := entity + "s"
		got, err := strconv.ParseInt(report.Completion[col], 10, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("%w: %s is %q", apperrors.ErrSeedMismatch, col, report.Completion[col]))
			continue
		}
		want, ok := manifest[table]
		if !ok {
			errs = append(errs, fmt.Errorf("%w: %s has no inserted rows for %s", apperrors.ErrSeedMismatch, col, table))
			continue
		}
		if got != int64(want) {
			errs = append(errs, fmt.Errorf("%w: %s = %d, script inserts %d", apperrors.ErrSeedMismatch, col, got, want))
		}
	}
	return errors.Join(errs...)
}

// CompareCounts lists every table whose counts differ between two runs or
// from the manifest. Tables the script never inserts into must be empty.
func CompareCounts(first, second map[string]int64, manifest map[string]int) []string {
	var problems []string
	for _, table := range sortedKeys(first) {
		a := first[table]
		b, ok := second[table]
		if !ok {
			problems = append(problems, fmt.Sprintf("%s: missing after second run", table))
			continue
		}
		if a != b {
			problems = append(problems, fmt.Sprintf("%s: %d rows after first run, %d after second", table, a, b))
		}
		if want := int64(manifest[table]); b != want {
			problems = append(problems, fmt.Sprintf("%s: %d rows, script inserts %d", table, b, want))
		}
	}
	return problems
}

// Drift lists tables whose current row count differs from what the script
// inserts. A table missing from counts could not be counted.
func Drift(counts map[string]int64, tables []string, manifest map[string]int) []string {
	var drift []string
	for _, table := range tables {
		n, ok := counts[table]
		if !ok {
			drift = append(drift, fmt.Sprintf("%s: missing", table))
			continue
		}
		if want := int64(manifest[table]); n != want {
			drift = append(drift, fmt.Sprintf("%s: %d rows, script inserts %d", table, n, want))
		}
	}
	return drift
}

// Counts returns the current row count of every table the script creates.
func (s *Seeder) Counts(ctx context.Context) (map[string]int64, error) {
	return Counts(ctx, s.q, s.Tables())
}

// CheckIdempotent applies the script twice and compares the row counts of
// every created table between the runs and against the manifest.
func (s *Seeder) CheckIdempotent(ctx context.Context) (*IdempotencyReport, error) {
	tables := s.Tables()
	report := &IdempotencyReport{Manifest: s.Manifest()}

	for run := 1; run <= 2; run++ {
		applied, err := s.Apply(ctx)
		if err != nil {
			return nil, fmt.Errorf("run %d: %w", run, err)
		}
		if err := CheckCompletion(applied, report.Manifest); err != nil {
			report.Problems = append(report.Problems, fmt.Sprintf("run %d: %v", run, err))
		}
		counts, err := Counts(ctx, s.q, tables)
		if err != nil {
			return nil, fmt.Errorf("run %d: %w", run, err)
		}
		if run == 1 {
			report.First = counts
		} else {
			report.Second = counts
		}
	}

	report.Problems = append(report.Problems, CompareCounts(report.First, report.Second, report.Manifest)...)
	return report, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
