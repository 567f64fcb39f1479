package grader

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/yigit/sqlguide/internal/curriculum"
	"github.com/yigit/sqlguide/internal/pkg/apperrors"
	"github.com/yigit/sqlguide/internal/pkg/resultset"
)

// Status is the result of checking a reference solution.
type Status string

const (
	StatusPass  Status = "pass"
	StatusFail  Status = "fail"
	StatusSkip  Status = "skip"
	StatusError Status = "error"
)

// Verdict is the result of grading a learner's attempt.
type Verdict string

const (
	VerdictCorrect   Verdict = "correct"
	VerdictIncorrect Verdict = "incorrect"
	VerdictError     Verdict = "error"
	VerdictTimeout   Verdict = "timeout"
)

// Recorder receives grading observations. A nil Recorder is allowed.
type Recorder interface {
	ObserveCheck(mode string, status string, d time.Duration)
	ObserveAttempt(verdict string, d time.Duration)
}

// CheckResult reports whether a reference solution reproduces its
// documented output.
type CheckResult struct {
	ChallengeID string               `json:"challenge_id"`
	Title       string               `json:"title"`
	Mode        curriculum.GradeMode `json:"grade_mode"`
	Status      Status               `json:"status"`
	Message     string               `json:"message,omitempty"`
	Diff        *resultset.Diff      `json:"diff,omitempty"`
	Error       *StatementError      `json:"error,omitempty"`
	Duration    time.Duration        `json:"duration"`
}

// AttemptResult grades learner SQL against the reference solution.
type AttemptResult struct {
	ChallengeID string          `json:"challenge_id"`
	Verdict     Verdict         `json:"verdict"`
	Message     string          `json:"message,omitempty"`
	Hint        string          `json:"hint,omitempty"`
	Diff        *resultset.Diff `json:"diff,omitempty"`
	Error       *StatementError `json:"error,omitempty"`
	// Result is what the learner's SQL produced.
	Result   *resultset.ResultSet `json:"result,omitempty"`
	Duration time.Duration        `json:"duration"`
}

// Report summarises a verification pass over many challenges.
type Report struct {
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
	Results    []CheckResult `json:"results"`
	Passed     int           `json:"passed"`
	Failed     int           `json:"failed"`
	Skipped    int           `json:"skipped"`
	Errored    int           `json:"errored"`
}

// OK reports whether nothing failed or errored.
func (r *Report) OK() bool {
	return r.Failed == 0 && r.Errored == 0
}

// Total is the number of challenges looked at.
func (r *Report) Total() int {
	return len(r.Results)
}

// Duration is the wall time of the run.
func (r *Report) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// Summary is a one-line tally.
func (r *Report) Summary() string {
	return fmt.Sprintf("%d passed, %d failed, %d errored, %d skipped", r.Passed, r.Failed, r.Errored, r.Skipped)
}

func (r *Report) add(res CheckResult) {
	switch res.Status {
	case StatusPass:
		r.Passed++
	case StatusFail:
		r.Failed++
	case StatusSkip:
		r.Skipped++
	default:
		r.Errored++
	}
}

// Progress is called after each challenge of a verification run. Calls are
// serialised.
type Progress func(done, total int, res CheckResult)

// Options configures a Grader.
type Options struct {
	StatementTimeout time.Duration
	Parallelism      int
	Gate             *Gate
	Recorder         Recorder
}

// Grader checks reference solutions and grades attempts.
type Grader struct {
	sandbox     *Sandbox
	parallelism int
	gate        *Gate
	rec         Recorder
	lgr         zerolog.Logger
}

// New creates a grader running sandboxes on db.
func New(db Pool, opts Options, lgr zerolog.Logger) *Grader {
	if opts.Parallelism < 1 {
		opts.Parallelism = 1
	}
	if opts.Gate == nil {
		opts.Gate = NewGate()
	}
	return &Grader{
		sandbox:     NewSandbox(db, opts.StatementTimeout),
		parallelism: opts.Parallelism,
		gate:        opts.Gate,
		rec:         opts.Recorder,
		lgr:         lgr.With().Str("component", "grader").Logger(),
	}
}

// Gate returns the gate shared with the seed loader.
func (g *Grader) Gate() *Gate {
	return g.gate
}

// Check runs a challenge's reference solution and compares it with the
// documented output. The error return is reserved for infrastructure
// failures; a solution that misbehaves is reported in the result.
func (g *Grader) Check(ctx context.Context, ch *curriculum.Challenge) (*CheckResult, error) {
	release := g.gate.Shared()
	defer release()
	return g.check(ctx, ch)
}

func (g *Grader) check(ctx context.Context, ch *curriculum.Challenge) (*CheckResult, error) {
	start := time.Now()
	res, err := g.evaluate(ctx, ch)
	if err != nil {
		return nil, err
	}
	res.Duration = time.Since(start)
	if g.rec != nil {
		g.rec.ObserveCheck(string(ch.Mode), string(res.Status), res.Duration)
	}

	g.lgr.Debug().
		Str("challengeID", ch.ID).
		Str("status", string(res.Status)).
		Dur("duration", res.Duration).
		Msg("Checked reference solution")
	return res, nil
}

func (g *Grader) evaluate(ctx context.Context, ch *curriculum.Challenge) (*CheckResult, error) {
	if ch.Mode == curriculum.ModeSkip {
		res := newCheckResult(ch)
		res.Status = StatusSkip
		res.Message = "solution cannot run inside a transaction"
		return res, nil
	}

	exp, err := ch.Expected()
	if err != nil {
		res := newCheckResult(ch)
		res.Status = StatusError
		res.Message = err.Error()
		return res, nil
	}

	outcome, err := g.sandbox.Run(ctx, ch.Solution)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotSandboxable) || errors.Is(err, apperrors.ErrEmptySQL) {
			res := newCheckResult(ch)
			res.Status = StatusError
			res.Message = err.Error()
			return res, nil
		}
		return nil, fmt.Errorf("challenge %s: %w", ch.ID, err)
	}
	return Evaluate(ch, exp, outcome), nil
}

func newCheckResult(ch *curriculum.Challenge) *CheckResult {
	return &CheckResult{ChallengeID: ch.ID, Title: ch.Title, Mode: ch.Mode}
}

// Evaluate judges an outcome against the documented output for the
// challenge's grade mode.
func Evaluate(ch *curriculum.Challenge, exp *resultset.Expected, outcome *Outcome) *CheckResult {
	res := newCheckResult(ch)
	res.Error = outcome.Err

	if ch.Mode == curriculum.ModeError {
		switch {
		case exp.Error == nil:
			res.Status = StatusError
			res.Message = "error mode needs an ERROR: block"
		case outcome.Err == nil:
			res.Status = StatusFail
			res.Message = fmt.Sprintf("expected ERROR: %s, but every statement succeeded", exp.Error.Message)
		case outcome.Err.Message != exp.Error.Message:
			res.Status = StatusFail
			res.Message = fmt.Sprintf("expected ERROR: %s, got ERROR: %s", exp.Error.Message, outcome.Err.Message)
		case exp.Error.Detail != "" && outcome.Err.Detail != exp.Error.Detail:
			res.Status = StatusFail
			res.Message = fmt.Sprintf("expected DETAIL: %s, got DETAIL: %s", exp.Error.Detail, outcome.Err.Detail)
		default:
			res.Status = StatusPass
		}
		return res
	}

	if outcome.Err != nil {
		res.Status = StatusError
		if outcome.TimedOut() {
			res.Message = "reference solution timed out"
		} else {
			res.Message = outcome.Err.Error()
		}
		return res
	}

	if ch.Mode == curriculum.ModeTag {
		if outcome.Result.HasRows() || outcome.Result.Tag != exp.Tag {
			res.Status = StatusFail
			res.Message = fmt.Sprintf("expected %q, got %q", exp.Tag, outcome.Result.Tag)
			return res
		}
		res.Status = StatusPass
		return res
	}

	diff := resultset.Compare(exp, outcome.Result, resultset.Options{
		Mode:    ch.Mode.ResultMode(),
		Ordered: outcome.Ordered,
	})
	if diff.Empty() {
		res.Status = StatusPass
		return res
	}
	res.Status = StatusFail
	res.Diff = diff
	res.Message = diff.Summary()
	return res
}

// Attempt grades learner SQL by running it and the reference solution in
// separate sandboxes.
func (g *Grader) Attempt(ctx context.Context, ch *curriculum.Challenge, sql string) (*AttemptResult, error) {
	if ch.Mode == curriculum.ModeSkip {
		return nil, fmt.Errorf("%w: challenge %s", apperrors.ErrNotSandboxable, ch.ID)
	}
	if _, err := Validate(sql); err != nil {
		return nil, err
	}

	release := g.gate.Shared()
	defer release()

	start := time.Now()
	ref, err := g.sandbox.Run(ctx, ch.Solution)
	if err != nil {
		return nil, fmt.Errorf("challenge %s reference: %w", ch.ID, err)
	}
	if ref.Failed() && ch.Mode != curriculum.ModeError {
		return nil, fmt.Errorf("%w: challenge %s reference failed: %v", apperrors.ErrNothingToCompare, ch.ID, ref.Err)
	}

	got, err := g.sandbox.Run(ctx, sql)
	if err != nil {
		return nil, err
	}

	res := Judge(ch, ref, got)
	res.Duration = time.Since(start)
	if g.rec != nil {
		g.rec.ObserveAttempt(string(res.Verdict), res.Duration)
	}
	g.lgr.Debug().
		Str("challengeID", ch.ID).
		Str("verdict", string(res.Verdict)).
		Dur("duration", res.Duration).
		Msg("Graded attempt")
	return res, nil
}

// Judge compares a learner outcome with the reference outcome. Column
// names are not graded; a rename only produces a hint.
func Judge(ch *curriculum.Challenge, ref, got *Outcome) *AttemptResult {
	res := &AttemptResult{ChallengeID: ch.ID, Error: got.Err, Result: got.Result}

	switch {
	case got.TimedOut():
		res.Verdict = VerdictTimeout
		res.Message = "your query ran past the statement timeout"
		return res
	case ref.Failed() && got.Failed():
		if ref.Err.SQLState == got.Err.SQLState && ref.Err.Message == got.Err.Message {
			res.Verdict = VerdictCorrect
			res.Message = "the statement fails the way it should"
			return res
		}
		res.Verdict = VerdictIncorrect
		res.Message = fmt.Sprintf("expected ERROR: %s, got ERROR: %s", ref.Err.Message, got.Err.Message)
		return res
	case got.Failed():
		res.Verdict = VerdictError
		res.Message = got.Err.Error()
		return res
	case ref.Failed():
		res.Verdict = VerdictIncorrect
		res.Message = fmt.Sprintf("expected ERROR: %s, but every statement succeeded", ref.Err.Message)
		return res
	}

	opts := resultset.Options{Mode: resultset.ModeExact, Ordered: ref.Ordered, IgnoreColumnNames: true}
	if ch.Mode == curriculum.ModeColumns {
		opts.Mode = resultset.ModeColumns
		opts.IgnoreColumnNames = false
	}

	diff := resultset.CompareResults(ref.Result, got.Result, opts)
	if !diff.Empty() {
		res.Verdict = VerdictIncorrect
		res.Diff = diff
		res.Message = diff.Summary()
		if ref.Ordered && !got.Ordered && len(diff.Columns) == 0 {
			res.Hint = "the expected rows are sorted; add an ORDER BY"
		}
		return res
	}

	res.Verdict = VerdictCorrect
	if opts.IgnoreColumnNames && ref.Result.HasRows() && resultset.ColumnsRenamed(ref.Result, got.Result) {
		res.Hint = fmt.Sprintf("columns are named differently from the reference (%s)",
			strings.Join(ref.Result.ColumnNames(), ", "))
	}
	return res
}

// Verify checks many reference solutions under one shared hold of the gate.
// Read-only solutions run in parallel; solutions that modify data run one
// at a time afterwards so their sandboxes never wait on each other's locks.
func (g *Grader) Verify(ctx context.Context, challenges []*curriculum.Challenge, progress Progress) (*Report, error) {
	release := g.gate.Shared()
	defer release()

	report := &Report{StartedAt: time.Now(), Results: make([]CheckResult, len(challenges))}

	var (
		mu   sync.Mutex
		done int
	)
	record := func(i int, res *CheckResult) {
		mu.Lock()
		defer mu.Unlock()
		report.Results[i] = *res
		done++
		if progress != nil {
			progress(done, len(challenges), *res)
		}
	}

	var parallel, serial []int
	for i, ch := range challenges {
		if ch.Mode != curriculum.ModeSkip && ch.ReadOnly() {
			parallel = append(parallel, i)
		} else {
			serial = append(serial, i)
		}
	}

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(g.parallelism)
	for _, i := range parallel {
		i := i
		eg.Go(func() error {
			res, err := g.check(egCtx, challenges[i])
			if err != nil {
				return err
			}
			record(i, res)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	for _, i := range serial {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		res, err := g.check(ctx, challenges[i])
		if err != nil {
			return nil, err
		}
		record(i, res)
	}

	for _, res := range report.Results {
		report.add(res)
	}
	report.FinishedAt = time.Now()

	g.lgr.Info().
		Int("total", report.Total()).
		Int("passed", report.Passed).
		Int("failed", report.Failed).
		Int("errored", report.Errored).
		Int("skipped", report.Skipped).
		Dur("duration", report.Duration()).
		Msg("Verification finished")
	return report, nil
}
