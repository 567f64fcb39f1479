package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/yigit/sqlguide/internal/grader"
	"github.com/yigit/sqlguide/internal/pkg/apperrors"
	"github.com/yigit/sqlguide/internal/pkg/resultset"
)

// NewCheckCommand creates the check command.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "check <challenge-id>...",
		Short: "Run reference solutions against company_db",
		Long:  "Run each named challenge's solution in a rolled-back sandbox and compare the result with its documented output. Exits 1 when any check fails.",
		Example: `  sqlguide check 1.9
  sqlguide check 2.1 2.2 2.3 --format json`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(rootOpts, cmd)
			ctx := cmd.Context()

			sess, err := openSession(ctx, rootOpts, cmd, sessionOptions{})
			if err != nil {
				return formatter.fail(ExitCommandError, "failed to open database", err)
			}
			defer sess.Close()

			results := make([]*grader.CheckResult, 0, len(args))
			for _, id := range args {
				ch, err := sess.core.Catalog.Challenge(id)
				if err != nil {
					return formatter.fail(ExitCommandError, "unknown challenge", err)
				}
				res, err := sess.core.Grader.Check(ctx, ch)
				if err != nil {
					return formatter.fail(ExitCommandError, "check failed", err)
				}
				formatter.VerboseLog("%s: %s", res.ChallengeID, res.Status)
				results = append(results, res)
			}

			failed := 0
			for _, res := range results {
				if res.Status == grader.StatusFail || res.Status == grader.StatusError {
					failed++
				}
			}

			ok := failed == 0
			err = formatter.Result(ok, results, func(w io.Writer) error {
				for _, res := range results {
					fmt.Fprintf(w, "%-6s %-5s %s", res.ChallengeID, strings.ToUpper(string(res.Status)), res.Duration.Round(time.Millisecond))
					if res.Message != "" {
						fmt.Fprintf(w, "  %s", res.Message)
					}
					fmt.Fprintln(w)
					writeDiff(w, res.Diff)
				}
				return nil
			})
			if err != nil {
				return err
			}
			if !ok {
				return NewExitError(ExitFailure, fmt.Sprintf("%s failed", plural(failed, "check")))
			}
			return nil
		},
	}
}

// AttemptOptions holds options for the attempt command.
type AttemptOptions struct {
	*RootOptions
	File string
	SQL  string
}

// NewAttemptCommand creates the attempt command.
func NewAttemptCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &AttemptOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "attempt <challenge-id>",
		Short: "Grade your SQL for a challenge",
		Long:  "Run your SQL and the reference solution in separate sandboxes and compare what they return. Use - as the file to read standard input. Exits 1 unless the attempt is correct.",
		Example: `  sqlguide attempt 1.9 --file answer.sql
  sqlguide attempt 1.1 --sql "SELECT * FROM employees"
  cat answer.sql | sqlguide attempt 3.4 --file -`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAttempt(cmd, opts, args[0])
		},
	}

	cmd.Flags().StringVarP(&opts.File, "file", "f", "", "file holding the SQL to grade")
	cmd.Flags().StringVar(&opts.SQL, "sql", "", "SQL to grade")
	cmd.MarkFlagsMutuallyExclusive("file", "sql")
	cmd.MarkFlagsOneRequired("file", "sql")

	return cmd
}

func readAttemptSQL(cmd *cobra.Command, opts *AttemptOptions) (string, error) {
	if opts.File == "" {
		return opts.SQL, nil
	}
	if opts.File == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		return string(data), err
	}
	data, err := os.ReadFile(opts.File)
	if err != nil {
		return "", fmt.Errorf("%w: %v", apperrors.ErrBadRequest, err)
	}
	return string(data), nil
}

func runAttempt(cmd *cobra.Command, opts *AttemptOptions, id string) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	ctx := cmd.Context()

	sql, err := readAttemptSQL(cmd, opts)
	if err != nil {
		return formatter.fail(ExitCommandError, "failed to read SQL", err)
	}
	if _, err := grader.Validate(sql); err != nil {
		return formatter.fail(ExitCommandError, "cannot grade SQL", err)
	}

	sess, err := openSession(ctx, opts.RootOptions, cmd, sessionOptions{})
	if err != nil {
		return formatter.fail(ExitCommandError, "failed to open database", err)
	}
	defer sess.Close()

	ch, err := sess.core.Catalog.Challenge(id)
	if err != nil {
		return formatter.fail(ExitCommandError, "unknown challenge", err)
	}
	res, err := sess.core.Grader.Attempt(ctx, ch, sql)
	if err != nil {
		return formatter.fail(ExitCommandError, "attempt failed", err)
	}

	ok := res.Verdict == grader.VerdictCorrect
	err = formatter.Result(ok, res, func(w io.Writer) error {
		return writeAttempt(w, res)
	})
	if err != nil {
		return err
	}
	if !ok {
		return NewExitError(ExitFailure, fmt.Sprintf("attempt is %s", res.Verdict))
	}
	return nil
}

func writeAttempt(w io.Writer, res *grader.AttemptResult) error {
	fmt.Fprintf(w, "Challenge %s: %s\n", res.ChallengeID, strings.ToUpper(string(res.Verdict)))
	if res.Message != "" {
		fmt.Fprintf(w, "%s\n", res.Message)
	}
	if res.Error != nil {
		fmt.Fprintf(w, "%s\n", res.Error.Error())
	}
	writeDiff(w, res.Diff)
	if res.Hint != "" {
		fmt.Fprintf(w, "Hint: %s\n", res.Hint)
	}
	if res.Result != nil && res.Result.HasRows() {
		fmt.Fprintln(w, "\nYour result:")
		return resultset.RenderSample(w, res.Result, 20)
	}
	return nil
}
