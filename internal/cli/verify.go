package cli

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/yigit/sqlguide/internal/config"
	"github.com/yigit/sqlguide/internal/curriculum"
	"github.com/yigit/sqlguide/internal/grader"
	"github.com/yigit/sqlguide/internal/pkg/filestorage"
)

// VerifyOptions holds options for the verify command.
type VerifyOptions struct {
	*RootOptions
	Part      int
	Parallel  int
	ReportDir string
	All       bool
}

// NewVerifyCommand creates the verify command.
func NewVerifyCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &VerifyOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Check every reference solution",
		Long: `Run the reference solution of every challenge, or of one part, and compare
each result with its documented output. Read-only solutions run in parallel.

With --report-dir the text and JSON reports are also written to a
timestamped directory. Exits 1 when any challenge fails or errors.`,
		Example: `  sqlguide verify
  sqlguide verify --part 5 --all
  sqlguide verify --parallel 8 --report-dir reports`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerify(cmd, opts)
		},
	}

	cmd.Flags().IntVar(&opts.Part, "part", 0, "only verify this part")
	cmd.Flags().IntVar(&opts.Parallel, "parallel", 0, "read-only solutions run at once (default from config)")
	cmd.Flags().StringVar(&opts.ReportDir, "report-dir", "", "also write report.txt and report.json here")
	cmd.Flags().BoolVar(&opts.All, "all", false, "list passing challenges too")

	return cmd
}

func runVerify(cmd *cobra.Command, opts *VerifyOptions) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	ctx := cmd.Context()

	if opts.Parallel < 0 {
		return formatter.fail(ExitCommandError, "invalid flag", fmt.Errorf("--parallel must not be negative, got %d", opts.Parallel))
	}

	sess, err := openSession(ctx, opts.RootOptions, cmd, sessionOptions{
		Override: func(cfg *config.Config) {
			if opts.Parallel > 0 {
				cfg.Grader.Parallelism = opts.Parallel
			}
		},
	})
	if err != nil {
		return formatter.fail(ExitCommandError, "failed to open database", err)
	}
	defer sess.Close()

	if opts.Part != 0 {
		if _, err := sess.core.Catalog.Part(opts.Part); err != nil {
			return formatter.fail(ExitCommandError, "invalid part", err)
		}
	}
	challenges := sess.core.Catalog.Challenges(curriculum.Filter{Part: opts.Part})

	report, err := sess.core.Grader.Verify(ctx, challenges, func(done, total int, res grader.CheckResult) {
		formatter.VerboseLog("[%d/%d] %s %s", done, total, res.ChallengeID, res.Status)
	})
	if err != nil {
		return formatter.fail(ExitCommandError, "verification aborted", err)
	}

	if opts.ReportDir != "" {
		dir, err := saveReport(opts.ReportDir, report)
		if err != nil {
			return formatter.fail(ExitCommandError, "failed to write report", err)
		}
		formatter.VerboseLog("Reports written to %s", dir)
	}

	err = formatter.Result(report.OK(), report, func(w io.Writer) error {
		if err := report.WriteText(w, opts.All); err != nil {
			return err
		}
		for _, res := range report.Failures() {
			if res.Diff == nil || res.Diff.Empty() {
				continue
			}
			fmt.Fprintf(w, "\n%s %s:\n", res.ChallengeID, res.Title)
			writeDiff(w, res.Diff)
		}
		return nil
	})
	if err != nil {
		return err
	}
	if !report.OK() {
		return NewExitError(ExitFailure, report.Summary())
	}
	return nil
}

// saveReport writes both renderings under a directory named after the
// run's start time and returns that directory.
func saveReport(root string, report *grader.Report) (string, error) {
	storage, err := filestorage.NewLocalStorage(root, "")
	if err != nil {
		return "", err
	}
	sub := report.StartedAt.UTC().Format("20060102T150405Z")

	var text, js bytes.Buffer
	if err := report.WriteText(&text, true); err != nil {
		return "", err
	}
	if err := report.WriteJSON(&js); err != nil {
		return "", err
	}

	var info *filestorage.FileInfo
	for name, buf := range map[string]*bytes.Buffer{"report.txt": &text, "report.json": &js} {
		if info, err = storage.SaveFile(sub, name, buf); err != nil {
			return "", err
		}
	}
	return filepath.Dir(info.Path), nil
}
