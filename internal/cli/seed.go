package cli

import (
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/dustin/go-humanize"
	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"

	"github.com/yigit/sqlguide/internal/pkg/apperrors"
)

// NewSeedCommand creates the seed command.
func NewSeedCommand(rootOpts *RootOptions) *cobra.Command {
	var checkIdempotent bool

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load the company_db sample data",
		Long: `Drop and recreate the company_db tables from the bundled script, then
compare the completion row with the rows the script inserts.

With --check-idempotent the script is applied twice and the table counts of
both runs are compared. Exits 1 on any mismatch.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(rootOpts, cmd)
			ctx := cmd.Context()

			sess, err := openSession(ctx, rootOpts, cmd, sessionOptions{Migrate: true})
			if err != nil {
				return formatter.fail(ExitCommandError, "failed to open database", err)
			}
			defer sess.Close()
			svc := sess.seedService()

			if checkIdempotent {
				formatter.VerboseLog("Applying the seed script twice...")
				report, err := svc.CheckIdempotency(ctx)
				if err != nil {
					return formatter.fail(ExitCommandError, "idempotency check failed", err)
				}
				err = formatter.Result(report.OK, report, func(w io.Writer) error {
					for _, p := range report.Problems {
						fmt.Fprintf(w, "  %s\n", p)
					}
					if report.OK {
						_, err := fmt.Fprintf(w, "Seed is idempotent across %d tables\n", len(report.Second))
						return err
					}
					_, err := fmt.Fprintf(w, "Seed is not idempotent: %s\n", plural(len(report.Problems), "problem"))
					return err
				})
				if err != nil {
					return err
				}
				if !report.OK {
					return NewExitError(ExitFailure, "seed is not idempotent")
				}
				return nil
			}

			formatter.VerboseLog("Applying the seed script...")
			app, err := svc.Apply(ctx, "cli")
			if err != nil && !errors.Is(err, apperrors.ErrSeedMismatch) {
				return formatter.fail(ExitCommandError, "seed failed", err)
			}
			if app == nil {
				return formatter.fail(ExitCommandError, "seed failed", err)
			}

			ok := err == nil
			werr := formatter.Result(ok, app, func(w io.Writer) error {
				if !ok {
					fmt.Fprintf(w, "Completion row mismatch:\n  %v\n", err)
				}
				_, err := fmt.Fprintf(w, "Applied %s statements in %dms (checksum %s)\n",
					humanize.Comma(int64(app.Statements)), app.DurationMs, app.Checksum[:12])
				return err
			})
			if werr != nil {
				return werr
			}
			if !ok {
				return WrapExitError(ExitFailure, "seed completion mismatch", err)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&checkIdempotent, "check-idempotent", false, "apply the script twice and compare table counts")
	return cmd
}

// NewStatusCommand creates the status command.
func NewStatusCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "status",
		Short:         "Compare company_db with the seed script",
		Long:          "Print current row counts of the seeded tables next to what the script inserts. Exits 1 when any table has drifted.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(rootOpts, cmd)
			ctx := cmd.Context()

			sess, err := openSession(ctx, rootOpts, cmd, sessionOptions{Migrate: true})
			if err != nil {
				return formatter.fail(ExitCommandError, "failed to open database", err)
			}
			defer sess.Close()

			status, err := sess.seedService().Status(ctx)
			if err != nil {
				return formatter.fail(ExitCommandError, "status failed", err)
			}

			ok := len(status.Drift) == 0
			err = formatter.Result(ok, status, func(w io.Writer) error {
				tables := make([]string, 0, len(status.Manifest))
				for t := range status.Manifest {
					tables = append(tables, t)
				}
				sort.Strings(tables)

				table := uitable.New()
				table.AddRow("TABLE", "ROWS", "SCRIPT")
				for _, t := range tables {
					rows := "-"
					if n, found := status.Counts[t]; found {
						rows = humanize.Comma(n)
					}
					table.AddRow(t, rows, humanize.Comma(int64(status.Manifest[t])))
				}
				fmt.Fprintln(w, table)

				switch {
				case status.Latest == nil:
					fmt.Fprintln(w, "Seed has not been applied")
				case status.UpToDate:
					fmt.Fprintf(w, "Last applied %s by %s\n", humanize.Time(status.Latest.AppliedAt), status.Latest.AppliedBy)
				default:
					fmt.Fprintf(w, "Last applied %s with an older script (checksum %s)\n",
						humanize.Time(status.Latest.AppliedAt), status.Latest.Checksum[:12])
				}
				for _, d := range status.Drift {
					fmt.Fprintf(w, "  drift: %s\n", d)
				}
				return nil
			})
			if err != nil {
				return err
			}
			if !ok {
				return NewExitError(ExitFailure, fmt.Sprintf("%s drifted", plural(len(status.Drift), "table")))
			}
			return nil
		},
	}
}
