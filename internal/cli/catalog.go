package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"

	"github.com/yigit/sqlguide/internal/bootstrap"
	"github.com/yigit/sqlguide/internal/curriculum"
	"github.com/yigit/sqlguide/internal/pkg/apperrors"
)

// ListOptions holds options for the list command.
type ListOptions struct {
	*RootOptions
	Part       int
	Difficulty string
	Mode       string
	Query      string
}

type listItem struct {
	ID         string                `json:"id"`
	Title      string                `json:"title"`
	Difficulty curriculum.Difficulty `json:"difficulty"`
	Mode       curriculum.GradeMode  `json:"grade_mode"`
}

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ListOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List challenges",
		Long:  "List the guide's challenges in order, optionally filtered by part, difficulty, grade mode or text.",
		Example: `  sqlguide list
  sqlguide list --part 3 --difficulty hard
  sqlguide list --query "window" --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd, opts)
		},
	}

	cmd.Flags().IntVar(&opts.Part, "part", 0, "only challenges of this part")
	cmd.Flags().StringVar(&opts.Difficulty, "difficulty", "", "only challenges of this difficulty (easy|medium|hard)")
	cmd.Flags().StringVar(&opts.Mode, "mode", "", "only challenges graded in this mode")
	cmd.Flags().StringVarP(&opts.Query, "query", "q", "", "only challenges whose title or problem contains this text")

	return cmd
}

func runList(cmd *cobra.Command, opts *ListOptions) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	cat, err := bootstrap.LoadCatalog()
	if err != nil {
		return formatter.fail(ExitCommandError, "failed to load guide", err)
	}
	if opts.Part != 0 {
		if _, err := cat.Part(opts.Part); err != nil {
			return formatter.fail(ExitCommandError, "invalid part", err)
		}
	}
	mode := curriculum.GradeMode(strings.ToLower(opts.Mode))
	if mode != "" && !mode.Valid() {
		return formatter.fail(ExitCommandError, "invalid mode", fmt.Errorf("%w: unknown grade mode %q", apperrors.ErrBadRequest, opts.Mode))
	}

	challenges := cat.Challenges(curriculum.Filter{
		Part:       opts.Part,
		Difficulty: curriculum.Difficulty(opts.Difficulty),
		Mode:       mode,
		Query:      opts.Query,
	})

	items := make([]listItem, 0, len(challenges))
	for _, ch := range challenges {
		items = append(items, listItem{ID: ch.ID, Title: ch.Title, Difficulty: ch.Difficulty, Mode: ch.Mode})
	}

	return formatter.Result(true, items, func(w io.Writer) error {
		if len(items) == 0 {
			_, err := fmt.Fprintln(w, "No challenges match.")
			return err
		}
		table := uitable.New()
		table.MaxColWidth = 60
		table.Wrap = true
		table.AddRow("ID", "DIFFICULTY", "MODE", "TITLE")
		for _, it := range items {
			table.AddRow(it.ID, it.Difficulty, it.Mode, it.Title)
		}
		if _, err := fmt.Fprintln(w, table); err != nil {
			return err
		}
		_, err := fmt.Fprintf(w, "%s of %s challenges\n",
			humanize.Comma(int64(len(items))), humanize.Comma(int64(cat.Count())))
		return err
	})
}

// NewShowCommand creates the show command.
func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	var withSolution bool

	cmd := &cobra.Command{
		Use:   "show <challenge-id>",
		Short: "Show a challenge",
		Long:  "Print a challenge's problem and expected output. The solution and explanation are printed only with --solution.",
		Example: `  sqlguide show 1.9
  sqlguide show 4.2 --solution`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(rootOpts, cmd)

			cat, err := bootstrap.LoadCatalog()
			if err != nil {
				return formatter.fail(ExitCommandError, "failed to load guide", err)
			}
			ch, err := cat.Challenge(args[0])
			if err != nil {
				return formatter.fail(ExitCommandError, "unknown challenge", err)
			}

			view := *ch
			if !withSolution {
				view.Solution = ""
				view.Explanation = ""
			}
			return formatter.Result(true, view, func(w io.Writer) error {
				return writeChallenge(w, &view)
			})
		},
	}

	cmd.Flags().BoolVar(&withSolution, "solution", false, "include the solution and explanation")
	return cmd
}

func writeChallenge(w io.Writer, ch *curriculum.Challenge) error {
	var b strings.Builder
	fmt.Fprintf(&b, "Challenge %s: %s (%s, %s)\n\n", ch.ID, ch.Title, ch.Difficulty, ch.Mode)
	fmt.Fprintf(&b, "%s\n\nExpected output:\n\n%s\n", strings.TrimSpace(ch.Problem), strings.TrimRight(ch.ExpectedOutput, "\n"))
	if ch.Solution != "" {
		fmt.Fprintf(&b, "\nSolution:\n\n%s\n", strings.TrimSpace(ch.Solution))
	}
	if ch.Explanation != "" {
		fmt.Fprintf(&b, "\nExplanation:\n\n%s\n", strings.TrimSpace(ch.Explanation))
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// NewLintCommand creates the lint command.
func NewLintCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "lint",
		Short:         "Check the guide's documents for consistency",
		Long:          "Check the index totals, challenge numbering, section order and expected-output blocks of every part. Exits 1 when problems are found.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(rootOpts, cmd)

			cat, err := bootstrap.LoadCatalog()
			if err != nil {
				return formatter.fail(ExitCommandError, "failed to load guide", err)
			}

			problems := cat.Lint()
			if problems == nil {
				problems = []curriculum.Problem{}
			}
			ok := len(problems) == 0
			err = formatter.Result(ok, problems, func(w io.Writer) error {
				for _, p := range problems {
					if _, err := fmt.Fprintln(w, p.String()); err != nil {
						return err
					}
				}
				_, err := fmt.Fprintf(w, "%d parts, %d challenges, %s\n",
					len(cat.Parts()), cat.Count(), plural(len(problems), "problem"))
				return err
			})
			if err != nil {
				return err
			}
			if !ok {
				return NewExitError(ExitFailure, fmt.Sprintf("guide has %s", plural(len(problems), "problem")))
			}
			return nil
		},
	}
}

func plural(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
