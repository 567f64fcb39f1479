package curriculum

import (
	"fmt"

	"github.com/yigit/sqlguide/internal/pkg/validation"
)

// ExpectedTotal is the number of challenges the guide promises.
const ExpectedTotal = 79

// Problem is one consistency issue found by Lint.
type Problem struct {
	File        string `json:"file"`
	Line        int    `json:"line,omitempty"`
	ChallengeID string `json:"challenge_id,omitempty"`
	Message     string `json:"message"`
}

func (p Problem) String() string {
	loc := p.File
	if p.Line > 0 {
		loc = fmt.Sprintf("%s:%d", p.File, p.Line)
	}
	if p.ChallengeID != "" {
		return fmt.Sprintf("%s: challenge %s: %s", loc, p.ChallengeID, p.Message)
	}
	return fmt.Sprintf("%s: %s", loc, p.Message)
}

// Lint checks the catalog against its index and every challenge against the
// challenge format, returning all problems found.
func (c *Catalog) Lint() []Problem {
	var problems []Problem
	add := func(p Problem) { problems = append(problems, p) }

	if c.index.Total != ExpectedTotal {
		add(Problem{File: IndexFile, Message: fmt.Sprintf("stated total is %d, want %d", c.index.Total, ExpectedTotal)})
	}
	if sum := c.index.Sum(); sum != c.index.Total {
		add(Problem{File: IndexFile, Message: fmt.Sprintf("part counts add up to %d but the stated total is %d", sum, c.index.Total)})
	}
	if n := c.Count(); n != ExpectedTotal {
		add(Problem{File: IndexFile, Message: fmt.Sprintf("parsed %d challenges, want %d", n, ExpectedTotal)})
	}

	for _, entry := range c.index.Entries {
		part, err := c.Part(entry.Part)
		if err != nil {
			add(Problem{File: entry.File, Message: fmt.Sprintf("index lists part %d but the file declares another part", entry.Part)})
			continue
		}
		if part.Title != entry.Title {
			add(Problem{File: entry.File, Message: fmt.Sprintf("title %q differs from index title %q", part.Title, entry.Title)})
		}
		if len(part.Challenges) != entry.Challenges {
			add(Problem{File: entry.File, Message: fmt.Sprintf("has %d challenges, index says %d", len(part.Challenges), entry.Challenges)})
		}
		problems = append(problems, lintPart(part)...)
	}

	return problems
}

func lintPart(part *Part) []Problem {
	var problems []Problem
	for i, ch := range part.Challenges {
		add := func(format string, args ...interface{}) {
			problems = append(problems, Problem{File: part.File, Line: ch.Line, ChallengeID: ch.ID, Message: fmt.Sprintf(format, args...)})
		}

		if ch.Number != i+1 {
			add("numbered %d, expected %d", ch.Number, i+1)
		}
		if !validation.IsDifficulty(string(ch.Difficulty)) {
			add("unknown difficulty %q", ch.Difficulty)
		}
		if ch.Problem == "" {
			add("missing problem statement")
		}
		if ch.Explanation == "" {
			add("missing explanation")
		}
		if ch.Solution == "" {
			add("missing solution")
			continue
		}
		if !ch.Mode.Valid() {
			add("unknown grade mode %q", ch.Mode)
			continue
		}
		if ch.ExpectedOutput == "" {
			add("missing expected output")
			continue
		}
		exp, err := ch.Expected()
		if err != nil {
			add("unparsable expected output: %v", err)
			continue
		}
		for _, msg := range modeProblems(ch, exp.IsTable(), exp.Truncated, exp.RowCount, exp.Error != nil) {
			add("%s", msg)
		}
	}
	return problems
}

// modeProblems checks that the grade mode agrees with the expected block
// and with what the solution can do inside a transaction.
func modeProblems(ch *Challenge, table, truncated bool, rowCount int, isError bool) []string {
	var out []string

	sandboxable := true
	for _, st := range ch.Statements() {
		if st.NoTransaction() {
			sandboxable = false
		}
	}
	if ch.Mode == ModeSkip && sandboxable {
		out = append(out, "grade mode skip but the solution can run in a transaction")
	}
	if ch.Mode != ModeSkip && !sandboxable {
		out = append(out, "solution cannot run in a transaction; mark it <!-- grade: skip -->")
	}

	switch ch.Mode {
	case ModeExact:
		if !table {
			out = append(out, "exact mode needs a result table")
		} else if truncated {
			out = append(out, "listing is truncated; mark it <!-- grade: sample -->")
		}
	case ModeSample:
		if !table || !truncated {
			out = append(out, "sample mode needs a truncated result table")
		} else if rowCount < 0 {
			out = append(out, "sample listing needs a row count footer")
		}
	case ModeColumns:
		if !table {
			out = append(out, "columns mode needs a result table header")
		}
	case ModeTag:
		if table || isError {
			out = append(out, "tag mode needs a command tag block")
		}
	case ModeError:
		if !isError {
			out = append(out, "error mode needs an ERROR: block")
		}
	}
	return out
}
