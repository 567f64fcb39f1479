// Package curriculum reads the SQL guide: the README index and the six part
// documents, each a numbered list of challenges.
package curriculum

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/yigit/sqlguide/internal/pkg/apperrors"
	"github.com/yigit/sqlguide/internal/pkg/resultset"
	"github.com/yigit/sqlguide/internal/pkg/sqlscript"
	"github.com/yigit/sqlguide/internal/pkg/validation"
)

// Difficulty labels a challenge.
type Difficulty string

const (
	Easy   Difficulty = "Easy"
	Medium Difficulty = "Medium"
	Hard   Difficulty = "Hard"
)

// GradeMode says how a challenge's expected output is checked.
type GradeMode string

const (
	// ModeExact is the default: the whole listing must match.
	ModeExact GradeMode = "exact"
	// ModeSample listings show the first rows and the full count.
	ModeSample GradeMode = "sample"
	// ModeColumns fixes the column names of date-dependent results.
	ModeColumns GradeMode = "columns"
	// ModeTag expects a command tag such as "UPDATE 5".
	ModeTag GradeMode = "tag"
	// ModeError expects the statement to fail with the documented error.
	ModeError GradeMode = "error"
	// ModeSkip marks solutions that cannot run inside a transaction.
	ModeSkip GradeMode = "skip"
)

// Valid reports whether m is a known grade mode.
func (m GradeMode) Valid() bool {
	switch m {
	case ModeExact, ModeSample, ModeColumns, ModeTag, ModeError, ModeSkip:
		return true
	}
	return false
}

// ResultMode maps the table-producing modes onto a comparison mode.
func (m GradeMode) ResultMode() resultset.Mode {
	switch m {
	case ModeSample:
		return resultset.ModeSample
	case ModeColumns:
		return resultset.ModeColumns
	}
	return resultset.ModeExact
}

// Challenge is one entry of a part document.
type Challenge struct {
	ID         string     `json:"id"`
	Part       int        `json:"part"`
	Number     int        `json:"number"`
	Title      string     `json:"title"`
	Difficulty Difficulty `json:"difficulty"`
	Problem    string     `json:"problem"`
	// ExpectedOutput is the fenced block as written, without the fences.
	ExpectedOutput string    `json:"expected_output"`
	Mode           GradeMode `json:"grade_mode"`
	Solution       string    `json:"solution"`
	Explanation    string    `json:"explanation"`
	// Line is where the challenge heading sits in its file.
	Line int `json:"-"`
}

// Expected parses the documented output.
func (c *Challenge) Expected() (*resultset.Expected, error) {
	exp, err := resultset.Parse(c.ExpectedOutput)
	if err != nil {
		return nil, fmt.Errorf("%w: challenge %s: %v", apperrors.ErrExpectedOutput, c.ID, err)
	}
	return exp, nil
}

// Statements splits the reference solution.
func (c *Challenge) Statements() []sqlscript.Statement {
	return sqlscript.Split(c.Solution)
}

// ReadOnly reports whether every statement of the solution only reads.
func (c *Challenge) ReadOnly() bool {
	stmts := c.Statements()
	if len(stmts) == 0 {
		return false
	}
	for _, st := range stmts {
		if !st.ReadOnly() {
			return false
		}
	}
	return true
}

// ChallengeID formats a challenge ID.
func ChallengeID(part, number int) string {
	return fmt.Sprintf("%d.%d", part, number)
}

// ParseID splits "<part>.<number>".
func ParseID(id string) (part, number int, err error) {
	id = strings.TrimSpace(id)
	if !validation.IsChallengeID(id) {
		return 0, 0, fmt.Errorf("%w: %q", apperrors.ErrInvalidChallengeID, id)
	}
	p, n, _ := strings.Cut(id, ".")
	part, _ = strconv.Atoi(p)
	number, _ = strconv.Atoi(n)
	return part, number, nil
}
