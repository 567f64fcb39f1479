package resultset

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	// ErrEmptyBlock is returned for an expected output block with no content.
	ErrEmptyBlock = errors.New("empty expected output")

	separatorPattern = regexp.MustCompile(`^-+(\+-+)*$`)
	footerPattern    = regexp.MustCompile(`^\((\d+) rows?\)$`)
)

// ExpectedError is a documented error outcome.
type ExpectedError struct {
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

// Expected is a documented outcome parsed from psql output: a table, a
// command tag or an error.
type Expected struct {
	Columns []string
	Rows    [][]string
	// Truncated is set when the listing ends with a "..." line.
	Truncated bool
	// RowCount is the footer count, or -1 when the block has no footer.
	RowCount int
	Tag      string
	Error    *ExpectedError
}

// IsTable reports whether the block documents a result table.
func (e *Expected) IsTable() bool {
	return len(e.Columns) > 0
}

// Parse reads psql output. A block starting with "ERROR:" is an error
// outcome, a block without a separator line under its first line is a
// command tag, anything else is a table.
func Parse(text string) (*Expected, error) {
	lines := trimLines(text)
	if len(lines) == 0 {
		return nil, ErrEmptyBlock
	}

	if strings.HasPrefix(lines[0], "ERROR:") {
		return parseError(lines)
	}

	if len(lines) < 2 || !separatorPattern.MatchString(strings.TrimSpace(lines[1])) {
		if len(lines) > 1 {
			return nil, fmt.Errorf("command tag block has %d lines, want 1", len(lines))
		}
		return &Expected{Tag: strings.TrimSpace(lines[0]), RowCount: -1}, nil
	}

	// Boundaries are taken from the untrimmed separator so a margin shared
	// by every line keeps the columns aligned.
	bounds := boundaries(lines[1])
	exp := &Expected{
		Columns:  splitCells(lines[0], bounds),
		RowCount: -1,
	}

	for i, line := range lines[2:] {
		trimmed := strings.TrimSpace(line)
		switch {
		case trimmed == "...":
			exp.Truncated = true
		case footerPattern.MatchString(trimmed):
			if i != len(lines)-3 {
				return nil, fmt.Errorf("row count footer %q is not the last line", trimmed)
			}
			n, _ := strconv.Atoi(footerPattern.FindStringSubmatch(trimmed)[1])
			exp.RowCount = n
		default:
			if exp.Truncated {
				return nil, fmt.Errorf("row %q follows the ellipsis", trimmed)
			}
			exp.Rows = append(exp.Rows, splitCells(line, bounds))
		}
	}

	if exp.RowCount >= 0 && !exp.Truncated && exp.RowCount != len(exp.Rows) {
		return nil, fmt.Errorf("footer says %d rows but %d are listed", exp.RowCount, len(exp.Rows))
	}
	return exp, nil
}

func parseError(lines []string) (*Expected, error) {
	exp := &Expected{RowCount: -1, Error: &ExpectedError{
		Message: strings.TrimSpace(strings.TrimPrefix(lines[0], "ERROR:")),
	}}
	for _, line := range lines[1:] {
		switch {
		case strings.HasPrefix(line, "DETAIL:"):
			exp.Error.Detail = strings.TrimSpace(strings.TrimPrefix(line, "DETAIL:"))
		case strings.HasPrefix(line, "HINT:"), strings.HasPrefix(line, "CONTEXT:"):
		default:
			return nil, fmt.Errorf("unexpected line in error block: %q", line)
		}
	}
	return exp, nil
}

func trimLines(text string) []string {
	raw := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	lines := make([]string, 0, len(raw))
	for _, line := range raw {
		lines = append(lines, strings.TrimRight(line, " \t"))
	}
	for len(lines) > 0 && lines[0] == "" {
		lines = lines[1:]
	}
	for len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// boundaries returns the display columns of the '+' joints of a separator
// line; cell separators in the other lines sit at the same columns.
func boundaries(sep string) []int {
	var out []int
	for i, c := range sep {
		if c == '+' {
			out = append(out, i)
		}
	}
	return out
}

// splitCells cuts a line at the '|' characters found on the column
// boundaries, walking display width so wide runes keep the columns aligned.
func splitCells(line string, bounds []int) []string {
	cells := make([]string, 0, len(bounds)+1)
	var cur strings.Builder
	col, next := 0, 0
	for _, r := range line {
		if next < len(bounds) && col == bounds[next] && r == '|' {
			cells = append(cells, strings.TrimSpace(cur.String()))
			cur.Reset()
			next++
			col++
			continue
		}
		cur.WriteRune(r)
		col += DisplayWidth(string(r))
	}
	cells = append(cells, strings.TrimSpace(cur.String()))
	for len(cells) < len(bounds)+1 {
		cells = append(cells, "")
	}
	return cells
}
