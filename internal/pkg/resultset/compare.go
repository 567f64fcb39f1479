package resultset

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/apd/v3"
)

// Mode selects how much of an expected listing must match.
type Mode string

const (
	// ModeExact requires every row.
	ModeExact Mode = "exact"
	// ModeSample requires the listed rows and the footer count.
	ModeSample Mode = "sample"
	// ModeColumns checks column names only.
	ModeColumns Mode = "columns"
)

// Options controls a comparison.
type Options struct {
	Mode Mode
	// Ordered compares rows position by position.
	Ordered bool
	// IgnoreColumnNames checks the column count but not the names.
	IgnoreColumnNames bool
}

// Diff lists every difference found by a comparison.
type Diff struct {
	Columns    []string `json:"columns,omitempty"`
	Missing    []string `json:"missing,omitempty"`
	Unexpected []string `json:"unexpected,omitempty"`
	RowCount   string   `json:"row_count,omitempty"`
}

// Empty reports whether nothing differed.
func (d *Diff) Empty() bool {
	return len(d.Columns) == 0 && len(d.Missing) == 0 && len(d.Unexpected) == 0 && d.RowCount == ""
}

// Summary is a one-line description of the diff.
func (d *Diff) Summary() string {
	if d.Empty() {
		return "results match"
	}
	var parts []string
	if len(d.Columns) > 0 {
		parts = append(parts, strings.Join(d.Columns, "; "))
	}
	if n := len(d.Missing); n > 0 {
		parts = append(parts, plural(n, "missing row"))
	}
	if n := len(d.Unexpected); n > 0 {
		parts = append(parts, plural(n, "unexpected row"))
	}
	if d.RowCount != "" {
		parts = append(parts, d.RowCount)
	}
	return strings.Join(parts, ", ")
}

func plural(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return fmt.Sprintf("%d %ss", n, noun)
}

// Compare checks an actual result against a documented listing. Documented
// cells carry no NULL marker, so an empty cell matches NULL or the empty string.
func Compare(exp *Expected, act *ResultSet, opts Options) *Diff {
	diff := &Diff{}
	if !act.HasRows() {
		diff.Columns = append(diff.Columns, fmt.Sprintf("statement returned %q instead of rows", act.Tag))
		return diff
	}

	compareColumns(diff, exp.Columns, act.ColumnNames(), opts.IgnoreColumnNames)
	if len(diff.Columns) > 0 || opts.Mode == ModeColumns {
		return diff
	}

	expRows := make([][]Cell, len(exp.Rows))
	for i, row := range exp.Rows {
		expRows[i] = NewRow(row...)
	}
	numeric := numericFlags(act.Columns)

	switch {
	case opts.Mode == ModeSample && opts.Ordered:
		prefix := act.Rows
		if len(prefix) > len(expRows) {
			prefix = prefix[:len(expRows)]
		}
		compareOrdered(diff, expRows, prefix, numeric, true)
	case opts.Mode == ModeSample:
		compareUnordered(diff, expRows, act.Rows, numeric, true, false)
	case opts.Ordered:
		compareOrdered(diff, expRows, act.Rows, numeric, true)
	default:
		compareUnordered(diff, expRows, act.Rows, numeric, true, true)
	}

	if exp.RowCount >= 0 && exp.RowCount != act.RowCount() {
		diff.RowCount = fmt.Sprintf("expected %s, got %d", Footer(exp.RowCount), act.RowCount())
	}
	return diff
}

// CompareResults checks two actual results against each other. NULL only
// matches NULL.
func CompareResults(want, got *ResultSet, opts Options) *Diff {
	diff := &Diff{}
	if want.HasRows() != got.HasRows() {
		diff.Columns = append(diff.Columns, fmt.Sprintf("expected %s, got %s", describe(want), describe(got)))
		return diff
	}
	if !want.HasRows() {
		if want.Tag != got.Tag {
			diff.RowCount = fmt.Sprintf("expected %q, got %q", want.Tag, got.Tag)
		}
		return diff
	}

	compareColumns(diff, want.ColumnNames(), got.ColumnNames(), opts.IgnoreColumnNames)
	if len(want.Columns) != len(got.Columns) || opts.Mode == ModeColumns {
		return diff
	}

	numeric := numericFlags(want.Columns)
	if opts.Ordered {
		compareOrdered(diff, want.Rows, got.Rows, numeric, false)
	} else {
		compareUnordered(diff, want.Rows, got.Rows, numeric, false, true)
	}
	if want.RowCount() != got.RowCount() {
		diff.RowCount = fmt.Sprintf("expected %s, got %d", Footer(want.RowCount()), got.RowCount())
	}
	return diff
}

// ColumnsRenamed reports whether two results only differ in column names.
func ColumnsRenamed(want, got *ResultSet) bool {
	if len(want.Columns) != len(got.Columns) {
		return false
	}
	for i := range want.Columns {
		if want.Columns[i].Name != got.Columns[i].Name {
			return true
		}
	}
	return false
}

func describe(rs *ResultSet) string {
	if rs.HasRows() {
		return fmt.Sprintf("%d columns", len(rs.Columns))
	}
	return fmt.Sprintf("command tag %q", rs.Tag)
}

func compareColumns(diff *Diff, want, got []string, ignoreNames bool) {
	if len(want) != len(got) {
		diff.Columns = append(diff.Columns, fmt.Sprintf("expected %d columns (%s), got %d (%s)",
			len(want), strings.Join(want, ", "), len(got), strings.Join(got, ", ")))
		return
	}
	if ignoreNames {
		return
	}
	for i := range want {
		if normalize(want[i]) != normalize(got[i]) {
			diff.Columns = append(diff.Columns, fmt.Sprintf("column %d: expected %q, got %q", i+1, want[i], got[i]))
		}
	}
}

func numericFlags(cols []Column) []bool {
	flags := make([]bool, len(cols))
	for i, c := range cols {
		flags[i] = c.Numeric
	}
	return flags
}

func compareOrdered(diff *Diff, want, got [][]Cell, numeric []bool, lenientNull bool) {
	for i := 0; i < max(len(want), len(got)); i++ {
		switch {
		case i >= len(got):
			diff.Missing = append(diff.Missing, rowString(want[i]))
		case i >= len(want):
			diff.Unexpected = append(diff.Unexpected, rowString(got[i]))
		case rowKey(want[i], numeric, lenientNull) != rowKey(got[i], numeric, lenientNull):
			diff.Missing = append(diff.Missing, fmt.Sprintf("row %d: %s", i+1, rowString(want[i])))
			diff.Unexpected = append(diff.Unexpected, fmt.Sprintf("row %d: %s", i+1, rowString(got[i])))
		}
	}
}

// compareUnordered matches rows as multisets. With reportExtra unset, rows
// of got that no wanted row claims are ignored.
func compareUnordered(diff *Diff, want, got [][]Cell, numeric []bool, lenientNull, reportExtra bool) {
	remaining := make(map[string]int, len(got))
	for _, row := range got {
		remaining[rowKey(row, numeric, lenientNull)]++
	}
	for _, row := range want {
		key := rowKey(row, numeric, lenientNull)
		if remaining[key] > 0 {
			remaining[key]--
			continue
		}
		diff.Missing = append(diff.Missing, rowString(row))
	}
	if !reportExtra {
		return
	}
	for _, row := range got {
		key := rowKey(row, numeric, lenientNull)
		if remaining[key] > 0 {
			remaining[key]--
			diff.Unexpected = append(diff.Unexpected, rowString(row))
		}
	}
}

const nullKey = "\x00NULL"

// rowKey canonicalises a row: text is NFC-normalised and numeric cells are
// reduced so 85000 and 85000.00 produce the same key.
func rowKey(row []Cell, numeric []bool, lenientNull bool) string {
	parts := make([]string, len(row))
	for i, cell := range row {
		switch {
		case cell.Null && lenientNull:
			parts[i] = ""
		case cell.Null:
			parts[i] = nullKey
		case i < len(numeric) && numeric[i]:
			parts[i] = canonicalNumber(cell.Value)
		default:
			parts[i] = normalize(cell.Value)
		}
	}
	return strings.Join(parts, "\x1f")
}

func canonicalNumber(s string) string {
	s = strings.TrimSpace(s)
	d, _, err := apd.NewFromString(s)
	if err != nil || d.Form != apd.Finite {
		return s
	}
	var reduced apd.Decimal
	reduced.Reduce(d)
	if reduced.IsZero() {
		return "0"
	}
	return reduced.Text('f')
}

func rowString(row []Cell) string {
	parts := make([]string, len(row))
	for i, cell := range row {
		if cell.Null {
			parts[i] = "NULL"
			continue
		}
		parts[i] = cell.Value
	}
	return strings.Join(parts, " | ")
}
