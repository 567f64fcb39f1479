// Package resultset holds query results in psql text form and renders,
// parses and compares them the way psql's aligned output shows them.
package resultset

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"
)

// Column describes one result column.
type Column struct {
	Name string `json:"name"`
	// Numeric columns are right-aligned and compared by value.
	Numeric bool `json:"numeric"`
}

// Cell is a value in psql text form. Null distinguishes SQL NULL from the empty string.
type Cell struct {
	Value string `json:"value"`
	Null  bool   `json:"null,omitempty"`
}

// Text returns the value as psql prints it; NULL prints as an empty string.
func (c Cell) Text() string {
	if c.Null {
		return ""
	}
	return c.Value
}

// ResultSet is the outcome of one statement. A statement that returns no
// rows description has no columns and only a command tag.
type ResultSet struct {
	Columns []Column `json:"columns"`
	Rows    [][]Cell `json:"rows"`
	Tag     string   `json:"tag"`
}

// HasRows reports whether the result came from a row-returning statement.
func (rs *ResultSet) HasRows() bool {
	return len(rs.Columns) > 0
}

// RowCount returns the number of rows.
func (rs *ResultSet) RowCount() int {
	return len(rs.Rows)
}

// ColumnNames returns the column names in order.
func (rs *ResultSet) ColumnNames() []string {
	names := make([]string, len(rs.Columns))
	for i, c := range rs.Columns {
		names[i] = c.Name
	}
	return names
}

// NewRow builds a row of non-NULL cells; handy for literals.
func NewRow(values ...string) []Cell {
	row := make([]Cell, len(values))
	for i, v := range values {
		row[i] = Cell{Value: v}
	}
	return row
}

// DisplayWidth returns the number of terminal columns s occupies. Wide and
// fullwidth East Asian runes take two columns, combining marks none.
func DisplayWidth(s string) int {
	n := 0
	for _, r := range s {
		switch {
		case unicode.Is(unicode.Mn, r):
		case isWide(r):
			n += 2
		default:
			n++
		}
	}
	return n
}

func isWide(r rune) bool {
	switch width.LookupRune(r).Kind() {
	case width.EastAsianWide, width.EastAsianFullwidth:
		return true
	}
	return false
}

// normalize prepares a text cell for comparison.
func normalize(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}
