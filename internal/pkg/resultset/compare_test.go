package resultset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func salaries(rows ...[]string) *ResultSet {
	rs := &ResultSet{Columns: []Column{{Name: "name"}, {Name: "salary", Numeric: true}}}
	for _, r := range rows {
		rs.Rows = append(rs.Rows, NewRow(r...))
	}
	return rs
}

func mustParse(t *testing.T, text string) *Expected {
	t.Helper()
	exp, err := Parse(text)
	require.NoError(t, err)
	return exp
}

const salaryListing = `
 name  |  salary
-------+----------
 Sarah | 85000.00
 Li    | 72000.00
(2 rows)`

func TestCompare_NumericByValue(t *testing.T) {
	exp := mustParse(t, salaryListing)
	act := salaries([]string{"Sarah", "85000"}, []string{"Li", "72000.0"})

	diff := Compare(exp, act, Options{Mode: ModeExact})
	assert.True(t, diff.Empty(), diff.Summary())
}

func TestCompare_UnorderedIgnoresRowOrder(t *testing.T) {
	exp := mustParse(t, salaryListing)
	act := salaries([]string{"Li", "72000.00"}, []string{"Sarah", "85000.00"})

	assert.True(t, Compare(exp, act, Options{Mode: ModeExact}).Empty())

	diff := Compare(exp, act, Options{Mode: ModeExact, Ordered: true})
	assert.Len(t, diff.Missing, 2)
	assert.Len(t, diff.Unexpected, 2)
	assert.Equal(t, "row 1: Sarah | 85000.00", diff.Missing[0])
}

func TestCompare_MissingAndUnexpected(t *testing.T) {
	exp := mustParse(t, salaryListing)
	act := salaries([]string{"Sarah", "85000.00"}, []string{"Ana", "72000.00"})

	diff := Compare(exp, act, Options{Mode: ModeExact})
	assert.Equal(t, []string{"Li | 72000.00"}, diff.Missing)
	assert.Equal(t, []string{"Ana | 72000.00"}, diff.Unexpected)
	assert.Empty(t, diff.RowCount)
	assert.Equal(t, "1 missing row, 1 unexpected row", diff.Summary())
}

func TestCompare_Sample(t *testing.T) {
	exp := mustParse(t, `
 name  |  salary
-------+----------
 Sarah | 85000.00
...
(3 rows)`)

	act := salaries([]string{"Sarah", "85000.00"}, []string{"Li", "72000.00"}, []string{"Ana", "1.00"})
	assert.True(t, Compare(exp, act, Options{Mode: ModeSample, Ordered: true}).Empty())
	assert.True(t, Compare(exp, act, Options{Mode: ModeSample}).Empty())

	short := salaries([]string{"Sarah", "85000.00"})
	diff := Compare(exp, short, Options{Mode: ModeSample, Ordered: true})
	assert.Equal(t, "expected (3 rows), got 1", diff.RowCount)

	reordered := salaries([]string{"Li", "72000.00"}, []string{"Sarah", "85000.00"}, []string{"Ana", "1.00"})
	assert.False(t, Compare(exp, reordered, Options{Mode: ModeSample, Ordered: true}).Empty())
	assert.True(t, Compare(exp, reordered, Options{Mode: ModeSample}).Empty())
}

func TestCompare_Columns(t *testing.T) {
	exp := mustParse(t, " name | salary\n------+--------\n...")

	act := salaries([]string{"anything", "1"})
	assert.True(t, Compare(exp, act, Options{Mode: ModeColumns}).Empty())

	renamed := &ResultSet{Columns: []Column{{Name: "full_name"}, {Name: "salary"}}}
	diff := Compare(exp, renamed, Options{Mode: ModeColumns})
	assert.Equal(t, []string{`column 1: expected "name", got "full_name"`}, diff.Columns)

	assert.True(t, Compare(exp, renamed, Options{Mode: ModeColumns, IgnoreColumnNames: true}).Empty())
}

func TestCompare_NullMatchesEmptyCell(t *testing.T) {
	exp := mustParse(t, " name | manager_id\n------+------------\n Ana  |\n(1 row)")
	act := &ResultSet{
		Columns: []Column{{Name: "name"}, {Name: "manager_id", Numeric: true}},
		Rows:    [][]Cell{{{Value: "Ana"}, {Null: true}}},
	}

	assert.True(t, Compare(exp, act, Options{Mode: ModeExact}).Empty())
}

func TestCompare_TagInsteadOfRows(t *testing.T) {
	exp := mustParse(t, salaryListing)

	diff := Compare(exp, &ResultSet{Tag: "UPDATE 2"}, Options{Mode: ModeExact})
	assert.False(t, diff.Empty())
	assert.Contains(t, diff.Columns[0], "UPDATE 2")
}

func TestCompare_NormalizesUnicode(t *testing.T) {
	exp := mustParse(t, " name\n------\n José\n(1 row)")
	// e followed by a combining acute accent
	act := &ResultSet{Columns: []Column{{Name: "name"}}, Rows: [][]Cell{NewRow("Jose\u0301")}}

	assert.True(t, Compare(exp, act, Options{Mode: ModeExact}).Empty())
}

func TestCompareResults(t *testing.T) {
	want := salaries([]string{"Sarah", "85000.00"}, []string{"Li", "72000.00"})

	t.Run("same rows other order", func(t *testing.T) {
		got := salaries([]string{"Li", "72000"}, []string{"Sarah", "85000"})
		assert.True(t, CompareResults(want, got, Options{}).Empty())
		assert.False(t, CompareResults(want, got, Options{Ordered: true}).Empty())
	})

	t.Run("null is not empty string", func(t *testing.T) {
		a := &ResultSet{Columns: []Column{{Name: "x"}}, Rows: [][]Cell{{{Null: true}}}}
		b := &ResultSet{Columns: []Column{{Name: "x"}}, Rows: [][]Cell{{{Value: ""}}}}
		assert.False(t, CompareResults(a, b, Options{}).Empty())
	})

	t.Run("renamed columns", func(t *testing.T) {
		got := &ResultSet{Columns: []Column{{Name: "employee"}, {Name: "pay", Numeric: true}}, Rows: want.Rows}
		assert.True(t, CompareResults(want, got, Options{IgnoreColumnNames: true}).Empty())
		assert.True(t, ColumnsRenamed(want, got))
		assert.Len(t, CompareResults(want, got, Options{}).Columns, 2)
	})

	t.Run("command tags", func(t *testing.T) {
		assert.True(t, CompareResults(&ResultSet{Tag: "UPDATE 5"}, &ResultSet{Tag: "UPDATE 5"}, Options{}).Empty())
		diff := CompareResults(&ResultSet{Tag: "UPDATE 5"}, &ResultSet{Tag: "UPDATE 4"}, Options{})
		assert.Equal(t, `expected "UPDATE 5", got "UPDATE 4"`, diff.RowCount)
	})

	t.Run("rows versus tag", func(t *testing.T) {
		diff := CompareResults(want, &ResultSet{Tag: "DELETE 1"}, Options{})
		assert.Equal(t, []string{`expected 2 columns, got command tag "DELETE 1"`}, diff.Columns)
	})
}
