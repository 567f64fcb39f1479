package resultset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Table(t *testing.T) {
	exp, err := Parse(`
 first_name | last_name |  salary
------------+-----------+-----------
 Sarah      | Chen      | 185000.00
 José       | Núñez     |
(2 rows)
`)
	require.NoError(t, err)

	assert.True(t, exp.IsTable())
	assert.Equal(t, []string{"first_name", "last_name", "salary"}, exp.Columns)
	assert.Equal(t, [][]string{{"Sarah", "Chen", "185000.00"}, {"José", "Núñez", ""}}, exp.Rows)
	assert.Equal(t, 2, exp.RowCount)
	assert.False(t, exp.Truncated)
}

func TestParse_IndentedTable(t *testing.T) {
	exp, err := Parse(`
     name  | city
    -------+--------
     Ana   | Lisbon
     Bo    |
    (2 rows)
`)
	require.NoError(t, err)

	assert.Equal(t, []string{"name", "city"}, exp.Columns)
	assert.Equal(t, [][]string{{"Ana", "Lisbon"}, {"Bo", ""}}, exp.Rows)
	assert.Equal(t, 2, exp.RowCount)
}

func TestParse_Sample(t *testing.T) {
	exp, err := Parse(` id | name
----+------
  1 | a
...
(12 rows)`)
	require.NoError(t, err)

	assert.True(t, exp.Truncated)
	assert.Equal(t, 12, exp.RowCount)
	assert.Len(t, exp.Rows, 1)
}

func TestParse_ColumnsOnly(t *testing.T) {
	exp, err := Parse(" employee_id | years\n-------------+-------\n...")
	require.NoError(t, err)

	assert.Equal(t, []string{"employee_id", "years"}, exp.Columns)
	assert.Empty(t, exp.Rows)
	assert.True(t, exp.Truncated)
	assert.Equal(t, -1, exp.RowCount)
}

func TestParse_CommandTag(t *testing.T) {
	exp, err := Parse("UPDATE 5\n")
	require.NoError(t, err)

	assert.False(t, exp.IsTable())
	assert.Equal(t, "UPDATE 5", exp.Tag)
	assert.Nil(t, exp.Error)
}

func TestParse_Error(t *testing.T) {
	exp, err := Parse(`ERROR:  new row for relation "accounts" violates check constraint "accounts_balance_check"
DETAIL:  Failing row contains (6, Dan Okafor, checking, -680.00, 2022-11-30).`)
	require.NoError(t, err)

	require.NotNil(t, exp.Error)
	assert.Equal(t, `new row for relation "accounts" violates check constraint "accounts_balance_check"`, exp.Error.Message)
	assert.Equal(t, "Failing row contains (6, Dan Okafor, checking, -680.00, 2022-11-30).", exp.Error.Detail)
}

func TestParse_Invalid(t *testing.T) {
	cases := map[string]string{
		"empty":           "   \n\n",
		"footer mismatch": " a\n---\n 1\n(2 rows)",
		"row after dots":  " a\n---\n 1\n...\n 2",
		"footer not last": " a\n---\n(1 row)\n 1",
		"multi-line tag":  "UPDATE 1\nUPDATE 2",
	}
	for name, text := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse(text)
			assert.Error(t, err)
		})
	}

	_, err := Parse("")
	assert.ErrorIs(t, err, ErrEmptyBlock)
}
