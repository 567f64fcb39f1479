package resultset

import (
	"bytes"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGoldie(t *testing.T) *goldie.Goldie {
	return goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
}

func employeesResult() *ResultSet {
	return &ResultSet{
		Columns: []Column{{Name: "first_name"}, {Name: "last_name"}, {Name: "salary", Numeric: true}},
		Rows: [][]Cell{
			NewRow("Sarah", "Chen", "185000.00"),
			NewRow("Li", "Wei", "72000.00"),
			{{Value: "José"}, {Value: "Núñez"}, {Null: true}},
		},
		Tag: "SELECT 3",
	}
}

func TestRender_Golden(t *testing.T) {
	g := newGoldie(t)

	cases := map[string]*ResultSet{
		"employees": employeesResult(),
		"single_row": {
			Columns: []Column{{Name: "total_employees", Numeric: true}},
			Rows:    [][]Cell{NewRow("37")},
		},
		"wide_runes": {
			Columns: []Column{{Name: "city"}, {Name: "n", Numeric: true}},
			Rows:    [][]Cell{NewRow("東京", "1"), NewRow("Paris", "22")},
		},
		"command_tag": {Tag: "UPDATE 5"},
	}

	for name, rs := range cases {
		t.Run(name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, Render(&buf, rs))
			g.Assert(t, name, buf.Bytes())
		})
	}
}

func TestRenderSample_Golden(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderSample(&buf, employeesResult(), 1))

	newGoldie(t).Assert(t, "employees_sample", buf.Bytes())
}

func TestRender_ParseRoundTrip(t *testing.T) {
	rs := &ResultSet{
		Columns: []Column{{Name: "city"}, {Name: "n", Numeric: true}},
		Rows:    [][]Cell{NewRow("東京", "1"), NewRow("Paris", "22")},
	}

	exp, err := Parse(rs.String())
	require.NoError(t, err)

	assert.Equal(t, []string{"city", "n"}, exp.Columns)
	assert.Equal(t, [][]string{{"東京", "1"}, {"Paris", "22"}}, exp.Rows)
	assert.Equal(t, 2, exp.RowCount)
	assert.True(t, Compare(exp, rs, Options{Mode: ModeExact, Ordered: true}).Empty())
}

func TestDisplayWidth(t *testing.T) {
	assert.Equal(t, 5, DisplayWidth("Paris"))
	assert.Equal(t, 4, DisplayWidth("東京"))
	assert.Equal(t, 4, DisplayWidth("José"))
	assert.Equal(t, 0, DisplayWidth(""))
}

func TestFooter(t *testing.T) {
	assert.Equal(t, "(0 rows)", Footer(0))
	assert.Equal(t, "(1 row)", Footer(1))
	assert.Equal(t, "(37 rows)", Footer(37))
}
