package curriculum

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yigit/sqlguide/content"
	"github.com/yigit/sqlguide/internal/pkg/apperrors"
)

func loadGuide(t *testing.T) *Catalog {
	t.Helper()
	cat, err := Load(content.Guide())
	require.NoError(t, err)
	return cat
}

func TestLoad_Guide(t *testing.T) {
	cat := loadGuide(t)

	assert.Equal(t, ExpectedTotal, cat.Count())
	require.Len(t, cat.Parts(), 6)

	sizes := []int{15, 14, 13, 12, 13, 12}
	for i, part := range cat.Parts() {
		assert.Equal(t, i+1, part.Number)
		assert.Len(t, part.Challenges, sizes[i], "part %d", part.Number)
		assert.NotEmpty(t, part.Intro)
	}

	assert.Equal(t, 79, cat.Index().Total)
	assert.Equal(t, "Joins and Grouping", cat.Parts()[1].Title)
}

func TestLoad_GuideLintsClean(t *testing.T) {
	cat := loadGuide(t)

	for _, p := range cat.Lint() {
		t.Error(p.String())
	}
}

func TestCatalog_CountEmployees(t *testing.T) {
	ch, err := loadGuide(t).Challenge("1.9")
	require.NoError(t, err)

	assert.Equal(t, "SELECT COUNT(*) AS total_employees FROM employees;", ch.Solution)
	assert.Equal(t, ModeExact, ch.Mode)
	assert.Equal(t, Easy, ch.Difficulty)

	exp, err := ch.Expected()
	require.NoError(t, err)
	assert.Equal(t, []string{"total_employees"}, exp.Columns)
	assert.Equal(t, [][]string{{"37"}}, exp.Rows)
	assert.Equal(t, 1, exp.RowCount)
	assert.True(t, ch.ReadOnly())
}

func TestCatalog_GradeModes(t *testing.T) {
	cat := loadGuide(t)

	cases := map[string]GradeMode{
		"4.1":  ModeColumns,
		"5.3":  ModeTag,
		"5.8":  ModeError,
		"5.10": ModeTag,
		"6.11": ModeSkip,
	}
	for id, mode := range cases {
		ch, err := cat.Challenge(id)
		require.NoError(t, err, id)
		assert.Equal(t, mode, ch.Mode, id)
	}

	overdraft, err := cat.Challenge("5.8")
	require.NoError(t, err)
	exp, err := overdraft.Expected()
	require.NoError(t, err)
	require.NotNil(t, exp.Error)
	assert.Equal(t, `new row for relation "accounts" violates check constraint "accounts_balance_check"`, exp.Error.Message)
	assert.False(t, overdraft.ReadOnly())

	update, err := cat.Challenge("5.3")
	require.NoError(t, err)
	exp, err = update.Expected()
	require.NoError(t, err)
	assert.Equal(t, "UPDATE 5", exp.Tag)
}

func TestCatalog_Lookups(t *testing.T) {
	cat := loadGuide(t)

	_, err := cat.Challenge("7.1")
	assert.ErrorIs(t, err, apperrors.ErrChallengeNotFound)

	_, err = cat.Challenge("one.two")
	assert.ErrorIs(t, err, apperrors.ErrInvalidChallengeID)

	_, err = cat.Part(9)
	assert.ErrorIs(t, err, apperrors.ErrPartNotFound)

	part, err := cat.Part(4)
	require.NoError(t, err)
	assert.Equal(t, "Window Functions", part.Title)
}

func TestCatalog_Challenges(t *testing.T) {
	cat := loadGuide(t)

	assert.Len(t, cat.Challenges(Filter{}), ExpectedTotal)
	assert.Len(t, cat.Challenges(Filter{Part: 2}), 14)
	assert.Len(t, cat.Challenges(Filter{Mode: ModeSample}), 11)

	for _, ch := range cat.Challenges(Filter{Part: 1, Difficulty: "easy"}) {
		assert.Equal(t, Easy, ch.Difficulty)
		assert.Equal(t, 1, ch.Part)
	}

	found := cat.Challenges(Filter{Query: "count employees"})
	require.NotEmpty(t, found)
	assert.Equal(t, "1.9", found[0].ID)

	assert.Equal(t, []*Challenge{found[0]}, cat.Challenges(Filter{Query: "1.9"}))
}

func TestParseID(t *testing.T) {
	part, number, err := ParseID(" 6.12 ")
	require.NoError(t, err)
	assert.Equal(t, 6, part)
	assert.Equal(t, 12, number)

	_, _, err = ParseID("6")
	assert.ErrorIs(t, err, apperrors.ErrInvalidChallengeID)
}

const tinyIndex = `# Guide

| Part | Title | Challenges | File |
|------|-------|------------|------|
| 1 | Basics | 2 | [p1.md](p1.md) |

**Total: 2 challenges**
`

const tinyPart = "# Part 1: Basics\n\nIntro text.\n\n---\n\n" +
	"## Challenge 1: One\n\n**Difficulty:** Easy\n\n**Problem:** Return one.\n\n**Expected Output:**\n\n" +
	"```text\n ?column?\n----------\n        1\n(1 row)\n```\n\n**Solution:**\n\n```sql\nSELECT 1;\n```\n\n" +
	"**Explanation:** Trivial.\n\n---\n\n" +
	"## Challenge 3: Vacuum\n\n**Difficulty:** Extreme\n\n**Problem:** Clean up.\n\n**Expected Output:**\n\n" +
	"<!-- grade: tag -->\n```text\nVACUUM\n```\n\n**Solution:**\n\n```sql\nVACUUM employees;\n```\n"

func TestLint_ReportsProblems(t *testing.T) {
	cat, err := Load(fstest.MapFS{
		IndexFile: {Data: []byte(tinyIndex)},
		"p1.md":   {Data: []byte(tinyPart)},
	})
	require.NoError(t, err)

	var messages []string
	for _, p := range cat.Lint() {
		messages = append(messages, p.Message)
	}

	assert.Contains(t, messages, "stated total is 2, want 79")
	assert.Contains(t, messages, "parsed 2 challenges, want 79")
	assert.Contains(t, messages, "numbered 3, expected 2")
	assert.Contains(t, messages, `unknown difficulty "Extreme"`)
	assert.Contains(t, messages, "missing explanation")
	assert.Contains(t, messages, "solution cannot run in a transaction; mark it <!-- grade: skip -->")
}

func TestParse_Errors(t *testing.T) {
	_, err := Parse("x.md", []byte("## Challenge 1: No part\n"))
	assert.ErrorIs(t, err, apperrors.ErrMalformedCurriculum)

	_, err = Parse("x.md", []byte("# Part 1: Open\n\n```sql\nSELECT 1;\n"))
	assert.ErrorIs(t, err, apperrors.ErrMalformedCurriculum)

	_, err = ParseIndex([]byte("# nothing"))
	assert.ErrorIs(t, err, apperrors.ErrMalformedCurriculum)
}
