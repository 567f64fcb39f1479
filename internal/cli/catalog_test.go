package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestList(t *testing.T) {
	out, _, err := execute(t, "list")

	require.NoError(t, err)
	assert.Contains(t, out, "DIFFICULTY")
	assert.Contains(t, out, "List All Employees")
	assert.Contains(t, out, "79 of 79 challenges")
}

func TestList_JSONFilteredByPart(t *testing.T) {
	out, _, err := execute(t, "list", "--part", "1", "--format", "json")
	require.NoError(t, err)

	resp := decodeResponse(t, out)
	assert.Equal(t, "ok", resp.Status)
	items, ok := resp.Data.([]interface{})
	require.True(t, ok)
	require.Len(t, items, 15)

	first := items[0].(map[string]interface{})
	assert.Equal(t, "1.1", first["id"])
	assert.Equal(t, "List All Employees", first["title"])
	assert.Equal(t, "sample", first["grade_mode"])
}

func TestList_NoMatches(t *testing.T) {
	out, _, err := execute(t, "list", "--query", "no challenge mentions this phrase")

	require.NoError(t, err)
	assert.Equal(t, "No challenges match.\n", out)
}

func TestList_RejectsBadFilters(t *testing.T) {
	tests := []struct {
		name string
		args []string
		code string
	}{
		{"unknown part", []string{"list", "--part", "9"}, "CUR_003"},
		{"unknown mode", []string{"list", "--mode", "fuzzy"}, "VAL_002"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, _, err := execute(t, append(tt.args, "--format", "json")...)

			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))
			resp := decodeResponse(t, out)
			assert.Equal(t, "error", resp.Status)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.code, resp.Error.Code)
		})
	}
}

func TestShow(t *testing.T) {
	out, _, err := execute(t, "show", "1.1")

	require.NoError(t, err)
	assert.Contains(t, out, "Challenge 1.1: List All Employees (Easy, sample)")
	assert.Contains(t, out, "Expected output:")
	assert.Contains(t, out, "(37 rows)")
	assert.NotContains(t, out, "Solution:")
}

func TestShow_WithSolution(t *testing.T) {
	out, _, err := execute(t, "show", "1.1", "--solution")

	require.NoError(t, err)
	assert.Contains(t, out, "Solution:")
	assert.Contains(t, out, "ORDER BY employee_id;")
	assert.Contains(t, out, "Explanation:")
}

func TestShow_JSONHidesSolution(t *testing.T) {
	out, _, err := execute(t, "show", "1.9", "--format", "json")
	require.NoError(t, err)

	resp := decodeResponse(t, out)
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, "1.9", data["id"])
	assert.Empty(t, data["solution"])
	assert.NotEmpty(t, data["expected_output"])
}

func TestShow_UnknownChallenge(t *testing.T) {
	tests := []struct {
		id   string
		code string
	}{
		{"1.99", "CUR_001"},
		{"first", "CUR_002"},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			out, _, err := execute(t, "show", tt.id, "--format", "json")

			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))
			resp := decodeResponse(t, out)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.code, resp.Error.Code)
		})
	}
}

func TestLint(t *testing.T) {
	out, _, err := execute(t, "lint")

	require.NoError(t, err)
	assert.Equal(t, "6 parts, 79 challenges, 0 problems\n", out)
}

func TestLint_JSON(t *testing.T) {
	out, _, err := execute(t, "lint", "--format", "json")
	require.NoError(t, err)

	resp := decodeResponse(t, out)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, []interface{}{}, resp.Data)
}
