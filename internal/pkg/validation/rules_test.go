package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsChallengeID(t *testing.T) {
	for _, id := range []string{"1.1", "1.9", "6.12", "12.3"} {
		assert.True(t, IsChallengeID(id), id)
	}
	for _, id := range []string{"", "1", "0.1", "1.0", "1.", ".1", "1.123", "a.b", "1.9 "} {
		assert.False(t, IsChallengeID(id), id)
	}
}

func TestUsernamePattern(t *testing.T) {
	assert.True(t, CompiledPatterns.Username.MatchString("admin.ops"))
	assert.False(t, CompiledPatterns.Username.MatchString("ab"))
	assert.False(t, CompiledPatterns.Username.MatchString("a!b"))
}

func TestIsDifficulty(t *testing.T) {
	assert.True(t, IsDifficulty("Medium"))
	assert.False(t, IsDifficulty("medium"))
}
