package validation

import "regexp"

// Validation rule patterns
var (
	// ChallengeIDPattern matches "<part>.<number>", e.g. 1.9 or 6.12
	ChallengeIDPattern = `^[1-9][0-9]?\.[1-9][0-9]?$`

	// UsernamePattern restricts admin usernames
	UsernamePattern = `^[a-zA-Z0-9_.\-]{3,50}$`

	// Difficulties lists the accepted challenge difficulty labels
	Difficulties = []string{"Easy", "Medium", "Hard"}
)

// CompiledPatterns caches compiled regex patterns
var CompiledPatterns = struct {
	ChallengeID *regexp.Regexp
	Username    *regexp.Regexp
}{
	ChallengeID: regexp.MustCompile(ChallengeIDPattern),
	Username:    regexp.MustCompile(UsernamePattern),
}

// IsChallengeID reports whether s is a well-formed challenge ID.
func IsChallengeID(s string) bool {
	return CompiledPatterns.ChallengeID.MatchString(s)
}

// IsDifficulty reports whether s is one of Difficulties.
func IsDifficulty(s string) bool {
	for _, d := range Difficulties {
		if d == s {
			return true
		}
	}
	return false
}
