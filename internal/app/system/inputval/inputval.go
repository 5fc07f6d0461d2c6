// Package inputval validates user-typed onboarding and submission inputs.
// Validation runs before any store mutation, so a rejected request leaves
// no partial state behind.
package inputval

import (
	"regexp"
	"strings"
)

const (
	MinUsernameLength      = 3
	MinCommunityNameLength = 3
)

// usernameRe limits usernames to letters, digits, and underscores.
var usernameRe = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

// codeRe matches generated join codes: an uppercase name prefix followed by
// a 4-digit suffix. Hand-typed codes are normalized to uppercase first.
var codeRe = regexp.MustCompile(`^[A-Z]{1,4}[0-9]{4}$`)

// IsValidUsername reports whether name is an acceptable username:
// at least 3 characters, letters/digits/underscores only.
func IsValidUsername(name string) bool {
	name = strings.TrimSpace(name)
	if len(name) < MinUsernameLength {
		return false
	}
	return usernameRe.MatchString(name)
}

// IsValidCommunityName reports whether name is an acceptable community name
// (at least 3 characters after trimming).
func IsValidCommunityName(name string) bool {
	return len(strings.TrimSpace(name)) >= MinCommunityNameLength
}

// IsValidCode reports whether code looks like a generated join code.
// Matching is case-insensitive; callers normalize before lookup.
func IsValidCode(code string) bool {
	return codeRe.MatchString(strings.ToUpper(strings.TrimSpace(code)))
}

// MoodOptions is the fixed set of selectable moods.
var MoodOptions = []string{
	"Happy", "Energetic", "Chill", "Sad", "Focused", "Romantic", "Nostalgic",
}

// IsValidMood reports whether mood is one of the selectable options.
// The empty string is valid when mood is not required by policy.
func IsValidMood(mood string) bool {
	mood = strings.TrimSpace(mood)
	if mood == "" {
		return true
	}
	for _, m := range MoodOptions {
		if strings.EqualFold(m, mood) {
			return true
		}
	}
	return false
}
