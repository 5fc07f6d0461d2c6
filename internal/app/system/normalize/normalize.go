// Package normalize canonicalizes user-typed values before they reach the
// stores. Display fields keep their casing; matching happens on folded
// companions (see the *_ci index fields).
package normalize

import "strings"

// Username trims surrounding whitespace but preserves casing; the folded
// form used for matching is produced separately with text.Fold.
func Username(s string) string {
	return strings.TrimSpace(s)
}

// CommunityName trims surrounding whitespace, preserving casing.
func CommunityName(s string) string {
	return strings.TrimSpace(s)
}

// Code canonicalizes a hand-typed join code: trimmed and uppercased, since
// generated codes are always uppercase.
func Code(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// Mood trims a mood selection. An empty result means "no mood chosen".
func Mood(s string) string {
	return strings.TrimSpace(s)
}
