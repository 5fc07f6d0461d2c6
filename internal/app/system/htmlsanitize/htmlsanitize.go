// Package htmlsanitize strips markup from free-text inputs before storage.
// Community names, moods, and track snapshots are plain text in every
// surface, so the strict policy (no tags at all) is the right default.
package htmlsanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var strict = bluemonday.StrictPolicy()

// PlainText removes all HTML tags and trims the result. The sanitizer
// entity-escapes the text it keeps, which would corrupt stored plain
// strings ("Rock & Roll" must not become "Rock &amp; Roll"), so the
// escaping is undone after tags are gone.
func PlainText(s string) string {
	return strings.TrimSpace(html.UnescapeString(strict.Sanitize(s)))
}
