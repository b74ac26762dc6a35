// Package sanitize cleans user supplied free text before it is stored.
package sanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var strict = bluemonday.StrictPolicy()

// Text strips all markup from s and trims it. Entities the policy escapes are
// decoded again since the result is stored as plain text, not HTML.
func Text(s string) string {
	return strings.TrimSpace(html.UnescapeString(strict.Sanitize(s)))
}

// FileName cleans a display name for an attachment and caps it at max runes
func FileName(s string, max int) string {
	s = Text(s)
	if r := []rune(s); max > 0 && len(r) > max {
		s = strings.TrimSpace(string(r[:max]))
	}
	return s
}
