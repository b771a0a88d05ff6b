// Package htmlsanitize strips markup from user-supplied text before it is
// stored or relayed to other users.
package htmlsanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var strict = bluemonday.StrictPolicy()

// Text removes every HTML element and attribute from s and trims the result.
// The policy escapes what it keeps; values here are stored and served as JSON,
// so entities are decoded back to plain text.
func Text(s string) string {
	if s == "" {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(strict.Sanitize(s)))
}

// Fields applies Text to each pointer in place.
func Fields(ptrs ...*string) {
	for _, p := range ptrs {
		if p != nil {
			*p = Text(*p)
		}
	}
}
