// internal/app/system/normalize/normalize.go
package normalize

import (
	"strings"
)

// Email trims and lowercases an email address.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Name trims and collapses internal whitespace; case is preserved.
func Name(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Role trims and lowercases a role.
func Role(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Department trims and uppercases a department code.
func Department(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// Section trims and uppercases a class section.
func Section(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// GroupID trims and uppercases a human-readable group id.
func GroupID(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// QueryParam trims a query string value.
func QueryParam(s string) string {
	return strings.TrimSpace(s)
}

// Strings trims every entry and drops blanks, preserving order.
func Strings(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
