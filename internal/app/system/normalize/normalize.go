// Package normalize canonicalizes user-supplied strings before they are
// validated or stored.
package normalize

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var strict = bluemonday.StrictPolicy()

// Email trims and lowercases an address.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Name trims surrounding whitespace and preserves case.
func Name(s string) string {
	return strings.TrimSpace(s)
}

// Text strips all markup and trims the result. Used for free-text fields
// such as project descriptions, which are returned verbatim to clients.
func Text(s string) string {
	return strings.TrimSpace(strict.Sanitize(s))
}

// OptionalText normalizes a pointer field. nil stays nil.
func OptionalText(s *string) *string {
	if s == nil {
		return nil
	}
	v := Text(*s)
	return &v
}

// ID trims a path or query identifier.
func ID(s string) string {
	return strings.TrimSpace(s)
}
