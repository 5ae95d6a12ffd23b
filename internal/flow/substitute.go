package flow

import (
	"regexp"
	"strings"
)

var placeholderRe = regexp.MustCompile(`\{([A-Za-z0-9_]+)\}`)

// Substitute replaces every {name} token in text with the captured value for
// name, matching names case-insensitively. It is a single non-recursive pass:
// substituted values are never re-scanned, and tokens without a captured
// value are left untouched. No expression evaluation, no escaping syntax.
func Substitute(text string, userData map[string]string) string {
	if text == "" || len(userData) == 0 || !strings.Contains(text, "{") {
		return text
	}

	lower := make(map[string]string, len(userData))
	for k, v := range userData {
		lower[strings.ToLower(k)] = v
	}

	return placeholderRe.ReplaceAllStringFunc(text, func(token string) string {
		name := strings.ToLower(token[1 : len(token)-1])
		if v, ok := lower[name]; ok {
			return v
		}
		return token
	})
}
