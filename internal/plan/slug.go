package plan

import (
	"fmt"
	"strings"
	"unicode"
)

// Slug normalizes a step title into a lowercase hyphenated identifier.
// Non-alphanumeric runs collapse to a single hyphen and leading/trailing
// hyphens are trimmed. An empty result falls back to "step".
func Slug(title string) string {
	var b strings.Builder
	pendingHyphen := false
	for _, r := range strings.ToLower(title) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
		default:
			pendingHyphen = true
		}
	}
	slug := b.String()
	if slug == "" {
		return "step"
	}
	return slug
}

// StepFileName builds the emitted filename for a step. The index is 1-based
// and zero-padded to two digits so lexicographic filename order matches step
// order beyond step nine.
func StepFileName(index int, title string) string {
	return fmt.Sprintf("%02d-%s.md", index, Slug(title))
}
