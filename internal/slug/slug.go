// Package slug derives URL-safe identifiers from display names.
package slug

import (
	"fmt"
	"strings"
	"unicode"
)

// Make converts a display name to a slug: lowercase then runs of
// non-alphanumeric characters collapsed to single hyphens, e.g.
// "Peak Black (2nd Gen)" -> "peak-black-2nd-gen".
func Make(name string) string {
	var b strings.Builder
	lastHyphen := true // suppress a leading hyphen
	for _, r := range strings.ToLower(name) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			lastHyphen = false
		} else if !lastHyphen {
			b.WriteByte('-')
			lastHyphen = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

// maxAttempts bounds the uniqueness retry loop.
const maxAttempts = 100

// Unique returns base if it is untaken, otherwise the first untaken
// "base-2", "base-3", ... suffix.
func Unique(base string, taken func(string) (bool, error)) (string, error) {
	candidate := base
	for i := 2; i <= maxAttempts+1; i++ {
		exists, err := taken(candidate)
		if err != nil {
			return "", fmt.Errorf("failed to check slug %q: %w", candidate, err)
		}
		if !exists {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, i)
	}
	return "", fmt.Errorf("could not find a free slug for %q", base)
}
