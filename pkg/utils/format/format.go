// Package format holds small string helpers shared across services.
package format

import "unicode/utf8"

// Truncate shortens s to at most max bytes, appending "..." when it
// cuts. The cut lands on a rune boundary so multibyte text stays valid.
func Truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max - 3
	if cut < 0 {
		cut = 0
	}
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
