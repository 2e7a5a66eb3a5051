// Package filename turns untrusted strings into names that are safe to
// write to disk on any supported filesystem.
package filename

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// defaultMaxLen keeps generated names well under common filesystem
// limits, leaving room for an extension.
const defaultMaxLen = 120

// unsafeRe matches filesystem-reserved characters, control characters,
// and whitespace. Each run becomes a single dash.
var unsafeRe = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1f\s]+`)

// dashRunRe collapses runs of dashes and underscores, including those
// already present in the input.
var dashRunRe = regexp.MustCompile(`[-_]{2,}`)

// Sanitize slugs name for use as a filename. Reserved characters and
// whitespace become dashes, runs collapse, and leading or trailing
// dashes and dots are stripped so the result never turns into a dotfile.
// maxLen bounds the result in bytes, 0 selecting the default; cuts land
// on rune boundaries. An all-unsafe name produces an empty result, so
// callers need a fallback.
func Sanitize(name string, maxLen int) string {
	if maxLen <= 0 {
		maxLen = defaultMaxLen
	}

	s := unsafeRe.ReplaceAllString(strings.TrimSpace(name), "-")
	s = dashRunRe.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-.")

	for len(s) > maxLen {
		_, size := utf8.DecodeLastRuneInString(s)
		s = s[:len(s)-size]
	}
	return strings.TrimRight(s, "-.")
}
