package subtitles

import (
	"html"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	stripPolicy   = bluemonday.StrictPolicy()
	overrideTagRe = regexp.MustCompile(`\{[^}]*\}`)
)

// StripMarkup removes HTML-style tags and ASS override blocks from a
// subtitle line, leaving the text a viewer actually reads.
func StripMarkup(line string) string {
	s := overrideTagRe.ReplaceAllString(line, "")
	s = stripPolicy.Sanitize(s)
	s = html.UnescapeString(s)
	return strings.TrimSpace(s)
}
