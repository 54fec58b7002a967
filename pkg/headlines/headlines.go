// Package headlines provides clients for top-headline feeds. NewsAPI is the primary source,
// plain RSS/Atom feeds mapped to categories can be used instead.
package headlines

import (
	"html"
	"regexp"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
)

// Headline is a raw record returned by a feed, fields may be empty
type Headline struct {
	Title       string
	Description string
	Content     string
	URL         string
	Author      string
	SourceName  string
	PublishedAt time.Time // zero if feed didn't provide a parsable date
}

var (
	stripPolicy = bluemonday.StrictPolicy()
	spacesRe    = regexp.MustCompile(`\s+`)
)

// plainText removes html markup and collapses whitespace
func plainText(s string) string {
	if s == "" {
		return ""
	}
	s = html.UnescapeString(stripPolicy.Sanitize(s))
	return strings.TrimSpace(spacesRe.ReplaceAllString(s, " "))
}
