// Package links finds supported links in message text and rewrites them to
// their mirror hosts.
package links

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/fixembed/fixembed-bot/internal/services"
)

// RawMatch is one supported link found in a message.
type RawMatch struct {
	URL   string
	Start int
	End   int
}

var scanner = regexp.MustCompile(`https?://(?:www\.)?(?:` + strings.Join(services.Expressions(), "|") + `)`)

// Extract returns every supported link in text, in order of appearance.
// Links wrapped in angle brackets ("<https://...>") are left out: Discord
// users write them that way to opt out of embeds.
func Extract(text string) []RawMatch {
	if text == "" {
		return nil
	}
	var out []RawMatch
	for _, loc := range scanner.FindAllStringIndex(text, -1) {
		if suppressed(text, loc[0], loc[1]) {
			continue
		}
		out = append(out, RawMatch{URL: text[loc[0]:loc[1]], Start: loc[0], End: loc[1]})
	}
	return out
}

// suppressed reports whether the link at [start,end) sits inside "<...>".
// The pattern may stop before a query string, so the closing bracket is
// searched for up to the next whitespace.
func suppressed(text string, start, end int) bool {
	if start == 0 || text[start-1] != '<' {
		return false
	}
	rest := text[end:]
	if i := strings.IndexFunc(rest, unicode.IsSpace); i >= 0 {
		rest = rest[:i]
	}
	return strings.Contains(rest, ">")
}
