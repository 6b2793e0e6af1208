package links

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/fixembed/fixembed-bot/internal/services"
)

// Unknown is the identity given to a link whose host is supported but whose
// path could not be parsed. Such links are still rewritten and delivered.
const Unknown = "Unknown"

// Resolved is a supported link rewritten to its mirror host.
type Resolved struct {
	Service  *services.Service
	Identity string
	URL      string
	Label    string
	Original string
}

// Markdown renders the link as "[label](url)".
func (r Resolved) Markdown() string {
	return fmt.Sprintf("[%s](%s)", r.Label, r.URL)
}

// Resolve maps a match to its service and computes the rewritten URL and
// label. It returns false when no service owns the link's host.
func Resolve(m RawMatch) (Resolved, bool) {
	u, err := url.Parse(m.URL)
	if err != nil || u.Host == "" {
		return Resolved{}, false
	}
	svc, ok := services.ByHost(u.Hostname())
	if !ok {
		return Resolved{}, false
	}
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	mirror, _ := svc.Mirror(host)

	// fragment is the link without scheme and "www.", the form the service
	// patterns are written against
	fragment := m.URL[strings.Index(m.URL, "://")+3:]
	if len(fragment) >= 4 && strings.EqualFold(fragment[:4], "www.") {
		fragment = fragment[4:]
	}
	rest := ""
	if i := strings.IndexAny(fragment, "/?#"); i >= 0 {
		rest = fragment[i:]
	}

	res := Resolved{
		Service:  svc,
		Identity: Unknown,
		URL:      "https://" + mirror + rest,
		Original: m.URL,
	}
	var matched *services.Pattern
	for i, p := range svc.Patterns {
		groups := p.Expr.FindStringSubmatch(fragment)
		if len(groups) < 2 || groups[1] == "" {
			continue
		}
		res.Identity = groups[1]
		if p.Path != "" {
			args := make([]any, 0, len(groups)-1)
			for _, g := range groups[1:] {
				args = append(args, g)
			}
			res.URL = "https://" + mirror + fmt.Sprintf(p.Path, args...)
		}
		matched = &svc.Patterns[i]
		break
	}
	res.Label = svc.FormatLabel(matched, res.Identity)
	return res, true
}

// Convert extracts and resolves every supported link in text.
func Convert(text string) []Resolved {
	var out []Resolved
	for _, m := range Extract(text) {
		if r, ok := Resolve(m); ok {
			out = append(out, r)
		}
	}
	return out
}

// ConvertURL rewrites a single link given on its own, e.g. as a command
// argument. Surrounding whitespace and angle brackets are ignored.
func ConvertURL(raw string) (Resolved, bool) {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimSuffix(strings.TrimPrefix(raw, "<"), ">")
	lower := strings.ToLower(raw)
	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
		raw = "https://" + raw
	}
	return Resolve(RawMatch{URL: raw, Start: 0, End: len(raw)})
}
