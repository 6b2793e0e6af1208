// Package services holds the static table of supported link services.
//
// Each service lists the hosts it owns together with the mirror host that
// replaces them, and the URL patterns that identify a post on that service.
// Patterns are written against the URL with its scheme and any leading
// "www." removed, e.g. "twitter.com/alice/status/1".
package services

import (
	"fmt"
	"regexp"
	"strings"
)

// HostRewrite maps a source host to the mirror host that renders an embed.
type HostRewrite struct {
	From string
	To   string
}

// Pattern is one recognised URL shape of a service.
//
// The first capture group is the identity shown in the label. When Path is
// set the rewritten URL is rebuilt as mirror host + fmt.Sprintf(Path, captures...)
// instead of keeping the original path. Label overrides the service label.
type Pattern struct {
	Expr  *regexp.Regexp
	Path  string
	Label string
}

// Service is a supported platform.
type Service struct {
	Name     string
	Hosts    []HostRewrite
	Patterns []Pattern
	// Label is a fmt template filled with the identity fragment.
	Label string
}

// Mirror returns the mirror host for host, if the service owns it.
func (s *Service) Mirror(host string) (string, bool) {
	for _, h := range s.Hosts {
		if h.From == host {
			return h.To, true
		}
	}
	return "", false
}

// FormatLabel renders the display label for identity. A non-nil p with its
// own Label overrides the service template.
func (s *Service) FormatLabel(p *Pattern, identity string) string {
	tmpl := s.Label
	if p != nil && p.Label != "" {
		tmpl = p.Label
	}
	return fmt.Sprintf(tmpl, identity)
}

func pattern(expr, path, label string) Pattern {
	return Pattern{Expr: regexp.MustCompile(expr), Path: path, Label: label}
}

// registry is ordered for display only; routing goes through byHost.
var registry = []*Service{
	{
		Name: "Twitter",
		Hosts: []HostRewrite{
			{From: "twitter.com", To: "fxtwitter.com"},
			{From: "x.com", To: "fixupx.com"},
		},
		Patterns: []Pattern{
			pattern(`(?:twitter\.com|x\.com)/([A-Za-z0-9_]+)/status/[0-9]+`, "", ""),
		},
		Label: "Twitter • %s",
	},
	{
		Name: "Instagram",
		Hosts: []HostRewrite{
			{From: "instagram.com", To: "instafix.ldez.top"},
		},
		Patterns: []Pattern{
			pattern(`instagram\.com/(?:p|reels?|tv)/([A-Za-z0-9_-]+)`, "", ""),
		},
		Label: "Instagram • %s",
	},
	{
		Name: "Reddit",
		Hosts: []HostRewrite{
			{From: "old.reddit.com", To: "old.rxddit.com"},
			{From: "reddit.com", To: "vxreddit.ldez.workers.dev"},
		},
		Patterns: []Pattern{
			pattern(`(?:old\.)?reddit\.com/r/([A-Za-z0-9_]+)/comments/[A-Za-z0-9_]+(?:/[A-Za-z0-9_-]+)?`, "", ""),
			pattern(`(?:old\.)?reddit\.com/r/([A-Za-z0-9_]+)/s/[A-Za-z0-9_]+`, "", ""),
		},
		Label: "Reddit • r/%s",
	},
	{
		Name: "TikTok",
		Hosts: []HostRewrite{
			{From: "tiktok.com", To: "vxtiktok.com"},
			{From: "vm.tiktok.com", To: "vm.vxtiktok.com"},
		},
		Patterns: []Pattern{
			pattern(`tiktok\.com/@([A-Za-z0-9_.]+)/video/([0-9]+)`, "/@%s/video/%s", "TikTok • @%s"),
			pattern(`tiktok\.com/t/([A-Za-z0-9]+)`, "/t/%s", ""),
			pattern(`vm\.tiktok\.com/([A-Za-z0-9]+)`, "/%s", ""),
		},
		Label: "TikTok • %s",
	},
	{
		Name: "Threads",
		Hosts: []HostRewrite{
			{From: "threads.net", To: "fixthreads.net"},
			{From: "threads.com", To: "fixthreads.net"},
		},
		Patterns: []Pattern{
			pattern(`threads\.(?:net|com)/@([^/\s<>]+)/post/([A-Za-z0-9_-]+)`, "/@%s/post/%s", ""),
		},
		Label: "Threads • @%s",
	},
	{
		Name: "Pixiv",
		Hosts: []HostRewrite{
			{From: "pixiv.net", To: "phixiv.net"},
		},
		Patterns: []Pattern{
			pattern(`pixiv\.net/(?:[a-z]{2}/)?artworks/([0-9]+)`, "", ""),
		},
		Label: "Pixiv • %s",
	},
	{
		Name: "Bluesky",
		Hosts: []HostRewrite{
			{From: "bsky.app", To: "fxbsky.app"},
		},
		Patterns: []Pattern{
			pattern(`bsky\.app/profile/([^/\s<>]+)/post/([A-Za-z0-9_-]+)`, "/profile/%s/post/%s", ""),
		},
		Label: "Bluesky • %s",
	},
	{
		Name: "YouTube",
		Hosts: []HostRewrite{
			{From: "youtube.com", To: "koutube.com"},
			{From: "m.youtube.com", To: "koutube.com"},
			{From: "youtu.be", To: "koutube.com"},
		},
		Patterns: []Pattern{
			pattern(`(?:m\.)?youtube\.com/watch\?(?:[^\s#&]*&)*v=([A-Za-z0-9_-]+)`, "/watch?v=%s", ""),
			pattern(`(?:m\.)?youtube\.com/shorts/([A-Za-z0-9_-]+)`, "/watch?v=%s", ""),
			pattern(`youtu\.be/([A-Za-z0-9_-]+)`, "/watch?v=%s", ""),
		},
		Label: "YouTube • %s",
	},
}

var byHost = func() map[string]*Service {
	m := make(map[string]*Service)
	seen := make(map[string]bool)
	for _, s := range registry {
		if seen[s.Name] {
			panic("services: duplicate service name " + s.Name)
		}
		seen[s.Name] = true
		for _, h := range s.Hosts {
			if _, dup := m[h.From]; dup {
				panic("services: host " + h.From + " owned twice")
			}
			m[h.From] = s
		}
	}
	return m
}()

// List returns the registered services in display order.
func List() []*Service {
	out := make([]*Service, len(registry))
	copy(out, registry)
	return out
}

// Names returns the registered service names in display order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for _, s := range registry {
		names = append(names, s.Name)
	}
	return names
}

// ByName looks a service up by its exact name.
func ByName(name string) (*Service, bool) {
	for _, s := range registry {
		if s.Name == name {
			return s, true
		}
	}
	return nil, false
}

// ByHost returns the service owning host. The host is matched exactly after
// lowercasing and dropping a leading "www.", so "old.reddit.com" never falls
// through to the "reddit.com" alias.
func ByHost(host string) (*Service, bool) {
	host = strings.TrimPrefix(strings.ToLower(host), "www.")
	s, ok := byHost[host]
	return s, ok
}

// Expressions returns the source of every pattern, in registry order. The
// link extractor joins them into a single scanner.
func Expressions() []string {
	var out []string
	for _, s := range registry {
		for _, p := range s.Patterns {
			out = append(out, p.Expr.String())
		}
	}
	return out
}
