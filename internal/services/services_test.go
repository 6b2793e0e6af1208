package services

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestNames(t *testing.T) {
	want := []string{"Twitter", "Instagram", "Reddit", "TikTok", "Threads", "Pixiv", "Bluesky", "YouTube"}
	if diff := cmp.Diff(want, Names()); diff != "" {
		t.Errorf("Names() mismatch (-want +got):\n%s", diff)
	}
}

func TestByHost(t *testing.T) {
	tests := []struct {
		host    string
		service string
		mirror  string
	}{
		{"twitter.com", "Twitter", "fxtwitter.com"},
		{"X.com", "Twitter", "fixupx.com"},
		{"www.reddit.com", "Reddit", "vxreddit.ldez.workers.dev"},
		{"old.reddit.com", "Reddit", "old.rxddit.com"},
		{"youtu.be", "YouTube", "koutube.com"},
		{"threads.com", "Threads", "fixthreads.net"},
	}
	for _, tt := range tests {
		s, ok := ByHost(tt.host)
		if !ok {
			t.Errorf("ByHost(%q) not found", tt.host)
			continue
		}
		if s.Name != tt.service {
			t.Errorf("ByHost(%q) = %s, want %s", tt.host, s.Name, tt.service)
		}
		host := strings.TrimPrefix(strings.ToLower(tt.host), "www.")
		if m, _ := s.Mirror(host); m != tt.mirror {
			t.Errorf("Mirror(%q) = %q, want %q", host, m, tt.mirror)
		}
	}

	for _, host := range []string{"fxtwitter.com", "example.com", "new.reddit.com", ""} {
		if _, ok := ByHost(host); ok {
			t.Errorf("ByHost(%q) unexpectedly matched", host)
		}
	}
}

// Every template must consume exactly what its pattern captures.
func TestPatternTemplates(t *testing.T) {
	for _, s := range List() {
		if got := strings.Count(s.Label, "%s"); got != 1 {
			t.Errorf("%s: label %q has %d verbs, want 1", s.Name, s.Label, got)
		}
		for _, p := range s.Patterns {
			groups := p.Expr.NumSubexp()
			if groups < 1 || groups > 2 {
				t.Errorf("%s: pattern %q has %d groups", s.Name, p.Expr, groups)
			}
			if p.Path != "" && strings.Count(p.Path, "%s") != groups {
				t.Errorf("%s: path %q does not use all %d captures", s.Name, p.Path, groups)
			}
			if groups == 2 && p.Path == "" {
				t.Errorf("%s: two-capture pattern %q must rebuild its path", s.Name, p.Expr)
			}
			if p.Label != "" && strings.Count(p.Label, "%s") != 1 {
				t.Errorf("%s: label override %q has wrong verb count", s.Name, p.Label)
			}
		}
	}
}

func TestFormatLabel(t *testing.T) {
	tiktok, ok := ByName("TikTok")
	if !ok {
		t.Fatal("TikTok not registered")
	}
	tests := []struct {
		name    string
		pattern *Pattern
		want    string
	}{
		{name: "service template", pattern: nil, want: "TikTok • abc"},
		{name: "pattern without override", pattern: &tiktok.Patterns[1], want: "TikTok • abc"},
		{name: "pattern override", pattern: &tiktok.Patterns[0], want: "TikTok • @abc"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tiktok.FormatLabel(tt.pattern, "abc"); got != tt.want {
				t.Errorf("FormatLabel = %q, want %q", got, tt.want)
			}
		})
	}
}
