package links

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

type result struct {
	Service  string
	Identity string
	URL      string
	Label    string
}

func summarize(rs []Resolved) []result {
	out := make([]result, 0, len(rs))
	for _, r := range rs {
		out = append(out, result{Service: r.Service.Name, Identity: r.Identity, URL: r.URL, Label: r.Label})
	}
	return out
}

func TestConvertServices(t *testing.T) {
	tests := []struct {
		name string
		text string
		want result
	}{
		{
			name: "twitter",
			text: "check this https://twitter.com/alice/status/123456",
			want: result{"Twitter", "alice", "https://fxtwitter.com/alice/status/123456", "Twitter • alice"},
		},
		{
			name: "x",
			text: "https://x.com/bob/status/1",
			want: result{"Twitter", "bob", "https://fixupx.com/bob/status/1", "Twitter • bob"},
		},
		{
			name: "x with www",
			text: "https://www.x.com/bob/status/42",
			want: result{"Twitter", "bob", "https://fixupx.com/bob/status/42", "Twitter • bob"},
		},
		{
			name: "instagram reel",
			text: "https://www.instagram.com/reel/C05SEFntyFA",
			want: result{"Instagram", "C05SEFntyFA", "https://instafix.ldez.top/reel/C05SEFntyFA", "Instagram • C05SEFntyFA"},
		},
		{
			name: "reddit",
			text: "https://www.reddit.com/r/golang/comments/abc123/some_title",
			want: result{"Reddit", "golang", "https://vxreddit.ldez.workers.dev/r/golang/comments/abc123/some_title", "Reddit • r/golang"},
		},
		{
			name: "old reddit keeps its own mirror",
			text: "https://old.reddit.com/r/foo/comments/abc/bar",
			want: result{"Reddit", "foo", "https://old.rxddit.com/r/foo/comments/abc/bar", "Reddit • r/foo"},
		},
		{
			name: "reddit hyphenated slug",
			text: "https://www.reddit.com/r/foo/comments/abc/bar_baz-qux",
			want: result{"Reddit", "foo", "https://vxreddit.ldez.workers.dev/r/foo/comments/abc/bar_baz-qux", "Reddit • r/foo"},
		},
		{
			name: "reddit share link",
			text: "https://reddit.com/r/pics/s/Xy12ab",
			want: result{"Reddit", "pics", "https://vxreddit.ldez.workers.dev/r/pics/s/Xy12ab", "Reddit • r/pics"},
		},
		{
			name: "tiktok video",
			text: "https://www.tiktok.com/@some.user/video/7312345678901234567",
			want: result{"TikTok", "some.user", "https://vxtiktok.com/@some.user/video/7312345678901234567", "TikTok • @some.user"},
		},
		{
			name: "tiktok short",
			text: "https://tiktok.com/t/ZT8abcd",
			want: result{"TikTok", "ZT8abcd", "https://vxtiktok.com/t/ZT8abcd", "TikTok • ZT8abcd"},
		},
		{
			name: "tiktok vm",
			text: "https://vm.tiktok.com/ZMabc123",
			want: result{"TikTok", "ZMabc123", "https://vm.vxtiktok.com/ZMabc123", "TikTok • ZMabc123"},
		},
		{
			name: "threads net",
			text: "https://www.threads.net/@zuck/post/C1a2b3",
			want: result{"Threads", "zuck", "https://fixthreads.net/@zuck/post/C1a2b3", "Threads • @zuck"},
		},
		{
			name: "threads com",
			text: "https://threads.com/@zuck/post/C1a2b3",
			want: result{"Threads", "zuck", "https://fixthreads.net/@zuck/post/C1a2b3", "Threads • @zuck"},
		},
		{
			name: "pixiv with language",
			text: "https://www.pixiv.net/en/artworks/98188712",
			want: result{"Pixiv", "98188712", "https://phixiv.net/en/artworks/98188712", "Pixiv • 98188712"},
		},
		{
			name: "bluesky",
			text: "https://bsky.app/profile/alice.bsky.social/post/3kabc",
			want: result{"Bluesky", "alice.bsky.social", "https://fxbsky.app/profile/alice.bsky.social/post/3kabc", "Bluesky • alice.bsky.social"},
		},
		{
			name: "youtube watch",
			text: "https://www.youtube.com/watch?v=JS4wtEen2EM",
			want: result{"YouTube", "JS4wtEen2EM", "https://koutube.com/watch?v=JS4wtEen2EM", "YouTube • JS4wtEen2EM"},
		},
		{
			name: "youtube watch with v after other parameters",
			text: "https://youtube.com/watch?feature=share&v=abc",
			want: result{"YouTube", "abc", "https://koutube.com/watch?v=abc", "YouTube • abc"},
		},
		{
			name: "youtube watch with v between parameters",
			text: "https://m.youtube.com/watch?app=desktop&t=10&v=JS4wtEen2EM&list=x",
			want: result{"YouTube", "JS4wtEen2EM", "https://koutube.com/watch?v=JS4wtEen2EM", "YouTube • JS4wtEen2EM"},
		},
		{
			name: "youtu.be",
			text: "https://youtu.be/JS4wtEen2EM",
			want: result{"YouTube", "JS4wtEen2EM", "https://koutube.com/watch?v=JS4wtEen2EM", "YouTube • JS4wtEen2EM"},
		},
		{
			name: "youtube shorts",
			text: "https://youtube.com/shorts/abcDEF_123",
			want: result{"YouTube", "abcDEF_123", "https://koutube.com/watch?v=abcDEF_123", "YouTube • abcDEF_123"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := summarize(Convert(tt.text))
			if diff := cmp.Diff([]result{tt.want}, got); diff != "" {
				t.Errorf("Convert(%q) mismatch (-want +got):\n%s", tt.text, diff)
			}
		})
	}
}

func TestExtractSuppressed(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{name: "wrapped", text: "<https://x.com/bob/status/1>", want: nil},
		{name: "wrapped with query", text: "look <https://x.com/bob/status/1?s=20> here", want: nil},
		{
			name: "only the wrapped one is skipped",
			text: "<https://x.com/bob/status/1> and https://x.com/carol/status/2",
			want: []string{"https://x.com/carol/status/2"},
		},
		{name: "open bracket only", text: "<https://x.com/bob/status/1 oops", want: []string{"https://x.com/bob/status/1"}},
		{name: "empty", text: "", want: nil},
		{name: "no links", text: "hello there", want: nil},
		{name: "mirror links are not matched", text: "https://fxtwitter.com/alice/status/1 https://fixupx.com/a/status/2", want: nil},
		{name: "unsupported path", text: "https://twitter.com/home", want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []string
			for _, m := range Extract(tt.text) {
				got = append(got, m.URL)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Extract(%q) mismatch (-want +got):\n%s", tt.text, diff)
			}
		})
	}
}

func TestExtractOffsets(t *testing.T) {
	text := "a https://x.com/bob/status/1 b"
	got := Extract(text)
	if len(got) != 1 {
		t.Fatalf("got %d matches, want 1", len(got))
	}
	if text[got[0].Start:got[0].End] != got[0].URL {
		t.Errorf("span %d:%d does not cover %q", got[0].Start, got[0].End, got[0].URL)
	}
}

func TestConvertKeepsOrder(t *testing.T) {
	text := "first https://bsky.app/profile/a.b/post/1 then https://twitter.com/alice/status/2"
	got := Convert(text)
	if len(got) != 2 {
		t.Fatalf("got %d links, want 2", len(got))
	}
	if got[0].Service.Name != "Bluesky" || got[1].Service.Name != "Twitter" {
		t.Errorf("order = %s, %s; want Bluesky, Twitter", got[0].Service.Name, got[1].Service.Name)
	}
}

func TestConvertURLUnknownIdentity(t *testing.T) {
	got, ok := ConvertURL("https://twitter.com/home")
	if !ok {
		t.Fatal("expected twitter host to resolve")
	}
	want := result{"Twitter", Unknown, "https://fxtwitter.com/home", "Twitter • Unknown"}
	if diff := cmp.Diff(want, summarize([]Resolved{got})[0]); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestConvertURL(t *testing.T) {
	tests := []struct {
		in     string
		wantOK bool
		url    string
	}{
		{in: "  <https://x.com/bob/status/1>  ", wantOK: true, url: "https://fixupx.com/bob/status/1"},
		{in: "twitter.com/alice/status/5", wantOK: true, url: "https://fxtwitter.com/alice/status/5"},
		{in: "https://example.com/alice/status/5", wantOK: false},
		{in: "", wantOK: false},
		{in: "::::", wantOK: false},
	}
	for _, tt := range tests {
		got, ok := ConvertURL(tt.in)
		if ok != tt.wantOK {
			t.Errorf("ConvertURL(%q) ok = %v, want %v", tt.in, ok, tt.wantOK)
			continue
		}
		if ok && got.URL != tt.url {
			t.Errorf("ConvertURL(%q) = %q, want %q", tt.in, got.URL, tt.url)
		}
	}
}

func TestResolveRejectsUnknownHost(t *testing.T) {
	if _, ok := Resolve(RawMatch{URL: "https://example.org/r/foo/comments/a/b"}); ok {
		t.Error("Resolve accepted an unsupported host")
	}
}

func TestMarkdown(t *testing.T) {
	got := Convert("https://twitter.com/alice/status/123456")[0].Markdown()
	want := "[Twitter • alice](https://fxtwitter.com/alice/status/123456)"
	if got != want {
		t.Errorf("Markdown() = %q, want %q", got, want)
	}
}
