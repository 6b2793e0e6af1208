package delivery

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/google/go-cmp/cmp"

	"github.com/fixembed/fixembed-bot/internal/links"
	"github.com/fixembed/fixembed-bot/internal/logger"
	"github.com/fixembed/fixembed-bot/internal/model"
	"github.com/fixembed/fixembed-bot/internal/services"
)

var alice = Author{ID: "42", Name: "alice"}

func resolve(t *testing.T, text string) []links.Resolved {
	t.Helper()
	rs := links.Convert(text)
	if len(rs) == 0 {
		t.Fatalf("no links resolved from %q", text)
	}
	return rs
}

func settings(deleteOriginal, mention bool, enabled ...string) model.GuildSettings {
	if enabled == nil {
		enabled = services.Names()
	}
	return model.GuildSettings{
		EnabledServices: enabled,
		MentionAuthor:   mention,
		DeleteOriginal:  deleteOriginal,
		Language:        "en",
	}
}

func TestDecide(t *testing.T) {
	tweet := "check this https://twitter.com/alice/status/123456"
	two := "https://twitter.com/alice/status/1 and https://www.reddit.com/r/golang/comments/abc/x"

	tests := []struct {
		name        string
		text        string
		gs          model.GuildSettings
		dm          bool
		wantAction  Action
		wantContent string
	}{
		{
			name:        "repost with mention",
			text:        tweet,
			gs:          settings(true, true),
			wantAction:  RepostDelete,
			wantContent: "[Twitter • alice](https://fxtwitter.com/alice/status/123456) | Sent by <@42>",
		},
		{
			name:        "repost with display name",
			text:        tweet,
			gs:          settings(true, false),
			wantAction:  RepostDelete,
			wantContent: "[Twitter • alice](https://fxtwitter.com/alice/status/123456) | Sent by alice",
		},
		{
			name:        "reply keeps original",
			text:        tweet,
			gs:          settings(false, true),
			wantAction:  ReplyKeep,
			wantContent: "[Twitter • alice](https://fxtwitter.com/alice/status/123456)",
		},
		{
			name:       "empty enabled set",
			text:       tweet,
			gs:         settings(true, true, []string{}...),
			wantAction: NoAction,
		},
		{
			name:        "disabled service is filtered",
			text:        two,
			gs:          settings(true, false, "Reddit"),
			wantAction:  RepostDelete,
			wantContent: "[Reddit • r/golang](https://vxreddit.ldez.workers.dev/r/golang/comments/abc/x) | Sent by alice",
		},
		{
			name:       "two services one per line",
			text:       two,
			gs:         settings(true, true),
			wantAction: RepostDelete,
			wantContent: "[Twitter • alice](https://fxtwitter.com/alice/status/1)\n" +
				"[Reddit • r/golang](https://vxreddit.ldez.workers.dev/r/golang/comments/abc/x) | Sent by <@42>",
		},
		{
			name:        "direct message ignores settings",
			text:        tweet,
			gs:          settings(false, true, []string{}...),
			dm:          true,
			wantAction:  RepostDelete,
			wantContent: "[Twitter • alice](https://fxtwitter.com/alice/status/123456)",
		},
		{
			name: "translated attribution",
			text: tweet,
			gs: model.GuildSettings{
				EnabledServices: []string{"Twitter"},
				DeleteOriginal:  true,
				Language:        "fr",
			},
			wantAction:  RepostDelete,
			wantContent: "[Twitter • alice](https://fxtwitter.com/alice/status/123456) | Envoyé par alice",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Decide(resolve(t, tt.text), tt.gs, alice, tt.dm)
			if p.Action != tt.wantAction {
				t.Fatalf("action = %v, want %v", p.Action, tt.wantAction)
			}
			if diff := cmp.Diff(tt.wantContent, p.Content); diff != "" {
				t.Errorf("content mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDecideDeleteToggleChangesAction(t *testing.T) {
	rs := resolve(t, "https://x.com/bob/status/1")
	on := Decide(rs, settings(true, true), alice, false)
	off := Decide(rs, settings(false, true), alice, false)
	if on.Action != RepostDelete || off.Action != ReplyKeep {
		t.Errorf("actions = %v/%v, want repost_delete/reply_keep", on.Action, off.Action)
	}
}

func TestDecideNoLinks(t *testing.T) {
	if p := Decide(nil, settings(true, true), alice, false); p.Action != NoAction {
		t.Errorf("action = %v, want no_action", p.Action)
	}
	if p := Decide(nil, settings(true, true), alice, true); p.Action != NoAction {
		t.Errorf("dm action = %v, want no_action", p.Action)
	}
}

// fakeMessenger records calls and fails the operations listed in fail.
type fakeMessenger struct {
	mu    sync.Mutex
	calls []string
	fail  map[string]error
}

func (f *fakeMessenger) record(op string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, op)
	return f.fail[op]
}

func (f *fakeMessenger) Send(_ context.Context, _, _ string) error {
	return f.record("send")
}

func (f *fakeMessenger) Reply(_ context.Context, _, _, _ string) error {
	return f.record("reply")
}

func (f *fakeMessenger) Delete(_ context.Context, _, _ string) error {
	return f.record("delete")
}

func (f *fakeMessenger) SuppressEmbeds(_ context.Context, _, _ string) error {
	return f.record("suppress")
}

type countingRecorder struct {
	plans  []string
	errors []string
}

func (c *countingRecorder) PlanExecuted(action string) { c.plans = append(c.plans, action) }
func (c *countingRecorder) DeliveryError(op string)    { c.errors = append(c.errors, op) }

func restError(status, code int) error {
	return &discordgo.RESTError{
		Response: &http.Response{StatusCode: status},
		Message:  &discordgo.APIErrorMessage{Code: code},
	}
}

func TestExecute(t *testing.T) {
	ref := Ref{GuildID: "1", ChannelID: "2", MessageID: "3"}
	gone := restError(http.StatusNotFound, discordgo.ErrCodeUnknownMessage)
	forbidden := restError(http.StatusForbidden, discordgo.ErrCodeMissingPermissions)

	tests := []struct {
		name       string
		action     Action
		fail       map[string]error
		wantCalls  []string
		wantErr    bool
		wantPlans  []string
		wantErrors []string
	}{
		{
			name:      "repost then delete",
			action:    RepostDelete,
			wantCalls: []string{"send", "delete"},
			wantPlans: []string{"repost_delete"},
		},
		{
			name:       "delete failure is not fatal",
			action:     RepostDelete,
			fail:       map[string]error{"delete": gone},
			wantCalls:  []string{"send", "delete"},
			wantPlans:  []string{"repost_delete"},
			wantErrors: []string{"delete"},
		},
		{
			name:       "failed send keeps the original",
			action:     RepostDelete,
			fail:       map[string]error{"send": forbidden},
			wantCalls:  []string{"send"},
			wantErr:    true,
			wantErrors: []string{"send"},
		},
		{
			name:      "reply keeps original",
			action:    ReplyKeep,
			wantCalls: []string{"suppress", "reply"},
			wantPlans: []string{"reply_keep"},
		},
		{
			name:       "reply falls back to channel send",
			action:     ReplyKeep,
			fail:       map[string]error{"reply": errors.New("boom"), "suppress": forbidden},
			wantCalls:  []string{"suppress", "reply", "send"},
			wantPlans:  []string{"reply_keep"},
			wantErrors: []string{"suppress_embeds", "reply"},
		},
		{
			name:       "reply and fallback fail",
			action:     ReplyKeep,
			fail:       map[string]error{"reply": errors.New("boom"), "send": errors.New("boom")},
			wantCalls:  []string{"suppress", "reply", "send"},
			wantErr:    true,
			wantErrors: []string{"reply", "send"},
		},
		{
			name:   "no action",
			action: NoAction,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &fakeMessenger{fail: tt.fail}
			rec := &countingRecorder{}
			e := NewExecutor(m, logger.Nop(), rec)

			err := e.Execute(context.Background(), Plan{Action: tt.action, Content: "x"}, ref)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if diff := cmp.Diff(tt.wantCalls, m.calls); diff != "" {
				t.Errorf("calls mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tt.wantPlans, rec.plans); diff != "" {
				t.Errorf("plans mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tt.wantErrors, rec.errors); diff != "" {
				t.Errorf("errors mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Severity
	}{
		{"missing permissions", restError(http.StatusForbidden, discordgo.ErrCodeMissingPermissions), SeverityWarn},
		{"missing access", restError(http.StatusForbidden, discordgo.ErrCodeMissingAccess), SeverityWarn},
		{"unknown message", restError(http.StatusNotFound, discordgo.ErrCodeUnknownMessage), SeverityDebug},
		{"unknown channel", restError(http.StatusNotFound, discordgo.ErrCodeUnknownChannel), SeverityDebug},
		{"bare 403", restError(http.StatusForbidden, 0), SeverityWarn},
		{"bare 404", restError(http.StatusNotFound, 0), SeverityDebug},
		{"server error", restError(http.StatusInternalServerError, 0), SeverityError},
		{"rate limited", &discordgo.RateLimitError{RateLimit: &discordgo.RateLimit{}}, SeverityWarn},
		{"plain error", errors.New("network down"), SeverityError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.err); got != tt.want {
				t.Errorf("Classify() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLimiterRollingWindow(t *testing.T) {
	l := NewLimiter(2, time.Second)
	now := time.Unix(0, 0)
	l.now = func() time.Time { return now }

	if l.reserve() != 0 || l.reserve() != 0 {
		t.Fatal("first two sends should be admitted")
	}
	if wait := l.reserve(); wait != time.Second {
		t.Fatalf("third send wait = %v, want 1s", wait)
	}

	now = now.Add(400 * time.Millisecond)
	if wait := l.reserve(); wait != 600*time.Millisecond {
		t.Fatalf("wait after 400ms = %v, want 600ms", wait)
	}

	now = now.Add(600 * time.Millisecond)
	if wait := l.reserve(); wait != 0 {
		t.Fatalf("send after window = %v, want admitted", wait)
	}
}

func TestLimiterBlocksUntilCapacity(t *testing.T) {
	l := NewLimiter(1, 30*time.Millisecond)
	ctx := context.Background()

	start := time.Now()
	for i := 0; i < 3; i++ {
		if err := l.Wait(ctx); err != nil {
			t.Fatalf("wait %d: %v", i, err)
		}
	}
	if elapsed := time.Since(start); elapsed < 60*time.Millisecond {
		t.Errorf("three sends took %v, want at least 60ms", elapsed)
	}
}

func TestLimiterHonoursContext(t *testing.T) {
	l := NewLimiter(1, time.Hour)
	if err := l.Wait(context.Background()); err != nil {
		t.Fatalf("first wait: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := l.Wait(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("err = %v, want deadline exceeded", err)
	}
}

func TestLimitedMessenger(t *testing.T) {
	l := NewLimiter(1, time.Hour)
	m := &fakeMessenger{}
	lm := Limited(m, l)
	ctx := context.Background()

	if err := lm.Send(ctx, "c", "x"); err != nil {
		t.Fatalf("send: %v", err)
	}
	if err := lm.Delete(ctx, "c", "m"); err != nil {
		t.Fatalf("delete should not be throttled: %v", err)
	}

	short, cancel := context.WithTimeout(ctx, 10*time.Millisecond)
	defer cancel()
	if err := lm.Reply(short, "c", "m", "x"); err == nil {
		t.Error("reply over the limit should block until the context ends")
	}
	if diff := cmp.Diff([]string{"send", "delete"}, m.calls); diff != "" {
		t.Errorf("calls mismatch (-want +got):\n%s", diff)
	}
}
