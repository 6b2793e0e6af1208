package i18n

import (
	"strings"
	"testing"
)

func TestT(t *testing.T) {
	tests := []struct {
		lang, key string
		args      []any
		want      string
	}{
		{"en", "sent_by", []any{"<@1>"}, "Sent by <@1>"},
		{"fr", "sent_by", []any{"bob"}, "Envoyé par bob"},
		{"xx", "sent_by", []any{"bob"}, "Sent by bob"},
		{"de", "opt_debug", nil, "Debug"},
		{"en", "no_such_key", nil, "no_such_key"},
	}
	for _, tt := range tests {
		if got := T(tt.lang, tt.key, tt.args...); got != tt.want {
			t.Errorf("T(%q, %q) = %q, want %q", tt.lang, tt.key, got, tt.want)
		}
	}
}

func TestLanguages(t *testing.T) {
	langs := Languages()
	if len(langs) < 2 {
		t.Fatalf("got %d languages", len(langs))
	}
	for i := 1; i < len(langs); i++ {
		if langs[i-1].Code >= langs[i].Code {
			t.Errorf("languages not sorted: %v", langs)
		}
	}
	for _, l := range langs {
		if l.Name == "" {
			t.Errorf("%s has no display name", l.Code)
		}
		if !Supported(l.Code) {
			t.Errorf("Supported(%q) = false", l.Code)
		}
	}
	if Supported("xx") {
		t.Error("Supported(xx) = true")
	}
}

// Translations must take the same verbs as the English message.
func TestPlaceholdersMatchFallback(t *testing.T) {
	base := catalog[Fallback].Messages
	for code, l := range catalog {
		for key, msg := range l.Messages {
			en, ok := base[key]
			if !ok {
				t.Errorf("%s: key %q missing from %s", code, key, Fallback)
				continue
			}
			if strings.Count(msg, "%s") != strings.Count(en, "%s") {
				t.Errorf("%s: %q has different placeholders than %s", code, key, Fallback)
			}
		}
	}
}
