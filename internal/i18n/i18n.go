// Package i18n renders user-facing strings in a guild's language.
package i18n

import (
	"embed"
	"fmt"
	"path"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Fallback is used for unknown languages and missing keys.
const Fallback = "en"

//go:embed locales/*.yaml
var localeFS embed.FS

type locale struct {
	Name     string            `yaml:"name"`
	Messages map[string]string `yaml:"messages"`
}

// Language is one selectable locale.
type Language struct {
	Code string
	Name string
}

var catalog = mustLoad()

func mustLoad() map[string]locale {
	c, err := load()
	if err != nil {
		panic(err)
	}
	return c
}

func load() (map[string]locale, error) {
	entries, err := localeFS.ReadDir("locales")
	if err != nil {
		return nil, fmt.Errorf("read locales: %w", err)
	}
	out := make(map[string]locale, len(entries))
	for _, e := range entries {
		raw, err := localeFS.ReadFile(path.Join("locales", e.Name()))
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", e.Name(), err)
		}
		var l locale
		if err := yaml.Unmarshal(raw, &l); err != nil {
			return nil, fmt.Errorf("parse %s: %w", e.Name(), err)
		}
		out[strings.TrimSuffix(e.Name(), ".yaml")] = l
	}
	if _, ok := out[Fallback]; !ok {
		return nil, fmt.Errorf("locale %q missing", Fallback)
	}
	return out, nil
}

// Supported reports whether code has a catalogue.
func Supported(code string) bool {
	_, ok := catalog[code]
	return ok
}

// Languages lists the available locales sorted by code.
func Languages() []Language {
	out := make([]Language, 0, len(catalog))
	for code, l := range catalog {
		out = append(out, Language{Code: code, Name: l.Name})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

// T returns the message for key in lang, formatted with args.
func T(lang, key string, args ...any) string {
	msg, ok := catalog[lang].Messages[key]
	if !ok {
		msg, ok = catalog[Fallback].Messages[key]
	}
	if !ok {
		return key
	}
	if len(args) == 0 {
		return msg
	}
	return fmt.Sprintf(msg, args...)
}
