// Package model defines the persisted guild and channel settings.
package model

import "slices"

// DefaultLanguage is the locale used when a guild has not picked one.
const DefaultLanguage = "en"

// GuildSettings is the per-guild configuration.
//
// A nil EnabledServices means "not set"; an empty non-nil slice means the
// guild switched every service off.
type GuildSettings struct {
	EnabledServices []string
	MentionAuthor   bool
	DeleteOriginal  bool
	Language        string
}

// DefaultGuildSettings returns the settings a guild starts with.
func DefaultGuildSettings(services []string) GuildSettings {
	enabled := make([]string, len(services))
	copy(enabled, services)
	return GuildSettings{
		EnabledServices: enabled,
		MentionAuthor:   true,
		DeleteOriginal:  true,
		Language:        DefaultLanguage,
	}
}

// ServiceEnabled reports whether name is in the enabled set.
func (g GuildSettings) ServiceEnabled(name string) bool {
	return slices.Contains(g.EnabledServices, name)
}

// Clone returns a copy that does not share the service slice.
func (g GuildSettings) Clone() GuildSettings {
	c := g
	if g.EnabledServices != nil {
		c.EnabledServices = slices.Clone(g.EnabledServices)
	}
	return c
}
