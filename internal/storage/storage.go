// Package storage persists channel states and guild settings.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"

	"github.com/fixembed/fixembed-bot/internal/model"
)

// ErrBusy marks a write that failed because the backend was temporarily
// unavailable (locked database, timeout). Callers may retry it.
var ErrBusy = errors.New("storage busy")

// Storage is the durable backend behind the settings store.
type Storage interface {
	LoadChannelStates(ctx context.Context) (map[string]bool, error)
	LoadGuildSettings(ctx context.Context) (map[string]model.GuildSettings, error)

	SaveChannelState(ctx context.Context, channelID string, enabled bool) error
	SaveGuildSettings(ctx context.Context, guildID string, s model.GuildSettings) error

	Ping(ctx context.Context) error
	Close() error
}

// encodeServices stores the enabled set as a JSON array. An empty set is
// written as "[]" so that it survives a reload.
func encodeServices(names []string) (string, error) {
	if names == nil {
		names = []string{}
	}
	b, err := json.Marshal(names)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// decodeServices parses a stored service list. Besides JSON it accepts the
// bracketed list format written by older releases ("['Twitter', 'Reddit']"),
// which is split on commas rather than evaluated. A blank value returns nil,
// meaning "not set".
func decodeServices(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	var out []string
	if err := json.Unmarshal([]byte(raw), &out); err == nil {
		// "null" leaves out nil, which reads as "not set"
		return out
	}

	s := strings.TrimPrefix(raw, "[")
	s = strings.TrimSuffix(s, "]")
	out = []string{}
	for _, p := range strings.Split(s, ",") {
		q := strings.TrimSpace(p)
		q = strings.Trim(q, `"'`)
		if q != "" {
			out = append(out, q)
		}
	}
	return out
}

// parseID converts a Discord snowflake to the integer key used by SQLite.
func parseID(id string) (int64, error) {
	return strconv.ParseInt(strings.TrimSpace(id), 10, 64)
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}
