package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/fixembed/fixembed-bot/internal/model"
	"github.com/fixembed/fixembed-bot/migrations"
)

// SQLite implements Storage backed by a SQLite database file.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens the database at dsn and runs pending migrations.
func NewSQLite(dsn string) (*SQLite, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// a single connection keeps writes ordered and lets ":memory:" work
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	if err := migrations.Run(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLite{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// Ping checks that the database answers.
func (s *SQLite) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// LoadChannelStates returns every stored channel flag keyed by channel ID.
func (s *SQLite) LoadChannelStates(ctx context.Context) (map[string]bool, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT channel_id, state FROM channel_states`)
	if err != nil {
		return nil, fmt.Errorf("query channel states: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := make(map[string]bool)
	for rows.Next() {
		var channelID int64
		var state bool
		if err := rows.Scan(&channelID, &state); err != nil {
			return nil, fmt.Errorf("scan channel state: %w", err)
		}
		out[formatID(channelID)] = state
	}
	return out, rows.Err()
}

// LoadGuildSettings returns the settings of every stored guild.
func (s *SQLite) LoadGuildSettings(ctx context.Context) (map[string]model.GuildSettings, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT guild_id, enabled_services, mention_users, delete_original, language FROM guild_settings`)
	if err != nil {
		return nil, fmt.Errorf("query guild settings: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := make(map[string]model.GuildSettings)
	for rows.Next() {
		var guildID int64
		gs, err := scanGuild(rows, &guildID)
		if err != nil {
			return nil, err
		}
		out[formatID(guildID)] = gs
	}
	return out, rows.Err()
}

// SaveChannelState upserts one channel flag.
func (s *SQLite) SaveChannelState(ctx context.Context, channelID string, enabled bool) error {
	id, err := parseID(channelID)
	if err != nil {
		return fmt.Errorf("channel id %q: %w", channelID, err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO channel_states (channel_id, state) VALUES (?, ?)`,
		id, boolToInt(enabled))
	if err != nil {
		return classify(fmt.Errorf("save channel state: %w", err))
	}
	return nil
}

// SaveGuildSettings writes the full settings tuple of a guild.
func (s *SQLite) SaveGuildSettings(ctx context.Context, guildID string, gs model.GuildSettings) error {
	id, err := parseID(guildID)
	if err != nil {
		return fmt.Errorf("guild id %q: %w", guildID, err)
	}
	services, err := encodeServices(gs.EnabledServices)
	if err != nil {
		return fmt.Errorf("encode services: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO guild_settings (guild_id, enabled_services, mention_users, delete_original, language)
		 VALUES (?, ?, ?, ?, ?)`,
		id, services, boolToInt(gs.MentionAuthor), boolToInt(gs.DeleteOriginal), gs.Language)
	if err != nil {
		return classify(fmt.Errorf("save guild settings: %w", err))
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanGuild(row scanner, guildID *int64) (model.GuildSettings, error) {
	var (
		enabledServices sql.NullString
		mentionUsers    sql.NullBool
		deleteOriginal  sql.NullBool
		language        sql.NullString
	)
	if err := row.Scan(guildID, &enabledServices, &mentionUsers, &deleteOriginal, &language); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.GuildSettings{}, err
		}
		return model.GuildSettings{}, fmt.Errorf("scan guild settings: %w", err)
	}

	gs := model.GuildSettings{
		EnabledServices: decodeServices(enabledServices.String),
		MentionAuthor:   true,
		DeleteOriginal:  true,
		Language:        model.DefaultLanguage,
	}
	if mentionUsers.Valid {
		gs.MentionAuthor = mentionUsers.Bool
	}
	if deleteOriginal.Valid {
		gs.DeleteOriginal = deleteOriginal.Bool
	}
	if language.Valid && language.String != "" {
		gs.Language = language.String
	}
	return gs, nil
}

// classify wraps lock contention errors with ErrBusy.
func classify(err error) error {
	var se *sqlite.Error
	if errors.As(err, &se) {
		switch se.Code() & 0xff {
		case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED:
			return fmt.Errorf("%w: %w", ErrBusy, err)
		}
	}
	if strings.Contains(err.Error(), "database is locked") {
		return fmt.Errorf("%w: %w", ErrBusy, err)
	}
	return err
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
