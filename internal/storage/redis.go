package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/fixembed/fixembed-bot/internal/model"
)

// DefaultRedisPrefix namespaces every key written by the Redis backend.
const DefaultRedisPrefix = "fixembed:"

// Redis implements Storage on top of a Redis server. Channel flags live in
// one hash; each guild has its own hash plus membership in an index set.
type Redis struct {
	client *redis.Client
	prefix string
}

// NewRedis wraps an already connected client.
func NewRedis(client *redis.Client, prefix string) *Redis {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &Redis{client: client, prefix: prefix}
}

func (r *Redis) channelsKey() string { return r.prefix + "channels" }
func (r *Redis) guildsKey() string   { return r.prefix + "guilds" }

func (r *Redis) guildKey(id string) string { return r.prefix + "guild:" + id }

// Close closes the client.
func (r *Redis) Close() error {
	return r.client.Close()
}

// Ping checks that the server answers.
func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// LoadChannelStates returns every stored channel flag.
func (r *Redis) LoadChannelStates(ctx context.Context) (map[string]bool, error) {
	raw, err := r.client.HGetAll(ctx, r.channelsKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("load channel states: %w", err)
	}
	out := make(map[string]bool, len(raw))
	for id, v := range raw {
		out[id] = v == "1"
	}
	return out, nil
}

// LoadGuildSettings returns the settings of every indexed guild.
func (r *Redis) LoadGuildSettings(ctx context.Context) (map[string]model.GuildSettings, error) {
	ids, err := r.client.SMembers(ctx, r.guildsKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("list guilds: %w", err)
	}

	pipe := r.client.Pipeline()
	cmds := make(map[string]*redis.MapStringStringCmd, len(ids))
	for _, id := range ids {
		cmds[id] = pipe.HGetAll(ctx, r.guildKey(id))
	}
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("load guild settings: %w", err)
	}

	out := make(map[string]model.GuildSettings, len(ids))
	for id, cmd := range cmds {
		fields := cmd.Val()
		if len(fields) == 0 {
			continue
		}
		out[id] = guildFromHash(fields)
	}
	return out, nil
}

// SaveChannelState stores one channel flag.
func (r *Redis) SaveChannelState(ctx context.Context, channelID string, enabled bool) error {
	if err := r.client.HSet(ctx, r.channelsKey(), channelID, boolToInt(enabled)).Err(); err != nil {
		return classifyRedis(fmt.Errorf("save channel state: %w", err))
	}
	return nil
}

// SaveGuildSettings writes the full settings hash and indexes the guild in
// one transaction.
func (r *Redis) SaveGuildSettings(ctx context.Context, guildID string, gs model.GuildSettings) error {
	services, err := encodeServices(gs.EnabledServices)
	if err != nil {
		return fmt.Errorf("encode services: %w", err)
	}
	_, err = r.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.HSet(ctx, r.guildKey(guildID),
			"enabled_services", services,
			"mention_users", boolToInt(gs.MentionAuthor),
			"delete_original", boolToInt(gs.DeleteOriginal),
			"language", gs.Language,
		)
		p.SAdd(ctx, r.guildsKey(), guildID)
		return nil
	})
	if err != nil {
		return classifyRedis(fmt.Errorf("save guild settings: %w", err))
	}
	return nil
}

func guildFromHash(fields map[string]string) model.GuildSettings {
	gs := model.GuildSettings{
		EnabledServices: decodeServices(fields["enabled_services"]),
		MentionAuthor:   true,
		DeleteOriginal:  true,
		Language:        model.DefaultLanguage,
	}
	if v, ok := fields["mention_users"]; ok {
		gs.MentionAuthor = parseFlag(v)
	}
	if v, ok := fields["delete_original"]; ok {
		gs.DeleteOriginal = parseFlag(v)
	}
	if v := fields["language"]; v != "" {
		gs.Language = v
	}
	return gs
}

func parseFlag(v string) bool {
	b, err := strconv.ParseBool(v)
	return err == nil && b
}

// classifyRedis marks timeouts, connection failures and transient server
// replies as ErrBusy.
func classifyRedis(err error) error {
	var ne net.Error
	switch {
	case errors.As(err, &ne),
		errors.Is(err, io.EOF),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, redis.ErrPoolTimeout),
		redis.IsLoadingError(err),
		redis.IsTryAgainError(err),
		redis.IsMasterDownError(err),
		redis.IsMaxClientsError(err),
		redis.HasErrorPrefix(err, "BUSY "):
		return fmt.Errorf("%w: %w", ErrBusy, err)
	}
	return err
}
