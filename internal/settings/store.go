// Package settings owns the per-guild and per-channel configuration.
//
// The Store keeps every row in memory and is the only writer to the durable
// backend. Reads never touch the backend; writes go to the backend first and
// update the cache only once the write succeeded.
package settings

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/fixembed/fixembed-bot/internal/logger"
	"github.com/fixembed/fixembed-bot/internal/model"
	"github.com/fixembed/fixembed-bot/internal/storage"
)

// ErrInvalidSettings is returned for a settings tuple that is incomplete or
// names something unknown.
var ErrInvalidSettings = errors.New("invalid guild settings")

// RetryRecorder counts retried writes.
type RetryRecorder interface {
	StoreRetry(op string)
}

type noopRecorder struct{}

func (noopRecorder) StoreRetry(string) {}

// Store caches channel states and guild settings in front of a Storage.
type Store struct {
	backend  storage.Storage
	services []string
	known    map[string]bool
	language func(string) bool

	attempts int
	delay    time.Duration

	log     logger.Logger
	metrics RetryRecorder

	mu       sync.RWMutex
	channels map[string]bool
	guilds   map[string]model.GuildSettings

	locks  keyLocks
	loaded atomic.Bool
}

// Option customises a Store.
type Option func(*Store)

// WithRetry sets the attempt budget and the fixed delay between attempts
// for writes that fail with storage.ErrBusy.
func WithRetry(attempts int, delay time.Duration) Option {
	return func(s *Store) {
		if attempts > 0 {
			s.attempts = attempts
		}
		s.delay = delay
	}
}

// WithLanguages restricts the accepted language codes.
func WithLanguages(supported func(string) bool) Option {
	return func(s *Store) { s.language = supported }
}

func WithLogger(l logger.Logger) Option {
	return func(s *Store) { s.log = l }
}

func WithMetrics(r RetryRecorder) Option {
	return func(s *Store) { s.metrics = r }
}

// New builds a Store over backend. services is the full list of registered
// service names, used as the default enabled set and for validation.
func New(backend storage.Storage, services []string, opts ...Option) *Store {
	s := &Store{
		backend:  backend,
		services: append([]string(nil), services...),
		known:    make(map[string]bool, len(services)),
		language: func(l string) bool { return l != "" },
		attempts: 5,
		delay:    100 * time.Millisecond,
		log:      logger.Nop(),
		metrics:  noopRecorder{},
		channels: make(map[string]bool),
		guilds:   make(map[string]model.GuildSettings),
		locks:    keyLocks{m: make(map[string]*sync.Mutex)},
	}
	for _, name := range services {
		s.known[name] = true
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Load reads every stored channel state and guild setting into memory. It
// must complete before the bot starts handling messages.
func (s *Store) Load(ctx context.Context) error {
	channels, err := s.backend.LoadChannelStates(ctx)
	if err != nil {
		return fmt.Errorf("load channel states: %w", err)
	}
	guilds, err := s.backend.LoadGuildSettings(ctx)
	if err != nil {
		return fmt.Errorf("load guild settings: %w", err)
	}
	for id, gs := range guilds {
		guilds[id] = s.normalize(gs)
	}

	s.mu.Lock()
	s.channels = channels
	s.guilds = guilds
	s.mu.Unlock()
	s.loaded.Store(true)

	s.log.Info("settings loaded",
		logger.Int("channels", len(channels)),
		logger.Int("guilds", len(guilds)))
	return nil
}

// Loaded reports whether Load has completed.
func (s *Store) Loaded() bool {
	return s.loaded.Load()
}

// Defaults returns the settings of a guild that never changed anything.
func (s *Store) Defaults() model.GuildSettings {
	return model.DefaultGuildSettings(s.services)
}

// ChannelEnabled reports whether link fixing is on in a channel. Channels
// without a stored state are enabled.
func (s *Store) ChannelEnabled(channelID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	enabled, ok := s.channels[channelID]
	return !ok || enabled
}

// AllChannelsEnabled reports whether every channel in ids is enabled.
func (s *Store) AllChannelsEnabled(ids []string) bool {
	for _, id := range ids {
		if !s.ChannelEnabled(id) {
			return false
		}
	}
	return true
}

// SetChannelEnabled persists a channel flag and then updates the cache.
func (s *Store) SetChannelEnabled(ctx context.Context, channelID string, enabled bool) error {
	unlock := s.locks.lock("channel:" + channelID)
	defer unlock()

	err := s.persist(ctx, "save_channel", func(ctx context.Context) error {
		return s.backend.SaveChannelState(ctx, channelID, enabled)
	})
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.channels[channelID] = enabled
	s.mu.Unlock()
	return nil
}

// SetChannelsEnabled applies the same flag to several channels. Every
// channel is attempted; the failures are joined.
func (s *Store) SetChannelsEnabled(ctx context.Context, ids []string, enabled bool) error {
	var errs []error
	for _, id := range ids {
		if err := s.SetChannelEnabled(ctx, id, enabled); err != nil {
			errs = append(errs, fmt.Errorf("channel %s: %w", id, err))
		}
	}
	return errors.Join(errs...)
}

// GuildSettings returns a copy of the guild's settings, or the defaults
// when the guild has none.
func (s *Store) GuildSettings(guildID string) model.GuildSettings {
	s.mu.RLock()
	gs, ok := s.guilds[guildID]
	s.mu.RUnlock()
	if !ok {
		return s.Defaults()
	}
	return gs.Clone()
}

// SetGuildSettings validates and persists the full settings tuple.
func (s *Store) SetGuildSettings(ctx context.Context, guildID string, gs model.GuildSettings) error {
	unlock := s.locks.lock("guild:" + guildID)
	defer unlock()
	return s.saveGuild(ctx, guildID, gs)
}

// UpdateGuildSettings applies fn to the current settings and persists the
// result. Concurrent updates of one guild run one after the other, so a
// toggle never overwrites a change it did not see.
func (s *Store) UpdateGuildSettings(ctx context.Context, guildID string, fn func(*model.GuildSettings)) (model.GuildSettings, error) {
	unlock := s.locks.lock("guild:" + guildID)
	defer unlock()

	gs := s.GuildSettings(guildID)
	fn(&gs)
	if err := s.saveGuild(ctx, guildID, gs); err != nil {
		return model.GuildSettings{}, err
	}
	return gs.Clone(), nil
}

// OnGuildJoin stores default settings for a guild seen for the first time.
// It does nothing when the guild already has settings.
func (s *Store) OnGuildJoin(ctx context.Context, guildID string) error {
	unlock := s.locks.lock("guild:" + guildID)
	defer unlock()

	s.mu.RLock()
	_, ok := s.guilds[guildID]
	s.mu.RUnlock()
	if ok {
		return nil
	}
	return s.saveGuild(ctx, guildID, s.Defaults())
}

// saveGuild must be called with the guild's key lock held.
func (s *Store) saveGuild(ctx context.Context, guildID string, gs model.GuildSettings) error {
	if err := s.validate(gs); err != nil {
		return err
	}
	gs = gs.Clone()
	err := s.persist(ctx, "save_guild", func(ctx context.Context) error {
		return s.backend.SaveGuildSettings(ctx, guildID, gs)
	})
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.guilds[guildID] = gs
	s.mu.Unlock()
	return nil
}

func (s *Store) validate(gs model.GuildSettings) error {
	if gs.EnabledServices == nil {
		return fmt.Errorf("%w: enabled services not set", ErrInvalidSettings)
	}
	for _, name := range gs.EnabledServices {
		if !s.known[name] {
			return fmt.Errorf("%w: unknown service %q", ErrInvalidSettings, name)
		}
	}
	if !s.language(gs.Language) {
		return fmt.Errorf("%w: unsupported language %q", ErrInvalidSettings, gs.Language)
	}
	return nil
}

// normalize fills in fields that older rows may lack, drops service names
// that are no longer registered and resets a language that is no longer
// shipped. The result always passes validate.
func (s *Store) normalize(gs model.GuildSettings) model.GuildSettings {
	if gs.EnabledServices == nil {
		gs.EnabledServices = append([]string{}, s.services...)
	} else {
		kept := make([]string, 0, len(gs.EnabledServices))
		for _, name := range gs.EnabledServices {
			if s.known[name] {
				kept = append(kept, name)
			}
		}
		gs.EnabledServices = kept
	}
	if gs.Language == "" || !s.language(gs.Language) {
		gs.Language = model.DefaultLanguage
	}
	return gs
}

// persist runs fn, retrying busy failures with a fixed delay.
func (s *Store) persist(ctx context.Context, op string, fn func(context.Context) error) error {
	backoff := retry.WithMaxRetries(uint64(s.attempts-1), retry.BackoffFunc(func() (time.Duration, bool) {
		return s.delay, false
	}))

	attempt := 0
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		err := fn(ctx)
		if err == nil || !errors.Is(err, storage.ErrBusy) {
			return err
		}
		s.metrics.StoreRetry(op)
		if attempt < s.attempts {
			s.log.Warn("storage busy, retrying",
				logger.String("op", op),
				logger.Int("attempt", attempt),
				logger.Error(err))
		}
		return retry.RetryableError(err)
	})
	if err != nil && errors.Is(err, storage.ErrBusy) {
		return fmt.Errorf("%s failed after %d attempts: %w", op, attempt, err)
	}
	return err
}

// keyLocks hands out one mutex per key.
type keyLocks struct {
	mu sync.Mutex
	m  map[string]*sync.Mutex
}

func (k *keyLocks) lock(key string) func() {
	k.mu.Lock()
	l, ok := k.m[key]
	if !ok {
		l = &sync.Mutex{}
		k.m[key] = l
	}
	k.mu.Unlock()

	l.Lock()
	return l.Unlock
}
