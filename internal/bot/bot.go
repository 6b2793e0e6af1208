// Package bot connects the link fixer and the settings store to Discord:
// gateway events, slash commands and the interactive settings menu.
package bot

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/fixembed/fixembed-bot/internal/fixer"
	"github.com/fixembed/fixembed-bot/internal/logger"
	"github.com/fixembed/fixembed-bot/internal/settings"
	"github.com/fixembed/fixembed-bot/internal/version"
)

// Intents the bot needs: guild and message events plus message content.
const Intents = discordgo.IntentsGuildMessages |
	discordgo.IntentsDirectMessages |
	discordgo.IntentsMessageContent |
	discordgo.IntentsGuilds

// Options tune the interactive surface.
type Options struct {
	OwnerID         string
	StatusInterval  time.Duration
	SettingsTimeout time.Duration
	FixEvery        time.Duration
	FixBurst        int
}

// CommandRecorder counts handled commands and components.
type CommandRecorder interface {
	CommandHandled(name string)
}

type noopRecorder struct{}

func (noopRecorder) CommandHandled(string) {}

type Bot struct {
	session *discordgo.Session
	store   *settings.Store
	fixer   *fixer.Fixer
	log     logger.Logger
	metrics CommandRecorder
	opts    Options

	cooldowns *cooldowns
	sessions  *sessions

	registered sync.Map // guild id -> struct{}, commands synced
	ready      atomic.Bool

	// root is the context handlers run under, set by Run.
	root context.Context
}

func New(session *discordgo.Session, store *settings.Store, fx *fixer.Fixer, log logger.Logger, rec CommandRecorder, opts Options) *Bot {
	if log == nil {
		log = logger.Nop()
	}
	if rec == nil {
		rec = noopRecorder{}
	}
	b := &Bot{
		session:   session,
		store:     store,
		fixer:     fx,
		log:       log,
		metrics:   rec,
		opts:      opts,
		cooldowns: newCooldowns(opts.FixEvery, opts.FixBurst),
		root:      context.Background(),
	}
	b.sessions = newSessions(opts.SettingsTimeout, b.expireSettings)
	return b
}

// Run opens the gateway and blocks until ctx ends. The settings store must
// already be loaded.
func (b *Bot) Run(ctx context.Context) error {
	if !b.store.Loaded() {
		return errors.New("settings store not loaded")
	}
	b.root = ctx

	b.session.Identify.Intents = Intents
	b.session.AddHandler(b.onReady)
	b.session.AddHandler(b.onMessageCreate)
	b.session.AddHandler(b.onGuildCreate)
	b.session.AddHandler(b.onInteractionCreate)

	if err := b.session.Open(); err != nil {
		return fmt.Errorf("open gateway: %w", err)
	}
	b.log.Info("gateway connected")

	go b.rotatePresence(ctx, b.opts.StatusInterval)
	go b.cooldowns.cleanupLoop(ctx, 5*time.Minute, 10*time.Minute)

	<-ctx.Done()

	b.ready.Store(false)
	b.sessions.closeAll()
	if err := b.session.Close(); err != nil {
		return fmt.Errorf("close gateway: %w", err)
	}
	b.log.Info("gateway closed")
	return nil
}

// Ready reports an error until the gateway has delivered its Ready event.
func (b *Bot) Ready(context.Context) error {
	if !b.ready.Load() {
		return errors.New("gateway not ready")
	}
	return nil
}

func (b *Bot) onReady(s *discordgo.Session, r *discordgo.Ready) {
	b.log.Info("logged in",
		logger.String("user", r.User.Username),
		logger.Int("guilds", len(r.Guilds)))

	synced := 0
	for _, g := range r.Guilds {
		if b.syncCommands(s, g.ID) {
			synced++
		}
	}
	b.log.Info("commands synchronized", logger.Int("guilds", synced))
	b.ready.Store(true)
}

// syncCommands replaces the guild's commands with ours once per process.
func (b *Bot) syncCommands(s *discordgo.Session, guildID string) bool {
	if _, done := b.registered.LoadOrStore(guildID, struct{}{}); done {
		return false
	}
	if _, err := s.ApplicationCommandBulkOverwrite(s.State.User.ID, guildID, commands(), discordgo.WithContext(b.root)); err != nil {
		b.registered.Delete(guildID)
		b.log.Warn("failed to sync commands", logger.String("guild_id", guildID), logger.Error(err))
		return false
	}
	return true
}

func (b *Bot) onGuildCreate(s *discordgo.Session, g *discordgo.GuildCreate) {
	if g.Guild == nil || g.ID == "" || g.Unavailable {
		return
	}
	if err := b.store.OnGuildJoin(b.root, g.ID); err != nil {
		b.log.Error("store default guild settings", logger.String("guild_id", g.ID), logger.Error(err))
	}
	b.syncCommands(s, g.ID)
}

func (b *Bot) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil {
		return
	}
	if s.State.User != nil && m.Author.ID == s.State.User.ID {
		return
	}
	b.fixer.Handle(b.root, fixer.Message{
		ID:         m.ID,
		ChannelID:  m.ChannelID,
		GuildID:    m.GuildID,
		Content:    m.Content,
		AuthorID:   m.Author.ID,
		AuthorName: m.Author.Username,
		AuthorBot:  m.Author.Bot,
	})
}

// textChannels lists the ids of the guild's text channels known to the
// state cache.
func textChannels(s *discordgo.Session, guildID string) []string {
	g, err := s.State.Guild(guildID)
	if err != nil {
		return nil
	}
	ids := make([]string, 0, len(g.Channels))
	for _, ch := range g.Channels {
		if ch.Type == discordgo.ChannelTypeGuildText {
			ids = append(ids, ch.ID)
		}
	}
	return ids
}

func footerText(botName string) string {
	return fmt.Sprintf("%s | v%s", botName, version.Version)
}

func (b *Bot) footer() *discordgo.MessageEmbedFooter {
	u := b.session.State.User
	if u == nil {
		return nil
	}
	return &discordgo.MessageEmbedFooter{Text: footerText(u.Username), IconURL: u.AvatarURL("")}
}

func interactionUser(i *discordgo.InteractionCreate) *discordgo.User {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User
	}
	return i.User
}
