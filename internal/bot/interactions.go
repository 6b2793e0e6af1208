package bot

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/fixembed/fixembed-bot/internal/fixer"
	"github.com/fixembed/fixembed-bot/internal/i18n"
	"github.com/fixembed/fixembed-bot/internal/logger"
)

func (b *Bot) onInteractionCreate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		name := i.ApplicationCommandData().Name
		b.metrics.CommandHandled(name)
		switch name {
		case cmdActivate:
			b.handleToggle(s, i, true)
		case cmdDeactivate:
			b.handleToggle(s, i, false)
		case cmdAbout:
			b.handleAbout(s, i)
		case cmdOwner:
			b.handleOwner(s, i)
		case cmdSettings:
			b.handleSettings(s, i)
		case cmdFix:
			b.handleFix(s, i)
		case cmdFixMessage:
			b.handleFixMessage(s, i)
		}
	case discordgo.InteractionMessageComponent:
		b.metrics.CommandHandled("component")
		b.handleComponent(s, i)
	}
}

// lang is the language replies to this interaction use.
func (b *Bot) lang(i *discordgo.InteractionCreate) string {
	if i.GuildID == "" {
		return i18n.Fallback
	}
	return b.store.GuildSettings(i.GuildID).Language
}

func (b *Bot) respond(s *discordgo.Session, i *discordgo.InteractionCreate, data *discordgo.InteractionResponseData) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: data,
	}, discordgo.WithContext(b.root))
	if err != nil {
		b.log.Warn("interaction response failed", logger.String("guild_id", i.GuildID), logger.Error(err))
	}
}

func (b *Bot) respondEphemeral(s *discordgo.Session, i *discordgo.InteractionCreate, content string) {
	b.respond(s, i, &discordgo.InteractionResponseData{
		Content: content,
		Flags:   discordgo.MessageFlagsEphemeral,
	})
}

// handleToggle serves /activate and /deactivate.
func (b *Bot) handleToggle(s *discordgo.Session, i *discordgo.InteractionCreate, enabled bool) {
	lang := b.lang(i)
	if i.GuildID == "" {
		b.respondEphemeral(s, i, i18n.T(lang, "guild_only"))
		return
	}

	channelID := i.ChannelID
	all := false
	for _, opt := range i.ApplicationCommandData().Options {
		switch opt.Name {
		case optChannel:
			channelID = opt.Value.(string)
		case optAllChannels:
			all = opt.BoolValue()
		}
	}

	var (
		err    error
		target = fmt.Sprintf("<#%s>", channelID)
	)
	if all {
		err = b.store.SetChannelsEnabled(b.root, textChannels(s, i.GuildID), enabled)
		target = i18n.T(lang, "all_channels")
	} else {
		err = b.store.SetChannelEnabled(b.root, channelID, enabled)
	}
	if err != nil {
		b.log.Error("update channel state",
			logger.String("guild_id", i.GuildID),
			logger.String("channel_id", channelID),
			logger.Bool("all", all),
			logger.Error(err))
		b.respondEphemeral(s, i, i18n.T(lang, "store_failed"))
		return
	}

	embed := &discordgo.MessageEmbed{Footer: b.footer()}
	if s.State.User != nil {
		embed.Title = s.State.User.Username
	}
	if enabled {
		embed.Description = i18n.T(lang, "activated", target)
		embed.Color = colorOK
	} else {
		embed.Description = i18n.T(lang, "deactivated", target)
		embed.Color = colorRed
	}
	b.respond(s, i, &discordgo.InteractionResponseData{Embeds: []*discordgo.MessageEmbed{embed}})
}

func (b *Bot) handleOwner(s *discordgo.Session, i *discordgo.InteractionCreate) {
	lang := b.lang(i)
	u := interactionUser(i)
	if b.opts.OwnerID == "" || u == nil || u.ID != b.opts.OwnerID {
		b.respondEphemeral(s, i, i18n.T(lang, "not_authorized"))
		return
	}

	var sb strings.Builder
	for _, g := range s.State.Guilds {
		fmt.Fprintf(&sb, "%s (ID: %s)\n", g.Name, g.ID)
	}
	if sb.Len() == 0 {
		sb.WriteString(i18n.T(lang, "no_guilds"))
	}
	b.respondEphemeral(s, i, sb.String())
}

// handleFix converts one link given as a command option.
func (b *Bot) handleFix(s *discordgo.Session, i *discordgo.InteractionCreate) {
	lang := b.lang(i)
	if !b.allowConversion(i) {
		b.respondEphemeral(s, i, i18n.T(lang, "fix_cooldown"))
		return
	}

	raw := ""
	for _, opt := range i.ApplicationCommandData().Options {
		if opt.Name == optLink {
			raw = opt.StringValue()
		}
	}
	r, ok := fixer.ConvertLink(raw)
	if !ok {
		b.respondEphemeral(s, i, i18n.T(lang, "fix_none"))
		return
	}
	b.respond(s, i, &discordgo.InteractionResponseData{Content: r.Markdown()})
}

// handleFixMessage converts every link of the targeted message.
func (b *Bot) handleFixMessage(s *discordgo.Session, i *discordgo.InteractionCreate) {
	lang := b.lang(i)
	if !b.allowConversion(i) {
		b.respondEphemeral(s, i, i18n.T(lang, "fix_cooldown"))
		return
	}

	data := i.ApplicationCommandData()
	var content string
	if data.Resolved != nil {
		if m, ok := data.Resolved.Messages[data.TargetID]; ok && m != nil {
			content = m.Content
		}
	}
	text, n := fixer.ConvertMessage(content)
	if n == 0 {
		b.respondEphemeral(s, i, i18n.T(lang, "fix_none"))
		return
	}
	b.respond(s, i, &discordgo.InteractionResponseData{Content: text})
}

func (b *Bot) allowConversion(i *discordgo.InteractionCreate) bool {
	u := interactionUser(i)
	if u == nil {
		return false
	}
	return b.cooldowns.allow(u.ID)
}
