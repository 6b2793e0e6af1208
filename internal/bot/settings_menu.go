package bot

import (
	"github.com/bwmarrin/discordgo"

	"github.com/fixembed/fixembed-bot/internal/i18n"
	"github.com/fixembed/fixembed-bot/internal/logger"
	"github.com/fixembed/fixembed-bot/internal/model"
	"github.com/fixembed/fixembed-bot/internal/services"
)

func (b *Bot) snapshot(s *discordgo.Session, guildID string) snapshot {
	ids := textChannels(s, guildID)
	enabled := 0
	for _, id := range ids {
		if b.store.ChannelEnabled(id) {
			enabled++
		}
	}
	snap := snapshot{
		Settings:    b.store.GuildSettings(guildID),
		AllChannels: enabled == len(ids),
		Channels:    len(ids),
		Enabled:     enabled,
		Services:    services.Names(),
		Languages:   i18n.Languages(),
	}
	if u := s.State.User; u != nil {
		snap.BotName = u.Username
		snap.BotAvatarURL = u.AvatarURL("")
	}
	return snap
}

// handleSettings opens a new settings menu on its first screen.
func (b *Bot) handleSettings(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.GuildID == "" {
		b.respondEphemeral(s, i, i18n.T(i18n.Fallback, "guild_only"))
		return
	}

	sess := b.sessions.open(i.Interaction)
	embed, rows := render(viewMenu, sess.id, b.snapshot(s, i.GuildID))
	b.sessions.show(sess, viewMenu, rows)

	b.respond(s, i, &discordgo.InteractionResponseData{
		Embeds:     []*discordgo.MessageEmbed{embed},
		Components: rows,
		Flags:      discordgo.MessageFlagsEphemeral,
	})
}

// handleComponent applies one menu interaction and re-renders the screen.
func (b *Bot) handleComponent(s *discordgo.Session, i *discordgo.InteractionCreate) {
	data := i.MessageComponentData()
	id, control, ok := parseCustomID(data.CustomID)
	if !ok {
		return
	}

	sess, ok := b.sessions.touch(id)
	if !ok || sess.guildID != i.GuildID {
		b.showExpired(s, i)
		return
	}

	log := b.log.With(
		logger.String("guild_id", i.GuildID),
		logger.String("control", control),
	)
	v := b.sessions.current(sess)
	var err error

	switch control {
	case ctlMenu:
		if len(data.Values) > 0 {
			if next, ok := parseView(data.Values[0]); ok {
				v = next
			}
		}
	case ctlFixEmbed:
		ids := textChannels(s, i.GuildID)
		err = b.store.SetChannelsEnabled(b.root, ids, !b.store.AllChannelsEnabled(ids))
	case ctlMention:
		_, err = b.store.UpdateGuildSettings(b.root, i.GuildID, func(gs *model.GuildSettings) {
			gs.MentionAuthor = !gs.MentionAuthor
		})
	case ctlDelivery:
		_, err = b.store.UpdateGuildSettings(b.root, i.GuildID, func(gs *model.GuildSettings) {
			gs.DeleteOriginal = !gs.DeleteOriginal
		})
	case ctlServices:
		selected := orderServices(data.Values)
		_, err = b.store.UpdateGuildSettings(b.root, i.GuildID, func(gs *model.GuildSettings) {
			gs.EnabledServices = selected
		})
	case ctlLanguage:
		if len(data.Values) == 1 {
			lang := data.Values[0]
			_, err = b.store.UpdateGuildSettings(b.root, i.GuildID, func(gs *model.GuildSettings) {
				gs.Language = lang
			})
		}
	default:
		log.Warn("unknown settings control")
	}

	snap := b.snapshot(s, i.GuildID)
	embed, rows := render(v, sess.id, snap)
	if err != nil {
		log.Error("settings update failed", logger.Error(err))
		embed.Description = i18n.T(snap.Settings.Language, "store_failed")
	} else if control == ctlServices {
		log.Info("enabled services changed", logger.Strings("services", snap.Settings.EnabledServices))
		embed.Description = i18n.T(snap.Settings.Language, "services_saved")
	}
	b.sessions.show(sess, v, rows)

	b.update(s, i, embed, rows)
}

func (b *Bot) update(s *discordgo.Session, i *discordgo.InteractionCreate, embed *discordgo.MessageEmbed, rows []discordgo.MessageComponent) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseUpdateMessage,
		Data: &discordgo.InteractionResponseData{
			Embeds:     []*discordgo.MessageEmbed{embed},
			Components: rows,
		},
	}, discordgo.WithContext(b.root))
	if err != nil {
		b.log.Warn("settings menu update failed", logger.String("guild_id", i.GuildID), logger.Error(err))
	}
}

// showExpired answers a click on a menu that no longer has a session.
func (b *Bot) showExpired(s *discordgo.Session, i *discordgo.InteractionCreate) {
	var rows []discordgo.MessageComponent
	if i.Message != nil {
		rows = disableComponents(i.Message.Components)
	}
	embed := &discordgo.MessageEmbed{
		Title:       i18n.T(b.lang(i), "settings_title"),
		Description: i18n.T(b.lang(i), "settings_expired"),
		Color:       colorRed,
	}
	b.update(s, i, embed, rows)
}

// expireSettings disables the components of an idle menu.
func (b *Bot) expireSettings(sess *settingsSession) {
	rows := disableComponents(b.sessions.shown(sess))
	_, err := b.session.InteractionResponseEdit(sess.interaction, &discordgo.WebhookEdit{Components: &rows})
	if err != nil {
		b.log.Debug("disable expired settings menu", logger.String("guild_id", sess.guildID), logger.Error(err))
	}
}

// orderServices keeps the selected names in registry order and drops
// anything unknown. The result is never nil.
func orderServices(selected []string) []string {
	picked := make(map[string]bool, len(selected))
	for _, name := range selected {
		picked[name] = true
	}
	out := []string{}
	for _, name := range services.Names() {
		if picked[name] {
			out = append(out, name)
		}
	}
	return out
}
