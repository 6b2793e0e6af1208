package bot

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/fixembed/fixembed-bot/internal/i18n"
	"github.com/fixembed/fixembed-bot/internal/logger"
)

const quickLinks = "- [Invite FixEmbed](https://discord.com/oauth2/authorize?client_id=1360722454678605914)\n" +
	"- [Star our Source Code on GitHub](https://github.com/ld3z/fixembed-go)"

// credits names the mirror behind every registered service.
const credits = "- [FxTwitter](https://github.com/FixTweet/FxTwitter), created by FixTweet\n" +
	"- [InstaFix](https://github.com/Wikidepia/InstaFix), created by Wikidepia\n" +
	"- [vxReddit](https://github.com/dylanpdx/vxReddit), created by dylanpdx\n" +
	"- [fixthreads](https://github.com/milanmdev/fixthreads), created by milanmdev\n" +
	"- [phixiv](https://github.com/thelaao/phixiv), created by thelaao\n" +
	"- [VixBluesky](https://github.com/Rapougnac/VixBluesky), created by Rapougnac\n" +
	"- [vxtiktok](https://github.com/dylanpdx/vxtiktok), created by dylanpdx\n" +
	"- [koutube](https://github.com/iGerman00/koutube), created by iGerman00"

// channelDebug is what /about reports for one channel.
type channelDebug struct {
	ChannelID   string
	Enabled     bool
	Permissions int64
}

func (d channelDebug) render(lang string) string {
	var b strings.Builder
	if d.Enabled {
		b.WriteString(i18n.T(lang, "status_working", d.ChannelID))
	} else {
		b.WriteString(i18n.T(lang, "status_not_working", d.ChannelID))
	}
	b.WriteByte('\n')
	fmt.Fprintf(&b, "- %s %s\n", pick(d.Enabled, "🟢", "🔴"), i18n.T(lang, pick(d.Enabled, "status_enabled", "status_disabled")))

	perms := []struct {
		bit int64
		key string
	}{
		{discordgo.PermissionViewChannel, "perm_read"},
		{discordgo.PermissionSendMessages, "perm_send"},
		{discordgo.PermissionEmbedLinks, "perm_embed"},
		{discordgo.PermissionManageMessages, "perm_manage"},
	}
	for n, p := range perms {
		fmt.Fprintf(&b, "- %s %s", pick(d.Permissions&p.bit != 0, "🟢", "🔴"), i18n.T(lang, p.key))
		if n < len(perms)-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func (b *Bot) handleAbout(s *discordgo.Session, i *discordgo.InteractionCreate) {
	lang := b.lang(i)

	embed := &discordgo.MessageEmbed{
		Title:       i18n.T(lang, "about_title"),
		Description: i18n.T(lang, "about_description"),
		Color:       colorAbout,
		Footer:      b.footer(),
		Fields: []*discordgo.MessageEmbedField{
			{Name: i18n.T(lang, "ping"), Value: fmt.Sprintf("%d ms", s.HeartbeatLatency().Milliseconds())},
		},
	}

	if i.GuildID != "" {
		channelID := i.ChannelID
		for _, opt := range i.ApplicationCommandData().Options {
			if opt.Name == optChannel {
				channelID = opt.Value.(string)
			}
		}
		d := channelDebug{ChannelID: channelID, Enabled: b.store.ChannelEnabled(channelID)}
		if s.State.User != nil {
			perms, err := s.State.UserChannelPermissions(s.State.User.ID, channelID)
			if err != nil {
				b.log.Debug("permissions not in state cache",
					logger.String("channel_id", channelID), logger.Error(err))
			}
			d.Permissions = perms
		}
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  i18n.T(lang, "about_debug"),
			Value: d.render(lang),
		})
	}

	embed.Fields = append(embed.Fields,
		&discordgo.MessageEmbedField{Name: i18n.T(lang, "about_links"), Value: quickLinks},
		&discordgo.MessageEmbedField{Name: i18n.T(lang, "about_credits"), Value: credits},
	)
	b.respond(s, i, &discordgo.InteractionResponseData{Embeds: []*discordgo.MessageEmbed{embed}})
}
