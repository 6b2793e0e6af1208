package bot

import (
	"strings"

	"github.com/bwmarrin/discordgo"
)

const (
	cmdActivate   = "activate"
	cmdDeactivate = "deactivate"
	cmdAbout      = "about"
	cmdSettings   = "settings"
	cmdOwner      = "owner"
	cmdFix        = "fix"
	cmdFixMessage = "Fix Embeds"

	optChannel     = "channel"
	optAllChannels = "all_channels"
	optLink        = "link"
)

func commands() []*discordgo.ApplicationCommand {
	manageChannels := int64(discordgo.PermissionManageChannels)
	manageGuild := int64(discordgo.PermissionManageServer)

	toggle := func(name, verb string) *discordgo.ApplicationCommand {
		return &discordgo.ApplicationCommand{
			Name:                     name,
			Description:              verb + " link processing in this channel or another channel",
			DefaultMemberPermissions: &manageChannels,
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:         discordgo.ApplicationCommandOptionChannel,
					Name:         optChannel,
					Description:  "The channel to " + strings.ToLower(verb) + " link processing in (leave blank for current channel)",
					ChannelTypes: []discordgo.ChannelType{discordgo.ChannelTypeGuildText},
				},
				{
					Type:        discordgo.ApplicationCommandOptionBoolean,
					Name:        optAllChannels,
					Description: verb + " link processing in every text channel",
				},
			},
		}
	}

	return []*discordgo.ApplicationCommand{
		toggle(cmdActivate, "Activate"),
		toggle(cmdDeactivate, "Deactivate"),
		{
			Name:        cmdAbout,
			Description: "Show information about the bot or a specific channel",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:         discordgo.ApplicationCommandOptionChannel,
					Name:         optChannel,
					Description:  "The channel to show information about",
					ChannelTypes: []discordgo.ChannelType{discordgo.ChannelTypeGuildText},
				},
			},
		},
		{
			Name:                     cmdSettings,
			Description:              "Configure FixEmbed's settings",
			DefaultMemberPermissions: &manageGuild,
		},
		{
			Name:        cmdOwner,
			Description: "Owner-only command: lists guilds the bot is in",
		},
		{
			Name:        cmdFix,
			Description: "Convert a single link to its embed-friendly mirror",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        optLink,
					Description: "The link to convert",
					Required:    true,
				},
			},
		},
		{
			Name: cmdFixMessage,
			Type: discordgo.MessageApplicationCommand,
		},
	}
}
