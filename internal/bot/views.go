package bot

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/fixembed/fixembed-bot/internal/i18n"
	"github.com/fixembed/fixembed-bot/internal/model"
)

// view is one screen of the /settings menu. Every screen carries the menu
// select so the user can move between screens; picking a menu entry is the
// only transition besides expiry.
type view int

const (
	viewMenu view = iota
	viewFixEmbed
	viewMention
	viewDelivery
	viewServices
	viewLanguage
	viewDebug
)

// Menu entry values, also used as the view names in logs.
var viewNames = map[view]string{
	viewMenu:     "menu",
	viewFixEmbed: "fixembed",
	viewMention:  "mention",
	viewDelivery: "delivery",
	viewServices: "services",
	viewLanguage: "language",
	viewDebug:    "debug",
}

func (v view) String() string { return viewNames[v] }

func parseView(value string) (view, bool) {
	for v, name := range viewNames {
		if name == value && v != viewMenu {
			return v, true
		}
	}
	return viewMenu, false
}

// Component controls. A custom id is "settings|<session>|<control>".
const (
	customPrefix = "settings"

	ctlMenu     = "menu"
	ctlFixEmbed = "toggle_fixembed"
	ctlMention  = "toggle_mention"
	ctlDelivery = "toggle_delete"
	ctlServices = "service_select"
	ctlLanguage = "language_select"
)

func customID(session, control string) string {
	return customPrefix + "|" + session + "|" + control
}

func parseCustomID(id string) (session, control string, ok bool) {
	parts := strings.Split(id, "|")
	if len(parts) != 3 || parts[0] != customPrefix || parts[1] == "" || parts[2] == "" {
		return "", "", false
	}
	return parts[1], parts[2], true
}

// snapshot is the state a view renders.
type snapshot struct {
	Settings     model.GuildSettings
	AllChannels  bool // every text channel of the guild is enabled
	Channels     int
	Enabled      int
	Services     []string
	Languages    []i18n.Language
	BotName      string
	BotAvatarURL string
}

const (
	colorBlurple = 0x5865F2
	colorGreen   = 0x00ff00
	colorAbout   = 0x7289DA
	colorOK      = 0x78b159
	colorRed     = 0xff0000
)

// render builds the embed and components of v.
func render(v view, session string, snap snapshot) (*discordgo.MessageEmbed, []discordgo.MessageComponent) {
	lang := snap.Settings.Language
	var (
		embed    *discordgo.MessageEmbed
		controls []discordgo.MessageComponent
	)

	switch v {
	case viewFixEmbed:
		embed = &discordgo.MessageEmbed{
			Title:       i18n.T(lang, "opt_fixembed"),
			Description: i18n.T(lang, "fixembed_description"),
			Color:       colorGreen,
		}
		controls = toggleRow(session, ctlFixEmbed, snap.AllChannels, lang)
	case viewMention:
		embed = &discordgo.MessageEmbed{
			Title:       i18n.T(lang, "opt_mention"),
			Description: i18n.T(lang, "mention_description"),
			Color:       colorGreen,
		}
		controls = toggleRow(session, ctlMention, snap.Settings.MentionAuthor, lang)
	case viewDelivery:
		embed = &discordgo.MessageEmbed{
			Title:       i18n.T(lang, "opt_delivery"),
			Description: i18n.T(lang, "delivery_description"),
			Color:       colorGreen,
		}
		controls = toggleRow(session, ctlDelivery, snap.Settings.DeleteOriginal, lang)
	case viewServices:
		embed = &discordgo.MessageEmbed{
			Title:       i18n.T(lang, "opt_services"),
			Description: i18n.T(lang, "services_description"),
			Color:       colorBlurple,
			Fields:      []*discordgo.MessageEmbedField{servicesField(snap, lang)},
		}
		controls = []discordgo.MessageComponent{servicesSelect(session, snap, lang)}
	case viewLanguage:
		embed = &discordgo.MessageEmbed{
			Title:       i18n.T(lang, "opt_language"),
			Description: i18n.T(lang, "language_description"),
			Color:       colorBlurple,
		}
		controls = []discordgo.MessageComponent{languageSelect(session, snap, lang)}
	case viewDebug:
		embed = &discordgo.MessageEmbed{
			Title: i18n.T(lang, "debug_title"),
			Color: colorAbout,
			Fields: []*discordgo.MessageEmbedField{
				servicesField(snap, lang),
				{Name: i18n.T(lang, "field_mention"), Value: fmt.Sprintf("%t", snap.Settings.MentionAuthor), Inline: true},
				{Name: i18n.T(lang, "field_delete"), Value: fmt.Sprintf("%t", snap.Settings.DeleteOriginal), Inline: true},
				{Name: i18n.T(lang, "field_language"), Value: snap.Settings.Language, Inline: true},
				{Name: i18n.T(lang, "debug_channels"), Value: fmt.Sprintf("%d/%d", snap.Enabled, snap.Channels), Inline: true},
			},
		}
	default:
		embed = &discordgo.MessageEmbed{
			Title:       i18n.T(lang, "settings_title"),
			Description: i18n.T(lang, "settings_description"),
			Color:       colorBlurple,
			Fields: []*discordgo.MessageEmbedField{
				servicesField(snap, lang),
				{Name: i18n.T(lang, "field_mention"), Value: fmt.Sprintf("%t", snap.Settings.MentionAuthor)},
				{Name: i18n.T(lang, "field_delete"), Value: fmt.Sprintf("%t", snap.Settings.DeleteOriginal)},
			},
		}
	}

	if snap.BotName != "" {
		embed.Footer = &discordgo.MessageEmbedFooter{Text: footerText(snap.BotName), IconURL: snap.BotAvatarURL}
	}

	rows := make([]discordgo.MessageComponent, 0, 2)
	if len(controls) > 0 {
		rows = append(rows, discordgo.ActionsRow{Components: controls})
	}
	rows = append(rows, discordgo.ActionsRow{Components: []discordgo.MessageComponent{menuSelect(session, snap, lang)}})
	return embed, rows
}

func menuSelect(session string, snap snapshot, lang string) discordgo.SelectMenu {
	option := func(v view, label, desc, emoji string) discordgo.SelectMenuOption {
		return discordgo.SelectMenuOption{
			Label:       i18n.T(lang, label),
			Value:       v.String(),
			Description: i18n.T(lang, desc),
			Emoji:       &discordgo.ComponentEmoji{Name: emoji},
		}
	}
	one := 1
	return discordgo.SelectMenu{
		CustomID:    customID(session, ctlMenu),
		Placeholder: i18n.T(lang, "settings_placeholder"),
		MinValues:   &one,
		MaxValues:   1,
		Options: []discordgo.SelectMenuOption{
			option(viewFixEmbed, "opt_fixembed", "opt_fixembed_desc", pick(snap.AllChannels, "🟢", "🔴")),
			option(viewMention, "opt_mention", "opt_mention_desc", pick(snap.Settings.MentionAuthor, "🔔", "🔕")),
			option(viewDelivery, "opt_delivery", "opt_delivery_desc", pick(snap.Settings.DeleteOriginal, "📬", "📪")),
			option(viewServices, "opt_services", "opt_services_desc", "⚙️"),
			option(viewLanguage, "opt_language", "opt_language_desc", "🌐"),
			option(viewDebug, "opt_debug", "opt_debug_desc", "🐞"),
		},
	}
}

func toggleRow(session, control string, on bool, lang string) []discordgo.MessageComponent {
	btn := discordgo.Button{
		CustomID: customID(session, control),
		Label:    i18n.T(lang, "button_on"),
		Style:    discordgo.SuccessButton,
	}
	if !on {
		btn.Label = i18n.T(lang, "button_off")
		btn.Style = discordgo.DangerButton
	}
	return []discordgo.MessageComponent{btn}
}

// servicesSelect allows an empty selection: a guild may switch every
// service off.
func servicesSelect(session string, snap snapshot, lang string) discordgo.SelectMenu {
	opts := make([]discordgo.SelectMenuOption, 0, len(snap.Services))
	for _, name := range snap.Services {
		opts = append(opts, discordgo.SelectMenuOption{
			Label:   name,
			Value:   name,
			Default: snap.Settings.ServiceEnabled(name),
		})
	}
	zero := 0
	return discordgo.SelectMenu{
		CustomID:    customID(session, ctlServices),
		Placeholder: i18n.T(lang, "services_placeholder"),
		MinValues:   &zero,
		MaxValues:   len(opts),
		Options:     opts,
	}
}

func languageSelect(session string, snap snapshot, lang string) discordgo.SelectMenu {
	opts := make([]discordgo.SelectMenuOption, 0, len(snap.Languages))
	for _, l := range snap.Languages {
		opts = append(opts, discordgo.SelectMenuOption{
			Label:   l.Name,
			Value:   l.Code,
			Default: l.Code == snap.Settings.Language,
		})
	}
	one := 1
	return discordgo.SelectMenu{
		CustomID:    customID(session, ctlLanguage),
		Placeholder: i18n.T(lang, "language_placeholder"),
		MinValues:   &one,
		MaxValues:   1,
		Options:     opts,
	}
}

func servicesField(snap snapshot, lang string) *discordgo.MessageEmbedField {
	var b strings.Builder
	for _, name := range snap.Services {
		fmt.Fprintf(&b, "%s %s\n", pick(snap.Settings.ServiceEnabled(name), "🟢", "🔴"), name)
	}
	return &discordgo.MessageEmbedField{Name: i18n.T(lang, "field_services"), Value: b.String()}
}

// disableComponents returns a copy of rows with every button and select
// disabled, shown once a settings menu expires. Rows decoded from a
// gateway payload hold pointers, rendered rows hold values; both are
// accepted.
func disableComponents(rows []discordgo.MessageComponent) []discordgo.MessageComponent {
	out := make([]discordgo.MessageComponent, 0, len(rows))
	for _, c := range rows {
		var inner []discordgo.MessageComponent
		switch row := c.(type) {
		case discordgo.ActionsRow:
			inner = row.Components
		case *discordgo.ActionsRow:
			inner = row.Components
		default:
			out = append(out, c)
			continue
		}

		disabled := make([]discordgo.MessageComponent, 0, len(inner))
		for _, ic := range inner {
			switch v := ic.(type) {
			case discordgo.Button:
				v.Disabled = true
				disabled = append(disabled, v)
			case *discordgo.Button:
				cp := *v
				cp.Disabled = true
				disabled = append(disabled, cp)
			case discordgo.SelectMenu:
				v.Disabled = true
				disabled = append(disabled, v)
			case *discordgo.SelectMenu:
				cp := *v
				cp.Disabled = true
				disabled = append(disabled, cp)
			default:
				disabled = append(disabled, ic)
			}
		}
		out = append(out, discordgo.ActionsRow{Components: disabled})
	}
	return out
}

func pick(cond bool, yes, no string) string {
	if cond {
		return yes
	}
	return no
}
