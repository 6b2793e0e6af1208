// Package delivery decides what the bot does with the links found in a
// message and carries that decision out against the chat platform.
package delivery

import (
	"strings"

	"github.com/fixembed/fixembed-bot/internal/i18n"
	"github.com/fixembed/fixembed-bot/internal/links"
	"github.com/fixembed/fixembed-bot/internal/model"
)

// Action is the terminal state of one inbound message.
type Action int

const (
	NoAction Action = iota
	RepostDelete
	ReplyKeep
)

func (a Action) String() string {
	switch a {
	case RepostDelete:
		return "repost_delete"
	case ReplyKeep:
		return "reply_keep"
	default:
		return "no_action"
	}
}

// Author identifies who posted the original message.
type Author struct {
	ID   string
	Name string
}

// Plan is the outcome of Decide.
type Plan struct {
	Action  Action
	Links   []links.Resolved
	Content string
}

// Decide filters resolved links by the guild's enabled services and picks
// the delivery action. Direct messages have no guild configuration: every
// service counts as enabled, the original is replaced and no attribution
// is added.
func Decide(resolved []links.Resolved, gs model.GuildSettings, author Author, dm bool) Plan {
	if dm {
		if len(resolved) == 0 {
			return Plan{Action: NoAction}
		}
		return Plan{Action: RepostDelete, Links: resolved, Content: Render(resolved, "")}
	}

	kept := make([]links.Resolved, 0, len(resolved))
	for _, l := range resolved {
		if gs.ServiceEnabled(l.Service.Name) {
			kept = append(kept, l)
		}
	}
	if len(kept) == 0 {
		return Plan{Action: NoAction}
	}

	if !gs.DeleteOriginal {
		return Plan{Action: ReplyKeep, Links: kept, Content: Render(kept, "")}
	}
	return Plan{Action: RepostDelete, Links: kept, Content: Render(kept, attribution(gs, author))}
}

// Render writes one "[label](url)" line per link. A non-empty suffix is
// appended to the last line after " | ".
func Render(resolved []links.Resolved, suffix string) string {
	var b strings.Builder
	for i, l := range resolved {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(l.Markdown())
	}
	if suffix != "" && b.Len() > 0 {
		b.WriteString(" | ")
		b.WriteString(suffix)
	}
	return b.String()
}

func attribution(gs model.GuildSettings, author Author) string {
	who := author.Name
	if gs.MentionAuthor && author.ID != "" {
		who = "<@" + author.ID + ">"
	}
	if who == "" {
		return ""
	}
	return i18n.T(gs.Language, "sent_by", who)
}
