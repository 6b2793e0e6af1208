// Package fixer runs the per-message pipeline: channel gate, link
// extraction and resolution, filtering by guild settings, delivery.
package fixer

import (
	"context"
	"runtime/debug"

	"github.com/fixembed/fixembed-bot/internal/delivery"
	"github.com/fixembed/fixembed-bot/internal/links"
	"github.com/fixembed/fixembed-bot/internal/logger"
	"github.com/fixembed/fixembed-bot/internal/model"
)

// Message is the part of an inbound chat message the pipeline reads.
type Message struct {
	ID         string
	ChannelID  string
	GuildID    string // empty for direct messages
	Content    string
	AuthorID   string
	AuthorName string
	AuthorBot  bool
}

// Outcome is where a message's pipeline ended.
type Outcome string

const (
	OutcomeIgnored  Outcome = "ignored"
	OutcomeDisabled Outcome = "disabled"
	OutcomeNoLinks  Outcome = "no_links"
	OutcomeNoAction Outcome = "no_action"
	OutcomeRepost   Outcome = "repost_delete"
	OutcomeReply    Outcome = "reply_keep"
	OutcomeFailed   Outcome = "failed"
)

// Settings is the read side of the settings store.
type Settings interface {
	ChannelEnabled(channelID string) bool
	GuildSettings(guildID string) model.GuildSettings
}

type Recorder interface {
	MessageProcessed(outcome string)
	LinkRewritten(service string)
}

type noopRecorder struct{}

func (noopRecorder) MessageProcessed(string) {}
func (noopRecorder) LinkRewritten(string)    {}

type Fixer struct {
	settings Settings
	exec     *delivery.Executor
	log      logger.Logger
	metrics  Recorder
}

func New(settings Settings, exec *delivery.Executor, log logger.Logger, rec Recorder) *Fixer {
	if log == nil {
		log = logger.Nop()
	}
	if rec == nil {
		rec = noopRecorder{}
	}
	return &Fixer{settings: settings, exec: exec, log: log, metrics: rec}
}

// Handle runs the pipeline for one message. It never panics; a failure is
// logged with the message's ids and reported as OutcomeFailed.
func (f *Fixer) Handle(ctx context.Context, msg Message) (out Outcome) {
	log := f.log.With(
		logger.String("guild_id", msg.GuildID),
		logger.String("channel_id", msg.ChannelID),
		logger.String("message_id", msg.ID),
	)
	defer func() {
		if r := recover(); r != nil {
			log.Error("message pipeline panicked",
				logger.Any("panic", r),
				logger.String("stack", string(debug.Stack())))
			out = OutcomeFailed
		}
		f.metrics.MessageProcessed(string(out))
	}()

	if msg.AuthorBot {
		return OutcomeIgnored
	}
	if !f.settings.ChannelEnabled(msg.ChannelID) {
		return OutcomeDisabled
	}

	resolved := links.Convert(msg.Content)
	if len(resolved) == 0 {
		return OutcomeNoLinks
	}

	dm := msg.GuildID == ""
	var gs model.GuildSettings
	if !dm {
		gs = f.settings.GuildSettings(msg.GuildID)
	}
	plan := delivery.Decide(resolved, gs, delivery.Author{ID: msg.AuthorID, Name: msg.AuthorName}, dm)
	if plan.Action == delivery.NoAction {
		log.Debug("links filtered out by guild settings", logger.Int("links", len(resolved)))
		return OutcomeNoAction
	}

	for _, l := range plan.Links {
		f.metrics.LinkRewritten(l.Service.Name)
		log.Debug("link rewritten",
			logger.String("service", l.Service.Name),
			logger.String("identity", l.Identity),
			logger.String("original", l.Original),
			logger.String("rewritten", l.URL))
	}

	ref := delivery.Ref{GuildID: msg.GuildID, ChannelID: msg.ChannelID, MessageID: msg.ID}
	if err := f.exec.Execute(ctx, plan, ref); err != nil {
		log.Debug("delivery abandoned", logger.Error(err))
		return OutcomeFailed
	}

	if plan.Action == delivery.ReplyKeep {
		return OutcomeReply
	}
	return OutcomeRepost
}

// ConvertLink rewrites a single link, for the /fix command.
func ConvertLink(raw string) (links.Resolved, bool) {
	return links.ConvertURL(raw)
}

// ConvertMessage renders every supported link in text, one per line. The
// guild's service filter is not applied: the caller asked for these links
// explicitly.
func ConvertMessage(text string) (string, int) {
	resolved := links.Convert(text)
	return delivery.Render(resolved, ""), len(resolved)
}
