package delivery

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/bwmarrin/discordgo"

	"github.com/fixembed/fixembed-bot/internal/logger"
)

// Messenger is the set of outbound calls a plan needs.
type Messenger interface {
	Send(ctx context.Context, channelID, content string) error
	Reply(ctx context.Context, channelID, messageID, content string) error
	Delete(ctx context.Context, channelID, messageID string) error
	SuppressEmbeds(ctx context.Context, channelID, messageID string) error
}

// Recorder counts executed plans and failed outbound calls.
type Recorder interface {
	PlanExecuted(action string)
	DeliveryError(op string)
}

type noopRecorder struct{}

func (noopRecorder) PlanExecuted(string)  {}
func (noopRecorder) DeliveryError(string) {}

// Ref points at the inbound message a plan acts on.
type Ref struct {
	GuildID   string
	ChannelID string
	MessageID string
}

type Executor struct {
	messenger Messenger
	log       logger.Logger
	metrics   Recorder
}

func NewExecutor(m Messenger, log logger.Logger, rec Recorder) *Executor {
	if log == nil {
		log = logger.Nop()
	}
	if rec == nil {
		rec = noopRecorder{}
	}
	return &Executor{messenger: m, log: log, metrics: rec}
}

// Execute performs the plan. Only a failure to post the rewritten links is
// returned; failures of the follow-up delete or embed suppression are
// logged and the plan still counts as delivered.
func (e *Executor) Execute(ctx context.Context, p Plan, ref Ref) error {
	switch p.Action {
	case NoAction:
		return nil

	case RepostDelete:
		if err := e.messenger.Send(ctx, ref.ChannelID, p.Content); err != nil {
			e.report("send", ref, err)
			return fmt.Errorf("send replacement: %w", err)
		}
		if err := e.messenger.Delete(ctx, ref.ChannelID, ref.MessageID); err != nil {
			e.report("delete", ref, err)
		}

	case ReplyKeep:
		if err := e.messenger.SuppressEmbeds(ctx, ref.ChannelID, ref.MessageID); err != nil {
			e.report("suppress_embeds", ref, err)
		}
		if err := e.messenger.Reply(ctx, ref.ChannelID, ref.MessageID, p.Content); err != nil {
			e.report("reply", ref, err)
			if err := e.messenger.Send(ctx, ref.ChannelID, p.Content); err != nil {
				e.report("send", ref, err)
				return fmt.Errorf("send reply fallback: %w", err)
			}
		}

	default:
		return fmt.Errorf("unknown action %d", p.Action)
	}

	e.metrics.PlanExecuted(p.Action.String())
	return nil
}

func (e *Executor) report(op string, ref Ref, err error) {
	e.metrics.DeliveryError(op)
	fields := []logger.Field{
		logger.String("op", op),
		logger.String("guild_id", ref.GuildID),
		logger.String("channel_id", ref.ChannelID),
		logger.String("message_id", ref.MessageID),
		logger.Error(err),
	}
	switch Classify(err) {
	case SeverityDebug:
		e.log.Debug("delivery target gone", fields...)
	case SeverityWarn:
		e.log.Warn("delivery not permitted", fields...)
	default:
		e.log.Error("delivery failed", fields...)
	}
}

// Severity is the log level a delivery error deserves.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarn
	SeverityDebug
)

// Classify maps a Discord REST error to a severity. Permission problems and
// rate limits are warnings, targets that no longer exist are debug noise,
// everything else is an error.
func Classify(err error) Severity {
	var rl *discordgo.RateLimitError
	if errors.As(err, &rl) {
		return SeverityWarn
	}

	var rest *discordgo.RESTError
	if !errors.As(err, &rest) {
		return SeverityError
	}
	if rest.Message != nil {
		switch rest.Message.Code {
		case discordgo.ErrCodeMissingPermissions, discordgo.ErrCodeMissingAccess:
			return SeverityWarn
		case discordgo.ErrCodeUnknownMessage, discordgo.ErrCodeUnknownChannel:
			return SeverityDebug
		}
	}
	if rest.Response != nil {
		switch rest.Response.StatusCode {
		case http.StatusForbidden, http.StatusTooManyRequests:
			return SeverityWarn
		case http.StatusNotFound:
			return SeverityDebug
		}
	}
	return SeverityError
}

// Limited wraps m so that every Send and Reply first waits on l.
func Limited(m Messenger, l *Limiter) Messenger {
	return &limited{Messenger: m, limiter: l}
}

type limited struct {
	Messenger
	limiter *Limiter
}

func (m *limited) Send(ctx context.Context, channelID, content string) error {
	if err := m.limiter.Wait(ctx); err != nil {
		return err
	}
	return m.Messenger.Send(ctx, channelID, content)
}

func (m *limited) Reply(ctx context.Context, channelID, messageID, content string) error {
	if err := m.limiter.Wait(ctx); err != nil {
		return err
	}
	return m.Messenger.Reply(ctx, channelID, messageID, content)
}
