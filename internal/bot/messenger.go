package bot

import (
	"context"

	"github.com/bwmarrin/discordgo"

	"github.com/fixembed/fixembed-bot/internal/delivery"
)

// discordMessenger performs delivery calls through a discordgo session.
type discordMessenger struct {
	s *discordgo.Session
}

// NewMessenger returns a delivery.Messenger backed by s.
func NewMessenger(s *discordgo.Session) delivery.Messenger {
	return &discordMessenger{s: s}
}

func (m *discordMessenger) Send(ctx context.Context, channelID, content string) error {
	_, err := m.s.ChannelMessageSend(channelID, content, discordgo.WithContext(ctx))
	return err
}

func (m *discordMessenger) Reply(ctx context.Context, channelID, messageID, content string) error {
	ref := &discordgo.MessageReference{MessageID: messageID, ChannelID: channelID}
	_, err := m.s.ChannelMessageSendReply(channelID, content, ref, discordgo.WithContext(ctx))
	return err
}

func (m *discordMessenger) Delete(ctx context.Context, channelID, messageID string) error {
	return m.s.ChannelMessageDelete(channelID, messageID, discordgo.WithContext(ctx))
}

func (m *discordMessenger) SuppressEmbeds(ctx context.Context, channelID, messageID string) error {
	_, err := m.s.ChannelMessageEditComplex(&discordgo.MessageEdit{
		ID:      messageID,
		Channel: channelID,
		Flags:   discordgo.MessageFlagsSuppressEmbeds,
	}, discordgo.WithContext(ctx))
	return err
}
