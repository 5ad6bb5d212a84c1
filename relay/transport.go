package relay

import (
	"fmt"
	"io"

	"github.com/bwmarrin/discordgo"
)

// Transport is the outbound chat capability the pipeline consumes: post a
// text or embed message, edit or delete one, and attach a file. Implemented
// by discordTransport; tests substitute a fake.
type Transport interface {
	SendText(channelID, content string) (messageID string, err error)
	EditText(channelID, messageID, content string) error
	DeleteMessage(channelID, messageID string) error
	SendEmbed(channelID string, embed *discordgo.MessageEmbed) error
	SendFile(channelID, content, filename string, r io.Reader) error
}

// discordTransport adapts a discordgo session to Transport.
type discordTransport struct {
	s *discordgo.Session
}

// NewTransport wraps a discordgo session.
func NewTransport(s *discordgo.Session) Transport {
	return &discordTransport{s: s}
}

func (d *discordTransport) SendText(channelID, content string) (string, error) {
	msg, err := d.s.ChannelMessageSend(channelID, content)
	if err != nil {
		return "", fmt.Errorf("send message: %w", err)
	}
	return msg.ID, nil
}

func (d *discordTransport) EditText(channelID, messageID, content string) error {
	_, err := d.s.ChannelMessageEdit(channelID, messageID, content)
	return err
}

func (d *discordTransport) DeleteMessage(channelID, messageID string) error {
	return d.s.ChannelMessageDelete(channelID, messageID)
}

func (d *discordTransport) SendEmbed(channelID string, embed *discordgo.MessageEmbed) error {
	_, err := d.s.ChannelMessageSendEmbed(channelID, embed)
	return err
}

func (d *discordTransport) SendFile(channelID, content, filename string, r io.Reader) error {
	_, err := d.s.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Content: content,
		Files:   []*discordgo.File{{Name: filename, Reader: r}},
	})
	return err
}
