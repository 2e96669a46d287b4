// Package discord implements the notify Adapter for Discord.
package discord

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/crewplanhq/crewplan/internal/notify"
)

// severityColors maps event severities to embed colors.
var severityColors = map[string]int{
	notify.SeverityInfo:    0x439fe0,
	notify.SeverityWarning: 0xf2c744,
	notify.SeverityError:   0xd00000,
	notify.SeveritySuccess: 0x36a64f,
}

// session abstracts the discordgo.Session methods we use, enabling test mocks.
type session interface {
	Open() error
	Close() error
	ChannelMessageSend(channelID, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error)
	UserChannelCreate(recipientID string, options ...discordgo.RequestOption) (*discordgo.Channel, error)
}

// Adapter implements notify.Adapter for Discord.
type Adapter struct {
	session session
	channel string // default channel for messages without an explicit target
}

// New creates a Discord Adapter posting to channel by default.
func New(botToken, channel string) (*Adapter, error) {
	s, err := discordgo.New("Bot " + botToken)
	if err != nil {
		return nil, fmt.Errorf("discord: create session: %w", err)
	}
	return &Adapter{session: s, channel: channel}, nil
}

// Name implements notify.Adapter.
func (a *Adapter) Name() string { return "discord" }

// Send implements notify.Adapter. A UserID target is delivered as a DM
// through a freshly resolved user channel.
func (a *Adapter) Send(ctx context.Context, msg notify.Outbound) error {
	target := msg.Channel
	if msg.UserID != "" {
		ch, err := a.session.UserChannelCreate(msg.UserID, discordgo.WithContext(ctx))
		if err != nil {
			return fmt.Errorf("discord: open DM with %s: %w", msg.UserID, err)
		}
		target = ch.ID
	}
	if target == "" {
		target = a.channel
	}
	if target == "" {
		return fmt.Errorf("discord: no target channel")
	}

	if msg.Event != nil {
		if _, err := a.session.ChannelMessageSendEmbed(target, buildEmbed(msg.Event), discordgo.WithContext(ctx)); err != nil {
			return fmt.Errorf("discord: send embed to %s: %w", target, err)
		}
		return nil
	}
	if _, err := a.session.ChannelMessageSend(target, msg.Text, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("discord: send to %s: %w", target, err)
	}
	return nil
}

// Close implements notify.Adapter.
func (a *Adapter) Close() error {
	return a.session.Close()
}

// buildEmbed renders an event as a Discord embed.
func buildEmbed(evt *notify.Event) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:       evt.Title,
		Description: evt.Body,
		Color:       severityColors[evt.Severity],
	}
	for _, f := range evt.Fields {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:   f.Name,
			Value:  f.Value,
			Inline: true,
		})
	}
	return embed
}
