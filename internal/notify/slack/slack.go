// Package slack implements the notify Adapter for Slack using the Web API.
package slack

import (
	"context"
	"fmt"

	"github.com/crewplanhq/crewplan/internal/notify"
	slackapi "github.com/slack-go/slack"
)

// severityColors maps event severities to attachment sidebar colors.
var severityColors = map[string]string{
	notify.SeverityInfo:    "#439fe0",
	notify.SeverityWarning: "#f2c744",
	notify.SeverityError:   "#d00000",
	notify.SeveritySuccess: "#36a64f",
}

// slackClient abstracts the Slack API methods we use, enabling test mocks.
type slackClient interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slackapi.MsgOption) (string, string, error)
}

// Adapter implements notify.Adapter for Slack.
type Adapter struct {
	client  slackClient
	channel string // default channel for messages without an explicit target
}

// New creates a Slack Adapter posting to channel by default.
func New(botToken, channel string) *Adapter {
	return &Adapter{
		client:  slackapi.New(botToken),
		channel: channel,
	}
}

// Name implements notify.Adapter.
func (a *Adapter) Name() string { return "slack" }

// Send implements notify.Adapter. A UserID target posts directly to the
// user (Slack opens the DM conversation for bot messages addressed to a
// member ID).
func (a *Adapter) Send(ctx context.Context, msg notify.Outbound) error {
	target := msg.Channel
	if msg.UserID != "" {
		target = msg.UserID
	}
	if target == "" {
		target = a.channel
	}
	if target == "" {
		return fmt.Errorf("slack: no target channel")
	}

	var opts []slackapi.MsgOption
	if msg.Event != nil {
		opts = append(opts, slackapi.MsgOptionAttachments(buildAttachment(msg.Event)))
	}
	if msg.Text != "" || msg.Event == nil {
		opts = append(opts, slackapi.MsgOptionText(msg.Text, false))
	}

	if _, _, err := a.client.PostMessageContext(ctx, target, opts...); err != nil {
		return fmt.Errorf("slack: post to %s: %w", target, err)
	}
	return nil
}

// Close implements notify.Adapter. The Web API client is stateless.
func (a *Adapter) Close() error { return nil }

// buildAttachment renders an event as a Slack attachment.
func buildAttachment(evt *notify.Event) slackapi.Attachment {
	att := slackapi.Attachment{
		Title: evt.Title,
		Text:  evt.Body,
		Color: severityColors[evt.Severity],
	}
	for _, f := range evt.Fields {
		att.Fields = append(att.Fields, slackapi.AttachmentField{
			Title: f.Name,
			Value: f.Value,
			Short: true,
		})
	}
	return att
}
