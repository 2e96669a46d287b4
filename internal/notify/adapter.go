// Package notify delivers best-effort outbound notifications to chat
// platforms (Slack, Discord). Failures are logged and never propagated;
// nothing in the application blocks on delivery.
package notify

import "context"

// Severity levels for events, hinting at attachment colors.
const (
	SeverityInfo    = "info"
	SeverityWarning = "warning"
	SeverityError   = "error"
	SeveritySuccess = "success"
)

// Adapter is the interface platform-specific implementations satisfy.
type Adapter interface {
	// Name identifies the platform, e.g. "slack" or "discord". It doubles
	// as the key for looking up a user's delivery address.
	Name() string

	// Send delivers an outbound message. An empty Channel and UserID means
	// the adapter's configured default channel.
	Send(ctx context.Context, msg Outbound) error

	// Close shuts down the adapter.
	Close() error
}

// Outbound is a message to deliver to one platform.
type Outbound struct {
	Channel string // platform channel ID; empty means the adapter default
	UserID  string // platform user ID for a direct message; overrides Channel
	Text    string // plain text, used when Event is nil
	Event   *Event // structured attachment
}

// Event is a structured notification rendered as a platform attachment.
type Event struct {
	Title    string
	Body     string
	Severity string
	Fields   []Field
}

// Field is a key-value pair displayed in an event attachment.
type Field struct {
	Name  string
	Value string
}
