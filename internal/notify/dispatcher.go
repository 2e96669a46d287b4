package notify

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/crewplanhq/crewplan/internal/models"
)

// Dispatcher fans events out to the configured adapters. A nil Dispatcher
// is valid and drops everything, so callers never need to guard.
type Dispatcher struct {
	adapters []Adapter
}

// NewDispatcher builds a dispatcher over the given adapters.
func NewDispatcher(adapters ...Adapter) *Dispatcher {
	return &Dispatcher{adapters: adapters}
}

// Announce delivers evt to every adapter's default channel. Best-effort:
// failures are logged and suppressed.
func (d *Dispatcher) Announce(ctx context.Context, evt Event) {
	if d == nil {
		return
	}
	for _, a := range d.adapters {
		if err := a.Send(ctx, Outbound{Event: &evt}); err != nil {
			log.Warn("notification dropped", "platform", a.Name(), "title", evt.Title, "err", err)
		}
	}
}

// Direct delivers evt to a user's delivery address on each platform that
// has one on file. Platforms without an address are skipped silently.
func (d *Dispatcher) Direct(ctx context.Context, user *models.User, evt Event) {
	if d == nil || user == nil {
		return
	}
	addrs := Addresses(user)
	for _, a := range d.adapters {
		addr := addrs[a.Name()]
		if addr == "" {
			continue
		}
		if err := a.Send(ctx, Outbound{UserID: addr, Event: &evt}); err != nil {
			log.Warn("notification dropped", "platform", a.Name(), "user", user.ID, "title", evt.Title, "err", err)
		}
	}
}

// Channel delivers evt to a specific channel on each adapter whose name
// appears in channels.
func (d *Dispatcher) Channel(ctx context.Context, channels map[string]string, evt Event) {
	if d == nil {
		return
	}
	for _, a := range d.adapters {
		ch := channels[a.Name()]
		if ch == "" {
			continue
		}
		if err := a.Send(ctx, Outbound{Channel: ch, Event: &evt}); err != nil {
			log.Warn("notification dropped", "platform", a.Name(), "channel", ch, "title", evt.Title, "err", err)
		}
	}
}

// Close shuts down all adapters.
func (d *Dispatcher) Close() {
	if d == nil {
		return
	}
	for _, a := range d.adapters {
		if err := a.Close(); err != nil {
			log.Warn("adapter close failed", "platform", a.Name(), "err", err)
		}
	}
}

// Addresses returns a user's delivery addresses keyed by platform name.
func Addresses(u *models.User) map[string]string {
	return map[string]string{
		"slack":   u.SlackID,
		"discord": u.DiscordID,
	}
}
