// Package notify delivers workflow messages to leads over the configured channels.
package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"venue-crm/internal/metrics"
)

// ErrNoRecipient is returned by a channel that has no address for the notification.
// It is not counted as a failure.
var ErrNoRecipient = errors.New("no recipient for channel")

// Notification is one outbound message. Phone channels use Phone, email uses Email.
type Notification struct {
	Name    string
	Phone   string
	Email   string
	Subject string
	Text    string
}

// Notifier delivers a notification over one channel.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// Channel names a notifier for logs and metrics.
type Channel struct {
	Name     string
	Notifier Notifier
}

// Log writes notifications to the logger. It is always enabled and acts as the
// delivery record when no real channel is configured.
type Log struct {
	log zerolog.Logger
}

func NewLog(log zerolog.Logger) *Log {
	return &Log{log: log.With().Str("component", "notify").Logger()}
}

func (l *Log) Notify(_ context.Context, n Notification) error {
	l.log.Info().
		Str("phone", n.Phone).
		Str("email", n.Email).
		Str("subject", n.Subject).
		Str("text", n.Text).
		Msg("Outbound notification")
	return nil
}

// Multi fans a notification out to every channel in order. A failing channel
// does not stop the others.
type Multi struct {
	channels []Channel
	metrics  *metrics.Metrics
	log      zerolog.Logger
}

func NewMulti(m *metrics.Metrics, log zerolog.Logger, channels ...Channel) *Multi {
	return &Multi{
		channels: channels,
		metrics:  m,
		log:      log.With().Str("component", "notify").Logger(),
	}
}

// Channels returns the configured channel names.
func (m *Multi) Channels() []string {
	names := make([]string, 0, len(m.channels))
	for _, ch := range m.channels {
		names = append(names, ch.Name)
	}
	return names
}

func (m *Multi) Notify(ctx context.Context, n Notification) error {
	var errs []error
	for _, ch := range m.channels {
		err := ch.Notifier.Notify(ctx, n)
		if errors.Is(err, ErrNoRecipient) {
			m.log.Debug().Str("channel", ch.Name).Msg("Skipping channel without recipient")
			continue
		}
		m.metrics.Notification(ch.Name, err)
		if err != nil {
			m.log.Error().Err(err).Str("channel", ch.Name).Msg("Notification failed")
			errs = append(errs, fmt.Errorf("%s: %w", ch.Name, err))
		}
	}
	return errors.Join(errs...)
}
