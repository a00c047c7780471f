// Package workflow implements the lead-to-booking pipeline: inquiries become
// leads, leads book tours, tours are confirmed into bookings, bookings are
// invoiced and invoices are paid.
//
// Every operation is applied through a single Store.Mutate call, so it either
// lands completely or not at all. Notifications go out after the change is
// committed; a delivery failure is logged and never fails the operation.
package workflow

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"venue-crm/internal/metrics"
	"venue-crm/internal/models"
	"venue-crm/internal/notify"
)

// Store is the owned state the engine mutates.
type Store interface {
	Snapshot() models.State
	Mutate(fn func(*models.State) error) error
	Reset() (models.State, error)
}

type Options struct {
	// DemoPhone is used when an inquiry arrives without a phone number.
	DemoPhone string
	VenueName string
	// StrictAvailability rejects bookings for slots that are not listed.
	StrictAvailability bool

	Now      func() time.Time
	NewID    func(prefix string) string
	Notifier notify.Notifier
	Metrics  *metrics.Metrics
	Logger   zerolog.Logger
}

type Engine struct {
	store    Store
	opts     Options
	now      func() time.Time
	newID    func(prefix string) string
	notifier notify.Notifier
	metrics  *metrics.Metrics
	log      zerolog.Logger
}

func New(store Store, opts Options) *Engine {
	e := &Engine{
		store:    store,
		opts:     opts,
		now:      opts.Now,
		newID:    opts.NewID,
		notifier: opts.Notifier,
		metrics:  opts.Metrics,
		log:      opts.Logger.With().Str("component", "workflow").Logger(),
	}
	if e.now == nil {
		e.now = time.Now
	}
	if e.newID == nil {
		e.newID = NewID
	}
	return e
}

// NewID returns prefix_<uuid>.
func NewID(prefix string) string {
	return prefix + "_" + uuid.NewString()
}

// State returns a copy of the whole object graph.
func (e *Engine) State() models.State {
	return e.store.Snapshot()
}

// Reset replaces the state with a fresh seed.
func (e *Engine) Reset(_ context.Context) (models.State, error) {
	state, err := e.store.Reset()
	e.metrics.Transition("reset", err)
	if err != nil {
		return models.State{}, err
	}
	e.log.Info().Msg("State reset to seed")
	return state, nil
}

// send delivers n after a committed change. Channel failures are logged by the notifier.
func (e *Engine) send(ctx context.Context, n notify.Notification) {
	if e.notifier == nil {
		return
	}
	if err := e.notifier.Notify(ctx, n); err != nil {
		e.log.Debug().Err(err).Str("phone", n.Phone).Str("email", n.Email).Msg("Notification not delivered")
	}
}

func (e *Engine) outbound(phone, text string) models.Message {
	return models.Message{
		ID:        e.newID("msg"),
		Phone:     phone,
		Direction: models.DirectionOut,
		Text:      text,
		Timestamp: e.now(),
	}
}
