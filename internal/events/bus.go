// Package events records domain events and fans them out to in-process
// subscribers. Events are persisted to the domain_events table so reporting
// jobs can replay what happened even if a notifier misses the moment.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"
)

// Topics published by the document services.
const (
	TopicInvoiceCreated = "invoice.created"
	TopicInvoiceUpdated = "invoice.updated"
	TopicInvoiceDeleted = "invoice.deleted"
	TopicVoucherCreated = "voucher.created"
	TopicVoucherUpdated = "voucher.updated"
	TopicVoucherDeleted = "voucher.deleted"
)

// Event is one recorded domain event.
type Event struct {
	Topic      string          `json:"topic"`
	Payload    json.RawMessage `json:"payload"`
	OccurredAt time.Time       `json:"occurred_at"`
}

// Store persists events. Implemented by PgStore.
type Store interface {
	Append(ctx context.Context, e Event) error
}

// Notifier reacts to a published event. Notifier failures are logged and
// never fail the publishing operation.
type Notifier interface {
	Notify(ctx context.Context, e Event)
}

// Bus persists and dispatches events.
type Bus struct {
	Store     Store
	Notifiers []Notifier
	Logger    zerolog.Logger
	Now       func() time.Time
}

// Publish records the event and invokes every notifier. A persistence
// failure is returned; notifier errors are swallowed.
func (b *Bus) Publish(ctx context.Context, topic string, payload any) error {
	if b == nil {
		return nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	e := Event{Topic: topic, Payload: data, OccurredAt: b.now()}
	if b.Store != nil {
		if err := b.Store.Append(ctx, e); err != nil {
			return err
		}
	}
	for _, n := range b.Notifiers {
		n.Notify(ctx, e)
	}
	return nil
}

func (b *Bus) now() time.Time {
	if b.Now != nil {
		return b.Now()
	}
	return time.Now()
}

// LogNotifier writes each event to the structured log.
type LogNotifier struct {
	Logger zerolog.Logger
}

// Notify implements Notifier.
func (n LogNotifier) Notify(_ context.Context, e Event) {
	n.Logger.Info().
		Str("topic", e.Topic).
		RawJSON("payload", e.Payload).
		Time("occurred_at", e.OccurredAt).
		Msg("domain_event")
}
