package events

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PgStore persists events to the domain_events table.
type PgStore struct {
	Pool *pgxpool.Pool
}

// Append implements Store.
func (s *PgStore) Append(ctx context.Context, e Event) error {
	_, err := s.Pool.Exec(ctx,
		`INSERT INTO domain_events (topic, payload, occurred_at) VALUES ($1, $2, $3)`,
		e.Topic, []byte(e.Payload), e.OccurredAt)
	return err
}
