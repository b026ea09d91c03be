// internal/repository/postgres/outbox_repo.go
package postgres

import (
	"context"
	"fmt"
	"time"

	"vehicle-booking-service/internal/domain/booking"

	"github.com/lib/pq"
)

type OutboxRepository struct {
	db      querier
	locking bool
}

// Insert stores a pending event
func (r *OutboxRepository) Insert(ctx context.Context, e *booking.OutboxEvent) error {
	query := `
		INSERT INTO outbox_events (id, aggregate_type, aggregate_id, event_type, payload, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.db.Exec(ctx, query,
		e.ID, e.AggregateType, e.AggregateID, e.EventType, []byte(e.Payload), e.Status, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert outbox event: %w", err)
	}
	return nil
}

// FetchPending returns the oldest unsent events. Inside a transaction the
// rows are locked and rows held by another relay are skipped.
func (r *OutboxRepository) FetchPending(ctx context.Context, limit int) ([]*booking.OutboxEvent, error) {
	query := `
		SELECT id, aggregate_type, aggregate_id, event_type, payload, status, created_at, sent_at
		FROM outbox_events
		WHERE status = $1
		ORDER BY created_at ASC, id ASC
		LIMIT $2
	`
	if r.locking {
		query += " FOR UPDATE SKIP LOCKED"
	}

	rows, err := r.db.Query(ctx, query, booking.EventStatusPending, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch outbox events: %w", err)
	}
	defer rows.Close()

	events := []*booking.OutboxEvent{}
	for rows.Next() {
		var e booking.OutboxEvent
		var payload []byte
		if err := rows.Scan(
			&e.ID, &e.AggregateType, &e.AggregateID, &e.EventType, &payload, &e.Status, &e.CreatedAt, &e.SentAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan outbox event: %w", err)
		}
		e.Payload = payload
		events = append(events, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate outbox events: %w", err)
	}
	return events, nil
}

// MarkSent flags the events as delivered
func (r *OutboxRepository) MarkSent(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	query := `UPDATE outbox_events SET status = $1, sent_at = $2 WHERE id = ANY($3)`

	if _, err := r.db.Exec(ctx, query, booking.EventStatusSent, time.Now(), pq.Array(ids)); err != nil {
		return fmt.Errorf("failed to mark outbox events sent: %w", err)
	}
	return nil
}
