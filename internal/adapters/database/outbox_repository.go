package database

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jdmccork/auctionhouse/pkg/apperrors"
	"github.com/jdmccork/auctionhouse/pkg/events"
)

// PostgresOutboxRepository implements events.OutboxRepository using pgx.
type PostgresOutboxRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresOutboxRepository(pool *pgxpool.Pool) *PostgresOutboxRepository {
	return &PostgresOutboxRepository{pool: pool}
}

// SaveEvent inserts a pending event inside the caller's transaction.
func (r *PostgresOutboxRepository) SaveEvent(ctx context.Context, tx pgx.Tx, event *events.OutboxEvent) error {
	query := `
		INSERT INTO outbox_events (id, event_type, payload, status, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := tx.Exec(ctx, query,
		event.ID, event.EventType.String(), event.Payload, string(event.Status), event.CreatedAt)
	if err != nil {
		return apperrors.Storage("insert outbox event", err)
	}
	return nil
}

// GetPendingEvents fetches up to limit pending events, skipping rows another
// relay already holds.
func (r *PostgresOutboxRepository) GetPendingEvents(ctx context.Context, tx pgx.Tx, limit int) ([]*events.OutboxEvent, error) {
	query := `
		SELECT id, event_type, payload, status, created_at, processed_at
		FROM outbox_events
		WHERE status = 'pending'
		ORDER BY created_at
		LIMIT $1
		FOR UPDATE SKIP LOCKED
	`
	rows, err := tx.Query(ctx, query, limit)
	if err != nil {
		return nil, apperrors.Storage("fetch pending events", err)
	}
	defer rows.Close()

	var pending []*events.OutboxEvent
	for rows.Next() {
		var e events.OutboxEvent
		var eventType, status string
		if err := rows.Scan(&e.ID, &eventType, &e.Payload, &status, &e.CreatedAt, &e.ProcessedAt); err != nil {
			return nil, apperrors.Storage("scan outbox event", err)
		}
		e.EventType = events.Type(eventType)
		e.Status = events.OutboxStatus(status)
		pending = append(pending, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Storage("iterate outbox events", err)
	}
	return pending, nil
}

// UpdateEventStatus marks an event and stamps the processing time.
func (r *PostgresOutboxRepository) UpdateEventStatus(ctx context.Context, tx pgx.Tx, id uuid.UUID, status events.OutboxStatus) error {
	query := `UPDATE outbox_events SET status = $1, processed_at = $2 WHERE id = $3`
	_, err := tx.Exec(ctx, query, string(status), time.Now(), id)
	if err != nil {
		return apperrors.Storage("update outbox event", err)
	}
	return nil
}
