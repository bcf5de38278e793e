package repo

import (
	"context"
	"encoding/json"
	"fmt"

	"pilot-api/internal/domain"

	"github.com/jackc/pgx/v5/pgxpool"
)

// OutboxRepo persists change events awaiting delivery to the automation
// dispatcher. Enqueue failures are the caller's problem to swallow: a webhook
// that cannot be queued must never fail the write that produced it.
type OutboxRepo struct {
	pool *pgxpool.Pool
}

// NewOutboxRepo creates a new OutboxRepo
func NewOutboxRepo(pool *pgxpool.Pool) *OutboxRepo {
	return &OutboxRepo{pool: pool}
}

// Enqueue stores a change event for later delivery
func (r *OutboxRepo) Enqueue(ctx context.Context, accountID string, event *domain.ChangeEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal change event: %w", err)
	}

	query := `
		INSERT INTO event_outbox (account_id, payload)
		VALUES ($1, $2)
	`

	if _, err := r.pool.Exec(ctx, query, accountID, payload); err != nil {
		return fmt.Errorf("enqueue outbox event: %w", err)
	}

	return nil
}

// DuePending returns up to limit undelivered events whose next attempt is due.
// SKIP LOCKED keeps concurrent dispatchers from queuing behind each other, but
// the select runs in autocommit, so the row locks are gone when it returns and
// two dispatchers may still pick the same event. Delivery is at-least-once;
// consumers deduplicate by event id.
func (r *OutboxRepo) DuePending(ctx context.Context, limit int) ([]domain.OutboxEvent, error) {
	query := `
		SELECT id, account_id, payload, attempts, next_attempt_at,
		       delivered_at, last_error, created_at
		FROM event_outbox
		WHERE delivered_at IS NULL AND next_attempt_at <= NOW()
		ORDER BY next_attempt_at ASC
		LIMIT $1
		FOR UPDATE SKIP LOCKED
	`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query pending outbox events: %w", err)
	}
	defer rows.Close()

	var events []domain.OutboxEvent
	for rows.Next() {
		var e domain.OutboxEvent
		err := rows.Scan(
			&e.ID, &e.AccountID, &e.Payload, &e.Attempts, &e.NextAttemptAt,
			&e.DeliveredAt, &e.LastError, &e.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan outbox event: %w", err)
		}
		events = append(events, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate outbox events: %w", err)
	}

	return events, nil
}

// MarkDelivered records a successful delivery
func (r *OutboxRepo) MarkDelivered(ctx context.Context, eventID int64) error {
	query := `
		UPDATE event_outbox
		SET delivered_at = NOW(), last_error = NULL
		WHERE id = $1
	`

	if _, err := r.pool.Exec(ctx, query, eventID); err != nil {
		return fmt.Errorf("mark outbox event delivered: %w", err)
	}

	return nil
}

// MarkFailed records a failed attempt and schedules the retry with
// exponential backoff (1m, 2m, 4m, ... capped at an hour).
func (r *OutboxRepo) MarkFailed(ctx context.Context, eventID int64, lastError string) error {
	query := `
		UPDATE event_outbox
		SET attempts = attempts + 1,
		    last_error = $2,
		    next_attempt_at = NOW() + LEAST(INTERVAL '1 hour', INTERVAL '1 minute' * POWER(2, attempts))
		WHERE id = $1
	`

	if _, err := r.pool.Exec(ctx, query, eventID, lastError); err != nil {
		return fmt.Errorf("mark outbox event failed: %w", err)
	}

	return nil
}

// PurgeDelivered removes delivered events older than the retention window
func (r *OutboxRepo) PurgeDelivered(ctx context.Context) (int64, error) {
	query := `DELETE FROM event_outbox WHERE delivered_at IS NOT NULL AND delivered_at < NOW() - INTERVAL '7 days'`

	tag, err := r.pool.Exec(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("purge delivered outbox events: %w", err)
	}

	return tag.RowsAffected(), nil
}
