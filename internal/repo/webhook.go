package repo

import (
	"context"
	"errors"
	"fmt"

	"pilot-api/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrWebhookNotFound indicates the webhook does not exist within the account
var ErrWebhookNotFound = errors.New("webhook not found in account")

// WebhookRepository handles customer webhook endpoint storage
type WebhookRepository struct {
	pool *pgxpool.Pool
}

// NewWebhookRepository creates a new WebhookRepository
func NewWebhookRepository(pool *pgxpool.Pool) *WebhookRepository {
	return &WebhookRepository{pool: pool}
}

// List retrieves all webhooks for an account
func (r *WebhookRepository) List(ctx context.Context, accountID string) ([]domain.Webhook, error) {
	query := `
		SELECT id, user_id, url, secret, events, is_active, created_at, updated_at
		FROM webhooks
		WHERE user_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.pool.Query(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("query webhooks: %w", err)
	}
	defer rows.Close()

	var webhooks []domain.Webhook
	for rows.Next() {
		var w domain.Webhook
		if err := rows.Scan(&w.ID, &w.UserID, &w.URL, &w.Secret, &w.Events, &w.IsActive, &w.CreatedAt, &w.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan webhook: %w", err)
		}
		webhooks = append(webhooks, w)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate webhooks: %w", err)
	}

	return webhooks, nil
}

// ListActiveForEvent retrieves active webhooks of an account subscribed to an event type
func (r *WebhookRepository) ListActiveForEvent(ctx context.Context, accountID, eventType string) ([]domain.Webhook, error) {
	query := `
		SELECT id, user_id, url, secret, events, is_active, created_at, updated_at
		FROM webhooks
		WHERE user_id = $1 AND is_active = TRUE AND $2 = ANY(events)
	`

	rows, err := r.pool.Query(ctx, query, accountID, eventType)
	if err != nil {
		return nil, fmt.Errorf("query active webhooks: %w", err)
	}
	defer rows.Close()

	var webhooks []domain.Webhook
	for rows.Next() {
		var w domain.Webhook
		if err := rows.Scan(&w.ID, &w.UserID, &w.URL, &w.Secret, &w.Events, &w.IsActive, &w.CreatedAt, &w.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan webhook: %w", err)
		}
		webhooks = append(webhooks, w)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate webhooks: %w", err)
	}

	return webhooks, nil
}

// Get retrieves a single webhook by ID, scoped to the account
func (r *WebhookRepository) Get(ctx context.Context, accountID, webhookID string) (*domain.Webhook, error) {
	query := `
		SELECT id, user_id, url, secret, events, is_active, created_at, updated_at
		FROM webhooks
		WHERE id = $1 AND user_id = $2
	`

	var w domain.Webhook
	err := r.pool.QueryRow(ctx, query, webhookID, accountID).Scan(
		&w.ID, &w.UserID, &w.URL, &w.Secret, &w.Events, &w.IsActive, &w.CreatedAt, &w.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrWebhookNotFound
		}
		return nil, fmt.Errorf("query webhook: %w", err)
	}

	return &w, nil
}

// Create registers a webhook with a freshly generated shared secret
func (r *WebhookRepository) Create(ctx context.Context, accountID, secret string, req *domain.CreateWebhookRequest) (*domain.Webhook, error) {
	query := `
		INSERT INTO webhooks (id, user_id, url, secret, events)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, user_id, url, secret, events, is_active, created_at, updated_at
	`

	var w domain.Webhook
	err := r.pool.QueryRow(ctx, query,
		uuid.NewString(), accountID, req.URL, secret, req.Events,
	).Scan(&w.ID, &w.UserID, &w.URL, &w.Secret, &w.Events, &w.IsActive, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert webhook: %w", err)
	}

	return &w, nil
}

// Update applies non-nil fields to a webhook, scoped to the account
func (r *WebhookRepository) Update(ctx context.Context, accountID, webhookID string, req *domain.UpdateWebhookRequest) (*domain.Webhook, error) {
	query := `
		UPDATE webhooks
		SET url        = COALESCE($3, url),
		    events     = COALESCE($4, events),
		    is_active  = COALESCE($5, is_active),
		    updated_at = NOW()
		WHERE id = $1 AND user_id = $2
		RETURNING id, user_id, url, secret, events, is_active, created_at, updated_at
	`

	var events interface{}
	if req.Events != nil {
		events = req.Events
	}

	var w domain.Webhook
	err := r.pool.QueryRow(ctx, query, webhookID, accountID, req.URL, events, req.IsActive).Scan(
		&w.ID, &w.UserID, &w.URL, &w.Secret, &w.Events, &w.IsActive, &w.CreatedAt, &w.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrWebhookNotFound
		}
		return nil, fmt.Errorf("update webhook: %w", err)
	}

	return &w, nil
}

// Delete removes a webhook, scoped to the account
func (r *WebhookRepository) Delete(ctx context.Context, accountID, webhookID string) error {
	query := `DELETE FROM webhooks WHERE id = $1 AND user_id = $2`

	tag, err := r.pool.Exec(ctx, query, webhookID, accountID)
	if err != nil {
		return fmt.Errorf("delete webhook: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrWebhookNotFound
	}

	return nil
}
