package repo

import (
	"context"
	"errors"
	"fmt"

	"pilot-api/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrSubscriptionNotFound indicates the user holds no subscription row
var ErrSubscriptionNotFound = errors.New("subscription not found")

// SubscriptionRepo reads subscription state for account-ownership checks
type SubscriptionRepo struct {
	pool *pgxpool.Pool
}

// NewSubscriptionRepo creates a new SubscriptionRepo
func NewSubscriptionRepo(pool *pgxpool.Pool) *SubscriptionRepo {
	return &SubscriptionRepo{pool: pool}
}

// HasActiveSubscription reports whether the user owns an account, i.e. holds a
// subscription row with status active.
func (r *SubscriptionRepo) HasActiveSubscription(ctx context.Context, userID string) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1
			FROM subscriptions
			WHERE user_id = $1 AND status = 'active'
		)
	`

	var exists bool
	if err := r.pool.QueryRow(ctx, query, userID).Scan(&exists); err != nil {
		return false, fmt.Errorf("check active subscription: %w", err)
	}

	return exists, nil
}

// Get retrieves the most recent subscription for a user
func (r *SubscriptionRepo) Get(ctx context.Context, userID string) (*domain.Subscription, error) {
	query := `
		SELECT id, user_id, plan_id, status, created_at, updated_at
		FROM subscriptions
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`

	var s domain.Subscription
	err := r.pool.QueryRow(ctx, query, userID).Scan(
		&s.ID, &s.UserID, &s.PlanID, &s.Status, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSubscriptionNotFound
		}
		return nil, fmt.Errorf("query subscription: %w", err)
	}

	return &s, nil
}
