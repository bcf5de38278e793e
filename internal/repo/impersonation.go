package repo

import (
	"context"
	"errors"
	"fmt"

	"pilot-api/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrImpersonationNotFound indicates no matching impersonation session
var ErrImpersonationNotFound = errors.New("impersonation session not found")

// ImpersonationRepo manages impersonation_sessions rows
type ImpersonationRepo struct {
	pool *pgxpool.Pool
}

// NewImpersonationRepo creates a new ImpersonationRepo
func NewImpersonationRepo(pool *pgxpool.Pool) *ImpersonationRepo {
	return &ImpersonationRepo{pool: pool}
}

// ActiveSession returns the most recently started session where the given user
// is the impersonator and is_active is true, or nil if none exists. The
// 30-minute validity window is enforced by the caller against started_at, not
// here: a stale is_active flag must never widen the window.
func (r *ImpersonationRepo) ActiveSession(ctx context.Context, adminUserID string) (*domain.ImpersonationSession, error) {
	query := `
		SELECT id, admin_user_id, target_user_id, started_at, is_active, ended_at
		FROM impersonation_sessions
		WHERE admin_user_id = $1 AND is_active = TRUE
		ORDER BY started_at DESC
		LIMIT 1
	`

	var s domain.ImpersonationSession
	err := r.pool.QueryRow(ctx, query, adminUserID).Scan(
		&s.ID, &s.AdminUserID, &s.TargetUserID, &s.StartedAt, &s.IsActive, &s.EndedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("query impersonation session: %w", err)
	}

	return &s, nil
}

// Start opens a new impersonation session, deactivating any session the
// operator already has open so at most one is honored at a time.
func (r *ImpersonationRepo) Start(ctx context.Context, adminUserID, targetUserID string) (*domain.ImpersonationSession, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin impersonation tx: %w", err)
	}
	defer tx.Rollback(ctx)

	deactivate := `
		UPDATE impersonation_sessions
		SET is_active = FALSE, ended_at = NOW()
		WHERE admin_user_id = $1 AND is_active = TRUE
	`
	if _, err := tx.Exec(ctx, deactivate, adminUserID); err != nil {
		return nil, fmt.Errorf("deactivate prior sessions: %w", err)
	}

	insert := `
		INSERT INTO impersonation_sessions (admin_user_id, target_user_id)
		VALUES ($1, $2)
		RETURNING id, admin_user_id, target_user_id, started_at, is_active, ended_at
	`

	var s domain.ImpersonationSession
	err = tx.QueryRow(ctx, insert, adminUserID, targetUserID).Scan(
		&s.ID, &s.AdminUserID, &s.TargetUserID, &s.StartedAt, &s.IsActive, &s.EndedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert impersonation session: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit impersonation tx: %w", err)
	}

	return &s, nil
}

// Stop ends the operator's active session
func (r *ImpersonationRepo) Stop(ctx context.Context, adminUserID string) error {
	query := `
		UPDATE impersonation_sessions
		SET is_active = FALSE, ended_at = NOW()
		WHERE admin_user_id = $1 AND is_active = TRUE
	`

	tag, err := r.pool.Exec(ctx, query, adminUserID)
	if err != nil {
		return fmt.Errorf("stop impersonation session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrImpersonationNotFound
	}

	return nil
}

// ExpireStale flips is_active on sessions past the validity window. Expired
// sessions are already ignored by the resolver; this keeps the flag honest for
// reporting.
func (r *ImpersonationRepo) ExpireStale(ctx context.Context) (int64, error) {
	query := `
		UPDATE impersonation_sessions
		SET is_active = FALSE, ended_at = NOW()
		WHERE is_active = TRUE AND started_at < NOW() - INTERVAL '30 minutes'
	`

	tag, err := r.pool.Exec(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("expire stale impersonation sessions: %w", err)
	}

	return tag.RowsAffected(), nil
}
