package repo

import (
	"context"
	"errors"
	"fmt"

	"pilot-api/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrProfileNotFound indicates no profile row for the user
var ErrProfileNotFound = errors.New("profile not found")

// ProfileRepo handles principal profile storage
type ProfileRepo struct {
	pool *pgxpool.Pool
}

// NewProfileRepo creates a new ProfileRepo
func NewProfileRepo(pool *pgxpool.Pool) *ProfileRepo {
	return &ProfileRepo{pool: pool}
}

// Get retrieves a profile by user id
func (r *ProfileRepo) Get(ctx context.Context, userID string) (*domain.Profile, error) {
	query := `
		SELECT user_id, display_name, avatar_url, email, signup_completed_at,
		       created_at, updated_at
		FROM profiles
		WHERE user_id = $1
	`

	var p domain.Profile
	err := r.pool.QueryRow(ctx, query, userID).Scan(
		&p.UserID, &p.DisplayName, &p.AvatarURL, &p.Email, &p.SignupCompletedAt,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("query profile: %w", err)
	}

	return &p, nil
}

// Upsert creates or refreshes a profile row for the user
func (r *ProfileRepo) Upsert(ctx context.Context, p *domain.Profile) (*domain.Profile, error) {
	query := `
		INSERT INTO profiles (user_id, display_name, avatar_url, email, signup_completed_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id) DO UPDATE
		SET display_name = EXCLUDED.display_name,
		    avatar_url = EXCLUDED.avatar_url,
		    email = EXCLUDED.email,
		    signup_completed_at = COALESCE(profiles.signup_completed_at, EXCLUDED.signup_completed_at),
		    updated_at = NOW()
		RETURNING user_id, display_name, avatar_url, email, signup_completed_at,
		          created_at, updated_at
	`

	var out domain.Profile
	err := r.pool.QueryRow(ctx, query,
		p.UserID, p.DisplayName, p.AvatarURL, p.Email, p.SignupCompletedAt,
	).Scan(&out.UserID, &out.DisplayName, &out.AvatarURL, &out.Email, &out.SignupCompletedAt, &out.CreatedAt, &out.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("upsert profile: %w", err)
	}

	return &out, nil
}
