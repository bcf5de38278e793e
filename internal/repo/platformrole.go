package repo

import (
	"context"
	"errors"
	"fmt"

	"pilot-api/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PlatformRoleRepo reads user_roles state for platform-operator checks
type PlatformRoleRepo struct {
	pool *pgxpool.Pool
}

// NewPlatformRoleRepo creates a new PlatformRoleRepo
func NewPlatformRoleRepo(pool *pgxpool.Pool) *PlatformRoleRepo {
	return &PlatformRoleRepo{pool: pool}
}

// GetPlatformGrant returns the user's platform role and capability set, or nil
// if the user holds no platform grant. Absence of a row is the common case and
// is not an error.
func (r *PlatformRoleRepo) GetPlatformGrant(ctx context.Context, userID string) (*domain.PlatformGrant, error) {
	query := `
		SELECT user_id, role, admin_permissions
		FROM user_roles
		WHERE user_id = $1
	`

	var grant domain.PlatformGrant
	var permissions []string
	err := r.pool.QueryRow(ctx, query, userID).Scan(&grant.UserID, &grant.Role, &permissions)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("query platform grant: %w", err)
	}

	grant.AdminPermissions = make([]domain.AdminCapability, 0, len(permissions))
	for _, p := range permissions {
		grant.AdminPermissions = append(grant.AdminPermissions, domain.AdminCapability(p))
	}

	return &grant, nil
}

// SetPlatformRole upserts a platform grant for a user
func (r *PlatformRoleRepo) SetPlatformRole(ctx context.Context, userID string, role domain.PlatformRole, permissions []domain.AdminCapability) error {
	perms := make([]string, 0, len(permissions))
	for _, p := range permissions {
		perms = append(perms, string(p))
	}

	query := `
		INSERT INTO user_roles (user_id, role, admin_permissions)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE
		SET role = EXCLUDED.role,
		    admin_permissions = EXCLUDED.admin_permissions,
		    updated_at = NOW()
	`

	if _, err := r.pool.Exec(ctx, query, userID, role, perms); err != nil {
		return fmt.Errorf("upsert platform role: %w", err)
	}

	return nil
}
