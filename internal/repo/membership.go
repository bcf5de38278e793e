package repo

import (
	"context"
	"errors"
	"fmt"

	"pilot-api/internal/accounts"
	"pilot-api/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// MembershipRepo handles team_members state. It backs every access check, so
// it reads current rows on every call: no caching layer sits in front of it.
type MembershipRepo struct {
	pool *pgxpool.Pool
}

// NewMembershipRepo creates a new MembershipRepo
func NewMembershipRepo(pool *pgxpool.Pool) *MembershipRepo {
	return &MembershipRepo{pool: pool}
}

// GetTeamRole returns the member's role within the owner's account.
// Returns accounts.ErrNotTeamMember if no membership row exists.
func (r *MembershipRepo) GetTeamRole(ctx context.Context, ownerID, memberID string) (domain.TeamRole, error) {
	query := `
		SELECT role
		FROM team_members
		WHERE owner_id = $1 AND member_id = $2
	`

	var roleName string
	err := r.pool.QueryRow(ctx, query, ownerID, memberID).Scan(&roleName)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", accounts.ErrNotTeamMember
		}
		return "", fmt.Errorf("query team role: %w", err)
	}

	role := domain.TeamRole(roleName)
	if !role.IsValid() {
		return "", fmt.Errorf("invalid role %q for member %s under owner %s: %w", roleName, memberID, ownerID, domain.ErrInvalidTeamRole)
	}

	return role, nil
}

// EarliestOwnerFor returns the owner id of the member's earliest-created
// membership. Ordering by (created_at, id) keeps the choice deterministic
// even for rows created in the same instant.
func (r *MembershipRepo) EarliestOwnerFor(ctx context.Context, memberID string) (string, error) {
	query := `
		SELECT owner_id
		FROM team_members
		WHERE member_id = $1
		ORDER BY created_at ASC, id ASC
		LIMIT 1
	`

	var ownerID string
	err := r.pool.QueryRow(ctx, query, memberID).Scan(&ownerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", accounts.ErrNotTeamMember
		}
		return "", fmt.Errorf("query earliest membership: %w", err)
	}

	return ownerID, nil
}

// ListMembers retrieves all members of an account
func (r *MembershipRepo) ListMembers(ctx context.Context, ownerID string) ([]domain.TeamMember, error) {
	query := `
		SELECT id, owner_id, member_id, role, invited_by, created_at
		FROM team_members
		WHERE owner_id = $1
		ORDER BY created_at ASC
	`

	rows, err := r.pool.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("query team members: %w", err)
	}
	defer rows.Close()

	var members []domain.TeamMember
	for rows.Next() {
		var m domain.TeamMember
		if err := rows.Scan(&m.ID, &m.OwnerID, &m.MemberID, &m.Role, &m.InvitedBy, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan team member: %w", err)
		}
		members = append(members, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate team members: %w", err)
	}

	return members, nil
}

// AddMember inserts a membership row. The schema CHECK rejects self-membership;
// the pre-check here turns it into a typed error before hitting the database.
func (r *MembershipRepo) AddMember(ctx context.Context, ownerID, memberID string, role domain.TeamRole, invitedBy *string) (*domain.TeamMember, error) {
	if ownerID == memberID {
		return nil, domain.ErrSelfMembership
	}
	if !role.IsValid() {
		return nil, domain.ErrInvalidTeamRole
	}

	query := `
		INSERT INTO team_members (owner_id, member_id, role, invited_by)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (owner_id, member_id) DO UPDATE SET role = EXCLUDED.role
		RETURNING id, owner_id, member_id, role, invited_by, created_at
	`

	var m domain.TeamMember
	err := r.pool.QueryRow(ctx, query, ownerID, memberID, role, invitedBy).Scan(
		&m.ID, &m.OwnerID, &m.MemberID, &m.Role, &m.InvitedBy, &m.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert team member: %w", err)
	}

	return &m, nil
}

// UpdateMemberRole changes a member's role within the account
func (r *MembershipRepo) UpdateMemberRole(ctx context.Context, ownerID, memberID string, role domain.TeamRole) error {
	if !role.IsValid() {
		return domain.ErrInvalidTeamRole
	}

	query := `
		UPDATE team_members
		SET role = $3
		WHERE owner_id = $1 AND member_id = $2
	`

	tag, err := r.pool.Exec(ctx, query, ownerID, memberID, role)
	if err != nil {
		return fmt.Errorf("update team member role: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return accounts.ErrNotTeamMember
	}

	return nil
}

// RemoveMember deletes a membership row. The next access check sees the
// deletion immediately.
func (r *MembershipRepo) RemoveMember(ctx context.Context, ownerID, memberID string) error {
	query := `
		DELETE FROM team_members
		WHERE owner_id = $1 AND member_id = $2
	`

	tag, err := r.pool.Exec(ctx, query, ownerID, memberID)
	if err != nil {
		return fmt.Errorf("delete team member: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return accounts.ErrNotTeamMember
	}

	return nil
}
