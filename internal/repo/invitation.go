package repo

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"pilot-api/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrInvitationNotFound indicates no matching, unaccepted invitation
	ErrInvitationNotFound = errors.New("invitation not found")

	// ErrInvitationExpired indicates the invitation is past its validity window
	ErrInvitationExpired = errors.New("invitation has expired")
)

const invitationTTL = 7 * 24 * time.Hour

// InvitationRepo manages team_invitations. Tokens are random and stored only
// as SHA-256 hashes, same treatment as API keys.
type InvitationRepo struct {
	pool *pgxpool.Pool
}

// NewInvitationRepo creates a new InvitationRepo
func NewInvitationRepo(pool *pgxpool.Pool) *InvitationRepo {
	return &InvitationRepo{pool: pool}
}

func hashInviteToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func generateInviteToken() (string, error) {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate invite token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// Create issues an invitation and returns it together with the one-time token
func (r *InvitationRepo) Create(ctx context.Context, ownerID, email string, role domain.TeamRole, invitedBy string) (*domain.TeamInvitation, string, error) {
	if !role.IsValid() {
		return nil, "", domain.ErrInvalidTeamRole
	}

	token, err := generateInviteToken()
	if err != nil {
		return nil, "", err
	}

	query := `
		INSERT INTO team_invitations (owner_id, email, role, token_hash, invited_by, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, owner_id, email, role, invited_by, accepted_at, expires_at, created_at
	`

	var inv domain.TeamInvitation
	err = r.pool.QueryRow(ctx, query,
		ownerID, email, role, hashInviteToken(token), invitedBy, time.Now().Add(invitationTTL),
	).Scan(&inv.ID, &inv.OwnerID, &inv.Email, &inv.Role, &inv.InvitedBy, &inv.AcceptedAt, &inv.ExpiresAt, &inv.CreatedAt)
	if err != nil {
		return nil, "", fmt.Errorf("insert invitation: %w", err)
	}

	return &inv, token, nil
}

// GetByToken resolves an unaccepted invitation from its one-time token.
// Expiry is reported as a distinct error so handlers can explain it.
func (r *InvitationRepo) GetByToken(ctx context.Context, token string) (*domain.TeamInvitation, error) {
	query := `
		SELECT id, owner_id, email, role, invited_by, accepted_at, expires_at, created_at
		FROM team_invitations
		WHERE token_hash = $1 AND accepted_at IS NULL
	`

	var inv domain.TeamInvitation
	err := r.pool.QueryRow(ctx, query, hashInviteToken(token)).Scan(
		&inv.ID, &inv.OwnerID, &inv.Email, &inv.Role, &inv.InvitedBy,
		&inv.AcceptedAt, &inv.ExpiresAt, &inv.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvitationNotFound
		}
		return nil, fmt.Errorf("query invitation: %w", err)
	}

	if inv.IsExpired(time.Now()) {
		return nil, ErrInvitationExpired
	}

	return &inv, nil
}

// MarkAccepted records acceptance of an invitation
func (r *InvitationRepo) MarkAccepted(ctx context.Context, invitationID int64) error {
	query := `
		UPDATE team_invitations
		SET accepted_at = NOW()
		WHERE id = $1 AND accepted_at IS NULL
	`

	tag, err := r.pool.Exec(ctx, query, invitationID)
	if err != nil {
		return fmt.Errorf("mark invitation accepted: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrInvitationNotFound
	}

	return nil
}

// ListPending retrieves open invitations for an account
func (r *InvitationRepo) ListPending(ctx context.Context, ownerID string) ([]domain.TeamInvitation, error) {
	query := `
		SELECT id, owner_id, email, role, invited_by, accepted_at, expires_at, created_at
		FROM team_invitations
		WHERE owner_id = $1 AND accepted_at IS NULL AND expires_at > NOW()
		ORDER BY created_at DESC
	`

	rows, err := r.pool.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("query pending invitations: %w", err)
	}
	defer rows.Close()

	var invitations []domain.TeamInvitation
	for rows.Next() {
		var inv domain.TeamInvitation
		err := rows.Scan(
			&inv.ID, &inv.OwnerID, &inv.Email, &inv.Role, &inv.InvitedBy,
			&inv.AcceptedAt, &inv.ExpiresAt, &inv.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan invitation: %w", err)
		}
		invitations = append(invitations, inv)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate invitations: %w", err)
	}

	return invitations, nil
}
