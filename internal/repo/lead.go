package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pilot-api/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrLeadNotFound indicates the lead does not exist within the account.
// Leads belonging to other accounts surface as not-found, never as forbidden.
var ErrLeadNotFound = errors.New("lead not found in account")

// LeadRepository handles lead storage. Multi-tenant isolation is enforced by
// the user_id (account id) filter on every query.
type LeadRepository struct {
	pool *pgxpool.Pool
}

// NewLeadRepository creates a new LeadRepository
func NewLeadRepository(pool *pgxpool.Pool) *LeadRepository {
	return &LeadRepository{pool: pool}
}

// List retrieves leads for an account with optional filters.
// Cursor pagination orders by created_at DESC.
func (r *LeadRepository) List(ctx context.Context, params domain.ListLeadsParams) ([]domain.Lead, string, error) {
	query := `
		SELECT id, user_id, agent_id, full_name, email, phone, status,
		       source, notes, created_at, updated_at, deleted_at
		FROM leads
		WHERE user_id = $1 AND deleted_at IS NULL
	`
	args := []interface{}{params.AccountID}
	argIdx := 2

	if params.AgentID != nil {
		query += fmt.Sprintf(" AND agent_id = $%d", argIdx)
		args = append(args, *params.AgentID)
		argIdx++
	}

	if params.Status != nil {
		query += fmt.Sprintf(" AND status = $%d", argIdx)
		args = append(args, *params.Status)
		argIdx++
	}

	if params.Cursor != nil && *params.Cursor != "" {
		cursorTime, err := time.Parse(time.RFC3339Nano, *params.Cursor)
		if err != nil {
			return nil, "", fmt.Errorf("invalid cursor format: %w", err)
		}
		query += fmt.Sprintf(" AND created_at < $%d", argIdx)
		args = append(args, cursorTime)
		argIdx++
	}

	query += " ORDER BY created_at DESC"
	query += fmt.Sprintf(" LIMIT $%d", argIdx)
	args = append(args, params.Limit+1) // +1 to check if there's a next page

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, "", fmt.Errorf("query leads: %w", err)
	}
	defer rows.Close()

	leads := make([]domain.Lead, 0, params.Limit)
	for rows.Next() {
		var l domain.Lead
		err := rows.Scan(
			&l.ID, &l.UserID, &l.AgentID, &l.FullName, &l.Email, &l.Phone,
			&l.Status, &l.Source, &l.Notes, &l.CreatedAt, &l.UpdatedAt, &l.DeletedAt,
		)
		if err != nil {
			return nil, "", fmt.Errorf("scan lead: %w", err)
		}
		leads = append(leads, l)
	}

	if err := rows.Err(); err != nil {
		return nil, "", fmt.Errorf("iterate leads: %w", err)
	}

	var nextCursor string
	if len(leads) > params.Limit {
		nextCursor = leads[params.Limit-1].CreatedAt.Format(time.RFC3339Nano)
		leads = leads[:params.Limit]
	}

	return leads, nextCursor, nil
}

// Get retrieves a single lead by ID, scoped to the account.
// IDOR protection: returns not found if the lead belongs to another account.
func (r *LeadRepository) Get(ctx context.Context, accountID, leadID string) (*domain.Lead, error) {
	query := `
		SELECT id, user_id, agent_id, full_name, email, phone, status,
		       source, notes, created_at, updated_at, deleted_at
		FROM leads
		WHERE id = $1 AND user_id = $2 AND deleted_at IS NULL
	`

	var l domain.Lead
	err := r.pool.QueryRow(ctx, query, leadID, accountID).Scan(
		&l.ID, &l.UserID, &l.AgentID, &l.FullName, &l.Email, &l.Phone,
		&l.Status, &l.Source, &l.Notes, &l.CreatedAt, &l.UpdatedAt, &l.DeletedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrLeadNotFound
		}
		return nil, fmt.Errorf("query lead: %w", err)
	}

	return &l, nil
}

// Create inserts a lead owned by the account
func (r *LeadRepository) Create(ctx context.Context, accountID string, req *domain.CreateLeadRequest) (*domain.Lead, error) {
	query := `
		INSERT INTO leads (id, user_id, agent_id, full_name, email, phone, source, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, user_id, agent_id, full_name, email, phone, status,
		          source, notes, created_at, updated_at, deleted_at
	`

	var l domain.Lead
	err := r.pool.QueryRow(ctx, query,
		uuid.NewString(), accountID, req.AgentID, req.FullName,
		req.Email, req.Phone, req.Source, req.Notes,
	).Scan(
		&l.ID, &l.UserID, &l.AgentID, &l.FullName, &l.Email, &l.Phone,
		&l.Status, &l.Source, &l.Notes, &l.CreatedAt, &l.UpdatedAt, &l.DeletedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert lead: %w", err)
	}

	return &l, nil
}

// Update applies non-nil fields to a lead, scoped to the account
func (r *LeadRepository) Update(ctx context.Context, accountID, leadID string, req *domain.UpdateLeadRequest) (*domain.Lead, error) {
	query := `
		UPDATE leads
		SET full_name  = COALESCE($3, full_name),
		    email      = COALESCE($4, email),
		    phone      = COALESCE($5, phone),
		    status     = COALESCE($6, status),
		    notes      = COALESCE($7, notes),
		    updated_at = NOW()
		WHERE id = $1 AND user_id = $2 AND deleted_at IS NULL
		RETURNING id, user_id, agent_id, full_name, email, phone, status,
		          source, notes, created_at, updated_at, deleted_at
	`

	var status *string
	if req.Status != nil {
		s := string(*req.Status)
		status = &s
	}

	var l domain.Lead
	err := r.pool.QueryRow(ctx, query,
		leadID, accountID, req.FullName, req.Email, req.Phone, status, req.Notes,
	).Scan(
		&l.ID, &l.UserID, &l.AgentID, &l.FullName, &l.Email, &l.Phone,
		&l.Status, &l.Source, &l.Notes, &l.CreatedAt, &l.UpdatedAt, &l.DeletedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrLeadNotFound
		}
		return nil, fmt.Errorf("update lead: %w", err)
	}

	return &l, nil
}

// SoftDelete marks a lead deleted, scoped to the account
func (r *LeadRepository) SoftDelete(ctx context.Context, accountID, leadID string) error {
	query := `
		UPDATE leads
		SET deleted_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND user_id = $2 AND deleted_at IS NULL
	`

	tag, err := r.pool.Exec(ctx, query, leadID, accountID)
	if err != nil {
		return fmt.Errorf("soft delete lead: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrLeadNotFound
	}

	return nil
}
