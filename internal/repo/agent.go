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

// ErrAgentNotFound indicates the agent does not exist within the account
var ErrAgentNotFound = errors.New("agent not found in account")

// AgentRepository handles chat-widget agent storage
type AgentRepository struct {
	pool *pgxpool.Pool
}

// NewAgentRepository creates a new AgentRepository
func NewAgentRepository(pool *pgxpool.Pool) *AgentRepository {
	return &AgentRepository{pool: pool}
}

// List retrieves all agents for an account
func (r *AgentRepository) List(ctx context.Context, accountID string) ([]domain.Agent, error) {
	query := `
		SELECT id, user_id, name, greeting, tone, widget_color, is_active,
		       created_at, updated_at
		FROM agents
		WHERE user_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.pool.Query(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("query agents: %w", err)
	}
	defer rows.Close()

	var agents []domain.Agent
	for rows.Next() {
		var a domain.Agent
		err := rows.Scan(
			&a.ID, &a.UserID, &a.Name, &a.Greeting, &a.Tone, &a.WidgetColor,
			&a.IsActive, &a.CreatedAt, &a.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan agent: %w", err)
		}
		agents = append(agents, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate agents: %w", err)
	}

	return agents, nil
}

// Get retrieves a single agent by ID, scoped to the account
func (r *AgentRepository) Get(ctx context.Context, accountID, agentID string) (*domain.Agent, error) {
	query := `
		SELECT id, user_id, name, greeting, tone, widget_color, is_active,
		       created_at, updated_at
		FROM agents
		WHERE id = $1 AND user_id = $2
	`

	var a domain.Agent
	err := r.pool.QueryRow(ctx, query, agentID, accountID).Scan(
		&a.ID, &a.UserID, &a.Name, &a.Greeting, &a.Tone, &a.WidgetColor,
		&a.IsActive, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAgentNotFound
		}
		return nil, fmt.Errorf("query agent: %w", err)
	}

	return &a, nil
}

// Create inserts an agent owned by the account
func (r *AgentRepository) Create(ctx context.Context, accountID string, req *domain.CreateAgentRequest) (*domain.Agent, error) {
	tone := req.Tone
	if tone == "" {
		tone = "friendly"
	}

	query := `
		INSERT INTO agents (id, user_id, name, greeting, tone, widget_color)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, user_id, name, greeting, tone, widget_color, is_active,
		          created_at, updated_at
	`

	var a domain.Agent
	err := r.pool.QueryRow(ctx, query,
		uuid.NewString(), accountID, req.Name, req.Greeting, tone, req.WidgetColor,
	).Scan(
		&a.ID, &a.UserID, &a.Name, &a.Greeting, &a.Tone, &a.WidgetColor,
		&a.IsActive, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert agent: %w", err)
	}

	return &a, nil
}

// Update applies non-nil fields to an agent, scoped to the account
func (r *AgentRepository) Update(ctx context.Context, accountID, agentID string, req *domain.UpdateAgentRequest) (*domain.Agent, error) {
	query := `
		UPDATE agents
		SET name         = COALESCE($3, name),
		    greeting     = COALESCE($4, greeting),
		    tone         = COALESCE($5, tone),
		    widget_color = COALESCE($6, widget_color),
		    is_active    = COALESCE($7, is_active),
		    updated_at   = NOW()
		WHERE id = $1 AND user_id = $2
		RETURNING id, user_id, name, greeting, tone, widget_color, is_active,
		          created_at, updated_at
	`

	var a domain.Agent
	err := r.pool.QueryRow(ctx, query,
		agentID, accountID, req.Name, req.Greeting, req.Tone, req.WidgetColor, req.IsActive,
	).Scan(
		&a.ID, &a.UserID, &a.Name, &a.Greeting, &a.Tone, &a.WidgetColor,
		&a.IsActive, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAgentNotFound
		}
		return nil, fmt.Errorf("update agent: %w", err)
	}

	return &a, nil
}

// Delete removes an agent, scoped to the account. Leads and conversations
// referencing it keep their rows with agent_id set to NULL by the schema.
func (r *AgentRepository) Delete(ctx context.Context, accountID, agentID string) error {
	query := `DELETE FROM agents WHERE id = $1 AND user_id = $2`

	tag, err := r.pool.Exec(ctx, query, agentID, accountID)
	if err != nil {
		return fmt.Errorf("delete agent: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAgentNotFound
	}

	return nil
}
