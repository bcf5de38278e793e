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

var (
	// ErrConversationNotFound indicates the conversation does not exist within the account
	ErrConversationNotFound = errors.New("conversation not found in account")
)

// ConversationRepository handles conversation and message storage
type ConversationRepository struct {
	pool *pgxpool.Pool
}

// NewConversationRepository creates a new ConversationRepository
func NewConversationRepository(pool *pgxpool.Pool) *ConversationRepository {
	return &ConversationRepository{pool: pool}
}

// List retrieves conversations for an account with optional filters.
// Cursor pagination orders by updated_at DESC so active chats surface first.
func (r *ConversationRepository) List(ctx context.Context, params domain.ListConversationsParams) ([]domain.Conversation, string, error) {
	query := `
		SELECT id, user_id, agent_id, lead_id, visitor_id, status,
		       created_at, updated_at
		FROM conversations
		WHERE user_id = $1
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
		query += fmt.Sprintf(" AND updated_at < $%d", argIdx)
		args = append(args, cursorTime)
		argIdx++
	}

	query += " ORDER BY updated_at DESC"
	query += fmt.Sprintf(" LIMIT $%d", argIdx)
	args = append(args, params.Limit+1)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, "", fmt.Errorf("query conversations: %w", err)
	}
	defer rows.Close()

	conversations := make([]domain.Conversation, 0, params.Limit)
	for rows.Next() {
		var c domain.Conversation
		err := rows.Scan(
			&c.ID, &c.UserID, &c.AgentID, &c.LeadID, &c.VisitorID,
			&c.Status, &c.CreatedAt, &c.UpdatedAt,
		)
		if err != nil {
			return nil, "", fmt.Errorf("scan conversation: %w", err)
		}
		conversations = append(conversations, c)
	}

	if err := rows.Err(); err != nil {
		return nil, "", fmt.Errorf("iterate conversations: %w", err)
	}

	var nextCursor string
	if len(conversations) > params.Limit {
		nextCursor = conversations[params.Limit-1].UpdatedAt.Format(time.RFC3339Nano)
		conversations = conversations[:params.Limit]
	}

	return conversations, nextCursor, nil
}

// Get retrieves a single conversation by ID, scoped to the account
func (r *ConversationRepository) Get(ctx context.Context, accountID, conversationID string) (*domain.Conversation, error) {
	query := `
		SELECT id, user_id, agent_id, lead_id, visitor_id, status,
		       created_at, updated_at
		FROM conversations
		WHERE id = $1 AND user_id = $2
	`

	var c domain.Conversation
	err := r.pool.QueryRow(ctx, query, conversationID, accountID).Scan(
		&c.ID, &c.UserID, &c.AgentID, &c.LeadID, &c.VisitorID,
		&c.Status, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrConversationNotFound
		}
		return nil, fmt.Errorf("query conversation: %w", err)
	}

	return &c, nil
}

// Create opens a conversation owned by the account
func (r *ConversationRepository) Create(ctx context.Context, accountID string, req *domain.CreateConversationRequest) (*domain.Conversation, error) {
	query := `
		INSERT INTO conversations (id, user_id, agent_id, lead_id, visitor_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, user_id, agent_id, lead_id, visitor_id, status,
		          created_at, updated_at
	`

	var c domain.Conversation
	err := r.pool.QueryRow(ctx, query,
		uuid.NewString(), accountID, req.AgentID, req.LeadID, req.VisitorID,
	).Scan(
		&c.ID, &c.UserID, &c.AgentID, &c.LeadID, &c.VisitorID,
		&c.Status, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert conversation: %w", err)
	}

	return &c, nil
}

// UpdateStatus moves a conversation between open/resolved/archived
func (r *ConversationRepository) UpdateStatus(ctx context.Context, accountID, conversationID string, status domain.ConversationStatus) (*domain.Conversation, error) {
	query := `
		UPDATE conversations
		SET status = $3, updated_at = NOW()
		WHERE id = $1 AND user_id = $2
		RETURNING id, user_id, agent_id, lead_id, visitor_id, status,
		          created_at, updated_at
	`

	var c domain.Conversation
	err := r.pool.QueryRow(ctx, query, conversationID, accountID, status).Scan(
		&c.ID, &c.UserID, &c.AgentID, &c.LeadID, &c.VisitorID,
		&c.Status, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrConversationNotFound
		}
		return nil, fmt.Errorf("update conversation status: %w", err)
	}

	return &c, nil
}

// ListMessages retrieves the messages of a conversation in chronological order.
// The conversation is first scoped to the account so a foreign conversation id
// yields not-found rather than leaking messages.
func (r *ConversationRepository) ListMessages(ctx context.Context, accountID, conversationID string) ([]domain.Message, error) {
	if _, err := r.Get(ctx, accountID, conversationID); err != nil {
		return nil, err
	}

	query := `
		SELECT id, user_id, conversation_id, sender, content, created_at
		FROM messages
		WHERE conversation_id = $1
		ORDER BY created_at ASC
	`

	rows, err := r.pool.Query(ctx, query, conversationID)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	var messages []domain.Message
	for rows.Next() {
		var m domain.Message
		if err := rows.Scan(&m.ID, &m.UserID, &m.ConversationID, &m.Sender, &m.Content, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		messages = append(messages, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}

	return messages, nil
}

// AppendMessage adds a message to a conversation, scoped to the account, and
// bumps the conversation's updated_at so it reorders in listings.
func (r *ConversationRepository) AppendMessage(ctx context.Context, accountID, conversationID string, req *domain.CreateMessageRequest) (*domain.Message, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin message tx: %w", err)
	}
	defer tx.Rollback(ctx)

	touch := `
		UPDATE conversations
		SET updated_at = NOW()
		WHERE id = $1 AND user_id = $2
	`
	tag, err := tx.Exec(ctx, touch, conversationID, accountID)
	if err != nil {
		return nil, fmt.Errorf("touch conversation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrConversationNotFound
	}

	insert := `
		INSERT INTO messages (id, user_id, conversation_id, sender, content)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, user_id, conversation_id, sender, content, created_at
	`

	var m domain.Message
	err = tx.QueryRow(ctx, insert,
		uuid.NewString(), accountID, conversationID, req.Sender, req.Content,
	).Scan(&m.ID, &m.UserID, &m.ConversationID, &m.Sender, &m.Content, &m.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert message: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit message tx: %w", err)
	}

	return &m, nil
}
