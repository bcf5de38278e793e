package service

import (
	"context"
	"fmt"

	"pilot-api/internal/accounts"
	"pilot-api/internal/domain"
	"pilot-api/internal/observability/logger"
	"pilot-api/internal/repo"

	"go.uber.org/zap"
)

var ErrConversationNotFound = repo.ErrConversationNotFound

// ConversationService orchestrates widget conversations and their messages.
// Conversation and message inserts feed the outbox so automations (lead
// notifications, follow-ups) fire off the same write.
type ConversationService struct {
	convRepo   *repo.ConversationRepository
	outboxRepo *repo.OutboxRepo
	guard      *accounts.Guard
	log        *logger.Logger
}

// NewConversationService creates a ConversationService
func NewConversationService(convRepo *repo.ConversationRepository, outboxRepo *repo.OutboxRepo, guard *accounts.Guard, log *logger.Logger) *ConversationService {
	return &ConversationService{
		convRepo:   convRepo,
		outboxRepo: outboxRepo,
		guard:      guard,
		log:        log,
	}
}

func (s *ConversationService) enqueue(ctx context.Context, accountID, table string, changeType domain.ChangeType, record, old interface{}) {
	event, err := domain.NewChangeEvent(changeType, table, record, old)
	if err == nil {
		err = s.outboxRepo.Enqueue(ctx, accountID, event)
	}
	if err != nil {
		s.log.Error(ctx, "outbox enqueue failed",
			logger.Module("conversation"),
			logger.Action("enqueue"),
			zap.String("table", table),
			zap.String("change_type", string(changeType)),
			zap.Error(err),
		)
	}
}

// ListConversations retrieves conversations. Permission: any account member.
func (s *ConversationService) ListConversations(ctx context.Context, accountID, actorID string, params domain.ListConversationsParams) (*domain.ConversationListResponse, error) {
	if err := requireAccess(ctx, s.guard, accountID, actorID); err != nil {
		return nil, err
	}

	params.AccountID = accountID
	params.Limit = normalizeLimit(params.Limit)

	conversations, nextCursor, err := s.convRepo.List(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}

	response := &domain.ConversationListResponse{Data: conversations}
	response.Meta.HasNextPage = nextCursor != ""
	if nextCursor != "" {
		response.Meta.NextCursor = &nextCursor
	}
	return response, nil
}

// GetConversation retrieves a single conversation. Permission: any account member.
func (s *ConversationService) GetConversation(ctx context.Context, accountID, conversationID, actorID string) (*domain.Conversation, error) {
	if err := requireAccess(ctx, s.guard, accountID, actorID); err != nil {
		return nil, err
	}

	return s.convRepo.Get(ctx, accountID, conversationID)
}

// CreateConversation opens a conversation. Permission: any account member.
// Widget traffic arrives through the service-token path with the account
// already resolved.
func (s *ConversationService) CreateConversation(ctx context.Context, accountID, actorID string, req *domain.CreateConversationRequest) (*domain.Conversation, error) {
	if err := requireAccess(ctx, s.guard, accountID, actorID); err != nil {
		return nil, err
	}

	if err := req.Validate(); err != nil {
		return nil, err
	}

	conversation, err := s.convRepo.Create(ctx, accountID, req)
	if err != nil {
		return nil, fmt.Errorf("create conversation: %w", err)
	}

	s.enqueue(ctx, accountID, "conversations", domain.ChangeInsert, conversation, nil)

	return conversation, nil
}

// UpdateConversationStatus moves a conversation between open/resolved/archived.
// Permission: any account member.
func (s *ConversationService) UpdateConversationStatus(ctx context.Context, accountID, conversationID, actorID string, status domain.ConversationStatus) (*domain.Conversation, error) {
	if err := requireAccess(ctx, s.guard, accountID, actorID); err != nil {
		return nil, err
	}

	if !status.IsValid() {
		return nil, fmt.Errorf("invalid conversation status %q", status)
	}

	previous, err := s.convRepo.Get(ctx, accountID, conversationID)
	if err != nil {
		return nil, err
	}

	conversation, err := s.convRepo.UpdateStatus(ctx, accountID, conversationID, status)
	if err != nil {
		return nil, err
	}

	s.enqueue(ctx, accountID, "conversations", domain.ChangeUpdate, conversation, previous)

	return conversation, nil
}

// ListMessages retrieves a conversation's messages. Permission: any account member.
func (s *ConversationService) ListMessages(ctx context.Context, accountID, conversationID, actorID string) ([]domain.Message, error) {
	if err := requireAccess(ctx, s.guard, accountID, actorID); err != nil {
		return nil, err
	}

	return s.convRepo.ListMessages(ctx, accountID, conversationID)
}

// AppendMessage adds a message to a conversation. Permission: any account member.
func (s *ConversationService) AppendMessage(ctx context.Context, accountID, conversationID, actorID string, req *domain.CreateMessageRequest) (*domain.Message, error) {
	if err := requireAccess(ctx, s.guard, accountID, actorID); err != nil {
		return nil, err
	}

	if err := req.Validate(); err != nil {
		return nil, err
	}

	message, err := s.convRepo.AppendMessage(ctx, accountID, conversationID, req)
	if err != nil {
		return nil, err
	}

	s.enqueue(ctx, accountID, "messages", domain.ChangeInsert, message, nil)

	return message, nil
}
