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

var ErrAgentNotFound = repo.ErrAgentNotFound

// AgentService orchestrates chat-widget agent operations
type AgentService struct {
	agentRepo *repo.AgentRepository
	auditRepo *repo.AuditRepo
	guard     *accounts.Guard
	log       *logger.Logger
}

// NewAgentService creates an AgentService
func NewAgentService(agentRepo *repo.AgentRepository, auditRepo *repo.AuditRepo, guard *accounts.Guard, log *logger.Logger) *AgentService {
	return &AgentService{
		agentRepo: agentRepo,
		auditRepo: auditRepo,
		guard:     guard,
		log:       log,
	}
}

func (s *AgentService) audit(ctx context.Context, accountID, actorID, action string, resourceID *string, success bool) {
	err := s.auditRepo.LogAction(ctx, &accountID, actorID, action, "agent", resourceID, success, nil, "", "")
	if err != nil {
		s.log.Error(ctx, "audit log write failed",
			logger.Module("agent"),
			logger.Action("audit"),
			zap.String("audited_action", action),
			zap.Error(err),
		)
	}
}

// ListAgents retrieves all agents. Permission: any account member.
func (s *AgentService) ListAgents(ctx context.Context, accountID, actorID string) ([]domain.Agent, error) {
	if err := requireAccess(ctx, s.guard, accountID, actorID); err != nil {
		return nil, err
	}

	agents, err := s.agentRepo.List(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("list agents: %w", err)
	}

	return agents, nil
}

// GetAgent retrieves a single agent. Permission: any account member.
func (s *AgentService) GetAgent(ctx context.Context, accountID, agentID, actorID string) (*domain.Agent, error) {
	if err := requireAccess(ctx, s.guard, accountID, actorID); err != nil {
		return nil, err
	}

	return s.agentRepo.Get(ctx, accountID, agentID)
}

// CreateAgent creates an agent. Permission: any account member.
func (s *AgentService) CreateAgent(ctx context.Context, accountID, actorID string, req *domain.CreateAgentRequest) (*domain.Agent, error) {
	if err := requireAccess(ctx, s.guard, accountID, actorID); err != nil {
		return nil, err
	}

	if err := req.Validate(); err != nil {
		return nil, err
	}

	agent, err := s.agentRepo.Create(ctx, accountID, req)
	if err != nil {
		return nil, fmt.Errorf("create agent: %w", err)
	}

	s.audit(ctx, accountID, actorID, "create", &agent.ID, true)

	return agent, nil
}

// UpdateAgent updates an agent. Permission: any account member.
func (s *AgentService) UpdateAgent(ctx context.Context, accountID, agentID, actorID string, req *domain.UpdateAgentRequest) (*domain.Agent, error) {
	if err := requireAccess(ctx, s.guard, accountID, actorID); err != nil {
		return nil, err
	}

	if err := req.Validate(); err != nil {
		return nil, err
	}

	agent, err := s.agentRepo.Update(ctx, accountID, agentID, req)
	if err != nil {
		return nil, err
	}

	s.audit(ctx, accountID, actorID, "update", &agent.ID, true)

	return agent, nil
}

// DeleteAgent removes an agent. Permission: owner or team admin only.
func (s *AgentService) DeleteAgent(ctx context.Context, accountID, agentID, actorID string) error {
	if err := requireAdmin(ctx, s.guard, accountID, actorID); err != nil {
		s.audit(ctx, accountID, actorID, "delete", &agentID, false)
		return err
	}

	if err := s.agentRepo.Delete(ctx, accountID, agentID); err != nil {
		return err
	}

	s.audit(ctx, accountID, actorID, "delete", &agentID, true)

	return nil
}
