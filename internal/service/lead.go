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

var ErrLeadNotFound = repo.ErrLeadNotFound

// LeadService orchestrates lead operations: access checks, persistence,
// best-effort audit, and outbox enqueue for automation delivery.
type LeadService struct {
	leadRepo   *repo.LeadRepository
	auditRepo  *repo.AuditRepo
	outboxRepo *repo.OutboxRepo
	guard      *accounts.Guard
	log        *logger.Logger
}

// NewLeadService creates a LeadService
func NewLeadService(leadRepo *repo.LeadRepository, auditRepo *repo.AuditRepo, outboxRepo *repo.OutboxRepo, guard *accounts.Guard, log *logger.Logger) *LeadService {
	return &LeadService{
		leadRepo:   leadRepo,
		auditRepo:  auditRepo,
		outboxRepo: outboxRepo,
		guard:      guard,
		log:        log,
	}
}

// audit records an action best-effort: failures are logged and swallowed
func (s *LeadService) audit(ctx context.Context, accountID, actorID, action string, resourceID *string, success bool) {
	err := s.auditRepo.LogAction(ctx, &accountID, actorID, action, "lead", resourceID, success, nil, "", "")
	if err != nil {
		s.log.Error(ctx, "audit log write failed",
			logger.Module("lead"),
			logger.Action("audit"),
			zap.String("audited_action", action),
			zap.Error(err),
		)
	}
}

// enqueue stores a change event best-effort: a full outbox never fails the write
func (s *LeadService) enqueue(ctx context.Context, accountID string, changeType domain.ChangeType, record, old interface{}) {
	event, err := domain.NewChangeEvent(changeType, "leads", record, old)
	if err == nil {
		err = s.outboxRepo.Enqueue(ctx, accountID, event)
	}
	if err != nil {
		s.log.Error(ctx, "outbox enqueue failed",
			logger.Module("lead"),
			logger.Action("enqueue"),
			zap.String("change_type", string(changeType)),
			zap.Error(err),
		)
	}
}

// ListLeads retrieves leads. Permission: any account member.
func (s *LeadService) ListLeads(ctx context.Context, accountID, actorID string, params domain.ListLeadsParams) (*domain.LeadListResponse, error) {
	if err := requireAccess(ctx, s.guard, accountID, actorID); err != nil {
		return nil, err
	}

	params.AccountID = accountID
	params.Limit = normalizeLimit(params.Limit)

	leads, nextCursor, err := s.leadRepo.List(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("list leads: %w", err)
	}

	response := &domain.LeadListResponse{Data: leads}
	response.Meta.HasNextPage = nextCursor != ""
	if nextCursor != "" {
		response.Meta.NextCursor = &nextCursor
	}
	return response, nil
}

// GetLead retrieves a single lead. Permission: any account member.
func (s *LeadService) GetLead(ctx context.Context, accountID, leadID, actorID string) (*domain.Lead, error) {
	if err := requireAccess(ctx, s.guard, accountID, actorID); err != nil {
		return nil, err
	}

	lead, err := s.leadRepo.Get(ctx, accountID, leadID)
	if err != nil {
		return nil, err
	}

	return lead, nil
}

// CreateLead creates a lead. Permission: any account member.
// The lead is stored under the account id, not the acting member's id.
func (s *LeadService) CreateLead(ctx context.Context, accountID, actorID string, req *domain.CreateLeadRequest) (*domain.Lead, error) {
	if err := requireAccess(ctx, s.guard, accountID, actorID); err != nil {
		return nil, err
	}

	if err := req.Validate(); err != nil {
		return nil, err
	}

	lead, err := s.leadRepo.Create(ctx, accountID, req)
	if err != nil {
		return nil, fmt.Errorf("create lead: %w", err)
	}

	s.audit(ctx, accountID, actorID, "create", &lead.ID, true)
	s.enqueue(ctx, accountID, domain.ChangeInsert, lead, nil)

	return lead, nil
}

// UpdateLead updates a lead. Permission: any account member.
func (s *LeadService) UpdateLead(ctx context.Context, accountID, leadID, actorID string, req *domain.UpdateLeadRequest) (*domain.Lead, error) {
	if err := requireAccess(ctx, s.guard, accountID, actorID); err != nil {
		return nil, err
	}

	if err := req.Validate(); err != nil {
		return nil, err
	}

	previous, err := s.leadRepo.Get(ctx, accountID, leadID)
	if err != nil {
		return nil, err
	}

	lead, err := s.leadRepo.Update(ctx, accountID, leadID, req)
	if err != nil {
		return nil, err
	}

	s.audit(ctx, accountID, actorID, "update", &lead.ID, true)
	s.enqueue(ctx, accountID, domain.ChangeUpdate, lead, previous)

	return lead, nil
}

// DeleteLead soft-deletes a lead. Permission: owner or team admin only.
func (s *LeadService) DeleteLead(ctx context.Context, accountID, leadID, actorID string) error {
	if err := requireAdmin(ctx, s.guard, accountID, actorID); err != nil {
		s.audit(ctx, accountID, actorID, "delete", &leadID, false)
		return err
	}

	previous, err := s.leadRepo.Get(ctx, accountID, leadID)
	if err != nil {
		return err
	}

	if err := s.leadRepo.SoftDelete(ctx, accountID, leadID); err != nil {
		return err
	}

	s.audit(ctx, accountID, actorID, "delete", &leadID, true)
	s.enqueue(ctx, accountID, domain.ChangeDelete, previous, nil)

	return nil
}
