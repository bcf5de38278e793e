package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"pilot-api/internal/accounts"
	"pilot-api/internal/domain"
	"pilot-api/internal/observability/logger"
	"pilot-api/internal/repo"

	"go.uber.org/zap"
)

var ErrWebhookNotFound = repo.ErrWebhookNotFound

// WebhookService orchestrates customer webhook endpoints. All management is
// admin-gated: the endpoint secret is a credential.
type WebhookService struct {
	webhookRepo *repo.WebhookRepository
	auditRepo   *repo.AuditRepo
	guard       *accounts.Guard
	log         *logger.Logger
}

// NewWebhookService creates a WebhookService
func NewWebhookService(webhookRepo *repo.WebhookRepository, auditRepo *repo.AuditRepo, guard *accounts.Guard, log *logger.Logger) *WebhookService {
	return &WebhookService{
		webhookRepo: webhookRepo,
		auditRepo:   auditRepo,
		guard:       guard,
		log:         log,
	}
}

func (s *WebhookService) audit(ctx context.Context, accountID, actorID, action string, resourceID *string, success bool) {
	err := s.auditRepo.LogAction(ctx, &accountID, actorID, action, "webhook", resourceID, success, nil, "", "")
	if err != nil {
		s.log.Error(ctx, "audit log write failed",
			logger.Module("webhook"),
			logger.Action("audit"),
			zap.String("audited_action", action),
			zap.Error(err),
		)
	}
}

// generateSecret mints a webhook signing secret
func generateSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate webhook secret: %w", err)
	}
	return "whsec_" + hex.EncodeToString(buf), nil
}

// ListWebhooks retrieves the account's webhooks. Permission: owner or team admin.
func (s *WebhookService) ListWebhooks(ctx context.Context, accountID, actorID string) ([]domain.Webhook, error) {
	if err := requireAdmin(ctx, s.guard, accountID, actorID); err != nil {
		return nil, err
	}

	webhooks, err := s.webhookRepo.List(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("list webhooks: %w", err)
	}

	return webhooks, nil
}

// GetWebhook retrieves a single webhook. Permission: owner or team admin.
func (s *WebhookService) GetWebhook(ctx context.Context, accountID, webhookID, actorID string) (*domain.Webhook, error) {
	if err := requireAdmin(ctx, s.guard, accountID, actorID); err != nil {
		return nil, err
	}

	return s.webhookRepo.Get(ctx, accountID, webhookID)
}

// CreateWebhook registers an endpoint with a fresh signing secret.
// Permission: owner or team admin.
func (s *WebhookService) CreateWebhook(ctx context.Context, accountID, actorID string, req *domain.CreateWebhookRequest) (*domain.Webhook, error) {
	if err := requireAdmin(ctx, s.guard, accountID, actorID); err != nil {
		s.audit(ctx, accountID, actorID, "create", nil, false)
		return nil, err
	}

	if err := req.Validate(); err != nil {
		return nil, err
	}

	secret, err := generateSecret()
	if err != nil {
		return nil, err
	}

	webhook, err := s.webhookRepo.Create(ctx, accountID, secret, req)
	if err != nil {
		return nil, fmt.Errorf("create webhook: %w", err)
	}

	s.audit(ctx, accountID, actorID, "create", &webhook.ID, true)

	return webhook, nil
}

// UpdateWebhook applies partial changes to an endpoint. Permission: owner or
// team admin.
func (s *WebhookService) UpdateWebhook(ctx context.Context, accountID, webhookID, actorID string, req *domain.UpdateWebhookRequest) (*domain.Webhook, error) {
	if err := requireAdmin(ctx, s.guard, accountID, actorID); err != nil {
		s.audit(ctx, accountID, actorID, "update", &webhookID, false)
		return nil, err
	}

	if err := req.Validate(); err != nil {
		return nil, err
	}

	webhook, err := s.webhookRepo.Update(ctx, accountID, webhookID, req)
	if err != nil {
		return nil, err
	}

	s.audit(ctx, accountID, actorID, "update", &webhook.ID, true)

	return webhook, nil
}

// DeleteWebhook removes an endpoint. Permission: owner or team admin.
func (s *WebhookService) DeleteWebhook(ctx context.Context, accountID, webhookID, actorID string) error {
	if err := requireAdmin(ctx, s.guard, accountID, actorID); err != nil {
		s.audit(ctx, accountID, actorID, "delete", &webhookID, false)
		return err
	}

	if err := s.webhookRepo.Delete(ctx, accountID, webhookID); err != nil {
		return err
	}

	s.audit(ctx, accountID, actorID, "delete", &webhookID, true)

	return nil
}
