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

var (
	ErrAPIKeyNotFound = repo.ErrAPIKeyNotFound
	ErrAPIKeyRevoked  = repo.ErrAPIKeyRevoked
)

// APIKeyService orchestrates API key lifecycle. Creating and revoking keys is
// admin-gated; the plaintext key appears only in the create response.
type APIKeyService struct {
	keyRepo   *repo.APIKeyRepository
	auditRepo *repo.AuditRepo
	guard     *accounts.Guard
	log       *logger.Logger
}

// NewAPIKeyService creates an APIKeyService
func NewAPIKeyService(keyRepo *repo.APIKeyRepository, auditRepo *repo.AuditRepo, guard *accounts.Guard, log *logger.Logger) *APIKeyService {
	return &APIKeyService{
		keyRepo:   keyRepo,
		auditRepo: auditRepo,
		guard:     guard,
		log:       log,
	}
}

func (s *APIKeyService) audit(ctx context.Context, accountID, actorID, action string, resourceID *string, success bool) {
	err := s.auditRepo.LogAction(ctx, &accountID, actorID, action, "api_key", resourceID, success, nil, "", "")
	if err != nil {
		s.log.Error(ctx, "audit log write failed",
			logger.Module("apikey"),
			logger.Action("audit"),
			zap.String("audited_action", action),
			zap.Error(err),
		)
	}
}

// ListKeys retrieves the account's keys, revoked included. Permission: any
// account member. Only prefixes are exposed, never hashes or plaintext.
func (s *APIKeyService) ListKeys(ctx context.Context, accountID, actorID string) ([]domain.APIKey, error) {
	if err := requireAccess(ctx, s.guard, accountID, actorID); err != nil {
		return nil, err
	}

	keys, err := s.keyRepo.List(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("list api keys: %w", err)
	}

	return keys, nil
}

// CreateKey mints a new key. Permission: owner or team admin.
func (s *APIKeyService) CreateKey(ctx context.Context, accountID, actorID string, req *domain.CreateAPIKeyRequest) (*domain.CreatedAPIKey, error) {
	if err := requireAdmin(ctx, s.guard, accountID, actorID); err != nil {
		s.audit(ctx, accountID, actorID, "create", nil, false)
		return nil, err
	}

	if err := req.Validate(); err != nil {
		return nil, err
	}

	created, err := s.keyRepo.Create(ctx, accountID, actorID, req)
	if err != nil {
		return nil, fmt.Errorf("create api key: %w", err)
	}

	s.audit(ctx, accountID, actorID, "create", &created.ID, true)

	return created, nil
}

// RevokeKey revokes a key. Permission: owner or team admin. Revocation is
// immediate: the next Authenticate call on the key fails.
func (s *APIKeyService) RevokeKey(ctx context.Context, accountID, actorID, keyID string) error {
	if err := requireAdmin(ctx, s.guard, accountID, actorID); err != nil {
		s.audit(ctx, accountID, actorID, "revoke", &keyID, false)
		return err
	}

	if err := s.keyRepo.Revoke(ctx, accountID, keyID); err != nil {
		return err
	}

	s.audit(ctx, accountID, actorID, "revoke", &keyID, true)

	return nil
}
