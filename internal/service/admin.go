package service

import (
	"context"
	"fmt"
	"time"

	"pilot-api/internal/accounts"
	"pilot-api/internal/domain"
	"pilot-api/internal/observability/logger"
	"pilot-api/internal/repo"

	"go.uber.org/zap"
)

var ErrImpersonationNotFound = repo.ErrImpersonationNotFound

// AdminService exposes the platform-operator surface: impersonation,
// audit-log reads, and platform role management. Every operation here is
// capability-gated and audited with a nil account id (these are platform
// actions, not account actions).
type AdminService struct {
	impersonationRepo *repo.ImpersonationRepo
	platformRoleRepo  *repo.PlatformRoleRepo
	accountRepo       *repo.AccountRepo
	auditRepo         *repo.AuditRepo
	guard             *accounts.Guard
	log               *logger.Logger
}

// NewAdminService creates an AdminService
func NewAdminService(impersonationRepo *repo.ImpersonationRepo, platformRoleRepo *repo.PlatformRoleRepo, accountRepo *repo.AccountRepo, auditRepo *repo.AuditRepo, guard *accounts.Guard, log *logger.Logger) *AdminService {
	return &AdminService{
		impersonationRepo: impersonationRepo,
		platformRoleRepo:  platformRoleRepo,
		accountRepo:       accountRepo,
		auditRepo:         auditRepo,
		guard:             guard,
		log:               log,
	}
}

func (s *AdminService) audit(ctx context.Context, actorID, action, resourceType string, resourceID *string, success bool, details map[string]interface{}) {
	err := s.auditRepo.LogAction(ctx, nil, actorID, action, resourceType, resourceID, success, details, "", "")
	if err != nil {
		s.log.Error(ctx, "audit log write failed",
			logger.Module("admin"),
			logger.Action("audit"),
			zap.String("audited_action", action),
			zap.Error(err),
		)
	}
}

// StartImpersonation opens a session acting as the target user. Permission:
// impersonate_users capability (super_admin implies it). Any prior session the
// operator holds is closed; the new session is honored for 30 minutes.
// Denied attempts are audited with success=false.
func (s *AdminService) StartImpersonation(ctx context.Context, actorID, targetUserID string) (*domain.ImpersonationSession, error) {
	if err := requireCapability(ctx, s.guard, actorID, domain.CapabilityImpersonateUsers); err != nil {
		s.audit(ctx, actorID, "impersonation_start", "impersonation_session", nil, false, map[string]interface{}{
			"target_user_id": targetUserID,
		})
		return nil, err
	}

	if targetUserID == "" || targetUserID == actorID {
		return nil, fmt.Errorf("invalid impersonation target %q", targetUserID)
	}

	session, err := s.impersonationRepo.Start(ctx, actorID, targetUserID)
	if err != nil {
		return nil, fmt.Errorf("start impersonation: %w", err)
	}

	s.audit(ctx, actorID, "impersonation_start", "impersonation_session", nil, true, map[string]interface{}{
		"target_user_id": targetUserID,
		"session_id":     session.ID,
	})

	return session, nil
}

// StopImpersonation ends the operator's active session. No capability check:
// dropping an assumed identity must always be possible.
func (s *AdminService) StopImpersonation(ctx context.Context, actorID string) error {
	if err := s.impersonationRepo.Stop(ctx, actorID); err != nil {
		return err
	}

	s.audit(ctx, actorID, "impersonation_stop", "impersonation_session", nil, true, nil)

	return nil
}

// CurrentImpersonation returns the operator's active, time-valid session or
// nil when none is in effect.
func (s *AdminService) CurrentImpersonation(ctx context.Context, actorID string) (*domain.ImpersonationSession, error) {
	session, err := s.impersonationRepo.ActiveSession(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if !session.ValidAt(time.Now()) {
		return nil, nil
	}
	return session, nil
}

// ListAuditLog reads audit entries. Permission: view_audit_log capability.
func (s *AdminService) ListAuditLog(ctx context.Context, actorID string, params domain.ListAuditParams) ([]domain.AuditEntry, string, error) {
	if err := requireCapability(ctx, s.guard, actorID, domain.CapabilityViewAuditLog); err != nil {
		return nil, "", err
	}

	params.Limit = normalizeLimit(params.Limit)

	return s.auditRepo.List(ctx, params)
}

// DeleteAccount removes an account and everything it owns: resources,
// memberships, invitations, pending events, the subscription, and the profile.
// Audit history is retained. Permission: super_admin only; no capability
// shortcut, this is the most destructive operation on the platform surface.
// Denied attempts are audited with success=false.
func (s *AdminService) DeleteAccount(ctx context.Context, actorID, accountID string) error {
	if accountID == "" {
		return fmt.Errorf("invalid account id %q", accountID)
	}

	super, err := s.guard.IsPlatformSuperAdmin(ctx, actorID)
	if err != nil {
		return fmt.Errorf("check platform role: %w", err)
	}
	if !super {
		s.audit(ctx, actorID, "account_delete", "account", &accountID, false, nil)
		return ErrUnauthorized
	}

	deleted, err := s.accountRepo.DeleteCascade(ctx, accountID)
	if err != nil {
		return fmt.Errorf("delete account: %w", err)
	}

	s.log.Info(ctx, "account deleted",
		logger.Module("admin"),
		logger.Action("account_delete"),
		zap.String("account_id", accountID),
		zap.Int64("rows_deleted", deleted),
	)

	s.audit(ctx, actorID, "account_delete", "account", &accountID, true, map[string]interface{}{
		"rows_deleted": deleted,
	})

	return nil
}

// GetPlatformGrant reads a user's platform grant. Permission: super_admin.
func (s *AdminService) GetPlatformGrant(ctx context.Context, actorID, userID string) (*domain.PlatformGrant, error) {
	super, err := s.guard.IsPlatformSuperAdmin(ctx, actorID)
	if err != nil {
		return nil, fmt.Errorf("check platform role: %w", err)
	}
	if !super {
		return nil, ErrUnauthorized
	}

	return s.platformRoleRepo.GetPlatformGrant(ctx, userID)
}

// SetPlatformRole assigns a platform role and capability set to a user.
// Permission: super_admin only. Role grants are the most sensitive write on
// the platform surface, so the capability shortcut does not apply.
func (s *AdminService) SetPlatformRole(ctx context.Context, actorID, userID string, role domain.PlatformRole, permissions []domain.AdminCapability) error {
	super, err := s.guard.IsPlatformSuperAdmin(ctx, actorID)
	if err != nil {
		return fmt.Errorf("check platform role: %w", err)
	}
	if !super {
		s.audit(ctx, actorID, "set_platform_role", "user_role", &userID, false, nil)
		return ErrUnauthorized
	}

	if err := s.platformRoleRepo.SetPlatformRole(ctx, userID, role, permissions); err != nil {
		return err
	}

	s.audit(ctx, actorID, "set_platform_role", "user_role", &userID, true, map[string]interface{}{
		"role": string(role),
	})

	return nil
}
