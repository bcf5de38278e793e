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
	ErrNotTeamMember      = accounts.ErrNotTeamMember
	ErrInvitationNotFound = repo.ErrInvitationNotFound
	ErrInvitationExpired  = repo.ErrInvitationExpired
	ErrSelfMembership     = domain.ErrSelfMembership
)

// TeamService orchestrates team membership and invitations.
// Membership writes take effect on the next access check; there is no
// revocation delay and no cache to invalidate.
type TeamService struct {
	membershipRepo *repo.MembershipRepo
	invitationRepo *repo.InvitationRepo
	auditRepo      *repo.AuditRepo
	guard          *accounts.Guard
	log            *logger.Logger
}

// NewTeamService creates a TeamService
func NewTeamService(membershipRepo *repo.MembershipRepo, invitationRepo *repo.InvitationRepo, auditRepo *repo.AuditRepo, guard *accounts.Guard, log *logger.Logger) *TeamService {
	return &TeamService{
		membershipRepo: membershipRepo,
		invitationRepo: invitationRepo,
		auditRepo:      auditRepo,
		guard:          guard,
		log:            log,
	}
}

func (s *TeamService) audit(ctx context.Context, accountID, actorID, action string, resourceID *string, success bool, details map[string]interface{}) {
	err := s.auditRepo.LogAction(ctx, &accountID, actorID, action, "team_member", resourceID, success, details, "", "")
	if err != nil {
		s.log.Error(ctx, "audit log write failed",
			logger.Module("team"),
			logger.Action("audit"),
			zap.String("audited_action", action),
			zap.Error(err),
		)
	}
}

// ListMembers retrieves the account's team. Permission: any account member.
func (s *TeamService) ListMembers(ctx context.Context, accountID, actorID string) ([]domain.TeamMember, error) {
	if err := requireAccess(ctx, s.guard, accountID, actorID); err != nil {
		return nil, err
	}

	members, err := s.membershipRepo.ListMembers(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}

	return members, nil
}

// ListPendingInvitations retrieves open invites. Permission: owner or team admin.
func (s *TeamService) ListPendingInvitations(ctx context.Context, accountID, actorID string) ([]domain.TeamInvitation, error) {
	if err := requireAdmin(ctx, s.guard, accountID, actorID); err != nil {
		return nil, err
	}

	return s.invitationRepo.ListPending(ctx, accountID)
}

// Invite issues an invitation into the account. Permission: owner or team
// admin. Returns the invitation plus the one-time token for the invite email.
func (s *TeamService) Invite(ctx context.Context, accountID, actorID, email string, role domain.TeamRole) (*domain.TeamInvitation, string, error) {
	if err := requireAdmin(ctx, s.guard, accountID, actorID); err != nil {
		s.audit(ctx, accountID, actorID, "invite", nil, false, map[string]interface{}{"email": email})
		return nil, "", err
	}

	if !role.IsValid() {
		return nil, "", domain.ErrInvalidTeamRole
	}

	invitation, token, err := s.invitationRepo.Create(ctx, accountID, email, role, actorID)
	if err != nil {
		return nil, "", fmt.Errorf("create invitation: %w", err)
	}

	s.audit(ctx, accountID, actorID, "invite", nil, true, map[string]interface{}{
		"email": email,
		"role":  string(role),
	})

	return invitation, token, nil
}

// AcceptInvitation redeems an invite token for the accepting principal and
// creates the membership row. The principal needs no prior account context:
// acceptance is exactly how they gain one.
func (s *TeamService) AcceptInvitation(ctx context.Context, actorID, token string) (*domain.TeamMember, error) {
	invitation, err := s.invitationRepo.GetByToken(ctx, token)
	if err != nil {
		return nil, err
	}

	// The owner redeeming their own invite would create a self-membership row
	if invitation.OwnerID == actorID {
		return nil, domain.ErrSelfMembership
	}

	member, err := s.membershipRepo.AddMember(ctx, invitation.OwnerID, actorID, invitation.Role, &invitation.InvitedBy)
	if err != nil {
		return nil, fmt.Errorf("add member: %w", err)
	}

	if err := s.invitationRepo.MarkAccepted(ctx, invitation.ID); err != nil {
		s.log.Error(ctx, "failed to mark invitation accepted",
			logger.Module("team"),
			logger.Action("accept_invitation"),
			zap.Int64("invitation_id", invitation.ID),
			zap.Error(err),
		)
	}

	s.audit(ctx, invitation.OwnerID, actorID, "accept_invitation", &member.MemberID, true, map[string]interface{}{
		"role": string(member.Role),
	})

	return member, nil
}

// UpdateMemberRole changes a member's team role. Permission: owner or team admin.
func (s *TeamService) UpdateMemberRole(ctx context.Context, accountID, actorID, memberID string, role domain.TeamRole) error {
	if err := requireAdmin(ctx, s.guard, accountID, actorID); err != nil {
		s.audit(ctx, accountID, actorID, "update_role", &memberID, false, nil)
		return err
	}

	if err := s.membershipRepo.UpdateMemberRole(ctx, accountID, memberID, role); err != nil {
		return err
	}

	s.audit(ctx, accountID, actorID, "update_role", &memberID, true, map[string]interface{}{
		"role": string(role),
	})

	return nil
}

// RemoveMember deletes a membership. Permission: owner or team admin; a
// member may also remove themselves (leave the team).
func (s *TeamService) RemoveMember(ctx context.Context, accountID, actorID, memberID string) error {
	if actorID != memberID {
		if err := requireAdmin(ctx, s.guard, accountID, actorID); err != nil {
			s.audit(ctx, accountID, actorID, "remove_member", &memberID, false, nil)
			return err
		}
	}

	if err := s.membershipRepo.RemoveMember(ctx, accountID, memberID); err != nil {
		return err
	}

	s.audit(ctx, accountID, actorID, "remove_member", &memberID, true, nil)

	return nil
}
