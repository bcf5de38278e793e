package domain

import (
	"time"
)

// =====================================================
// Team Roles (intra-account)
// =====================================================

// TeamRole is the role a team member holds inside a single account.
// It is distinct from PlatformRole: team roles govern what a member may do with
// the owning account's resources, platform roles govern operator access across
// all accounts. The two must never be conflated.
type TeamRole string

const (
	// TeamRoleAdmin may manage members and perform destructive operations
	TeamRoleAdmin TeamRole = "admin"

	// TeamRoleMember may read and modify shared resources but not destroy them
	TeamRoleMember TeamRole = "member"
)

// String returns the string representation of the TeamRole
func (r TeamRole) String() string {
	return string(r)
}

// IsValid checks if the role is one of the defined constants
func (r TeamRole) IsValid() bool {
	switch r {
	case TeamRoleAdmin, TeamRoleMember:
		return true
	default:
		return false
	}
}

// =====================================================
// Platform Roles (cross-account operators)
// =====================================================

// PlatformRole is the platform-level role of a principal.
type PlatformRole string

const (
	PlatformRoleMember     PlatformRole = "member"
	PlatformRoleAdmin      PlatformRole = "admin"
	PlatformRoleSuperAdmin PlatformRole = "super_admin"
	PlatformRoleSupport    PlatformRole = "support"
)

// AdminCapability is a fine-grained platform-operator permission.
type AdminCapability string

const (
	CapabilityViewContent      AdminCapability = "view_content"
	CapabilityManageContent    AdminCapability = "manage_content"
	CapabilityManageTeam       AdminCapability = "manage_team"
	CapabilityImpersonateUsers AdminCapability = "impersonate_users"
	CapabilityViewRevenue      AdminCapability = "view_revenue"
	CapabilityViewAuditLog     AdminCapability = "view_audit_log"
)

// PlatformGrant is a principal's platform role plus its capability set.
type PlatformGrant struct {
	UserID           string            `json:"userId"`
	Role             PlatformRole      `json:"role"`
	AdminPermissions []AdminCapability `json:"adminPermissions"`
}

// Allows reports whether the grant covers a capability.
// super_admin holds every capability unconditionally.
func (g *PlatformGrant) Allows(capability AdminCapability) bool {
	if g == nil {
		return false
	}
	if g.Role == PlatformRoleSuperAdmin {
		return true
	}
	for _, c := range g.AdminPermissions {
		if c == capability {
			return true
		}
	}
	return false
}

// =====================================================
// Team Membership
// =====================================================

// TeamMember links a member principal to an account owner with a team role.
// Invariant: OwnerID != MemberID (no self-membership).
type TeamMember struct {
	ID        int64     `json:"id"`
	OwnerID   string    `json:"ownerId"`
	MemberID  string    `json:"memberId"`
	Role      TeamRole  `json:"role"`
	InvitedBy *string   `json:"invitedBy,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// TeamInvitation is a pending invite into an owner's account.
type TeamInvitation struct {
	ID         int64      `json:"id"`
	OwnerID    string     `json:"ownerId"`
	Email      string     `json:"email"`
	Role       TeamRole   `json:"role"`
	InvitedBy  string     `json:"invitedBy"`
	AcceptedAt *time.Time `json:"acceptedAt,omitempty"`
	ExpiresAt  time.Time  `json:"expiresAt"`
	CreatedAt  time.Time  `json:"createdAt"`
}

// IsExpired reports whether the invitation is past its validity window.
func (i *TeamInvitation) IsExpired(now time.Time) bool {
	return now.After(i.ExpiresAt)
}

// =====================================================
// Impersonation
// =====================================================

// ImpersonationWindow bounds how long an impersonation session is honored,
// counted from started_at regardless of the is_active flag.
const ImpersonationWindow = 30 * time.Minute

// ImpersonationSession lets a platform operator act as a target account owner
// for a bounded support window.
type ImpersonationSession struct {
	ID           int64      `json:"id"`
	AdminUserID  string     `json:"adminUserId"`
	TargetUserID string     `json:"targetUserId"`
	StartedAt    time.Time  `json:"startedAt"`
	IsActive     bool       `json:"isActive"`
	EndedAt      *time.Time `json:"endedAt,omitempty"`
}

// ValidAt reports whether the session should be honored at the given instant.
// The time bound is checked independently of IsActive: a stale-true flag on a
// session older than the window must not grant access.
func (s *ImpersonationSession) ValidAt(now time.Time) bool {
	if s == nil || !s.IsActive {
		return false
	}
	return now.Sub(s.StartedAt) <= ImpersonationWindow
}

// =====================================================
// Profile & Subscription
// =====================================================

// Profile is the principal-facing identity record.
type Profile struct {
	UserID            string     `json:"userId"`
	DisplayName       *string    `json:"displayName,omitempty"`
	AvatarURL         *string    `json:"avatarUrl,omitempty"`
	Email             *string    `json:"email,omitempty"`
	SignupCompletedAt *time.Time `json:"signupCompletedAt,omitempty"`
	CreatedAt         time.Time  `json:"createdAt"`
	UpdatedAt         time.Time  `json:"updatedAt"`
}

// Subscription marks its user as an account owner while status is active.
type Subscription struct {
	ID        int64     `json:"id"`
	UserID    string    `json:"userId"`
	PlanID    string    `json:"planId"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// =====================================================
// Permission helpers
// =====================================================
// The per-resource authorization matrix:
//
// | Operation                  | Owner | Team admin | Team member |
// |----------------------------|-------|------------|-------------|
// | Read any account resource  | yes   | yes        | yes         |
// | Create/update lead, agent  | yes   | yes        | yes         |
// | Create conversation/message| yes   | yes        | yes         |
// | Delete lead/agent          | yes   | yes        | no          |
// | Manage webhooks (secret)   | yes   | yes        | no          |
// | Create/revoke API keys     | yes   | yes        | no          |
// | Invite/remove members      | yes   | yes        | no          |
//
// Platform operators (super_admin, or support with the matching capability)
// satisfy any of these checks independently of team membership.

// CanModifyResources checks if the team role can create/update shared resources
func CanModifyResources(role TeamRole) bool {
	return role == TeamRoleAdmin || role == TeamRoleMember
}

// CanDeleteResources checks if the team role can perform destructive operations
func CanDeleteResources(role TeamRole) bool {
	return role == TeamRoleAdmin
}

// CanManageTeam checks if the team role can invite/remove members
func CanManageTeam(role TeamRole) bool {
	return role == TeamRoleAdmin
}
