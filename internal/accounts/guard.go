package accounts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pilot-api/internal/domain"
)

// Guard evaluates the access predicates every resource operation is gated on.
// All predicates read current store state on every call: removing a team
// membership revokes access on the very next check.
type Guard struct {
	memberships    MembershipStore
	roles          PlatformRoleStore
	impersonations ImpersonationStore
	now            func() time.Time
}

// NewGuard creates a Guard. impersonations may be nil for callers that never
// honor impersonation.
func NewGuard(memberships MembershipStore, roles PlatformRoleStore, impersonations ImpersonationStore) *Guard {
	return &Guard{
		memberships:    memberships,
		roles:          roles,
		impersonations: impersonations,
		now:            time.Now,
	}
}

// WithClock overrides the time source. Test hook.
func (g *Guard) WithClock(now func() time.Time) *Guard {
	g.now = now
	return g
}

// HasAccountAccess reports whether the principal may read and modify the
// account's shared resources: true iff the principal IS the account owner, or
// holds any team membership for it.
func (g *Guard) HasAccountAccess(ctx context.Context, accountID, principalID string) (bool, error) {
	if accountID == "" || principalID == "" {
		return false, nil
	}
	if principalID == accountID {
		return true, nil
	}

	_, err := g.memberships.GetTeamRole(ctx, accountID, principalID)
	if err != nil {
		if errors.Is(err, ErrNotTeamMember) {
			return false, nil
		}
		return false, fmt.Errorf("query team role: %w", err)
	}
	return true, nil
}

// IsAccountAdmin reports whether the principal may perform destructive or
// sensitive operations on the account: true iff the principal IS the owner, or
// holds a membership with team role admin. Plain members get false.
func (g *Guard) IsAccountAdmin(ctx context.Context, accountID, principalID string) (bool, error) {
	if accountID == "" || principalID == "" {
		return false, nil
	}
	if principalID == accountID {
		return true, nil
	}

	role, err := g.memberships.GetTeamRole(ctx, accountID, principalID)
	if err != nil {
		if errors.Is(err, ErrNotTeamMember) {
			return false, nil
		}
		return false, fmt.Errorf("query team role: %w", err)
	}
	return role == domain.TeamRoleAdmin, nil
}

// TeamRole returns the principal's effective team role for the account. The
// owner counts as admin. Returns ErrNotTeamMember for outsiders.
func (g *Guard) TeamRole(ctx context.Context, accountID, principalID string) (domain.TeamRole, error) {
	if principalID == accountID {
		return domain.TeamRoleAdmin, nil
	}
	return g.memberships.GetTeamRole(ctx, accountID, principalID)
}

// HasAdminPermission reports whether the principal holds a platform-operator
// capability: true iff its platform role is super_admin, or the capability is
// present in its admin_permissions set. Evaluated independently of any
// per-account predicate; a platform operator needs no team membership.
func (g *Guard) HasAdminPermission(ctx context.Context, principalID string, capability domain.AdminCapability) (bool, error) {
	if principalID == "" {
		return false, nil
	}

	grant, err := g.roles.GetPlatformGrant(ctx, principalID)
	if err != nil {
		return false, fmt.Errorf("query platform grant: %w", err)
	}
	return grant.Allows(capability), nil
}

// IsPlatformSuperAdmin reports whether the principal bypasses account checks
// entirely.
func (g *Guard) IsPlatformSuperAdmin(ctx context.Context, principalID string) (bool, error) {
	if principalID == "" {
		return false, nil
	}

	grant, err := g.roles.GetPlatformGrant(ctx, principalID)
	if err != nil {
		return false, fmt.Errorf("query platform grant: %w", err)
	}
	return grant != nil && grant.Role == domain.PlatformRoleSuperAdmin, nil
}

// CanAccessAccount combines the per-account predicate with the platform
// overrides: account members pass, a super_admin passes regardless of
// membership, and a principal with an active, time-valid impersonation
// session passes for any account its target could access.
func (g *Guard) CanAccessAccount(ctx context.Context, accountID, principalID string) (bool, error) {
	ok, err := g.HasAccountAccess(ctx, accountID, principalID)
	if err != nil {
		return false, err
	}
	if ok {
		return true, nil
	}

	ok, err = g.IsPlatformSuperAdmin(ctx, principalID)
	if err != nil {
		return false, err
	}
	if ok {
		return true, nil
	}

	if g.impersonations == nil {
		return false, nil
	}
	session, err := g.impersonations.ActiveSession(ctx, principalID)
	if err != nil {
		return false, fmt.Errorf("query impersonation session: %w", err)
	}
	if !session.ValidAt(g.now()) {
		return false, nil
	}
	return g.HasAccountAccess(ctx, accountID, session.TargetUserID)
}
