package accounts

import (
	"context"
	"errors"

	"pilot-api/internal/domain"
)

var (
	// ErrNotTeamMember indicates the principal has no membership for the account
	ErrNotTeamMember = errors.New("user is not a team member of this account")

	// ErrNoAccountContext indicates the principal resolves to no account at all.
	// This is distinct from forbidden: principals without account context can
	// still perform platform-level actions such as accepting an invitation.
	ErrNoAccountContext = errors.New("principal has no account context")
)

// MembershipStore reads team_members state. Implementations must not cache:
// membership changes take effect on the next check, not after a TTL.
type MembershipStore interface {
	// GetTeamRole returns the member's role within the owner's account, or
	// ErrNotTeamMember if no membership row exists.
	GetTeamRole(ctx context.Context, ownerID, memberID string) (domain.TeamRole, error)

	// EarliestOwnerFor returns the owner id of the member's earliest-created
	// membership, or ErrNotTeamMember. The earliest-created rule makes
	// resolution deterministic for the historically unconstrained case of a
	// member belonging to multiple owners.
	EarliestOwnerFor(ctx context.Context, memberID string) (string, error)
}

// SubscriptionStore reads subscription state.
type SubscriptionStore interface {
	// HasActiveSubscription reports whether the user owns an account, i.e.
	// holds a subscription row with status active.
	HasActiveSubscription(ctx context.Context, userID string) (bool, error)
}

// PlatformRoleStore reads user_roles state.
type PlatformRoleStore interface {
	// GetPlatformGrant returns the user's platform role and capability set,
	// or nil if the user holds no platform grant.
	GetPlatformGrant(ctx context.Context, userID string) (*domain.PlatformGrant, error)
}

// ImpersonationStore reads impersonation_sessions state.
type ImpersonationStore interface {
	// ActiveSession returns the most recently started session where the given
	// user is the impersonator and is_active is true, or nil if none exists.
	// Time-window validity is the caller's concern, not the store's.
	ActiveSession(ctx context.Context, adminUserID string) (*domain.ImpersonationSession, error)
}
