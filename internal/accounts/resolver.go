package accounts

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Resolver maps a requesting principal to the single account id whose resources
// it may access by default. Resolution is a pure function of current store
// state: calling it twice without intervening writes yields the same result.
type Resolver struct {
	subscriptions  SubscriptionStore
	memberships    MembershipStore
	impersonations ImpersonationStore
	now            func() time.Time
}

// NewResolver creates a Resolver. impersonations may be nil for callers that
// never honor impersonation (e.g. the public widget path).
func NewResolver(subscriptions SubscriptionStore, memberships MembershipStore, impersonations ImpersonationStore) *Resolver {
	return &Resolver{
		subscriptions:  subscriptions,
		memberships:    memberships,
		impersonations: impersonations,
		now:            time.Now,
	}
}

// WithClock overrides the time source. Test hook.
func (r *Resolver) WithClock(now func() time.Time) *Resolver {
	r.now = now
	return r
}

// ResolveAccountID resolves the account id for a principal, first match wins:
//
//  1. active, time-valid impersonation session as impersonator → the target's id
//  2. principal holds an active subscription → its own id
//  3. principal has a team membership → the (earliest) owner's id
//  4. otherwise ErrNoAccountContext
//
// An expired or inactive impersonation session is ignored, not an error: it
// falls through to normal resolution. The 30-minute window is enforced here
// against started_at, independently of a possibly stale is_active flag.
func (r *Resolver) ResolveAccountID(ctx context.Context, principalID string) (string, error) {
	if principalID == "" {
		return "", ErrNoAccountContext
	}

	if r.impersonations != nil {
		session, err := r.impersonations.ActiveSession(ctx, principalID)
		if err != nil {
			return "", fmt.Errorf("query impersonation session: %w", err)
		}
		if session.ValidAt(r.now()) {
			return session.TargetUserID, nil
		}
	}

	owner, err := r.subscriptions.HasActiveSubscription(ctx, principalID)
	if err != nil {
		return "", fmt.Errorf("query subscription: %w", err)
	}
	if owner {
		return principalID, nil
	}

	ownerID, err := r.memberships.EarliestOwnerFor(ctx, principalID)
	if err != nil {
		if errors.Is(err, ErrNotTeamMember) {
			return "", ErrNoAccountContext
		}
		return "", fmt.Errorf("query team membership: %w", err)
	}

	return ownerID, nil
}
