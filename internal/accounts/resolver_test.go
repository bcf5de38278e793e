package accounts_test

import (
	"context"
	"testing"
	"time"

	"pilot-api/internal/accounts"
	"pilot-api/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveAccountID_Priority(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	members, subs, _, imps := newMemStores()
	subs.owners["aaron"] = true
	subs.owners["beth"] = true
	members.add("aaron", "jacob", domain.TeamRoleMember, now.Add(-48*time.Hour))

	resolver := accounts.NewResolver(subs, members, imps).WithClock(func() time.Time { return now })

	t.Run("subscription owner resolves to own id", func(t *testing.T) {
		id, err := resolver.ResolveAccountID(ctx, "aaron")
		require.NoError(t, err)
		assert.Equal(t, "aaron", id)
	})

	t.Run("team member resolves to owner id", func(t *testing.T) {
		id, err := resolver.ResolveAccountID(ctx, "jacob")
		require.NoError(t, err)
		assert.Equal(t, "aaron", id)
	})

	t.Run("subscription takes priority over membership", func(t *testing.T) {
		// beth owns a subscription AND is a member of aaron's team
		members.add("aaron", "beth", domain.TeamRoleMember, now)
		id, err := resolver.ResolveAccountID(ctx, "beth")
		require.NoError(t, err)
		assert.Equal(t, "beth", id)
	})

	t.Run("no subscription and no membership yields no account context", func(t *testing.T) {
		_, err := resolver.ResolveAccountID(ctx, "drifter")
		assert.ErrorIs(t, err, accounts.ErrNoAccountContext)
	})

	t.Run("empty principal yields no account context", func(t *testing.T) {
		_, err := resolver.ResolveAccountID(ctx, "")
		assert.ErrorIs(t, err, accounts.ErrNoAccountContext)
	})
}

func TestResolveAccountID_Impersonation(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name        string
		startedAt   time.Time
		isActive    bool
		wantAccount string
	}{
		{
			name:        "active session within window resolves to target",
			startedAt:   now.Add(-5 * time.Minute),
			isActive:    true,
			wantAccount: "customer",
		},
		{
			name:        "session at exactly the window edge still honored",
			startedAt:   now.Add(-domain.ImpersonationWindow),
			isActive:    true,
			wantAccount: "customer",
		},
		{
			name:        "stale-true session past the window is ignored",
			startedAt:   now.Add(-31 * time.Minute),
			isActive:    true,
			wantAccount: "operator",
		},
		{
			name:        "inactive session is ignored",
			startedAt:   now.Add(-5 * time.Minute),
			isActive:    false,
			wantAccount: "operator",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			members, subs, _, imps := newMemStores()
			subs.owners["operator"] = true // operator owns an account of their own
			imps.sessions["operator"] = &domain.ImpersonationSession{
				AdminUserID:  "operator",
				TargetUserID: "customer",
				StartedAt:    tt.startedAt,
				IsActive:     tt.isActive,
			}

			resolver := accounts.NewResolver(subs, members, imps).WithClock(func() time.Time { return now })

			id, err := resolver.ResolveAccountID(ctx, "operator")
			require.NoError(t, err)
			assert.Equal(t, tt.wantAccount, id)
		})
	}
}

func TestResolveAccountID_Idempotent(t *testing.T) {
	ctx := context.Background()
	members, subs, _, imps := newMemStores()
	members.add("aaron", "jacob", domain.TeamRoleMember, time.Now())

	resolver := accounts.NewResolver(subs, members, imps)

	first, err := resolver.ResolveAccountID(ctx, "jacob")
	require.NoError(t, err)

	second, err := resolver.ResolveAccountID(ctx, "jacob")
	require.NoError(t, err)

	assert.Equal(t, first, second, "resolution must be a pure function of state")
}

func TestResolveAccountID_MultiOwnerDeterminism(t *testing.T) {
	ctx := context.Background()
	members, subs, _, imps := newMemStores()

	// The schema never enforced UNIQUE(member_id); pick the earliest-created
	// membership deterministically.
	members.add("zoe", "jacob", domain.TeamRoleAdmin, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))
	members.add("aaron", "jacob", domain.TeamRoleMember, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))

	resolver := accounts.NewResolver(subs, members, imps)

	for i := 0; i < 5; i++ {
		id, err := resolver.ResolveAccountID(ctx, "jacob")
		require.NoError(t, err)
		assert.Equal(t, "aaron", id, "earliest-created membership wins")
	}
}

func TestResolveAccountID_NilImpersonationStore(t *testing.T) {
	ctx := context.Background()
	members, subs, _, _ := newMemStores()
	subs.owners["aaron"] = true

	resolver := accounts.NewResolver(subs, members, nil)

	id, err := resolver.ResolveAccountID(ctx, "aaron")
	require.NoError(t, err)
	assert.Equal(t, "aaron", id)
}
