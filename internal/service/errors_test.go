package service

import (
	"context"
	"testing"

	"pilot-api/internal/accounts"
	"pilot-api/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMemberships struct {
	roles map[string]domain.TeamRole // "accountID/memberID" -> role
}

func (f *fakeMemberships) GetTeamRole(_ context.Context, accountID, memberID string) (domain.TeamRole, error) {
	role, ok := f.roles[accountID+"/"+memberID]
	if !ok {
		return "", accounts.ErrNotTeamMember
	}
	return role, nil
}

func (f *fakeMemberships) EarliestOwnerFor(_ context.Context, memberID string) (string, error) {
	for key := range f.roles {
		if len(key) > len(memberID) && key[len(key)-len(memberID):] == memberID {
			return key[:len(key)-len(memberID)-1], nil
		}
	}
	return "", accounts.ErrNotTeamMember
}

type fakeRoles struct {
	grants map[string]*domain.PlatformGrant
}

func (f *fakeRoles) GetPlatformGrant(_ context.Context, userID string) (*domain.PlatformGrant, error) {
	return f.grants[userID], nil
}

func newTestGuard(roles map[string]domain.TeamRole, grants map[string]*domain.PlatformGrant) *accounts.Guard {
	if roles == nil {
		roles = map[string]domain.TeamRole{}
	}
	if grants == nil {
		grants = map[string]*domain.PlatformGrant{}
	}
	return accounts.NewGuard(&fakeMemberships{roles: roles}, &fakeRoles{grants: grants}, nil)
}

func TestNormalizeLimit(t *testing.T) {
	tests := []struct {
		name  string
		limit int
		want  int
	}{
		{name: "zero gets default", limit: 0, want: defaultListLimit},
		{name: "negative gets default", limit: -5, want: defaultListLimit},
		{name: "in range passes through", limit: 25, want: 25},
		{name: "over max clamps", limit: 500, want: maxListLimit},
		{name: "exactly max passes", limit: maxListLimit, want: maxListLimit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, normalizeLimit(tt.limit))
		})
	}
}

func TestRequireAccess(t *testing.T) {
	guard := newTestGuard(
		map[string]domain.TeamRole{"owner-1/member-1": domain.TeamRoleMember},
		map[string]*domain.PlatformGrant{
			"op-1": {UserID: "op-1", Role: domain.PlatformRoleSuperAdmin},
		},
	)

	ctx := context.Background()

	t.Run("owner passes", func(t *testing.T) {
		assert.NoError(t, requireAccess(ctx, guard, "owner-1", "owner-1"))
	})

	t.Run("member passes", func(t *testing.T) {
		assert.NoError(t, requireAccess(ctx, guard, "owner-1", "member-1"))
	})

	t.Run("outsider fails", func(t *testing.T) {
		err := requireAccess(ctx, guard, "owner-1", "stranger")
		require.ErrorIs(t, err, ErrUnauthorized)
	})

	t.Run("super admin passes without membership", func(t *testing.T) {
		assert.NoError(t, requireAccess(ctx, guard, "owner-1", "op-1"))
	})
}

func TestRequireAdmin(t *testing.T) {
	guard := newTestGuard(
		map[string]domain.TeamRole{
			"owner-1/admin-1":  domain.TeamRoleAdmin,
			"owner-1/member-1": domain.TeamRoleMember,
		},
		map[string]*domain.PlatformGrant{
			"op-1": {UserID: "op-1", Role: domain.PlatformRoleSuperAdmin},
			"sup-1": {
				UserID:           "sup-1",
				Role:             domain.PlatformRoleSupport,
				AdminPermissions: []domain.AdminCapability{domain.CapabilityViewContent},
			},
		},
	)

	ctx := context.Background()

	t.Run("owner passes", func(t *testing.T) {
		assert.NoError(t, requireAdmin(ctx, guard, "owner-1", "owner-1"))
	})

	t.Run("team admin passes", func(t *testing.T) {
		assert.NoError(t, requireAdmin(ctx, guard, "owner-1", "admin-1"))
	})

	t.Run("plain member fails", func(t *testing.T) {
		err := requireAdmin(ctx, guard, "owner-1", "member-1")
		require.ErrorIs(t, err, ErrUnauthorized)
	})

	t.Run("super admin passes without membership", func(t *testing.T) {
		assert.NoError(t, requireAdmin(ctx, guard, "owner-1", "op-1"))
	})

	t.Run("support role without capability fails", func(t *testing.T) {
		err := requireAdmin(ctx, guard, "owner-1", "sup-1")
		require.ErrorIs(t, err, ErrUnauthorized)
	})
}

func TestRequireCapability(t *testing.T) {
	guard := newTestGuard(nil, map[string]*domain.PlatformGrant{
		"op-1": {UserID: "op-1", Role: domain.PlatformRoleSuperAdmin},
		"sup-1": {
			UserID:           "sup-1",
			Role:             domain.PlatformRoleSupport,
			AdminPermissions: []domain.AdminCapability{domain.CapabilityImpersonateUsers},
		},
	})

	ctx := context.Background()

	t.Run("super admin holds every capability", func(t *testing.T) {
		assert.NoError(t, requireCapability(ctx, guard, "op-1", domain.CapabilityManageContent))
	})

	t.Run("granted capability passes", func(t *testing.T) {
		assert.NoError(t, requireCapability(ctx, guard, "sup-1", domain.CapabilityImpersonateUsers))
	})

	t.Run("missing capability fails", func(t *testing.T) {
		err := requireCapability(ctx, guard, "sup-1", domain.CapabilityManageContent)
		require.ErrorIs(t, err, ErrUnauthorized)
	})

	t.Run("no grant at all fails", func(t *testing.T) {
		err := requireCapability(ctx, guard, "nobody", domain.CapabilityViewAuditLog)
		require.ErrorIs(t, err, ErrUnauthorized)
	})
}
