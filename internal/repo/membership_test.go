package repo_test

import (
	"context"
	"os"
	"testing"

	"pilot-api/internal/accounts"
	"pilot-api/internal/database"
	"pilot-api/internal/domain"
	"pilot-api/internal/repo"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestMembershipRepo_Integration exercises team membership against a real
// database: role lookups, the earliest-created resolution rule, and the
// self-membership rejection.
//
// Prerequisites:
//   - DATABASE_URL environment variable must be set
//   - Migrations must be applied
//
// Run with: go test -v ./internal/repo -run TestMembershipRepo_Integration
func TestMembershipRepo_Integration(t *testing.T) {
	if os.Getenv("DATABASE_URL") == "" {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}

	ctx := context.Background()

	pool, err := database.NewPool(ctx, os.Getenv("DATABASE_URL"))
	require.NoError(t, err, "failed to connect to database")
	defer pool.Close()

	membershipRepo := repo.NewMembershipRepo(pool)

	const (
		ownerA  = "it-owner-a"
		ownerB  = "it-owner-b"
		member1 = "it-member-1"
	)

	cleanup := func() {
		_, _ = pool.Exec(ctx, `DELETE FROM team_members WHERE owner_id IN ($1, $2)`, ownerA, ownerB)
	}
	cleanup()
	defer cleanup()

	t.Run("role lookup", func(t *testing.T) {
		_, err := membershipRepo.AddMember(ctx, ownerA, member1, domain.TeamRoleAdmin, nil)
		require.NoError(t, err)

		role, err := membershipRepo.GetTeamRole(ctx, ownerA, member1)
		require.NoError(t, err)
		assert.Equal(t, domain.TeamRoleAdmin, role)
	})

	t.Run("non-member yields typed error", func(t *testing.T) {
		_, err := membershipRepo.GetTeamRole(ctx, ownerB, member1)
		assert.ErrorIs(t, err, accounts.ErrNotTeamMember)
	})

	t.Run("earliest membership wins", func(t *testing.T) {
		// member1 already belongs to ownerA from the first subtest
		_, err := membershipRepo.AddMember(ctx, ownerB, member1, domain.TeamRoleMember, nil)
		require.NoError(t, err)

		owner, err := membershipRepo.EarliestOwnerFor(ctx, member1)
		require.NoError(t, err)
		assert.Equal(t, ownerA, owner)
	})

	t.Run("self-membership rejected", func(t *testing.T) {
		_, err := membershipRepo.AddMember(ctx, ownerA, ownerA, domain.TeamRoleMember, nil)
		assert.ErrorIs(t, err, domain.ErrSelfMembership)
	})

	t.Run("removal is immediate", func(t *testing.T) {
		require.NoError(t, membershipRepo.RemoveMember(ctx, ownerA, member1))

		_, err := membershipRepo.GetTeamRole(ctx, ownerA, member1)
		assert.ErrorIs(t, err, accounts.ErrNotTeamMember)
	})
}
