package repo_test

import (
	"context"
	"os"
	"testing"

	"pilot-api/internal/database"
	"pilot-api/internal/repo"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestAccountRepo_DeleteCascade_Integration exercises whole-account deletion
// against a real database: every owned row goes, audit history stays, other
// accounts are untouched.
//
// Prerequisites:
//   - DATABASE_URL environment variable must be set
//   - Migrations must be applied
//
// Run with: go test -v ./internal/repo -run TestAccountRepo_DeleteCascade_Integration
func TestAccountRepo_DeleteCascade_Integration(t *testing.T) {
	if os.Getenv("DATABASE_URL") == "" {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}

	ctx := context.Background()

	pool, err := database.NewPool(ctx, os.Getenv("DATABASE_URL"))
	require.NoError(t, err, "failed to connect to database")
	defer pool.Close()

	accountRepo := repo.NewAccountRepo(pool)

	const (
		doomed   = "it-cascade-doomed"
		survivor = "it-cascade-survivor"
		member   = "it-cascade-member"
		operator = "it-cascade-operator"
	)

	cleanup := func() {
		for _, stmt := range []string{
			`DELETE FROM messages WHERE user_id IN ($1, $2)`,
			`DELETE FROM conversations WHERE user_id IN ($1, $2)`,
			`DELETE FROM leads WHERE user_id IN ($1, $2)`,
			`DELETE FROM agents WHERE user_id IN ($1, $2)`,
			`DELETE FROM webhooks WHERE user_id IN ($1, $2)`,
			`DELETE FROM api_keys WHERE user_id IN ($1, $2)`,
			`DELETE FROM team_members WHERE owner_id IN ($1, $2)`,
			`DELETE FROM team_invitations WHERE owner_id IN ($1, $2)`,
			`DELETE FROM event_outbox WHERE account_id IN ($1, $2)`,
			`DELETE FROM subscriptions WHERE user_id IN ($1, $2)`,
			`DELETE FROM profiles WHERE user_id IN ($1, $2)`,
			`DELETE FROM impersonation_sessions WHERE target_user_id IN ($1, $2)`,
			`DELETE FROM audit_log WHERE account_id IN ($1, $2)`,
		} {
			_, _ = pool.Exec(ctx, stmt, doomed, survivor)
		}
	}
	cleanup()
	defer cleanup()

	seed := func(accountID, suffix string) {
		_, err := pool.Exec(ctx, `INSERT INTO subscriptions (user_id, plan_id, status) VALUES ($1, 'pro', 'active')`, accountID)
		require.NoError(t, err)
		_, err = pool.Exec(ctx, `INSERT INTO profiles (user_id, display_name) VALUES ($1, $1)`, accountID)
		require.NoError(t, err)
		_, err = pool.Exec(ctx, `INSERT INTO team_members (owner_id, member_id, role) VALUES ($1, $2, 'member')`, accountID, member+suffix)
		require.NoError(t, err)
		_, err = pool.Exec(ctx, `INSERT INTO agents (id, user_id, name) VALUES ($1, $2, 'Agent')`, "agent-"+suffix, accountID)
		require.NoError(t, err)
		_, err = pool.Exec(ctx, `INSERT INTO leads (id, user_id, full_name) VALUES ($1, $2, 'Lead')`, "lead-"+suffix, accountID)
		require.NoError(t, err)
		_, err = pool.Exec(ctx, `INSERT INTO conversations (id, user_id) VALUES ($1, $2)`, "conv-"+suffix, accountID)
		require.NoError(t, err)
		_, err = pool.Exec(ctx, `INSERT INTO messages (id, user_id, conversation_id, sender, content) VALUES ($1, $2, $3, 'visitor', 'hi')`, "msg-"+suffix, accountID, "conv-"+suffix)
		require.NoError(t, err)
		_, err = pool.Exec(ctx, `INSERT INTO webhooks (id, user_id, url, secret) VALUES ($1, $2, 'https://example.com', 's')`, "wh-"+suffix, accountID)
		require.NoError(t, err)
		_, err = pool.Exec(ctx, `INSERT INTO api_keys (id, user_id, name, key_hash, key_prefix, created_by) VALUES ($1, $2, 'k', $1, 'pk_live_', $2)`, "key-"+suffix, accountID)
		require.NoError(t, err)
		_, err = pool.Exec(ctx, `INSERT INTO event_outbox (account_id, payload) VALUES ($1, '{}')`, accountID)
		require.NoError(t, err)
	}
	seed(doomed, "d")
	seed(survivor, "s")

	_, err = pool.Exec(ctx, `INSERT INTO impersonation_sessions (admin_user_id, target_user_id, is_active) VALUES ($1, $2, TRUE)`, operator, doomed)
	require.NoError(t, err)
	_, err = pool.Exec(ctx, `INSERT INTO audit_log (account_id, actor_id, action, resource_type) VALUES ($1, $1, 'lead_create', 'lead')`, doomed)
	require.NoError(t, err)

	deleted, err := accountRepo.DeleteCascade(ctx, doomed)
	require.NoError(t, err)
	assert.Greater(t, deleted, int64(0))

	countRows := func(table, column, id string) int {
		var n int
		err := pool.QueryRow(ctx, `SELECT COUNT(*) FROM `+table+` WHERE `+column+` = $1`, id).Scan(&n)
		require.NoError(t, err)
		return n
	}

	t.Run("owned rows are gone", func(t *testing.T) {
		for _, tc := range []struct{ table, column string }{
			{"subscriptions", "user_id"},
			{"profiles", "user_id"},
			{"team_members", "owner_id"},
			{"agents", "user_id"},
			{"leads", "user_id"},
			{"conversations", "user_id"},
			{"messages", "user_id"},
			{"webhooks", "user_id"},
			{"api_keys", "user_id"},
			{"event_outbox", "account_id"},
		} {
			assert.Zero(t, countRows(tc.table, tc.column, doomed), "%s should be empty for the deleted account", tc.table)
		}
	})

	t.Run("other accounts untouched", func(t *testing.T) {
		assert.Equal(t, 1, countRows("subscriptions", "user_id", survivor))
		assert.Equal(t, 1, countRows("leads", "user_id", survivor))
		assert.Equal(t, 1, countRows("team_members", "owner_id", survivor))
	})

	t.Run("audit history retained", func(t *testing.T) {
		assert.Equal(t, 1, countRows("audit_log", "account_id", doomed))
	})

	t.Run("sessions targeting the account are ended", func(t *testing.T) {
		var active bool
		err := pool.QueryRow(ctx, `SELECT is_active FROM impersonation_sessions WHERE admin_user_id = $1 AND target_user_id = $2`, operator, doomed).Scan(&active)
		require.NoError(t, err)
		assert.False(t, active)
	})
}
