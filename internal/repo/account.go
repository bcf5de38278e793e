package repo

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// AccountRepo handles whole-account lifecycle. An account is identified by the
// owning user id; there is no parent account row to hang FK cascades on, so
// deletion walks the tenant tables itself inside one transaction.
type AccountRepo struct {
	pool *pgxpool.Pool
}

// NewAccountRepo creates a new AccountRepo
func NewAccountRepo(pool *pgxpool.Pool) *AccountRepo {
	return &AccountRepo{pool: pool}
}

// DeleteCascade removes every row the account owns: resources, memberships,
// invitations, pending outbox events, idempotency records, the subscription,
// and the owner's profile. Audit log rows are retained on purpose. Conversation
// deletion cascades messages through the schema FK; the explicit message delete
// first catches rows whose conversation was already gone. All-or-nothing:
// either the whole account is removed or none of it is. Returns the total
// number of rows deleted.
func (r *AccountRepo) DeleteCascade(ctx context.Context, accountID string) (int64, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin account delete: %w", err)
	}
	defer tx.Rollback(ctx)

	statements := []string{
		`DELETE FROM messages WHERE user_id = $1`,
		`DELETE FROM conversations WHERE user_id = $1`,
		`DELETE FROM leads WHERE user_id = $1`,
		`DELETE FROM agents WHERE user_id = $1`,
		`DELETE FROM webhooks WHERE user_id = $1`,
		`DELETE FROM api_keys WHERE user_id = $1`,
		`DELETE FROM team_members WHERE owner_id = $1`,
		`DELETE FROM team_invitations WHERE owner_id = $1`,
		`DELETE FROM event_outbox WHERE account_id = $1`,
		`DELETE FROM idempotency_keys WHERE account_id = $1`,
		`DELETE FROM subscriptions WHERE user_id = $1`,
		`DELETE FROM profiles WHERE user_id = $1`,
	}

	var total int64
	for _, stmt := range statements {
		tag, err := tx.Exec(ctx, stmt, accountID)
		if err != nil {
			return 0, fmt.Errorf("account delete %q: %w", stmt, err)
		}
		total += tag.RowsAffected()
	}

	// Any session still assuming the deleted identity ends with it.
	tag, err := tx.Exec(ctx, `
		UPDATE impersonation_sessions
		SET is_active = FALSE, ended_at = NOW()
		WHERE target_user_id = $1 AND is_active = TRUE
	`, accountID)
	if err != nil {
		return 0, fmt.Errorf("end impersonation sessions: %w", err)
	}
	total += tag.RowsAffected()

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit account delete: %w", err)
	}

	return total, nil
}
