package repo

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"pilot-api/internal/domain"

	"github.com/jackc/pgx/v5/pgxpool"
)

// AuditRepo handles audit log storage. Writes are best-effort at the call
// sites: a failed audit insert is logged and swallowed, never propagated into
// the action it records.
type AuditRepo struct {
	pool *pgxpool.Pool
}

// NewAuditRepo creates a new AuditRepo
func NewAuditRepo(pool *pgxpool.Pool) *AuditRepo {
	return &AuditRepo{pool: pool}
}

// LogAction logs an action to the audit log. accountID may be nil for
// platform-level actions without an account context.
func (r *AuditRepo) LogAction(
	ctx context.Context,
	accountID *string,
	actorID, action, resourceType string,
	resourceID *string,
	success bool,
	details map[string]interface{},
	ipAddress, userAgent string,
) error {
	var detailsJSON []byte
	var err error

	if details != nil {
		detailsJSON, err = json.Marshal(details)
		if err != nil {
			return fmt.Errorf("failed to marshal details: %w", err)
		}
	}

	query := `
		INSERT INTO audit_log (
			account_id, actor_id, action, resource_type, resource_id,
			success, details, ip_address, user_agent
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err = r.pool.Exec(ctx, query,
		accountID, actorID, action, resourceType, resourceID,
		success, detailsJSON, ipAddress, userAgent,
	)
	if err != nil {
		return fmt.Errorf("failed to log action: %w", err)
	}

	return nil
}

// List retrieves audit entries with optional filters, newest first
func (r *AuditRepo) List(ctx context.Context, params domain.ListAuditParams) ([]domain.AuditEntry, string, error) {
	query := `
		SELECT id, account_id, actor_id, action, resource_type, resource_id,
		       success, details, ip_address, user_agent, created_at
		FROM audit_log
		WHERE 1=1
	`
	args := []interface{}{}
	argIdx := 1

	if params.AccountID != nil {
		query += fmt.Sprintf(" AND account_id = $%d", argIdx)
		args = append(args, *params.AccountID)
		argIdx++
	}

	if params.ActorID != nil {
		query += fmt.Sprintf(" AND actor_id = $%d", argIdx)
		args = append(args, *params.ActorID)
		argIdx++
	}

	if params.Cursor != nil && *params.Cursor != "" {
		cursorTime, err := time.Parse(time.RFC3339Nano, *params.Cursor)
		if err != nil {
			return nil, "", fmt.Errorf("invalid cursor format: %w", err)
		}
		query += fmt.Sprintf(" AND created_at < $%d", argIdx)
		args = append(args, cursorTime)
		argIdx++
	}

	query += " ORDER BY created_at DESC"
	query += fmt.Sprintf(" LIMIT $%d", argIdx)
	args = append(args, params.Limit+1)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, "", fmt.Errorf("query audit log: %w", err)
	}
	defer rows.Close()

	entries := make([]domain.AuditEntry, 0, params.Limit)
	for rows.Next() {
		var e domain.AuditEntry
		err := rows.Scan(
			&e.ID, &e.AccountID, &e.ActorID, &e.Action, &e.ResourceType,
			&e.ResourceID, &e.Success, &e.Details, &e.IPAddress, &e.UserAgent, &e.CreatedAt,
		)
		if err != nil {
			return nil, "", fmt.Errorf("scan audit entry: %w", err)
		}
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, "", fmt.Errorf("iterate audit log: %w", err)
	}

	var nextCursor string
	if len(entries) > params.Limit {
		nextCursor = entries[params.Limit-1].CreatedAt.Format(time.RFC3339Nano)
		entries = entries[:params.Limit]
	}

	return entries, nextCursor, nil
}
