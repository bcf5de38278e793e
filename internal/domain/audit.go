package domain

import (
	"encoding/json"
	"time"
)

// AuditEntry is an immutable record of a security-sensitive action.
type AuditEntry struct {
	ID           int64           `json:"id"`
	AccountID    *string         `json:"accountId,omitempty"`
	ActorID      string          `json:"actorId"`
	Action       string          `json:"action"`
	ResourceType string          `json:"resourceType"`
	ResourceID   *string         `json:"resourceId,omitempty"`
	Success      bool            `json:"success"`
	Details      json.RawMessage `json:"details,omitempty"`
	IPAddress    *string         `json:"ipAddress,omitempty"`
	UserAgent    *string         `json:"userAgent,omitempty"`
	CreatedAt    time.Time       `json:"createdAt"`
}

// ListAuditParams are the filters for reading the audit log
type ListAuditParams struct {
	AccountID *string
	ActorID   *string
	Cursor    *string
	Limit     int
}
