package service

import (
	"context"
	"errors"
	"fmt"

	"pilot-api/internal/accounts"
	"pilot-api/internal/domain"
)

var (
	// ErrUnauthorized indicates the actor lacks permission for the action
	ErrUnauthorized = errors.New("user not authorized for this action")

	// ErrNoAccountContext re-exports the resolver sentinel for handlers
	ErrNoAccountContext = accounts.ErrNoAccountContext
)

const (
	defaultListLimit = 50
	maxListLimit     = 100
)

// normalizeLimit clamps a requested page size into [1, maxListLimit]
func normalizeLimit(limit int) int {
	if limit <= 0 {
		return defaultListLimit
	}
	if limit > maxListLimit {
		return maxListLimit
	}
	return limit
}

// requireAccess gates read and non-destructive write operations: any team
// member or the owner passes, and so does a platform super_admin.
func requireAccess(ctx context.Context, guard *accounts.Guard, accountID, actorID string) error {
	ok, err := guard.CanAccessAccount(ctx, accountID, actorID)
	if err != nil {
		return fmt.Errorf("check account access: %w", err)
	}
	if !ok {
		return ErrUnauthorized
	}
	return nil
}

// requireAdmin gates destructive and sensitive operations: the owner or a
// team admin passes. The platform super_admin override applies uniformly to
// admin-gated operations as well.
func requireAdmin(ctx context.Context, guard *accounts.Guard, accountID, actorID string) error {
	ok, err := guard.IsAccountAdmin(ctx, accountID, actorID)
	if err != nil {
		return fmt.Errorf("check account admin: %w", err)
	}
	if ok {
		return nil
	}

	super, err := guard.IsPlatformSuperAdmin(ctx, actorID)
	if err != nil {
		return fmt.Errorf("check platform role: %w", err)
	}
	if !super {
		return ErrUnauthorized
	}
	return nil
}

// requireCapability gates platform-operator surfaces on a specific capability
func requireCapability(ctx context.Context, guard *accounts.Guard, actorID string, capability domain.AdminCapability) error {
	ok, err := guard.HasAdminPermission(ctx, actorID, capability)
	if err != nil {
		return fmt.Errorf("check admin permission: %w", err)
	}
	if !ok {
		return ErrUnauthorized
	}
	return nil
}
