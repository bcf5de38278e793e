package accounts_test

import (
	"context"
	"sort"
	"time"

	"pilot-api/internal/accounts"
	"pilot-api/internal/domain"
)

// In-memory store fakes. They mirror the uncached semantics of the pgx
// repositories: every call reads the maps as they are right now.

type membership struct {
	ownerID   string
	memberID  string
	role      domain.TeamRole
	createdAt time.Time
}

type memMembershipStore struct {
	rows []membership
}

func (s *memMembershipStore) add(ownerID, memberID string, role domain.TeamRole, createdAt time.Time) {
	s.rows = append(s.rows, membership{ownerID: ownerID, memberID: memberID, role: role, createdAt: createdAt})
}

func (s *memMembershipStore) remove(ownerID, memberID string) {
	kept := s.rows[:0]
	for _, m := range s.rows {
		if m.ownerID != ownerID || m.memberID != memberID {
			kept = append(kept, m)
		}
	}
	s.rows = kept
}

func (s *memMembershipStore) GetTeamRole(_ context.Context, ownerID, memberID string) (domain.TeamRole, error) {
	for _, m := range s.rows {
		if m.ownerID == ownerID && m.memberID == memberID {
			return m.role, nil
		}
	}
	return "", accounts.ErrNotTeamMember
}

func (s *memMembershipStore) EarliestOwnerFor(_ context.Context, memberID string) (string, error) {
	var matches []membership
	for _, m := range s.rows {
		if m.memberID == memberID {
			matches = append(matches, m)
		}
	}
	if len(matches) == 0 {
		return "", accounts.ErrNotTeamMember
	}
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].createdAt.Before(matches[j].createdAt)
	})
	return matches[0].ownerID, nil
}

type memSubscriptionStore struct {
	owners map[string]bool
}

func (s *memSubscriptionStore) HasActiveSubscription(_ context.Context, userID string) (bool, error) {
	return s.owners[userID], nil
}

type memPlatformRoleStore struct {
	grants map[string]*domain.PlatformGrant
}

func (s *memPlatformRoleStore) GetPlatformGrant(_ context.Context, userID string) (*domain.PlatformGrant, error) {
	return s.grants[userID], nil
}

type memImpersonationStore struct {
	sessions map[string]*domain.ImpersonationSession
}

func (s *memImpersonationStore) ActiveSession(_ context.Context, adminUserID string) (*domain.ImpersonationSession, error) {
	sess, ok := s.sessions[adminUserID]
	if !ok || !sess.IsActive {
		return nil, nil
	}
	return sess, nil
}

func newMemStores() (*memMembershipStore, *memSubscriptionStore, *memPlatformRoleStore, *memImpersonationStore) {
	return &memMembershipStore{},
		&memSubscriptionStore{owners: map[string]bool{}},
		&memPlatformRoleStore{grants: map[string]*domain.PlatformGrant{}},
		&memImpersonationStore{sessions: map[string]*domain.ImpersonationSession{}}
}
