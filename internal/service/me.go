package service

import (
	"context"
	"errors"
	"fmt"

	"pilot-api/internal/accounts"
	"pilot-api/internal/domain"
	"pilot-api/internal/repo"
)

var ErrProfileNotFound = repo.ErrProfileNotFound

// MeService answers "who am I and which account am I working in" for the
// authenticated principal. Account context is resolved fresh from the database
// on every call, never cached and never read from the token.
type MeService struct {
	resolver    *accounts.Resolver
	guard       *accounts.Guard
	profileRepo *repo.ProfileRepo
}

// NewMeService creates a MeService
func NewMeService(resolver *accounts.Resolver, guard *accounts.Guard, profileRepo *repo.ProfileRepo) *MeService {
	return &MeService{
		resolver:    resolver,
		guard:       guard,
		profileRepo: profileRepo,
	}
}

// MeResponse describes the principal's identity and resolved account context.
type MeResponse struct {
	UserID    string          `json:"userId"`
	AccountID *string         `json:"accountId,omitempty"`
	TeamRole  *string         `json:"teamRole,omitempty"`
	IsOwner   bool            `json:"isOwner"`
	Profile   *domain.Profile `json:"profile,omitempty"`
}

// Resolve builds the principal's account context. A principal with no account
// context (no subscription, no membership) still gets a response; AccountID is
// simply absent.
func (s *MeService) Resolve(ctx context.Context, actorID string) (*MeResponse, error) {
	resp := &MeResponse{UserID: actorID}

	accountID, err := s.resolver.ResolveAccountID(ctx, actorID)
	if err != nil {
		if !errors.Is(err, accounts.ErrNoAccountContext) {
			return nil, fmt.Errorf("resolve account: %w", err)
		}
	} else {
		resp.AccountID = &accountID
		resp.IsOwner = accountID == actorID

		if !resp.IsOwner {
			role, err := s.guard.TeamRole(ctx, accountID, actorID)
			if err == nil {
				roleStr := role.String()
				resp.TeamRole = &roleStr
			} else if !errors.Is(err, accounts.ErrNotTeamMember) {
				return nil, fmt.Errorf("resolve team role: %w", err)
			}
		}
	}

	profile, err := s.profileRepo.Get(ctx, actorID)
	if err != nil && !errors.Is(err, repo.ErrProfileNotFound) {
		return nil, fmt.Errorf("load profile: %w", err)
	}
	resp.Profile = profile

	return resp, nil
}

// GetProfile retrieves the principal's own profile
func (s *MeService) GetProfile(ctx context.Context, actorID string) (*domain.Profile, error) {
	return s.profileRepo.Get(ctx, actorID)
}

// UpdateProfile upserts the principal's own profile
func (s *MeService) UpdateProfile(ctx context.Context, actorID string, p *domain.Profile) (*domain.Profile, error) {
	p.UserID = actorID
	return s.profileRepo.Upsert(ctx, p)
}
