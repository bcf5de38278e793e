package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"pilot-api/internal/accounts"
	"pilot-api/internal/auth"
	"pilot-api/internal/domain"
	"pilot-api/internal/http/httperr"
	"pilot-api/internal/observability/logger"

	"github.com/go-chi/chi/v5"
)

type stubMemberships struct {
	roles map[string]domain.TeamRole // "accountID/memberID" -> role
}

func (s *stubMemberships) GetTeamRole(_ context.Context, accountID, memberID string) (domain.TeamRole, error) {
	role, ok := s.roles[accountID+"/"+memberID]
	if !ok {
		return "", accounts.ErrNotTeamMember
	}
	return role, nil
}

func (s *stubMemberships) EarliestOwnerFor(_ context.Context, _ string) (string, error) {
	return "", accounts.ErrNotTeamMember
}

type stubImpersonations struct {
	sessions map[string]*domain.ImpersonationSession
}

func (s *stubImpersonations) ActiveSession(_ context.Context, adminUserID string) (*domain.ImpersonationSession, error) {
	sess, ok := s.sessions[adminUserID]
	if !ok || !sess.IsActive {
		return nil, nil
	}
	return sess, nil
}

type stubRoles struct {
	grants map[string]*domain.PlatformGrant
}

func (s *stubRoles) GetPlatformGrant(_ context.Context, userID string) (*domain.PlatformGrant, error) {
	return s.grants[userID], nil
}

func setupTestContext() context.Context {
	log, _ := logger.New("test", "info")
	return logger.SetLoggerInContext(context.Background(), log)
}

func validateErrorResponse(t *testing.T, body string, expectedCode string) {
	t.Helper()

	var errResp httperr.ErrorResponse
	if err := json.Unmarshal([]byte(body), &errResp); err != nil {
		t.Fatalf("failed to parse error response: %v, body: %s", err, body)
	}

	if errResp.OK {
		t.Error("expected ok=false in error response")
	}

	if errResp.Error == nil {
		t.Fatal("expected error detail, got nil")
	}

	if errResp.Error.Code != expectedCode {
		t.Errorf("expected error code %s, got %s", expectedCode, errResp.Error.Code)
	}
}

func newAccountRouter(guard *accounts.Guard) *chi.Mux {
	r := chi.NewRouter()
	r.Route("/v1/accounts/{accountID}", func(r chi.Router) {
		r.Use(AccountMiddleware(guard))
		r.Get("/test", func(w http.ResponseWriter, r *http.Request) {
			accountID, _ := GetAccountID(r.Context())
			w.Write([]byte(accountID))
		})
	})
	return r
}

func TestAccountMiddleware_Access(t *testing.T) {
	guard := accounts.NewGuard(
		&stubMemberships{roles: map[string]domain.TeamRole{
			"owner-1/member-1": domain.TeamRoleMember,
		}},
		&stubRoles{grants: map[string]*domain.PlatformGrant{
			"op-1": {UserID: "op-1", Role: domain.PlatformRoleSuperAdmin},
		}},
		nil,
	)

	tests := []struct {
		name           string
		actorID        string
		authType       auth.AuthType
		expectedStatus int
	}{
		{
			name:           "OwnerAllowed",
			actorID:        "owner-1",
			authType:       auth.AuthTypeUser,
			expectedStatus: http.StatusOK,
		},
		{
			name:           "MemberAllowed",
			actorID:        "member-1",
			authType:       auth.AuthTypeUser,
			expectedStatus: http.StatusOK,
		},
		{
			name:           "OutsiderDenied",
			actorID:        "stranger",
			authType:       auth.AuthTypeUser,
			expectedStatus: http.StatusForbidden,
		},
		{
			name:           "SuperAdminAllowedWithoutMembership",
			actorID:        "op-1",
			authType:       auth.AuthTypeUser,
			expectedStatus: http.StatusOK,
		},
		{
			name:           "ServiceWithActorChecked",
			actorID:        "stranger",
			authType:       auth.AuthTypeService,
			expectedStatus: http.StatusForbidden,
		},
		{
			name:           "ServiceWithoutActorTrusted",
			actorID:        "",
			authType:       auth.AuthTypeService,
			expectedStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := setupTestContext()
			ctx = auth.SetAuthContextForTesting(ctx, &auth.AuthContext{
				ActorID: tt.actorID,
				Type:    tt.authType,
			})

			req := httptest.NewRequest(http.MethodGet, "/v1/accounts/owner-1/test", nil)
			req = req.WithContext(ctx)
			rr := httptest.NewRecorder()

			newAccountRouter(guard).ServeHTTP(rr, req)

			if rr.Code != tt.expectedStatus {
				t.Errorf("expected status %d, got %d, body: %s", tt.expectedStatus, rr.Code, rr.Body.String())
			}

			if tt.expectedStatus == http.StatusOK && rr.Body.String() != "owner-1" {
				t.Errorf("expected validated account id in context, got %q", rr.Body.String())
			}

			if tt.expectedStatus == http.StatusForbidden {
				validateErrorResponse(t, rr.Body.String(), httperr.ErrCodeForbidden)
			}
		})
	}
}

func TestAccountMiddleware_NoAuthContext(t *testing.T) {
	guard := accounts.NewGuard(&stubMemberships{}, &stubRoles{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/accounts/owner-1/test", nil)
	req = req.WithContext(setupTestContext())
	rr := httptest.NewRecorder()

	newAccountRouter(guard).ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("expected status %d, got %d", http.StatusUnauthorized, rr.Code)
	}
	validateErrorResponse(t, rr.Body.String(), httperr.ErrCodeInvalidToken)
}

func TestAccountMiddleware_RevocationIsImmediate(t *testing.T) {
	memberships := &stubMemberships{roles: map[string]domain.TeamRole{
		"owner-1/member-1": domain.TeamRoleMember,
	}}
	guard := accounts.NewGuard(memberships, &stubRoles{}, nil)

	ctx := setupTestContext()
	ctx = auth.SetAuthContextForTesting(ctx, &auth.AuthContext{
		ActorID: "member-1",
		Type:    auth.AuthTypeUser,
	})

	router := newAccountRouter(guard)

	req := httptest.NewRequest(http.MethodGet, "/v1/accounts/owner-1/test", nil).WithContext(ctx)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected member to be allowed, got %d", rr.Code)
	}

	// Remove the membership; the very next request must be denied
	delete(memberships.roles, "owner-1/member-1")

	req = httptest.NewRequest(http.MethodGet, "/v1/accounts/owner-1/test", nil).WithContext(ctx)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusForbidden {
		t.Errorf("expected revoked member to be denied, got %d, body: %s", rr.Code, rr.Body.String())
	}
	if !strings.Contains(rr.Body.String(), "account access denied") {
		t.Errorf("expected denial message, got %q", rr.Body.String())
	}
}

// TestAccountMiddleware_ImpersonationGrantsAccess: a support operator with an
// active, time-valid session targeting the account owner reaches the target's
// account-scoped routes; ending the session cuts access on the next request.
func TestAccountMiddleware_ImpersonationGrantsAccess(t *testing.T) {
	imps := &stubImpersonations{sessions: map[string]*domain.ImpersonationSession{
		"support-1": {
			AdminUserID:  "support-1",
			TargetUserID: "owner-1",
			StartedAt:    time.Now().Add(-time.Minute),
			IsActive:     true,
		},
	}}
	guard := accounts.NewGuard(
		&stubMemberships{},
		&stubRoles{grants: map[string]*domain.PlatformGrant{
			"support-1": {
				UserID:           "support-1",
				Role:             domain.PlatformRoleSupport,
				AdminPermissions: []domain.AdminCapability{domain.CapabilityImpersonateUsers},
			},
		}},
		imps,
	)

	ctx := setupTestContext()
	ctx = auth.SetAuthContextForTesting(ctx, &auth.AuthContext{
		ActorID: "support-1",
		Type:    auth.AuthTypeUser,
	})

	router := newAccountRouter(guard)

	req := httptest.NewRequest(http.MethodGet, "/v1/accounts/owner-1/test", nil).WithContext(ctx)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected impersonating operator to be allowed, got %d, body: %s", rr.Code, rr.Body.String())
	}
	if rr.Body.String() != "owner-1" {
		t.Errorf("expected validated account id in context, got %q", rr.Body.String())
	}

	// Session ended; the very next request must be denied
	imps.sessions["support-1"].IsActive = false

	req = httptest.NewRequest(http.MethodGet, "/v1/accounts/owner-1/test", nil).WithContext(ctx)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusForbidden {
		t.Errorf("expected ended session to be denied, got %d, body: %s", rr.Code, rr.Body.String())
	}
	validateErrorResponse(t, rr.Body.String(), httperr.ErrCodeForbidden)
}
