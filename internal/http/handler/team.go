package handler

import (
	"encoding/json"
	"net/http"

	"pilot-api/internal/domain"
	"pilot-api/internal/http/httperr"
	"pilot-api/internal/observability/logger"
	"pilot-api/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type TeamHandler struct {
	service *service.TeamService
}

func NewTeamHandler(service *service.TeamService) *TeamHandler {
	return &TeamHandler{service: service}
}

// ListMembers handles GET /v1/accounts/{accountID}/team
func (h *TeamHandler) ListMembers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.GetLogger(ctx)

	accountID := chi.URLParam(r, "accountID")

	actorID, ok := getActorID(ctx)
	if !ok {
		httperr.Unauthorized401(w, ctx, httperr.ErrCodeInvalidToken, "authentication required")
		return
	}

	members, err := h.service.ListMembers(ctx, accountID, actorID)
	if err != nil {
		handleServiceError(w, ctx, log, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"data": members})
}

// ListInvitations handles GET /v1/accounts/{accountID}/team/invitations
func (h *TeamHandler) ListInvitations(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.GetLogger(ctx)

	accountID := chi.URLParam(r, "accountID")

	actorID, ok := getActorID(ctx)
	if !ok {
		httperr.Unauthorized401(w, ctx, httperr.ErrCodeInvalidToken, "authentication required")
		return
	}

	invitations, err := h.service.ListPendingInvitations(ctx, accountID, actorID)
	if err != nil {
		handleServiceError(w, ctx, log, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"data": invitations})
}

// Invite handles POST /v1/accounts/{accountID}/team/invitations
func (h *TeamHandler) Invite(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.GetLogger(ctx)

	accountID := chi.URLParam(r, "accountID")

	actorID, ok := getActorID(ctx)
	if !ok {
		httperr.Unauthorized401(w, ctx, httperr.ErrCodeInvalidToken, "authentication required")
		return
	}

	var req struct {
		Email string          `json:"email"`
		Role  domain.TeamRole `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperr.BadRequest400(w, ctx, httperr.ErrCodeInvalidFormat, "invalid JSON body")
		return
	}

	if req.Email == "" {
		httperr.BadRequest400(w, ctx, httperr.ErrCodeMissingParameter, "email is required")
		return
	}
	if !req.Role.IsValid() {
		httperr.BadRequest400(w, ctx, httperr.ErrCodeInvalidRole, "role must be one of: admin, member")
		return
	}

	log.Info(ctx, "inviting team member",
		logger.Module("team"),
		logger.Action("invite"),
		zap.String("accountId", accountID),
		zap.String("actorId", actorID),
		zap.String("role", req.Role.String()),
	)

	invitation, token, err := h.service.Invite(ctx, accountID, actorID, req.Email, req.Role)
	if err != nil {
		handleServiceError(w, ctx, log, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"invitation": invitation,
		"token":      token,
	})
}

// AcceptInvitation handles POST /v1/team/invitations/accept
// The accepting principal carries no account context yet; the invite token
// itself is the authorization.
func (h *TeamHandler) AcceptInvitation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.GetLogger(ctx)

	actorID, ok := getActorID(ctx)
	if !ok || actorID == "" {
		httperr.Unauthorized401(w, ctx, httperr.ErrCodeInvalidToken, "authentication required")
		return
	}

	var req struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperr.BadRequest400(w, ctx, httperr.ErrCodeInvalidFormat, "invalid JSON body")
		return
	}
	if req.Token == "" {
		httperr.BadRequest400(w, ctx, httperr.ErrCodeMissingParameter, "token is required")
		return
	}

	member, err := h.service.AcceptInvitation(ctx, actorID, req.Token)
	if err != nil {
		handleServiceError(w, ctx, log, err)
		return
	}

	writeJSON(w, http.StatusCreated, member)
}

// UpdateMemberRole handles PATCH /v1/accounts/{accountID}/team/{memberID}
func (h *TeamHandler) UpdateMemberRole(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.GetLogger(ctx)

	accountID := chi.URLParam(r, "accountID")
	memberID := chi.URLParam(r, "memberID")

	actorID, ok := getActorID(ctx)
	if !ok {
		httperr.Unauthorized401(w, ctx, httperr.ErrCodeInvalidToken, "authentication required")
		return
	}

	var req struct {
		Role domain.TeamRole `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperr.BadRequest400(w, ctx, httperr.ErrCodeInvalidFormat, "invalid JSON body")
		return
	}
	if !req.Role.IsValid() {
		httperr.BadRequest400(w, ctx, httperr.ErrCodeInvalidRole, "role must be one of: admin, member")
		return
	}

	if err := h.service.UpdateMemberRole(ctx, accountID, actorID, memberID, req.Role); err != nil {
		handleServiceError(w, ctx, log, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// RemoveMember handles DELETE /v1/accounts/{accountID}/team/{memberID}
func (h *TeamHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.GetLogger(ctx)

	accountID := chi.URLParam(r, "accountID")
	memberID := chi.URLParam(r, "memberID")

	actorID, ok := getActorID(ctx)
	if !ok {
		httperr.Unauthorized401(w, ctx, httperr.ErrCodeInvalidToken, "authentication required")
		return
	}

	log.Info(ctx, "removing team member",
		logger.Module("team"),
		logger.Action("remove_member"),
		zap.String("accountId", accountID),
		zap.String("memberId", memberID),
		zap.String("actorId", actorID),
	)

	if err := h.service.RemoveMember(ctx, accountID, actorID, memberID); err != nil {
		handleServiceError(w, ctx, log, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
