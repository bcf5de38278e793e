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

type AdminHandler struct {
	service *service.AdminService
}

func NewAdminHandler(service *service.AdminService) *AdminHandler {
	return &AdminHandler{service: service}
}

// StartImpersonation handles POST /v1/admin/impersonation
func (h *AdminHandler) StartImpersonation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.GetLogger(ctx)

	actorID, ok := getActorID(ctx)
	if !ok || actorID == "" {
		httperr.Unauthorized401(w, ctx, httperr.ErrCodeInvalidToken, "authentication required")
		return
	}

	var req struct {
		TargetUserID string `json:"targetUserId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperr.BadRequest400(w, ctx, httperr.ErrCodeInvalidFormat, "invalid JSON body")
		return
	}
	if req.TargetUserID == "" {
		httperr.BadRequest400(w, ctx, httperr.ErrCodeMissingParameter, "targetUserId is required")
		return
	}
	if req.TargetUserID == actorID {
		httperr.BadRequest400(w, ctx, httperr.ErrCodeInvalidParameter, "cannot impersonate yourself")
		return
	}

	log.Info(ctx, "starting impersonation",
		logger.Module("admin"),
		logger.Action("impersonation_start"),
		zap.String("actorId", actorID),
		zap.String("targetUserId", req.TargetUserID),
	)

	session, err := h.service.StartImpersonation(ctx, actorID, req.TargetUserID)
	if err != nil {
		handleServiceError(w, ctx, log, err)
		return
	}

	writeJSON(w, http.StatusCreated, session)
}

// StopImpersonation handles DELETE /v1/admin/impersonation
func (h *AdminHandler) StopImpersonation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.GetLogger(ctx)

	actorID, ok := getActorID(ctx)
	if !ok || actorID == "" {
		httperr.Unauthorized401(w, ctx, httperr.ErrCodeInvalidToken, "authentication required")
		return
	}

	if err := h.service.StopImpersonation(ctx, actorID); err != nil {
		handleServiceError(w, ctx, log, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GetImpersonation handles GET /v1/admin/impersonation
func (h *AdminHandler) GetImpersonation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.GetLogger(ctx)

	actorID, ok := getActorID(ctx)
	if !ok || actorID == "" {
		httperr.Unauthorized401(w, ctx, httperr.ErrCodeInvalidToken, "authentication required")
		return
	}

	session, err := h.service.CurrentImpersonation(ctx, actorID)
	if err != nil {
		handleServiceError(w, ctx, log, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"session": session})
}

// ListAuditLog handles GET /v1/admin/audit-log
func (h *AdminHandler) ListAuditLog(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.GetLogger(ctx)

	actorID, ok := getActorID(ctx)
	if !ok || actorID == "" {
		httperr.Unauthorized401(w, ctx, httperr.ErrCodeInvalidToken, "authentication required")
		return
	}

	params := domain.ListAuditParams{
		Limit: 50, // default
	}

	if cursor := r.URL.Query().Get("cursor"); cursor != "" {
		params.Cursor = &cursor
	}
	if !parseLimit(w, r, &params.Limit) {
		return
	}
	if accountID := r.URL.Query().Get("accountId"); accountID != "" {
		params.AccountID = &accountID
	}
	if auditActor := r.URL.Query().Get("actorId"); auditActor != "" {
		params.ActorID = &auditActor
	}

	entries, nextCursor, err := h.service.ListAuditLog(ctx, actorID, params)
	if err != nil {
		handleServiceError(w, ctx, log, err)
		return
	}

	response := map[string]interface{}{
		"data": entries,
		"meta": map[string]interface{}{
			"hasNextPage": nextCursor != "",
		},
	}
	if nextCursor != "" {
		response["meta"].(map[string]interface{})["nextCursor"] = nextCursor
	}

	writeJSON(w, http.StatusOK, response)
}

// DeleteAccount handles DELETE /v1/admin/accounts/{accountID}
func (h *AdminHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.GetLogger(ctx)

	actorID, ok := getActorID(ctx)
	if !ok || actorID == "" {
		httperr.Unauthorized401(w, ctx, httperr.ErrCodeInvalidToken, "authentication required")
		return
	}

	accountID := chi.URLParam(r, "accountID")
	if accountID == "" {
		httperr.BadRequest400(w, ctx, httperr.ErrCodeMissingParameter, "accountID is required")
		return
	}

	log.Info(ctx, "deleting account",
		logger.Module("admin"),
		logger.Action("account_delete"),
		zap.String("actorId", actorID),
		zap.String("accountId", accountID),
	)

	if err := h.service.DeleteAccount(ctx, actorID, accountID); err != nil {
		handleServiceError(w, ctx, log, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GetUserRole handles GET /v1/admin/roles/{userID}
func (h *AdminHandler) GetUserRole(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.GetLogger(ctx)

	actorID, ok := getActorID(ctx)
	if !ok || actorID == "" {
		httperr.Unauthorized401(w, ctx, httperr.ErrCodeInvalidToken, "authentication required")
		return
	}

	userID := chi.URLParam(r, "userID")

	grant, err := h.service.GetPlatformGrant(ctx, actorID, userID)
	if err != nil {
		handleServiceError(w, ctx, log, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"grant": grant})
}

// SetUserRole handles PUT /v1/admin/roles/{userID}
func (h *AdminHandler) SetUserRole(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.GetLogger(ctx)

	actorID, ok := getActorID(ctx)
	if !ok || actorID == "" {
		httperr.Unauthorized401(w, ctx, httperr.ErrCodeInvalidToken, "authentication required")
		return
	}

	userID := chi.URLParam(r, "userID")

	var req struct {
		Role        domain.PlatformRole      `json:"role"`
		Permissions []domain.AdminCapability `json:"permissions"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperr.BadRequest400(w, ctx, httperr.ErrCodeInvalidFormat, "invalid JSON body")
		return
	}
	if req.Role == "" {
		httperr.BadRequest400(w, ctx, httperr.ErrCodeMissingParameter, "role is required")
		return
	}

	log.Info(ctx, "setting platform role",
		logger.Module("admin"),
		logger.Action("set_platform_role"),
		zap.String("actorId", actorID),
		zap.String("userId", userID),
		zap.String("role", string(req.Role)),
	)

	if err := h.service.SetPlatformRole(ctx, actorID, userID, req.Role, req.Permissions); err != nil {
		handleServiceError(w, ctx, log, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
