package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"pilot-api/internal/auth"
	"pilot-api/internal/domain"
	"pilot-api/internal/http/httperr"
	"pilot-api/internal/observability/logger"
	"pilot-api/internal/service"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// Helper functions for standardized responses

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// getActorID extracts the acting principal from the request. Service tokens
// without an X-Actor-Id yield an empty actor; callers that need a user must
// check for it.
func getActorID(ctx context.Context) (string, bool) {
	authCtx, ok := auth.GetAuthContext(ctx)
	if !ok {
		return "", false
	}
	return authCtx.ActorID, true
}

// parseLimit reads and bounds the ?limit query parameter
func parseLimit(w http.ResponseWriter, r *http.Request, out *int) bool {
	limitStr := r.URL.Query().Get("limit")
	if limitStr == "" {
		return true
	}
	limit, err := strconv.Atoi(limitStr)
	if err != nil || limit < 1 || limit > 100 {
		httperr.BadRequest400(w, r.Context(), httperr.ErrCodeInvalidLimit, "limit must be between 1 and 100")
		return false
	}
	*out = limit
	return true
}

func handleServiceError(w http.ResponseWriter, ctx context.Context, log *logger.Logger, err error) {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		fields := make(map[string]string, len(validationErrs))
		for _, fe := range validationErrs {
			fields[fe.Field()] = fe.Tag()
		}
		httperr.BadRequest400WithFields(w, ctx, httperr.ErrCodeValidationError, "request validation failed", fields)
		return
	}

	switch {
	case errors.Is(err, service.ErrUnauthorized):
		log.Warn(ctx, "unauthorized action", zap.Error(err))
		httperr.Forbidden403(w, ctx, httperr.ErrCodeForbidden, "insufficient permissions for this action")
	case errors.Is(err, service.ErrNoAccountContext):
		log.Warn(ctx, "no account context for principal", zap.Error(err))
		httperr.Forbidden403(w, ctx, httperr.ErrCodeNoAccountContext, "no account context for this principal")
	case errors.Is(err, service.ErrNotTeamMember):
		log.Debug(ctx, "not a team member", zap.Error(err))
		httperr.NotFound404(w, ctx, "team member not found")
	case errors.Is(err, service.ErrSelfMembership):
		log.Warn(ctx, "self-membership rejected", zap.Error(err))
		httperr.Conflict409(w, ctx, "account owner cannot join their own team")
	case errors.Is(err, domain.ErrInvalidTeamRole):
		httperr.BadRequest400(w, ctx, httperr.ErrCodeInvalidRole, "role must be one of: admin, member")
	case errors.Is(err, domain.ErrInvalidLeadStatus):
		httperr.BadRequest400(w, ctx, httperr.ErrCodeInvalidStatus, "invalid lead status")
	case errors.Is(err, service.ErrInvitationExpired):
		httperr.WriteError(w, ctx, http.StatusGone, httperr.ErrCodeNotFound, "invitation has expired")
	case errors.Is(err, service.ErrInvitationNotFound):
		httperr.NotFound404(w, ctx, "invitation not found")
	case errors.Is(err, service.ErrAPIKeyRevoked):
		httperr.Forbidden403(w, ctx, httperr.ErrCodeForbidden, "api key has been revoked")
	case errors.Is(err, service.ErrLeadNotFound):
		httperr.NotFound404(w, ctx, "lead not found")
	case errors.Is(err, service.ErrAgentNotFound):
		httperr.NotFound404(w, ctx, "agent not found")
	case errors.Is(err, service.ErrConversationNotFound):
		httperr.NotFound404(w, ctx, "conversation not found")
	case errors.Is(err, service.ErrWebhookNotFound):
		httperr.NotFound404(w, ctx, "webhook not found")
	case errors.Is(err, service.ErrAPIKeyNotFound):
		httperr.NotFound404(w, ctx, "api key not found")
	case errors.Is(err, service.ErrProfileNotFound):
		httperr.NotFound404(w, ctx, "profile not found")
	case errors.Is(err, service.ErrCategoryNotFound):
		httperr.NotFound404(w, ctx, "category not found")
	case errors.Is(err, service.ErrArticleNotFound):
		httperr.NotFound404(w, ctx, "article not found")
	case errors.Is(err, service.ErrTemplateNotFound):
		httperr.NotFound404(w, ctx, "template not found")
	case errors.Is(err, service.ErrImpersonationNotFound):
		httperr.NotFound404(w, ctx, "no active impersonation session")
	default:
		log.Error(ctx, "unhandled internal server error", zap.Error(err), zap.String("error_details", err.Error()))
		httperr.InternalError500(w, ctx, "an internal error occurred")
	}
}
