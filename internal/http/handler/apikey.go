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

type APIKeyHandler struct {
	service *service.APIKeyService
}

func NewAPIKeyHandler(service *service.APIKeyService) *APIKeyHandler {
	return &APIKeyHandler{service: service}
}

// ListKeys handles GET /v1/accounts/{accountID}/api-keys
func (h *APIKeyHandler) ListKeys(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.GetLogger(ctx)

	accountID := chi.URLParam(r, "accountID")

	actorID, ok := getActorID(ctx)
	if !ok {
		httperr.Unauthorized401(w, ctx, httperr.ErrCodeInvalidToken, "authentication required")
		return
	}

	keys, err := h.service.ListKeys(ctx, accountID, actorID)
	if err != nil {
		handleServiceError(w, ctx, log, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"data": keys})
}

// CreateKey handles POST /v1/accounts/{accountID}/api-keys
// The plaintext key appears in this response and nowhere else.
func (h *APIKeyHandler) CreateKey(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.GetLogger(ctx)

	accountID := chi.URLParam(r, "accountID")

	actorID, ok := getActorID(ctx)
	if !ok {
		httperr.Unauthorized401(w, ctx, httperr.ErrCodeInvalidToken, "authentication required")
		return
	}

	var req domain.CreateAPIKeyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperr.BadRequest400(w, ctx, httperr.ErrCodeInvalidFormat, "invalid JSON body")
		return
	}

	log.Info(ctx, "creating api key",
		logger.Module("apikey"),
		logger.Action("create"),
		zap.String("accountId", accountID),
		zap.String("actorId", actorID),
		zap.String("name", req.Name),
	)

	created, err := h.service.CreateKey(ctx, accountID, actorID, &req)
	if err != nil {
		handleServiceError(w, ctx, log, err)
		return
	}

	writeJSON(w, http.StatusCreated, created)
}

// RevokeKey handles DELETE /v1/accounts/{accountID}/api-keys/{keyID}
func (h *APIKeyHandler) RevokeKey(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.GetLogger(ctx)

	accountID := chi.URLParam(r, "accountID")
	keyID := chi.URLParam(r, "keyID")

	actorID, ok := getActorID(ctx)
	if !ok {
		httperr.Unauthorized401(w, ctx, httperr.ErrCodeInvalidToken, "authentication required")
		return
	}

	log.Info(ctx, "revoking api key",
		logger.Module("apikey"),
		logger.Action("revoke"),
		zap.String("accountId", accountID),
		zap.String("keyId", keyID),
		zap.String("actorId", actorID),
	)

	if err := h.service.RevokeKey(ctx, accountID, actorID, keyID); err != nil {
		handleServiceError(w, ctx, log, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
