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

type WebhookHandler struct {
	service *service.WebhookService
}

func NewWebhookHandler(service *service.WebhookService) *WebhookHandler {
	return &WebhookHandler{service: service}
}

// ListWebhooks handles GET /v1/accounts/{accountID}/webhooks
func (h *WebhookHandler) ListWebhooks(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.GetLogger(ctx)

	accountID := chi.URLParam(r, "accountID")

	actorID, ok := getActorID(ctx)
	if !ok {
		httperr.Unauthorized401(w, ctx, httperr.ErrCodeInvalidToken, "authentication required")
		return
	}

	webhooks, err := h.service.ListWebhooks(ctx, accountID, actorID)
	if err != nil {
		handleServiceError(w, ctx, log, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"data": webhooks})
}

// GetWebhook handles GET /v1/accounts/{accountID}/webhooks/{webhookID}
func (h *WebhookHandler) GetWebhook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.GetLogger(ctx)

	accountID := chi.URLParam(r, "accountID")
	webhookID := chi.URLParam(r, "webhookID")

	actorID, ok := getActorID(ctx)
	if !ok {
		httperr.Unauthorized401(w, ctx, httperr.ErrCodeInvalidToken, "authentication required")
		return
	}

	webhook, err := h.service.GetWebhook(ctx, accountID, webhookID, actorID)
	if err != nil {
		handleServiceError(w, ctx, log, err)
		return
	}

	writeJSON(w, http.StatusOK, webhook)
}

// CreateWebhook handles POST /v1/accounts/{accountID}/webhooks
// The signing secret is returned once, in this response.
func (h *WebhookHandler) CreateWebhook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.GetLogger(ctx)

	accountID := chi.URLParam(r, "accountID")

	actorID, ok := getActorID(ctx)
	if !ok {
		httperr.Unauthorized401(w, ctx, httperr.ErrCodeInvalidToken, "authentication required")
		return
	}

	var req domain.CreateWebhookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperr.BadRequest400(w, ctx, httperr.ErrCodeInvalidFormat, "invalid JSON body")
		return
	}

	log.Info(ctx, "creating webhook",
		logger.Module("webhook"),
		logger.Action("create"),
		zap.String("accountId", accountID),
		zap.String("actorId", actorID),
	)

	webhook, err := h.service.CreateWebhook(ctx, accountID, actorID, &req)
	if err != nil {
		handleServiceError(w, ctx, log, err)
		return
	}

	// The secret is serialized only here so the customer can store it
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"webhook": webhook,
		"secret":  webhook.Secret,
	})
}

// UpdateWebhook handles PATCH /v1/accounts/{accountID}/webhooks/{webhookID}
func (h *WebhookHandler) UpdateWebhook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.GetLogger(ctx)

	accountID := chi.URLParam(r, "accountID")
	webhookID := chi.URLParam(r, "webhookID")

	actorID, ok := getActorID(ctx)
	if !ok {
		httperr.Unauthorized401(w, ctx, httperr.ErrCodeInvalidToken, "authentication required")
		return
	}

	var req domain.UpdateWebhookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperr.BadRequest400(w, ctx, httperr.ErrCodeInvalidFormat, "invalid JSON body")
		return
	}

	webhook, err := h.service.UpdateWebhook(ctx, accountID, webhookID, actorID, &req)
	if err != nil {
		handleServiceError(w, ctx, log, err)
		return
	}

	writeJSON(w, http.StatusOK, webhook)
}

// DeleteWebhook handles DELETE /v1/accounts/{accountID}/webhooks/{webhookID}
func (h *WebhookHandler) DeleteWebhook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.GetLogger(ctx)

	accountID := chi.URLParam(r, "accountID")
	webhookID := chi.URLParam(r, "webhookID")

	actorID, ok := getActorID(ctx)
	if !ok {
		httperr.Unauthorized401(w, ctx, httperr.ErrCodeInvalidToken, "authentication required")
		return
	}

	if err := h.service.DeleteWebhook(ctx, accountID, webhookID, actorID); err != nil {
		handleServiceError(w, ctx, log, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
