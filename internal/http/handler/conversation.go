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

type ConversationHandler struct {
	service *service.ConversationService
}

func NewConversationHandler(service *service.ConversationService) *ConversationHandler {
	return &ConversationHandler{service: service}
}

// ListConversations handles GET /v1/accounts/{accountID}/conversations
func (h *ConversationHandler) ListConversations(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.GetLogger(ctx)

	accountID := chi.URLParam(r, "accountID")

	actorID, ok := getActorID(ctx)
	if !ok {
		httperr.Unauthorized401(w, ctx, httperr.ErrCodeInvalidToken, "authentication required")
		return
	}

	params := domain.ListConversationsParams{
		Limit: 50, // default
	}

	if cursor := r.URL.Query().Get("cursor"); cursor != "" {
		params.Cursor = &cursor
	}

	if !parseLimit(w, r, &params.Limit) {
		return
	}

	if statusStr := r.URL.Query().Get("status"); statusStr != "" {
		status := domain.ConversationStatus(statusStr)
		if !status.IsValid() {
			httperr.BadRequest400(w, ctx, httperr.ErrCodeInvalidStatus, "status must be one of: open, resolved, archived")
			return
		}
		params.Status = &status
	}

	if agentID := r.URL.Query().Get("agentId"); agentID != "" {
		params.AgentID = &agentID
	}

	response, err := h.service.ListConversations(ctx, accountID, actorID, params)
	if err != nil {
		handleServiceError(w, ctx, log, err)
		return
	}

	writeJSON(w, http.StatusOK, response)
}

// GetConversation handles GET /v1/accounts/{accountID}/conversations/{conversationID}
func (h *ConversationHandler) GetConversation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.GetLogger(ctx)

	accountID := chi.URLParam(r, "accountID")
	conversationID := chi.URLParam(r, "conversationID")

	actorID, ok := getActorID(ctx)
	if !ok {
		httperr.Unauthorized401(w, ctx, httperr.ErrCodeInvalidToken, "authentication required")
		return
	}

	conversation, err := h.service.GetConversation(ctx, accountID, conversationID, actorID)
	if err != nil {
		handleServiceError(w, ctx, log, err)
		return
	}

	writeJSON(w, http.StatusOK, conversation)
}

// CreateConversation handles POST /v1/accounts/{accountID}/conversations
func (h *ConversationHandler) CreateConversation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.GetLogger(ctx)

	accountID := chi.URLParam(r, "accountID")

	actorID, ok := getActorID(ctx)
	if !ok {
		httperr.Unauthorized401(w, ctx, httperr.ErrCodeInvalidToken, "authentication required")
		return
	}

	var req domain.CreateConversationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperr.BadRequest400(w, ctx, httperr.ErrCodeInvalidFormat, "invalid JSON body")
		return
	}

	log.Info(ctx, "creating conversation",
		logger.Module("conversation"),
		logger.Action("create"),
		zap.String("accountId", accountID),
	)

	conversation, err := h.service.CreateConversation(ctx, accountID, actorID, &req)
	if err != nil {
		handleServiceError(w, ctx, log, err)
		return
	}

	writeJSON(w, http.StatusCreated, conversation)
}

// UpdateConversationStatus handles PATCH /v1/accounts/{accountID}/conversations/{conversationID}
func (h *ConversationHandler) UpdateConversationStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.GetLogger(ctx)

	accountID := chi.URLParam(r, "accountID")
	conversationID := chi.URLParam(r, "conversationID")

	actorID, ok := getActorID(ctx)
	if !ok {
		httperr.Unauthorized401(w, ctx, httperr.ErrCodeInvalidToken, "authentication required")
		return
	}

	var req struct {
		Status domain.ConversationStatus `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperr.BadRequest400(w, ctx, httperr.ErrCodeInvalidFormat, "invalid JSON body")
		return
	}

	if !req.Status.IsValid() {
		httperr.BadRequest400(w, ctx, httperr.ErrCodeInvalidStatus, "status must be one of: open, resolved, archived")
		return
	}

	conversation, err := h.service.UpdateConversationStatus(ctx, accountID, conversationID, actorID, req.Status)
	if err != nil {
		handleServiceError(w, ctx, log, err)
		return
	}

	writeJSON(w, http.StatusOK, conversation)
}

// ListMessages handles GET /v1/accounts/{accountID}/conversations/{conversationID}/messages
func (h *ConversationHandler) ListMessages(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.GetLogger(ctx)

	accountID := chi.URLParam(r, "accountID")
	conversationID := chi.URLParam(r, "conversationID")

	actorID, ok := getActorID(ctx)
	if !ok {
		httperr.Unauthorized401(w, ctx, httperr.ErrCodeInvalidToken, "authentication required")
		return
	}

	messages, err := h.service.ListMessages(ctx, accountID, conversationID, actorID)
	if err != nil {
		handleServiceError(w, ctx, log, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"data": messages})
}

// AppendMessage handles POST /v1/accounts/{accountID}/conversations/{conversationID}/messages
func (h *ConversationHandler) AppendMessage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.GetLogger(ctx)

	accountID := chi.URLParam(r, "accountID")
	conversationID := chi.URLParam(r, "conversationID")

	actorID, ok := getActorID(ctx)
	if !ok {
		httperr.Unauthorized401(w, ctx, httperr.ErrCodeInvalidToken, "authentication required")
		return
	}

	var req domain.CreateMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperr.BadRequest400(w, ctx, httperr.ErrCodeInvalidFormat, "invalid JSON body")
		return
	}

	message, err := h.service.AppendMessage(ctx, accountID, conversationID, actorID, &req)
	if err != nil {
		handleServiceError(w, ctx, log, err)
		return
	}

	writeJSON(w, http.StatusCreated, message)
}
