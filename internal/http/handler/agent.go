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

type AgentHandler struct {
	service *service.AgentService
}

func NewAgentHandler(service *service.AgentService) *AgentHandler {
	return &AgentHandler{service: service}
}

// ListAgents handles GET /v1/accounts/{accountID}/agents
func (h *AgentHandler) ListAgents(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.GetLogger(ctx)

	accountID := chi.URLParam(r, "accountID")

	actorID, ok := getActorID(ctx)
	if !ok {
		httperr.Unauthorized401(w, ctx, httperr.ErrCodeInvalidToken, "authentication required")
		return
	}

	agents, err := h.service.ListAgents(ctx, accountID, actorID)
	if err != nil {
		handleServiceError(w, ctx, log, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"data": agents})
}

// GetAgent handles GET /v1/accounts/{accountID}/agents/{agentID}
func (h *AgentHandler) GetAgent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.GetLogger(ctx)

	accountID := chi.URLParam(r, "accountID")
	agentID := chi.URLParam(r, "agentID")

	actorID, ok := getActorID(ctx)
	if !ok {
		httperr.Unauthorized401(w, ctx, httperr.ErrCodeInvalidToken, "authentication required")
		return
	}

	agent, err := h.service.GetAgent(ctx, accountID, agentID, actorID)
	if err != nil {
		handleServiceError(w, ctx, log, err)
		return
	}

	writeJSON(w, http.StatusOK, agent)
}

// CreateAgent handles POST /v1/accounts/{accountID}/agents
func (h *AgentHandler) CreateAgent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.GetLogger(ctx)

	accountID := chi.URLParam(r, "accountID")

	actorID, ok := getActorID(ctx)
	if !ok {
		httperr.Unauthorized401(w, ctx, httperr.ErrCodeInvalidToken, "authentication required")
		return
	}

	var req domain.CreateAgentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperr.BadRequest400(w, ctx, httperr.ErrCodeInvalidFormat, "invalid JSON body")
		return
	}

	log.Info(ctx, "creating agent",
		logger.Module("agent"),
		logger.Action("create"),
		zap.String("accountId", accountID),
		zap.String("actorId", actorID),
		zap.String("name", req.Name),
	)

	agent, err := h.service.CreateAgent(ctx, accountID, actorID, &req)
	if err != nil {
		handleServiceError(w, ctx, log, err)
		return
	}

	writeJSON(w, http.StatusCreated, agent)
}

// UpdateAgent handles PATCH /v1/accounts/{accountID}/agents/{agentID}
func (h *AgentHandler) UpdateAgent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.GetLogger(ctx)

	accountID := chi.URLParam(r, "accountID")
	agentID := chi.URLParam(r, "agentID")

	actorID, ok := getActorID(ctx)
	if !ok {
		httperr.Unauthorized401(w, ctx, httperr.ErrCodeInvalidToken, "authentication required")
		return
	}

	var req domain.UpdateAgentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperr.BadRequest400(w, ctx, httperr.ErrCodeInvalidFormat, "invalid JSON body")
		return
	}

	agent, err := h.service.UpdateAgent(ctx, accountID, agentID, actorID, &req)
	if err != nil {
		handleServiceError(w, ctx, log, err)
		return
	}

	writeJSON(w, http.StatusOK, agent)
}

// DeleteAgent handles DELETE /v1/accounts/{accountID}/agents/{agentID}
func (h *AgentHandler) DeleteAgent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.GetLogger(ctx)

	accountID := chi.URLParam(r, "accountID")
	agentID := chi.URLParam(r, "agentID")

	actorID, ok := getActorID(ctx)
	if !ok {
		httperr.Unauthorized401(w, ctx, httperr.ErrCodeInvalidToken, "authentication required")
		return
	}

	if err := h.service.DeleteAgent(ctx, accountID, agentID, actorID); err != nil {
		handleServiceError(w, ctx, log, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
