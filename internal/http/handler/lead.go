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

type LeadHandler struct {
	service *service.LeadService
}

func NewLeadHandler(service *service.LeadService) *LeadHandler {
	return &LeadHandler{service: service}
}

// ListLeads handles GET /v1/accounts/{accountID}/leads
func (h *LeadHandler) ListLeads(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.GetLogger(ctx)

	accountID := chi.URLParam(r, "accountID")

	actorID, ok := getActorID(ctx)
	if !ok {
		httperr.Unauthorized401(w, ctx, httperr.ErrCodeInvalidToken, "authentication required")
		return
	}

	params := domain.ListLeadsParams{
		Limit: 50, // default
	}

	if cursor := r.URL.Query().Get("cursor"); cursor != "" {
		params.Cursor = &cursor
	}

	if !parseLimit(w, r, &params.Limit) {
		return
	}

	if statusStr := r.URL.Query().Get("status"); statusStr != "" {
		status := domain.LeadStatus(statusStr)
		if !status.IsValid() {
			httperr.BadRequest400(w, ctx, httperr.ErrCodeInvalidStatus, "status must be one of: new, contacted, qualified, converted, lost")
			return
		}
		params.Status = &status
	}

	if agentID := r.URL.Query().Get("agentId"); agentID != "" {
		params.AgentID = &agentID
	}

	response, err := h.service.ListLeads(ctx, accountID, actorID, params)
	if err != nil {
		handleServiceError(w, ctx, log, err)
		return
	}

	writeJSON(w, http.StatusOK, response)
}

// GetLead handles GET /v1/accounts/{accountID}/leads/{leadID}
func (h *LeadHandler) GetLead(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.GetLogger(ctx)

	accountID := chi.URLParam(r, "accountID")
	leadID := chi.URLParam(r, "leadID")

	actorID, ok := getActorID(ctx)
	if !ok {
		httperr.Unauthorized401(w, ctx, httperr.ErrCodeInvalidToken, "authentication required")
		return
	}

	lead, err := h.service.GetLead(ctx, accountID, leadID, actorID)
	if err != nil {
		handleServiceError(w, ctx, log, err)
		return
	}

	writeJSON(w, http.StatusOK, lead)
}

// CreateLead handles POST /v1/accounts/{accountID}/leads
func (h *LeadHandler) CreateLead(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.GetLogger(ctx)

	accountID := chi.URLParam(r, "accountID")

	actorID, ok := getActorID(ctx)
	if !ok {
		httperr.Unauthorized401(w, ctx, httperr.ErrCodeInvalidToken, "authentication required")
		return
	}

	var req domain.CreateLeadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperr.BadRequest400(w, ctx, httperr.ErrCodeInvalidFormat, "invalid JSON body")
		return
	}

	log.Info(ctx, "creating lead",
		logger.Module("lead"),
		logger.Action("create"),
		zap.String("accountId", accountID),
		zap.String("actorId", actorID),
	)

	lead, err := h.service.CreateLead(ctx, accountID, actorID, &req)
	if err != nil {
		handleServiceError(w, ctx, log, err)
		return
	}

	writeJSON(w, http.StatusCreated, lead)
}

// UpdateLead handles PATCH /v1/accounts/{accountID}/leads/{leadID}
func (h *LeadHandler) UpdateLead(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.GetLogger(ctx)

	accountID := chi.URLParam(r, "accountID")
	leadID := chi.URLParam(r, "leadID")

	actorID, ok := getActorID(ctx)
	if !ok {
		httperr.Unauthorized401(w, ctx, httperr.ErrCodeInvalidToken, "authentication required")
		return
	}

	var req domain.UpdateLeadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperr.BadRequest400(w, ctx, httperr.ErrCodeInvalidFormat, "invalid JSON body")
		return
	}

	lead, err := h.service.UpdateLead(ctx, accountID, leadID, actorID, &req)
	if err != nil {
		handleServiceError(w, ctx, log, err)
		return
	}

	writeJSON(w, http.StatusOK, lead)
}

// DeleteLead handles DELETE /v1/accounts/{accountID}/leads/{leadID}
func (h *LeadHandler) DeleteLead(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.GetLogger(ctx)

	accountID := chi.URLParam(r, "accountID")
	leadID := chi.URLParam(r, "leadID")

	actorID, ok := getActorID(ctx)
	if !ok {
		httperr.Unauthorized401(w, ctx, httperr.ErrCodeInvalidToken, "authentication required")
		return
	}

	log.Info(ctx, "deleting lead",
		logger.Module("lead"),
		logger.Action("delete"),
		zap.String("accountId", accountID),
		zap.String("leadId", leadID),
		zap.String("actorId", actorID),
	)

	if err := h.service.DeleteLead(ctx, accountID, leadID, actorID); err != nil {
		handleServiceError(w, ctx, log, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
