package handler

import (
	"encoding/json"
	"net/http"

	"pilot-api/internal/domain"
	"pilot-api/internal/http/httperr"
	"pilot-api/internal/observability/logger"
	"pilot-api/internal/service"

	"github.com/go-chi/chi/v5"
)

type ContentHandler struct {
	service *service.ContentService
}

func NewContentHandler(service *service.ContentService) *ContentHandler {
	return &ContentHandler{service: service}
}

// PublicCategories handles GET /v1/help-center/categories (no auth)
func (h *ContentHandler) PublicCategories(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.GetLogger(ctx)

	categories, err := h.service.PublicCategories(ctx)
	if err != nil {
		handleServiceError(w, ctx, log, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"data": categories})
}

// PublicArticles handles GET /v1/help-center/categories/{categoryID}/articles (no auth)
func (h *ContentHandler) PublicArticles(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.GetLogger(ctx)

	categoryID := chi.URLParam(r, "categoryID")

	articles, err := h.service.PublicArticles(ctx, categoryID)
	if err != nil {
		handleServiceError(w, ctx, log, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"data": articles})
}

// PublicArticleBySlug handles GET /v1/help-center/articles/{slug} (no auth)
func (h *ContentHandler) PublicArticleBySlug(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.GetLogger(ctx)

	slug := chi.URLParam(r, "slug")

	article, err := h.service.PublicArticleBySlug(ctx, slug)
	if err != nil {
		handleServiceError(w, ctx, log, err)
		return
	}

	writeJSON(w, http.StatusOK, article)
}

// ListCategories handles GET /v1/admin/content/categories (drafts included)
func (h *ContentHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.GetLogger(ctx)

	actorID, ok := getActorID(ctx)
	if !ok || actorID == "" {
		httperr.Unauthorized401(w, ctx, httperr.ErrCodeInvalidToken, "authentication required")
		return
	}

	categories, err := h.service.ListAllCategories(ctx, actorID)
	if err != nil {
		handleServiceError(w, ctx, log, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"data": categories})
}

// ListArticles handles GET /v1/admin/content/categories/{categoryID}/articles
func (h *ContentHandler) ListArticles(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.GetLogger(ctx)

	actorID, ok := getActorID(ctx)
	if !ok || actorID == "" {
		httperr.Unauthorized401(w, ctx, httperr.ErrCodeInvalidToken, "authentication required")
		return
	}

	categoryID := chi.URLParam(r, "categoryID")

	articles, err := h.service.ListAllArticles(ctx, actorID, categoryID)
	if err != nil {
		handleServiceError(w, ctx, log, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"data": articles})
}

// UpsertCategory handles PUT /v1/admin/content/categories
func (h *ContentHandler) UpsertCategory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.GetLogger(ctx)

	actorID, ok := getActorID(ctx)
	if !ok || actorID == "" {
		httperr.Unauthorized401(w, ctx, httperr.ErrCodeInvalidToken, "authentication required")
		return
	}

	var req domain.UpsertCategoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperr.BadRequest400(w, ctx, httperr.ErrCodeInvalidFormat, "invalid JSON body")
		return
	}

	category, err := h.service.UpsertCategory(ctx, actorID, &req)
	if err != nil {
		handleServiceError(w, ctx, log, err)
		return
	}

	writeJSON(w, http.StatusOK, category)
}

// DeleteCategory handles DELETE /v1/admin/content/categories/{categoryID}
func (h *ContentHandler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.GetLogger(ctx)

	actorID, ok := getActorID(ctx)
	if !ok || actorID == "" {
		httperr.Unauthorized401(w, ctx, httperr.ErrCodeInvalidToken, "authentication required")
		return
	}

	categoryID := chi.URLParam(r, "categoryID")

	if err := h.service.DeleteCategory(ctx, actorID, categoryID); err != nil {
		handleServiceError(w, ctx, log, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// UpsertArticle handles PUT /v1/admin/content/articles
func (h *ContentHandler) UpsertArticle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.GetLogger(ctx)

	actorID, ok := getActorID(ctx)
	if !ok || actorID == "" {
		httperr.Unauthorized401(w, ctx, httperr.ErrCodeInvalidToken, "authentication required")
		return
	}

	var req domain.UpsertArticleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperr.BadRequest400(w, ctx, httperr.ErrCodeInvalidFormat, "invalid JSON body")
		return
	}

	article, err := h.service.UpsertArticle(ctx, actorID, &req)
	if err != nil {
		handleServiceError(w, ctx, log, err)
		return
	}

	writeJSON(w, http.StatusOK, article)
}

// DeleteArticle handles DELETE /v1/admin/content/articles/{articleID}
func (h *ContentHandler) DeleteArticle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.GetLogger(ctx)

	actorID, ok := getActorID(ctx)
	if !ok || actorID == "" {
		httperr.Unauthorized401(w, ctx, httperr.ErrCodeInvalidToken, "authentication required")
		return
	}

	articleID := chi.URLParam(r, "articleID")

	if err := h.service.DeleteArticle(ctx, actorID, articleID); err != nil {
		handleServiceError(w, ctx, log, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListTemplates handles GET /v1/admin/content/templates
func (h *ContentHandler) ListTemplates(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.GetLogger(ctx)

	actorID, ok := getActorID(ctx)
	if !ok || actorID == "" {
		httperr.Unauthorized401(w, ctx, httperr.ErrCodeInvalidToken, "authentication required")
		return
	}

	templates, err := h.service.ListTemplates(ctx, actorID)
	if err != nil {
		handleServiceError(w, ctx, log, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"data": templates})
}

// UpsertTemplate handles PUT /v1/admin/content/templates
func (h *ContentHandler) UpsertTemplate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.GetLogger(ctx)

	actorID, ok := getActorID(ctx)
	if !ok || actorID == "" {
		httperr.Unauthorized401(w, ctx, httperr.ErrCodeInvalidToken, "authentication required")
		return
	}

	var req domain.UpsertEmailTemplateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperr.BadRequest400(w, ctx, httperr.ErrCodeInvalidFormat, "invalid JSON body")
		return
	}

	template, err := h.service.UpsertTemplate(ctx, actorID, &req)
	if err != nil {
		handleServiceError(w, ctx, log, err)
		return
	}

	writeJSON(w, http.StatusOK, template)
}
