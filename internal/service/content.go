package service

import (
	"context"
	"fmt"

	"pilot-api/internal/accounts"
	"pilot-api/internal/domain"
	"pilot-api/internal/observability/logger"
	"pilot-api/internal/repo"

	"go.uber.org/zap"
)

var (
	ErrCategoryNotFound = repo.ErrCategoryNotFound
	ErrArticleNotFound  = repo.ErrArticleNotFound
	ErrTemplateNotFound = repo.ErrTemplateNotFound
)

// ContentService serves help-center content and email templates. Published
// reads are public (no principal required); drafts and all writes are gated on
// platform-operator content capabilities.
type ContentService struct {
	contentRepo *repo.ContentRepo
	auditRepo   *repo.AuditRepo
	guard       *accounts.Guard
	log         *logger.Logger
}

// NewContentService creates a ContentService
func NewContentService(contentRepo *repo.ContentRepo, auditRepo *repo.AuditRepo, guard *accounts.Guard, log *logger.Logger) *ContentService {
	return &ContentService{
		contentRepo: contentRepo,
		auditRepo:   auditRepo,
		guard:       guard,
		log:         log,
	}
}

func (s *ContentService) audit(ctx context.Context, actorID, action, resourceType string, resourceID *string, success bool) {
	err := s.auditRepo.LogAction(ctx, nil, actorID, action, resourceType, resourceID, success, nil, "", "")
	if err != nil {
		s.log.Error(ctx, "audit log write failed",
			logger.Module("content"),
			logger.Action("audit"),
			zap.String("audited_action", action),
			zap.Error(err),
		)
	}
}

// PublicCategories lists published categories. No authentication required.
func (s *ContentService) PublicCategories(ctx context.Context) ([]domain.HCCategory, error) {
	return s.contentRepo.ListCategories(ctx, true)
}

// PublicArticles lists published articles of a category. No authentication required.
func (s *ContentService) PublicArticles(ctx context.Context, categoryID string) ([]domain.HCArticle, error) {
	return s.contentRepo.ListArticles(ctx, categoryID, true)
}

// PublicArticleBySlug retrieves a published article. No authentication required.
func (s *ContentService) PublicArticleBySlug(ctx context.Context, slug string) (*domain.HCArticle, error) {
	return s.contentRepo.GetArticleBySlug(ctx, slug, true)
}

// ListAllCategories lists categories including drafts. Permission: view_content.
func (s *ContentService) ListAllCategories(ctx context.Context, actorID string) ([]domain.HCCategory, error) {
	if err := requireCapability(ctx, s.guard, actorID, domain.CapabilityViewContent); err != nil {
		return nil, err
	}
	return s.contentRepo.ListCategories(ctx, false)
}

// ListAllArticles lists a category's articles including drafts. Permission: view_content.
func (s *ContentService) ListAllArticles(ctx context.Context, actorID, categoryID string) ([]domain.HCArticle, error) {
	if err := requireCapability(ctx, s.guard, actorID, domain.CapabilityViewContent); err != nil {
		return nil, err
	}
	return s.contentRepo.ListArticles(ctx, categoryID, false)
}

// UpsertCategory creates or updates a category by slug. Permission: manage_content.
func (s *ContentService) UpsertCategory(ctx context.Context, actorID string, req *domain.UpsertCategoryRequest) (*domain.HCCategory, error) {
	if err := requireCapability(ctx, s.guard, actorID, domain.CapabilityManageContent); err != nil {
		s.audit(ctx, actorID, "upsert", "hc_category", nil, false)
		return nil, err
	}

	if err := req.Validate(); err != nil {
		return nil, err
	}

	category, err := s.contentRepo.UpsertCategory(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("upsert category: %w", err)
	}

	s.audit(ctx, actorID, "upsert", "hc_category", &category.ID, true)

	return category, nil
}

// DeleteCategory removes a category and its articles. Permission: manage_content.
func (s *ContentService) DeleteCategory(ctx context.Context, actorID, categoryID string) error {
	if err := requireCapability(ctx, s.guard, actorID, domain.CapabilityManageContent); err != nil {
		s.audit(ctx, actorID, "delete", "hc_category", &categoryID, false)
		return err
	}

	if err := s.contentRepo.DeleteCategory(ctx, categoryID); err != nil {
		return err
	}

	s.audit(ctx, actorID, "delete", "hc_category", &categoryID, true)

	return nil
}

// UpsertArticle creates or updates an article by slug. Permission: manage_content.
func (s *ContentService) UpsertArticle(ctx context.Context, actorID string, req *domain.UpsertArticleRequest) (*domain.HCArticle, error) {
	if err := requireCapability(ctx, s.guard, actorID, domain.CapabilityManageContent); err != nil {
		s.audit(ctx, actorID, "upsert", "hc_article", nil, false)
		return nil, err
	}

	if err := req.Validate(); err != nil {
		return nil, err
	}

	article, err := s.contentRepo.UpsertArticle(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("upsert article: %w", err)
	}

	s.audit(ctx, actorID, "upsert", "hc_article", &article.ID, true)

	return article, nil
}

// DeleteArticle removes an article. Permission: manage_content.
func (s *ContentService) DeleteArticle(ctx context.Context, actorID, articleID string) error {
	if err := requireCapability(ctx, s.guard, actorID, domain.CapabilityManageContent); err != nil {
		s.audit(ctx, actorID, "delete", "hc_article", &articleID, false)
		return err
	}

	if err := s.contentRepo.DeleteArticle(ctx, articleID); err != nil {
		return err
	}

	s.audit(ctx, actorID, "delete", "hc_article", &articleID, true)

	return nil
}

// ListTemplates lists email templates. Permission: view_content.
func (s *ContentService) ListTemplates(ctx context.Context, actorID string) ([]domain.EmailTemplate, error) {
	if err := requireCapability(ctx, s.guard, actorID, domain.CapabilityViewContent); err != nil {
		return nil, err
	}
	return s.contentRepo.ListTemplates(ctx)
}

// GetTemplateByName retrieves an active template for rendering. Internal
// callers (invite emails) use this without a principal check.
func (s *ContentService) GetTemplateByName(ctx context.Context, name string) (*domain.EmailTemplate, error) {
	return s.contentRepo.GetTemplateByName(ctx, name)
}

// UpsertTemplate creates or updates a template by name. Permission: manage_content.
func (s *ContentService) UpsertTemplate(ctx context.Context, actorID string, req *domain.UpsertEmailTemplateRequest) (*domain.EmailTemplate, error) {
	if err := requireCapability(ctx, s.guard, actorID, domain.CapabilityManageContent); err != nil {
		s.audit(ctx, actorID, "upsert", "email_template", nil, false)
		return nil, err
	}

	if err := req.Validate(); err != nil {
		return nil, err
	}

	template, err := s.contentRepo.UpsertTemplate(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("upsert template: %w", err)
	}

	s.audit(ctx, actorID, "upsert", "email_template", &template.ID, true)

	return template, nil
}
