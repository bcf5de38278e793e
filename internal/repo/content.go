package repo

import (
	"context"
	"errors"
	"fmt"

	"pilot-api/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrCategoryNotFound indicates no matching help-center category
	ErrCategoryNotFound = errors.New("help-center category not found")

	// ErrArticleNotFound indicates no matching help-center article
	ErrArticleNotFound = errors.New("help-center article not found")

	// ErrTemplateNotFound indicates no matching email template
	ErrTemplateNotFound = errors.New("email template not found")
)

// ContentRepo handles help-center categories, articles, and email templates.
// Published content is world-readable; writes go through platform-operator
// capability checks in the service layer.
type ContentRepo struct {
	pool *pgxpool.Pool
}

// NewContentRepo creates a new ContentRepo
func NewContentRepo(pool *pgxpool.Pool) *ContentRepo {
	return &ContentRepo{pool: pool}
}

// ListCategories retrieves categories. publishedOnly restricts to published
// rows for the public surface.
func (r *ContentRepo) ListCategories(ctx context.Context, publishedOnly bool) ([]domain.HCCategory, error) {
	query := `
		SELECT id, name, slug, sort_order, is_published, created_at, updated_at
		FROM hc_categories
	`
	if publishedOnly {
		query += " WHERE is_published = TRUE"
	}
	query += " ORDER BY sort_order ASC, name ASC"

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()

	var categories []domain.HCCategory
	for rows.Next() {
		var c domain.HCCategory
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug, &c.SortOrder, &c.IsPublished, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate categories: %w", err)
	}

	return categories, nil
}

// UpsertCategory creates or updates a category by slug
func (r *ContentRepo) UpsertCategory(ctx context.Context, req *domain.UpsertCategoryRequest) (*domain.HCCategory, error) {
	query := `
		INSERT INTO hc_categories (id, name, slug, sort_order, is_published)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (slug) DO UPDATE
		SET name = EXCLUDED.name,
		    sort_order = EXCLUDED.sort_order,
		    is_published = EXCLUDED.is_published,
		    updated_at = NOW()
		RETURNING id, name, slug, sort_order, is_published, created_at, updated_at
	`

	var c domain.HCCategory
	err := r.pool.QueryRow(ctx, query,
		uuid.NewString(), req.Name, req.Slug, req.SortOrder, req.IsPublished,
	).Scan(&c.ID, &c.Name, &c.Slug, &c.SortOrder, &c.IsPublished, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("upsert category: %w", err)
	}

	return &c, nil
}

// DeleteCategory removes a category and, via cascade, its articles
func (r *ContentRepo) DeleteCategory(ctx context.Context, categoryID string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM hc_categories WHERE id = $1`, categoryID)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrCategoryNotFound
	}
	return nil
}

// ListArticles retrieves articles of a category in sort order
func (r *ContentRepo) ListArticles(ctx context.Context, categoryID string, publishedOnly bool) ([]domain.HCArticle, error) {
	query := `
		SELECT id, category_id, title, slug, body, sort_order, is_published, created_at, updated_at
		FROM hc_articles
		WHERE category_id = $1
	`
	if publishedOnly {
		query += " AND is_published = TRUE"
	}
	query += " ORDER BY sort_order ASC, title ASC"

	rows, err := r.pool.Query(ctx, query, categoryID)
	if err != nil {
		return nil, fmt.Errorf("query articles: %w", err)
	}
	defer rows.Close()

	var articles []domain.HCArticle
	for rows.Next() {
		var a domain.HCArticle
		if err := rows.Scan(&a.ID, &a.CategoryID, &a.Title, &a.Slug, &a.Body, &a.SortOrder, &a.IsPublished, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan article: %w", err)
		}
		articles = append(articles, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate articles: %w", err)
	}

	return articles, nil
}

// GetArticleBySlug retrieves an article by its slug
func (r *ContentRepo) GetArticleBySlug(ctx context.Context, slug string, publishedOnly bool) (*domain.HCArticle, error) {
	query := `
		SELECT id, category_id, title, slug, body, sort_order, is_published, created_at, updated_at
		FROM hc_articles
		WHERE slug = $1
	`
	if publishedOnly {
		query += " AND is_published = TRUE"
	}

	var a domain.HCArticle
	err := r.pool.QueryRow(ctx, query, slug).Scan(
		&a.ID, &a.CategoryID, &a.Title, &a.Slug, &a.Body, &a.SortOrder, &a.IsPublished, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrArticleNotFound
		}
		return nil, fmt.Errorf("query article: %w", err)
	}

	return &a, nil
}

// UpsertArticle creates or updates an article by slug
func (r *ContentRepo) UpsertArticle(ctx context.Context, req *domain.UpsertArticleRequest) (*domain.HCArticle, error) {
	query := `
		INSERT INTO hc_articles (id, category_id, title, slug, body, sort_order, is_published)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (slug) DO UPDATE
		SET category_id = EXCLUDED.category_id,
		    title = EXCLUDED.title,
		    body = EXCLUDED.body,
		    sort_order = EXCLUDED.sort_order,
		    is_published = EXCLUDED.is_published,
		    updated_at = NOW()
		RETURNING id, category_id, title, slug, body, sort_order, is_published, created_at, updated_at
	`

	var a domain.HCArticle
	err := r.pool.QueryRow(ctx, query,
		uuid.NewString(), req.CategoryID, req.Title, req.Slug, req.Body, req.SortOrder, req.IsPublished,
	).Scan(&a.ID, &a.CategoryID, &a.Title, &a.Slug, &a.Body, &a.SortOrder, &a.IsPublished, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("upsert article: %w", err)
	}

	return &a, nil
}

// DeleteArticle removes an article
func (r *ContentRepo) DeleteArticle(ctx context.Context, articleID string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM hc_articles WHERE id = $1`, articleID)
	if err != nil {
		return fmt.Errorf("delete article: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrArticleNotFound
	}
	return nil
}

// ListTemplates retrieves all email templates
func (r *ContentRepo) ListTemplates(ctx context.Context) ([]domain.EmailTemplate, error) {
	query := `
		SELECT id, name, subject, body_html, active, created_at, updated_at
		FROM email_templates
		ORDER BY name ASC
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query templates: %w", err)
	}
	defer rows.Close()

	var templates []domain.EmailTemplate
	for rows.Next() {
		var t domain.EmailTemplate
		if err := rows.Scan(&t.ID, &t.Name, &t.Subject, &t.BodyHTML, &t.Active, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan template: %w", err)
		}
		templates = append(templates, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate templates: %w", err)
	}

	return templates, nil
}

// GetTemplateByName retrieves an active template by its unique name
func (r *ContentRepo) GetTemplateByName(ctx context.Context, name string) (*domain.EmailTemplate, error) {
	query := `
		SELECT id, name, subject, body_html, active, created_at, updated_at
		FROM email_templates
		WHERE name = $1 AND active = TRUE
	`

	var t domain.EmailTemplate
	err := r.pool.QueryRow(ctx, query, name).Scan(
		&t.ID, &t.Name, &t.Subject, &t.BodyHTML, &t.Active, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTemplateNotFound
		}
		return nil, fmt.Errorf("query template: %w", err)
	}

	return &t, nil
}

// UpsertTemplate creates or updates a template by name
func (r *ContentRepo) UpsertTemplate(ctx context.Context, req *domain.UpsertEmailTemplateRequest) (*domain.EmailTemplate, error) {
	query := `
		INSERT INTO email_templates (id, name, subject, body_html, active)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (name) DO UPDATE
		SET subject = EXCLUDED.subject,
		    body_html = EXCLUDED.body_html,
		    active = EXCLUDED.active,
		    updated_at = NOW()
		RETURNING id, name, subject, body_html, active, created_at, updated_at
	`

	var t domain.EmailTemplate
	err := r.pool.QueryRow(ctx, query,
		uuid.NewString(), req.Name, req.Subject, req.BodyHTML, req.Active,
	).Scan(&t.ID, &t.Name, &t.Subject, &t.BodyHTML, &t.Active, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("upsert template: %w", err)
	}

	return &t, nil
}
