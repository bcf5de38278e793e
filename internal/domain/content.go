package domain

import "time"

// HCCategory is a help-center category.
type HCCategory struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	SortOrder   int       `json:"sortOrder"`
	IsPublished bool      `json:"isPublished"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// HCArticle is a help-center article.
type HCArticle struct {
	ID          string    `json:"id"`
	CategoryID  string    `json:"categoryId"`
	Title       string    `json:"title"`
	Slug        string    `json:"slug"`
	Body        string    `json:"body"`
	SortOrder   int       `json:"sortOrder"`
	IsPublished bool      `json:"isPublished"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// EmailTemplate is a transactional email template.
type EmailTemplate struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Subject   string    `json:"subject"`
	BodyHTML  string    `json:"bodyHtml"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// UpsertArticleRequest is the payload for creating or updating an article
type UpsertArticleRequest struct {
	CategoryID  string `json:"categoryId" validate:"required"`
	Title       string `json:"title" validate:"required,min=1,max=300"`
	Slug        string `json:"slug" validate:"required,min=1,max=300"`
	Body        string `json:"body" validate:"required"`
	SortOrder   int    `json:"sortOrder" validate:"gte=0"`
	IsPublished bool   `json:"isPublished"`
}

// Validate validates the request payload
func (r *UpsertArticleRequest) Validate() error {
	return validate.Struct(r)
}

// UpsertCategoryRequest is the payload for creating or updating a category
type UpsertCategoryRequest struct {
	Name        string `json:"name" validate:"required,min=1,max=200"`
	Slug        string `json:"slug" validate:"required,min=1,max=200"`
	SortOrder   int    `json:"sortOrder" validate:"gte=0"`
	IsPublished bool   `json:"isPublished"`
}

// Validate validates the request payload
func (r *UpsertCategoryRequest) Validate() error {
	return validate.Struct(r)
}

// UpsertEmailTemplateRequest is the payload for creating or updating a template
type UpsertEmailTemplateRequest struct {
	Name     string `json:"name" validate:"required,min=1,max=120"`
	Subject  string `json:"subject" validate:"required,min=1,max=300"`
	BodyHTML string `json:"bodyHtml" validate:"required"`
	Active   bool   `json:"active"`
}

// Validate validates the request payload
func (r *UpsertEmailTemplateRequest) Validate() error {
	return validate.Struct(r)
}
