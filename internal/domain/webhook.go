package domain

import "time"

// Webhook is a customer-configured endpoint receiving automation events.
type Webhook struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	URL       string    `json:"url"`
	Secret    string    `json:"-"` // never serialized
	Events    []string  `json:"events"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// CreateWebhookRequest is the payload for registering a webhook
type CreateWebhookRequest struct {
	URL    string   `json:"url" validate:"required,url"`
	Events []string `json:"events" validate:"required,min=1,dive,oneof=lead.created lead.updated lead.deleted conversation.created message.created"`
}

// Validate validates the request payload
func (r *CreateWebhookRequest) Validate() error {
	return validate.Struct(r)
}

// UpdateWebhookRequest is the payload for updating a webhook. Nil fields are left unchanged.
type UpdateWebhookRequest struct {
	URL      *string  `json:"url,omitempty" validate:"omitempty,url"`
	Events   []string `json:"events,omitempty" validate:"omitempty,min=1,dive,oneof=lead.created lead.updated lead.deleted conversation.created message.created"`
	IsActive *bool    `json:"isActive,omitempty"`
}

// Validate validates the request payload
func (r *UpdateWebhookRequest) Validate() error {
	return validate.Struct(r)
}
