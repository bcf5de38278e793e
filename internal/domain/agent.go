package domain

import "time"

// Agent is a configured chat-widget agent belonging to an account.
type Agent struct {
	ID          string    `json:"id"`
	UserID      string    `json:"userId"`
	Name        string    `json:"name"`
	Greeting    *string   `json:"greeting,omitempty"`
	Tone        string    `json:"tone"`
	WidgetColor *string   `json:"widgetColor,omitempty"`
	IsActive    bool      `json:"isActive"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// CreateAgentRequest is the payload for creating an agent
type CreateAgentRequest struct {
	Name        string  `json:"name" validate:"required,min=1,max=120"`
	Greeting    *string `json:"greeting,omitempty" validate:"omitempty,max=1000"`
	Tone        string  `json:"tone" validate:"omitempty,oneof=friendly formal concise playful"`
	WidgetColor *string `json:"widgetColor,omitempty" validate:"omitempty,hexcolor"`
}

// Validate validates the request payload
func (r *CreateAgentRequest) Validate() error {
	return validate.Struct(r)
}

// UpdateAgentRequest is the payload for updating an agent. Nil fields are left unchanged.
type UpdateAgentRequest struct {
	Name        *string `json:"name,omitempty" validate:"omitempty,min=1,max=120"`
	Greeting    *string `json:"greeting,omitempty" validate:"omitempty,max=1000"`
	Tone        *string `json:"tone,omitempty" validate:"omitempty,oneof=friendly formal concise playful"`
	WidgetColor *string `json:"widgetColor,omitempty" validate:"omitempty,hexcolor"`
	IsActive    *bool   `json:"isActive,omitempty"`
}

// Validate validates the request payload
func (r *UpdateAgentRequest) Validate() error {
	return validate.Struct(r)
}
