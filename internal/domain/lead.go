package domain

import "time"

// LeadStatus is the lifecycle stage of a captured lead
type LeadStatus string

const (
	LeadStatusNew       LeadStatus = "new"
	LeadStatusContacted LeadStatus = "contacted"
	LeadStatusQualified LeadStatus = "qualified"
	LeadStatusConverted LeadStatus = "converted"
	LeadStatusLost      LeadStatus = "lost"
)

// IsValid checks if the status is one of the defined constants
func (s LeadStatus) IsValid() bool {
	switch s {
	case LeadStatusNew, LeadStatusContacted, LeadStatusQualified, LeadStatusConverted, LeadStatusLost:
		return true
	default:
		return false
	}
}

// Lead is a visitor captured by the chat widget or entered manually.
// UserID is always the owning account id, never the id of the member who
// created the row.
type Lead struct {
	ID        string     `json:"id"`
	UserID    string     `json:"userId"`
	AgentID   *string    `json:"agentId,omitempty"`
	FullName  string     `json:"fullName"`
	Email     *string    `json:"email,omitempty"`
	Phone     *string    `json:"phone,omitempty"`
	Status    LeadStatus `json:"status"`
	Source    *string    `json:"source,omitempty"`
	Notes     *string    `json:"notes,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
	DeletedAt *time.Time `json:"deletedAt,omitempty"`
}

// CreateLeadRequest is the payload for creating a lead
type CreateLeadRequest struct {
	FullName string  `json:"fullName" validate:"required,min=1,max=200"`
	Email    *string `json:"email,omitempty" validate:"omitempty,email"`
	Phone    *string `json:"phone,omitempty" validate:"omitempty,max=40"`
	AgentID  *string `json:"agentId,omitempty"`
	Source   *string `json:"source,omitempty" validate:"omitempty,max=100"`
	Notes    *string `json:"notes,omitempty" validate:"omitempty,max=5000"`
}

// Validate validates the request payload
func (r *CreateLeadRequest) Validate() error {
	return validate.Struct(r)
}

// UpdateLeadRequest is the payload for updating a lead. Nil fields are left unchanged.
type UpdateLeadRequest struct {
	FullName *string     `json:"fullName,omitempty" validate:"omitempty,min=1,max=200"`
	Email    *string     `json:"email,omitempty" validate:"omitempty,email"`
	Phone    *string     `json:"phone,omitempty" validate:"omitempty,max=40"`
	Status   *LeadStatus `json:"status,omitempty"`
	Notes    *string     `json:"notes,omitempty" validate:"omitempty,max=5000"`
}

// Validate validates the request payload
func (r *UpdateLeadRequest) Validate() error {
	if err := validate.Struct(r); err != nil {
		return err
	}
	if r.Status != nil && !r.Status.IsValid() {
		return ErrInvalidLeadStatus
	}
	return nil
}

// ListLeadsParams are the filters for listing leads
type ListLeadsParams struct {
	AccountID string
	AgentID   *string
	Status    *LeadStatus
	Cursor    *string
	Limit     int
}

// LeadListResponse is the paginated list envelope
type LeadListResponse struct {
	Data []Lead `json:"data"`
	Meta struct {
		HasNextPage bool    `json:"hasNextPage"`
		NextCursor  *string `json:"nextCursor,omitempty"`
	} `json:"meta"`
}
