package domain

import "time"

// ConversationStatus is the state of a widget conversation
type ConversationStatus string

const (
	ConversationOpen     ConversationStatus = "open"
	ConversationResolved ConversationStatus = "resolved"
	ConversationArchived ConversationStatus = "archived"
)

// IsValid checks if the status is one of the defined constants
func (s ConversationStatus) IsValid() bool {
	switch s {
	case ConversationOpen, ConversationResolved, ConversationArchived:
		return true
	default:
		return false
	}
}

// Conversation is a chat session between a visitor and an account's agent.
type Conversation struct {
	ID        string             `json:"id"`
	UserID    string             `json:"userId"`
	AgentID   *string            `json:"agentId,omitempty"`
	LeadID    *string            `json:"leadId,omitempty"`
	VisitorID *string            `json:"visitorId,omitempty"`
	Status    ConversationStatus `json:"status"`
	CreatedAt time.Time          `json:"createdAt"`
	UpdatedAt time.Time          `json:"updatedAt"`
}

// MessageSender identifies who authored a message
type MessageSender string

const (
	SenderVisitor MessageSender = "visitor"
	SenderAgent   MessageSender = "agent"
	SenderHuman   MessageSender = "human"
)

// Message is a single chat message within a conversation.
type Message struct {
	ID             string        `json:"id"`
	UserID         string        `json:"userId"`
	ConversationID string        `json:"conversationId"`
	Sender         MessageSender `json:"sender"`
	Content        string        `json:"content"`
	CreatedAt      time.Time     `json:"createdAt"`
}

// CreateConversationRequest is the payload for opening a conversation
type CreateConversationRequest struct {
	AgentID   *string `json:"agentId,omitempty"`
	LeadID    *string `json:"leadId,omitempty"`
	VisitorID *string `json:"visitorId,omitempty" validate:"omitempty,max=100"`
}

// Validate validates the request payload
func (r *CreateConversationRequest) Validate() error {
	return validate.Struct(r)
}

// CreateMessageRequest is the payload for appending a message
type CreateMessageRequest struct {
	Sender  MessageSender `json:"sender" validate:"required,oneof=visitor agent human"`
	Content string        `json:"content" validate:"required,min=1,max=20000"`
}

// Validate validates the request payload
func (r *CreateMessageRequest) Validate() error {
	return validate.Struct(r)
}

// ListConversationsParams are the filters for listing conversations
type ListConversationsParams struct {
	AccountID string
	AgentID   *string
	Status    *ConversationStatus
	Cursor    *string
	Limit     int
}

// ConversationListResponse is the paginated list envelope
type ConversationListResponse struct {
	Data []Conversation `json:"data"`
	Meta struct {
		HasNextPage bool    `json:"hasNextPage"`
		NextCursor  *string `json:"nextCursor,omitempty"`
	} `json:"meta"`
}
