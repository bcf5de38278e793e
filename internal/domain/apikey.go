package domain

import "time"

// APIKey is a programmatic credential scoped to an account.
// Only the SHA-256 hash is stored; the plaintext is returned exactly once at
// creation time.
type APIKey struct {
	ID         string     `json:"id"`
	UserID     string     `json:"userId"`
	Name       string     `json:"name"`
	KeyPrefix  string     `json:"keyPrefix"`
	LastUsedAt *time.Time `json:"lastUsedAt,omitempty"`
	RevokedAt  *time.Time `json:"revokedAt,omitempty"`
	CreatedBy  string     `json:"createdBy"`
	CreatedAt  time.Time  `json:"createdAt"`
}

// IsRevoked reports whether the key has been revoked
func (k *APIKey) IsRevoked() bool {
	return k.RevokedAt != nil
}

// CreateAPIKeyRequest is the payload for minting a new API key
type CreateAPIKeyRequest struct {
	Name string `json:"name" validate:"required,min=1,max=120"`
}

// Validate validates the request payload
func (r *CreateAPIKeyRequest) Validate() error {
	return validate.Struct(r)
}

// CreatedAPIKey carries the one-time plaintext alongside the stored record
type CreatedAPIKey struct {
	APIKey
	Plaintext string `json:"key"`
}
