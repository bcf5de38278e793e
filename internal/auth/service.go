package auth

import "strings"

// ServiceTokenStore stores shared-secret tokens for trusted internal callers
// (widget backend, scheduler). These callers skip JWT validation entirely.
type ServiceTokenStore struct {
	tokens map[string]string // token -> service name
}

// NewServiceTokenStore creates a new ServiceTokenStore
func NewServiceTokenStore() *ServiceTokenStore {
	return &ServiceTokenStore{
		tokens: make(map[string]string),
	}
}

// RegisterToken registers a token for a service
func (s *ServiceTokenStore) RegisterToken(token, serviceName string) {
	if token != "" {
		s.tokens[token] = serviceName
	}
}

// ValidateToken validates a service token and returns the service name
func (s *ServiceTokenStore) ValidateToken(token string) (string, bool) {
	service, ok := s.tokens[token]
	return service, ok
}

// isJWTToken checks if a token looks like a JWT (starts with "eyJ" and has two dots)
func isJWTToken(token string) bool {
	return strings.HasPrefix(token, "eyJ") && strings.Count(token, ".") == 2
}

// maskToken returns a short prefix of a token safe for logging
func maskToken(token string) string {
	if len(token) <= 8 {
		return "***"
	}
	return token[:8] + "..."
}
