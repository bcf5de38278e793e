package auth

import (
	"github.com/golang-jwt/jwt/v5"
)

// CustomClaims are the JWT claims issued by the dashboard and widget backends.
// The token carries only the principal's identity; account context is always
// resolved from current database state, never trusted from the token.
type CustomClaims struct {
	ActorID string `json:"actorId"`
	jwt.RegisteredClaims
}

// Validate performs additional validation on custom claims
func (c *CustomClaims) Validate() error {
	if c.ActorID == "" {
		return jwt.ErrTokenInvalidClaims
	}
	return nil
}

// AuthType distinguishes end-user JWTs from internal service tokens
type AuthType string

const (
	AuthTypeUser    AuthType = "user"
	AuthTypeService AuthType = "service"
)

// AuthContext is the authenticated identity injected into the request context.
type AuthContext struct {
	ActorID     string
	Type        AuthType
	ServiceName string // set for service-token callers only
	Issuer      string
}
