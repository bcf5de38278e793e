package auth

import (
	"context"
	"net/http"
	"strings"

	"pilot-api/internal/http/httperr"
	"pilot-api/internal/observability/logger"

	"go.uber.org/zap"
)

type contextKey string

const (
	claimsContextKey contextKey = "claims"
	authContextKey   contextKey = "auth_context"
)

// mapAuthErrorToCode maps auth failure reasons to HTTP error codes
func mapAuthErrorToCode(authErr *AuthError) string {
	if authErr == nil {
		return httperr.ErrCodeInvalidToken
	}

	switch authErr.Reason {
	case AuthFailureMissingAuthorization:
		return httperr.ErrCodeMissingAuthorization
	case AuthFailureInvalidScheme:
		return httperr.ErrCodeInvalidScheme
	case AuthFailureInvalidSignature:
		return httperr.ErrCodeInvalidSignature
	case AuthFailureTokenExpired:
		return httperr.ErrCodeTokenExpired
	case AuthFailureInvalidIssuer:
		return httperr.ErrCodeInvalidIssuer
	case AuthFailureInvalidAudience:
		return httperr.ErrCodeInvalidAudience
	default:
		return httperr.ErrCodeInvalidToken
	}
}

// Middleware validates both end-user JWTs and internal service tokens.
// Successful requests carry an AuthContext in their context.
func Middleware(resolver *KeyResolver, serviceTokens *ServiceTokenStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			log := logger.GetLogger(r.Context())

			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				log.Warn(r.Context(), "authentication failed",
					zap.String("auth_failure_reason", string(AuthFailureMissingAuthorization)),
					zap.String("remote_addr", r.RemoteAddr),
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
				)
				httperr.Unauthorized401(w, r.Context(), httperr.ErrCodeMissingAuthorization, "missing authorization header")
				return
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				log.Warn(r.Context(), "authentication failed",
					zap.String("auth_failure_reason", string(AuthFailureInvalidScheme)),
					zap.String("remote_addr", r.RemoteAddr),
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
				)
				httperr.Unauthorized401(w, r.Context(), httperr.ErrCodeInvalidScheme, "invalid authorization scheme, expected Bearer")
				return
			}

			tokenString := parts[1]
			var ctx context.Context

			if isJWTToken(tokenString) {
				ctx = handleJWTAuth(r.Context(), resolver, tokenString, log, w, r)
				if ctx == nil {
					return // error already written
				}
			} else {
				ctx = handleServiceAuth(r.Context(), serviceTokens, tokenString, r, log, w)
				if ctx == nil {
					return // error already written
				}
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// handleJWTAuth handles end-user JWT validation
func handleJWTAuth(ctx context.Context, resolver *KeyResolver, tokenString string, log *logger.Logger, w http.ResponseWriter, r *http.Request) context.Context {
	claims, err := resolver.Resolve(ctx, tokenString)
	if err != nil {
		authErr, ok := IsAuthError(err)
		var failureReason string
		if ok {
			failureReason = string(authErr.Reason)
		} else {
			failureReason = string(AuthFailureUnknown)
		}

		log.Warn(ctx, "authentication failed",
			zap.String("auth_failure_reason", failureReason),
			zap.String("auth_type", "jwt"),
			zap.String("token_prefix", maskToken(tokenString)),
			zap.String("remote_addr", r.RemoteAddr),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		errorCode := mapAuthErrorToCode(authErr)
		httperr.Unauthorized401(w, ctx, errorCode, "invalid or expired token")
		return nil
	}

	authCtx := &AuthContext{
		ActorID: claims.ActorID,
		Type:    AuthTypeUser,
		Issuer:  claims.Issuer,
	}

	ctx = context.WithValue(ctx, claimsContextKey, claims)
	ctx = context.WithValue(ctx, authContextKey, authCtx)
	ctx = logger.SetUserIDInContext(ctx, claims.ActorID)

	log.Info(ctx, "authenticated request",
		zap.String("auth_type", "jwt"),
		zap.String("actor_id", claims.ActorID),
		zap.String("issuer", claims.Issuer),
	)

	return ctx
}

// handleServiceAuth handles internal service token validation
func handleServiceAuth(ctx context.Context, serviceTokens *ServiceTokenStore, tokenString string, r *http.Request, log *logger.Logger, w http.ResponseWriter) context.Context {
	serviceName, ok := serviceTokens.ValidateToken(tokenString)
	if !ok {
		log.Warn(ctx, "authentication failed",
			zap.String("auth_failure_reason", string(AuthFailureInvalidSignature)),
			zap.String("auth_type", "service"),
			zap.String("token_prefix", maskToken(tokenString)),
			zap.String("remote_addr", r.RemoteAddr),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
		)
		httperr.Unauthorized401(w, ctx, httperr.ErrCodeInvalidSignature, "invalid service token")
		return nil
	}

	// Service callers act on behalf of a user named in a header; the header
	// is optional for endpoints that do not need a principal.
	actorID := strings.TrimSpace(r.Header.Get("X-Actor-Id"))

	authCtx := &AuthContext{
		ActorID:     actorID,
		Type:        AuthTypeService,
		ServiceName: serviceName,
	}

	ctx = context.WithValue(ctx, authContextKey, authCtx)
	if actorID != "" {
		ctx = logger.SetUserIDInContext(ctx, actorID)
	}

	logFields := []logger.Field{
		zap.String("auth_type", "service"),
		zap.String("service", serviceName),
	}
	if actorID != "" {
		logFields = append(logFields, zap.String("actor_id", actorID))
	}
	log.Info(ctx, "authenticated request", logFields...)

	return ctx
}

// GetClaims retrieves claims from context
func GetClaims(ctx context.Context) (*CustomClaims, bool) {
	claims, ok := ctx.Value(claimsContextKey).(*CustomClaims)
	return claims, ok
}

// GetAuthContext retrieves the authenticated identity from context
func GetAuthContext(ctx context.Context) (*AuthContext, bool) {
	authCtx, ok := ctx.Value(authContextKey).(*AuthContext)
	return authCtx, ok
}
