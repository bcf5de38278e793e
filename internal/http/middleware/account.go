package middleware

import (
	"context"
	"net/http"

	"pilot-api/internal/accounts"
	"pilot-api/internal/auth"
	"pilot-api/internal/http/httperr"
	"pilot-api/internal/observability/logger"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type contextKey string

const accountIDKey contextKey = "account_id"

// AccountMiddleware validates that the authenticated principal may access the
// account named in the URL path. This is the IDOR gate: the account id is
// never trusted from the token, only checked against current database state.
func AccountMiddleware(guard *accounts.Guard) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			log := logger.GetLogger(r.Context())

			accountID := chi.URLParam(r, "accountID")
			if accountID == "" {
				log.Warn(r.Context(), "accountID not found in path",
					logger.Module("http"),
					logger.Action("account_check"),
				)
				httperr.BadRequest400(w, r.Context(), httperr.ErrCodeInvalidAccountID, "account id missing from path")
				return
			}

			authCtx, ok := auth.GetAuthContext(r.Context())
			if !ok {
				log.Error(r.Context(), "auth context not found",
					logger.Module("http"),
					logger.Action("account_check"),
				)
				httperr.Unauthorized401(w, r.Context(), httperr.ErrCodeInvalidToken, "authentication required")
				return
			}

			// Internal services without an acting user are trusted callers
			// (widget backend, scheduler); the account scope still comes from
			// the path and bounds every query they run.
			if authCtx.Type != auth.AuthTypeService || authCtx.ActorID != "" {
				allowed, err := guard.CanAccessAccount(r.Context(), accountID, authCtx.ActorID)
				if err != nil {
					log.Error(r.Context(), "account access check failed",
						logger.Module("http"),
						logger.Action("account_check"),
						zap.Error(err),
					)
					httperr.InternalError(w, r.Context())
					return
				}
				if !allowed {
					log.Warn(r.Context(), "account access denied",
						logger.Module("http"),
						logger.Action("account_check"),
						zap.String("account_id", accountID),
						zap.String("actor_id", authCtx.ActorID),
					)
					httperr.Forbidden403(w, r.Context(), httperr.ErrCodeForbidden, "account access denied")
					return
				}
			}

			span := trace.SpanFromContext(r.Context())
			span.SetAttributes(attribute.String("account_id", accountID))

			ctx := context.WithValue(r.Context(), accountIDKey, accountID)
			ctx = logger.SetAccountIDInContext(ctx, accountID)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetAccountID retrieves the validated account id from context
func GetAccountID(ctx context.Context) (string, bool) {
	accountID, ok := ctx.Value(accountIDKey).(string)
	return accountID, ok
}
