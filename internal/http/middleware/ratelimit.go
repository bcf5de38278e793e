package middleware

import (
	"fmt"
	"net/http"
	"time"

	"pilot-api/internal/http/httperr"
	"pilot-api/internal/observability/logger"
	"pilot-api/internal/ratelimit"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// RateLimitMiddleware enforces the per-account request budget. Runs after
// AccountMiddleware so the validated account id is in context.
func RateLimitMiddleware(limiter *ratelimit.RedisRateLimiter, limitPerMin int) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			log := logger.GetLogger(r.Context())

			accountID, ok := GetAccountID(r.Context())
			if !ok {
				log.Error(r.Context(), "account_id not found in context for rate limiting",
					logger.Module("http"),
					logger.Action("rate_limit"),
				)
				httperr.InternalError(w, r.Context())
				return
			}

			allowed, remaining, err := limiter.AllowRequest(r.Context(), accountID, limitPerMin, 60)
			if err != nil {
				log.Error(r.Context(), "rate limit check failed",
					logger.Module("http"),
					logger.Action("rate_limit"),
					zap.Error(err),
				)
				httperr.InternalError(w, r.Context())
				return
			}

			w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", limitPerMin))
			w.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", remaining))
			w.Header().Set("X-RateLimit-Reset", fmt.Sprintf("%d", time.Now().Add(60*time.Second).Unix()))

			if !allowed {
				span := trace.SpanFromContext(r.Context())
				span.AddEvent("rate_limit_exceeded")

				log.Warn(r.Context(), "rate limit exceeded",
					logger.Module("http"),
					logger.Action("rate_limit"),
					zap.String("account_id", accountID),
					zap.Int("limit", limitPerMin),
				)

				w.Header().Set("Retry-After", "60")
				httperr.TooManyRequests429(w, r.Context(), "rate limit exceeded")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
