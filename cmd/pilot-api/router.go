package main

import (
	"context"
	"crypto/subtle"
	"net/http"
	"time"

	"pilot-api/internal/accounts"
	"pilot-api/internal/auth"
	"pilot-api/internal/config"
	"pilot-api/internal/http/docs"
	"pilot-api/internal/http/handler"
	"pilot-api/internal/http/middleware"
	"pilot-api/internal/observability/logger"
	"pilot-api/internal/ratelimit"
	"pilot-api/internal/repo"
	"pilot-api/internal/telemetry"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// RouterDeps holds everything buildRouter needs. Handlers left nil have their
// routes skipped, which keeps partial routers cheap to build in tests.
type RouterDeps struct {
	Cfg             *config.Config
	Log             *logger.Logger
	Resolver        *auth.KeyResolver
	ServiceTokens   *auth.ServiceTokenStore
	Guard           *accounts.Guard
	IdempotencyRepo *repo.IdempotencyRepo
	RateLimiter     *ratelimit.RedisRateLimiter
	Metrics         *telemetry.Metrics
	Pool            *pgxpool.Pool // readiness check

	// Handlers
	LeadHandler         *handler.LeadHandler
	AgentHandler        *handler.AgentHandler
	ConversationHandler *handler.ConversationHandler
	TeamHandler         *handler.TeamHandler
	APIKeyHandler       *handler.APIKeyHandler
	WebhookHandler      *handler.WebhookHandler
	AdminHandler        *handler.AdminHandler
	ContentHandler      *handler.ContentHandler
	MeHandler           *handler.MeHandler
}

// buildRouter assembles the chi.Router with all middlewares and routes.
func buildRouter(deps RouterDeps) chi.Router {
	r := chi.NewRouter()

	// Global middlewares
	r.Use(middleware.RequestIDMiddleware)
	r.Use(middleware.RequestLoggingMiddleware(deps.Log))
	r.Use(middleware.RecoveryMiddleware(deps.Log))
	r.Use(telemetry.OTelMiddleware(deps.Cfg.OTELServiceName))
	if deps.Metrics != nil {
		r.Use(telemetry.MetricsMiddleware(deps.Metrics))
	}

	// Public routes
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Get("/ready", func(w http.ResponseWriter, r *http.Request) {
		if deps.Pool == nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"status":"ready","note":"pool is nil"}`))
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := deps.Pool.Ping(ctx); err != nil {
			deps.Log.Error(ctx, "readiness check failed: database unavailable", zap.Error(err))
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"error","message":"database unavailable"}`))
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ready"}`))
	})

	r.Get("/metrics", metricsHandler(deps.Cfg.MetricsToken).ServeHTTP)
	r.Get("/openapi.yaml", docs.OpenAPIHandler().ServeHTTP)
	r.Get("/docs", docs.ScalarDocsHandler("/openapi.yaml").ServeHTTP)

	// Help center is readable by anyone; only published content is served here
	if deps.ContentHandler != nil {
		r.Route("/v1/help-center", func(r chi.Router) {
			r.Get("/categories", deps.ContentHandler.PublicCategories)
			r.Get("/categories/{categoryID}/articles", deps.ContentHandler.PublicArticles)
			r.Get("/articles/{slug}", deps.ContentHandler.PublicArticleBySlug)
		})
	}

	// Authenticated personal surface (no account scope required)
	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware(deps.Resolver, deps.ServiceTokens))

		if deps.MeHandler != nil {
			r.Get("/v1/me", deps.MeHandler.GetMe)
			r.Put("/v1/me/profile", deps.MeHandler.UpdateProfile)
		}

		// The invite token is the authorization; no prior membership needed
		if deps.TeamHandler != nil {
			r.Post("/v1/team/invitations/accept", deps.TeamHandler.AcceptInvitation)
		}

		// Platform operator routes; each handler enforces its own capability
		r.Route("/v1/admin", func(r chi.Router) {
			if deps.AdminHandler != nil {
				r.Route("/impersonation", func(r chi.Router) {
					r.Post("/", deps.AdminHandler.StartImpersonation)
					r.Delete("/", deps.AdminHandler.StopImpersonation)
					r.Get("/", deps.AdminHandler.GetImpersonation)
				})
				r.Get("/audit-log", deps.AdminHandler.ListAuditLog)
				r.Delete("/accounts/{accountID}", deps.AdminHandler.DeleteAccount)
				r.Route("/roles/{userID}", func(r chi.Router) {
					r.Get("/", deps.AdminHandler.GetUserRole)
					r.Put("/", deps.AdminHandler.SetUserRole)
				})
			}

			if deps.ContentHandler != nil {
				r.Route("/content", func(r chi.Router) {
					r.Route("/categories", func(r chi.Router) {
						r.Get("/", deps.ContentHandler.ListCategories)
						r.Put("/", deps.ContentHandler.UpsertCategory)
						r.Route("/{categoryID}", func(r chi.Router) {
							r.Delete("/", deps.ContentHandler.DeleteCategory)
							r.Get("/articles", deps.ContentHandler.ListArticles)
						})
					})
					r.Route("/articles", func(r chi.Router) {
						r.Put("/", deps.ContentHandler.UpsertArticle)
						r.Delete("/{articleID}", deps.ContentHandler.DeleteArticle)
					})
					r.Route("/templates", func(r chi.Router) {
						r.Get("/", deps.ContentHandler.ListTemplates)
						r.Put("/", deps.ContentHandler.UpsertTemplate)
					})
				})
			}
		})
	})

	// Account-scoped routes. The account id comes from the path, never from
	// the token; AccountMiddleware verifies the actor against the database on
	// every request.
	r.Route("/v1/accounts/{accountID}", func(r chi.Router) {
		r.Use(auth.Middleware(deps.Resolver, deps.ServiceTokens))
		r.Use(middleware.AccountMiddleware(deps.Guard))
		r.Use(middleware.RateLimitMiddleware(deps.RateLimiter, deps.Cfg.RateLimitPerAccountPerMin))

		idem := middleware.IdempotencyMiddleware(deps.IdempotencyRepo)

		// Leads
		if deps.LeadHandler != nil {
			r.Route("/leads", func(r chi.Router) {
				r.Get("/", deps.LeadHandler.ListLeads)
				r.With(idem).Post("/", deps.LeadHandler.CreateLead)
				r.Route("/{leadID}", func(r chi.Router) {
					r.Get("/", deps.LeadHandler.GetLead)
					r.With(idem).Patch("/", deps.LeadHandler.UpdateLead)
					r.Delete("/", deps.LeadHandler.DeleteLead)
				})
			})
		}

		// Agents
		if deps.AgentHandler != nil {
			r.Route("/agents", func(r chi.Router) {
				r.Get("/", deps.AgentHandler.ListAgents)
				r.With(idem).Post("/", deps.AgentHandler.CreateAgent)
				r.Route("/{agentID}", func(r chi.Router) {
					r.Get("/", deps.AgentHandler.GetAgent)
					r.With(idem).Patch("/", deps.AgentHandler.UpdateAgent)
					r.Delete("/", deps.AgentHandler.DeleteAgent)
				})
			})
		}

		// Conversations
		if deps.ConversationHandler != nil {
			r.Route("/conversations", func(r chi.Router) {
				r.Get("/", deps.ConversationHandler.ListConversations)
				r.With(idem).Post("/", deps.ConversationHandler.CreateConversation)
				r.Route("/{conversationID}", func(r chi.Router) {
					r.Get("/", deps.ConversationHandler.GetConversation)
					r.With(idem).Patch("/", deps.ConversationHandler.UpdateConversationStatus)
					r.Route("/messages", func(r chi.Router) {
						r.Get("/", deps.ConversationHandler.ListMessages)
						r.With(idem).Post("/", deps.ConversationHandler.AppendMessage)
					})
				})
			})
		}

		// Team
		if deps.TeamHandler != nil {
			r.Route("/team", func(r chi.Router) {
				r.Get("/", deps.TeamHandler.ListMembers)
				r.Route("/invitations", func(r chi.Router) {
					r.Get("/", deps.TeamHandler.ListInvitations)
					r.With(idem).Post("/", deps.TeamHandler.Invite)
				})
				r.Route("/{memberID}", func(r chi.Router) {
					r.With(idem).Patch("/", deps.TeamHandler.UpdateMemberRole)
					r.Delete("/", deps.TeamHandler.RemoveMember)
				})
			})
		}

		// API keys
		if deps.APIKeyHandler != nil {
			r.Route("/api-keys", func(r chi.Router) {
				r.Get("/", deps.APIKeyHandler.ListKeys)
				r.With(idem).Post("/", deps.APIKeyHandler.CreateKey)
				r.Delete("/{keyID}", deps.APIKeyHandler.RevokeKey)
			})
		}

		// Webhooks
		if deps.WebhookHandler != nil {
			r.Route("/webhooks", func(r chi.Router) {
				r.Get("/", deps.WebhookHandler.ListWebhooks)
				r.With(idem).Post("/", deps.WebhookHandler.CreateWebhook)
				r.Route("/{webhookID}", func(r chi.Router) {
					r.Get("/", deps.WebhookHandler.GetWebhook)
					r.With(idem).Patch("/", deps.WebhookHandler.UpdateWebhook)
					r.Delete("/", deps.WebhookHandler.DeleteWebhook)
				})
			})
		}
	})

	return r
}

// metricsHandler exposes the Prometheus registry, optionally gated behind a
// shared token passed as X-Metrics-Token or a Bearer Authorization header.
func metricsHandler(token string) http.Handler {
	prom := promhttp.Handler()
	if token == "" {
		return prom
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		provided := r.Header.Get("X-Metrics-Token")
		if provided == "" {
			authz := r.Header.Get("Authorization")
			if len(authz) > 7 && authz[:7] == "Bearer " {
				provided = authz[7:]
			}
		}

		if subtle.ConstantTimeCompare([]byte(provided), []byte(token)) != 1 {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"unauthorized"}`))
			return
		}

		prom.ServeHTTP(w, r)
	})
}
