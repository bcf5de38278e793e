package main

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pilot-api/internal/accounts"
	"pilot-api/internal/auth"
	"pilot-api/internal/config"
	"pilot-api/internal/database"
	"pilot-api/internal/dispatch"
	"pilot-api/internal/http/handler"
	"pilot-api/internal/observability/logger"
	"pilot-api/internal/ratelimit"
	"pilot-api/internal/repo"
	"pilot-api/internal/service"
	"pilot-api/internal/telemetry"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the API server",
	Long:  `Start the Pilot API HTTP server with all middlewares and observability`,
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize logger
	log, err := logger.New(cfg.OTELServiceName, cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}

	log.Info(ctx, "starting pilot api",
		zap.String("version", "1.0.0"),
		zap.String("service", cfg.OTELServiceName),
	)

	// Run database migrations
	log.Info(ctx, "running database migrations")
	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	log.Info(ctx, "migrations completed successfully")

	// Initialize telemetry strictly as opt-in
	var tracerProvider *sdktrace.TracerProvider
	var meterProvider *sdkmetric.MeterProvider
	var metrics *telemetry.Metrics

	if cfg.TelemetryEnabled() {
		log.Info(ctx, "initializing telemetry", zap.String("endpoint", cfg.OTELExporterEndpoint))

		tp, err := telemetry.InitTracer(ctx, cfg.OTELServiceName, cfg.OTELExporterEndpoint, cfg.OTELSamplingRatio)
		if err != nil {
			log.Warn(ctx, "failed to initialize tracer, continuing without tracing", zap.Error(err))
		} else {
			tracerProvider = tp
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
					log.Error(shutdownCtx, "failed to shutdown tracer provider", zap.Error(err))
				}
			}()
		}

		mp, m, err := telemetry.InitMetrics(ctx, cfg.OTELServiceName, cfg.OTELExporterEndpoint)
		if err != nil {
			log.Warn(ctx, "failed to initialize metrics, continuing without metrics", zap.Error(err))
		} else {
			meterProvider = mp
			metrics = m
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := meterProvider.Shutdown(shutdownCtx); err != nil {
					log.Error(shutdownCtx, "failed to shutdown meter provider", zap.Error(err))
				}
			}()
		}

		log.Info(ctx, "telemetry initialized", zap.Bool("tracing", tracerProvider != nil), zap.Bool("metrics", metrics != nil))
	} else {
		log.Info(ctx, "telemetry disabled (opt-in only or missing endpoint)")
	}

	// Connect to database
	log.Info(ctx, "connecting to database")
	pool, err := database.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()
	log.Info(ctx, "database connected")

	// Connect to Redis
	log.Info(ctx, "connecting to redis")
	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	redisClient := redis.NewClient(redisOpts)
	defer redisClient.Close()

	if err := redisClient.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}
	log.Info(ctx, "redis connected")

	// Initialize JWT key store and resolver
	log.Info(ctx, "initializing JWT authentication")
	keyStore := auth.NewKeyStore()

	// JWT_HS256_SECRET must be Base64-encoded and decode to at least 256 bits
	secretBytes, err := base64.StdEncoding.DecodeString(cfg.JWTHS256Secret)
	if err != nil {
		return fmt.Errorf("JWT_HS256_SECRET must be valid Base64-encoded: %w", err)
	}
	if len(secretBytes) < 32 {
		return fmt.Errorf("JWT_HS256_SECRET decoded bytes must be at least 32 bytes (256 bits), got %d bytes", len(secretBytes))
	}

	allowedIssuers := cfg.GetAllowedIssuers()
	if len(allowedIssuers) == 0 {
		return fmt.Errorf("JWT_ALLOWED_ISSUERS must contain at least one valid issuer")
	}

	// Same HS256 secret for every first-party issuer
	for _, issuer := range allowedIssuers {
		keyStore.LoadHS256Key(issuer, "v1", secretBytes)
	}

	const widgetIssuer = "pilot-widget-backend"

	// RS256 key for the widget backend issuer (if configured)
	if cfg.JWTPublicKeyWidget != "" {
		if err := keyStore.LoadRS256Key(widgetIssuer, "v1", cfg.JWTPublicKeyWidget); err != nil {
			return fmt.Errorf("failed to load widget public key: %w", err)
		}
	}

	clockSkew := time.Duration(cfg.JWTClockSkewSeconds) * time.Second

	resolver := auth.NewKeyResolver(allowedIssuers, []string{cfg.JWTAudience})

	for _, issuer := range allowedIssuers {
		hs256Validator := auth.NewHS256Validator(keyStore, issuer, clockSkew)
		resolver.RegisterValidator(issuer, hs256Validator)
	}

	if cfg.JWTPublicKeyWidget != "" {
		rs256Validator := auth.NewRS256Validator(keyStore, widgetIssuer, clockSkew)
		resolver.RegisterValidator(widgetIssuer, rs256Validator)
		hasWidgetIssuer := false
		for _, issuer := range allowedIssuers {
			if issuer == widgetIssuer {
				hasWidgetIssuer = true
				break
			}
		}
		if !hasWidgetIssuer {
			allowedIssuers = append(allowedIssuers, widgetIssuer)
		}
	}

	log.Info(ctx, "JWT authentication initialized",
		zap.Strings("allowed_issuers", allowedIssuers),
		zap.Int("clock_skew_seconds", cfg.JWTClockSkewSeconds),
	)

	// Service tokens for trusted internal callers
	serviceTokens := auth.NewServiceTokenStore()
	if cfg.ServiceTokenWidget != "" {
		serviceTokens.RegisterToken(cfg.ServiceTokenWidget, "widget-backend")
		log.Info(ctx, "service token registered", zap.String("client", "widget-backend"))
	}
	if cfg.ServiceTokenScheduler != "" {
		serviceTokens.RegisterToken(cfg.ServiceTokenScheduler, "scheduler")
		log.Info(ctx, "service token registered", zap.String("client", "scheduler"))
	}

	// Initialize repositories
	idempotencyRepo := repo.NewIdempotencyRepo(pool)
	membershipRepo := repo.NewMembershipRepo(pool)
	subscriptionRepo := repo.NewSubscriptionRepo(pool)
	platformRoleRepo := repo.NewPlatformRoleRepo(pool)
	impersonationRepo := repo.NewImpersonationRepo(pool)
	invitationRepo := repo.NewInvitationRepo(pool)
	profileRepo := repo.NewProfileRepo(pool)
	auditRepo := repo.NewAuditRepo(pool)
	outboxRepo := repo.NewOutboxRepo(pool)
	leadRepo := repo.NewLeadRepository(pool)
	agentRepo := repo.NewAgentRepository(pool)
	conversationRepo := repo.NewConversationRepository(pool)
	apiKeyRepo := repo.NewAPIKeyRepository(pool)
	webhookRepo := repo.NewWebhookRepository(pool)
	contentRepo := repo.NewContentRepo(pool)
	accountRepo := repo.NewAccountRepo(pool)

	// Account resolution and access guard
	accountResolver := accounts.NewResolver(subscriptionRepo, membershipRepo, impersonationRepo)
	guard := accounts.NewGuard(membershipRepo, platformRoleRepo, impersonationRepo)

	// Initialize services
	leadService := service.NewLeadService(leadRepo, auditRepo, outboxRepo, guard, log)
	agentService := service.NewAgentService(agentRepo, auditRepo, guard, log)
	conversationService := service.NewConversationService(conversationRepo, outboxRepo, guard, log)
	teamService := service.NewTeamService(membershipRepo, invitationRepo, auditRepo, guard, log)
	apiKeyService := service.NewAPIKeyService(apiKeyRepo, auditRepo, guard, log)
	webhookService := service.NewWebhookService(webhookRepo, auditRepo, guard, log)
	adminService := service.NewAdminService(impersonationRepo, platformRoleRepo, accountRepo, auditRepo, guard, log)
	contentService := service.NewContentService(contentRepo, auditRepo, guard, log)
	meService := service.NewMeService(accountResolver, guard, profileRepo)

	// Initialize handlers
	leadHandler := handler.NewLeadHandler(leadService)
	agentHandler := handler.NewAgentHandler(agentService)
	conversationHandler := handler.NewConversationHandler(conversationService)
	teamHandler := handler.NewTeamHandler(teamService)
	apiKeyHandler := handler.NewAPIKeyHandler(apiKeyService)
	webhookHandler := handler.NewWebhookHandler(webhookService)
	adminHandler := handler.NewAdminHandler(adminService)
	contentHandler := handler.NewContentHandler(contentService)
	meHandler := handler.NewMeHandler(meService)

	// Initialize rate limiter
	var rateLimitCounter metric.Int64Counter
	if metrics != nil {
		rateLimitCounter = metrics.RateLimitRejections
	}
	rateLimiter := ratelimit.NewRedisRateLimiter(redisClient, rateLimitCounter)

	// Start the outbox dispatcher when an automation endpoint is configured
	dispatchCtx, stopDispatch := context.WithCancel(ctx)
	defer stopDispatch()
	if cfg.DispatchEnabled() {
		dispatcher := dispatch.New(outboxRepo, log, dispatch.Options{
			Endpoint:    cfg.AutomationEndpoint,
			Secret:      cfg.AutomationSecret,
			Interval:    time.Duration(cfg.DispatchIntervalSeconds) * time.Second,
			BatchSize:   cfg.DispatchBatchSize,
			MaxAttempts: cfg.DispatchMaxAttempts,
		})
		go dispatcher.Run(dispatchCtx)
	} else {
		log.Info(ctx, "outbox dispatch disabled (no automation endpoint)")
	}

	// Build router
	r := buildRouter(RouterDeps{
		Cfg:                 cfg,
		Log:                 log,
		Resolver:            resolver,
		ServiceTokens:       serviceTokens,
		Guard:               guard,
		IdempotencyRepo:     idempotencyRepo,
		RateLimiter:         rateLimiter,
		Metrics:             metrics,
		Pool:                pool,
		LeadHandler:         leadHandler,
		AgentHandler:        agentHandler,
		ConversationHandler: conversationHandler,
		TeamHandler:         teamHandler,
		APIKeyHandler:       apiKeyHandler,
		WebhookHandler:      webhookHandler,
		AdminHandler:        adminHandler,
		ContentHandler:      contentHandler,
		MeHandler:           meHandler,
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info(ctx, "starting http server", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error(ctx, "failed to start server", zap.Error(err))
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	log.Info(ctx, "shutdown signal received, starting graceful shutdown")

	// Stop the dispatcher before draining HTTP connections
	stopDispatch()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 25*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error(shutdownCtx, "server shutdown error", zap.Error(err))
	}

	log.Info(shutdownCtx, "shutdown complete")
	return nil
}
