package main

import (
	"context"
	"fmt"

	"pilot-api/internal/config"
	"pilot-api/internal/database"
	"pilot-api/internal/observability/logger"
	"pilot-api/internal/repo"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Run periodic housekeeping",
	Long: `Expire stale impersonation sessions, purge delivered outbox events past
their retention window, and remove idempotency keys older than 24 hours.`,
	RunE: runCleanup,
}

func init() {
	rootCmd.AddCommand(cleanupCmd)
}

func runCleanup(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logger.New(cfg.OTELServiceName, cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}

	log.Info(ctx, "starting housekeeping")

	pool, err := database.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()

	impersonationRepo := repo.NewImpersonationRepo(pool)
	outboxRepo := repo.NewOutboxRepo(pool)
	idempotencyRepo := repo.NewIdempotencyRepo(pool)

	// Sessions past the 30-minute window are already invisible to resolution;
	// this just flips is_active so the table stays tidy.
	sessionsExpired, err := impersonationRepo.ExpireStale(ctx)
	if err != nil {
		log.Error(ctx, "failed to expire stale impersonation sessions", zap.Error(err))
		return fmt.Errorf("failed to expire stale impersonation sessions: %w", err)
	}

	eventsPurged, err := outboxRepo.PurgeDelivered(ctx)
	if err != nil {
		log.Error(ctx, "failed to purge delivered outbox events", zap.Error(err))
		return fmt.Errorf("failed to purge delivered outbox events: %w", err)
	}

	keysDeleted, err := idempotencyRepo.CleanupExpired(ctx)
	if err != nil {
		log.Error(ctx, "failed to cleanup expired idempotency keys", zap.Error(err))
		return fmt.Errorf("failed to cleanup expired idempotency keys: %w", err)
	}

	log.Info(ctx, "housekeeping completed",
		zap.Int64("impersonation_sessions_expired", sessionsExpired),
		zap.Int64("outbox_events_purged", eventsPurged),
		zap.Int64("idempotency_keys_deleted", keysDeleted),
	)
	fmt.Printf("✓ Cleanup completed: %d sessions expired, %d events purged, %d keys removed\n",
		sessionsExpired, eventsPurged, keysDeleted)

	return nil
}
