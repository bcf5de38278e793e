package dispatch

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"time"

	"pilot-api/internal/domain"
	"pilot-api/internal/http/client"
	"pilot-api/internal/observability/logger"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

// SignatureHeader carries the HMAC-SHA256 hex digest of the request body,
// computed with the shared automation secret.
const SignatureHeader = "X-Pilot-Signature"

var (
	eventsDelivered = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pilot_dispatch_events_delivered_total",
		Help: "Number of outbox events delivered to the automation endpoint",
	})
	eventsFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pilot_dispatch_events_failed_total",
		Help: "Number of outbox delivery attempts that failed",
	})
	eventsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pilot_dispatch_events_dropped_total",
		Help: "Number of outbox events abandoned after exhausting attempts",
	})
)

// OutboxStore is the persistence surface the dispatcher drains
type OutboxStore interface {
	DuePending(ctx context.Context, limit int) ([]domain.OutboxEvent, error)
	MarkDelivered(ctx context.Context, eventID int64) error
	MarkFailed(ctx context.Context, eventID int64, lastError string) error
}

// Options tune the dispatcher loop
type Options struct {
	Endpoint    string
	Secret      string
	Interval    time.Duration
	BatchSize   int
	MaxAttempts int
}

// Dispatcher drains the event outbox and POSTs change events to the
// automation endpoint. Delivery is at-least-once and unordered; the consumer
// deduplicates. Failures stay inside the loop: nothing here propagates back
// into the request path that enqueued the event.
type Dispatcher struct {
	store      OutboxStore
	httpClient *http.Client
	log        *logger.Logger
	opts       Options
}

// New creates a Dispatcher
func New(store OutboxStore, log *logger.Logger, opts Options) *Dispatcher {
	if opts.Interval <= 0 {
		opts.Interval = 5 * time.Second
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 50
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 10
	}

	return &Dispatcher{
		store:      store,
		httpClient: client.NewExternalHTTPClient(),
		log:        log,
		opts:       opts,
	}
}

// Run drains the outbox on a ticker until the context is cancelled
func (d *Dispatcher) Run(ctx context.Context) {
	ticker := time.NewTicker(d.opts.Interval)
	defer ticker.Stop()

	d.log.Info(ctx, "dispatcher started",
		logger.Module("dispatch"),
		logger.Action("run"),
		zap.Duration("interval", d.opts.Interval),
		zap.Int("batch_size", d.opts.BatchSize),
	)

	for {
		select {
		case <-ctx.Done():
			d.log.Info(ctx, "dispatcher stopped",
				logger.Module("dispatch"),
				logger.Action("run"),
			)
			return
		case <-ticker.C:
			d.DrainOnce(ctx)
		}
	}
}

// DrainOnce claims one batch of due events and attempts delivery
func (d *Dispatcher) DrainOnce(ctx context.Context) {
	events, err := d.store.DuePending(ctx, d.opts.BatchSize)
	if err != nil {
		d.log.Error(ctx, "failed to claim pending events",
			logger.Module("dispatch"),
			logger.Action("drain"),
			zap.Error(err),
		)
		return
	}

	for _, event := range events {
		if event.Attempts >= d.opts.MaxAttempts {
			eventsDropped.Inc()
			d.log.Warn(ctx, "abandoning event after max attempts",
				logger.Module("dispatch"),
				logger.Action("drain"),
				zap.Int64("event_id", event.ID),
				zap.Int("attempts", event.Attempts),
			)
			// Delivered-with-error keeps the row out of future scans
			if err := d.store.MarkDelivered(ctx, event.ID); err != nil {
				d.log.Error(ctx, "failed to retire abandoned event",
					logger.Module("dispatch"),
					logger.Action("drain"),
					zap.Int64("event_id", event.ID),
					zap.Error(err),
				)
			}
			continue
		}

		if err := d.deliver(ctx, &event); err != nil {
			eventsFailed.Inc()
			d.log.Warn(ctx, "event delivery failed",
				logger.Module("dispatch"),
				logger.Action("deliver"),
				zap.Int64("event_id", event.ID),
				zap.Int("attempts", event.Attempts+1),
				zap.Error(err),
			)
			if markErr := d.store.MarkFailed(ctx, event.ID, err.Error()); markErr != nil {
				d.log.Error(ctx, "failed to record delivery failure",
					logger.Module("dispatch"),
					logger.Action("deliver"),
					zap.Int64("event_id", event.ID),
					zap.Error(markErr),
				)
			}
			continue
		}

		eventsDelivered.Inc()
		if err := d.store.MarkDelivered(ctx, event.ID); err != nil {
			// The event will be redelivered; at-least-once makes that safe
			d.log.Error(ctx, "failed to mark event delivered",
				logger.Module("dispatch"),
				logger.Action("deliver"),
				zap.Int64("event_id", event.ID),
				zap.Error(err),
			)
		}
	}
}

// deliver POSTs one event payload, signed with the shared secret
func (d *Dispatcher) deliver(ctx context.Context, event *domain.OutboxEvent) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.opts.Endpoint, bytes.NewReader(event.Payload))
	if err != nil {
		return fmt.Errorf("create dispatch request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(SignatureHeader, Sign(d.opts.Secret, event.Payload))
	req.Header.Set("X-Pilot-Account-Id", event.AccountID)

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("dispatch request failed: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("automation endpoint returned status %d", resp.StatusCode)
	}

	return nil
}

// Sign computes the hex HMAC-SHA256 digest of the payload
func Sign(secret string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature checks a received digest against the shared secret in
// constant time. Exposed for consumers validating inbound deliveries.
func VerifySignature(secret string, payload []byte, signature string) bool {
	expected, err := hex.DecodeString(signature)
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hmac.Equal(mac.Sum(nil), expected)
}
