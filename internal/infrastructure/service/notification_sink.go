// Package service contains infrastructure-side adapters for application
// ports that are not backed by a database.
package service

import (
	"context"
	"time"

	"github.com/speakably/speakably-backend/internal/domain/notification"
	"github.com/speakably/speakably-backend/pkg/logger"
	"github.com/speakably/speakably-backend/pkg/retry"
)

// LogSink implements notification.Sink by logging the delivery. It
// stands in for a push gateway; the notification row itself is already
// persisted, so in-app reads work regardless of the sink.
type LogSink struct {
	log *logger.Logger
}

func NewLogSink(log *logger.Logger) *LogSink {
	return &LogSink{log: log.With(logger.String("component", "notification_sink"))}
}

func (s *LogSink) Deliver(ctx context.Context, n *notification.Notification) error {
	s.log.Info("notification delivered",
		logger.String("notification_id", n.ID),
		logger.String("user_id", n.UserID),
		logger.String("type", string(n.Type)),
	)
	return nil
}

// RetrySink decorates a notification.Sink with exponential backoff.
// Push gateways fail transiently; a couple of retries absorbs most of it.
type RetrySink struct {
	inner notification.Sink
	cfg   retry.Config
	log   *logger.Logger
}

func NewRetrySink(inner notification.Sink, log *logger.Logger) *RetrySink {
	cfg := retry.DefaultConfig()
	cfg.MaxAttempts = 3
	cfg.InitialDelay = 200 * time.Millisecond
	cfg.OnRetry = func(attempt int, err error, _ time.Duration) {
		log.Warn("notification delivery retry",
			logger.Int("attempt", attempt),
			logger.Err(err),
		)
	}

	return &RetrySink{inner: inner, cfg: cfg, log: log}
}

func (s *RetrySink) Deliver(ctx context.Context, n *notification.Notification) error {
	return retry.Do(ctx, s.cfg, func(ctx context.Context) error {
		return s.inner.Deliver(ctx, n)
	})
}
