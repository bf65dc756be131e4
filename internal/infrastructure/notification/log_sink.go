package notification

import (
	"context"

	"github.com/stockflow/backend/internal/domain/notification"
	"github.com/stockflow/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// LogSink writes every delivery to the structured log. It is always enabled.
type LogSink struct {
	logger *zap.Logger
}

// NewLogSink creates a LogSink
func NewLogSink(log *zap.Logger) *LogSink {
	return &LogSink{logger: log.Named("notifications")}
}

// Name implements Sink
func (s *LogSink) Name() string { return "log" }

// Deliver implements Sink
func (s *LogSink) Deliver(ctx context.Context, deliveries []notification.Delivery) error {
	log := logger.WithLogger(ctx, s.logger)
	for _, d := range deliveries {
		log.Info("Notification",
			zap.String("notification_id", d.ID.String()),
			zap.String("recipient_id", d.RecipientID.String()),
			zap.String("type", string(d.Type)),
			zap.String("entity_type", d.EntityType),
			zap.String("entity_id", d.EntityID.String()),
			zap.String("message", d.Message),
		)
	}
	return nil
}
