package notification

import (
	appnotif "github.com/stockflow/backend/internal/application/notification"
	"github.com/stockflow/backend/internal/domain/notification"
	"github.com/stockflow/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// BuildSinks assembles the sinks enabled in cfg. The log sink always comes
// first; publisher may be nil when Redis is disabled.
func BuildSinks(cfg config.NotificationConfig, inbox notification.InboxRepository, publisher Publisher, logger *zap.Logger) []appnotif.Sink {
	sinks := []appnotif.Sink{NewLogSink(logger)}

	if cfg.InboxEnabled && inbox != nil {
		sinks = append(sinks, NewInboxSink(inbox))
	}
	if cfg.RedisEnabled {
		if publisher == nil {
			logger.Warn("Redis notifications enabled without a Redis client, skipping sink")
		} else {
			sinks = append(sinks, NewRedisSink(publisher,
				WithRedisChannel(cfg.RedisChannel),
				WithRedisLogger(logger),
			))
		}
	}
	if cfg.WebhookEnabled {
		if cfg.WebhookURL == "" {
			logger.Warn("Webhook notifications enabled without a URL, skipping sink")
		} else {
			sinks = append(sinks, NewWebhookSink(WebhookConfig{
				URL:     cfg.WebhookURL,
				Token:   cfg.WebhookToken,
				Timeout: cfg.WebhookTimeout,
				Retries: cfg.WebhookRetries,
			}, logger))
		}
	}

	names := make([]string, 0, len(sinks))
	for _, s := range sinks {
		names = append(names, s.Name())
	}
	logger.Info("Notification sinks configured", zap.Strings("sinks", names))
	return sinks
}
