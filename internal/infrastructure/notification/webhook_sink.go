package notification

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/stockflow/backend/internal/domain/notification"
	"github.com/stockflow/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// WebhookConfig configures the webhook sink
type WebhookConfig struct {
	URL     string
	Token   string
	Timeout time.Duration
	Retries int
	// RetryWait is the base backoff between attempts
	RetryWait time.Duration
}

// WebhookPayload is the body POSTed to the webhook
type WebhookPayload struct {
	Deliveries []Message `json:"deliveries"`
}

// WebhookSink POSTs every batch of deliveries to an HTTP endpoint
type WebhookSink struct {
	client *resty.Client
	url    string
	logger *zap.Logger
}

// NewWebhookSink creates a WebhookSink. 5xx answers and transport errors are retried.
func NewWebhookSink(cfg WebhookConfig, logger *zap.Logger) *WebhookSink {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 5 * time.Second
	}
	wait := cfg.RetryWait
	if wait == 0 {
		wait = 200 * time.Millisecond
	}

	client := resty.New().
		SetHeader("Content-Type", "application/json").
		SetHeader("User-Agent", "stockflow-notifier").
		SetTimeout(timeout).
		SetRetryCount(cfg.Retries).
		SetRetryWaitTime(wait).
		SetRetryMaxWaitTime(10 * wait).
		AddRetryCondition(func(resp *resty.Response, err error) bool {
			return err != nil || resp.StatusCode() >= http.StatusInternalServerError
		})
	if cfg.Token != "" {
		client.SetAuthToken(cfg.Token)
	}

	return &WebhookSink{
		client: client,
		url:    cfg.URL,
		logger: logger,
	}
}

// Name implements Sink
func (s *WebhookSink) Name() string { return "webhook" }

// Deliver implements Sink
func (s *WebhookSink) Deliver(ctx context.Context, deliveries []notification.Delivery) (err error) {
	ctx, span := telemetry.StartSpan(ctx, "notification.webhook",
		telemetry.WithAttribute("deliveries", len(deliveries)),
	)
	defer func() {
		telemetry.RecordError(span, err)
		span.End()
	}()

	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(WebhookPayload{Deliveries: toMessages(deliveries)}).
		Post(s.url)
	if err != nil {
		return fmt.Errorf("webhook request failed: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("webhook answered %d: %s", resp.StatusCode(), truncate(resp.String(), 200))
	}

	s.logger.Debug("Webhook delivered",
		zap.Int("deliveries", len(deliveries)),
		zap.Int("status", resp.StatusCode()),
		zap.Int("attempts", resp.Request.Attempt),
	)
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
