package notification

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stockflow/backend/internal/domain/notification"
	"github.com/stockflow/backend/internal/domain/shared"
	"github.com/stockflow/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
)

func sampleDeliveries(n int) []notification.Delivery {
	intent := notification.ToUsers(notification.TypeDeliveryReady, "Request COM-2026-00001 is ready", uuid.New()).
		About("issue_request", uuid.New())
	out := make([]notification.Delivery, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, notification.NewDelivery(intent, uuid.New()))
	}
	return out
}

type MockInboxRepository struct {
	mock.Mock
}

func (m *MockInboxRepository) SaveAll(ctx context.Context, deliveries []notification.Delivery) error {
	return m.Called(ctx, deliveries).Error(0)
}

func (m *MockInboxRepository) FindByRecipient(ctx context.Context, recipientID uuid.UUID, unreadOnly bool, filter shared.Filter) ([]notification.Delivery, int64, error) {
	args := m.Called(ctx, recipientID, unreadOnly, filter)
	return args.Get(0).([]notification.Delivery), args.Get(1).(int64), args.Error(2)
}

func (m *MockInboxRepository) MarkRead(ctx context.Context, recipientID, deliveryID uuid.UUID) error {
	return m.Called(ctx, recipientID, deliveryID).Error(0)
}

func (m *MockInboxRepository) MarkAllRead(ctx context.Context, recipientID uuid.UUID) (int64, error) {
	args := m.Called(ctx, recipientID)
	return args.Get(0).(int64), args.Error(1)
}

// fakePublisher records published payloads; failOn makes the nth publish fail
type fakePublisher struct {
	channels []string
	payloads [][]byte
	failOn   int
}

func (p *fakePublisher) Publish(ctx context.Context, channel string, message any) *redis.IntCmd {
	cmd := redis.NewIntCmd(ctx, "publish", channel, message)
	if p.failOn > 0 && len(p.channels)+1 == p.failOn {
		p.channels = append(p.channels, channel)
		cmd.SetErr(errors.New("connection reset"))
		return cmd
	}
	p.channels = append(p.channels, channel)
	p.payloads = append(p.payloads, message.([]byte))
	cmd.SetVal(1)
	return cmd
}

func TestLogSink(t *testing.T) {
	core, recorded := observer.New(zapcore.InfoLevel)
	sink := NewLogSink(zap.New(core))
	deliveries := sampleDeliveries(2)

	require.NoError(t, sink.Deliver(context.Background(), deliveries))

	assert.Equal(t, "log", sink.Name())
	entries := recorded.FilterMessage("Notification").All()
	require.Len(t, entries, 2)
	fields := entries[0].ContextMap()
	assert.Equal(t, deliveries[0].RecipientID.String(), fields["recipient_id"])
	assert.Equal(t, "delivery_ready", fields["type"])
	assert.Equal(t, "issue_request", fields["entity_type"])
}

func TestInboxSink(t *testing.T) {
	ctx := context.Background()
	deliveries := sampleDeliveries(3)

	t.Run("stores the whole batch", func(t *testing.T) {
		inbox := new(MockInboxRepository)
		inbox.On("SaveAll", ctx, deliveries).Return(nil).Once()

		require.NoError(t, NewInboxSink(inbox).Deliver(ctx, deliveries))
		inbox.AssertExpectations(t)
	})

	t.Run("wraps repository errors", func(t *testing.T) {
		inbox := new(MockInboxRepository)
		inbox.On("SaveAll", ctx, deliveries).Return(errors.New("db down"))

		err := NewInboxSink(inbox).Deliver(ctx, deliveries)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "db down")
	})
}

func TestRedisSink(t *testing.T) {
	ctx := context.Background()

	t.Run("publishes one JSON message per delivery", func(t *testing.T) {
		publisher := &fakePublisher{}
		sink := NewRedisSink(publisher, WithRedisLogger(zaptest.NewLogger(t)))
		deliveries := sampleDeliveries(2)

		require.NoError(t, sink.Deliver(ctx, deliveries))

		assert.Equal(t, "redis", sink.Name())
		assert.Equal(t, []string{DefaultRedisChannel, DefaultRedisChannel}, publisher.channels)
		var msg Message
		require.NoError(t, json.Unmarshal(publisher.payloads[1], &msg))
		assert.Equal(t, deliveries[1].ID, msg.ID)
		assert.Equal(t, deliveries[1].RecipientID, msg.RecipientID)
		assert.Equal(t, "delivery_ready", msg.Type)
		assert.Equal(t, deliveries[1].EntityID, msg.EntityID)
	})

	t.Run("custom channel", func(t *testing.T) {
		publisher := &fakePublisher{}
		sink := NewRedisSink(publisher, WithRedisChannel("ops:stock"))
		require.NoError(t, sink.Deliver(ctx, sampleDeliveries(1)))
		assert.Equal(t, []string{"ops:stock"}, publisher.channels)
		assert.Equal(t, DefaultRedisChannel, NewRedisSink(publisher, WithRedisChannel("")).Channel())
	})

	t.Run("keeps publishing after a failure", func(t *testing.T) {
		publisher := &fakePublisher{failOn: 1}
		sink := NewRedisSink(publisher)

		err := sink.Deliver(ctx, sampleDeliveries(3))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "connection reset")
		assert.Len(t, publisher.channels, 3)
		assert.Len(t, publisher.payloads, 2)
	})
}

func TestWebhookSink(t *testing.T) {
	ctx := context.Background()

	t.Run("posts the batch with a bearer token", func(t *testing.T) {
		var (
			gotAuth string
			payload WebhookPayload
		)
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotAuth = r.Header.Get("Authorization")
			body, _ := io.ReadAll(r.Body)
			_ = json.Unmarshal(body, &payload)
			w.WriteHeader(http.StatusAccepted)
		}))
		defer server.Close()

		sink := NewWebhookSink(WebhookConfig{URL: server.URL, Token: "s3cret"}, zaptest.NewLogger(t))
		deliveries := sampleDeliveries(2)

		require.NoError(t, sink.Deliver(ctx, deliveries))
		assert.Equal(t, "webhook", sink.Name())
		assert.Equal(t, "Bearer s3cret", gotAuth)
		require.Len(t, payload.Deliveries, 2)
		assert.Equal(t, deliveries[0].ID, payload.Deliveries[0].ID)
	})

	t.Run("retries server errors", func(t *testing.T) {
		var calls atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if calls.Add(1) < 3 {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		sink := NewWebhookSink(WebhookConfig{URL: server.URL, Retries: 3, RetryWait: time.Millisecond}, zaptest.NewLogger(t))
		require.NoError(t, sink.Deliver(ctx, sampleDeliveries(1)))
		assert.Equal(t, int32(3), calls.Load())
	})

	t.Run("does not retry client errors", func(t *testing.T) {
		var calls atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			http.Error(w, "bad payload", http.StatusBadRequest)
		}))
		defer server.Close()

		sink := NewWebhookSink(WebhookConfig{URL: server.URL, Retries: 3, RetryWait: time.Millisecond}, zaptest.NewLogger(t))
		err := sink.Deliver(ctx, sampleDeliveries(1))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "400")
		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run("gives up after the retry budget", func(t *testing.T) {
		var calls atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer server.Close()

		sink := NewWebhookSink(WebhookConfig{URL: server.URL, Retries: 2, RetryWait: time.Millisecond}, zaptest.NewLogger(t))
		require.Error(t, sink.Deliver(ctx, sampleDeliveries(1)))
		assert.Equal(t, int32(3), calls.Load())
	})
}

func TestBuildSinks(t *testing.T) {
	log := zaptest.NewLogger(t)
	inbox := new(MockInboxRepository)
	publisher := &fakePublisher{}

	names := func(cfg config.NotificationConfig, p Publisher) []string {
		var out []string
		for _, s := range BuildSinks(cfg, inbox, p, log) {
			out = append(out, s.Name())
		}
		return out
	}

	assert.Equal(t, []string{"log"}, names(config.NotificationConfig{}, nil))
	assert.Equal(t, []string{"log", "inbox", "redis", "webhook"}, names(config.NotificationConfig{
		InboxEnabled:   true,
		RedisEnabled:   true,
		WebhookEnabled: true,
		WebhookURL:     "http://hooks.local/stock",
	}, publisher))
	assert.Equal(t, []string{"log"}, names(config.NotificationConfig{
		RedisEnabled:   true,
		WebhookEnabled: true,
	}, nil), "misconfigured sinks are skipped")
}
