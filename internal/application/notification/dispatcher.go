package notification

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/stockflow/backend/internal/domain/identity"
	"github.com/stockflow/backend/internal/domain/notification"
	"go.uber.org/zap"
)

// Sink delivers resolved notifications to one channel
type Sink interface {
	Name() string
	Deliver(ctx context.Context, deliveries []notification.Delivery) error
}

// FailureRecorder counts sink failures, e.g. for metrics
type FailureRecorder interface {
	RecordNotificationFailure(ctx context.Context, sink string)
}

// Dispatcher resolves intents to recipients and fans them out to sinks.
// It runs after the workflow transaction committed and never fails the caller.
type Dispatcher struct {
	users    identity.UserRepository
	sinks    []Sink
	failures FailureRecorder
	logger   *zap.Logger
}

// NewDispatcher creates a new Dispatcher
func NewDispatcher(users identity.UserRepository, logger *zap.Logger, sinks ...Sink) *Dispatcher {
	return &Dispatcher{
		users:  users,
		sinks:  sinks,
		logger: logger,
	}
}

// WithFailureRecorder sets the failure recorder
func (d *Dispatcher) WithFailureRecorder(r FailureRecorder) *Dispatcher {
	d.failures = r
	return d
}

// Dispatch delivers every intent. Failures are logged and swallowed.
func (d *Dispatcher) Dispatch(ctx context.Context, intents notification.List) {
	if len(intents) == 0 {
		return
	}
	var deliveries []notification.Delivery
	for _, intent := range intents {
		recipients, err := d.resolve(ctx, intent)
		if err != nil {
			d.logger.Error("failed to resolve notification recipients",
				zap.String("type", string(intent.Type)),
				zap.String("entity_id", intent.EntityID.String()),
				zap.Error(err),
			)
			d.recordFailure(ctx, "directory")
			continue
		}
		if len(recipients) == 0 {
			d.logger.Debug("notification has no recipients", zap.String("type", string(intent.Type)))
			continue
		}
		for _, id := range recipients {
			deliveries = append(deliveries, notification.NewDelivery(intent, id))
		}
	}
	if len(deliveries) == 0 {
		return
	}

	for _, sink := range d.sinks {
		if err := d.deliverToSink(ctx, sink, deliveries); err != nil {
			d.logger.Error("notification sink failed",
				zap.String("sink", sink.Name()),
				zap.Int("deliveries", len(deliveries)),
				zap.Error(err),
			)
			d.recordFailure(ctx, sink.Name())
		}
	}
}

// resolve expands roles to active users and merges explicit targets without duplicates
func (d *Dispatcher) resolve(ctx context.Context, intent notification.Intent) ([]uuid.UUID, error) {
	seen := make(map[uuid.UUID]struct{})
	var recipients []uuid.UUID
	add := func(id uuid.UUID) {
		if id == uuid.Nil {
			return
		}
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		recipients = append(recipients, id)
	}

	for _, id := range intent.TargetUserIDs {
		add(id)
	}
	if len(intent.TargetRoles) > 0 {
		ids, err := d.users.FindActiveIDsByRoles(ctx, intent.TargetRoles...)
		if err != nil {
			return nil, err
		}
		for _, id := range ids {
			add(id)
		}
	}
	return recipients, nil
}

// deliverToSink turns a sink panic into an error
func (d *Dispatcher) deliverToSink(ctx context.Context, sink Sink, deliveries []notification.Delivery) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("sink panicked: %v", r)
		}
	}()
	return sink.Deliver(ctx, deliveries)
}

func (d *Dispatcher) recordFailure(ctx context.Context, sink string) {
	if d.failures != nil {
		d.failures.RecordNotificationFailure(ctx, sink)
	}
}
