package notification

import (
	"context"
	"fmt"

	"github.com/stockflow/backend/internal/domain/notification"
)

// InboxSink stores deliveries for in-app reading
type InboxSink struct {
	inbox notification.InboxRepository
}

// NewInboxSink creates an InboxSink
func NewInboxSink(inbox notification.InboxRepository) *InboxSink {
	return &InboxSink{inbox: inbox}
}

// Name implements Sink
func (s *InboxSink) Name() string { return "inbox" }

// Deliver implements Sink
func (s *InboxSink) Deliver(ctx context.Context, deliveries []notification.Delivery) error {
	if err := s.inbox.SaveAll(ctx, deliveries); err != nil {
		return fmt.Errorf("failed to store notifications: %w", err)
	}
	return nil
}
