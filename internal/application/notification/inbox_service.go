package notification

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stockflow/backend/internal/domain/identity"
	"github.com/stockflow/backend/internal/domain/notification"
	"github.com/stockflow/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// DeliveryResponse represents an inbox entry in API responses
type DeliveryResponse struct {
	ID         uuid.UUID `json:"id"`
	Type       string    `json:"type"`
	Message    string    `json:"message"`
	EntityType string    `json:"entity_type,omitempty"`
	EntityID   uuid.UUID `json:"entity_id"`
	Read       bool      `json:"read"`
	CreatedAt  time.Time `json:"created_at"`
}

// ToDeliveryResponse converts a domain Delivery to DeliveryResponse
func ToDeliveryResponse(d *notification.Delivery) DeliveryResponse {
	return DeliveryResponse{
		ID:         d.ID,
		Type:       string(d.Type),
		Message:    d.Message,
		EntityType: d.EntityType,
		EntityID:   d.EntityID,
		Read:       d.Read,
		CreatedAt:  d.CreatedAt,
	}
}

// InboxFilter filters inbox listings
type InboxFilter struct {
	Page       int
	PageSize   int
	UnreadOnly bool
}

// InboxService lets users read their in-app notifications
type InboxService struct {
	inbox  notification.InboxRepository
	logger *zap.Logger
}

// NewInboxService creates a new InboxService
func NewInboxService(inbox notification.InboxRepository, logger *zap.Logger) *InboxService {
	return &InboxService{inbox: inbox, logger: logger}
}

// List returns the actor's notifications, newest first
func (s *InboxService) List(ctx context.Context, actor identity.Actor, filter InboxFilter) (*shared.Paginated[DeliveryResponse], error) {
	f := shared.DefaultFilter()
	f.Page = filter.Page
	f.PageSize = filter.PageSize
	f = f.Normalize()

	deliveries, total, err := s.inbox.FindByRecipient(ctx, actor.ID, filter.UnreadOnly, f)
	if err != nil {
		return nil, err
	}
	items := make([]DeliveryResponse, 0, len(deliveries))
	for i := range deliveries {
		items = append(items, ToDeliveryResponse(&deliveries[i]))
	}
	result := shared.NewPaginated(items, total, f.Page, f.PageSize)
	return &result, nil
}

// MarkRead marks one of the actor's notifications as read
func (s *InboxService) MarkRead(ctx context.Context, actor identity.Actor, id uuid.UUID) error {
	return s.inbox.MarkRead(ctx, actor.ID, id)
}

// MarkAllRead marks every notification of the actor as read
func (s *InboxService) MarkAllRead(ctx context.Context, actor identity.Actor) (int64, error) {
	n, err := s.inbox.MarkAllRead(ctx, actor.ID)
	if err != nil {
		return 0, err
	}
	s.logger.Debug("Notifications marked read",
		zap.String("recipient_id", actor.ID.String()),
		zap.Int64("count", n))
	return n, nil
}
