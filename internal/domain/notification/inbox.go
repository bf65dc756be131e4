package notification

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stockflow/backend/internal/domain/shared"
)

// Delivery is one intent resolved for one recipient
type Delivery struct {
	ID          uuid.UUID
	RecipientID uuid.UUID
	Type        Type
	Message     string
	EntityType  string
	EntityID    uuid.UUID
	Read        bool
	CreatedAt   time.Time
}

// NewDelivery resolves an intent for a recipient
func NewDelivery(intent Intent, recipientID uuid.UUID) Delivery {
	return Delivery{
		ID:          uuid.New(),
		RecipientID: recipientID,
		Type:        intent.Type,
		Message:     intent.Message,
		EntityType:  intent.EntityType,
		EntityID:    intent.EntityID,
		CreatedAt:   time.Now(),
	}
}

// InboxRepository stores deliveries for in-app reading
type InboxRepository interface {
	SaveAll(ctx context.Context, deliveries []Delivery) error
	FindByRecipient(ctx context.Context, recipientID uuid.UUID, unreadOnly bool, filter shared.Filter) ([]Delivery, int64, error)
	// MarkRead marks one delivery read; it returns ErrNotFound when the
	// delivery does not belong to the recipient
	MarkRead(ctx context.Context, recipientID, deliveryID uuid.UUID) error
	MarkAllRead(ctx context.Context, recipientID uuid.UUID) (int64, error)
}
