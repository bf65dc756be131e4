// Package notification holds the delivery sinks the dispatcher fans out to.
package notification

import (
	"time"

	"github.com/google/uuid"
	"github.com/stockflow/backend/internal/domain/notification"
)

// Message is the wire form of a delivery published to Redis and webhooks
type Message struct {
	ID          uuid.UUID `json:"id"`
	RecipientID uuid.UUID `json:"recipient_id"`
	Type        string    `json:"type"`
	Message     string    `json:"message"`
	EntityType  string    `json:"entity_type,omitempty"`
	EntityID    uuid.UUID `json:"entity_id"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewMessage converts a delivery to its wire form
func NewMessage(d notification.Delivery) Message {
	return Message{
		ID:          d.ID,
		RecipientID: d.RecipientID,
		Type:        string(d.Type),
		Message:     d.Message,
		EntityType:  d.EntityType,
		EntityID:    d.EntityID,
		CreatedAt:   d.CreatedAt.UTC(),
	}
}

func toMessages(deliveries []notification.Delivery) []Message {
	out := make([]Message, 0, len(deliveries))
	for _, d := range deliveries {
		out = append(out, NewMessage(d))
	}
	return out
}
