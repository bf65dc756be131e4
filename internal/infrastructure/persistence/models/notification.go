package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/stockflow/backend/internal/domain/notification"
)

// NotificationModel is one in-app inbox entry.
type NotificationModel struct {
	ID          uuid.UUID `gorm:"type:uuid;primary_key"`
	RecipientID uuid.UUID `gorm:"type:uuid;not null;index:idx_notification_recipient,priority:1"`
	Type        string    `gorm:"type:varchar(50);not null"`
	Message     string    `gorm:"type:text;not null"`
	EntityType  string    `gorm:"type:varchar(50)"`
	EntityID    uuid.UUID `gorm:"type:uuid"`
	Read        bool      `gorm:"column:is_read;not null;default:false;index:idx_notification_recipient,priority:2"`
	CreatedAt   time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (NotificationModel) TableName() string {
	return "notifications"
}

// ToDomain converts the persistence model to a domain Delivery.
func (m *NotificationModel) ToDomain() notification.Delivery {
	return notification.Delivery{
		ID:          m.ID,
		RecipientID: m.RecipientID,
		Type:        notification.Type(m.Type),
		Message:     m.Message,
		EntityType:  m.EntityType,
		EntityID:    m.EntityID,
		Read:        m.Read,
		CreatedAt:   m.CreatedAt,
	}
}

// NotificationModelFromDomain creates a new persistence model from a domain Delivery.
func NotificationModelFromDomain(d *notification.Delivery) *NotificationModel {
	return &NotificationModel{
		ID:          d.ID,
		RecipientID: d.RecipientID,
		Type:        string(d.Type),
		Message:     d.Message,
		EntityType:  d.EntityType,
		EntityID:    d.EntityID,
		Read:        d.Read,
		CreatedAt:   d.CreatedAt,
	}
}
