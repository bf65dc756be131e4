package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/stockflow/backend/internal/domain/notification"
	"github.com/stockflow/backend/internal/domain/shared"
	"github.com/stockflow/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// notificationBatchSize bounds the rows per INSERT for role broadcasts
const notificationBatchSize = 100

// GormInboxRepository implements InboxRepository using GORM
type GormInboxRepository struct {
	db *gorm.DB
}

// NewGormInboxRepository creates a new GormInboxRepository
func NewGormInboxRepository(db *gorm.DB) *GormInboxRepository {
	return &GormInboxRepository{db: db}
}

// SaveAll inserts deliveries
func (r *GormInboxRepository) SaveAll(ctx context.Context, deliveries []notification.Delivery) error {
	if len(deliveries) == 0 {
		return nil
	}
	rows := make([]*models.NotificationModel, len(deliveries))
	for i := range deliveries {
		rows[i] = models.NotificationModelFromDomain(&deliveries[i])
	}
	return r.db.WithContext(ctx).CreateInBatches(rows, notificationBatchSize).Error
}

// FindByRecipient lists a recipient's notifications, newest first by default
func (r *GormInboxRepository) FindByRecipient(ctx context.Context, recipientID uuid.UUID, unreadOnly bool, filter shared.Filter) ([]notification.Delivery, int64, error) {
	query := r.db.WithContext(ctx).
		Model(&models.NotificationModel{}).
		Where("recipient_id = ?", recipientID)
	if unreadOnly {
		query = query.Where("is_read = ?", false)
	}
	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.NotificationModel
	if err := paginate(query, filter, NotificationSortFields, "created_at").Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	deliveries := make([]notification.Delivery, len(rows))
	for i := range rows {
		deliveries[i] = rows[i].ToDomain()
	}
	return deliveries, total, nil
}

// MarkRead marks one of the recipient's notifications as read
func (r *GormInboxRepository) MarkRead(ctx context.Context, recipientID, deliveryID uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Model(&models.NotificationModel{}).
		Where("id = ? AND recipient_id = ?", deliveryID, recipientID).
		Update("is_read", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NewNotFoundError("notification", deliveryID)
	}
	return nil
}

// MarkAllRead marks every unread notification of the recipient as read
func (r *GormInboxRepository) MarkAllRead(ctx context.Context, recipientID uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.NotificationModel{}).
		Where("recipient_id = ? AND is_read = ?", recipientID, false).
		Update("is_read", true)
	return result.RowsAffected, result.Error
}

// Ensure GormInboxRepository implements InboxRepository
var _ notification.InboxRepository = (*GormInboxRepository)(nil)
