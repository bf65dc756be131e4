package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/stockflow/backend/internal/domain/shared"
	"github.com/stockflow/backend/internal/domain/trade"
	"github.com/stockflow/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormPurchaseOrderRepository implements PurchaseOrderRepository using GORM
type GormPurchaseOrderRepository struct {
	db *gorm.DB
}

// NewGormPurchaseOrderRepository creates a new GormPurchaseOrderRepository
func NewGormPurchaseOrderRepository(db *gorm.DB) *GormPurchaseOrderRepository {
	return &GormPurchaseOrderRepository{db: db}
}

func preloadOrderItems(query *gorm.DB) *gorm.DB {
	return query.Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("position ASC")
	})
}

// FindByID finds a purchase order by ID with its items
func (r *GormPurchaseOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*trade.PurchaseOrder, error) {
	return r.findOne(r.db.WithContext(ctx), id)
}

// FindByIDForUpdate finds a purchase order and locks its row
func (r *GormPurchaseOrderRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*trade.PurchaseOrder, error) {
	return r.findOne(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), id)
}

func (r *GormPurchaseOrderRepository) findOne(query *gorm.DB, id uuid.UUID) (*trade.PurchaseOrder, error) {
	var model models.PurchaseOrderModel
	if err := preloadOrderItems(query).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError("purchase order", id)
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll finds purchase orders with pagination; honours "status" and "created_by_id"
func (r *GormPurchaseOrderRepository) FindAll(ctx context.Context, filter shared.Filter) ([]trade.PurchaseOrder, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.PurchaseOrderModel{})
	for key, value := range filter.Filters {
		switch key {
		case "status":
			query = query.Where("status = ?", value)
		case "created_by_id":
			query = query.Where("created_by_id = ?", value)
		}
	}
	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var orderModels []models.PurchaseOrderModel
	if err := preloadOrderItems(paginate(query, filter, PurchaseOrderSortFields, "created_at")).
		Find(&orderModels).Error; err != nil {
		return nil, 0, err
	}
	orders := make([]trade.PurchaseOrder, len(orderModels))
	for i := range orderModels {
		orders[i] = *orderModels[i].ToDomain()
	}
	return orders, total, nil
}

// OpenProductIDs returns the products present on orders still being prepared or approved
func (r *GormPurchaseOrderRepository) OpenProductIDs(ctx context.Context) (map[uuid.UUID]bool, error) {
	var ids []uuid.UUID
	if err := r.db.WithContext(ctx).
		Model(&models.PurchaseOrderItemModel{}).
		Distinct("purchase_order_items.product_id").
		Joins("JOIN purchase_orders ON purchase_orders.id = purchase_order_items.order_id").
		Where("purchase_orders.status IN ?", []string{
			string(trade.PurchaseOrderStatusDraft),
			string(trade.PurchaseOrderStatusPendingApproval),
		}).
		Pluck("purchase_order_items.product_id", &ids).Error; err != nil {
		return nil, err
	}
	open := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		open[id] = true
	}
	return open, nil
}

// Save creates or updates a purchase order with its items
func (r *GormPurchaseOrderRepository) Save(ctx context.Context, order *trade.PurchaseOrder) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		model := models.PurchaseOrderModelFromDomain(order)

		// Save the order without auto-saving associations
		if err := tx.Omit("Items").Save(model).Error; err != nil {
			return err
		}

		// Delete items no longer on the order; Edit replaces the whole line set
		currentItemIDs := make([]uuid.UUID, len(order.Items))
		for i, item := range order.Items {
			currentItemIDs[i] = item.ID
		}
		stale := tx.Where("order_id = ?", order.ID)
		if len(currentItemIDs) > 0 {
			stale = stale.Where("id NOT IN ?", currentItemIDs)
		}
		if err := stale.Delete(&models.PurchaseOrderItemModel{}).Error; err != nil {
			return err
		}

		for i := range order.Items {
			order.Items[i].OrderID = order.ID
			itemModel := models.PurchaseOrderItemModelFromDomain(&order.Items[i])
			if err := tx.Save(&itemModel).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// Delete removes a purchase order and its items
func (r *GormPurchaseOrderRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("order_id = ?", id).Delete(&models.PurchaseOrderItemModel{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&models.PurchaseOrderModel{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.NewNotFoundError("purchase order", id)
		}
		return nil
	})
}

// Ensure GormPurchaseOrderRepository implements PurchaseOrderRepository
var _ trade.PurchaseOrderRepository = (*GormPurchaseOrderRepository)(nil)
