package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/stockflow/backend/internal/domain/inventory"
	"github.com/stockflow/backend/internal/domain/shared"
	"github.com/stockflow/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormReceiptRepository implements ReceiptRepository using GORM
type GormReceiptRepository struct {
	db *gorm.DB
}

// NewGormReceiptRepository creates a new GormReceiptRepository
func NewGormReceiptRepository(db *gorm.DB) *GormReceiptRepository {
	return &GormReceiptRepository{db: db}
}

// FindByID finds a stock receipt by its ID
func (r *GormReceiptRepository) FindByID(ctx context.Context, id uuid.UUID) (*inventory.StockReceipt, error) {
	return r.findOne(r.db.WithContext(ctx), id)
}

// FindByIDForUpdate finds a stock receipt and locks its row
func (r *GormReceiptRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*inventory.StockReceipt, error) {
	return r.findOne(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), id)
}

func (r *GormReceiptRepository) findOne(query *gorm.DB, id uuid.UUID) (*inventory.StockReceipt, error) {
	var model models.StockReceiptModel
	if err := query.First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError("receipt", id)
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll finds receipts with pagination; honours "status" and "product_id"
func (r *GormReceiptRepository) FindAll(ctx context.Context, filter shared.Filter) ([]inventory.StockReceipt, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.StockReceiptModel{})
	query = applyApprovalFilters(query, filter).Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var receiptModels []models.StockReceiptModel
	if err := paginate(query, filter, ReceiptSortFields, "created_at").Find(&receiptModels).Error; err != nil {
		return nil, 0, err
	}
	receipts := make([]inventory.StockReceipt, len(receiptModels))
	for i := range receiptModels {
		receipts[i] = *receiptModels[i].ToDomain()
	}
	return receipts, total, nil
}

// Save creates or updates a stock receipt
func (r *GormReceiptRepository) Save(ctx context.Context, receipt *inventory.StockReceipt) error {
	return r.db.WithContext(ctx).Save(models.StockReceiptModelFromDomain(receipt)).Error
}

// Ensure GormReceiptRepository implements ReceiptRepository
var _ inventory.ReceiptRepository = (*GormReceiptRepository)(nil)
