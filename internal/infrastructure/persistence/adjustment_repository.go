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

// GormAdjustmentRepository implements AdjustmentRepository using GORM
type GormAdjustmentRepository struct {
	db *gorm.DB
}

// NewGormAdjustmentRepository creates a new GormAdjustmentRepository
func NewGormAdjustmentRepository(db *gorm.DB) *GormAdjustmentRepository {
	return &GormAdjustmentRepository{db: db}
}

// FindByID finds a stock adjustment by its ID
func (r *GormAdjustmentRepository) FindByID(ctx context.Context, id uuid.UUID) (*inventory.StockAdjustment, error) {
	return r.findOne(r.db.WithContext(ctx), id)
}

// FindByIDForUpdate finds a stock adjustment and locks its row
func (r *GormAdjustmentRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*inventory.StockAdjustment, error) {
	return r.findOne(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), id)
}

func (r *GormAdjustmentRepository) findOne(query *gorm.DB, id uuid.UUID) (*inventory.StockAdjustment, error) {
	var model models.StockAdjustmentModel
	if err := query.First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError("adjustment", id)
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByAudit returns the reconciliation adjustments raised by one audit
func (r *GormAdjustmentRepository) FindByAudit(ctx context.Context, auditID uuid.UUID) ([]inventory.StockAdjustment, error) {
	var adjustmentModels []models.StockAdjustmentModel
	if err := r.db.WithContext(ctx).
		Where("audit_id = ?", auditID).
		Order("created_at ASC").
		Find(&adjustmentModels).Error; err != nil {
		return nil, err
	}
	return toAdjustments(adjustmentModels), nil
}

// FindAll finds adjustments with pagination; honours "status" and "product_id"
func (r *GormAdjustmentRepository) FindAll(ctx context.Context, filter shared.Filter) ([]inventory.StockAdjustment, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.StockAdjustmentModel{})
	query = applyApprovalFilters(query, filter).Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var adjustmentModels []models.StockAdjustmentModel
	if err := paginate(query, filter, AdjustmentSortFields, "created_at").Find(&adjustmentModels).Error; err != nil {
		return nil, 0, err
	}
	return toAdjustments(adjustmentModels), total, nil
}

// Save creates or updates a stock adjustment
func (r *GormAdjustmentRepository) Save(ctx context.Context, adjustment *inventory.StockAdjustment) error {
	return r.db.WithContext(ctx).Save(models.StockAdjustmentModelFromDomain(adjustment)).Error
}

// applyApprovalFilters applies the filters shared by adjustment and receipt listings
func applyApprovalFilters(query *gorm.DB, filter shared.Filter) *gorm.DB {
	for key, value := range filter.Filters {
		switch key {
		case "status":
			query = query.Where("status = ?", value)
		case "product_id":
			query = query.Where("product_id = ?", value)
		case "requested_by_id":
			query = query.Where("requested_by_id = ?", value)
		}
	}
	return query
}

func toAdjustments(adjustmentModels []models.StockAdjustmentModel) []inventory.StockAdjustment {
	adjustments := make([]inventory.StockAdjustment, len(adjustmentModels))
	for i := range adjustmentModels {
		adjustments[i] = *adjustmentModels[i].ToDomain()
	}
	return adjustments
}

// Ensure GormAdjustmentRepository implements AdjustmentRepository
var _ inventory.AdjustmentRepository = (*GormAdjustmentRepository)(nil)
