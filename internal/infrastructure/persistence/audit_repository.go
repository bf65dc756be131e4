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

// auditItemBatchSize bounds the rows per INSERT when snapshotting large catalogues
const auditItemBatchSize = 200

// GormAuditRepository implements AuditRepository using GORM
type GormAuditRepository struct {
	db *gorm.DB
}

// NewGormAuditRepository creates a new GormAuditRepository
func NewGormAuditRepository(db *gorm.DB) *GormAuditRepository {
	return &GormAuditRepository{db: db}
}

// FindByID finds an audit by ID with its items
func (r *GormAuditRepository) FindByID(ctx context.Context, id uuid.UUID) (*inventory.InventoryAudit, error) {
	return r.findOne(r.db.WithContext(ctx), id)
}

// FindByIDForUpdate finds an audit with its items and locks the audit row
func (r *GormAuditRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*inventory.InventoryAudit, error) {
	return r.findOne(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), id)
}

func (r *GormAuditRepository) findOne(query *gorm.DB, id uuid.UUID) (*inventory.InventoryAudit, error) {
	var model models.InventoryAuditModel
	if err := query.
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("product_name ASC").Order("id")
		}).
		First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError("audit", id)
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll finds audits with pagination; items are not loaded
func (r *GormAuditRepository) FindAll(ctx context.Context, filter shared.Filter) ([]inventory.InventoryAudit, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.InventoryAuditModel{})
	if status, ok := filter.Filters["status"]; ok {
		query = query.Where("status = ?", status)
	}
	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var auditModels []models.InventoryAuditModel
	if err := paginate(query, filter, AuditSortFields, "created_at").Find(&auditModels).Error; err != nil {
		return nil, 0, err
	}
	audits := make([]inventory.InventoryAudit, len(auditModels))
	for i := range auditModels {
		audits[i] = *auditModels[i].ToDomain()
	}
	return audits, total, nil
}

// Save creates or updates an audit and upserts its items. Items are never removed.
func (r *GormAuditRepository) Save(ctx context.Context, audit *inventory.InventoryAudit) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		model := models.InventoryAuditModelFromDomain(audit)
		if err := tx.Omit("Items").Save(model).Error; err != nil {
			return err
		}
		if len(model.Items) == 0 {
			return nil
		}
		for i := range model.Items {
			model.Items[i].AuditID = audit.ID
		}
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"counted_quantity", "discrepancy"}),
		}).CreateInBatches(model.Items, auditItemBatchSize).Error
	})
}

// Ensure GormAuditRepository implements AuditRepository
var _ inventory.AuditRepository = (*GormAuditRepository)(nil)
