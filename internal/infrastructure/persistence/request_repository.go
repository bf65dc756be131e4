package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/stockflow/backend/internal/domain/request"
	"github.com/stockflow/backend/internal/domain/shared"
	"github.com/stockflow/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormRequestRepository implements request.Repository using GORM
type GormRequestRepository struct {
	db *gorm.DB
}

// NewGormRequestRepository creates a new GormRequestRepository
func NewGormRequestRepository(db *gorm.DB) *GormRequestRepository {
	return &GormRequestRepository{db: db}
}

func preloadRequestChildren(query *gorm.DB) *gorm.DB {
	return query.
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Preload("Approvals", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		})
}

// FindByID finds a request by ID with its items and approval log
func (r *GormRequestRepository) FindByID(ctx context.Context, id uuid.UUID) (*request.Request, error) {
	return r.findOne(r.db.WithContext(ctx).Where("id = ?", id), id)
}

// FindByIDForUpdate finds a request and locks its row until the transaction ends
func (r *GormRequestRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*request.Request, error) {
	return r.findOne(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id), id)
}

// FindByNumber finds a request by its document number
func (r *GormRequestRepository) FindByNumber(ctx context.Context, number string) (*request.Request, error) {
	var model models.RequestModel
	if err := preloadRequestChildren(r.db.WithContext(ctx)).
		Where("number = ?", number).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

func (r *GormRequestRepository) findOne(query *gorm.DB, id uuid.UUID) (*request.Request, error) {
	var model models.RequestModel
	if err := preloadRequestChildren(query).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError("request", id)
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll finds requests with pagination; honours "status" and "requester_id"
func (r *GormRequestRepository) FindAll(ctx context.Context, filter shared.Filter) ([]request.Request, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.RequestModel{})
	for key, value := range filter.Filters {
		switch key {
		case "status":
			query = query.Where("status = ?", value)
		case "requester_id":
			query = query.Where("requester_id = ?", value)
		}
	}
	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var requestModels []models.RequestModel
	if err := preloadRequestChildren(paginate(query, filter, RequestSortFields, "created_at")).
		Find(&requestModels).Error; err != nil {
		return nil, 0, err
	}
	requests := make([]request.Request, len(requestModels))
	for i := range requestModels {
		requests[i] = *requestModels[i].ToDomain()
	}
	return requests, total, nil
}

// Save persists the request header, upserts its items and appends new approval entries
func (r *GormRequestRepository) Save(ctx context.Context, req *request.Request) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		model := models.RequestModelFromDomain(req)
		if err := tx.Omit("Items", "Approvals").Save(model).Error; err != nil {
			return err
		}

		if len(model.Items) > 0 {
			for i := range model.Items {
				model.Items[i].RequestID = req.ID
			}
			if err := tx.Clauses(clause.OnConflict{
				Columns: []clause.Column{{Name: "id"}},
				DoUpdates: clause.AssignmentColumns([]string{
					"approved_qty", "dispute_reason", "dispute_comment", "dispute_status",
				}),
			}).Create(&model.Items).Error; err != nil {
				return err
			}
		}

		if len(model.Approvals) > 0 {
			for i := range model.Approvals {
				model.Approvals[i].RequestID = req.ID
			}
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).
				Create(&model.Approvals).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// Ensure GormRequestRepository implements request.Repository
var _ request.Repository = (*GormRequestRepository)(nil)
