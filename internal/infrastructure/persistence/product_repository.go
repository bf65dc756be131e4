package persistence

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/stockflow/backend/internal/domain/inventory"
	"github.com/stockflow/backend/internal/domain/shared"
	"github.com/stockflow/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormProductRepository implements ProductRepository using GORM
type GormProductRepository struct {
	db *gorm.DB
}

// NewGormProductRepository creates a new GormProductRepository
func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

// FindByID finds a product by its ID
func (r *GormProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*inventory.Product, error) {
	var model models.ProductModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError("product", id)
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDForUpdate finds a product and locks its row (SELECT ... FOR UPDATE)
func (r *GormProductRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*inventory.Product, error) {
	var model models.ProductModel
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError("product", id)
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDs finds products by IDs; unknown IDs are absent from the map
func (r *GormProductRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*inventory.Product, error) {
	result := make(map[uuid.UUID]*inventory.Product, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	var productModels []models.ProductModel
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&productModels).Error; err != nil {
		return nil, err
	}
	for i := range productModels {
		p := productModels[i].ToDomain()
		result[p.ID] = p
	}
	return result, nil
}

// FindByReference finds a product by its unique reference
func (r *GormProductRepository) FindByReference(ctx context.Context, reference string) (*inventory.Product, error) {
	var model models.ProductModel
	if err := r.db.WithContext(ctx).
		Where("reference = ?", strings.TrimSpace(reference)).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll finds products with pagination and the total count
func (r *GormProductRepository) FindAll(ctx context.Context, filter shared.Filter) ([]inventory.Product, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.ProductModel{})
	query = r.applyFilterWithoutPagination(query, filter).Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var productModels []models.ProductModel
	if err := paginate(query, filter, ProductSortFields, "name").Find(&productModels).Error; err != nil {
		return nil, 0, err
	}
	return toProducts(productModels), total, nil
}

// FindAllOrdered returns every product ordered by name
func (r *GormProductRepository) FindAllOrdered(ctx context.Context) ([]inventory.Product, error) {
	var productModels []models.ProductModel
	if err := r.db.WithContext(ctx).Order("name ASC").Order("id").Find(&productModels).Error; err != nil {
		return nil, err
	}
	return toProducts(productModels), nil
}

// FindBelowMinStock returns products whose quantity is strictly below their minimum
func (r *GormProductRepository) FindBelowMinStock(ctx context.Context) ([]inventory.Product, error) {
	var productModels []models.ProductModel
	if err := r.db.WithContext(ctx).
		Where("quantity < min_stock").
		Order("name ASC").
		Find(&productModels).Error; err != nil {
		return nil, err
	}
	return toProducts(productModels), nil
}

// Save creates or updates a product
func (r *GormProductRepository) Save(ctx context.Context, product *inventory.Product) error {
	model := models.ProductModelFromDomain(product)
	return r.db.WithContext(ctx).Save(model).Error
}

// UpdateQuantity writes only the quantity and version columns
func (r *GormProductRepository) UpdateQuantity(ctx context.Context, product *inventory.Product) error {
	result := r.db.WithContext(ctx).
		Model(&models.ProductModel{}).
		Where("id = ?", product.ID).
		Updates(map[string]any{
			"quantity":   product.Quantity,
			"version":    product.Version,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NewNotFoundError("product", product.ID)
	}
	return nil
}

// applyFilterWithoutPagination applies filter options without pagination
func (r *GormProductRepository) applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	for key, value := range filter.Filters {
		switch key {
		case "search":
			term, _ := value.(string)
			pattern := "%" + strings.ToLower(term) + "%"
			query = query.Where("LOWER(name) LIKE ? OR LOWER(reference) LIKE ?", pattern, pattern)
		case "low_stock":
			if value == true {
				query = query.Where("quantity <= min_stock")
			}
		}
	}
	return query
}

func toProducts(productModels []models.ProductModel) []inventory.Product {
	products := make([]inventory.Product, len(productModels))
	for i := range productModels {
		products[i] = *productModels[i].ToDomain()
	}
	return products
}

// Ensure GormProductRepository implements ProductRepository
var _ inventory.ProductRepository = (*GormProductRepository)(nil)
