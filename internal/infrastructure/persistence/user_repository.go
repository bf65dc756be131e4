package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/stockflow/backend/internal/domain/identity"
	"github.com/stockflow/backend/internal/domain/shared"
	"github.com/stockflow/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormUserRepository implements UserRepository using GORM
type GormUserRepository struct {
	db *gorm.DB
}

// NewGormUserRepository creates a new GormUserRepository
func NewGormUserRepository(db *gorm.DB) *GormUserRepository {
	return &GormUserRepository{db: db}
}

// FindByID finds a user by ID
func (r *GormUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.User, error) {
	var model models.UserModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError("user", id)
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindActiveIDsByRoles returns the ids of active users holding any of the roles
func (r *GormUserRepository) FindActiveIDsByRoles(ctx context.Context, roles ...identity.Role) ([]uuid.UUID, error) {
	if len(roles) == 0 {
		return []uuid.UUID{}, nil
	}
	names := make([]string, len(roles))
	for i, role := range roles {
		names[i] = string(role)
	}
	var ids []uuid.UUID
	if err := r.db.WithContext(ctx).
		Model(&models.UserModel{}).
		Where("role IN ? AND active = ?", names, true).
		Order("id").
		Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

// NamesByIDs returns a display name per known id; unknown ids are absent
func (r *GormUserRepository) NamesByIDs(ctx context.Context, ids ...uuid.UUID) (map[uuid.UUID]string, error) {
	names := make(map[uuid.UUID]string, len(ids))
	if len(ids) == 0 {
		return names, nil
	}
	var userModels []models.UserModel
	if err := r.db.WithContext(ctx).
		Select("id", "name").
		Where("id IN ?", ids).
		Find(&userModels).Error; err != nil {
		return nil, err
	}
	for _, m := range userModels {
		names[m.ID] = m.Name
	}
	return names, nil
}

// Save creates or updates a user
func (r *GormUserRepository) Save(ctx context.Context, user *identity.User) error {
	return r.db.WithContext(ctx).Save(models.UserModelFromDomain(user)).Error
}

// Ensure GormUserRepository implements UserRepository
var _ identity.UserRepository = (*GormUserRepository)(nil)
