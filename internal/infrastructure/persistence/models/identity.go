package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/stockflow/backend/internal/domain/identity"
)

// UserModel is the persistence model for directory users.
type UserModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	Name      string    `gorm:"type:varchar(200);not null"`
	Email     string    `gorm:"type:varchar(200);index"`
	Role      string    `gorm:"type:varchar(30);not null;index:idx_user_role_active,priority:1"`
	Active    bool      `gorm:"not null;index:idx_user_role_active,priority:2"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (UserModel) TableName() string {
	return "users"
}

// ToDomain converts the persistence model to a domain User.
func (m *UserModel) ToDomain() *identity.User {
	return &identity.User{
		ID:        m.ID,
		Name:      m.Name,
		Email:     m.Email,
		Role:      identity.Role(m.Role),
		Active:    m.Active,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

// UserModelFromDomain creates a new persistence model from a domain User.
func UserModelFromDomain(u *identity.User) *UserModel {
	return &UserModel{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Role:      string(u.Role),
		Active:    u.Active,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}
