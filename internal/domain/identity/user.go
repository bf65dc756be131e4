package identity

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/stockflow/backend/internal/domain/shared"
)

// User mirrors an account from the identity provider.
// The engine only needs it to resolve role-targeted notifications and to
// print names on projections.
type User struct {
	ID        uuid.UUID
	Name      string
	Email     string
	Role      Role
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewUser creates an active user
func NewUser(id uuid.UUID, name, email string, role Role) (*User, error) {
	if id == uuid.Nil {
		id = uuid.New()
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewValidationError("INVALID_NAME", "User name cannot be empty")
	}
	if !role.IsValid() {
		return nil, shared.NewValidationError("INVALID_ROLE", "Unknown role: "+string(role))
	}
	now := time.Now()
	return &User{
		ID:        id,
		Name:      name,
		Email:     strings.ToLower(strings.TrimSpace(email)),
		Role:      role,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Actor returns the actor view of the user
func (u *User) Actor() Actor {
	return NewActor(u.ID, u.Role, u.Name)
}

// Deactivate stops the user from receiving role notifications
func (u *User) Deactivate() {
	u.Active = false
	u.UpdatedAt = time.Now()
}

// UserRepository is the user directory
type UserRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)
	// FindActiveIDsByRoles returns the ids of active users holding any of the roles
	FindActiveIDsByRoles(ctx context.Context, roles ...Role) ([]uuid.UUID, error)
	// NamesByIDs returns a name per known id
	NamesByIDs(ctx context.Context, ids ...uuid.UUID) (map[uuid.UUID]string, error)
	Save(ctx context.Context, user *User) error
}
