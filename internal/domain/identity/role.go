package identity

import (
	"slices"

	"github.com/google/uuid"
)

// Role is the caller's organizational role, supplied by the identity provider
type Role string

const (
	RoleAdmin       Role = "ADMIN"
	RoleStorekeeper Role = "MAGASINIER"
	RoleRequester   Role = "CHEF_SERVICE"
	RoleFinance     Role = "DAF"
	RoleObserver    Role = "SUPER_OBSERVATEUR"
)

// AllRoles lists every known role
var AllRoles = []Role{RoleAdmin, RoleStorekeeper, RoleRequester, RoleFinance, RoleObserver}

// IsValid checks if the role is a known Role
func (r Role) IsValid() bool {
	return slices.Contains(AllRoles, r)
}

// String returns the string representation of Role
func (r Role) String() string {
	return string(r)
}

// Actor identifies who performs an operation
type Actor struct {
	ID   uuid.UUID
	Role Role
	Name string
}

// NewActor builds an actor
func NewActor(id uuid.UUID, role Role, name string) Actor {
	return Actor{ID: id, Role: role, Name: name}
}

// HasRole reports whether the actor holds one of the given roles
func (a Actor) HasRole(roles ...Role) bool {
	return slices.Contains(roles, a.Role)
}

// Is reports whether the actor is the given user
func (a Actor) Is(userID uuid.UUID) bool {
	return a.ID == userID
}
