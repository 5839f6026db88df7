package domain

import (
	"context"
	"time"
)

// Role is the closed set of identity roles.
type Role string

const (
	RoleManager Role = "G" // gestor
	RoleTeacher Role = "P" // professor
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleManager, RoleTeacher:
		return true
	}
	return false
}

// Label returns the human readable role name.
func (r Role) Label() string {
	switch r {
	case RoleManager:
		return "gestor"
	case RoleTeacher:
		return "professor"
	default:
		return "desconhecido"
	}
}

// User represents a system identity
type User struct {
	ID           int64
	Username     string // Unique handle used at login
	Email        string
	FirstName    string
	LastName     string
	Role         Role
	NI           int64 // Unique institutional number
	Phone        *string
	BirthDate    Date
	HireDate     Date
	PasswordHash string // Bcrypt hash, never serialized
	IsActive     bool
	DateJoined   time.Time
}

// Identity returns the request-scoped view of the user.
func (u *User) Identity() *Identity {
	return &Identity{UserID: u.ID, Username: u.Username, Role: u.Role}
}

// Identity is the authenticated caller resolved from a request token.
// A nil *Identity stands for an anonymous caller.
type Identity struct {
	UserID   int64
	Username string
	Role     Role
}

func (i *Identity) IsManager() bool { return i != nil && i.Role == RoleManager }
func (i *Identity) IsTeacher() bool { return i != nil && i.Role == RoleTeacher }

// UserFilter narrows user listings.
type UserFilter struct {
	Role Role
}

// UserRepository defines data access for users
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id int64) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	GetByNI(ctx context.Context, ni int64) (*User, error)
	Update(ctx context.Context, user *User) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, filter UserFilter) ([]*User, error)
}
