package entities

import (
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	pkgerrors "arbor/pkg/errors"
)

// Role gates which hierarchy operations a caller may perform.
// The hierarchy service itself never inspects roles; enforcement lives
// in the HTTP layer.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

// IsValid reports whether the role is a known value
func (r Role) IsValid() bool {
	return r == RoleAdmin || r == RoleMember
}

// User is an account in the credential subsystem
type User struct {
	id           string
	username     string
	passwordHash string
	role         Role
	createdAt    time.Time
}

// NewUser creates a user with a bcrypt-hashed password
func NewUser(username, password string, role Role) (*User, error) {
	if username == "" {
		return nil, pkgerrors.NewValidationError("username cannot be empty")
	}
	if len(password) < 8 {
		return nil, pkgerrors.NewValidationError("password must be at least 8 characters")
	}
	if !role.IsValid() {
		return nil, pkgerrors.NewValidationError("unknown role")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, pkgerrors.NewInternalError("failed to hash password").WithCause(err)
	}

	return &User{
		id:           uuid.New().String(),
		username:     username,
		passwordHash: string(hash),
		role:         role,
		createdAt:    time.Now().UTC(),
	}, nil
}

// ReconstructUser rebuilds a user from store data
func ReconstructUser(id, username, passwordHash string, role Role, createdAt time.Time) *User {
	return &User{
		id:           id,
		username:     username,
		passwordHash: passwordHash,
		role:         role,
		createdAt:    createdAt,
	}
}

// ID returns the user's unique identifier
func (u *User) ID() string {
	return u.id
}

// Username returns the login name
func (u *User) Username() string {
	return u.username
}

// PasswordHash returns the stored bcrypt hash
func (u *User) PasswordHash() string {
	return u.passwordHash
}

// Role returns the user's role
func (u *User) Role() Role {
	return u.role
}

// CreatedAt returns when the account was created
func (u *User) CreatedAt() time.Time {
	return u.createdAt
}

// CheckPassword verifies a candidate password against the stored hash
func (u *User) CheckPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.passwordHash), []byte(password)) == nil
}
