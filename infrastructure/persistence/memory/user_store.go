package memory

import (
	"context"
	"sync"
	"time"

	"arbor/application/ports"
	"arbor/domain/core/entities"
	pkgerrors "arbor/pkg/errors"
)

type userRecord struct {
	id           string
	username     string
	passwordHash string
	role         string
	createdAt    time.Time
}

// UserStore is an in-process ports.UserStore
type UserStore struct {
	mu     sync.RWMutex
	byID   map[string]userRecord
	byName map[string]string // username -> id
}

// NewUserStore creates an empty user store
func NewUserStore() *UserStore {
	return &UserStore{
		byID:   make(map[string]userRecord),
		byName: make(map[string]string),
	}
}

var _ ports.UserStore = (*UserStore)(nil)

func (s *UserStore) FindByID(ctx context.Context, id string) (*entities.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.byID[id]
	if !ok {
		return nil, pkgerrors.NewNotFoundError("user")
	}
	return userFromRecord(rec), nil
}

func (s *UserStore) FindByUsername(ctx context.Context, username string) (*entities.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byName[username]
	if !ok {
		return nil, pkgerrors.NewNotFoundError("user")
	}
	return userFromRecord(s.byID[id]), nil
}

func (s *UserStore) Add(ctx context.Context, user *entities.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.byName[user.Username()]; taken {
		return pkgerrors.NewValidationError("username is already taken")
	}
	rec := userRecord{
		id:           user.ID(),
		username:     user.Username(),
		passwordHash: user.PasswordHash(),
		role:         string(user.Role()),
		createdAt:    user.CreatedAt(),
	}
	s.byID[rec.id] = rec
	s.byName[rec.username] = rec.id
	return nil
}

func userFromRecord(rec userRecord) *entities.User {
	return entities.ReconstructUser(rec.id, rec.username, rec.passwordHash, entities.Role(rec.role), rec.createdAt)
}
