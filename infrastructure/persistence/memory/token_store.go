package memory

import (
	"context"
	"sync"

	"arbor/application/ports"
	pkgerrors "arbor/pkg/errors"
)

// RefreshTokenStore is an in-process ports.RefreshTokenStore
type RefreshTokenStore struct {
	mu     sync.RWMutex
	byHash map[string]ports.RefreshToken
}

// NewRefreshTokenStore creates an empty token store
func NewRefreshTokenStore() *RefreshTokenStore {
	return &RefreshTokenStore{byHash: make(map[string]ports.RefreshToken)}
}

var _ ports.RefreshTokenStore = (*RefreshTokenStore)(nil)

func (s *RefreshTokenStore) Save(ctx context.Context, token *ports.RefreshToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.byHash[token.TokenHash] = *token
	return nil
}

func (s *RefreshTokenStore) FindByHash(ctx context.Context, hash string) (*ports.RefreshToken, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	token, ok := s.byHash[hash]
	if !ok {
		return nil, pkgerrors.NewNotFoundError("refresh token")
	}
	return &token, nil
}

func (s *RefreshTokenStore) Revoke(ctx context.Context, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	token, ok := s.byHash[hash]
	if !ok {
		return pkgerrors.NewNotFoundError("refresh token")
	}
	token.Revoked = true
	s.byHash[hash] = token
	return nil
}

func (s *RefreshTokenStore) RevokeAllForUser(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for hash, token := range s.byHash {
		if token.UserID == userID && !token.Revoked {
			token.Revoked = true
			s.byHash[hash] = token
		}
	}
	return nil
}
