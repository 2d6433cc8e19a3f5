package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"arbor/application/ports"
	pkgerrors "arbor/pkg/errors"
)

// RefreshTokenStore implements ports.RefreshTokenStore on Postgres
type RefreshTokenStore struct {
	pool *pgxpool.Pool
}

// NewRefreshTokenStore creates a pool-backed token store
func NewRefreshTokenStore(pool *pgxpool.Pool) *RefreshTokenStore {
	return &RefreshTokenStore{pool: pool}
}

var _ ports.RefreshTokenStore = (*RefreshTokenStore)(nil)

func (s *RefreshTokenStore) Save(ctx context.Context, token *ports.RefreshToken) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO refresh_tokens (token_hash, user_id, expires_at, revoked) VALUES ($1, $2, $3, $4)`,
		token.TokenHash, token.UserID, token.ExpiresAt, token.Revoked)
	if err != nil {
		return pkgerrors.NewStoreError("save token", err)
	}
	return nil
}

func (s *RefreshTokenStore) FindByHash(ctx context.Context, hash string) (*ports.RefreshToken, error) {
	var token ports.RefreshToken
	err := s.pool.QueryRow(ctx,
		`SELECT token_hash, user_id, expires_at, revoked FROM refresh_tokens WHERE token_hash = $1`, hash).
		Scan(&token.TokenHash, &token.UserID, &token.ExpiresAt, &token.Revoked)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, pkgerrors.NewNotFoundError("refresh token")
		}
		return nil, pkgerrors.NewStoreError("find token", err)
	}
	return &token, nil
}

func (s *RefreshTokenStore) Revoke(ctx context.Context, hash string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE refresh_tokens SET revoked = true WHERE token_hash = $1`, hash)
	if err != nil {
		return pkgerrors.NewStoreError("revoke token", err)
	}
	if tag.RowsAffected() == 0 {
		return pkgerrors.NewNotFoundError("refresh token")
	}
	return nil
}

func (s *RefreshTokenStore) RevokeAllForUser(ctx context.Context, userID string) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE refresh_tokens SET revoked = true WHERE user_id = $1 AND revoked = false`, userID)
	if err != nil {
		return pkgerrors.NewStoreError("revoke user tokens", err)
	}
	return nil
}
