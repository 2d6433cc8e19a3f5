package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"arbor/application/ports"
	"arbor/domain/core/entities"
	pkgerrors "arbor/pkg/errors"
)

// UserStore implements ports.UserStore on Postgres
type UserStore struct {
	pool *pgxpool.Pool
}

// NewUserStore creates a pool-backed user store
func NewUserStore(pool *pgxpool.Pool) *UserStore {
	return &UserStore{pool: pool}
}

var _ ports.UserStore = (*UserStore)(nil)

func (s *UserStore) FindByID(ctx context.Context, id string) (*entities.User, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, username, password_hash, role, created_at FROM users WHERE id = $1`, id)
	return scanUser(row)
}

func (s *UserStore) FindByUsername(ctx context.Context, username string) (*entities.User, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, username, password_hash, role, created_at FROM users WHERE username = $1`, username)
	return scanUser(row)
}

func (s *UserStore) Add(ctx context.Context, user *entities.User) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO users (id, username, password_hash, role, created_at) VALUES ($1, $2, $3, $4, $5)`,
		user.ID(), user.Username(), user.PasswordHash(), string(user.Role()), user.CreatedAt())
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return pkgerrors.NewValidationError("username is already taken")
		}
		return pkgerrors.NewStoreError("add user", err)
	}
	return nil
}

func scanUser(row pgx.Row) (*entities.User, error) {
	var (
		id        string
		username  string
		hash      string
		role      string
		createdAt time.Time
	)
	if err := row.Scan(&id, &username, &hash, &role, &createdAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, pkgerrors.NewNotFoundError("user")
		}
		return nil, pkgerrors.NewStoreError("scan user", err)
	}
	return entities.ReconstructUser(id, username, hash, entities.Role(role), createdAt), nil
}
