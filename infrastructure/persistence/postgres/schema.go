// Package postgres implements the stores on pgx/v5. The schema keeps
// the database as a backstop for the invariants the service already
// enforces: sibling name uniqueness and referential parent links.
package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	pkgerrors "arbor/pkg/errors"
)

const schemaDDL = `
CREATE TABLE IF NOT EXISTS nodes (
    id         uuid PRIMARY KEY,
    name       varchar(50) NOT NULL,
    parent_id  uuid NULL REFERENCES nodes(id),
    created_at timestamptz NOT NULL,
    updated_at timestamptz NOT NULL,
    UNIQUE NULLS NOT DISTINCT (parent_id, name)
);

CREATE INDEX IF NOT EXISTS nodes_parent_idx ON nodes (parent_id);

CREATE TABLE IF NOT EXISTS users (
    id            uuid PRIMARY KEY,
    username      varchar(100) NOT NULL UNIQUE,
    password_hash text NOT NULL,
    role          varchar(20) NOT NULL,
    created_at    timestamptz NOT NULL
);

CREATE TABLE IF NOT EXISTS refresh_tokens (
    token_hash char(64) PRIMARY KEY,
    user_id    uuid NOT NULL REFERENCES users(id),
    expires_at timestamptz NOT NULL,
    revoked    boolean NOT NULL DEFAULT false
);

CREATE INDEX IF NOT EXISTS refresh_tokens_user_idx ON refresh_tokens (user_id);
`

// EnsureSchema creates the tables when they do not exist yet
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schemaDDL); err != nil {
		return pkgerrors.NewStoreError("ensure schema", err)
	}
	return nil
}
