package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"arbor/application/ports"
	pkgerrors "arbor/pkg/errors"
)

// UnitOfWork implements ports.UnitOfWork on a pgx connection pool
type UnitOfWork struct {
	pool *pgxpool.Pool
}

// NewUnitOfWork creates a unit of work over the pool
func NewUnitOfWork(pool *pgxpool.Pool) *UnitOfWork {
	return &UnitOfWork{pool: pool}
}

var _ ports.UnitOfWork = (*UnitOfWork)(nil)

// Begin opens a database transaction
func (u *UnitOfWork) Begin(ctx context.Context) (ports.Transaction, error) {
	tx, err := u.pool.Begin(ctx)
	if err != nil {
		return nil, pkgerrors.NewStoreError("begin", err)
	}
	return &transaction{tx: tx}, nil
}

// transaction wraps a pgx.Tx and tracks rows affected by the node
// store bound to it
type transaction struct {
	tx       pgx.Tx
	affected int64
}

func (t *transaction) Nodes() ports.NodeStore {
	return &NodeStore{db: t.tx, tx: t}
}

func (t *transaction) Commit(ctx context.Context) (int64, error) {
	if err := t.tx.Commit(ctx); err != nil {
		return 0, pkgerrors.NewStoreError("commit", err)
	}
	return t.affected, nil
}

// Rollback aborts the transaction; calling it after Commit is a no-op
func (t *transaction) Rollback(ctx context.Context) error {
	err := t.tx.Rollback(ctx)
	if err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		return pkgerrors.NewStoreError("rollback", err)
	}
	return nil
}
