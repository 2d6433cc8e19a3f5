package dynamodb

import (
	"context"
	"errors"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"arbor/application/ports"
	pkgerrors "arbor/pkg/errors"
)

// transactLimit is the TransactWriteItems request item limit
const transactLimit = 100

// transactor is the slice of the DynamoDB client the commit path needs
type transactor interface {
	TransactWriteItems(ctx context.Context, params *dynamodb.TransactWriteItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error)
}

var errWriteSetTooLarge = errors.New("write set exceeds a single transaction")

// UnitOfWork implements ports.UnitOfWork by buffering writes and
// flushing them with TransactWriteItems on commit. Reads inside a
// transaction go straight to the table; the services only read before
// they write.
type UnitOfWork struct {
	client      *dynamodb.Client
	tableName   string
	parentIndex string
}

// NewUnitOfWork creates a unit of work over the table
func NewUnitOfWork(client *dynamodb.Client, tableName, parentIndex string) *UnitOfWork {
	return &UnitOfWork{
		client:      client,
		tableName:   tableName,
		parentIndex: parentIndex,
	}
}

var _ ports.UnitOfWork = (*UnitOfWork)(nil)

// Begin starts a buffered transaction
func (u *UnitOfWork) Begin(ctx context.Context) (ports.Transaction, error) {
	return &transaction{uow: u, client: u.client}, nil
}

type transaction struct {
	uow    *UnitOfWork
	client transactor
	writes []types.TransactWriteItem
	done   bool
}

func (t *transaction) buffer(item types.TransactWriteItem) {
	t.writes = append(t.writes, item)
}

func (t *transaction) Nodes() ports.NodeStore {
	return &NodeStore{
		client:      t.uow.client,
		tableName:   t.uow.tableName,
		parentIndex: t.uow.parentIndex,
		tx:          t,
	}
}

// Commit flushes the buffered writes in a single TransactWriteItems
// call so the whole write set lands or none of it does. A write set
// beyond the service's per-transaction item limit fails outright
// rather than committing a partial result.
func (t *transaction) Commit(ctx context.Context) (int64, error) {
	t.done = true

	if len(t.writes) == 0 {
		return 0, nil
	}
	if len(t.writes) > transactLimit {
		return 0, pkgerrors.NewStoreError("commit", errWriteSetTooLarge)
	}
	_, err := t.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: t.writes,
	})
	if err != nil {
		return 0, pkgerrors.NewStoreError("commit", err)
	}
	return int64(len(t.writes)), nil
}

// Rollback drops the buffered writes; after Commit it is a no-op
func (t *transaction) Rollback(ctx context.Context) error {
	if t.done {
		return nil
	}
	t.done = true
	t.writes = nil
	return nil
}
