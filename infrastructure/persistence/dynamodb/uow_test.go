package dynamodb

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "arbor/pkg/errors"
)

type fakeTransactor struct {
	calls []int
	err   error
}

func (f *fakeTransactor) TransactWriteItems(ctx context.Context, in *dynamodb.TransactWriteItemsInput, _ ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error) {
	f.calls = append(f.calls, len(in.TransactItems))
	if f.err != nil {
		return nil, f.err
	}
	return &dynamodb.TransactWriteItemsOutput{}, nil
}

func bufferWrites(tx *transaction, n int) {
	for i := 0; i < n; i++ {
		tx.buffer(types.TransactWriteItem{})
	}
}

func TestCommitFlushesOneTransaction(t *testing.T) {
	ctx := context.Background()
	client := &fakeTransactor{}
	tx := &transaction{client: client}
	bufferWrites(tx, transactLimit)

	affected, err := tx.Commit(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(transactLimit), affected)
	require.Len(t, client.calls, 1)
	assert.Equal(t, transactLimit, client.calls[0])
}

func TestCommitRejectsOversizedWriteSet(t *testing.T) {
	ctx := context.Background()
	client := &fakeTransactor{}
	tx := &transaction{client: client}
	bufferWrites(tx, transactLimit+1)

	_, err := tx.Commit(ctx)
	require.Error(t, err)
	appErr := pkgerrors.GetAppError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.ErrorTypeStore, appErr.Type)

	// Nothing reached the table, so no partial write survives
	assert.Empty(t, client.calls)
}

func TestCommitEmptyWriteSet(t *testing.T) {
	ctx := context.Background()
	client := &fakeTransactor{}
	tx := &transaction{client: client}

	affected, err := tx.Commit(ctx)
	require.NoError(t, err)
	assert.Zero(t, affected)
	assert.Empty(t, client.calls)
}

func TestCommitPropagatesClientError(t *testing.T) {
	ctx := context.Background()
	client := &fakeTransactor{err: errors.New("throttled")}
	tx := &transaction{client: client}
	bufferWrites(tx, 3)

	_, err := tx.Commit(ctx)
	require.Error(t, err)
	appErr := pkgerrors.GetAppError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.ErrorTypeStore, appErr.Type)
}

func TestRollbackDropsBufferedWrites(t *testing.T) {
	ctx := context.Background()
	client := &fakeTransactor{}
	tx := &transaction{client: client}
	bufferWrites(tx, 4)

	require.NoError(t, tx.Rollback(ctx))

	affected, err := tx.Commit(ctx)
	require.NoError(t, err)
	assert.Zero(t, affected)
	assert.Empty(t, client.calls)
}
