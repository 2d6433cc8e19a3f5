package memory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"arbor/domain/core/entities"
	"arbor/domain/core/valueobjects"
	"arbor/infrastructure/persistence/memory"
	pkgerrors "arbor/pkg/errors"
)

func newNode(t *testing.T, name string, parentID *valueobjects.NodeID) *entities.Node {
	t.Helper()
	nodeName, err := valueobjects.NewNodeName(name)
	require.NoError(t, err)
	return entities.NewNode(nodeName, parentID)
}

func TestNodeStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	nodes := store.NodeStore()

	root := newNode(t, "Root", nil)
	require.NoError(t, nodes.Add(ctx, root))

	rootID := root.ID()
	child := newNode(t, "Child", &rootID)
	require.NoError(t, nodes.Add(ctx, child))

	got, err := nodes.FindByID(ctx, child.ID())
	require.NoError(t, err)
	assert.Equal(t, "Child", got.Name().String())
	require.NotNil(t, got.ParentID())
	assert.True(t, got.ParentID().Equals(rootID))

	exists, err := nodes.Exists(ctx, root.ID())
	require.NoError(t, err)
	assert.True(t, exists)

	_, err = nodes.FindByID(ctx, valueobjects.NewNodeID())
	assert.True(t, pkgerrors.IsNotFound(err))
}

func TestFindChildrenSortedByName(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	nodes := store.NodeStore()

	root := newNode(t, "Root", nil)
	require.NoError(t, nodes.Add(ctx, root))
	rootID := root.ID()

	for _, name := range []string{"Charlie", "Alpha", "Bravo"} {
		require.NoError(t, nodes.Add(ctx, newNode(t, name, &rootID)))
	}

	children, err := nodes.FindChildren(ctx, rootID)
	require.NoError(t, err)
	require.Len(t, children, 3)
	assert.Equal(t, "Alpha", children[0].Name().String())
	assert.Equal(t, "Bravo", children[1].Name().String())
	assert.Equal(t, "Charlie", children[2].Name().String())
}

func TestFindByNameAndParent(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	nodes := store.NodeStore()

	root := newNode(t, "Shared", nil)
	require.NoError(t, nodes.Add(ctx, root))
	rootID := root.ID()
	require.NoError(t, nodes.Add(ctx, newNode(t, "Shared", &rootID)))

	t.Run("nil parent matches only roots", func(t *testing.T) {
		got, err := nodes.FindByNameAndParent(ctx, root.Name(), nil)
		require.NoError(t, err)
		assert.True(t, got.ID().Equals(root.ID()))
	})

	t.Run("parent scoped lookup", func(t *testing.T) {
		got, err := nodes.FindByNameAndParent(ctx, root.Name(), &rootID)
		require.NoError(t, err)
		require.NotNil(t, got.ParentID())
		assert.True(t, got.ParentID().Equals(rootID))
	})

	t.Run("miss reports not found", func(t *testing.T) {
		name, err := valueobjects.NewNodeName("No Such Name")
		require.NoError(t, err)
		_, err = nodes.FindByNameAndParent(ctx, name, nil)
		assert.True(t, pkgerrors.IsNotFound(err))
	})
}

func TestAncestorIDs(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	nodes := store.NodeStore()

	a := newNode(t, "A", nil)
	require.NoError(t, nodes.Add(ctx, a))
	aID := a.ID()
	b := newNode(t, "B", &aID)
	require.NoError(t, nodes.Add(ctx, b))
	bID := b.ID()
	c := newNode(t, "C", &bID)
	require.NoError(t, nodes.Add(ctx, c))

	t.Run("nearest ancestor first", func(t *testing.T) {
		chain, err := nodes.AncestorIDs(ctx, c.ID())
		require.NoError(t, err)
		require.Len(t, chain, 2)
		assert.True(t, chain[0].Equals(bID))
		assert.True(t, chain[1].Equals(aID))
	})

	t.Run("roots have no ancestors", func(t *testing.T) {
		chain, err := nodes.AncestorIDs(ctx, aID)
		require.NoError(t, err)
		assert.Empty(t, chain)
	})

	t.Run("a missing node has no ancestors", func(t *testing.T) {
		ghost := newNode(t, "Ghost", nil)

		chain, err := nodes.AncestorIDs(ctx, ghost.ID())
		require.NoError(t, err)
		assert.Empty(t, chain)
	})

	t.Run("dangling parent terminates the chain", func(t *testing.T) {
		require.NoError(t, nodes.Remove(ctx, bID))

		chain, err := nodes.AncestorIDs(ctx, c.ID())
		require.NoError(t, err)
		assert.Empty(t, chain)
	})
}

func TestTransactionCommit(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()

	tx, err := store.UnitOfWork().Begin(ctx)
	require.NoError(t, err)

	root := newNode(t, "Root", nil)
	require.NoError(t, tx.Nodes().Add(ctx, root))
	rootID := root.ID()
	require.NoError(t, tx.Nodes().Add(ctx, newNode(t, "Child", &rootID)))

	affected, err := tx.Commit(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), affected)

	exists, err := store.NodeStore().Exists(ctx, rootID)
	require.NoError(t, err)
	assert.True(t, exists)

	_, err = tx.Commit(ctx)
	assert.Error(t, err)
}

func TestTransactionRollback(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	nodes := store.NodeStore()

	kept := newNode(t, "Kept", nil)
	require.NoError(t, nodes.Add(ctx, kept))

	tx, err := store.UnitOfWork().Begin(ctx)
	require.NoError(t, err)

	doomed := newNode(t, "Doomed", nil)
	require.NoError(t, tx.Nodes().Add(ctx, doomed))
	require.NoError(t, tx.Nodes().Remove(ctx, kept.ID()))
	require.NoError(t, tx.Rollback(ctx))

	exists, err := nodes.Exists(ctx, kept.ID())
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = nodes.Exists(ctx, doomed.ID())
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestRemoveBatch(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()

	tx, err := store.UnitOfWork().Begin(ctx)
	require.NoError(t, err)

	a := newNode(t, "A", nil)
	b := newNode(t, "B", nil)
	require.NoError(t, tx.Nodes().Add(ctx, a))
	require.NoError(t, tx.Nodes().Add(ctx, b))
	_, err = tx.Commit(ctx)
	require.NoError(t, err)

	tx, err = store.UnitOfWork().Begin(ctx)
	require.NoError(t, err)
	// Missing ids are skipped, not errors
	require.NoError(t, tx.Nodes().RemoveBatch(ctx, []valueobjects.NodeID{
		a.ID(), b.ID(), valueobjects.NewNodeID(),
	}))
	affected, err := tx.Commit(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), affected)
}
