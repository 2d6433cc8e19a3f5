package entities_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"arbor/domain/core/entities"
	"arbor/domain/core/valueobjects"
)

func mustName(t *testing.T, s string) valueobjects.NodeName {
	t.Helper()
	name, err := valueobjects.NewNodeName(s)
	require.NoError(t, err)
	return name
}

func TestNewNode(t *testing.T) {
	t.Run("roots have no parent", func(t *testing.T) {
		node := entities.NewNode(mustName(t, "Root"), nil)

		assert.False(t, node.ID().IsZero())
		assert.True(t, node.IsRoot())
		assert.Equal(t, node.CreatedAt(), node.UpdatedAt())

		events := node.GetUncommittedEvents()
		require.Len(t, events, 1)
		assert.Equal(t, "node.created", events[0].GetEventType())
	})

	t.Run("children carry the parent reference", func(t *testing.T) {
		parentID := valueobjects.NewNodeID()
		node := entities.NewNode(mustName(t, "Child"), &parentID)

		assert.False(t, node.IsRoot())
		require.NotNil(t, node.ParentID())
		assert.True(t, node.ParentID().Equals(parentID))
	})
}

func TestNodeRename(t *testing.T) {
	node := entities.NewNode(mustName(t, "Before"), nil)
	node.MarkEventsAsCommitted()

	node.Rename(mustName(t, "After"))
	assert.Equal(t, "After", node.Name().String())

	events := node.GetUncommittedEvents()
	require.Len(t, events, 1)
	assert.Equal(t, "node.renamed", events[0].GetEventType())

	t.Run("same name is a no-op", func(t *testing.T) {
		node.MarkEventsAsCommitted()
		node.Rename(mustName(t, "After"))
		assert.Empty(t, node.GetUncommittedEvents())
	})
}

func TestNodeMoveTo(t *testing.T) {
	node := entities.NewNode(mustName(t, "Mover"), nil)
	node.MarkEventsAsCommitted()

	target := valueobjects.NewNodeID()
	node.MoveTo(&target)
	require.NotNil(t, node.ParentID())
	assert.True(t, node.ParentID().Equals(target))

	events := node.GetUncommittedEvents()
	require.Len(t, events, 1)
	assert.Equal(t, "node.moved", events[0].GetEventType())

	t.Run("same parent is a no-op", func(t *testing.T) {
		node.MarkEventsAsCommitted()
		same := target
		node.MoveTo(&same)
		assert.Empty(t, node.GetUncommittedEvents())
	})

	t.Run("back to root", func(t *testing.T) {
		node.MarkEventsAsCommitted()
		node.MoveTo(nil)
		assert.True(t, node.IsRoot())
		assert.Len(t, node.GetUncommittedEvents(), 1)
	})
}

func TestUser(t *testing.T) {
	t.Run("hashes the password", func(t *testing.T) {
		user, err := entities.NewUser("alice", "sup3r-secret", entities.RoleMember)
		require.NoError(t, err)

		assert.NotEmpty(t, user.ID())
		assert.Equal(t, "alice", user.Username())
		assert.True(t, user.CheckPassword("sup3r-secret"))
		assert.False(t, user.CheckPassword("wrong"))
	})

	t.Run("rejects a short password", func(t *testing.T) {
		_, err := entities.NewUser("alice", "short", entities.RoleMember)
		assert.Error(t, err)
	})

	t.Run("rejects an invalid role", func(t *testing.T) {
		_, err := entities.NewUser("alice", "sup3r-secret", entities.Role("owner"))
		assert.Error(t, err)
	})
}
