package valueobjects_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"arbor/domain/core/valueobjects"
)

func TestNewNodeIDFromString(t *testing.T) {
	t.Run("accepts a uuid", func(t *testing.T) {
		raw := uuid.New().String()
		id, err := valueobjects.NewNodeIDFromString(raw)
		require.NoError(t, err)
		assert.Equal(t, raw, id.String())
		assert.False(t, id.IsZero())
	})

	t.Run("rejects empty input", func(t *testing.T) {
		_, err := valueobjects.NewNodeIDFromString("")
		assert.Error(t, err)
	})

	t.Run("rejects a non-uuid", func(t *testing.T) {
		_, err := valueobjects.NewNodeIDFromString("not-a-uuid")
		assert.Error(t, err)
	})
}

func TestParseOptionalNodeID(t *testing.T) {
	t.Run("nil means root", func(t *testing.T) {
		id, err := valueobjects.ParseOptionalNodeID(nil)
		require.NoError(t, err)
		assert.Nil(t, id)
	})

	t.Run("empty string means root", func(t *testing.T) {
		empty := ""
		id, err := valueobjects.ParseOptionalNodeID(&empty)
		require.NoError(t, err)
		assert.Nil(t, id)
	})

	t.Run("parses a uuid", func(t *testing.T) {
		raw := uuid.New().String()
		id, err := valueobjects.ParseOptionalNodeID(&raw)
		require.NoError(t, err)
		require.NotNil(t, id)
		assert.Equal(t, raw, id.String())
	})

	t.Run("rejects garbage", func(t *testing.T) {
		bad := "nope"
		_, err := valueobjects.ParseOptionalNodeID(&bad)
		assert.Error(t, err)
	})
}

func TestOptionalEquals(t *testing.T) {
	a := valueobjects.NewNodeID()
	b := valueobjects.NewNodeID()
	aCopy, err := valueobjects.NewNodeIDFromString(a.String())
	require.NoError(t, err)

	assert.True(t, valueobjects.OptionalEquals(nil, nil))
	assert.True(t, valueobjects.OptionalEquals(&a, &aCopy))
	assert.False(t, valueobjects.OptionalEquals(&a, &b))
	assert.False(t, valueobjects.OptionalEquals(&a, nil))
	assert.False(t, valueobjects.OptionalEquals(nil, &b))
}

func TestNodeName(t *testing.T) {
	t.Run("trims surrounding whitespace", func(t *testing.T) {
		name, err := valueobjects.NewNodeName("  Engineering  ")
		require.NoError(t, err)
		assert.Equal(t, "Engineering", name.String())
	})

	t.Run("rejects empty names", func(t *testing.T) {
		_, err := valueobjects.NewNodeName("   ")
		assert.Error(t, err)
	})

	t.Run("rejects names over the limit", func(t *testing.T) {
		long := make([]rune, valueobjects.MaxNodeNameLength+1)
		for i := range long {
			long[i] = 'x'
		}
		_, err := valueobjects.NewNodeName(string(long))
		assert.Error(t, err)
	})

	t.Run("counts runes not bytes", func(t *testing.T) {
		name := ""
		for i := 0; i < valueobjects.MaxNodeNameLength; i++ {
			name += "日"
		}
		_, err := valueobjects.NewNodeName(name)
		assert.NoError(t, err)
	})
}
