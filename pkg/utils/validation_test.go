package utils_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"arbor/pkg/utils"
)

type createPayload struct {
	Name     string  `json:"name" validate:"required,min=1,max=50"`
	ParentID *string `json:"parent_id" validate:"omitempty,uuid"`
}

func TestValidateStruct(t *testing.T) {
	t.Run("accepts a valid payload", func(t *testing.T) {
		err := utils.ValidateStruct(createPayload{Name: "Engineering"})
		assert.NoError(t, err)
	})

	t.Run("reports missing fields by their JSON name", func(t *testing.T) {
		err := utils.ValidateStruct(createPayload{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "name is required")
	})

	t.Run("rejects a malformed uuid", func(t *testing.T) {
		bad := "not-a-uuid"
		err := utils.ValidateStruct(createPayload{Name: "Engineering", ParentID: &bad})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "parent_id must be a valid UUID")
	})

	t.Run("enforces length bounds", func(t *testing.T) {
		err := utils.ValidateStruct(createPayload{Name: strings.Repeat("x", 51)})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "name must be at most 50 characters long")
	})

	t.Run("joins multiple failures into one message", func(t *testing.T) {
		bad := "nope"
		err := utils.ValidateStruct(createPayload{ParentID: &bad})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "name is required")
		assert.Contains(t, err.Error(), "parent_id must be a valid UUID")
	})
}
