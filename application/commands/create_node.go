// Package commands holds the write-side command definitions. Each
// command carries raw request data and validates its own shape; the
// hierarchy service owns the business rules.
package commands

import (
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
)

// MaxNameLength is the longest allowed node name in runes
const MaxNameLength = 50

// CreateNodeCommand represents the command to create a new node. The
// node id is minted by the caller so a create stays idempotent across
// retries.
type CreateNodeCommand struct {
	NodeID   string  `json:"node_id" validate:"required,uuid"`
	Name     string  `json:"name" validate:"required,min=1,max=50"`
	ParentID *string `json:"parent_id" validate:"omitempty,uuid"`
}

// Validate validates the command
func (cmd CreateNodeCommand) Validate() error {
	if _, err := uuid.Parse(cmd.NodeID); err != nil {
		return errors.New("node ID must be a valid UUID")
	}
	name := strings.TrimSpace(cmd.Name)
	if name == "" {
		return errors.New("name is required")
	}
	if utf8.RuneCountInString(name) > MaxNameLength {
		return errors.New("name exceeds maximum length")
	}
	if cmd.ParentID != nil && *cmd.ParentID != "" {
		if _, err := uuid.Parse(*cmd.ParentID); err != nil {
			return errors.New("parent ID must be a valid UUID")
		}
	}
	return nil
}
