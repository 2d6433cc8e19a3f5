package commands

import (
	"errors"

	"github.com/google/uuid"
)

// MoveNodeCommand represents the command to re-parent a node.
// A nil NewParentID moves the node to the root level.
type MoveNodeCommand struct {
	NodeID      string  `json:"node_id" validate:"required,uuid"`
	NewParentID *string `json:"new_parent_id" validate:"omitempty,uuid"`
}

// Validate validates the command
func (cmd MoveNodeCommand) Validate() error {
	if _, err := uuid.Parse(cmd.NodeID); err != nil {
		return errors.New("node ID must be a valid UUID")
	}
	if cmd.NewParentID != nil && *cmd.NewParentID != "" {
		if _, err := uuid.Parse(*cmd.NewParentID); err != nil {
			return errors.New("new parent ID must be a valid UUID")
		}
	}
	return nil
}
