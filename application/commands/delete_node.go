package commands

import (
	"errors"

	"github.com/google/uuid"
)

// DeleteNodeCommand represents the command to delete a node together
// with its entire subtree
type DeleteNodeCommand struct {
	NodeID string `json:"node_id" validate:"required,uuid"`
}

// Validate validates the command
func (cmd DeleteNodeCommand) Validate() error {
	if _, err := uuid.Parse(cmd.NodeID); err != nil {
		return errors.New("node ID must be a valid UUID")
	}
	return nil
}
