package commands

import (
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
)

// UpdateNodeCommand represents the command to update a node's name and,
// optionally, its parent. ChangeParent distinguishes "leave the parent
// alone" from "move to the root level" (NewParentID nil).
type UpdateNodeCommand struct {
	NodeID       string  `json:"node_id" validate:"required,uuid"`
	Name         string  `json:"name" validate:"required,min=1,max=50"`
	NewParentID  *string `json:"new_parent_id,omitempty" validate:"omitempty,uuid"`
	ChangeParent bool    `json:"change_parent,omitempty"`
}

// Validate validates the command
func (cmd UpdateNodeCommand) Validate() error {
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
	if cmd.ChangeParent && cmd.NewParentID != nil && *cmd.NewParentID != "" {
		if _, err := uuid.Parse(*cmd.NewParentID); err != nil {
			return errors.New("new parent ID must be a valid UUID")
		}
	}
	return nil
}
