package handlers

import (
	"context"
	"fmt"

	"arbor/application/commands"
	"arbor/application/commands/bus"
	"arbor/application/services"
)

// DeleteNodeHandler handles DeleteNodeCommand
type DeleteNodeHandler struct {
	hierarchy *services.HierarchyService
}

// NewDeleteNodeHandler creates a new handler instance
func NewDeleteNodeHandler(hierarchy *services.HierarchyService) *DeleteNodeHandler {
	return &DeleteNodeHandler{hierarchy: hierarchy}
}

// Handle executes the cascade delete command
func (h *DeleteNodeHandler) Handle(ctx context.Context, cmd bus.Command) error {
	deleteCmd, ok := cmd.(commands.DeleteNodeCommand)
	if !ok {
		return fmt.Errorf("unexpected command type %T", cmd)
	}
	_, err := h.hierarchy.DeleteNode(ctx, deleteCmd)
	return err
}
