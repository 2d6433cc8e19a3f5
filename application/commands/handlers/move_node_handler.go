package handlers

import (
	"context"
	"fmt"

	"arbor/application/commands"
	"arbor/application/commands/bus"
	"arbor/application/services"
)

// MoveNodeHandler handles MoveNodeCommand
type MoveNodeHandler struct {
	hierarchy *services.HierarchyService
}

// NewMoveNodeHandler creates a new handler instance
func NewMoveNodeHandler(hierarchy *services.HierarchyService) *MoveNodeHandler {
	return &MoveNodeHandler{hierarchy: hierarchy}
}

// Handle executes the move command
func (h *MoveNodeHandler) Handle(ctx context.Context, cmd bus.Command) error {
	moveCmd, ok := cmd.(commands.MoveNodeCommand)
	if !ok {
		return fmt.Errorf("unexpected command type %T", cmd)
	}
	_, err := h.hierarchy.MoveNode(ctx, moveCmd)
	return err
}
