package handlers

import (
	"context"
	"fmt"

	"arbor/application/commands"
	"arbor/application/commands/bus"
	"arbor/application/services"
)

// UpdateNodeHandler handles UpdateNodeCommand
type UpdateNodeHandler struct {
	hierarchy *services.HierarchyService
}

// NewUpdateNodeHandler creates a new handler instance
func NewUpdateNodeHandler(hierarchy *services.HierarchyService) *UpdateNodeHandler {
	return &UpdateNodeHandler{hierarchy: hierarchy}
}

// Handle executes the update command
func (h *UpdateNodeHandler) Handle(ctx context.Context, cmd bus.Command) error {
	updateCmd, ok := cmd.(commands.UpdateNodeCommand)
	if !ok {
		return fmt.Errorf("unexpected command type %T", cmd)
	}
	_, err := h.hierarchy.UpdateNode(ctx, updateCmd)
	return err
}
