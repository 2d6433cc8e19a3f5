// Package handlers adapts commands from the bus onto the hierarchy
// service.
package handlers

import (
	"context"
	"fmt"

	"arbor/application/commands"
	"arbor/application/commands/bus"
	"arbor/application/services"
)

// CreateNodeHandler handles CreateNodeCommand
type CreateNodeHandler struct {
	hierarchy *services.HierarchyService
}

// NewCreateNodeHandler creates a new handler instance
func NewCreateNodeHandler(hierarchy *services.HierarchyService) *CreateNodeHandler {
	return &CreateNodeHandler{hierarchy: hierarchy}
}

// Handle executes the create node command
func (h *CreateNodeHandler) Handle(ctx context.Context, cmd bus.Command) error {
	createCmd, ok := cmd.(commands.CreateNodeCommand)
	if !ok {
		return fmt.Errorf("unexpected command type %T", cmd)
	}
	_, err := h.hierarchy.CreateNode(ctx, createCmd)
	return err
}
