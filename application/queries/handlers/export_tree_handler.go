package handlers

import (
	"context"
	"fmt"

	"arbor/application/queries"
	"arbor/application/queries/bus"
	"arbor/application/services"
)

// ExportTreeHandler handles ExportTreeQuery
type ExportTreeHandler struct {
	hierarchy *services.HierarchyService
}

// NewExportTreeHandler creates a new handler instance
func NewExportTreeHandler(hierarchy *services.HierarchyService) *ExportTreeHandler {
	return &ExportTreeHandler{hierarchy: hierarchy}
}

// Handle builds a full snapshot of the hierarchy
func (h *ExportTreeHandler) Handle(ctx context.Context, query bus.Query) (interface{}, error) {
	if _, ok := query.(queries.ExportTreeQuery); !ok {
		return nil, fmt.Errorf("unexpected query type %T", query)
	}
	return h.hierarchy.ExportTree(ctx)
}
