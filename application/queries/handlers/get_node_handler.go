// Package handlers adapts queries from the bus onto the hierarchy
// service.
package handlers

import (
	"context"
	"fmt"

	"arbor/application/queries"
	"arbor/application/queries/bus"
	"arbor/application/services"
)

// GetNodeHandler handles GetNodeQuery
type GetNodeHandler struct {
	hierarchy *services.HierarchyService
}

// NewGetNodeHandler creates a new handler instance
func NewGetNodeHandler(hierarchy *services.HierarchyService) *GetNodeHandler {
	return &GetNodeHandler{hierarchy: hierarchy}
}

// Handle resolves a node with its subtree expanded
func (h *GetNodeHandler) Handle(ctx context.Context, query bus.Query) (interface{}, error) {
	getQuery, ok := query.(queries.GetNodeQuery)
	if !ok {
		return nil, fmt.Errorf("unexpected query type %T", query)
	}
	return h.hierarchy.GetNode(ctx, getQuery)
}
