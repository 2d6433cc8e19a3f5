package handlers

import (
	"context"
	"fmt"

	"arbor/application/queries"
	"arbor/application/queries/bus"
	"arbor/application/services"
)

// ListRootsHandler handles ListRootsQuery
type ListRootsHandler struct {
	hierarchy *services.HierarchyService
}

// NewListRootsHandler creates a new handler instance
func NewListRootsHandler(hierarchy *services.HierarchyService) *ListRootsHandler {
	return &ListRootsHandler{hierarchy: hierarchy}
}

// Handle lists all root nodes
func (h *ListRootsHandler) Handle(ctx context.Context, query bus.Query) (interface{}, error) {
	if _, ok := query.(queries.ListRootsQuery); !ok {
		return nil, fmt.Errorf("unexpected query type %T", query)
	}
	return h.hierarchy.ListRoots(ctx)
}
