package queries

import (
	"errors"

	"github.com/google/uuid"
)

// GetNodeQuery fetches a node with its subtree fully expanded
type GetNodeQuery struct {
	NodeID string `json:"node_id" validate:"required,uuid"`
}

// Validate validates the query
func (q GetNodeQuery) Validate() error {
	if _, err := uuid.Parse(q.NodeID); err != nil {
		return errors.New("node ID must be a valid UUID")
	}
	return nil
}
