// Package queries holds the read-side query definitions and the view
// models they produce.
package queries

import "time"

// NodeView is the read model for a single node. Children carries the
// fully expanded subtree when the view was built deep, or stays empty
// for shallow listings.
type NodeView struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	ParentID  *string     `json:"parent_id,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
	Children  []*NodeView `json:"children"`
}

// SnapshotVersion identifies the export format
const SnapshotVersion = "1.0"

// TreeSnapshot is a point-in-time export of the entire hierarchy
type TreeSnapshot struct {
	Version    string      `json:"version"`
	ExportedAt time.Time   `json:"exported_at"`
	TotalNodes int         `json:"total_nodes"`
	Roots      []*NodeView `json:"roots"`
}
