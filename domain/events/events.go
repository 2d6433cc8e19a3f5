package events

import (
	"time"

	"arbor/domain/core/valueobjects"
)

// Source identifies this service as the origin of published events
const Source = "arbor.hierarchy"

// DomainEvent is the base interface for all domain events
// Events represent something that has happened in the past
type DomainEvent interface {
	GetAggregateID() string
	GetEventType() string
	GetTimestamp() time.Time
	GetVersion() int
}

// BaseEvent provides common event fields
type BaseEvent struct {
	AggregateID string    `json:"aggregate_id"`
	EventType   string    `json:"event_type"`
	Timestamp   time.Time `json:"timestamp"`
	Version     int       `json:"version"`
}

func (e BaseEvent) GetAggregateID() string  { return e.AggregateID }
func (e BaseEvent) GetEventType() string    { return e.EventType }
func (e BaseEvent) GetTimestamp() time.Time { return e.Timestamp }
func (e BaseEvent) GetVersion() int         { return e.Version }

// NodeCreated is raised when a new node enters the hierarchy
type NodeCreated struct {
	BaseEvent
	NodeID   valueobjects.NodeID  `json:"node_id"`
	Name     string               `json:"name"`
	ParentID *valueobjects.NodeID `json:"parent_id,omitempty"`
}

// NewNodeCreated creates a NodeCreated event
func NewNodeCreated(nodeID valueobjects.NodeID, name string, parentID *valueobjects.NodeID, timestamp time.Time) NodeCreated {
	return NodeCreated{
		BaseEvent: BaseEvent{
			AggregateID: nodeID.String(),
			EventType:   "node.created",
			Timestamp:   timestamp,
			Version:     1,
		},
		NodeID:   nodeID,
		Name:     name,
		ParentID: parentID,
	}
}

// NodeRenamed is raised when a node's name changes
type NodeRenamed struct {
	BaseEvent
	NodeID  valueobjects.NodeID `json:"node_id"`
	OldName string              `json:"old_name"`
	NewName string              `json:"new_name"`
}

// NewNodeRenamed creates a NodeRenamed event
func NewNodeRenamed(nodeID valueobjects.NodeID, oldName, newName string, timestamp time.Time) NodeRenamed {
	return NodeRenamed{
		BaseEvent: BaseEvent{
			AggregateID: nodeID.String(),
			EventType:   "node.renamed",
			Timestamp:   timestamp,
			Version:     1,
		},
		NodeID:  nodeID,
		OldName: oldName,
		NewName: newName,
	}
}

// NodeMoved is raised when a node is re-parented
type NodeMoved struct {
	BaseEvent
	NodeID    valueobjects.NodeID  `json:"node_id"`
	OldParent *valueobjects.NodeID `json:"old_parent,omitempty"`
	NewParent *valueobjects.NodeID `json:"new_parent,omitempty"`
}

// NewNodeMoved creates a NodeMoved event
func NewNodeMoved(nodeID valueobjects.NodeID, oldParent, newParent *valueobjects.NodeID, timestamp time.Time) NodeMoved {
	return NodeMoved{
		BaseEvent: BaseEvent{
			AggregateID: nodeID.String(),
			EventType:   "node.moved",
			Timestamp:   timestamp,
			Version:     1,
		},
		NodeID:    nodeID,
		OldParent: oldParent,
		NewParent: newParent,
	}
}

// NodeDeleted is raised when a node and its subtree are removed
type NodeDeleted struct {
	BaseEvent
	NodeID       valueobjects.NodeID `json:"node_id"`
	Name         string              `json:"name"`
	RemovedCount int                 `json:"removed_count"`
}

// NewNodeDeleted creates a NodeDeleted event. RemovedCount includes the
// node itself and every removed descendant.
func NewNodeDeleted(nodeID valueobjects.NodeID, name string, removedCount int, timestamp time.Time) NodeDeleted {
	return NodeDeleted{
		BaseEvent: BaseEvent{
			AggregateID: nodeID.String(),
			EventType:   "node.deleted",
			Timestamp:   timestamp,
			Version:     1,
		},
		NodeID:       nodeID,
		Name:         name,
		RemovedCount: removedCount,
	}
}
