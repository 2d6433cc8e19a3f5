package entities

import (
	"time"

	"arbor/domain/core/valueobjects"
	"arbor/domain/events"
)

// Node is an entry in the hierarchy: a named node with an optional parent.
// Children are derived from other nodes' parent references and are never
// stored on the entity itself.
type Node struct {
	// Private fields ensure encapsulation
	id        valueobjects.NodeID
	name      valueobjects.NodeName
	parentID  *valueobjects.NodeID
	createdAt time.Time
	updatedAt time.Time

	// Domain events that occurred during this operation
	events []events.DomainEvent
}

// NewNode creates a new node with a server-assigned id and creation timestamp.
// Sibling uniqueness and parent existence are checked by the hierarchy
// service against the store; the entity only guards its own invariants.
func NewNode(name valueobjects.NodeName, parentID *valueobjects.NodeID) *Node {
	return NewNodeWithID(valueobjects.NewNodeID(), name, parentID)
}

// NewNodeWithID creates a new node under a caller-supplied id. Used when
// the transport layer mints the id before dispatching the command.
func NewNodeWithID(id valueobjects.NodeID, name valueobjects.NodeName, parentID *valueobjects.NodeID) *Node {
	now := time.Now().UTC()
	node := &Node{
		id:        id,
		name:      name,
		parentID:  parentID,
		createdAt: now,
		updatedAt: now,
		events:    []events.DomainEvent{},
	}

	node.addEvent(events.NewNodeCreated(node.id, name.String(), parentID, now))

	return node
}

// ReconstructNode rebuilds a node from store data with preserved timestamps
func ReconstructNode(
	id valueobjects.NodeID,
	name valueobjects.NodeName,
	parentID *valueobjects.NodeID,
	createdAt, updatedAt time.Time,
) *Node {
	return &Node{
		id:        id,
		name:      name,
		parentID:  parentID,
		createdAt: createdAt,
		updatedAt: updatedAt,
		events:    []events.DomainEvent{},
	}
}

// ID returns the node's unique identifier
func (n *Node) ID() valueobjects.NodeID {
	return n.id
}

// Name returns the node's name
func (n *Node) Name() valueobjects.NodeName {
	return n.name
}

// ParentID returns the node's parent reference, nil for roots
func (n *Node) ParentID() *valueobjects.NodeID {
	return n.parentID
}

// IsRoot reports whether the node has no parent
func (n *Node) IsRoot() bool {
	return n.parentID == nil
}

// CreatedAt returns when the node was created. Set once, immutable.
func (n *Node) CreatedAt() time.Time {
	return n.createdAt
}

// UpdatedAt returns when the node was last changed
func (n *Node) UpdatedAt() time.Time {
	return n.updatedAt
}

// Rename changes the node's name
func (n *Node) Rename(name valueobjects.NodeName) {
	if n.name.Equals(name) {
		return
	}

	oldName := n.name
	n.name = name
	n.updatedAt = time.Now().UTC()

	n.addEvent(events.NewNodeRenamed(n.id, oldName.String(), name.String(), n.updatedAt))
}

// MoveTo re-parents the node. Cycle and uniqueness validation happens in
// the hierarchy service before this is called.
func (n *Node) MoveTo(parentID *valueobjects.NodeID) {
	if valueobjects.OptionalEquals(n.parentID, parentID) {
		return
	}

	oldParent := n.parentID
	n.parentID = parentID
	n.updatedAt = time.Now().UTC()

	n.addEvent(events.NewNodeMoved(n.id, oldParent, parentID, n.updatedAt))
}

// GetUncommittedEvents returns all uncommitted domain events
func (n *Node) GetUncommittedEvents() []events.DomainEvent {
	return n.events
}

// MarkEventsAsCommitted clears the uncommitted events
func (n *Node) MarkEventsAsCommitted() {
	n.events = []events.DomainEvent{}
}

// addEvent adds a domain event to the uncommitted list
func (n *Node) addEvent(event events.DomainEvent) {
	n.events = append(n.events, event)
}
