// Package services contains the application services that orchestrate
// domain entities, stores and event publishing.
package services

import (
	"context"

	"go.uber.org/zap"

	"arbor/application/commands"
	"arbor/application/ports"
	"arbor/application/queries"
	"arbor/domain/core/entities"
	"arbor/domain/core/valueobjects"
	"arbor/domain/events"
	pkgerrors "arbor/pkg/errors"
	"arbor/pkg/utils"
)

// HierarchyService owns every mutation and read of the node tree.
// Mutations run inside a unit of work; reads go straight to the store.
type HierarchyService struct {
	uow       ports.UnitOfWork
	nodes     ports.NodeStore
	publisher ports.EventPublisher
	logger    *zap.Logger
}

// NewHierarchyService creates a new hierarchy service
func NewHierarchyService(
	uow ports.UnitOfWork,
	nodes ports.NodeStore,
	publisher ports.EventPublisher,
	logger *zap.Logger,
) *HierarchyService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HierarchyService{
		uow:       uow,
		nodes:     nodes,
		publisher: publisher,
		logger:    logger,
	}
}

// CreateNode creates a node under the given parent (nil parent means
// root level). Fails when the parent is missing or a sibling already
// carries the name.
func (s *HierarchyService) CreateNode(ctx context.Context, cmd commands.CreateNodeCommand) (*queries.NodeView, error) {
	nodeID, err := valueobjects.NewNodeIDFromString(cmd.NodeID)
	if err != nil {
		return nil, err
	}
	name, err := valueobjects.NewNodeName(cmd.Name)
	if err != nil {
		return nil, err
	}
	parentID, err := valueobjects.ParseOptionalNodeID(cmd.ParentID)
	if err != nil {
		return nil, err
	}

	tx, err := s.uow.Begin(ctx)
	if err != nil {
		return nil, pkgerrors.NewStoreError("begin", err)
	}
	defer tx.Rollback(ctx)

	store := tx.Nodes()

	if parentID != nil {
		exists, err := store.Exists(ctx, *parentID)
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, pkgerrors.NewNotFoundError("parent node")
		}
	}

	if err := s.ensureNameFree(ctx, store, name, parentID, nil); err != nil {
		return nil, err
	}

	node := entities.NewNodeWithID(nodeID, name, parentID)
	if err := store.Add(ctx, node); err != nil {
		return nil, err
	}
	if _, err := tx.Commit(ctx); err != nil {
		return nil, pkgerrors.NewStoreError("commit", err)
	}

	s.publishEvents(ctx, node)

	s.logger.Info("node created",
		zap.String("node_id", node.ID().String()),
		zap.String("name", node.Name().String()),
	)
	return newNodeView(node), nil
}

// UpdateNode changes a node's name and, when the command asks for it,
// its parent. A name change re-checks sibling uniqueness under the
// current parent; a parent change runs the full move validation. Both
// commit in one transaction. Updating to the current state is a no-op.
func (s *HierarchyService) UpdateNode(ctx context.Context, cmd commands.UpdateNodeCommand) (*queries.NodeView, error) {
	nodeID, err := valueobjects.NewNodeIDFromString(cmd.NodeID)
	if err != nil {
		return nil, err
	}
	name, err := valueobjects.NewNodeName(cmd.Name)
	if err != nil {
		return nil, err
	}
	var newParentID *valueobjects.NodeID
	if cmd.ChangeParent {
		newParentID, err = valueobjects.ParseOptionalNodeID(cmd.NewParentID)
		if err != nil {
			return nil, err
		}
	}

	tx, err := s.uow.Begin(ctx)
	if err != nil {
		return nil, pkgerrors.NewStoreError("begin", err)
	}
	defer tx.Rollback(ctx)

	store := tx.Nodes()

	node, err := store.FindByID(ctx, nodeID)
	if err != nil {
		return nil, err
	}

	renaming := !node.Name().Equals(name)
	moving := cmd.ChangeParent && !valueobjects.OptionalEquals(node.ParentID(), newParentID)
	if !renaming && !moving {
		return newNodeView(node), nil
	}

	if renaming {
		if err := s.ensureNameFree(ctx, store, name, node.ParentID(), &nodeID); err != nil {
			return nil, err
		}
	}
	if moving {
		cyclic, err := CheckForCycle(ctx, store, nodeID, newParentID)
		if err != nil {
			return nil, err
		}
		if cyclic {
			return nil, pkgerrors.NewCyclicReferenceError(nodeID.String())
		}
		if newParentID != nil {
			exists, err := store.Exists(ctx, *newParentID)
			if err != nil {
				return nil, err
			}
			if !exists {
				return nil, pkgerrors.NewNotFoundError("parent node")
			}
		}
		if err := s.ensureNameFree(ctx, store, name, newParentID, &nodeID); err != nil {
			return nil, err
		}
	}

	node.Rename(name)
	if moving {
		node.MoveTo(newParentID)
	}
	if err := store.Update(ctx, node); err != nil {
		return nil, err
	}
	if _, err := tx.Commit(ctx); err != nil {
		return nil, pkgerrors.NewStoreError("commit", err)
	}

	s.publishEvents(ctx, node)

	return newNodeView(node), nil
}

// MoveNode re-parents a node. Validation runs in a fixed order: the
// cycle check first, then parent existence, then sibling uniqueness,
// and only then the move itself. Moving to the current parent is a
// no-op.
func (s *HierarchyService) MoveNode(ctx context.Context, cmd commands.MoveNodeCommand) (*queries.NodeView, error) {
	nodeID, err := valueobjects.NewNodeIDFromString(cmd.NodeID)
	if err != nil {
		return nil, err
	}
	newParentID, err := valueobjects.ParseOptionalNodeID(cmd.NewParentID)
	if err != nil {
		return nil, err
	}

	tx, err := s.uow.Begin(ctx)
	if err != nil {
		return nil, pkgerrors.NewStoreError("begin", err)
	}
	defer tx.Rollback(ctx)

	store := tx.Nodes()

	node, err := store.FindByID(ctx, nodeID)
	if err != nil {
		return nil, err
	}
	if valueobjects.OptionalEquals(node.ParentID(), newParentID) {
		return newNodeView(node), nil
	}

	cyclic, err := CheckForCycle(ctx, store, nodeID, newParentID)
	if err != nil {
		return nil, err
	}
	if cyclic {
		return nil, pkgerrors.NewCyclicReferenceError(nodeID.String())
	}

	if newParentID != nil {
		exists, err := store.Exists(ctx, *newParentID)
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, pkgerrors.NewNotFoundError("parent node")
		}
	}

	if err := s.ensureNameFree(ctx, store, node.Name(), newParentID, &nodeID); err != nil {
		return nil, err
	}

	node.MoveTo(newParentID)
	if err := store.Update(ctx, node); err != nil {
		return nil, err
	}
	if _, err := tx.Commit(ctx); err != nil {
		return nil, pkgerrors.NewStoreError("commit", err)
	}

	s.publishEvents(ctx, node)

	return newNodeView(node), nil
}

// DeleteNode removes a node and its entire subtree, returning how many
// nodes were removed
func (s *HierarchyService) DeleteNode(ctx context.Context, cmd commands.DeleteNodeCommand) (int64, error) {
	nodeID, err := valueobjects.NewNodeIDFromString(cmd.NodeID)
	if err != nil {
		return 0, err
	}

	tx, err := s.uow.Begin(ctx)
	if err != nil {
		return 0, pkgerrors.NewStoreError("begin", err)
	}
	defer tx.Rollback(ctx)

	store := tx.Nodes()

	node, err := store.FindByID(ctx, nodeID)
	if err != nil {
		return 0, err
	}

	// Collect the subtree breadth-first; children are deleted together
	// with their ancestor in one batch.
	doomed := []valueobjects.NodeID{nodeID}
	for i := 0; i < len(doomed); i++ {
		children, err := store.FindChildren(ctx, doomed[i])
		if err != nil {
			return 0, err
		}
		for _, child := range children {
			doomed = append(doomed, child.ID())
		}
	}

	if err := store.RemoveBatch(ctx, doomed); err != nil {
		return 0, err
	}
	removed, err := tx.Commit(ctx)
	if err != nil {
		return 0, pkgerrors.NewStoreError("commit", err)
	}
	if removed == 0 {
		removed = int64(len(doomed))
	}

	s.publishBatch(ctx, []events.DomainEvent{
		events.NewNodeDeleted(node.ID(), node.Name().String(), int(removed), utils.NowUTC()),
	})

	s.logger.Info("node deleted",
		zap.String("node_id", nodeID.String()),
		zap.Int64("removed", removed),
	)
	return removed, nil
}

// GetNode returns a node with its subtree fully expanded
func (s *HierarchyService) GetNode(ctx context.Context, q queries.GetNodeQuery) (*queries.NodeView, error) {
	nodeID, err := valueobjects.NewNodeIDFromString(q.NodeID)
	if err != nil {
		return nil, err
	}

	node, children, err := s.nodes.FindWithChildren(ctx, nodeID)
	if err != nil {
		return nil, err
	}

	view := newNodeView(node)
	if err := s.expandInto(ctx, view, children, nil); err != nil {
		return nil, err
	}
	return view, nil
}

// ListRoots returns every root node without expanding subtrees
func (s *HierarchyService) ListRoots(ctx context.Context) ([]*queries.NodeView, error) {
	roots, err := s.nodes.FindRoots(ctx)
	if err != nil {
		return nil, err
	}

	views := make([]*queries.NodeView, 0, len(roots))
	for _, root := range roots {
		views = append(views, newNodeView(root))
	}
	return views, nil
}

// ExportTree builds a snapshot of the whole hierarchy with every
// subtree expanded and a total node count
func (s *HierarchyService) ExportTree(ctx context.Context) (*queries.TreeSnapshot, error) {
	roots, err := s.nodes.FindRoots(ctx)
	if err != nil {
		return nil, err
	}

	total := 0
	views := make([]*queries.NodeView, 0, len(roots))
	for _, root := range roots {
		view := newNodeView(root)
		total++
		children, err := s.nodes.FindChildren(ctx, root.ID())
		if err != nil {
			return nil, err
		}
		if err := s.expandInto(ctx, view, children, &total); err != nil {
			return nil, err
		}
		views = append(views, view)
	}

	return &queries.TreeSnapshot{
		Version:    queries.SnapshotVersion,
		ExportedAt: utils.NowUTC(),
		TotalNodes: total,
		Roots:      views,
	}, nil
}

// CheckForCycle reports whether re-parenting node under candidateParent
// would make the node its own ancestor. A nil candidate parent (root)
// can never form a cycle; a node is trivially its own ancestor. A
// dangling parent reference, or a candidate parent that no longer
// exists, terminates the ancestor walk as if the chain had reached a
// root.
func CheckForCycle(ctx context.Context, store ports.NodeStore, nodeID valueobjects.NodeID, candidateParent *valueobjects.NodeID) (bool, error) {
	if candidateParent == nil {
		return false, nil
	}
	if candidateParent.Equals(nodeID) {
		return true, nil
	}

	ancestors, err := store.AncestorIDs(ctx, *candidateParent)
	if err != nil {
		return false, err
	}
	for _, ancestor := range ancestors {
		if ancestor.Equals(nodeID) {
			return true, nil
		}
	}
	return false, nil
}

// ensureNameFree fails with a duplicate-name error when a sibling other
// than exclude already carries name under parentID
func (s *HierarchyService) ensureNameFree(ctx context.Context, store ports.NodeStore, name valueobjects.NodeName, parentID *valueobjects.NodeID, exclude *valueobjects.NodeID) error {
	sibling, err := store.FindByNameAndParent(ctx, name, parentID)
	if err != nil {
		if pkgerrors.IsNotFound(err) {
			return nil
		}
		return err
	}
	if exclude != nil && sibling.ID().Equals(*exclude) {
		return nil
	}
	return pkgerrors.NewDuplicateNameError(name.String())
}

// expandInto attaches children to parent and keeps walking the subtree
// with an explicit worklist, so arbitrarily deep trees never blow the
// stack. When total is non-nil every visited node increments it.
func (s *HierarchyService) expandInto(ctx context.Context, parent *queries.NodeView, children []*entities.Node, total *int) error {
	type frame struct {
		view  *queries.NodeView
		nodes []*entities.Node
	}
	worklist := []frame{{view: parent, nodes: children}}

	for len(worklist) > 0 {
		current := worklist[len(worklist)-1]
		worklist = worklist[:len(worklist)-1]

		for _, child := range current.nodes {
			childView := newNodeView(child)
			current.view.Children = append(current.view.Children, childView)
			if total != nil {
				*total++
			}

			grandchildren, err := s.nodes.FindChildren(ctx, child.ID())
			if err != nil {
				return err
			}
			if len(grandchildren) > 0 {
				worklist = append(worklist, frame{view: childView, nodes: grandchildren})
			}
		}
	}
	return nil
}

// publishEvents drains the entity's uncommitted events and publishes
// them best-effort
func (s *HierarchyService) publishEvents(ctx context.Context, node *entities.Node) {
	batch := node.GetUncommittedEvents()
	if len(batch) == 0 {
		return
	}
	s.publishBatch(ctx, batch)
	node.MarkEventsAsCommitted()
}

func (s *HierarchyService) publishBatch(ctx context.Context, batch []events.DomainEvent) {
	if s.publisher == nil || len(batch) == 0 {
		return
	}
	if err := s.publisher.Publish(ctx, batch); err != nil {
		s.logger.Warn("failed to publish domain events",
			zap.Int("count", len(batch)),
			zap.Error(err),
		)
	}
}

// newNodeView converts an entity to its read model with no children
// attached
func newNodeView(node *entities.Node) *queries.NodeView {
	var parentID *string
	if p := node.ParentID(); p != nil {
		id := p.String()
		parentID = &id
	}
	return &queries.NodeView{
		ID:        node.ID().String(),
		Name:      node.Name().String(),
		ParentID:  parentID,
		CreatedAt: node.CreatedAt(),
		Children:  []*queries.NodeView{},
	}
}
