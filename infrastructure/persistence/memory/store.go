// Package memory provides in-process store implementations backed by
// maps. Used by unit tests and local development; transactions take a
// global write lock for their whole lifetime.
package memory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"arbor/application/ports"
	"arbor/domain/core/entities"
	"arbor/domain/core/valueobjects"
	pkgerrors "arbor/pkg/errors"
)

var (
	errDuplicateID = errors.New("node id already exists")
	errTxFinished  = errors.New("transaction already finished")
)

// nodeRecord is the stored shape of a node. Records are value-copied on
// every read and write so entities never alias store state.
type nodeRecord struct {
	id        string
	name      string
	parentID  *string
	createdAt time.Time
	updatedAt time.Time
}

// Store is the shared arena behind the memory node store and its unit
// of work
type Store struct {
	mu    sync.RWMutex
	nodes map[string]nodeRecord
}

// NewStore creates an empty arena
func NewStore() *Store {
	return &Store{nodes: make(map[string]nodeRecord)}
}

// NodeStore returns the lock-per-call read/write view of the arena
func (s *Store) NodeStore() ports.NodeStore {
	return &nodeStore{store: s, locked: false}
}

// UnitOfWork returns a unit of work over the arena
func (s *Store) UnitOfWork() ports.UnitOfWork {
	return &unitOfWork{store: s}
}

// nodeStore implements ports.NodeStore. With locked set the caller (a
// transaction) already holds the write lock and per-call locking is
// skipped.
type nodeStore struct {
	store  *Store
	locked bool
	tx     *transaction
}

func (ns *nodeStore) rlock() func() {
	if ns.locked {
		return func() {}
	}
	ns.store.mu.RLock()
	return ns.store.mu.RUnlock
}

func (ns *nodeStore) FindByID(ctx context.Context, id valueobjects.NodeID) (*entities.Node, error) {
	defer ns.rlock()()

	rec, ok := ns.store.nodes[id.String()]
	if !ok {
		return nil, pkgerrors.NewNotFoundError("node")
	}
	return recordToEntity(rec)
}

func (ns *nodeStore) FindChildren(ctx context.Context, parentID valueobjects.NodeID) ([]*entities.Node, error) {
	defer ns.rlock()()

	parent := parentID.String()
	var recs []nodeRecord
	for _, rec := range ns.store.nodes {
		if rec.parentID != nil && *rec.parentID == parent {
			recs = append(recs, rec)
		}
	}
	return recordsToEntities(recs)
}

func (ns *nodeStore) FindRoots(ctx context.Context) ([]*entities.Node, error) {
	defer ns.rlock()()

	var recs []nodeRecord
	for _, rec := range ns.store.nodes {
		if rec.parentID == nil {
			recs = append(recs, rec)
		}
	}
	return recordsToEntities(recs)
}

func (ns *nodeStore) FindWithChildren(ctx context.Context, id valueobjects.NodeID) (*entities.Node, []*entities.Node, error) {
	node, err := ns.FindByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	children, err := ns.FindChildren(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return node, children, nil
}

func (ns *nodeStore) Exists(ctx context.Context, id valueobjects.NodeID) (bool, error) {
	defer ns.rlock()()

	_, ok := ns.store.nodes[id.String()]
	return ok, nil
}

func (ns *nodeStore) FindByNameAndParent(ctx context.Context, name valueobjects.NodeName, parentID *valueobjects.NodeID) (*entities.Node, error) {
	defer ns.rlock()()

	var parent *string
	if parentID != nil {
		p := parentID.String()
		parent = &p
	}
	for _, rec := range ns.store.nodes {
		if rec.name != name.String() {
			continue
		}
		if (rec.parentID == nil) != (parent == nil) {
			continue
		}
		if rec.parentID != nil && *rec.parentID != *parent {
			continue
		}
		return recordToEntity(rec)
	}
	return nil, pkgerrors.NewNotFoundError("node")
}

func (ns *nodeStore) AncestorIDs(ctx context.Context, id valueobjects.NodeID) ([]valueobjects.NodeID, error) {
	defer ns.rlock()()

	var chain []valueobjects.NodeID
	current, ok := ns.store.nodes[id.String()]
	if !ok {
		// A missing start node has no ancestors
		return nil, nil
	}
	for current.parentID != nil {
		parent, ok := ns.store.nodes[*current.parentID]
		if !ok {
			// Dangling reference terminates the chain as a root
			break
		}
		parentID, err := valueobjects.NewNodeIDFromString(parent.id)
		if err != nil {
			return nil, pkgerrors.NewStoreError("ancestors", err)
		}
		chain = append(chain, parentID)
		current = parent
	}
	return chain, nil
}

func (ns *nodeStore) Add(ctx context.Context, node *entities.Node) error {
	defer ns.wlock()()

	id := node.ID().String()
	if _, exists := ns.store.nodes[id]; exists {
		return pkgerrors.NewStoreError("add", errDuplicateID)
	}
	ns.store.nodes[id] = entityToRecord(node)
	ns.touch(1)
	return nil
}

func (ns *nodeStore) Update(ctx context.Context, node *entities.Node) error {
	defer ns.wlock()()

	id := node.ID().String()
	if _, exists := ns.store.nodes[id]; !exists {
		return pkgerrors.NewNotFoundError("node")
	}
	ns.store.nodes[id] = entityToRecord(node)
	ns.touch(1)
	return nil
}

func (ns *nodeStore) Remove(ctx context.Context, id valueobjects.NodeID) error {
	defer ns.wlock()()

	key := id.String()
	if _, exists := ns.store.nodes[key]; !exists {
		return pkgerrors.NewNotFoundError("node")
	}
	delete(ns.store.nodes, key)
	ns.touch(1)
	return nil
}

func (ns *nodeStore) RemoveBatch(ctx context.Context, ids []valueobjects.NodeID) error {
	defer ns.wlock()()

	var removed int64
	for _, id := range ids {
		key := id.String()
		if _, exists := ns.store.nodes[key]; exists {
			delete(ns.store.nodes, key)
			removed++
		}
	}
	ns.touch(removed)
	return nil
}

func (ns *nodeStore) wlock() func() {
	if ns.locked {
		return func() {}
	}
	ns.store.mu.Lock()
	return ns.store.mu.Unlock
}

// touch records rows affected on the owning transaction, if any
func (ns *nodeStore) touch(n int64) {
	if ns.tx != nil {
		ns.tx.affected += n
	}
}

// unitOfWork implements ports.UnitOfWork with a global write lock per
// transaction
type unitOfWork struct {
	store *Store
}

func (u *unitOfWork) Begin(ctx context.Context) (ports.Transaction, error) {
	u.store.mu.Lock()

	snapshot := make(map[string]nodeRecord, len(u.store.nodes))
	for k, v := range u.store.nodes {
		snapshot[k] = v
	}
	return &transaction{store: u.store, snapshot: snapshot}, nil
}

// transaction holds the write lock from Begin until Commit or Rollback
type transaction struct {
	store    *Store
	snapshot map[string]nodeRecord
	affected int64
	done     bool
}

func (t *transaction) Nodes() ports.NodeStore {
	return &nodeStore{store: t.store, locked: true, tx: t}
}

func (t *transaction) Commit(ctx context.Context) (int64, error) {
	if t.done {
		return 0, pkgerrors.NewStoreError("commit", errTxFinished)
	}
	t.done = true
	t.store.mu.Unlock()
	return t.affected, nil
}

func (t *transaction) Rollback(ctx context.Context) error {
	if t.done {
		return nil
	}
	t.done = true
	t.store.nodes = t.snapshot
	t.store.mu.Unlock()
	return nil
}

func entityToRecord(node *entities.Node) nodeRecord {
	var parent *string
	if p := node.ParentID(); p != nil {
		id := p.String()
		parent = &id
	}
	return nodeRecord{
		id:        node.ID().String(),
		name:      node.Name().String(),
		parentID:  parent,
		createdAt: node.CreatedAt(),
		updatedAt: node.UpdatedAt(),
	}
}

func recordToEntity(rec nodeRecord) (*entities.Node, error) {
	id, err := valueobjects.NewNodeIDFromString(rec.id)
	if err != nil {
		return nil, pkgerrors.NewStoreError("read", err)
	}
	name, err := valueobjects.NewNodeName(rec.name)
	if err != nil {
		return nil, pkgerrors.NewStoreError("read", err)
	}
	var parentID *valueobjects.NodeID
	if rec.parentID != nil {
		pid, err := valueobjects.NewNodeIDFromString(*rec.parentID)
		if err != nil {
			return nil, pkgerrors.NewStoreError("read", err)
		}
		parentID = &pid
	}
	return entities.ReconstructNode(id, name, parentID, rec.createdAt, rec.updatedAt), nil
}

// recordsToEntities converts and sorts by name for stable listings
func recordsToEntities(recs []nodeRecord) ([]*entities.Node, error) {
	sort.Slice(recs, func(i, j int) bool { return recs[i].name < recs[j].name })

	nodes := make([]*entities.Node, 0, len(recs))
	for _, rec := range recs {
		node, err := recordToEntity(rec)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, node)
	}
	return nodes, nil
}
