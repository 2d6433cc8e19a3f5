package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"arbor/application/ports"
	"arbor/domain/core/entities"
	"arbor/domain/core/valueobjects"
	pkgerrors "arbor/pkg/errors"
)

// uniqueViolation is the Postgres error code for a unique constraint
// breach
const uniqueViolation = "23505"

// querier is satisfied by both *pgxpool.Pool and pgx.Tx so one store
// implementation serves reads outside and inside transactions
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// NodeStore implements ports.NodeStore on Postgres
type NodeStore struct {
	db querier
	tx *transaction // nil outside a unit of work
}

// NewNodeStore creates a pool-backed node store for the read path
func NewNodeStore(pool *pgxpool.Pool) *NodeStore {
	return &NodeStore{db: pool}
}

var _ ports.NodeStore = (*NodeStore)(nil)

const nodeColumns = `id, name, parent_id, created_at, updated_at`

func (s *NodeStore) FindByID(ctx context.Context, id valueobjects.NodeID) (*entities.Node, error) {
	row := s.db.QueryRow(ctx,
		`SELECT `+nodeColumns+` FROM nodes WHERE id = $1`, id.String())
	return scanNode(row)
}

func (s *NodeStore) FindChildren(ctx context.Context, parentID valueobjects.NodeID) ([]*entities.Node, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+nodeColumns+` FROM nodes WHERE parent_id = $1 ORDER BY name`, parentID.String())
	if err != nil {
		return nil, pkgerrors.NewStoreError("find children", err)
	}
	return scanNodes(rows)
}

func (s *NodeStore) FindRoots(ctx context.Context) ([]*entities.Node, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+nodeColumns+` FROM nodes WHERE parent_id IS NULL ORDER BY name`)
	if err != nil {
		return nil, pkgerrors.NewStoreError("find roots", err)
	}
	return scanNodes(rows)
}

func (s *NodeStore) FindWithChildren(ctx context.Context, id valueobjects.NodeID) (*entities.Node, []*entities.Node, error) {
	node, err := s.FindByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	children, err := s.FindChildren(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return node, children, nil
}

func (s *NodeStore) Exists(ctx context.Context, id valueobjects.NodeID) (bool, error) {
	var exists bool
	err := s.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM nodes WHERE id = $1)`, id.String()).Scan(&exists)
	if err != nil {
		return false, pkgerrors.NewStoreError("exists", err)
	}
	return exists, nil
}

func (s *NodeStore) FindByNameAndParent(ctx context.Context, name valueobjects.NodeName, parentID *valueobjects.NodeID) (*entities.Node, error) {
	var row pgx.Row
	if parentID == nil {
		row = s.db.QueryRow(ctx,
			`SELECT `+nodeColumns+` FROM nodes WHERE name = $1 AND parent_id IS NULL`, name.String())
	} else {
		row = s.db.QueryRow(ctx,
			`SELECT `+nodeColumns+` FROM nodes WHERE name = $1 AND parent_id = $2`,
			name.String(), parentID.String())
	}
	return scanNode(row)
}

// AncestorIDs walks the parent chain with a recursive CTE, nearest
// parent first. A dangling parent reference simply ends the recursion.
func (s *NodeStore) AncestorIDs(ctx context.Context, id valueobjects.NodeID) ([]valueobjects.NodeID, error) {
	rows, err := s.db.Query(ctx, `
WITH RECURSIVE ancestors AS (
    SELECT n.id, n.parent_id, 1 AS depth
    FROM nodes n
    WHERE n.id = (SELECT parent_id FROM nodes WHERE id = $1)
  UNION ALL
    SELECT n.id, n.parent_id, a.depth + 1
    FROM nodes n
    JOIN ancestors a ON n.id = a.parent_id
)
SELECT id FROM ancestors ORDER BY depth`, id.String())
	if err != nil {
		return nil, pkgerrors.NewStoreError("ancestors", err)
	}
	defer rows.Close()

	var chain []valueobjects.NodeID
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, pkgerrors.NewStoreError("ancestors", err)
		}
		nodeID, err := valueobjects.NewNodeIDFromString(raw)
		if err != nil {
			return nil, pkgerrors.NewStoreError("ancestors", err)
		}
		chain = append(chain, nodeID)
	}
	if err := rows.Err(); err != nil {
		return nil, pkgerrors.NewStoreError("ancestors", err)
	}
	return chain, nil
}

func (s *NodeStore) Add(ctx context.Context, node *entities.Node) error {
	tag, err := s.db.Exec(ctx,
		`INSERT INTO nodes (id, name, parent_id, created_at, updated_at) VALUES ($1, $2, $3, $4, $5)`,
		node.ID().String(), node.Name().String(), optionalID(node.ParentID()),
		node.CreatedAt(), node.UpdatedAt())
	if err != nil {
		return mapNodeWriteError("add", node.Name().String(), err)
	}
	s.touch(tag)
	return nil
}

func (s *NodeStore) Update(ctx context.Context, node *entities.Node) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE nodes SET name = $2, parent_id = $3, updated_at = $4 WHERE id = $1`,
		node.ID().String(), node.Name().String(), optionalID(node.ParentID()), node.UpdatedAt())
	if err != nil {
		return mapNodeWriteError("update", node.Name().String(), err)
	}
	if tag.RowsAffected() == 0 {
		return pkgerrors.NewNotFoundError("node")
	}
	s.touch(tag)
	return nil
}

func (s *NodeStore) Remove(ctx context.Context, id valueobjects.NodeID) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM nodes WHERE id = $1`, id.String())
	if err != nil {
		return pkgerrors.NewStoreError("remove", err)
	}
	if tag.RowsAffected() == 0 {
		return pkgerrors.NewNotFoundError("node")
	}
	s.touch(tag)
	return nil
}

// RemoveBatch deletes leaves-first so the parent foreign key never
// trips; callers collect subtrees top-down.
func (s *NodeStore) RemoveBatch(ctx context.Context, ids []valueobjects.NodeID) error {
	for i := len(ids) - 1; i >= 0; i-- {
		tag, err := s.db.Exec(ctx, `DELETE FROM nodes WHERE id = $1`, ids[i].String())
		if err != nil {
			return pkgerrors.NewStoreError("remove batch", err)
		}
		s.touch(tag)
	}
	return nil
}

func (s *NodeStore) touch(tag pgconn.CommandTag) {
	if s.tx != nil {
		s.tx.affected += tag.RowsAffected()
	}
}

func optionalID(id *valueobjects.NodeID) *string {
	if id == nil {
		return nil
	}
	v := id.String()
	return &v
}

func mapNodeWriteError(operation, name string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return pkgerrors.NewDuplicateNameError(name)
	}
	return pkgerrors.NewStoreError(operation, err)
}

func scanNode(row pgx.Row) (*entities.Node, error) {
	var (
		rawID     string
		rawName   string
		rawParent *string
		createdAt time.Time
		updatedAt time.Time
	)
	if err := row.Scan(&rawID, &rawName, &rawParent, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, pkgerrors.NewNotFoundError("node")
		}
		return nil, pkgerrors.NewStoreError("scan", err)
	}
	return buildNode(rawID, rawName, rawParent, createdAt, updatedAt)
}

func scanNodes(rows pgx.Rows) ([]*entities.Node, error) {
	defer rows.Close()

	var nodes []*entities.Node
	for rows.Next() {
		var (
			rawID     string
			rawName   string
			rawParent *string
			createdAt time.Time
			updatedAt time.Time
		)
		if err := rows.Scan(&rawID, &rawName, &rawParent, &createdAt, &updatedAt); err != nil {
			return nil, pkgerrors.NewStoreError("scan", err)
		}
		node, err := buildNode(rawID, rawName, rawParent, createdAt, updatedAt)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, node)
	}
	if err := rows.Err(); err != nil {
		return nil, pkgerrors.NewStoreError("scan", err)
	}
	return nodes, nil
}

func buildNode(rawID, rawName string, rawParent *string, createdAt, updatedAt time.Time) (*entities.Node, error) {
	id, err := valueobjects.NewNodeIDFromString(rawID)
	if err != nil {
		return nil, pkgerrors.NewStoreError("read", err)
	}
	name, err := valueobjects.NewNodeName(rawName)
	if err != nil {
		return nil, pkgerrors.NewStoreError("read", err)
	}
	var parentID *valueobjects.NodeID
	if rawParent != nil {
		pid, err := valueobjects.NewNodeIDFromString(*rawParent)
		if err != nil {
			return nil, pkgerrors.NewStoreError("read", err)
		}
		parentID = &pid
	}
	return entities.ReconstructNode(id, name, parentID, createdAt, updatedAt), nil
}
