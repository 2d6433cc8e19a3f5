// Package ports defines the persistence and messaging contracts the
// application layer depends on. Implementations live under
// infrastructure/persistence and infrastructure/messaging.
package ports

import (
	"context"
	"time"

	"arbor/domain/core/entities"
	"arbor/domain/core/valueobjects"
	"arbor/domain/events"
)

// NodeStore is the persistence contract for hierarchy nodes.
//
// Read methods return typed not-found errors rather than (nil, nil) so
// callers never have to nil-check a successful lookup.
type NodeStore interface {
	// FindByID returns the node with the given id
	FindByID(ctx context.Context, id valueobjects.NodeID) (*entities.Node, error)

	// FindChildren returns the direct children of parentID, ordered by name
	FindChildren(ctx context.Context, parentID valueobjects.NodeID) ([]*entities.Node, error)

	// FindRoots returns all nodes without a parent, ordered by name
	FindRoots(ctx context.Context) ([]*entities.Node, error)

	// FindWithChildren returns the node with the given id together with
	// its direct children in one call
	FindWithChildren(ctx context.Context, id valueobjects.NodeID) (*entities.Node, []*entities.Node, error)

	// Exists reports whether a node with the given id is present
	Exists(ctx context.Context, id valueobjects.NodeID) (bool, error)

	// FindByNameAndParent returns the node with the given name directly
	// under parentID (nil parentID means root level), or a not-found error
	FindByNameAndParent(ctx context.Context, name valueobjects.NodeName, parentID *valueobjects.NodeID) (*entities.Node, error)

	// AncestorIDs returns the chain of ancestor ids of the given node,
	// nearest parent first. A node whose parent reference is dangling
	// terminates the chain as if it were a root.
	AncestorIDs(ctx context.Context, id valueobjects.NodeID) ([]valueobjects.NodeID, error)

	// Add persists a new node
	Add(ctx context.Context, node *entities.Node) error

	// Update persists changes to an existing node
	Update(ctx context.Context, node *entities.Node) error

	// Remove deletes a single node
	Remove(ctx context.Context, id valueobjects.NodeID) error

	// RemoveBatch deletes the given nodes in one shot
	RemoveBatch(ctx context.Context, ids []valueobjects.NodeID) error
}

// Transaction is a unit of work in progress. All store access inside a
// transaction goes through Nodes(); Commit reports how many rows the
// transaction touched.
type Transaction interface {
	// Nodes returns the node store bound to this transaction
	Nodes() NodeStore

	// Commit finalizes the transaction and returns the affected row count
	Commit(ctx context.Context) (int64, error)

	// Rollback aborts the transaction. Safe to call after Commit.
	Rollback(ctx context.Context) error
}

// UnitOfWork begins transactions over the node store
type UnitOfWork interface {
	Begin(ctx context.Context) (Transaction, error)
}

// UserStore is the persistence contract for accounts
type UserStore interface {
	// FindByID returns the user with the given id
	FindByID(ctx context.Context, id string) (*entities.User, error)

	// FindByUsername returns the user with the given login name
	FindByUsername(ctx context.Context, username string) (*entities.User, error)

	// Add persists a new user. Fails with a validation error when the
	// username is already taken.
	Add(ctx context.Context, user *entities.User) error
}

// RefreshToken is an opaque, single-use credential for minting new
// access tokens. Tokens are stored hashed; the raw value is only ever
// returned to the client at issue time.
type RefreshToken struct {
	TokenHash string
	UserID    string
	ExpiresAt time.Time
	Revoked   bool
}

// RefreshTokenStore persists refresh tokens across the rotation flow
type RefreshTokenStore interface {
	// Save persists a freshly issued token
	Save(ctx context.Context, token *RefreshToken) error

	// FindByHash returns the token with the given hash
	FindByHash(ctx context.Context, hash string) (*RefreshToken, error)

	// Revoke marks the token unusable. Revoking an already revoked
	// token is a no-op.
	Revoke(ctx context.Context, hash string) error

	// RevokeAllForUser revokes every live token belonging to a user
	RevokeAllForUser(ctx context.Context, userID string) error
}

// EventPublisher delivers domain events to interested consumers.
// Publishing is best-effort: a failed publish never rolls back the
// transaction that produced the events.
type EventPublisher interface {
	Publish(ctx context.Context, batch []events.DomainEvent) error
}
