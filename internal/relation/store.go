package relation

import (
	"context"

	"alcyxob/fitness-content/internal/domain"
)

// AssociationStore persists the pivot rows of one relationship kind.
// Implementations report duplicate pairs with domain.ErrDuplicatePair and
// transport failures wrapped in domain.ErrStoreUnavailable.
type AssociationStore interface {
	Kind() domain.RelationKind

	// ListMemberIDs returns the owner's current members. An owner without
	// rows yields an empty set, never an error.
	ListMemberIDs(ctx context.Context, ownerID int64) (IDSet, error)

	// InsertPairs adds one row per member id, stamping both timestamps.
	InsertPairs(ctx context.Context, ownerID int64, memberIDs IDSet) error

	// DeletePairs removes the given pairs. Absent pairs are ignored.
	DeletePairs(ctx context.Context, ownerID int64, memberIDs IDSet) error

	// ListByOwners batches ListMemberIDs for many owners in one round trip.
	// Every requested owner is present in the result.
	ListByOwners(ctx context.Context, ownerIDs []int64) (map[int64]IDSet, error)

	// ListPairs returns the owner's rows ordered by descending member id.
	ListPairs(ctx context.Context, ownerID int64) ([]domain.Association, error)

	// GetPair loads a single row by its own id.
	GetPair(ctx context.Context, id int64) (*domain.Association, error)

	// ListOwnerIDs is the reverse lookup: owners that currently hold memberID.
	ListOwnerIDs(ctx context.Context, memberID int64) (IDSet, error)

	// DeleteByID removes a single row by its own id.
	DeleteByID(ctx context.Context, id int64) error

	// MissingMembers returns the member ids with no entity row. On a store
	// bound to a transaction the surviving members stay guarded against a
	// concurrent delete until the transaction ends.
	MissingMembers(ctx context.Context, memberIDs IDSet) ([]int64, error)
}

// TxFunc runs inside an owner-locked transaction with a store bound to it.
type TxFunc func(ctx context.Context, tx AssociationStore) error

// Backend is the storage side of the sync engine.
type Backend interface {
	// Associations returns a non-transactional store for reads.
	Associations(kind domain.RelationKind) AssociationStore

	// WithinOwnerLock runs fn in a single transaction that holds the
	// storage-level exclusive lock on (kind, owner). It returns a
	// domain.NotFoundError when the owner row does not exist. Any error
	// returned by fn rolls the whole transaction back.
	WithinOwnerLock(ctx context.Context, kind domain.RelationKind, ownerID int64, fn TxFunc) error

	// MissingIDs returns the subset of ids with no row of entity type t.
	MissingIDs(ctx context.Context, t domain.EntityType, ids IDSet) ([]int64, error)
}
