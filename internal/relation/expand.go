package relation

import (
	"context"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// MemberLoader fetches member rows by id in one query. Ids without a row are
// simply absent from the result.
type MemberLoader[M any] func(ctx context.Context, ids []int64) (map[int64]M, error)

// Expander materializes owners' members for one relationship kind.
type Expander[M any] struct {
	store AssociationStore
	load  MemberLoader[M]
}

func NewExpander[M any](store AssociationStore, load MemberLoader[M]) *Expander[M] {
	return &Expander[M]{store: store, load: load}
}

// Expand returns, for each owner id, its members ordered by descending id.
// A positive limit keeps only the first limit members of each owner. Owners
// without members map to an empty slice. It issues one association query and
// at most one member query regardless of how many owners are passed.
func (e *Expander[M]) Expand(ctx context.Context, ownerIDs []int64, limit int) (map[int64][]M, error) {
	ctx, span := tracer.Start(ctx, "Relation.Expand", trace.WithAttributes(
		attribute.String("relation.kind", e.store.Kind().Table),
		attribute.Int("relation.owners", len(ownerIDs)),
		attribute.Int("relation.limit", limit),
	))
	defer span.End()

	result := make(map[int64][]M, len(ownerIDs))
	if len(ownerIDs) == 0 {
		return result, nil
	}

	byOwner, err := e.store.ListByOwners(ctx, ownerIDs)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, errors.Wrapf(err, "list %s", e.store.Kind().Table)
	}

	picked := make(map[int64][]int64, len(ownerIDs))
	need := IDSet{}
	for _, ownerID := range ownerIDs {
		ids := byOwner[ownerID].SortedDesc()
		if limit > 0 && len(ids) > limit {
			ids = ids[:limit]
		}
		picked[ownerID] = ids
		for _, id := range ids {
			need.Add(id)
		}
	}

	var members map[int64]M
	if need.Len() > 0 {
		members, err = e.load(ctx, need.SortedDesc())
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, errors.Wrapf(err, "load %s members", e.store.Kind().Table)
		}
	}

	for _, ownerID := range ownerIDs {
		out := make([]M, 0, len(picked[ownerID]))
		for _, id := range picked[ownerID] {
			if m, ok := members[id]; ok {
				out = append(out, m)
			}
		}
		result[ownerID] = out
	}
	return result, nil
}
