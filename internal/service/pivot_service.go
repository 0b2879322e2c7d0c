package service

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/pkg/errors"

	"alcyxob/fitness-content/internal/domain"
	"alcyxob/fitness-content/internal/relation"
	"alcyxob/fitness-content/internal/repository"
)

// PivotRow is one association row rendered with the column names of its kind,
// e.g. {"id":1,"category_id":2,"workout_id":3,...}.
type PivotRow struct {
	domain.Association
	kind domain.RelationKind
}

func (r PivotRow) fields() map[string]any {
	return map[string]any{
		"id":                r.ID,
		r.kind.OwnerColumn:  r.OwnerID,
		r.kind.MemberColumn: r.MemberID,
		"created_at":        r.CreatedAt,
		"updated_at":        r.UpdatedAt,
	}
}

func (r PivotRow) MarshalJSON() ([]byte, error) { return json.Marshal(r.fields()) }

// PivotDetail is a row together with its owner and member entities.
type PivotDetail struct {
	PivotRow
	Owner  any
	Member any
}

func (d PivotDetail) MarshalJSON() ([]byte, error) {
	m := d.fields()
	m[singular(d.kind.OwnerColumn)] = d.Owner
	m[singular(d.kind.MemberColumn)] = d.Member
	return json.Marshal(m)
}

// OwnerMembers is an owner entity with its members nested under the member
// table name, e.g. a category with "workouts".
type OwnerMembers struct {
	Owner   any
	Members any
	key     string
}

func (o OwnerMembers) MarshalJSON() ([]byte, error) {
	raw, err := json.Marshal(o.Owner)
	if err != nil {
		return nil, err
	}
	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, errors.Wrap(err, "owner must encode as an object")
	}
	members, err := json.Marshal(o.Members)
	if err != nil {
		return nil, err
	}
	fields[o.key] = members
	return json.Marshal(fields)
}

func singular(column string) string { return strings.TrimSuffix(column, "_id") }

// PivotInput is the body of the attach endpoint: the owner id under the owner
// column and the member ids under the member column.
type PivotInput struct {
	OwnerID   int64
	MemberIDs []int64
}

// PivotService exposes one relationship kind over the API.
type PivotService interface {
	Kind() domain.RelationKind
	// List returns owners, newest first, each with all its members.
	List(ctx context.Context, req PageRequest) (Page[OwnerMembers], error)
	// Attach adds the members to the owner and never removes any. It returns
	// the rows of the requested members.
	Attach(ctx context.Context, in PivotInput) ([]PivotRow, error)
	// Sync makes the owner's members exactly memberIDs and returns its rows.
	Sync(ctx context.Context, ownerID int64, memberIDs []int64) ([]PivotRow, error)
	// Show returns the row with id, or the owner with its members for kinds
	// addressed by owner.
	Show(ctx context.Context, id int64) (any, error)
	// Remove deletes a single row by its id.
	Remove(ctx context.Context, id int64) error
}

type pivotService[O any, PO entityPtr[O], M any] struct {
	sync       *relation.SyncService
	owners     repository.EntityRepository[O]
	members    repository.EntityRepository[M]
	expand     *relation.Expander[M]
	showsOwner bool
}

// NewPivotService builds the service for one kind. showsOwner makes Show look
// up an owner id instead of a row id.
func NewPivotService[O any, PO entityPtr[O], M any](sync *relation.SyncService, owners repository.EntityRepository[O], members repository.EntityRepository[M], showsOwner bool) PivotService {
	return &pivotService[O, PO, M]{
		sync:       sync,
		owners:     owners,
		members:    members,
		expand:     relation.NewExpander(sync.Store(), repository.Loader(members)),
		showsOwner: showsOwner,
	}
}

func (s *pivotService[O, PO, M]) Kind() domain.RelationKind { return s.sync.Kind() }

func (s *pivotService[O, PO, M]) List(ctx context.Context, req PageRequest) (Page[OwnerMembers], error) {
	q := req.query()
	owners, total, err := s.owners.List(ctx, q)
	if err != nil {
		return Page[OwnerMembers]{}, err
	}
	if len(owners) == 0 {
		return Page[OwnerMembers]{}, ErrNoData
	}
	ids := idsOf[O, PO](owners)
	members, err := s.expand.Expand(ctx, ids, 0)
	if err != nil {
		return Page[OwnerMembers]{}, err
	}
	out := make([]OwnerMembers, len(owners))
	for i, id := range ids {
		out[i] = OwnerMembers{Owner: owners[i], Members: members[id], key: string(s.Kind().Member)}
	}
	return Page[OwnerMembers]{Items: out, Total: total, Page: q.Page, Limit: q.Limit, Paged: q.Paged()}, nil
}

func (s *pivotService[O, PO, M]) Attach(ctx context.Context, in PivotInput) ([]PivotRow, error) {
	kind := s.Kind()
	var missing []string
	if in.OwnerID <= 0 {
		missing = append(missing, kind.OwnerColumn)
	}
	if len(in.MemberIDs) == 0 {
		missing = append(missing, kind.MemberColumn)
	}
	if err := addRequired(nil, missing...); err != nil {
		return nil, err
	}
	desired := relation.NewIDSet(in.MemberIDs...)
	if _, err := s.sync.SyncAttachOnly(ctx, in.OwnerID, desired); err != nil {
		return nil, s.ownerAsField(err)
	}
	return s.rows(ctx, in.OwnerID, desired)
}

func (s *pivotService[O, PO, M]) Sync(ctx context.Context, ownerID int64, memberIDs []int64) ([]PivotRow, error) {
	if len(memberIDs) == 0 {
		return nil, addRequired(nil, s.Kind().MemberColumn)
	}
	if _, err := s.sync.SyncExact(ctx, ownerID, relation.NewIDSet(memberIDs...)); err != nil {
		return nil, err
	}
	return s.rows(ctx, ownerID, nil)
}

func (s *pivotService[O, PO, M]) Show(ctx context.Context, id int64) (any, error) {
	if s.showsOwner {
		owner, err := s.owners.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		members, err := s.expand.Expand(ctx, []int64{id}, 0)
		if err != nil {
			return nil, err
		}
		return OwnerMembers{Owner: *owner, Members: members[id], key: string(s.Kind().Member)}, nil
	}

	pair, err := s.sync.Store().GetPair(ctx, id)
	if err != nil {
		return nil, err
	}
	owner, err := s.owners.GetByID(ctx, pair.OwnerID)
	if err != nil {
		return nil, err
	}
	member, err := s.members.GetByID(ctx, pair.MemberID)
	if err != nil {
		return nil, err
	}
	return PivotDetail{PivotRow: PivotRow{Association: *pair, kind: s.Kind()}, Owner: *owner, Member: *member}, nil
}

func (s *pivotService[O, PO, M]) Remove(ctx context.Context, id int64) error {
	_, err := s.sync.RemovePair(ctx, id)
	return err
}

// rows lists the owner's rows, keeping only members in only when non-nil.
func (s *pivotService[O, PO, M]) rows(ctx context.Context, ownerID int64, only relation.IDSet) ([]PivotRow, error) {
	pairs, err := s.sync.Store().ListPairs(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	out := make([]PivotRow, 0, len(pairs))
	for _, p := range pairs {
		if only != nil && !only.Has(p.MemberID) {
			continue
		}
		out = append(out, PivotRow{Association: p, kind: s.Kind()})
	}
	return out, nil
}

// ownerAsField reports an unknown owner on attach as an invalid owner id,
// since the owner arrived in the request body.
func (s *pivotService[O, PO, M]) ownerAsField(err error) error {
	var nf domain.NotFoundError
	if !errors.As(err, &nf) || nf.Resource != string(s.Kind().Owner) {
		return err
	}
	return &domain.ValidationError{Field: s.Kind().OwnerColumn, Message: "the selected " + s.Kind().OwnerColumn + " is invalid"}
}
