// Package service holds the business operations behind the HTTP API: entity
// CRUD with media handling, relationship endpoints built on the sync engine,
// authentication, onboarding details, the home feed and the admin dashboard.
package service

import (
	"context"
	"math"

	"github.com/pkg/errors"

	"alcyxob/fitness-content/internal/domain"
	"alcyxob/fitness-content/internal/relation"
	"alcyxob/fitness-content/internal/repository"
)

// DefaultPageLimit is used when a paged request carries no limit.
const DefaultPageLimit = 10

// HomeFeedLimit is how many members each owner shows on the home feed.
const HomeFeedLimit = 3

// ErrNoData is returned by list operations that matched nothing.
var ErrNoData = domain.NotFoundError{Message: "No data found."}

// PageRequest selects either every row (Page 0) or one page of rows.
type PageRequest struct {
	Page  int `form:"page"`
	Limit int `form:"limit"`
}

func (p PageRequest) query() repository.ListQuery {
	q := repository.ListQuery{Page: p.Page, Limit: p.Limit, Desc: true}
	if q.Page < 0 {
		q.Page = 0
	}
	if q.Paged() && q.Limit <= 0 {
		q.Limit = DefaultPageLimit
	}
	return q
}

// Page is a list result. Paged is false when every row was requested.
type Page[T any] struct {
	Items []T
	Total int64
	Page  int
	Limit int
	Paged bool
}

// LastPage is the number of the final page, at least 1.
func (p Page[T]) LastPage() int {
	if !p.Paged || p.Limit <= 0 || p.Total == 0 {
		return 1
	}
	return int(math.Ceil(float64(p.Total) / float64(p.Limit)))
}

// mapPage converts the items of a page keeping its paging fields.
func mapPage[T, U any](p Page[T], items []U) Page[U] {
	return Page[U]{Items: items, Total: p.Total, Page: p.Page, Limit: p.Limit, Paged: p.Paged}
}

// listPage lists newest rows first. ids, when non-nil, restricts the rows.
func listPage[T any](ctx context.Context, repo repository.EntityRepository[T], req PageRequest, ids []int64) (Page[T], error) {
	q := req.query()
	q.IDs = ids
	rows, total, err := repo.List(ctx, q)
	if err != nil {
		return Page[T]{}, err
	}
	if len(rows) == 0 {
		return Page[T]{}, ErrNoData
	}
	return Page[T]{Items: rows, Total: total, Page: q.Page, Limit: q.Limit, Paged: q.Paged()}, nil
}

// entityPtr is satisfied by pointers to stored entity structs.
type entityPtr[T any] interface {
	*T
	GetID() int64
}

// idsOf returns the ids of entities in order.
func idsOf[T any, PT entityPtr[T]](rows []T) []int64 {
	ids := make([]int64, len(rows))
	for i := range rows {
		ids[i] = PT(&rows[i]).GetID()
	}
	return ids
}

// relabel rewrites the field of a member validation error so it names the
// request field the caller used (e.g. "focus_area_ids").
func relabel(err error, field string) error {
	var ve *domain.ValidationError
	if !errors.As(err, &ve) || ve.Field == "" {
		return err
	}
	out := *ve
	out.Field = field
	return &out
}

// syncIfPresent runs an exact sync when ids is non-nil. A nil slice means the
// request did not carry the field.
func syncIfPresent(ctx context.Context, svc *relation.SyncService, ownerID int64, ids []int64, field string) error {
	if ids == nil {
		return nil
	}
	_, err := svc.SyncExact(ctx, ownerID, relation.NewIDSet(ids...))
	return relabel(err, field)
}

// checkMembers reports ids of the member type that do not exist, named by field.
func checkMembers(ctx context.Context, backend relation.Backend, t domain.EntityType, ids []int64, field string) error {
	if len(ids) == 0 {
		return nil
	}
	missing, err := backend.MissingIDs(ctx, t, relation.NewIDSet(ids...))
	if err != nil {
		return err
	}
	if len(missing) > 0 {
		return domain.NewInvalidIDsError(field, missing)
	}
	return nil
}
