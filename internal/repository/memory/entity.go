package memory

import (
	"context"
	"reflect"
	"sort"
	"strings"
	"time"

	"alcyxob/fitness-content/internal/domain"
	"alcyxob/fitness-content/internal/repository"
)

type entityPtr[T any] interface {
	*T
	domain.Entity
}

type entityRepo[T any, PT entityPtr[T]] struct {
	s     *Store
	table domain.EntityType
}

func newEntityRepo[T any, PT entityPtr[T]](s *Store, table domain.EntityType) *entityRepo[T, PT] {
	return &entityRepo[T, PT]{s: s, table: table}
}

func (r *entityRepo[T, PT]) notFound(id int64) error {
	return domain.NotFoundError{Resource: string(r.table), ID: id}
}

func (r *entityRepo[T, PT]) Create(ctx context.Context, entity *T) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.seq[r.table]++
	p := PT(entity)
	p.SetID(r.s.seq[r.table])
	p.Touch(r.s.now())
	r.s.table(r.table)[p.GetID()] = *entity
	return nil
}

func (r *entityRepo[T, PT]) GetByID(ctx context.Context, id int64) (*T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	row, ok := r.s.tables[r.table][id]
	if !ok {
		return nil, r.notFound(id)
	}
	v := row.(T)
	return &v, nil
}

func (r *entityRepo[T, PT]) GetByIDs(ctx context.Context, ids []int64) (map[int64]T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make(map[int64]T, len(ids))
	rows := r.s.tables[r.table]
	for _, id := range ids {
		if row, ok := rows[id]; ok {
			out[id] = row.(T)
		}
	}
	return out, nil
}

func (r *entityRepo[T, PT]) FindBy(ctx context.Context, field string, value any) (*T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, id := range sortedKeys(r.s.tables[r.table], false) {
		v := r.s.tables[r.table][id].(T)
		fv, ok := jsonField(reflect.ValueOf(v), field)
		if !ok {
			return nil, repository.ErrUnknownField
		}
		if reflect.DeepEqual(fv.Interface(), value) {
			return &v, nil
		}
	}
	return nil, domain.NotFoundError{Resource: string(r.table)}
}

func (r *entityRepo[T, PT]) List(ctx context.Context, q repository.ListQuery) ([]T, int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	rows := r.s.tables[r.table]
	ids := sortedKeys(rows, q.Desc)
	if q.IDs != nil {
		allowed := make(map[int64]bool, len(q.IDs))
		for _, id := range q.IDs {
			allowed[id] = true
		}
		kept := ids[:0]
		for _, id := range ids {
			if allowed[id] {
				kept = append(kept, id)
			}
		}
		ids = kept
	}
	total := int64(len(ids))
	if q.Paged() {
		start := min(q.Offset(), len(ids))
		end := min(start+q.Limit, len(ids))
		ids = ids[start:end]
	}
	out := make([]T, 0, len(ids))
	for _, id := range ids {
		out = append(out, rows[id].(T))
	}
	return out, total, nil
}

func (r *entityRepo[T, PT]) Update(ctx context.Context, entity *T) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p := PT(entity)
	rows := r.s.table(r.table)
	old, ok := rows[p.GetID()]
	if !ok {
		return r.notFound(p.GetID())
	}
	prev := old.(T)
	if p.GetCreatedAt().IsZero() {
		// keep the stored creation time when the caller built a fresh struct
		p.Touch(PT(&prev).GetCreatedAt())
	}
	p.Touch(r.s.now())
	rows[p.GetID()] = *entity
	return nil
}

func (r *entityRepo[T, PT]) Delete(ctx context.Context, id int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	rows := r.s.table(r.table)
	if _, ok := rows[id]; !ok {
		return r.notFound(id)
	}
	delete(rows, id)
	r.s.cascade(r.table, id)
	return nil
}

func (r *entityRepo[T, PT]) Count(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return int64(len(r.s.tables[r.table])), nil
}

func (r *entityRepo[T, PT]) CountCreatedBetween(ctx context.Context, from, to time.Time) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var n int64
	for _, row := range r.s.tables[r.table] {
		v := row.(T)
		created := PT(&v).GetCreatedAt()
		if !created.Before(from) && created.Before(to) {
			n++
		}
	}
	return n, nil
}

func sortedKeys(rows map[int64]any, desc bool) []int64 {
	ids := make([]int64, 0, len(rows))
	for id := range rows {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		if desc {
			return ids[i] > ids[j]
		}
		return ids[i] < ids[j]
	})
	return ids
}

// jsonField finds the struct field tagged with the given json name,
// descending into embedded structs.
func jsonField(v reflect.Value, name string) (reflect.Value, bool) {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.Anonymous && f.Type.Kind() == reflect.Struct {
			if fv, ok := jsonField(v.Field(i), name); ok {
				return fv, true
			}
			continue
		}
		tag := strings.Split(f.Tag.Get("json"), ",")[0]
		if tag == name {
			return v.Field(i), true
		}
	}
	return reflect.Value{}, false
}
