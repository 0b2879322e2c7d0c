package postgres

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"alcyxob/fitness-content/internal/domain"
	"alcyxob/fitness-content/internal/repository"
)

// lookupColumns maps the JSON names accepted by FindBy to columns.
var lookupColumns = map[string]string{
	"email":   "email",
	"phone":   "phone",
	"name":    "name",
	"user_id": "user_id",
}

type entityPtr[T any] interface {
	*T
	domain.Entity
}

type entityRepository[T any, PT entityPtr[T]] struct {
	db    *gorm.DB
	table domain.EntityType
}

func newEntityRepository[T any, PT entityPtr[T]](db *gorm.DB, table domain.EntityType) *entityRepository[T, PT] {
	return &entityRepository[T, PT]{db: db, table: table}
}

func (r *entityRepository[T, PT]) notFound(id int64) error {
	return domain.NotFoundError{Resource: string(r.table), ID: id}
}

func (r *entityRepository[T, PT]) mapErr(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return errors.Wrap(domain.ErrAlreadyExists, string(r.table))
	}
	return storeErr(err)
}

func (r *entityRepository[T, PT]) Create(ctx context.Context, entity *T) error {
	PT(entity).Touch(time.Now().UTC())
	return r.mapErr(r.db.WithContext(ctx).Create(entity).Error)
}

func (r *entityRepository[T, PT]) GetByID(ctx context.Context, id int64) (*T, error) {
	var entity T
	if err := r.db.WithContext(ctx).First(&entity, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, r.notFound(id)
		}
		return nil, storeErr(err)
	}
	return &entity, nil
}

func (r *entityRepository[T, PT]) GetByIDs(ctx context.Context, ids []int64) (map[int64]T, error) {
	out := make(map[int64]T, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []T
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, storeErr(err)
	}
	for i := range rows {
		out[PT(&rows[i]).GetID()] = rows[i]
	}
	return out, nil
}

func (r *entityRepository[T, PT]) FindBy(ctx context.Context, field string, value any) (*T, error) {
	column, ok := lookupColumns[field]
	if !ok {
		return nil, repository.ErrUnknownField
	}
	var entity T
	err := r.db.WithContext(ctx).Where(column+" = ?", value).Order("id").First(&entity).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NotFoundError{Resource: string(r.table)}
		}
		return nil, storeErr(err)
	}
	return &entity, nil
}

func (r *entityRepository[T, PT]) List(ctx context.Context, q repository.ListQuery) ([]T, int64, error) {
	query := r.db.WithContext(ctx).Model(new(T))
	if q.IDs != nil {
		if len(q.IDs) == 0 {
			return []T{}, 0, nil
		}
		query = query.Where("id IN ?", q.IDs)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, storeErr(err)
	}

	order := "id ASC"
	if q.Desc {
		order = "id DESC"
	}
	query = query.Order(order)
	if q.Paged() {
		query = query.Offset(q.Offset()).Limit(q.Limit)
	}

	rows := make([]T, 0)
	if err := query.Find(&rows).Error; err != nil {
		return nil, 0, storeErr(err)
	}
	return rows, total, nil
}

// Update writes every column except the id and the creation time.
func (r *entityRepository[T, PT]) Update(ctx context.Context, entity *T) error {
	p := PT(entity)
	p.Touch(time.Now().UTC())
	res := r.db.WithContext(ctx).Model(entity).Select("*").Omit("id", "created_at").Updates(entity)
	if res.Error != nil {
		return r.mapErr(res.Error)
	}
	if res.RowsAffected == 0 {
		return r.notFound(p.GetID())
	}
	return nil
}

// Delete relies on the pivot foreign keys to cascade.
func (r *entityRepository[T, PT]) Delete(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Delete(new(T), id)
	if res.Error != nil {
		return storeErr(res.Error)
	}
	if res.RowsAffected == 0 {
		return r.notFound(id)
	}
	return nil
}

func (r *entityRepository[T, PT]) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(new(T)).Count(&n).Error
	return n, storeErr(err)
}

func (r *entityRepository[T, PT]) CountCreatedBetween(ctx context.Context, from, to time.Time) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(new(T)).
		Where("created_at >= ? AND created_at < ?", from, to).
		Count(&n).Error
	return n, storeErr(err)
}
