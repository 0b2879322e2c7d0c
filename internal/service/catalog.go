package service

import (
	"context"

	"alcyxob/fitness-content/internal/repository"
)

// catalog implements the read and delete operations shared by every
// admin-managed entity.
type catalog[T any] struct {
	repo    repository.EntityRepository[T]
	changed func(ctx context.Context)
}

func newCatalog[T any](repo repository.EntityRepository[T], changed func(ctx context.Context)) catalog[T] {
	if changed == nil {
		changed = func(context.Context) {}
	}
	return catalog[T]{repo: repo, changed: changed}
}

func (c catalog[T]) List(ctx context.Context, req PageRequest) (Page[T], error) {
	return listPage(ctx, c.repo, req, nil)
}

func (c catalog[T]) Get(ctx context.Context, id int64) (*T, error) {
	return c.repo.GetByID(ctx, id)
}

func (c catalog[T]) Delete(ctx context.Context, id int64) error {
	if err := c.repo.Delete(ctx, id); err != nil {
		return err
	}
	c.changed(ctx)
	return nil
}

// create stores entity and fires the change hook.
func (c catalog[T]) create(ctx context.Context, entity *T) error {
	if err := c.repo.Create(ctx, entity); err != nil {
		return err
	}
	c.changed(ctx)
	return nil
}

func (c catalog[T]) update(ctx context.Context, entity *T) error {
	if err := c.repo.Update(ctx, entity); err != nil {
		return err
	}
	c.changed(ctx)
	return nil
}
