package memory

import (
	"context"
	"sort"

	"github.com/pkg/errors"

	"alcyxob/fitness-content/internal/domain"
	"alcyxob/fitness-content/internal/relation"
)

// assocStore serves one kind. When tx is set it works on the staged table
// of a running transaction and must not touch the store lock.
type assocStore struct {
	kind domain.RelationKind
	s    *Store
	tx   *pivotTable
}

func (a *assocStore) Kind() domain.RelationKind { return a.kind }

func (a *assocStore) read(ctx context.Context, fn func(p *pivotTable) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if a.tx != nil {
		return fn(a.tx)
	}
	a.s.mu.RLock()
	defer a.s.mu.RUnlock()
	return fn(a.s.pivots[a.kind.Table])
}

func (a *assocStore) write(ctx context.Context, fn func(p *pivotTable) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if a.tx != nil {
		return fn(a.tx)
	}
	a.s.mu.Lock()
	defer a.s.mu.Unlock()
	// Apply to a copy so a failing call leaves the table untouched.
	staged := a.s.pivots[a.kind.Table].clone()
	if err := fn(staged); err != nil {
		return err
	}
	a.s.pivots[a.kind.Table] = staged
	return nil
}

func (a *assocStore) ListMemberIDs(ctx context.Context, ownerID int64) (relation.IDSet, error) {
	out := relation.IDSet{}
	err := a.read(ctx, func(p *pivotTable) error {
		for _, row := range p.rows {
			if row.OwnerID == ownerID {
				out.Add(row.MemberID)
			}
		}
		return nil
	})
	return out, err
}

func (a *assocStore) InsertPairs(ctx context.Context, ownerID int64, memberIDs relation.IDSet) error {
	return a.write(ctx, func(p *pivotTable) error {
		for _, row := range p.rows {
			if row.OwnerID == ownerID && memberIDs.Has(row.MemberID) {
				return errors.Wrapf(domain.ErrDuplicatePair, "%s (%d, %d)", a.kind.Table, ownerID, row.MemberID)
			}
		}
		now := a.s.now()
		for _, memberID := range memberIDs.Sorted() {
			p.seq++
			p.rows[p.seq] = domain.Association{
				ID: p.seq, OwnerID: ownerID, MemberID: memberID, CreatedAt: now, UpdatedAt: now,
			}
		}
		return nil
	})
}

func (a *assocStore) DeletePairs(ctx context.Context, ownerID int64, memberIDs relation.IDSet) error {
	return a.write(ctx, func(p *pivotTable) error {
		for id, row := range p.rows {
			if row.OwnerID == ownerID && memberIDs.Has(row.MemberID) {
				delete(p.rows, id)
			}
		}
		return nil
	})
}

func (a *assocStore) ListByOwners(ctx context.Context, ownerIDs []int64) (map[int64]relation.IDSet, error) {
	out := make(map[int64]relation.IDSet, len(ownerIDs))
	for _, id := range ownerIDs {
		out[id] = relation.IDSet{}
	}
	err := a.read(ctx, func(p *pivotTable) error {
		for _, row := range p.rows {
			if set, ok := out[row.OwnerID]; ok {
				set.Add(row.MemberID)
			}
		}
		return nil
	})
	return out, err
}

func (a *assocStore) ListPairs(ctx context.Context, ownerID int64) ([]domain.Association, error) {
	var out []domain.Association
	err := a.read(ctx, func(p *pivotTable) error {
		for _, row := range p.rows {
			if row.OwnerID == ownerID {
				out = append(out, row)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].MemberID > out[j].MemberID })
	return out, err
}

func (a *assocStore) GetPair(ctx context.Context, id int64) (*domain.Association, error) {
	var out *domain.Association
	err := a.read(ctx, func(p *pivotTable) error {
		row, ok := p.rows[id]
		if !ok {
			return domain.NotFoundError{Resource: a.kind.Table, ID: id}
		}
		out = &row
		return nil
	})
	return out, err
}

func (a *assocStore) ListOwnerIDs(ctx context.Context, memberID int64) (relation.IDSet, error) {
	out := relation.IDSet{}
	err := a.read(ctx, func(p *pivotTable) error {
		for _, row := range p.rows {
			if row.MemberID == memberID {
				out.Add(row.OwnerID)
			}
		}
		return nil
	})
	return out, err
}

func (a *assocStore) DeleteByID(ctx context.Context, id int64) error {
	return a.write(ctx, func(p *pivotTable) error {
		if _, ok := p.rows[id]; !ok {
			return domain.NotFoundError{Resource: a.kind.Table, ID: id}
		}
		delete(p.rows, id)
		return nil
	})
}

// MissingMembers reads the member table under the same lock as the pivot
// rows, so inside a transaction no delete can interleave.
func (a *assocStore) MissingMembers(ctx context.Context, memberIDs relation.IDSet) ([]int64, error) {
	var missing []int64
	err := a.read(ctx, func(*pivotTable) error {
		missing = a.s.missing(a.kind.Member, memberIDs)
		return nil
	})
	return missing, err
}
