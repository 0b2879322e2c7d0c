package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"alcyxob/fitness-content/internal/domain"
	"alcyxob/fitness-content/internal/relation"
)

// associationRepository serves one kind through the pivot table's own
// column names. db is either the pool or a running transaction.
type associationRepository struct {
	kind domain.RelationKind
	db   *gorm.DB
}

type pairRow struct {
	ID        int64
	OwnerID   int64
	MemberID  int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (r *associationRepository) Kind() domain.RelationKind { return r.kind }

func (r *associationRepository) table(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Table(r.kind.Table)
}

func (r *associationRepository) selectPairs(ctx context.Context) *gorm.DB {
	return r.table(ctx).Select(fmt.Sprintf("id, %s AS owner_id, %s AS member_id, created_at, updated_at",
		r.kind.OwnerColumn, r.kind.MemberColumn))
}

func (r *associationRepository) ListMemberIDs(ctx context.Context, ownerID int64) (relation.IDSet, error) {
	var ids []int64
	err := r.table(ctx).Where(r.kind.OwnerColumn+" = ?", ownerID).Pluck(r.kind.MemberColumn, &ids).Error
	if err != nil {
		return nil, storeErr(err)
	}
	return relation.NewIDSet(ids...), nil
}

func (r *associationRepository) InsertPairs(ctx context.Context, ownerID int64, memberIDs relation.IDSet) error {
	if memberIDs.Len() == 0 {
		return nil
	}
	now := time.Now().UTC()
	rows := make([]map[string]interface{}, 0, memberIDs.Len())
	for _, memberID := range memberIDs.Sorted() {
		rows = append(rows, map[string]interface{}{
			r.kind.OwnerColumn:  ownerID,
			r.kind.MemberColumn: memberID,
			"created_at":        now,
			"updated_at":        now,
		})
	}
	if err := r.table(ctx).Create(rows).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return errors.Wrapf(domain.ErrDuplicatePair, "%s owner %d", r.kind.Table, ownerID)
		}
		return storeErr(err)
	}
	return nil
}

func (r *associationRepository) DeletePairs(ctx context.Context, ownerID int64, memberIDs relation.IDSet) error {
	if memberIDs.Len() == 0 {
		return nil
	}
	query := fmt.Sprintf("DELETE FROM %s WHERE %s = ? AND %s IN ?", r.kind.Table, r.kind.OwnerColumn, r.kind.MemberColumn)
	return storeErr(r.db.WithContext(ctx).Exec(query, ownerID, memberIDs.Sorted()).Error)
}

func (r *associationRepository) ListByOwners(ctx context.Context, ownerIDs []int64) (map[int64]relation.IDSet, error) {
	out := make(map[int64]relation.IDSet, len(ownerIDs))
	for _, id := range ownerIDs {
		out[id] = relation.IDSet{}
	}
	if len(ownerIDs) == 0 {
		return out, nil
	}
	var rows []pairRow
	if err := r.selectPairs(ctx).Where(r.kind.OwnerColumn+" IN ?", ownerIDs).Scan(&rows).Error; err != nil {
		return nil, storeErr(err)
	}
	for _, row := range rows {
		out[row.OwnerID].Add(row.MemberID)
	}
	return out, nil
}

func (r *associationRepository) ListPairs(ctx context.Context, ownerID int64) ([]domain.Association, error) {
	var rows []pairRow
	err := r.selectPairs(ctx).
		Where(r.kind.OwnerColumn+" = ?", ownerID).
		Order(r.kind.MemberColumn + " DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, storeErr(err)
	}
	out := make([]domain.Association, 0, len(rows))
	for _, row := range rows {
		out = append(out, domain.Association(row))
	}
	return out, nil
}

func (r *associationRepository) GetPair(ctx context.Context, id int64) (*domain.Association, error) {
	var rows []pairRow
	if err := r.selectPairs(ctx).Where("id = ?", id).Limit(1).Scan(&rows).Error; err != nil {
		return nil, storeErr(err)
	}
	if len(rows) == 0 {
		return nil, domain.NotFoundError{Resource: r.kind.Table, ID: id}
	}
	a := domain.Association(rows[0])
	return &a, nil
}

func (r *associationRepository) ListOwnerIDs(ctx context.Context, memberID int64) (relation.IDSet, error) {
	var ids []int64
	err := r.table(ctx).Where(r.kind.MemberColumn+" = ?", memberID).Pluck(r.kind.OwnerColumn, &ids).Error
	if err != nil {
		return nil, storeErr(err)
	}
	return relation.NewIDSet(ids...), nil
}

func (r *associationRepository) DeleteByID(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Exec(fmt.Sprintf("DELETE FROM %s WHERE id = ?", r.kind.Table), id)
	if res.Error != nil {
		return storeErr(res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.NotFoundError{Resource: r.kind.Table, ID: id}
	}
	return nil
}

// MissingMembers takes FOR KEY SHARE locks on the member rows it finds, so a
// concurrent delete of one of them waits for this transaction.
func (r *associationRepository) MissingMembers(ctx context.Context, memberIDs relation.IDSet) ([]int64, error) {
	return missingIDs(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "KEY SHARE"}), r.kind.Member, memberIDs)
}
