// Package memory provides an in-process transactional Store used by tests and
// local development. Transactions work on a copy of the touched pivot table
// and swap it in on commit.
package memory

import (
	"context"
	"sync"
	"time"

	"alcyxob/fitness-content/internal/domain"
	"alcyxob/fitness-content/internal/relation"
	"alcyxob/fitness-content/internal/repository"
)

type pivotTable struct {
	rows map[int64]domain.Association
	seq  int64
}

func (p *pivotTable) clone() *pivotTable {
	out := &pivotTable{rows: make(map[int64]domain.Association, len(p.rows)), seq: p.seq}
	for k, v := range p.rows {
		out.rows[k] = v
	}
	return out
}

// Store keeps every table in maps guarded by one lock.
type Store struct {
	mu     sync.RWMutex
	tables map[domain.EntityType]map[int64]any
	seq    map[domain.EntityType]int64
	pivots map[string]*pivotTable
	now    func() time.Time
}

var _ repository.Store = (*Store)(nil)

// New returns an empty store.
func New() *Store {
	s := &Store{
		tables: make(map[domain.EntityType]map[int64]any),
		seq:    make(map[domain.EntityType]int64),
		pivots: make(map[string]*pivotTable),
		now:    func() time.Time { return time.Now().UTC() },
	}
	for _, kind := range domain.AllRelationKinds() {
		s.pivots[kind.Table] = &pivotTable{rows: map[int64]domain.Association{}}
	}
	return s
}

// SetClock replaces the time source.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *Store) table(t domain.EntityType) map[int64]any {
	rows, ok := s.tables[t]
	if !ok {
		rows = make(map[int64]any)
		s.tables[t] = rows
	}
	return rows
}

func (s *Store) Categories() repository.EntityRepository[domain.Category] {
	return newEntityRepo[domain.Category](s, domain.EntityCategories)
}

func (s *Store) Equipments() repository.EntityRepository[domain.Equipment] {
	return newEntityRepo[domain.Equipment](s, domain.EntityEquipments)
}

func (s *Store) Exercises() repository.EntityRepository[domain.Exercise] {
	return newEntityRepo[domain.Exercise](s, domain.EntityExercises)
}

func (s *Store) FocusAreas() repository.EntityRepository[domain.FocusArea] {
	return newEntityRepo[domain.FocusArea](s, domain.EntityFocusAreas)
}

func (s *Store) Workouts() repository.EntityRepository[domain.Workout] {
	return newEntityRepo[domain.Workout](s, domain.EntityWorkouts)
}

func (s *Store) ExecutionPoints() repository.EntityRepository[domain.ExecutionPoint] {
	return newEntityRepo[domain.ExecutionPoint](s, domain.EntityExecutionPoints)
}

func (s *Store) MasterGoals() repository.EntityRepository[domain.MasterGoal] {
	return newEntityRepo[domain.MasterGoal](s, domain.EntityMasterGoals)
}

func (s *Store) Users() repository.EntityRepository[domain.User] {
	return newEntityRepo[domain.User](s, domain.EntityUsers)
}

func (s *Store) UserDetails() repository.EntityRepository[domain.UserDetail] {
	return newEntityRepo[domain.UserDetail](s, domain.EntityUserDetails)
}

// Associations returns a store that locks per call.
func (s *Store) Associations(kind domain.RelationKind) relation.AssociationStore {
	return &assocStore{kind: kind, s: s}
}

// WithinOwnerLock holds the store lock for the whole transaction, so
// transactions are fully serialized.
func (s *Store) WithinOwnerLock(ctx context.Context, kind domain.RelationKind, ownerID int64, fn relation.TxFunc) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.table(kind.Owner)[ownerID]; !ok {
		return domain.NotFoundError{Resource: string(kind.Owner), ID: ownerID}
	}
	staged := s.pivots[kind.Table].clone()
	tx := &assocStore{kind: kind, s: s, tx: staged}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	s.pivots[kind.Table] = staged
	return nil
}

func (s *Store) MissingIDs(ctx context.Context, t domain.EntityType, ids relation.IDSet) ([]int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.missing(t, ids), nil
}

// missing lists the ids with no row of type t. Caller holds s.mu.
func (s *Store) missing(t domain.EntityType, ids relation.IDSet) []int64 {
	rows := s.tables[t]
	var missing []int64
	for _, id := range ids.Sorted() {
		if _, ok := rows[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing
}

func (s *Store) Close(context.Context) error { return nil }

// cascade drops every pivot row that references (t, id). Caller holds s.mu.
func (s *Store) cascade(t domain.EntityType, id int64) {
	asOwner, asMember := domain.KindsReferencing(t)
	for _, kind := range asOwner {
		p := s.pivots[kind.Table]
		for rowID, row := range p.rows {
			if row.OwnerID == id {
				delete(p.rows, rowID)
			}
		}
	}
	for _, kind := range asMember {
		p := s.pivots[kind.Table]
		for rowID, row := range p.rows {
			if row.MemberID == id {
				delete(p.rows, rowID)
			}
		}
	}
}
