package relation

import (
	"fmt"

	"alcyxob/fitness-content/internal/domain"
)

// Registry holds one SyncService per relationship kind, all sharing the same
// backend and locker.
type Registry struct {
	services map[string]*SyncService
}

// NewRegistry builds sync services for every kind in domain.AllRelationKinds.
func NewRegistry(backend Backend, locker Locker, opts ...Option) *Registry {
	if locker == nil {
		locker = NewKeyedMutex()
	}
	r := &Registry{services: make(map[string]*SyncService)}
	for _, kind := range domain.AllRelationKinds() {
		r.services[kind.Table] = NewSyncService(kind, backend, locker, opts...)
	}
	return r
}

// For returns the service of kind. It panics on an unknown kind, which can
// only happen through a programming error.
func (r *Registry) For(kind domain.RelationKind) *SyncService {
	s, ok := r.services[kind.Table]
	if !ok {
		panic(fmt.Sprintf("relation: no sync service for kind %q", kind.Table))
	}
	return s
}

// Lookup finds a service by pivot table name.
func (r *Registry) Lookup(table string) (*SyncService, bool) {
	s, ok := r.services[table]
	return s, ok
}

// Subscribe registers l on every service.
func (r *Registry) Subscribe(l ChangeListener) {
	for _, s := range r.services {
		s.Subscribe(l)
	}
}
