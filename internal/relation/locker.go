package relation

import (
	"context"
	"fmt"
	"sync"

	"alcyxob/fitness-content/internal/domain"
)

// Locker hands out exclusive leases on string keys. The returned unlock
// function releases the lease and is safe to call more than once.
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

// LockKey is the key used to serialize syncs of one owner within one kind.
func LockKey(kind domain.RelationKind, ownerID int64) string {
	return fmt.Sprintf("relation:%s:%d", kind.Table, ownerID)
}

// KeyedMutex is an in-process Locker. Entries are dropped once nobody holds
// or waits for them, so memory tracks in-flight keys only.
type KeyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyLock
}

type keyLock struct {
	ch   chan struct{}
	refs int
}

func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{locks: make(map[string]*keyLock)}
}

// Lock blocks until key is free or ctx is done.
func (m *KeyedMutex) Lock(ctx context.Context, key string) (func(), error) {
	m.mu.Lock()
	l, ok := m.locks[key]
	if !ok {
		l = &keyLock{ch: make(chan struct{}, 1)}
		m.locks[key] = l
	}
	l.refs++
	m.mu.Unlock()

	select {
	case l.ch <- struct{}{}:
		var once sync.Once
		return func() {
			once.Do(func() {
				<-l.ch
				m.release(key, l)
			})
		}, nil
	case <-ctx.Done():
		m.release(key, l)
		return nil, ctx.Err()
	}
}

func (m *KeyedMutex) release(key string, l *keyLock) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l.refs--
	if l.refs == 0 {
		delete(m.locks, key)
	}
}

// held is used by tests to check that idle keys are cleaned up.
func (m *KeyedMutex) held() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.locks)
}
