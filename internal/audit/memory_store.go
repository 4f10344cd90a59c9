package audit

import (
	"container/list"
	"context"
	"sync"
)

// historySize bounds how many events are kept per lock name so a
// long-lived lock can't grow the in-process store without bound.
const historySize = 200

// MemoryStore is an in-memory, per-lock-name ring buffer of audit events.
// Suitable for development and for admin API instances that don't need
// events to survive a restart.
type MemoryStore struct {
	mu      sync.RWMutex
	history map[string]*list.List
}

// NewMemoryStore creates a new in-memory audit store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{history: make(map[string]*list.List)}
}

// Record implements Store.
func (s *MemoryStore) Record(_ context.Context, ev Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.history[ev.LockName]
	if !ok {
		l = list.New()
		s.history[ev.LockName] = l
	}
	l.PushBack(ev)
	for l.Len() > historySize {
		l.Remove(l.Front())
	}
	return nil
}

// ListByLock implements Store. It returns the most recent limit events for
// lockName, oldest first; limit <= 0 returns everything retained.
func (s *MemoryStore) ListByLock(_ context.Context, lockName string, limit int) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	l, ok := s.history[lockName]
	if !ok {
		return nil, nil
	}

	all := make([]Event, 0, l.Len())
	for e := l.Front(); e != nil; e = e.Next() {
		all = append(all, e.Value.(Event))
	}
	if limit > 0 && len(all) > limit {
		all = all[len(all)-limit:]
	}
	return all, nil
}
