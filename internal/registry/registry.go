package registry

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Store persists registry membership. Implemented by
// database.SubscriberRepository; tests pass a fake or nil.
type Store interface {
	Add(ctx context.Context, userID int64) error
	List(ctx context.Context) ([]int64, error)
}

// Registry is the process-wide set of known broadcast recipients. It is safe
// for concurrent use from the message-handling goroutines and the scheduler.
type Registry struct {
	mu    sync.RWMutex
	users map[int64]struct{}
	store Store
}

// New creates an empty registry. store may be nil, in which case membership
// lives only in memory.
func New(store Store) *Registry {
	return &Registry{
		users: make(map[int64]struct{}),
		store: store,
	}
}

// Load hydrates the registry from the store. Called once at startup.
func (r *Registry) Load(ctx context.Context) error {
	if r.store == nil {
		return nil
	}
	ids, err := r.store.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to load registry: %v", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range ids {
		r.users[id] = struct{}{}
	}
	return nil
}

// Add registers a user. Idempotent; the persistent write only happens for
// users not seen before.
func (r *Registry) Add(ctx context.Context, userID int64) error {
	r.mu.Lock()
	_, known := r.users[userID]
	r.users[userID] = struct{}{}
	r.mu.Unlock()

	if known || r.store == nil {
		return nil
	}
	if err := r.store.Add(ctx, userID); err != nil {
		return fmt.Errorf("failed to persist registration: %v", err)
	}
	return nil
}

// All returns a snapshot of the registered user IDs. Users added while a
// broadcast iterates the snapshot are picked up by the next cycle.
func (r *Registry) All() []int64 {
	r.mu.RLock()
	ids := make([]int64, 0, len(r.users))
	for id := range r.users {
		ids = append(ids, id)
	}
	r.mu.RUnlock()

	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Len returns the number of registered users.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.users)
}
