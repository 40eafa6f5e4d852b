package ports

import (
	"context"
	"sync"
)

// Registry tracks every host port claimed during a run. TryReserve performs
// the check-then-claim as one atomic step so parallel allocators cannot race
// each other onto the same port. Ports held by a live container are never
// released while the batch runs; only attempts that failed before a container
// existed give their claims back.
type Registry interface {
	TryReserve(ctx context.Context, port int) (bool, error)
	Release(ctx context.Context, ports ...int) error
	Add(ctx context.Context, ports ...int) error
	Count(ctx context.Context) (int, error)
}

var _ Registry = (*MemoryRegistry)(nil)

// MemoryRegistry is the default single-process registry.
type MemoryRegistry struct {
	mu   sync.Mutex
	used map[int]struct{}
}

func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{
		used: make(map[int]struct{}),
	}
}

func (r *MemoryRegistry) TryReserve(ctx context.Context, port int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.used[port]; ok {
		return false, nil
	}
	r.used[port] = struct{}{}
	return true, nil
}

func (r *MemoryRegistry) Release(ctx context.Context, ports ...int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, p := range ports {
		delete(r.used, p)
	}
	return nil
}

func (r *MemoryRegistry) Add(ctx context.Context, ports ...int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, p := range ports {
		r.used[p] = struct{}{}
	}
	return nil
}

func (r *MemoryRegistry) Count(ctx context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.used), nil
}
