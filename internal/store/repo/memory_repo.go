package repo

import (
	"context"
	"sync"
)

type memEntry struct {
	value   []byte
	version int64
}

// MemoryRepo keeps versioned values in a map. It is the default backend and the one tests use.
type MemoryRepo struct {
	mu   sync.RWMutex
	data map[string]memEntry
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{data: make(map[string]memEntry)}
}

func (r *MemoryRepo) Get(_ context.Context, key string) ([]byte, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.data[key]
	if !ok {
		return nil, 0, ErrNotFound
	}
	out := make([]byte, len(e.value))
	copy(out, e.value)
	return out, e.version, nil
}

func (r *MemoryRepo) Put(_ context.Context, key string, value []byte, expected int64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur := r.data[key].version
	if cur != expected {
		return cur, ErrVersionConflict
	}
	v := make([]byte, len(value))
	copy(v, value)
	r.data[key] = memEntry{value: v, version: cur + 1}
	return cur + 1, nil
}

func (r *MemoryRepo) Delete(_ context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.data, key)
	return nil
}
