package state

import (
	"context"
	"sync"
)

type memoryRaw struct {
	mu   sync.Mutex
	data map[string][]byte
	// failPut, when set, makes writes for that key fail.
	failPut map[string]error
}

// MemoryStore keeps collections in process memory. Values are stored
// serialized so callers never share slices with the store.
type MemoryStore struct {
	typedStore
	mem *memoryRaw
}

func NewMemoryStore() *MemoryStore {
	r := &memoryRaw{data: make(map[string][]byte), failPut: make(map[string]error)}
	return &MemoryStore{typedStore: typedStore{raw: r}, mem: r}
}

// FailWrites makes every subsequent write of key return err; nil clears it.
func (m *MemoryStore) FailWrites(key string, err error) {
	m.mem.mu.Lock()
	defer m.mem.mu.Unlock()
	if err == nil {
		delete(m.mem.failPut, key)
		return
	}
	m.mem.failPut[key] = err
}

func (r *memoryRaw) get(_ context.Context, key string) ([]byte, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.data[key]
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out, true, nil
}

func (r *memoryRaw) put(_ context.Context, key string, value []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.failPut[key]; err != nil {
		return err
	}
	b := make([]byte, len(value))
	copy(b, value)
	r.data[key] = b
	return nil
}
