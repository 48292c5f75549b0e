package storage

import "sync"

// Store defines the interface for a node's local key-value storage.
type Store interface {
	// Get retrieves a value by key. The second return value reports
	// whether the key was present.
	Get(key string) (string, bool)
	// Put stores a value under key, unconditionally overwriting any
	// existing value (last write wins).
	Put(key, value string)
	// Dump returns a point-in-time copy of the full store contents.
	// Mutations made after Dump returns are not visible through the copy.
	Dump() map[string]string
	// Clear removes all entries.
	Clear()
}

// MemoryStore is an in-memory implementation of Store.
// A single instance is owned by exactly one node: the leader writes it on
// the client write path, a follower writes it when applying replicated
// writes. All access goes through the mutex so a reader never observes a
// partially written entry.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]string
}

// NewMemoryStore creates a new empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data: make(map[string]string),
	}
}

// Get retrieves a value by key.
func (s *MemoryStore) Get(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, ok := s.data[key]
	return value, ok
}

// Put stores a value under key.
func (s *MemoryStore) Put(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[key] = value
}

// Dump returns a snapshot copy of the store.
func (s *MemoryStore) Dump() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot := make(map[string]string, len(s.data))
	for k, v := range s.data {
		snapshot[k] = v
	}
	return snapshot
}

// Clear removes all entries.
func (s *MemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data = make(map[string]string)
}
