package kv

import (
	"context"
	"sort"
	"strings"
	"sync"
)

type memoryEntry struct {
	value []byte
	seq   uint64
}

// MemoryStore is a process-local Store, used in tests and when no database
// is configured.
type MemoryStore struct {
	entries    map[string]memoryEntry
	seq        uint64
	maxEntries int
	mu         sync.Mutex
}

// NewMemoryStore returns an empty store. maxEntries of zero disables the quota.
func NewMemoryStore(maxEntries int) *MemoryStore {
	return &MemoryStore{entries: make(map[string]memoryEntry), maxEntries: maxEntries}
}

func (m *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.entries[key]
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(entry.value))
	copy(out, entry.value)
	return out, true, nil
}

func (m *MemoryStore) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.entries[key]; !exists && m.maxEntries > 0 && len(m.entries) >= m.maxEntries {
		return ErrQuotaExceeded
	}
	m.seq++
	stored := make([]byte, len(value))
	copy(stored, value)
	m.entries[key] = memoryEntry{value: stored, seq: m.seq}
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
	return nil
}

func (m *MemoryStore) EvictOldest(_ context.Context, n int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if n <= 0 {
		return 0, nil
	}
	keys := make([]string, 0, len(m.entries))
	for key := range m.entries {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		return m.entries[keys[i]].seq < m.entries[keys[j]].seq
	})
	if n > len(keys) {
		n = len(keys)
	}
	for _, key := range keys[:n] {
		delete(m.entries, key)
	}
	return n, nil
}

func (m *MemoryStore) DeletePrefix(_ context.Context, prefix string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	removed := 0
	for key := range m.entries {
		if strings.HasPrefix(key, prefix) {
			delete(m.entries, key)
			removed++
		}
	}
	return removed, nil
}

func (m *MemoryStore) Keys(_ context.Context, prefix string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var keys []string
	for key := range m.entries {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// Len returns the number of stored entries.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}
