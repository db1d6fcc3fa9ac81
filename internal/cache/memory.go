package cache

import (
	"context"
	"sync"
	"time"

	"github.com/decred/dcrd/container/lru"
)

type memoryEntry struct {
	value   string
	expires time.Time
}

// Memory is an in-process LRU store bounded by entry count.
type Memory struct {
	mu      sync.Mutex
	entries *lru.Map[string, memoryEntry]
	now     func() time.Time
}

// NewMemory 创建进程内缓存，size 为最大条目数
func NewMemory(size uint32) *Memory {
	if size == 0 {
		size = 1024
	}
	return &Memory{
		entries: lru.NewMap[string, memoryEntry](size),
		now:     time.Now,
	}
}

func (m *Memory) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.entries.Get(key)
	if !ok {
		return "", false, nil
	}
	if !entry.expires.IsZero() && !m.now().Before(entry.expires) {
		m.entries.Delete(key)
		return "", false, nil
	}
	return entry.value, true, nil
}

// Set stores value; a zero ttl never expires.
func (m *Memory) Set(_ context.Context, key, value string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry := memoryEntry{value: value}
	if ttl > 0 {
		entry.expires = m.now().Add(ttl)
	}
	m.entries.Put(key, entry)
	return nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries.Delete(key)
	return nil
}
