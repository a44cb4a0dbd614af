package sessionstore

import (
	"sync"
	"time"
)

// MemoryBackend is the single-process fallback used when Redis is not
// configured. Entries expire by TTL; PurgeExpired reclaims them.
type MemoryBackend struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
}

type memoryEntry struct {
	data      []byte
	expiresAt time.Time
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		entries: make(map[string]memoryEntry),
	}
}

func (b *MemoryBackend) Save(id string, data []byte, ttl time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	entry := memoryEntry{data: data}
	if ttl > 0 {
		entry.expiresAt = time.Now().Add(ttl)
	}
	b.entries[id] = entry
	return nil
}

func (b *MemoryBackend) Load(id string) ([]byte, error) {
	b.mu.RLock()
	entry, ok := b.entries[id]
	b.mu.RUnlock()

	if !ok {
		return nil, ErrNoSession
	}
	if !entry.expiresAt.IsZero() && time.Now().After(entry.expiresAt) {
		b.mu.Lock()
		delete(b.entries, id)
		b.mu.Unlock()
		return nil, ErrNoSession
	}
	return entry.data, nil
}

func (b *MemoryBackend) Delete(id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.entries, id)
	return nil
}

// PurgeExpired drops expired entries. Run periodically from a cron job.
func (b *MemoryBackend) PurgeExpired() int {
	now := time.Now()

	b.mu.Lock()
	defer b.mu.Unlock()

	purged := 0
	for id, entry := range b.entries {
		if !entry.expiresAt.IsZero() && now.After(entry.expiresAt) {
			delete(b.entries, id)
			purged++
		}
	}
	return purged
}

// Len reports the number of live entries.
func (b *MemoryBackend) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.entries)
}
