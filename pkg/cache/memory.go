package cache

import (
	"context"
	"fmt"
	"strings"
	"sync"

	gocache "github.com/patrickmn/go-cache"
)

const backendMemory = "memory"

// MemoryStorage keeps cache regions in process memory.
// Entries never expire; they live until their region is deleted.
type MemoryStorage struct {
	mu      sync.RWMutex
	regions []string
	entries *gocache.Cache
}

// NewMemoryStorage creates an empty in-process storage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		entries: gocache.New(gocache.NoExpiration, 0),
	}
}

func memoryKey(name string, key RequestKey) string {
	return name + "\x00" + key.String()
}

func (s *MemoryStorage) Open(_ context.Context, name string) (Region, error) {
	if name == "" {
		return nil, ErrEmptyName
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.indexOf(name) < 0 {
		s.regions = append(s.regions, name)
	}
	return &memoryRegion{storage: s, name: name}, nil
}

func (s *MemoryStorage) Keys(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, len(s.regions))
	copy(names, s.regions)
	return names, nil
}

func (s *MemoryStorage) Delete(_ context.Context, name string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(name)
	if i < 0 {
		return false, nil
	}
	s.regions = append(s.regions[:i], s.regions[i+1:]...)

	prefix := name + "\x00"
	for k := range s.entries.Items() {
		if strings.HasPrefix(k, prefix) {
			s.entries.Delete(k)
		}
	}
	return true, nil
}

func (s *MemoryStorage) Match(_ context.Context, key RequestKey) (*Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, name := range s.regions {
		if entry, ok := s.get(name, key); ok {
			CacheHits.WithLabelValues(backendMemory).Inc()
			return entry, nil
		}
	}

	CacheMisses.WithLabelValues(backendMemory).Inc()
	return nil, ErrCacheMiss
}

// get must be called with s.mu held.
func (s *MemoryStorage) get(name string, key RequestKey) (*Entry, bool) {
	v, ok := s.entries.Get(memoryKey(name, key))
	if !ok {
		return nil, false
	}
	entry, ok := v.(*Entry)
	if !ok {
		return nil, false
	}
	return entry.Clone(), true
}

// indexOf must be called with s.mu held.
func (s *MemoryStorage) indexOf(name string) int {
	for i, n := range s.regions {
		if n == name {
			return i
		}
	}
	return -1
}

type memoryRegion struct {
	storage *MemoryStorage
	name    string
}

func (r *memoryRegion) Name() string {
	return r.name
}

func (r *memoryRegion) PutAll(_ context.Context, entries map[RequestKey]*Entry) error {
	for key, entry := range entries {
		if entry == nil {
			return fmt.Errorf("cache entry for %s cannot be nil", key)
		}
	}

	r.storage.mu.Lock()
	defer r.storage.mu.Unlock()

	// A deleted region is recreated, as Open would do.
	if r.storage.indexOf(r.name) < 0 {
		r.storage.regions = append(r.storage.regions, r.name)
	}

	var size int
	for key, entry := range entries {
		r.storage.entries.Set(memoryKey(r.name, key), entry.Clone(), gocache.NoExpiration)
		size += len(entry.Data)
	}
	CacheWrittenBytes.WithLabelValues(backendMemory).Add(float64(size))
	return nil
}

func (r *memoryRegion) Match(_ context.Context, key RequestKey) (*Entry, error) {
	r.storage.mu.RLock()
	defer r.storage.mu.RUnlock()

	if entry, ok := r.storage.get(r.name, key); ok {
		CacheHits.WithLabelValues(backendMemory).Inc()
		return entry, nil
	}
	CacheMisses.WithLabelValues(backendMemory).Inc()
	return nil, ErrCacheMiss
}
