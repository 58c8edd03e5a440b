package cache

import (
	"context"
	"errors"
)

var (
	// ErrCacheMiss indicates no stored response matches the request
	ErrCacheMiss = errors.New("cache miss")

	// ErrInvalidEntry indicates the stored entry is invalid or corrupted
	ErrInvalidEntry = errors.New("invalid cache entry")

	// ErrEmptyName indicates a region was opened without a name
	ErrEmptyName = errors.New("cache name cannot be empty")
)

// Storage is the set of named cache regions.
type Storage interface {
	// Open returns the region called name, creating it if absent.
	Open(ctx context.Context, name string) (Region, error)

	// Keys lists region names in creation order.
	Keys(ctx context.Context) ([]string, error)

	// Delete removes the region and all of its entries.
	// It reports whether the region existed.
	Delete(ctx context.Context, name string) (bool, error)

	// Match looks the key up in every region, oldest region first.
	// Returns ErrCacheMiss if no region holds it.
	Match(ctx context.Context, key RequestKey) (*Entry, error)
}

// Region is a single named cache.
type Region interface {
	// Name returns the region name.
	Name() string

	// PutAll stores every entry in one write. Either all entries are
	// stored or none are.
	PutAll(ctx context.Context, entries map[RequestKey]*Entry) error

	// Match returns the entry stored under key, or ErrCacheMiss.
	Match(ctx context.Context, key RequestKey) (*Entry, error)
}
