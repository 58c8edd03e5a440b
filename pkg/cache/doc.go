// Package cache provides named cache regions for the offline cache service.
//
// A region is a versioned, isolated map of request identity (method + URL)
// to a stored response snapshot. Two backends implement Storage:
//
// - RedisStorage: regions survive restarts and are shared between instances
// - MemoryStorage: in-process regions backed by go-cache, for tests and
// single-node setups
//
// # Basic Usage
//
//	// Create Redis client
//	redisClient := redis.NewClient(&redis.Options{
//		Addr: "localhost:6379",
//	})
//
//	storage := cache.NewRedisStorage(redisClient)
//
//	// Open (create-if-absent) a region
//	region, err := storage.Open(ctx, "northwest-bus-v1.0.0")
//
//	// Look a request up in every region
//	entry, err := storage.Match(ctx, cache.KeyForRequest(req))
//	if errors.Is(err, cache.ErrCacheMiss) {
//		// Not stored - go to the network
//	}
//
// # HTTP Response Snapshots
//
//	entry, err := cache.ResponseToEntry(resp)
//	if err != nil {
//		return err
//	}
//	err = region.PutAll(ctx, map[cache.RequestKey]*cache.Entry{key: entry})
//
//	// Later
//	resp := cache.EntryToResponse(entry, req)
//
// # Redis Layout
//
//   - sw:regions (sorted set) - region names scored by creation time
//   - sw:region:<name> (hash) - "METHOD url" -> JSON encoded Entry
//
// # Metrics
//
//   - nwbus_cache_hits_total{backend} - Region hits
//   - nwbus_cache_misses_total{backend} - Region misses
//   - nwbus_cache_written_bytes_total{backend} - Bytes written to regions
//   - nwbus_cache_errors_total{operation} - Storage errors
//
// Entries carry no expiry. Nothing is evicted except by deleting a whole
// region.
package cache
