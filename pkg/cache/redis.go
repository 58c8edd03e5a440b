package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Redis keys for region storage.
const (
	// RedisKeyRegions is a sorted set of region names scored by creation sequence.
	RedisKeyRegions = "sw:regions"

	// RedisKeyRegionSeq is the counter used to score new regions.
	RedisKeyRegionSeq = "sw:regions:seq"

	// RedisKeyRegionPrefix prefixes the hash holding a region's entries.
	RedisKeyRegionPrefix = "sw:region:"
)

const backendRedis = "redis"

// RedisStorage stores cache regions in Redis.
// Each region is a hash of request key -> JSON encoded Entry.
type RedisStorage struct {
	redis *redis.Client
}

// NewRedisStorage creates a Redis backed storage.
func NewRedisStorage(redisClient *redis.Client) *RedisStorage {
	if redisClient == nil {
		panic("redis client cannot be nil")
	}
	return &RedisStorage{
		redis: redisClient,
	}
}

func regionKey(name string) string {
	return RedisKeyRegionPrefix + name
}

// Open registers the region if it does not exist yet.
func (s *RedisStorage) Open(ctx context.Context, name string) (Region, error) {
	if name == "" {
		return nil, ErrEmptyName
	}

	if err := s.register(ctx, s.redis, name); err != nil {
		CacheErrors.WithLabelValues("open").Inc()
		return nil, err
	}

	return &redisRegion{storage: s, name: name}, nil
}

// register adds name to the region set unless it is already there.
// A sequence number is taken even for existing regions; ZADD NX ignores it.
func (s *RedisStorage) register(ctx context.Context, cmd redis.Cmdable, name string) error {
	seq, err := s.redis.Incr(ctx, RedisKeyRegionSeq).Result()
	if err != nil {
		return fmt.Errorf("redis incr: %w", err)
	}
	if err := cmd.ZAddNX(ctx, RedisKeyRegions, redis.Z{Score: float64(seq), Member: name}).Err(); err != nil {
		return fmt.Errorf("redis zadd: %w", err)
	}
	return nil
}

// Keys returns region names in creation order.
func (s *RedisStorage) Keys(ctx context.Context) ([]string, error) {
	names, err := s.redis.ZRange(ctx, RedisKeyRegions, 0, -1).Result()
	if err != nil {
		CacheErrors.WithLabelValues("keys").Inc()
		return nil, fmt.Errorf("redis zrange: %w", err)
	}
	return names, nil
}

// Delete removes the region name and its entries atomically.
func (s *RedisStorage) Delete(ctx context.Context, name string) (bool, error) {
	pipe := s.redis.TxPipeline()
	removed := pipe.ZRem(ctx, RedisKeyRegions, name)
	pipe.Del(ctx, regionKey(name))

	if _, err := pipe.Exec(ctx); err != nil {
		CacheErrors.WithLabelValues("delete").Inc()
		return false, fmt.Errorf("redis delete region %q: %w", name, err)
	}

	return removed.Val() > 0, nil
}

// Match searches every region in creation order.
func (s *RedisStorage) Match(ctx context.Context, key RequestKey) (*Entry, error) {
	names, err := s.Keys(ctx)
	if err != nil {
		return nil, err
	}

	for _, name := range names {
		entry, err := s.get(ctx, name, key)
		if errors.Is(err, ErrCacheMiss) {
			continue
		}
		if err != nil {
			return nil, err
		}
		CacheHits.WithLabelValues(backendRedis).Inc()
		return entry, nil
	}

	CacheMisses.WithLabelValues(backendRedis).Inc()
	return nil, ErrCacheMiss
}

func (s *RedisStorage) get(ctx context.Context, name string, key RequestKey) (*Entry, error) {
	data, err := s.redis.HGet(ctx, regionKey(name), key.String()).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrCacheMiss
		}
		CacheErrors.WithLabelValues("get").Inc()
		return nil, fmt.Errorf("redis hget: %w", err)
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		CacheErrors.WithLabelValues("get").Inc()
		return nil, fmt.Errorf("%w: %v", ErrInvalidEntry, err)
	}

	return &entry, nil
}

type redisRegion struct {
	storage *RedisStorage
	name    string
}

func (r *redisRegion) Name() string {
	return r.name
}

// PutAll writes every entry with a single HSET inside a transaction.
func (r *redisRegion) PutAll(ctx context.Context, entries map[RequestKey]*Entry) error {
	if len(entries) == 0 {
		return nil
	}

	fields := make(map[string]interface{}, len(entries))
	var size int
	for key, entry := range entries {
		if entry == nil {
			return fmt.Errorf("cache entry for %s cannot be nil", key)
		}
		data, err := json.Marshal(entry)
		if err != nil {
			CacheErrors.WithLabelValues("put").Inc()
			return fmt.Errorf("marshal cache entry: %w", err)
		}
		fields[key.String()] = data
		size += len(data)
	}

	// A deleted region is recreated, as Open would do.
	pipe := r.storage.redis.TxPipeline()
	if err := r.storage.register(ctx, pipe, r.name); err != nil {
		CacheErrors.WithLabelValues("put").Inc()
		return err
	}
	pipe.HSet(ctx, regionKey(r.name), fields)
	if _, err := pipe.Exec(ctx); err != nil {
		CacheErrors.WithLabelValues("put").Inc()
		return fmt.Errorf("redis hset: %w", err)
	}

	CacheWrittenBytes.WithLabelValues(backendRedis).Add(float64(size))
	return nil
}

func (r *redisRegion) Match(ctx context.Context, key RequestKey) (*Entry, error) {
	entry, err := r.storage.get(ctx, r.name, key)
	if errors.Is(err, ErrCacheMiss) {
		CacheMisses.WithLabelValues(backendRedis).Inc()
		return nil, err
	}
	if err != nil {
		return nil, err
	}
	CacheHits.WithLabelValues(backendRedis).Inc()
	return entry, nil
}
