// Package cache provides a Redis-backed key-value cache with a process-local
// in-memory fallback, used as the read-through layer in front of every
// upstream knowledge-base call the service makes.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Cache is the read-through store every package in internal/wikidata/store
// depends on. A cache miss and a cache error are both reported as (nil,
// nil): callers always have a legitimate upstream fallback, so a cache
// failure degrades performance, never correctness.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	SAdd(ctx context.Context, key string, members ...string) error
	SIsMember(ctx context.Context, key, member string) (bool, error)
	Expire(ctx context.Context, key string, ttl time.Duration) error
	IncrBy(ctx context.Context, key string, delta int64, ttl time.Duration) (int64, error)
	IncrByFloat(ctx context.Context, key string, delta float64, ttl time.Duration) (float64, error)
}

// RedisCache wraps a go-redis client, logging soft failures rather than
// surfacing them: a reconciliation request should degrade to an upstream
// fetch, not fail, when Redis is unreachable.
type RedisCache struct {
	client *redis.Client
	prefix string
	logger zerolog.Logger
}

// New connects to uri (a redis:// URL) and namespaces every key under
// prefix. If uri is empty, the returned cache is backed by an in-process
// map only.
func New(uri, prefix string, logger zerolog.Logger) (Cache, error) {
	if uri == "" {
		return NewMemory(prefix), nil
	}
	opts, err := redis.ParseURL(uri)
	if err != nil {
		return nil, err
	}
	return &RedisCache{client: redis.NewClient(opts), prefix: prefix, logger: logger}, nil
}

// NewWithClient wraps an already-constructed redis.Client, used by tests
// against miniredis.
func NewWithClient(client *redis.Client, prefix string, logger zerolog.Logger) Cache {
	return &RedisCache{client: client, prefix: prefix, logger: logger}
}

func (c *RedisCache) key(k string) string {
	if c.prefix == "" {
		return k
	}
	return c.prefix + ":" + k
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, error) {
	out, err := c.client.Get(ctx, c.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("cache get failed, falling through")
		return nil, nil
	}
	return out, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := c.client.Set(ctx, c.key(key), value, ttl).Err(); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("cache set failed")
	}
	return nil
}

func (c *RedisCache) SAdd(ctx context.Context, key string, members ...string) error {
	args := make([]interface{}, len(members))
	for i, m := range members {
		args[i] = m
	}
	if err := c.client.SAdd(ctx, c.key(key), args...).Err(); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("cache sadd failed")
	}
	return nil
}

func (c *RedisCache) SIsMember(ctx context.Context, key, member string) (bool, error) {
	ok, err := c.client.SIsMember(ctx, c.key(key), member).Result()
	if err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("cache sismember failed, falling through")
		return false, nil
	}
	return ok, nil
}

func (c *RedisCache) Expire(ctx context.Context, key string, ttl time.Duration) error {
	if err := c.client.Expire(ctx, c.key(key), ttl).Err(); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("cache expire failed")
	}
	return nil
}

func (c *RedisCache) IncrBy(ctx context.Context, key string, delta int64, ttl time.Duration) (int64, error) {
	k := c.key(key)
	out, err := c.client.IncrBy(ctx, k, delta).Result()
	if err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("cache incrby failed")
		return 0, nil
	}
	if err := c.client.Expire(ctx, k, ttl).Err(); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("cache expire after incrby failed")
	}
	return out, nil
}

func (c *RedisCache) IncrByFloat(ctx context.Context, key string, delta float64, ttl time.Duration) (float64, error) {
	k := c.key(key)
	out, err := c.client.IncrByFloat(ctx, k, delta).Result()
	if err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("cache incrbyfloat failed")
		return 0, nil
	}
	if err := c.client.Expire(ctx, k, ttl).Err(); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("cache expire after incrbyfloat failed")
	}
	return out, nil
}

// GetJSON and SetJSON are convenience wrappers used throughout the store
// package, since almost everything cached here is a JSON-encoded struct.
func GetJSON(ctx context.Context, c Cache, key string, out interface{}) (bool, error) {
	raw, err := c.Get(ctx, key)
	if err != nil || raw == nil {
		return false, err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return false, nil
	}
	return true, nil
}

func SetJSON(ctx context.Context, c Cache, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.Set(ctx, key, raw, ttl)
}

// MemoryCache is an in-process cache used in place of Redis when no Redis
// URI is configured.
type MemoryCache struct {
	mu      sync.RWMutex
	prefix  string
	entries map[string]memoEntry
	sets    map[string]map[string]struct{}
}

type memoEntry struct {
	value   []byte
	expires time.Time
}

func NewMemory(prefix string) *MemoryCache {
	return &MemoryCache{prefix: prefix, entries: map[string]memoEntry{}, sets: map[string]map[string]struct{}{}}
}

func (m *MemoryCache) key(k string) string {
	if m.prefix == "" {
		return k
	}
	return m.prefix + ":" + k
}

func (m *MemoryCache) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[m.key(key)]
	if !ok || (!e.expires.IsZero() && time.Now().After(e.expires)) {
		return nil, nil
	}
	return e.value, nil
}

func (m *MemoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	var expires time.Time
	if ttl > 0 {
		expires = time.Now().Add(ttl)
	}
	m.entries[m.key(key)] = memoEntry{value: value, expires: expires}
	return nil
}

func (m *MemoryCache) SAdd(_ context.Context, key string, members ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := m.key(key)
	set, ok := m.sets[k]
	if !ok {
		set = map[string]struct{}{}
		m.sets[k] = set
	}
	for _, mem := range members {
		set[mem] = struct{}{}
	}
	return nil
}

func (m *MemoryCache) SIsMember(_ context.Context, key, member string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	set, ok := m.sets[m.key(key)]
	if !ok {
		return false, nil
	}
	_, present := set[member]
	return present, nil
}

func (m *MemoryCache) Expire(_ context.Context, key string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := m.key(key)
	if e, ok := m.entries[k]; ok {
		e.expires = time.Now().Add(ttl)
		m.entries[k] = e
	}
	return nil
}

func (m *MemoryCache) IncrBy(_ context.Context, key string, delta int64, ttl time.Duration) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := m.key(key)
	var current int64
	if e, ok := m.entries[k]; ok {
		current, _ = strconv.ParseInt(string(e.value), 10, 64)
	}
	current += delta
	m.entries[k] = memoEntry{value: []byte(strconv.FormatInt(current, 10)), expires: time.Now().Add(ttl)}
	return current, nil
}

func (m *MemoryCache) IncrByFloat(_ context.Context, key string, delta float64, ttl time.Duration) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := m.key(key)
	var current float64
	if e, ok := m.entries[k]; ok {
		current, _ = strconv.ParseFloat(string(e.value), 64)
	}
	current += delta
	m.entries[k] = memoEntry{value: []byte(strconv.FormatFloat(current, 'g', -1, 64)), expires: time.Now().Add(ttl)}
	return current, nil
}
