package cache

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/dialboard/backend/internal/metrics"
	"github.com/dialboard/backend/internal/storage"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// Priority orders entries for size-pressure eviction. Low-priority entries
// go first, ties broken by age.
type Priority int

const (
	PriorityLow Priority = iota
	PriorityMedium
	PriorityHigh
)

const (
	// DefaultMaxEntries bounds the hot tier
	DefaultMaxEntries = 500

	// DefaultPersistCeiling is the serialized-size limit above which an
	// entry stays memory-only
	DefaultPersistCeiling = 5 * 1024 * 1024
)

type entry struct {
	data      any
	createdAt time.Time
	expiresAt time.Time
	priority  Priority
}

// persistedEntry is the JSON envelope written to the durable store
type persistedEntry struct {
	Version   string          `json:"version"`
	Data      json.RawMessage `json:"data"`
	CreatedAt time.Time       `json:"createdAt"`
	ExpiresAt time.Time       `json:"expiresAt"`
	Priority  Priority        `json:"priority"`
}

// Options configures a TieredCache
type Options struct {
	MaxEntries     int
	PersistCeiling int
	Version        string
	Store          storage.Store
	Logger         zerolog.Logger
}

// TieredCache is a three-layer cache: a hot in-memory map with TTL and
// priority-based eviction, a single-flight get-or-compute layer, and a
// durable mirror for small entries keyed by a format version tag.
//
// All mutation goes through the cache's own methods; entries are never
// handed out, consumers only see the stored data.
type TieredCache struct {
	mu         sync.RWMutex
	entries    map[string]entry
	maxEntries int

	group singleflight.Group

	store          storage.Store
	persistCeiling int
	version        string

	logger zerolog.Logger
}

// New creates a TieredCache. A nil Store disables the persisted tier.
func New(opts Options) *TieredCache {
	if opts.MaxEntries <= 0 {
		opts.MaxEntries = DefaultMaxEntries
	}
	if opts.PersistCeiling <= 0 {
		opts.PersistCeiling = DefaultPersistCeiling
	}
	if opts.Store == nil {
		opts.Store = storage.NewNoopStore()
	}

	return &TieredCache{
		entries:        make(map[string]entry),
		maxEntries:     opts.MaxEntries,
		store:          opts.Store,
		persistCeiling: opts.PersistCeiling,
		version:        opts.Version,
		logger:         opts.Logger.With().Str("component", "cache").Logger(),
	}
}

// Get returns the cached data for key, or nil/false when absent or expired.
// Expired entries are lazily evicted on access. Never blocks on I/O.
func (c *TieredCache) Get(key string) (any, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok {
		metrics.Get().RecordCacheMiss()
		return nil, false
	}
	if time.Now().After(e.expiresAt) {
		c.evictExpired(key)
		metrics.Get().RecordCacheMiss()
		return nil, false
	}
	metrics.Get().RecordCacheHit()
	return e.data, true
}

// Has reports whether key holds a fresh entry
func (c *TieredCache) Has(key string) bool {
	_, ok := c.Get(key)
	return ok
}

// Set stores data under key with the given ttl and priority
func (c *TieredCache) Set(key string, data any, ttl time.Duration, priority Priority) {
	now := time.Now()
	e := entry{
		data:      data,
		createdAt: now,
		expiresAt: now.Add(ttl),
		priority:  priority,
	}

	c.mu.Lock()
	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.maxEntries {
		c.evictLocked()
	}
	c.entries[key] = e
	c.mu.Unlock()

	c.persist(key, e)
}

// Delete removes key from both tiers
func (c *TieredCache) Delete(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()

	go func() {
		if err := c.store.Remove(context.Background(), key); err != nil {
			c.logger.Warn().Err(err).Str("key", key).Msg("failed to remove persisted entry")
		}
	}()
}

// Len returns the number of hot-tier entries, expired ones included
func (c *TieredCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// GetOrSet returns the cached value for key, computing it via fetch on a
// miss. Concurrent callers for the same key share a single in-flight fetch;
// all of them observe the same result or the same error. Failed fetches are
// not cached. Successful fetch results default to high priority.
func (c *TieredCache) GetOrSet(ctx context.Context, key string, ttl time.Duration, fetch func(context.Context) (any, error)) (any, error) {
	if data, ok := c.Get(key); ok {
		return data, nil
	}

	data, err, _ := c.group.Do(key, func() (any, error) {
		// Re-check: another caller may have completed while we queued
		if data, ok := c.Get(key); ok {
			return data, nil
		}

		data, err := fetch(ctx)
		if err != nil {
			return nil, err
		}
		c.Set(key, data, ttl, PriorityHigh)
		return data, nil
	})
	if err != nil {
		return nil, err
	}
	return data, nil
}

// Rehydrate loads persisted entries into the hot tier on process start.
// Entries are kept only when their version tag matches and they have not
// expired; a version mismatch wipes the durable store entirely, corrupt
// single entries are dropped silently.
func (c *TieredCache) Rehydrate(ctx context.Context) error {
	persisted, err := c.store.List(ctx)
	if err != nil {
		return err
	}

	loaded := 0
	for _, p := range persisted {
		var env persistedEntry
		if err := json.Unmarshal([]byte(p.Value), &env); err != nil {
			c.logger.Warn().Str("key", p.Key).Msg("corrupt persisted entry dropped")
			if err := c.store.Remove(ctx, p.Key); err != nil {
				c.logger.Warn().Err(err).Str("key", p.Key).Msg("failed to drop corrupt entry")
			}
			continue
		}

		if env.Version != c.version {
			c.logger.Info().
				Str("found", env.Version).
				Str("want", c.version).
				Msg("cache format version changed, wiping durable store")
			return c.store.Wipe(ctx)
		}

		if time.Now().After(env.ExpiresAt) {
			if err := c.store.Remove(ctx, p.Key); err != nil {
				c.logger.Warn().Err(err).Str("key", p.Key).Msg("failed to drop expired entry")
			}
			continue
		}

		c.mu.Lock()
		c.entries[p.Key] = entry{
			data:      env.Data,
			createdAt: env.CreatedAt,
			expiresAt: env.ExpiresAt,
			priority:  env.Priority,
		}
		c.mu.Unlock()
		loaded++
	}

	if loaded > 0 {
		c.logger.Info().Int("entries", loaded).Msg("cache rehydrated from durable store")
	}
	return nil
}

// Decode converts cached data into target. Needed because rehydrated
// entries hold raw JSON rather than the original Go value.
func Decode(data any, target any) error {
	if raw, ok := data.(json.RawMessage); ok {
		return json.Unmarshal(raw, target)
	}
	buf, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return json.Unmarshal(buf, target)
}

// evictExpired removes a single expired entry from both tiers
func (c *TieredCache) evictExpired(key string) {
	c.mu.Lock()
	if e, ok := c.entries[key]; ok && time.Now().After(e.expiresAt) {
		delete(c.entries, key)
	}
	c.mu.Unlock()

	go func() {
		if err := c.store.Remove(context.Background(), key); err != nil {
			c.logger.Warn().Err(err).Str("key", key).Msg("failed to remove expired entry")
		}
	}()
}

// evictLocked frees room under size pressure: first purge everything
// expired, then drop lowest-priority oldest-first entries until 20% of
// capacity is free. Caller holds the write lock.
func (c *TieredCache) evictLocked() {
	now := time.Now()
	for key, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, key)
		}
	}

	target := c.maxEntries - c.maxEntries/5
	if len(c.entries) < target {
		return
	}

	type candidate struct {
		key       string
		priority  Priority
		createdAt time.Time
	}
	candidates := make([]candidate, 0, len(c.entries))
	for key, e := range c.entries {
		candidates = append(candidates, candidate{key, e.priority, e.createdAt})
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].priority != candidates[j].priority {
			return candidates[i].priority < candidates[j].priority
		}
		return candidates[i].createdAt.Before(candidates[j].createdAt)
	})

	evicted := 0
	for _, cand := range candidates {
		if len(c.entries) < target {
			break
		}
		delete(c.entries, cand.key)
		evicted++
	}
	if evicted > 0 {
		metrics.Get().RecordCacheEvictions(evicted)
		c.logger.Debug().Int("evicted", evicted).Msg("cache evicted entries under size pressure")
	}
}

// persist mirrors an entry to the durable store when it serializes small
// enough. Runs off the caller's path so Set never blocks on I/O.
func (c *TieredCache) persist(key string, e entry) {
	data, err := json.Marshal(e.data)
	if err != nil {
		c.logger.Debug().Err(err).Str("key", key).Msg("entry not serializable, memory-only")
		return
	}
	if len(data) > c.persistCeiling {
		return
	}

	env := persistedEntry{
		Version:   c.version,
		Data:      data,
		CreatedAt: e.createdAt,
		ExpiresAt: e.expiresAt,
		Priority:  e.priority,
	}
	value, err := json.Marshal(env)
	if err != nil {
		return
	}

	go func() {
		if err := c.store.Write(context.Background(), key, string(value)); err != nil {
			c.logger.Warn().Err(err).Str("key", key).Msg("failed to persist cache entry")
		}
	}()
}
