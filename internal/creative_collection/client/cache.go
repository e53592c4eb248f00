package client

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/5hixia0jie/SYNAPSEAUTOMATION/internal/models"
	"github.com/5hixia0jie/SYNAPSEAUTOMATION/pkg/logger"
	"github.com/5hixia0jie/SYNAPSEAUTOMATION/pkg/util"
	"github.com/go-redis/redis/v8"
)

// DetailCache stores item details by id.
type DetailCache interface {
	Get(ctx context.Context, id int64) (*models.CollectionItem, bool)
	Put(ctx context.Context, item models.CollectionItem)
	Invalidate(ctx context.Context, id int64)
}

// MemoryCache is an in-process LRU cache.
type MemoryCache struct {
	lru *util.LRUCache[int64, models.CollectionItem]
}

// NewMemoryCache creates a MemoryCache holding at most capacity items.
func NewMemoryCache(capacity int, ttl time.Duration) (*MemoryCache, error) {
	lru, err := util.NewLRU[int64, models.CollectionItem](capacity, ttl)
	if err != nil {
		return nil, err
	}
	return &MemoryCache{lru: lru}, nil
}

func (m *MemoryCache) Get(_ context.Context, id int64) (*models.CollectionItem, bool) {
	item, ok := m.lru.Get(id)
	if !ok {
		return nil, false
	}
	return &item, true
}

func (m *MemoryCache) Put(_ context.Context, item models.CollectionItem) {
	m.lru.Put(item.ID, item)
}

func (m *MemoryCache) Invalidate(_ context.Context, id int64) {
	m.lru.Remove(id)
}

// RedisCache shares item details between processes through Redis.
// Redis failures degrade to cache misses.
type RedisCache struct {
	rdb    *redis.Client
	ttl    time.Duration
	prefix string
	log    *logger.Logger
}

// NewRedisCache creates a RedisCache. A zero ttl stores keys without expiry.
func NewRedisCache(rdb *redis.Client, ttl time.Duration, log *logger.Logger) *RedisCache {
	return &RedisCache{rdb: rdb, ttl: ttl, prefix: "creative_collection:item:", log: log}
}

func (r *RedisCache) key(id int64) string {
	return r.prefix + strconv.FormatInt(id, 10)
}

func (r *RedisCache) Get(ctx context.Context, id int64) (*models.CollectionItem, bool) {
	raw, err := r.rdb.Get(ctx, r.key(id)).Bytes()
	if err != nil {
		if err != redis.Nil {
			r.log.WithError(err).Warn("Redis get failed")
		}
		return nil, false
	}
	var item models.CollectionItem
	if err := json.Unmarshal(raw, &item); err != nil {
		r.log.WithError(err).Warn("Dropping undecodable cache entry")
		r.Invalidate(ctx, id)
		return nil, false
	}
	return &item, true
}

func (r *RedisCache) Put(ctx context.Context, item models.CollectionItem) {
	raw, err := json.Marshal(item)
	if err != nil {
		return
	}
	if err := r.rdb.Set(ctx, r.key(item.ID), raw, r.ttl).Err(); err != nil {
		r.log.WithError(err).Warn("Redis set failed")
	}
}

func (r *RedisCache) Invalidate(ctx context.Context, id int64) {
	if err := r.rdb.Del(ctx, r.key(id)).Err(); err != nil {
		r.log.WithError(err).Warn("Redis del failed")
	}
}

// TieredCache checks a local cache before a shared one and back-fills the local cache on a
// shared hit.
type TieredCache struct {
	local  DetailCache
	shared DetailCache
}

// NewTieredCache combines local (L1) and shared (L2) caches.
func NewTieredCache(local, shared DetailCache) *TieredCache {
	return &TieredCache{local: local, shared: shared}
}

func (t *TieredCache) Get(ctx context.Context, id int64) (*models.CollectionItem, bool) {
	if item, ok := t.local.Get(ctx, id); ok {
		return item, true
	}
	item, ok := t.shared.Get(ctx, id)
	if ok {
		t.local.Put(ctx, *item)
	}
	return item, ok
}

func (t *TieredCache) Put(ctx context.Context, item models.CollectionItem) {
	t.local.Put(ctx, item)
	t.shared.Put(ctx, item)
}

func (t *TieredCache) Invalidate(ctx context.Context, id int64) {
	t.local.Invalidate(ctx, id)
	t.shared.Invalidate(ctx, id)
}
