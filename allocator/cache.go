// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package allocator

import (
	"reflect"
	"sync"

	"github.com/gogpu/framegraph"
	"github.com/gogpu/framegraph/internal/cache"
)

const (
	// DefaultMaxAge is the default number of frames a released object is
	// kept for reuse.
	DefaultMaxAge = 30

	// DefaultMaxEntries is the default maximum number of released objects
	// kept for reuse.
	DefaultMaxEntries = 256
)

// CacheConfig holds configuration for a Cache.
type CacheConfig struct {
	// MaxAge is the number of Gc calls an unused object survives.
	// Defaults to DefaultMaxAge if <= 0.
	MaxAge int

	// MaxEntries is the maximum number of unused objects kept.
	// Defaults to DefaultMaxEntries if <= 0.
	MaxEntries int
}

// CacheStats contains cache statistics.
type CacheStats struct {
	// InUse is the number of objects handed out and not yet released.
	InUse int
	// Free is the number of objects waiting for reuse.
	Free int
	// Hits is the number of requests served from the free list.
	Hits uint64
	// Misses is the number of requests forwarded to the backing allocator.
	Misses uint64
	// Evictions is the number of objects destroyed by Gc or Purge.
	Evictions uint64
}

// cacheKey identifies interchangeable objects. Names are not part of it.
type cacheKey struct {
	kind         framegraph.Kind
	texture      framegraph.TextureDescriptor
	textureUsage framegraph.TextureUsage
	buffer       framegraph.BufferDescriptor
	bufferUsage  framegraph.BufferUsage
}

// Cache is a ResourceAllocator that reuses objects across frames.
//
// Released objects are kept in a free list keyed by kind, descriptor and
// usage and handed back for the next identical request. Gc must be called
// once per frame to age the free list; objects unused for MaxAge frames
// are released to the backing allocator.
//
// If the backing allocator implements framegraph.RenderTargetAllocator,
// render-target calls are forwarded to it.
//
// Cache is safe for concurrent use.
type Cache struct {
	backing    framegraph.ResourceAllocator
	maxAge     uint64
	maxEntries int

	mu    sync.Mutex
	free  *cache.FreeList[cacheKey, any]
	inUse map[any][]cacheKey
	n     int
}

var (
	_ framegraph.ResourceAllocator     = (*Cache)(nil)
	_ framegraph.RenderTargetAllocator = (*Cache)(nil)
)

// NewCache creates a cache in front of backing.
func NewCache(backing framegraph.ResourceAllocator, config CacheConfig) *Cache {
	maxAge := config.MaxAge
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}
	maxEntries := config.MaxEntries
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}

	return &Cache{
		backing:    backing,
		maxAge:     uint64(maxAge), //nolint:gosec // G115: maxAge is positive
		maxEntries: maxEntries,
		free:       cache.NewFreeList[cacheKey, any](),
		inUse:      make(map[any][]cacheKey),
	}
}

// AcquireTexture returns a free texture matching desc and usage, or
// creates one through the backing allocator.
func (c *Cache) AcquireTexture(name string, desc framegraph.TextureDescriptor, usage framegraph.TextureUsage) (any, error) {
	key := cacheKey{kind: framegraph.KindTexture, texture: desc, textureUsage: usage}
	return c.acquire(name, key, func() (any, error) {
		return c.backing.AcquireTexture(name, desc, usage)
	})
}

// AcquireBuffer returns a free buffer matching desc and usage, or creates
// one through the backing allocator.
func (c *Cache) AcquireBuffer(name string, desc framegraph.BufferDescriptor, usage framegraph.BufferUsage) (any, error) {
	key := cacheKey{kind: framegraph.KindBuffer, buffer: desc, bufferUsage: usage}
	return c.acquire(name, key, func() (any, error) {
		return c.backing.AcquireBuffer(name, desc, usage)
	})
}

func (c *Cache) acquire(name string, key cacheKey, create func() (any, error)) (any, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if obj, ok := c.free.Take(key); ok {
		c.track(obj, key)
		slogger().Debug("allocator: cache hit", "name", name, "kind", key.kind.String())
		return obj, nil
	}

	obj, err := create()
	if err != nil {
		return nil, err
	}
	if hashable(obj) {
		c.track(obj, key)
	}
	return obj, nil
}

// Release puts obj on the free list. Objects the cache did not hand out
// are released to the backing allocator directly.
func (c *Cache) Release(obj any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !hashable(obj) {
		c.backing.Release(obj)
		return
	}
	keys := c.inUse[obj]
	if len(keys) == 0 {
		c.backing.Release(obj)
		return
	}

	key := keys[len(keys)-1]
	if len(keys) == 1 {
		delete(c.inUse, obj)
	} else {
		c.inUse[obj] = keys[:len(keys)-1]
	}
	c.n--
	c.free.Put(key, obj)
}

// Gc advances the cache by one frame and releases objects that stayed
// unused longer than MaxAge frames, then the oldest beyond MaxEntries.
// Returns the number of objects released.
func (c *Cache) Gc() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := c.free.Age(c.maxAge, c.maxEntries, c.evict)
	if n > 0 {
		slogger().Debug("allocator: cache gc", "released", n, "free", c.free.Len())
	}
	return n
}

// Purge releases every unused object to the backing allocator. Objects
// still in use return to the free list when released.
func (c *Cache) Purge() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.free.Drain(c.evict)
}

// Stats returns cache statistics.
func (c *Cache) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.free.Stats()
	return CacheStats{
		InUse:     c.n,
		Free:      s.Len,
		Hits:      s.Hits,
		Misses:    s.Misses,
		Evictions: s.Evictions,
	}
}

// CreateRenderTarget forwards to the backing allocator. It returns
// (nil, nil) if the backing allocator has no render-target support, so
// passes see a nil RenderTargetInfo.Target, exactly as without a cache.
func (c *Cache) CreateRenderTarget(name string, info framegraph.RenderTargetInfo) (any, error) {
	if rta, ok := c.backing.(framegraph.RenderTargetAllocator); ok {
		return rta.CreateRenderTarget(name, info)
	}
	return nil, nil
}

// DestroyRenderTarget forwards to the backing allocator.
func (c *Cache) DestroyRenderTarget(target any) {
	if rta, ok := c.backing.(framegraph.RenderTargetAllocator); ok {
		rta.DestroyRenderTarget(target)
	}
}

func (c *Cache) track(obj any, key cacheKey) {
	c.inUse[obj] = append(c.inUse[obj], key)
	c.n++
}

func (c *Cache) evict(key cacheKey, obj any) {
	slogger().Debug("allocator: cache evict", "kind", key.kind.String())
	c.backing.Release(obj)
}

// hashable reports whether obj can be used as a map key.
func hashable(obj any) bool {
	t := reflect.TypeOf(obj)
	return t != nil && t.Comparable()
}
