package cache

// FreeList holds released values grouped by key until they are taken
// again or grow too old.
//
// Values are stamped with the frame they were put in. Age advances the
// frame counter and evicts every value older than the configured maximum,
// then the oldest values beyond the entry limit.
//
// FreeList is not safe for concurrent use.
type FreeList[K comparable, V any] struct {
	entries map[K][]*lruNode[K, V]
	lru     lruList[K, V]
	frame   uint64

	hits      uint64
	misses    uint64
	evictions uint64
}

// NewFreeList creates an empty free list.
func NewFreeList[K comparable, V any]() *FreeList[K, V] {
	return &FreeList[K, V]{
		entries: make(map[K][]*lruNode[K, V]),
	}
}

// Put stores value under key, stamped with the current frame.
func (f *FreeList[K, V]) Put(key K, value V) {
	node := f.lru.PushFront(key, value, f.frame)
	f.entries[key] = append(f.entries[key], node)
}

// Take removes and returns the most recently put value for key.
// Returns (zero, false) if there is none.
func (f *FreeList[K, V]) Take(key K) (V, bool) {
	nodes := f.entries[key]
	if len(nodes) == 0 {
		f.misses++
		var zero V
		return zero, false
	}

	last := len(nodes) - 1
	node := nodes[last]
	nodes[last] = nil
	if last == 0 {
		delete(f.entries, key)
	} else {
		f.entries[key] = nodes[:last]
	}
	f.lru.Remove(node)
	f.hits++
	return node.value, true
}

// Age advances the frame counter by one and evicts values that were put
// more than maxAge frames ago. If more than maxEntries values remain, the
// oldest are evicted too; maxEntries <= 0 means unlimited.
// evict is called for every removed value. Returns the number evicted.
func (f *FreeList[K, V]) Age(maxAge uint64, maxEntries int, evict func(K, V)) int {
	f.frame++

	n := 0
	for {
		oldest := f.lru.Oldest()
		if oldest == nil {
			break
		}
		expired := f.frame-oldest.frame > maxAge
		over := maxEntries > 0 && f.lru.Len() > maxEntries
		if !expired && !over {
			break
		}
		f.removeOldest(evict)
		n++
	}
	f.evictions += uint64(n) //nolint:gosec // G115: n is non-negative
	return n
}

// Drain evicts every value. Returns the number evicted.
func (f *FreeList[K, V]) Drain(evict func(K, V)) int {
	n := 0
	for f.lru.Oldest() != nil {
		f.removeOldest(evict)
		n++
	}
	f.evictions += uint64(n) //nolint:gosec // G115: n is non-negative
	return n
}

// Len returns the number of values in the list.
func (f *FreeList[K, V]) Len() int {
	return f.lru.Len()
}

// Frame returns the current frame counter.
func (f *FreeList[K, V]) Frame() uint64 {
	return f.frame
}

// Stats returns free list statistics.
func (f *FreeList[K, V]) Stats() Stats {
	return Stats{
		Len:       f.lru.Len(),
		Keys:      len(f.entries),
		Hits:      f.hits,
		Misses:    f.misses,
		Evictions: f.evictions,
	}
}

// removeOldest evicts the tail of the LRU list. Per key, values are kept
// in insertion order, so the tail is always the first value of its key.
func (f *FreeList[K, V]) removeOldest(evict func(K, V)) {
	node := f.lru.Oldest()
	f.lru.Remove(node)

	nodes := f.entries[node.key]
	nodes[0] = nil
	if len(nodes) == 1 {
		delete(f.entries, node.key)
	} else {
		f.entries[node.key] = nodes[1:]
	}

	if evict != nil {
		evict(node.key, node.value)
	}
}

// Stats contains free list statistics.
type Stats struct {
	// Len is the current number of values.
	Len int
	// Keys is the number of distinct keys holding at least one value.
	Keys int
	// Hits is the number of successful Take calls.
	Hits uint64
	// Misses is the number of Take calls that found nothing.
	Misses uint64
	// Evictions is the number of values removed by Age or Drain.
	Evictions uint64
}
