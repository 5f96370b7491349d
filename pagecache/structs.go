package pagecache

import (
	"container/list"
	"sync"

	"pagestore/page"
)

// Key identifies a cache entry: a store's partition (its absolute file
// path, per the glossary) plus a page id within it.
type Key struct {
	Partition string
	PageID    uint64
}

// BeforeEvict is the callback a store registers for its partition. It is
// invoked synchronously, outside the cache's locks, before an entry is
// physically dropped. Returning true cancels the eviction; returning false
// lets it proceed (the subscriber has either taken durability
// responsibility itself, e.g. by queuing the page to a background writer,
// or doesn't need to — the page is already committed and reloadable).
type BeforeEvict func(pageID uint64) (cancel bool)

// Options configures a new Cache.
type Options struct {
	// CapacityPages bounds the total number of pages the cache holds
	// across all partitions before it starts evicting. Soft: a cache that
	// can't free space (every candidate cancels) may exceed this.
	CapacityPages int
	// Shards splits the cache's internal locking to reduce contention
	// across the many goroutines (readers from many stores, writers during
	// commit, background writer threads) §5 describes. Each shard gets an
	// even share of CapacityPages. Defaults to 16 if zero.
	Shards int
}

// Stats is a point-in-time snapshot of cache activity, in the spirit of
// the teacher's BufferPoolStats — diagnostics only, no behavioral weight.
type Stats struct {
	Hits              uint64
	Misses            uint64
	Evictions         uint64
	EvictionsCanceled uint64
	Entries           int
	Bytes             int64
}

type entry struct {
	key  Key
	page *page.Page
}

type shard struct {
	mu       sync.Mutex
	capacity int
	items    map[Key]*list.Element // -> *entry
	order    *list.List            // front = most recently used
}
