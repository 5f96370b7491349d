// Package pagecache implements the process-wide, cross-store page cache
// from §4.3: a bounded, shard-locked cache keyed by (partition, page id)
// with a before-evict subscriber protocol that lets each store's
// AppendOnlyPageStore veto or take over durability for its own dirty pages
// before the cache drops them.
//
// It is adapted from the teacher's storage_engine/bufferpool, which already
// had the seed of this protocol (evictLRU skips pinned pages and pages
// whose LSN isn't yet covered by the WAL) but scoped to a single store. This
// generalizes that into a cache shared by many stores, each subscribing
// only for its own partition.
package pagecache

import (
	"container/list"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/dustin/go-humanize"

	"pagestore/page"
	"pagestore/pagelog"
)

const defaultShards = 16

// Cache is the shared page cache. A single default instance may exist in
// a process, but per §9's "Global cache" note, construction is always
// explicit so tests can supply a fresh one.
type Cache struct {
	shards []shard
	log    pagelog.Logger

	subMu       sync.RWMutex
	subscribers map[string]BeforeEvict

	statsMu sync.Mutex
	stats   Stats
}

// New builds a Cache per opts.
func New(opts Options, log pagelog.Logger) *Cache {
	if opts.Shards <= 0 {
		opts.Shards = defaultShards
	}
	if log == nil {
		log = pagelog.Nop{}
	}
	perShard := opts.CapacityPages / opts.Shards
	if perShard < 1 {
		perShard = 1
	}
	c := &Cache{
		shards:      make([]shard, opts.Shards),
		log:         log,
		subscribers: make(map[string]BeforeEvict),
	}
	for i := range c.shards {
		c.shards[i] = shard{
			capacity: perShard,
			items:    make(map[Key]*list.Element),
			order:    list.New(),
		}
	}
	return c
}

func (c *Cache) shardFor(k Key) *shard {
	h := xxhash.Sum64String(k.Partition) ^ k.PageID
	return &c.shards[h%uint64(len(c.shards))]
}

// Subscribe registers fn as the before-evict handler for partition,
// replacing any previous subscriber. A store calls this once, at open.
func (c *Cache) Subscribe(partition string, fn BeforeEvict) {
	c.subMu.Lock()
	defer c.subMu.Unlock()
	c.subscribers[partition] = fn
}

// Unsubscribe removes partition's handler. A store calls this on close, so
// the cache holds no back-reference to a closed store (§9).
func (c *Cache) Unsubscribe(partition string) {
	c.subMu.Lock()
	defer c.subMu.Unlock()
	delete(c.subscribers, partition)
}

func (c *Cache) handlerFor(partition string) (BeforeEvict, bool) {
	c.subMu.RLock()
	defer c.subMu.RUnlock()
	fn, ok := c.subscribers[partition]
	return fn, ok
}

// Lookup returns the cached page for (partition, pageID), if present, and
// records a hit or miss for diagnostics.
func (c *Cache) Lookup(partition string, pageID uint64) (*page.Page, bool) {
	key := Key{Partition: partition, PageID: pageID}
	s := c.shardFor(key)

	s.mu.Lock()
	el, ok := s.items[key]
	if ok {
		s.order.MoveToFront(el)
	}
	s.mu.Unlock()

	if ok {
		c.recordHit()
		return el.Value.(*entry).page, true
	}
	c.recordMiss()
	return nil, false
}

// InsertOrUpdate inserts pg under (partition, pg.ID()) if absent, or
// refreshes its recency and replaces its value if present. May trigger
// eviction of entries in the same shard, pg's own entry included when
// every older entry's eviction is cancelled.
func (c *Cache) InsertOrUpdate(partition string, pg *page.Page) {
	key := Key{Partition: partition, PageID: pg.ID()}
	s := c.shardFor(key)

	s.mu.Lock()
	if el, ok := s.items[key]; ok {
		el.Value.(*entry).page = pg
		s.order.MoveToFront(el)
		s.mu.Unlock()
		return
	}

	el := s.order.PushFront(&entry{key: key, page: pg})
	s.items[key] = el
	overCapacity := len(s.items) > s.capacity
	s.mu.Unlock()

	c.addEntry(pg.Size())

	if overCapacity {
		c.evict(s)
	}
}

// evict walks the shard's LRU tail, asking each candidate's subscriber
// (via the before-evict protocol) whether it may be dropped, until the
// shard is back within capacity or every entry currently in the shard has
// refused once in a row — per Options.CapacityPages's doc comment,
// capacity is soft, and sustained cancellation across a full pass is the
// "can't free space" case that gives up rather than spinning forever.
//
// Candidates are collected, and the callback invoked, without holding the
// shard lock — §4.3 requires callbacks be non-blocking with respect to the
// cache's own lock and forbids cache re-entrancy from within one. The
// entry is only actually removed after re-acquiring the lock and
// confirming it's still the same entry.
func (c *Cache) evict(s *shard) {
	refusals := 0
	for {
		s.mu.Lock()
		size := len(s.items)
		if size <= s.capacity || refusals >= size {
			s.mu.Unlock()
			return
		}
		back := s.order.Back()
		if back == nil {
			s.mu.Unlock()
			return
		}
		candidate := back.Value.(*entry)
		s.mu.Unlock()

		fn, subscribed := c.handlerFor(candidate.key.Partition)
		cancel := subscribed && fn(candidate.key.PageID)

		s.mu.Lock()
		el, stillPresent := s.items[candidate.key]
		if !stillPresent || el.Value.(*entry) != candidate {
			// Touched or already evicted by a concurrent insert/evict
			// between releasing and reacquiring the lock; re-examine.
			s.mu.Unlock()
			refusals = 0
			continue
		}
		if cancel {
			// Move to front so the next iteration tries the next-LRU
			// entry instead of spinning on the same candidate.
			s.order.MoveToFront(el)
			s.mu.Unlock()
			c.recordCancel()
			refusals++
			continue
		}

		delete(s.items, candidate.key)
		s.order.Remove(el)
		s.mu.Unlock()

		c.removeEntry(candidate.page.Size())
		c.recordEvict()
		refusals = 0
	}
}

func (c *Cache) recordHit() {
	c.statsMu.Lock()
	c.stats.Hits++
	c.statsMu.Unlock()
}

func (c *Cache) recordMiss() {
	c.statsMu.Lock()
	c.stats.Misses++
	c.statsMu.Unlock()
}

func (c *Cache) recordEvict() {
	c.statsMu.Lock()
	c.stats.Evictions++
	c.statsMu.Unlock()
}

func (c *Cache) recordCancel() {
	c.statsMu.Lock()
	c.stats.EvictionsCanceled++
	c.statsMu.Unlock()
}

func (c *Cache) addEntry(bytes int) {
	c.statsMu.Lock()
	c.stats.Entries++
	c.stats.Bytes += int64(bytes)
	c.statsMu.Unlock()
}

func (c *Cache) removeEntry(bytes int) {
	c.statsMu.Lock()
	c.stats.Entries--
	c.stats.Bytes -= int64(bytes)
	c.statsMu.Unlock()
}

// Stats returns a snapshot of cumulative cache activity.
func (c *Cache) Stats() Stats {
	c.statsMu.Lock()
	defer c.statsMu.Unlock()
	return c.stats
}

// String renders s in the teacher's human-readable trace style.
func (s Stats) String() string {
	return "entries=" + humanize.Comma(int64(s.Entries)) +
		" size=" + humanize.Bytes(uint64(max64(s.Bytes, 0))) +
		" hits=" + humanize.Comma(int64(s.Hits)) +
		" misses=" + humanize.Comma(int64(s.Misses)) +
		" evictions=" + humanize.Comma(int64(s.Evictions)) +
		" canceled=" + humanize.Comma(int64(s.EvictionsCanceled))
}

func max64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
