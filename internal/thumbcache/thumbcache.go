package thumbcache

import (
	"bytes"
	"image"
	"os"
	"sort"
	"sync"
	"time"

	"poster-browser/internal/fingerprint"
	"poster-browser/internal/logging"
	"poster-browser/internal/metrics"

	"github.com/disintegration/imaging"
	"github.com/google/renameio/v2"
)

// JPEGQuality is the encode quality for disk cache files. Cached
// thumbnails written by earlier releases used the same setting, so it
// must not change without invalidating the on-disk layout.
const JPEGQuality = 85

const (
	// DefaultCapacity bounds the memory tier's entry count.
	DefaultCapacity = 512
	// DefaultEvictFraction is the share of oldest entries removed in
	// one pass when the cache reaches capacity. Evicting a batch
	// amortizes the cost over many inserts instead of paying a scan
	// per insert.
	DefaultEvictFraction = 0.25
)

// Key identifies one rendered thumbnail: a source file at a target size.
type Key struct {
	Source string
	W, H   int
}

type entry struct {
	img        image.Image
	lastAccess time.Time
	seq        uint64 // access order tie-breaker within one timestamp
}

// Cache is the two-tier thumbnail cache: a bounded in-memory map for
// the current session plus a fingerprint-addressed JPEG tree on disk
// that survives restarts.
//
// The memory tier is the only part that holds a lock; the disk tier is
// plain files, made safe for concurrent readers by atomic writes.
type Cache struct {
	root          string // disk cache root
	capacity      int
	evictFraction float64

	mu      sync.Mutex
	entries map[Key]*entry
	seq     uint64
}

// New creates a cache with the disk tier rooted at root. capacity <= 0
// and evictFraction outside (0,1] fall back to the defaults.
func New(root string, capacity int, evictFraction float64) *Cache {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if evictFraction <= 0 || evictFraction > 1 {
		evictFraction = DefaultEvictFraction
	}
	return &Cache{
		root:          root,
		capacity:      capacity,
		evictFraction: evictFraction,
		entries:       make(map[Key]*entry, capacity),
	}
}

// Get returns the cached image for key, or nil on a miss. A hit
// refreshes the entry's access stamp. Memory only; no I/O.
func (c *Cache) Get(key Key) image.Image {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		metrics.CacheLookupsTotal.WithLabelValues("memory", "miss").Inc()
		return nil
	}
	c.seq++
	e.lastAccess = time.Now()
	e.seq = c.seq
	metrics.CacheLookupsTotal.WithLabelValues("memory", "hit").Inc()
	return e.img
}

// Put inserts img under key, evicting the oldest-accessed batch of
// entries if the cache is over capacity.
func (c *Cache) Put(key Key, img image.Image) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.put(key, img)
	metrics.CacheEntries.Set(float64(len(c.entries)))
}

// PutBatch inserts several entries under a single lock acquisition.
func (c *Cache) PutBatch(items map[Key]image.Image) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key, img := range items {
		c.put(key, img)
	}
	metrics.CacheEntries.Set(float64(len(c.entries)))
}

// put requires c.mu held.
func (c *Cache) put(key Key, img image.Image) {
	c.seq++
	c.entries[key] = &entry{img: img, lastAccess: time.Now(), seq: c.seq}
	if len(c.entries) > c.capacity {
		c.evict()
	}
}

// evict removes the oldest-accessed evictFraction of entries in one
// pass. Requires c.mu held.
func (c *Cache) evict() {
	type aged struct {
		key Key
		at  time.Time
		seq uint64
	}
	all := make([]aged, 0, len(c.entries))
	for k, e := range c.entries {
		all = append(all, aged{key: k, at: e.lastAccess, seq: e.seq})
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].at.Equal(all[j].at) {
			return all[i].seq < all[j].seq
		}
		return all[i].at.Before(all[j].at)
	})

	n := int(float64(len(all)) * c.evictFraction)
	if n < 1 {
		n = 1
	}
	for _, a := range all[:n] {
		delete(c.entries, a.key)
	}

	metrics.CacheEvictionsTotal.Add(float64(n))
	logging.Debug("thumbcache: evicted %d of %d entries", n, len(all))
}

// Len returns the current memory entry count.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// InvalidateSource drops every memory entry for source, at any target
// size. Called by the watcher when the file changes underneath a
// cached render. The disk tier needs no invalidation: the changed
// mtime fingerprints to a different file name.
func (c *Cache) InvalidateSource(source string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for k := range c.entries {
		if k.Source == source {
			delete(c.entries, k)
			removed++
		}
	}
	if removed > 0 {
		metrics.CacheInvalidationsTotal.Add(float64(removed))
		metrics.CacheEntries.Set(float64(len(c.entries)))
	}
	return removed
}

// DiskPath returns the disk cache location for key, creating its size
// bucket directory.
func (c *Cache) DiskPath(key Key) string {
	return fingerprint.ThumbnailPath(c.root, key.Source, key.W, key.H)
}

// ExistsOnDisk reports whether a non-empty disk cache file exists for
// key, without decoding it. Used to skip scheduling renders whose
// output already exists.
func (c *Cache) ExistsOnDisk(key Key) bool {
	info, err := os.Stat(c.DiskPath(key))
	ok := err == nil && info.Size() > 0
	if ok {
		metrics.CacheLookupsTotal.WithLabelValues("disk", "hit").Inc()
	} else {
		metrics.CacheLookupsTotal.WithLabelValues("disk", "miss").Inc()
	}
	return ok
}

// ReadDisk decodes the disk cache file for key. Any failure (missing,
// truncated, undecodable) is a miss, never an error.
func (c *Cache) ReadDisk(key Key) image.Image {
	img, err := imaging.Open(c.DiskPath(key))
	if err != nil {
		return nil
	}
	return img
}

// PersistToDisk writes img to key's disk cache path as a quality-85
// JPEG. The bytes land in a temp file in the same directory and are
// renamed over the final path, so a concurrent reader never sees a
// partial file. Failures are swallowed: a missing cache file only
// costs a future re-render.
func (c *Cache) PersistToDisk(key Key, img image.Image) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(JPEGQuality)); err != nil {
		metrics.CacheDiskWritesTotal.WithLabelValues("error").Inc()
		logging.Warn("thumbcache: encode %s: %v", key.Source, err)
		return
	}

	path := c.DiskPath(key)
	if err := renameio.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		metrics.CacheDiskWritesTotal.WithLabelValues("error").Inc()
		logging.Warn("thumbcache: write %s: %v", path, err)
		return
	}
	metrics.CacheDiskWritesTotal.WithLabelValues("success").Inc()
}

// PersistBatch persists several rendered thumbnails to disk.
func (c *Cache) PersistBatch(items map[Key]image.Image) {
	for key, img := range items {
		c.PersistToDisk(key, img)
	}
}
