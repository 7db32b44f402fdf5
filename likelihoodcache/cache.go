// Package likelihoodcache memoises pairhmm read-vs-haplotype
// log-likelihoods keyed by (read ID, haplotype handle), per spec.md §4.2
// (C6). Grounded on markduplicates' map-keyed memoisation idiom
// (duplicate_index.go's map[duplicateKey][]DuplicateEntry), folding the
// composite key through github.com/dgryski/go-farm the way a
// performance-sensitive cache key in this pack would rather than
// concatenating strings.
package likelihoodcache

import (
	"sync"

	farm "github.com/dgryski/go-farm"
	"github.com/grailbio/varcall/haplotype"
)

// Cache is a per-worker (not shared, per spec.md §5) memoisation table.
// Eviction is clear-all on window advance (Reset, called by the pipeline
// driver after each phaser window).
type Cache struct {
	mu      sync.RWMutex
	entries map[uint64]float64
}

// New returns an empty Cache.
func New() *Cache {
	return &Cache{entries: make(map[uint64]float64)}
}

func key(readID string, h haplotype.Handle) uint64 {
	buf := make([]byte, len(readID)+8)
	copy(buf, readID)
	off := len(readID)
	hv := uint64(h)
	for i := 0; i < 8; i++ {
		buf[off+i] = byte(hv >> (8 * i))
	}
	return farm.Hash64(buf)
}

// Get returns the cached log-likelihood for (readID, h), if present.
func (c *Cache) Get(readID string, h haplotype.Handle) (float64, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.entries[key(readID, h)]
	return v, ok
}

// Put stores ll as the log-likelihood for (readID, h).
func (c *Cache) Put(readID string, h haplotype.Handle, ll float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key(readID, h)] = ll
}

// GetOrCompute returns the cached value for (readID, h), computing and
// storing it via compute on a miss.
func (c *Cache) GetOrCompute(readID string, h haplotype.Handle, compute func() float64) float64 {
	if v, ok := c.Get(readID, h); ok {
		return v
	}
	v := compute()
	c.Put(readID, h, v)
	return v
}

// Reset clears the cache, called by the pipeline driver on window advance (spec.md
// §4.2 "Eviction: clear-all on window advance").
func (c *Cache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[uint64]float64)
}

// Len reports the number of cached entries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
