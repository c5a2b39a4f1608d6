package fs

import "strata/src/hashtable"

// Bcache_t is the filesystem's block cache: cached blocks keyed by block
// number, so a repeated access to the same block is an O(1) lock-free
// lookup instead of the teacher's BlkList_t linear walk. Grounded on
// src/hashtable (itself adapted from the teacher's Hashtable_t for this
// exact purpose — see hashtable.go's package doc).
type Bcache_t struct {
	ht *hashtable.Hashtable_t
}

// MkBcache returns an empty block cache sized for an expected working set
// of roughly nbuckets blocks.
func MkBcache(nbuckets int) *Bcache_t {
	return &Bcache_t{ht: hashtable.MkHash(nbuckets)}
}

// Get returns the cached block for blockno, if present.
func (c *Bcache_t) Get(blockno int) (*Bdev_block_t, bool) {
	v, ok := c.ht.Get(blockno)
	if !ok {
		return nil, false
	}
	return v.(*Bdev_block_t), true
}

// Put inserts b into the cache, keyed by its own block number. Returns
// false if a block with that number is already cached.
func (c *Bcache_t) Put(b *Bdev_block_t) bool {
	_, inserted := c.ht.Set(b.Block, b)
	return inserted
}

// Evict drops blockno from the cache without writing it back — the
// caller is responsible for flushing a dirty block first.
func (c *Bcache_t) Evict(blockno int) {
	if _, ok := c.ht.Get(blockno); ok {
		c.ht.Del(blockno)
	}
}

// Len reports the number of cached blocks.
func (c *Bcache_t) Len() int { return c.ht.Size() }
