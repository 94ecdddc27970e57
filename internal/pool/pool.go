// Package pool provides a reusable object pool for cache items, keeping
// item creation and destruction paired for memory accounting.
package pool

import (
	"sync"

	"github.com/gibsoncached/gibsoncached/internal/item"
)

// ItemPool recycles *item.Item values across creation/destruction cycles.
type ItemPool struct {
	pool sync.Pool

	mu            sync.Mutex
	used          int64
	capacity      int64
	totalCapacity int64
}

// ObjectSize is the nominal size, in bytes, of a pooled Item header, used
// only for the STATS item_pool_object_size counter.
const ObjectSize = 64

// MaxBlockSize caps how large a single pool growth chunk is treated as for
// reporting purposes; the pool itself grows one object at a time.
const MaxBlockSize = 4096

// New creates an empty item pool.
func New() *ItemPool {
	p := &ItemPool{}
	p.pool.New = func() any {
		p.mu.Lock()
		p.totalCapacity++
		p.capacity++
		p.mu.Unlock()
		return &item.Item{}
	}
	return p
}

// Alloc returns a zeroed item ready for the caller to populate.
func (p *ItemPool) Alloc() *item.Item {
	it := p.pool.Get().(*item.Item)
	*it = item.Item{}

	p.mu.Lock()
	p.used++
	if p.capacity > 0 {
		p.capacity--
	}
	p.mu.Unlock()

	return it
}

// Free returns an item to the pool. Callers must not touch it afterward.
func (p *ItemPool) Free(it *item.Item) {
	if it == nil {
		return
	}
	it.Buf = nil

	p.mu.Lock()
	if p.used > 0 {
		p.used--
	}
	p.capacity++
	p.mu.Unlock()

	p.pool.Put(it)
}

// Stats is a snapshot of pool usage for the STATS reply.
type Stats struct {
	Used          int64
	Capacity      int64
	TotalCapacity int64
	ObjectSize    int64
	MaxBlockSize  int64
}

// Snapshot returns the current pool counters.
func (p *ItemPool) Snapshot() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Stats{
		Used:          p.used,
		Capacity:      p.capacity,
		TotalCapacity: p.totalCapacity,
		ObjectSize:    ObjectSize,
		MaxBlockSize:  MaxBlockSize,
	}
}
