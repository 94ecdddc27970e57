// Package engine assembles the query core's explicit context: the index,
// limits, memory accounting, object pool, and compression codec, passed
// by reference to every handler rather than held as process-global
// state. It implements query.Engine and is the one place the query
// package's narrow interface meets concrete infrastructure.
package engine

import (
	"sync"
	"time"

	"github.com/gibsoncached/gibsoncached/internal/compress"
	"github.com/gibsoncached/gibsoncached/internal/config"
	"github.com/gibsoncached/gibsoncached/internal/index"
	"github.com/gibsoncached/gibsoncached/internal/item"
	"github.com/gibsoncached/gibsoncached/internal/pool"
	"github.com/gibsoncached/gibsoncached/internal/query"
	"github.com/gibsoncached/gibsoncached/internal/stats"
	"github.com/gibsoncached/gibsoncached/internal/store"
)

// Engine owns the cache's shared, single-writer-per-request state. Its
// mutex lets the surrounding server accept many connections concurrently
// while the query core itself runs one request to completion before the
// next acquires the lock, matching the single-threaded-cooperative
// concurrency model the handlers are written against.
type Engine struct {
	mu sync.Mutex

	store   *store.Adapter
	index   *index.Index
	pool    *pool.ItemPool
	stats   *stats.Counters
	scratch *compress.Scratch

	maxKeySize           int
	maxValueSize         int
	maxItemTTL           int64
	compressionThreshold int
	maxMem               int64

	start time.Time
}

// New builds an Engine from cfg, ready to dispatch requests.
func New(cfg *config.Config) *Engine {
	ix := index.New()
	maxMem, _ := cfg.ParseMemorySize()

	return &Engine{
		store:                store.New(ix),
		index:                ix,
		pool:                 pool.New(),
		stats:                stats.New(nowSeconds()),
		scratch:              compress.NewScratch(),
		maxKeySize:           cfg.MaxKeySize,
		maxValueSize:         cfg.MaxValueSize,
		maxItemTTL:           cfg.MaxItemTTL,
		compressionThreshold: cfg.CompressionThreshold,
		maxMem:               maxMem,
		start:                time.Now(),
	}
}

func nowSeconds() int64 {
	return time.Now().Unix()
}

// Lock acquires the engine's single-writer lock for the duration of one
// dispatched request. The server's connection loop calls this around
// every Dispatch call.
func (e *Engine) Lock() { e.mu.Lock() }

// Unlock releases the lock acquired by Lock.
func (e *Engine) Unlock() { e.mu.Unlock() }

// Now returns the current wall-clock second, the time base every TTL and
// lock computation in the query core uses.
func (e *Engine) Now() int64 { return nowSeconds() }

// Limits returns the engine's configured admission limits.
func (e *Engine) Limits() query.Limits {
	return query.Limits{
		MaxKeySize:           e.maxKeySize,
		MaxValueSize:         e.maxValueSize,
		MaxItemTTL:           e.maxItemTTL,
		CompressionThreshold: e.compressionThreshold,
		MaxMem:               e.maxMem,
	}
}

// Store returns the engine's key index, adapted to the query core's
// narrow Store interface.
func (e *Engine) Store() store.Store { return e.store }

// NewItem returns a zeroed item from the pool ready to populate.
func (e *Engine) NewItem() *item.Item { return e.pool.Alloc() }

// Create records it's creation in the memory and compression counters.
func (e *Engine) Create(it *item.Item, compressed bool, comprRate float64) {
	if compressed {
		e.stats.ItemCreated(e.Now(), int64(it.Size), true, comprRate)
		return
	}
	e.stats.ItemCreated(e.Now(), int64(it.Size), false, 0)
}

// Destroy returns it to the pool and reverses its memory accounting.
func (e *Engine) Destroy(it *item.Item) {
	e.stats.ItemDestroyed(int64(it.Size))
	e.pool.Free(it)
}

// Compress attempts to compress v, targeting at most len(v)-4 bytes of
// output. The compression threshold is not checked here.
func (e *Engine) Compress(v []byte) ([]byte, bool) {
	return e.scratch.Compress(v, len(v)-4)
}

// Decompress expands bytes produced by Compress.
func (e *Engine) Decompress(v []byte) ([]byte, error) {
	return compress.Decompress(v)
}

// MemUsed reports current accounted memory for admission checks.
func (e *Engine) MemUsed() int64 { return e.stats.MemUsed() }

// StatsSnapshot renders every STATS label.
func (e *Engine) StatsSnapshot() []stats.Pair {
	return e.stats.Snapshot(e.Now(), e.maxMem, e.maxMem, int64(e.index.Len()), stats.PoolSnapshot(e.pool.Snapshot()))
}

// IncRequests increments the total request counter; called once per
// dispatched frame by the dispatcher's caller.
func (e *Engine) IncRequests() { e.stats.IncRequests() }

// IncConnections records a newly accepted connection.
func (e *Engine) IncConnections() { e.stats.IncConnections() }

// DecClients records a closed connection.
func (e *Engine) DecClients() { e.stats.DecClients() }
