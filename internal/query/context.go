package query

import (
	"github.com/gibsoncached/gibsoncached/internal/item"
	"github.com/gibsoncached/gibsoncached/internal/stats"
	"github.com/gibsoncached/gibsoncached/internal/store"
)

// Limits bundles the admission limits every handler must respect.
type Limits struct {
	MaxKeySize           int
	MaxValueSize         int
	MaxItemTTL           int64
	CompressionThreshold int
	MaxMem               int64
}

// Engine is the explicit, passed-by-reference context every handler
// operates against: the index, limits, memory accounting, object pool,
// and compression codec, never held as package-level state, so the
// core stays testable in isolation with a fake.
type Engine interface {
	Now() int64
	Limits() Limits
	Store() store.Store

	// NewItem returns a zeroed item from the pool ready to populate.
	NewItem() *item.Item

	// Create records the creation of it (already populated) in the
	// memory and compression counters.
	Create(it *item.Item, compressed bool, comprRate float64)

	// Destroy returns it to the pool and reverses its memory accounting.
	Destroy(it *item.Item)

	// Compress attempts to compress v, returning the compressed bytes
	// and true only if the result is at most len(v)-4 bytes. It does not
	// check the compression threshold; newValueItem does that first.
	Compress(v []byte) ([]byte, bool)

	// Decompress expands bytes produced by Compress.
	Decompress(v []byte) ([]byte, error)

	// MemUsed reports current accounted memory for admission checks.
	MemUsed() int64

	// StatsSnapshot renders every STATS label at the current moment.
	StatsSnapshot() []stats.Pair
}
