package query

import (
	"github.com/gibsoncached/gibsoncached/internal/compress"
	"github.com/gibsoncached/gibsoncached/internal/index"
	"github.com/gibsoncached/gibsoncached/internal/item"
	"github.com/gibsoncached/gibsoncached/internal/stats"
	"github.com/gibsoncached/gibsoncached/internal/store"
)

// fakeEngine is a minimal, deterministic Engine for exercising handlers
// without the real clock or object pool; now is advanced explicitly so
// expiry and lock-window tests don't need to sleep.
type fakeEngine struct {
	st      *store.Adapter
	scratch *compress.Scratch
	now     int64
	lim     Limits
	mem     int64
}

func newFakeEngine(lim Limits) *fakeEngine {
	return &fakeEngine{
		st:      store.New(index.New()),
		scratch: compress.NewScratch(),
		lim:     lim,
	}
}

func (e *fakeEngine) Now() int64      { return e.now }
func (e *fakeEngine) Limits() Limits  { return e.lim }
func (e *fakeEngine) Store() store.Store { return e.st }

func (e *fakeEngine) NewItem() *item.Item { return &item.Item{} }

func (e *fakeEngine) Create(it *item.Item, compressed bool, comprRate float64) {
	e.mem += int64(it.Size)
}

func (e *fakeEngine) Destroy(it *item.Item) {
	e.mem -= int64(it.Size)
}

func (e *fakeEngine) Compress(v []byte) ([]byte, bool) {
	return e.scratch.Compress(v, len(v)-4)
}

func (e *fakeEngine) Decompress(v []byte) ([]byte, error) {
	return compress.Decompress(v)
}

func (e *fakeEngine) MemUsed() int64 { return e.mem }

func (e *fakeEngine) StatsSnapshot() []stats.Pair { return nil }

func defaultLimits() Limits {
	return Limits{
		MaxKeySize:           250,
		MaxValueSize:         16 * 1024 * 1024,
		MaxItemTTL:           60 * 60 * 24 * 365,
		CompressionThreshold: 64,
		MaxMem:               0,
	}
}
