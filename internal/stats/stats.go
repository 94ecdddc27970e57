// Package stats tracks the server-wide, mutex-guarded counters the STATS
// opcode reports.
package stats

import (
	"fmt"
	"strconv"
	"sync"
)

// version and buildDate can be overridden at link time via -ldflags -X;
// "dev"/"unknown" are the defaults for a plain build.
var (
	version   = "dev"
	buildDate = "unknown"
)

const (
	serverAllocator = "malloc"
	serverArch      = "64"
)

// Counters holds every mutable server-wide counter. All fields are
// guarded by mu; callers never touch them directly.
type Counters struct {
	mu sync.Mutex

	started      int64
	firstItemSeen int64
	lastItemSeen  int64

	totalItems           int64
	totalCompressedItems int64
	totalClients         int64
	totalCronDone        int64
	totalConnections     int64
	totalRequests        int64

	memUsed int64
	memPeak int64

	comprAvg float64
}

// New returns a zeroed Counters with started set to now.
func New(now int64) *Counters {
	return &Counters{started: now}
}

// IncRequests increments the total request counter, called once per
// dispatched frame regardless of opcode.
func (c *Counters) IncRequests() {
	c.mu.Lock()
	c.totalRequests++
	c.mu.Unlock()
}

// IncConnections records a newly accepted connection.
func (c *Counters) IncConnections() {
	c.mu.Lock()
	c.totalConnections++
	c.totalClients++
	c.mu.Unlock()
}

// DecClients records a closed connection.
func (c *Counters) DecClients() {
	c.mu.Lock()
	if c.totalClients > 0 {
		c.totalClients--
	}
	c.mu.Unlock()
}

// IncCronDone increments the periodic-maintenance counter.
func (c *Counters) IncCronDone() {
	c.mu.Lock()
	c.totalCronDone++
	c.mu.Unlock()
}

// ItemCreated records the creation of an item of size bytes at time now,
// with compressed reporting whether it was stored with LZF encoding and
// comprRate its compression ratio (compressed/original) when compressed.
func (c *Counters) ItemCreated(now int64, size int64, compressed bool, comprRate float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.totalItems++
	if compressed {
		c.totalCompressedItems++
		// Deliberately not a true mean: each sample halves the weight
		// of everything before it, (old + new)/2.
		c.comprAvg = (c.comprAvg + comprRate) / 2
	}

	c.memUsed += size
	if c.memUsed > c.memPeak {
		c.memPeak = c.memUsed
	}

	if c.firstItemSeen == 0 {
		c.firstItemSeen = now
	}
	c.lastItemSeen = now
}

// ItemDestroyed records the destruction of an item of size bytes,
// reversing the memory accounting half of ItemCreated. item_size_avg is
// a true mean recomputed from live memory usage and item count on every
// Snapshot, so it reflects the destruction automatically; comprAvg's
// halving history is never reversed or recomputed, by design.
func (c *Counters) ItemDestroyed(size int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.memUsed -= size
	if c.memUsed < 0 {
		c.memUsed = 0
	}
}

// MemUsed reports current memory usage for SET's admission check.
func (c *Counters) MemUsed() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.memUsed
}

// Pair is one STATS reply entry: a literal label and its ASCII value.
// Numeric marks values that should be tagged with NUMBER encoding in the
// reply rather than PLAIN: every integer counter, but not the version
// strings, floats, or allocator/arch labels.
type Pair struct {
	Key     string
	Value   string
	Numeric bool
}

// PoolSnapshot is the subset of pool.Stats the STATS reply needs, passed
// in rather than imported to keep this package free of a pool dependency.
type PoolSnapshot struct {
	Used          int64
	Capacity      int64
	TotalCapacity int64
	ObjectSize    int64
	MaxBlockSize  int64
}

// Snapshot renders every required STATS label. now is the current
// wall-clock second; memAvailable/memUsable come from the configured
// memory limit; nitems is the live index size.
func (c *Counters) Snapshot(now int64, memAvailable, memUsable int64, nitems int64, pool PoolSnapshot) []Pair {
	c.mu.Lock()
	defer c.mu.Unlock()

	reqsPerClientAvg := 0.0
	if c.totalConnections > 0 {
		reqsPerClientAvg = float64(c.totalRequests) / float64(c.totalConnections)
	}

	fragmentation := 0.0
	if memUsable > 0 {
		fragmentation = float64(c.memUsed) / float64(memUsable)
	}

	sizeAvg := 0.0
	if nitems > 0 {
		sizeAvg = float64(c.memUsed) / float64(nitems)
	}

	return []Pair{
		{Key: "server_version", Value: version},
		{Key: "server_build_datetime", Value: buildDate},
		{Key: "server_allocator", Value: serverAllocator},
		{Key: "server_arch", Value: serverArch},
		{Key: "server_started", Value: itoa(c.started), Numeric: true},
		{Key: "server_time", Value: itoa(now), Numeric: true},
		{Key: "first_item_seen", Value: itoa(c.firstItemSeen), Numeric: true},
		{Key: "last_item_seen", Value: itoa(c.lastItemSeen), Numeric: true},
		{Key: "total_items", Value: itoa(nitems), Numeric: true},
		{Key: "total_compressed_items", Value: itoa(c.totalCompressedItems), Numeric: true},
		{Key: "total_clients", Value: itoa(c.totalClients), Numeric: true},
		{Key: "total_cron_done", Value: itoa(c.totalCronDone), Numeric: true},
		{Key: "total_connections", Value: itoa(c.totalConnections), Numeric: true},
		{Key: "total_requests", Value: itoa(c.totalRequests), Numeric: true},
		{Key: "item_pool_current_used", Value: itoa(pool.Used), Numeric: true},
		{Key: "item_pool_current_capacity", Value: itoa(pool.Capacity), Numeric: true},
		{Key: "item_pool_total_capacity", Value: itoa(pool.TotalCapacity), Numeric: true},
		{Key: "item_pool_object_size", Value: itoa(pool.ObjectSize), Numeric: true},
		{Key: "item_pool_max_block_size", Value: itoa(pool.MaxBlockSize), Numeric: true},
		{Key: "memory_available", Value: itoa(memAvailable), Numeric: true},
		{Key: "memory_usable", Value: itoa(memUsable), Numeric: true},
		{Key: "memory_used", Value: itoa(c.memUsed), Numeric: true},
		{Key: "memory_peak", Value: itoa(c.memPeak), Numeric: true},
		{Key: "memory_fragmentation", Value: ftoa(fragmentation)},
		{Key: "item_size_avg", Value: itoaTrunc(sizeAvg), Numeric: true},
		{Key: "compr_rate_avg", Value: itoaTrunc(c.comprAvg), Numeric: true},
		{Key: "reqs_per_client_avg", Value: ftoa(reqsPerClientAvg)},
	}
}

func itoa(v int64) string {
	return strconv.FormatInt(v, 10)
}

func ftoa(v float64) string {
	return fmt.Sprintf("%g", v)
}

// itoaTrunc formats a float stat as a truncating cast to a NUMBER-tagged
// integer, matching APPEND_LONG_STAT's (long) cast for labels that are
// floats internally but reported as integers on the wire.
func itoaTrunc(v float64) string {
	return strconv.FormatInt(int64(v), 10)
}
