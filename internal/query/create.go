package query

import "github.com/gibsoncached/gibsoncached/internal/item"

// newValueItem builds a Plain or Compressed item from raw input bytes,
// attempting compression when the input exceeds the configured
// threshold, and records the creation in eng's counters. This is SET's
// (and MSET's and INC/DEC-on-absent's sibling for non-numeric values)
// shared item-construction step.
func newValueItem(eng Engine, value []byte, now int64) *item.Item {
	lim := eng.Limits()

	it := eng.NewItem()
	it.CreatedAt = now
	it.LastAccessAt = now
	it.TTL = -1

	if lim.CompressionThreshold > 0 && len(value) > lim.CompressionThreshold {
		if compressed, ok := eng.Compress(value); ok {
			it.Encoding = item.Compressed
			it.Buf = compressed
			it.Size = len(compressed)
			eng.Create(it, true, float64(len(compressed))/float64(len(value)))
			return it
		}
	}

	it.Encoding = item.Plain
	it.Buf = append([]byte(nil), value...)
	it.Size = len(it.Buf)
	eng.Create(it, false, 0)
	return it
}

// newNumberItem builds a Number item holding v, with no owned buffer.
func newNumberItem(eng Engine, v int64, now int64) *item.Item {
	it := eng.NewItem()
	it.Encoding = item.Number
	it.Num = v
	it.Size = 8
	it.CreatedAt = now
	it.LastAccessAt = now
	it.TTL = -1
	eng.Create(it, false, 0)
	return it
}
