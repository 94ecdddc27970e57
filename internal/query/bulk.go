// Bulk (M*) operation handlers. Every handler shares the same shape: parse
// "pattern [value]", walk the index via SearchNodesCallback, and apply a
// per-match predicate/mutator that reports whether the match counted.
package query

import (
	"strconv"

	"github.com/gibsoncached/gibsoncached/internal/index"
	"github.com/gibsoncached/gibsoncached/internal/item"
	"github.com/gibsoncached/gibsoncached/internal/reply"
)

const noMaxKeyLen = 0

// MGet gathers every still-valid match under pattern into a key/value set,
// optionally capped by a trailing "pattern [limit]" token, the only bulk
// read op with this pagination shape. A present-but-unparseable limit
// token replies ErrNAN; an absent one means unlimited.
func MGet(eng Engine, payload []byte) reply.Reply {
	lim := eng.Limits()
	pattern, limitTok, err := parseKeyOptValue(payload, lim.MaxKeySize, 0)
	if err != nil {
		return reply.Status(reply.Err)
	}

	limit := -1
	if limitTok != nil {
		n, perr := parseInt(limitTok)
		if perr != nil {
			return reply.Status(reply.ErrNAN)
		}
		limit = int(n)
	}

	now := eng.Now()
	var pairs []reply.KV
	eng.Store().SearchNodesCallback(pattern, noMaxKeyLen, func(key string, slot *index.Slot) bool {
		it, ok := slotValid(eng, slot, now)
		if !ok {
			return false
		}
		if limit >= 0 && len(pairs) >= limit {
			return false
		}
		it.TouchAccess(now)
		pairs = append(pairs, reply.KV{
			Key:      key,
			Encoding: it.Encoding,
			Value:    append([]byte(nil), it.Bytes()...),
		})
		return true
	})

	return reply.KVSet(pairs)
}

// MSet writes value at every key matching pattern, skipping locked or
// (after in-place destruction) expired items.
func MSet(eng Engine, payload []byte) reply.Reply {
	lim := eng.Limits()
	if lim.MaxMem > 0 && eng.MemUsed() > lim.MaxMem {
		return reply.Status(reply.ErrMem)
	}

	pattern, value, err := parseKeyValue(payload, lim.MaxKeySize, lim.MaxValueSize)
	if err != nil {
		return reply.Status(reply.Err)
	}

	now := eng.Now()
	found := eng.Store().SearchNodesCallback(pattern, noMaxKeyLen, func(key string, slot *index.Slot) bool {
		it, ok := slotValid(eng, slot, now)
		if !ok {
			return false
		}
		if it.IsLocked(now) {
			return false
		}
		eng.Destroy(it)
		slot.Item = newValueItem(eng, value, now)
		return true
	})

	if found == 0 {
		return reply.Status(reply.ErrNotFound)
	}
	return reply.Number(int64(found))
}

// MDel destroys every key matching pattern, skipping only locked items;
// an expired item is destroyed the same as a valid one.
func MDel(eng Engine, payload []byte) reply.Reply {
	lim := eng.Limits()
	pattern, _, err := parseKey(payload, lim.MaxKeySize)
	if err != nil {
		return reply.Status(reply.Err)
	}

	now := eng.Now()
	found := eng.Store().SearchNodesCallback(pattern, noMaxKeyLen, func(key string, slot *index.Slot) bool {
		it := slot.Item
		if it == nil {
			return false
		}
		if !it.IsExpired(now) && it.IsLocked(now) {
			return false
		}
		slot.Null()
		eng.Destroy(it)
		return true
	})

	if found == 0 {
		return reply.Status(reply.ErrNotFound)
	}
	return reply.Number(int64(found))
}

// MTTL sets a clamped TTL on every key matching pattern, ignoring locks.
func MTTL(eng Engine, payload []byte) reply.Reply {
	lim := eng.Limits()
	pattern, ttl, err := parseKeyInt(payload, lim.MaxKeySize)
	if err != nil {
		if err == ErrNAN {
			return reply.Status(reply.ErrNAN)
		}
		return reply.Status(reply.Err)
	}

	now := eng.Now()
	found := eng.Store().SearchNodesCallback(pattern, noMaxKeyLen, func(key string, slot *index.Slot) bool {
		it, ok := slotValid(eng, slot, now)
		if !ok {
			return false
		}
		it.TouchBirth(now)
		it.TTL = clampTTL(ttl, lim.MaxItemTTL)
		return true
	})

	if found == 0 {
		return reply.Status(reply.ErrNotFound)
	}
	return reply.Number(int64(found))
}

// MInc applies delta=+1 to every numeric (or promotable) key matching
// pattern, skipping locked, expired, or non-numeric-non-parseable items.
func MInc(eng Engine, payload []byte) reply.Reply {
	return mIncDec(eng, payload, 1)
}

// MDec applies delta=-1, otherwise identical to MInc.
func MDec(eng Engine, payload []byte) reply.Reply {
	return mIncDec(eng, payload, -1)
}

func mIncDec(eng Engine, payload []byte, delta int64) reply.Reply {
	lim := eng.Limits()
	pattern, _, err := parseKey(payload, lim.MaxKeySize)
	if err != nil {
		return reply.Status(reply.Err)
	}

	now := eng.Now()
	found := eng.Store().SearchNodesCallback(pattern, noMaxKeyLen, func(key string, slot *index.Slot) bool {
		it, ok := slotValid(eng, slot, now)
		if !ok {
			return false
		}
		if it.IsLocked(now) {
			return false
		}
		if it.Encoding != item.Number {
			v, perr := parseInt(it.Buf)
			if perr != nil {
				return false
			}
			it.PromoteToNumber(v)
		}
		it.Num += delta
		it.TouchAccess(now)
		return true
	})

	if found == 0 {
		return reply.Status(reply.ErrNotFound)
	}
	return reply.Number(int64(found))
}

// MLock sets an advisory lock on every unlocked, unexpired key matching
// pattern.
func MLock(eng Engine, payload []byte) reply.Reply {
	lim := eng.Limits()
	pattern, seconds, err := parseKeyInt(payload, lim.MaxKeySize)
	if err != nil {
		if err == ErrNAN {
			return reply.Status(reply.ErrNAN)
		}
		return reply.Status(reply.Err)
	}

	now := eng.Now()
	found := eng.Store().SearchNodesCallback(pattern, noMaxKeyLen, func(key string, slot *index.Slot) bool {
		it, ok := slotValid(eng, slot, now)
		if !ok {
			return false
		}
		if it.IsLocked(now) {
			return false
		}
		it.CreatedAt = now
		it.Lock = seconds
		return true
	})

	if found == 0 {
		return reply.Status(reply.ErrNotFound)
	}
	return reply.Number(int64(found))
}

// MUnlock clears the lock on every unexpired key matching pattern,
// ignoring whether it was actually locked.
func MUnlock(eng Engine, payload []byte) reply.Reply {
	lim := eng.Limits()
	pattern, _, err := parseKey(payload, lim.MaxKeySize)
	if err != nil {
		return reply.Status(reply.Err)
	}

	now := eng.Now()
	found := eng.Store().SearchNodesCallback(pattern, noMaxKeyLen, func(key string, slot *index.Slot) bool {
		it, ok := slotValid(eng, slot, now)
		if !ok {
			return false
		}
		it.Lock = 0
		it.TouchAccess(now)
		return true
	})

	if found == 0 {
		return reply.Status(reply.ErrNotFound)
	}
	return reply.Number(int64(found))
}

// Count walks pattern, counting still-valid matches without mutating them.
func Count(eng Engine, payload []byte) reply.Reply {
	lim := eng.Limits()
	pattern, _, err := parseKey(payload, lim.MaxKeySize)
	if err != nil {
		return reply.Status(reply.Err)
	}

	now := eng.Now()
	found := eng.Store().SearchNodesCallback(pattern, noMaxKeyLen, func(key string, slot *index.Slot) bool {
		_, ok := slotValid(eng, slot, now)
		return ok
	})

	if found == 0 {
		return reply.Status(reply.ErrNotFound)
	}
	return reply.Number(int64(found))
}

// Keys gathers only the keys matching pattern, replying with a set of
// 0-based ordinal index to key.
func Keys(eng Engine, payload []byte) reply.Reply {
	lim := eng.Limits()
	pattern, _, err := parseKey(payload, lim.MaxKeySize)
	if err != nil {
		return reply.Status(reply.Err)
	}

	now := eng.Now()
	i := 0
	var pairs []reply.KV
	eng.Store().SearchNodesCallback(pattern, noMaxKeyLen, func(key string, slot *index.Slot) bool {
		_, ok := slotValid(eng, slot, now)
		if !ok {
			return false
		}
		pairs = append(pairs, reply.KV{
			Key:      strconv.Itoa(i),
			Encoding: item.Plain,
			Value:    []byte(key),
		})
		i++
		return true
	})

	return reply.KVSet(pairs)
}
