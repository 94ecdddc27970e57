package query

import "github.com/gibsoncached/gibsoncached/internal/reply"

// Get resolves key and, if present and unexpired, touches its access time
// and replies with the item's own bytes.
func Get(eng Engine, payload []byte) reply.Reply {
	lim := eng.Limits()
	key, _, err := parseKey(payload, lim.MaxKeySize)
	if err != nil {
		return reply.Status(reply.Err)
	}

	now := eng.Now()
	it, ok := lookup(eng, key, now)
	if !ok {
		return reply.Status(reply.ErrNotFound)
	}

	it.TouchAccess(now)
	return reply.ItemReply(it)
}

// Set parses "ttl key value", rejects on memory pressure or if an
// existing item is locked, and otherwise writes a new item at key,
// destroying any previous one.
func Set(eng Engine, payload []byte) reply.Reply {
	lim := eng.Limits()
	if lim.MaxMem > 0 && eng.MemUsed() > lim.MaxMem {
		return reply.Status(reply.ErrMem)
	}

	ttl, key, value, err := parseTTLKeyValue(payload, lim.MaxKeySize, lim.MaxValueSize)
	if err != nil {
		if err == ErrNAN {
			return reply.Status(reply.ErrNAN)
		}
		return reply.Status(reply.Err)
	}

	now := eng.Now()
	if existing := eng.Store().Find(key); existing != nil && existing.IsLocked(now) {
		return reply.Status(reply.ErrLocked)
	}

	it := newValueItem(eng, value, now)
	it.TTL = clampTTL(ttl, lim.MaxItemTTL)

	if prev := eng.Store().Insert(key, it); prev != nil {
		eng.Destroy(prev)
	}
	return reply.ItemReply(it)
}

// Del resolves key, refusing to remove a locked item.
func Del(eng Engine, payload []byte) reply.Reply {
	lim := eng.Limits()
	key, _, err := parseKey(payload, lim.MaxKeySize)
	if err != nil {
		return reply.Status(reply.Err)
	}

	now := eng.Now()
	it, ok := lookup(eng, key, now)
	if !ok {
		return reply.Status(reply.ErrNotFound)
	}
	if it.IsLocked(now) {
		return reply.Status(reply.ErrLocked)
	}

	eng.Store().Delete(key)
	eng.Destroy(it)
	return reply.Status(reply.OK)
}

// TTL parses "key ttl", clamps ttl to the configured maximum, and resets
// the item's logical birth time.
func TTL(eng Engine, payload []byte) reply.Reply {
	lim := eng.Limits()
	key, ttl, err := parseKeyInt(payload, lim.MaxKeySize)
	if err != nil {
		if err == ErrNAN {
			return reply.Status(reply.ErrNAN)
		}
		return reply.Status(reply.Err)
	}

	now := eng.Now()
	it, ok := lookup(eng, key, now)
	if !ok {
		return reply.Status(reply.ErrNotFound)
	}

	it.TouchBirth(now)
	it.TTL = clampTTL(ttl, lim.MaxItemTTL)
	return reply.Status(reply.OK)
}

// Lock parses "key seconds" and sets an advisory write-lock on the item,
// refusing if it is already locked.
func Lock(eng Engine, payload []byte) reply.Reply {
	lim := eng.Limits()
	key, seconds, err := parseKeyInt(payload, lim.MaxKeySize)
	if err != nil {
		if err == ErrNAN {
			return reply.Status(reply.ErrNAN)
		}
		return reply.Status(reply.Err)
	}

	now := eng.Now()
	it, ok := lookup(eng, key, now)
	if !ok {
		return reply.Status(reply.ErrNotFound)
	}
	if it.IsLocked(now) {
		return reply.Status(reply.ErrLocked)
	}

	it.CreatedAt = now
	it.Lock = seconds
	return reply.Status(reply.OK)
}

// Unlock clears an item's lock unconditionally; it does not require the
// item to be currently locked.
func Unlock(eng Engine, payload []byte) reply.Reply {
	lim := eng.Limits()
	key, _, err := parseKey(payload, lim.MaxKeySize)
	if err != nil {
		return reply.Status(reply.Err)
	}

	now := eng.Now()
	it, ok := lookup(eng, key, now)
	if !ok {
		return reply.Status(reply.ErrNotFound)
	}

	it.Lock = 0
	it.TouchAccess(now)
	return reply.Status(reply.OK)
}

// Meta parses "key field" and returns field's integer value. field is one
// of size, encoding, access, created, ttl, left, lock.
func Meta(eng Engine, payload []byte) reply.Reply {
	lim := eng.Limits()
	key, rest, err := parseKey(payload, lim.MaxKeySize)
	if err != nil {
		return reply.Status(reply.Err)
	}
	field, _, err := parseKey(rest, 0)
	if err != nil {
		return reply.Status(reply.Err)
	}

	now := eng.Now()
	it, ok := lookup(eng, key, now)
	if !ok {
		return reply.Status(reply.ErrNotFound)
	}
	it.TouchAccess(now)

	var v int64
	switch string(field) {
	case "size":
		v = int64(it.Size)
	case "encoding":
		v = int64(it.Encoding)
	case "access":
		v = it.LastAccessAt
	case "created":
		v = it.CreatedAt
	case "ttl":
		v = it.TTL
	case "left":
		v = it.TTLRemaining(now)
	case "lock":
		v = it.Lock
	default:
		return reply.Status(reply.Err)
	}

	return reply.Number(v)
}
