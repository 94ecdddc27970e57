package query

import (
	"github.com/gibsoncached/gibsoncached/internal/item"
	"github.com/gibsoncached/gibsoncached/internal/reply"
)

// Inc applies delta=+1 to key, creating a fresh Number item valued 1 if
// key is absent.
func Inc(eng Engine, payload []byte) reply.Reply {
	return incDec(eng, payload, 1)
}

// Dec applies delta=-1 to key, creating a fresh Number item valued 1 (not
// -1) if key is absent, matching Inc's creation behavior exactly.
func Dec(eng Engine, payload []byte) reply.Reply {
	return incDec(eng, payload, -1)
}

func incDec(eng Engine, payload []byte, delta int64) reply.Reply {
	lim := eng.Limits()
	key, _, err := parseKey(payload, lim.MaxKeySize)
	if err != nil {
		return reply.Status(reply.Err)
	}

	now := eng.Now()
	existing := eng.Store().Find(key)
	if existing == nil {
		it := newNumberItem(eng, 1, now)
		eng.Store().Insert(key, it)
		return reply.ItemReply(it)
	}

	if existing.IsExpired(now) {
		eng.Store().Delete(key)
		eng.Destroy(existing)
		return reply.Status(reply.ErrNotFound)
	}
	if existing.IsLocked(now) {
		return reply.Status(reply.ErrLocked)
	}

	if existing.Encoding != item.Number {
		v, perr := parseInt(existing.Buf)
		if perr != nil {
			return reply.Status(reply.ErrNAN)
		}
		existing.PromoteToNumber(v)
	}

	existing.Num += delta
	existing.TouchAccess(now)
	return reply.ItemReply(existing)
}
