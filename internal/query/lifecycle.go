package query

import (
	"github.com/gibsoncached/gibsoncached/internal/index"
	"github.com/gibsoncached/gibsoncached/internal/item"
)

// lookup resolves key through eng's store, applying lazy expiration: an
// expired item is destroyed and removed before lookup reports it absent.
// This is the shared preamble of GET/DEL/TTL/LOCK/UNLOCK/META; INC/DEC
// run the same expiry check inline, since an absent key there creates one.
func lookup(eng Engine, key []byte, now int64) (*item.Item, bool) {
	it := eng.Store().Find(key)
	if it == nil {
		return nil, false
	}
	if it.IsExpired(now) {
		eng.Store().Delete(key)
		eng.Destroy(it)
		return nil, false
	}
	return it, true
}

// slotValid is lookup's slot-exposing sibling for bulk walks, which
// already hold a *index.Slot from SearchNodesCallback and so can null it
// in place rather than paying for a second index descent.
func slotValid(eng Engine, slot *index.Slot, now int64) (*item.Item, bool) {
	it := slot.Item
	if it == nil {
		return nil, false
	}
	if it.IsExpired(now) {
		slot.Null()
		eng.Destroy(it)
		return nil, false
	}
	return it, true
}

// clampTTL bounds a requested TTL to maxTTL when both are positive,
// leaving the -1/0 "no expiry" sentinels untouched.
func clampTTL(ttl, maxTTL int64) int64 {
	if ttl > 0 && maxTTL > 0 && ttl > maxTTL {
		return maxTTL
	}
	return ttl
}
