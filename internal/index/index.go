// Package index implements the ordered, prefix-searchable key index the
// query core consults on every request: an associative container keyed by
// byte strings supporting pattern search. It is a byte-trie, so a prefix
// walk ("a/*") is a tree descent instead of a full scan.
package index

import (
	"sort"
	"sync"

	"github.com/gibsoncached/gibsoncached/internal/item"
)

// Slot is a mutable index entry. Handlers that detect an expired item hold
// a *Slot so they can null it without a second index operation.
type Slot struct {
	Item *item.Item

	children map[byte]*Slot
}

func newSlot() *Slot {
	return &Slot{children: make(map[byte]*Slot)}
}

func (s *Slot) child(b byte, create bool) *Slot {
	c, ok := s.children[b]
	if !ok {
		if !create {
			return nil
		}
		c = newSlot()
		s.children[b] = c
	}
	return c
}

// Index is the shared, single-threaded-from-the-core's-view key trie.
// Its own mutex lets the surrounding server accept many connections
// concurrently while the query core's view of the index stays
// effectively single-writer.
type Index struct {
	mu   sync.Mutex
	root *Slot
	size int
}

// New returns an empty index.
func New() *Index {
	return &Index{root: newSlot()}
}

// Len reports the number of keys currently holding a non-nil item.
func (ix *Index) Len() int {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	return ix.size
}

func descend(root *Slot, key []byte, create bool) *Slot {
	n := root
	for _, b := range key {
		n = n.child(b, create)
		if n == nil {
			return nil
		}
	}
	return n
}

// Find returns the item stored at key, or nil.
func (ix *Index) Find(key []byte) *item.Item {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	n := descend(ix.root, key, false)
	if n == nil {
		return nil
	}
	return n.Item
}

// FindNode returns the mutable slot at key, creating trie structure (but
// not the item) along the way if needed so the caller can write into it.
// It never returns nil; an empty key yields the root slot.
func (ix *Index) FindNode(key []byte) *Slot {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	return descend(ix.root, key, true)
}

// Insert stores it at key, returning any previous item at that key.
func (ix *Index) Insert(key []byte, it *item.Item) *item.Item {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	n := descend(ix.root, key, true)
	prev := n.Item
	if prev == nil {
		ix.size++
	}
	n.Item = it
	return prev
}

// Delete nulls the slot at key, if present, returning the removed item.
func (ix *Index) Delete(key []byte) *item.Item {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	n := descend(ix.root, key, false)
	if n == nil || n.Item == nil {
		return nil
	}
	prev := n.Item
	n.Item = nil
	ix.size--
	return prev
}

// prefixOf strips a trailing '*' from a pattern, reporting whether the
// pattern was a prefix-wildcard in the first place. A prefix pattern
// ending in '*' matches every key sharing that prefix; this index
// supports only that one wildcard shape plus exact match.
func prefixOf(pattern []byte) (prefix []byte, wildcard bool) {
	if len(pattern) > 0 && pattern[len(pattern)-1] == '*' {
		return pattern[:len(pattern)-1], true
	}
	return pattern, false
}

type match struct {
	key  string
	slot *Slot
}

// collect performs a DFS from the prefix node, gathering every descendant
// slot holding a non-nil item, sorted lexicographically by key so walk
// order is deterministic (KEYS ordinal indices and MGET/COUNT over the
// same data are stable across calls).
func collect(root *Slot, prefix []byte, exact bool, maxKeyLen int) []match {
	start := descend(root, prefix, false)
	if start == nil {
		return nil
	}

	var out []match
	if exact {
		if start.Item != nil {
			out = append(out, match{key: string(prefix), slot: start})
		}
		return out
	}

	type frame struct {
		slot *Slot
		key  []byte
	}
	stack := []frame{{slot: start, key: append([]byte(nil), prefix...)}}

	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if f.slot.Item != nil {
			if maxKeyLen <= 0 || len(f.key) <= maxKeyLen {
				out = append(out, match{key: string(f.key), slot: f.slot})
			}
		}

		for b, c := range f.slot.children {
			nk := append(append([]byte(nil), f.key...), b)
			stack = append(stack, frame{slot: c, key: nk})
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].key < out[j].key })
	return out
}

func limitSlice(matches []match, limit int) []match {
	if limit >= 0 && limit < len(matches) {
		return matches[:limit]
	}
	return matches
}

// Search gathers up to limit matching keys (limit == -1 for unlimited),
// returning parallel key/item slices.
func (ix *Index) Search(pattern []byte, limit int, maxKeyLen int) (keys []string, items []*item.Item) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	prefix, wildcard := prefixOf(pattern)
	matches := limitSlice(collect(ix.root, prefix, !wildcard, maxKeyLen), limit)

	keys = make([]string, len(matches))
	items = make([]*item.Item, len(matches))
	for i, m := range matches {
		keys[i] = m.key
		items[i] = m.slot.Item
	}
	return keys, items
}

// SearchCallback walks matches invoking cb(key, item) per match; cb
// returns true if the match "counted". Returns the count. Count is built
// on it; the bulk handlers use SearchNodesCallback instead.
func (ix *Index) SearchCallback(pattern []byte, limit int, maxKeyLen int, cb func(key string, it *item.Item) bool) int {
	ix.mu.Lock()
	prefix, wildcard := prefixOf(pattern)
	matches := limitSlice(collect(ix.root, prefix, !wildcard, maxKeyLen), limit)
	ix.mu.Unlock()

	found := 0
	for _, m := range matches {
		if m.slot.Item != nil && cb(m.key, m.slot.Item) {
			found++
		}
	}
	return found
}

// SearchNodesCallback is SearchCallback's slot-exposing sibling, used by
// every bulk op so a handler can null a slot directly, for an MDEL
// removal, or to destroy an item found expired mid-walk, without a
// second index operation. cb's return value only reports whether the
// match "counted" for the handler's reply; size bookkeeping tracks
// presence before and after cb independently of that return value, since
// a handler may null a slot (expiry) without counting it.
func (ix *Index) SearchNodesCallback(pattern []byte, maxKeyLen int, cb func(key string, slot *Slot) bool) int {
	ix.mu.Lock()
	prefix, wildcard := prefixOf(pattern)
	matches := collect(ix.root, prefix, !wildcard, maxKeyLen)
	ix.mu.Unlock()

	found := 0
	for _, m := range matches {
		wasPresent := m.slot.Item != nil
		if cb(m.key, m.slot) {
			found++
		}
		if wasPresent && m.slot.Item == nil {
			ix.mu.Lock()
			ix.size--
			ix.mu.Unlock()
		}
	}
	return found
}

// Count walks matches invoking cb(key, item) per match and returns the
// number of matches for which cb returned true, without mutating.
func (ix *Index) Count(pattern []byte, limit int, maxKeyLen int, cb func(key string, it *item.Item) bool) int {
	return ix.SearchCallback(pattern, limit, maxKeyLen, cb)
}

// Null clears a slot's item directly, the primitive the query core's
// lifecycle code (slotValid) uses to destroy an expired item in place
// during a walk.
func (s *Slot) Null() {
	s.Item = nil
}
