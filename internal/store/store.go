// Package store is a thin interface over the prefix index: find, insert,
// delete, pattern-walk. It exists so internal/query depends on an
// interface rather than the concrete index implementation, matching the
// teacher's pattern of keeping storage access behind small methods on the
// server type.
package store

import (
	"github.com/gibsoncached/gibsoncached/internal/index"
	"github.com/gibsoncached/gibsoncached/internal/item"
)

// Store is the contract the query core consumes.
type Store interface {
	Find(key []byte) *item.Item
	FindNode(key []byte) *index.Slot
	Insert(key []byte, it *item.Item) *item.Item
	Delete(key []byte) *item.Item
	Search(pattern []byte, limit int, maxKeyLen int) (keys []string, items []*item.Item)
	SearchCallback(pattern []byte, limit int, maxKeyLen int, cb func(key string, it *item.Item) bool) int
	SearchNodesCallback(pattern []byte, maxKeyLen int, cb func(key string, slot *index.Slot) bool) int
	Count(pattern []byte, limit int, maxKeyLen int, cb func(key string, it *item.Item) bool) int
	Len() int
}

// Adapter wraps an *index.Index to satisfy Store.
type Adapter struct {
	ix *index.Index
}

// New wraps ix as a Store.
func New(ix *index.Index) *Adapter {
	return &Adapter{ix: ix}
}

func (a *Adapter) Find(key []byte) *item.Item { return a.ix.Find(key) }

func (a *Adapter) FindNode(key []byte) *index.Slot { return a.ix.FindNode(key) }

func (a *Adapter) Insert(key []byte, it *item.Item) *item.Item { return a.ix.Insert(key, it) }

func (a *Adapter) Delete(key []byte) *item.Item { return a.ix.Delete(key) }

func (a *Adapter) Search(pattern []byte, limit int, maxKeyLen int) ([]string, []*item.Item) {
	return a.ix.Search(pattern, limit, maxKeyLen)
}

func (a *Adapter) SearchCallback(pattern []byte, limit int, maxKeyLen int, cb func(string, *item.Item) bool) int {
	return a.ix.SearchCallback(pattern, limit, maxKeyLen, cb)
}

func (a *Adapter) SearchNodesCallback(pattern []byte, maxKeyLen int, cb func(string, *index.Slot) bool) int {
	return a.ix.SearchNodesCallback(pattern, maxKeyLen, cb)
}

func (a *Adapter) Count(pattern []byte, limit int, maxKeyLen int, cb func(string, *item.Item) bool) int {
	return a.ix.Count(pattern, limit, maxKeyLen, cb)
}

func (a *Adapter) Len() int { return a.ix.Len() }
