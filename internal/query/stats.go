package query

import (
	"github.com/gibsoncached/gibsoncached/internal/item"
	"github.com/gibsoncached/gibsoncached/internal/reply"
)

// Stats renders every server counter as a key/value set. Unlike other
// bulk replies the pairs here are not index matches; they are destroyed
// immediately after enqueue by virtue of never being allocated as items
// at all.
func Stats(eng Engine, _ []byte) reply.Reply {
	snapshot := eng.StatsSnapshot()

	pairs := make([]reply.KV, len(snapshot))
	for i, p := range snapshot {
		enc := item.Plain
		if p.Numeric {
			enc = item.Number
		}
		pairs[i] = reply.KV{Key: p.Key, Encoding: enc, Value: []byte(p.Value)}
	}

	return reply.Reply{Code: reply.Val, Kind: reply.KindSet, Set: pairs}
}
