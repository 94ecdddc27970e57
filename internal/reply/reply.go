// Package reply builds the binary reply the core hands off to the network
// layer: the four enqueue shapes a query handler is allowed to produce,
// over the tagged Item type.
package reply

import "github.com/gibsoncached/gibsoncached/internal/item"

// Code is a reply status code.
type Code uint8

const (
	OK Code = iota
	Val
	Err
	ErrNAN
	ErrNotFound
	ErrMem
	ErrLocked
)

func (c Code) String() string {
	switch c {
	case OK:
		return "OK"
	case Val:
		return "VAL"
	case Err:
		return "ERR"
	case ErrNAN:
		return "ERR_NAN"
	case ErrNotFound:
		return "ERR_NOT_FOUND"
	case ErrMem:
		return "ERR_MEM"
	case ErrLocked:
		return "ERR_LOCKED"
	default:
		return "ERR"
	}
}

// KV is one key/value pair staged for a set reply (MGET, KEYS).
type KV struct {
	Key      string
	Encoding item.Encoding
	Value    []byte
}

// Reply is the single value every query handler produces. Exactly one of
// the payload shapes is populated, selected by Code and Kind.
type Reply struct {
	Code Code

	// Close requests the connection be closed after this reply is sent,
	// set only by END.
	Close bool

	// Kind distinguishes the three non-bare-code payload shapes.
	Kind Kind

	// Item payload, for Kind == KindItem.
	Item *item.Item

	// Data payload, for Kind == KindData.
	DataEncoding item.Encoding
	Data         []byte

	// Set payload, for Kind == KindSet.
	Set []KV
}

// Kind selects which payload field of Reply is meaningful.
type Kind uint8

const (
	KindNone Kind = iota
	KindItem
	KindData
	KindSet
)

// Status builds a bare-code reply (enqueue_code).
func Status(code Code) Reply {
	return Reply{Code: code}
}

// StatusClose builds a bare-code reply with the close-after-send flag set,
// used by END.
func StatusClose(code Code) Reply {
	return Reply{Code: code, Close: true}
}

// ItemReply builds a VAL reply carrying an item's own bytes and encoding
// (enqueue_item).
func ItemReply(it *item.Item) Reply {
	return Reply{Code: Val, Kind: KindItem, Item: it}
}

// Data builds a VAL reply carrying a synthetic payload not backed by a
// live item (enqueue_data).
func Data(enc item.Encoding, data []byte) Reply {
	return Reply{Code: Val, Kind: KindData, DataEncoding: enc, Data: data}
}

// Number builds a VAL/NUMBER reply from an int64, the shape META and the
// bulk mutation and COUNT replies use.
func Number(v int64) Reply {
	return Reply{Code: Val, Kind: KindData, DataEncoding: item.Number, Data: encodeNumber(v)}
}

// KVSet builds a VAL reply carrying a staged key/value set
// (enqueue_kv_set), used by MGET and KEYS. An empty set becomes a bare
// ErrNotFound reply.
func KVSet(pairs []KV) Reply {
	if len(pairs) == 0 {
		return Status(ErrNotFound)
	}
	return Reply{Code: Val, Kind: KindSet, Set: pairs}
}

func encodeNumber(v int64) []byte {
	it := item.NewNumber(v, 0)
	return it.Bytes()
}
