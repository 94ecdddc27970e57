package reply

import (
	"bytes"
	"encoding/binary"

	"github.com/gibsoncached/gibsoncached/internal/item"
)

// Encode serializes r into its wire representation: a status byte
// followed by a kind-specific body. The network layer wraps this in its
// own length prefix; this package only knows how to render the logical
// reply shapes named in the dispatch contract (enqueue_code, enqueue_item,
// enqueue_data, enqueue_kv_set).
func Encode(r Reply) []byte {
	var buf bytes.Buffer
	buf.WriteByte(byte(r.Code))

	switch r.Kind {
	case KindNone:
		// bare code, no body
	case KindItem:
		writeTagged(&buf, r.Item.Encoding, r.Item.Bytes())
	case KindData:
		writeTagged(&buf, r.DataEncoding, r.Data)
	case KindSet:
		writeUint32(&buf, uint32(len(r.Set)))
		for _, kv := range r.Set {
			writeBytes(&buf, []byte(kv.Key))
			writeTagged(&buf, kv.Encoding, kv.Value)
		}
	}

	return buf.Bytes()
}

func writeTagged(buf *bytes.Buffer, enc item.Encoding, data []byte) {
	buf.WriteByte(byte(enc))
	writeBytes(buf, data)
}

func writeBytes(buf *bytes.Buffer, b []byte) {
	writeUint32(buf, uint32(len(b)))
	buf.Write(b)
}

func writeUint32(buf *bytes.Buffer, v uint32) {
	var tmp [4]byte
	binary.BigEndian.PutUint32(tmp[:], v)
	buf.Write(tmp[:])
}
