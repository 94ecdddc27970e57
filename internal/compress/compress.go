// Package compress implements the compression codec the core SET path
// calls into when a value exceeds the configured compression threshold,
// the role LZF plays in gibson. It is built on
// github.com/klauspost/compress/flate.
package compress

import (
	"bytes"
	"io"

	"github.com/klauspost/compress/flate"
)

// Scratch is a reusable compression buffer, scoped to a single SET call.
type Scratch struct {
	buf bytes.Buffer
}

// NewScratch returns a ready-to-use scratch buffer.
func NewScratch() *Scratch {
	return &Scratch{}
}

// Compress attempts to compress v into the scratch buffer, targeting at
// most maxLen bytes of output. It returns the compressed bytes and true
// on success, or nil and false if the output is longer than maxLen,
// mirroring lzf_compress's "not enough compression" return of 0.
func (s *Scratch) Compress(v []byte, maxLen int) ([]byte, bool) {
	s.buf.Reset()

	w, err := flate.NewWriter(&s.buf, flate.BestSpeed)
	if err != nil {
		return nil, false
	}
	if _, err := w.Write(v); err != nil {
		return nil, false
	}
	if err := w.Close(); err != nil {
		return nil, false
	}

	if s.buf.Len() == 0 || s.buf.Len() > maxLen {
		return nil, false
	}

	out := make([]byte, s.buf.Len())
	copy(out, s.buf.Bytes())
	return out, true
}

// Decompress expands a buffer produced by Compress.
func Decompress(compressed []byte) ([]byte, error) {
	r := flate.NewReader(bytes.NewReader(compressed))
	defer r.Close()
	return io.ReadAll(r)
}
