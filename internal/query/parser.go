// Package query is the request-processing core: payload parsing, item
// lifecycle, single-key and bulk operation handlers, and opcode dispatch,
// built against the store.Store interface and the tagged Item variant.
package query

import "errors"

// ErrParse signals a malformed payload (empty key, missing field or
// value). A bad integer field is reported as ErrNAN instead.
var ErrParse = errors.New("parse error")

// ErrNAN signals an integer field that failed to parse.
var ErrNAN = errors.New("not a number")

// errUnknownOpcode signals a frame whose opcode has no registered handler.
var errUnknownOpcode = errors.New("unknown opcode")

// parseKey returns the prefix of p up to the first space or maxKeySize
// bytes, whichever is shorter. Fails if the key would be empty.
func parseKey(p []byte, maxKeySize int) (key []byte, rest []byte, err error) {
	limit := len(p)
	if maxKeySize > 0 && maxKeySize < limit {
		limit = maxKeySize
	}

	klen := 0
	for klen < limit && p[klen] != ' ' {
		klen++
	}
	if klen == 0 {
		return nil, nil, ErrParse
	}

	restStart := klen
	if restStart < len(p) && p[restStart] == ' ' {
		restStart++
	} else if restStart < len(p) {
		// Key was truncated by maxKeySize before hitting a space;
		// everything else is discarded per parse_key's contract.
		restStart = len(p)
	}

	return p[:klen], p[restStart:], nil
}

// parseKeyValue parses "key value", where value is whatever remains
// after the single separating space and may itself contain spaces.
// Fails if key is empty or a value was expected but is empty.
func parseKeyValue(p []byte, maxKeySize, maxValueSize int) (key, value []byte, err error) {
	key, rest, err := parseKey(p, maxKeySize)
	if err != nil {
		return nil, nil, err
	}
	if len(rest) == 0 {
		return nil, nil, ErrParse
	}

	value = rest
	if maxValueSize > 0 && len(value) > maxValueSize {
		value = value[:maxValueSize]
	}
	return key, value, nil
}

// parseKeyOptValue is parseKeyValue but tolerates a missing value,
// returning a nil value slice instead of failing.
func parseKeyOptValue(p []byte, maxKeySize, maxValueSize int) (key, value []byte, err error) {
	key, rest, err := parseKey(p, maxKeySize)
	if err != nil {
		return nil, nil, err
	}
	if len(rest) == 0 {
		return key, nil, nil
	}
	if maxValueSize > 0 && len(rest) > maxValueSize {
		rest = rest[:maxValueSize]
	}
	return key, rest, nil
}

// parseTTLKeyValue parses "ttl key value": a leading whitespace-terminated
// integer TTL field, then key, then a required value, used by SET/MSET.
func parseTTLKeyValue(p []byte, maxKeySize, maxValueSize int) (ttl int64, key, value []byte, err error) {
	sp := 0
	for sp < len(p) && p[sp] != ' ' {
		sp++
	}
	if sp == 0 || sp >= len(p) {
		return 0, nil, nil, ErrParse
	}

	ttl, err = parseInt(p[:sp])
	if err != nil {
		return 0, nil, nil, err
	}

	key, value, err = parseKeyValue(p[sp+1:], maxKeySize, maxValueSize)
	if err != nil {
		return 0, nil, nil, err
	}
	return ttl, key, value, nil
}

// parseKeyInt parses "key n": a key followed by a single trailing integer
// field, used by TTL/LOCK (and their bulk siblings MTTL/MLOCK, where the
// pattern plays the role of key).
func parseKeyInt(p []byte, maxKeySize int) (key []byte, n int64, err error) {
	key, rest, err := parseKey(p, maxKeySize)
	if err != nil {
		return nil, 0, err
	}
	n, err = parseInt(rest)
	if err != nil {
		return nil, 0, err
	}
	return key, n, nil
}

// parseInt implements the integer parse described for the payload
// language: an optional leading '-', then ASCII digits only; any non-digit
// aborts with ErrNAN. A '0' in the first digit position short-circuits to
// a successful zero immediately, discarding the remainder of the token
// unvalidated (so "007" and "0abc" both parse as 0, not just the literal
// "0"). Overflow is rejected rather than saturated (an implementer choice
// recorded in DESIGN.md).
func parseInt(p []byte) (int64, error) {
	if len(p) == 0 {
		return 0, ErrNAN
	}

	neg := false
	i := 0
	if p[0] == '-' {
		neg = true
		i = 1
	}
	if i >= len(p) {
		return 0, ErrNAN
	}

	if p[i] == '0' {
		return 0, nil
	}

	var v int64
	for ; i < len(p); i++ {
		c := p[i]
		if c < '0' || c > '9' {
			return 0, ErrNAN
		}
		d := int64(c - '0')

		if v > (maxInt64-d)/10 {
			return 0, ErrNAN
		}
		v = v*10 + d
	}

	if neg {
		v = -v
	}
	return v, nil
}

const maxInt64 = 1<<63 - 1
