package reply

import (
	"testing"

	"github.com/gibsoncached/gibsoncached/internal/item"
)

func TestStatusIsBareCode(t *testing.T) {
	r := Status(ErrLocked)
	if r.Code != ErrLocked || r.Kind != KindNone || r.Close {
		t.Errorf("Status() = %+v, want a bare ErrLocked reply", r)
	}
}

func TestStatusCloseSetsCloseFlag(t *testing.T) {
	r := StatusClose(OK)
	if !r.Close {
		t.Error("StatusClose() should set Close")
	}
}

func TestItemReplyCarriesTheItem(t *testing.T) {
	it := item.NewPlain([]byte("v"), item.Plain, 0)
	r := ItemReply(it)
	if r.Code != Val || r.Kind != KindItem || r.Item != it {
		t.Errorf("ItemReply() = %+v, want a VAL item reply wrapping it", r)
	}
}

func TestNumberEncodesDecimalASCII(t *testing.T) {
	r := Number(-42)
	if r.Kind != KindData || r.DataEncoding != item.Number {
		t.Fatalf("Number() = %+v, want KindData/Number", r)
	}
	if string(r.Data) != "-42" {
		t.Errorf("Number(-42) data = %q, want %q", r.Data, "-42")
	}
}

func TestKVSetEmptyBecomesNotFound(t *testing.T) {
	r := KVSet(nil)
	if r.Code != ErrNotFound || r.Kind != KindNone {
		t.Errorf("KVSet(nil) = %+v, want a bare ErrNotFound reply", r)
	}
}

func TestKVSetNonEmptyCarriesPairs(t *testing.T) {
	pairs := []KV{{Key: "a", Encoding: item.Plain, Value: []byte("1")}}
	r := KVSet(pairs)
	if r.Code != Val || r.Kind != KindSet || len(r.Set) != 1 {
		t.Errorf("KVSet() = %+v, want a VAL set reply with 1 pair", r)
	}
}

func TestCodeStringCoversEveryValue(t *testing.T) {
	tests := map[Code]string{
		OK:          "OK",
		Val:         "VAL",
		Err:         "ERR",
		ErrNAN:      "ERR_NAN",
		ErrNotFound: "ERR_NOT_FOUND",
		ErrMem:      "ERR_MEM",
		ErrLocked:   "ERR_LOCKED",
	}
	for code, want := range tests {
		if got := code.String(); got != want {
			t.Errorf("Code(%d).String() = %q, want %q", code, got, want)
		}
	}
}
