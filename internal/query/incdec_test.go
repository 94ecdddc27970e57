package query

import (
	"testing"

	"github.com/gibsoncached/gibsoncached/internal/item"
	"github.com/gibsoncached/gibsoncached/internal/reply"
)

func TestIncOnAbsentKeyCreatesValueOne(t *testing.T) {
	eng := newFakeEngine(defaultLimits())
	r := Inc(eng, []byte("k"))
	if got := numberOf(t, itemReplyAsData(r)); got != 1 {
		t.Errorf("Inc() on absent key = %d, want 1", got)
	}
}

func TestDecOnAbsentKeyAlsoCreatesValueOne(t *testing.T) {
	eng := newFakeEngine(defaultLimits())
	r := Dec(eng, []byte("k"))
	if got := numberOf(t, itemReplyAsData(r)); got != 1 {
		t.Errorf("Dec() on absent key = %d, want 1 (not -1)", got)
	}
}

func TestIncOnExistingNumber(t *testing.T) {
	eng := newFakeEngine(defaultLimits())
	Inc(eng, []byte("k")) // creates value 1
	r := Inc(eng, []byte("k"))
	if got := numberOf(t, itemReplyAsData(r)); got != 2 {
		t.Errorf("Inc() on existing number = %d, want 2", got)
	}
}

func TestIncPromotesParseablePlainValue(t *testing.T) {
	eng := newFakeEngine(defaultLimits())
	Set(eng, []byte("0 k 10"))

	r := Inc(eng, []byte("k"))
	if got := numberOf(t, itemReplyAsData(r)); got != 11 {
		t.Errorf("Inc() on a numeric-looking plain value = %d, want 11", got)
	}
	if eng.Store().Find([]byte("k")).Encoding != item.Number {
		t.Error("item should have been promoted to Number encoding")
	}
}

func TestIncOnNonNumericPlainValueIsNAN(t *testing.T) {
	eng := newFakeEngine(defaultLimits())
	Set(eng, []byte("0 k hello"))

	r := Inc(eng, []byte("k"))
	if r.Code != reply.ErrNAN {
		t.Errorf("Inc() on non-numeric value = %v, want ErrNAN", r.Code)
	}
}

func TestIncOnLockedItemIsRefused(t *testing.T) {
	eng := newFakeEngine(defaultLimits())
	Set(eng, []byte("0 k 1"))
	Lock(eng, []byte("k -1"))

	r := Inc(eng, []byte("k"))
	if r.Code != reply.ErrLocked {
		t.Errorf("Inc() on locked item = %v, want ErrLocked", r.Code)
	}
}

func TestIncOnExpiredItemIsNotFoundAndRemoves(t *testing.T) {
	eng := newFakeEngine(defaultLimits())
	Set(eng, []byte("1 k 1"))

	eng.now = 5
	r := Inc(eng, []byte("k"))
	if r.Code != reply.ErrNotFound {
		t.Errorf("Inc() on expired item = %v, want ErrNotFound", r.Code)
	}
	if eng.Store().Len() != 0 {
		t.Error("expired item should have been removed")
	}
}

// itemReplyAsData normalizes an ItemReply's value into the same shape
// numberOf expects, since Inc/Dec reply with the live item rather than a
// synthetic Number data payload.
func itemReplyAsData(r reply.Reply) reply.Reply {
	if r.Kind != reply.KindItem {
		return r
	}
	return reply.Data(r.Item.Encoding, r.Item.Bytes())
}
