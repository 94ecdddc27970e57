package query

import (
	"testing"

	"github.com/gibsoncached/gibsoncached/internal/reply"
)

func seedThree(eng *fakeEngine) {
	Set(eng, []byte("0 a/1 x"))
	Set(eng, []byte("0 a/2 y"))
	Set(eng, []byte("0 b/1 z"))
}

func TestMGetGathersMatchingSet(t *testing.T) {
	eng := newFakeEngine(defaultLimits())
	seedThree(eng)

	r := MGet(eng, []byte("a/*"))
	if r.Kind != reply.KindSet || len(r.Set) != 2 {
		t.Fatalf("MGet() set = %+v, want 2 entries", r.Set)
	}
}

func TestMGetLimitCapsResultsButStillWalksEveryMatch(t *testing.T) {
	eng := newFakeEngine(defaultLimits())
	eng.now = 0
	Set(eng, []byte("1 a/3 z"))
	eng.now = 5 // a/3 is now expired
	Set(eng, []byte("0 a/1 x"))
	Set(eng, []byte("0 a/2 y"))

	r := MGet(eng, []byte("a/* 1"))
	if r.Kind != reply.KindSet || len(r.Set) != 1 {
		t.Fatalf("MGet() with limit 1 set = %+v, want 1 entry", r.Set)
	}

	// The walk visits a/1, a/2, a/3 in order, so the limit is reached at
	// a/1; the expired a/3 should still have been destroyed by the walk.
	if eng.Store().Find([]byte("a/3")) != nil {
		t.Error("MGet() with a limit should still lazily destroy expired matches")
	}
}

func TestMGetBadLimitTokenIsNaN(t *testing.T) {
	eng := newFakeEngine(defaultLimits())
	seedThree(eng)

	r := MGet(eng, []byte("a/* notanumber"))
	if r.Code != reply.ErrNAN {
		t.Errorf("MGet() with a bad limit token = %v, want ErrNAN", r.Code)
	}
}

func TestMGetNoMatchIsNotFound(t *testing.T) {
	eng := newFakeEngine(defaultLimits())
	r := MGet(eng, []byte("nothing/*"))
	if r.Code != reply.ErrNotFound {
		t.Errorf("MGet() with no matches = %v, want ErrNotFound", r.Code)
	}
}

func TestMSetOverwritesEveryMatch(t *testing.T) {
	eng := newFakeEngine(defaultLimits())
	seedThree(eng)

	r := MSet(eng, []byte("a/* newval"))
	if got := numberOf(t, r); got != 2 {
		t.Fatalf("MSet() count = %d, want 2", got)
	}

	if string(eng.Store().Find([]byte("a/1")).Bytes()) != "newval" {
		t.Error("a/1 should have been overwritten")
	}
	if string(eng.Store().Find([]byte("b/1")).Bytes()) != "z" {
		t.Error("b/1 should be untouched by an a/* MSet")
	}
}

func TestMSetSkipsLockedMatches(t *testing.T) {
	eng := newFakeEngine(defaultLimits())
	seedThree(eng)
	Lock(eng, []byte("a/1 -1"))

	r := MSet(eng, []byte("a/* newval"))
	if got := numberOf(t, r); got != 1 {
		t.Fatalf("MSet() count = %d, want 1 (a/1 is locked)", got)
	}
	if string(eng.Store().Find([]byte("a/1")).Bytes()) != "x" {
		t.Error("locked a/1 should not have been overwritten")
	}
}

func TestMDelSkipsOnlyLockedValidItems(t *testing.T) {
	eng := newFakeEngine(defaultLimits())
	seedThree(eng)
	Lock(eng, []byte("a/1 -1"))

	r := MDel(eng, []byte("a/*"))
	if got := numberOf(t, r); got != 1 {
		t.Fatalf("MDel() count = %d, want 1 (a/1 locked, a/2 removed)", got)
	}
	if eng.Store().Find([]byte("a/1")) == nil {
		t.Error("locked a/1 should survive MDel")
	}
	if eng.Store().Find([]byte("a/2")) != nil {
		t.Error("unlocked a/2 should have been removed by MDel")
	}
}

func TestMDelDestroysExpiredItemsEvenThoughTheyWerentLocked(t *testing.T) {
	eng := newFakeEngine(defaultLimits())
	eng.now = 0
	Set(eng, []byte("1 a/1 x"))
	eng.now = 5

	r := MDel(eng, []byte("a/*"))
	if got := numberOf(t, r); got != 1 {
		t.Errorf("MDel() count over an expired item = %d, want 1", got)
	}
}

func TestMTTLAppliesToEveryMatchIgnoringLocks(t *testing.T) {
	lim := defaultLimits()
	lim.MaxItemTTL = 1000
	eng := newFakeEngine(lim)
	seedThree(eng)
	Lock(eng, []byte("a/1 -1"))

	r := MTTL(eng, []byte("a/* 50"))
	if got := numberOf(t, r); got != 2 {
		t.Fatalf("MTTL() count = %d, want 2", got)
	}
	if eng.Store().Find([]byte("a/1")).TTL != 50 {
		t.Error("MTTL should set TTL even on a locked item")
	}
}

func TestMIncPromotesAndSkipsNonNumeric(t *testing.T) {
	eng := newFakeEngine(defaultLimits())
	Set(eng, []byte("0 a/1 10"))
	Set(eng, []byte("0 a/2 notanumber"))

	r := MInc(eng, []byte("a/*"))
	if got := numberOf(t, r); got != 1 {
		t.Fatalf("MInc() count = %d, want 1 (only a/1 is numeric)", got)
	}
	if string(eng.Store().Find([]byte("a/1")).Bytes()) != "11" {
		t.Errorf("a/1 = %q, want 11", eng.Store().Find([]byte("a/1")).Bytes())
	}
}

func TestMLockThenMLockSkipsAlreadyLocked(t *testing.T) {
	eng := newFakeEngine(defaultLimits())
	seedThree(eng)

	first := numberOf(t, MLock(eng, []byte("a/* -1")))
	if first != 2 {
		t.Fatalf("first MLock() count = %d, want 2", first)
	}

	second := MLock(eng, []byte("a/* -1"))
	if second.Code != reply.ErrNotFound {
		t.Errorf("second MLock() over already-locked matches = %v, want ErrNotFound", second.Code)
	}
}

func TestMUnlockClearsLocksIgnoringWhetherLocked(t *testing.T) {
	eng := newFakeEngine(defaultLimits())
	seedThree(eng)
	Lock(eng, []byte("a/1 -1"))

	r := MUnlock(eng, []byte("a/*"))
	if got := numberOf(t, r); got != 2 {
		t.Fatalf("MUnlock() count = %d, want 2", got)
	}
	if eng.Store().Find([]byte("a/1")).IsLocked(0) {
		t.Error("a/1 should be unlocked after MUnlock")
	}
}

func TestCountDoesNotMutate(t *testing.T) {
	eng := newFakeEngine(defaultLimits())
	seedThree(eng)

	r := Count(eng, []byte("a/*"))
	if got := numberOf(t, r); got != 2 {
		t.Fatalf("Count() = %d, want 2", got)
	}
	if string(eng.Store().Find([]byte("a/1")).Bytes()) != "x" {
		t.Error("Count() must not mutate matched items")
	}
}

func TestKeysReturnsOrdinalIndexedKeySet(t *testing.T) {
	eng := newFakeEngine(defaultLimits())
	seedThree(eng)

	r := Keys(eng, []byte("a/*"))
	if r.Kind != reply.KindSet || len(r.Set) != 2 {
		t.Fatalf("Keys() set = %+v, want 2 entries", r.Set)
	}
	if r.Set[0].Key != "0" || r.Set[1].Key != "1" {
		t.Errorf("Keys() ordinal keys = [%q %q], want [0 1]", r.Set[0].Key, r.Set[1].Key)
	}
}
