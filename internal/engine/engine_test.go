package engine

import (
	"testing"

	"github.com/gibsoncached/gibsoncached/internal/config"
	"github.com/gibsoncached/gibsoncached/internal/item"
	"github.com/gibsoncached/gibsoncached/internal/query"
)

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.MaxMemory = "1MB"
	return cfg
}

func TestNewImplementsQueryEngine(t *testing.T) {
	var _ query.Engine = New(testConfig())
}

func TestLimitsMirrorConfig(t *testing.T) {
	cfg := testConfig()
	e := New(cfg)
	lim := e.Limits()

	if lim.MaxKeySize != cfg.MaxKeySize {
		t.Errorf("Limits().MaxKeySize = %d, want %d", lim.MaxKeySize, cfg.MaxKeySize)
	}
	if lim.MaxValueSize != cfg.MaxValueSize {
		t.Errorf("Limits().MaxValueSize = %d, want %d", lim.MaxValueSize, cfg.MaxValueSize)
	}
	if lim.MaxMem != 1024*1024 {
		t.Errorf("Limits().MaxMem = %d, want 1MB in bytes", lim.MaxMem)
	}
}

func TestCreateAndDestroyRoundTripMemory(t *testing.T) {
	e := New(testConfig())

	it := e.NewItem()
	it.Encoding = item.Plain
	it.Buf = []byte("hello")
	it.Size = len(it.Buf)
	e.Create(it, false, 0)

	if e.MemUsed() != 5 {
		t.Fatalf("MemUsed() after Create = %d, want 5", e.MemUsed())
	}

	e.Destroy(it)
	if e.MemUsed() != 0 {
		t.Errorf("MemUsed() after Destroy = %d, want 0", e.MemUsed())
	}
}

func TestCompressDecompressRoundTrip(t *testing.T) {
	e := New(testConfig())
	original := make([]byte, 500)
	for i := range original {
		original[i] = 'x'
	}

	compressed, ok := e.Compress(original)
	if !ok {
		t.Fatal("Compress() reported failure for a highly compressible input")
	}

	got, err := e.Decompress(compressed)
	if err != nil {
		t.Fatalf("Decompress() error = %v", err)
	}
	if string(got) != string(original) {
		t.Error("decompressed output does not match original")
	}
}

func TestStatsSnapshotReflectsCreatedItems(t *testing.T) {
	e := New(testConfig())
	it := e.NewItem()
	it.Encoding = item.Plain
	it.Buf = []byte("v")
	it.Size = 1
	e.Store().Insert([]byte("k"), it)
	e.Create(it, false, 0)

	pairs := e.StatsSnapshot()
	found := false
	for _, p := range pairs {
		if p.Key == "total_items" {
			found = true
			if p.Value != "1" {
				t.Errorf("total_items = %q, want %q", p.Value, "1")
			}
		}
	}
	if !found {
		t.Error("StatsSnapshot() missing total_items label")
	}
}

func TestIncRequestsConnectionsAndDecClients(t *testing.T) {
	e := New(testConfig())
	e.IncConnections()
	e.IncRequests()
	e.IncRequests()
	e.DecClients()

	pairs := e.StatsSnapshot()
	for _, p := range pairs {
		switch p.Key {
		case "total_connections":
			if p.Value != "1" {
				t.Errorf("total_connections = %q, want 1", p.Value)
			}
		case "total_requests":
			if p.Value != "2" {
				t.Errorf("total_requests = %q, want 2", p.Value)
			}
		}
	}
}

func TestLockUnlockSerializesAccess(t *testing.T) {
	e := New(testConfig())
	e.Lock()
	done := make(chan struct{})
	go func() {
		e.Lock()
		e.Unlock()
		close(done)
	}()
	e.Unlock()
	<-done
}
