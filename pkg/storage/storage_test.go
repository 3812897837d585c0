package storage

import (
	"context"
	"testing"
)

func TestCollectionKey(t *testing.T) {
	if got := CollectionKey("sf", "sess-1", "cart"); got != "sf:sess-1:cart" {
		t.Fatalf("unexpected key %s", got)
	}
	if got := CollectionKey("sf", "", "cart"); got != "sf:cart" {
		t.Fatalf("empty session should be skipped, got %s", got)
	}
}

func TestMemoryLifecycle(t *testing.T) {
	ctx := context.Background()
	mem := NewMemory()

	if _, found, err := mem.Read(ctx, "missing"); err != nil || found {
		t.Fatalf("expected missing key, found=%v err=%v", found, err)
	}
	if err := mem.Write(ctx, "k", "v"); err != nil {
		t.Fatalf("write: %v", err)
	}
	value, found, err := mem.Read(ctx, "k")
	if err != nil || !found || value != "v" {
		t.Fatalf("unexpected read value=%q found=%v err=%v", value, found, err)
	}
	if err := mem.Delete(ctx, "k"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if mem.Len() != 0 {
		t.Fatalf("expected empty store, got %d", mem.Len())
	}
}
