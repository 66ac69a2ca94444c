package testsupport

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cbmdata/go-pricing-comparatif/internal/cacheinfra"
)

func TestFakeBackend_RoundTrip(t *testing.T) {
	ctx := context.Background()
	fb := NewFakeBackend()

	if _, err := fb.Get(ctx, "missing"); !errors.Is(err, cacheinfra.ErrCacheMiss) {
		t.Fatalf("expected miss, got %v", err)
	}

	if err := fb.Set(ctx, "k", []byte("v"), 5*time.Minute); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	got, err := fb.Get(ctx, "k")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if string(got) != "v" {
		t.Errorf("expected v, got %q", got)
	}
	if fb.TTLOf("k") != 5*time.Minute {
		t.Errorf("ttl not recorded, got %v", fb.TTLOf("k"))
	}
}

func TestFakeBackend_DeleteMatching(t *testing.T) {
	ctx := context.Background()
	fb := NewFakeBackend()

	fb.Set(ctx, "comparatif_multi:a", []byte("1"), time.Minute)
	fb.Set(ctx, `comparatif_multi:{"refint":"A/B"}`, []byte("2"), time.Minute)
	fb.Set(ctx, "sql_cache:c", []byte("3"), time.Minute)

	n, err := fb.DeleteMatching(ctx, "comparatif_multi:*")
	if err != nil {
		t.Fatalf("delete matching failed: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 deletions (slash in key included), got %d", n)
	}
	if fb.Len() != 1 {
		t.Errorf("expected 1 remaining entry, got %d", fb.Len())
	}
}

func TestFakeBackend_FailureInjection(t *testing.T) {
	ctx := context.Background()
	fb := NewFakeBackend()
	fb.FailReads = true

	_, err := fb.Get(ctx, "k")
	if !cacheinfra.IsBackendError(err) {
		t.Fatalf("expected backend error, got %v", err)
	}

	fb.FailReads = false
	fb.FailWrites = true
	if err := fb.Set(ctx, "k", []byte("v"), time.Minute); !cacheinfra.IsBackendError(err) {
		t.Fatalf("expected backend error, got %v", err)
	}
}
