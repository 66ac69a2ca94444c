package testsupport

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/cbmdata/go-pricing-comparatif/internal/cacheinfra"
)

// FakeBackend is an in-memory cache backend for tests: a plain map with
// recorded TTLs and switchable failure injection. It satisfies the cache
// package's Backend interface.
type FakeBackend struct {
	mu      sync.Mutex
	entries map[string][]byte
	ttls    map[string]time.Duration

	// FailReads and FailWrites make the respective operations return a
	// backend error, simulating an unreachable cache.
	FailReads  bool
	FailWrites bool
}

// NewFakeBackend returns an empty fake backend.
func NewFakeBackend() *FakeBackend {
	return &FakeBackend{
		entries: make(map[string][]byte),
		ttls:    make(map[string]time.Duration),
	}
}

func (f *FakeBackend) Get(ctx context.Context, key string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FailReads {
		return nil, &cacheinfra.BackendError{Op: "get", Key: key, Err: errors.New("injected read failure")}
	}
	v, ok := f.entries[key]
	if !ok {
		return nil, cacheinfra.ErrCacheMiss
	}
	return v, nil
}

func (f *FakeBackend) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FailWrites {
		return &cacheinfra.BackendError{Op: "set", Key: key, Err: errors.New("injected write failure")}
	}
	f.entries[key] = value
	f.ttls[key] = ttl
	return nil
}

func (f *FakeBackend) Delete(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FailWrites {
		return &cacheinfra.BackendError{Op: "delete", Key: key, Err: errors.New("injected write failure")}
	}
	delete(f.entries, key)
	delete(f.ttls, key)
	return nil
}

func (f *FakeBackend) DeleteMatching(ctx context.Context, pattern string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for k := range f.entries {
		if cacheinfra.GlobMatch(pattern, k) {
			delete(f.entries, k)
			delete(f.ttls, k)
			n++
		}
	}
	return n, nil
}

// Len reports how many entries the backend holds.
func (f *FakeBackend) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.entries)
}

// TTLOf reports the TTL recorded for key, zero when absent.
func (f *FakeBackend) TTLOf(key string) time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ttls[key]
}

// Keys returns the stored keys in no particular order.
func (f *FakeBackend) Keys() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.entries))
	for k := range f.entries {
		out = append(out, k)
	}
	return out
}
