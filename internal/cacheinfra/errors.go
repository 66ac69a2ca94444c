package cacheinfra

import (
	"errors"
	"fmt"
)

// ErrCacheMiss is returned by backends when a key is absent or expired.
// It is a clean miss, not a failure: the gateway counts it and computes.
var ErrCacheMiss = errors.New("cacheinfra: cache miss")

// BackendError wraps a failure of the underlying key-value store, such as
// a timeout or refused connection. The gateway recovers from these locally:
// a failed read degrades to a miss, a failed write is dropped. Any other
// error kind crossing the cache boundary is a programming bug and is
// propagated instead.
type BackendError struct {
	Op  string // "get", "set", "delete", "delete_matching"
	Key string
	Err error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("cacheinfra: %s %q: %v", e.Op, e.Key, e.Err)
}

func (e *BackendError) Unwrap() error { return e.Err }

// IsBackendError reports whether err is a recoverable backend failure.
func IsBackendError(err error) bool {
	var be *BackendError
	return errors.As(err, &be)
}
