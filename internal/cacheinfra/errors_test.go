package cacheinfra

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackendError_Unwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := &BackendError{Op: "get", Key: "k", Err: cause}

	require.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "get")
	assert.Contains(t, err.Error(), "k")
}

func TestIsBackendError(t *testing.T) {
	assert.True(t, IsBackendError(&BackendError{Op: "set", Key: "k", Err: errors.New("x")}))
	assert.True(t, IsBackendError(fmt.Errorf("wrapped: %w", &BackendError{Op: "get", Key: "k", Err: errors.New("x")})))
	assert.False(t, IsBackendError(ErrCacheMiss))
	assert.False(t, IsBackendError(nil))
}
