package apperrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	err := New(KindQuotaExceeded, "daily budget exhausted")
	assert.Equal(t, KindQuotaExceeded, KindOf(err))

	wrapped := fmt.Errorf("importing playlist: %w", err)
	assert.Equal(t, KindQuotaExceeded, KindOf(wrapped))

	// A bare storage error never claims to be retryable or upstream
	plain := fmt.Errorf("failed to list playlists: %w", errors.New("conn refused"))
	assert.Equal(t, KindPersistenceFailure, KindOf(plain))
	assert.False(t, Retryable(plain))
}

func TestIsKind(t *testing.T) {
	err := Wrap(KindNotFound, "playlist not found", errors.New("no rows"))

	assert.True(t, IsKind(err, KindNotFound))
	assert.False(t, IsKind(err, KindForbidden))
	assert.True(t, IsKind(fmt.Errorf("ctx: %w", err), KindNotFound))
}

func TestRetryable(t *testing.T) {
	tests := []struct {
		kind      Kind
		retryable bool
	}{
		{KindQuotaExceeded, true},
		{KindTooManyRequests, true},
		{KindUpstreamFailure, true},
		{KindInvalidIdentifier, false},
		{KindForbidden, false},
		{KindContentTooShort, false},
		{KindNotFound, false},
		{KindPersistenceFailure, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			assert.Equal(t, tt.retryable, Retryable(New(tt.kind, "x")))
		})
	}
}

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(KindUpstreamFailure, "fetching playlist page", cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "connection refused")
	assert.Contains(t, err.Error(), "fetching playlist page")
}
