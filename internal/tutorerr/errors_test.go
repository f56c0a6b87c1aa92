package tutorerr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKindOfUnwrapsWrappedError(t *testing.T) {
	base := errors.New("boom")
	wrapped := Wrap(KindProviderUnavailable, "llm call failed", base)

	require.Equal(t, KindProviderUnavailable, KindOf(wrapped))
	require.True(t, errors.Is(wrapped, base))
}

func TestKindOfDefaultsToInternal(t *testing.T) {
	require.Equal(t, KindInternal, KindOf(errors.New("plain")))
}

func TestErrorIsMatchesByKindOnly(t *testing.T) {
	a := New(KindSessionBusy, "busy for session s1")
	require.True(t, errors.Is(a, ErrSessionBusy))
}
