// Package framestest swaps the process-wide frame backend for the duration of
// a test.
package framestest

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/iocgo/frames/stack"
)

// Force installs the backend for mode until tb ends. Forcing from two
// goroutines at once blocks the second until the first test finishes, so
// subtests of a forced test must not force again.
func Force(tb testing.TB, mode stack.Mode) stack.Backend {
	tb.Helper()

	b, err := stack.New(mode)
	require.NoError(tb, err)

	tb.Cleanup(stack.Swap(b))
	return b
}

// EachMode runs fn as one subtest per acquisition mode.
func EachMode(t *testing.T, fn func(t *testing.T)) {
	t.Helper()

	for _, mode := range []stack.Mode{stack.ModeNative, stack.ModeFallback} {
		t.Run(mode.String(), func(t *testing.T) {
			Force(t, mode)
			fn(t)
		})
	}
}
