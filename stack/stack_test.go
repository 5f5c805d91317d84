package stack

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ferr "github.com/iocgo/frames/errors"
)

func backends(t *testing.T) map[string]Backend {
	t.Helper()

	out := make(map[string]Backend)
	for _, mode := range []Mode{ModeNative, ModeFallback} {
		b, err := New(mode)
		require.NoError(t, err)
		require.Equal(t, mode, b.Mode())
		out[mode.String()] = b
	}
	return out
}

//go:noinline
func outer(b Backend, level int) (*Frame, error) {
	return inner(b, level)
}

//go:noinline
func inner(b Backend, level int) (*Frame, error) {
	return CurrentWith(b, level)
}

func TestCurrentLevels(t *testing.T) {
	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			for level, want := range []string{".inner", ".outer", ".TestCurrentLevels.func1"} {
				f, err := outer(b, level)
				require.NoError(t, err)
				assert.True(t, strings.HasSuffix(f.Function(), want), "level %d: %s", level, f.Function())
				assert.Equal(t, b.Mode(), f.Mode())
			}

			f, err := outer(b, -5)
			require.NoError(t, err)
			assert.True(t, strings.HasSuffix(f.Function(), ".inner"))

			_, err = outer(b, 100000)
			assert.ErrorIs(t, err, ferr.ErrOutOfRange)
			assert.ErrorIs(t, err, ferr.ErrFrame)
		})
	}
}

func TestBackendsAgree(t *testing.T) {
	var traces [][]string
	for _, mode := range []Mode{ModeNative, ModeFallback} {
		b, err := New(mode)
		require.NoError(t, err)

		f, err := outer(b, 0)
		require.NoError(t, err)

		var trace []string
		for ; f != nil; f = f.Caller() {
			trace = append(trace, fmt.Sprintf("%s@%d", f, f.Depth()))
		}
		traces = append(traces, trace)
	}

	require.Len(t, traces, 2)
	assert.Equal(t, traces[0], traces[1])
}

func TestCurrentIsIdempotent(t *testing.T) {
	var got []*Frame
	for i := 0; i < 2; i++ {
		f, err := Current(0)
		require.NoError(t, err)
		got = append(got, f)
	}

	assert.NotSame(t, got[0], got[1])
	assert.True(t, got[0].Equal(got[1]))
	assert.True(t, strings.HasSuffix(got[0].Function(), ".TestCurrentIsIdempotent"))
}

func TestAbsentFrame(t *testing.T) {
	var f *Frame
	assert.False(t, f.Present())
	assert.Nil(t, f.Caller())
	assert.Empty(t, f.Function())
	assert.Zero(t, f.Line())
	assert.Nil(t, f.Locals())
	assert.Nil(t, f.Globals())
	assert.Nil(t, f.Panic())
	assert.False(t, f.Alive())
	assert.Equal(t, "<absent frame>", f.String())
	assert.True(t, f.Equal(nil))

	_, err := f.Lookup("x")
	assert.ErrorIs(t, err, ferr.ErrAttributeNotFound)
}

//go:noinline
func boom() {
	panic("boom")
}

func TestPanicUnwinding(t *testing.T) {
	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			var handler *Frame
			func() {
				defer func() {
					handler, _ = CurrentWith(b, 0)
					recover()
				}()
				boom()
			}()

			require.NotNil(t, handler)
			assert.Nil(t, handler.Panic())

			origin := handler.Caller()
			assert.True(t, strings.HasSuffix(origin.Function(), ".boom"), origin.Function())

			p := origin.Panic()
			require.NotNil(t, p)
			assert.True(t, p.Origin.Equal(origin))
			assert.True(t, p.Handler.Equal(handler))

			f, err := CurrentWith(b, 0)
			require.NoError(t, err)
			assert.Nil(t, f.Panic())
		})
	}
}

func TestBindLocals(t *testing.T) {
	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			restore := Swap(b)
			defer restore()

			release, err := Bind(0, "apples", "yep")
			require.NoError(t, err)

			f, err := Current(0)
			require.NoError(t, err)
			assert.Equal(t, map[string]any{"apples": "yep"}, f.Locals())

			value, err := f.Lookup("apples")
			require.NoError(t, err)
			assert.Equal(t, "yep", value)

			_, err = f.Lookup("pears")
			assert.ErrorIs(t, err, ferr.ErrAttributeNotFound)

			// callers do not see it
			assert.Empty(t, f.Caller().Locals())

			release()
			release()
			assert.Empty(t, f.Locals())
			assert.NotNil(t, f.Locals())
		})
	}
}

func TestRebindKeepsNewest(t *testing.T) {
	first, err := Bind(0, "n", 1)
	require.NoError(t, err)
	second, err := Bind(0, "n", 2)
	require.NoError(t, err)
	defer second()

	first()
	f, err := Current(0)
	require.NoError(t, err)
	assert.Equal(t, 2, f.Locals()["n"])
}

func TestForeignGoroutine(t *testing.T) {
	f, err := Current(0)
	require.NoError(t, err)

	errs := make(chan error, 1)
	go func() {
		_, err := f.Bindings()
		errs <- err
	}()

	err = <-errs
	assert.ErrorIs(t, err, ferr.ErrForeignGoroutine)
}

func TestSetTrace(t *testing.T) {
	var events []string
	release, err := SetTrace(0, func(f *Frame, event string) {
		events = append(events, event)
	})
	require.NoError(t, err)

	f, err := Current(0)
	require.NoError(t, err)
	hook := f.Trace()
	require.NotNil(t, hook)
	hook(f, "line")
	assert.Equal(t, []string{"line"}, events)
	assert.Nil(t, f.Caller().Trace())

	release()
	assert.Nil(t, f.Trace())
}

func TestGlobals(t *testing.T) {
	Export("github.com/iocgo/frames/stack", "answer", 42)

	f, err := Current(0)
	require.NoError(t, err)
	assert.Equal(t, "github.com/iocgo/frames/stack", f.Package())
	assert.Equal(t, 42, f.Globals()["answer"])

	// copies
	f.Globals()["answer"] = 0
	assert.Equal(t, 42, f.Globals()["answer"])
}

//go:noinline
func returned() *Frame {
	f, _ := Current(0)
	return f
}

func TestAlive(t *testing.T) {
	f, err := Current(0)
	require.NoError(t, err)
	assert.True(t, f.Alive())

	gone := returned()
	require.NotNil(t, gone)
	assert.False(t, gone.Alive())
	// the snapshot stays walkable
	assert.True(t, gone.Caller().Equal(f))
}

func TestSwapRestores(t *testing.T) {
	before := Active()

	fb, err := New(ModeFallback)
	require.NoError(t, err)

	restore := Swap(fb)
	assert.Equal(t, ModeFallback, Active().Mode())

	nb, err := New(ModeNative)
	require.NoError(t, err)
	nested := Swap(nb)
	assert.Equal(t, ModeNative, Active().Mode())
	nested()

	assert.Equal(t, ModeFallback, Active().Mode())
	restore()
	assert.Same(t, before, Active())
}

func TestDetectAndParseMode(t *testing.T) {
	mode, err := Detect()
	require.NoError(t, err)
	assert.Equal(t, ModeNative, mode)

	b, err := New(ModeAuto)
	require.NoError(t, err)
	assert.Equal(t, ModeNative, b.Mode())

	for in, want := range map[string]Mode{"": ModeAuto, "Auto": ModeAuto, "native": ModeNative, " fallback ": ModeFallback} {
		got, err := ParseMode(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err = ParseMode("exception")
	assert.Error(t, err)
	assert.Equal(t, "Mode(9)", Mode(9).String())
}

func TestCapabilityErrors(t *testing.T) {
	_, err := New(Mode(9))
	assert.ErrorIs(t, err, ferr.ErrCapability)
	assert.ErrorIs(t, err, ferr.ErrFrame)

	b := &broken{err: ferr.Capability("no traceback")}
	_, err = CurrentWith(b, 0)
	assert.ErrorIs(t, err, ferr.ErrCapability)

	restore := Swap(b)
	_, err = Current(0)
	restore()
	assert.ErrorIs(t, err, ferr.ErrCapability)

	_, err = Current(0)
	assert.NoError(t, err)
}

//go:noinline
func recurse(n int, fn func()) {
	if n == 0 {
		fn()
		return
	}
	recurse(n-1, fn)
}

func TestDeepStackBackendsAgree(t *testing.T) {
	bs := backends(t)

	recurse(200, func() {
		// levels near the top and near the root are printed by the fallback
		// traceback, the middle of a 200 frame recursion is elided
		for _, level := range []int{0, 10, 30, 60, 120, 190} {
			nf, err := CurrentWith(bs["native"], level)
			require.NoError(t, err, "level %d", level)

			ff, err := CurrentWith(bs["fallback"], level)
			switch level {
			case 60, 120:
				assert.ErrorIs(t, err, ferr.ErrElided, "level %d", level)
				assert.Nil(t, ff)
			default:
				require.NoError(t, err, "level %d", level)
				assert.True(t, nf.Equal(ff), "level %d native=%s@%d fallback=%s@%d",
					level, nf, nf.Depth(), ff, ff.Depth())
			}
		}

		_, err := CurrentWith(bs["fallback"], 10_000)
		assert.ErrorIs(t, err, ferr.ErrOutOfRange)
	})
}

func TestDeepStackChainStopsAtGap(t *testing.T) {
	recurse(200, func() {
		nf, err := CurrentWith(&native{}, 0)
		require.NoError(t, err)
		ff, err := CurrentWith(&fallback{}, 0)
		require.NoError(t, err)

		var walked int
		f := ff
		for ; f.Elided() == 0; f = f.Caller() {
			require.NotNil(t, f)
			walked++
		}
		assert.Nil(t, f.Caller())
		_, err = f.Next()
		assert.ErrorIs(t, err, ferr.ErrElided)

		// every frame walked before the gap matches the native chain
		for n := nf; walked > 0; walked-- {
			require.NotNil(t, n)
			assert.Equal(t, n.Function(), ff.Function())
			assert.Equal(t, n.Depth(), ff.Depth())
			n, ff = n.Caller(), ff.Caller()
		}
	})
}

func TestLineAndPanicFollowActivation(t *testing.T) {
	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			var f *Frame
			var captured, before, during int
			var unwinding *Panic
			func() {
				f, _ = CurrentWith(b, 0)
				captured = f.Line()
				before = f.Line()
				defer func() {
					unwinding = f.Panic()
					during = f.Line()
					recover()
				}()
				boom()
			}()

			assert.Equal(t, captured+1, before)
			assert.Greater(t, during, before)

			require.NotNil(t, unwinding)
			assert.True(t, strings.HasSuffix(unwinding.Origin.Function(), ".boom"), unwinding.Origin.Function())
			assert.Contains(t, unwinding.Handler.Function(), "TestLineAndPanicFollowActivation")

			// returned: back to the capture
			assert.Nil(t, f.Panic())
			assert.Equal(t, captured-1, f.Line())
		})
	}
}

func TestSwapGivesUp(t *testing.T) {
	restore := Swap(&native{})
	defer restore()

	swapTimeout = 20 * time.Millisecond
	defer func() { swapTimeout = time.Minute }()

	done := make(chan any, 1)
	go func() {
		defer func() { done <- recover() }()
		Swap(&fallback{})()
	}()

	p := <-done
	require.NotNil(t, p)
	assert.Contains(t, fmt.Sprint(p), "backend swap held by another goroutine")
	assert.Equal(t, ModeNative, Active().Mode())
}

//go:noinline
func bindOnce(release bool) map[string]any {
	f, _ := Current(0)
	seen := f.Locals()

	done, _ := Bind(0, "call", true)
	if release {
		done()
	}
	return seen
}

func TestReleasedBindingDoesNotReachNextCall(t *testing.T) {
	assert.Empty(t, bindOnce(true))
	assert.Empty(t, bindOnce(true))

	// same function at the same depth: an unreleased binding is inherited
	assert.Empty(t, bindOnce(false))
	assert.Equal(t, map[string]any{"call": true}, bindOnce(true))
	assert.Empty(t, bindOnce(true))
}
