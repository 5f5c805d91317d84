package stack

import (
	"fmt"
	"strings"

	ferr "github.com/iocgo/frames/errors"
	run "github.com/iocgo/frames/runtime"
)

// Code identifies the routine an activation executes. Entry is zero for
// frames rebuilt from a traceback.
type Code struct {
	Function string
	File     string
	Entry    uintptr
}

// Panic describes a panic unwinding through an activation. Origin called
// panic; Handler is the frame running on top of the panic, normally a deferred
// call. Both stay set until the deferred call that recovers returns.
type Panic struct {
	Origin  *Frame
	Handler *Frame
}

// TraceFunc is a step hook registered for an activation with SetTrace.
type TraceFunc func(f *Frame, event string)

type record struct {
	function string
	file     string
	line     int
	pc       uintptr
	entry    uintptr
	offset   uintptr

	// frames the traceback left out between this record and the next older one
	elided int
	// distance from the goroutine's root activation
	depth int
	// index of the origin of the panic unwinding through this record, or -1
	panic int
}

// Trace is an immutable capture of one goroutine's stack, newest frame first.
type Trace struct {
	goroutine int64
	mode      Mode
	records   []record
}

func (t *Trace) Goroutine() int64 { return t.goroutine }

func (t *Trace) Mode() Mode { return t.mode }

func (t *Trace) Len() int { return len(t.records) }

// Frame returns the i-th frame counting from the newest, nil when out of range.
func (t *Trace) Frame(i int) *Frame {
	if t == nil || i < 0 || i >= len(t.records) {
		return nil
	}
	return &Frame{trace: t, index: i}
}

func (t *Trace) Top() *Frame { return t.Frame(0) }

// at returns the frame depth activations above the goroutine's root. Depths
// are exact across a traceback gap, so only frames inside the gap fail.
func (t *Trace) at(depth int) (*Frame, error) {
	for i := range t.records {
		r := &t.records[i]
		if r.depth == depth {
			return t.Frame(i), nil
		}
		if depth < r.depth && depth >= r.depth-r.elided {
			return nil, ferr.Elided(r.elided)
		}
	}
	return nil, ferr.OutOfRange(depth)
}

// Frame is a handle on one activation inside a Trace. The nil *Frame is the
// absent frame; all methods accept it and return zero values.
//
// The caller chain of a Frame is part of its snapshot, so walking it after the
// activation returned is safe. Locals, Trace and Alive consult the live
// goroutine and only make sense while the activation is running; Line and
// Panic follow it while it runs and keep the captured values afterwards.
type Frame struct {
	trace *Trace
	index int
}

func (f *Frame) rec() *record {
	if f == nil || f.trace == nil || f.index < 0 || f.index >= len(f.trace.records) {
		return nil
	}
	return &f.trace.records[f.index]
}

func (f *Frame) Present() bool { return f.rec() != nil }

// Caller returns the next older activation, nil at the root and where the
// traceback left the caller out (see Elided).
func (f *Frame) Caller() *Frame {
	c, _ := f.Next()
	return c
}

// Next is Caller that fails with ErrElided instead of ending the chain when
// the caller was left out of a fallback traceback.
func (f *Frame) Next() (*Frame, error) {
	r := f.rec()
	if r == nil {
		return nil, nil
	}
	if r.elided > 0 {
		return nil, ferr.Elided(r.elided)
	}
	return f.trace.Frame(f.index + 1), nil
}

// Elided is the number of activations between f and its caller missing from
// the capture. Only fallback traces of deep stacks have them.
func (f *Frame) Elided() int {
	if r := f.rec(); r != nil {
		return r.elided
	}
	return 0
}

// Back is Caller as a StackFrame.
func (f *Frame) Back() StackFrame { return f.Caller() }

func (f *Frame) Handle() *Frame { return f }

func (f *Frame) Function() string {
	if r := f.rec(); r != nil {
		return r.function
	}
	return ""
}

func (f *Frame) Package() string { return packageOf(f.Function()) }

func (f *Frame) File() string {
	if r := f.rec(); r != nil {
		return r.file
	}
	return ""
}

// Line is the line the activation is executing. Read on the owning goroutine
// while the activation runs it is current; otherwise it is the line at
// capture time.
func (f *Frame) Line() int {
	r := f.rec()
	if r == nil {
		return 0
	}
	if l := f.live(); l != nil {
		return l.rec().line
	}
	return r.line
}

func (f *Frame) PC() uintptr {
	if r := f.rec(); r != nil {
		return r.pc
	}
	return 0
}

// Offset is the program counter relative to the function entry.
func (f *Frame) Offset() uintptr {
	if r := f.rec(); r != nil {
		return r.offset
	}
	return 0
}

func (f *Frame) Code() Code {
	r := f.rec()
	if r == nil {
		return Code{}
	}
	return Code{Function: r.function, File: r.file, Entry: r.entry}
}

func (f *Frame) Depth() int {
	if r := f.rec(); r != nil {
		return r.depth
	}
	return -1
}

func (f *Frame) Goroutine() int64 {
	if f.rec() == nil {
		return 0
	}
	return f.trace.goroutine
}

func (f *Frame) Mode() Mode {
	if f.rec() == nil {
		return ModeAuto
	}
	return f.trace.mode
}

// Panic returns the panic unwinding through this activation, nil if none. Like
// Line it follows the running activation and falls back to the capture.
func (f *Frame) Panic() *Panic {
	if l := f.live(); l != nil {
		f = l
	}

	r := f.rec()
	if r == nil || r.panic < 0 {
		return nil
	}
	return &Panic{
		Origin:  f.trace.Frame(r.panic),
		Handler: f.trace.Frame(r.panic - 1),
	}
}

// Equal reports whether both frames describe the same activation.
func (f *Frame) Equal(o *Frame) bool {
	a, b := f.rec(), o.rec()
	if a == nil || b == nil {
		return a == b
	}
	return f.trace.goroutine == o.trace.goroutine && a.depth == b.depth && a.function == b.function
}

// Alive reports whether the activation is still on its goroutine's stack. It
// cannot tell a returned activation from a new call of the same function at
// the same depth.
func (f *Frame) Alive() bool {
	return f.live() != nil
}

// live recaptures the owning goroutine with the frame's backend and returns
// the same activation in the fresh trace. It is nil on other goroutines, after
// the activation returned and when the recapture left it out.
func (f *Frame) live() *Frame {
	r := f.rec()
	if r == nil || run.GetCurrentGoroutineID() != f.trace.goroutine {
		return nil
	}

	t, err := backendOf(f.trace.mode).Capture(0)
	if err != nil {
		return nil
	}

	for i := range t.records {
		fresh := &t.records[i]
		if fresh.depth > r.depth {
			continue
		}
		if fresh.depth == r.depth && fresh.function == r.function {
			return t.Frame(i)
		}
		return nil
	}
	return nil
}

func (f *Frame) String() string {
	r := f.rec()
	if r == nil {
		return "<absent frame>"
	}
	return fmt.Sprintf("%s (%s:%d)", r.function, r.file, f.Line())
}

func (f *Frame) activation() activation {
	r := f.rec()
	return activation{depth: r.depth, function: r.function}
}

// owned fails unless the calling goroutine is the frame's goroutine.
func (f *Frame) owned() error {
	if current := run.GetCurrentGoroutineID(); current != f.trace.goroutine {
		return ferr.Foreign(f.trace.goroutine, current)
	}
	return nil
}

// packageOf strips the symbol from a fully qualified function name.
func packageOf(function string) string {
	slash := strings.LastIndexByte(function, '/')
	if slash < 0 {
		slash = 0
	}
	if dot := strings.IndexByte(function[slash:], '.'); dot >= 0 {
		return function[:slash+dot]
	}
	return function
}
