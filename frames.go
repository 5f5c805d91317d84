// Package frames gives access to the call stack of the running goroutine: the
// current frame, the chain of its callers and a search over that chain.
//
//	found, err := frames.Locate(func(f frames.StackFrame) bool {
//		_, ok := f.Locals()["request"]
//		return ok
//	})
//
// Frames come in two representations. The raw *Frame is the handle produced
// by the acquisition backend (see package stack); View is a read-only wrapper
// with convenience accessors. Both implement StackFrame.
package frames

import (
	ferr "github.com/iocgo/frames/errors"
	"github.com/iocgo/frames/stack"
)

type (
	StackFrame = stack.StackFrame
	Frame      = stack.Frame
	Code       = stack.Code
	Panic      = stack.Panic
	TraceFunc  = stack.TraceFunc
)

var (
	ErrFrame             = ferr.ErrFrame
	ErrLookup            = ferr.ErrLookup
	ErrNotFound          = ferr.ErrNotFound
	ErrOutOfRange        = ferr.ErrOutOfRange
	ErrAttributeNotFound = ferr.ErrAttributeNotFound
	ErrCapability        = ferr.ErrCapability
	ErrForeignGoroutine  = ferr.ErrForeignGoroutine
	ErrElided            = ferr.ErrElided
)

// CurrentFrame returns the frame of the function calling it.
func CurrentFrame() (View, error) {
	f, err := stack.CurrentSkip(0, 1)
	if err != nil {
		return View{}, err
	}
	return Wrap(f), nil
}

// CurrentRaw is CurrentFrame without the View.
func CurrentRaw() (*Frame, error) {
	return stack.CurrentSkip(0, 1)
}

// Bind publishes a local of the calling activation; it shows up in the
// Locals of frames describing that activation until release is called.
// Activations are told apart by depth and function only, so a binding that is
// never released is also seen by a later call of the same function at the same
// depth on the same goroutine. Always defer release.
//
//	release, err := frames.Bind("request", req)
//	if err != nil {
//		return err
//	}
//	defer release()
func Bind(name string, value any) (release func(), err error) {
	return stack.Bind(1, name, value)
}

// MustBind is Bind that panics when no frame can be acquired.
func MustBind(name string, value any) (release func()) {
	release, err := stack.Bind(1, name, value)
	if err != nil {
		panic(err)
	}
	return release
}

// SetTrace sets the step hook of the calling activation.
func SetTrace(hook TraceFunc) (release func(), err error) {
	return stack.SetTrace(1, hook)
}

// Export publishes a global of the calling function's package.
func Export(name string, value any) error {
	f, err := stack.CurrentSkip(0, 1)
	if err != nil {
		return err
	}

	stack.Export(f.Package(), name, value)
	return nil
}
