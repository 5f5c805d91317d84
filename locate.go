package frames

import (
	"github.com/charmbracelet/log"

	ferr "github.com/iocgo/frames/errors"
	"github.com/iocgo/frames/stack"
)

type options struct {
	root        StackFrame
	rootFunc    func() StackFrame
	includeRoot bool
	raw         bool
}

type Option func(*options)

// WithRoot starts the search from f instead of the caller of Locate. An
// absent f keeps the default.
func WithRoot(f StackFrame) Option {
	return func(o *options) { o.root = f }
}

// WithRootFunc resolves the root by calling fn when the search starts.
func WithRootFunc(fn func() StackFrame) Option {
	return func(o *options) { o.rootFunc = fn }
}

// IncludeRoot makes the root itself the first candidate.
func IncludeRoot() Option {
	return func(o *options) { o.includeRoot = true }
}

// Raw hands *Frame values to the predicate and returns one, instead of View.
func Raw() Option {
	return func(o *options) { o.raw = true }
}

// Locate walks from the root towards the goroutine's entry point and returns
// the first frame match accepts. The root defaults to the frame calling
// Locate and is skipped unless IncludeRoot is given. When the chain runs out
// Locate fails with ErrNotFound; when it reaches frames a fallback traceback
// left out before finding a match it fails with ErrElided.
func Locate(match func(StackFrame) bool, opts ...Option) (StackFrame, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	var root *stack.Frame
	switch {
	case o.rootFunc != nil:
		if f := o.rootFunc(); f != nil {
			root = f.Handle()
		}
	case o.root != nil && o.root.Present():
		root = o.root.Handle()
	default:
		f, err := stack.CurrentSkip(0, 1)
		if err != nil {
			return nil, err
		}
		root = f
	}

	var err error
	frame := root
	if !o.includeRoot {
		if frame, err = frame.Next(); err != nil {
			return nil, err
		}
	}

	scanned := 0
	for frame != nil {
		scanned++

		var candidate StackFrame = frame
		if !o.raw {
			candidate = Wrap(frame)
		}
		if match(candidate) {
			return candidate, nil
		}

		// a gap in a fallback traceback may hide the match
		if frame, err = frame.Next(); err != nil {
			log.Debug("frames: search crossed an elided traceback", "scanned", scanned, "err", err)
			return nil, err
		}
	}

	log.Debug("frames: no matching frame", "scanned", scanned)
	return nil, ferr.NotFound()
}
