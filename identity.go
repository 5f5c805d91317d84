package frames

import (
	"fmt"

	"github.com/iocgo/frames/stack"
)

// IsStackFrame reports whether x is one of the frame representations. It
// checks the type only: the zero View and a nil *Frame are stack frames too.
func IsStackFrame(x any) bool {
	switch x.(type) {
	case *stack.Frame, View, *View:
		return true
	}
	return false
}

func AsStackFrame(x any) (StackFrame, error) {
	switch f := x.(type) {
	case *stack.Frame:
		return f, nil
	case View:
		return f, nil
	case *View:
		if f != nil {
			return *f, nil
		}
	}
	return nil, fmt.Errorf("not a stack frame: %T", x)
}

// As converts f to the representation T, *Frame or View.
func As[T StackFrame](f StackFrame) (T, error) {
	var zero T
	if f == nil {
		return zero, fmt.Errorf("not T: %s", tn[T]())
	}

	var out StackFrame
	switch any(zero).(type) {
	case *stack.Frame:
		out = f.Handle()
	case View:
		if v, ok := f.(View); ok {
			out = v
		} else {
			out = Wrap(f.Handle())
		}
	default:
		out = f
	}

	t, ok := out.(T)
	if !ok {
		return zero, fmt.Errorf("not T: %s", tn[T]())
	}
	return t, nil
}

func tn[T any]() string {
	var t T

	// struct
	name := fmt.Sprintf("%T", t)
	if name != "<nil>" {
		return name
	}

	// interface
	return fmt.Sprintf("%T", new(T))
}
