package frames

import (
	"maps"

	ferr "github.com/iocgo/frames/errors"
	"github.com/iocgo/frames/stack"
)

// View is an immutable wrapper around a *Frame. The caller link, code and
// globals are copied when the view is made; locals, line, trace and panic are
// read from the handle on every call.
//
// The zero View wraps the absent frame: Present reports false, accessors
// return zero values and Field fails for every name.
type View struct {
	frame   *stack.Frame
	back    *stack.Frame
	code    stack.Code
	globals map[string]any
}

var _ StackFrame = View{}

// Wrap never fails; wrapping nil gives the zero View.
func Wrap(f *stack.Frame) View {
	if !f.Present() {
		return View{}
	}

	return View{
		frame:   f,
		back:    f.Caller(),
		code:    f.Code(),
		globals: f.Globals(),
	}
}

func (v View) Present() bool { return v.frame.Present() }

func (v View) Handle() *stack.Frame { return v.frame }

// Caller wraps the caller captured at wrap time.
func (v View) Caller() View { return Wrap(v.back) }

func (v View) Back() StackFrame { return v.Caller() }

func (v View) Code() stack.Code { return v.code }

func (v View) Function() string { return v.code.Function }

func (v View) File() string { return v.code.File }

func (v View) Package() string { return v.frame.Package() }

func (v View) Globals() map[string]any { return maps.Clone(v.globals) }

func (v View) Locals() map[string]any { return v.frame.Locals() }

// Line is the line number the runtime reports, re-read from the running
// activation on every call.
func (v View) Line() int { return v.frame.Line() }

// Lineno is Line minus one, the last line completed before the frame's
// current position.
func (v View) Lineno() int {
	if !v.Present() {
		return 0
	}
	return v.frame.Line() - 1
}

// LastInstruction is the program counter offset from the function entry.
func (v View) LastInstruction() uintptr { return v.frame.Offset() }

func (v View) Trace() stack.TraceFunc { return v.frame.Trace() }

// Panic is re-read like Line, so a View taken before a panic reports it while
// the panic unwinds through the activation.
func (v View) Panic() *stack.Panic { return v.frame.Panic() }

func (v View) Goroutine() int64 { return v.frame.Goroutine() }

func (v View) Depth() int { return v.frame.Depth() }

func (v View) String() string { return v.frame.String() }

// Field reads an attribute by name. Unknown names, and every name on the zero
// View, fail with ErrAttributeNotFound naming the attribute.
func (v View) Field(name string) (any, error) {
	if !v.Present() {
		return nil, ferr.Attribute(name)
	}

	switch name {
	case "back", "caller":
		return v.back, nil
	case "code":
		return v.code, nil
	case "function":
		return v.code.Function, nil
	case "file":
		return v.code.File, nil
	case "entry":
		return v.code.Entry, nil
	case "package":
		return v.Package(), nil
	case "globals":
		return v.Globals(), nil
	case "locals":
		return v.frame.Bindings()
	case "line":
		return v.Line(), nil
	case "lineno":
		return v.Lineno(), nil
	case "last_instruction", "offset":
		return v.LastInstruction(), nil
	case "pc":
		return v.frame.PC(), nil
	case "goroutine":
		return v.Goroutine(), nil
	case "depth":
		return v.Depth(), nil
	case "mode":
		return v.frame.Mode(), nil
	case "trace":
		return v.Trace(), nil
	case "panic":
		return v.Panic(), nil
	case "panic_origin", "panic_handler":
		p := v.Panic()
		if p == nil {
			return (*stack.Frame)(nil), nil
		}
		if name == "panic_origin" {
			return p.Origin, nil
		}
		return p.Handler, nil
	}

	return handleField(v.frame, name)
}

// handleField resolves the handle's own method names, so anything a *Frame
// answers can be read through a View by name.
func handleField(f *stack.Frame, name string) (any, error) {
	switch name {
	case "Caller":
		return f.Caller(), nil
	case "Code":
		return f.Code(), nil
	case "Function":
		return f.Function(), nil
	case "Package":
		return f.Package(), nil
	case "File":
		return f.File(), nil
	case "Globals":
		return f.Globals(), nil
	case "Locals":
		return f.Bindings()
	case "Line":
		return f.Line(), nil
	case "Offset":
		return f.Offset(), nil
	case "PC":
		return f.PC(), nil
	case "Depth":
		return f.Depth(), nil
	case "Goroutine":
		return f.Goroutine(), nil
	case "Mode":
		return f.Mode(), nil
	case "Panic":
		return f.Panic(), nil
	case "Trace":
		return f.Trace(), nil
	case "Elided":
		return f.Elided(), nil
	case "Alive":
		return f.Alive(), nil
	}
	return nil, ferr.Attribute(name)
}
