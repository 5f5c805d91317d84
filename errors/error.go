package errors

import (
	"errors"
	"fmt"
)

type Kind uint8

const (
	KindNotFound Kind = iota + 1
	KindOutOfRange
	KindAttribute
	KindCapability
	KindForeign
	KindElided
)

var (
	// ErrFrame is matched by every error this module produces.
	ErrFrame = errors.New("frame error")

	// ErrLookup is matched by the "nothing there" errors: a failed locate and a
	// missing view attribute.
	ErrLookup = errors.New("lookup failed")

	ErrNotFound          = &Error{Kind: KindNotFound}
	ErrOutOfRange        = &Error{Kind: KindOutOfRange}
	ErrAttributeNotFound = &Error{Kind: KindAttribute}
	ErrCapability        = &Error{Kind: KindCapability}
	ErrForeignGoroutine  = &Error{Kind: KindForeign}
	ErrElided            = &Error{Kind: KindElided}
)

type Error struct {
	Kind Kind
	// Attr names the missing attribute for KindAttribute.
	Attr string
	msg  string
}

func (e *Error) Error() string {
	if e.msg != "" {
		return e.msg
	}

	switch e.Kind {
	case KindNotFound:
		return "No matching frame found"
	case KindOutOfRange:
		return "call stack is not deep enough"
	case KindAttribute:
		if e.Attr != "" {
			return fmt.Sprintf("frame has no attribute %q", e.Attr)
		}
		return "frame has no such attribute"
	case KindCapability:
		return "no frame acquisition capability on this runtime"
	case KindForeign:
		return "frame belongs to another goroutine"
	case KindElided:
		return "frame was left out of the traceback"
	}
	return ErrFrame.Error()
}

// Is makes every *Error match ErrFrame, lookup kinds match ErrLookup and two
// *Error values match when their kinds agree.
func (e *Error) Is(target error) bool {
	if target == ErrFrame {
		return true
	}

	if target == ErrLookup {
		return e.Kind == KindNotFound || e.Kind == KindAttribute
	}

	if t, ok := target.(*Error); ok {
		return t.Kind == e.Kind
	}
	return false
}

func NotFound() error {
	return &Error{Kind: KindNotFound}
}

func OutOfRange(level int) error {
	return &Error{Kind: KindOutOfRange, msg: fmt.Sprintf("call stack is not deep enough for level %d", level)}
}

func Attribute(name string) error {
	return &Error{Kind: KindAttribute, Attr: name}
}

func Capability(format string, args ...any) error {
	return &Error{Kind: KindCapability, msg: "frame capability: " + fmt.Sprintf(format, args...)}
}

func Foreign(owner, current int64) error {
	return &Error{Kind: KindForeign, msg: fmt.Sprintf("frame belongs to goroutine %d, read from goroutine %d", owner, current)}
}

// Elided reports missing frames the printed traceback left out of a deep stack.
func Elided(missing int) error {
	return &Error{Kind: KindElided, msg: fmt.Sprintf("traceback elided %d frames on this path", missing)}
}
