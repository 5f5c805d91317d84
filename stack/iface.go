package stack

// StackFrame is what frame consumers program against. Both the raw *Frame and
// the read-only views built on top of it implement it. Present is the truth
// test: Back may return a non-nil StackFrame that is not Present.
type StackFrame interface {
	Present() bool
	Back() StackFrame
	Handle() *Frame

	Function() string
	Package() string
	File() string
	Line() int
	Code() Code
	Locals() map[string]any
	Globals() map[string]any
}

var _ StackFrame = (*Frame)(nil)
