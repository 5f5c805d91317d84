package stack

import (
	ferr "github.com/iocgo/frames/errors"
)

// Current returns the activation level callers above the caller of Current.
// Negative levels count as 0. It fails with an out of range error when the
// stack is not that deep, and with ErrElided when a fallback traceback left
// that activation out.
func Current(level int) (*Frame, error) {
	return acquire(Active(), level, 1)
}

// CurrentSkip is Current for wrappers that add skip frames of their own
// between the interesting caller and CurrentSkip.
func CurrentSkip(level, skip int) (*Frame, error) {
	if skip < 0 {
		skip = 0
	}
	return acquire(Active(), level, skip+1)
}

// CurrentWith is Current on an explicit backend.
func CurrentWith(b Backend, level int) (*Frame, error) {
	return acquire(b, level, 1)
}

func acquire(b Backend, level, wrappers int) (*Frame, error) {
	if level < 0 {
		level = 0
	}

	t, err := b.Capture(0)
	if err != nil {
		return nil, err
	}

	// the first frame is acquire itself
	top := t.Top()
	if top == nil {
		return nil, ferr.OutOfRange(level)
	}

	target := top.Depth() - (level + 1 + wrappers)
	if target < 0 {
		return nil, ferr.OutOfRange(level)
	}
	return t.at(target)
}
