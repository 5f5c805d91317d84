package stack

import (
	"runtime"

	ferr "github.com/iocgo/frames/errors"
	run "github.com/iocgo/frames/runtime"
)

type native struct{}

func (*native) Mode() Mode { return ModeNative }

// Capture walks the program counters of the calling goroutine.
//
//go:noinline
func (*native) Capture(skip int) (*Trace, error) {
	if skip < 0 {
		skip = 0
	}

	pcs := run.Callers(skip + 1)
	if len(pcs) == 0 {
		return nil, ferr.Capability("runtime.Callers returned no frames")
	}

	frames := runtime.CallersFrames(pcs)
	records := make([]record, 0, len(pcs))
	for {
		f, more := frames.Next()
		records = append(records, record{
			function: f.Function,
			file:     f.File,
			line:     f.Line,
			pc:       f.PC,
			entry:    f.Entry,
			offset:   offsetOf(f),
		})
		if !more {
			break
		}
	}

	return &Trace{
		goroutine: run.GetCurrentGoroutineID(),
		mode:      ModeNative,
		records:   normalize(records),
	}, nil
}

func offsetOf(f runtime.Frame) uintptr {
	if f.Entry == 0 || f.PC < f.Entry {
		return 0
	}
	return f.PC - f.Entry
}

func nativeSupported() error {
	pcs := run.Callers(0)
	if len(pcs) == 0 {
		return ferr.Capability("runtime.Callers returned no frames")
	}

	if f, _ := runtime.CallersFrames(pcs).Next(); f.Function == "" {
		return ferr.Capability("runtime.CallersFrames resolved no symbols")
	}
	return nil
}
