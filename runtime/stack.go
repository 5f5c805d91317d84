package runtime

import (
	"runtime"
)

const initialDepth = 32

// Callers returns the program counters of the calling goroutine. skip 0 is the
// caller of Callers. The buffer grows until the whole stack fits.
func Callers(skip int) []uintptr {
	if skip < 0 {
		skip = 0
	}

	pcv := make([]uintptr, initialDepth)
	for {
		// 0 is runtime.Callers, 1 is us
		n := runtime.Callers(skip+2, pcv)
		if n < len(pcv) {
			return pcv[:n]
		}
		pcv = make([]uintptr, 2*len(pcv))
	}
}

// Stack returns the formatted traceback of the calling goroutine, growing the
// buffer until runtime.Stack no longer truncates it.
func Stack() []byte {
	buf := make([]byte, 4096)
	for {
		n := runtime.Stack(buf, false)
		if n < len(buf) {
			return buf[:n]
		}
		buf = make([]byte, 2*len(buf))
	}
}
