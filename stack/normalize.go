package stack

import "strings"

const (
	panicFunction = "runtime.gopanic"
	// tracebacks print runtime.gopanic under the builtin's name
	printedPanic = "panic"
)

// normalize drops runtime-internal and generated frames, records the panics
// unwinding through the remaining ones and numbers them from the root. Both
// backends share it so their traces agree frame for frame.
func normalize(in []record) []record {
	out := make([]record, 0, len(in))
	origin, pending := -1, false
	for _, r := range in {
		if r.function == panicFunction || r.function == printedPanic {
			pending = true
			continue
		}

		if hidden(r) {
			if n := len(out); n > 0 {
				out[n-1].elided += r.elided
			}
			continue
		}

		if pending {
			origin, pending = len(out), false
		}
		r.panic = origin
		out = append(out, r)
	}

	for i := len(out) - 1; i >= 0; i-- {
		if i == len(out)-1 {
			out[i].depth = 0
			continue
		}
		out[i].depth = out[i+1].depth + 1 + out[i].elided
	}
	return out
}

// trim drops the n newest records.
func trim(records []record, n int) []record {
	if n <= 0 {
		return records
	}
	if n >= len(records) {
		return nil
	}

	out := records[n:]
	for i := range out {
		if out[i].panic >= 0 {
			out[i].panic = max(out[i].panic-n, -1)
		}
	}
	return out
}

func hidden(r record) bool {
	return r.function == "" ||
		strings.HasPrefix(r.function, "runtime.") ||
		r.file == "<autogenerated>"
}
