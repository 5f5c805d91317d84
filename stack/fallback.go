package stack

import (
	"fmt"
	"strconv"
	"strings"

	ferr "github.com/iocgo/frames/errors"
	run "github.com/iocgo/frames/runtime"
)

type fallback struct{}

func (*fallback) Mode() Mode { return ModeFallback }

// Capture rebuilds the calling goroutine's frames from its printed traceback.
// The traceback starts at run.Stack and Capture, which are dropped.
//
//go:noinline
func (*fallback) Capture(skip int) (*Trace, error) {
	if skip < 0 {
		skip = 0
	}

	gid, records, err := parseTraceback(run.Stack())
	if err != nil {
		return nil, ferr.Capability("runtime.Stack: %v", err)
	}

	return &Trace{
		goroutine: gid,
		mode:      ModeFallback,
		records:   trim(normalize(records), skip+2),
	}, nil
}

// parseTraceback reads the output of runtime.Stack for a single goroutine:
//
//	goroutine 7 [running]:
//	main.f(0x1)
//		/src/main.go:12 +0x1d
//	...3 frames elided...
//	created by main.main in goroutine 1
func parseTraceback(buf []byte) (gid int64, records []record, err error) {
	lines := strings.Split(string(buf), "\n")
	if gid, err = run.ParseGoroutineID([]byte(lines[0])); err != nil {
		return
	}

	for i := 1; i < len(lines); i++ {
		line := lines[i]
		switch {
		case strings.TrimSpace(line) == "":
			continue
		case strings.HasPrefix(line, "created by "):
			return
		case strings.HasPrefix(line, "..."):
			var n int
			if _, scanErr := fmt.Sscanf(line, "...%d frames elided...", &n); scanErr == nil && len(records) > 0 {
				records[len(records)-1].elided += n
			}
			continue
		case strings.HasPrefix(line, "\t"):
			continue
		}

		r := record{function: functionName(line), panic: -1}
		if i+1 < len(lines) && strings.HasPrefix(lines[i+1], "\t") {
			i++
			r.file, r.line, r.offset = parseLocation(lines[i][1:])
		}
		records = append(records, r)
	}

	if len(records) == 0 {
		err = fmt.Errorf("goroutine %d: traceback has no frames", gid)
	}
	return
}

// functionName cuts the argument list off a traceback function line.
func functionName(line string) string {
	if p := strings.LastIndexByte(line, '('); p > 0 {
		return line[:p]
	}
	return strings.TrimSpace(line)
}

func parseLocation(loc string) (file string, line int, offset uintptr) {
	if sp := strings.Index(loc, " +0x"); sp >= 0 {
		hex := loc[sp+4:]
		if end := strings.IndexByte(hex, ' '); end >= 0 {
			hex = hex[:end]
		}
		if v, err := strconv.ParseUint(hex, 16, 64); err == nil {
			offset = uintptr(v)
		}
		loc = loc[:sp]
	}

	c := strings.LastIndexByte(loc, ':')
	if c < 0 {
		return loc, 0, offset
	}

	num := loc[c+1:]
	if end := strings.IndexByte(num, ' '); end >= 0 {
		num = num[:end]
	}
	n, err := strconv.Atoi(num)
	if err != nil {
		return loc, 0, offset
	}
	return loc[:c], n, offset
}

func fallbackSupported() error {
	if _, _, err := parseTraceback(run.Stack()); err != nil {
		return ferr.Capability("runtime.Stack: %v", err)
	}
	return nil
}
