package runtime

import (
	"fmt"
	"runtime"
	"sync"
)

var (
	littleBuf = sync.Pool{
		New: func() any { bytes := make([]byte, 64); return &bytes },
	}
)

// GetCurrentGoroutineID reads the id from the header of the current goroutine's
// traceback.
func GetCurrentGoroutineID() (id int64) {
	bp := littleBuf.Get().(*[]byte)
	defer littleBuf.Put(bp)

	b := *bp
	b = b[:runtime.Stack(b, false)]
	id, err := ParseGoroutineID(b)
	if err != nil {
		panic(err)
	}
	return
}

// ParseGoroutineID parses a "goroutine N [state]:" traceback header.
func ParseGoroutineID(header []byte) (id int64, err error) {
	_, err = fmt.Sscanf(string(header), "goroutine %d [", &id)
	if err == nil && id <= 0 {
		err = fmt.Errorf("invalid goroutine id %d", id)
	}
	return
}
