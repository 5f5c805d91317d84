package lock

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	run "github.com/iocgo/frames/runtime"
)

// DefaultTimeout bounds Lock when it is given a nil context.
const DefaultTimeout = 10 * time.Second

// ExpireLock is a mutex whose Lock gives up when its context ends. A reentrant
// ExpireLock may be locked again by the goroutine that holds it.
type ExpireLock struct {
	// waiters plus holders
	count int64

	// -1 not reentrant, 0 reentrant and free, > 0 id of the holding goroutine
	gid,
	reentrantCount int64

	mutex sync.Mutex
}

func NewExpireLock(reentrant bool) *ExpireLock {
	var gid int64 = -1
	if reentrant {
		gid = 0
	}

	return &ExpireLock{
		gid:   gid,
		count: 0,
	}
}

// Lock blocks until the lock is held or ctx is done, and reports whether the
// lock was acquired.
func (e *ExpireLock) Lock(ctx context.Context) bool {
	if ctx == nil {
		timeout, cancel := context.WithTimeout(context.Background(), DefaultTimeout)
		defer cancel()
		ctx = timeout
	}

	atomic.AddInt64(&e.count, 1)
	for {
		select {
		case <-ctx.Done():
			atomic.AddInt64(&e.count, -1)
			return false
		default:
			if e.tryLock() {
				return true
			}
			runtime.Gosched()
		}
	}
}

func (e *ExpireLock) Unlock() {
	atomic.AddInt64(&e.count, -1)
	e.unlock()
}

func (e *ExpireLock) tryLock() (ok bool) {
	if e.gid >= 0 {
		gid := run.GetCurrentGoroutineID()
		if atomic.LoadInt64(&e.gid) == gid {
			e.reentrantCount++
			return true
		}
	}

	if ok = e.mutex.TryLock(); ok {
		if e.gid >= 0 {
			atomic.StoreInt64(&e.gid, run.GetCurrentGoroutineID())
		}
		e.reentrantCount++
	}
	return
}

func (e *ExpireLock) unlock() {
	if e.gid >= 0 {
		e.reentrantCount--
		if e.reentrantCount <= 0 {
			e.reentrantCount = 0
			atomic.StoreInt64(&e.gid, 0)
			e.mutex.Unlock()
		}
		return
	}

	e.reentrantCount--
	e.mutex.Unlock()
}

// IsIdle reports whether nobody holds or waits for the lock.
func (e *ExpireLock) IsIdle() bool {
	return atomic.LoadInt64(&e.count) < 1
}
