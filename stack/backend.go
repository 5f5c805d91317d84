package stack

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"

	"github.com/iocgo/frames/env"
	ferr "github.com/iocgo/frames/errors"
	"github.com/iocgo/frames/lock"
)

// Backend acquires the frames of the calling goroutine. Capture(0) returns a
// trace whose top frame is the caller of Capture; skip drops more frames.
type Backend interface {
	Mode() Mode
	Capture(skip int) (*Trace, error)
}

type cell struct {
	backend Backend
}

// broken is installed when no capability was found at start; every capture
// reports the same error.
type broken struct {
	err error
}

func (b *broken) Mode() Mode { return ModeAuto }

func (b *broken) Capture(int) (*Trace, error) { return nil, b.err }

var (
	active   atomic.Pointer[cell]
	initOnce sync.Once
	swapLock = lock.NewExpireLock(true)

	// swapTimeout bounds how long Swap waits for another goroutine's swap.
	swapTimeout = time.Minute
)

// backendOf returns the backend that produced traces of mode, without
// probing the runtime again.
func backendOf(mode Mode) Backend {
	if mode == ModeFallback {
		return &fallback{}
	}
	return &native{}
}

// New returns the backend for mode. ModeAuto detects the best one; an
// explicit mode fails with a capability error when the runtime lacks it.
func New(mode Mode) (Backend, error) {
	switch mode {
	case ModeAuto:
		detected, err := Detect()
		if err != nil {
			return nil, err
		}
		return New(detected)
	case ModeNative:
		if err := nativeSupported(); err != nil {
			return nil, err
		}
		return &native{}, nil
	case ModeFallback:
		if err := fallbackSupported(); err != nil {
			return nil, err
		}
		return &fallback{}, nil
	}
	return nil, ferr.Capability("unknown mode %s", mode)
}

// Detect reports the fastest acquisition mode this runtime supports.
func Detect() (Mode, error) {
	nativeErr := nativeSupported()
	if nativeErr == nil {
		return ModeNative, nil
	}

	if err := fallbackSupported(); err != nil {
		return ModeAuto, ferr.Capability("native: %v; fallback: %v", nativeErr, err)
	}
	return ModeFallback, nil
}

func initDefault() {
	mode := ModeAuto
	if e, err := env.New(); err != nil {
		log.Warn("frames: reading configuration", "err", err)
	} else if mode, err = ParseMode(e.Backend()); err != nil {
		log.Warn("frames: ignoring configured backend", "err", err)
		mode = ModeAuto
	}

	b, err := New(mode)
	if err != nil {
		log.Error("frames: no usable frame backend", "mode", mode, "err", err)
		b = &broken{err: err}
	} else {
		log.Debug("frames: backend selected", "requested", mode, "mode", b.Mode())
	}
	active.Store(&cell{backend: b})
}

// Active returns the process-wide backend, choosing it from the configuration
// on first use.
func Active() Backend {
	initOnce.Do(initDefault)
	return active.Load().backend
}

// Configure replaces the process-wide backend.
func Configure(b Backend) {
	if b == nil {
		panic("frames: nil backend")
	}
	initOnce.Do(func() {})
	active.Store(&cell{backend: b})
}

// Swap installs b until restore is called. Swaps are serialized: a second
// goroutine waits until the first restores, while the holding goroutine may
// nest swaps. Swap panics when the wait exceeds a minute.
func Swap(b Backend) (restore func()) {
	if b == nil {
		panic("frames: nil backend")
	}

	Active()
	ctx, cancel := context.WithTimeout(context.Background(), swapTimeout)
	defer cancel()
	if !swapLock.Lock(ctx) {
		panic(fmt.Sprintf("frames: backend swap held by another goroutine for more than %s", swapTimeout))
	}
	prev := active.Swap(&cell{backend: b})

	var once sync.Once
	return func() {
		once.Do(func() {
			active.Store(prev)
			swapLock.Unlock()
		})
	}
}
