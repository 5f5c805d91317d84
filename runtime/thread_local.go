package runtime

import "sync"

// ThreadLocal is a value slot per goroutine, keyed by goroutine id.
type ThreadLocal[T any] interface {
	Load() T
	Store(T)
	Ex(init bool) bool
	Remove()
	// LoadFor reads the slot of another goroutine without initializing it.
	LoadFor(id int64) (T, bool)
}

type goroutineLocal[T any] struct {
	m    *sync.Map
	init func() T
}

func NewThreadLocal[T any](init func() T) ThreadLocal[T] {
	return &goroutineLocal[T]{
		m:    &sync.Map{},
		init: init,
	}
}

func (g goroutineLocal[T]) Load() T {
	key := GetCurrentGoroutineID()
	value, ok := g.m.Load(key)
	if !ok && g.init != nil {
		value = g.init()
		g.m.Store(key, value)
	}
	if value == nil {
		var zero T
		return zero
	}
	return value.(T)
}

func (g goroutineLocal[T]) Store(value T) {
	g.m.Store(GetCurrentGoroutineID(), value)
}

func (g goroutineLocal[T]) Ex(init bool) (ok bool) {
	_, ok = g.m.Load(GetCurrentGoroutineID())
	if !ok && init {
		g.Load()
	}
	return
}

func (g goroutineLocal[T]) Remove() {
	g.m.Delete(GetCurrentGoroutineID())
}

func (g goroutineLocal[T]) LoadFor(id int64) (t T, ok bool) {
	value, ok := g.m.Load(id)
	if !ok {
		return
	}
	return value.(T), true
}
