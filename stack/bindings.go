package stack

import (
	"maps"
	"sync"

	ferr "github.com/iocgo/frames/errors"
	run "github.com/iocgo/frames/runtime"
)

type activation struct {
	depth    int
	function string
}

type binding struct {
	value any
	gen   uint64
}

type scope struct {
	locals    map[string]binding
	trace     TraceFunc
	traceGen  uint64
	generator uint64
}

func (s *scope) next() uint64 {
	s.generator++
	return s.generator
}

func (s *scope) empty() bool {
	return len(s.locals) == 0 && s.trace == nil
}

// scopes holds the bindings of every activation of one goroutine.
type scopes struct {
	sync.Mutex
	m map[activation]*scope
}

var (
	registry = run.NewThreadLocal[*scopes](func() *scopes {
		return &scopes{m: make(map[activation]*scope)}
	})

	globals = struct {
		sync.RWMutex
		m map[string]map[string]any
	}{m: make(map[string]map[string]any)}
)

// Bind publishes name as a local of the activation skip frames above the
// caller of Bind. The binding lives until release is called, which callers
// normally defer. The registry keys activations by depth and function, so an
// unreleased binding leaks into the next call of that function at that depth.
func Bind(skip int, name string, value any) (release func(), err error) {
	if skip < 0 {
		skip = 0
	}

	f, err := acquire(Active(), 0, skip+1)
	if err != nil {
		return nil, err
	}

	var gen uint64
	return attach(f, func(s *scope) {
		gen = s.next()
		if s.locals == nil {
			s.locals = make(map[string]binding)
		}
		s.locals[name] = binding{value: value, gen: gen}
	}, func(s *scope) {
		if b, ok := s.locals[name]; ok && b.gen == gen {
			delete(s.locals, name)
		}
	}), nil
}

// SetTrace registers hook as the trace function of the activation skip frames
// above the caller of SetTrace until release is called.
func SetTrace(skip int, hook TraceFunc) (release func(), err error) {
	if skip < 0 {
		skip = 0
	}

	f, err := acquire(Active(), 0, skip+1)
	if err != nil {
		return nil, err
	}

	var gen uint64
	return attach(f, func(s *scope) {
		gen = s.next()
		s.trace, s.traceGen = hook, gen
	}, func(s *scope) {
		if s.traceGen == gen {
			s.trace = nil
		}
	}), nil
}

func attach(f *Frame, set, unset func(*scope)) func() {
	key := f.activation()
	owner := f.trace.goroutine

	ss := registry.Load()
	ss.Lock()
	s, ok := ss.m[key]
	if !ok {
		s = &scope{}
		ss.m[key] = s
	}
	set(s)
	ss.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			ss.Lock()
			if s, ok := ss.m[key]; ok {
				unset(s)
				if s.empty() {
					delete(ss.m, key)
				}
			}
			empty := len(ss.m) == 0
			ss.Unlock()

			if empty && run.GetCurrentGoroutineID() == owner {
				registry.Remove()
			}
		})
	}
}

func (f *Frame) scope(fn func(*scope)) {
	ss, ok := registry.LoadFor(f.trace.goroutine)
	if !ok {
		return
	}

	ss.Lock()
	defer ss.Unlock()
	if s, ok := ss.m[f.activation()]; ok {
		fn(s)
	}
}

// Locals returns the bindings the activation currently publishes. It is nil
// for the absent frame and when called from another goroutine.
func (f *Frame) Locals() map[string]any {
	locals, _ := f.Bindings()
	return locals
}

// Bindings is Locals with the reason when there are none to read.
func (f *Frame) Bindings() (map[string]any, error) {
	if f.rec() == nil {
		return nil, ferr.Attribute("locals")
	}
	if err := f.owned(); err != nil {
		return nil, err
	}

	locals := make(map[string]any)
	f.scope(func(s *scope) {
		for name, b := range s.locals {
			locals[name] = b.value
		}
	})
	return locals, nil
}

// Lookup reads one local of the activation.
func (f *Frame) Lookup(name string) (any, error) {
	locals, err := f.Bindings()
	if err != nil {
		return nil, err
	}

	value, ok := locals[name]
	if !ok {
		return nil, ferr.Attribute(name)
	}
	return value, nil
}

// Trace returns the step hook of the activation, usually nil.
func (f *Frame) Trace() (hook TraceFunc) {
	if f.rec() == nil || f.owned() != nil {
		return nil
	}

	f.scope(func(s *scope) {
		hook = s.trace
	})
	return
}

// Export publishes name in the globals of pkg.
func Export(pkg, name string, value any) {
	globals.Lock()
	defer globals.Unlock()

	m, ok := globals.m[pkg]
	if !ok {
		m = make(map[string]any)
		globals.m[pkg] = m
	}
	m[name] = value
}

// Globals returns a copy of the names exported by the frame's package.
func (f *Frame) Globals() map[string]any {
	if f.rec() == nil {
		return nil
	}

	globals.RLock()
	defer globals.RUnlock()
	if m, ok := globals.m[f.Package()]; ok {
		return maps.Clone(m)
	}
	return make(map[string]any)
}
