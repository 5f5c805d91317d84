// Package container is a small bean container over samber/do. Errors it
// produces carry the source location of the code that asked for the bean,
// found by walking the caller frames.
package container

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"slices"
	"strings"
	"sync"

	"github.com/samber/do/v2"

	"github.com/iocgo/frames"
	"github.com/iocgo/frames/runtime"
)

const selfPackage = "github.com/iocgo/frames/container"

type keys struct {
	sync.Mutex
	g []string
}

type Initializer interface {
	Init(*Container) error
	Order() int
}

type singleInitializer struct {
	order int
	init  func(*Container) error
}

type Container struct {
	inject *do.RootScope
	alias  map[string]string
	init   []func() error
}

var (
	threadLocal = runtime.NewThreadLocal[*keys](func() *keys {
		return &keys{}
	})
)

// push records key as being resolved and reports false when it already is.
func (k *keys) push(key string) (re bool) {
	k.Lock()
	defer k.Unlock()

	if !slices.Contains(k.g, key) {
		re = true
	}

	k.g = append(k.g, key)
	return
}

func (k *keys) pop() {
	k.Lock()
	defer k.Unlock()

	if n := len(k.g); n > 0 {
		k.g = k.g[:n-1]
	}
}

func (i singleInitializer) Init(container *Container) (err error) {
	if i.init == nil {
		return
	}
	return i.init(container)
}

func (i singleInitializer) Order() int {
	return i.order
}

func New() *Container {
	return &Container{
		inject: do.New(),
		alias:  make(map[string]string),
	}
}

func InitializedWrapper(order int, init func(*Container) error) Initializer {
	return &singleInitializer{order, init}
}

func (c *Container) AddInitialized(i func() error) {
	c.init = append(c.init, i)
}

// Run calls every Initializer bean in order, then the functions added with
// AddInitialized, and finally waits for one of signals if any are given.
func (c *Container) Run(signals ...os.Signal) (err error) {
	beans := ListInvokeAs[Initializer](c)
	beans = append(beans, &singleInitializer{999, func(container *Container) (iErr error) {
		for _, exec := range c.init {
			if iErr = exec(); iErr != nil {
				return iErr
			}
		}
		return
	}})

	slices.SortStableFunc(beans, func(a, b Initializer) int {
		return a.Order() - b.Order()
	})

	for _, bean := range beans {
		if err = bean.Init(c); err != nil {
			return
		}
	}

	if len(signals) > 0 {
		w := make(chan os.Signal, 1)
		signal.Notify(w, signals...)
		<-w
	}
	return
}

func (c *Container) Inject() *do.RootScope {
	return c.inject
}

func (c *Container) Alias(name, fullName string) {
	if n, ok := c.alias[name]; ok {
		panic("alias '" + n + "' already exists")
	}
	c.alias[name] = fullName
}

func (c *Container) HealthLogger() string {
	injector := do.ExplainInjector(c.inject)
	return injector.String()
}

func (c *Container) Stop() error {
	if errs := c.inject.Shutdown(); errs != nil {
		return errs
	}
	return nil
}

func NameOf[T any]() string {
	return do.NameOf[T]()
}

func ProvideBean[T any](container *Container, name string, provider func() (T, error)) {
	do.ProvideNamed[T](container.inject, name, func(i do.Injector) (T, error) {
		return provider()
	})
}

func ProvideTransient[T any](container *Container, name string, provider func() (T, error)) {
	do.ProvideNamedTransient[T](container.inject, name, func(i do.Injector) (T, error) {
		return provider()
	})
}

func OverrideBean[T any](container *Container, name string, provider func() (T, error)) {
	do.OverrideNamed[T](container.inject, name, func(i do.Injector) (T, error) {
		return provider()
	})
}

func InvokeBean[T any](container *Container, name string) (t T, err error) {
	if name != "" {
		for {
			if n, ok := container.alias[name]; ok {
				name = n
			} else {
				break
			}
		}
	}

	var zero T
	if !threadLocal.Ex(true) {
		defer threadLocal.Remove()
	}

	value := threadLocal.Load()
	if !value.push(name) {
		err = warpError(fmt.Errorf("circular dependency occurs:\n%s", join(value.g, name)))
		value.pop()
		return zero, err
	}
	defer value.pop()

	if name == "" {
		t, err = do.Invoke[T](container.inject)
	} else {
		t, err = do.InvokeNamed[T](container.inject, name)
	}
	return
}

func ListInvokeAs[T any](container *Container) (re []T) {
	services := container.inject.ListProvidedServices()
	for _, ser := range services {
		t, err := do.InvokeNamed[T](container.inject, ser.Service)
		if err == nil {
			re = append(re, t)
		}
	}
	return
}

// warpError appends the location of the first caller outside the container
// and the do library.
func warpError(err error) error {
	if err == nil {
		return nil
	}

	frame, lErr := frames.Locate(func(f frames.StackFrame) bool {
		pkg := f.Package()
		return pkg != selfPackage && !strings.HasPrefix(pkg, "github.com/samber/do")
	})
	if lErr != nil {
		return err
	}

	return errors.Join(err, fmt.Errorf(`in %s # %s:%d`, frame.File(), frame.Function(), frame.Line()))
}

func join(slice []string, n string) (str string) {
	idx := -1
	sliceL := len(slice)
	for i, it := range slice {
		if idx == -1 && it == n {
			idx = i
		}

		switch i {
		case idx:
			str += "╭- " + it + "\n"
		case sliceL - 1:
			str += "╰> " + it + "\n"
		default:
			if idx == -1 {
				str += "   " + it + "\n"
			} else {
				str += "|  " + it + "\n"
			}
		}
	}
	return
}
