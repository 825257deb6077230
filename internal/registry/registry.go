// Package registry names the long-running framework components and
// builds them from configuration. Plugins may add factories next to
// the built-in database components.
package registry

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/ri0t/isomer/internal/config"
	"github.com/ri0t/isomer/internal/database"
	"github.com/ri0t/isomer/internal/logging"
)

// Component is a long-running part of an instance. Run blocks until
// the context ends.
type Component interface {
	Name() string
	Run(ctx context.Context) error
}

// Factory builds a component from the instance configuration and the
// object store.
type Factory func(cfg *config.Config, store *database.Store) (Component, error)

var (
	mu        sync.RWMutex
	factories = make(map[string]Factory)
)

// Register adds a component factory. Duplicate names are an error.
func Register(name string, factory Factory) error {
	mu.Lock()
	defer mu.Unlock()

	if _, exists := factories[name]; exists {
		return fmt.Errorf("component %q is already registered", name)
	}
	factories[name] = factory
	return nil
}

// MustRegister is Register for init-time built-ins.
func MustRegister(name string, factory Factory) {
	if err := Register(name, factory); err != nil {
		panic(err)
	}
}

// Resolve builds the named component.
func Resolve(name string, cfg *config.Config, store *database.Store) (Component, error) {
	mu.RLock()
	factory, ok := factories[name]
	mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("no component registered as %q", name)
	}
	return factory(cfg, store)
}

// Names lists the registered components, sorted.
func Names() []string {
	mu.RLock()
	defer mu.RUnlock()

	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Launch resolves and runs the named components together until the
// context ends or one of them fails. No names means all of them.
func Launch(ctx context.Context, cfg *config.Config, store *database.Store, names ...string) error {
	if len(names) == 0 {
		names = Names()
	}

	components := make([]Component, 0, len(names))
	for _, name := range names {
		component, err := Resolve(name, cfg, store)
		if err != nil {
			return err
		}
		components = append(components, component)
	}

	g, ctx := errgroup.WithContext(ctx)
	for _, component := range components {
		component := component
		logging.Get(logging.EmitterBoot).Info("Launching component %s", component.Name())
		g.Go(func() error {
			return component.Run(ctx)
		})
	}
	return g.Wait()
}
