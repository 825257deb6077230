package schemata

import (
	"fmt"
	"sort"
	"sync"

	"github.com/ri0t/isomer/internal/errors"
)

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Definition)
)

// Register adds a definition under the given name. Duplicate names and
// malformed definitions are rejected.
func Register(name string, def Definition) error {
	if err := def.Validate(); err != nil {
		return errors.Wrap(errors.InvalidSchema, fmt.Sprintf("schema %q rejected", name), err)
	}

	registryMu.Lock()
	defer registryMu.Unlock()

	if _, exists := registry[name]; exists {
		return errors.Newf(errors.InvalidSchema, "schema %q is already registered", name)
	}
	registry[name] = def
	return nil
}

// MustRegister is Register for init-time built-ins.
func MustRegister(name string, def Definition) {
	if err := Register(name, def); err != nil {
		panic(err)
	}
}

// Get returns the definition registered under name.
func Get(name string) (Definition, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	def, ok := registry[name]
	if !ok {
		return Definition{}, errors.Newf(errors.InvalidSchema, "no schema registered as %q", name)
	}
	return def, nil
}

// Names lists all registered schema names, sorted.
func Names() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// All returns a copy of the registry.
func All() map[string]Definition {
	registryMu.RLock()
	defer registryMu.RUnlock()

	defs := make(map[string]Definition, len(registry))
	for name, def := range registry {
		defs[name] = def
	}
	return defs
}
