package database

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/ri0t/isomer/internal/logging"
	"github.com/ri0t/isomer/internal/schemata"
)

// InvalidObject is one validation failure found by ValidateAll.
type InvalidObject struct {
	Schema string
	UUID   string
	Err    error
}

func (p InvalidObject) String() string {
	return fmt.Sprintf("%s/%s: %v", p.Schema, p.UUID, p.Err)
}

// ValidateAll checks every stored object against its schema, one
// collection per worker. It returns the failures; an empty result
// means a clean store.
func (s *Store) ValidateAll(ctx context.Context) ([]InvalidObject, error) {
	timer := logging.StartTimer(logging.EmitterDB, "ValidateAll")
	defer timer.Stop()

	names, err := s.Collections()
	if err != nil {
		return nil, err
	}

	var (
		mu       sync.Mutex
		problems []InvalidObject
	)

	g, ctx := errgroup.WithContext(ctx)
	for _, name := range names {
		name := name
		def, err := schemata.Get(name)
		if err != nil {
			// A collection without a registered schema is itself a finding.
			mu.Lock()
			problems = append(problems, InvalidObject{Schema: name, Err: err})
			mu.Unlock()
			continue
		}

		g.Go(func() error {
			objects, err := s.Find(ctx, name, nil)
			if err != nil {
				return err
			}
			for _, obj := range objects {
				if err := schemata.ValidateObject(def.Schema, map[string]interface{}(obj)); err != nil {
					mu.Lock()
					problems = append(problems, InvalidObject{
						Schema: name,
						UUID:   obj.UUID(),
						Err:    err,
					})
					mu.Unlock()
				}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(problems, func(i, j int) bool {
		if problems[i].Schema != problems[j].Schema {
			return problems[i].Schema < problems[j].Schema
		}
		return problems[i].UUID < problems[j].UUID
	})

	if len(problems) > 0 {
		logging.DBError("Store validation found %d invalid objects", len(problems))
	} else {
		logging.DB("Store validation clean")
	}
	return problems, nil
}
