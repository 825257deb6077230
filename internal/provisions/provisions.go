// Package provisions seeds a fresh store with the default objects every
// instance needs: a system configuration, an admin account and the
// stock tag set. The documents are embedded so provisioning works
// offline.
package provisions

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ri0t/isomer/internal/database"
	"github.com/ri0t/isomer/internal/errors"
	"github.com/ri0t/isomer/internal/logging"
)

//go:embed data
var dataFS embed.FS

// Provision is one embedded document: a schema name and the objects to
// seed into its collection.
type Provision struct {
	Schema  string                   `yaml:"schema"`
	Objects []map[string]interface{} `yaml:"objects"`
}

// Options adjusts provisioning behavior.
type Options struct {
	// Wipe drops each collection before seeding it.
	Wipe bool
	// SkipExisting keeps objects that are already present instead of
	// overwriting them with the defaults.
	SkipExisting bool
}

// Result counts what one provisioning run did.
type Result struct {
	Provisioned int
	Skipped     int
	Wiped       int
}

// Names lists the available provisions, sorted.
func Names() []string {
	entries, err := fs.ReadDir(dataFS, "data")
	if err != nil {
		return nil
	}

	var names []string
	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasSuffix(name, ".yaml") {
			continue
		}
		names = append(names, strings.TrimSuffix(name, ".yaml"))
	}
	sort.Strings(names)
	return names
}

func load(name string) (Provision, error) {
	var p Provision

	data, err := dataFS.ReadFile("data/" + name + ".yaml")
	if err != nil {
		return p, errors.Newf(errors.ProvisioningFailed, "no provision named %q", name)
	}
	if err := yaml.Unmarshal(data, &p); err != nil {
		return p, errors.Wrap(errors.ProvisioningFailed, "provision "+name+" is malformed", err)
	}
	if p.Schema == "" || len(p.Objects) == 0 {
		return p, errors.Newf(errors.ProvisioningFailed, "provision %q is empty", name)
	}
	return p, nil
}

// Apply seeds the named provisions into the store. No names means all
// of them. Every object is validated by the store on the way in.
func Apply(ctx context.Context, store *database.Store, opts Options, names ...string) (Result, error) {
	log := logging.Get(logging.EmitterProvisions)

	if len(names) == 0 {
		names = Names()
	}

	var result Result
	for _, name := range names {
		p, err := load(name)
		if err != nil {
			return result, err
		}

		if opts.Wipe {
			if err := store.Drop(ctx, p.Schema); err != nil {
				return result, errors.Wrap(errors.ProvisioningFailed,
					"failed to wipe "+p.Schema, err)
			}
			result.Wiped++
			log.Info("Wiped %s collection for re-provisioning", p.Schema)
		}

		for _, fields := range p.Objects {
			obj := database.Object(fields)

			if opts.SkipExisting && obj.UUID() != "" {
				if _, err := store.FindOne(ctx, p.Schema, obj.UUID()); err == nil {
					result.Skipped++
					continue
				}
			}

			if _, err := store.Save(ctx, p.Schema, obj); err != nil {
				return result, errors.Wrap(errors.ProvisioningFailed,
					fmt.Sprintf("failed to provision %s object %s", p.Schema, obj.Name()), err)
			}
			result.Provisioned++
		}
		log.Info("Provisioned %s (%d objects)", name, len(p.Objects))
	}
	return result, nil
}
