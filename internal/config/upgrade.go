package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ri0t/isomer/internal/errors"
)

// upgradeStep transforms a raw configuration map one version forward.
type upgradeStep struct {
	to    int
	apply func(raw map[string]interface{})
}

// The steps run in order on any file older than ConfigVersion. They
// operate on the raw map so keys the struct no longer knows about can
// still be renamed or dropped.
var upgradeSteps = []upgradeStep{
	{
		// A single "database" string becomes the database section.
		to: 1,
		apply: func(raw map[string]interface{}) {
			if path, ok := raw["database"].(string); ok {
				raw["database"] = map[string]interface{}{
					"path": path,
					"name": "isomer",
				}
			}
			if _, ok := raw["logging"]; !ok {
				raw["logging"] = map[string]interface{}{
					"enabled": true,
					"level":   "info",
				}
			}
		},
	},
	{
		// "backups" was renamed to "backup"; docs gained a section.
		to: 2,
		apply: func(raw map[string]interface{}) {
			if old, ok := raw["backups"]; ok {
				raw["backup"] = old
				delete(raw, "backups")
			}
			if _, ok := raw["docs"]; !ok {
				raw["docs"] = map[string]interface{}{
					"base_url": "https://isomeric.github.io/docs",
				}
			}
		},
	},
	{
		// Maintenance scheduling and the free-space threshold arrived.
		to: 3,
		apply: func(raw map[string]interface{}) {
			if _, ok := raw["maintenance"]; !ok {
				raw["maintenance"] = map[string]interface{}{
					"enabled":  true,
					"interval": "24h",
				}
			}
			paths, ok := raw["paths"].(map[string]interface{})
			if !ok {
				paths = make(map[string]interface{})
				raw["paths"] = paths
			}
			if _, ok := paths["minimum_free_mb"]; !ok {
				paths["minimum_free_mb"] = 500
			}
		},
	},
}

// Upgrade rewrites an old configuration file to the current version,
// keeping a backup of the original next to it. It reports the versions
// it stepped through; a current file is left untouched.
func Upgrade(path string) ([]int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	raw := make(map[string]interface{})
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, errors.Wrap(errors.InvalidConfiguration, "failed to parse "+path, err)
	}

	version := 0
	if v, ok := raw["version"].(int); ok {
		version = v
	}
	if version > ConfigVersion {
		return nil, errors.Newf(errors.InvalidConfiguration,
			"%s is version %d, newer than this tool understands (%d)",
			path, version, ConfigVersion)
	}
	if version == ConfigVersion {
		return nil, nil
	}

	backup := fmt.Sprintf("%s.v%d.bak", path, version)
	if err := os.WriteFile(backup, data, 0644); err != nil {
		return nil, fmt.Errorf("failed to back up config: %w", err)
	}

	var applied []int
	for _, step := range upgradeSteps {
		if version >= step.to {
			continue
		}
		step.apply(raw)
		version = step.to
		applied = append(applied, step.to)
	}
	raw["version"] = ConfigVersion

	out, err := yaml.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal upgraded config: %w", err)
	}

	// Round-trip through the typed struct so an upgrade can never
	// produce a file Load would reject.
	cfg := Default("")
	if err := yaml.Unmarshal(out, cfg); err != nil {
		return nil, errors.Wrap(errors.InvalidConfiguration, "upgrade produced a broken config", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if err := os.WriteFile(path, out, 0644); err != nil {
		return nil, fmt.Errorf("failed to write upgraded config: %w", err)
	}
	return applied, nil
}
