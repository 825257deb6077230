package config

import (
	"os"
	"sort"
	"strings"

	"golang.org/x/sys/unix"

	"github.com/ri0t/isomer/internal/errors"
)

// PathStatus is the check result for one managed location.
type PathStatus struct {
	Name       string
	Path       string
	Exists     bool
	Writable   bool
	FreeMB     int64
	Sufficient bool
}

// EnsurePaths creates all managed locations.
func (c *Config) EnsurePaths() error {
	for _, path := range c.Paths.All() {
		if err := os.MkdirAll(path, 0755); err != nil {
			return errors.Wrap(errors.InvalidEnvironment, "cannot create "+path, err)
		}
	}
	return nil
}

// CheckPaths inspects every managed location: existence, writability
// and free space against the configured threshold.
func (c *Config) CheckPaths() []PathStatus {
	locations := c.Paths.All()
	names := make([]string, 0, len(locations))
	for name := range locations {
		names = append(names, name)
	}
	sort.Strings(names)

	statuses := make([]PathStatus, 0, len(names))
	for _, name := range names {
		statuses = append(statuses, c.checkPath(name, locations[name]))
	}
	return statuses
}

func (c *Config) checkPath(name, path string) PathStatus {
	status := PathStatus{Name: name, Path: path}

	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return status
	}
	status.Exists = true

	probe, err := os.CreateTemp(path, ".isomer-probe-*")
	if err == nil {
		status.Writable = true
		probe.Close()
		os.Remove(probe.Name())
	}

	free, err := freeMB(path)
	if err == nil {
		status.FreeMB = free
		status.Sufficient = free >= c.Paths.MinimumFreeMB
	}
	return status
}

// CheckEnvironment reduces CheckPaths to a single pass or fail.
func (c *Config) CheckEnvironment() error {
	var problems []string
	for _, status := range c.CheckPaths() {
		switch {
		case !status.Exists:
			problems = append(problems, status.Name+" path missing: "+status.Path)
		case !status.Writable:
			problems = append(problems, status.Name+" path not writable: "+status.Path)
		case !status.Sufficient:
			problems = append(problems, status.Name+" path low on space: "+status.Path)
		}
	}
	if len(problems) > 0 {
		return errors.Newf(errors.InvalidEnvironment,
			"environment check failed: %s", strings.Join(problems, "; "))
	}
	return nil
}

func freeMB(path string) (int64, error) {
	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return 0, err
	}
	return int64(stat.Bavail) * stat.Bsize / (1024 * 1024), nil
}
