// Package matrix models the test environment matrix of an Isomer package
// and emits it in tox.ini format for the external orchestration tool.
// Emission only; this package never parses tox.ini files back.
package matrix

import (
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// Env is one entry of the matrix: a named environment with its dependency
// list and the commands it runs.
type Env struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description,omitempty"`
	Deps        []string `yaml:"deps,omitempty"`
	Commands    []string `yaml:"commands"`
}

// Matrix is an ordered list of environments. Order is preserved into the
// envlist of the emitted file.
type Matrix struct {
	Envs []Env `yaml:"envs"`
}

var envNamePattern = regexp.MustCompile(`^[a-z][a-z0-9]*$`)

// Default returns the canonical Isomer matrix: the supported Python
// interpreters running the test suite, plus the documentation build.
func Default() Matrix {
	testDeps := []string{"-rrequirements-test.txt", "-rrequirements.txt"}
	testCommands := []string{"py.test -v --cov=isomer --cov-report=term-missing tests"}

	return Matrix{Envs: []Env{
		{Name: "py36", Description: "Python 3.6", Deps: testDeps, Commands: testCommands},
		{Name: "py37", Description: "Python 3.7", Deps: testDeps, Commands: testCommands},
		{Name: "py38", Description: "Python 3.8", Deps: testDeps, Commands: testCommands},
		{Name: "py39", Description: "Python 3.9", Deps: testDeps, Commands: testCommands},
		{
			Name:        "docs",
			Description: "Documentation build",
			Deps:        []string{"-rrequirements-doc.txt"},
			Commands:    []string{"sphinx-build -b html docs/source docs/build/html"},
		},
	}}
}

// Validate checks env names and that every env runs at least one command.
func (m Matrix) Validate() error {
	if len(m.Envs) == 0 {
		return fmt.Errorf("matrix has no environments")
	}
	seen := make(map[string]bool)
	for _, env := range m.Envs {
		if !envNamePattern.MatchString(env.Name) {
			return fmt.Errorf("invalid environment name %q", env.Name)
		}
		if seen[env.Name] {
			return fmt.Errorf("duplicate environment %q", env.Name)
		}
		seen[env.Name] = true
		if len(env.Commands) == 0 {
			return fmt.Errorf("environment %q has no commands", env.Name)
		}
	}
	return nil
}

// Names returns the env names in matrix order.
func (m Matrix) Names() []string {
	names := make([]string, len(m.Envs))
	for i, env := range m.Envs {
		names[i] = env.Name
	}
	return names
}

// WriteTox emits the matrix in tox.ini format. Environments that share the
// first env's deps and commands fold into the common [testenv] section;
// everything else gets its own [testenv:<name>] section.
func (m Matrix) WriteTox(w io.Writer) error {
	if err := m.Validate(); err != nil {
		return err
	}

	if _, err := fmt.Fprintf(w, "[tox]\nenvlist = %s\n", strings.Join(m.Names(), ",")); err != nil {
		return err
	}

	base := m.Envs[0]
	shared := false
	for _, env := range m.Envs {
		if sameSpec(env, base) {
			shared = true
			break
		}
	}
	if shared {
		if err := writeSection(w, "testenv", base); err != nil {
			return err
		}
	}
	for _, env := range m.Envs {
		if sameSpec(env, base) {
			continue
		}
		if err := writeSection(w, "testenv:"+env.Name, env); err != nil {
			return err
		}
	}
	return nil
}

// WriteToxFile emits the matrix to a tox.ini at path.
func (m Matrix) WriteToxFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := m.WriteTox(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func writeSection(w io.Writer, header string, env Env) error {
	if _, err := fmt.Fprintf(w, "\n[%s]\n", header); err != nil {
		return err
	}
	if len(env.Deps) > 0 {
		if _, err := fmt.Fprintf(w, "deps =\n"); err != nil {
			return err
		}
		for _, dep := range env.Deps {
			if _, err := fmt.Fprintf(w, "    %s\n", dep); err != nil {
				return err
			}
		}
	}
	if _, err := fmt.Fprintf(w, "commands =\n"); err != nil {
		return err
	}
	for _, cmd := range env.Commands {
		if _, err := fmt.Fprintf(w, "    %s\n", cmd); err != nil {
			return err
		}
	}
	return nil
}

func sameSpec(a, b Env) bool {
	if a.Name == b.Name {
		return true
	}
	return equalStrings(a.Deps, b.Deps) && equalStrings(a.Commands, b.Commands)
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// FromYAML decodes a matrix declaration, typically a plugin's matrix.yaml.
func FromYAML(data []byte) (Matrix, error) {
	var m Matrix
	if err := yaml.Unmarshal(data, &m); err != nil {
		return Matrix{}, fmt.Errorf("failed to parse matrix: %w", err)
	}
	if err := m.Validate(); err != nil {
		return Matrix{}, err
	}
	return m, nil
}

// ToYAML encodes the matrix for storage alongside a plugin.
func (m Matrix) ToYAML() ([]byte, error) {
	return yaml.Marshal(m)
}

// Load reads a matrix.yaml from disk; a missing file yields the default
// matrix, so freshly scaffolded plugins need no declaration at all.
func Load(path string) (Matrix, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return Matrix{}, err
	}
	return FromYAML(data)
}
