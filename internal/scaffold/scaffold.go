// Package scaffold generates new Isomer plugin packages from embedded
// templates. The generated setup.py is the manifest contract: its
// entry_points block registers the plugin's component and schema under
// the isomer.components and isomer.schemata extension points, which is
// how a running instance discovers them.
package scaffold

import (
	"bytes"
	"embed"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/ri0t/isomer/internal/errors"
	"github.com/ri0t/isomer/internal/logging"
	"github.com/ri0t/isomer/internal/matrix"
	"github.com/ri0t/isomer/internal/template"
)

//go:embed templates
var templateFS embed.FS

var (
	pluginNamePattern    = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)
	componentNamePattern = regexp.MustCompile(`^[A-Z][A-Za-z0-9]*$`)
)

// namespaceInit makes the generated isomer/ directory a namespace
// package so the plugin can be installed next to the core package.
const namespaceInit = `__import__("pkg_resources").declare_namespace(__name__)` + "\n"

// Plugin holds the answers that fill the package templates.
type Plugin struct {
	Name            string
	ComponentName   string
	Description     string
	LongDescription string
	AuthorName      string
	AuthorEmail     string
	License         string
	Version         string
	GithubURL       string
	Keywords        []string
	Year            int
}

// Result reports what New wrote. Paths are relative to Dir. Skipped
// lists files that already had the exact rendered content, so a rerun
// with --force is effectively idempotent.
type Result struct {
	Dir     string
	Created []string
	Skipped []string
}

// ApplyDefaults fills every optional field that has a sensible
// default. Name stays untouched: there is no default plugin name.
func (p *Plugin) ApplyDefaults() {
	if p.ComponentName == "" && p.Name != "" {
		p.ComponentName = ComponentNameFor(p.Name)
	}
	if p.Description == "" && p.Name != "" {
		p.Description = fmt.Sprintf("The %s plugin for Isomer", p.Name)
	}
	if p.LongDescription == "" {
		p.LongDescription = p.Description
	}
	if p.AuthorName == "" {
		if user := os.Getenv("USER"); user != "" {
			p.AuthorName = user
		} else {
			p.AuthorName = "Unknown Author"
		}
	}
	if p.AuthorEmail == "" {
		p.AuthorEmail = strings.ToLower(strings.ReplaceAll(p.AuthorName, " ", ".")) + "@localhost"
	}
	if p.License == "" {
		p.License = DefaultLicense
	}
	if p.Version == "" {
		p.Version = "0.0.1"
	}
	if p.GithubURL == "" && p.Name != "" {
		p.GithubURL = "https://github.com/isomeric/isomer-" + p.Name
	}
	if len(p.Keywords) == 0 {
		p.Keywords = []string{"isomer", p.Name}
	}
	if p.Year == 0 {
		p.Year = time.Now().Year()
	}
}

// Validate checks the plugin and component names against the allowed
// patterns and resolves the license. It runs before any file is
// written, so a bad name never leaves a half-created package behind.
func (p *Plugin) Validate() error {
	if !pluginNamePattern.MatchString(p.Name) {
		return errors.Newf(errors.InvalidPluginName,
			"plugin name %q is invalid, must match %s", p.Name, pluginNamePattern)
	}
	if !componentNamePattern.MatchString(p.ComponentName) {
		return errors.Newf(errors.InvalidPluginName,
			"component name %q is invalid, must match %s", p.ComponentName, componentNamePattern)
	}
	if _, err := LicenseByID(p.License); err != nil {
		return err
	}
	return nil
}

// ComponentNameFor derives a component name from a plugin name:
// "weather" becomes "Weather", "nmea_parser" becomes "NmeaParser".
func ComponentNameFor(name string) string {
	var b strings.Builder
	for _, part := range strings.Split(name, "_") {
		if part == "" {
			continue
		}
		b.WriteString(strings.ToUpper(part[:1]))
		b.WriteString(part[1:])
	}
	return b.String()
}

// Tokens expands the plugin into the substitution context shared by
// all scaffold templates. The description header is an RST underline
// sized to the description.
func (p *Plugin) Tokens() (map[string]string, error) {
	lic, err := LicenseByID(p.License)
	if err != nil {
		return nil, err
	}
	return map[string]string{
		"description":        p.Description,
		"description_header": strings.Repeat("=", len(p.Description)),
		"year":               strconv.Itoa(p.Year),
		"author_name":        p.AuthorName,
		"author_email":       p.AuthorEmail,
		"license_longtext":   lic.LongText,
		"plugin_name":        p.Name,
		"version":            p.Version,
		"github_url":         p.GithubURL,
		"license":            lic.Name,
		"long_description":   p.LongDescription,
		"keyword_list":       strings.Join(p.Keywords, " "),
		"component_name":     p.ComponentName,
	}, nil
}

// ManifestTokens returns the sorted token names of the manifest
// template, the full set a caller has to supply.
func ManifestTokens() ([]string, error) {
	raw, err := templateFS.ReadFile("templates/setup.py.tmpl")
	if err != nil {
		return nil, errors.Wrap(errors.TemplateIncomplete, "reading manifest template", err)
	}
	return template.Parse("setup.py.tmpl", string(raw)).Tokens(), nil
}

func renderTemplate(name string, ctx map[string]string) (string, error) {
	raw, err := templateFS.ReadFile(path.Join("templates", name))
	if err != nil {
		return "", errors.Wrap(errors.TemplateIncomplete, "reading template "+name, err)
	}
	out, err := template.Parse(name, string(raw)).Render(ctx)
	if err != nil {
		return "", errors.Wrap(errors.TemplateIncomplete, "rendering "+name, err)
	}
	// Token values themselves may have carried markers in.
	if leftover := template.Unresolved(out); len(leftover) > 0 {
		return "", errors.Newf(errors.TemplateIncomplete,
			"%s: unresolved markers after rendering: %s", name, strings.Join(leftover, ", "))
	}
	return out, nil
}

// New creates the package skeleton for the plugin below baseDir, in a
// directory named isomer-<name>. Every text file is rendered through
// the strict template contract and checked for leftover markers before
// anything is written. An existing target is only touched with force.
func New(p *Plugin, baseDir string, force bool) (*Result, error) {
	log := logging.Get(logging.EmitterScaffold)
	timer := logging.StartTimer(logging.EmitterScaffold, "scaffold plugin")
	defer timer.Stop()

	p.ApplyDefaults()
	if err := p.Validate(); err != nil {
		return nil, err
	}
	ctx, err := p.Tokens()
	if err != nil {
		return nil, err
	}

	dir := filepath.Join(baseDir, "isomer-"+p.Name)
	if _, err := os.Stat(dir); err == nil && !force {
		return nil, errors.Newf(errors.PluginExists,
			"%s already exists, use --force to overwrite", dir)
	}

	files := map[string]string{
		filepath.Join("isomer", "__init__.py"):         namespaceInit,
		filepath.Join("isomer", p.Name, "__init__.py"): "",
	}
	for _, t := range []struct{ tmpl, out string }{
		{"setup.py.tmpl", "setup.py"},
		{"README.rst.tmpl", "README.rst"},
		{"LICENSE.tmpl", "LICENSE"},
		{"docs_index.rst.tmpl", filepath.Join("docs", "index.rst")},
		{"module.py.tmpl", filepath.Join("isomer", p.Name, p.Name+".py")},
		{"schemata.py.tmpl", filepath.Join("isomer", p.Name, "schemata.py")},
	} {
		out, err := renderTemplate(t.tmpl, ctx)
		if err != nil {
			return nil, err
		}
		files[t.out] = out
	}

	var tox bytes.Buffer
	if err := matrix.Default().WriteTox(&tox); err != nil {
		return nil, err
	}
	files["tox.ini"] = tox.String()

	// matrix.yaml is the editable declaration; `iso matrix write
	// --file matrix.yaml` regenerates tox.ini from it.
	yml, err := matrix.Default().ToYAML()
	if err != nil {
		return nil, err
	}
	files["matrix.yaml"] = string(yml)

	paths := make([]string, 0, len(files))
	for rel := range files {
		paths = append(paths, rel)
	}
	sort.Strings(paths)

	res := &Result{Dir: dir}
	for _, rel := range paths {
		abs := filepath.Join(dir, rel)
		if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
			return nil, errors.Wrap(errors.InvalidEnvironment, "creating "+filepath.Dir(abs), err)
		}
		content := []byte(files[rel])
		if prev, err := os.ReadFile(abs); err == nil && bytes.Equal(prev, content) {
			res.Skipped = append(res.Skipped, rel)
			log.Verbose("Unchanged: %s", rel)
			continue
		}
		if err := os.WriteFile(abs, content, 0o644); err != nil {
			return nil, errors.Wrap(errors.InvalidEnvironment, "writing "+abs, err)
		}
		res.Created = append(res.Created, rel)
		log.Verbose("Wrote %s", rel)
	}

	log.Info("Created plugin %q in %s (%d files, %d unchanged)",
		p.Name, dir, len(res.Created), len(res.Skipped))
	return res, nil
}
