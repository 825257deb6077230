package errors

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strconv"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// DefaultDocsBaseURL is where the rendered error pages are hosted.
const DefaultDocsBaseURL = "https://isomeric.github.io/docs"

// Page is the documentation record behind an error code. Pages are authored
// data; the registry is their single source of truth and the RST files under
// docs/errors are generated from it.
type Page struct {
	Code     Code     `yaml:"code"`
	Title    string   `yaml:"title"`
	Message  string   `yaml:"message"`
	Symptoms []string `yaml:"symptoms"`
	Remedies []string `yaml:"remedies"`
}

// DocURL returns the hosted address of this page: <base>/Errors/<code>.html.
func (p Page) DocURL(base string) string {
	return fmt.Sprintf("%s/Errors/%d.html", strings.TrimRight(base, "/"), p.Code)
}

// Validate checks the page for registry admission.
func (p Page) Validate() error {
	if p.Code <= 0 {
		return fmt.Errorf("page has no code")
	}
	if strings.TrimSpace(p.Title) == "" {
		return fmt.Errorf("page %d has no title", p.Code)
	}
	if strings.TrimSpace(p.Message) == "" {
		return fmt.Errorf("page %d has no message", p.Code)
	}
	if len(p.Symptoms) == 0 {
		return fmt.Errorf("page %d lists no symptoms", p.Code)
	}
	if len(p.Remedies) == 0 {
		return fmt.Errorf("page %d lists no remedies", p.Code)
	}
	return nil
}

// embeddedPages carries the YAML page corpus baked into the binary, so the
// tool can explain its own error codes without a checkout.
//
//go:embed pages
var embeddedPages embed.FS

var (
	registry     map[Code]Page
	registryOnce sync.Once
	registryErr  error
)

func loadRegistry() {
	registry = make(map[Code]Page)

	registryErr = fs.WalkDir(embeddedPages, "pages", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		ext := strings.ToLower(path.Ext(p))
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}

		data, err := embeddedPages.ReadFile(p)
		if err != nil {
			return fmt.Errorf("failed to read embedded page %s: %w", p, err)
		}
		var page Page
		if err := yaml.Unmarshal(data, &page); err != nil {
			return fmt.Errorf("failed to parse page %s: %w", p, err)
		}
		if err := page.Validate(); err != nil {
			return fmt.Errorf("invalid page %s: %w", p, err)
		}

		// Filenames are <code>.yaml and must agree with the payload.
		stem := strings.TrimSuffix(path.Base(p), ext)
		if n, err := strconv.Atoi(stem); err != nil || Code(n) != page.Code {
			return fmt.Errorf("page file %s declares code %d", p, page.Code)
		}
		if _, dup := registry[page.Code]; dup {
			return fmt.Errorf("duplicate page for code %d", page.Code)
		}
		registry[page.Code] = page
		return nil
	})
}

// Lookup returns the documentation page for a code.
func Lookup(code Code) (Page, error) {
	registryOnce.Do(loadRegistry)
	if registryErr != nil {
		return Page{}, fmt.Errorf("error page corpus is corrupt: %w", registryErr)
	}
	page, ok := registry[code]
	if !ok {
		return Page{}, fmt.Errorf("no documentation page for code %d", code)
	}
	return page, nil
}

// Pages returns every registered page ordered by code.
func Pages() ([]Page, error) {
	registryOnce.Do(loadRegistry)
	if registryErr != nil {
		return nil, fmt.Errorf("error page corpus is corrupt: %w", registryErr)
	}
	pages := make([]Page, 0, len(registry))
	for _, p := range registry {
		pages = append(pages, p)
	}
	sort.Slice(pages, func(i, j int) bool { return pages[i].Code < pages[j].Code })
	return pages, nil
}

// MustPages returns all pages and panics on a corrupt corpus. The corpus is
// compiled in, so a failure here is a build defect, not a runtime condition.
func MustPages() []Page {
	pages, err := Pages()
	if err != nil {
		panic(fmt.Sprintf("error page corpus: %v", err))
	}
	return pages
}
