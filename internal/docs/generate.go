package docs

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/ri0t/isomer/internal/errors"
	"github.com/ri0t/isomer/internal/logging"
)

// Result reports what Generate did per file.
type Result struct {
	Created   []string
	Updated   []string
	Unchanged []string
}

// Generate writes one <code>.rst per registered page into dir. Existing
// files are rewritten only when their content differs, so repeated runs are
// idempotent.
func Generate(dir, baseURL string) (*Result, error) {
	log := logging.Get(logging.EmitterDocs)

	pages, err := errors.Pages()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("cannot create %s: %w", dir, err)
	}

	res := &Result{}
	for _, page := range pages {
		path := filepath.Join(dir, fmt.Sprintf("%d.rst", page.Code))
		want := RenderPage(page, baseURL)

		existing, err := os.ReadFile(path)
		switch {
		case err == nil && string(existing) == want:
			res.Unchanged = append(res.Unchanged, path)
			continue
		case err == nil:
			res.Updated = append(res.Updated, path)
		case os.IsNotExist(err):
			res.Created = append(res.Created, path)
		default:
			return nil, fmt.Errorf("cannot read %s: %w", path, err)
		}

		if err := os.WriteFile(path, []byte(want), 0o644); err != nil {
			return nil, fmt.Errorf("cannot write %s: %w", path, err)
		}
		log.Info("wrote error page %s", path)
	}

	log.Info("generate: %d created, %d updated, %d unchanged",
		len(res.Created), len(res.Updated), len(res.Unchanged))
	return res, nil
}

// Problem describes one finding of VerifyDir.
type Problem struct {
	Path string
	Err  error
}

func (p Problem) String() string {
	return fmt.Sprintf("%s: %v", p.Path, p.Err)
}

// VerifyDir checks every page file in dir against the registry: each
// registered code has a valid file, its prose matches the registry, and no
// orphaned code pages exist. Files whose stem is not numeric are ignored.
func VerifyDir(dir string) ([]Problem, error) {
	pages, err := errors.Pages()
	if err != nil {
		return nil, err
	}

	var problems []Problem
	found := make(map[errors.Code]bool)

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", dir, err)
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".rst") {
			continue
		}
		stem := strings.TrimSuffix(entry.Name(), ".rst")
		n, err := strconv.Atoi(stem)
		if err != nil {
			continue // not a code page
		}
		code := errors.Code(n)
		path := filepath.Join(dir, entry.Name())

		if err := ValidateFile(path); err != nil {
			problems = append(problems, Problem{Path: path, Err: err})
			continue
		}

		registered, err := errors.Lookup(code)
		if err != nil {
			problems = append(problems, Problem{Path: path, Err: fmt.Errorf("orphaned page, code not in registry")})
			continue
		}
		found[code] = true

		data, err := os.ReadFile(path)
		if err != nil {
			problems = append(problems, Problem{Path: path, Err: err})
			continue
		}
		parsed, err := ParsePage(string(data))
		if err != nil {
			problems = append(problems, Problem{Path: path, Err: err})
			continue
		}
		if err := diffPage(registered, parsed); err != nil {
			problems = append(problems, Problem{Path: path, Err: err})
		}
	}

	for _, page := range pages {
		if !found[page.Code] {
			problems = append(problems, Problem{
				Path: filepath.Join(dir, fmt.Sprintf("%d.rst", page.Code)),
				Err:  fmt.Errorf("page for code %d missing", page.Code),
			})
		}
	}

	sort.Slice(problems, func(i, j int) bool { return problems[i].Path < problems[j].Path })
	return problems, nil
}

// diffPage compares the prose of a parsed page against the registry entry.
func diffPage(want, got errors.Page) error {
	if got.Title != want.Title {
		return fmt.Errorf("title drifted from registry: %q", got.Title)
	}
	if got.Message != want.Message {
		return fmt.Errorf("message drifted from registry")
	}
	if len(got.Symptoms) != len(want.Symptoms) {
		return fmt.Errorf("symptom count %d, registry has %d", len(got.Symptoms), len(want.Symptoms))
	}
	for i := range want.Symptoms {
		if got.Symptoms[i] != want.Symptoms[i] {
			return fmt.Errorf("symptom %d drifted from registry", i+1)
		}
	}
	if len(got.Remedies) != len(want.Remedies) {
		return fmt.Errorf("remedy count %d, registry has %d", len(got.Remedies), len(want.Remedies))
	}
	for i := range want.Remedies {
		if got.Remedies[i] != want.Remedies[i] {
			return fmt.Errorf("remedy %d drifted from registry", i+1)
		}
	}
	return nil
}
