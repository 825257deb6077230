// Package template implements the strict placeholder syntax used by Isomer
// package templates. A placeholder is {{name}} where name is a run of
// letters, digits and underscores; anything else between braces is literal
// text. Substitution is literal and single-pass: values are inserted as
// given, never transformed and never re-expanded.
package template

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// ErrMissingTokens is returned by Render when the context lacks values for
// one or more placeholders. Rendering never emits an unresolved marker.
var ErrMissingTokens = errors.New("missing token values")

var tokenPattern = regexp.MustCompile(`\{\{([A-Za-z0-9_]+)\}\}`)

// Template is a parsed template: the raw text plus its placeholder set.
type Template struct {
	Name string
	Text string

	tokens []string
}

// Parse scans text for placeholders. It cannot fail: malformed braces are
// plain text by definition.
func Parse(name, text string) *Template {
	seen := make(map[string]bool)
	var tokens []string
	for _, m := range tokenPattern.FindAllStringSubmatch(text, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			tokens = append(tokens, m[1])
		}
	}
	sort.Strings(tokens)
	return &Template{Name: name, Text: text, tokens: tokens}
}

// Tokens returns the sorted set of placeholder names in the template.
func (t *Template) Tokens() []string {
	out := make([]string, len(t.tokens))
	copy(out, t.tokens)
	return out
}

// Missing returns the tokens that have no value in ctx, sorted.
func (t *Template) Missing(ctx map[string]string) []string {
	var missing []string
	for _, tok := range t.tokens {
		if _, ok := ctx[tok]; !ok {
			missing = append(missing, tok)
		}
	}
	return missing
}

// Unused returns the ctx keys that match no placeholder, sorted.
func (t *Template) Unused(ctx map[string]string) []string {
	known := make(map[string]bool, len(t.tokens))
	for _, tok := range t.tokens {
		known[tok] = true
	}
	var unused []string
	for key := range ctx {
		if !known[key] {
			unused = append(unused, key)
		}
	}
	sort.Strings(unused)
	return unused
}

// Render substitutes every placeholder with its ctx value. All placeholders
// must be mapped; a missing key fails the whole render and names every
// missing token. Unused keys are allowed.
func (t *Template) Render(ctx map[string]string) (string, error) {
	if missing := t.Missing(ctx); len(missing) > 0 {
		return "", fmt.Errorf("%w in %s: %s", ErrMissingTokens, t.Name, strings.Join(missing, ", "))
	}
	out := tokenPattern.ReplaceAllStringFunc(t.Text, func(m string) string {
		name := m[2 : len(m)-2]
		return ctx[name]
	})
	return out, nil
}

// Unresolved reports any placeholder markers present in s. A fully rendered
// output has none; markers smuggled in through substitution values show up
// here.
func Unresolved(s string) []string {
	seen := make(map[string]bool)
	var tokens []string
	for _, m := range tokenPattern.FindAllStringSubmatch(s, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			tokens = append(tokens, m[1])
		}
	}
	sort.Strings(tokens)
	return tokens
}
