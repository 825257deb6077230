package template

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseExtractsTokens(t *testing.T) {
	tpl := Parse("t", "Hello {{name}}, {{greeting}}! Again: {{name}}.")
	if diff := cmp.Diff([]string{"greeting", "name"}, tpl.Tokens()); diff != "" {
		t.Errorf("tokens mismatch (-want +got):\n%s", diff)
	}
}

func TestRenderCompleteLeavesNoMarkers(t *testing.T) {
	tpl := Parse("t", "{{a}} and {{b}} and {{a}}")
	out, err := tpl.Render(map[string]string{"a": "1", "b": "2"})
	require.NoError(t, err)
	assert.Equal(t, "1 and 2 and 1", out)
	assert.Empty(t, Unresolved(out))
}

func TestRenderMissingTokensFails(t *testing.T) {
	tpl := Parse("setup.py", "{{author_name}} <{{author_email}}> {{year}}")
	_, err := tpl.Render(map[string]string{"year": "2026"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingTokens))
	// Every missing token is named, not just the first.
	assert.Contains(t, err.Error(), "author_name")
	assert.Contains(t, err.Error(), "author_email")
}

func TestRenderIsLiteralSubstitution(t *testing.T) {
	// The entry point line of the package manifest. Values go in verbatim,
	// with no casing or punctuation applied by the renderer.
	tpl := Parse("entry", "{{plugin_name}}=isomer.{{plugin_name}}.{{plugin_name}}:{{component_name}}Component")
	out, err := tpl.Render(map[string]string{
		"plugin_name":    "weather",
		"component_name": "Weather",
	})
	require.NoError(t, err)
	assert.Equal(t, "weather=isomer.weather.weather:WeatherComponent", out)
}

func TestMalformedBracesAreLiteral(t *testing.T) {
	text := "{{ spaced }} {{dash-ed}} {{}} { {nested} } {{good}}"
	tpl := Parse("t", text)
	assert.Equal(t, []string{"good"}, tpl.Tokens())

	out, err := tpl.Render(map[string]string{"good": "X"})
	require.NoError(t, err)
	assert.Equal(t, "{{ spaced }} {{dash-ed}} {{}} { {nested} } X", out)
}

func TestRenderSinglePass(t *testing.T) {
	tpl := Parse("t", "value: {{v}}")
	out, err := tpl.Render(map[string]string{"v": "{{year}}"})
	require.NoError(t, err)
	// The marker from the value survives untouched and is reported.
	assert.Equal(t, "value: {{year}}", out)
	assert.Equal(t, []string{"year"}, Unresolved(out))
}

func TestMissingAndUnused(t *testing.T) {
	tpl := Parse("t", "{{a}} {{b}}")
	ctx := map[string]string{"b": "2", "c": "3"}

	assert.Equal(t, []string{"a"}, tpl.Missing(ctx))
	assert.Equal(t, []string{"c"}, tpl.Unused(ctx))
}

func TestEmptyTemplate(t *testing.T) {
	tpl := Parse("empty", "")
	assert.Empty(t, tpl.Tokens())

	out, err := tpl.Render(nil)
	require.NoError(t, err)
	assert.Zero(t, len(out))
}

func TestManifestTokenSet(t *testing.T) {
	// The full token vocabulary of the package manifest template.
	text := strings.Join([]string{
		"{{description_header}}", "{{description}}", "{{year}}",
		"{{author_name}}", "{{author_email}}", "{{license_longtext}}",
		"{{plugin_name}}", "{{version}}", "{{github_url}}", "{{license}}",
		"{{long_description}}", "{{keyword_list}}", "{{component_name}}",
	}, "\n")
	tpl := Parse("manifest", text)

	want := []string{
		"author_email", "author_name", "component_name", "description",
		"description_header", "github_url", "keyword_list", "license",
		"license_longtext", "long_description", "plugin_name", "version",
		"year",
	}
	if diff := cmp.Diff(want, tpl.Tokens()); diff != "" {
		t.Errorf("token set mismatch (-want +got):\n%s", diff)
	}
}
