package main

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ri0t/isomer/cmd/iso/ui"
	"github.com/ri0t/isomer/internal/config"
	"github.com/ri0t/isomer/internal/errors"
)

// testCmd builds a command with plain styles and captured output.
func testCmd(t *testing.T) (*cobra.Command, *bytes.Buffer) {
	t.Helper()
	logger = zap.NewNop()
	styles = ui.NewStyles(true)

	buf := &bytes.Buffer{}
	cmd := &cobra.Command{}
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	return cmd, buf
}

// testConfig writes an instance config rooted in a temp dir and points
// the global --config flag at it for the duration of the test.
func testConfig(t *testing.T) *config.Config {
	t.Helper()
	base := t.TempDir()
	cfg := config.Default(base)
	path := filepath.Join(base, config.DefaultFilename)
	require.NoError(t, cfg.Save(path))

	flagConfig = path
	t.Cleanup(func() { flagConfig = "" })
	return cfg
}

func TestExitCodeFor(t *testing.T) {
	assert.Equal(t, 64, exitCodeFor(usagef("bad usage")))
	assert.Equal(t, 64, exitCodeFor(fmt.Errorf("unknown command %q for %q", "x", "iso")))
	assert.Equal(t, 50020, exitCodeFor(errors.New(errors.NoDatabase, "store gone")))
	assert.Equal(t, 1, exitCodeFor(stderrors.New("plain failure")))
}

func TestUsageErrorUnwraps(t *testing.T) {
	inner := stderrors.New("inner")
	err := &usageError{err: inner}
	assert.True(t, stderrors.Is(err, inner))
	assert.Equal(t, "inner", err.Error())
}

func TestExactArgs(t *testing.T) {
	check := exactArgs(2)
	cmd := &cobra.Command{Use: "x"}

	assert.NoError(t, check(cmd, []string{"a", "b"}))
	err := check(cmd, []string{"a"})
	require.Error(t, err)
	assert.Equal(t, 64, exitCodeFor(err))
}

func TestParseFilters(t *testing.T) {
	filter, err := parseFilters([]string{"active=true", "count=3", "name=foo"})
	require.NoError(t, err)
	assert.Equal(t, true, filter["active"])
	assert.Equal(t, float64(3), filter["count"])
	assert.Equal(t, "foo", filter["name"])

	_, err = parseFilters([]string{"nonsense"})
	require.Error(t, err)
	assert.Equal(t, 64, exitCodeFor(err))
}

func TestParseJSONValue(t *testing.T) {
	assert.Equal(t, true, parseJSONValue("true"))
	assert.Equal(t, float64(42), parseJSONValue("42"))
	assert.Equal(t, "plain text", parseJSONValue("plain text"))
	assert.Equal(t, "quoted", parseJSONValue(`"quoted"`))
}

func TestFirstLine(t *testing.T) {
	assert.Equal(t, "short", firstLine("short", 10))
	assert.Equal(t, "first", firstLine("first\nsecond", 10))
	assert.Equal(t, "longtex...", firstLine("longtextvalue", 10))
}

func TestConfirm(t *testing.T) {
	cmd, _ := testCmd(t)

	cmd.SetIn(strings.NewReader("y\n"))
	assert.True(t, confirm(cmd, "sure?"))

	cmd.SetIn(strings.NewReader("n\n"))
	assert.False(t, confirm(cmd, "sure?"))

	cmd.SetIn(strings.NewReader("\n"))
	assert.False(t, confirm(cmd, "sure?"))
}

func TestVersionOutput(t *testing.T) {
	cmd, buf := testCmd(t)
	versionCmd.Run(cmd, nil)
	assert.Contains(t, buf.String(), Version)
}

func TestErrorsListShowsRegistry(t *testing.T) {
	cmd, buf := testCmd(t)
	require.NoError(t, runErrorsList(cmd, nil))

	out := buf.String()
	assert.Contains(t, out, "50020")
	assert.Contains(t, out, "No database is available")
}

func TestErrorsShow(t *testing.T) {
	cmd, buf := testCmd(t)
	require.NoError(t, runErrorsShow(cmd, []string{"50020"}))

	out := buf.String()
	assert.Contains(t, out, "No database is available")
	assert.Contains(t, out, "/Errors/50020.html")
}

func TestErrorsShowRejectsNonNumeric(t *testing.T) {
	cmd, _ := testCmd(t)
	err := runErrorsShow(cmd, []string{"abc"})
	require.Error(t, err)
	assert.Equal(t, 64, exitCodeFor(err))
}

func TestMatrixWriteToStdout(t *testing.T) {
	cmd, buf := testCmd(t)
	matrixOutput = "-"
	t.Cleanup(func() { matrixOutput = "tox.ini" })

	require.NoError(t, runMatrixWrite(cmd, nil))
	out := buf.String()
	assert.Contains(t, out, "[tox]")
	assert.Contains(t, out, "py39")
}

func TestMatrixShow(t *testing.T) {
	cmd, buf := testCmd(t)
	require.NoError(t, runMatrixShow(cmd, nil))
	assert.Contains(t, buf.String(), "docs")
}

func TestSchemataList(t *testing.T) {
	cmd, buf := testCmd(t)
	require.NoError(t, runSchemataList(cmd, nil))

	out := buf.String()
	assert.Contains(t, out, "systemconfig")
	assert.Contains(t, out, "user")
	assert.Contains(t, out, "tag")
}

func TestSchemataShow(t *testing.T) {
	cmd, buf := testCmd(t)
	require.NoError(t, runSchemataShow(cmd, []string{"user"}))

	out := buf.String()
	assert.Contains(t, out, "schema:")
	assert.Contains(t, out, "#user")
}

func TestSchemataShowUnknown(t *testing.T) {
	cmd, _ := testCmd(t)
	err := runSchemataShow(cmd, []string{"nosuch"})
	require.Error(t, err)
	assert.Equal(t, errors.InvalidSchema, errors.CodeOf(err))
}

func TestConfigShowUsesDefaults(t *testing.T) {
	testConfig(t)
	cmd, buf := testCmd(t)

	require.NoError(t, runConfigShow(cmd, nil))
	out := buf.String()
	assert.Contains(t, out, "instance: default")
	assert.Contains(t, out, "database:")
}

func TestSystemPaths(t *testing.T) {
	cfg := testConfig(t)
	require.NoError(t, cfg.EnsurePaths())

	cmd, buf := testCmd(t)
	require.NoError(t, runSystemPaths(cmd, nil))

	out := buf.String()
	assert.Contains(t, out, "cache")
	assert.Contains(t, out, "backup")
}

func TestDBStatusAndProvisionRoundTrip(t *testing.T) {
	testConfig(t)

	cmd, buf := testCmd(t)
	dbWipe, dbSkipExisting, dbYes = false, false, true
	t.Cleanup(func() { dbYes = false })

	require.NoError(t, runDBProvision(cmd, nil))
	assert.Contains(t, buf.String(), "provisioned")

	buf.Reset()
	require.NoError(t, runDBStatus(cmd, nil))
	out := buf.String()
	assert.Contains(t, out, "systemconfig")
	assert.Contains(t, out, "tag")
}

func TestDBViewFilters(t *testing.T) {
	testConfig(t)

	cmd, buf := testCmd(t)
	dbYes = true
	t.Cleanup(func() { dbYes = false })
	require.NoError(t, runDBProvision(cmd, nil))

	buf.Reset()
	dbFilters = []string{"name=important"}
	dbUUID = ""
	t.Cleanup(func() { dbFilters = nil })

	require.NoError(t, runDBView(cmd, []string{"tag"}))
	out := buf.String()
	assert.Contains(t, out, "important")
	assert.Contains(t, out, "1 object(s)")
}

func TestPluginValidateGeneratedPackage(t *testing.T) {
	cmd, buf := testCmd(t)

	base := t.TempDir()
	pluginTarget = base
	pluginName = "weather"
	pluginNoInput = true
	t.Cleanup(func() {
		pluginTarget = "."
		pluginName = ""
		pluginNoInput = false
	})

	require.NoError(t, runPluginCreate(cmd, nil))
	assert.Contains(t, buf.String(), "setup.py")

	buf.Reset()
	dir := filepath.Join(base, "isomer-weather")
	require.NoError(t, runPluginValidate(cmd, []string{dir}))
	assert.Contains(t, buf.String(), "fully rendered")
}
