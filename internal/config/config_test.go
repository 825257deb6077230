package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ri0t/isomer/internal/errors"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"ISOMER_INSTANCE", "ISOMER_DB_PATH", "ISOMER_LOG_LEVEL", "ISOMER_DOCS_URL"} {
		t.Setenv(key, "")
	}
}

func TestDefaultValidates(t *testing.T) {
	cfg := Default("")
	require.NoError(t, cfg.Validate())
	assert.Equal(t, ConfigVersion, cfg.Version)
	assert.Equal(t, "/var/lib/isomer/db/isomer.db", cfg.Database.File())
}

func TestLoadMissingFileYieldsDefaults(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()

	cfg, err := Load(filepath.Join(dir, DefaultFilename))
	require.NoError(t, err)
	assert.Equal(t, "default", cfg.Instance)
	assert.Equal(t, filepath.Join(dir, "db"), cfg.Database.Path)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), DefaultFilename)

	cfg := Default("/srv/isomer")
	cfg.Instance = "harbor"
	cfg.Backup.Keep = 14
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	if diff := cmp.Diff(cfg, loaded); diff != "" {
		t.Errorf("config changed across save/load (-want +got):\n%s", diff)
	}
}

func TestLoadRejectsMalformed(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), DefaultFilename)
	require.NoError(t, os.WriteFile(path, []byte("instance: [unclosed"), 0644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Equal(t, errors.InvalidConfiguration, errors.CodeOf(err))
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("ISOMER_INSTANCE", "green")
	t.Setenv("ISOMER_DB_PATH", "/mnt/fast/db")
	t.Setenv("ISOMER_LOG_LEVEL", "debug")
	t.Setenv("ISOMER_DOCS_URL", "https://docs.example.org")

	cfg, err := Load(filepath.Join(t.TempDir(), DefaultFilename))
	require.NoError(t, err)
	assert.Equal(t, "green", cfg.Instance)
	assert.Equal(t, "/mnt/fast/db", cfg.Database.Path)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "https://docs.example.org", cfg.Docs.BaseURL)
}

func TestWriteRefusesOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultFilename)
	cfg := Default("")

	require.NoError(t, cfg.Write(path, false))

	err := cfg.Write(path, false)
	require.Error(t, err)
	assert.Equal(t, errors.NotOverwriting, errors.CodeOf(err))

	assert.NoError(t, cfg.Write(path, true))
}

func TestValidateCatchesMistakes(t *testing.T) {
	cases := map[string]func(*Config){
		"empty instance":       func(c *Config) { c.Instance = "" },
		"no database":          func(c *Config) { c.Database.Name = "" },
		"no docs url":          func(c *Config) { c.Docs.BaseURL = "" },
		"bad maintenance":      func(c *Config) { c.Maintenance.Interval = "fortnightly" },
		"bad backup interval":  func(c *Config) { c.Backup.Interval = "sometimes" },
		"bad backup retention": func(c *Config) { c.Backup.Keep = 0 },
	}
	for name, mutate := range cases {
		cfg := Default("")
		mutate(cfg)
		err := cfg.Validate()
		require.Error(t, err, name)
		assert.Equal(t, errors.InvalidConfiguration, errors.CodeOf(err), name)
	}
}

const legacyConf = `instance: testing
database: /tmp/isodb
backups:
  enabled: true
  interval: 12h
  keep: 3
`

func TestUpgradeFromLegacy(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), DefaultFilename)
	require.NoError(t, os.WriteFile(path, []byte(legacyConf), 0644))

	applied, err := Upgrade(path)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, applied)

	backup, err := os.ReadFile(path + ".v0.bak")
	require.NoError(t, err)
	assert.Equal(t, legacyConf, string(backup))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ConfigVersion, cfg.Version)
	assert.Equal(t, "testing", cfg.Instance)
	assert.Equal(t, "/tmp/isodb", cfg.Database.Path)
	assert.Equal(t, "isomer", cfg.Database.Name)
	assert.Equal(t, "12h", cfg.Backup.Interval)
	assert.Equal(t, 3, cfg.Backup.Keep)
	assert.True(t, cfg.Maintenance.Enabled)
	assert.NoError(t, cfg.Validate())
}

func TestUpgradeCurrentIsNoop(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultFilename)
	require.NoError(t, Default("").Save(path))

	applied, err := Upgrade(path)
	require.NoError(t, err)
	assert.Empty(t, applied)

	_, err = os.Stat(path + ".v3.bak")
	assert.True(t, os.IsNotExist(err))
}

func TestUpgradeRejectsNewerVersions(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultFilename)
	require.NoError(t, os.WriteFile(path, []byte("version: 99\n"), 0644))

	_, err := Upgrade(path)
	require.Error(t, err)
	assert.Equal(t, errors.InvalidConfiguration, errors.CodeOf(err))
}

func TestCheckPaths(t *testing.T) {
	base := t.TempDir()
	cfg := Default(base)
	cfg.Paths.MinimumFreeMB = 0

	for _, status := range cfg.CheckPaths() {
		assert.False(t, status.Exists, status.Name)
	}
	require.Error(t, cfg.CheckEnvironment())

	require.NoError(t, cfg.EnsurePaths())
	for _, status := range cfg.CheckPaths() {
		assert.True(t, status.Exists, status.Name)
		assert.True(t, status.Writable, status.Name)
		assert.True(t, status.Sufficient, status.Name)
	}
	assert.NoError(t, cfg.CheckEnvironment())
}

func TestCheckEnvironmentFlagsLowSpace(t *testing.T) {
	cfg := Default(t.TempDir())
	require.NoError(t, cfg.EnsurePaths())
	cfg.Paths.MinimumFreeMB = 1 << 40

	err := cfg.CheckEnvironment()
	require.Error(t, err)
	assert.Equal(t, errors.InvalidEnvironment, errors.CodeOf(err))
	assert.Contains(t, err.Error(), "low on space")
}
