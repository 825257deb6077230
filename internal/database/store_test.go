package database

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ri0t/isomer/internal/config"
	"github.com/ri0t/isomer/internal/errors"
	"github.com/ri0t/isomer/internal/schemata"
)

func newTestStore(t *testing.T) (*Store, *config.Config) {
	t.Helper()
	cfg := config.Default(t.TempDir())
	store, err := Initialize(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store, cfg
}

func tagObject(name string) Object {
	return Object{
		"name":        name,
		"color":       "#336699",
		"description": "tag " + name,
	}
}

func TestInitializeCreatesAllCollections(t *testing.T) {
	store, _ := newTestStore(t)

	names, err := store.Collections()
	require.NoError(t, err)
	assert.Equal(t, schemata.Names(), names)
}

func TestInitializeFailsWithoutDatabase(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))

	cfg := config.Default(t.TempDir())
	cfg.Database.Path = filepath.Join(blocker, "sub")

	_, err := Initialize(context.Background(), cfg)
	require.Error(t, err)
	assert.Equal(t, errors.NoDatabase, errors.CodeOf(err))
}

func TestSaveGeneratesUUIDAndRoundTrips(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	obj := tagObject("engine")
	id, err := store.Save(ctx, "tag", obj)
	require.NoError(t, err)
	require.NotEmpty(t, id)
	assert.Equal(t, id, obj.UUID())

	loaded, err := store.FindOne(ctx, "tag", id)
	require.NoError(t, err)
	assert.Equal(t, "engine", loaded.Name())
	assert.Equal(t, "tag engine", loaded["description"])
	assert.Equal(t, id, loaded.UUID())
}

func TestSaveUpdatesExisting(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	obj := tagObject("engine")
	id, err := store.Save(ctx, "tag", obj)
	require.NoError(t, err)

	obj["description"] = "updated"
	again, err := store.Save(ctx, "tag", obj)
	require.NoError(t, err)
	assert.Equal(t, id, again)

	count, err := store.Count(ctx, "tag")
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)

	loaded, err := store.FindOne(ctx, "tag", id)
	require.NoError(t, err)
	assert.Equal(t, "updated", loaded["description"])
}

func TestSaveRejectsInvalidObjects(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	_, err := store.Save(ctx, "tag", Object{"name": "x", "flavour": "strawberry"})
	require.Error(t, err)
	assert.Equal(t, errors.ObjectInvalid, errors.CodeOf(err))

	count, err := store.Count(ctx, "tag")
	require.NoError(t, err)
	assert.EqualValues(t, 0, count)
}

func TestSaveRejectsUnknownSchema(t *testing.T) {
	store, _ := newTestStore(t)

	_, err := store.Save(context.Background(), "no-such-schema", Object{})
	require.Error(t, err)
	assert.Equal(t, errors.InvalidSchema, errors.CodeOf(err))
}

func TestFindWithFilter(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	for _, name := range []string{"engine", "galley", "bridge"} {
		_, err := store.Save(ctx, "tag", tagObject(name))
		require.NoError(t, err)
	}

	all, err := store.Find(ctx, "tag", nil)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	matched, err := store.Find(ctx, "tag", map[string]interface{}{"name": "galley"})
	require.NoError(t, err)
	require.Len(t, matched, 1)
	assert.Equal(t, "galley", matched[0].Name())

	matched, err = store.Find(ctx, "tag", map[string]interface{}{"description": "tag engine"})
	require.NoError(t, err)
	require.Len(t, matched, 1)
	assert.Equal(t, "engine", matched[0].Name())

	none, err := store.Find(ctx, "tag", map[string]interface{}{"name": "anchor"})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestDeleteReportsMissingObjects(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	id, err := store.Save(ctx, "tag", tagObject("engine"))
	require.NoError(t, err)

	require.NoError(t, store.Delete(ctx, "tag", id))

	err = store.Delete(ctx, "tag", id)
	require.ErrorIs(t, err, ErrNotFound)

	_, err = store.FindOne(ctx, "tag", id)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestDropEmptiesCollection(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	for _, name := range []string{"engine", "galley"} {
		_, err := store.Save(ctx, "tag", tagObject(name))
		require.NoError(t, err)
	}

	require.NoError(t, store.Drop(ctx, "tag"))

	count, err := store.Count(ctx, "tag")
	require.NoError(t, err)
	assert.EqualValues(t, 0, count)

	// The collection itself survives.
	_, err = store.Save(ctx, "tag", tagObject("bridge"))
	assert.NoError(t, err)
}

func TestExportWritesJSONArray(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	for _, name := range []string{"engine", "galley"} {
		_, err := store.Save(ctx, "tag", tagObject(name))
		require.NoError(t, err)
	}

	dir := t.TempDir()
	files, err := store.ExportAll(ctx, dir, ExportOptions{Pretty: true})
	require.NoError(t, err)
	assert.Len(t, files, len(schemata.Names()))

	data, err := os.ReadFile(filepath.Join(dir, "tag.json"))
	require.NoError(t, err)

	var decoded []map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Len(t, decoded, 2)

	empty, err := os.ReadFile(filepath.Join(dir, "user.json"))
	require.NoError(t, err)
	var none []map[string]interface{}
	require.NoError(t, json.Unmarshal(empty, &none))
	assert.Empty(t, none)
}

func TestExportOmitsFields(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	_, err := store.Save(ctx, "tag", tagObject("engine"))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, store.Export(ctx, "tag", &buf, ExportOptions{Omit: []string{"color", "uuid"}}))

	var decoded []map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded, 1)
	assert.NotContains(t, decoded[0], "color")
	assert.NotContains(t, decoded[0], "uuid")
	assert.Equal(t, "engine", decoded[0]["name"])
}

func TestStatsCountsCollections(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	_, err := store.Save(ctx, "tag", tagObject("engine"))
	require.NoError(t, err)

	status, err := store.Stats()
	require.NoError(t, err)
	assert.Equal(t, store.Path(), status.Path)
	assert.Positive(t, status.SizeBytes)
	assert.EqualValues(t, 1, status.Collections["tag"])
	assert.EqualValues(t, 0, status.Collections["user"])
}

func TestValidateAllFindsTamperedObjects(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	_, err := store.Save(ctx, "tag", tagObject("engine"))
	require.NoError(t, err)

	problems, err := store.ValidateAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, problems)

	// Sneak an invalid document past Save.
	_, err = store.DB().Exec(
		`INSERT INTO objects_tag (uuid, name, data) VALUES (?, ?, ?)`,
		"broken", "broken", `{"uuid": "not-a-uuid", "name": "broken"}`)
	require.NoError(t, err)

	problems, err = store.ValidateAll(ctx)
	require.NoError(t, err)
	require.Len(t, problems, 1)
	assert.Equal(t, "tag", problems[0].Schema)
	assert.Equal(t, "not-a-uuid", problems[0].UUID)
	assert.Equal(t, errors.ObjectInvalid, errors.CodeOf(problems[0].Err))
}

func TestMigrationsUpgradeOldStores(t *testing.T) {
	cfg := config.Default(t.TempDir())
	path := cfg.Database.File()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))

	// Lay down a collection in the first-release shape: no name and
	// no updated_at columns.
	old, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	_, err = old.Exec(`CREATE TABLE objects_tag (
		uuid TEXT PRIMARY KEY,
		data TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`)
	require.NoError(t, err)
	require.NoError(t, old.Close())

	store, err := Initialize(context.Background(), cfg)
	require.NoError(t, err)
	defer store.Close()

	assert.True(t, columnExists(store.DB(), "objects_tag", "name"))
	assert.True(t, columnExists(store.DB(), "objects_tag", "updated_at"))

	_, err = store.Save(context.Background(), "tag", tagObject("engine"))
	assert.NoError(t, err)
}
