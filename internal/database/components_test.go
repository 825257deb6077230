package database

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/ri0t/isomer/internal/config"
)

func TestMaintenanceRunOnce(t *testing.T) {
	store, cfg := newTestStore(t)
	ctx := context.Background()

	_, err := store.Save(ctx, "tag", tagObject("engine"))
	require.NoError(t, err)

	m := NewMaintenance(store, cfg)
	assert.Equal(t, "maintenance", m.Name())

	// None of the managed locations exist yet.
	report, err := m.RunOnce(ctx)
	require.NoError(t, err)
	assert.True(t, report.OK())
	assert.NotEmpty(t, report.SpaceWarnings)

	require.NoError(t, cfg.EnsurePaths())
	cfg.Paths.MinimumFreeMB = 0

	report, err = m.RunOnce(ctx)
	require.NoError(t, err)
	assert.True(t, report.OK())
	assert.True(t, report.Vacuumed)
	assert.Empty(t, report.SpaceWarnings)
	assert.EqualValues(t, 1, report.Collections["tag"])
	assert.Positive(t, report.Duration)
}

func TestMaintenanceRunStopsOnCancel(t *testing.T) {
	cfg := config.Default(t.TempDir())
	require.NoError(t, cfg.EnsurePaths())
	cfg.Paths.MinimumFreeMB = 0
	cfg.Maintenance.Interval = "10ms"

	store, err := Initialize(context.Background(), cfg)
	require.NoError(t, err)

	m := NewMaintenance(store, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("maintenance loop did not stop")
	}

	require.NoError(t, store.Close())
	goleak.VerifyNone(t)
}

func TestBackupSnapshotAndRotation(t *testing.T) {
	store, cfg := newTestStore(t)
	ctx := context.Background()

	_, err := store.Save(ctx, "tag", tagObject("engine"))
	require.NoError(t, err)

	cfg.Backup.Keep = 2
	b := NewBackupManager(store, cfg)
	assert.Equal(t, "backup", b.Name())

	var last BackupInfo
	for i := 0; i < 3; i++ {
		last, err = b.RunOnce(ctx)
		require.NoError(t, err)
		assert.Positive(t, last.SizeBytes)

		_, err := os.Stat(last.Path)
		require.NoError(t, err)
	}
	assert.Equal(t, 1, last.Pruned)

	snapshots, err := b.Snapshots()
	require.NoError(t, err)
	assert.Len(t, snapshots, 2)
	assert.Equal(t, last.Path, snapshots[len(snapshots)-1])

	// A snapshot is a usable store on its own.
	restored, err := Open(ctx, snapshots[len(snapshots)-1])
	require.NoError(t, err)
	defer restored.Close()

	count, err := restored.Count(ctx, "tag")
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestBackupRunStopsOnCancel(t *testing.T) {
	cfg := config.Default(t.TempDir())
	cfg.Backup.Interval = "10ms"

	store, err := Initialize(context.Background(), cfg)
	require.NoError(t, err)

	b := NewBackupManager(store, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- b.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)

		snapshots, serr := b.Snapshots()
		require.NoError(t, serr)
		assert.NotEmpty(t, snapshots)
	case <-time.After(5 * time.Second):
		t.Fatal("backup loop did not stop")
	}

	require.NoError(t, store.Close())
	goleak.VerifyNone(t)
}
