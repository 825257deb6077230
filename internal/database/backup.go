package database

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/ri0t/isomer/internal/config"
	"github.com/ri0t/isomer/internal/logging"
)

// BackupManager writes periodic snapshots of the store and rotates old
// ones out.
type BackupManager struct {
	store    *Store
	dir      string
	keep     int
	interval time.Duration
}

// BackupInfo summarizes one snapshot.
type BackupInfo struct {
	Path      string
	SizeBytes int64
	Pruned    int
	Duration  time.Duration
}

// NewBackupManager builds the backup component from the backup section
// of the configuration.
func NewBackupManager(store *Store, cfg *config.Config) *BackupManager {
	keep := cfg.Backup.Keep
	if keep < 1 {
		keep = 1
	}
	return &BackupManager{
		store:    store,
		dir:      cfg.Paths.Backup,
		keep:     keep,
		interval: cfg.BackupInterval(),
	}
}

// Name identifies the component.
func (b *BackupManager) Name() string { return "backup" }

// RunOnce snapshots the store into the backup directory and prunes
// snapshots beyond the retention count.
func (b *BackupManager) RunOnce(ctx context.Context) (BackupInfo, error) {
	timer := logging.StartTimer(logging.EmitterBackup, "RunOnce")
	start := time.Now()
	defer timer.Stop()

	info := BackupInfo{}
	if err := os.MkdirAll(b.dir, 0755); err != nil {
		return info, fmt.Errorf("failed to create backup directory: %w", err)
	}

	stamp := time.Now().UTC().Format("20060102-150405.000000")
	info.Path = filepath.Join(b.dir, "isomer_"+stamp+".db")

	// VACUUM INTO produces a compact, consistent copy without
	// blocking readers.
	if _, err := b.store.DB().ExecContext(ctx, "VACUUM INTO ?", info.Path); err != nil {
		return info, fmt.Errorf("snapshot failed: %w", err)
	}

	if stat, err := os.Stat(info.Path); err == nil {
		info.SizeBytes = stat.Size()
	}

	pruned, err := b.prune()
	if err != nil {
		logging.Get(logging.EmitterBackup).Warn("Backup rotation failed: %v", err)
	}
	info.Pruned = pruned
	info.Duration = time.Since(start)

	logging.Backup("Snapshot written to %s (%d bytes, %d pruned)",
		info.Path, info.SizeBytes, info.Pruned)
	return info, nil
}

// Snapshots lists the snapshots currently on disk, oldest first.
func (b *BackupManager) Snapshots() ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(b.dir, "isomer_*.db"))
	if err != nil {
		return nil, err
	}
	sort.Strings(matches)
	return matches, nil
}

func (b *BackupManager) prune() (int, error) {
	snapshots, err := b.Snapshots()
	if err != nil {
		return 0, err
	}
	if len(snapshots) <= b.keep {
		return 0, nil
	}

	pruned := 0
	for _, path := range snapshots[:len(snapshots)-b.keep] {
		if err := os.Remove(path); err != nil {
			return pruned, err
		}
		pruned++
	}
	return pruned, nil
}

// Run snapshots the store on the configured interval until the context
// ends.
func (b *BackupManager) Run(ctx context.Context) error {
	logging.Backup("Backup component running every %s, keeping %d snapshots", b.interval, b.keep)

	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logging.Backup("Backup component stopping")
			return nil
		case <-ticker.C:
			if _, err := b.RunOnce(ctx); err != nil {
				logging.Get(logging.EmitterBackup).Error("Backup pass failed: %v", err)
			}
		}
	}
}
