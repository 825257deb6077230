package database

import (
	"context"
	"fmt"
	"time"

	"github.com/ri0t/isomer/internal/config"
	"github.com/ri0t/isomer/internal/logging"
)

// Maintenance runs periodic store upkeep: integrity check, collection
// statistics, free-space checks on the managed locations, vacuum and
// WAL checkpoint.
type Maintenance struct {
	store *Store
	cfg   *config.Config
}

// MaintenanceReport summarizes one upkeep pass.
type MaintenanceReport struct {
	Integrity     string
	Vacuumed      bool
	Collections   map[string]int64
	SpaceWarnings []string
	Duration      time.Duration
}

// OK reports whether the integrity check passed.
func (r MaintenanceReport) OK() bool {
	return r.Integrity == "ok"
}

// NewMaintenance builds the maintenance component.
func NewMaintenance(store *Store, cfg *config.Config) *Maintenance {
	return &Maintenance{store: store, cfg: cfg}
}

// Name identifies the component.
func (m *Maintenance) Name() string { return "maintenance" }

// RunOnce performs a single upkeep pass.
func (m *Maintenance) RunOnce(ctx context.Context) (MaintenanceReport, error) {
	timer := logging.StartTimer(logging.EmitterMaintenance, "RunOnce")
	start := time.Now()
	defer timer.Stop()

	report := MaintenanceReport{}
	db := m.store.DB()

	if err := db.QueryRowContext(ctx, "PRAGMA integrity_check").Scan(&report.Integrity); err != nil {
		return report, fmt.Errorf("integrity check failed: %w", err)
	}
	if !report.OK() {
		logging.Get(logging.EmitterMaintenance).Error("Integrity check reported: %s", report.Integrity)
		report.Duration = time.Since(start)
		return report, nil
	}

	status, err := m.store.Stats()
	if err != nil {
		logging.Get(logging.EmitterMaintenance).Warn("Collection statistics failed: %v", err)
	} else {
		report.Collections = status.Collections
	}

	for _, path := range m.cfg.CheckPaths() {
		switch {
		case !path.Exists:
			report.SpaceWarnings = append(report.SpaceWarnings,
				fmt.Sprintf("%s location missing: %s", path.Name, path.Path))
		case !path.Writable:
			report.SpaceWarnings = append(report.SpaceWarnings,
				fmt.Sprintf("%s location not writable: %s", path.Name, path.Path))
		case !path.Sufficient:
			report.SpaceWarnings = append(report.SpaceWarnings,
				fmt.Sprintf("%s location below %d MB free: %s",
					path.Name, m.cfg.Paths.MinimumFreeMB, path.Path))
		}
	}
	for _, warning := range report.SpaceWarnings {
		logging.Get(logging.EmitterMaintenance).Warn("%s", warning)
	}

	if _, err := db.ExecContext(ctx, "ANALYZE"); err != nil {
		logging.Get(logging.EmitterMaintenance).Warn("ANALYZE failed: %v", err)
	}

	if _, err := db.ExecContext(ctx, "VACUUM"); err != nil {
		logging.Get(logging.EmitterMaintenance).Warn("VACUUM failed: %v", err)
	} else {
		report.Vacuumed = true
	}

	if _, err := db.ExecContext(ctx, "PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		logging.Get(logging.EmitterMaintenance).Warn("WAL checkpoint failed: %v", err)
	}

	report.Duration = time.Since(start)
	logging.Get(logging.EmitterMaintenance).Info("Maintenance pass done in %s, integrity=%s, warnings=%d",
		report.Duration.Round(time.Millisecond), report.Integrity, len(report.SpaceWarnings))
	return report, nil
}

// Run performs upkeep passes on the configured interval until the
// context ends.
func (m *Maintenance) Run(ctx context.Context) error {
	interval := m.cfg.MaintenanceInterval()
	logging.Get(logging.EmitterMaintenance).Info("Maintenance component running every %s", interval)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logging.Get(logging.EmitterMaintenance).Info("Maintenance component stopping")
			return nil
		case <-ticker.C:
			if report, err := m.RunOnce(ctx); err != nil {
				logging.Get(logging.EmitterMaintenance).Error("Maintenance pass failed: %v", err)
			} else if !report.OK() {
				logging.Get(logging.EmitterMaintenance).Error("Store integrity degraded: %s", report.Integrity)
			}
		}
	}
}
