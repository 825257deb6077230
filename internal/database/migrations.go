package database

import (
	"database/sql"
	"fmt"

	"github.com/ri0t/isomer/internal/logging"
)

// Migration adds one column to an existing collection table.
type Migration struct {
	Table  string
	Column string
	Def    string
}

// pendingMigrations lists schema migrations for stores created by older
// releases. The first release stored collections as (uuid, data,
// created_at); the name column was denormalized out of the JSON payload
// for listings, updated_at came with upsert support. Missing tables are
// skipped quietly. ALTER TABLE cannot add non-constant defaults, so
// writes set updated_at explicitly instead of relying on the column.
var pendingMigrations = []Migration{
	{"objects_systemconfig", "name", "TEXT"},
	{"objects_systemconfig", "updated_at", "DATETIME"},
	{"objects_client", "name", "TEXT"},
	{"objects_client", "updated_at", "DATETIME"},
	{"objects_profile", "name", "TEXT"},
	{"objects_profile", "updated_at", "DATETIME"},
	{"objects_user", "name", "TEXT"},
	{"objects_user", "updated_at", "DATETIME"},
	{"objects_logmessage", "name", "TEXT"},
	{"objects_logmessage", "updated_at", "DATETIME"},
	{"objects_tag", "name", "TEXT"},
	{"objects_tag", "updated_at", "DATETIME"},
}

// RunMigrations applies column migrations for existing stores.
func RunMigrations(db *sql.DB) error {
	timer := logging.StartTimer(logging.EmitterDB, "RunMigrations")
	defer timer.Stop()

	applied := 0
	skipped := 0

	for _, m := range pendingMigrations {
		if !tableExists(db, m.Table) {
			skipped++
			continue
		}
		if columnExists(db, m.Table, m.Column) {
			skipped++
			continue
		}

		query := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", m.Table, m.Column, m.Def)
		if _, err := db.Exec(query); err != nil {
			logging.Get(logging.EmitterDB).Warn("Migration failed (may already exist): %s.%s: %v",
				m.Table, m.Column, err)
			skipped++
			continue
		}
		logging.DB("Migration applied: added %s.%s", m.Table, m.Column)
		applied++
	}

	logging.DBDebug("Schema migrations complete: applied=%d, skipped=%d", applied, skipped)
	return nil
}

func tableExists(db *sql.DB, table string) bool {
	var name string
	err := db.QueryRow(
		`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&name)
	return err == nil
}

func columnExists(db *sql.DB, table, column string) bool {
	rows, err := db.Query(fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		logging.DBDebug("PRAGMA table_info(%s) failed: %v", table, err)
		return false
	}
	defer rows.Close()

	for rows.Next() {
		var cid int
		var name, ctype string
		var notnull, pk int
		var dflt interface{}
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dflt, &pk); err != nil {
			continue
		}
		if name == column {
			return true
		}
	}
	return false
}
