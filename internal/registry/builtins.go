package registry

import (
	"github.com/ri0t/isomer/internal/config"
	"github.com/ri0t/isomer/internal/database"
)

func init() {
	MustRegister("maintenance", func(cfg *config.Config, store *database.Store) (Component, error) {
		return database.NewMaintenance(store, cfg), nil
	})
	MustRegister("backup", func(cfg *config.Config, store *database.Store) (Component, error) {
		return database.NewBackupManager(store, cfg), nil
	})
}
