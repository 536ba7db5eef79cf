package core

import (
	"fmt"
	"os"

	"grantcore/internal/infra/persistence/memory"
	"grantcore/internal/infra/persistence/postgres"
	"grantcore/internal/infra/persistence/sqlite"
)

// StorageDriver identifies a concrete persistent storage implementation.
type StorageDriver string

const (
	StorageMemory   StorageDriver = "memory"   // in-memory only (tests / ephemeral)
	StorageSQLite   StorageDriver = "sqlite"   // embedded sqlite file
	StoragePostgres StorageDriver = "postgres" // PostgreSQL server
)

// StorageConfig selects and parameterizes a storage backend.
type StorageConfig struct {
	Driver      StorageDriver
	SQLitePath  string
	PostgresDSN string
}

// OpenStore constructs the backend described by cfg. An empty driver
// defaults to sqlite.
func OpenStore(cfg StorageConfig, engine *RulesEngine) (PersistentStore, error) {
	driver := cfg.Driver
	if driver == "" {
		driver = StorageSQLite
	}
	switch driver {
	case StorageMemory:
		return memory.NewStore(engine), nil
	case StorageSQLite:
		return sqlite.NewStore(cfg.SQLitePath, engine)
	case StoragePostgres:
		return postgres.NewStore(cfg.PostgresDSN, engine)
	default:
		return nil, fmt.Errorf("unknown storage driver %s", driver)
	}
}

// OpenPersistentStore selects a backend using environment variables.
// Defaults to sqlite when unset.
//
//	GRANTCORE_STORAGE_DRIVER: memory|sqlite|postgres (default sqlite)
//	GRANTCORE_SQLITE_PATH: path to sqlite file (default ./grantcore.db)
//	GRANTCORE_POSTGRES_DSN: postgres DSN when driver=postgres
func OpenPersistentStore(engine *RulesEngine) (PersistentStore, error) {
	return OpenStore(StorageConfig{
		Driver:      StorageDriver(os.Getenv("GRANTCORE_STORAGE_DRIVER")),
		SQLitePath:  os.Getenv("GRANTCORE_SQLITE_PATH"),
		PostgresDSN: os.Getenv("GRANTCORE_POSTGRES_DSN"),
	}, engine)
}
