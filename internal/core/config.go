package core

import (
	"fmt"
	"os"
	"strings"

	"btocore/internal/blob"
)

// Environment variables read by ConfigFromEnv.
const (
	EnvStorageDriver      = "BTOCORE_STORAGE_DRIVER"
	EnvSQLitePath         = "BTOCORE_SQLITE_PATH"
	EnvPostgresDSN        = "BTOCORE_POSTGRES_DSN"
	EnvDeleteOpenProjects = "BTOCORE_DELETE_OPEN_PROJECTS"
)

// Config captures process level settings for the engine and its stores.
type Config struct {
	StorageDriver StorageDriver
	SQLitePath    string
	PostgresDSN   string
	DeletePolicy  DeletePolicy
	Blob          blob.Config
}

// ConfigFromEnv reads configuration from the environment. Unset values fall
// back to sqlite storage, the sqlite default path, the forbid delete policy
// and the filesystem blob driver.
//
//	BTOCORE_STORAGE_DRIVER: memory|sqlite|postgres (default sqlite)
//	BTOCORE_SQLITE_PATH: sqlite file (default ./btocore.db)
//	BTOCORE_POSTGRES_DSN: postgres DSN when driver=postgres
//	BTOCORE_DELETE_OPEN_PROJECTS: forbid|allow (default forbid)
//	BTOCORE_BLOB_*: see blob.ConfigFromEnv
func ConfigFromEnv() Config {
	cfg := Config{
		StorageDriver: StorageDriver(strings.ToLower(strings.TrimSpace(os.Getenv(EnvStorageDriver)))),
		SQLitePath:    strings.TrimSpace(os.Getenv(EnvSQLitePath)),
		PostgresDSN:   strings.TrimSpace(os.Getenv(EnvPostgresDSN)),
		DeletePolicy:  DeletePolicy(strings.ToLower(strings.TrimSpace(os.Getenv(EnvDeleteOpenProjects)))),
		Blob:          blob.ConfigFromEnv(),
	}
	if cfg.StorageDriver == "" {
		cfg.StorageDriver = StorageSQLite
	}
	if cfg.DeletePolicy == "" {
		cfg.DeletePolicy = DeletePolicyForbidOpen
	}
	return cfg
}

// Validate reports the first unusable setting.
func (c Config) Validate() error {
	switch c.StorageDriver {
	case StorageMemory, StorageSQLite, StoragePostgres:
	default:
		return fmt.Errorf("unknown storage driver %q", c.StorageDriver)
	}
	if !c.DeletePolicy.Valid() {
		return fmt.Errorf("unknown delete policy %q (want %s or %s)", c.DeletePolicy, DeletePolicyForbidOpen, DeletePolicyAllow)
	}
	if c.Blob.Driver != "" && !c.Blob.Driver.Valid() {
		return fmt.Errorf("unknown blob driver %q", c.Blob.Driver)
	}
	return nil
}

// ServiceOptions translates configured policy into Service options.
func (c Config) ServiceOptions() []Option {
	var opts []Option
	if c.DeletePolicy.Valid() {
		opts = append(opts, WithDeletePolicy(c.DeletePolicy))
	}
	return opts
}
