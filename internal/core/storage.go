package core

import (
	"context"
	"fmt"
	"io"

	"btocore/internal/infra/persistence/memory"
	"btocore/internal/infra/persistence/postgres"
	"btocore/internal/infra/persistence/sqlite"
	"btocore/pkg/domain"
)

// StorageDriver identifies a concrete persistent storage implementation.
type StorageDriver string

const (
	StorageMemory   StorageDriver = "memory"   // in-memory only (tests / ephemeral)
	StorageSQLite   StorageDriver = "sqlite"   // embedded sqlite file
	StoragePostgres StorageDriver = "postgres" // PostgreSQL server
)

// OpenPersistentStore opens the record store named by cfg. A nil engine
// installs the default rule set.
func OpenPersistentStore(ctx context.Context, cfg Config, engine *domain.RulesEngine) (domain.PersistentStore, error) {
	if engine == nil {
		engine = NewDefaultRulesEngine()
	}
	switch cfg.StorageDriver {
	case StorageMemory:
		return memory.NewStore(engine), nil
	case StorageSQLite, "":
		store, err := sqlite.NewStore(cfg.SQLitePath, engine)
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		return store, nil
	case StoragePostgres:
		dsn := cfg.PostgresDSN
		if dsn == "" {
			dsn = postgres.DefaultDSN
		}
		store, err := postgres.NewStore(ctx, dsn, engine)
		if err != nil {
			return nil, fmt.Errorf("open postgres store: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %s", cfg.StorageDriver)
	}
}

// CloseStore releases the store's connection if it holds one.
func CloseStore(store domain.PersistentStore) error {
	if closer, ok := store.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
