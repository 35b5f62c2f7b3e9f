package cli

import (
	"fmt"
	"log/slog"

	"github.com/roach88/vcq/internal/config"
	"github.com/roach88/vcq/internal/store"
	"github.com/roach88/vcq/internal/store/badgerkv"
	"github.com/roach88/vcq/internal/store/memkv"
)

// openStore opens the configured backend. An empty badger path is an
// in-memory database.
func openStore(cfg config.StorageConfig) (store.KeyColumnValueStore, error) {
	slog.Debug("opening store", "backend", cfg.Backend, "path", cfg.Path)
	switch cfg.Backend {
	case config.BackendMemory:
		return memkv.New(), nil
	case config.BackendSQLite:
		return store.Open(cfg.Path)
	case config.BackendBadger:
		return badgerkv.Open(cfg.Path)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

func closeStore(kv store.KeyColumnValueStore) {
	if err := kv.Close(); err != nil {
		slog.Error("error closing store", "error", err)
	}
}
