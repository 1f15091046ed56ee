package backend

import (
	"fmt"
	"log/slog"

	"finanzas/internal/jsonstore"
	"finanzas/internal/storage"
)

// BackendType selects the storage engine behind the record store.
type BackendType string

const (
	JSONFileBackend BackendType = "jsonfile"
	SQLiteBackend   BackendType = "sqlite"
)

func (bt BackendType) String() string { return string(bt) }

// IsValid returns true if the backend type is valid.
func (bt BackendType) IsValid() bool {
	switch bt {
	case JSONFileBackend, SQLiteBackend:
		return true
	}
	return false
}

// Config holds configuration for backend creation.
type Config struct {
	Type BackendType

	// JSON file backend
	DataDir string

	// SQLite backend
	SQLiteDBPath string
}

// Factory creates record stores from configuration.
type Factory struct {
	logger *slog.Logger
}

func NewFactory(logger *slog.Logger) *Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &Factory{logger: logger}
}

// CreateStore builds the configured store. The returned Store owns its
// resources; callers close it on shutdown.
func (f *Factory) CreateStore(config Config) (Store, error) {
	if !config.Type.IsValid() {
		return nil, fmt.Errorf("invalid backend type: %s", config.Type)
	}

	switch config.Type {
	case SQLiteBackend:
		repo, err := storage.NewSQLiteStore(config.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("initialize sqlite store: %w", err)
		}
		f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)
		return repo, nil
	case JSONFileBackend:
		store, err := jsonstore.Open(config.DataDir)
		if err != nil {
			return nil, fmt.Errorf("initialize json file store: %w", err)
		}
		f.logger.Info("Initialized JSON file backend", "data_dir", config.DataDir)
		return store, nil
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}
