package backend

import (
	"context"
	"fmt"
	"log/slog"

	"rentroll/internal/records/memory"
	"rentroll/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{
		logger: logger,
	}
}

// CreateBackend implements Factory.CreateBackend. A watched memory backend
// keeps reloading until ctx is cancelled.
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*Result, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case SQLiteBackend:
		return f.createSQLiteBackend(config)
	case MemoryBackend:
		return f.createMemoryBackend(ctx, config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createSQLiteBackend(config Config) (*Result, error) {
	repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}
	repo.SetDefaultSettings(config.DefaultSettings)

	f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)

	return &Result{
		Store:   repo,
		Cleanup: repo.Close,
		Ping:    repo.Ping,
	}, nil
}

func (f *DefaultFactory) createMemoryBackend(ctx context.Context, config Config) (*Result, error) {
	store, err := memory.NewFromFile(config.SeedFile, memory.WithDefaultSettings(config.DefaultSettings))
	if err != nil {
		return nil, fmt.Errorf("failed to load seed file: %w", err)
	}

	if config.WatchSeed {
		go func() {
			if err := store.Watch(ctx, config.SeedFile, f.logger, config.OnReload); err != nil {
				f.logger.Error("Seed watcher failed", "error", err, "path", config.SeedFile)
			}
		}()
	}

	f.logger.Info("Initialized memory backend",
		"seed_file", config.SeedFile,
		"watch", config.WatchSeed)

	return &Result{Store: store}, nil
}
