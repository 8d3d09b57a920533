package backend

import (
	"context"
	"fmt"

	"condo/internal/log"
	"condo/internal/storage"
	"condo/internal/storage/memory"
)

// Open creates the configured store and applies the seed file, if any.
func Open(ctx context.Context, cfg Config, logger *log.Logger) (Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.Discard()
	}
	logger = logger.WithComponent(log.ComponentStorage)

	switch cfg.Type {
	case SQLiteBackend:
		return openSQLite(ctx, cfg, logger)
	case MemoryBackend:
		return openMemory(cfg, logger)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", cfg.Type)
	}
}

func openSQLite(ctx context.Context, cfg Config, logger *log.Logger) (Store, error) {
	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}

	if cfg.SeedFile != "" {
		recs, err := loadSeed(cfg.SeedFile)
		if err != nil {
			repo.Close()
			return nil, err
		}
		if err := repo.Seed(ctx, recs); err != nil {
			repo.Close()
			return nil, fmt.Errorf("seed %s: %w", cfg.SeedFile, err)
		}
		logger.Info("Seeded SQLite backend", "seed_file", cfg.SeedFile, "payments", len(recs.Payments))
	}

	logger.Info("Initialized SQLite backend", "db_path", cfg.SQLiteDBPath)
	return repo, nil
}

func openMemory(cfg Config, logger *log.Logger) (Store, error) {
	store, err := memory.NewFromFile(cfg.SeedFile)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize memory backend: %w", err)
	}
	logger.Info("Initialized memory backend", "seed_file", cfg.SeedFile)
	return store, nil
}

// Seed loads path into an already open store.
func Seed(ctx context.Context, store Store, path string) (storage.Records, error) {
	recs, err := loadSeed(path)
	if err != nil {
		return storage.Records{}, err
	}
	switch s := store.(type) {
	case *storage.SQLiteRepository:
		err = s.Seed(ctx, recs)
	case *memory.Store:
		s.Load(recs)
	default:
		err = fmt.Errorf("backend %T cannot be seeded", store)
	}
	return recs, err
}

func loadSeed(path string) (storage.Records, error) {
	ds, err := storage.LoadDataset(path)
	if err != nil {
		return storage.Records{}, err
	}
	recs, err := ds.Records()
	if err != nil {
		return storage.Records{}, fmt.Errorf("dataset %s: %w", path, err)
	}
	return recs, nil
}
