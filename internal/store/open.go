package store

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/punchamoorthee/orionledger/internal/config"
	"github.com/punchamoorthee/orionledger/internal/domain"
)

// Open builds the backend selected by cfg.StoreDriver.
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger) (Store, error) {
	switch cfg.StoreDriver {
	case config.DriverFile:
		return NewFileStore(cfg.StorePath, logger)
	case config.DriverSQLite:
		return OpenSQLite(cfg.StorePath, logger)
	case config.DriverPostgres:
		return NewPostgresStore(ctx, cfg.DBSource, logger)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}

// Migrate rewrites a legacy document in the canonical schema. It reports
// whether a rewrite happened.
func Migrate(ctx context.Context, s Store) (bool, error) {
	l, err := s.Load(ctx)
	if err != nil {
		return false, err
	}
	if l.SchemaVersion >= domain.SchemaVersion {
		return false, nil
	}
	if err := s.Save(ctx, l); err != nil {
		return false, fmt.Errorf("save migrated ledger: %w", err)
	}
	return true, nil
}
