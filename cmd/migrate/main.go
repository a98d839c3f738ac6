// Command migrate rewrites a legacy ledger document into the current schema.
// It is safe to run repeatedly.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"

	"github.com/punchamoorthee/orionledger/internal/config"
	"github.com/punchamoorthee/orionledger/internal/store"
)

func main() {
	path := flag.String("path", "", "ledger document to migrate (overrides STORE_PATH)")
	driver := flag.String("driver", "", "store driver: file | sqlite | postgres (overrides STORE_DRIVER)")
	flag.Parse()

	if *path != "" {
		os.Setenv("STORE_PATH", *path)
	}
	if *driver != "" {
		os.Setenv("STORE_DRIVER", *driver)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))

	ctx := context.Background()
	st, err := store.Open(ctx, cfg, logger)
	if err != nil {
		logger.Error("open store", "driver", cfg.StoreDriver, "error", err)
		os.Exit(1)
	}
	defer st.Close()

	l, err := st.Load(ctx)
	if err != nil {
		logger.Error("load ledger", "error", err)
		os.Exit(1)
	}
	logger.Info("ledger loaded", "schema_version", l.SchemaVersion, "revision", l.Revision, "accounts", len(l.Accounts))

	migrated, err := store.Migrate(ctx, st)
	if err != nil {
		logger.Error("migrate", "error", err)
		os.Exit(1)
	}
	if !migrated {
		logger.Info("ledger already at current schema, nothing to do")
		return
	}
	logger.Info("ledger migrated", "total_balance", l.TotalBalance().String())
}
