package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/punchamoorthee/orionledger/internal/api"
	"github.com/punchamoorthee/orionledger/internal/auth"
	"github.com/punchamoorthee/orionledger/internal/config"
	"github.com/punchamoorthee/orionledger/internal/repository"
	"github.com/punchamoorthee/orionledger/internal/service"
	"github.com/punchamoorthee/orionledger/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := store.Open(ctx, cfg, logger)
	if err != nil {
		logger.Error("open store", "driver", cfg.StoreDriver, "error", err)
		os.Exit(1)
	}
	defer st.Close()

	migrated, err := store.Migrate(ctx, st)
	if err != nil {
		logger.Error("migrate ledger document", "error", err)
		os.Exit(1)
	}
	if migrated {
		logger.Info("legacy ledger document rewritten to current schema")
	}

	// Initialize Layers
	repo := repository.New(st, repository.Options{
		InitialBalance: cfg.InitialBalance(),
		PasswordCost:   cfg.PasswordCost,
	}, logger)
	ledger := service.NewLedger(
		repo,
		auth.NewGate(repo, logger),
		service.NewTransferEngine(repo, logger),
		service.NewStatsAggregator(),
	)
	handler := api.NewHandler(ledger, auth.NewTokenIssuer(cfg.TokenSecret, cfg.TokenTTL), logger)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           api.NewRouter(handler),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("server starting", "port", cfg.Port, "driver", cfg.StoreDriver, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server stopped", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", "error", err)
	}
	logger.Info("server stopped")
}
