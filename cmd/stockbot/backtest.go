package main

import (
	"context"
	"errors"
	"log/slog"
	"os"

	"github.com/alejandrodnm/stockbot/config"
	"github.com/alejandrodnm/stockbot/internal/adapters/bundle"
	"github.com/alejandrodnm/stockbot/internal/adapters/notify"
	"github.com/alejandrodnm/stockbot/internal/adapters/portfolio"
	"github.com/alejandrodnm/stockbot/internal/adapters/storage"
	"github.com/alejandrodnm/stockbot/internal/application/engine"
	"github.com/alejandrodnm/stockbot/internal/ports"
)

// runBacktest replays the CSV bundle from start to finish and prints the
// run summary. The source is finite, so the engine stops on its own.
func runBacktest(ctx context.Context, cfg *config.Config, engCfg engine.Config, book *portfolio.Sim, store *storage.SQLiteStorage, notifier *notify.Console) {
	slog.Info("backtest mode", "bundle", cfg.Source.BundleDir)

	source, err := bundle.NewCSV(cfg.Source.BundleDir, cfg.Run.Universe)
	if err != nil {
		slog.Error("failed to load bundle", "err", err)
		os.Exit(1)
	}

	var runStore ports.RunStorage
	if store != nil {
		runStore = store
	}

	eng := engine.New(engCfg, source, book, book, runStore, notifier)
	summary, err := eng.Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("backtest exited with error", "err", err)
		os.Exit(1)
	}

	notifier.PrintSummary(summary)
}
