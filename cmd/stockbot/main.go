package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alejandrodnm/stockbot/config"
	"github.com/alejandrodnm/stockbot/internal/adapters/notify"
	"github.com/alejandrodnm/stockbot/internal/adapters/portfolio"
	"github.com/alejandrodnm/stockbot/internal/adapters/storage"
	"github.com/alejandrodnm/stockbot/internal/application/engine"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	verbose := flag.Bool("verbose", false, "set log level to debug")
	logFormat := flag.String("format", "", "log format: text|json (overrides config)")
	table := flag.Bool("table", false, "print full ranking tables per bar (default: compact 1-line)")
	noStore := flag.Bool("no-store", false, "skip SQLite persistence")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err, "path", *configPath)
		os.Exit(1)
	}

	if *verbose {
		cfg.Log.Level = "debug"
	}
	if *logFormat != "" {
		cfg.Log.Format = *logFormat
	}
	setupLogger(cfg.Log)

	slog.Info("stockbot starting",
		"config", *configPath,
		"run", cfg.Run.Name,
		"source", cfg.Source.Type,
		"universe", len(cfg.Run.Universe),
	)

	var store *storage.SQLiteStorage
	if !*noStore {
		store, err = storage.NewSQLiteStorage(cfg.Storage.DSN)
		if err != nil {
			slog.Error("failed to open storage", "err", err, "dsn", cfg.Storage.DSN)
			os.Exit(1)
		}
		defer store.Close()
	}

	notifier := notify.NewConsole(*table)
	book := portfolio.NewSim(cfg.Portfolio.InitialCapital)

	engCfg := engine.Config{
		Name:                cfg.Run.Name,
		Universe:            cfg.Run.Universe,
		TopRank:             cfg.Run.TopRank,
		BotRank:             cfg.Run.BotRank,
		DIWindow:            cfg.Run.DIWindow,
		StochasticWindow:    cfg.Run.StochasticWindow,
		StochasticSmoothing: cfg.Run.StochasticSmoothing,
		OnInsufficient:      engine.Policy(cfg.Run.OnInsufficient),
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	switch cfg.Source.Type {
	case "bundle":
		runBacktest(ctx, cfg, engCfg, book, store, notifier)
	case "binance":
		runLive(ctx, cfg, engCfg, book, store, notifier)
	}

	slog.Info("stockbot stopped cleanly")
}

func setupLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}
