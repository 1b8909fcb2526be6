package main

import (
	"context"
	"errors"
	"log/slog"
	"os"

	"github.com/alejandrodnm/stockbot/config"
	"github.com/alejandrodnm/stockbot/internal/adapters/binance"
	"github.com/alejandrodnm/stockbot/internal/adapters/notify"
	"github.com/alejandrodnm/stockbot/internal/adapters/portfolio"
	"github.com/alejandrodnm/stockbot/internal/adapters/storage"
	"github.com/alejandrodnm/stockbot/internal/application/engine"
	"github.com/alejandrodnm/stockbot/internal/domain"
	"github.com/alejandrodnm/stockbot/internal/ports"
)

// runLive polls Binance klines forever. Indicator state is pre-warmed with
// recent history so the engine does not spend its first di_window*2 live
// bars warming up; the poller is primed so no historical bar is delivered
// twice.
func runLive(ctx context.Context, cfg *config.Config, engCfg engine.Config, book *portfolio.Sim, store *storage.SQLiteStorage, notifier *notify.Console) {
	slog.Info("live polling mode",
		"interval", cfg.Source.Interval,
		"poll", cfg.Source.Poll,
		"warmup_bars", cfg.Source.WarmupBars,
	)

	poller := binance.New(binance.Config{
		Interval:     cfg.Source.Interval,
		PollInterval: cfg.Source.Poll,
	})

	source, err := warmup(ctx, poller, cfg.Run.Universe, cfg.Source.WarmupBars)
	if err != nil {
		slog.Error("failed to pre-warm indicator state", "err", err)
		os.Exit(1)
	}

	var runStore ports.RunStorage
	if store != nil {
		runStore = store
	}

	eng := engine.New(engCfg, source, book, book, runStore, notifier)
	if _, err := eng.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("live run exited with error", "err", err)
		os.Exit(1)
	}
}

// warmupSource serves the fetched history for each symbol first, then
// hands the stream over to the live poller.
type warmupSource struct {
	history map[string][]domain.Bar
	live    ports.BarSource
}

func warmup(ctx context.Context, poller *binance.Source, universe []string, bars int) (*warmupSource, error) {
	src := &warmupSource{
		history: make(map[string][]domain.Bar, len(universe)),
		live:    poller,
	}
	for _, sym := range universe {
		hist, err := poller.FetchBars(ctx, sym, bars)
		if err != nil {
			return nil, err
		}
		src.history[sym] = hist
		if len(hist) > 0 {
			poller.Prime(sym, hist[len(hist)-1].Timestamp)
		}
		slog.Debug("warmup history fetched", "symbol", sym, "bars", len(hist))
	}
	return src, nil
}

func (w *warmupSource) NextBar(ctx context.Context, symbol string) (domain.Bar, error) {
	if hist := w.history[symbol]; len(hist) > 0 {
		bar := hist[0]
		w.history[symbol] = hist[1:]
		return bar, nil
	}
	return w.live.NextBar(ctx, symbol)
}
