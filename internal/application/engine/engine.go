package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/alejandrodnm/stockbot/internal/domain"
	"github.com/alejandrodnm/stockbot/internal/indicator"
	"github.com/alejandrodnm/stockbot/internal/ports"
)

// Policy decides what to do when fewer symbols are ready than the
// configured bucket sizes.
type Policy string

const (
	// PolicyProceed ranks whatever is ready and flags the snapshot partial.
	PolicyProceed Policy = "proceed"
	// PolicySkip emits no instructions for the bar.
	PolicySkip Policy = "skip"
)

// Config is the engine configuration, validated by config.Load before it
// gets here.
type Config struct {
	Name                string
	Universe            []string
	TopRank             int
	BotRank             int
	DIWindow            int
	StochasticWindow    int
	StochasticSmoothing int
	OnInsufficient      Policy
}

// Engine drives the bar-synchronous loop: pull one bar per symbol, update
// indicator state, rank, allocate, execute, record. It is single-writer;
// the only parallelism is the per-symbol indicator update inside a bar,
// which joins before ranking so the ranker always sees a consistent
// snapshot.
type Engine struct {
	cfg       Config
	source    ports.BarSource
	sink      ports.InstructionSink
	portfolio ports.PortfolioReader
	store     ports.RunStorage // optional
	notifier  ports.Notifier   // optional

	tracker   *indicator.Tracker
	allocator *Allocator

	runID     string
	startedAt time.Time
	step      int
	skipped   int
	emitted   int
	exhausted map[string]bool
}

// New wires an engine. store and notifier may be nil.
func New(cfg Config, source ports.BarSource, sink ports.InstructionSink, portfolio ports.PortfolioReader, store ports.RunStorage, notifier ports.Notifier) *Engine {
	return &Engine{
		cfg:       cfg,
		source:    source,
		sink:      sink,
		portfolio: portfolio,
		store:     store,
		notifier:  notifier,
		tracker:   indicator.NewTracker(cfg.Universe, cfg.DIWindow, cfg.StochasticWindow, cfg.StochasticSmoothing),
		allocator: NewAllocator(portfolio),
		runID:     uuid.NewString(),
		startedAt: time.Now().UTC(),
		exhausted: make(map[string]bool),
	}
}

// RunID returns the identifier assigned to this run.
func (e *Engine) RunID() string { return e.runID }

// Run steps through bars until every stream is exhausted or the context
// is cancelled, then returns the run summary.
func (e *Engine) Run(ctx context.Context) (domain.RunSummary, error) {
	slog.Info("engine starting",
		"run", e.runID,
		"name", e.cfg.Name,
		"universe", len(e.cfg.Universe),
		"top_rank", e.cfg.TopRank,
		"bot_rank", e.cfg.BotRank,
	)

	for {
		select {
		case <-ctx.Done():
			return e.summary(), ctx.Err()
		default:
		}

		done, err := e.Step(ctx)
		if err != nil {
			return e.summary(), err
		}
		if done {
			break
		}
	}

	summary := e.summary()
	if e.store != nil {
		if err := e.store.SaveRunSummary(ctx, summary); err != nil {
			slog.Warn("engine: error saving run summary", "err", err)
		}
	}
	slog.Info("engine finished",
		"run", e.runID,
		"steps", summary.Steps,
		"skipped", summary.SkippedSteps,
		"instructions", summary.Instructions,
		"dropped", summary.Dropped,
		"equity", fmt.Sprintf("%.2f", summary.FinalEquity),
	)
	return summary, nil
}

// Step processes exactly one simulation bar across the whole universe.
// It returns true once every symbol stream is finished. A bar either
// completes fully or the engine halts; no partial state is ever visible
// to the ranker.
func (e *Engine) Step(ctx context.Context) (done bool, err error) {
	bars, ts, err := e.pullBars(ctx)
	if err != nil {
		return false, err
	}
	if len(bars) == 0 {
		return true, nil
	}

	// Per-symbol updates are independent; fan out and join before ranking.
	g, _ := errgroup.WithContext(ctx)
	for _, bar := range bars {
		g.Go(func() error {
			if err := e.tracker.Apply(bar); err != nil {
				var dataErr *indicator.DataError
				if errors.As(err, &dataErr) {
					slog.Warn("engine: symbol excluded from ranking",
						"run", e.runID, "symbol", dataErr.Symbol, "reason", dataErr.Reason)
					return nil
				}
				return err
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return false, fmt.Errorf("engine.Step: %w", err)
	}

	e.step++

	snaps := e.tracker.ReadySnapshots()
	views := make(map[string]indicator.Snapshot, len(snaps))
	for _, s := range snaps {
		views[s.Symbol] = s
	}

	rank, rankErr := Rank(ts, snaps, e.cfg.TopRank, e.cfg.BotRank)
	if rankErr != nil && !errors.Is(rankErr, ErrInsufficientUniverse) {
		return false, fmt.Errorf("engine.Step: %w", rankErr)
	}

	var instructions []domain.AllocationInstruction
	if rankErr != nil && e.cfg.OnInsufficient == PolicySkip {
		e.skipped++
		slog.Debug("engine: bar skipped, universe not ready",
			"run", e.runID, "step", e.step, "ready", len(snaps))
	} else {
		if rank.Partial {
			slog.Debug("engine: partial ranking",
				"run", e.runID, "step", e.step, "ready", len(snaps))
		}
		instructions = e.allocator.Allocate(rank, views)
	}

	closes := make(map[string]float64, len(bars))
	for _, bar := range bars {
		closes[bar.Symbol] = bar.Close
	}
	if err := e.sink.Execute(ctx, closes, instructions); err != nil {
		return false, fmt.Errorf("engine.Step: execute: %w", err)
	}
	e.emitted += len(instructions)

	if e.notifier != nil {
		if err := e.notifier.Notify(ctx, rank, instructions); err != nil {
			slog.Warn("engine: notifier error", "err", err)
		}
	}
	if e.store != nil {
		if err := e.store.SaveSnapshot(ctx, e.runID, e.step, rank); err != nil {
			slog.Warn("engine: error saving snapshot", "err", err)
		}
		if len(instructions) > 0 {
			if err := e.store.SaveInstructions(ctx, e.runID, e.step, instructions); err != nil {
				slog.Warn("engine: error saving instructions", "err", err)
			}
		}
	}

	return false, nil
}

// pullBars fetches the next bar for every live symbol. Streams that end
// are retired; quarantined symbols are no longer pulled.
func (e *Engine) pullBars(ctx context.Context) ([]domain.Bar, time.Time, error) {
	var bars []domain.Bar
	var ts time.Time

	for _, sym := range e.cfg.Universe {
		if e.exhausted[sym] || e.tracker.Dropped(sym) {
			continue
		}
		bar, err := e.source.NextBar(ctx, sym)
		if errors.Is(err, ports.ErrEndOfStream) {
			e.exhausted[sym] = true
			continue
		}
		if err != nil {
			return nil, time.Time{}, fmt.Errorf("engine.pullBars: %s: %w", sym, err)
		}
		bars = append(bars, bar)
		if bar.Timestamp.After(ts) {
			ts = bar.Timestamp
		}
	}
	return bars, ts, nil
}

func (e *Engine) summary() domain.RunSummary {
	return domain.RunSummary{
		RunID:        e.runID,
		Name:         e.cfg.Name,
		StartedAt:    e.startedAt,
		FinishedAt:   time.Now().UTC(),
		Steps:        e.step,
		SkippedSteps: e.skipped,
		Instructions: e.emitted,
		Dropped:      e.tracker.DroppedSymbols(),
		FinalEquity:  e.portfolio.Equity(),
	}
}
