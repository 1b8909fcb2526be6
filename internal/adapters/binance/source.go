package binance

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	gobinance "github.com/adshao/go-binance/v2"
	"golang.org/x/time/rate"

	"github.com/alejandrodnm/stockbot/internal/domain"
)

// Config describes the polling source. Market data endpoints are public;
// no API keys are needed.
type Config struct {
	Interval          string        // kline interval, e.g. "1m", "1h", "1d"
	PollInterval      time.Duration // how often to re-check for a new closed kline
	RequestsPerMinute int           // REST budget shared across symbols
}

func (c Config) withDefaults() Config {
	out := c
	if out.Interval == "" {
		out.Interval = "1m"
	}
	if out.PollInterval <= 0 {
		out.PollInterval = 5 * time.Second
	}
	if out.RequestsPerMinute <= 0 {
		out.RequestsPerMinute = 600
	}
	return out
}

// Source implements ports.BarSource and ports.HistoryProvider on top of
// the Binance spot klines API. NextBar blocks (polling, rate-limited)
// until a kline newer than the last delivered one closes, so the stream
// is infinite: it only ends by context cancellation.
type Source struct {
	cfg     Config
	client  *gobinance.Client
	limiter *rate.Limiter

	mu   sync.Mutex
	last map[string]int64 // last delivered kline open time, ms
}

// New creates a polling source.
func New(cfg Config) *Source {
	final := cfg.withDefaults()
	return &Source{
		cfg:     final,
		client:  gobinance.NewClient("", ""),
		limiter: rate.NewLimiter(rate.Limit(float64(final.RequestsPerMinute)/60.0), final.RequestsPerMinute/10+1),
		last:    make(map[string]int64),
	}
}

// FetchBars returns the most recent limit closed klines, oldest first.
func (s *Source) FetchBars(ctx context.Context, symbol string, limit int) ([]domain.Bar, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	// Ask for one extra: the newest kline is usually still open.
	klines, err := s.client.NewKlinesService().
		Symbol(symbol).
		Interval(s.cfg.Interval).
		Limit(limit + 1).
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("binance.FetchBars: %s: %w", symbol, err)
	}

	now := time.Now().UnixMilli()
	out := make([]domain.Bar, 0, len(klines))
	for _, k := range klines {
		if k.CloseTime > now {
			continue // still open
		}
		bar, err := toBar(symbol, k)
		if err != nil {
			return nil, fmt.Errorf("binance.FetchBars: %s: %w", symbol, err)
		}
		out = append(out, bar)
	}
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

// NextBar returns the next closed kline for symbol, waiting for one to
// close if necessary.
func (s *Source) NextBar(ctx context.Context, symbol string) (domain.Bar, error) {
	for {
		if err := s.limiter.Wait(ctx); err != nil {
			return domain.Bar{}, err
		}
		klines, err := s.client.NewKlinesService().
			Symbol(symbol).
			Interval(s.cfg.Interval).
			Limit(2).
			Do(ctx)
		if err != nil {
			return domain.Bar{}, fmt.Errorf("binance.NextBar: %s: %w", symbol, err)
		}

		now := time.Now().UnixMilli()
		for i := len(klines) - 1; i >= 0; i-- {
			k := klines[i]
			if k.CloseTime > now {
				continue
			}
			s.mu.Lock()
			fresh := k.OpenTime > s.last[symbol]
			if fresh {
				s.last[symbol] = k.OpenTime
			}
			s.mu.Unlock()
			if fresh {
				return toBar(symbol, k)
			}
			break
		}

		select {
		case <-ctx.Done():
			return domain.Bar{}, ctx.Err()
		case <-time.After(s.cfg.PollInterval):
		}
	}
}

// Prime seeds the freshness cursor so that NextBar does not re-deliver
// bars already fetched through FetchBars during warm-up.
func (s *Source) Prime(symbol string, lastDelivered time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last[symbol] = lastDelivered.UnixMilli()
}

func toBar(symbol string, k *gobinance.Kline) (domain.Bar, error) {
	fields := [5]string{k.Open, k.High, k.Low, k.Close, k.Volume}
	var vals [5]float64
	for i, raw := range fields {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return domain.Bar{}, fmt.Errorf("bad kline field %q", raw)
		}
		vals[i] = v
	}
	return domain.Bar{
		Symbol:    symbol,
		Timestamp: time.UnixMilli(k.OpenTime).UTC(),
		Open:      vals[0],
		High:      vals[1],
		Low:       vals[2],
		Close:     vals[3],
		Volume:    vals[4],
	}, nil
}
