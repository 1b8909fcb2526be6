package indicator

import (
	"fmt"
	"sort"
	"time"

	"github.com/alejandrodnm/stockbot/internal/domain"
)

// DataError marks a symbol stream as corrupt (out-of-order or duplicate
// timestamp, malformed bar). It is fatal for that symbol only: the tracker
// quarantines it for the rest of the run and the engine keeps going.
type DataError struct {
	Symbol string
	Reason string
}

func (e *DataError) Error() string {
	return fmt.Sprintf("indicator: data error for %s: %s", e.Symbol, e.Reason)
}

// state is the per-symbol indicator record. It lives for the whole run and
// is mutated on every bar of its symbol; only read-only snapshots leave
// the tracker.
type state struct {
	dmi     *DMI
	stoch   *Stochastic
	lastTS  time.Time
	dropped bool
}

// Snapshot is the point-in-time, read-only view of one symbol exposed to
// the ranker and the allocator.
type Snapshot struct {
	Symbol  string
	ADX     float64
	PlusDI  float64
	MinusDI float64
	K       float64
	D       float64
	Ready   bool // both indicator families fully warmed up
}

// Tracker owns the indicator state arena for the whole universe, keyed by
// symbol. States are allocated up front so that per-symbol updates within
// a bar can run in parallel without touching shared structure; the engine
// guarantees at most one writer per symbol per bar.
type Tracker struct {
	diWindow    int
	soWindow    int
	soSmoothing int
	states      map[string]*state
}

// NewTracker creates the arena for the given universe.
func NewTracker(universe []string, diWindow, soWindow, soSmoothing int) *Tracker {
	t := &Tracker{
		diWindow:    diWindow,
		soWindow:    soWindow,
		soSmoothing: soSmoothing,
		states:      make(map[string]*state, len(universe)),
	}
	for _, sym := range universe {
		t.states[sym] = &state{
			dmi:   NewDMI(diWindow),
			stoch: NewStochastic(soWindow, soSmoothing),
		}
	}
	return t
}

// Apply folds one bar into its symbol's state. A malformed bar or a
// timestamp that is not strictly after the previous one quarantines the
// symbol and returns a *DataError; the caller logs it and moves on.
func (t *Tracker) Apply(bar domain.Bar) error {
	st, ok := t.states[bar.Symbol]
	if !ok {
		return fmt.Errorf("indicator: unknown symbol %q", bar.Symbol)
	}
	if st.dropped {
		return &DataError{Symbol: bar.Symbol, Reason: "symbol already quarantined"}
	}
	if err := bar.Validate(); err != nil {
		st.dropped = true
		return &DataError{Symbol: bar.Symbol, Reason: err.Error()}
	}
	if !st.lastTS.IsZero() && !bar.Timestamp.After(st.lastTS) {
		st.dropped = true
		return &DataError{
			Symbol: bar.Symbol,
			Reason: fmt.Sprintf("timestamp %s not after %s", bar.Timestamp.Format(time.RFC3339), st.lastTS.Format(time.RFC3339)),
		}
	}

	st.lastTS = bar.Timestamp
	st.dmi.Update(bar.High, bar.Low, bar.Close)
	st.stoch.Update(bar.High, bar.Low, bar.Close)
	return nil
}

// Dropped reports whether the symbol has been quarantined.
func (t *Tracker) Dropped(symbol string) bool {
	st, ok := t.states[symbol]
	return ok && st.dropped
}

// DroppedSymbols returns the quarantined symbols in lexicographic order.
func (t *Tracker) DroppedSymbols() []string {
	var out []string
	for sym, st := range t.states {
		if st.dropped {
			out = append(out, sym)
		}
	}
	sort.Strings(out)
	return out
}

// Snapshot returns the current view for one symbol.
func (t *Tracker) Snapshot(symbol string) (Snapshot, bool) {
	st, ok := t.states[symbol]
	if !ok || st.dropped {
		return Snapshot{}, false
	}
	return t.snapshot(symbol, st), true
}

// ReadySnapshots returns the views of all live, fully warmed-up symbols,
// sorted by symbol for reproducibility. Symbols still warming up are
// silently excluded; they must never be ranked with partial values.
func (t *Tracker) ReadySnapshots() []Snapshot {
	out := make([]Snapshot, 0, len(t.states))
	for sym, st := range t.states {
		if st.dropped {
			continue
		}
		if snap := t.snapshot(sym, st); snap.Ready {
			out = append(out, snap)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}

func (t *Tracker) snapshot(symbol string, st *state) Snapshot {
	snap := Snapshot{Symbol: symbol}
	plusDI, minusDI, adx, errDI := st.dmi.Values()
	k, d, errSO := st.stoch.Values()
	if errDI != nil || errSO != nil {
		return snap
	}
	snap.ADX, snap.PlusDI, snap.MinusDI = adx, plusDI, minusDI
	snap.K, snap.D = k, d
	snap.Ready = true
	return snap
}
