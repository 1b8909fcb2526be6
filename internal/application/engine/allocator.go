package engine

import (
	"fmt"
	"sort"

	"github.com/alejandrodnm/stockbot/internal/domain"
	"github.com/alejandrodnm/stockbot/internal/indicator"
	"github.com/alejandrodnm/stockbot/internal/ports"
)

// oscState is the per-symbol crossover state machine for the oscillation
// policy: {flat, long}, transitions only on %K/%D crossover events.
type oscState struct {
	long         bool
	prevK, prevD float64
	seen         bool
}

// Allocator converts a RankSnapshot into allocation instructions: the DI
// trend policy for the top bucket, the %K/%D crossover policy for the
// bottom bucket, and forced liquidation for symbols that dropped out of
// both buckets while still holding a position.
type Allocator struct {
	portfolio ports.PortfolioReader
	osc       map[string]*oscState
}

// NewAllocator creates an allocator reading current positions from the
// given portfolio.
func NewAllocator(portfolio ports.PortfolioReader) *Allocator {
	return &Allocator{
		portfolio: portfolio,
		osc:       make(map[string]*oscState),
	}
}

// Allocate emits the instructions for one bar. views must contain the
// indicator snapshot of every ready symbol; capital_ppi comes from the
// snapshot itself (1 / (|top|+|bot|)), so total target exposure never
// exceeds 100%.
func (a *Allocator) Allocate(snap domain.RankSnapshot, views map[string]indicator.Snapshot) []domain.AllocationInstruction {
	ppi := snap.CapitalPPI()
	inBucket := make(map[string]bool, len(snap.Top)+len(snap.Bot))
	var out []domain.AllocationInstruction

	// Trend policy: +DI above -DI keeps the symbol long, otherwise flat.
	for _, e := range snap.Top {
		inBucket[e.Symbol] = true
		st := a.state(e.Symbol)
		if e.PlusDI > e.MinusDI {
			st.long = true
			out = append(out, domain.NewInstruction(
				e.Symbol, ppi, domain.SideLong,
				fmt.Sprintf("+DI %.2f > -DI %.2f", e.PlusDI, e.MinusDI),
				snap.Timestamp,
			))
		} else {
			st.long = false
			out = append(out, domain.NewInstruction(
				e.Symbol, 0, domain.SideFlat,
				fmt.Sprintf("+DI %.2f <= -DI %.2f", e.PlusDI, e.MinusDI),
				snap.Timestamp,
			))
		}
	}

	// Oscillation policy: instructions only on crossover bars. Between
	// crossovers the previous target is held, so nothing is emitted.
	for _, e := range snap.Bot {
		inBucket[e.Symbol] = true
		v, ok := views[e.Symbol]
		if !ok {
			continue
		}
		st := a.state(e.Symbol)
		if st.seen {
			crossedUp := v.K > v.D && st.prevK <= st.prevD
			crossedDown := v.K < v.D && st.prevK >= st.prevD
			switch {
			case crossedUp && !st.long:
				st.long = true
				out = append(out, domain.NewInstruction(
					e.Symbol, ppi, domain.SideLong,
					fmt.Sprintf("%%K %.2f crossed above %%D %.2f", v.K, v.D),
					snap.Timestamp,
				))
			case crossedDown && st.long:
				st.long = false
				out = append(out, domain.NewInstruction(
					e.Symbol, 0, domain.SideFlat,
					fmt.Sprintf("%%K %.2f crossed below %%D %.2f", v.K, v.D),
					snap.Timestamp,
				))
			}
		}
	}

	// Remember this bar's %K/%D for every ready symbol, not only the
	// bottom bucket, so a symbol entering the bucket next bar can detect
	// a crossover immediately.
	for sym, v := range views {
		st := a.state(sym)
		st.prevK, st.prevD = v.K, v.D
		st.seen = true
	}

	// Forced liquidation: a symbol holding a position but absent from
	// both buckets gets an explicit flat, so no position is orphaned.
	var dropped []string
	for sym, qty := range a.portfolio.Positions() {
		if qty == 0 || inBucket[sym] {
			continue
		}
		dropped = append(dropped, sym)
	}
	sort.Strings(dropped)
	for _, sym := range dropped {
		a.state(sym).long = false
		out = append(out, domain.NewInstruction(
			sym, 0, domain.SideFlat, "dropped from ranking", snap.Timestamp,
		))
	}

	return out
}

func (a *Allocator) state(symbol string) *oscState {
	st, ok := a.osc[symbol]
	if !ok {
		st = &oscState{}
		a.osc[symbol] = st
	}
	return st
}
