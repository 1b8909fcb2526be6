package portfolio

import (
	"context"
	"fmt"
	"sync"

	"github.com/alejandrodnm/stockbot/internal/domain"
)

// Sim is the paper portfolio: it implements both ports.PortfolioReader and
// ports.InstructionSink, executing instructions at bar close with no
// slippage or fees. Target weights are applied against current equity, so
// the book is always self-financing.
type Sim struct {
	mu        sync.Mutex
	cash      float64
	marks     map[string]float64 // last known close per symbol
	positions map[string]float64 // quantity per symbol
}

// NewSim creates a portfolio with the given starting cash.
func NewSim(initialCapital float64) *Sim {
	return &Sim{
		cash:      initialCapital,
		marks:     make(map[string]float64),
		positions: make(map[string]float64),
	}
}

// Execute marks every symbol to its latest close, then rebalances each
// instructed symbol to its target weight.
func (s *Sim) Execute(_ context.Context, closes map[string]float64, instructions []domain.AllocationInstruction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for sym, px := range closes {
		s.marks[sym] = px
	}

	for _, ins := range instructions {
		px := s.marks[ins.Symbol]
		if px <= 0 {
			return fmt.Errorf("portfolio.Execute: no price for %s", ins.Symbol)
		}

		targetQty := 0.0
		if ins.Side == domain.SideLong {
			targetQty = ins.TargetWeight * s.equityLocked() / px
		}

		delta := targetQty - s.positions[ins.Symbol]
		s.cash -= delta * px
		if targetQty == 0 {
			delete(s.positions, ins.Symbol)
		} else {
			s.positions[ins.Symbol] = targetQty
		}
	}
	return nil
}

// Position returns the current quantity held for symbol, 0 if none.
func (s *Sim) Position(symbol string) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.positions[symbol]
}

// Positions returns a copy of all nonzero positions.
func (s *Sim) Positions() map[string]float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]float64, len(s.positions))
	for sym, qty := range s.positions {
		out[sym] = qty
	}
	return out
}

// Cash returns the uninvested balance.
func (s *Sim) Cash() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cash
}

// Equity returns cash plus positions marked to the latest known closes.
func (s *Sim) Equity() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.equityLocked()
}

func (s *Sim) equityLocked() float64 {
	equity := s.cash
	for sym, qty := range s.positions {
		equity += qty * s.marks[sym]
	}
	return equity
}
