package indicator

// Stochastic tracks the %K/%D oscillator for a single symbol over rolling
// high/low windows. %D is a simple moving average of %K over a secondary
// smoothing window.
type Stochastic struct {
	highs *RollingWindow
	lows  *RollingWindow
	k     *RollingWindow
	lastK float64
}

// NewStochastic creates a tracker with the given lookback window and %D
// smoothing window (14 and 3 by convention).
func NewStochastic(window, smoothing int) *Stochastic {
	if window <= 0 || smoothing <= 0 {
		panic("indicator: stochastic windows must be positive")
	}
	return &Stochastic{
		highs: NewRollingWindow(window),
		lows:  NewRollingWindow(window),
		k:     NewRollingWindow(smoothing),
	}
}

// Update folds one bar into the oscillator state.
func (s *Stochastic) Update(high, low, close float64) {
	s.highs.Push(high)
	s.lows.Push(low)
	if !s.highs.IsFull() {
		return
	}

	hh, _ := s.highs.Max()
	ll, _ := s.lows.Min()

	// Flat window (high == low): %K is defined as 0, not a division fault.
	k := 0.0
	if hh > ll {
		k = 100 * (close - ll) / (hh - ll)
	}
	s.lastK = k
	s.k.Push(k)
}

// Ready reports whether both the lookback and the smoothing windows are
// full.
func (s *Stochastic) Ready() bool { return s.k.IsFull() }

// Values returns (%K, %D), or ErrNotReady during warm-up.
func (s *Stochastic) Values() (k, d float64, err error) {
	mean, err := s.k.Mean()
	if err != nil {
		return 0, 0, ErrNotReady
	}
	return s.lastK, mean, nil
}
