package indicator

import "errors"

// ErrNotReady is returned when a window or indicator is queried before
// enough bars have been pushed to fill it. Warm-up is a normal state, not
// a failure; callers must check readiness instead of reading sentinels.
var ErrNotReady = errors.New("indicator: not enough data")

// RollingWindow is a fixed-capacity ring buffer over float64 values with
// O(1) push and windowed aggregates. Aggregates are only defined once the
// window is full.
type RollingWindow struct {
	values []float64
	pos    int
	count  int
	sum    float64
}

// NewRollingWindow creates a window holding the last capacity values.
func NewRollingWindow(capacity int) *RollingWindow {
	if capacity <= 0 {
		panic("indicator: rolling window capacity must be positive")
	}
	return &RollingWindow{values: make([]float64, capacity)}
}

// Push appends v, evicting the oldest value once capacity is reached.
func (w *RollingWindow) Push(v float64) {
	if w.count == len(w.values) {
		w.sum -= w.values[w.pos]
	} else {
		w.count++
	}
	w.values[w.pos] = v
	w.sum += v
	w.pos = (w.pos + 1) % len(w.values)
}

// IsFull reports whether capacity values have been pushed.
func (w *RollingWindow) IsFull() bool { return w.count == len(w.values) }

// Len returns the number of values currently held.
func (w *RollingWindow) Len() int { return w.count }

// Cap returns the window capacity.
func (w *RollingWindow) Cap() int { return len(w.values) }

// Sum returns the sum over the full window.
func (w *RollingWindow) Sum() (float64, error) {
	if !w.IsFull() {
		return 0, ErrNotReady
	}
	return w.sum, nil
}

// Mean returns the arithmetic mean over the full window.
func (w *RollingWindow) Mean() (float64, error) {
	if !w.IsFull() {
		return 0, ErrNotReady
	}
	return w.sum / float64(w.count), nil
}

// Max returns the largest value in the full window.
func (w *RollingWindow) Max() (float64, error) {
	if !w.IsFull() {
		return 0, ErrNotReady
	}
	m := w.values[0]
	for _, v := range w.values[1:] {
		if v > m {
			m = v
		}
	}
	return m, nil
}

// Min returns the smallest value in the full window.
func (w *RollingWindow) Min() (float64, error) {
	if !w.IsFull() {
		return 0, ErrNotReady
	}
	m := w.values[0]
	for _, v := range w.values[1:] {
		if v < m {
			m = v
		}
	}
	return m, nil
}
