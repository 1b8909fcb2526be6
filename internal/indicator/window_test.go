package indicator_test

import (
	"testing"

	"github.com/alejandrodnm/stockbot/internal/indicator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRollingWindow_NotReadyUntilFull(t *testing.T) {
	w := indicator.NewRollingWindow(3)

	w.Push(1)
	w.Push(2)
	require.False(t, w.IsFull())

	_, err := w.Sum()
	assert.ErrorIs(t, err, indicator.ErrNotReady)
	_, err = w.Mean()
	assert.ErrorIs(t, err, indicator.ErrNotReady)
	_, err = w.Max()
	assert.ErrorIs(t, err, indicator.ErrNotReady)
	_, err = w.Min()
	assert.ErrorIs(t, err, indicator.ErrNotReady)

	w.Push(3)
	require.True(t, w.IsFull())
}

func TestRollingWindow_Aggregates(t *testing.T) {
	w := indicator.NewRollingWindow(3)
	for _, v := range []float64{4, 1, 7} {
		w.Push(v)
	}

	sum, err := w.Sum()
	require.NoError(t, err)
	assert.InDelta(t, 12, sum, 1e-9)

	mean, err := w.Mean()
	require.NoError(t, err)
	assert.InDelta(t, 4, mean, 1e-9)

	max, err := w.Max()
	require.NoError(t, err)
	assert.InDelta(t, 7, max, 1e-9)

	min, err := w.Min()
	require.NoError(t, err)
	assert.InDelta(t, 1, min, 1e-9)
}

func TestRollingWindow_EvictsOldest(t *testing.T) {
	w := indicator.NewRollingWindow(3)
	for _, v := range []float64{10, 1, 2, 3} {
		w.Push(v)
	}

	// El 10 ya salió de la ventana.
	sum, err := w.Sum()
	require.NoError(t, err)
	assert.InDelta(t, 6, sum, 1e-9)

	max, err := w.Max()
	require.NoError(t, err)
	assert.InDelta(t, 3, max, 1e-9)
	assert.Equal(t, 3, w.Len())
	assert.Equal(t, 3, w.Cap())
}

func TestRollingWindow_RunningSumStaysExact(t *testing.T) {
	w := indicator.NewRollingWindow(5)
	for i := 0; i < 1000; i++ {
		w.Push(float64(i % 7))
	}

	var want float64
	for i := 995; i < 1000; i++ {
		want += float64(i % 7)
	}
	sum, err := w.Sum()
	require.NoError(t, err)
	assert.InDelta(t, want, sum, 1e-6)
}

func TestNewRollingWindow_PanicsOnBadCapacity(t *testing.T) {
	assert.Panics(t, func() { indicator.NewRollingWindow(0) })
	assert.Panics(t, func() { indicator.NewRollingWindow(-1) })
}
