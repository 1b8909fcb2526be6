package indicator

import "math"

// DMI tracks the Wilder Directional Movement family (+DI, -DI, ADX) for a
// single symbol, one bar at a time.
//
// Raw TR/+DM/-DM samples accumulate in rolling windows until the window
// first fills; the windowed sum seeds the Wilder smoothed series, which
// from then on follows the recurrence s = s - s/window + raw. ADX needs a
// further full window of DX samples before Ready reports true.
type DMI struct {
	window int

	prevHigh, prevLow, prevClose float64
	bars                         int

	rawTR, rawPlusDM, rawMinusDM *RollingWindow
	smTR, smPlusDM, smMinusDM    float64

	plusDI, minusDI float64
	dxSamples       int
	adxSum          float64
	adx             float64
}

// NewDMI creates a tracker with the given smoothing window (14 by
// convention).
func NewDMI(window int) *DMI {
	if window <= 0 {
		panic("indicator: DMI window must be positive")
	}
	return &DMI{
		window:     window,
		rawTR:      NewRollingWindow(window),
		rawPlusDM:  NewRollingWindow(window),
		rawMinusDM: NewRollingWindow(window),
	}
}

// TrueRange is the largest of the three bar-to-bar range measures.
func TrueRange(high, low, prevClose float64) float64 {
	tr := high - low
	if v := math.Abs(high - prevClose); v > tr {
		tr = v
	}
	if v := math.Abs(low - prevClose); v > tr {
		tr = v
	}
	return tr
}

// DirectionalMovement returns the raw (+DM, -DM) pair for one bar. Only
// the dominant side counts; inside bars contribute nothing.
func DirectionalMovement(high, low, prevHigh, prevLow float64) (plusDM, minusDM float64) {
	up := high - prevHigh
	down := prevLow - low
	if up > down && up > 0 {
		plusDM = up
	}
	if down > up && down > 0 {
		minusDM = down
	}
	return plusDM, minusDM
}

// Update folds one bar into the smoothed series.
func (d *DMI) Update(high, low, close float64) {
	if d.bars == 0 {
		d.bars = 1
		d.prevHigh, d.prevLow, d.prevClose = high, low, close
		return
	}

	tr := TrueRange(high, low, d.prevClose)
	plusDM, minusDM := DirectionalMovement(high, low, d.prevHigh, d.prevLow)
	d.prevHigh, d.prevLow, d.prevClose = high, low, close
	d.bars++

	d.rawTR.Push(tr)
	d.rawPlusDM.Push(plusDM)
	d.rawMinusDM.Push(minusDM)

	switch trSamples := d.bars - 1; {
	case trSamples < d.window:
		return // still warming
	case trSamples == d.window:
		// Window just filled: seed the Wilder series with the plain sums.
		d.smTR, _ = d.rawTR.Sum()
		d.smPlusDM, _ = d.rawPlusDM.Sum()
		d.smMinusDM, _ = d.rawMinusDM.Sum()
	default:
		d.smTR += tr - d.smTR/float64(d.window)
		d.smPlusDM += plusDM - d.smPlusDM/float64(d.window)
		d.smMinusDM += minusDM - d.smMinusDM/float64(d.window)
	}

	if d.smTR > 0 {
		d.plusDI = 100 * d.smPlusDM / d.smTR
		d.minusDI = 100 * d.smMinusDM / d.smTR
	} else {
		d.plusDI, d.minusDI = 0, 0
	}

	// Flat market (+DI + -DI == 0): DX is defined as 0, not a division fault.
	dx := 0.0
	if sum := d.plusDI + d.minusDI; sum > 0 {
		dx = 100 * math.Abs(d.plusDI-d.minusDI) / sum
	}

	if d.dxSamples < d.window {
		d.adxSum += dx
		d.dxSamples++
		if d.dxSamples == d.window {
			d.adx = d.adxSum / float64(d.window)
		}
		return
	}
	d.adx = (d.adx*float64(d.window-1) + dx) / float64(d.window)
}

// Ready reports whether ADX has a full window of DX samples behind it.
func (d *DMI) Ready() bool { return d.dxSamples >= d.window }

// Values returns (+DI, -DI, ADX), or ErrNotReady during warm-up.
func (d *DMI) Values() (plusDI, minusDI, adx float64, err error) {
	if !d.Ready() {
		return 0, 0, 0, ErrNotReady
	}
	return d.plusDI, d.minusDI, d.adx, nil
}
