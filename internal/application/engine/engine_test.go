package engine_test

import (
	"context"
	"testing"
	"time"

	"github.com/alejandrodnm/stockbot/internal/application/engine"
	"github.com/alejandrodnm/stockbot/internal/domain"
	"github.com/alejandrodnm/stockbot/internal/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memSource sirve series pre-cargadas en memoria, una por símbolo, y
// devuelve ErrEndOfStream al agotarlas.
type memSource struct {
	bars   map[string][]domain.Bar
	cursor map[string]int
}

func newMemSource() *memSource {
	return &memSource{bars: map[string][]domain.Bar{}, cursor: map[string]int{}}
}

func (m *memSource) NextBar(_ context.Context, symbol string) (domain.Bar, error) {
	i := m.cursor[symbol]
	if i >= len(m.bars[symbol]) {
		return domain.Bar{}, ports.ErrEndOfStream
	}
	m.cursor[symbol] = i + 1
	return m.bars[symbol][i], nil
}

// recordingBook guarda cada instrucción ejecutada, por vela, y lleva una
// contabilidad mínima de posiciones para la liquidación por drop-out.
type recordingBook struct {
	positions map[string]float64
	perBar    [][]domain.AllocationInstruction
}

func newRecordingBook() *recordingBook {
	return &recordingBook{positions: map[string]float64{}}
}

func (r *recordingBook) Execute(_ context.Context, _ map[string]float64, ins []domain.AllocationInstruction) error {
	r.perBar = append(r.perBar, ins)
	for _, i := range ins {
		if i.Side == domain.SideLong {
			r.positions[i.Symbol] = i.TargetWeight
		} else {
			delete(r.positions, i.Symbol)
		}
	}
	return nil
}

func (r *recordingBook) Position(symbol string) float64 { return r.positions[symbol] }
func (r *recordingBook) Positions() map[string]float64  { return r.positions }
func (r *recordingBook) Equity() float64                { return 1000 }

func (r *recordingBook) all() []domain.AllocationInstruction {
	var out []domain.AllocationInstruction
	for _, bar := range r.perBar {
		out = append(out, bar...)
	}
	return out
}

func day(n int) time.Time {
	return time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n)
}

// trendBars: subida monótona, +DM constante y -DM nulo, ADX alto.
func trendBars(symbol string, n int) []domain.Bar {
	out := make([]domain.Bar, 0, n)
	for i := 0; i < n; i++ {
		base := 100 + 2*float64(i)
		out = append(out, domain.Bar{
			Symbol: symbol, Timestamp: day(i),
			Open: base, High: base + 3, Low: base - 1, Close: base + 2, Volume: 1000,
		})
	}
	return out
}

// rangeBars: onda triangular, sin tendencia sostenida, ADX bajo y cruces
// %K/%D periódicos.
func rangeBars(symbol string, n int) []domain.Bar {
	wave := []float64{50, 52, 54, 56, 54, 52, 50, 48}
	out := make([]domain.Bar, 0, n)
	for i := 0; i < n; i++ {
		px := wave[i%len(wave)]
		out = append(out, domain.Bar{
			Symbol: symbol, Timestamp: day(i),
			Open: px, High: px + 1, Low: px - 1, Close: px, Volume: 1000,
		})
	}
	return out
}

func testConfig() engine.Config {
	return engine.Config{
		Name:                "e2e",
		Universe:            []string{"TREND", "RANGE", "SHORT"},
		TopRank:             1,
		BotRank:             1,
		DIWindow:            3,
		StochasticWindow:    3,
		StochasticSmoothing: 2,
		OnInsufficient:      engine.PolicyProceed,
	}
}

// Escenario completo de 20 velas y 3 símbolos: TREND sube monótono (debe
// acabar en top y largo), RANGE oscila (debe acabar en bot y operar solo
// en cruces), SHORT se queda sin histórico antes de calentar (no debe
// recibir jamás una instrucción).
func TestEngine_EndToEnd(t *testing.T) {
	source := newMemSource()
	source.bars["TREND"] = trendBars("TREND", 20)
	source.bars["RANGE"] = rangeBars("RANGE", 20)
	source.bars["SHORT"] = trendBars("SHORT", 4)

	book := newRecordingBook()
	eng := engine.New(testConfig(), source, book, book, nil, nil)

	summary, err := eng.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 20, summary.Steps)
	assert.Empty(t, summary.Dropped)
	assert.NotEmpty(t, eng.RunID())

	all := book.all()
	require.NotEmpty(t, all)

	var trendLongs, rangeIns int
	var lastRangeSide domain.Side
	for _, ins := range all {
		assert.NotEqual(t, "SHORT", ins.Symbol, "warming symbol must never be instructed")

		switch ins.Symbol {
		case "TREND":
			// +DI siempre por encima: solo órdenes largas con ppi = 1/2.
			assert.Equal(t, domain.SideLong, ins.Side)
			assert.InDelta(t, 0.5, ins.TargetWeight, 1e-9)
			trendLongs++
		case "RANGE":
			// Máquina de estados: los lados deben alternar empezando por largo.
			if rangeIns == 0 {
				assert.Equal(t, domain.SideLong, ins.Side)
			} else {
				assert.NotEqual(t, lastRangeSide, ins.Side, "crossover sides must alternate")
			}
			lastRangeSide = ins.Side
			rangeIns++
		}
	}
	assert.NotZero(t, trendLongs, "TREND never went long")
	assert.NotZero(t, rangeIns, "RANGE never crossed")

	// La exposición total objetivo por vela nunca supera el 100%.
	for i, bar := range book.perBar {
		weights := prevWeights(book.perBar[:i])
		for _, ins := range bar {
			weights[ins.Symbol] = ins.TargetWeight
		}
		var sum float64
		for _, w := range weights {
			sum += w
		}
		assert.LessOrEqual(t, sum, 1.0+1e-9, "bar %d", i)
	}

	// Nada instruido antes de que ADX tenga ventana completa (vela 6).
	for i := 0; i < 5; i++ {
		assert.Empty(t, book.perBar[i], "bar %d should still be warming", i)
	}
}

// prevWeights reconstruye los pesos objetivo vigentes tras una secuencia
// de velas ya ejecutadas.
func prevWeights(bars [][]domain.AllocationInstruction) map[string]float64 {
	out := map[string]float64{}
	for _, bar := range bars {
		for _, ins := range bar {
			if ins.Side == domain.SideLong {
				out[ins.Symbol] = ins.TargetWeight
			} else {
				delete(out, ins.Symbol)
			}
		}
	}
	return out
}

// Con política skip y universo insuficiente no se emite ninguna instrucción.
func TestEngine_SkipPolicyEmitsNothing(t *testing.T) {
	source := newMemSource()
	source.bars["TREND"] = trendBars("TREND", 20)
	source.bars["RANGE"] = rangeBars("RANGE", 20)
	source.bars["SHORT"] = trendBars("SHORT", 4)

	cfg := testConfig()
	cfg.TopRank = 2 // pide más símbolos ready de los que habrá (SHORT nunca calienta)
	cfg.OnInsufficient = engine.PolicySkip

	book := newRecordingBook()
	eng := engine.New(cfg, source, book, book, nil, nil)

	summary, err := eng.Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, book.all())
	assert.Equal(t, 20, summary.SkippedSteps)
}

// Una vela corrupta pone el símbolo en cuarentena pero el run continúa.
func TestEngine_QuarantineKeepsRunning(t *testing.T) {
	source := newMemSource()
	source.bars["TREND"] = trendBars("TREND", 20)

	corrupted := rangeBars("RANGE", 20)
	corrupted[10].Timestamp = corrupted[9].Timestamp // duplicado
	source.bars["RANGE"] = corrupted
	source.bars["SHORT"] = trendBars("SHORT", 4)

	book := newRecordingBook()
	eng := engine.New(testConfig(), source, book, book, nil, nil)

	summary, err := eng.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"RANGE"}, summary.Dropped)
	assert.Equal(t, 20, summary.Steps)

	// Tras la cuarentena RANGE no vuelve a aparecer en instrucciones nuevas
	// salvo el flat forzoso al salir del ranking.
	for i := 11; i < len(book.perBar); i++ {
		for _, ins := range book.perBar[i] {
			if ins.Symbol == "RANGE" {
				assert.Equal(t, domain.SideFlat, ins.Side)
			}
		}
	}
}
