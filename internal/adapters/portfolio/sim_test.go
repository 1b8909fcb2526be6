package portfolio_test

import (
	"context"
	"testing"
	"time"

	"github.com/alejandrodnm/stockbot/internal/adapters/portfolio"
	"github.com/alejandrodnm/stockbot/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var simTS = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

func TestSim_LongThenFlat(t *testing.T) {
	sim := portfolio.NewSim(1000)
	ctx := context.Background()

	// Entrar largo al 50% con precio 10: 50 unidades, cash 500.
	err := sim.Execute(ctx, map[string]float64{"AAA": 10}, []domain.AllocationInstruction{
		domain.NewInstruction("AAA", 0.5, domain.SideLong, "", simTS),
	})
	require.NoError(t, err)
	assert.InDelta(t, 50, sim.Position("AAA"), 1e-9)
	assert.InDelta(t, 500, sim.Cash(), 1e-9)
	assert.InDelta(t, 1000, sim.Equity(), 1e-9)

	// El precio sube a 12: equity marca la posición al último cierre.
	err = sim.Execute(ctx, map[string]float64{"AAA": 12}, nil)
	require.NoError(t, err)
	assert.InDelta(t, 1100, sim.Equity(), 1e-9)

	// Salida plana: se liquida todo al precio actual.
	err = sim.Execute(ctx, map[string]float64{"AAA": 12}, []domain.AllocationInstruction{
		domain.NewInstruction("AAA", 0, domain.SideFlat, "", simTS),
	})
	require.NoError(t, err)
	assert.Zero(t, sim.Position("AAA"))
	assert.InDelta(t, 1100, sim.Cash(), 1e-9)
	assert.Empty(t, sim.Positions())
}

func TestSim_RebalancesTowardTarget(t *testing.T) {
	sim := portfolio.NewSim(1000)
	ctx := context.Background()

	err := sim.Execute(ctx, map[string]float64{"AAA": 10}, []domain.AllocationInstruction{
		domain.NewInstruction("AAA", 0.5, domain.SideLong, "", simTS),
	})
	require.NoError(t, err)

	// Mismo peso objetivo con el precio doblado: la posición se reduce
	// para volver al 50% del equity actual.
	err = sim.Execute(ctx, map[string]float64{"AAA": 20}, []domain.AllocationInstruction{
		domain.NewInstruction("AAA", 0.5, domain.SideLong, "", simTS),
	})
	require.NoError(t, err)

	// equity = 500 cash + 50*20 = 1500; objetivo = 750/20 = 37.5 unidades.
	assert.InDelta(t, 37.5, sim.Position("AAA"), 1e-9)
	assert.InDelta(t, 1500, sim.Equity(), 1e-9)
}

func TestSim_TwoSymbolsShareCapital(t *testing.T) {
	sim := portfolio.NewSim(1000)
	ctx := context.Background()

	err := sim.Execute(ctx, map[string]float64{"AAA": 10, "BBB": 5}, []domain.AllocationInstruction{
		domain.NewInstruction("AAA", 0.5, domain.SideLong, "", simTS),
		domain.NewInstruction("BBB", 0.5, domain.SideLong, "", simTS),
	})
	require.NoError(t, err)

	positions := sim.Positions()
	require.Len(t, positions, 2)
	assert.InDelta(t, 1000, sim.Equity(), 1e-9)
	// Todo el capital invertido, nada en negativo.
	assert.InDelta(t, 0, sim.Cash(), 50)
}

func TestSim_MissingPriceIsAnError(t *testing.T) {
	sim := portfolio.NewSim(1000)
	err := sim.Execute(context.Background(), nil, []domain.AllocationInstruction{
		domain.NewInstruction("AAA", 0.5, domain.SideLong, "", simTS),
	})
	assert.Error(t, err)
}
