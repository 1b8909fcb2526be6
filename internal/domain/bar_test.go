package domain_test

import (
	"testing"
	"time"

	"github.com/alejandrodnm/stockbot/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validBar() domain.Bar {
	return domain.Bar{
		Symbol:    "AAA",
		Timestamp: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		Open:      100,
		High:      105,
		Low:       98,
		Close:     103,
		Volume:    1000,
	}
}

func TestBar_Validate(t *testing.T) {
	require.NoError(t, validBar().Validate())

	cases := map[string]func(*domain.Bar){
		"empty symbol":       func(b *domain.Bar) { b.Symbol = "" },
		"zero timestamp":     func(b *domain.Bar) { b.Timestamp = time.Time{} },
		"non-positive price": func(b *domain.Bar) { b.Close = 0 },
		"negative price":     func(b *domain.Bar) { b.Low = -1 },
		"high below low":     func(b *domain.Bar) { b.High, b.Low = 98, 105 },
		"open above high":    func(b *domain.Bar) { b.Open = 106 },
		"close below low":    func(b *domain.Bar) { b.Close = 97 },
		"negative volume":    func(b *domain.Bar) { b.Volume = -5 },
	}

	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			b := validBar()
			mutate(&b)
			assert.Error(t, b.Validate())
		})
	}
}

func TestNewInstruction_AssignsID(t *testing.T) {
	ts := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	a := domain.NewInstruction("AAA", 0.5, domain.SideLong, "r", ts)
	b := domain.NewInstruction("AAA", 0.5, domain.SideLong, "r", ts)

	assert.NotEmpty(t, a.ID)
	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, domain.SideLong, a.Side)
	assert.Equal(t, ts, a.IssuedAt)
}

func TestRankSnapshot_CapitalPPI(t *testing.T) {
	snap := domain.RankSnapshot{
		Top: []domain.RankEntry{{Symbol: "AAA"}, {Symbol: "BBB"}},
		Bot: []domain.RankEntry{{Symbol: "CCC"}},
	}
	assert.InDelta(t, 1.0/3.0, snap.CapitalPPI(), 1e-9)
	assert.Zero(t, domain.RankSnapshot{}.CapitalPPI())
}
