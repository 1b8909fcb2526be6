package binance

import (
	"testing"
	"time"

	gobinance "github.com/adshao/go-binance/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToBar(t *testing.T) {
	k := &gobinance.Kline{
		OpenTime: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC).UnixMilli(),
		Open:     "100.5",
		High:     "103.25",
		Low:      "99.75",
		Close:    "102.0",
		Volume:   "1534.2",
	}

	bar, err := toBar("BTCUSDT", k)
	require.NoError(t, err)
	assert.Equal(t, "BTCUSDT", bar.Symbol)
	assert.Equal(t, time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC), bar.Timestamp)
	assert.InDelta(t, 100.5, bar.Open, 1e-9)
	assert.InDelta(t, 103.25, bar.High, 1e-9)
	assert.InDelta(t, 99.75, bar.Low, 1e-9)
	assert.InDelta(t, 102.0, bar.Close, 1e-9)
	assert.InDelta(t, 1534.2, bar.Volume, 1e-9)
	require.NoError(t, bar.Validate())
}

func TestToBar_BadField(t *testing.T) {
	k := &gobinance.Kline{Open: "not-a-number", High: "1", Low: "1", Close: "1", Volume: "0"}
	_, err := toBar("BTCUSDT", k)
	assert.Error(t, err)
}

func TestConfig_Defaults(t *testing.T) {
	cfg := Config{}.withDefaults()
	assert.Equal(t, "1m", cfg.Interval)
	assert.Equal(t, 5*time.Second, cfg.PollInterval)
	assert.Equal(t, 600, cfg.RequestsPerMinute)

	custom := Config{Interval: "1h", PollInterval: time.Minute, RequestsPerMinute: 60}.withDefaults()
	assert.Equal(t, "1h", custom.Interval)
	assert.Equal(t, time.Minute, custom.PollInterval)
}
