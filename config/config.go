package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config es la configuración completa del bot.
type Config struct {
	Run       RunConfig       `yaml:"run"`
	Source    SourceConfig    `yaml:"source"`
	Portfolio PortfolioConfig `yaml:"portfolio"`
	Storage   StorageConfig   `yaml:"storage"`
	Log       LogConfig       `yaml:"log"`
}

// RunConfig controla el engine de ranking y asignación.
type RunConfig struct {
	Name                string   `yaml:"name"`
	Universe            []string `yaml:"universe"`
	TopRank             int      `yaml:"top_rank"`
	BotRank             int      `yaml:"bot_rank"`
	DIWindow            int      `yaml:"di_window"`            // ventana Wilder para TR/DM/ADX
	StochasticWindow    int      `yaml:"stochastic_window"`    // lookback de máximos/mínimos para %K
	StochasticSmoothing int      `yaml:"stochastic_smoothing"` // ventana SMA de %D
	OnInsufficient      string   `yaml:"on_insufficient"`      // proceed | skip
}

// SourceConfig selecciona la fuente de velas.
type SourceConfig struct {
	Type       string        `yaml:"type"`        // bundle | binance
	BundleDir  string        `yaml:"bundle_dir"`  // directorio de CSVs, un archivo por símbolo
	Interval   string        `yaml:"interval"`    // intervalo de kline binance: 1m, 1h, 1d...
	Poll       time.Duration `yaml:"poll"`        // cada cuánto re-consultar la última kline
	WarmupBars int           `yaml:"warmup_bars"` // histórico para pre-calentar indicadores en live
}

// PortfolioConfig controla la cartera simulada.
type PortfolioConfig struct {
	InitialCapital float64 `yaml:"initial_capital"`
}

// StorageConfig controla dónde se persisten los datos.
type StorageConfig struct {
	DSN string `yaml:"dsn"` // ruta al archivo SQLite, o ":memory:"
}

// LogConfig controla el formato y nivel de logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// Load carga la configuración desde el archivo YAML y el archivo .env si
// existe. Los valores del .env sobreescriben los del YAML para las keys que
// correspondan. Una configuración malformada es fatal: el run no arranca.
func Load(path string) (*Config, error) {
	// Cargar .env si existe (silencia error si no hay archivo)
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config.Load: parse YAML: %w", err)
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	return &cfg, nil
}

// Validate comprueba la coherencia de la configuración una sola vez, al
// arrancar.
func (c *Config) Validate() error {
	if c.Run.Name == "" {
		return fmt.Errorf("run.name is required")
	}
	if len(c.Run.Universe) == 0 {
		return fmt.Errorf("run.universe is empty")
	}
	seen := make(map[string]bool, len(c.Run.Universe))
	for _, sym := range c.Run.Universe {
		if sym == "" {
			return fmt.Errorf("run.universe contains an empty symbol")
		}
		if seen[sym] {
			return fmt.Errorf("run.universe: duplicate symbol %q", sym)
		}
		seen[sym] = true
	}
	if c.Run.TopRank < 0 || c.Run.BotRank < 0 {
		return fmt.Errorf("run.top_rank and run.bot_rank must be non-negative")
	}
	if c.Run.TopRank+c.Run.BotRank == 0 {
		return fmt.Errorf("run.top_rank + run.bot_rank must be positive")
	}
	if c.Run.TopRank+c.Run.BotRank > len(c.Run.Universe) {
		return fmt.Errorf("run.top_rank + run.bot_rank (%d) exceeds universe size (%d)",
			c.Run.TopRank+c.Run.BotRank, len(c.Run.Universe))
	}
	if c.Run.DIWindow <= 0 || c.Run.StochasticWindow <= 0 || c.Run.StochasticSmoothing <= 0 {
		return fmt.Errorf("indicator windows must be positive")
	}
	switch c.Run.OnInsufficient {
	case "proceed", "skip":
	default:
		return fmt.Errorf("run.on_insufficient: unknown policy %q (want proceed|skip)", c.Run.OnInsufficient)
	}
	switch c.Source.Type {
	case "bundle":
		if c.Source.BundleDir == "" {
			return fmt.Errorf("source.bundle_dir is required for the bundle source")
		}
	case "binance":
	default:
		return fmt.Errorf("source.type: unknown source %q (want bundle|binance)", c.Source.Type)
	}
	if c.Portfolio.InitialCapital <= 0 {
		return fmt.Errorf("portfolio.initial_capital must be positive")
	}
	return nil
}

// applyEnvOverrides sobreescribe valores con variables de entorno si están presentes.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("STORAGE_DSN"); v != "" {
		cfg.Storage.DSN = v
	}
	if v := os.Getenv("UNIVERSE"); v != "" {
		cfg.Run.Universe = splitList(v)
	}
}

// setDefaults asegura que los valores requeridos tengan valores sensatos.
func setDefaults(cfg *Config) {
	if cfg.Run.DIWindow == 0 {
		cfg.Run.DIWindow = 14
	}
	if cfg.Run.StochasticWindow == 0 {
		cfg.Run.StochasticWindow = 14
	}
	if cfg.Run.StochasticSmoothing == 0 {
		cfg.Run.StochasticSmoothing = 3
	}
	if cfg.Run.OnInsufficient == "" {
		cfg.Run.OnInsufficient = "proceed"
	}
	if cfg.Source.Type == "" {
		cfg.Source.Type = "bundle"
	}
	if cfg.Source.Interval == "" {
		cfg.Source.Interval = "1h"
	}
	if cfg.Source.Poll <= 0 {
		cfg.Source.Poll = 5 * time.Second
	}
	if cfg.Source.WarmupBars == 0 {
		// Suficiente para que ADX tenga una ventana completa de DX detrás.
		cfg.Source.WarmupBars = 3 * cfg.Run.DIWindow
	}
	if cfg.Portfolio.InitialCapital == 0 {
		cfg.Portfolio.InitialCapital = 10000
	}
	if cfg.Storage.DSN == "" {
		cfg.Storage.DSN = "stockbot.db"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if s := strings.TrimSpace(part); s != "" {
			out = append(out, s)
		}
	}
	return out
}
