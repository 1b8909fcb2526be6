package domain

import "time"

// RunSummary resume una ejecución completa del engine (backtest o live).
type RunSummary struct {
	RunID        string
	Name         string
	StartedAt    time.Time
	FinishedAt   time.Time
	Steps        int      // velas de simulación procesadas
	SkippedSteps int      // velas saltadas por universo insuficiente
	Instructions int      // instrucciones emitidas en total
	Dropped      []string // símbolos excluidos por DataError
	FinalEquity  float64
}
