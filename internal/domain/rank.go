package domain

import "time"

// RankEntry es la posición de un símbolo en el ranking ADX de una vela.
type RankEntry struct {
	Symbol  string
	ADX     float64
	PlusDI  float64
	MinusDI float64
}

// RankSnapshot es el ranking del universo en una vela concreta.
// Se recalcula en cada vela y nunca se persiste entre ejecuciones; solo
// entran símbolos con el estado de indicadores completamente caliente.
type RankSnapshot struct {
	Timestamp time.Time
	Entries   []RankEntry // universo ready, ordenado por ADX descendente
	Top       []RankEntry // trending: mayor ADX, hasta top_rank
	Bot       []RankEntry // oscillating: menor ADX, hasta bot_rank
	Partial   bool        // había menos símbolos ready que top_rank+bot_rank
}

// CapitalPPI devuelve la fracción de capital por posición: 1/(|top|+|bot|).
// Con esa fracción la exposición total de ambos buckets nunca supera el 100%.
func (s RankSnapshot) CapitalPPI() float64 {
	n := len(s.Top) + len(s.Bot)
	if n == 0 {
		return 0
	}
	return 1.0 / float64(n)
}
