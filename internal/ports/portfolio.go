package ports

// PortfolioReader expone el estado actual de la cartera simulada. El core
// solo lee: lo usa para calcular capital_ppi y para detectar posiciones
// huérfanas que deben liquidarse al salir del ranking.
type PortfolioReader interface {
	// Position devuelve el tamaño actual (en unidades) del símbolo, 0 si
	// no hay posición.
	Position(symbol string) float64

	// Positions devuelve todas las posiciones distintas de cero.
	Positions() map[string]float64

	// Equity devuelve el capital total: cash más posiciones a mercado.
	Equity() float64
}
