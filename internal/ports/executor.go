package ports

import (
	"context"

	"github.com/alejandrodnm/stockbot/internal/domain"
)

// InstructionSink consume la secuencia ordenada de instrucciones de una
// vela. Las instrucciones son advisory (peso objetivo, no tamaño de
// orden); el sizing y la ejecución son responsabilidad del colaborador.
type InstructionSink interface {
	// Execute aplica las instrucciones de la vela. closes trae el último
	// precio de cierre por símbolo para valorar y dimensionar posiciones.
	Execute(ctx context.Context, closes map[string]float64, instructions []domain.AllocationInstruction) error
}
