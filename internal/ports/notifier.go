package ports

import (
	"context"

	"github.com/alejandrodnm/stockbot/internal/domain"
)

// Notifier presenta al usuario el resultado de cada vela procesada.
type Notifier interface {
	// Notify muestra el ranking de la vela y las instrucciones emitidas.
	// En la implementación de consola, imprime una tabla formateada.
	Notify(ctx context.Context, snap domain.RankSnapshot, instructions []domain.AllocationInstruction) error
}
