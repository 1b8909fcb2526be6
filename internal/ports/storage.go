package ports

import (
	"context"

	"github.com/alejandrodnm/stockbot/internal/domain"
)

// RunStorage persiste los resultados de cada vela y el resumen del run.
type RunStorage interface {
	// SaveSnapshot persiste el ranking de una vela.
	SaveSnapshot(ctx context.Context, runID string, step int, snap domain.RankSnapshot) error

	// SaveInstructions persiste las instrucciones emitidas en una vela.
	SaveInstructions(ctx context.Context, runID string, step int, instructions []domain.AllocationInstruction) error

	// SaveRunSummary persiste el resumen final del run.
	SaveRunSummary(ctx context.Context, summary domain.RunSummary) error

	// Close cierra la conexión a la base de datos limpiamente.
	Close() error
}
