package ports

import (
	"context"
	"errors"

	"github.com/alejandrodnm/stockbot/internal/domain"
)

// ErrEndOfStream indica que el stream de velas de un símbolo ha terminado.
// Las fuentes históricas son finitas; las de tiempo real no lo devuelven
// nunca (bloquean hasta la siguiente vela cerrada o hasta cancelación).
var ErrEndOfStream = errors.New("ports: end of bar stream")

// BarSource entrega velas símbolo a símbolo, en modo pull: una llamada por
// símbolo por paso de simulación. El core es agnóstico a si la fuente es
// finita (bundle histórico) o infinita (polling en tiempo real).
type BarSource interface {
	// NextBar devuelve la siguiente vela del símbolo o ErrEndOfStream.
	NextBar(ctx context.Context, symbol string) (domain.Bar, error)
}

// HistoryProvider obtiene las últimas velas de un símbolo de una vez, para
// pre-calentar el estado de indicadores antes de operar en vivo.
type HistoryProvider interface {
	FetchBars(ctx context.Context, symbol string, limit int) ([]domain.Bar, error)
}
