package bundle

// Package bundle carga velas históricas desde archivos CSV locales, un
// archivo por símbolo (<DIR>/<SYMBOL>.csv) con cabecera:
//
//	date,open,high,low,close,volume
//
// La fuente es finita: al agotar un símbolo devuelve ErrEndOfStream.

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/alejandrodnm/stockbot/internal/domain"
	"github.com/alejandrodnm/stockbot/internal/ports"
)

// CSV implementa ports.BarSource y ports.HistoryProvider sobre un
// directorio de archivos CSV. Las velas se cargan al construir y se
// reordenan por fecha ascendente.
type CSV struct {
	bars   map[string][]domain.Bar
	cursor map[string]int
}

// NewCSV carga los archivos de todos los símbolos dados.
func NewCSV(dir string, symbols []string) (*CSV, error) {
	src := &CSV{
		bars:   make(map[string][]domain.Bar, len(symbols)),
		cursor: make(map[string]int, len(symbols)),
	}
	for _, sym := range symbols {
		path := filepath.Join(dir, sym+".csv")
		bars, err := loadFile(path, sym)
		if err != nil {
			return nil, fmt.Errorf("bundle.NewCSV: %w", err)
		}
		src.bars[sym] = bars
	}
	return src, nil
}

// NextBar devuelve la siguiente vela del símbolo o ErrEndOfStream.
func (c *CSV) NextBar(_ context.Context, symbol string) (domain.Bar, error) {
	bars, ok := c.bars[symbol]
	if !ok {
		return domain.Bar{}, fmt.Errorf("bundle.NextBar: unknown symbol %q", symbol)
	}
	i := c.cursor[symbol]
	if i >= len(bars) {
		return domain.Bar{}, ports.ErrEndOfStream
	}
	c.cursor[symbol] = i + 1
	return bars[i], nil
}

// FetchBars devuelve las últimas limit velas del símbolo, en orden
// ascendente.
func (c *CSV) FetchBars(_ context.Context, symbol string, limit int) ([]domain.Bar, error) {
	bars, ok := c.bars[symbol]
	if !ok {
		return nil, fmt.Errorf("bundle.FetchBars: unknown symbol %q", symbol)
	}
	if limit > 0 && len(bars) > limit {
		bars = bars[len(bars)-limit:]
	}
	out := make([]domain.Bar, len(bars))
	copy(out, bars)
	return out, nil
}

// Len devuelve el número de velas cargadas para el símbolo.
func (c *CSV) Len(symbol string) int { return len(c.bars[symbol]) }

func loadFile(path, symbol string) ([]domain.Bar, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("%s: no data rows", path)
	}

	bars := make([]domain.Bar, 0, len(rows)-1)
	for i, row := range rows[1:] { // primera fila es cabecera
		if len(row) != 6 {
			return nil, fmt.Errorf("%s: row %d: expected 6 fields, got %d", path, i+2, len(row))
		}
		ts, err := parseDate(row[0])
		if err != nil {
			return nil, fmt.Errorf("%s: row %d: %w", path, i+2, err)
		}
		vals := make([]float64, 5)
		for j, raw := range row[1:] {
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return nil, fmt.Errorf("%s: row %d: bad number %q", path, i+2, raw)
			}
			vals[j] = v
		}
		bars = append(bars, domain.Bar{
			Symbol:    symbol,
			Timestamp: ts,
			Open:      vals[0],
			High:      vals[1],
			Low:       vals[2],
			Close:     vals[3],
			Volume:    vals[4],
		})
	}

	// Algunos proveedores sirven el histórico en orden descendente.
	sort.Slice(bars, func(i, j int) bool { return bars[i].Timestamp.Before(bars[j].Timestamp) })
	return bars, nil
}

func parseDate(raw string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable date %q", raw)
}
