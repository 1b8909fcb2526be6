package notify

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/alejandrodnm/stockbot/internal/domain"
	"github.com/olekukonko/tablewriter"
)

// Console implementa ports.Notifier.
type Console struct {
	out   io.Writer
	table bool
}

// NewConsole crea un notificador que escribe a stdout.
func NewConsole(table bool) *Console {
	return &Console{out: os.Stdout, table: table}
}

// NewConsoleWriter crea un notificador para tests.
func NewConsoleWriter(w io.Writer, table bool) *Console {
	return &Console{out: w, table: table}
}

// Notify imprime el ranking de la vela y las instrucciones emitidas.
func (c *Console) Notify(_ context.Context, snap domain.RankSnapshot, instructions []domain.AllocationInstruction) error {
	if len(snap.Entries) == 0 {
		fmt.Fprintf(c.out, "[%s] warming up — no ready symbols\n", stamp(snap.Timestamp))
		return nil
	}

	if c.table {
		c.printFull(snap, instructions)
	} else {
		c.printCompact(snap, instructions)
	}
	return nil
}

// printCompact imprime lo esencial en una línea por vela.
func (c *Console) printCompact(snap domain.RankSnapshot, instructions []domain.AllocationInstruction) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "[%s] %d ready → top:%s bot:%s",
		stamp(snap.Timestamp), len(snap.Entries),
		bucketLabel(snap.Top), bucketLabel(snap.Bot))
	if snap.Partial {
		sb.WriteString(" [partial]")
	}

	for _, ins := range instructions {
		fmt.Fprintf(&sb, " | %s %s %.3f", ins.Symbol, ins.Side, ins.TargetWeight)
	}

	fmt.Fprintln(c.out, sb.String())
}

// printFull imprime el ranking completo y las instrucciones en tablas.
func (c *Console) printFull(snap domain.RankSnapshot, instructions []domain.AllocationInstruction) {
	fmt.Fprintf(c.out, "\n[%s] ranking — %d ready, top:%d bot:%d",
		stamp(snap.Timestamp), len(snap.Entries), len(snap.Top), len(snap.Bot))
	if snap.Partial {
		fmt.Fprint(c.out, " [PARTIAL]")
	}
	fmt.Fprintln(c.out)

	buckets := make(map[string]string, len(snap.Entries))
	for _, e := range snap.Top {
		buckets[e.Symbol] = "TOP"
	}
	for _, e := range snap.Bot {
		buckets[e.Symbol] = "BOT"
	}

	table := tablewriter.NewWriter(c.out)
	table.Header("#", "Symbol", "Bucket", "ADX", "+DI", "-DI")
	for i, e := range snap.Entries {
		bucket := buckets[e.Symbol]
		if bucket == "" {
			bucket = "-"
		}
		table.Append(
			fmt.Sprintf("%d", i+1),
			e.Symbol,
			bucket,
			fmt.Sprintf("%.2f", e.ADX),
			fmt.Sprintf("%.2f", e.PlusDI),
			fmt.Sprintf("%.2f", e.MinusDI),
		)
	}
	table.Render()

	if len(instructions) == 0 {
		fmt.Fprintln(c.out, "  no instructions this bar")
		return
	}

	instr := tablewriter.NewWriter(c.out)
	instr.Header("Symbol", "Side", "Weight", "Reason")
	for _, ins := range instructions {
		instr.Append(
			ins.Symbol,
			string(ins.Side),
			fmt.Sprintf("%.3f", ins.TargetWeight),
			ins.Reason,
		)
	}
	instr.Render()
}

// PrintSummary imprime el resumen final del run.
func (c *Console) PrintSummary(sum domain.RunSummary) {
	fmt.Fprintf(c.out, "\n=== run %s (%s) ===\n", sum.Name, sum.RunID)
	fmt.Fprintf(c.out, "  bars: %d (skipped %d) | instructions: %d | final equity: %.2f\n",
		sum.Steps, sum.SkippedSteps, sum.Instructions, sum.FinalEquity)
	if len(sum.Dropped) > 0 {
		fmt.Fprintf(c.out, "  dropped symbols: %s\n", strings.Join(sum.Dropped, ", "))
	}
}

func bucketLabel(entries []domain.RankEntry) string {
	if len(entries) == 0 {
		return "-"
	}
	syms := make([]string, len(entries))
	for i, e := range entries {
		syms[i] = e.Symbol
	}
	return strings.Join(syms, ",")
}

func stamp(ts time.Time) string {
	return ts.UTC().Format("2006-01-02 15:04")
}
