package storage

// sqlite.go — histórico de runs en SQLite (pure Go, sin CGo).
//
// Esquema:
//   - `runs`: una fila por ejecución con su resumen final.
//   - `rank_entries`: el ranking completo de cada vela (bucket TOP/BOT/MID).
//   - `instructions`: cada instrucción emitida, con su peso y motivo.

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/alejandrodnm/stockbot/internal/domain"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
    run_id        TEXT PRIMARY KEY,
    name          TEXT NOT NULL,
    started_at    DATETIME NOT NULL,
    finished_at   DATETIME NOT NULL,
    steps         INTEGER NOT NULL DEFAULT 0,
    skipped_steps INTEGER NOT NULL DEFAULT 0,
    instructions  INTEGER NOT NULL DEFAULT 0,
    dropped       TEXT    NOT NULL DEFAULT '',
    final_equity  REAL    NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS rank_entries (
    run_id   TEXT    NOT NULL,
    step     INTEGER NOT NULL,
    bar_time DATETIME NOT NULL,
    symbol   TEXT    NOT NULL,
    adx      REAL    NOT NULL DEFAULT 0,
    plus_di  REAL    NOT NULL DEFAULT 0,
    minus_di REAL    NOT NULL DEFAULT 0,
    bucket   TEXT    NOT NULL,
    partial  INTEGER NOT NULL DEFAULT 0,
    PRIMARY KEY (run_id, step, symbol)
);

CREATE TABLE IF NOT EXISTS instructions (
    id            TEXT PRIMARY KEY,
    run_id        TEXT    NOT NULL,
    step          INTEGER NOT NULL,
    symbol        TEXT    NOT NULL,
    side          TEXT    NOT NULL,
    target_weight REAL    NOT NULL DEFAULT 0,
    reason        TEXT,
    issued_at     DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_rank_run_step ON rank_entries(run_id, step);
CREATE INDEX IF NOT EXISTS idx_instr_run     ON instructions(run_id, step);
CREATE INDEX IF NOT EXISTS idx_instr_symbol  ON instructions(symbol);
`

// SQLiteStorage implementa ports.RunStorage usando SQLite.
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage abre (o crea) la base de datos y aplica el esquema.
func NewSQLiteStorage(path string) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage.NewSQLiteStorage: open %q: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.NewSQLiteStorage: apply schema: %w", err)
	}
	return &SQLiteStorage{db: db}, nil
}

// SaveSnapshot persiste el ranking completo de una vela, con el bucket de
// cada símbolo.
func (s *SQLiteStorage) SaveSnapshot(ctx context.Context, runID string, step int, snap domain.RankSnapshot) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("storage.SaveSnapshot: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO rank_entries
		(run_id, step, bar_time, symbol, adx, plus_di, minus_di, bucket, partial)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("storage.SaveSnapshot: %w", err)
	}
	defer stmt.Close()

	buckets := make(map[string]string, len(snap.Entries))
	for _, e := range snap.Top {
		buckets[e.Symbol] = "TOP"
	}
	for _, e := range snap.Bot {
		buckets[e.Symbol] = "BOT"
	}

	partial := 0
	if snap.Partial {
		partial = 1
	}
	for _, e := range snap.Entries {
		bucket, ok := buckets[e.Symbol]
		if !ok {
			bucket = "MID"
		}
		if _, err := stmt.ExecContext(ctx, runID, step, snap.Timestamp.UTC(),
			e.Symbol, e.ADX, e.PlusDI, e.MinusDI, bucket, partial); err != nil {
			return fmt.Errorf("storage.SaveSnapshot: %s: %w", e.Symbol, err)
		}
	}
	return tx.Commit()
}

// SaveInstructions persiste las instrucciones emitidas en una vela.
func (s *SQLiteStorage) SaveInstructions(ctx context.Context, runID string, step int, instructions []domain.AllocationInstruction) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("storage.SaveInstructions: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO instructions
		(id, run_id, step, symbol, side, target_weight, reason, issued_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("storage.SaveInstructions: %w", err)
	}
	defer stmt.Close()

	for _, ins := range instructions {
		if _, err := stmt.ExecContext(ctx, ins.ID, runID, step, ins.Symbol,
			string(ins.Side), ins.TargetWeight, ins.Reason, ins.IssuedAt.UTC()); err != nil {
			return fmt.Errorf("storage.SaveInstructions: %s: %w", ins.Symbol, err)
		}
	}
	return tx.Commit()
}

// SaveRunSummary persiste el resumen final del run.
func (s *SQLiteStorage) SaveRunSummary(ctx context.Context, sum domain.RunSummary) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO runs
		(run_id, name, started_at, finished_at, steps, skipped_steps, instructions, dropped, final_equity)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sum.RunID, sum.Name, sum.StartedAt.UTC(), sum.FinishedAt.UTC(),
		sum.Steps, sum.SkippedSteps, sum.Instructions,
		strings.Join(sum.Dropped, ","), sum.FinalEquity)
	if err != nil {
		return fmt.Errorf("storage.SaveRunSummary: %w", err)
	}
	return nil
}

// GetInstructions devuelve las instrucciones de un run ordenadas por paso.
// Pensado para inspección y tests.
func (s *SQLiteStorage) GetInstructions(ctx context.Context, runID string) ([]domain.AllocationInstruction, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, symbol, side, target_weight, reason, issued_at
		FROM instructions WHERE run_id = ? ORDER BY step, symbol`, runID)
	if err != nil {
		return nil, fmt.Errorf("storage.GetInstructions: %w", err)
	}
	defer rows.Close()

	var out []domain.AllocationInstruction
	for rows.Next() {
		var ins domain.AllocationInstruction
		var side string
		if err := rows.Scan(&ins.ID, &ins.Symbol, &side, &ins.TargetWeight, &ins.Reason, &ins.IssuedAt); err != nil {
			return nil, fmt.Errorf("storage.GetInstructions: %w", err)
		}
		ins.Side = domain.Side(side)
		out = append(out, ins)
	}
	return out, rows.Err()
}

// Close cierra la conexión a la base de datos.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}
