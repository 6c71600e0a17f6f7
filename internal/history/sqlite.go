package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/rickgao/kalshi-tennis/internal/model"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS trades (
    id                 INTEGER PRIMARY KEY AUTOINCREMENT,
    order_id           TEXT    NOT NULL UNIQUE,
    client_order_id    TEXT    NOT NULL DEFAULT '',
    ticker             TEXT    NOT NULL,
    event_ticker       TEXT    NOT NULL,
    placed_at          INTEGER NOT NULL,
    dry_run            INTEGER NOT NULL DEFAULT 0,
    side               TEXT    NOT NULL,
    action             TEXT    NOT NULL DEFAULT 'buy',
    contracts          INTEGER NOT NULL DEFAULT 0,
    price_cents        INTEGER NOT NULL DEFAULT 0,
    status             TEXT    NOT NULL DEFAULT '',
    player1            TEXT    NOT NULL DEFAULT '',
    player2            TEXT    NOT NULL DEFAULT '',
    bet_on_player      TEXT    NOT NULL DEFAULT '',
    model_probability  REAL    NOT NULL DEFAULT 0,
    market_probability REAL    NOT NULL DEFAULT 0,
    edge               REAL    NOT NULL DEFAULT 0,
    expected_value     REAL    NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_trades_placed ON trades(placed_at DESC);
CREATE INDEX IF NOT EXISTS idx_trades_event  ON trades(event_ticker);
`

const sqliteInsert = `INSERT INTO trades (` + columns + `)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(order_id) DO NOTHING`

// SQLiteStore keeps trade history in a local SQLite file.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens or creates the database at path and applies the
// schema. ":memory:" gives a private in-memory database.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite history: empty path")
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("sqlite history: create dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite history: open %q: %w", path, err)
	}
	// Single writer; also keeps ":memory:" on one connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite history: apply schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Record appends rec. A record whose order id is already stored is ignored.
func (s *SQLiteStore) Record(ctx context.Context, rec model.TradeRecord) error {
	if _, err := s.db.ExecContext(ctx, sqliteInsert, toRow(rec).args()...); err != nil {
		return fmt.Errorf("sqlite history: insert %s: %w", rec.Ticker, err)
	}
	return nil
}

// RecordBatch appends recs in one transaction and returns how many were
// new.
func (s *SQLiteStore) RecordBatch(ctx context.Context, recs []model.TradeRecord) (inserted int, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("sqlite history: begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, sqliteInsert)
	if err != nil {
		return 0, fmt.Errorf("sqlite history: prepare: %w", err)
	}
	defer stmt.Close()

	for _, rec := range recs {
		res, err := stmt.ExecContext(ctx, toRow(rec).args()...)
		if err != nil {
			return 0, fmt.Errorf("sqlite history: batch insert %s: %w", rec.Ticker, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("sqlite history: rows affected: %w", err)
		}
		inserted += int(n)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("sqlite history: commit: %w", err)
	}
	return inserted, nil
}

// Recent returns up to n records, newest first.
func (s *SQLiteStore) Recent(ctx context.Context, n int) ([]model.TradeRecord, error) {
	if n <= 0 {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+columns+` FROM trades ORDER BY placed_at DESC, id DESC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("sqlite history: query: %w", err)
	}
	defer rows.Close()

	var out []model.TradeRecord
	for rows.Next() {
		var r row
		if err := rows.Scan(r.dest()...); err != nil {
			return nil, fmt.Errorf("sqlite history: scan: %w", err)
		}
		out = append(out, r.toModel())
	}
	return out, rows.Err()
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
