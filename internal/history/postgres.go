package history

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rickgao/kalshi-tennis/internal/model"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS trades (
    id                 BIGSERIAL PRIMARY KEY,
    order_id           TEXT             NOT NULL UNIQUE,
    client_order_id    TEXT             NOT NULL DEFAULT '',
    ticker             TEXT             NOT NULL,
    event_ticker       TEXT             NOT NULL,
    placed_at          BIGINT           NOT NULL,
    dry_run            BOOLEAN          NOT NULL DEFAULT FALSE,
    side               TEXT             NOT NULL,
    action             TEXT             NOT NULL DEFAULT 'buy',
    contracts          INTEGER          NOT NULL DEFAULT 0,
    price_cents        INTEGER          NOT NULL DEFAULT 0,
    status             TEXT             NOT NULL DEFAULT '',
    player1            TEXT             NOT NULL DEFAULT '',
    player2            TEXT             NOT NULL DEFAULT '',
    bet_on_player      TEXT             NOT NULL DEFAULT '',
    model_probability  DOUBLE PRECISION NOT NULL DEFAULT 0,
    market_probability DOUBLE PRECISION NOT NULL DEFAULT 0,
    edge               DOUBLE PRECISION NOT NULL DEFAULT 0,
    expected_value     DOUBLE PRECISION NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_trades_placed ON trades (placed_at DESC);
CREATE INDEX IF NOT EXISTS idx_trades_event ON trades (event_ticker);
`

const postgresInsert = `INSERT INTO trades (` + columns + `)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
	ON CONFLICT (order_id) DO NOTHING`

// PostgresStore keeps trade history in Postgres.
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgres wraps an open pool. Close closes the pool.
func NewPostgres(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

// EnsureSchema creates the trades table if it does not exist.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, postgresSchema); err != nil {
		return fmt.Errorf("postgres history: apply schema: %w", err)
	}
	return nil
}

// Record appends rec. A record whose order id is already stored is ignored.
func (s *PostgresStore) Record(ctx context.Context, rec model.TradeRecord) error {
	if _, err := s.db.Exec(ctx, postgresInsert, toRow(rec).args()...); err != nil {
		return fmt.Errorf("postgres history: insert %s: %w", rec.Ticker, err)
	}
	return nil
}

// RecordBatch appends recs in one round trip and returns how many were
// new.
func (s *PostgresStore) RecordBatch(ctx context.Context, recs []model.TradeRecord) (inserted int, err error) {
	if len(recs) == 0 {
		return 0, nil
	}
	batch := &pgx.Batch{}
	for _, rec := range recs {
		batch.Queue(postgresInsert, toRow(rec).args()...)
	}

	results := s.db.SendBatch(ctx, batch)
	defer results.Close()

	for range recs {
		ct, err := results.Exec()
		if err != nil {
			return inserted, fmt.Errorf("postgres history: batch insert: %w", err)
		}
		inserted += int(ct.RowsAffected())
	}
	return inserted, nil
}

// Recent returns up to n records, newest first.
func (s *PostgresStore) Recent(ctx context.Context, n int) ([]model.TradeRecord, error) {
	if n <= 0 {
		return nil, nil
	}
	rows, err := s.db.Query(ctx,
		`SELECT `+columns+` FROM trades ORDER BY placed_at DESC, id DESC LIMIT $1`, n)
	if err != nil {
		return nil, fmt.Errorf("postgres history: query: %w", err)
	}
	defer rows.Close()

	var out []model.TradeRecord
	for rows.Next() {
		var r row
		if err := rows.Scan(r.dest()...); err != nil {
			return nil, fmt.Errorf("postgres history: scan: %w", err)
		}
		out = append(out, r.toModel())
	}
	return out, rows.Err()
}

// Close closes the pool.
func (s *PostgresStore) Close() error {
	s.db.Close()
	return nil
}
