package history

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

const createTableSQL = `
CREATE TABLE IF NOT EXISTS price_history (
	asset_id       TEXT             NOT NULL,
	ts_ms          BIGINT           NOT NULL,
	usd            DOUBLE PRECISION NOT NULL,
	usd_24h_change DOUBLE PRECISION NOT NULL,
	volume_24h     DOUBLE PRECISION NOT NULL,
	source         TEXT             NOT NULL,
	PRIMARY KEY (asset_id, ts_ms)
)`

const createIndexSQL = `
CREATE INDEX IF NOT EXISTS price_history_ts_idx ON price_history (ts_ms)`

// EnsureSchema creates the price_history table if it does not exist.
func EnsureSchema(ctx context.Context, db *pgxpool.Pool) error {
	if _, err := db.Exec(ctx, createTableSQL); err != nil {
		return fmt.Errorf("create price_history table: %w", err)
	}
	if _, err := db.Exec(ctx, createIndexSQL); err != nil {
		return fmt.Errorf("create price_history index: %w", err)
	}
	return nil
}
