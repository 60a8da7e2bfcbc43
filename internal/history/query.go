package history

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PricePoint is one historical sample. It marshals as a [timestamp_ms, usd]
// pair, the shape charting libraries consume directly.
type PricePoint struct {
	TsMs int64
	USD  float64
}

// MarshalJSON renders the point as a two-element array.
func (p PricePoint) MarshalJSON() ([]byte, error) {
	return fmt.Appendf(nil, "[%d,%g]", p.TsMs, p.USD), nil
}

// Querier answers historical range queries.
type Querier struct {
	db *pgxpool.Pool
}

// NewQuerier creates a Querier.
func NewQuerier(db *pgxpool.Pool) *Querier {
	return &Querier{db: db}
}

// Range returns all samples for one asset between from and to, oldest
// first.
func (q *Querier) Range(ctx context.Context, assetID string, from, to time.Time) ([]PricePoint, error) {
	rows, err := q.db.Query(ctx, `
		SELECT ts_ms, usd
		FROM price_history
		WHERE asset_id = $1 AND ts_ms >= $2 AND ts_ms <= $3
		ORDER BY ts_ms ASC
	`, assetID, from.UnixMilli(), to.UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("query price history: %w", err)
	}
	defer rows.Close()

	var points []PricePoint
	for rows.Next() {
		var p PricePoint
		if err := rows.Scan(&p.TsMs, &p.USD); err != nil {
			return nil, fmt.Errorf("scan price point: %w", err)
		}
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate price history: %w", err)
	}

	return points, nil
}
