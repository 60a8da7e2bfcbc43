package history

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/wadeaT/ETH-ERC20-Mainnet-wallet/internal/buffer"
	"github.com/wadeaT/ETH-ERC20-Mainnet-wallet/internal/model"
)

// fakeSender records what the writer hands to the database.
type fakeSender struct {
	calls      atomic.Int64
	lastCtxErr error
	lastLen    int
}

func (f *fakeSender) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults {
	f.calls.Add(1)
	f.lastCtxErr = ctx.Err()
	f.lastLen = b.Len()
	return &fakeBatchResults{remaining: b.Len()}
}

type fakeBatchResults struct {
	remaining int
}

func (r *fakeBatchResults) Exec() (pgconn.CommandTag, error) {
	r.remaining--
	return pgconn.NewCommandTag("INSERT 0 1"), nil
}

func (r *fakeBatchResults) Query() (pgx.Rows, error) { return nil, nil }
func (r *fakeBatchResults) QueryRow() pgx.Row        { return nil }
func (r *fakeBatchResults) Close() error             { return nil }

func TestTransform(t *testing.T) {
	ts := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	upd := model.PriceUpdate{
		AssetID: "ethereum",
		Record: model.PriceRecord{
			USD:          3021.55,
			USD24hChange: -1.25,
			Volume24h:    12_000_000,
			LastUpdate:   ts,
			Source:       "binance-ws",
		},
	}

	r := transform(upd)

	if r.AssetID != "ethereum" {
		t.Errorf("AssetID = %q, want %q", r.AssetID, "ethereum")
	}
	if r.TsMs != ts.UnixMilli() {
		t.Errorf("TsMs = %d, want %d", r.TsMs, ts.UnixMilli())
	}
	if r.USD != 3021.55 {
		t.Errorf("USD = %v, want 3021.55", r.USD)
	}
	if r.Change24 != -1.25 {
		t.Errorf("Change24 = %v, want -1.25", r.Change24)
	}
	if r.Source != "binance-ws" {
		t.Errorf("Source = %q, want %q", r.Source, "binance-ws")
	}
}

func TestConsumeAccumulatesBelowBatchSize(t *testing.T) {
	buf := buffer.NewGrowable[model.PriceUpdate](8)
	w := NewWriter(Config{BatchSize: 100, FlushInterval: time.Hour}, buf, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	if err := w.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	for i := 0; i < 2; i++ {
		buf.Send(model.PriceUpdate{
			AssetID: "ethereum",
			Record:  model.PriceRecord{USD: 3000, LastUpdate: time.Now()},
		})
	}

	deadline := time.After(2 * time.Second)
	for {
		w.batchMu.Lock()
		n := len(w.batch)
		w.batchMu.Unlock()
		if n == 2 {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("batch len = %d, want 2", n)
		case <-time.After(5 * time.Millisecond):
		}
	}

	// Below the batch size nothing is handed to the database; stop the
	// loops directly since Stop would attempt a final flush.
	cancel()
	w.flushTicker.Stop()
	w.wg.Wait()
}

func TestStopFlushesPendingBatch(t *testing.T) {
	buf := buffer.NewGrowable[model.PriceUpdate](8)
	db := &fakeSender{}
	w := NewWriter(Config{BatchSize: 100, FlushInterval: time.Hour}, buf, db, nil)

	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	buf.Send(model.PriceUpdate{
		AssetID: "ethereum",
		Record:  model.PriceRecord{USD: 3000, LastUpdate: time.Now()},
	})

	deadline := time.After(2 * time.Second)
	for {
		w.batchMu.Lock()
		n := len(w.batch)
		w.batchMu.Unlock()
		if n == 1 {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("batch len = %d, want 1", n)
		case <-time.After(5 * time.Millisecond):
		}
	}

	if err := w.Stop(context.Background()); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}

	if got := db.calls.Load(); got != 1 {
		t.Fatalf("SendBatch calls = %d, want 1", got)
	}
	if db.lastCtxErr != nil {
		t.Errorf("final flush context error = %v, want nil", db.lastCtxErr)
	}
	if db.lastLen != 1 {
		t.Errorf("final flush batch len = %d, want 1", db.lastLen)
	}
	if got := w.Stats().Inserts; got != 1 {
		t.Errorf("Stats().Inserts = %d, want 1", got)
	}
}

func TestPricePointMarshalJSON(t *testing.T) {
	p := PricePoint{TsMs: 1717243200000, USD: 3021.55}

	data, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if got, want := string(data), "[1717243200000,3021.55]"; got != want {
		t.Errorf("Marshal() = %s, want %s", got, want)
	}

	points := []PricePoint{p, {TsMs: 1717243260000, USD: 3022}}
	data, err = json.Marshal(points)
	if err != nil {
		t.Fatalf("Marshal(slice) error = %v", err)
	}
	if got, want := string(data), "[[1717243200000,3021.55],[1717243260000,3022]]"; got != want {
		t.Errorf("Marshal(slice) = %s, want %s", got, want)
	}
}
