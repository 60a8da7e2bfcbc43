package store

import (
	"sync"
	"testing"
	"time"

	"github.com/wadeaT/ETH-ERC20-Mainnet-wallet/internal/buffer"
	"github.com/wadeaT/ETH-ERC20-Mainnet-wallet/internal/model"
)

func rec(usd float64, ts time.Time, source string) model.PriceRecord {
	return model.PriceRecord{USD: usd, LastUpdate: ts, Source: source}
}

func TestStore_UpdateAndSnapshot(t *testing.T) {
	s := New()
	now := time.Now()

	if !s.Update("ethereum", rec(3000, now, "coingecko")) {
		t.Fatal("first update rejected")
	}

	snap := s.Snapshot()
	if len(snap) != 1 {
		t.Fatalf("snapshot has %d records, want 1", len(snap))
	}
	if snap["ethereum"].USD != 3000 {
		t.Errorf("snapshot usd = %v, want 3000", snap["ethereum"].USD)
	}
}

func TestStore_MonotonicLastUpdate(t *testing.T) {
	s := New()
	now := time.Now()

	s.Update("ethereum", rec(3050, now, "binance-ws"))

	// A poll that started earlier resolves later; it must not regress.
	if s.Update("ethereum", rec(3000, now.Add(-5*time.Second), "coingecko")) {
		t.Error("stale update was accepted")
	}

	got, _ := s.Get("ethereum")
	if got.USD != 3050 {
		t.Errorf("usd = %v, want 3050 (stream tick preserved)", got.USD)
	}

	// Equal timestamp: later writer wins.
	if !s.Update("ethereum", rec(3060, now, "binance-ws")) {
		t.Error("equal-timestamp update was rejected")
	}
}

func TestStore_SubscribeReceivesFullSnapshot(t *testing.T) {
	s := New()
	now := time.Now()
	s.Update("tether", rec(1, now, "coingecko"))

	var mu sync.Mutex
	var seen []model.Snapshot
	unsub := s.Subscribe(func(snap model.Snapshot) {
		mu.Lock()
		seen = append(seen, snap)
		mu.Unlock()
	})
	defer unsub()

	s.Update("ethereum", rec(3000, now, "coingecko"))

	mu.Lock()
	defer mu.Unlock()
	if len(seen) != 1 {
		t.Fatalf("callback invoked %d times, want 1", len(seen))
	}
	// Full snapshot, not just the delta.
	if len(seen[0]) != 2 {
		t.Errorf("callback snapshot has %d records, want 2", len(seen[0]))
	}
	if seen[0]["tether"].USD != 1 {
		t.Error("callback snapshot missing previously stored record")
	}
}

func TestStore_RejectedUpdateDoesNotNotify(t *testing.T) {
	s := New()
	now := time.Now()
	s.Update("ethereum", rec(3000, now, "binance-ws"))

	var mu sync.Mutex
	calls := 0
	unsub := s.Subscribe(func(model.Snapshot) {
		mu.Lock()
		calls++
		mu.Unlock()
	})
	defer unsub()

	s.Update("ethereum", rec(2900, now.Add(-time.Second), "coingecko"))

	mu.Lock()
	defer mu.Unlock()
	if calls != 0 {
		t.Errorf("callback invoked %d times for a rejected update, want 0", calls)
	}
}

func TestStore_Unsubscribe(t *testing.T) {
	s := New()

	var mu sync.Mutex
	calls := 0
	unsub := s.Subscribe(func(model.Snapshot) {
		mu.Lock()
		calls++
		mu.Unlock()
	})

	s.Update("ethereum", rec(3000, time.Now(), "x"))
	unsub()
	unsub() // safe to call twice
	s.Update("ethereum", rec(3001, time.Now().Add(time.Second), "x"))

	mu.Lock()
	defer mu.Unlock()
	if calls != 1 {
		t.Errorf("callback invoked %d times, want 1", calls)
	}
}

func TestStore_JournalReceivesAcceptedUpdates(t *testing.T) {
	journal := buffer.NewGrowable[model.PriceUpdate](8)
	s := New(WithJournal(journal))
	now := time.Now()

	s.Update("ethereum", rec(3000, now, "coingecko"))
	s.Update("ethereum", rec(2900, now.Add(-time.Second), "coingecko")) // rejected

	upd, ok := journal.TryReceive()
	if !ok {
		t.Fatal("journal is empty")
	}
	if upd.AssetID != "ethereum" || upd.Record.USD != 3000 {
		t.Errorf("journal entry = %+v, want ethereum @ 3000", upd)
	}
	if _, ok := journal.TryReceive(); ok {
		t.Error("rejected update reached the journal")
	}
}

func TestStore_ConcurrentUpdatesDistinctKeys(t *testing.T) {
	s := New()

	const writers = 8
	const updates = 200

	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			id := []string{"ethereum", "tether", "chainlink", "uniswap",
				"aave", "maker", "arbitrum", "optimism"}[w]
			base := time.Now()
			for i := 0; i < updates; i++ {
				s.Update(id, rec(float64(i), base.Add(time.Duration(i)), "t"))
			}
		}(w)
	}

	// Concurrent readers must never observe torn state.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 100; i++ {
			_ = s.Snapshot()
		}
	}()

	wg.Wait()
	<-done

	snap := s.Snapshot()
	if len(snap) != writers {
		t.Fatalf("snapshot has %d records, want %d", len(snap), writers)
	}
	for id, r := range snap {
		if r.USD != updates-1 {
			t.Errorf("%s final usd = %v, want %d", id, r.USD, updates-1)
		}
	}
}
