package main

import (
	"context"
	"sync"
	"testing"
	"time"
)

// blockingRun returns a run callback that records each entry it is started
// with and blocks until release is closed.
func blockingRun(release <-chan struct{}) (func(context.Context, *WorkerEntry), func() []*WorkerEntry) {
	var mu sync.Mutex
	var started []*WorkerEntry
	run := func(ctx context.Context, entry *WorkerEntry) {
		mu.Lock()
		started = append(started, entry)
		mu.Unlock()
		<-release
	}
	snapshot := func() []*WorkerEntry {
		mu.Lock()
		defer mu.Unlock()
		out := make([]*WorkerEntry, len(started))
		copy(out, started)
		return out
	}
	return run, snapshot
}

func TestSpawnIdempotent(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	run, started := blockingRun(release)
	r := NewWorkerRegistry(30*time.Minute, run)

	ctx := context.Background()
	r.TrySpawn(ctx, "AAPL", SpawnParams{Source: "test"})
	r.TrySpawn(ctx, "AAPL", SpawnParams{Source: "test"})
	r.TrySpawn(ctx, "AAPL", SpawnParams{Source: "test"})

	if got := r.Count(); got != 1 {
		t.Fatalf("duplicate spawns created %d workers, want 1", got)
	}
	waitFor(t, time.Second, func() bool { return len(started()) == 1 })
	if got := len(started()); got != 1 {
		t.Fatalf("%d run callbacks started, want 1", got)
	}
}

func TestSpawnIdempotentConcurrent(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	run, started := blockingRun(release)
	r := NewWorkerRegistry(30*time.Minute, run)

	var wg sync.WaitGroup
	gate := make(chan struct{})
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-gate
			r.TrySpawn(context.Background(), "MSFT", SpawnParams{Source: "race"})
		}()
	}
	close(gate)
	wg.Wait()

	if got := r.Count(); got != 1 {
		t.Fatalf("racing spawns created %d workers, want 1", got)
	}
	waitFor(t, time.Second, func() bool { return len(started()) == 1 })
}

func TestStaleWorkerEvicted(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	run, started := blockingRun(release)
	r := NewWorkerRegistry(30*time.Minute, run)

	ctx := context.Background()
	r.TrySpawn(ctx, "NVDA", SpawnParams{Source: "test"})
	waitFor(t, time.Second, func() bool { return len(started()) == 1 })
	old := started()[0]

	// A fresh trade keeps the worker alive.
	r.markTrade(old, time.Now())
	r.TrySpawn(ctx, "NVDA", SpawnParams{Source: "test"})
	if got := r.Count(); got != 1 {
		t.Fatalf("fresh worker was not kept: count=%d", got)
	}
	if old.StopRequested() {
		t.Fatalf("fresh worker must not be stopped")
	}

	// Backdate the last trade beyond the staleness window.
	r.markTrade(old, time.Now().Add(-31*time.Minute))
	r.TrySpawn(ctx, "NVDA", SpawnParams{Source: "test"})

	if !old.StopRequested() {
		t.Fatalf("stale worker was not told to stop")
	}
	if got := r.Count(); got != 1 {
		t.Fatalf("eviction left count=%d, want 1", got)
	}
	waitFor(t, time.Second, func() bool { return len(started()) == 2 })
	replacement := started()[1]
	if replacement == old {
		t.Fatalf("replacement is the old entry")
	}

	// The evicted worker's own removal must not touch the replacement.
	r.remove(old)
	if got := r.Count(); got != 1 {
		t.Fatalf("stale worker removed its replacement: count=%d", got)
	}
	r.remove(replacement)
	if got := r.Count(); got != 0 {
		t.Fatalf("replacement removal failed: count=%d", got)
	}
}

func TestNeverTradedWorkerIsNotStale(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	run, started := blockingRun(release)
	r := NewWorkerRegistry(time.Millisecond, run)

	ctx := context.Background()
	r.TrySpawn(ctx, "TSLA", SpawnParams{Source: "test"})
	waitFor(t, time.Second, func() bool { return len(started()) == 1 })
	time.Sleep(5 * time.Millisecond)

	// lastTrade is zero, so even a tiny staleness window never evicts.
	r.TrySpawn(ctx, "TSLA", SpawnParams{Source: "test"})
	if started()[0].StopRequested() {
		t.Fatalf("never-traded worker evicted as stale")
	}
	if got := r.Count(); got != 1 {
		t.Fatalf("count=%d, want 1", got)
	}
}

func TestRequestStop(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	run, started := blockingRun(release)
	r := NewWorkerRegistry(30*time.Minute, run)

	if r.RequestStop("GOOG") {
		t.Fatalf("stop of unknown symbol should report false")
	}
	r.TrySpawn(context.Background(), "GOOG", SpawnParams{Source: "test"})
	waitFor(t, time.Second, func() bool { return len(started()) == 1 })
	if !r.RequestStop("GOOG") {
		t.Fatalf("stop of live symbol should report true")
	}
	if !started()[0].StopRequested() {
		t.Fatalf("stop flag not set on entry")
	}
	// The flag is advisory; the entry stays until the worker removes itself.
	if got := r.Count(); got != 1 {
		t.Fatalf("stop must not remove the entry: count=%d", got)
	}
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, d time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(d)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("condition not reached within %s", d)
}
