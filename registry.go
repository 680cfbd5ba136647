// FILE: registry.go
// Package main – Registry of live per-symbol workers.
//
// WorkerRegistry owns the symbol→entry map. Every mutation (insert, stale
// eviction, removal) happens under one mutex, so the engine loop, the ops
// API and all worker goroutines observe a consistent set. Workers hold a
// pointer to their own entry only to read the stop flag and stamp trades —
// the registry remains the sole authority over membership.
//
// Spawn races are closed by registering the entry before the worker
// goroutine starts: a second TrySpawn for the same symbol sees the entry
// and no-ops.

package main

import (
	"context"
	"log"
	"sync"
	"sync/atomic"
	"time"
)

// SpawnParams carries per-spawn metadata from a candidate source.
type SpawnParams struct {
	Source string // which candidate source offered the symbol
}

// WorkerEntry is the registry's record of one live worker.
type WorkerEntry struct {
	Symbol  string
	Source  string
	Started time.Time

	stopRequested atomic.Bool
	// lastTrade is guarded by the owning registry's mutex.
	lastTrade time.Time
}

// StopRequested reports the cooperative stop flag. Workers poll it at the
// top of every Accumulation/Breakout iteration.
func (e *WorkerEntry) StopRequested() bool { return e.stopRequested.Load() }

// WorkerView is the snapshot shape returned to the ops API.
type WorkerView struct {
	Symbol        string     `json:"symbol"`
	Source        string     `json:"source"`
	Started       time.Time  `json:"started"`
	StopRequested bool       `json:"stop_requested"`
	LastTrade     *time.Time `json:"last_trade,omitempty"`
}

// WorkerRegistry tracks the set of live SymbolWorkers.
type WorkerRegistry struct {
	mu         sync.Mutex
	workers    map[string]*WorkerEntry
	staleAfter time.Duration
	run        func(ctx context.Context, entry *WorkerEntry)
}

// NewWorkerRegistry builds a registry. run is invoked in a fresh goroutine
// for each spawned entry and must call remove(entry) before returning.
func NewWorkerRegistry(staleAfter time.Duration, run func(ctx context.Context, entry *WorkerEntry)) *WorkerRegistry {
	if staleAfter <= 0 {
		staleAfter = 30 * time.Minute
	}
	return &WorkerRegistry{
		workers:    make(map[string]*WorkerEntry),
		staleAfter: staleAfter,
		run:        run,
	}
}

// TrySpawn starts a worker for symbol unless a live, non-stale one exists.
// A live worker whose last trade is older than the staleness window is
// evicted (stop requested, entry dropped) and replaced.
func (r *WorkerRegistry) TrySpawn(ctx context.Context, symbol string, params SpawnParams) {
	r.mu.Lock()
	if cur, ok := r.workers[symbol]; ok {
		if cur.lastTrade.IsZero() || time.Since(cur.lastTrade) <= r.staleAfter {
			r.mu.Unlock()
			mtxSpawns.WithLabelValues("duplicate").Inc()
			return
		}
		// Stale: the old worker is told to stop; its own removal is a no-op
		// because the map slot now points at the replacement.
		cur.stopRequested.Store(true)
		delete(r.workers, symbol)
		mtxSpawns.WithLabelValues("evicted").Inc()
		log.Printf("[INFO] worker %s stale (last trade %s ago), replacing",
			symbol, time.Since(cur.lastTrade).Round(time.Second))
	}

	entry := &WorkerEntry{
		Symbol:  symbol,
		Source:  params.Source,
		Started: time.Now().UTC(),
	}
	// Register before the goroutine starts so a racing TrySpawn can never
	// create a second worker for the same symbol.
	r.workers[symbol] = entry
	mtxWorkersLive.Set(float64(len(r.workers)))
	r.mu.Unlock()

	mtxSpawns.WithLabelValues("spawned").Inc()
	go r.run(ctx, entry)
}

// RequestStop sets the cooperative stop flag; it never cancels the worker's
// in-flight I/O. Unknown symbols are a no-op.
func (r *WorkerRegistry) RequestStop(symbol string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.workers[symbol]
	if !ok {
		return false
	}
	entry.stopRequested.Store(true)
	return true
}

// markTrade stamps the entry's last trade time; called by the owning worker
// right after an order is placed.
func (r *WorkerRegistry) markTrade(entry *WorkerEntry, at time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry.lastTrade = at
}

// remove drops the entry when its worker returns. Guarded by pointer
// identity so a stale-evicted worker cannot remove its replacement.
func (r *WorkerRegistry) remove(entry *WorkerEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cur, ok := r.workers[entry.Symbol]; ok && cur == entry {
		delete(r.workers, entry.Symbol)
	}
	mtxWorkersLive.Set(float64(len(r.workers)))
}

// List returns a snapshot of live workers for reporting.
func (r *WorkerRegistry) List() []WorkerView {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]WorkerView, 0, len(r.workers))
	for _, e := range r.workers {
		v := WorkerView{
			Symbol:        e.Symbol,
			Source:        e.Source,
			Started:       e.Started,
			StopRequested: e.stopRequested.Load(),
		}
		if !e.lastTrade.IsZero() {
			t := e.lastTrade
			v.LastTrade = &t
		}
		out = append(out, v)
	}
	return out
}

// Count reports the number of live workers.
func (r *WorkerRegistry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.workers)
}
