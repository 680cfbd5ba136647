// FILE: engine.go
// Package main – The engine: shared collaborators plus the scan loop.
//
// Engine bundles the budget pool, worker registry, trade ledger and the
// external collaborators, and exposes the surface the ops API consumes
// (spawn, stop, list, budget info/top-up, ledger access).
//
// Run drives the periodic candidate scan: ask the candidate source for
// symbols, TrySpawn each one, and keep going no matter what a single scan
// does — a failed screener call or a closed session is logged and skipped,
// never fatal.

package main

import (
	"context"
	"log"
	"sync"
	"time"
)

// Engine owns everything the workers share.
type Engine struct {
	cfg        Config
	budget     *BudgetAllocator
	registry   *WorkerRegistry
	ledger     *Ledger
	hours      *TradingHours
	data       MarketDataSource
	signals    SignalProvider
	gateway    BrokerGateway
	candidates CandidateSource

	// runCtx is the lifecycle context every spawned worker inherits. Ops
	// requests must never lend theirs: net/http cancels it when the
	// handler returns, which would kill the worker at its next checkpoint.
	mu     sync.Mutex
	runCtx context.Context
}

// NewEngine wires the collaborators together. The registry's run callback
// closes over the engine so every spawned worker sees the same pool,
// ledger and gateways.
func NewEngine(cfg Config, data MarketDataSource, signals SignalProvider, gw BrokerGateway,
	candidates CandidateSource, hours *TradingHours) *Engine {
	e := &Engine{
		cfg:        cfg,
		budget:     NewBudgetAllocator(cfg.TotalBudgetUSD),
		ledger:     NewLedger(),
		hours:      hours,
		data:       data,
		signals:    signals,
		gateway:    gw,
		candidates: candidates,
		runCtx:     context.Background(),
	}
	e.registry = NewWorkerRegistry(cfg.StaleWorkerAfter, func(ctx context.Context, entry *WorkerEntry) {
		w := newSymbolWorker(e.cfg, entry, e.registry, e.budget, e.data, e.signals, e.gateway, e.ledger, e.hours)
		w.run(ctx)
	})
	SetBudgetMetrics(e.budget.Info())
	return e
}

// Run executes the candidate scan loop until ctx ends. The first scan
// happens immediately; later ones on the configured cadence.
func (e *Engine) Run(ctx context.Context) {
	e.mu.Lock()
	e.runCtx = ctx
	e.mu.Unlock()

	log.Printf("[SAFETY] TRADING_ENABLED=%v | TOTAL_BUDGET_USD=%.2f | POSITION_USD=%.2f | MIN_POTENTIAL_GAIN_USD=%.2f | STALE_WORKER_MIN=%.0f",
		e.cfg.TradingEnabled, e.cfg.TotalBudgetUSD, e.cfg.PositionUSD,
		e.cfg.MinPotentialGain, e.cfg.StaleWorkerAfter.Minutes())

	ticker := time.NewTicker(e.cfg.CandidateInterval)
	defer ticker.Stop()

	e.scan(ctx)
	for {
		select {
		case <-ctx.Done():
			log.Println("shutdown")
			return
		case <-ticker.C:
			e.scan(ctx)
		}
	}
}

// scan runs one candidate pass. Failures reduce to a log line.
func (e *Engine) scan(ctx context.Context) {
	if !e.hours.IsOpen(time.Now()) {
		return
	}
	syms, err := e.candidates.Candidates(ctx)
	if err != nil {
		log.Printf("[WARN] candidate scan (%s): %v", e.candidates.Name(), err)
		mtxCandidateScans.WithLabelValues("error").Inc()
		return
	}
	mtxCandidateScans.WithLabelValues("ok").Inc()
	for _, sym := range syms {
		e.registry.TrySpawn(ctx, sym, SpawnParams{Source: e.candidates.Name()})
	}
	log.Printf("TRACE engine.scan candidates=%d workers=%d", len(syms), e.registry.Count())
}

// ---- Surface consumed by the ops API (server.go) ----

// TrySpawn starts a worker on the engine's own lifecycle context, so a
// worker spawned over HTTP outlives the request that asked for it.
func (e *Engine) TrySpawn(symbol string, params SpawnParams) {
	e.mu.Lock()
	ctx := e.runCtx
	e.mu.Unlock()
	e.registry.TrySpawn(ctx, symbol, params)
}

func (e *Engine) RequestStop(symbol string) bool { return e.registry.RequestStop(symbol) }

func (e *Engine) ListWorkers() []WorkerView { return e.registry.List() }

func (e *Engine) BudgetInfo() BudgetInfo { return e.budget.Info() }

func (e *Engine) IncreaseBudget(amount float64) BudgetInfo {
	e.budget.Increase(amount)
	info := e.budget.Info()
	log.Printf("[INFO] budget increased by %.2f (total=%.2f available=%.2f)", amount, info.Total, info.Available)
	return info
}

func (e *Engine) Trades() *Ledger { return e.ledger }
