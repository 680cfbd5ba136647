// FILE: worker.go
// Package main – Per-symbol phase state machine.
//
// One SymbolWorker goroutine runs per tracked symbol and drives the
// Accumulation → Breakout → Monitoring → Cleanup protocol against the
// analyzer, data source and broker gateway. The worker allocates shared
// budget around its own lifetime and is the only goroutine that ever
// releases its reservation.
//
// Concurrency design:
//   - The worker suspends only at I/O waits (data fetch, order placement,
//     status polls, timed sleeps) — never inside a budget operation.
//   - Cancellation is cooperative: the stop flag is read at the top of
//     every Accumulation/Breakout iteration and never mid-Monitoring, since
//     an open bracket must be tracked to completion.
//   - Any failure reduces to "go to Cleanup"; nothing a worker does can
//     terminate another worker or the engine loop.

package main

import (
	"context"
	"errors"
	"log"
	"time"
)

// Phase is the worker's internal state.
type Phase int

const (
	PhaseAccumulation Phase = iota
	PhaseBreakout
	PhaseMonitoring
	PhaseCleanup
)

// String implements fmt.Stringer for pretty logging.
func (p Phase) String() string {
	switch p {
	case PhaseAccumulation:
		return "accumulation"
	case PhaseBreakout:
		return "breakout"
	case PhaseMonitoring:
		return "monitoring"
	default:
		return "cleanup"
	}
}

// SymbolWorker owns one symbol's trading session.
type SymbolWorker struct {
	cfg      Config
	entry    *WorkerEntry
	registry *WorkerRegistry
	budget   *BudgetAllocator
	data     MarketDataSource
	signals  SignalProvider
	gateway  BrokerGateway
	ledger   *Ledger
	hours    *TradingHours

	sr       SupportResistance
	reserved float64   // capital currently held by THIS worker; 0 after release
	lastSeen time.Time // newest candle already folded into sr
	pending  *pendingOrder
}

// newSymbolWorker wires a worker to the shared engine collaborators.
func newSymbolWorker(cfg Config, entry *WorkerEntry, reg *WorkerRegistry, budget *BudgetAllocator,
	data MarketDataSource, signals SignalProvider, gw BrokerGateway, ledger *Ledger, hours *TradingHours) *SymbolWorker {
	return &SymbolWorker{
		cfg:      cfg,
		entry:    entry,
		registry: reg,
		budget:   budget,
		data:     data,
		signals:  signals,
		gateway:  gw,
		ledger:   ledger,
		hours:    hours,
	}
}

// run is the worker goroutine body. It always removes its own registry
// entry on return and always routes any held budget through cleanup.
func (w *SymbolWorker) run(ctx context.Context) {
	defer w.registry.remove(w.entry)
	defer w.cleanup()

	sym := w.entry.Symbol
	log.Printf("[INFO] worker %s started (source=%s)", sym, w.entry.Source)

	phase := PhaseAccumulation
	for {
		switch phase {
		case PhaseAccumulation, PhaseBreakout:
			// Stop/session checkpoints live only here: an open bracket in
			// Monitoring must be tracked to completion.
			if w.entry.StopRequested() {
				log.Printf("[INFO] worker %s stop requested in %s", sym, phase)
				return
			}
			if ctx.Err() != nil {
				return
			}
			if !w.hours.IsOpen(time.Now()) {
				log.Printf("[INFO] worker %s session closed in %s", sym, phase)
				return
			}

			window, err := w.data.Fetch(ctx, sym)
			switch {
			case errors.Is(err, ErrInsufficientData), err == nil && len(window) < w.cfg.MinSamples:
				// Not a failure: wait out the warmup.
				if !w.sleep(ctx, w.cfg.PollInterval) {
					return
				}
				continue
			case err != nil:
				// Transient data trouble recovers by looping.
				log.Printf("[WARN] worker %s fetch: %v", sym, err)
				if !w.sleep(ctx, w.cfg.PollInterval) {
					return
				}
				continue
			}
			w.observe(window)

			if phase == PhaseAccumulation {
				phase = w.stepAccumulation(window)
			} else {
				phase = w.stepBreakout(ctx, window)
			}
			if phase == PhaseCleanup {
				return
			}
			if phase != PhaseMonitoring {
				if !w.sleep(ctx, w.cfg.PollInterval) {
					return
				}
			}

		case PhaseMonitoring:
			// stepBreakout stored the order ref on the worker before
			// switching phases.
			w.monitorOrder(ctx)
			return

		default:
			return
		}
	}
}

// observe folds newly-arrived candles into the support/resistance band.
// Sources serve rolling windows that slide once they hit their cap, so
// "new" is decided by candle timestamp, never by window length. Bounds
// only ever widen while the range holds; a reset happens by reseeding
// (see stepBreakout's return-to-accumulation path).
func (w *SymbolWorker) observe(window []Candle) {
	for _, c := range window {
		if !c.Time.After(w.lastSeen) {
			continue
		}
		w.sr.Observe(c)
		w.lastSeen = c.Time
	}
}

// stepAccumulation asks the analyzer whether the range is established.
func (w *SymbolWorker) stepAccumulation(window []Candle) Phase {
	sym := w.entry.Symbol
	done, err := w.signals.EvaluateAccumulation(sym, window, &w.sr)
	if err != nil {
		// Analyzer computation errors are contained: this worker ends.
		log.Printf("[WARN] worker %s accumulation eval: %v", sym, err)
		return PhaseCleanup
	}
	if !done {
		return PhaseAccumulation
	}
	log.Printf("[INFO] worker %s accumulation complete (support=%.2f resistance=%.2f)",
		sym, w.sr.Support, w.sr.Resistance)
	mtxPhaseTransitions.WithLabelValues("breakout").Inc()
	return PhaseBreakout
}

// pending is the bracket placed by stepBreakout, consumed by monitorOrder.
type pendingOrder struct {
	ref    *OrderRef
	record TradeRecord
}

// stepBreakout re-evaluates the window for a confirmed breakout and, on a
// Buy verdict, sizes, gates, reserves budget and places the bracket.
func (w *SymbolWorker) stepBreakout(ctx context.Context, window []Candle) Phase {
	sym := w.entry.Symbol
	eval, err := w.signals.EvaluateBreakout(sym, window, &w.sr)
	if err != nil {
		log.Printf("[WARN] worker %s breakout eval: %v", sym, err)
		return PhaseCleanup
	}

	switch eval.Verdict {
	case VerdictHold:
		return PhaseBreakout

	case VerdictReturnToAccumulation:
		log.Printf("[INFO] worker %s range lost (%s), back to accumulation", sym, eval.Reason)
		// Reseed the band from scratch on the next window.
		w.sr = SupportResistance{}
		w.lastSeen = time.Time{}
		mtxPhaseTransitions.WithLabelValues("accumulation").Inc()
		return PhaseAccumulation

	case VerdictFatal:
		log.Printf("[WARN] worker %s analyzer fatal: %s", sym, eval.Reason)
		return PhaseCleanup

	case VerdictBuy:
		// fallthrough to placement below
	default:
		return PhaseBreakout
	}

	entryPrice := window[len(window)-1].Close
	if eval.Shares <= 0 || entryPrice <= 0 {
		log.Printf("[WARN] worker %s buy verdict with no size (shares=%d price=%.2f)", sym, eval.Shares, entryPrice)
		return PhaseCleanup
	}
	potentialGain := (eval.TakeProfit - entryPrice) * float64(eval.Shares)
	potentialLoss := (entryPrice - eval.StopLoss) * float64(eval.Shares)

	if potentialGain < w.cfg.MinPotentialGain {
		// Reject before touching the pool; nothing to release.
		log.Printf("[INFO] worker %s trade rejected: potential gain %.2f < min %.2f",
			sym, potentialGain, w.cfg.MinPotentialGain)
		return PhaseCleanup
	}

	required := entryPrice * float64(eval.Shares)
	if !w.budget.Allocate(required) {
		info := w.budget.Info()
		log.Printf("[INFO] worker %s insufficient budget: need %.2f, available %.2f of %.2f",
			sym, required, info.Available, info.Total)
		mtxBudgetDenied.Inc()
		return PhaseCleanup
	}
	w.reserved = required

	rec := TradeRecord{
		Symbol:        sym,
		Action:        ActionBuy,
		Price:         entryPrice,
		Shares:        eval.Shares,
		TakeProfit:    eval.TakeProfit,
		StopLoss:      eval.StopLoss,
		PotentialGain: potentialGain,
		PotentialLoss: potentialLoss,
		StrategyID:    w.cfg.StrategyID,
	}

	if !w.cfg.TradingEnabled {
		// Demo mode: record the would-be trade and hand the capital straight
		// back — a simulated position consumes no lasting budget.
		rec.Action = ActionDemoBuy
		rec.Status = "demo"
		w.ledger.Append(rec)
		w.budget.Release(w.reserved)
		w.reserved = 0
		log.Printf("[INFO] worker %s demo buy %d @ %.2f tp=%.2f sl=%.2f (%s)",
			sym, eval.Shares, entryPrice, eval.TakeProfit, eval.StopLoss, eval.Reason)
		return PhaseCleanup
	}

	ref, err := w.gateway.PlaceBracketOrder(ctx, sym, eval.Shares, entryPrice, eval.TakeProfit, eval.StopLoss)
	if err != nil {
		// Deferred cleanup releases the reservation.
		log.Printf("[WARN] worker %s place bracket: %v", sym, err)
		return PhaseCleanup
	}
	rec.Status = "open"
	rec = w.ledger.Append(rec)
	w.pending = &pendingOrder{ref: ref, record: rec}
	w.registry.markTrade(w.entry, time.Now().UTC())
	mtxOrders.WithLabelValues(w.gateway.Name()).Inc()
	mtxPhaseTransitions.WithLabelValues("monitoring").Inc()
	log.Printf("[INFO] worker %s bracket placed parent=%s shares=%d entry=%.2f tp=%.2f sl=%.2f",
		sym, ref.ParentID, eval.Shares, entryPrice, eval.TakeProfit, eval.StopLoss)
	return PhaseMonitoring
}

// monitorOrder tracks the placed bracket to a terminal outcome or to the
// bell, whichever comes first, then records the result. Budget release
// happens in the deferred cleanup.
func (w *SymbolWorker) monitorOrder(ctx context.Context) {
	sym := w.entry.Symbol
	p := w.pending
	if p == nil {
		return
	}

	timeout := w.hours.TimeToClose(time.Now())
	if timeout <= 0 {
		timeout = w.cfg.MonitorInterval
	}

	var res BracketResult
	if bm, ok := w.gateway.(BracketMonitor); ok {
		r, err := bm.MonitorBracket(ctx, p.ref.ParentID, p.ref.ChildIDs, w.cfg.MonitorInterval, timeout)
		if err != nil {
			// Long-poll variant failed; fall back to manual polling.
			log.Printf("[WARN] worker %s long-poll monitor: %v (falling back)", sym, err)
			res = monitorBracket(ctx, w.gateway, p.ref.ParentID, p.ref.ChildIDs, w.cfg.MonitorInterval, timeout)
		} else {
			res = r
		}
	} else {
		res = monitorBracket(ctx, w.gateway, p.ref.ParentID, p.ref.ChildIDs, w.cfg.MonitorInterval, timeout)
	}

	outcome := res.Outcome()
	w.ledger.Append(TradeRecord{
		Symbol:        sym,
		Action:        ActionBuy,
		Price:         p.record.Price,
		Shares:        p.record.Shares,
		TakeProfit:    p.record.TakeProfit,
		StopLoss:      p.record.StopLoss,
		PotentialGain: p.record.PotentialGain,
		PotentialLoss: p.record.PotentialLoss,
		Status:        outcome,
		StrategyID:    w.cfg.StrategyID,
	})
	log.Printf("[INFO] worker %s bracket %s resolved: parent=%s outcome=%s timed_out=%v",
		sym, p.ref.ParentID, res.ParentStatus, outcome, res.TimedOut)
}

// cleanup releases any budget still held. Idempotent: demo buys already
// returned their reservation, so this is a no-op against zero.
func (w *SymbolWorker) cleanup() {
	if w.reserved > 0 {
		w.budget.Release(w.reserved)
		w.reserved = 0
	}
	log.Printf("[INFO] worker %s session ended", w.entry.Symbol)
}

// sleep waits one interval, returning false if the context ended.
func (w *SymbolWorker) sleep(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}
