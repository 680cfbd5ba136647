// FILE: metrics.go
// Package main – Prometheus metrics for observability.
//
// Exposes the primary metrics the engine updates during operation:
//   • engine_budget_total_usd          – Pool total (gauge)
//   • engine_budget_available_usd      – Pool available (gauge)
//   • engine_budget_denied_total       – Allocations refused for lack of funds
//   • engine_workers_live              – Live symbol workers (gauge)
//   • engine_spawns_total{result}      – Spawn attempts (spawned|duplicate|evicted)
//   • engine_phase_transitions_total{phase} – Worker phase entries
//   • engine_orders_total{gateway}     – Bracket orders placed
//   • engine_trades_total{status}      – Ledger records by status
//   • engine_monitor_polls_total{result} – Order-status polls (ok|error)
//   • engine_candidate_scans_total{result} – Engine loop scans (ok|error)
//
// These are registered in init() and served by the gin router started in
// main.go at /metrics (Prometheus text exposition format).

package main

import "github.com/prometheus/client_golang/prometheus"

var (
	mtxBudgetTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "engine_budget_total_usd",
			Help: "Total capital in the shared pool",
		},
	)

	mtxBudgetAvailable = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "engine_budget_available_usd",
			Help: "Capital not currently reserved by workers",
		},
	)

	mtxBudgetDenied = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "engine_budget_denied_total",
			Help: "Allocation attempts refused because the pool could not cover them",
		},
	)

	mtxWorkersLive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "engine_workers_live",
			Help: "Symbol workers currently registered",
		},
	)

	mtxSpawns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "engine_spawns_total",
			Help: "Spawn attempts by result",
		},
		[]string{"result"}, // spawned|duplicate|evicted
	)

	mtxPhaseTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "engine_phase_transitions_total",
			Help: "Worker phase entries",
		},
		[]string{"phase"},
	)

	mtxOrders = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "engine_orders_total",
			Help: "Bracket orders placed",
		},
		[]string{"gateway"},
	)

	mtxTrades = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "engine_trades_total",
			Help: "Ledger records by status (demo|open|closed|cancelled|timeout)",
		},
		[]string{"status"},
	)

	mtxMonitorPolls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "engine_monitor_polls_total",
			Help: "Order-status polls by result",
		},
		[]string{"result"}, // ok|error
	)

	mtxCandidateScans = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "engine_candidate_scans_total",
			Help: "Engine loop candidate scans by result",
		},
		[]string{"result"}, // ok|error
	)
)

func init() {
	prometheus.MustRegister(mtxBudgetTotal, mtxBudgetAvailable, mtxBudgetDenied)
	prometheus.MustRegister(mtxWorkersLive, mtxSpawns, mtxPhaseTransitions)
	prometheus.MustRegister(mtxOrders, mtxTrades, mtxMonitorPolls, mtxCandidateScans)
}

// SetBudgetMetrics primes the gauges at boot so dashboards start from the
// configured pool rather than zero.
func SetBudgetMetrics(info BudgetInfo) {
	mtxBudgetTotal.Set(info.Total)
	mtxBudgetAvailable.Set(info.Available)
}
