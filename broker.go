// FILE: broker.go
// Package main – Broker abstractions shared by all execution backends.
//
// This file defines the minimal interface the workers need to talk to an
// order-execution backend (paper or real):
//   • BrokerGateway interface: bracket placement + open-order polling
//   • BracketMonitor: optional long-poll monitoring contract
//   • Common types: OrderRef, OrderStatus, BracketResult
//
// Two concrete implementations live in separate files:
//   • broker_paper.go – in-memory paper gateway (no external calls)
//   • broker_http.go  – HTTP client for the broker REST sidecar
package main

import (
	"context"
	"time"
)

// Order status strings as reported by gateways. The engine only ever
// branches on the two terminal ones.
const (
	StatusOpen      = "open"
	StatusFilled    = "filled"
	StatusCancelled = "cancelled"
)

// terminalStatus reports whether a gateway status ends monitoring for a leg.
func terminalStatus(s string) bool {
	return s == StatusFilled || s == StatusCancelled
}

// OrderRef identifies a placed bracket: the parent entry order plus the two
// exit legs (take-profit, stop-loss). The engine tracks ids and statuses
// only; the order book itself belongs to the gateway.
type OrderRef struct {
	ParentID string
	ChildIDs []string // [take-profit, stop-loss]
	Symbol   string
	Shares   int
	Entry    float64
	Created  time.Time
}

// OrderStatus is one row of a gateway's open/recent order listing.
type OrderStatus struct {
	ID     string `json:"id"`
	Symbol string `json:"symbol"`
	Status string `json:"status"`
}

// BracketResult is whatever the monitor observed by the time it returned.
// Partial results are expected: a timeout reports the statuses seen so far.
type BracketResult struct {
	ParentStatus  string
	ChildStatuses map[string]string
	TimedOut      bool
}

// Outcome reduces the result to a ledger status string.
func (r BracketResult) Outcome() string {
	if r.ParentStatus == StatusCancelled {
		return "cancelled"
	}
	for _, s := range r.ChildStatuses {
		if s == StatusFilled {
			return "closed"
		}
	}
	if r.TimedOut {
		return "timeout"
	}
	return "open"
}

// BrokerGateway is the minimal surface a worker needs to execute.
type BrokerGateway interface {
	Name() string
	PlaceBracketOrder(ctx context.Context, symbol string, shares int, entry, takeProfit, stopLoss float64) (*OrderRef, error)
	PollOpenOrders(ctx context.Context) ([]OrderStatus, error)
}

// BracketMonitor is implemented by gateways that offer a blocking long-poll
// for bracket resolution. Workers prefer it over the generic poll loop in
// monitor.go when available.
type BracketMonitor interface {
	MonitorBracket(ctx context.Context, parentID string, childIDs []string, pollInterval, timeout time.Duration) (BracketResult, error)
}
