// FILE: ledger.go
// Package main – Append-only trade ledger.
//
// Every decision that reaches execution (or would have, in demo mode) is
// recorded here. Records are never mutated after creation; readers get
// copies. The ops API exports the ledger as JSON or CSV (see server.go).

package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Trade actions recorded in the ledger.
const (
	ActionBuy     = "Buy"
	ActionDemoBuy = "Demo Buy"
)

// TradeRecord is one immutable ledger row.
type TradeRecord struct {
	ID            string    `json:"id"`
	Symbol        string    `json:"symbol"`
	Action        string    `json:"action"`
	Price         float64   `json:"price"`
	Shares        int       `json:"shares"`
	TakeProfit    float64   `json:"take_profit"`
	StopLoss      float64   `json:"stop_loss"`
	PotentialGain float64   `json:"potential_gain"`
	PotentialLoss float64   `json:"potential_loss"`
	Status        string    `json:"status"`
	StrategyID    string    `json:"strategy_id"`
	Time          time.Time `json:"time"`
}

// Ledger is the append-only store shared by all workers.
type Ledger struct {
	mu      sync.Mutex
	records []TradeRecord
}

func NewLedger() *Ledger { return &Ledger{} }

// Append stamps an id/time if missing and stores the record.
func (l *Ledger) Append(rec TradeRecord) TradeRecord {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.Time.IsZero() {
		rec.Time = time.Now().UTC()
	}
	l.mu.Lock()
	l.records = append(l.records, rec)
	l.mu.Unlock()
	mtxTrades.WithLabelValues(rec.Status).Inc()
	return rec
}

// Snapshot returns a copy of all records in append order.
func (l *Ledger) Snapshot() []TradeRecord {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]TradeRecord, len(l.records))
	copy(out, l.records)
	return out
}

// Len reports the number of records.
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.records)
}

// WriteCSV streams the ledger in a spreadsheet-friendly layout.
func (l *Ledger) WriteCSV(w io.Writer) error {
	recs := l.Snapshot()
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{
		"time", "symbol", "action", "price", "shares",
		"take_profit", "stop_loss", "potential_gain", "potential_loss",
		"status", "strategy_id", "id",
	}); err != nil {
		return err
	}
	for _, r := range recs {
		row := []string{
			r.Time.Format(time.RFC3339),
			r.Symbol,
			r.Action,
			fmt.Sprintf("%.4f", r.Price),
			fmt.Sprintf("%d", r.Shares),
			fmt.Sprintf("%.4f", r.TakeProfit),
			fmt.Sprintf("%.4f", r.StopLoss),
			fmt.Sprintf("%.2f", r.PotentialGain),
			fmt.Sprintf("%.2f", r.PotentialLoss),
			r.Status,
			r.StrategyID,
			r.ID,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
