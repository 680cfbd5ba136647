// FILE: strategy.go
// Package main – Core market abstractions and analyzer contracts.
//
// This file declares the market data types used across the engine (Candle),
// the breakout verdict enum, the SignalProvider/MarketDataSource contracts
// every worker drives, and the per-symbol support/resistance band.
//
// A concrete SignalProvider lives in analyzer.go; concrete data sources in
// marketdata.go, marketdata_ws.go and replay.go.

package main

import (
	"context"
	"errors"
	"time"
)

// Candle is the normalized OHLCV row the engine uses everywhere.
type Candle struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// ErrInsufficientData signals that the source does not yet have enough
// samples for this symbol. Workers treat it as "wait and retry", never as a
// failure.
var ErrInsufficientData = errors.New("insufficient market data")

// MarketDataSource returns the latest rolling OHLCV window for a symbol.
type MarketDataSource interface {
	Name() string
	Fetch(ctx context.Context, symbol string) ([]Candle, error)
}

// SupportResistance is the per-symbol range band the analyzer evaluates
// against. Seeded from the first sample's high/low; bounds only ever widen
// while the range holds.
type SupportResistance struct {
	Support    float64
	Resistance float64
	seeded     bool
}

// Observe folds one candle into the band.
func (sr *SupportResistance) Observe(c Candle) {
	if !sr.seeded {
		sr.Support = c.Low
		sr.Resistance = c.High
		sr.seeded = true
		return
	}
	if c.Low < sr.Support {
		sr.Support = c.Low
	}
	if c.High > sr.Resistance {
		sr.Resistance = c.High
	}
}

// Seeded reports whether the band has seen at least one candle.
func (sr *SupportResistance) Seeded() bool { return sr.seeded }

// Verdict is the breakout evaluation outcome.
type Verdict int

const (
	VerdictHold Verdict = iota
	VerdictBuy
	VerdictReturnToAccumulation
	VerdictFatal
)

// String implements fmt.Stringer for pretty logging.
func (v Verdict) String() string {
	switch v {
	case VerdictBuy:
		return "BUY"
	case VerdictReturnToAccumulation:
		return "RETURN_TO_ACCUMULATION"
	case VerdictFatal:
		return "FATAL"
	default:
		return "HOLD"
	}
}

// BreakoutEval carries the verdict plus the proposed trade when the verdict
// is Buy.
type BreakoutEval struct {
	Verdict    Verdict
	Shares     int
	TakeProfit float64
	StopLoss   float64
	Reason     string
}

// SignalProvider answers the two questions each phase asks.
type SignalProvider interface {
	// EvaluateAccumulation reports whether the symbol has established a
	// stable range and a breakout should now be sought.
	EvaluateAccumulation(symbol string, window []Candle, sr *SupportResistance) (bool, error)
	// EvaluateBreakout decides whether the range has broken with
	// confirmation, and if so proposes sizing and exit legs.
	EvaluateBreakout(symbol string, window []Candle, sr *SupportResistance) (BreakoutEval, error)
}
