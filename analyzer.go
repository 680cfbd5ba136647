// FILE: analyzer.go
// Package main – Range-breakout signal analyzer.
//
// RangeBreakoutAnalyzer is the concrete SignalProvider the engine ships
// with. Accumulation is "established" once the observed support/resistance
// band is tight enough and price is still trading inside it; a breakout is
// a close clearing resistance by a confirmation margin with elevated
// relative volume, not already overextended.
//
// Sizing is dollar-targeted: shares ≈ POSITION_USD / close, with ATR-scaled
// stop and target legs.

package main

import (
	"fmt"
	"math"
)

const (
	atrPeriod  = 14
	rsiPeriod  = 14
	smaPeriod  = 20
	rvolPeriod = 20
	zPeriod    = 20

	rsiOverbought = 80.0
	maxAbsZScore  = 1.25
)

// RangeBreakoutAnalyzer holds the tunables read from Config.
type RangeBreakoutAnalyzer struct {
	MaxRangePct   float64 // band width ceiling, percent of support
	MinRVOL       float64 // relative volume to confirm a breakout
	ConfirmBps    float64 // close must clear resistance by this margin
	ATRStopMult   float64
	ATRTargetMult float64
	PositionUSD   float64
}

func NewRangeBreakoutAnalyzer(cfg Config) *RangeBreakoutAnalyzer {
	return &RangeBreakoutAnalyzer{
		MaxRangePct:   cfg.MaxRangePct,
		MinRVOL:       cfg.MinRVOL,
		ConfirmBps:    cfg.BreakoutConfirmBps,
		ATRStopMult:   cfg.ATRStopMult,
		ATRTargetMult: cfg.ATRTargetMult,
		PositionUSD:   cfg.PositionUSD,
	}
}

// validateWindow rejects malformed candle series before any math runs.
func validateWindow(window []Candle) error {
	if len(window) == 0 {
		return fmt.Errorf("empty window")
	}
	last := window[len(window)-1]
	if last.Close <= 0 || math.IsNaN(last.Close) || math.IsInf(last.Close, 0) {
		return fmt.Errorf("bad close %v", last.Close)
	}
	if last.High < last.Low {
		return fmt.Errorf("high %.4f below low %.4f", last.High, last.Low)
	}
	return nil
}

// EvaluateAccumulation reports whether a stable range has formed.
func (a *RangeBreakoutAnalyzer) EvaluateAccumulation(symbol string, window []Candle, sr *SupportResistance) (bool, error) {
	if err := validateWindow(window); err != nil {
		return false, fmt.Errorf("accumulation %s: %w", symbol, err)
	}
	if !sr.Seeded() || sr.Support <= 0 {
		return false, nil
	}

	last := window[len(window)-1].Close
	// Price must still trade inside the band; a close outside means no
	// stable range yet (or the range already broke before we were ready).
	if last < sr.Support || last > sr.Resistance {
		return false, nil
	}

	widthPct := (sr.Resistance - sr.Support) / sr.Support * 100.0
	if widthPct > a.MaxRangePct {
		return false, nil
	}

	// Tight band plus a statistically quiet close: the range is established.
	z := ZScore(window, zPeriod)
	return math.Abs(z[len(z)-1]) <= maxAbsZScore, nil
}

// EvaluateBreakout decides whether the established range has broken with
// confirmation.
func (a *RangeBreakoutAnalyzer) EvaluateBreakout(symbol string, window []Candle, sr *SupportResistance) (BreakoutEval, error) {
	if err := validateWindow(window); err != nil {
		return BreakoutEval{}, fmt.Errorf("breakout %s: %w", symbol, err)
	}
	last := window[len(window)-1].Close

	// A close losing support invalidates the range entirely.
	if last < sr.Support {
		return BreakoutEval{
			Verdict: VerdictReturnToAccumulation,
			Reason:  fmt.Sprintf("close %.2f below support %.2f", last, sr.Support),
		}, nil
	}

	trigger := sr.Resistance * (1.0 + a.ConfirmBps/10000.0)
	if last <= trigger {
		return BreakoutEval{Verdict: VerdictHold, Reason: "inside range"}, nil
	}

	// Confirmation gates: volume expansion, trend support, not overextended.
	rvol := RelVolume(window, rvolPeriod)
	if rvol < a.MinRVOL {
		return BreakoutEval{
			Verdict: VerdictHold,
			Reason:  fmt.Sprintf("rvol %.2f below %.2f", rvol, a.MinRVOL),
		}, nil
	}
	sma := SMA(window, smaPeriod)
	if trend := sma[len(sma)-1]; !math.IsNaN(trend) && last < trend {
		return BreakoutEval{Verdict: VerdictHold, Reason: "below trend"}, nil
	}
	rsi := RSI(window, rsiPeriod)
	if rsi[len(rsi)-1] >= rsiOverbought {
		return BreakoutEval{Verdict: VerdictHold, Reason: "overextended"}, nil
	}

	atr := ATR(window, atrPeriod)
	rng := atr[len(atr)-1]
	if rng <= 0 || math.IsNaN(rng) {
		// Cannot size exit legs; unrecoverable for this evaluation.
		return BreakoutEval{Verdict: VerdictFatal, Reason: "no usable ATR for sizing"}, nil
	}

	shares := int(a.PositionUSD / last)
	if shares <= 0 {
		return BreakoutEval{Verdict: VerdictFatal, Reason: fmt.Sprintf("price %.2f exceeds position budget %.2f", last, a.PositionUSD)}, nil
	}

	stop := last - rng*a.ATRStopMult
	if stop <= 0 {
		stop = last * 0.5
	}
	return BreakoutEval{
		Verdict:    VerdictBuy,
		Shares:     shares,
		TakeProfit: last + rng*a.ATRTargetMult,
		StopLoss:   stop,
		Reason:     fmt.Sprintf("close %.2f > trigger %.2f rvol=%.2f", last, trigger, rvol),
	}, nil
}
