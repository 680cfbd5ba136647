// FILE: indicators.go
// Package main – Technical indicators for the breakout analyzer.
//
// This file implements lightweight TA helpers used by analyzer.go:
//   • SMA(c, n)       – Simple Moving Average of Close
//   • RSI(c, n)       – Relative Strength Index (Wilder’s smoothing)
//   • ZScore(c, n)    – Rolling Z-Score of Close
//   • ATR(c, n)       – Average True Range (Wilder’s smoothing)
//   • RelVolume(c, n) – last volume relative to the n-bar average (RVOL)
//
// Notes
//   - All functions accept a slice of Candle (defined in strategy.go).
//   - Outputs are aligned to input length; unavailable lookbacks emit NaN/0 as noted.
//   - Keep these fast and allocation-light; they’re called on every worker tick.
package main

import (
	"math"
)

// SMA returns the n-period simple moving average of Close, aligned to c.
// For indices < n-1, the function returns NaN.
func SMA(c []Candle, n int) []float64 {
	out := make([]float64, len(c))
	if n <= 0 || len(c) == 0 {
		for i := range out {
			out[i] = math.NaN()
		}
		return out
	}
	var sum float64
	for i := range c {
		sum += c[i].Close
		if i >= n {
			sum -= c[i-n].Close
		}
		if i >= n-1 {
			out[i] = sum / float64(n)
		} else {
			out[i] = math.NaN()
		}
	}
	return out
}

// RSI returns the n-period Relative Strength Index using Wilder’s smoothing.
// Indices before the first full window are zero (0).
func RSI(c []Candle, n int) []float64 {
	out := make([]float64, len(c))
	if n <= 0 || len(c) == 0 {
		return out
	}
	// Zero average loss pins RSI at the top (all-gain series), zero of
	// both at neutral; a plain gain/loss ratio would report 0 instead.
	rsi := func(gain, loss float64) float64 {
		if loss == 0 {
			if gain == 0 {
				return 50.0
			}
			return 100.0
		}
		return 100.0 - (100.0 / (1.0 + gain/loss))
	}
	var gain, loss float64
	for i := 1; i < len(c); i++ {
		d := c[i].Close - c[i-1].Close
		if i <= n {
			if d > 0 {
				gain += d
			} else {
				loss -= d
			}
			if i == n {
				out[i] = rsi(gain/float64(n), loss/float64(n))
			}
		} else {
			// Wilder smoothing
			if d > 0 {
				gain = (gain*float64(n-1) + d) / float64(n)
				loss = (loss * float64(n-1)) / float64(n)
			} else {
				gain = (gain * float64(n-1)) / float64(n)
				loss = (loss*float64(n-1) - d) / float64(n)
			}
			out[i] = rsi(gain, loss)
		}
	}
	return out
}

// ZScore returns the rolling z-score of Close over window n, aligned to c.
// For indices < n-1, the function returns 0.
func ZScore(c []Candle, n int) []float64 {
	out := make([]float64, len(c))
	if n <= 1 || len(c) == 0 {
		return out
	}
	var sum, sumSq float64
	for i := range c {
		x := c[i].Close
		sum += x
		sumSq += x * x
		if i >= n {
			y := c[i-n].Close
			sum -= y
			sumSq -= y * y
		}
		if i >= n-1 {
			mean := sum / float64(n)
			variance := (sumSq / float64(n)) - (mean * mean)
			std := math.Sqrt(math.Max(variance, 1e-12))
			out[i] = (x - mean) / std
		} else {
			out[i] = 0
		}
	}
	return out
}

// ATR returns the n-period Average True Range with Wilder’s smoothing.
// Indices before the first full window are zero (0).
func ATR(c []Candle, n int) []float64 {
	out := make([]float64, len(c))
	if n <= 0 || len(c) < 2 {
		return out
	}
	tr := func(i int) float64 {
		hl := c[i].High - c[i].Low
		hc := math.Abs(c[i].High - c[i-1].Close)
		lc := math.Abs(c[i].Low - c[i-1].Close)
		return math.Max(hl, math.Max(hc, lc))
	}
	var sum float64
	for i := 1; i < len(c); i++ {
		t := tr(i)
		if i <= n {
			sum += t
			if i == n {
				out[i] = sum / float64(n)
			}
		} else {
			out[i] = (out[i-1]*float64(n-1) + t) / float64(n)
		}
	}
	return out
}

// RelVolume returns the last bar's volume divided by the average volume of
// the preceding n bars (RVOL). Returns 0 when not enough bars exist or the
// baseline is zero.
func RelVolume(c []Candle, n int) float64 {
	if n <= 0 || len(c) < n+1 {
		return 0
	}
	var sum float64
	for i := len(c) - n - 1; i < len(c)-1; i++ {
		sum += c[i].Volume
	}
	avg := sum / float64(n)
	if avg <= 0 {
		return 0
	}
	return c[len(c)-1].Volume / avg
}
