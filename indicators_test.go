package main

import (
	"math"
	"testing"
)

func candlesFromCloses(closes ...float64) []Candle {
	out := make([]Candle, len(closes))
	for i, c := range closes {
		out[i] = Candle{Open: c, High: c + 0.5, Low: c - 0.5, Close: c, Volume: 1000}
	}
	return out
}

func TestSMA(t *testing.T) {
	c := candlesFromCloses(1, 2, 3, 4, 5)
	out := SMA(c, 3)
	if !math.IsNaN(out[1]) {
		t.Fatalf("expected NaN before the first full window, got %v", out[1])
	}
	if out[2] != 2 || out[4] != 4 {
		t.Fatalf("sma values: got %v, %v want 2, 4", out[2], out[4])
	}
}

func TestRSIExtremes(t *testing.T) {
	up := candlesFromCloses(1, 2, 3, 4, 5, 6, 7, 8)
	out := RSI(up, 5)
	if got := out[len(out)-1]; got != 100 {
		t.Fatalf("monotonic gains rsi: got %v want 100", got)
	}
	down := candlesFromCloses(8, 7, 6, 5, 4, 3, 2, 1)
	out = RSI(down, 5)
	if got := out[len(out)-1]; got != 0 {
		t.Fatalf("monotonic losses rsi: got %v want 0", got)
	}
	flat := candlesFromCloses(5, 5, 5, 5, 5, 5, 5, 5)
	out = RSI(flat, 5)
	if got := out[len(out)-1]; got != 50 {
		t.Fatalf("flat series rsi: got %v want 50", got)
	}
}

func TestZScoreFlatSeries(t *testing.T) {
	c := candlesFromCloses(100, 100, 100, 100, 100, 100)
	out := ZScore(c, 5)
	if got := out[len(out)-1]; math.Abs(got) > 1e-6 {
		t.Fatalf("flat series z-score: got %v want ~0", got)
	}
}

func TestATRConstantRange(t *testing.T) {
	// Identical bars: true range is always high-low = 1.0.
	c := make([]Candle, 10)
	for i := range c {
		c[i] = Candle{Open: 100, High: 100.5, Low: 99.5, Close: 100, Volume: 1000}
	}
	out := ATR(c, 5)
	if got := out[len(out)-1]; math.Abs(got-1.0) > 1e-9 {
		t.Fatalf("atr: got %v want 1.0", got)
	}
	if out[3] != 0 {
		t.Fatalf("atr before first full window: got %v want 0", out[3])
	}
}

func TestRelVolume(t *testing.T) {
	c := candlesFromCloses(1, 1, 1, 1, 1, 1)
	c[len(c)-1].Volume = 5000
	if got := RelVolume(c, 5); math.Abs(got-5.0) > 1e-9 {
		t.Fatalf("rvol: got %v want 5.0", got)
	}
	if got := RelVolume(c[:3], 5); got != 0 {
		t.Fatalf("rvol without enough bars: got %v want 0", got)
	}
}
